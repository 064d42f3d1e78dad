package report

import (
	"html/template"
	"strings"

	"github.com/Spok95/packing-station/internal/domain/fulfillment"
)

// A4 в пунктах.
const (
	a4Width  = 595
	a4Height = 842
)

var page = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><style>
body { font-family: "DejaVu Sans", Arial, sans-serif; font-size: 10pt; margin: 40pt 50pt; }
h1 { font-size: 14pt; margin: 0 0 12pt; }
p { margin: 0 0 6pt; }
</style></head><body>
<h1>Отчёт по заказу {{.Order}}</h1>
{{range .Lines}}<p>{{.}}</p>
{{end}}</body></html>`))

// HTML листинг заказа: одна строка на товар, пустой короб тоже строкой.
func HTML(orderNumber string, rows []fulfillment.ReportRow) (string, error) {
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, "Заказ: "+r.OrderNumber+", Короб: "+r.BoxNumber+
			", Товар: "+r.ProductName+", Штрихкод: "+r.Barcode+
			", Размер: "+r.Size+", Цвет: "+r.Color+", Статус: "+status(r))
	}
	var b strings.Builder
	err := page.Execute(&b, struct {
		Order string
		Lines []string
	}{orderNumber, lines})
	return b.String(), err
}
