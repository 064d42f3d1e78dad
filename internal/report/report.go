package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/packing-station/internal/domain/fulfillment"
)

const (
	StatusScanned   = "Отсканирован"
	StatusUnscanned = "Не отсканирован"
	StatusEmptyBox  = "Пустой короб"
)

var header = []interface{}{"Заказ", "Короб", "Штрихкод", "Товар", "Размер", "Цвет", "Статус"}

func status(r fulfillment.ReportRow) string {
	switch {
	case !r.HasItem:
		return StatusEmptyBox
	case r.Scanned:
		return StatusScanned
	default:
		return StatusUnscanned
	}
}

// Build собирает xlsx: строка заголовка и по строке на товар.
func Build(rows []fulfillment.ReportRow) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("report header: %w", err)
	}

	for i, r := range rows {
		excelRow := []interface{}{r.OrderNumber, r.BoxNumber, r.Barcode, r.ProductName, r.Size, r.Color, status(r)}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &excelRow); err != nil {
			return nil, fmt.Errorf("report row %d: %w", i+2, err)
		}
	}
	_ = f.SetColWidth(sheet, "C", "D", 24)

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	return buf, nil
}

// PDFPrinter HTML в PDF; в проде это label.ChromeRenderer.
type PDFPrinter interface {
	PrintHTML(ctx context.Context, html string, widthPt, heightPt float64) ([]byte, error)
}

type Writer struct {
	dir string
	pdf PDFPrinter
	now func() time.Time
}

func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "."
	}
	return &Writer{dir: dir, now: time.Now}
}

// WithPDF рядом с xlsx сохраняется PDF-листинг.
func (w *Writer) WithPDF(p PDFPrinter) *Writer {
	w.pdf = p
	return w
}

// Save пишет order_report_<order>_<ts>.xlsx (и .pdf, если задан принтер)
// в каталог выгрузки. Возвращает пути уже записанных файлов и при ошибке.
func (w *Writer) Save(ctx context.Context, orderNumber string, rows []fulfillment.ReportRow) ([]string, error) {
	buf, err := Build(rows)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, err
	}
	base := filepath.Join(w.dir, fmt.Sprintf("order_report_%s_%s",
		strings.ReplaceAll(orderNumber, string(filepath.Separator), "_"),
		w.now().Format("20060102_150405")))

	if err := os.WriteFile(base+".xlsx", buf.Bytes(), 0o644); err != nil {
		return nil, err
	}
	paths := []string{base + ".xlsx"}
	if w.pdf == nil {
		return paths, nil
	}

	listing, err := HTML(orderNumber, rows)
	if err != nil {
		return paths, err
	}
	pdf, err := w.pdf.PrintHTML(ctx, listing, a4Width, a4Height)
	if err != nil {
		return paths, fmt.Errorf("report pdf: %w", err)
	}
	if err := os.WriteFile(base+".pdf", pdf, 0o644); err != nil {
		return paths, err
	}
	return append(paths, base+".pdf"), nil
}
