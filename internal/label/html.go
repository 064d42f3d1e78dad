package label

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"image/png"
	"net/http"
	"os"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/datamatrix"
)

var pageTmpl = template.Must(template.New("label").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><style>
@page { size: {{.Width}}pt {{.Height}}pt; margin: 0; }
body { margin: 0; width: {{.Width}}pt; height: {{.Height}}pt; position: relative;
       font-family: "DejaVu Sans", Arial, sans-serif; }
.o { position: absolute; white-space: pre; }
</style></head><body>
{{range .Elements}}{{if .Src}}<img class="o" style="left:{{.X}}pt;top:{{.Y}}pt;width:{{.Size}}pt;height:{{.Size}}pt" src="{{.Src}}">
{{else}}<div class="o" style="left:{{.X}}pt;top:{{.Y}}pt;font-size:{{.FontSize}}pt;font-weight:{{if .Bold}}bold{{else}}normal{{end}}">{{.Text}}</div>
{{end}}{{end}}</body></html>`))

type htmlElement struct {
	X, Y     float64
	FontSize int
	Bold     bool
	Text     string
	Size     float64
	Src      template.URL
}

// HTML страница этикетки; картинки встраиваются как data URI,
// чтобы рендеру не нужен был доступ к файлам.
func HTML(t Template, req Request) (string, error) {
	els := Resolve(t, req.Fields)
	view := struct {
		Width, Height float64
		Elements      []htmlElement
	}{Width: t.Width, Height: t.Height}

	for _, el := range els {
		he := htmlElement{X: el.X, Y: el.Y, FontSize: el.FontSize, Bold: el.Bold, Text: el.Text, Size: el.Size}
		switch el.Kind {
		case ElemDatamatrix:
			src, err := datamatrixURI(el.Text, int(el.Size))
			if err != nil {
				return "", err
			}
			he.Src = src
		case ElemImage:
			src, err := fileURI(el.Path)
			if err != nil {
				return "", err
			}
			he.Src = src
		}
		view.Elements = append(view.Elements, he)
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func datamatrixURI(content string, size int) (template.URL, error) {
	code, err := datamatrix.Encode(content)
	if err != nil {
		return "", fmt.Errorf("encode datamatrix: %w", err)
	}
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return "", fmt.Errorf("scale datamatrix: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return "", err
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())), nil
}

func fileURI(path string) (template.URL, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	mime := http.DetectContentType(raw)
	return template.URL("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raw)), nil
}
