package label

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Spok95/packing-station/internal/domain/fulfillment"
)

type ObjectType string

const (
	ObjectText  ObjectType = "text"
	ObjectImage ObjectType = "image"
)

// Плейсхолдеры полей товара в текстовых объектах шаблона.
const (
	PhBarcode         = "{barcode}"
	PhProductName     = "{product_name}"
	PhArticle         = "{article}"
	PhSize            = "{size}"
	PhColor           = "{color}"
	PhComposition     = "{composition}"
	PhCountry         = "{country}"
	PhManufactureDate = "{manufacture_date}"
	PhBrand           = "{brand}"
	PhDatamatrix      = "{datamatrix}" // рисуется картинкой DataMatrix
	PhCryptoTail      = "{crypto_tail}"
)

// Object координаты в пунктах от левого верхнего угла.
type Object struct {
	Type     ObjectType `json:"type"`
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
	FontSize int        `json:"font_size,omitempty"`
	Bold     bool       `json:"bold,omitempty"`
	Text     string     `json:"text,omitempty"`
	IsCustom bool       `json:"is_custom,omitempty"`
	Path     string     `json:"path,omitempty"`
	Scale    float64    `json:"scale,omitempty"`
}

type Template struct {
	Width   float64  `json:"width"`
	Height  float64  `json:"height"`
	Objects []Object `json:"objects"`
}

var ErrNoTemplate = errors.New("label template not found, save a template first")

func LoadTemplate(path string) (Template, error) {
	var t Template
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return t, ErrNoTemplate
		}
		return t, fmt.Errorf("read template: %w", err)
	}
	if err := json.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("parse template: %w", err)
	}
	return t, t.Validate()
}

func SaveTemplate(path string, t Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// DefaultTemplate этикетка 58x40 мм: описание товара слева, DataMatrix справа.
func DefaultTemplate() Template {
	return Template{
		Width:  164,
		Height: 113,
		Objects: []Object{
			{Type: ObjectText, X: 6, Y: 4, FontSize: 9, Bold: true, Text: PhProductName},
			{Type: ObjectText, X: 6, Y: 18, FontSize: 8, Text: PhBrand},
			{Type: ObjectText, X: 6, Y: 30, FontSize: 7, Text: "Арт.: ", IsCustom: true},
			{Type: ObjectText, X: 32, Y: 30, FontSize: 7, Text: PhArticle},
			{Type: ObjectText, X: 6, Y: 42, FontSize: 7, Text: PhSize},
			{Type: ObjectText, X: 40, Y: 42, FontSize: 7, Text: PhColor},
			{Type: ObjectText, X: 6, Y: 54, FontSize: 6, Text: PhComposition},
			{Type: ObjectText, X: 6, Y: 66, FontSize: 6, Text: PhCountry},
			{Type: ObjectText, X: 6, Y: 78, FontSize: 6, Text: PhManufactureDate},
			{Type: ObjectText, X: 6, Y: 96, FontSize: 8, Bold: true, Text: PhBarcode},
			{Type: ObjectText, X: 104, Y: 40, Scale: 0.5, Text: PhDatamatrix},
			{Type: ObjectText, X: 104, Y: 100, FontSize: 5, Text: PhCryptoTail},
		},
	}
}

// EnsureTemplate при отсутствии файла сохраняет DefaultTemplate. Существующий
// шаблон не трогается, даже если он не проходит проверку.
func EnsureTemplate(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, err
		}
	}
	if err := SaveTemplate(path, DefaultTemplate()); err != nil {
		return false, err
	}
	return true, nil
}

func (t Template) Validate() error {
	if t.Width <= 0 || t.Height <= 0 {
		return fmt.Errorf("template size must be positive, got %gx%g", t.Width, t.Height)
	}
	for i, o := range t.Objects {
		switch o.Type {
		case ObjectText:
		case ObjectImage:
			if o.Path == "" {
				return fmt.Errorf("object %d: image without path", i)
			}
		default:
			return fmt.Errorf("object %d: unknown type %q", i, o.Type)
		}
	}
	return nil
}

// Request всё, что нужно для этикетки отсканированного товара.
type Request struct {
	Fields      map[string]string
	BoxNumber   string
	BoxClosed   bool
	OrderClosed bool
}

func Fields(it fulfillment.Item) map[string]string {
	return map[string]string{
		PhBarcode:         it.Barcode,
		PhProductName:     it.ProductName,
		PhArticle:         it.Article,
		PhSize:            it.Size,
		PhColor:           it.Color,
		PhComposition:     it.Composition,
		PhCountry:         it.Country,
		PhManufactureDate: it.ManufactureDate,
		PhBrand:           it.Brand,
		PhDatamatrix:      it.Datamatrix,
		PhCryptoTail:      it.CryptoTail,
	}
}

func NewRequest(box fulfillment.Box, out fulfillment.ScanOutcome) Request {
	return Request{
		Fields:      Fields(out.Item),
		BoxNumber:   box.Number,
		BoxClosed:   out.BoxClosed,
		OrderClosed: out.OrderClosed,
	}
}

type ElementKind int

const (
	ElemText ElementKind = iota
	ElemImage
	ElemDatamatrix
)

// Element объект шаблона с подставленными значениями.
type Element struct {
	Kind     ElementKind
	X, Y     float64
	FontSize int
	Bold     bool
	Text     string  // текст или содержимое DataMatrix
	Path     string  // путь к картинке
	Size     float64 // сторона картинки в пунктах
}

const baseImageSize = 100.0

// Resolve подставляет поля товара. Пользовательский текст печатается как есть,
// неизвестный плейсхолдер — тоже.
func Resolve(t Template, fields map[string]string) []Element {
	out := make([]Element, 0, len(t.Objects))
	for _, o := range t.Objects {
		scale := o.Scale
		if scale <= 0 {
			scale = 1
		}
		if o.Type == ObjectImage {
			out = append(out, Element{Kind: ElemImage, X: o.X, Y: o.Y, Path: o.Path, Size: baseImageSize * scale})
			continue
		}
		fs := o.FontSize
		if fs <= 0 {
			fs = 12
		}
		el := Element{Kind: ElemText, X: o.X, Y: o.Y, FontSize: fs, Bold: o.Bold, Text: o.Text}
		if !o.IsCustom {
			if o.Text == PhDatamatrix {
				if fields[PhDatamatrix] == "" {
					continue
				}
				el = Element{Kind: ElemDatamatrix, X: o.X, Y: o.Y, Text: fields[PhDatamatrix], Size: baseImageSize * scale}
			} else if v, ok := fields[o.Text]; ok {
				el.Text = v
			}
		}
		out = append(out, el)
	}
	return out
}
