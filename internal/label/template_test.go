package label

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/packing-station/internal/domain/fulfillment"
)

func sampleTemplate() Template {
	return Template{
		Width:  164,
		Height: 113,
		Objects: []Object{
			{Type: ObjectText, X: 5, Y: 5, FontSize: 10, Bold: true, Text: PhProductName},
			{Type: ObjectText, X: 5, Y: 20, Text: PhBarcode},
			{Type: ObjectText, X: 5, Y: 35, Text: "Сделано для вас", IsCustom: true},
			{Type: ObjectText, X: 5, Y: 50, Text: "{unknown}"},
			{Type: ObjectText, X: 100, Y: 5, Text: PhDatamatrix},
		},
	}
}

func sampleItem() fulfillment.Item {
	return fulfillment.Item{ID: 1, BoxID: 2, ItemFields: fulfillment.ItemFields{
		Barcode:     "4600000000017",
		Datamatrix:  "0104600000000017215abc",
		ProductName: "Футболка <basic>",
		Size:        "M",
	}}
}

func TestResolve(t *testing.T) {
	els := Resolve(sampleTemplate(), Fields(sampleItem()))
	require.Len(t, els, 5)

	assert.Equal(t, ElemText, els[0].Kind)
	assert.Equal(t, "Футболка <basic>", els[0].Text)
	assert.True(t, els[0].Bold)
	assert.Equal(t, "4600000000017", els[1].Text)
	assert.Equal(t, 12, els[1].FontSize, "default font size")
	assert.Equal(t, "Сделано для вас", els[2].Text)
	assert.Equal(t, "{unknown}", els[3].Text)

	assert.Equal(t, ElemDatamatrix, els[4].Kind)
	assert.Equal(t, "0104600000000017215abc", els[4].Text)
}

func TestResolve_CustomPlaceholderIsLiteral(t *testing.T) {
	tmpl := Template{Width: 10, Height: 10, Objects: []Object{
		{Type: ObjectText, Text: PhBarcode, IsCustom: true},
	}}
	els := Resolve(tmpl, Fields(sampleItem()))
	require.Len(t, els, 1)
	assert.Equal(t, PhBarcode, els[0].Text)
}

func TestResolve_SkipsEmptyDatamatrix(t *testing.T) {
	it := sampleItem()
	it.Datamatrix = ""
	els := Resolve(sampleTemplate(), Fields(it))
	assert.Len(t, els, 4)
}

func TestHTML(t *testing.T) {
	req := NewRequest(fulfillment.Box{Number: "1"}, fulfillment.ScanOutcome{Item: sampleItem(), BoxClosed: true})
	assert.True(t, req.BoxClosed)

	html, err := HTML(sampleTemplate(), req)
	require.NoError(t, err)

	assert.Contains(t, html, "size: 164pt 113pt")
	assert.Contains(t, html, "Футболка &lt;basic&gt;")
	assert.Contains(t, html, "data:image/png;base64,")
	assert.Contains(t, html, "font-weight:bold")
	assert.Equal(t, 1, strings.Count(html, "<img"))
}

func TestHTML_ImageObject(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "logo.png")
	// минимальная сигнатура PNG, для data URI содержимое не разбирается
	require.NoError(t, os.WriteFile(img, []byte("\x89PNG\r\n\x1a\n0000"), 0o644))

	tmpl := Template{Width: 50, Height: 50, Objects: []Object{
		{Type: ObjectImage, X: 1, Y: 1, Path: img, Scale: 0.5},
	}}
	html, err := HTML(tmpl, Request{Fields: Fields(sampleItem())})
	require.NoError(t, err)
	assert.Contains(t, html, "width:50pt")
	assert.Contains(t, html, "data:image/png;base64,")

	tmpl.Objects[0].Path = filepath.Join(dir, "missing.png")
	_, err = HTML(tmpl, Request{})
	assert.Error(t, err)
}

func TestTemplateRoundTripAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "label.json")

	_, err := LoadTemplate(path)
	assert.ErrorIs(t, err, ErrNoTemplate)

	require.NoError(t, SaveTemplate(path, sampleTemplate()))
	got, err := LoadTemplate(path)
	require.NoError(t, err)
	assert.Equal(t, sampleTemplate(), got)

	assert.Error(t, SaveTemplate(path, Template{Width: 0, Height: 10}))
	assert.Error(t, Template{Width: 1, Height: 1, Objects: []Object{{Type: "barcode"}}}.Validate())
	assert.Error(t, Template{Width: 1, Height: 1, Objects: []Object{{Type: ObjectImage}}}.Validate())
}

func TestFileName(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	assert.Equal(t, "label_4600_20240309_140507.pdf", FileName("4600", ts))
	assert.Equal(t, "label_a_b_c_20240309_140507.pdf", FileName("a/b c", ts))
}

func TestShippedTemplate(t *testing.T) {
	tmpl, err := LoadTemplate(filepath.Join("..", "..", "config", "label_template.json"))
	require.NoError(t, err)

	html, err := HTML(tmpl, Request{Fields: Fields(sampleItem())})
	require.NoError(t, err)
	assert.Contains(t, html, "4600000000017")
	assert.Contains(t, html, "Арт.: ")
}

func TestEnsureTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels", "label.json")

	created, err := EnsureTemplate(path)
	require.NoError(t, err)
	assert.True(t, created)
	got, err := LoadTemplate(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultTemplate(), got)

	// Правки оператора не перетираются.
	custom := Template{Width: 50, Height: 30, Objects: []Object{{Type: ObjectText, Text: PhBarcode}}}
	require.NoError(t, SaveTemplate(path, custom))
	created, err = EnsureTemplate(path)
	require.NoError(t, err)
	assert.False(t, created)
	got, err = LoadTemplate(path)
	require.NoError(t, err)
	assert.Equal(t, custom, got)
}

func TestShippedTemplateIsDefault(t *testing.T) {
	tmpl, err := LoadTemplate(filepath.Join("..", "..", "config", "label_template.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultTemplate(), tmpl)
}
