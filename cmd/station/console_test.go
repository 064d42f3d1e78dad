package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/packing-station/internal/domain/fulfillment"
	"github.com/Spok95/packing-station/internal/station"
)

type fakeController struct {
	calls []string
	items []fulfillment.ItemFields
}

func (f *fakeController) rec(format string, args ...any) error {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	return nil
}

func (f *fakeController) LoadOrders() error { return f.rec("orders") }
func (f *fakeController) SelectOrder(id int64) error { return f.rec("order %d", id) }
func (f *fakeController) Scan(code string) error { return f.rec("scan %s", code) }
func (f *fakeController) OpenBox(cred string) error { return f.rec("open %s", cred) }
func (f *fakeController) CloseBox() error { return f.rec("close") }
func (f *fakeController) DeferBox() error { return f.rec("defer") }
func (f *fakeController) AddBox(number string) error { return f.rec("add-box %s", number) }
func (f *fakeController) Import(path string) error { return f.rec("import %s", path) }
func (f *fakeController) Report() error { return f.rec("report") }
func (f *fakeController) Reload() error { return f.rec("reload") }
func (f *fakeController) SetPrinting(on bool) error { return f.rec("print %t", on) }
func (f *fakeController) AddItem(it fulfillment.ItemFields) error {
	f.items = append(f.items, it)
	return f.rec("add-item %s|%s", it.Barcode, it.ProductName)
}
func (f *fakeController) AddOrder(number string, boxes, items int) error {
	return f.rec("add-order %s %d %d", number, boxes, items)
}

func TestDispatch(t *testing.T) {
	f := &fakeController{}
	lines := []string{
		"4600000000017",
		"  ",
		"/orders",
		"/order 12",
		"/open my secret",
		"/close",
		"/defer",
		"/add-item 555 Футболка белая",
		"/add-order ORD-5 3 10.0",
		"/add-box B",
		"/import /tmp/order 1.xlsx",
		"/report",
		"/reload",
		"/print off",
	}
	for _, l := range lines {
		require.NoError(t, dispatch(f, l), l)
	}
	assert.Equal(t, []string{
		"scan 4600000000017",
		"orders",
		"order 12",
		"open my secret",
		"close",
		"defer",
		"add-item 555|Футболка белая",
		"add-order ORD-5 3 10",
		"add-box B",
		"import /tmp/order 1.xlsx",
		"report",
		"reload",
		"print false",
	}, f.calls)
}

func TestDispatch_AddItemFields(t *testing.T) {
	f := &fakeController{}
	require.NoError(t, dispatch(f, "/add-item 4600 Футболка белая size=M color=Белый меланж "+
		"datamatrix=0104600]21abc=x crypto_tail=AB12 article=A-1 brand=Basic "+
		"composition=хлопок 100% country=Россия date=03.2024"))
	require.NoError(t, dispatch(f, "/add-item 4601 size=L name=Шорты"))
	require.NoError(t, dispatch(f, "/add-item 4602"))

	require.Len(t, f.items, 3)
	assert.Equal(t, fulfillment.ItemFields{
		Barcode:         "4600",
		ProductName:     "Футболка белая",
		Size:            "M",
		Color:           "Белый меланж",
		Datamatrix:      "0104600]21abc=x",
		CryptoTail:      "AB12",
		Article:         "A-1",
		Brand:           "Basic",
		Composition:     "хлопок 100%",
		Country:         "Россия",
		ManufactureDate: "03.2024",
	}, f.items[0])
	assert.Equal(t, fulfillment.ItemFields{Barcode: "4601", ProductName: "Шорты", Size: "L"}, f.items[1])
	assert.Equal(t, fulfillment.ItemFields{Barcode: "4602"}, f.items[2])
}

func TestDispatch_Errors(t *testing.T) {
	f := &fakeController{}
	for _, l := range []string{"/order x", "/order", "/add-item", "/add-box", "/import", "/print maybe", "/nope", "/help"} {
		assert.ErrorIs(t, dispatch(f, l), errUsage, l)
	}
	assert.ErrorIs(t, dispatch(f, "/add-order O 1.5 2"), fulfillment.ErrValidation)
	assert.ErrorIs(t, dispatch(f, "/add-order O -1 2"), fulfillment.ErrValidation)
	assert.Empty(t, f.calls)
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := console{w: &buf}
	ctx := context.Background()
	box := fulfillment.Box{ID: 1, Number: "3", Deferred: true}

	c.Present(ctx, station.BoxLocked{Box: box})
	c.Present(ctx, station.ItemScanned{Box: box, Outcome: fulfillment.ScanOutcome{
		Item: fulfillment.Item{ItemFields: fulfillment.ItemFields{Barcode: "123", ProductName: "Шапка"}},
		Total: 3, Position: 2, BoxClosed: true,
	}})
	c.Present(ctx, station.Failure{Op: "scan", Err: errors.New("db down")})

	out := buf.String()
	assert.Contains(t, out, "Короб 3 отложен: введите /open <пароль>")
	assert.Contains(t, out, "✓ 123 Шапка (2 из 3)")
	assert.Contains(t, out, "Короб 3 полностью отсканирован")
	assert.Contains(t, out, "ОШИБКА (scan): db down")
	assert.Equal(t, 4, strings.Count(out, "\n"))
}

func TestReadInput_StopsOnEOF(t *testing.T) {
	f := &fakeController{}
	var out bytes.Buffer
	stopped := false
	readInput(strings.NewReader("111\n/bad\n/report\n"), &out, f, func() { stopped = true }, nil)

	assert.True(t, stopped)
	assert.Equal(t, []string{"scan 111", "report"}, f.calls)
	assert.Contains(t, out.String(), "unknown command /bad")
}
