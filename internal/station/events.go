package station

import (
	"context"
	"errors"

	"github.com/Spok95/packing-station/internal/domain/fulfillment"
	"github.com/Spok95/packing-station/internal/importer"
)

// Presenter получает события по одному, в порядке поступления, из цикла станции.
// Present не должен надолго блокировать: пока он работает, очередь не разбирается.
type Presenter interface {
	Present(ctx context.Context, ev Event)
}

type PresenterFunc func(ctx context.Context, ev Event)

func (f PresenterFunc) Present(ctx context.Context, ev Event) { f(ctx, ev) }

type Event interface{ event() }

type OrdersLoaded struct{ Orders []fulfillment.Order }

type BoxesLoaded struct {
	OrderID int64
	Boxes   []fulfillment.Box
}

type ItemsLoaded struct {
	Box   fulfillment.Box
	Items []fulfillment.Item
}

// BoxSelected короб стал текущим, сканирование разрешено.
type BoxSelected struct{ Box fulfillment.Box }

// BoxLocked короб закрыт или отложен: нужен пароль (OpenBox).
type BoxLocked struct{ Box fulfillment.Box }

type BoxOpened struct{ Box fulfillment.Box }

type ItemScanned struct {
	Box     fulfillment.Box
	Outcome fulfillment.ScanOutcome
}

type BoxClosed struct{ Box fulfillment.Box }

type BoxDeferred struct{ Box fulfillment.Box }

type ItemAdded struct {
	BoxID  int64
	ItemID int64
}

type OrderAdded struct {
	OrderID int64
	Number  string
}

type BoxAdded struct {
	OrderID int64
	BoxID   int64
	Number  string
}

type Imported struct{ Result importer.Result }

type ReportSaved struct {
	OrderID int64
	Paths   []string
}

type LabelRendered struct {
	Barcode string
	Path    string
}

// Warning ожидаемая ситуация: оператор исправляет ввод и продолжает.
type Warning struct {
	Op  string
	Err error
}

// Failure отказ хранилища, неверный пароль, ошибка печати или паника в задаче.
type Failure struct {
	Op  string
	Err error
}

type Status struct{ Text string }

func (OrdersLoaded) event() {}
func (BoxesLoaded) event() {}
func (ItemsLoaded) event() {}
func (BoxSelected) event() {}
func (BoxLocked) event() {}
func (BoxOpened) event() {}
func (ItemScanned) event() {}
func (BoxClosed) event() {}
func (BoxDeferred) event() {}
func (ItemAdded) event() {}
func (OrderAdded) event() {}
func (BoxAdded) event() {}
func (Imported) event() {}
func (ReportSaved) event() {}
func (LabelRendered) event() {}
func (Warning) event() {}
func (Failure) event() {}
func (Status) event() {}

// errorEvent раскладывает ошибку задачи на Warning/Failure.
func errorEvent(op string, err error) Event {
	switch {
	case fulfillment.IsWarning(err),
		errors.Is(err, fulfillment.ErrNotFound),
		errors.Is(err, fulfillment.ErrValidation),
		errors.Is(err, fulfillment.ErrBoxLocked):
		return Warning{Op: op, Err: err}
	default:
		return Failure{Op: op, Err: err}
	}
}
