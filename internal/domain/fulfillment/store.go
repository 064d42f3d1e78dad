package fulfillment

import "context"

// Store единственный источник истины по заказам/коробам/товарам.
// Каждый вызов — отдельная транзакция; несколько запросов в одной
// транзакции нужны только OpenBox и ScanItem.
type Store interface {
	LoadOrders(ctx context.Context) ([]Order, error)
	LoadBoxes(ctx context.Context, orderID int64) ([]Box, error)
	LoadItems(ctx context.Context, boxID int64) ([]Item, error)
	// FindBox возвращает nil, nil если короба с таким номером в заказе нет.
	FindBox(ctx context.Context, orderID int64, number string) (*Box, error)
	IsBoxClosed(ctx context.Context, boxID int64) (bool, error)
	// OpenBox снимает «отложен» и сбрасывает отметки сканирования, атомарно.
	OpenBox(ctx context.Context, boxID int64) error
	SetDeferred(ctx context.Context, boxID int64, deferred bool) error
	// ScanItem отмечает один неотсканированный товар с кодом (минимальный id)
	// и возвращает общее число товаров с этим кодом в коробе.
	ScanItem(ctx context.Context, boxID int64, barcode string) (*Item, int, error)
	UnscannedCount(ctx context.Context, boxID int64) (int, error)
	AddOrder(ctx context.Context, number string, boxCount, itemCount int) (int64, error)
	AddBox(ctx context.Context, orderID int64, number string) (int64, error)
	AddItem(ctx context.Context, boxID int64, f ItemFields) (int64, error)
	OrderReport(ctx context.Context, orderID int64) ([]ReportRow, error)
}
