package fulfillment

import "time"

type Order struct {
	ID        int64
	Number    string
	BoxCount  int
	ItemCount int
	CreatedAt time.Time
}

// Box Closed не хранится в БД — всегда вычисляется по товарам короба.
type Box struct {
	ID       int64
	OrderID  int64
	Number   string
	Deferred bool
	Closed   bool
}

// NeedsOpen короб закрыт или отложен — сканировать можно только после открытия.
func (b Box) NeedsOpen() bool { return b.Closed || b.Deferred }

type ItemFields struct {
	Barcode         string `validate:"required,max=100"`
	Datamatrix      string `validate:"max=255"`
	CryptoTail      string `validate:"max=100"`
	ProductName     string `validate:"max=255"`
	Article         string `validate:"max=100"`
	Size            string `validate:"max=20"`
	Color           string `validate:"max=50"`
	Composition     string `validate:"max=200"`
	Country         string `validate:"max=100"`
	ManufactureDate string `validate:"max=50"`
	Brand           string `validate:"max=100"`
}

type Item struct {
	ID      int64
	BoxID   int64
	Scanned bool
	ItemFields
}

// ScanOutcome результат успешного сканирования.
type ScanOutcome struct {
	Item        Item
	Total       int // всего товаров с этим штрихкодом в коробе
	Position    int // сколько из них уже отсканировано, включая этот
	BoxClosed   bool
	OrderClosed bool
	// Unsettled отметка прошла, но состояние короба перечитать не удалось:
	// снимок коробов заказа нельзя считать актуальным.
	Unsettled bool
}

// ReportRow строка отчёта по заказу (LEFT JOIN: у пустого короба нет товара).
type ReportRow struct {
	OrderNumber string
	BoxNumber   string
	HasItem     bool
	Barcode     string
	ProductName string
	Size        string
	Color       string
	Scanned     bool
}
