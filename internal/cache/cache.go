// Package cache локальные снимки заказов/коробов/товаров для экрана сборки.
//
// Кэш живёт, пока живёт процесс, и не является источником истины.
// Менять его может только цикл-потребитель станции, поэтому синхронизации нет.
// Мутации не сбрасывают кэш целиком, а точечно правят затронутые записи.
package cache

import "github.com/Spok95/packing-station/internal/domain/fulfillment"

type Kind string

const (
	KindOrders Kind = "orders"
	KindBoxes  Kind = "boxes"
	KindItems  Kind = "items"
)

// Observer счётчики попаданий/промахов (Prometheus в проде).
type Observer interface {
	CacheLookup(kind Kind, hit bool)
}

type Cache struct {
	orders   []fulfillment.Order
	ordersOK bool
	boxes    map[int64][]fulfillment.Box  // order_id -> коробы
	items    map[int64][]fulfillment.Item // box_id -> товары
	obs      Observer
}

func New(obs Observer) *Cache {
	return &Cache{
		boxes: make(map[int64][]fulfillment.Box),
		items: make(map[int64][]fulfillment.Item),
		obs:   obs,
	}
}

func (c *Cache) observe(k Kind, hit bool) {
	if c.obs != nil {
		c.obs.CacheLookup(k, hit)
	}
}

/* Чтение */

func (c *Cache) Orders() ([]fulfillment.Order, bool) {
	c.observe(KindOrders, c.ordersOK)
	return c.orders, c.ordersOK
}

func (c *Cache) Boxes(orderID int64) ([]fulfillment.Box, bool) {
	b, ok := c.boxes[orderID]
	c.observe(KindBoxes, ok)
	return b, ok
}

func (c *Cache) Items(boxID int64) ([]fulfillment.Item, bool) {
	it, ok := c.items[boxID]
	c.observe(KindItems, ok)
	return it, ok
}

/* Заполнение после загрузки из хранилища */

func (c *Cache) SetOrders(orders []fulfillment.Order) {
	c.orders = orders
	c.ordersOK = true
}

func (c *Cache) SetBoxes(orderID int64, boxes []fulfillment.Box) {
	if boxes == nil {
		boxes = []fulfillment.Box{}
	}
	c.boxes[orderID] = boxes
}

func (c *Cache) SetItems(boxID int64, items []fulfillment.Item) {
	if items == nil {
		items = []fulfillment.Item{}
	}
	c.items[boxID] = items
}

/* Точечные правки после мутаций */

// PatchScanned успешное сканирование: только поле Scanned у найденного товара.
func (c *Cache) PatchScanned(boxID, itemID int64) bool {
	items, ok := c.items[boxID]
	if !ok {
		return false
	}
	for i := range items {
		if items[i].ID == itemID {
			items[i].Scanned = true
			return true
		}
	}
	return false
}

// PatchBox close/defer: только флаги короба в списке его заказа.
func (c *Cache) PatchBox(box fulfillment.Box) bool {
	boxes, ok := c.boxes[box.OrderID]
	if !ok {
		return false
	}
	for i := range boxes {
		if boxes[i].ID == box.ID {
			boxes[i].Closed = box.Closed
			boxes[i].Deferred = box.Deferred
			return true
		}
	}
	return false
}

// ResetBox повторное открытие: флаги короба и сброс Scanned у всех его товаров.
func (c *Cache) ResetBox(box fulfillment.Box) {
	c.PatchBox(box)
	items := c.items[box.ID]
	for i := range items {
		items[i].Scanned = false
	}
}

// InvalidateItems добавление товара: перечитываем короб целиком.
// Новый товар неотсканирован, значит короб точно не «закрыт».
func (c *Cache) InvalidateItems(orderID, boxID int64) {
	delete(c.items, boxID)
	boxes := c.boxes[orderID]
	for i := range boxes {
		if boxes[i].ID == boxID {
			boxes[i].Closed = false
		}
	}
}

func (c *Cache) InvalidateBoxes(orderID int64) { delete(c.boxes, orderID) }

func (c *Cache) InvalidateOrders() {
	c.orders = nil
	c.ordersOK = false
}

// Clear полная перезагрузка по запросу оператора.
func (c *Cache) Clear() {
	c.InvalidateOrders()
	c.boxes = make(map[int64][]fulfillment.Box)
	c.items = make(map[int64][]fulfillment.Item)
}
