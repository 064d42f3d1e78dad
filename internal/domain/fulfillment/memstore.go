package fulfillment

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemStore хранилище в памяти с тем же контрактом, что и Repo.
// Используется в тестах и в режиме --memory.
type MemStore struct {
	mu     sync.Mutex
	seq    int64
	orders []Order
	boxes  []Box // Closed тут не хранится, вычисляется при чтении
	items  []Item
	now    func() time.Time
}

func NewMemStore() *MemStore { return &MemStore{now: time.Now} }

func (s *MemStore) nextID() int64 {
	s.seq++
	return s.seq
}

func (s *MemStore) LoadOrders(_ context.Context) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]Order(nil), s.orders...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemStore) LoadBoxes(_ context.Context, orderID int64) ([]Box, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Box
	for _, b := range s.boxes {
		if b.OrderID == orderID {
			b.Closed = Unscanned(s.itemsOf(b.ID)) == 0
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *MemStore) LoadItems(_ context.Context, boxID int64) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemsOf(boxID), nil
}

// itemsOf копия товаров короба в порядке id; вызывать под mu.
func (s *MemStore) itemsOf(boxID int64) []Item {
	var out []Item
	for _, it := range s.items {
		if it.BoxID == boxID {
			out = append(out, it)
		}
	}
	return out
}

func (s *MemStore) box(boxID int64) *Box {
	for i := range s.boxes {
		if s.boxes[i].ID == boxID {
			return &s.boxes[i]
		}
	}
	return nil
}

func (s *MemStore) FindBox(_ context.Context, orderID int64, number string) (*Box, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.boxes {
		if b.OrderID == orderID && b.Number == number {
			b.Closed = Unscanned(s.itemsOf(b.ID)) == 0
			return &b, nil
		}
	}
	return nil, nil
}

func (s *MemStore) IsBoxClosed(_ context.Context, boxID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Unscanned(s.itemsOf(boxID)) == 0, nil
}

func (s *MemStore) OpenBox(_ context.Context, boxID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.box(boxID)
	if b == nil {
		return &NotFoundError{Entity: "box", Key: itoa(boxID)}
	}
	b.Deferred = false
	for i := range s.items {
		if s.items[i].BoxID == boxID {
			s.items[i].Scanned = false
		}
	}
	return nil
}

func (s *MemStore) SetDeferred(_ context.Context, boxID int64, deferred bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.box(boxID)
	if b == nil {
		return &NotFoundError{Entity: "box", Key: itoa(boxID)}
	}
	b.Deferred = deferred
	return nil
}

func (s *MemStore) ScanItem(_ context.Context, boxID int64, barcode string) (*Item, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Match по срезу самого хранилища, чтобы отметить товар на месте
	var idx []int
	var view []Item
	for i, it := range s.items {
		if it.BoxID == boxID {
			idx = append(idx, i)
			view = append(view, it)
		}
	}
	i, total := Match(view, barcode)
	if i < 0 {
		return nil, total, nil
	}
	s.items[idx[i]].Scanned = true
	it := s.items[idx[i]]
	return &it, total, nil
}

func (s *MemStore) UnscannedCount(_ context.Context, boxID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Unscanned(s.itemsOf(boxID)), nil
}

func (s *MemStore) AddOrder(_ context.Context, number string, boxCount, itemCount int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := Order{ID: s.nextID(), Number: number, BoxCount: boxCount, ItemCount: itemCount, CreatedAt: s.now()}
	s.orders = append(s.orders, o)
	return o.ID, nil
}

func (s *MemStore) AddBox(_ context.Context, orderID int64, number string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for _, o := range s.orders {
		if o.ID == orderID {
			found = true
			break
		}
	}
	if !found {
		return 0, &NotFoundError{Entity: "order", Key: itoa(orderID)}
	}
	b := Box{ID: s.nextID(), OrderID: orderID, Number: number}
	s.boxes = append(s.boxes, b)
	return b.ID, nil
}

func (s *MemStore) AddItem(_ context.Context, boxID int64, f ItemFields) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.box(boxID) == nil {
		return 0, &NotFoundError{Entity: "box", Key: itoa(boxID)}
	}
	it := Item{ID: s.nextID(), BoxID: boxID, ItemFields: f}
	s.items = append(s.items, it)
	return it.ID, nil
}

func (s *MemStore) OrderReport(_ context.Context, orderID int64) ([]ReportRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var order *Order
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			order = &s.orders[i]
		}
	}
	if order == nil {
		return nil, nil
	}
	var out []ReportRow
	for _, b := range s.boxes {
		if b.OrderID != orderID {
			continue
		}
		items := s.itemsOf(b.ID)
		if len(items) == 0 {
			out = append(out, ReportRow{OrderNumber: order.Number, BoxNumber: b.Number})
			continue
		}
		for _, it := range items {
			out = append(out, ReportRow{
				OrderNumber: order.Number,
				BoxNumber:   b.Number,
				HasItem:     true,
				Barcode:     it.Barcode,
				ProductName: it.ProductName,
				Size:        it.Size,
				Color:       it.Color,
				Scanned:     it.Scanned,
			})
		}
	}
	return out, nil
}

var _ Store = (*MemStore)(nil)
