// Package station рабочее место упаковщика: сессия заказа/короба, кэш и фоновые задачи.
//
// Единственный цикл Run принимает команды оператора и результаты задач, правит кэш
// и отдаёт события Presenter'у строго в порядке поступления. Каждое обращение к
// хранилищу выполняется в своей горутине и заканчивается ровно одним результатом
// в очереди.
package station

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/Spok95/packing-station/internal/cache"
	"github.com/Spok95/packing-station/internal/domain/fulfillment"
	"github.com/Spok95/packing-station/internal/importer"
	"github.com/Spok95/packing-station/internal/label"
)

var ErrStopped = errors.New("station: stopped")

// Recorder метрики задач (Prometheus в проде).
type Recorder interface {
	TaskStarted()
	TaskFinished(kind, outcome string)
	Scan(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) TaskStarted() {}
func (nopRecorder) TaskFinished(string, string) {}
func (nopRecorder) Scan(string) {}

type Importer interface {
	ImportFile(ctx context.Context, path string) (importer.Result, error)
}

// ReportSaver возвращает пути записанных файлов, при ошибке тоже.
type ReportSaver interface {
	Save(ctx context.Context, orderNumber string, rows []fulfillment.ReportRow) ([]string, error)
}

type Deps struct {
	Store     fulfillment.Store
	Engine    *fulfillment.Engine
	Presenter Presenter

	Cache    *cache.Cache   // nil — новый пустой
	Renderer label.Renderer // nil — этикетки не печатаются
	Target   label.Target
	Printing bool // печать этикеток при старте сессии
	Importer Importer
	Reports  ReportSaver
	Metrics  Recorder
	Log      *slog.Logger
}

type Station struct {
	store     fulfillment.Store
	engine    *fulfillment.Engine
	presenter Presenter
	cache     *cache.Cache
	renderer  label.Renderer
	target    label.Target
	importer  Importer
	reports   ReportSaver
	metrics   Recorder
	log       *slog.Logger

	intents chan any
	queue   *queue
	done    chan struct{}
	wg      sync.WaitGroup
	taskCtx context.Context

	// Сессия: трогает только цикл.
	orderID  int64
	box      *fulfillment.Box // текущий короб
	pending  *fulfillment.Box // ждёт пароля
	printing bool

	// Поколения снимков: мутация увеличивает счётчик, загрузка со старым значением
	// отбрасывается и повторяется.
	ordersGen int
	selectSeq int // последняя команда выбора заказа
	boxesGen  map[int64]int
	itemsGen  map[int64]int
}

func New(d Deps) (*Station, error) {
	if d.Store == nil || d.Engine == nil || d.Presenter == nil {
		return nil, errors.New("station: store, engine and presenter are required")
	}
	s := &Station{
		store:     d.Store,
		engine:    d.Engine,
		presenter: d.Presenter,
		cache:     d.Cache,
		renderer:  d.Renderer,
		target:    d.Target,
		importer:  d.Importer,
		reports:   d.Reports,
		metrics:   d.Metrics,
		log:       d.Log,
		printing:  d.Printing,

		intents:  make(chan any, 64),
		queue:    newQueue(),
		done:     make(chan struct{}),
		taskCtx:  context.Background(),
		boxesGen: make(map[int64]int),
		itemsGen: make(map[int64]int),
	}
	if s.cache == nil {
		s.cache = cache.New(nil)
	}
	if s.metrics == nil {
		s.metrics = nopRecorder{}
	}
	if s.log == nil {
		s.log = slog.New(slog.DiscardHandler)
	}
	return s, nil
}

// Run цикл станции; вызывается один раз. Отмена ctx останавливает цикл,
// но не уже запущенные задачи — их можно дождаться через Wait.
func (s *Station) Run(ctx context.Context) error {
	s.taskCtx = context.WithoutCancel(ctx)
	defer close(s.done)

	s.log.Info("station started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info("station stopped")
			return nil
		case in := <-s.intents:
			s.handle(ctx, in)
		case <-s.queue.ready:
			for _, r := range s.queue.drain() {
				s.apply(ctx, r)
			}
		}
	}
}

// Wait ждёт завершения всех запущенных задач.
func (s *Station) Wait() { s.wg.Wait() }

/* Команды оператора */

type (
	loadOrdersIntent  struct{}
	selectOrderIntent struct{ orderID int64 }
	scanIntent        struct{ code string }
	openIntent        struct{ credential string }
	closeIntent       struct{}
	deferIntent       struct{}
	addItemIntent     struct{ fields fulfillment.ItemFields }
	addBoxIntent      struct{ number string }
	importIntent      struct{ path string }
	reportIntent      struct{}
	reloadIntent      struct{}
	printingIntent    struct{ on bool }
)

type addOrderIntent struct {
	number              string
	boxCount, itemCount int
}

func (s *Station) LoadOrders() error { return s.send(loadOrdersIntent{}) }

func (s *Station) SelectOrder(orderID int64) error { return s.send(selectOrderIntent{orderID}) }

// Scan без текущего короба код трактуется как номер короба, иначе как штрихкод товара.
func (s *Station) Scan(code string) error { return s.send(scanIntent{code}) }

func (s *Station) OpenBox(credential string) error { return s.send(openIntent{credential}) }

func (s *Station) CloseBox() error { return s.send(closeIntent{}) }

func (s *Station) DeferBox() error { return s.send(deferIntent{}) }

func (s *Station) AddItem(f fulfillment.ItemFields) error { return s.send(addItemIntent{f}) }

func (s *Station) AddOrder(number string, boxCount, itemCount int) error {
	return s.send(addOrderIntent{number: number, boxCount: boxCount, itemCount: itemCount})
}

func (s *Station) AddBox(number string) error { return s.send(addBoxIntent{number}) }

func (s *Station) Import(path string) error { return s.send(importIntent{path}) }

func (s *Station) Report() error { return s.send(reportIntent{}) }

// Reload сбрасывает кэш и перечитывает всё, что сейчас на экране.
func (s *Station) Reload() error { return s.send(reloadIntent{}) }

func (s *Station) SetPrinting(on bool) error { return s.send(printingIntent{on}) }

func (s *Station) send(in any) error {
	select {
	case s.intents <- in:
		return nil
	case <-s.done:
		return ErrStopped
	}
}

func (s *Station) handle(ctx context.Context, in any) {
	switch in := in.(type) {
	case loadOrdersIntent:
		s.loadOrders(ctx)

	case selectOrderIntent:
		s.selectSeq++
		if orders, ok := s.cache.Orders(); ok {
			s.enterOrder(ctx, orders, in.orderID)
			return
		}
		seq, gen, orderID := s.selectSeq, s.ordersGen, in.orderID
		s.spawn("select_order", func(ctx context.Context) (any, error) {
			orders, err := s.store.LoadOrders(ctx)
			if err != nil {
				return nil, storeFailure("load orders", err)
			}
			return orderChecked{seq: seq, gen: gen, orderID: orderID, orders: orders}, nil
		})

	case scanIntent:
		code := strings.TrimSpace(in.code)
		if code == "" {
			return
		}
		if s.orderID == 0 {
			s.present(ctx, Warning{Op: "scan", Err: &fulfillment.ValidationError{Field: "order", Msg: "select an order first"}})
			return
		}
		if s.box == nil {
			s.findBox(ctx, code)
			return
		}
		box := *s.box
		s.spawn("scan", func(ctx context.Context) (any, error) {
			out, err := s.engine.Scan(ctx, box, code)
			if err != nil {
				return nil, err
			}
			return itemScanned{box: box, out: out}, nil
		})

	case openIntent:
		if s.pending == nil {
			s.present(ctx, Warning{Op: "open box", Err: &fulfillment.ValidationError{Field: "box", Msg: "no box is waiting to be opened"}})
			return
		}
		box, cred := *s.pending, in.credential
		s.spawn("open_box", func(ctx context.Context) (any, error) {
			opened, err := s.engine.Open(ctx, box, cred)
			if err != nil {
				return nil, err
			}
			return boxOpened{box: opened}, nil
		})

	case closeIntent:
		box, ok := s.current(ctx, "close box")
		if !ok {
			return
		}
		s.spawn("close_box", func(ctx context.Context) (any, error) {
			closed, err := s.engine.Close(ctx, box)
			if err != nil {
				return nil, err
			}
			return boxClosed{box: closed}, nil
		})

	case deferIntent:
		box, ok := s.current(ctx, "defer box")
		if !ok {
			return
		}
		s.spawn("defer_box", func(ctx context.Context) (any, error) {
			deferred, err := s.engine.Defer(ctx, box)
			if err != nil {
				return nil, err
			}
			return boxDeferred{box: deferred}, nil
		})

	case addItemIntent:
		box, ok := s.current(ctx, "add item")
		if !ok {
			return
		}
		fields := in.fields
		s.spawn("add_item", func(ctx context.Context) (any, error) {
			id, err := s.engine.AddItem(ctx, box.ID, fields)
			if err != nil {
				return nil, err
			}
			return itemAdded{orderID: box.OrderID, boxID: box.ID, itemID: id}, nil
		})

	case addOrderIntent:
		s.spawn("add_order", func(ctx context.Context) (any, error) {
			id, err := s.engine.AddOrder(ctx, in.number, in.boxCount, in.itemCount)
			if err != nil {
				return nil, err
			}
			return orderAdded{id: id, number: strings.TrimSpace(in.number)}, nil
		})

	case addBoxIntent:
		if s.orderID == 0 {
			s.present(ctx, Warning{Op: "add box", Err: &fulfillment.ValidationError{Field: "order", Msg: "select an order first"}})
			return
		}
		orderID := s.orderID
		s.spawn("add_box", func(ctx context.Context) (any, error) {
			id, err := s.engine.AddBox(ctx, orderID, in.number)
			if err != nil {
				return nil, err
			}
			return boxAdded{orderID: orderID, boxID: id, number: strings.TrimSpace(in.number)}, nil
		})

	case importIntent:
		if s.importer == nil {
			s.present(ctx, Failure{Op: "import", Err: errors.New("importer is not configured")})
			return
		}
		s.spawn("import", func(ctx context.Context) (any, error) {
			res, err := s.importer.ImportFile(ctx, in.path)
			if err != nil {
				return imported{res: res}, err
			}
			return imported{res: res}, nil
		})

	case reportIntent:
		s.report(ctx)

	case reloadIntent:
		s.cache.Clear()
		s.loadOrders(ctx)
		if s.orderID != 0 {
			s.loadBoxes(ctx, s.orderID)
		}
		if s.box != nil {
			s.loadItems(ctx, *s.box)
		}

	case printingIntent:
		s.printing = in.on
		if in.on {
			s.present(ctx, Status{Text: "Печать этикеток включена"})
		} else {
			s.present(ctx, Status{Text: "Печать этикеток выключена"})
		}
	}
}

// enterOrder заказ должен быть в списке: пустой список коробов ещё не значит,
// что заказ существует.
func (s *Station) enterOrder(ctx context.Context, orders []fulfillment.Order, orderID int64) {
	found := false
	for _, o := range orders {
		if o.ID == orderID {
			found = true
			break
		}
	}
	if !found {
		s.present(ctx, Warning{Op: "select order", Err: &fulfillment.NotFoundError{Entity: "order", Key: strconv.FormatInt(orderID, 10)}})
		return
	}
	s.orderID = orderID
	s.box, s.pending = nil, nil
	s.loadBoxes(ctx, orderID)
}

// current текущий короб для команд, которые без него не имеют смысла.
func (s *Station) current(ctx context.Context, op string) (fulfillment.Box, bool) {
	if s.box != nil {
		return *s.box, true
	}
	if s.pending != nil {
		s.present(ctx, Warning{Op: op, Err: fmt.Errorf("box %s: %w", s.pending.Number, fulfillment.ErrBoxLocked)})
	} else {
		s.present(ctx, Warning{Op: op, Err: &fulfillment.ValidationError{Field: "box", Msg: "select a box first"}})
	}
	return fulfillment.Box{}, false
}

func (s *Station) loadOrders(ctx context.Context) {
	if orders, ok := s.cache.Orders(); ok {
		s.present(ctx, OrdersLoaded{Orders: orders})
		return
	}
	gen := s.ordersGen
	s.present(ctx, Status{Text: "Загрузка заказов..."})
	s.spawn("load_orders", func(ctx context.Context) (any, error) {
		orders, err := s.store.LoadOrders(ctx)
		if err != nil {
			return nil, storeFailure("load orders", err)
		}
		return ordersLoaded{gen: gen, orders: orders}, nil
	})
}

func (s *Station) loadBoxes(ctx context.Context, orderID int64) {
	if boxes, ok := s.cache.Boxes(orderID); ok {
		s.present(ctx, BoxesLoaded{OrderID: orderID, Boxes: boxes})
		return
	}
	gen := s.boxesGen[orderID]
	s.present(ctx, Status{Text: "Загрузка коробов..."})
	s.spawn("load_boxes", func(ctx context.Context) (any, error) {
		boxes, err := s.store.LoadBoxes(ctx, orderID)
		if err != nil {
			return nil, storeFailure("load boxes", err)
		}
		return boxesLoaded{orderID: orderID, gen: gen, boxes: boxes}, nil
	})
}

func (s *Station) loadItems(ctx context.Context, box fulfillment.Box) {
	if items, ok := s.cache.Items(box.ID); ok {
		s.present(ctx, ItemsLoaded{Box: box, Items: items})
		return
	}
	gen := s.itemsGen[box.ID]
	s.present(ctx, Status{Text: "Загрузка товаров..."})
	s.spawn("load_items", func(ctx context.Context) (any, error) {
		items, err := s.store.LoadItems(ctx, box.ID)
		if err != nil {
			return nil, storeFailure("load items", err)
		}
		return itemsLoaded{box: box, gen: gen, items: items}, nil
	})
}

// findBox номер короба ищется в снимке заказа, при промахе — в хранилище.
func (s *Station) findBox(ctx context.Context, code string) {
	if boxes, ok := s.cache.Boxes(s.orderID); ok {
		for _, b := range boxes {
			if b.Number == code {
				s.selectBox(ctx, b)
				return
			}
		}
		s.present(ctx, Warning{Op: "select box", Err: &fulfillment.NotFoundError{Entity: "box", Key: code}})
		return
	}
	orderID := s.orderID
	s.spawn("find_box", func(ctx context.Context) (any, error) {
		b, err := s.engine.SelectBox(ctx, orderID, code)
		if err != nil {
			return nil, err
		}
		return boxFound{orderID: orderID, box: b}, nil
	})
}

func (s *Station) selectBox(ctx context.Context, b fulfillment.Box) {
	if b.NeedsOpen() {
		s.pending = &b
		s.present(ctx, BoxLocked{Box: b})
		return
	}
	s.box, s.pending = &b, nil
	s.present(ctx, BoxSelected{Box: b})
	s.loadItems(ctx, b)
}

func (s *Station) report(ctx context.Context) {
	if s.orderID == 0 {
		s.present(ctx, Warning{Op: "report", Err: &fulfillment.ValidationError{Field: "order", Msg: "select an order first"}})
		return
	}
	if s.reports == nil {
		s.present(ctx, Failure{Op: "report", Err: errors.New("reports are not configured")})
		return
	}
	orderID := s.orderID
	number := strconv.FormatInt(orderID, 10)
	if orders, ok := s.cache.Orders(); ok {
		for _, o := range orders {
			if o.ID == orderID {
				number = o.Number
			}
		}
	}
	s.spawn("report", func(ctx context.Context) (any, error) {
		rows, err := s.store.OrderReport(ctx, orderID)
		if err != nil {
			return nil, storeFailure("order report", err)
		}
		paths, err := s.reports.Save(ctx, number, rows)
		if err != nil {
			return reportSaved{orderID: orderID, paths: paths}, err
		}
		return reportSaved{orderID: orderID, paths: paths}, nil
	})
}

/* Результаты задач */

type (
	ordersLoaded struct {
		gen    int
		orders []fulfillment.Order
	}
	boxesLoaded struct {
		orderID int64
		gen     int
		boxes   []fulfillment.Box
	}
	itemsLoaded struct {
		box   fulfillment.Box
		gen   int
		items []fulfillment.Item
	}
	orderChecked struct {
		seq, gen int
		orderID  int64
		orders   []fulfillment.Order
	}
	boxFound struct {
		orderID int64
		box     fulfillment.Box
	}
	itemScanned struct {
		box fulfillment.Box
		out fulfillment.ScanOutcome
	}
	itemAdded struct {
		orderID, boxID, itemID int64
	}
	orderAdded struct {
		id     int64
		number string
	}
	boxAdded struct {
		orderID, boxID int64
		number         string
	}
	reportSaved struct {
		orderID int64
		paths   []string
	}
)

type (
	boxOpened     struct{ box fulfillment.Box }
	boxClosed     struct{ box fulfillment.Box }
	boxDeferred   struct{ box fulfillment.Box }
	imported      struct{ res importer.Result }
	labelRendered struct{ barcode, path string }
)

// taskFailed partial — то, что задача успела сделать до ошибки (импорт).
type taskFailed struct {
	op      string
	err     error
	partial any
}

// spawn запускает задачу в отдельной горутине. Задача кладёт в очередь ровно один
// результат: значение, taskFailed или taskFailed с паникой.
func (s *Station) spawn(kind string, fn func(ctx context.Context) (any, error)) {
	ctx := s.taskCtx
	s.wg.Add(1)
	s.metrics.TaskStarted()
	s.log.Debug("task dispatched", "kind", kind)

	go func() {
		defer s.wg.Done()

		var (
			res any
			err error
		)
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic in %s task: %v", kind, r)
				}
			}()
			res, err = fn(ctx)
		}()

		if err != nil {
			outcome := "error"
			if _, ok := errorEvent(kind, err).(Warning); ok {
				outcome = "warning"
			}
			s.metrics.TaskFinished(kind, outcome)
			s.queue.push(taskFailed{op: kind, err: err, partial: res})
			return
		}
		s.metrics.TaskFinished(kind, "ok")
		s.queue.push(res)
	}()
}

// apply сначала правит кэш и сессию, затем отдаёт событие.
func (s *Station) apply(ctx context.Context, r any) {
	switch r := r.(type) {
	case ordersLoaded:
		if r.gen != s.ordersGen {
			s.loadOrders(ctx)
			return
		}
		s.cache.SetOrders(r.orders)
		s.present(ctx, OrdersLoaded{Orders: r.orders})
		s.present(ctx, Status{Text: "Готов"})

	case boxesLoaded:
		if r.gen != s.boxesGen[r.orderID] {
			if r.orderID == s.orderID {
				s.loadBoxes(ctx, r.orderID)
			}
			return
		}
		s.cache.SetBoxes(r.orderID, r.boxes)
		if r.orderID == s.orderID {
			boxes, _ := s.cache.Boxes(r.orderID)
			s.present(ctx, BoxesLoaded{OrderID: r.orderID, Boxes: boxes})
			s.present(ctx, Status{Text: "Готов"})
		}

	case itemsLoaded:
		isCurrent := s.box != nil && s.box.ID == r.box.ID
		if r.gen != s.itemsGen[r.box.ID] {
			if isCurrent {
				s.loadItems(ctx, *s.box)
			}
			return
		}
		s.cache.SetItems(r.box.ID, r.items)
		if isCurrent {
			items, _ := s.cache.Items(r.box.ID)
			s.present(ctx, ItemsLoaded{Box: *s.box, Items: items})
			s.present(ctx, Status{Text: "Готов"})
		}

	case orderChecked:
		if r.gen == s.ordersGen {
			s.cache.SetOrders(r.orders)
		}
		if r.seq != s.selectSeq {
			return
		}
		s.enterOrder(ctx, r.orders, r.orderID)

	case boxFound:
		if r.orderID != s.orderID {
			return
		}
		s.selectBox(ctx, r.box)

	case boxOpened:
		box := r.box
		s.cache.ResetBox(box)
		s.itemsGen[box.ID]++
		s.boxesGen[box.OrderID]++
		if s.pending != nil && s.pending.ID == box.ID {
			s.box, s.pending = &box, nil
		}
		s.log.Info("box reopened", "box_id", box.ID, "number", box.Number)
		s.present(ctx, BoxOpened{Box: box})
		if s.box != nil && s.box.ID == box.ID {
			s.loadItems(ctx, box)
		}

	case itemScanned:
		box := r.box
		s.cache.PatchScanned(box.ID, r.out.Item.ID)
		s.itemsGen[box.ID]++
		switch {
		case r.out.Unsettled:
			// Признак закрытия неизвестен: снимок коробов больше не доверенный,
			// следующий выбор короба пойдёт в хранилище.
			s.cache.InvalidateBoxes(box.OrderID)
			s.boxesGen[box.OrderID]++
		case r.out.BoxClosed:
			box.Closed = true
			s.cache.PatchBox(box)
			s.boxesGen[box.OrderID]++
			if s.box != nil && s.box.ID == box.ID {
				s.box.Closed = true
			}
		}
		s.metrics.Scan("matched")
		s.present(ctx, ItemScanned{Box: box, Outcome: r.out})
		if s.printing && s.renderer != nil {
			s.renderLabel(box, r.out)
		}

	case boxClosed:
		s.finishBox(ctx, r.box)
		s.present(ctx, BoxClosed{Box: r.box})
		s.loadBoxes(ctx, r.box.OrderID)

	case boxDeferred:
		s.finishBox(ctx, r.box)
		s.present(ctx, BoxDeferred{Box: r.box})
		s.loadBoxes(ctx, r.box.OrderID)

	case itemAdded:
		s.cache.InvalidateItems(r.orderID, r.boxID)
		s.itemsGen[r.boxID]++
		s.boxesGen[r.orderID]++
		s.present(ctx, ItemAdded{BoxID: r.boxID, ItemID: r.itemID})
		if s.box != nil && s.box.ID == r.boxID {
			s.box.Closed = false
			s.loadItems(ctx, *s.box)
		}

	case orderAdded:
		s.cache.InvalidateOrders()
		s.ordersGen++
		s.present(ctx, OrderAdded{OrderID: r.id, Number: r.number})
		s.loadOrders(ctx)

	case boxAdded:
		s.cache.InvalidateBoxes(r.orderID)
		s.boxesGen[r.orderID]++
		s.present(ctx, BoxAdded{OrderID: r.orderID, BoxID: r.boxID, Number: r.number})
		if r.orderID == s.orderID {
			s.loadBoxes(ctx, r.orderID)
		}

	case imported:
		s.cache.InvalidateOrders()
		s.ordersGen++
		s.present(ctx, Imported{Result: r.res})
		s.loadOrders(ctx)

	case reportSaved:
		s.present(ctx, ReportSaved{OrderID: r.orderID, Paths: r.paths})

	case labelRendered:
		s.present(ctx, LabelRendered{Barcode: r.barcode, Path: r.path})

	case taskFailed:
		s.failed(ctx, r)
	}
}

// finishBox close/defer: флаги в снимке, короб перестаёт быть текущим.
func (s *Station) finishBox(_ context.Context, box fulfillment.Box) {
	s.cache.PatchBox(box)
	s.boxesGen[box.OrderID]++
	if s.box != nil && s.box.ID == box.ID {
		s.box = nil
	}
}

func (s *Station) failed(ctx context.Context, r taskFailed) {
	if r.op == "scan" {
		switch {
		case errors.Is(r.err, fulfillment.ErrCodeNotInBox):
			s.metrics.Scan("not_in_box")
		case errors.Is(r.err, fulfillment.ErrAlreadyScanned):
			s.metrics.Scan("already_scanned")
		default:
			s.metrics.Scan("error")
		}
	}
	// Импорт не атомарен: часть строк могла записаться.
	if imp, ok := r.partial.(imported); ok && imp.res.OrderID != 0 {
		s.cache.InvalidateOrders()
		s.ordersGen++
	}

	// Отчёт мог записаться частично (xlsx есть, PDF нет).
	if rs, ok := r.partial.(reportSaved); ok && len(rs.paths) > 0 {
		s.present(ctx, ReportSaved{OrderID: rs.orderID, Paths: rs.paths})
	}

	ev := errorEvent(r.op, r.err)
	if _, ok := ev.(Failure); ok {
		s.log.Error("task failed", "op", r.op, "err", r.err)
	} else {
		s.log.Warn("task rejected", "op", r.op, "err", r.err)
	}
	s.present(ctx, ev)
	if imp, ok := r.partial.(imported); ok && imp.res.OrderID != 0 {
		s.loadOrders(ctx)
	}
}

func (s *Station) renderLabel(box fulfillment.Box, out fulfillment.ScanOutcome) {
	req := label.NewRequest(box, out)
	target := s.target
	barcode := out.Item.Barcode
	s.spawn("label", func(ctx context.Context) (any, error) {
		path, err := s.renderer.Render(ctx, req, target)
		if err != nil {
			return nil, err
		}
		return labelRendered{barcode: barcode, path: path}, nil
	})
}

// storeFailure ошибки Store уже типизированы, чужие оборачиваются один раз.
func storeFailure(op string, err error) error {
	var se *fulfillment.StoreError
	if errors.As(err, &se) {
		return err
	}
	return &fulfillment.StoreError{Op: op, Err: err}
}

func (s *Station) present(ctx context.Context, ev Event) {
	s.presenter.Present(ctx, ev)
}
