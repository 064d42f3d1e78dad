package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Spok95/packing-station/internal/domain/fulfillment"
	"github.com/Spok95/packing-station/internal/station"
)

// console выводит события станции строками в терминал оператора.
type console struct {
	w io.Writer
}

func (c console) Present(_ context.Context, ev station.Event) {
	switch e := ev.(type) {
	case station.OrdersLoaded:
		c.printf("Заказы (%d):", len(e.Orders))
		for _, o := range e.Orders {
			c.printf("  #%d  %s  коробов: %d  товаров: %d  %s",
				o.ID, o.Number, o.BoxCount, o.ItemCount, o.CreatedAt.Format("02.01.2006 15:04"))
		}
	case station.BoxesLoaded:
		c.printf("Коробы заказа #%d:", e.OrderID)
		for _, b := range e.Boxes {
			c.printf("  %s  %s", b.Number, boxState(b))
		}
	case station.ItemsLoaded:
		c.printf("Короб %s: %d товаров, не отсканировано %d",
			e.Box.Number, len(e.Items), fulfillment.Unscanned(e.Items))
		for _, it := range e.Items {
			mark := " "
			if it.Scanned {
				mark = "x"
			}
			c.printf("  [%s] %s  %s %s %s", mark, it.Barcode, it.ProductName, it.Size, it.Color)
		}
	case station.BoxSelected:
		c.printf("Короб %s выбран, сканируйте товары", e.Box.Number)
	case station.BoxLocked:
		c.printf("Короб %s %s: введите /open <пароль>", e.Box.Number, boxState(e.Box))
	case station.BoxOpened:
		c.printf("Короб %s открыт заново, отметки сброшены", e.Box.Number)
	case station.ItemScanned:
		o := e.Outcome
		c.printf("✓ %s %s (%d из %d)", o.Item.Barcode, o.Item.ProductName, o.Position, o.Total)
		if o.BoxClosed {
			c.printf("Короб %s полностью отсканирован", e.Box.Number)
		}
		if o.OrderClosed {
			c.printf("Заказ собран")
		}
	case station.BoxClosed:
		c.printf("Короб %s закрыт", e.Box.Number)
	case station.BoxDeferred:
		c.printf("Короб %s отложен", e.Box.Number)
	case station.ItemAdded:
		c.printf("Товар #%d добавлен", e.ItemID)
	case station.OrderAdded:
		c.printf("Заказ %s создан (#%d)", e.Number, e.OrderID)
	case station.BoxAdded:
		c.printf("Короб %s добавлен", e.Number)
	case station.Imported:
		c.printf("Импортирован заказ %s: коробов %d, товаров %d", e.Result.OrderNumber, e.Result.Boxes, e.Result.Items)
	case station.ReportSaved:
		c.printf("Отчёт сохранён: %s", strings.Join(e.Paths, ", "))
	case station.LabelRendered:
		c.printf("Этикетка %s: %s", e.Barcode, e.Path)
	case station.Warning:
		c.printf("! %s", e.Err)
	case station.Failure:
		c.printf("ОШИБКА (%s): %s", e.Op, e.Err)
	case station.Status:
		c.printf("… %s", e.Text)
	}
}

func (c console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.w, format+"\n", args...)
}

func boxState(b fulfillment.Box) string {
	switch {
	case b.Deferred && b.Closed:
		return "отложен, отсканирован"
	case b.Deferred:
		return "отложен"
	case b.Closed:
		return "закрыт"
	default:
		return "открыт"
	}
}

// controller команды станции, которые доступны с клавиатуры.
type controller interface {
	LoadOrders() error
	SelectOrder(orderID int64) error
	Scan(code string) error
	OpenBox(credential string) error
	CloseBox() error
	DeferBox() error
	AddItem(f fulfillment.ItemFields) error
	AddOrder(number string, boxCount, itemCount int) error
	AddBox(number string) error
	Import(path string) error
	Report() error
	Reload() error
	SetPrinting(on bool) error
}

const help = `Команды:
  /orders                          список заказов
  /order <id>                      выбрать заказ
  /open <пароль>                   открыть закрытый или отложенный короб
  /close, /defer                   закрыть или отложить текущий короб
  /add-item <штрихкод> [название] [поле=значение ...]
                                   добавить товар в текущий короб; поля: size, color,
                                   article, brand, composition, country, date,
                                   datamatrix, crypto_tail, name
  /add-order <номер> <коробов> <товаров>
  /add-box <номер>
  /import <файл.xlsx>
  /report                          отчёт по заказу в xlsx
  /print on|off                    печать этикеток
  /reload                          перечитать данные
Любая другая строка — отсканированный код.`

var errUsage = errors.New("usage")

// parseItem штрихкод, затем название, затем поля key=value. Значение тянется
// до следующего известного ключа, так что пробелы в нём допустимы.
func parseItem(args []string) fulfillment.ItemFields {
	f := fulfillment.ItemFields{Barcode: args[0]}
	fields := map[string]*string{
		"name":        &f.ProductName,
		"datamatrix":  &f.Datamatrix,
		"crypto_tail": &f.CryptoTail,
		"article":     &f.Article,
		"size":        &f.Size,
		"color":       &f.Color,
		"composition": &f.Composition,
		"country":     &f.Country,
		"date":        &f.ManufactureDate,
		"brand":       &f.Brand,
	}
	cur := &f.ProductName
	for _, a := range args[1:] {
		if k, v, ok := strings.Cut(a, "="); ok {
			if dst, known := fields[strings.ToLower(k)]; known {
				cur = dst
				*cur = v
				continue
			}
		}
		if *cur == "" {
			*cur = a
		} else {
			*cur += " " + a
		}
	}
	return f
}

// dispatch строка со сканера или клавиатуры. Всё, что не начинается с '/', — скан.
func dispatch(c controller, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, "/") {
		return c.Scan(line)
	}

	cmd, rest, _ := strings.Cut(line[1:], " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch cmd {
	case "orders":
		return c.LoadOrders()
	case "order":
		if len(args) != 1 {
			return fmt.Errorf("%w: /order <id>", errUsage)
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("%w: order id must be a positive number", errUsage)
		}
		return c.SelectOrder(id)
	case "open":
		return c.OpenBox(rest)
	case "close":
		return c.CloseBox()
	case "defer":
		return c.DeferBox()
	case "add-item":
		if len(args) == 0 {
			return fmt.Errorf("%w: /add-item <barcode> [name] [field=value ...]", errUsage)
		}
		return c.AddItem(parseItem(args))
	case "add-order":
		if len(args) != 3 {
			return fmt.Errorf("%w: /add-order <number> <boxes> <items>", errUsage)
		}
		boxes, err := fulfillment.ParseCount("box_count", args[1])
		if err != nil {
			return err
		}
		items, err := fulfillment.ParseCount("item_count", args[2])
		if err != nil {
			return err
		}
		return c.AddOrder(args[0], boxes, items)
	case "add-box":
		if len(args) != 1 {
			return fmt.Errorf("%w: /add-box <number>", errUsage)
		}
		return c.AddBox(args[0])
	case "import":
		if rest == "" {
			return fmt.Errorf("%w: /import <file.xlsx>", errUsage)
		}
		return c.Import(rest)
	case "report":
		return c.Report()
	case "reload":
		return c.Reload()
	case "print":
		switch rest {
		case "on":
			return c.SetPrinting(true)
		case "off":
			return c.SetPrinting(false)
		}
		return fmt.Errorf("%w: /print on|off", errUsage)
	case "help":
		return errUsage
	}
	return fmt.Errorf("%w: unknown command /%s", errUsage, cmd)
}
