package fulfillment

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CredentialVerifier политика проверки пароля на повторное открытие.
type CredentialVerifier interface {
	Verify(input string) bool
}

// Engine правила жизненного цикла короба поверх Store.
// Состояния: открыт, полностью отсканирован («закрыт»), отложен, отложен+отсканирован.
// Закрытие — производный признак, а не запись в БД.
type Engine struct {
	store    Store
	verifier CredentialVerifier
	validate *validator.Validate
}

func NewEngine(store Store, verifier CredentialVerifier) *Engine {
	return &Engine{store: store, verifier: verifier, validate: validator.New()}
}

// EvaluateClosed считается по хранилищу в момент вызова.
func (e *Engine) EvaluateClosed(ctx context.Context, boxID int64) (bool, error) {
	n, err := e.store.UnscannedCount(ctx, boxID)
	if err != nil {
		return false, storeErr("evaluate closed", err)
	}
	return n == 0, nil
}

// SelectBox ищет короб по отсканированному номеру в текущем заказе.
// Если короб закрыт или отложен, вызывающий обязан пройти Open до сканирования.
func (e *Engine) SelectBox(ctx context.Context, orderID int64, code string) (Box, error) {
	code = strings.TrimSpace(code)
	b, err := e.store.FindBox(ctx, orderID, code)
	if err != nil {
		return Box{}, storeErr("find box", err)
	}
	if b == nil {
		return Box{}, &NotFoundError{Entity: "box", Key: code}
	}
	return *b, nil
}

// Close проверка, а не запись: короб «закрыт», когда всё отсканировано.
// Флаг «отложен» при этом снимается.
func (e *Engine) Close(ctx context.Context, box Box) (Box, error) {
	n, err := e.store.UnscannedCount(ctx, box.ID)
	if err != nil {
		return box, storeErr("close box", err)
	}
	if n > 0 {
		return box, &IncompleteBoxError{BoxNumber: box.Number, Unscanned: n}
	}
	if box.Deferred {
		if err := e.store.SetDeferred(ctx, box.ID, false); err != nil {
			return box, storeErr("close box", err)
		}
	}
	box.Deferred = false
	box.Closed = true
	return box, nil
}

// Defer «отложить на потом» разрешено и для неполного короба.
func (e *Engine) Defer(ctx context.Context, box Box) (Box, error) {
	if err := e.store.SetDeferred(ctx, box.ID, true); err != nil {
		return box, storeErr("defer box", err)
	}
	closed, err := e.EvaluateClosed(ctx, box.ID)
	if err != nil {
		return box, err
	}
	box.Deferred = true
	box.Closed = closed
	return box, nil
}

// Open повторное открытие начинает сборку короба заново:
// все отметки сканирования сбрасываются.
func (e *Engine) Open(ctx context.Context, box Box, credential string) (Box, error) {
	if e.verifier == nil || !e.verifier.Verify(credential) {
		return box, &AuthorizationError{BoxNumber: box.Number}
	}
	if err := e.store.OpenBox(ctx, box.ID); err != nil {
		return box, storeErr("open box", err)
	}
	closed, err := e.EvaluateClosed(ctx, box.ID)
	if err != nil {
		return box, err
	}
	box.Deferred = false
	box.Closed = closed // пустой короб остаётся «закрытым»
	return box, nil
}

// Scan отмечает один товар с кодом. Предупреждения (*ScanWarning) не меняют состояние.
func (e *Engine) Scan(ctx context.Context, box Box, code string) (ScanOutcome, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return ScanOutcome{}, &ValidationError{Field: "code", Msg: "empty code"}
	}
	it, total, err := e.store.ScanItem(ctx, box.ID, code)
	if err != nil {
		return ScanOutcome{}, storeErr("scan item", err)
	}
	if it == nil {
		return ScanOutcome{}, newScanWarning(code, total)
	}
	out := ScanOutcome{Item: *it, Total: total}

	// Отметка уже зафиксирована: прогресс считаем по возможности,
	// ошибка чтения здесь не должна провоцировать повторное сканирование.
	if items, err := e.store.LoadItems(ctx, box.ID); err == nil {
		out.Position = scannedWithCode(items, code)
		out.BoxClosed = Unscanned(items) == 0
	} else if n, err := e.store.UnscannedCount(ctx, box.ID); err == nil {
		out.BoxClosed = n == 0
	} else {
		out.Unsettled = true
	}
	if out.BoxClosed {
		if boxes, err := e.store.LoadBoxes(ctx, box.OrderID); err == nil {
			out.OrderClosed = allClosed(boxes)
		}
	}
	return out, nil
}

func allClosed(boxes []Box) bool {
	for _, b := range boxes {
		if !b.Closed {
			return false
		}
	}
	return true
}

type orderInput struct {
	Number    string `validate:"required,max=50"`
	BoxCount  int    `validate:"gte=0"`
	ItemCount int    `validate:"gte=0"`
}

type boxInput struct {
	Number string `validate:"required,max=50"`
}

func (e *Engine) AddOrder(ctx context.Context, number string, boxCount, itemCount int) (int64, error) {
	in := orderInput{Number: strings.TrimSpace(number), BoxCount: boxCount, ItemCount: itemCount}
	if err := e.check(in); err != nil {
		return 0, err
	}
	id, err := e.store.AddOrder(ctx, in.Number, in.BoxCount, in.ItemCount)
	return id, storeErr("add order", err)
}

func (e *Engine) AddBox(ctx context.Context, orderID int64, number string) (int64, error) {
	in := boxInput{Number: strings.TrimSpace(number)}
	if err := e.check(in); err != nil {
		return 0, err
	}
	id, err := e.store.AddBox(ctx, orderID, in.Number)
	return id, storeErr("add box", err)
}

// AddItem новый товар всегда неотсканирован.
func (e *Engine) AddItem(ctx context.Context, boxID int64, f ItemFields) (int64, error) {
	f.Barcode = strings.TrimSpace(f.Barcode)
	if err := e.check(f); err != nil {
		return 0, err
	}
	id, err := e.store.AddItem(ctx, boxID, f)
	return id, storeErr("add item", err)
}

func (e *Engine) check(v any) error {
	err := e.validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		msg := fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		return &ValidationError{Field: fe.Field(), Msg: "failed " + msg}
	}
	return &ValidationError{Msg: err.Error()}
}

// ParseCount разбор числового ввода (количество коробов/товаров).
func ParseCount(field, s string) (int, error) {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) && f >= 0 {
		// Excel отдаёт целые как "3" или "3.0"
		return int(f), nil
	}
	return 0, &ValidationError{Field: field, Msg: "not a non-negative integer: " + strconv.Quote(s)}
}
