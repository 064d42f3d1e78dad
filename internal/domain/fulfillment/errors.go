package fulfillment

import (
	"errors"
	"fmt"
	"strconv"
)

// Категории ошибок. Конкретные типы ниже разворачиваются в них через errors.Is.
var (
	ErrNotFound       = errors.New("fulfillment: not found")
	ErrValidation     = errors.New("fulfillment: validation failed")
	ErrUnauthorized   = errors.New("fulfillment: unauthorized")
	ErrStore          = errors.New("fulfillment: store failure")
	ErrBoxLocked      = errors.New("fulfillment: box must be opened first")
	ErrAlreadyScanned = errors.New("fulfillment: all items with code already scanned")
	ErrCodeNotInBox   = errors.New("fulfillment: code not in box")
)

type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// IncompleteBoxError закрытие короба, в котором остались неотсканированные товары.
type IncompleteBoxError struct {
	BoxNumber string
	Unscanned int
}

func (e *IncompleteBoxError) Error() string {
	return fmt.Sprintf("box %s has %d unscanned items", e.BoxNumber, e.Unscanned)
}

func (e *IncompleteBoxError) Unwrap() error { return ErrValidation }

type AuthorizationError struct {
	BoxNumber string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("wrong credential for box %s", e.BoxNumber)
}

func (e *AuthorizationError) Unwrap() error { return ErrUnauthorized }

// StoreError оборачивает ошибку драйвера/соединения.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *StoreError) Unwrap() []error { return []error{ErrStore, e.Err} }

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// ScanWarning ожидаемая обратная связь оператору, а не сбой.
type ScanWarning struct {
	Code  string
	Total int
	kind  error
}

func (w *ScanWarning) Error() string {
	if w.kind == ErrCodeNotInBox {
		return fmt.Sprintf("no item with code %s in this box", w.Code)
	}
	return fmt.Sprintf("all %d items with code %s are already scanned", w.Total, w.Code)
}

func (w *ScanWarning) Unwrap() error { return w.kind }

func newScanWarning(code string, total int) *ScanWarning {
	if total == 0 {
		return &ScanWarning{Code: code, kind: ErrCodeNotInBox}
	}
	return &ScanWarning{Code: code, Total: total, kind: ErrAlreadyScanned}
}

// IsWarning ошибки, после которых сканирование продолжается.
func IsWarning(err error) bool {
	return errors.Is(err, ErrAlreadyScanned) || errors.Is(err, ErrCodeNotInBox)
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
