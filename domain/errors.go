package domain

import (
	"errors"
	"fmt"
)

// Error kinds reported to callers. Anything that does not match one of these
// is an infrastructure failure.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrValidation        = errors.New("validation failed")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func NotFoundf(format string, args ...any) error {
	return &kindError{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

func InvalidStatef(format string, args ...any) error {
	return &kindError{kind: ErrInvalidState, msg: fmt.Sprintf(format, args...)}
}

func Duplicatef(format string, args ...any) error {
	return &kindError{kind: ErrDuplicateKey, msg: fmt.Sprintf(format, args...)}
}

func Invalidf(format string, args ...any) error {
	return &kindError{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

// InsufficientStockError carries the quantities needed to correct a sale request.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Available   int64
	Requested   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Stock insuficiente para '%s'. Disponible: %d, Solicitado: %d", e.ProductName, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// IsClientError reports whether err belongs to the caller-correctable taxonomy.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrDuplicateKey) ||
		errors.Is(err, ErrValidation)
}
