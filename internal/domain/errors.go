package domain

import (
	"errors"
	"fmt"
)

// Error kinds shared across services and mapped to HTTP statuses by the
// handlers. Business failures are values, never panics.
var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrDuplicate         = errors.New("already exists")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// StockError carries the offending product so callers can report which
// line of a cart could not be reserved.
type StockError struct {
	ProductName string
	Requested   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.ProductName)
}

func (e *StockError) Is(target error) bool { return target == ErrInsufficientStock }

// PersistError wraps a storage failure surfaced after any compensating
// inventory restores have already run.
type PersistError struct{ Err error }

func (e *PersistError) Error() string { return "persistence failure: " + e.Err.Error() }
func (e *PersistError) Unwrap() error { return e.Err }
