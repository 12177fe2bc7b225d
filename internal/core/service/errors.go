package service

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrBasketNotFound     = errors.New("basket not found")
	ErrItemNotFound       = errors.New("item not found in basket")
	ErrEmptyBasket        = errors.New("cannot checkout empty basket")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrUserNotFound       = errors.New("user not found")
	ErrForbidden          = errors.New("administrator access required")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// InvalidQuantityError reports a malformed or out-of-range quantity.
type InvalidQuantityError struct {
	Reason string
}

func (e *InvalidQuantityError) Error() string { return e.Reason }

// InsufficientStockError reports a quantity that cannot be satisfied.
// Available is the maximum quantity the caller could still request.
type InsufficientStockError struct {
	ProductID string
	Available int
	Reason    string
}

func (e *InsufficientStockError) Error() string { return e.Reason }

func insufficientStock(productID string, available int, format string, args ...any) *InsufficientStockError {
	return &InsufficientStockError{
		ProductID: productID,
		Available: available,
		Reason:    fmt.Sprintf(format, args...),
	}
}

// ValidationError reports user-correctable input problems outside the
// quantity/stock taxonomy (signup fields, product fields).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func invalidInput(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
