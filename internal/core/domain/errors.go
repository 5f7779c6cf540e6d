package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInternal          = errors.New("internal server error")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrForbidden         = errors.New("you don't have permission for this action")
	ErrDuplicateRequest  = errors.New("duplicate request")
	ErrDuplicateCode     = errors.New("item code already exists")
)

var (
	ErrItemNotFound        = notFound("item")
	ErrTransactionNotFound = notFound("transaction")
	ErrCategoryNotFound    = notFound("category")
	ErrUserNotFound        = notFound("user")
)

type notFoundError struct {
	model string
}

func notFound(model string) error {
	return &notFoundError{model: model}
}

func (e *notFoundError) Error() string {
	return e.model + " not found"
}

func (e *notFoundError) Unwrap() error {
	return ErrNotFound
}

func invalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}
