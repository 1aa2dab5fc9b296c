// Package errors defines the sentinel errors shared by the vocabulary
// services and the typed wrappers used to carry store and HTTP context.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrStoreOperation   = errors.New("store operation failed")
	ErrRecordNotFound   = errors.New("record not found")
	ErrTokenization     = errors.New("tokenization failed")
	ErrEmptyVocabulary  = fmt.Errorf("%w: empty vocabulary", ErrTokenization)
	ErrInvalidInput     = errors.New("invalid input")
	ErrLocked           = errors.New("vocabulary is locked by another writer")
	ErrInternal         = errors.New("internal error")
)

// StoreError records which collection and operation a store failure
// belongs to.
type StoreError struct {
	Collection string
	Op         string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %q: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError wraps cause under the given sentinel so both remain
// matchable with errors.Is.
func NewStoreError(collection, op string, sentinel, cause error) *StoreError {
	err := sentinel
	if cause != nil {
		err = fmt.Errorf("%w: %w", sentinel, cause)
	}
	return &StoreError{Collection: collection, Op: op, Err: err}
}

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrTokenization):
		return http.StatusBadRequest
	case errors.Is(err, ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrLocked):
		return http.StatusConflict
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrStoreOperation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
