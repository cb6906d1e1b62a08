// Package errors defines the sentinel errors returned by the search engine and
// a wrapping Error type that carries the failing operation and a detail
// message while staying compatible with errors.Is / errors.As.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDocumentID = errors.New("invalid document id")
	ErrInvalidWord       = errors.New("invalid word")
	ErrInvalidPageSize   = errors.New("invalid page size")
	ErrInvalidInput      = errors.New("invalid input")
)

// Error annotates a sentinel with the operation that failed.
type Error struct {
	Err     error
	Op      string
	Message string
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Err.Error(), e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(sentinel error, op string, message string) *Error {
	return &Error{
		Err:     sentinel,
		Op:      op,
		Message: message,
	}
}

func Newf(sentinel error, op string, format string, args ...any) *Error {
	return &Error{
		Err:     sentinel,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// Kind maps err to a short, stable label suitable for metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrInvalidDocumentID):
		return "invalid_document_id"
	case errors.Is(err, ErrInvalidWord):
		return "invalid_word"
	case errors.Is(err, ErrInvalidPageSize):
		return "invalid_page_size"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal"
	}
}
