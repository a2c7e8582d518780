package service

import (
	"errors"
	"fmt"

	"github.com/mkhaled501333/maintaince-management/internal/maintenance/repository"
)

// Error kinds. Handlers map them to HTTP statuses with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrForbidden         = errors.New("forbidden")
	ErrAlreadyProcessed  = errors.New("already processed")
	ErrInactivePart      = errors.New("inactive part")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConcurrentUpdate  = errors.New("concurrent update")
	ErrDuplicate         = errors.New("duplicate")
)

// Error is a classified service failure carrying a caller-facing detail.
type Error struct {
	Kind   error
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return e.Detail
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func notFoundError(what string) *Error {
	return &Error{Kind: ErrNotFound, Detail: what + " not found"}
}

// fromRepo classifies repository errors; what names the missing record.
func fromRepo(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFoundError(what)
	case errors.Is(err, repository.ErrVersionConflict):
		return newError(ErrConcurrentUpdate, "%s was modified concurrently, retry the operation", what)
	default:
		var svcErr *Error
		if errors.As(err, &svcErr) {
			return err
		}
		return fmt.Errorf("%s: %w", what, err)
	}
}

// Detail returns the caller-facing message of err.
func Detail(err error) string {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Error()
	}
	return err.Error()
}
