package timer

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidState = errors.New("invalid state transition")
	ErrValidation   = errors.New("validation failed")
	ErrPersist      = errors.New("commit failed")
	ErrUnauthorized = errors.New("not authorized")
)

// InvalidStateError reports an operation attempted from a state that does
// not allow it. Correct hosts never trigger it.
type InvalidStateError struct {
	Op    string
	State State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: cannot %s while %s", ErrInvalidState, e.Op, e.State)
}

func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

// ValidationError reports bad input to an operation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PersistKind separates failures a retry may fix from ones it will not.
type PersistKind int

const (
	PersistTransient PersistKind = iota
	PersistUnauthorized
	// PersistRejected means the store refused the draft itself, for example
	// because its client no longer exists.
	PersistRejected
)

func (k PersistKind) String() string {
	switch k {
	case PersistUnauthorized:
		return "unauthorized"
	case PersistRejected:
		return "rejected"
	}
	return "transient"
}

// PersistError wraps a failed commit of a draft.
type PersistError struct {
	Kind PersistKind
	Err  error
}

// NewPersistError wraps err with the given kind.
func NewPersistError(kind PersistKind, err error) *PersistError {
	return &PersistError{Kind: kind, Err: err}
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%s (%s): %v", ErrPersist, e.Kind, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

func (e *PersistError) Is(target error) bool {
	switch target {
	case ErrPersist:
		return true
	case ErrUnauthorized:
		return e.Kind == PersistUnauthorized
	}
	return false
}

// Retryable reports whether retrying the same draft can succeed.
func (e *PersistError) Retryable() bool {
	return e.Kind == PersistTransient
}

func asPersistError(err error) *PersistError {
	var pe *PersistError
	if errors.As(err, &pe) {
		return pe
	}
	if errors.Is(err, ErrUnauthorized) {
		return NewPersistError(PersistUnauthorized, err)
	}
	return NewPersistError(PersistTransient, err)
}
