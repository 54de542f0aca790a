package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation is the kind shared by every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientFunds marks a pot transfer larger than the money
	// available on its source side.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// ValidationError reports a business rule a mutation would break.
// The ledger state is unchanged when one is returned.
type ValidationError struct {
	Entity string
	Field  string
	Reason string
	// Err optionally narrows the kind, e.g. ErrInsufficientFunds.
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s %s", e.Entity, e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrValidation and the optional narrower kind.
func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrValidation, e.Err}
	}
	return []error{ErrValidation}
}

func invalid(entity, field, reason string) error {
	return &ValidationError{Entity: entity, Field: field, Reason: reason}
}

func insufficient(entity, reason string) error {
	return &ValidationError{Entity: entity, Field: "amount", Reason: reason, Err: ErrInsufficientFunds}
}

func notFound(entity, id string) error {
	return fmt.Errorf("%s %q: %w", entity, id, ErrNotFound)
}
