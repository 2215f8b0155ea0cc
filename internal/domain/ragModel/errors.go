package ragModel

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrUnavailable       = errors.New("dependency unavailable")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrTimeout           = errors.New("timeout")
	ErrNotFound          = errors.New("not found")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// ValidationError is returned for caller mistakes and matches ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
