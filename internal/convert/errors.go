package convert

import (
	"errors"
	"fmt"

	"github.com/mcncl/omconv/internal/models"
)

// ErrInvalidInput is returned when an element is not part of the OpenMath grammar.
var ErrInvalidInput = errors.New("invalid XML")

// MismatchError is returned when an element is decoded as a variant it does not name.
type MismatchError struct {
	Expected string
	Actual   string
}

// Error implements error interface
func (e *MismatchError) Error() string {
	return fmt.Sprintf("expected node to be of type '%s', but got '%s'", e.Expected, e.Actual)
}

// StructureError reports an element whose children or attributes do not fit its variant.
type StructureError struct {
	Kind   models.Kind
	Reason string
}

// Error implements error interface
func (e *StructureError) Error() string {
	return fmt.Sprintf("invalid %s element: %s", e.Kind, e.Reason)
}

// EncodeError reports a value that is missing a field required to encode it.
type EncodeError struct {
	Kind  models.Kind
	Field string
}

// Error implements error interface
func (e *EncodeError) Error() string {
	return fmt.Sprintf("cannot encode %s: %s is required", e.Kind, e.Field)
}
