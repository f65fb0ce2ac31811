package references

import (
	"fmt"

	"github.com/speakeasy-api/openapi-refs/errors"
	"github.com/speakeasy-api/openapi-refs/jsonpointer"
)

const (
	// ErrInvalidReference is returned when a reference object is malformed, for example a missing or empty $ref.
	ErrInvalidReference = errors.Error("invalid reference")
	// ErrPointerNotFound is returned when a JSON pointer can't be evaluated against its target document.
	ErrPointerNotFound = errors.Error("json pointer not found")
	// ErrUnresolvable is returned when a reference can't be resolved.
	ErrUnresolvable = errors.Error("unresolvable reference")
	// ErrCyclicReference is returned when a reference resolves back to itself.
	ErrCyclicReference = errors.Error("cyclic reference")
)

// ResolutionError describes a failed resolution of a single reference.
// It matches its Kind and its cause with errors.Is.
type ResolutionError struct {
	// Kind is ErrUnresolvable or ErrCyclicReference.
	Kind error
	// Ref is the raw $ref value of the reference that failed.
	Ref string
	// Position is the location of the failing reference node, if known.
	Position *jsonpointer.JSONPointer
	// Message describes the failure without the position.
	Message string
	// Err is the underlying cause, if any.
	Err error
}

var _ error = (*ResolutionError)(nil)

func (e *ResolutionError) Error() string {
	if e.Position != nil {
		return fmt.Sprintf("[%s] %s", *e.Position, e.Detail())
	}
	return e.Detail()
}

// Detail returns the message and cause without the position prefix.
func (e *ResolutionError) Detail() string {
	msg := e.Message
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolutionError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
