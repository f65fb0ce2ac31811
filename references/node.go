package references

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/speakeasy-api/openapi-refs/document"
	"github.com/speakeasy-api/openapi-refs/jsonpointer"
	"github.com/speakeasy-api/openapi-refs/sequencedmap"
)

// RefKey is the key of a reference field in a document mapping.
const RefKey = "$ref"

// Position locates a node inside a document. It's only used for diagnostics.
type Position struct {
	Document any
	Pointer  jsonpointer.JSONPointer
}

// ContextAware is implemented by resolved values whose nested references need the active resolution context.
type ContextAware interface {
	SetReferenceContext(rc *ReferenceContext) error
}

// Positioned is implemented by values that carry their location in a document.
type Positioned interface {
	SetDocumentContext(doc any, pointer jsonpointer.JSONPointer)
	GetDocumentPosition() (jsonpointer.JSONPointer, bool)
}

// Reference is a "$ref" node of a document tree. It never owns the value it resolves to.
type Reference struct {
	raw      string
	to       TargetType
	parsed   *JSONReference
	context  *ReferenceContext
	errors   []string
	position *Position
}

var (
	_ ContextAware = (*Reference)(nil)
	_ Positioned   = (*Reference)(nil)
)

// NewReference builds a reference from a decoded mapping that must hold a non-empty string "$ref".
// A malformed reference value or additional properties don't fail construction, they are recorded
// as validation errors instead.
func NewReference(data *document.Mapping, to TargetType) (*Reference, error) {
	if data == nil {
		return nil, ErrInvalidReference.Wrap(fmt.Errorf("missing %s", RefKey))
	}
	if !to.IsValid() {
		return nil, ErrInvalidReference.Wrap(fmt.Errorf("%q is not a resolvable object type", to))
	}

	value, ok := data.Get(RefKey)
	if !ok {
		return nil, ErrInvalidReference.Wrap(fmt.Errorf("missing %s", RefKey))
	}
	raw, ok := value.(string)
	if !ok {
		return nil, ErrInvalidReference.Wrap(fmt.Errorf("%s must be a string, got %T", RefKey, value))
	}
	if raw == "" {
		return nil, ErrInvalidReference.Wrap(fmt.Errorf("%s must not be empty", RefKey))
	}

	r := &Reference{
		raw: raw,
		to:  to,
	}

	parsed, err := ParseJSONReference(raw)
	if err != nil {
		r.errors = append(r.errors, fmt.Sprintf("Reference: value of %s is not a valid JSON Reference: %s", RefKey, err.Error()))
	} else {
		r.parsed = &parsed
	}

	var extra []string
	for key := range data.Keys() {
		if key != RefKey {
			extra = append(extra, key)
		}
	}
	if len(extra) > 0 {
		r.errors = append(r.errors, fmt.Sprintf("additional properties found for Reference Object: %s", strings.Join(extra, ", ")))
	}

	return r, nil
}

// New builds a reference from a raw "$ref" value.
func New(raw string, to TargetType) (*Reference, error) {
	return NewReference(sequencedmap.New(sequencedmap.NewElem[string, any](RefKey, raw)), to)
}

// IsReference reports whether data is a mapping holding a string "$ref".
func IsReference(data any) bool {
	m, ok := data.(*document.Mapping)
	if !ok || m == nil {
		return false
	}
	_, ok = m.GetOrZero(RefKey).(string)
	return ok
}

// GetReference returns the raw "$ref" value.
func (r *Reference) GetReference() string {
	if r == nil {
		return ""
	}
	return r.raw
}

// GetTargetType returns the expected type of the resolved value, TargetNone when unknown.
func (r *Reference) GetTargetType() TargetType {
	if r == nil {
		return TargetNone
	}
	return r.to
}

// GetJSONReference returns the parsed reference. It's false when the raw value failed to parse
// or a failed resolution marked the reference as unresolved.
func (r *Reference) GetJSONReference() (JSONReference, bool) {
	if r == nil || r.parsed == nil {
		return "", false
	}
	return *r.parsed, true
}

// Validate reports whether no errors were recorded for the reference.
func (r *Reference) Validate() bool {
	return len(r.errors) == 0
}

// GetErrors returns the recorded errors, prefixed with the reference's location when known.
func (r *Reference) GetErrors() []string {
	if r.position == nil {
		return slices.Clone(r.errors)
	}

	errs := make([]string, 0, len(r.errors))
	for _, e := range r.errors {
		errs = append(errs, fmt.Sprintf("[%s] %s", r.position.Pointer, e))
	}
	return errs
}

// GetSerializableData returns the single field mapping {"$ref": raw}. Resolution never changes it.
func (r *Reference) GetSerializableData() *document.Mapping {
	return sequencedmap.New(sequencedmap.NewElem[string, any](RefKey, r.raw))
}

func (r *Reference) MarshalYAML() (any, error) {
	return r.GetSerializableData().MarshalYAML()
}

func (r *Reference) MarshalJSON() ([]byte, error) {
	return r.GetSerializableData().MarshalJSON()
}

// SetContext attaches the resolution context without taking ownership of it.
func (r *Reference) SetContext(rc *ReferenceContext) {
	r.context = rc
}

func (r *Reference) GetContext() *ReferenceContext {
	return r.context
}

// SetDocumentContext records where the reference lives for diagnostics.
func (r *Reference) SetDocumentContext(doc any, pointer jsonpointer.JSONPointer) {
	r.position = &Position{Document: doc, Pointer: pointer}
}

func (r *Reference) GetDocumentPosition() (jsonpointer.JSONPointer, bool) {
	if r.position == nil {
		return "", false
	}
	return r.position.Pointer, true
}

// ResolveReferences always fails: a reference must be replaced by its resolved value before the
// value's own references are resolved.
func (r *Reference) ResolveReferences(_ context.Context, _ *ReferenceContext) error {
	return r.newError(ErrCyclicReference, "can't resolve nested references of an unresolved Reference", nil)
}

// SetReferenceContext always fails, see ResolveReferences.
func (r *Reference) SetReferenceContext(_ *ReferenceContext) error {
	return r.newError(ErrCyclicReference, "can't set the reference context of an unresolved Reference", nil)
}

func (r *Reference) String() string {
	return r.raw
}

func (r *Reference) newError(kind error, msg string, cause error) *ResolutionError {
	return &ResolutionError{
		Kind:     kind,
		Ref:      r.raw,
		Position: r.positionPointer(),
		Message:  msg,
		Err:      cause,
	}
}

func (r *Reference) positionPointer() *jsonpointer.JSONPointer {
	if r.position == nil {
		return nil
	}
	p := r.position.Pointer
	return &p
}
