package references

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/speakeasy-api/openapi-refs/document"
	"github.com/speakeasy-api/openapi-refs/jsonpointer"
)

// Object is a resolved spec object of a known kind. Data is its hydrated document tree, nested
// references in it are *Reference nodes.
type Object struct {
	Kind TargetType
	Data any

	context  *ReferenceContext
	position *Position
}

var (
	_ ContextAware             = (*Object)(nil)
	_ Positioned               = (*Object)(nil)
	_ jsonpointer.KeyNavigable = (*Object)(nil)
)

// NavigateWithKey implements jsonpointer.KeyNavigable so pointers can cross resolved objects.
func (o *Object) NavigateWithKey(key string) (any, error) {
	m, ok := o.Data.(*document.Mapping)
	if !ok {
		return nil, fmt.Errorf("%s is not a mapping", objectName(o.Kind))
	}
	return m.NavigateWithKey(key)
}

// SetReferenceContext attaches rc to every reference nested in the object.
func (o *Object) SetReferenceContext(rc *ReferenceContext) error {
	o.context = rc
	setContext(o.Data, rc)
	return nil
}

// GetContext returns the context attached by SetReferenceContext.
func (o *Object) GetContext() *ReferenceContext {
	return o.context
}

func (o *Object) SetDocumentContext(doc any, pointer jsonpointer.JSONPointer) {
	o.position = &Position{Document: doc, Pointer: pointer}
}

func (o *Object) GetDocumentPosition() (jsonpointer.JSONPointer, bool) {
	if o.position == nil {
		return "", false
	}
	return o.position.Pointer, true
}

// ResolveReferences replaces the references nested in the object with their resolved values.
// The attached context is used when rc is nil.
func (o *Object) ResolveReferences(ctx context.Context, rc *ReferenceContext) error {
	if rc == nil {
		rc = o.context
	}
	if rc == nil {
		return &ResolutionError{Kind: ErrUnresolvable, Message: "no context given for resolving references"}
	}

	data, err := ResolveAll(ctx, rc, o.Data)
	if err != nil {
		return err
	}
	o.Data = data
	return nil
}

func (o *Object) MarshalYAML() (any, error) {
	return o.Data, nil
}

func (o *Object) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Data)
}

func setContext(node any, rc *ReferenceContext) {
	switch v := node.(type) {
	case *Reference:
		v.SetContext(rc)
	case *Object:
		_ = v.SetReferenceContext(rc)
	case *document.Mapping:
		for _, value := range v.All() {
			setContext(value, rc)
		}
	case []any:
		for _, value := range v {
			setContext(value, rc)
		}
	}
}

// ObjectFactory builds the value a reference resolves to from the data loaded for it.
type ObjectFactory interface {
	NewObject(to TargetType, data any) (any, error)
}

// DefaultFactory wraps mappings in an *Object of the requested kind and sequences in a sequence of
// such objects. Other values are only accepted without a kind, except boolean schemas.
type DefaultFactory struct{}

var _ ObjectFactory = DefaultFactory{}

func (f DefaultFactory) NewObject(to TargetType, data any) (any, error) {
	if !to.IsValid() {
		return nil, fmt.Errorf("%q is not a resolvable object type", to)
	}

	switch v := data.(type) {
	case *document.Mapping:
		hydrated, err := Hydrate(v)
		if err != nil {
			return nil, err
		}
		if ref, ok := hydrated.(*Reference); ok {
			if ref.to == TargetNone {
				ref.to = to
			}
			return ref, nil
		}
		return &Object{Kind: to, Data: hydrated}, nil
	case []any:
		items := make([]any, 0, len(v))
		for i, item := range v {
			obj, err := f.NewObject(to, item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			items = append(items, obj)
		}
		return items, nil
	case bool:
		// boolean schemas
		if to == TargetNone || to == TargetSchema {
			return v, nil
		}
	default:
		if to == TargetNone {
			return data, nil
		}
	}

	return nil, fmt.Errorf("expected a mapping for %s, got %T", objectName(to), data)
}
