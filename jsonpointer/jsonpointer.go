// Package jsonpointer provides JSONPointer an implementation of RFC6901 https://datatracker.ietf.org/doc/html/rfc6901
package jsonpointer

import (
	"fmt"
	"strings"

	"github.com/speakeasy-api/openapi-refs/errors"
)

const (
	// ErrNotFound is returned when the target is not found.
	ErrNotFound = errors.Error("not found")
	// ErrInvalidPath is returned when the path can't be navigated, for example indexing into a mapping.
	ErrInvalidPath = errors.Error("invalid path")
	// ErrValidation is returned when the jsonpointer is invalid.
	ErrValidation = errors.Error("validation error")
)

// JSONPointer represents a JSON Pointer value as defined by RFC6901 https://datatracker.ietf.org/doc/html/rfc6901
// The empty pointer addresses the whole document.
type JSONPointer string

// Validate will validate the JSONPointer is valid as per RFC6901.
func (j JSONPointer) Validate() error {
	if _, err := j.getNavigationStack(); err != nil {
		return ErrValidation.Wrap(err)
	}
	return nil
}

// Parts returns the unescaped reference tokens of the pointer.
func (j JSONPointer) Parts() ([]string, error) {
	stack, err := j.getNavigationStack()
	if err != nil {
		return nil, ErrValidation.Wrap(err)
	}

	parts := make([]string, 0, len(stack))
	for _, part := range stack {
		parts = append(parts, part.unescapeValue())
	}
	return parts, nil
}

// Append returns a new pointer with the token escaped and appended.
func (j JSONPointer) Append(token string) JSONPointer {
	return JSONPointer(string(j) + "/" + escape(token))
}

func (j JSONPointer) String() string {
	return string(j)
}

// KeyNavigable is implemented by types that can be navigated by key, for example ordered mappings or spec objects.
type KeyNavigable interface {
	NavigateWithKey(key string) (any, error)
}

// IndexNavigable is implemented by types that wrap a sequence.
type IndexNavigable interface {
	NavigateWithIndex(index int) (any, error)
}

// GetTarget will evaluate the JSONPointer against the source document tree and return the target.
// Mappings are navigated through KeyNavigable (or map[string]any) and sequences through IndexNavigable (or []any).
func GetTarget(source any, pointer JSONPointer) (any, error) {
	stack, err := pointer.getNavigationStack()
	if err != nil {
		return nil, ErrValidation.Wrap(err)
	}

	current := source
	currentPath := ""

	for _, part := range stack {
		currentPath = currentPath + "/" + part.Value

		current, err = getTarget(current, part, currentPath)
		if err != nil {
			return nil, err
		}
	}

	return current, nil
}

func getTarget(source any, part navigationPart, currentPath string) (any, error) {
	switch s := source.(type) {
	case KeyNavigable:
		value, err := s.NavigateWithKey(part.unescapeValue())
		if err != nil {
			return nil, ErrNotFound.Wrap(fmt.Errorf("%w at %s", err, currentPath))
		}
		return value, nil
	case IndexNavigable:
		if part.Type != partTypeIndex {
			return nil, ErrInvalidPath.Wrap(fmt.Errorf("expected index, got %s at %s", part.Type, currentPath))
		}
		value, err := s.NavigateWithIndex(part.getIndex())
		if err != nil {
			return nil, ErrNotFound.Wrap(fmt.Errorf("%w at %s", err, currentPath))
		}
		return value, nil
	case map[string]any:
		key := part.unescapeValue()
		value, ok := s[key]
		if !ok {
			return nil, ErrNotFound.Wrap(fmt.Errorf("key %s not found in map at %s", key, currentPath))
		}
		return value, nil
	case []any:
		if part.Type != partTypeIndex {
			return nil, ErrInvalidPath.Wrap(fmt.Errorf("expected index, got %s at %s", part.Type, currentPath))
		}
		index := part.getIndex()
		if index < 0 || index >= len(s) {
			return nil, ErrNotFound.Wrap(fmt.Errorf("index %d out of range for sequence of length %d at %s", index, len(s), currentPath))
		}
		return s[index], nil
	case nil:
		return nil, ErrNotFound.Wrap(fmt.Errorf("value is null at %s", currentPath))
	default:
		return nil, ErrInvalidPath.Wrap(fmt.Errorf("expected mapping or sequence, got %T at %s", source, currentPath))
	}
}

// PartsToJSONPointer will convert the exploded parts of a JSONPointer to a JSONPointer.
func PartsToJSONPointer(parts []string) JSONPointer {
	var sb strings.Builder
	for _, part := range parts {
		sb.WriteByte('/')
		sb.WriteString(escape(part))
	}
	return JSONPointer(sb.String())
}

// EscapeString escapes a string for use as a reference token in a JSON pointer according to RFC6901.
func EscapeString(s string) string {
	return escape(s)
}

// UnescapeString reverses EscapeString.
func UnescapeString(s string) string {
	return unescape(s)
}

func escape(part string) string {
	return strings.ReplaceAll(strings.ReplaceAll(part, "~", "~0"), "/", "~1")
}

func unescape(part string) string {
	return strings.ReplaceAll(strings.ReplaceAll(part, "~1", "/"), "~0", "~")
}
