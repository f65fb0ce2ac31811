package references

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/speakeasy-api/openapi-refs/jsonpointer"
)

// JSONReference is the "document-uri#json-pointer" form of a $ref value.
// An empty document URI refers to the current document.
type JSONReference string

var _ fmt.Stringer = (*JSONReference)(nil)

// ParseJSONReference validates raw as a JSON Reference.
func ParseJSONReference(raw string) (JSONReference, error) {
	ref := JSONReference(raw)
	if err := ref.Validate(); err != nil {
		return "", err
	}
	return ref, nil
}

// NewJSONReference builds a reference from a document URI and a pointer.
func NewJSONReference(uri string, pointer jsonpointer.JSONPointer) JSONReference {
	return JSONReference(uri + "#" + string(pointer))
}

func (r JSONReference) GetURI() string {
	uri, _, _ := strings.Cut(string(r), "#")
	return strings.TrimSpace(uri)
}

func (r JSONReference) HasJSONPointer() bool {
	return strings.Contains(string(r), "#")
}

// GetJSONPointer returns the percent-decoded fragment. A reference without a fragment addresses the whole document.
func (r JSONReference) GetJSONPointer() jsonpointer.JSONPointer {
	_, fragment, ok := strings.Cut(string(r), "#")
	if !ok {
		return ""
	}

	pointer := strings.TrimSpace(fragment)

	if decoded, err := url.PathUnescape(pointer); err == nil {
		pointer = decoded
	}

	return jsonpointer.JSONPointer(pointer)
}

// IsSameDocument reports whether the reference targets the current document.
func (r JSONReference) IsSameDocument() bool {
	return r.GetURI() == ""
}

// IsFragment reports whether the reference is a pure in-document fragment ("#...").
func (r JSONReference) IsFragment() bool {
	return strings.HasPrefix(string(r), "#")
}

func (r JSONReference) Validate() error {
	if r == "" {
		return errors.New("reference must not be empty")
	}

	uri := r.GetURI()

	if uri != "" {
		if _, err := url.Parse(uri); err != nil {
			return fmt.Errorf("invalid reference URI: %w", err)
		}
	}

	if r.HasJSONPointer() {
		_, fragment, _ := strings.Cut(string(r), "#")
		if _, err := url.PathUnescape(strings.TrimSpace(fragment)); err != nil {
			return fmt.Errorf("invalid reference JSON pointer encoding: %w", err)
		}

		if err := r.GetJSONPointer().Validate(); err != nil {
			return fmt.Errorf("invalid reference JSON pointer: %w", err)
		}
	}

	return nil
}

func (r JSONReference) String() string {
	return string(r)
}
