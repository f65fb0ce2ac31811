package references

import (
	"fmt"
	"strconv"

	"github.com/speakeasy-api/openapi-refs/document"
	"github.com/speakeasy-api/openapi-refs/jsonpointer"
	"github.com/speakeasy-api/openapi-refs/sequencedmap"
)

// containers whose entries are objects of a known kind
var containerTargets = map[string]TargetType{
	"schemas":           TargetSchema,
	"properties":        TargetSchema,
	"patternProperties": TargetSchema,
	"$defs":             TargetSchema,
	"definitions":       TargetSchema,
	"allOf":             TargetSchema,
	"anyOf":             TargetSchema,
	"oneOf":             TargetSchema,
	"prefixItems":       TargetSchema,
	"responses":         TargetResponse,
	"parameters":        TargetParameter,
	"examples":          TargetExample,
	"requestBodies":     TargetRequestBody,
	"headers":           TargetHeader,
	"securitySchemes":   TargetSecurityScheme,
	"links":             TargetLink,
	"callbacks":         TargetCallback,
	"pathItems":         TargetPathItem,
	"paths":             TargetPathItem,
	"webhooks":          TargetPathItem,
}

// fields holding a single object of a known kind
var fieldTargets = map[string]TargetType{
	"schema":               TargetSchema,
	"items":                TargetSchema,
	"additionalProperties": TargetSchema,
	"not":                  TargetSchema,
	"contains":             TargetSchema,
	"propertyNames":        TargetSchema,
	"if":                   TargetSchema,
	"then":                 TargetSchema,
	"else":                 TargetSchema,
	"requestBody":          TargetRequestBody,
}

// InferTargetType guesses the kind of object found at the given location of an OpenAPI document.
func InferTargetType(parts []string) TargetType {
	n := len(parts)
	if n >= 2 {
		if t, ok := containerTargets[parts[n-2]]; ok {
			return t
		}
	}
	if n >= 1 {
		if t, ok := fieldTargets[parts[n-1]]; ok {
			return t
		}
	}
	return TargetNone
}

// Hydrate returns a copy of tree with every mapping holding a string "$ref" replaced by a *Reference.
// The target type of each reference is inferred from its location in tree.
func Hydrate(tree any) (any, error) {
	h := &hydrator{}
	return h.hydrate(tree, nil)
}

// HydrateDocument is Hydrate for a whole document: references also record their position in the
// returned root for diagnostics.
func HydrateDocument(root any) (any, error) {
	h := &hydrator{stamp: true}
	hydrated, err := h.hydrate(root, nil)
	if err != nil {
		return nil, err
	}
	for _, r := range h.refs {
		r.ref.SetDocumentContext(hydrated, r.pointer)
	}
	return hydrated, nil
}

type hydratedRef struct {
	ref     *Reference
	pointer jsonpointer.JSONPointer
}

type hydrator struct {
	stamp bool
	refs  []hydratedRef
}

func (h *hydrator) hydrate(node any, parts []string) (any, error) {
	if len(parts) > maxRewriteDepth {
		return nil, fmt.Errorf("document nesting exceeds maximum depth of %d", maxRewriteDepth)
	}

	switch v := node.(type) {
	case *document.Mapping:
		if v == nil {
			return v, nil
		}
		if IsReference(v) {
			ref, err := NewReference(v, InferTargetType(parts))
			if err != nil {
				return nil, err
			}
			if h.stamp {
				h.refs = append(h.refs, hydratedRef{ref: ref, pointer: jsonpointer.PartsToJSONPointer(parts)})
			}
			return ref, nil
		}

		out := sequencedmap.NewWithCapacity[string, any](v.Len())
		for key, value := range v.All() {
			hydrated, err := h.hydrate(value, append(parts[:len(parts):len(parts)], key))
			if err != nil {
				return nil, err
			}
			out.Set(key, hydrated)
		}
		return out, nil
	case []any:
		if v == nil {
			return v, nil
		}
		out := make([]any, len(v))
		for i, item := range v {
			hydrated, err := h.hydrate(item, append(parts[:len(parts):len(parts)], strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			out[i] = hydrated
		}
		return out, nil
	default:
		return node, nil
	}
}
