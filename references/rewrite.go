package references

import (
	"fmt"
	"strings"

	"github.com/speakeasy-api/openapi-refs/document"
	"github.com/speakeasy-api/openapi-refs/internal/utils"
	"github.com/speakeasy-api/openapi-refs/jsonpointer"
	"github.com/speakeasy-api/openapi-refs/sequencedmap"
)

// ExternalValueKey is the key of an example's external value location.
const ExternalValueKey = "externalValue"

const maxRewriteDepth = 1000

// rewriter rewrites the locations held by a document fetched from basePath so they stay valid
// when its content is embedded in the document at callerURI.
type rewriter struct {
	root      any
	basePath  string
	callerURI string

	refMemo   map[string]any
	valueMemo map[string]string
}

// rewriteRelativeReferences returns a copy of doc with every "$ref" and "externalValue" made valid
// relative to callerURI. Fragments of doc are inlined from doc's own root. doc isn't modified.
func rewriteRelativeReferences(doc any, basePath, callerURI string) (any, error) {
	basePath, _ = utils.SplitFragment(basePath)

	rw := &rewriter{
		root:      doc,
		basePath:  basePath,
		callerURI: callerURI,
		refMemo:   make(map[string]any),
		valueMemo: make(map[string]string),
	}
	return rw.rewrite(doc, false, 0)
}

// rewrite walks node depth first. inlining is set while a fragment of the document is being
// inlined, nested fragments are then kept as locations instead of being inlined again.
func (rw *rewriter) rewrite(node any, inlining bool, depth int) (any, error) {
	if depth > maxRewriteDepth {
		return nil, fmt.Errorf("document nesting exceeds maximum depth of %d", maxRewriteDepth)
	}

	switch v := node.(type) {
	case *document.Mapping:
		if v == nil {
			return v, nil
		}
		return rw.rewriteMapping(v, inlining, depth)
	case []any:
		if v == nil {
			return v, nil
		}
		out := make([]any, len(v))
		for i, item := range v {
			rewritten, err := rw.rewrite(item, inlining, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = rewritten
		}
		return out, nil
	default:
		return node, nil
	}
}

func (rw *rewriter) rewriteMapping(m *document.Mapping, inlining bool, depth int) (any, error) {
	out := sequencedmap.NewWithCapacity[string, any](m.Len())

	for key, value := range m.All() {
		s, isString := value.(string)
		isString = isString && s != ""

		switch {
		case key == RefKey && isString:
			memoKey := rw.basePath + s

			if cached, ok := rw.refMemo[memoKey]; ok {
				location, isLocation := cached.(string)
				if !isLocation {
					return document.DeepCopy(cached), nil
				}

				// the remaining fields of a memoized reference are copied as they are
				out.Set(key, location)
				copyRemaining(out, m)
				return out, nil
			}

			if !strings.HasPrefix(s, "#") {
				location, err := rw.relocate(s)
				if err != nil {
					return nil, err
				}
				rw.refMemo[memoKey] = location
				out.Set(key, location)
				continue
			}

			if inlining {
				out.Set(key, utils.MakeRelative(rw.callerURI, memoKey))
				continue
			}

			target, err := jsonpointer.GetTarget(rw.root, JSONReference(s).GetJSONPointer())
			if err != nil {
				// left for the resolution of this reference to report
				out.Set(key, utils.MakeRelative(rw.callerURI, memoKey))
				continue
			}

			inlined, err := rw.rewrite(target, true, depth+1)
			if err != nil {
				return nil, err
			}
			rw.refMemo[memoKey] = inlined
			return inlined, nil
		case key == ExternalValueKey && isString:
			location, ok := rw.valueMemo[rw.basePath+s]
			if !ok {
				var err error
				location, err = rw.relocate(s)
				if err != nil {
					return nil, err
				}
				rw.valueMemo[rw.basePath+s] = location
			}
			out.Set(key, location)
		default:
			rewritten, err := rw.rewrite(value, inlining, depth+1)
			if err != nil {
				return nil, err
			}
			out.Set(key, rewritten)
		}
	}

	return out, nil
}

// relocate resolves a location relative to the fetched document and expresses it relative to the caller.
func (rw *rewriter) relocate(location string) (string, error) {
	abs, err := utils.JoinReference(rw.basePath, location)
	if err != nil {
		return "", fmt.Errorf("invalid location %q: %w", location, err)
	}
	return utils.MakeRelative(rw.callerURI, abs), nil
}

func copyRemaining(out, m *document.Mapping) {
	for key, value := range m.All() {
		if !out.Has(key) {
			out.Set(key, document.DeepCopy(value))
		}
	}
}
