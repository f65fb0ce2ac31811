package references

import (
	"context"
	"fmt"
	"slices"

	"github.com/speakeasy-api/openapi-refs/document"
)

// ResolveAll resolves every reference in tree and replaces it with its resolved value, then
// resolves the references inside the value. Mappings and objects are updated in place.
//
// A reference whose value contains the reference itself is kept, so the returned tree stays
// acyclic. References that stay unresolved, in ModeInline or after a recorded failure, are kept too.
func ResolveAll(ctx context.Context, rc *ReferenceContext, tree any) (any, error) {
	resolved, _, err := ResolveAllWithErrors(ctx, rc, tree)
	return resolved, err
}

// ResolveAllWithErrors is ResolveAll that also returns the validation errors of the references it
// replaced, such as additional properties next to $ref. Those references are gone from the
// returned tree, while references that are kept still carry their own errors.
func ResolveAllWithErrors(ctx context.Context, rc *ReferenceContext, tree any) (any, []string, error) {
	tr := &treeResolver{
		rc:        rc,
		ancestors: make(map[any]struct{}),
		done:      make(map[any]struct{}),
		replaced:  make(map[*Reference]struct{}),
	}
	resolved, err := tr.resolve(ctx, tree, 0)
	if err != nil {
		return nil, nil, err
	}
	return resolved, tr.errs, nil
}

type treeResolver struct {
	rc        *ReferenceContext
	ancestors map[any]struct{}
	done      map[any]struct{}

	replaced map[*Reference]struct{}
	errs     []string
}

func (tr *treeResolver) resolve(ctx context.Context, node any, depth int) (any, error) {
	if depth > maxRewriteDepth {
		return nil, fmt.Errorf("document nesting exceeds maximum depth of %d", maxRewriteDepth)
	}

	if ref, ok := node.(*Reference); ok {
		resolved, err := ref.Resolve(ctx, tr.rc)
		if err != nil {
			return nil, err
		}
		if _, unresolved := resolved.(*Reference); unresolved {
			return resolved, nil
		}
		if id, ok := identity(resolved); ok {
			if _, cyclic := tr.ancestors[id]; cyclic {
				return ref, nil
			}
		}
		tr.recordReplaced(ref)
		node = resolved
	}

	id, tracked := identity(node)
	if tracked {
		if _, seen := tr.done[id]; seen {
			return node, nil
		}
		tr.ancestors[id] = struct{}{}
		defer func() {
			delete(tr.ancestors, id)
			tr.done[id] = struct{}{}
		}()
	}

	switch v := node.(type) {
	case *document.Mapping:
		for _, key := range slices.Collect(v.Keys()) {
			resolved, err := tr.resolve(ctx, v.GetOrZero(key), depth+1)
			if err != nil {
				return nil, err
			}
			v.Set(key, resolved)
		}
	case *Object:
		resolved, err := tr.resolve(ctx, v.Data, depth+1)
		if err != nil {
			return nil, err
		}
		v.Data = resolved
	case []any:
		for i, item := range v {
			resolved, err := tr.resolve(ctx, item, depth+1)
			if err != nil {
				return nil, err
			}
			v[i] = resolved
		}
	}

	return node, nil
}

func (tr *treeResolver) recordReplaced(ref *Reference) {
	if ref.Validate() {
		return
	}
	if _, ok := tr.replaced[ref]; ok {
		return
	}
	tr.replaced[ref] = struct{}{}
	tr.errs = append(tr.errs, ref.GetErrors()...)
}

// identity returns the key tracking a node across the tree. Only nodes with pointer identity are
// tracked, a sequence is known by its first element so copies of one slice header match.
func identity(node any) (any, bool) {
	switch v := node.(type) {
	case *document.Mapping:
		return v, v != nil
	case *Object:
		return v, v != nil
	case []any:
		if len(v) == 0 {
			return nil, false
		}
		return &v[0], true
	default:
		return nil, false
	}
}
