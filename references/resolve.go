package references

import (
	"context"
	"fmt"
	"strings"

	"github.com/speakeasy-api/openapi-refs/document"
	"github.com/speakeasy-api/openapi-refs/errors"
	"github.com/speakeasy-api/openapi-refs/jsonpointer"
)

// Resolve returns the value the reference points to.
//
// rc is used when given and attached to the reference, otherwise the context attached earlier is used.
// Same-document references are left unresolved in ModeInline, and the reference itself is returned.
// When rc.ThrowOnError is false failures don't return an error: they are recorded on the reference,
// which forgets its target and is returned unchanged.
func (r *Reference) Resolve(ctx context.Context, rc *ReferenceContext) (any, error) {
	if rc != nil {
		r.context = rc
	}
	if r.context == nil {
		return nil, r.newError(ErrUnresolvable, "no context given for resolving reference", nil)
	}

	return r.resolve(ctx, r.context, 0)
}

func (r *Reference) resolve(ctx context.Context, rc *ReferenceContext, depth int) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if r.parsed == nil {
		if rc.ThrowOnError {
			var cause error
			if len(r.errors) > 0 {
				cause = errors.New(strings.Join(r.errors, "; "))
			}
			return nil, r.newError(ErrUnresolvable, r.failureMessage(), cause)
		}
		return r, nil
	}

	ref := *r.parsed

	if ref.IsSameDocument() && rc.Mode == ModeInline {
		return r, nil
	}

	if depth > rc.maxDepth {
		return r.fail(rc, r.newError(ErrUnresolvable, fmt.Sprintf("reference chain exceeds maximum depth of %d", rc.maxDepth), nil))
	}

	var (
		result any
		err    error
	)
	switch {
	case !ref.IsSameDocument():
		result, err = r.resolveExternal(ctx, rc, ref, depth)
	case rc.BaseSpec != nil:
		result, err = r.resolveLocal(ctx, rc, ref, depth)
	case rc.BaseURI != "":
		// without a base document the fragment is looked up in the document at the base URI
		result, err = r.resolveExternal(ctx, rc, NewJSONReference(rc.BaseURI, ref.GetJSONPointer()), depth)
	default:
		err = r.newError(ErrUnresolvable, "no base document or base URI to resolve reference against", nil)
	}
	if err != nil {
		return r.fail(rc, err)
	}

	return result, nil
}

// resolveLocal resolves against the base document. The cache key is the raw reference, which is
// unambiguous within one document.
func (r *Reference) resolveLocal(ctx context.Context, rc *ReferenceContext, ref JSONReference, depth int) (any, error) {
	key := r.raw

	cached, state := rc.cache.claim(key, r.to)
	switch state {
	case cacheDone:
		rc.logger.Debug("reference resolved from cache", "ref", r.raw, "target", r.to)
		return cached, nil
	case cachePending:
		return nil, r.newError(ErrCyclicReference, "reference resolution loops back to itself", nil)
	}

	rc.logger.Debug("resolving reference", "ref", r.raw, "target", r.to)

	value, err := rc.evaluate(rc.BaseSpec, ref.GetJSONPointer())
	if err != nil {
		rc.cache.release(key, r.to)
		return nil, ErrPointerNotFound.Wrap(err)
	}

	result, err := r.settle(ctx, rc, value, depth)
	if err != nil {
		rc.cache.release(key, r.to)
		return nil, err
	}

	rc.cache.Set(key, r.to, result)
	return result, nil
}

// resolveExternal loads the referenced document. The cache key is the absolute location of the
// target so equal relative references made from different documents don't collide.
func (r *Reference) resolveExternal(ctx context.Context, rc *ReferenceContext, ref JSONReference, depth int) (any, error) {
	uri, err := rc.ResolveRelativeURI(ref.GetURI())
	if err != nil {
		return nil, r.newError(ErrUnresolvable, fmt.Sprintf("invalid reference URI %q", ref.GetURI()), err)
	}
	pointer := ref.GetJSONPointer()
	key := NewJSONReference(uri, pointer).String()

	cached, state := rc.cache.claim(key, r.to)
	switch state {
	case cacheDone:
		rc.logger.Debug("reference resolved from cache", "ref", r.raw, "key", key, "target", r.to)
		return cached, nil
	case cachePending:
		return nil, r.newError(ErrCyclicReference, "reference resolution loops back to itself", nil)
	}

	rc.logger.Debug("resolving external reference", "ref", r.raw, "uri", uri, "pointer", pointer, "target", r.to)

	result, err := r.loadExternal(ctx, rc, uri, pointer, depth)
	if err != nil {
		rc.cache.release(key, r.to)
		return nil, err
	}

	rc.cache.Set(key, r.to, result)
	return result, nil
}

func (r *Reference) loadExternal(ctx context.Context, rc *ReferenceContext, uri string, pointer jsonpointer.JSONPointer, depth int) (any, error) {
	doc, err := rc.fetcher.FetchDocument(ctx, uri)
	if err != nil {
		return nil, r.newError(ErrUnresolvable, fmt.Sprintf("failed to fetch %q", uri), err)
	}

	rewritten, err := rewriteRelativeReferences(doc, uri, rc.BaseURI)
	if err != nil {
		return nil, r.newError(ErrUnresolvable, fmt.Sprintf("failed to rewrite references of %q", uri), err)
	}

	data, err := rc.evaluate(rewritten, pointer)
	if err != nil {
		return nil, ErrPointerNotFound.Wrap(err)
	}

	var value any
	if m, ok := data.(*document.Mapping); ok && IsReference(m) {
		value, err = NewReference(m, r.to)
		if err != nil {
			return nil, err
		}
	} else {
		value, err = rc.factory.NewObject(r.to, data)
		if err != nil {
			return nil, r.newError(ErrUnresolvable, fmt.Sprintf("failed to build %s", objectName(r.to)), err)
		}
	}

	if p, ok := value.(Positioned); ok && r.position != nil {
		if _, known := p.GetDocumentPosition(); !known {
			p.SetDocumentContext(r.position.Document, r.position.Pointer)
		}
	}

	if b, ok := value.(*Reference); ok && rc.Mode == ModeInline && b.isFragment() {
		b.SetContext(rc)
		return b, nil
	}

	return r.settle(ctx, rc, value, depth)
}

// settle finishes a resolved value: transitive references are chased and context aware values
// receive the active context.
func (r *Reference) settle(ctx context.Context, rc *ReferenceContext, value any, depth int) (any, error) {
	if b, ok := value.(*Reference); ok {
		return r.chase(ctx, rc, b, depth)
	}

	switch v := value.(type) {
	case ContextAware:
		if err := v.SetReferenceContext(rc); err != nil {
			return nil, err
		}
	case *document.Mapping, []any:
		setContext(v, rc)
	}

	rc.logger.Debug("reference resolved", "ref", r.raw, "target", r.to)

	return value, nil
}

// fail applies the error policy of the context at this node.
func (r *Reference) fail(rc *ReferenceContext, err error) (any, error) {
	if errors.Is(err, ErrInvalidReference) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		kind := ErrUnresolvable
		if errors.Is(err, ErrCyclicReference) {
			kind = ErrCyclicReference
		}
		resErr = r.newError(kind, r.failureMessage(), err)
	} else if resErr.Position == nil {
		resErr.Position = r.positionPointer()
	}

	if rc.ThrowOnError {
		return nil, resErr
	}

	rc.logger.Debug("reference marked unresolved", "ref", r.raw, "error", resErr.Detail())

	r.errors = append(r.errors, resErr.Detail())
	r.parsed = nil
	return r, nil
}

func (r *Reference) failureMessage() string {
	if r.to == TargetNone {
		return fmt.Sprintf("failed to resolve Reference '%s'", r.raw)
	}
	return fmt.Sprintf("failed to resolve Reference '%s' to %s", r.raw, objectName(r.to))
}

func (r *Reference) isFragment() bool {
	return r.parsed != nil && r.parsed.IsFragment()
}

func objectName(to TargetType) string {
	if to == TargetNone {
		return "object"
	}
	return string(to) + " Object"
}
