package references

import "context"

// chase resolves b, the value r resolved to, on r's behalf.
//
// b inherits r's target type when it has none. Reaching r again, either as b itself or as b's
// result, is a cycle. Longer cycles are reported by the pending cache entry of the first key
// that is visited twice.
func (r *Reference) chase(ctx context.Context, rc *ReferenceContext, b *Reference, depth int) (any, error) {
	if b.to == TargetNone {
		b.to = r.to
	}
	b.SetContext(rc)

	if b == r {
		return nil, r.newError(ErrCyclicReference, "reference resolves to itself", nil)
	}

	rc.logger.Debug("following transitive reference", "ref", r.raw, "next", b.raw, "depth", depth+1)

	result, err := b.resolve(ctx, b.context, depth+1)
	if err != nil {
		return nil, err
	}

	if result == any(r) {
		return nil, r.newError(ErrCyclicReference, "reference resolves to itself through "+b.raw, nil)
	}

	return result, nil
}
