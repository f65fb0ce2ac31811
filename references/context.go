package references

import (
	"log/slog"

	"github.com/speakeasy-api/openapi-refs/jsonpointer"
)

// ResolveMode controls which references a resolution pass resolves.
type ResolveMode int

const (
	// ModeAll resolves every reference.
	ModeAll ResolveMode = iota
	// ModeInline resolves external references only, leaving same-document fragments as references.
	ModeInline
)

func (m ResolveMode) String() string {
	switch m {
	case ModeInline:
		return "inline"
	default:
		return "all"
	}
}

// DefaultMaxDepth bounds the length of a transitive reference chain.
const DefaultMaxDepth = 100

// Evaluator evaluates a JSON pointer against a document tree.
type Evaluator func(document any, pointer jsonpointer.JSONPointer) (any, error)

// ReferenceContext is the state shared by every reference reached during one resolution pass.
// References hold it without owning it.
type ReferenceContext struct {
	// Mode selects which references are resolved.
	Mode ResolveMode
	// ThrowOnError makes resolution failures return errors instead of being recorded on the failing reference.
	ThrowOnError bool
	// BaseSpec is the root of the document same-document references are evaluated against.
	BaseSpec any
	// BaseURI is the absolute location of the document being resolved.
	BaseURI string

	cache    *ResolutionCache
	fetcher  Fetcher
	factory  ObjectFactory
	evaluate Evaluator
	logger   *slog.Logger
	maxDepth int
}

// Option configures a ReferenceContext.
type Option func(rc *ReferenceContext)

// WithMode sets the resolution mode, ModeAll by default.
func WithMode(mode ResolveMode) Option {
	return func(rc *ReferenceContext) {
		rc.Mode = mode
	}
}

// WithThrowOnError selects whether failures are returned (the default) or recorded on the reference.
func WithThrowOnError(throw bool) Option {
	return func(rc *ReferenceContext) {
		rc.ThrowOnError = throw
	}
}

// WithBaseSpec sets the document same-document references are evaluated against.
func WithBaseSpec(doc any) Option {
	return func(rc *ReferenceContext) {
		rc.BaseSpec = doc
	}
}

// WithBaseURI sets the location of the document being resolved.
func WithBaseURI(uri string) Option {
	return func(rc *ReferenceContext) {
		rc.BaseURI = uri
	}
}

// WithCache shares an existing cache.
func WithCache(cache *ResolutionCache) Option {
	return func(rc *ReferenceContext) {
		rc.cache = cache
	}
}

// WithFetcher sets the collaborator used to load external documents.
func WithFetcher(fetcher Fetcher) Option {
	return func(rc *ReferenceContext) {
		rc.fetcher = fetcher
	}
}

// WithFactory sets the collaborator that builds spec objects from externally loaded data.
func WithFactory(factory ObjectFactory) Option {
	return func(rc *ReferenceContext) {
		rc.factory = factory
	}
}

// WithEvaluator replaces the JSON pointer evaluator.
func WithEvaluator(evaluate Evaluator) Option {
	return func(rc *ReferenceContext) {
		rc.evaluate = evaluate
	}
}

// WithLogger sets the logger resolution events are written to. Nothing is logged by default.
func WithLogger(logger *slog.Logger) Option {
	return func(rc *ReferenceContext) {
		rc.logger = logger
	}
}

// WithMaxDepth bounds the length of transitive reference chains.
func WithMaxDepth(depth int) Option {
	return func(rc *ReferenceContext) {
		rc.maxDepth = depth
	}
}

// NewReferenceContext creates a context for a resolution pass.
func NewReferenceContext(opts ...Option) *ReferenceContext {
	rc := &ReferenceContext{
		Mode:         ModeAll,
		ThrowOnError: true,
	}
	for _, opt := range opts {
		opt(rc)
	}

	if rc.cache == nil {
		rc.cache = NewResolutionCache()
	}
	if rc.fetcher == nil {
		rc.fetcher = NewFetcher()
	}
	if rc.factory == nil {
		rc.factory = DefaultFactory{}
	}
	if rc.evaluate == nil {
		rc.evaluate = jsonpointer.GetTarget
	}
	if rc.logger == nil {
		rc.logger = slog.New(slog.DiscardHandler)
	}
	if rc.maxDepth <= 0 {
		rc.maxDepth = DefaultMaxDepth
	}

	return rc
}

// Cache returns the resolution cache of the context.
func (rc *ReferenceContext) Cache() *ResolutionCache {
	return rc.cache
}

// Logger returns the logger of the context.
func (rc *ReferenceContext) Logger() *slog.Logger {
	return rc.logger
}

// ResolveRelativeURI resolves uri against the context's base URI. Fragments are dropped.
func (rc *ReferenceContext) ResolveRelativeURI(uri string) (string, error) {
	result, err := ResolveAbsoluteReference(JSONReference(uri), rc.BaseURI)
	if err != nil {
		return "", err
	}
	return result.AbsoluteReference, nil
}
