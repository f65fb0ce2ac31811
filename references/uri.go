package references

import (
	"path"
	"sync"

	"github.com/speakeasy-api/openapi-refs/internal/utils"
)

// AbsoluteReferenceResult contains the result of resolving an absolute reference
type AbsoluteReferenceResult struct {
	// AbsoluteReference is the resolved absolute document location, without fragment
	AbsoluteReference string
	// Classification contains the reference type classification
	Classification *utils.ReferenceClassification
}

// RefCacheKey represents a unique key for caching reference resolution results
type RefCacheKey struct {
	RefURI         string
	TargetLocation string
}

// RefCache provides a thread-safe cache for absolute reference computations
type RefCache struct {
	cache sync.Map // map[RefCacheKey]*AbsoluteReferenceResult
}

var globalRefCache = &RefCache{}

// ResolveAbsoluteReference resolves the document part of ref against targetLocation.
// It handles empty URIs, absolute URLs, absolute file paths and relative URIs that are joined with targetLocation.
// Results are cached per (reference URI, target location) pair.
func ResolveAbsoluteReference(ref JSONReference, targetLocation string) (*AbsoluteReferenceResult, error) {
	return globalRefCache.Resolve(ref, targetLocation)
}

// Resolve resolves a reference using the cache, returning a copy of any cached result.
func (c *RefCache) Resolve(ref JSONReference, targetLocation string) (*AbsoluteReferenceResult, error) {
	key := RefCacheKey{
		RefURI:         ref.GetURI(),
		TargetLocation: targetLocation,
	}

	if cached, ok := c.cache.Load(key); ok {
		cachedResult := cached.(*AbsoluteReferenceResult)
		return &AbsoluteReferenceResult{
			AbsoluteReference: cachedResult.AbsoluteReference,
			Classification:    cachedResult.Classification,
		}, nil
	}

	result, err := resolveAbsoluteReferenceUncached(ref, targetLocation)
	if err != nil {
		return nil, err
	}

	c.cache.Store(key, result)

	return result, nil
}

func resolveAbsoluteReferenceUncached(ref JSONReference, targetLocation string) (*AbsoluteReferenceResult, error) {
	uri := ref.GetURI()
	target, _ := utils.SplitFragment(targetLocation)

	if uri == "" {
		if target == "" {
			return &AbsoluteReferenceResult{}, nil
		}
		classification, err := utils.ClassifyReference(target)
		if err != nil {
			return nil, err
		}
		return &AbsoluteReferenceResult{
			AbsoluteReference: target,
			Classification:    classification,
		}, nil
	}

	uriClassification, err := utils.ClassifyReference(uri)
	if err != nil {
		return nil, err
	}

	// absolute URLs and paths are used as-is, anything else is joined with the target location
	if target == "" || uriClassification.IsURL || path.IsAbs(uri) {
		return &AbsoluteReferenceResult{
			AbsoluteReference: uri,
			Classification:    uriClassification,
		}, nil
	}

	classification, err := utils.ClassifyReference(target)
	if err != nil {
		return nil, err
	}

	absRef, err := classification.JoinWith(uri)
	if err != nil {
		return nil, err
	}

	return &AbsoluteReferenceResult{
		AbsoluteReference: absRef,
		Classification:    classification,
	}, nil
}

// Clear clears all cached reference resolutions.
func (c *RefCache) Clear() {
	c.cache.Clear()
}

// RefCacheStats holds basic statistics about the cache
type RefCacheStats struct {
	Size int64
}

// GetStats returns statistics about the cache
func (c *RefCache) GetStats() RefCacheStats {
	var size int64
	c.cache.Range(func(_, _ any) bool {
		size++
		return true
	})
	return RefCacheStats{Size: size}
}

// GetRefCacheStats returns statistics about the global reference cache
func GetRefCacheStats() RefCacheStats {
	return globalRefCache.GetStats()
}

// ClearGlobalRefCache clears the global reference cache
func ClearGlobalRefCache() {
	globalRefCache.Clear()
}
