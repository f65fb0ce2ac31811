package cache

import (
	"github.com/speakeasy-api/openapi-refs/internal/utils"
	"github.com/speakeasy-api/openapi-refs/references"
)

// ClearAllCaches clears the process-wide caches:
// - URL parsing cache (internal/utils)
// - absolute reference cache (references)
//
// Resolution caches owned by a references.ReferenceContext are not affected.
// This function is safe to call from multiple goroutines.
func ClearAllCaches() {
	ClearURLCache()
	ClearReferenceCache()
}

// ClearURLCache clears the global URL parsing cache.
func ClearURLCache() {
	utils.ClearGlobalURLCache()
}

// ClearReferenceCache clears the global cache of (reference, base location) to absolute document location results.
func ClearReferenceCache() {
	references.ClearGlobalRefCache()
}

// CacheStats holds the sizes of the process-wide caches.
type CacheStats struct {
	URLCacheSize       int64
	ReferenceCacheSize int64
}

// GetAllCacheStats returns statistics about all global caches.
func GetAllCacheStats() CacheStats {
	return CacheStats{
		URLCacheSize:       utils.GetURLCacheStats().Size,
		ReferenceCacheSize: references.GetRefCacheStats().Size,
	}
}
