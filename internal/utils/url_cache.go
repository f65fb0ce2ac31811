package utils

import (
	"net/url"
	"sync"
)

// URLCache provides a thread-safe cache for parsed URLs to avoid repeated parsing
type URLCache struct {
	cache sync.Map // map[string]*url.URL
}

var globalURLCache = &URLCache{}

// ParseURLCached parses a URL string using a cache to avoid repeated parsing of the same URLs.
// The same base locations are parsed for every reference found in a document.
func ParseURLCached(rawURL string) (*url.URL, error) {
	return globalURLCache.Parse(rawURL)
}

// Parse parses a URL string using the cache. Callers always receive their own copy.
func (c *URLCache) Parse(rawURL string) (*url.URL, error) {
	if cached, ok := c.cache.Load(rawURL); ok {
		urlCopy := *cached.(*url.URL)
		return &urlCopy, nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	urlCopy := *parsed
	c.cache.Store(rawURL, &urlCopy)

	return parsed, nil
}

// Clear clears all cached URLs.
func (c *URLCache) Clear() {
	c.cache.Clear()
}

// Size returns the number of cached URLs.
func (c *URLCache) Size() int64 {
	var size int64
	c.cache.Range(func(_, _ any) bool {
		size++
		return true
	})
	return size
}

// URLCacheStats holds statistics about the global URL cache
type URLCacheStats struct {
	Size int64
}

// GetURLCacheStats returns statistics about the global URL cache
func GetURLCacheStats() URLCacheStats {
	return URLCacheStats{Size: globalURLCache.Size()}
}

// ClearGlobalURLCache clears the global URL cache
func ClearGlobalURLCache() {
	globalURLCache.Clear()
}
