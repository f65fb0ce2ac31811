package utils

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ReferenceType represents the type of reference string
type ReferenceType int

const (
	ReferenceTypeUnknown ReferenceType = iota
	ReferenceTypeURL
	ReferenceTypeFilePath
	ReferenceTypeFragment
)

// ReferenceClassification holds the result of classifying a reference string
type ReferenceClassification struct {
	Type       ReferenceType
	IsURL      bool
	IsFile     bool
	IsFragment bool
	Original   string
	ParsedURL  *url.URL // Cached parsed URL to avoid re-parsing
}

// ClassifyReference determines if a string represents a URL, file path, or JSON Pointer fragment.
func ClassifyReference(ref string) (*ReferenceClassification, error) {
	if ref == "" {
		return nil, errors.New("empty reference")
	}

	result := &ReferenceClassification{
		Original: ref,
	}

	if strings.HasPrefix(ref, "#") {
		result.Type = ReferenceTypeFragment
		result.IsFragment = true
		return result, nil
	}

	u, err := ParseURLCached(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid reference format: %w", err)
	}

	// single letter schemes are windows drive letters, not URLs
	if u.Scheme != "" && len(u.Scheme) > 1 {
		result.Type = ReferenceTypeURL
		result.IsURL = true
		result.ParsedURL = u
		return result, nil
	}

	result.Type = ReferenceTypeFilePath
	result.IsFile = true
	return result, nil
}

// IsURL returns true if the reference string represents a URL
func IsURL(ref string) bool {
	classification, err := ClassifyReference(ref)
	if err != nil {
		return false
	}
	return classification.IsURL
}

// JoinWith resolves relative against this classified reference.
// URLs are joined per RFC 3986, file paths relative to the directory of the original path.
// A fragment-only relative reference replaces the fragment of the original.
func (rc *ReferenceClassification) JoinWith(relative string) (string, error) {
	if relative == "" {
		return rc.Original, nil
	}

	if strings.HasPrefix(relative, "#") {
		base, _ := SplitFragment(rc.Original)
		return base + relative, nil
	}

	switch {
	case rc.IsURL:
		return rc.joinURL(relative)
	case rc.IsFragment:
		return relative, nil
	default:
		return rc.joinFilePath(relative), nil
	}
}

func (rc *ReferenceClassification) joinURL(relative string) (string, error) {
	baseURL := rc.ParsedURL
	if baseURL == nil {
		var err error
		baseURL, err = ParseURLCached(rc.Original)
		if err != nil {
			return "", fmt.Errorf("invalid base URL: %w", err)
		}
	}

	relativeURL, err := ParseURLCached(relative)
	if err != nil {
		return "", fmt.Errorf("invalid relative URL: %w", err)
	}

	return baseURL.ResolveReference(relativeURL).String(), nil
}

func (rc *ReferenceClassification) joinFilePath(relative string) string {
	relative = strings.ReplaceAll(relative, "\\", "/")

	relDoc, fragment := SplitFragment(relative)
	if strings.HasPrefix(relDoc, "/") || isWindowsAbsolutePath(relDoc) {
		return relative
	}

	baseDoc, _ := SplitFragment(strings.ReplaceAll(rc.Original, "\\", "/"))

	joined := path.Join(path.Dir(baseDoc), relDoc)
	if fragment != "" || strings.Contains(relative, "#") {
		joined += "#" + fragment
	}
	return joined
}

func isWindowsAbsolutePath(p string) bool {
	return len(p) >= 3 && p[1] == ':' && (p[2] == '\\' || p[2] == '/')
}

// JoinReference is a convenience function that classifies the base reference and joins it with a relative reference.
func JoinReference(base, relative string) (string, error) {
	if base == "" {
		return relative, nil
	}

	if rel, err := ClassifyReference(relative); err == nil && rel.IsURL {
		return relative, nil
	}

	baseClassification, err := ClassifyReference(base)
	if err != nil {
		return "", fmt.Errorf("invalid base reference: %w", err)
	}

	return baseClassification.JoinWith(relative)
}

// SplitFragment splits a reference into its document part and fragment (without "#").
func SplitFragment(ref string) (string, string) {
	doc, fragment, _ := strings.Cut(ref, "#")
	return doc, fragment
}
