package utils

import (
	"path"
	"strings"
)

// MakeRelative returns target expressed relative to the document at base.
// A target in the same document as base collapses to its fragment ("#" when it has none).
// Otherwise the shortest relative path from base's directory is returned, or target unchanged
// when no relative form exists (different schemes or hosts, mixed absolute and relative paths).
func MakeRelative(base, target string) string {
	baseDoc, _ := SplitFragment(base)
	targetDoc, fragment := SplitFragment(target)
	hasFragment := strings.Contains(target, "#")

	withFragment := func(p string) string {
		if hasFragment {
			return p + "#" + fragment
		}
		return p
	}

	if targetDoc == baseDoc {
		return "#" + fragment
	}

	baseClass, err := ClassifyReference(baseDoc)
	if err != nil {
		return target
	}
	targetClass, err := ClassifyReference(targetDoc)
	if err != nil {
		return target
	}

	switch {
	case baseClass.IsURL && targetClass.IsURL:
		bu, tu := baseClass.ParsedURL, targetClass.ParsedURL
		if bu.Scheme != tu.Scheme || bu.Host != tu.Host || bu.User.String() != tu.User.String() || tu.RawQuery != "" {
			return target
		}
		rel, ok := relativePath(path.Dir(bu.Path), tu.Path)
		if !ok {
			return target
		}
		return withFragment(rel)
	case baseClass.IsFile && targetClass.IsFile:
		rel, ok := relativePath(path.Dir(toSlash(baseDoc)), toSlash(targetDoc))
		if !ok {
			return target
		}
		return withFragment(rel)
	default:
		return target
	}
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// relativePath computes the relative path from the directory fromDir to the file to.
// Both must be absolute or both relative.
func relativePath(fromDir, to string) (string, bool) {
	if path.IsAbs(fromDir) != path.IsAbs(to) {
		return "", false
	}

	fromParts := splitPath(path.Clean(fromDir))
	toParts := splitPath(path.Clean(to))

	common := 0
	for common < len(fromParts) && common < len(toParts) && fromParts[common] == toParts[common] {
		common++
	}

	// can't climb out of an unknown relative base
	for _, p := range fromParts[common:] {
		if p == ".." {
			return "", false
		}
	}

	parts := make([]string, 0, len(fromParts)-common+len(toParts)-common)
	for range fromParts[common:] {
		parts = append(parts, "..")
	}
	parts = append(parts, toParts[common:]...)

	if len(parts) == 0 {
		return ".", true
	}
	return strings.Join(parts, "/"), true
}

func splitPath(p string) []string {
	p = strings.TrimPrefix(p, "/")
	if p == "" || p == "." {
		return nil
	}
	return strings.Split(p, "/")
}
