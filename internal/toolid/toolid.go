// Package toolid builds tool_id strings per spec.md §3: "just_" + name in
// single-directory mode, or "just_" + name + "@" + a deterministic shortest
// unique path suffix in multi-directory mode.
package toolid

import (
	"path/filepath"
	"strings"
)

const prefix = "just_"

// Single builds a tool_id for single-directory mode.
func Single(name string) string {
	return prefix + name
}

// Multi builds a tool_id for multi-directory mode, disambiguating path
// against every other currently-registered source path that contains a
// recipe of the same name. otherPaths must not include path itself.
//
// The suffix grows one path segment at a time (starting from the file's
// base name) until it no longer collides with any other candidate's
// same-length suffix, which makes the result deterministic given the set
// of registered sources, per spec.md §3.
func Multi(name, path string, otherPaths []string) string {
	return prefix + name + "@" + ShortestUniqueSuffix(path, otherPaths)
}

// ShortestUniqueSuffix returns the shortest trailing run of path segments
// of path that does not equal the same-length trailing run of any path in
// others.
func ShortestUniqueSuffix(path string, others []string) string {
	segs := splitSegments(path)
	othersSegs := make([][]string, 0, len(others))
	for _, o := range others {
		if o == path {
			continue
		}
		othersSegs = append(othersSegs, splitSegments(o))
	}

	for n := 1; n <= len(segs); n++ {
		candidate := segs[len(segs)-n:]
		if !collides(candidate, othersSegs, n) {
			return strings.Join(candidate, "/")
		}
	}
	return strings.Join(segs, "/")
}

func collides(candidate []string, othersSegs [][]string, n int) bool {
	for _, other := range othersSegs {
		if len(other) < n {
			if segsEqual(other, candidate[len(candidate)-len(other):]) {
				return true
			}
			continue
		}
		if segsEqual(other[len(other)-n:], candidate) {
			return true
		}
	}
	return false
}

func segsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func splitSegments(path string) []string {
	path = filepath.ToSlash(filepath.Clean(path))
	return strings.Split(strings.TrimPrefix(path, "/"), "/")
}
