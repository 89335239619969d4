package router

import (
	"fmt"
	"strings"
)

const (
	paramSigil    = ':'
	wildcardSigil = '*'
)

type segmentKind uint8

const (
	segStatic segmentKind = iota
	segParam
	segWildcard
)

func kindOf(seg string) segmentKind {
	switch seg[0] {
	case paramSigil:
		return segParam
	case wildcardSigil:
		return segWildcard
	default:
		return segStatic
	}
}

// splitPath splits a path on '/' and drops empty segments, so leading,
// trailing and repeated slashes are insignificant.
func splitPath(path string) []string {
	segs := make([]string, 0, strings.Count(path, "/")+1)
	for seg := range strings.SplitSeq(path, "/") {
		if seg != "" {
			segs = append(segs, seg)
		}
	}
	return segs
}

func joinPath(segs []string) string {
	return "/" + strings.Join(segs, "/")
}

// normalizePath returns the canonical form of path. Already canonical paths
// are returned without allocating.
func normalizePath(path string) string {
	if isCanonical(path) {
		return path
	}
	return joinPath(splitPath(path))
}

func isCanonical(path string) bool {
	if path == "/" {
		return true
	}
	if len(path) < 2 || path[0] != '/' || path[len(path)-1] == '/' {
		return false
	}
	return !strings.Contains(path, "//")
}

// parsePattern validates a registration pattern and returns its segments.
// Segments following a wildcard are unreachable and dropped; truncated
// reports whether that happened.
func parsePattern(pattern string) (segs []string, dynamic, truncated bool, err error) {
	if pattern == "" || pattern[0] != '/' {
		return nil, false, false, fmt.Errorf("%w: '%s' must begin with '/'", ErrInvalidPattern, pattern)
	}

	segs = splitPath(pattern)
	seen := make(map[string]struct{})
	for i, seg := range segs {
		switch kindOf(seg) {
		case segParam:
			name := seg[1:]
			if name == "" {
				return nil, false, false, fmt.Errorf("%w: empty parameter name in '%s'", ErrInvalidPattern, pattern)
			}
			if _, dup := seen[name]; dup {
				return nil, false, false, fmt.Errorf("%w: '%s' in '%s'", ErrDuplicateParam, name, pattern)
			}
			seen[name] = struct{}{}
			dynamic = true
		case segWildcard:
			dynamic = true
			if i < len(segs)-1 {
				return segs[:i+1], true, true, nil
			}
		}
	}
	return segs, dynamic, false, nil
}
