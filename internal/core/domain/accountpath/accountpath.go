package accountpath

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Separator joins path segments in canonical form.
const Separator = " : "

// DefaultMaxDepth is the fallback nesting limit when no configured depth is supplied.
const DefaultMaxDepth = 6

var (
	// ErrEmptyPath indicates a path that is empty after trimming.
	ErrEmptyPath = errors.New("account path is empty")
	// ErrExceedsMaxDepth indicates a path with more segments than allowed.
	ErrExceedsMaxDepth = errors.New("account path exceeds maximum depth")
	// ErrInvalidSegment indicates a segment that is empty or otherwise malformed.
	ErrInvalidSegment = errors.New("invalid account path segment")
)

// segmentSplitRe splits on the separator character with optional surrounding whitespace.
var segmentSplitRe = regexp.MustCompile(`\s*:\s*`)

// Normalize rewrites a path into canonical form: segments trimmed, empty
// segments discarded, joined with " : ". It is idempotent.
func Normalize(path string) string {
	return strings.Join(Segments(path), Separator)
}

// Segments returns the trimmed, non-empty segments of a path in order.
func Segments(path string) []string {
	parts := segmentSplitRe.Split(path, -1)
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// Validate checks a path against the configured maximum depth. Empty segments
// are detected on the raw string before normalization, so a doubled separator
// ("A::B") is reported as an invalid segment rather than silently repaired.
func Validate(path string, maxDepth int) error {
	if strings.TrimSpace(path) == "" {
		return ErrEmptyPath
	}

	rawParts := strings.Split(path, ":")
	for _, p := range rawParts {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: empty segment in %q", ErrInvalidSegment, path)
		}
	}

	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if depth := len(Segments(path)); depth > maxDepth {
		return fmt.Errorf("%w: depth %d exceeds %d", ErrExceedsMaxDepth, depth, maxDepth)
	}
	return nil
}

// Depth returns the number of segments in a path.
func Depth(path string) int {
	return len(Segments(path))
}

// Leaf returns the last segment of a path, or "" for an empty path.
func Leaf(path string) string {
	segments := Segments(path)
	if len(segments) == 0 {
		return ""
	}
	return segments[len(segments)-1]
}

// Parent returns the path without its leaf segment, or "" if the path has at
// most one segment.
func Parent(path string) string {
	segments := Segments(path)
	if len(segments) <= 1 {
		return ""
	}
	return strings.Join(segments[:len(segments)-1], Separator)
}

// Ancestors returns every prefix of the path in root-to-self order, the path
// itself included.
func Ancestors(path string) []string {
	segments := Segments(path)
	ancestors := make([]string, 0, len(segments))
	for i := 1; i <= len(segments); i++ {
		ancestors = append(ancestors, strings.Join(segments[:i], Separator))
	}
	return ancestors
}

// AncestorsWithoutSelf returns every strict prefix of the path in root-to-self order.
func AncestorsWithoutSelf(path string) []string {
	ancestors := Ancestors(path)
	if len(ancestors) == 0 {
		return ancestors
	}
	return ancestors[:len(ancestors)-1]
}

// Join concatenates a parent and child path. If either side is empty the
// other is returned unchanged.
func Join(parent, child string) string {
	parent = Normalize(parent)
	child = Normalize(child)
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return parent + Separator + child
}

// IsAncestor reports whether a is a strict ancestor of b. A path is never its
// own ancestor.
func IsAncestor(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || na == nb {
		return false
	}
	return strings.HasPrefix(nb, na+Separator)
}

// IsDescendant reports whether b is a strict descendant of a.
func IsDescendant(b, a string) bool {
	return IsAncestor(a, b)
}

// IsSibling reports whether two distinct paths share the same parent. Two
// distinct root paths are siblings of each other.
func IsSibling(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == nb || na == "" || nb == "" {
		return false
	}
	return Parent(na) == Parent(nb)
}

// FormatArrow renders a path with arrow separators, e.g. "Ausgaben → Büro".
func FormatArrow(path string) string {
	return strings.Join(Segments(path), " → ")
}

// FormatIndented renders the leaf segment with indentation proportional to
// its depth, for tree-style listings.
func FormatIndented(path string) string {
	depth := Depth(path)
	if depth == 0 {
		return ""
	}
	return strings.Repeat("  ", depth-1) + Leaf(path)
}

// FormatCompact abbreviates every ancestor segment to its initial and keeps
// the full leaf name, e.g. "A : B : Material".
func FormatCompact(path string) string {
	segments := Segments(path)
	if len(segments) == 0 {
		return ""
	}
	compact := make([]string, len(segments))
	for i, seg := range segments[:len(segments)-1] {
		compact[i] = string([]rune(seg)[0])
	}
	compact[len(segments)-1] = segments[len(segments)-1]
	return strings.Join(compact, Separator)
}
