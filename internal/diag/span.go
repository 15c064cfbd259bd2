package diag

import "strings"

// Ranger wraps the Range method.
type Ranger interface {
	// Range returns the byte range associated with the value.
	Range() Span
}

// Span is a byte range [From, To) within a source. Structs embed Span to
// satisfy the Ranger interface.
type Span struct {
	From int
	To   int
}

// Range returns the Span itself.
func (s Span) Range() Span { return s }

// Contains reports whether offset lies within the span. A zero-width span
// contains its own position.
func (s Span) Contains(offset int) bool {
	if s.From == s.To {
		return offset == s.From
	}
	return s.From <= offset && offset < s.To
}

// PointSpan returns a zero-width span at p.
func PointSpan(p int) Span { return Span{p, p} }

// MixedSpan returns a span from the start of a to the end of b.
func MixedSpan(a, b Ranger) Span {
	return Span{a.Range().From, b.Range().To}
}

// Position is a 1-based line and column (in bytes) within a source.
type Position struct {
	Line   int
	Column int
}

// PositionOf converts a byte offset to a Position. Offsets outside the source
// are clamped.
func PositionOf(src string, offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(src) {
		offset = len(src)
	}
	before := src[:offset]
	line := strings.Count(before, "\n") + 1
	col := offset - (strings.LastIndexByte(before, '\n') + 1) + 1
	return Position{line, col}
}
