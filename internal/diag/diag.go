// Package diag holds source-positioned diagnostics. Every stage of the
// compiler reports into a List so that a single run surfaces all problems of
// a file at once.
package diag

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a diagnostic by the stage that produced it.
type Kind string

const (
	Syntax   Kind = "syntax error"
	Semantic Kind = "semantic error"
	Generate Kind = "generation error"
)

// Diagnostic is a message tied to a span of source text.
type Diagnostic struct {
	Kind    Kind
	Message string
	Span
}

// Source is a named piece of text that diagnostics point into.
type Source struct {
	Name string
	Code string
}

// Position returns the position of the start of d within src.
func (d *Diagnostic) Position(src string) Position {
	return PositionOf(src, d.From)
}

// Format renders d as "name:line:col: kind: message".
func (d *Diagnostic) Format(src Source) string {
	pos := d.Position(src.Code)
	return fmt.Sprintf("%s:%d:%d: %s: %s", src.Name, pos.Line, pos.Column, d.Kind, d.Message)
}

// Error implements the error interface so that a single diagnostic can be
// returned up a recursive descent and recorded by the caller.
func (d *Diagnostic) Error() string {
	return string(d.Kind) + ": " + d.Message
}

// New creates a diagnostic.
func New(kind Kind, r Ranger, format string, args ...any) *Diagnostic {
	return &Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...), Span: r.Range()}
}

// List accumulates diagnostics. The zero value is ready to use.
type List struct {
	items []*Diagnostic
}

// Add appends d to the list.
func (l *List) Add(d *Diagnostic) {
	if d != nil {
		l.items = append(l.items, d)
	}
}

// Addf creates a diagnostic and appends it.
func (l *List) Addf(kind Kind, r Ranger, format string, args ...any) {
	l.Add(New(kind, r, format, args...))
}

// Merge appends every entry of other.
func (l *List) Merge(other *List) {
	if other != nil {
		l.items = append(l.items, other.items...)
	}
}

// Len returns the number of diagnostics.
func (l *List) Len() int { return len(l.items) }

// Items returns the diagnostics ordered by position. Diagnostics at the same
// position keep their insertion order.
func (l *List) Items() []*Diagnostic {
	out := make([]*Diagnostic, len(l.items))
	copy(out, l.items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].From < out[j].From })
	return out
}

// Err returns nil if the list is empty, and an *Error otherwise.
func (l *List) Err(src Source) error {
	if l.Len() == 0 {
		return nil
	}
	return &Error{Source: src, Entries: l.Items()}
}

// Error is the error value for a batch of diagnostics against one source.
type Error struct {
	Source  Source
	Entries []*Diagnostic
}

// Error returns one line per entry.
func (e *Error) Error() string {
	lines := make([]string, len(e.Entries))
	for i, d := range e.Entries {
		lines[i] = d.Format(e.Source)
	}
	return strings.Join(lines, "\n")
}

// Unpack returns the *Error wrapped in err, if any.
func Unpack(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
