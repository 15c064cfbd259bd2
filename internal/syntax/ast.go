// Package syntax implements the front-end of the view language: a tokenizer
// built on go/scanner and a recursive-descent parser that produces the syntax
// tree defined in this file. Go expressions embedded in a view are kept as
// source slices and only validated with go/parser.
package syntax

import (
	"strings"

	"github.com/calumari/viewgen/internal/diag"
)

// Node is implemented by every syntax tree node.
type Node interface {
	diag.Ranger
}

// File is a parsed .view file.
type File struct {
	diag.Span
	Package Ident
	Imports []*Import
	Views   []*View
}

// Ident is an identifier.
type Ident struct {
	diag.Span
	Name string
}

// Import is a single import spec. Path is unquoted.
type Import struct {
	diag.Span
	Name *Ident
	Path string
}

// LocalName returns the name the import is referred to by. Without an explicit
// name this is the last path element, which matches Go for conventional
// packages.
func (im *Import) LocalName() string {
	if im.Name != nil {
		return im.Name.Name
	}
	if i := strings.LastIndexByte(im.Path, '/'); i >= 0 {
		return im.Path[i+1:]
	}
	return im.Path
}

// Expr is a Go expression kept as source text.
type Expr struct {
	diag.Span
	Text string
}

// Block is a run of raw Go statements taken from between braces.
type Block struct {
	diag.Span
	Text string
}

// View is a `view Name(params) { ... }` declaration.
type View struct {
	diag.Span
	Name     Ident
	Params   Expr
	Init     *Block
	PreView  *Block
	PostView *Block
	Widgets  []*Widget
}

// Attr is one attribute inside `#[...]`.
type Attr struct {
	diag.Span
	Name Ident
	// Args holds the expressions of the parenthesized form.
	Args []Expr
	// Value holds the unquoted string of the `= "..."` form.
	Value *Expr
}

// Attrs is an ordered attribute list.
type Attrs []*Attr

// Find returns the first attribute called name.
func (as Attrs) Find(name string) *Attr {
	for _, a := range as {
		if a.Name.Name == name {
			return a
		}
	}
	return nil
}

// Widget is a constructor followed by a property block.
type Widget struct {
	diag.Span
	Attrs Attrs
	Name  *Ident
	Ctor  Expr
	Type  *Expr
	Props []Prop
}

// PropName is a dotted property name. A single element names a method on
// the widget, several elements name a function.
type PropName struct {
	diag.Span
	Path []Ident
}

func (n PropName) String() string {
	parts := make([]string, len(n.Path))
	for i, id := range n.Path {
		parts[i] = id.Name
	}
	return strings.Join(parts, ".")
}

// Prop is a property of a widget.
type Prop interface {
	Node
	PropAttrs() Attrs
}

// ValueProp is `name[args]?: expr`.
type ValueProp struct {
	diag.Span
	Attrs    Attrs
	Name     PropName
	Args     []Expr
	Optional bool
	Value    Expr
	Returned *Returned
}

// SignalProp is `name[captures] => handler @id`.
type SignalProp struct {
	diag.Span
	Attrs     Attrs
	Name      PropName
	Captures  []*Capture
	Handler   Expr
	HandlerID *Ident
}

// Capture is one element of a capture list. Without a value the identifier
// is captured as is.
type Capture struct {
	diag.Span
	Name  Ident
	Value *Expr
}

// WidgetProp attaches a nested widget or conditional. A nil Name means the
// child is added with the toolkit's container call.
type WidgetProp struct {
	diag.Span
	Attrs    Attrs
	Name     *PropName
	Args     []Expr
	Widget   *Widget
	Cond     *Cond
	Returned *Returned
}

// BadProp stands in for a property that failed to parse.
type BadProp struct {
	diag.Span
	Err *diag.Diagnostic
}

func (p *ValueProp) PropAttrs() Attrs  { return p.Attrs }
func (p *SignalProp) PropAttrs() Attrs { return p.Attrs }
func (p *WidgetProp) PropAttrs() Attrs { return p.Attrs }
func (p *BadProp) PropAttrs() Attrs    { return nil }

// Returned is the `-> name: Type? { props }` suffix.
type Returned struct {
	diag.Span
	Name     *Ident
	Type     *Expr
	Optional bool
	Props    []Prop
}

// CondKind distinguishes if chains from switches.
type CondKind int

const (
	CondIf CondKind = iota
	CondSwitch
)

// Cond is a conditional widget.
type Cond struct {
	diag.Span
	Attrs    Attrs
	Kind     CondKind
	Tag      *Expr
	Branches []*Branch
}

// Branch is one arm of a Cond. Exactly one of Cond, Cases and Default is
// set, except that a switch case may carry several expressions.
type Branch struct {
	diag.Span
	Cond    *Expr
	Cases   []Expr
	Default bool
	Widget  *Widget
}
