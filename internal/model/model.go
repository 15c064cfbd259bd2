// Package model holds the intermediate widget model that sits between the
// syntax tree and code generation. The model is built per compilation,
// annotated by the check package and read by the generator.
package model

import (
	"strconv"
	"strings"

	"github.com/calumari/viewgen/internal/diag"
	"github.com/calumari/viewgen/internal/syntax"
)

// View is one view declaration.
type View struct {
	diag.Span
	Package  string
	Name     string
	Params   syntax.Expr
	Imports  []*syntax.Import
	Init     *syntax.Block
	PreView  *syntax.Block
	PostView *syntax.Block
	Widgets  []*Widget

	// Root is set by the check pass.
	Root *Widget
	// Names is the allocator used for this view. The generator keeps drawing
	// temporaries from it.
	Names *Names
	// Reserved maps names that user code may not take to what owns them.
	Reserved map[string]string
	// ParamNames lists the names declared by Params.
	ParamNames []string
}

// FuncKind classifies a widget constructor.
type FuncKind int

const (
	// FuncPath is a bare type path such as toolkit.Button.
	FuncPath FuncKind = iota
	// FuncCall is a constructor call such as toolkit.NewLabel("x").
	FuncCall
	// FuncChain is any other expression, typically a builder chain.
	FuncChain
	// FuncLocal refers to an existing binding.
	FuncLocal
)

var funcKindNames = [...]string{"path", "call", "chain", "local"}

func (k FuncKind) String() string { return funcKindNames[k] }

// Func is the constructor of a widget.
type Func struct {
	Kind FuncKind
	Expr syntax.Expr
	// Type is the Go type of the constructed value, or "" if unknown.
	Type string
	// TypeSpan locates an explicit `-> Type` annotation.
	TypeSpan *diag.Span
}

// Call returns the Go expression that produces the widget.
func (f Func) Call() string {
	if f.Kind != FuncPath {
		return f.Expr.Text
	}
	pkg, name := splitLast(f.Expr.Text)
	return pkg + "New" + name + "()"
}

// Callee returns the constructor function of a FuncCall, e.g.
// "toolkit.NewLabel", or "" if the call target is not a plain path.
func (f Func) Callee() string {
	if f.Kind != FuncCall {
		return ""
	}
	if i := strings.IndexByte(f.Expr.Text, '('); i > 0 {
		return f.Expr.Text[:i]
	}
	return ""
}

// WidgetAttr is the mutually exclusive binding attribute of a widget.
type WidgetAttr int

const (
	AttrNone WidgetAttr = iota
	AttrLocal
	AttrLocalRef
	AttrTemplate
	AttrTemplateChild
)

var widgetAttrNames = [...]string{"", "local", "local_ref", "template", "template_child"}

func (a WidgetAttr) String() string { return widgetAttrNames[a] }

// Widget is a node of the widget tree.
type Widget struct {
	diag.Span
	Name         string
	NameAssigned bool
	Func         Func
	Attr         WidgetAttr
	Root         bool
	Props        []*Property
	Attrs        syntax.Attrs

	// Field is set by the check pass when the widget is kept in the
	// generated struct.
	Field bool
}

// Type returns the Go type of the widget, or "" if unknown.
func (w *Widget) Type() string { return w.Func.Type }

// NameKind is the shape of a property name.
type NameKind int

const (
	// NameMethod is a method on the widget: target.Name(args...).
	NameMethod NameKind = iota
	// NamePath is a function taking the widget first: pkg.Name(target, args...).
	NamePath
	// NameContainer is the toolkit's configured container call.
	NameContainer
)

// PropName is the closed set of property name shapes.
type PropName struct {
	diag.Span
	Kind NameKind
	Path string
}

// ContainerName is the name of a child added without a property name.
func ContainerName(span diag.Span) PropName {
	return PropName{Span: span, Kind: NameContainer}
}

// Resolve replaces a container name with the configured container call. A
// call containing a '.' is path style.
func (n PropName) Resolve(containerAdd string) PropName {
	if n.Kind != NameContainer {
		return n
	}
	kind := NameMethod
	if strings.Contains(containerAdd, ".") {
		kind = NamePath
	}
	return PropName{Span: n.Span, Kind: kind, Path: containerAdd}
}

// Call renders the call applying args to target. Container names must be
// resolved first.
func (n PropName) Call(target string, args ...string) string {
	switch n.Kind {
	case NameMethod:
		return target + "." + n.Path + "(" + strings.Join(args, ", ") + ")"
	case NamePath:
		return n.Path + "(" + strings.Join(append([]string{target}, args...), ", ") + ")"
	}
	panic("model: unresolved container property name")
}

func (n PropName) String() string {
	if n.Kind == NameContainer {
		return "container child"
	}
	return n.Path
}

// PropKind is the kind of a property.
type PropKind int

const (
	PropValue PropKind = iota
	PropWatch
	PropTrack
	PropSignal
	PropWidget
	PropConditional
	PropError
)

var propKindNames = [...]string{"value", "watch", "track", "signal", "widget", "conditional", "error"}

func (k PropKind) String() string { return propKindNames[k] }

// Reactive reports whether the property is re-applied by updateView.
func (k PropKind) Reactive() bool { return k == PropWatch || k == PropTrack }

// Property is one directive inside a widget's block.
type Property struct {
	diag.Span
	Name      PropName
	Kind      PropKind
	Args      []syntax.Expr
	Value     syntax.Expr
	Optional  bool
	Iterative bool
	Tracker   *Tracker
	Handler   *Handler
	Widget    *Widget
	Cond      *Conditional
	Returned  *ReturnedWidget
	Wrap      *syntax.Expr
	// BlockSignals names handler ids blocked while the property is
	// re-applied.
	BlockSignals []syntax.Expr
	Attrs        syntax.Attrs
	// Err is the parse diagnostic of a PropError placeholder.
	Err *diag.Diagnostic
}

// Tracker is the guard and update statements of a tracked property.
type Tracker struct {
	Guard   syntax.Expr
	Updates []syntax.Expr
}

// Handler is a signal handler with its capture list.
type Handler struct {
	Captures []*syntax.Capture
	Expr     syntax.Expr
	ID       *syntax.Ident
}

// ReturnedWidget is the value returned by a property call.
type ReturnedWidget struct {
	diag.Span
	Name         string
	NameAssigned bool
	Type         string
	Optional     bool
	Props        []*Property

	Field bool
}

// CondKind distinguishes if chains from switches.
type CondKind int

const (
	CondIf CondKind = iota
	CondSwitch
)

// Conditional is a widget chosen at runtime among its branches. The
// container holding the branches is named Name.
type Conditional struct {
	diag.Span
	Name         string
	NameAssigned bool
	Kind         CondKind
	Tag          *syntax.Expr
	Branches     []*Branch
	Transition   *syntax.Expr
	Attrs        syntax.Attrs
}

// ActiveName is the field storing the discriminant of the visible branch.
func (c *Conditional) ActiveName() string { return c.Name + "Active" }

// HasDefault reports whether the last branch is an else or default arm.
func (c *Conditional) HasDefault() bool {
	for _, b := range c.Branches {
		if b.Default {
			return true
		}
	}
	return false
}

// Branch is one arm of a conditional.
type Branch struct {
	diag.Span
	Index   int
	Cond    *syntax.Expr
	Cases   []syntax.Expr
	Default bool
	Widget  *Widget
}

// Discriminant is the name the branch is registered under in the switcher:
// its 0-based position.
func (b *Branch) Discriminant() string { return strconv.Itoa(b.Index) }

// splitLast splits "a.b.C" into "a.b." and "C".
func splitLast(path string) (string, string) {
	i := strings.LastIndexByte(path, '.')
	return path[:i+1], path[i+1:]
}
