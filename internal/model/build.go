package model

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"unicode"

	"github.com/calumari/viewgen/internal/diag"
	"github.com/calumari/viewgen/internal/syntax"
)

// Build converts the views of a parsed file into the model. receiver is the
// receiver name of the generated update method; it is reserved in every
// view.
func Build(f *syntax.File, receiver string) []*View {
	views := make([]*View, 0, len(f.Views))
	for _, sv := range f.Views {
		views = append(views, buildView(f, sv, receiver))
	}
	return views
}

type builder struct {
	names *Names
}

func buildView(f *syntax.File, sv *syntax.View, receiver string) *View {
	v := &View{
		Span:     sv.Span,
		Package:  f.Package.Name,
		Name:     sv.Name.Name,
		Params:   sv.Params,
		Imports:  f.Imports,
		Init:     sv.Init,
		PreView:  sv.PreView,
		PostView: sv.PostView,
		Names:    NewNames(),
		Reserved: make(map[string]string),
	}
	reserve := func(name, owner string) {
		v.Reserved[name] = owner
		v.Names.Reserve(name)
	}
	reserve(receiver, "the update method receiver")
	for _, im := range f.Imports {
		reserve(im.LocalName(), "an import")
	}
	v.ParamNames = paramNames(sv.Params.Text)
	for _, name := range v.ParamNames {
		reserve(name, "a view parameter")
	}
	for _, blk := range []*syntax.Block{sv.Init, sv.PreView, sv.PostView} {
		for _, id := range blockIdents(blk) {
			v.Names.Reserve(id)
		}
	}

	// User names are taken before anything is synthesized so that the
	// allocator steers around them regardless of source order.
	for _, w := range sv.Widgets {
		reserveUserNames(v.Names, w)
	}

	b := &builder{names: v.Names}
	for _, w := range sv.Widgets {
		v.Widgets = append(v.Widgets, b.widget(w))
	}
	return v
}

func (b *builder) widget(sw *syntax.Widget) *Widget {
	w := &Widget{Span: sw.Span, Attrs: sw.Attrs}
	w.Root = sw.Attrs.Find("root") != nil
	w.Attr = widgetAttr(sw.Attrs)
	w.Func = classify(sw.Ctor, w.Attr)
	if sw.Type != nil {
		span := sw.Type.Span
		w.Func.Type = sw.Type.Text
		w.Func.TypeSpan = &span
	} else {
		w.Func.Type = inferType(w.Func)
	}

	switch name, ok := userWidgetName(sw); {
	case ok:
		w.Name, w.NameAssigned = name, true
	case (w.Attr == AttrLocal || w.Attr == AttrLocalRef) && token.IsIdentifier(sw.Ctor.Text):
		w.Name = sw.Ctor.Text
	default:
		w.Name = b.names.Fresh(synthName(w.Func))
	}

	for _, sp := range sw.Props {
		w.Props = append(w.Props, b.prop(sp))
	}
	return w
}

func (b *builder) prop(sp syntax.Prop) *Property {
	switch p := sp.(type) {
	case *syntax.ValueProp:
		prop := &Property{
			Span:     p.Span,
			Name:     propName(p.Name),
			Kind:     PropValue,
			Args:     p.Args,
			Value:    p.Value,
			Optional: p.Optional,
			Attrs:    p.Attrs,
		}
		b.applyAttrs(prop)
		if p.Returned != nil {
			prop.Returned = b.returned(p.Returned)
		}
		return prop

	case *syntax.SignalProp:
		prop := &Property{
			Span:    p.Span,
			Name:    propName(p.Name),
			Kind:    PropSignal,
			Handler: &Handler{Captures: p.Captures, Expr: p.Handler, ID: p.HandlerID},
			Attrs:   p.Attrs,
		}
		b.applyAttrs(prop)
		return prop

	case *syntax.WidgetProp:
		prop := &Property{Span: p.Span, Args: p.Args, Attrs: p.Attrs}
		if p.Name != nil {
			prop.Name = propName(*p.Name)
		} else {
			prop.Name = ContainerName(diag.PointSpan(p.From))
		}
		b.applyAttrs(prop)
		if p.Cond != nil {
			prop.Kind = PropConditional
			prop.Cond = b.cond(p.Cond)
		} else {
			prop.Kind = PropWidget
			prop.Widget = b.widget(p.Widget)
		}
		if p.Returned != nil {
			prop.Returned = b.returned(p.Returned)
		}
		return prop

	case *syntax.BadProp:
		return &Property{Span: p.Span, Kind: PropError, Err: p.Err}
	}
	panic("model: unexpected property type")
}

// applyAttrs records the property attributes. Conflicts and attributes that
// do not apply are left for the check pass to report.
func (b *builder) applyAttrs(prop *Property) {
	for _, a := range prop.Attrs {
		switch a.Name.Name {
		case "watch":
			if prop.Kind == PropValue {
				prop.Kind = PropWatch
			}
		case "track":
			if prop.Kind != PropValue {
				continue
			}
			prop.Kind = PropTrack
			switch {
			case a.Value != nil:
				prop.Tracker = &Tracker{Guard: *a.Value, Updates: a.Args}
			case len(a.Args) > 0:
				prop.Tracker = &Tracker{Guard: a.Args[0], Updates: a.Args[1:]}
			}
		case "iterate":
			prop.Iterative = true
		case "wrap":
			if len(a.Args) > 0 {
				prop.Wrap = &a.Args[0]
			}
		case "block_signal":
			prop.BlockSignals = append(prop.BlockSignals, a.Args...)
		}
	}
}

func (b *builder) returned(r *syntax.Returned) *ReturnedWidget {
	rw := &ReturnedWidget{Span: r.Span, Optional: r.Optional}
	if r.Type != nil {
		rw.Type = r.Type.Text
	}
	if r.Name != nil {
		rw.Name, rw.NameAssigned = r.Name.Name, true
	} else {
		base := nameFromType(rw.Type)
		if base == "" {
			base = "returned"
		}
		rw.Name = b.names.Fresh(base)
	}
	for _, sp := range r.Props {
		rw.Props = append(rw.Props, b.prop(sp))
	}
	return rw
}

func (b *builder) cond(sc *syntax.Cond) *Conditional {
	c := &Conditional{Span: sc.Span, Tag: sc.Tag, Attrs: sc.Attrs}
	if sc.Kind == syntax.CondSwitch {
		c.Kind = CondSwitch
	}
	if name, ok := attrName(sc.Attrs); ok {
		c.Name, c.NameAssigned = name, true
	} else {
		c.Name = b.names.Seq("conditional")
	}
	b.names.Reserve(c.ActiveName())
	if a := sc.Attrs.Find("transition"); a != nil && len(a.Args) > 0 {
		c.Transition = &a.Args[0]
	}
	for i, sb := range sc.Branches {
		c.Branches = append(c.Branches, &Branch{
			Span:    sb.Span,
			Index:   i,
			Cond:    sb.Cond,
			Cases:   sb.Cases,
			Default: sb.Default,
			Widget:  b.widget(sb.Widget),
		})
	}
	return c
}

func propName(n syntax.PropName) PropName {
	if len(n.Path) == 1 {
		return PropName{Span: n.Span, Kind: NameMethod, Path: n.Path[0].Name}
	}
	return PropName{Span: n.Span, Kind: NamePath, Path: n.String()}
}

func widgetAttr(attrs syntax.Attrs) WidgetAttr {
	for _, a := range attrs {
		switch a.Name.Name {
		case "local":
			return AttrLocal
		case "local_ref":
			return AttrLocalRef
		case "template":
			return AttrTemplate
		case "template_child":
			return AttrTemplateChild
		}
	}
	return AttrNone
}

// classify decides the constructor kind from the shape of its expression.
func classify(e syntax.Expr, attr WidgetAttr) Func {
	f := Func{Expr: e, Kind: FuncChain}
	switch attr {
	case AttrLocal, AttrLocalRef, AttrTemplateChild:
		f.Kind = FuncLocal
		return f
	}
	x, err := parser.ParseExpr(e.Text)
	if err != nil {
		return f
	}
	switch x := x.(type) {
	case *ast.Ident, *ast.SelectorExpr:
		if isPath(x) {
			f.Kind = FuncPath
		}
	case *ast.CallExpr:
		if isPath(x.Fun) {
			f.Kind = FuncCall
		}
	}
	return f
}

func isPath(x ast.Expr) bool {
	switch x := x.(type) {
	case *ast.Ident:
		return true
	case *ast.SelectorExpr:
		return isPath(x.X)
	}
	return false
}

// inferType returns the type implied by naming conventions: a path T or a
// call to NewT construct a *T.
func inferType(f Func) string {
	switch f.Kind {
	case FuncPath:
		return "*" + f.Expr.Text
	case FuncCall:
		pkg, name := splitLast(f.Callee())
		rest, ok := strings.CutPrefix(name, "New")
		if !ok || rest == "" || !unicode.IsUpper([]rune(rest)[0]) {
			return ""
		}
		return "*" + pkg + rest
	}
	return ""
}

func synthName(f Func) string {
	var name string
	switch f.Kind {
	case FuncPath:
		name = nameFromType(f.Expr.Text)
	case FuncCall:
		name = nameFromCallee(f.Callee())
	case FuncLocal:
		name = nameFromType(f.Expr.Text)
	}
	if name == "" && f.Type != "" {
		name = nameFromType(f.Type)
	}
	if name == "" {
		name = "widget"
	}
	return name
}

// userWidgetName returns the name given with `name :=` or #[name].
func userWidgetName(w *syntax.Widget) (string, bool) {
	if w.Name != nil {
		return w.Name.Name, true
	}
	return attrName(w.Attrs)
}

func attrName(attrs syntax.Attrs) (string, bool) {
	a := attrs.Find("name")
	switch {
	case a == nil:
		return "", false
	case a.Value != nil:
		return a.Value.Text, true
	case len(a.Args) > 0:
		return a.Args[0].Text, true
	}
	return "", false
}

// reserveUserNames reserves every name written by the user in the subtree
// rooted at w.
func reserveUserNames(names *Names, w *syntax.Widget) {
	if name, ok := userWidgetName(w); ok {
		names.Reserve(name)
	} else if widgetAttr(w.Attrs) == AttrLocal || widgetAttr(w.Attrs) == AttrLocalRef {
		names.Reserve(w.Ctor.Text)
	}
	for _, sp := range w.Props {
		reservePropNames(names, sp)
	}
}

func reservePropNames(names *Names, sp syntax.Prop) {
	var ret *syntax.Returned
	switch p := sp.(type) {
	case *syntax.ValueProp:
		ret = p.Returned
	case *syntax.SignalProp:
		if p.HandlerID != nil {
			names.Reserve(p.HandlerID.Name)
		}
	case *syntax.WidgetProp:
		ret = p.Returned
		if p.Widget != nil {
			reserveUserNames(names, p.Widget)
		}
		if p.Cond != nil {
			if name, ok := attrName(p.Cond.Attrs); ok {
				names.Reserve(name)
			}
			for _, b := range p.Cond.Branches {
				reserveUserNames(names, b.Widget)
			}
		}
	}
	if ret == nil {
		return
	}
	if ret.Name != nil {
		names.Reserve(ret.Name.Name)
	}
	for _, rp := range ret.Props {
		reservePropNames(names, rp)
	}
}

// paramNames returns the names declared by a parameter list.
func paramNames(params string) []string {
	f, err := parser.ParseFile(token.NewFileSet(), "", "package p\nfunc _("+params+") {}", 0)
	if err != nil {
		return nil
	}
	var names []string
	fn := f.Decls[0].(*ast.FuncDecl)
	for _, field := range fn.Type.Params.List {
		for _, id := range field.Names {
			if id.Name != "_" {
				names = append(names, id.Name)
			}
		}
	}
	return names
}

// blockIdents returns every identifier used in a block of statements.
func blockIdents(blk *syntax.Block) []string {
	if blk == nil {
		return nil
	}
	f, err := parser.ParseFile(token.NewFileSet(), "", "package p\nfunc _() {"+blk.Text+"\n}", 0)
	if err != nil {
		return nil
	}
	var ids []string
	ast.Inspect(f.Decls[0], func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok && id.Name != "_" {
			ids = append(ids, id.Name)
		}
		return true
	})
	return ids
}
