// Package check validates the widget model of a view and annotates it with
// the facts code generation depends on: which node is the root and which
// nodes are kept as fields of the generated struct.
package check

import (
	"go/ast"
	"go/parser"
	"go/token"

	"github.com/calumari/viewgen/internal/diag"
	"github.com/calumari/viewgen/internal/model"
	"github.com/calumari/viewgen/internal/syntax"
)

// TypeResolver infers the Go type of a constructor call.
type TypeResolver interface {
	ResolveType(expr string) (string, error)
}

// Options configures a check.
type Options struct {
	// Resolver, if set, is asked for the type of call constructors whose
	// type cannot be derived from their name.
	Resolver TypeResolver
}

// View validates v, sets Widget.Field, ReturnedWidget.Field, Widget.Root and
// View.Root, and returns every problem found. It never stops at the first
// one.
func View(v *model.View, opts Options) *diag.List {
	c := &checker{view: v, opts: opts, errs: &diag.List{}, handlers: map[string]bool{}, blockedOwners: map[any]bool{}}
	c.collectHandlers()
	for _, w := range v.Widgets {
		c.widget(w, false, true)
	}
	c.root()
	c.names()
	return c.errs
}

type checker struct {
	view     *model.View
	opts     Options
	errs     *diag.List
	handlers map[string]bool
	// blockedOwners holds the widgets and returned widgets owning a handler
	// named by #[block_signal]. updateView calls them, so they are kept.
	blockedOwners map[any]bool
}

func (c *checker) errorf(r diag.Ranger, format string, args ...any) {
	c.errs.Addf(diag.Semantic, r, format, args...)
}

func (c *checker) collectHandlers() {
	owners := map[string]any{}
	var blocked []string
	record := func(owner any, props []*model.Property) {
		for _, p := range props {
			if p.Handler != nil && p.Handler.ID != nil {
				c.handlers[p.Handler.ID.Name] = true
				owners[p.Handler.ID.Name] = owner
			}
		}
	}
	model.Inspect(c.view.Widgets, func(n any) bool {
		switch n := n.(type) {
		case *model.Widget:
			record(n, n.Props)
		case *model.ReturnedWidget:
			record(n, n.Props)
		case *model.Property:
			for _, h := range n.BlockSignals {
				blocked = append(blocked, h.Text)
			}
		}
		return true
	})
	for _, id := range blocked {
		if owner, ok := owners[id]; ok {
			c.blockedOwners[owner] = true
		}
	}
}

func (c *checker) widget(w *model.Widget, inTemplate, topLevel bool) {
	c.attrs(w.Attrs, targetWidget)
	c.exclusive(w.Attrs, "local", "local_ref", "template", "template_child")
	if a := w.Attrs.Find("name"); a != nil && w.NameAssigned {
		if name := attrText(a); name != "" && name != w.Name {
			c.errorf(a, "widget %s is also named %s by #[name]", w.Name, name)
		}
	}
	if a := w.Attrs.Find("root"); a != nil && !topLevel {
		c.errorf(a, "#[root] only applies to top-level widgets")
	}

	switch w.Attr {
	case model.AttrLocal:
		if !token.IsIdentifier(w.Func.Expr.Text) {
			c.errorf(w.Func.Expr, "#[local] widget must name an existing variable, found %s", w.Func.Expr.Text)
		}
	case model.AttrTemplateChild:
		if !inTemplate {
			c.errorf(w.Func.Expr, "template child %s is not inside a #[template] widget", w.Func.Expr.Text)
		}
		if !token.IsIdentifier(w.Func.Expr.Text) {
			c.errorf(w.Func.Expr, "template child must be a field name, found %s", w.Func.Expr.Text)
		}
	}
	if w.Func.Kind == model.FuncChain && w.Func.TypeSpan == nil {
		c.errorf(w.Func.Expr, "constructor %s of widget %s is a method chain and needs an explicit type (-> Type)", w.Func.Expr.Text, w.Name)
	}

	w.Field = w.NameAssigned || reactive(w.Props) || c.blockedOwners[w]
	if w.Field {
		c.needType(w, "kept in the widgets struct")
	}

	inTemplate = inTemplate || w.Attr == model.AttrTemplate
	c.props(w.Props, inTemplate)
}

// needType resolves the type of w or reports that it is missing.
// A resolver, when set, takes precedence over the naming convention for call
// constructors without an explicit type.
func (c *checker) needType(w *model.Widget, why string) {
	if c.opts.Resolver != nil && w.Func.Kind == model.FuncCall && w.Func.TypeSpan == nil {
		if typ, err := c.opts.Resolver.ResolveType(w.Func.Expr.Text); err == nil && typ != "" {
			w.Func.Type = typ
			return
		}
	}
	if w.Type() != "" {
		return
	}
	c.errorf(w.Func.Expr, "cannot determine the type of widget %s, which is %s; add -> Type", w.Name, why)
}

func reactive(props []*model.Property) bool {
	for _, p := range props {
		if p.Kind.Reactive() {
			return true
		}
	}
	return false
}

func (c *checker) props(props []*model.Property, inTemplate bool) {
	for _, p := range props {
		c.prop(p, inTemplate)
	}
}

func (c *checker) prop(p *model.Property, inTemplate bool) {
	switch p.Kind {
	case model.PropError:
		c.errs.Add(p.Err)
		return
	case model.PropValue, model.PropWatch, model.PropTrack:
		c.attrs(p.Attrs, targetValue)
	case model.PropSignal:
		c.attrs(p.Attrs, targetSignal)
		c.captures(p.Handler)
	case model.PropWidget:
		c.attrs(p.Attrs, targetNested)
	case model.PropConditional:
		c.attrs(p.Attrs, targetCondProp)
	}
	c.exclusive(p.Attrs, "watch", "track")

	for _, h := range p.BlockSignals {
		if !c.handlers[h.Text] {
			c.errorf(h, "unknown handler %s; name one with @%s on a signal", h.Text, h.Text)
		}
	}
	if len(p.BlockSignals) > 0 && p.Kind == model.PropValue {
		c.errorf(p, "#[block_signal] only applies to watched or tracked properties")
	}

	if p.Widget != nil {
		c.widget(p.Widget, inTemplate, false)
	}
	if p.Cond != nil {
		c.cond(p.Cond, inTemplate)
	}
	if r := p.Returned; r != nil {
		r.Field = r.NameAssigned || reactive(r.Props) || c.blockedOwners[r]
		if r.Field && r.Type == "" {
			c.errorf(r, "returned widget %s needs a type (-> %s: Type) to be kept in the widgets struct", r.Name, r.Name)
		}
		if p.Optional {
			c.errorf(r, "a returned widget cannot be captured from an optional property")
		}
		if p.Iterative && (!r.Optional || r.Field) {
			c.errorf(r, "a returned widget can only be captured from an iterated property if it is optional and not kept")
		}
		c.props(r.Props, inTemplate)
	}
}

func (c *checker) cond(cw *model.Conditional, inTemplate bool) {
	c.attrs(cw.Attrs, targetCond)
	defaults := 0
	for _, b := range cw.Branches {
		if b.Default {
			defaults++
			if defaults > 1 {
				c.errorf(b, "conditional widget has more than one default branch")
			}
		}
		c.widget(b.Widget, inTemplate, false)
	}
	if defaults == 0 {
		if cw.Kind == model.CondSwitch {
			c.errorf(cw, "switch widget %s needs a default case so that one branch is always shown", cw.Name)
		} else {
			c.errorf(cw, "if widget %s needs an else branch so that one branch is always shown", cw.Name)
		}
	}
}

// captures reports capture names that the handler never refers to.
func (c *checker) captures(h *model.Handler) {
	if len(h.Captures) == 0 {
		return
	}
	used := Idents(h.Expr.Text)
	for _, cp := range h.Captures {
		if !used[cp.Name.Name] {
			c.errorf(cp.Name, "capture %s is not used by the handler", cp.Name.Name)
		}
	}
}

func (c *checker) root() {
	v := c.view
	var root *model.Widget
	for _, w := range v.Widgets {
		if w.Attrs.Find("root") == nil {
			continue
		}
		if root != nil {
			c.errorf(w.Attrs.Find("root"), "duplicate root: %s is already the root of view %s", root.Name, v.Name)
			continue
		}
		root = w
	}
	if root == nil {
		switch len(v.Widgets) {
		case 0:
			c.errorf(v, "view %s has no widgets", v.Name)
			return
		case 1:
			root = v.Widgets[0]
		default:
			c.errorf(v.Widgets[1], "ambiguous root: view %s has %d top-level widgets and none is marked #[root]", v.Name, len(v.Widgets))
			return
		}
	}
	root.Root = true
	v.Root = root
	if !root.Field {
		c.needType(root, "the root")
	}
}

// names reports user names that collide with each other or with reserved
// names. Synthesized names are unique by construction.
func (c *checker) names() {
	seen := map[string]bool{}
	user := func(name string, r diag.Ranger) {
		if owner, ok := c.view.Reserved[name]; ok {
			c.errorf(r, "name %s is reserved: it is %s", name, owner)
		} else if seen[name] {
			c.errorf(r, "duplicate name %s", name)
		} else if !token.IsIdentifier(name) {
			c.errorf(r, "%q is not a valid Go identifier", name)
		}
		seen[name] = true
	}
	model.Inspect(c.view.Widgets, func(n any) bool {
		switch n := n.(type) {
		case *model.Widget:
			switch {
			case n.NameAssigned:
				user(n.Name, n)
			case n.Attr == model.AttrLocal || n.Attr == model.AttrLocalRef:
				if n.Field && c.view.Reserved[n.Name] != "" {
					c.errorf(n, "local %s is %s and cannot be kept in the widgets struct; give it a #[name]", n.Name, c.view.Reserved[n.Name])
				}
				if seen[n.Name] && n.Name != "" {
					c.errorf(n, "duplicate name %s", n.Name)
				}
				seen[n.Name] = true
			}
		case *model.ReturnedWidget:
			if n.NameAssigned {
				user(n.Name, n)
			}
		case *model.Conditional:
			if n.NameAssigned {
				user(n.Name, n)
			}
		case *model.Property:
			if n.Handler != nil && n.Handler.ID != nil {
				user(n.Handler.ID.Name, n.Handler.ID)
			}
		}
		return true
	})
}

// Idents returns the identifiers referenced by a Go expression, excluding
// selector names (the Sel of x.Sel) and composite literal keys.
func Idents(expr string) map[string]bool {
	used := map[string]bool{}
	x, err := parser.ParseExpr(expr)
	if err != nil {
		return used
	}
	collectIdents(x, used)
	return used
}

// StmtIdents is like Idents for a block of statements.
func StmtIdents(stmts string) map[string]bool {
	used := map[string]bool{}
	f, err := parser.ParseFile(token.NewFileSet(), "", "package p\nfunc _() {"+stmts+"\n}", 0)
	if err != nil {
		return used
	}
	collectIdents(f.Decls[0].(*ast.FuncDecl).Body, used)
	return used
}

func collectIdents(n ast.Node, used map[string]bool) {
	ast.Inspect(n, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.SelectorExpr:
			collectIdents(n.X, used)
			return false
		case *ast.KeyValueExpr:
			if _, ok := n.Key.(*ast.Ident); !ok {
				collectIdents(n.Key, used)
			}
			collectIdents(n.Value, used)
			return false
		case *ast.Ident:
			used[n.Name] = true
		}
		return true
	})
}

// exclusive reports the second of any mutually exclusive attributes.
func (c *checker) exclusive(attrs syntax.Attrs, names ...string) {
	var first *syntax.Attr
	for _, a := range attrs {
		for _, n := range names {
			if a.Name.Name != n {
				continue
			}
			if first != nil && first.Name.Name != n {
				c.errorf(a, "conflicting attributes %s and %s", first.Name.Name, n)
			} else if first == nil {
				first = a
			}
		}
	}
}
