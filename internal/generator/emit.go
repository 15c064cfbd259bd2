package generator

import (
	"fmt"

	"github.com/calumari/viewgen/internal/model"
)

// The four emitters below walk the widget trees of a view. The init and
// assign walks run in that order at the top level of the init function, so
// every widget variable is in scope for the assignments, the signal
// connections and the struct literal that follow.

// initWidgets emits the construction of every widget in pre-order.
func (g *generator) initWidgets() []codeNode {
	var nodes []codeNode
	for _, w := range g.view.Widgets {
		nodes = append(nodes, g.initWidget(w, "", true)...)
	}
	return nodes
}

// initWidget emits w and the widgets nested in its properties. tmpl is the
// name of the nearest #[template] ancestor.
func (g *generator) initWidget(w *model.Widget, tmpl string, topLevel bool) []codeNode {
	var nodes []codeNode
	switch w.Attr {
	case model.AttrLocal:
		if w.Name != w.Func.Expr.Text {
			nodes = append(nodes, declare(w.Name, w.Func.Expr.Text))
		}
	case model.AttrTemplateChild:
		if w.Field || len(w.Props) > 0 {
			if tmpl == "" {
				nodes = append(nodes, g.invariant("template child %s outside a template", w.Name))
				break
			}
			n := declare(w.Name, tmpl+"."+w.Func.Expr.Text)
			if w.Func.TypeSpan != nil {
				n.Type = w.Func.Type
			}
			nodes = append(nodes, n)
		}
	default:
		if w.Attr == model.AttrLocalRef && w.Name == w.Func.Expr.Text {
			// the widget is the existing variable
			break
		}
		n := declare(w.Name, w.Func.Call())
		if w.Func.TypeSpan != nil {
			n.Type = w.Func.Type
		}
		nodes = append(nodes, n)
		if topLevel && !w.Root && !w.Field && len(w.Props) == 0 {
			nodes = append(nodes, codeNode{Kind: nodeKindDiscard, Var: w.Name})
		}
	}
	nodes = at(g.pos(w), nodes)

	if w.Attr == model.AttrTemplate {
		tmpl = w.Name
	}
	nodes = append(nodes, g.initProps(w.Props, tmpl)...)
	return nodes
}

func (g *generator) initProps(props []*model.Property, tmpl string) []codeNode {
	var nodes []codeNode
	for _, p := range props {
		switch {
		case p.Widget != nil:
			nodes = append(nodes, g.initWidget(p.Widget, tmpl, false)...)
		case p.Cond != nil:
			nodes = append(nodes, at(g.pos(p.Cond), []codeNode{declare(p.Cond.Name, g.tk.Switcher.New)})...)
			for _, b := range p.Cond.Branches {
				nodes = append(nodes, g.initWidget(b.Widget, tmpl, false)...)
			}
		}
		if p.Returned != nil && !p.Iterative {
			nodes = append(nodes, g.initProps(p.Returned.Props, tmpl)...)
		}
	}
	return nodes
}

// assignWidgets emits the properties of every widget: values, attached
// children and conditional containers.
func (g *generator) assignWidgets() []codeNode {
	var nodes []codeNode
	for _, w := range g.view.Widgets {
		nodes = append(nodes, g.assignProps(w.Name, w.Props)...)
	}
	return nodes
}

func (g *generator) assignProps(owner string, props []*model.Property) []codeNode {
	var nodes []codeNode
	for _, p := range props {
		nodes = append(nodes, at(g.pos(p), g.assignProp(owner, p))...)
	}
	return nodes
}

func (g *generator) assignProp(owner string, p *model.Property) []codeNode {
	switch p.Kind {
	case model.PropError:
		return []codeNode{{Kind: nodeKindError, Comment: p.Err.Message}}
	case model.PropValue, model.PropWatch, model.PropTrack:
		return g.applyValue(owner, p, g.capture)
	case model.PropWidget:
		child := p.Widget
		nodes := g.assignProps(child.Name, child.Props)
		if child.Attr == model.AttrTemplateChild {
			// already part of the template
			return nodes
		}
		return append(nodes, g.capture(p, g.attachCall(owner, p, child.Name), false)...)
	case model.PropConditional:
		return g.assignCond(owner, p)
	}
	return nil
}

// captureFunc emits a property call whose result may be captured as a
// returned widget.
type captureFunc func(p *model.Property, call string, inLoop bool) []codeNode

// discardResult is the capture used by updateView, which never rebinds
// returned widgets.
func discardResult(_ *model.Property, call string, _ bool) []codeNode {
	return []codeNode{stmt(call)}
}

// applyValue emits a value property. Optional values are nil-checked and
// iterated values are applied once per element.
func (g *generator) applyValue(owner string, p *model.Property, capture captureFunc) []codeNode {
	args := exprTexts(p.Args)
	call := func(v string) string {
		return p.Name.Call(owner, append([]string{v}, args...)...)
	}
	switch {
	case p.Iterative:
		item := g.temp(&g.item, "item")
		body := capture(p, call(item), true)
		if p.Optional {
			body = []codeNode{{Kind: nodeKindIf, Expr: item + " != nil", Children: body}}
		}
		return []codeNode{{Kind: nodeKindLoop, Var: item, Expr: p.Value.Text, Children: body}}
	case p.Optional:
		if p.Returned != nil {
			return []codeNode{g.invariant("returned widget %s of optional property %s", p.Returned.Name, p.Name)}
		}
		v := g.temp(&g.value, "value")
		return []codeNode{{Kind: nodeKindGuarded, Var: v, Expr: p.Value.Text, Children: []codeNode{stmt(call(v))}}}
	}
	return capture(p, call(p.Value.Text), false)
}

// capture binds the returned widget of p, if any, and emits its properties.
func (g *generator) capture(p *model.Property, call string, inLoop bool) []codeNode {
	r := p.Returned
	if r == nil {
		return []codeNode{stmt(call)}
	}
	if inLoop {
		return g.captureInLoop(r, call)
	}
	bound := r.Field || len(r.Props) > 0
	var nodes []codeNode
	switch {
	case r.Optional:
		name := r.Name
		if !bound {
			name = "_"
		}
		nodes = append(nodes, codeNode{
			Kind:    nodeKindBindChecked,
			Var:     name,
			OK:      g.view.Names.Fresh(r.Name + "OK"),
			Expr:    call,
			Comment: fmt.Sprintf("%s returned no widget", p.Name),
		})
	case bound:
		nodes = append(nodes, codeNode{Kind: nodeKindDeclare, Var: r.Name, Type: r.Type, Expr: call})
	default:
		nodes = append(nodes, stmt(call))
	}
	return append(nodes, g.assignProps(r.Name, r.Props)...)
}

// captureInLoop binds the returned widget of one iteration. It only lives
// for that iteration, so its signals are connected right here and it cannot
// take nested widgets.
func (g *generator) captureInLoop(r *model.ReturnedWidget, call string) []codeNode {
	if !r.Optional || r.Field {
		return []codeNode{g.invariant("returned widget %s of an iterated property must be optional and not kept", r.Name)}
	}
	if len(r.Props) == 0 {
		return []codeNode{stmt(call)}
	}
	var body []codeNode
	for _, p := range r.Props {
		switch p.Kind {
		case model.PropValue:
			body = append(body, g.applyValue(r.Name, p, g.capture)...)
		case model.PropSignal:
			if p.Handler.ID != nil {
				body = append(body, g.errorNode(p.Handler.ID, "handler %s cannot be kept: %s only exists inside the loop", p.Handler.ID.Name, r.Name))
				continue
			}
			body = append(body, g.connect(r.Name, p)...)
		case model.PropError:
			body = append(body, codeNode{Kind: nodeKindError, Comment: p.Err.Message})
		default:
			body = append(body, g.errorNode(p, "%s property %s is not supported on %s, which only exists inside the loop", p.Kind, p.Name, r.Name))
		}
	}
	return []codeNode{{Kind: nodeKindIfOK, Var: r.Name, OK: g.view.Names.Fresh(r.Name + "OK"), Expr: call, Children: body}}
}

// connectWidgets emits every signal connection outside loops, after all
// widgets have been assigned.
func (g *generator) connectWidgets() []codeNode {
	var nodes []codeNode
	for _, w := range g.view.Widgets {
		nodes = append(nodes, g.connectProps(w.Name, w.Props)...)
	}
	return nodes
}

func (g *generator) connectProps(owner string, props []*model.Property) []codeNode {
	var nodes []codeNode
	for _, p := range props {
		switch {
		case p.Kind == model.PropSignal:
			nodes = append(nodes, at(g.pos(p), g.connect(owner, p))...)
		case p.Widget != nil:
			nodes = append(nodes, g.connectProps(p.Widget.Name, p.Widget.Props)...)
		case p.Cond != nil:
			for _, b := range p.Cond.Branches {
				nodes = append(nodes, g.connectProps(b.Widget.Name, b.Widget.Props)...)
			}
		}
		if p.Returned != nil && !p.Iterative {
			nodes = append(nodes, g.connectProps(p.Returned.Name, p.Returned.Props)...)
		}
	}
	return nodes
}

// connect emits one signal connection. Captures are bound in a block of
// their own so that the handler sees copies taken at connection time.
func (g *generator) connect(owner string, p *model.Property) []codeNode {
	h := p.Handler
	call := p.Name.Call(owner, h.Expr.Text)
	if h.ID != nil {
		g.handlerOwner[h.ID.Name] = owner
	}
	if len(h.Captures) == 0 {
		if h.ID != nil {
			return []codeNode{declare(h.ID.Name, call)}
		}
		return []codeNode{stmt(call)}
	}

	var body []codeNode
	for _, c := range h.Captures {
		value := c.Name.Name
		if c.Value != nil {
			value = c.Value.Text
		}
		body = append(body, declare(c.Name.Name, value))
	}
	if h.ID == nil {
		body = append(body, stmt(call))
		return []codeNode{{Kind: nodeKindBlock, Children: body}}
	}
	body = append(body, codeNode{Kind: nodeKindAssign, Var: h.ID.Name, Expr: call})
	return []codeNode{
		{Kind: nodeKindVar, Var: h.ID.Name, Type: g.tk.HandlerType},
		{Kind: nodeKindBlock, Children: body},
	}
}

// updateWidgets emits the body of updateView: watched properties are
// re-applied, tracked ones when their guard holds, and conditionals switch
// to the branch that is now active.
func (g *generator) updateWidgets() []codeNode {
	var nodes []codeNode
	for _, w := range g.view.Widgets {
		nodes = append(nodes, g.updateProps(w.Name, w.Props)...)
	}
	return nodes
}

func (g *generator) updateProps(owner string, props []*model.Property) []codeNode {
	var nodes []codeNode
	for _, p := range props {
		switch {
		case p.Kind.Reactive():
			nodes = append(nodes, at(g.pos(p), g.updateValue(owner, p))...)
		case p.Widget != nil:
			nodes = append(nodes, g.updateProps(p.Widget.Name, p.Widget.Props)...)
		case p.Cond != nil:
			nodes = append(nodes, at(g.pos(p.Cond), g.updateCond(p.Cond))...)
			for _, b := range p.Cond.Branches {
				nodes = append(nodes, g.updateProps(b.Widget.Name, b.Widget.Props)...)
			}
		}
		if p.Returned != nil && !p.Iterative {
			nodes = append(nodes, g.updateProps(p.Returned.Name, p.Returned.Props)...)
		}
	}
	return nodes
}

func (g *generator) updateValue(owner string, p *model.Property) []codeNode {
	var body []codeNode
	if p.Kind == model.PropTrack && p.Tracker != nil && len(p.Tracker.Updates) > 0 {
		for _, u := range p.Tracker.Updates {
			body = append(body, stmt(u.Text))
		}
	} else {
		body = g.applyValue(owner, p, discardResult)
	}
	body = g.blockSignals(p, body)
	if p.Kind != model.PropTrack {
		return body
	}
	if p.Tracker == nil {
		return []codeNode{g.invariant("tracked property %s has no guard", p.Name)}
	}
	return []codeNode{{Kind: nodeKindIf, Expr: p.Tracker.Guard.Text, Children: body}}
}

// blockSignals surrounds body with the block and unblock calls for the
// handlers named by #[block_signal].
func (g *generator) blockSignals(p *model.Property, body []codeNode) []codeNode {
	if len(p.BlockSignals) == 0 {
		return body
	}
	block, unblock := callShape(g.tk.BlockHandler), callShape(g.tk.UnblockHandler)
	var before, after []codeNode
	for _, id := range p.BlockSignals {
		owner, ok := g.handlerOwner[id.Text]
		if !ok {
			before = append(before, g.invariant("unknown handler %s", id.Text))
			continue
		}
		before = append(before, stmt(block.Call(owner, id.Text)))
		after = append([]codeNode{stmt(unblock.Call(owner, id.Text))}, after...)
	}
	out := append(before, body...)
	return append(out, after...)
}
