package generator

import (
	"strconv"
	"strings"

	"github.com/calumari/viewgen/internal/model"
)

// assignCond fills the switcher container of a conditional widget: every
// branch is added under its discriminant up front, then the branch whose
// condition holds is selected and the container attached to its parent.
func (g *generator) assignCond(owner string, p *model.Property) []codeNode {
	c := p.Cond
	var nodes []codeNode
	for _, b := range c.Branches {
		nodes = append(nodes, g.assignProps(b.Widget.Name, b.Widget.Props)...)
	}
	if c.Transition != nil {
		nodes = append(nodes, stmt(callShape(g.tk.Switcher.Transition).Call(c.Name, c.Transition.Text)))
	}
	add := callShape(g.tk.Switcher.Add)
	for _, b := range c.Branches {
		nodes = append(nodes, stmt(add.Call(c.Name, b.Widget.Name, strconv.Quote(b.Discriminant()))))
	}
	active := c.ActiveName()
	nodes = append(nodes,
		codeNode{Kind: nodeKindVar, Var: active, Type: "string"},
		g.chooseBranch(c, active),
		stmt(callShape(g.tk.Switcher.Select).Call(c.Name, active)),
	)
	return append(nodes, g.capture(p, g.attachCall(owner, p, c.Name), false)...)
}

// chooseBranch emits a switch assigning the discriminant of the first
// matching branch to target.
func (g *generator) chooseBranch(c *model.Conditional, target string) codeNode {
	sw := codeNode{Kind: nodeKindSwitch}
	if c.Kind == model.CondSwitch && c.Tag != nil {
		sw.Expr = c.Tag.Text
	}
	for _, b := range c.Branches {
		cs := codeNode{
			Kind:     nodeKindCase,
			Default:  b.Default,
			Children: []codeNode{{Kind: nodeKindAssign, Var: target, Expr: strconv.Quote(b.Discriminant())}},
		}
		switch {
		case b.Default:
		case b.Cond != nil:
			cs.Expr = b.Cond.Text
		default:
			cs.Expr = strings.Join(exprTexts(b.Cases), ", ")
		}
		sw.Children = append(sw.Children, cs)
	}
	return sw
}

// updateCond re-evaluates the branches from the first one and switches the
// container when the active branch changed.
func (g *generator) updateCond(c *model.Conditional) []codeNode {
	active := g.temp(&g.active, "active")
	field := g.opts.Receiver + "." + c.ActiveName()
	changed := codeNode{
		Kind: nodeKindIf,
		Expr: active + " != " + field,
		Children: []codeNode{
			stmt(callShape(g.tk.Switcher.Select).Call(c.Name, active)),
			{Kind: nodeKindAssign, Var: field, Expr: active},
		},
	}
	return []codeNode{{
		Kind: nodeKindBlock,
		Children: []codeNode{
			{Kind: nodeKindVar, Var: active, Type: "string"},
			g.chooseBranch(c, active),
			changed,
		},
	}}
}
