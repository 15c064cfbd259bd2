package generator

import (
	"strings"

	"github.com/calumari/viewgen/internal/diag"
	"github.com/calumari/viewgen/internal/model"
	"github.com/calumari/viewgen/internal/syntax"
)

// callShape turns a configured toolkit call into a property name, method
// style unless it names a package function.
func callShape(name string) model.PropName {
	return model.ContainerName(diag.Span{}).Resolve(name)
}

func stmt(code string) codeNode {
	return codeNode{Kind: nodeKindStmt, Code: code}
}

func declare(name, expr string) codeNode {
	return codeNode{Kind: nodeKindDeclare, Var: name, Expr: expr}
}

// placeholder renders an error node inline, for positions where a node
// cannot go.
func placeholder(n codeNode) string {
	return "/* viewgen: " + n.Comment + " */"
}

// at sets the debug position of the first node.
func at(pos string, nodes []codeNode) []codeNode {
	if pos != "" && len(nodes) > 0 {
		nodes[0].Pos = pos
	}
	return nodes
}

func exprTexts(exprs []syntax.Expr) []string {
	out := make([]string, len(exprs))
	for i, e := range exprs {
		out[i] = e.Text
	}
	return out
}

// wrap applies the #[wrap] function of p to a child expression.
func wrap(p *model.Property, child string) string {
	if p.Wrap == nil {
		return child
	}
	return p.Wrap.Text + "(" + child + ")"
}

// attachCall renders the call attaching child to owner through p.
func (g *generator) attachCall(owner string, p *model.Property, child string) string {
	args := append([]string{wrap(p, child)}, exprTexts(p.Args)...)
	return p.Name.Resolve(g.tk.ContainerAdd).Call(owner, args...)
}

// blank reports whether raw user code holds nothing but whitespace.
func blank(b *syntax.Block) bool {
	return b == nil || strings.TrimSpace(b.Text) == ""
}
