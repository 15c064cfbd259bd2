package generator

import (
	"github.com/calumari/viewgen/internal/check"
)

// bindFields prepends to the updateView body a local binding for every
// struct field the body refers to. Unreferenced fields are left unbound so
// that the method has no unused variables.
func (g *generator) bindFields(fields []fieldModel, body []codeNode) []codeNode {
	if len(body) == 0 {
		return nil
	}
	text, err := renderNodes(body)
	if err != nil {
		return append([]codeNode{g.invariant("render update body: %v", err)}, body...)
	}
	used := check.StmtIdents(text)
	var binds []codeNode
	for _, f := range fields {
		if used[f.Name] {
			binds = append(binds, declare(f.Name, g.opts.Receiver+"."+f.Name))
		}
	}
	return append(binds, body...)
}
