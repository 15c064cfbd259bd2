package check

import (
	"go/token"

	"github.com/calumari/viewgen/internal/syntax"
)

// target is the kind of node an attribute list is attached to.
type target int

const (
	targetWidget target = iota
	targetValue
	targetSignal
	targetNested
	targetCondProp
	targetCond
)

var targetNames = [...]string{
	"a widget",
	"a value property",
	"a signal handler",
	"a nested widget property",
	"a conditional property",
	"a conditional widget",
}

var applicable = [...]map[string]bool{
	targetWidget:   {"root": true, "name": true, "local": true, "local_ref": true, "template": true, "template_child": true},
	targetValue:    {"watch": true, "track": true, "iterate": true, "block_signal": true},
	targetSignal:   {},
	targetNested:   {"wrap": true},
	targetCondProp: {"wrap": true},
	targetCond:     {"name": true, "transition": true},
}

// attrs checks that every attribute applies to t, appears once and has the
// right shape of arguments.
func (c *checker) attrs(attrs syntax.Attrs, t target) {
	seen := map[string]bool{}
	for _, a := range attrs {
		name := a.Name.Name
		if seen[name] {
			c.errorf(a, "duplicate attribute %s", name)
			continue
		}
		seen[name] = true
		if !applicable[t][name] {
			c.errorf(a, "attribute %s does not apply to %s", name, targetNames[t])
			continue
		}
		c.attrShape(a)
	}
}

func (c *checker) attrShape(a *syntax.Attr) {
	name := a.Name.Name
	switch name {
	case "name":
		if attrText(a) == "" || len(a.Args) > 1 || !token.IsIdentifier(attrText(a)) {
			c.errorf(a, "attribute name needs exactly one identifier")
		}
	case "track":
		if a.Value == nil && len(a.Args) == 0 {
			c.errorf(a, "attribute track needs a guard expression")
		}
	case "wrap", "transition":
		if a.Value != nil || len(a.Args) != 1 {
			c.errorf(a, "attribute %s needs exactly one argument", name)
		}
	case "block_signal":
		if a.Value != nil || len(a.Args) == 0 {
			c.errorf(a, "attribute block_signal needs at least one handler name")
		}
		for _, arg := range a.Args {
			if !token.IsIdentifier(arg.Text) {
				c.errorf(arg, "block_signal argument %s is not a handler name", arg.Text)
			}
		}
	default:
		if a.Value != nil || len(a.Args) > 0 {
			c.errorf(a, "attribute %s takes no arguments", name)
		}
	}
}

// attrText returns the single identifier-like argument of an attribute.
func attrText(a *syntax.Attr) string {
	switch {
	case a.Value != nil:
		return a.Value.Text
	case len(a.Args) > 0:
		return a.Args[0].Text
	}
	return ""
}
