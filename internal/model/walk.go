package model

// Inspect traverses the widget trees in depth-first pre-order. fn is called
// with every *Widget, *Property, *Conditional, *Branch and *ReturnedWidget;
// if it returns false the children of that node are skipped.
//
// A property is visited before the widget or conditional it holds, and that
// subtree before the property's returned widget.
func Inspect(widgets []*Widget, fn func(node any) bool) {
	for _, w := range widgets {
		inspectWidget(w, fn)
	}
}

func inspectWidget(w *Widget, fn func(any) bool) {
	if !fn(w) {
		return
	}
	inspectProps(w.Props, fn)
}

func inspectProps(props []*Property, fn func(any) bool) {
	for _, p := range props {
		if !fn(p) {
			continue
		}
		if p.Widget != nil {
			inspectWidget(p.Widget, fn)
		}
		if c := p.Cond; c != nil && fn(c) {
			for _, b := range c.Branches {
				if fn(b) {
					inspectWidget(b.Widget, fn)
				}
			}
		}
		if r := p.Returned; r != nil && fn(r) {
			inspectProps(r.Props, fn)
		}
	}
}
