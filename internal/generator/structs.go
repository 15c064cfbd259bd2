package generator

import "github.com/calumari/viewgen/internal/model"

// structFields lists the fields of the widgets struct in pre-order: kept
// widgets and returned widgets, handler ids, and for every conditional its
// container and the discriminant of its active branch.
func (g *generator) structFields() []fieldModel {
	var fields []fieldModel
	model.Inspect(g.view.Widgets, func(n any) bool {
		switch n := n.(type) {
		case *model.Widget:
			if n.Field {
				fields = append(fields, fieldModel{Name: n.Name, Type: g.typeOf(n.Type(), n.Name)})
			}
		case *model.ReturnedWidget:
			if n.Field {
				fields = append(fields, fieldModel{Name: n.Name, Type: g.typeOf(n.Type, n.Name)})
			}
		case *model.Property:
			if n.Iterative {
				// returned widgets of iterated properties live in the loop
				return false
			}
			if h := n.Handler; h != nil && h.ID != nil {
				fields = append(fields, fieldModel{Name: h.ID.Name, Type: g.tk.HandlerType})
			}
		case *model.Conditional:
			fields = append(fields,
				fieldModel{Name: n.Name, Type: g.tk.Switcher.Type},
				fieldModel{Name: n.ActiveName(), Type: "string"},
			)
		}
		return true
	})
	return fields
}
