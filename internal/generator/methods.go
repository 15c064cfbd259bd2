package generator

import "strings"

// buildViewModel lowers the view into the init function and the updateView
// method.
func (g *generator) buildViewModel() viewModel {
	v := g.view
	vm := viewModel{
		Name:       v.Name,
		StructName: v.Name + "Widgets",
		InitName:   "init" + v.Name + "View",
		Receiver:   g.opts.Receiver,
		Params:     strings.TrimSpace(v.Params.Text),
	}
	if v.Root != nil {
		vm.RootName = v.Root.Name
		vm.RootType = g.typeOf(v.Root.Type(), v.Root.Name)
	} else {
		vm.RootName = "nil"
		vm.RootType = "any " + placeholder(g.invariant("view %s has no root", v.Name))
	}
	vm.Fields = g.structFields()

	if !blank(v.Init) {
		vm.Init = append(vm.Init, stmt(strings.TrimSpace(v.Init.Text)))
	}
	vm.Init = append(vm.Init, g.initWidgets()...)
	vm.Init = append(vm.Init, g.assignWidgets()...)
	vm.Init = append(vm.Init, g.connectWidgets()...)

	var update []codeNode
	if !blank(v.PreView) {
		update = append(update, stmt(strings.TrimSpace(v.PreView.Text)))
	}
	update = append(update, g.updateWidgets()...)
	if !blank(v.PostView) {
		update = append(update, stmt(strings.TrimSpace(v.PostView.Text)))
	}
	vm.Update = g.bindFields(vm.Fields, update)
	return vm
}
