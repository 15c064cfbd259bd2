package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/calumari/viewgen/internal/diag"
	"github.com/calumari/viewgen/internal/syntax"
)

func build(t *testing.T, src string) *View {
	t.Helper()
	code := "package app\nimport \"example.com/toolkit\"\n" + src
	f, errs := syntax.Parse("t.view", []byte(code))
	require.NoError(t, errs.Err(diag.Source{Name: "t.view", Code: code}))
	views := Build(f, "widgets")
	require.Len(t, views, 1)
	return views[0]
}

func names(v *View) []string {
	var out []string
	Inspect(v.Widgets, func(n any) bool {
		switch n := n.(type) {
		case *Widget:
			out = append(out, n.Name)
		case *Conditional:
			out = append(out, n.Name)
		case *ReturnedWidget:
			out = append(out, n.Name)
		}
		return true
	})
	return out
}

func TestLowerCamel(t *testing.T) {
	cases := map[string]string{
		"Label":      "label",
		"HTTPServer": "httpServer",
		"URL":        "url",
		"label":      "label",
		"ListView":   "listView",
		"":           "",
	}
	for in, want := range cases {
		require.Equal(t, want, LowerCamel(in), in)
	}
}

func TestNames(t *testing.T) {
	n := NewNames()
	require.Equal(t, "label", n.Fresh("label"))
	require.Equal(t, "label1", n.Fresh("label"))
	require.Equal(t, "label2", n.Fresh("label"))
	require.Equal(t, "conditional0", n.Seq("conditional"))
	require.Equal(t, "conditional1", n.Seq("conditional"))
	require.Equal(t, "func1", n.Fresh("func"))
	require.Equal(t, "len1", n.Fresh("len"))
	n.Reserve("box")
	require.True(t, n.Taken("box"))
	require.Equal(t, "box1", n.Fresh("box"))
}

func TestPropNameCall(t *testing.T) {
	method := PropName{Kind: NameMethod, Path: "SetLabel"}
	require.Equal(t, `button.SetLabel("x")`, method.Call("button", `"x"`))

	path := PropName{Kind: NamePath, Path: "layout.SetMargin"}
	require.Equal(t, "layout.SetMargin(box, 4, 2)", path.Call("box", "4", "2"))

	container := ContainerName(diag.PointSpan(0))
	require.Panics(t, func() { container.Call("box", "label") })
	require.Equal(t, "box.Append(label)", container.Resolve("Append").Call("box", "label"))
	require.Equal(t, "toolkit.Add(box, label)", container.Resolve("toolkit.Add").Call("box", "label"))
}

func TestBuildConstructors(t *testing.T) {
	v := build(t, `view V() {
	toolkit.Window {
		toolkit.NewLabel("x") {},
		toolkit.NewBuilder().Build() -> *toolkit.Label {},
		toolkit.Default() {},
		#[local] header {},
		#[local_ref] model.Footer() -> *toolkit.Box {},
	}
}`)
	window := v.Widgets[0]
	require.Equal(t, FuncPath, window.Func.Kind)
	require.Equal(t, "toolkit.NewWindow()", window.Func.Call())
	require.Equal(t, "*toolkit.Window", window.Type())

	kids := make([]*Widget, 0, len(window.Props))
	for _, p := range window.Props {
		kids = append(kids, p.Widget)
	}

	require.Equal(t, FuncCall, kids[0].Func.Kind)
	require.Equal(t, "*toolkit.Label", kids[0].Type())
	require.Equal(t, "label", kids[0].Name)

	require.Equal(t, FuncChain, kids[1].Func.Kind)
	require.Equal(t, "*toolkit.Label", kids[1].Type())
	require.NotNil(t, kids[1].Func.TypeSpan)
	require.Equal(t, "label1", kids[1].Name)

	require.Equal(t, FuncCall, kids[2].Func.Kind)
	require.Equal(t, "", kids[2].Type())
	require.Equal(t, "widget", kids[2].Name)

	require.Equal(t, FuncLocal, kids[3].Func.Kind)
	require.Equal(t, "header", kids[3].Name)
	require.False(t, kids[3].NameAssigned)

	require.Equal(t, AttrLocalRef, kids[4].Attr)
	require.Equal(t, "box", kids[4].Name)
}

func TestBuildNames(t *testing.T) {
	t.Run("user names are avoided by synthesized ones", func(t *testing.T) {
		v := build(t, `view V(label string) {
	init {
		box := 1
	}
	toolkit.Box {
		toolkit.Label {},
		label2 := toolkit.Label {},
		toolkit.Box {},
		#[name(main)] toolkit.Label {},
	}
}`)
		want := []string{"box1", "label1", "label2", "box2", "main"}
		if diff := cmp.Diff(want, names(v)); diff != "" {
			t.Fatalf("names mismatch (-want +got):\n%s", diff)
		}
		require.Equal(t, []string{"label"}, v.ParamNames)
		require.Equal(t, "a view parameter", v.Reserved["label"])
		require.Equal(t, "an import", v.Reserved["toolkit"])
		require.Equal(t, "the update method receiver", v.Reserved["widgets"])
	})

	t.Run("conditionals and returned widgets", func(t *testing.T) {
		v := build(t, `view V() {
	toolkit.Notebook {
		AppendPage = toolkit.Label {} -> *toolkit.Page {},
		if a {
			toolkit.Label {}
		} else {
			toolkit.Spinner {}
		},
		#[name(pages)]
		switch mode {
			case 1: toolkit.Label {},
			default: toolkit.Label {},
		},
	}
}`)
		want := []string{"notebook", "label", "page", "conditional0", "label1", "spinner", "pages", "label2", "label3"}
		if diff := cmp.Diff(want, names(v)); diff != "" {
			t.Fatalf("names mismatch (-want +got):\n%s", diff)
		}
		require.True(t, v.Names.Taken("conditional0Active"))
		require.True(t, v.Names.Taken("pagesActive"))
	})
}

func TestBuildProperties(t *testing.T) {
	v := build(t, `view V() {
	toolkit.Button {
		#[watch] SetLabel: model.Label,
		#[track(model.Changed(), button.Refresh())] SetIcon: model.Icon,
		#[track = "model.Dirty"] SetState: model.State,
		#[iterate] AddClass?: model.Classes,
		#[watch, block_signal(toggled)] SetActive: model.Active,
		ConnectToggled => onToggle @toggled,
		#[wrap(Some)] SetChild = toolkit.Label {},
	}
}`)
	props := v.Widgets[0].Props
	require.Equal(t, PropWatch, props[0].Kind)

	require.Equal(t, PropTrack, props[1].Kind)
	require.Equal(t, "model.Changed()", props[1].Tracker.Guard.Text)
	require.Len(t, props[1].Tracker.Updates, 1)
	require.Equal(t, "button.Refresh()", props[1].Tracker.Updates[0].Text)

	require.Equal(t, PropTrack, props[2].Kind)
	require.Equal(t, "model.Dirty", props[2].Tracker.Guard.Text)
	require.Empty(t, props[2].Tracker.Updates)

	require.True(t, props[3].Iterative)
	require.True(t, props[3].Optional)

	require.Len(t, props[4].BlockSignals, 1)
	require.Equal(t, "toggled", props[4].BlockSignals[0].Text)

	require.Equal(t, PropSignal, props[5].Kind)
	require.Equal(t, "toggled", props[5].Handler.ID.Name)

	require.Equal(t, PropWidget, props[6].Kind)
	require.Equal(t, "Some", props[6].Wrap.Text)
	require.Equal(t, NameMethod, props[6].Name.Kind)
}

func TestBranchDiscriminants(t *testing.T) {
	v := build(t, `view V() {
	toolkit.Box {
		if a {
			toolkit.Label {}
		} else if b {
			toolkit.Button {}
		} else {
			toolkit.Spinner {}
		},
	}
}`)
	c := v.Widgets[0].Props[0].Cond
	require.Equal(t, NameContainer, v.Widgets[0].Props[0].Name.Kind)
	var got []string
	for _, b := range c.Branches {
		got = append(got, b.Discriminant())
	}
	require.Equal(t, []string{"0", "1", "2"}, got)
	require.Equal(t, "button", c.Branches[1].Widget.Name)
	require.True(t, c.HasDefault())
}

func TestInspectSkipsChildren(t *testing.T) {
	v := build(t, `view V() {
	toolkit.Box {
		toolkit.Box {
			toolkit.Label {},
		},
		toolkit.Button {},
	}
}`)
	var visited []string
	Inspect(v.Widgets, func(n any) bool {
		w, ok := n.(*Widget)
		if !ok {
			return true
		}
		visited = append(visited, w.Name)
		return w.Name != "box1"
	})
	require.Equal(t, []string{"box", "box1", "button"}, visited)
}
