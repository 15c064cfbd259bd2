package check

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calumari/viewgen/internal/diag"
	"github.com/calumari/viewgen/internal/model"
	"github.com/calumari/viewgen/internal/syntax"
)

func checkView(t *testing.T, src string, opts Options) (*model.View, []string) {
	t.Helper()
	code := "package app\nimport \"example.com/toolkit\"\n" + src
	f, errs := syntax.Parse("t.view", []byte(code))
	require.Equal(t, 0, errs.Len(), "unexpected parse errors")
	views := model.Build(f, "widgets")
	require.Len(t, views, 1)
	list := View(views[0], opts)
	var msgs []string
	for _, d := range list.Items() {
		msgs = append(msgs, d.Message)
	}
	return views[0], msgs
}

func requireMessage(t *testing.T, msgs []string, substr string) {
	t.Helper()
	for _, m := range msgs {
		if strings.Contains(m, substr) {
			return
		}
	}
	t.Fatalf("no diagnostic contains %q; got %q", substr, msgs)
}

func TestRoot(t *testing.T) {
	t.Run("single top-level widget is the root", func(t *testing.T) {
		v, msgs := checkView(t, `view V() { toolkit.Window {} }`, Options{})
		require.Empty(t, msgs)
		require.Same(t, v.Widgets[0], v.Root)
		require.True(t, v.Widgets[0].Root)
	})

	t.Run("several widgets without root are ambiguous", func(t *testing.T) {
		for _, n := range []int{2, 3} {
			src := "view V() {" + strings.Repeat(" toolkit.Window {},", n) + "}"
			v, msgs := checkView(t, src, Options{})
			require.Len(t, msgs, 1)
			requireMessage(t, msgs, "ambiguous root")
			require.Nil(t, v.Root)
		}
	})

	t.Run("explicit root among several", func(t *testing.T) {
		v, msgs := checkView(t, `view V() { toolkit.Popover {}, #[root] toolkit.Window {} }`, Options{})
		require.Empty(t, msgs)
		require.Same(t, v.Widgets[1], v.Root)
		require.False(t, v.Widgets[0].Root)
	})

	t.Run("two explicit roots", func(t *testing.T) {
		_, msgs := checkView(t, `view V() { #[root] toolkit.Window {}, #[root] toolkit.Window {} }`, Options{})
		require.Len(t, msgs, 1)
		requireMessage(t, msgs, "duplicate root")
	})

	t.Run("root attribute below the top level", func(t *testing.T) {
		_, msgs := checkView(t, `view V() { toolkit.Window { #[root] toolkit.Label {} } }`, Options{})
		requireMessage(t, msgs, "#[root] only applies to top-level widgets")
	})
}

func TestFieldMinimality(t *testing.T) {
	cases := []struct {
		name  string
		child string
		want  bool
	}{
		{"plain widget", `toolkit.Label { SetText: "x" }`, false},
		{"named with :=", `label := toolkit.Label {}`, true},
		{"named with attribute", `#[name(label)] toolkit.Label {}`, true},
		{"watched property", `toolkit.Label { #[watch] SetText: model.Text }`, true},
		{"tracked property", `toolkit.Label { #[track(model.Changed())] SetText: model.Text }`, true},
		{"reactive grandchild only", `toolkit.Box { toolkit.Label { #[watch] SetText: model.Text } }`, false},
		{"signal without id", `toolkit.Button { ConnectClicked => onClick }`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, msgs := checkView(t, "view V() { toolkit.Window { "+tc.child+" } }", Options{})
			require.Empty(t, msgs)
			child := v.Widgets[0].Props[0].Widget
			require.Equal(t, tc.want, child.Field)
			require.False(t, v.Widgets[0].Field)
		})
	}
}

func TestScenarioFields(t *testing.T) {
	v, msgs := checkView(t, `view V(model *Model) {
	toolkit.Window {
		toolkit.Box {
			toolkit.Button { ConnectClicked => func() {} },
			toolkit.Label { #[watch] SetText: model.Value },
		},
	}
}`, Options{})
	require.Empty(t, msgs)
	fields := map[string]bool{}
	model.Inspect(v.Widgets, func(n any) bool {
		if w, ok := n.(*model.Widget); ok {
			fields[w.Name] = w.Field
		}
		return true
	})
	require.Equal(t, map[string]bool{"window": false, "box": false, "button": false, "label": true}, fields)
}

func TestReturnedWidgets(t *testing.T) {
	t.Run("iterated property with a plain returned widget is rejected", func(t *testing.T) {
		_, msgs := checkView(t, `view V() { toolkit.Box { #[iterate] Append: items -> item } }`, Options{})
		requireMessage(t, msgs, "only be captured from an iterated property if it is optional and not kept")
	})

	t.Run("iterated property with an optional transient returned widget is fine", func(t *testing.T) {
		_, msgs := checkView(t, `view V() { toolkit.Box { #[iterate] Append: items -> *toolkit.Row? { SetVisible: true } } }`, Options{})
		require.Empty(t, msgs)
	})

	t.Run("iterated property with a kept optional returned widget is rejected", func(t *testing.T) {
		_, msgs := checkView(t, `view V() { toolkit.Box { #[iterate] Append: items -> item: *toolkit.Row? { #[watch] SetVisible: on } } }`, Options{})
		requireMessage(t, msgs, "iterated property")
	})

	t.Run("optional property cannot capture", func(t *testing.T) {
		_, msgs := checkView(t, `view V() { toolkit.Box { Append?: item -> row } }`, Options{})
		requireMessage(t, msgs, "cannot be captured from an optional property")
	})

	t.Run("a user named returned widget is kept", func(t *testing.T) {
		v, msgs := checkView(t, `view V() { toolkit.Notebook { AppendPage = toolkit.Label {} -> page: *toolkit.Page {} } }`, Options{})
		require.Empty(t, msgs)
		require.True(t, v.Widgets[0].Props[0].Returned.Field)
	})

	t.Run("a returned widget with only a type is transient", func(t *testing.T) {
		v, msgs := checkView(t, `view V() { toolkit.Notebook { AppendPage = toolkit.Label {} -> *toolkit.Page { SetTitle: "x" } } }`, Options{})
		require.Empty(t, msgs)
		r := v.Widgets[0].Props[0].Returned
		require.Equal(t, "page", r.Name)
		require.False(t, r.Field)
	})

	t.Run("kept returned widget needs a type", func(t *testing.T) {
		v, msgs := checkView(t, `view V() { toolkit.Notebook { AppendPage = toolkit.Label {} -> page { #[watch] SetTitle: t } } }`, Options{})
		requireMessage(t, msgs, "returned widget page needs a type")
		require.True(t, v.Widgets[0].Props[0].Returned.Field)
	})
}

func TestConstructorTypes(t *testing.T) {
	t.Run("method chain without type", func(t *testing.T) {
		_, msgs := checkView(t, `view V() { toolkit.Window { toolkit.NewBuilder().Build() {} } }`, Options{})
		require.Len(t, msgs, 1)
		requireMessage(t, msgs, "is a method chain and needs an explicit type")
	})

	t.Run("kept widget without a known type", func(t *testing.T) {
		_, msgs := checkView(t, `view V() { toolkit.Window { content := toolkit.Default() {} } }`, Options{})
		requireMessage(t, msgs, "cannot determine the type of widget content")
	})

	t.Run("resolver fills in the type", func(t *testing.T) {
		r := fakeResolver{"toolkit.Default()": "*toolkit.Box"}
		v, msgs := checkView(t, `view V() { toolkit.Window { content := toolkit.Default() {} } }`, Options{Resolver: r})
		require.Empty(t, msgs)
		require.Equal(t, "*toolkit.Box", v.Widgets[0].Props[0].Widget.Type())
	})

	t.Run("root needs a type", func(t *testing.T) {
		_, msgs := checkView(t, `view V() { #[local] win {} }`, Options{})
		requireMessage(t, msgs, "which is the root")
	})
}

type fakeResolver map[string]string

func (r fakeResolver) ResolveType(expr string) (string, error) {
	if t, ok := r[expr]; ok {
		return t, nil
	}
	return "", errors.New("unknown")
}

func TestAttributes(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"duplicate", `toolkit.Label { #[watch] #[watch] SetText: x }`, "duplicate attribute watch"},
		{"watch and track", `toolkit.Label { #[watch, track(g)] SetText: x }`, "conflicting attributes watch and track"},
		{"local and template", `#[local, template] w -> *toolkit.Box {}`, "conflicting attributes local and template"},
		{"watch on signal", `toolkit.Button { #[watch] ConnectClicked => f }`, "attribute watch does not apply to a signal handler"},
		{"watch on nested widget", `toolkit.Box { #[watch] SetChild = toolkit.Label {} }`, "attribute watch does not apply to a nested widget property"},
		{"iterate on child widget", `#[iterate] toolkit.Label {}`, "attribute iterate does not apply to a nested widget property"},
		{"watch on widget", `toolkit.Box { SetChild = #[watch] toolkit.Label {} }`, "attribute watch does not apply to a widget"},
		{"name without argument", `#[name] toolkit.Label {}`, "attribute name needs exactly one identifier"},
		{"track without guard", `toolkit.Label { #[track] SetText: x }`, "attribute track needs a guard expression"},
		{"root with argument", `#[root(x)] toolkit.Label {}`, "attribute root takes no arguments"},
		{"named twice", `#[name(b)] a := toolkit.Label {}`, "widget a is also named b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, msgs := checkView(t, "view V() { toolkit.Window { "+tc.src+" } }", Options{})
			requireMessage(t, msgs, tc.want)
		})
	}
}

func TestBindings(t *testing.T) {
	t.Run("template child outside template", func(t *testing.T) {
		_, msgs := checkView(t, `view V() { toolkit.Window { #[template_child] Header {} } }`, Options{})
		requireMessage(t, msgs, "template child Header is not inside a #[template] widget")
	})

	t.Run("template child inside template", func(t *testing.T) {
		_, msgs := checkView(t, `view V() { #[template] toolkit.Window { toolkit.Box { #[template_child] Header {} } } }`, Options{})
		require.Empty(t, msgs)
	})

	t.Run("local must be an identifier", func(t *testing.T) {
		_, msgs := checkView(t, `view V() { toolkit.Window { #[local] model.Label() {} } }`, Options{})
		requireMessage(t, msgs, "#[local] widget must name an existing variable")
	})
}

func TestConditionals(t *testing.T) {
	t.Run("if without else", func(t *testing.T) {
		_, msgs := checkView(t, `view V() { toolkit.Box { if a { toolkit.Label {} } } }`, Options{})
		requireMessage(t, msgs, "if widget conditional0 needs an else branch")
	})

	t.Run("switch without default", func(t *testing.T) {
		_, msgs := checkView(t, `view V() { toolkit.Box { #[name(pages)] switch m { case 1: toolkit.Label {}, } } }`, Options{})
		requireMessage(t, msgs, "switch widget pages needs a default case")
	})

	t.Run("transition attribute is accepted", func(t *testing.T) {
		v, msgs := checkView(t, `view V() { toolkit.Box { #[transition(toolkit.Crossfade)] if a { toolkit.Label {} } else { toolkit.Spinner {} } } }`, Options{})
		require.Empty(t, msgs)
		require.Equal(t, "toolkit.Crossfade", v.Widgets[0].Props[0].Cond.Transition.Text)
	})
}

func TestSignals(t *testing.T) {
	t.Run("unused capture", func(t *testing.T) {
		_, msgs := checkView(t, `view V() { toolkit.Button { ConnectClicked[sender, count = 1] => func() { sender.Send(x.count) } } }`, Options{})
		require.Len(t, msgs, 1)
		requireMessage(t, msgs, "capture count is not used by the handler")
	})

	t.Run("block_signal needs a known handler", func(t *testing.T) {
		_, msgs := checkView(t, `view V() { toolkit.Toggle { #[watch, block_signal(toggled)] SetActive: on } }`, Options{})
		requireMessage(t, msgs, "unknown handler toggled")
	})

	t.Run("block_signal on a plain property", func(t *testing.T) {
		_, msgs := checkView(t, `view V() { toolkit.Toggle { #[block_signal(toggled)] SetActive: on, ConnectToggled => f @toggled } }`, Options{})
		requireMessage(t, msgs, "only applies to watched or tracked properties")
	})

	t.Run("block_signal with handler", func(t *testing.T) {
		_, msgs := checkView(t, `view V() { toolkit.Toggle { #[watch, block_signal(toggled)] SetActive: on, ConnectToggled => f @toggled } }`, Options{})
		require.Empty(t, msgs)
	})

	t.Run("the widget owning a blocked handler is kept", func(t *testing.T) {
		v, msgs := checkView(t, `view V() {
	toolkit.Box {
		toolkit.Toggle { ConnectToggled => f @toggled },
		toolkit.Label { #[watch, block_signal(toggled)] SetText: text },
	}
}`, Options{})
		require.Empty(t, msgs)
		toggle := v.Widgets[0].Props[0].Widget
		require.Equal(t, "toggle", toggle.Name)
		require.True(t, toggle.Field)
	})

	t.Run("the kept owner of a blocked handler needs a type", func(t *testing.T) {
		_, msgs := checkView(t, `view V() {
	toolkit.Box {
		toolkit.NewBuilder().Build() -> *toolkit.Toggle { ConnectToggled => f @toggled },
		model.Switch() { ConnectToggled => g @switched },
		toolkit.Label { #[watch, block_signal(switched)] SetText: text },
	}
}`, Options{})
		require.Len(t, msgs, 1)
		requireMessage(t, msgs, "cannot determine the type of widget")
	})

	t.Run("a returned widget owning a blocked handler is kept", func(t *testing.T) {
		v, msgs := checkView(t, `view V() {
	toolkit.Notebook {
		AppendPage = toolkit.Label {} -> *toolkit.Page { ConnectClosed => f @closed },
		toolkit.Label { #[watch, block_signal(closed)] SetText: text },
	}
}`, Options{})
		require.Empty(t, msgs)
		require.True(t, v.Widgets[0].Props[0].Returned.Field)
	})
}

func TestNameCollisions(t *testing.T) {
	t.Run("duplicate user names", func(t *testing.T) {
		_, msgs := checkView(t, `view V() { toolkit.Box { a := toolkit.Label {}, a := toolkit.Label {} } }`, Options{})
		requireMessage(t, msgs, "duplicate name a")
	})

	t.Run("reserved names", func(t *testing.T) {
		_, msgs := checkView(t, `view V(model *Model) { toolkit.Box { model := toolkit.Label {}, widgets := toolkit.Label {}, toolkit := toolkit.Label {} } }`, Options{})
		requireMessage(t, msgs, "name model is reserved: it is a view parameter")
		requireMessage(t, msgs, "name widgets is reserved: it is the update method receiver")
		requireMessage(t, msgs, "name toolkit is reserved: it is an import")
	})

	t.Run("handler ids share the namespace", func(t *testing.T) {
		_, msgs := checkView(t, `view V() { clicked := toolkit.Button { ConnectClicked => f @clicked } }`, Options{})
		requireMessage(t, msgs, "duplicate name clicked")
	})
}

func TestBatchedDiagnostics(t *testing.T) {
	code := `package app
view V() {
	Box {
		Label { SetText: , SetVisible: true },
		Button { SetLabel "x" },
	}
}`
	f, errs := syntax.Parse("t.view", []byte(code))
	require.Equal(t, 0, errs.Len())
	views := model.Build(f, "widgets")
	list := View(views[0], Options{})
	require.Equal(t, 2, list.Len())
	for _, d := range list.Items() {
		require.Equal(t, diag.Syntax, d.Kind)
	}
}

func TestIdents(t *testing.T) {
	got := Idents(`func() { a.b(c); T{Key: d} }`)
	require.True(t, got["a"])
	require.True(t, got["c"])
	require.True(t, got["d"])
	require.True(t, got["T"])
	require.False(t, got["b"])
	require.False(t, got["Key"])

	stmts := StmtIdents("x := y.z\nprintln(x)")
	require.True(t, stmts["y"])
	require.False(t, stmts["z"])
}
