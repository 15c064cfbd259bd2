package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("empty file yields defaults", func(t *testing.T) {
		c, err := Parse(nil)
		require.NoError(t, err)
		if diff := cmp.Diff(Default(), c); diff != "" {
			t.Fatalf("config mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("set values override defaults", func(t *testing.T) {
		c, err := Parse([]byte(`
output_suffix: .gen.go
goimports: false
jobs: 2
toolkit:
  container_add: toolkit.Add
  switcher:
    new: toolkit.NewStack()
    type: "*toolkit.Stack"
`))
		require.NoError(t, err)
		require.Equal(t, ".gen.go", c.OutputSuffix)
		require.False(t, c.UseGoimports())
		require.Equal(t, 2, c.Jobs)
		require.Equal(t, "toolkit.Add", c.Toolkit.ContainerAdd)
		require.Equal(t, "toolkit.NewStack()", c.Toolkit.Switcher.New)
		require.Equal(t, "AddNamed", c.Toolkit.Switcher.Add)
		require.Equal(t, "widgets", c.Receiver)
	})

	t.Run("unknown keys are rejected", func(t *testing.T) {
		_, err := Parse([]byte("output_sufix: x.go\n"))
		require.Error(t, err)
	})

	t.Run("bad receiver", func(t *testing.T) {
		_, err := Parse([]byte("receiver: 1w\n"))
		require.ErrorContains(t, err, "not a Go identifier")
	})

	t.Run("suffix must be a go file", func(t *testing.T) {
		_, err := Parse([]byte("output_suffix: _view.txt\n"))
		require.ErrorContains(t, err, "must end in .go")
	})
}

func TestLoad(t *testing.T) {
	t.Run("missing file in dir falls back to defaults", func(t *testing.T) {
		c, err := Load("", t.TempDir())
		require.NoError(t, err)
		require.Equal(t, Default(), c)
	})

	t.Run("explicit missing file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
		require.Error(t, err)
	})

	t.Run("file in dir is used", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("jobs: 9\n"), 0o644))
		c, err := Load("", dir)
		require.NoError(t, err)
		require.Equal(t, 9, c.Jobs)
	})
}
