package generator

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/calumari/viewgen/internal/cache"
	"github.com/calumari/viewgen/internal/config"
)

const counterView = testHeader + `view Counter(model *Model) {
	toolkit.Window {
		toolkit.Label {
			#[watch] SetText: model.Text,
		},
	}
}
`

func testSettings() *config.Config {
	s := config.Default()
	goimports := false
	s.Goimports = &goimports
	s.Toolkit = testToolkit
	return s
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRun(t *testing.T) {
	t.Run("writes one file per view source", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "counter.view"), counterView)
		writeFile(t, filepath.Join(dir, "other.view"), testHeader+`view Other() { toolkit.Box {} }`)

		var stderr bytes.Buffer
		err := Run(Config{Dir: dir, Settings: testSettings(), Stderr: &stderr, Version: "test"})
		require.NoError(t, err)
		require.Empty(t, stderr.String())

		out, err := os.ReadFile(filepath.Join(dir, "counter_view.go"))
		require.NoError(t, err)
		require.Contains(t, string(out), "func initCounterView(model *Model) (*CounterWidgets, *toolkit.Window) {")
		require.FileExists(t, filepath.Join(dir, "other_view.go"))
	})

	t.Run("reports every broken file and writes none of them", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "good.view"), counterView)
		writeFile(t, filepath.Join(dir, "bad.view"), testHeader+`view Bad() { toolkit.Window {}, toolkit.Window {} }`)

		var stderr bytes.Buffer
		err := Run(Config{Dir: dir, Settings: testSettings(), Stderr: &stderr})
		require.EqualError(t, err, "1 of 2 view files have errors")
		require.Contains(t, stderr.String(), "ambiguous root")
		require.FileExists(t, filepath.Join(dir, "good_view.go"))
		require.NoFileExists(t, filepath.Join(dir, "bad_view.go"))
	})

	t.Run("explicit files", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "counter.view"), counterView)
		writeFile(t, filepath.Join(dir, "bad.view"), "not a view")

		err := Run(Config{Dir: dir, Files: []string{"counter.view"}, Settings: testSettings()})
		require.NoError(t, err)
		require.NoFileExists(t, filepath.Join(dir, "bad_view.go"))
	})

	t.Run("no view files", func(t *testing.T) {
		err := Run(Config{Dir: t.TempDir(), Settings: testSettings()})
		require.ErrorContains(t, err, "no .view files found")
	})

	t.Run("output suffix", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "counter.view"), counterView)
		s := testSettings()
		s.OutputSuffix = ".gen.go"

		require.NoError(t, Run(Config{Dir: dir, Settings: s}))
		require.FileExists(t, filepath.Join(dir, "counter.gen.go"))
	})
}

func TestRunCache(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "counter.view"), counterView)
	s := testSettings()
	s.Cache = "viewgen.cache"

	require.NoError(t, Run(Config{Dir: dir, Settings: s, Version: "test"}))
	out := filepath.Join(dir, "counter_view.go")
	first, err := os.ReadFile(out)
	require.NoError(t, err)

	// a cache hit restores the output without compiling
	require.NoError(t, os.Remove(out))
	require.NoError(t, Run(Config{Dir: dir, Settings: s, Version: "test"}))
	second, err := os.ReadFile(out)
	require.NoError(t, err)
	if diff := cmp.Diff(string(first), string(second)); diff != "" {
		t.Fatalf("cached output mismatch (-first +second):\n%s", diff)
	}

	// a new version misses
	require.NoError(t, Run(Config{Dir: dir, Settings: s, Version: "next"}))

	c, err := cache.Open(filepath.Join(dir, "viewgen.cache"))
	require.NoError(t, err)
	defer c.Close()
	n, err := c.Len()
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestRunCacheSkippedWhenResolvingTypes(t *testing.T) {
	dir := t.TempDir()
	// no imports, so nothing is loaded for type resolution
	writeFile(t, filepath.Join(dir, "box.view"), "package app\n\nview Box() { toolkit.Box {} }\n")
	s := testSettings()
	s.Cache = "viewgen.cache"
	s.ResolveTypes = true

	require.NoError(t, Run(Config{Dir: dir, Settings: s, Version: "test"}))
	require.FileExists(t, filepath.Join(dir, "box_view.go"))
	require.NoFileExists(t, filepath.Join(dir, "viewgen.cache"))
}

func TestDiscoverViews(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.view", "a.view", "c.go", "notes.txt"} {
		writeFile(t, filepath.Join(dir, name), "")
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.view"), 0o755))

	t.Run("all views of a directory, sorted", func(t *testing.T) {
		files, err := discoverViews(dir, nil)
		require.NoError(t, err)
		want := []string{filepath.Join(dir, "a.view"), filepath.Join(dir, "b.view")}
		if diff := cmp.Diff(want, files); diff != "" {
			t.Fatalf("files mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("explicit files resolve against the directory", func(t *testing.T) {
		abs := filepath.Join(t.TempDir(), "x.view")
		files, err := discoverViews(dir, []string{"b.view", abs})
		require.NoError(t, err)
		require.Equal(t, []string{filepath.Join(dir, "b.view"), abs}, files)
	})

	t.Run("explicit files must be views", func(t *testing.T) {
		_, err := discoverViews(dir, []string{"c.go"})
		require.ErrorContains(t, err, "is not a .view file")
	})
}

func TestOutputName(t *testing.T) {
	require.Equal(t, "ui/counter_view.go", outputName("ui/counter.view", "_view.go"))
	require.Equal(t, "counter.gen.go", outputName("counter.view", ".gen.go"))
}

func TestWriteIfChanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.go")
	require.NoError(t, writeIfChanged(path, []byte("package a\n")))

	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(path, old, old))

	t.Run("same content keeps the file untouched", func(t *testing.T) {
		require.NoError(t, writeIfChanged(path, []byte("package a\n")))
		info, err := os.Stat(path)
		require.NoError(t, err)
		require.True(t, info.ModTime().Equal(old))
	})

	t.Run("new content is written", func(t *testing.T) {
		require.NoError(t, writeIfChanged(path, []byte("package b\n")))
		got, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, "package b\n", string(got))
	})
}
