package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/calumari/viewgen/internal/cache"
	"github.com/calumari/viewgen/internal/config"
	"github.com/calumari/viewgen/internal/diag"
)

// Config holds the settings of a generation run.
type Config struct {
	Dir      string         // directory holding the view files
	Files    []string       // view files to compile; empty means all in Dir
	Settings *config.Config // viewgen.yaml with flag overrides applied
	Debug    bool           // emit source position comments
	Color    bool           // colour diagnostics
	Stderr   io.Writer      // where diagnostics are shown
	Command  string         // full invocation command line
	Version  string         // viewgen build version
}

// Run compiles the view files of cfg concurrently and writes the generated
// files next to them. Diagnostics of all files are shown before Run returns
// an error.
func Run(cfg Config) error {
	if cfg.Settings == nil {
		cfg.Settings = config.Default()
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	absDir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return err
	}
	files, err := discoverViews(absDir, cfg.Files)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no %s files found in %s", viewExt, absDir)
	}

	var c *cache.Cache
	switch {
	case cfg.Settings.Cache == "":
	case cfg.Settings.ResolveTypes:
		// resolved types depend on imported packages, which the key does not cover
		logger.Printf("cache %s not used: type resolution is on", cfg.Settings.Cache)
	default:
		path := cfg.Settings.Cache
		if !filepath.IsAbs(path) {
			path = filepath.Join(absDir, path)
		}
		if c, err = cache.Open(path); err != nil {
			return err
		}
		defer c.Close()
	}
	settings, err := yaml.Marshal(cfg.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	r := &runner{cfg: cfg, cache: c, settings: settings, dir: absDir}
	reports := make([]*diag.Error, len(files))
	eg, ctx := errgroup.WithContext(context.Background())
	eg.SetLimit(max(cfg.Settings.Jobs, 1))
	for i, file := range files {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			report, err := r.compileFile(file)
			reports[i] = report
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	failed := 0
	for _, report := range reports {
		if report == nil {
			continue
		}
		failed++
		diag.Show(cfg.Stderr, report, cfg.Color)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d view files have errors", failed, len(files))
	}
	return nil
}

type runner struct {
	cfg      Config
	cache    *cache.Cache
	settings []byte
	dir      string
}

func (r *runner) options() Options {
	s := r.cfg.Settings
	return Options{
		Toolkit:      s.Toolkit,
		Receiver:     s.Receiver,
		ResolveTypes: s.ResolveTypes,
		Dir:          r.dir,
		Debug:        r.cfg.Debug,
		Goimports:    s.UseGoimports(),
		Command:      r.cfg.Command,
		Version:      r.cfg.Version,
	}
}

// compileFile compiles one view file. Problems in the source are returned as
// a report; the error is reserved for failures of the run itself.
func (r *runner) compileFile(file string) (*diag.Error, error) {
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	out := outputName(file, r.cfg.Settings.OutputSuffix)
	name := r.displayName(file)

	var key []byte
	if r.cache != nil {
		key = cache.Key(src, []byte(name), r.settings, []byte(r.cfg.Version), []byte(r.cfg.Command), []byte(fmt.Sprint(r.cfg.Debug)))
		code, ok, err := r.cache.Get(key)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if ok {
			logger.Printf("%s: cache hit", name)
			return nil, writeIfChanged(out, code)
		}
		logger.Printf("%s: cache miss", name)
	}

	res, err := Compile(name, src, r.options())
	if report, ok := diag.Unpack(err); ok {
		return report, nil
	}
	if err != nil {
		return nil, err
	}
	if err := writeIfChanged(out, res.Code); err != nil {
		return nil, err
	}
	if r.cache != nil {
		if err := r.cache.Put(key, res.Code); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil, nil
}

// displayName is file relative to the working directory when possible.
func (r *runner) displayName(file string) string {
	wd, err := os.Getwd()
	if err != nil {
		return file
	}
	if rel, err := filepath.Rel(wd, file); err == nil {
		return rel
	}
	return file
}

// writeIfChanged writes code to path unless the file already holds it, so
// that unchanged outputs keep their modification time.
func writeIfChanged(path string, code []byte) error {
	old, err := os.ReadFile(path)
	if err == nil && bytes.Equal(old, code) {
		return nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, code, 0o644)
}
