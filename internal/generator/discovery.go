package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"
)

// viewExt is the extension of view source files.
const viewExt = ".view"

// discoverViews returns the view files to compile: files, resolved against
// dir, or every .view file directly inside dir when files is empty.
func discoverViews(dir string, files []string) ([]string, error) {
	if len(files) > 0 {
		out := make([]string, 0, len(files))
		for _, f := range files {
			if !filepath.IsAbs(f) {
				f = filepath.Join(dir, f)
			}
			if filepath.Ext(f) != viewExt {
				return nil, fmt.Errorf("%s is not a %s file", f, viewExt)
			}
			out = append(out, f)
		}
		return out, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && filepath.Ext(e.Name()) == viewExt {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// outputName is the Go file generated for a view file.
func outputName(viewFile, suffix string) string {
	return strings.TrimSuffix(viewFile, viewExt) + suffix
}

// loadPackages loads the named packages as seen from dir.
func loadPackages(dir string, patterns ...string) ([]*packages.Package, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes | packages.NeedImports,
		Dir:  dir,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, err
	}
	var result []*packages.Package
	for _, p := range pkgs {
		if len(p.Errors) > 0 {
			return nil, p.Errors[0]
		}
		result = append(result, p)
	}
	return result, nil
}
