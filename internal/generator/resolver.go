package generator

import (
	"fmt"
	"go/token"
	"go/types"

	"github.com/calumari/viewgen/internal/syntax"
)

// packageResolver infers the type of constructor calls by type-checking them
// against the imports of the view file.
type packageResolver struct {
	fset  *token.FileSet
	pkg   *types.Package
	local map[string]string // import path -> name used in the view file
}

func newPackageResolver(dir string, imps []*syntax.Import) (*packageResolver, error) {
	paths := make([]string, 0, len(imps))
	for _, im := range imps {
		paths = append(paths, im.Path)
	}
	pkgs, err := loadPackages(dir, paths...)
	if err != nil {
		return nil, err
	}
	byPath := make(map[string]*types.Package, len(pkgs))
	for _, p := range pkgs {
		byPath[p.PkgPath] = p.Types
	}

	r := &packageResolver{
		fset:  token.NewFileSet(),
		pkg:   types.NewPackage("viewgen.resolve", "resolve"),
		local: make(map[string]string),
	}
	scope := r.pkg.Scope()
	for _, im := range imps {
		tp := byPath[im.Path]
		if tp == nil {
			return nil, fmt.Errorf("package %s not loaded", im.Path)
		}
		name := tp.Name()
		if im.Name != nil {
			name = im.Name.Name
		}
		if name == "_" || name == "." {
			continue
		}
		scope.Insert(types.NewPkgName(token.NoPos, r.pkg, name, tp))
		r.local[tp.Path()] = name
	}
	return r, nil
}

// ResolveType type-checks expr and returns its type as written in the view
// file.
func (r *packageResolver) ResolveType(expr string) (string, error) {
	tv, err := types.Eval(r.fset, r.pkg, token.NoPos, expr)
	if err != nil {
		return "", err
	}
	if !tv.IsValue() {
		return "", fmt.Errorf("%s is not a value", expr)
	}
	if _, ok := tv.Type.(*types.Tuple); ok {
		return "", fmt.Errorf("%s returns more than one value", expr)
	}
	return types.TypeString(tv.Type, r.qualifier), nil
}

func (r *packageResolver) qualifier(p *types.Package) string {
	if name, ok := r.local[p.Path()]; ok {
		return name
	}
	return p.Name()
}
