// Package generator lowers checked view models to Go source and drives the
// compilation of .view files.
package generator

import (
	"fmt"
	"path/filepath"

	"github.com/calumari/viewgen/internal/check"
	"github.com/calumari/viewgen/internal/config"
	"github.com/calumari/viewgen/internal/diag"
	"github.com/calumari/viewgen/internal/logutil"
	"github.com/calumari/viewgen/internal/model"
	"github.com/calumari/viewgen/internal/syntax"
)

var logger = logutil.GetLogger("[generator] ")

// Options control the compilation of a single source.
type Options struct {
	Toolkit  config.Toolkit
	Receiver string
	// ResolveTypes loads the imported packages to infer the types of call
	// constructors. Dir is the directory the imports are resolved from.
	ResolveTypes bool
	Dir          string
	Debug        bool // emit source position comments
	Goimports    bool
	Command      string
	Version      string
}

func (o Options) withDefaults() Options {
	d := config.Default()
	if o.Receiver == "" {
		o.Receiver = d.Receiver
	}
	if o.Toolkit == (config.Toolkit{}) {
		o.Toolkit = d.Toolkit
	}
	if o.Dir == "" {
		o.Dir = "."
	}
	return o
}

// Result is the outcome of compiling one source. Code is produced on a best
// effort basis even when the source has errors.
type Result struct {
	Code  []byte
	File  *syntax.File
	Views []*model.View
}

// Compile parses, checks and generates the Go code for the views in src.
// Problems with the source are returned as a *diag.Error listing every
// diagnostic, together with a non-nil Result.
func Compile(name string, src []byte, opts Options) (*Result, error) {
	if err := ensureTemplates(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	source := diag.Source{Name: name, Code: string(src)}

	f, errs := syntax.Parse(name, src)
	views := model.Build(f, opts.Receiver)

	var resolver check.TypeResolver
	if opts.ResolveTypes && len(f.Imports) > 0 {
		r, err := newPackageResolver(opts.Dir, f.Imports)
		if err != nil {
			logger.Printf("%s: type resolution disabled: %v", name, err)
		} else {
			resolver = r
		}
	}

	data := fileModel{
		Package: f.Package.Name,
		Source:  filepath.Base(name),
		Command: opts.Command,
		Version: opts.Version,
	}
	for _, im := range f.Imports {
		m := importModel{Path: im.Path}
		if im.Name != nil {
			m.Name = im.Name.Name
		}
		data.Imports = append(data.Imports, m)
	}
	for _, v := range views {
		verrs := check.View(v, check.Options{Resolver: resolver})
		g := newGenerator(v, opts, source, errs.Len() == 0 && verrs.Len() == 0)
		data.Views = append(data.Views, g.buildViewModel())
		errs.Merge(verrs)
		errs.Merge(g.errs)
	}

	code, err := render(data)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	formatted, err := formatSource(outputName(name, ".go"), code, opts.Goimports)
	if err != nil {
		logger.Printf("%s: format: %v", name, err)
		if errs.Len() == 0 {
			errs.Addf(diag.Generate, diag.PointSpan(0), "generated code does not parse: %v", err)
		}
	} else {
		code = formatted
	}
	logger.Printf("%s: %d views, %d diagnostics", name, len(views), errs.Len())
	return &Result{Code: code, File: f, Views: views}, errs.Err(source)
}

// generator holds transient state while lowering one view.
type generator struct {
	view   *model.View
	opts   Options
	tk     config.Toolkit
	source diag.Source
	errs   *diag.List
	// strict is set when the view passed every check. Shapes the check pass
	// rejects are then programming errors and panic; otherwise they become
	// placeholders so that partial output can still be rendered.
	strict bool

	// handlerOwner maps handler ids to the widget whose signal they belong
	// to.
	handlerOwner map[string]string

	// temporaries, allocated on first use
	item, value, active string
}

func newGenerator(v *model.View, opts Options, src diag.Source, strict bool) *generator {
	return &generator{
		view:         v,
		opts:         opts,
		tk:           opts.Toolkit,
		source:       src,
		errs:         &diag.List{},
		strict:       strict,
		handlerOwner: make(map[string]string),
	}
}

// temp returns the temporary stored in slot, allocating it from the view's
// name allocator on first use.
func (g *generator) temp(slot *string, base string) string {
	if *slot == "" {
		*slot = g.view.Names.Fresh(base)
	}
	return *slot
}

// pos renders the position of r for debug comments.
func (g *generator) pos(r diag.Ranger) string {
	if !g.opts.Debug {
		return ""
	}
	p := diag.PositionOf(g.source.Code, r.Range().From)
	return fmt.Sprintf("%s:%d:%d", g.source.Name, p.Line, p.Column)
}

// errorNode reports a generation diagnostic and returns its placeholder.
func (g *generator) errorNode(r diag.Ranger, format string, args ...any) codeNode {
	msg := fmt.Sprintf(format, args...)
	g.errs.Addf(diag.Generate, r, "%s", msg)
	return codeNode{Kind: nodeKindError, Comment: msg}
}

// invariant handles a shape the check pass has already reported.
func (g *generator) invariant(format string, args ...any) codeNode {
	msg := fmt.Sprintf(format, args...)
	if g.strict {
		panic("viewgen: " + msg)
	}
	return codeNode{Kind: nodeKindError, Comment: msg}
}

// typeOf returns typ, or a placeholder when it is unknown.
func (g *generator) typeOf(typ, name string) string {
	if typ != "" {
		return typ
	}
	return "any " + placeholder(g.invariant("unknown type of %s", name))
}
