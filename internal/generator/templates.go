package generator

import (
	"embed"
	"fmt"
	"sync"
	"text/template"
)

const (
	tmplFile  = "file"
	tmplView  = "view"
	tmplNodes = "nodes"
	tmplNode  = "node"
)

//go:embed templates/*.gtpl templates/nodes/*.gtpl
var templatesFS embed.FS

var (
	fileTmpl     *template.Template
	tmplInitOnce sync.Once
	tmplInitErr  error
)

// validateTemplates checks that the entry points and a node_<kind> template
// for every IR node kind are defined.
func validateTemplates(t *template.Template) error {
	for _, name := range []string{tmplFile, tmplView, tmplNodes, tmplNode} {
		if t.Lookup(name) == nil {
			return fmt.Errorf("required template %q not found", name)
		}
	}
	for _, kind := range nodeKinds {
		if t.Lookup("node_"+kind) == nil {
			return fmt.Errorf("no template for node kind %q", kind)
		}
	}
	return nil
}

// ensureTemplates parses and validates the templates exactly once.
func ensureTemplates() error {
	tmplInitOnce.Do(func() {
		t, err := template.New(tmplFile).ParseFS(templatesFS, "templates/*.gtpl", "templates/nodes/*.gtpl")
		if err == nil {
			err = validateTemplates(t)
		}
		fileTmpl, tmplInitErr = t, err
	})
	return tmplInitErr
}
