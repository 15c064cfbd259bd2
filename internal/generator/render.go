package generator

import (
	"bytes"
	"go/format"

	"golang.org/x/tools/imports"
)

// render executes the file template.
func render(data fileModel) ([]byte, error) {
	if err := ensureTemplates(); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := fileTmpl.ExecuteTemplate(&out, tmplFile, data); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// renderNodes renders a statement list on its own, for analysis.
func renderNodes(nodes []codeNode) (string, error) {
	if err := ensureTemplates(); err != nil {
		return "", err
	}
	var out bytes.Buffer
	if err := fileTmpl.ExecuteTemplate(&out, tmplNodes, nodes); err != nil {
		return "", err
	}
	return out.String(), nil
}

// formatSource gofmts code, and with fixImports also adds missing and drops
// unused imports. filename locates the module the imports resolve in.
func formatSource(filename string, code []byte, fixImports bool) ([]byte, error) {
	if fixImports {
		return imports.Process(filename, code, &imports.Options{Comments: true, TabIndent: true, TabWidth: 8})
	}
	return format.Source(code)
}
