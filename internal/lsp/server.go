package lsp

import (
	"context"
	"encoding/json"
	"sync"

	lsp "github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/calumari/viewgen/internal/diag"
	"github.com/calumari/viewgen/internal/generator"
	"github.com/calumari/viewgen/internal/model"
)

var (
	errMethodNotFound = &jsonrpc2.Error{
		Code: jsonrpc2.CodeMethodNotFound, Message: "method not found"}
	errInvalidParams = &jsonrpc2.Error{
		Code: jsonrpc2.CodeInvalidParams, Message: "invalid params"}
)

type server struct {
	opts generator.Options

	mu      sync.Mutex
	content map[lsp.DocumentURI]string
}

func newServer(opts generator.Options) *server {
	opts.Goimports = false
	return &server{opts: opts, content: make(map[lsp.DocumentURI]string)}
}

func handler(s *server) jsonrpc2.Handler {
	return routingHandler(map[string]method{
		"initialize":                  s.initialize,
		"textDocument/didOpen":        s.didOpen,
		"textDocument/didChange":      s.didChange,
		"textDocument/didClose":       s.didClose,
		"textDocument/documentSymbol": s.documentSymbol,
		"shutdown":                    noop,
		"exit":                        exit,

		"initialized": noop,
		// Sent by clients even when the server does not advertise support.
		"workspace/didChangeWatchedFiles": noop,
	})
}

type method func(context.Context, jsonrpc2.JSONRPC2, json.RawMessage) (any, error)

func noop(_ context.Context, _ jsonrpc2.JSONRPC2, _ json.RawMessage) (any, error) {
	return nil, nil
}

func exit(_ context.Context, conn jsonrpc2.JSONRPC2, _ json.RawMessage) (any, error) {
	return nil, conn.Close()
}

func routingHandler(methods map[string]method) jsonrpc2.Handler {
	return jsonrpc2.HandlerWithError(func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
		fn, ok := methods[req.Method]
		if !ok {
			return nil, errMethodNotFound
		}
		var params json.RawMessage
		if req.Params != nil {
			params = *req.Params
		}
		return fn(ctx, conn, params)
	})
}

// Handler implementations. These are all called synchronously.

func (s *server) initialize(_ context.Context, _ jsonrpc2.JSONRPC2, _ json.RawMessage) (any, error) {
	return &lsp.InitializeResult{
		Capabilities: lsp.ServerCapabilities{
			TextDocumentSync: &lsp.TextDocumentSyncOptionsOrKind{
				Options: &lsp.TextDocumentSyncOptions{
					OpenClose: true,
					Change:    lsp.TDSKFull,
				},
			},
			DocumentSymbolProvider: true,
		},
	}, nil
}

func (s *server) didOpen(ctx context.Context, conn jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.DidOpenTextDocumentParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}
	uri, content := params.TextDocument.URI, params.TextDocument.Text
	s.setContent(uri, content)
	s.publishDiagnostics(ctx, conn, uri, content)
	return nil, nil
}

func (s *server) didChange(ctx context.Context, conn jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.DidChangeTextDocumentParams
	if json.Unmarshal(rawParams, &params) != nil || len(params.ContentChanges) == 0 {
		return nil, errInvalidParams
	}
	// Only full synchronization is advertised, so the last change holds the
	// whole text.
	uri, content := params.TextDocument.URI, params.ContentChanges[len(params.ContentChanges)-1].Text
	s.setContent(uri, content)
	s.publishDiagnostics(ctx, conn, uri, content)
	return nil, nil
}

func (s *server) didClose(ctx context.Context, conn jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.DidCloseTextDocumentParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}
	uri := params.TextDocument.URI
	s.mu.Lock()
	delete(s.content, uri)
	s.mu.Unlock()
	notify(ctx, conn, uri, []lsp.Diagnostic{})
	return nil, nil
}

func (s *server) documentSymbol(_ context.Context, _ jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.DocumentSymbolParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}
	uri := params.TextDocument.URI
	content, ok := s.getContent(uri)
	if !ok {
		return []lsp.SymbolInformation{}, nil
	}
	res, _ := generator.Compile(string(uri), []byte(content), s.opts)
	if res == nil {
		return []lsp.SymbolInformation{}, nil
	}
	return symbols(uri, content, res.Views), nil
}

func (s *server) setContent(uri lsp.DocumentURI, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content[uri] = content
}

func (s *server) getContent(uri lsp.DocumentURI) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.content[uri]
	return content, ok
}

func (s *server) publishDiagnostics(ctx context.Context, conn jsonrpc2.JSONRPC2, uri lsp.DocumentURI, content string) {
	notify(ctx, conn, uri, s.diagnostics(uri, content))
}

func notify(ctx context.Context, conn jsonrpc2.JSONRPC2, uri lsp.DocumentURI, diags []lsp.Diagnostic) {
	err := conn.Notify(ctx, "textDocument/publishDiagnostics",
		lsp.PublishDiagnosticsParams{URI: uri, Diagnostics: diags})
	if err != nil {
		logger.Printf("publish diagnostics of %s: %v", uri, err)
	}
}

// diagnostics compiles content without writing anything and converts the
// batched diagnostics.
func (s *server) diagnostics(uri lsp.DocumentURI, content string) []lsp.Diagnostic {
	_, err := generator.Compile(string(uri), []byte(content), s.opts)
	if err == nil {
		return []lsp.Diagnostic{}
	}
	report, ok := diag.Unpack(err)
	if !ok {
		return []lsp.Diagnostic{{
			Severity: lsp.Error,
			Source:   "viewgen",
			Message:  err.Error(),
		}}
	}
	diags := make([]lsp.Diagnostic, len(report.Entries))
	for i, d := range report.Entries {
		diags[i] = lsp.Diagnostic{
			Range:    lspRangeFromRange(content, d),
			Severity: lsp.Error,
			Source:   string(d.Kind),
			Message:  d.Message,
		}
	}
	return diags
}

// symbols lists every view and, inside it, every named thing the generated
// code declares.
func symbols(uri lsp.DocumentURI, content string, views []*model.View) []lsp.SymbolInformation {
	out := []lsp.SymbolInformation{}
	add := func(name string, kind lsp.SymbolKind, container string, r diag.Ranger) {
		out = append(out, lsp.SymbolInformation{
			Name:          name,
			Kind:          kind,
			Location:      lsp.Location{URI: uri, Range: lspRangeFromRange(content, r)},
			ContainerName: container,
		})
	}
	for _, v := range views {
		add(v.Name, lsp.SKClass, "", v)
		model.Inspect(v.Widgets, func(n any) bool {
			switch n := n.(type) {
			case *model.Widget:
				add(n.Name, widgetKind(n.Field), v.Name, n)
			case *model.ReturnedWidget:
				add(n.Name, widgetKind(n.Field), v.Name, n)
			case *model.Conditional:
				add(n.Name, lsp.SKField, v.Name, n)
			}
			return true
		})
	}
	return out
}

func widgetKind(field bool) lsp.SymbolKind {
	if field {
		return lsp.SKField
	}
	return lsp.SKVariable
}

func lspRangeFromRange(s string, r diag.Ranger) lsp.Range {
	rg := r.Range()
	return lsp.Range{
		Start: lspPositionFromIdx(s, rg.From),
		End:   lspPositionFromIdx(s, rg.To),
	}
}

func lspPositionFromIdx(s string, idx int) lsp.Position {
	var pos lsp.Position
	walkString(s, func(i int, p lsp.Position) bool {
		pos = p
		return i < idx
	})
	return pos
}

// walkString generates (index, position) pairs in s, stopping if f returns
// false. Characters are counted in UTF-16 code units.
func walkString(s string, f func(i int, p lsp.Position) bool) {
	var p lsp.Position
	lastCR := false

	for i, r := range s {
		if !f(i, p) {
			return
		}
		switch {
		case r == '\r':
			p.Line++
			p.Character = 0
		case r == '\n':
			if !lastCR {
				p.Line++
				p.Character = 0
			}
		case r <= 0xFFFF:
			p.Character++
		default:
			p.Character += 2
		}
		lastCR = r == '\r'
	}
	f(len(s), p)
}
