package syntax

import (
	"errors"
	"fmt"
	goparser "go/parser"
	"go/scanner"
	"go/token"
	"strconv"

	"github.com/calumari/viewgen/internal/diag"
)

// Attribute names understood by the parser.
var knownAttrs = map[string]bool{
	"root":           true,
	"name":           true,
	"local":          true,
	"local_ref":      true,
	"watch":          true,
	"track":          true,
	"iterate":        true,
	"template":       true,
	"template_child": true,
	"wrap":           true,
	"block_signal":   true,
	"transition":     true,
}

// propAttrs are the attributes that belong to the property rather than the
// widget when both are written in front of a container child.
var propAttrs = map[string]bool{
	"watch":        true,
	"track":        true,
	"iterate":      true,
	"wrap":         true,
	"block_signal": true,
}

// sections are the raw Go blocks allowed at the top of a view.
var sections = map[string]bool{"init": true, "preView": true, "postView": true}

// Parse parses a .view file.
//
// The returned file is never nil. Errors that can be pinned to a single
// property are kept in the tree as *BadProp values so that parsing continues
// with the siblings; every other error is returned in the list.
func Parse(name string, src []byte) (*File, *diag.List) {
	errs := &diag.List{}
	p := &parser{src: string(src), errs: errs}
	p.toks = Lex(name, src, errs)
	return p.file(), errs
}

type parser struct {
	src  string
	toks []Token
	pos  int
	errs *diag.List
}

func (p *parser) peek() Token { return p.peekAt(0) }

func (p *parser) peekAt(n int) Token {
	if i := p.pos + n; i < len(p.toks) {
		return p.toks[i]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() Token {
	t := p.toks[p.pos]
	if t.Tok != token.EOF {
		p.pos++
	}
	return t
}

// prevEnd returns the end offset of the last consumed token.
func (p *parser) prevEnd() int {
	if p.pos == 0 {
		return 0
	}
	return p.toks[p.pos-1].To
}

func (p *parser) at(tok token.Token) bool { return p.peek().Tok == tok }

func (p *parser) atIdent(name string) bool {
	t := p.peek()
	return t.Tok == token.IDENT && t.Lit == name
}

// atArrow reports whether the next tokens are an adjacent '-' '>'.
func (p *parser) atArrow() bool {
	a, b := p.peek(), p.peekAt(1)
	return a.Tok == token.SUB && b.Tok == token.GTR && a.To == b.From
}

// atFatArrow reports whether the next tokens are an adjacent '=' '>'.
func (p *parser) atFatArrow() bool {
	a, b := p.peek(), p.peekAt(1)
	return a.Tok == token.ASSIGN && b.Tok == token.GTR && a.To == b.From
}

func (p *parser) errorf(r diag.Ranger, format string, args ...any) *diag.Diagnostic {
	return diag.New(diag.Syntax, r, format, args...)
}

func (p *parser) expect(tok token.Token, what string) (Token, *diag.Diagnostic) {
	t := p.peek()
	if t.Tok != tok {
		return t, p.errorf(t, "expected %s, found %s", what, describe(t))
	}
	return p.next(), nil
}

func (p *parser) ident(what string) (Ident, *diag.Diagnostic) {
	t, d := p.expect(token.IDENT, what)
	if d != nil {
		return Ident{}, d
	}
	return Ident{Span: t.Span, Name: t.Lit}, nil
}

func describe(t Token) string {
	switch t.Tok {
	case token.EOF:
		return "end of file"
	case token.IDENT, token.INT, token.FLOAT, token.IMAG, token.CHAR, token.STRING:
		return strconv.Quote(t.Lit)
	}
	return "'" + t.Lit + "'"
}

func (p *parser) file() *File {
	f := &File{Span: diag.Span{From: 0, To: len(p.src)}}
	if _, d := p.expect(token.PACKAGE, "'package'"); d != nil {
		p.errs.Add(d)
	} else if id, d := p.ident("package name"); d != nil {
		p.errs.Add(d)
	} else {
		f.Package = id
	}

	for p.at(token.IMPORT) {
		if d := p.imports(f); d != nil {
			p.errs.Add(d)
			p.syncView()
		}
	}

	for !p.at(token.EOF) {
		if !p.atIdent("view") {
			p.errs.Add(p.errorf(p.peek(), "expected view declaration, found %s", describe(p.peek())))
			p.next()
			p.syncView()
			continue
		}
		v, d := p.view()
		if d != nil {
			p.errs.Add(d)
			p.syncView()
		}
		if v != nil {
			f.Views = append(f.Views, v)
		}
	}
	return f
}

func (p *parser) imports(f *File) *diag.Diagnostic {
	p.next()
	if !p.at(token.LPAREN) {
		return p.importSpec(f)
	}
	p.next()
	for !p.at(token.RPAREN) {
		if p.at(token.EOF) {
			return p.errorf(p.peek(), "expected ')', found end of file")
		}
		if d := p.importSpec(f); d != nil {
			return d
		}
	}
	p.next()
	return nil
}

func (p *parser) importSpec(f *File) *diag.Diagnostic {
	im := &Import{}
	start := p.peek()
	if p.at(token.IDENT) {
		id := p.next()
		im.Name = &Ident{Span: id.Span, Name: id.Lit}
	}
	t, d := p.expect(token.STRING, "import path")
	if d != nil {
		return d
	}
	path, err := strconv.Unquote(t.Lit)
	if err != nil || path == "" {
		return p.errorf(t, "invalid import path %s", t.Lit)
	}
	im.Path = path
	im.Span = diag.Span{From: start.From, To: t.To}
	f.Imports = append(f.Imports, im)
	return nil
}

// syncView skips to the next token that looks like the start of a view
// declaration.
func (p *parser) syncView() {
	for !p.at(token.EOF) {
		if p.atIdent("view") && p.peekAt(1).Tok == token.IDENT && p.peekAt(2).Tok == token.LPAREN {
			return
		}
		p.next()
	}
}

func (p *parser) view() (*View, *diag.Diagnostic) {
	start := p.next()
	name, d := p.ident("view name")
	if d != nil {
		return nil, d
	}
	v := &View{Name: name}
	if !p.at(token.LPAREN) {
		return nil, p.errorf(p.peek(), "expected '(', found %s", describe(p.peek()))
	}
	params, d := p.balanced(token.RPAREN, "')'")
	if d != nil {
		return nil, d
	}
	if d := validateParams(params.Text, params.From); d != nil {
		p.errs.Add(d)
	}
	v.Params = Expr(params)
	if _, d := p.expect(token.LBRACE, "'{'"); d != nil {
		return nil, d
	}

	for p.at(token.IDENT) && sections[p.peek().Lit] && p.peekAt(1).Tok == token.LBRACE {
		kw := p.next()
		body, d := p.balanced(token.RBRACE, "'}'")
		if d != nil {
			return v, d
		}
		if d := validateStmts(body.Text, body.From); d != nil {
			p.errs.Add(d)
		}
		b := &body
		var slot **Block
		switch kw.Lit {
		case "init":
			slot = &v.Init
		case "preView":
			slot = &v.PreView
		default:
			slot = &v.PostView
		}
		if *slot != nil {
			p.errs.Add(p.errorf(kw, "duplicate %s section", kw.Lit))
		}
		*slot = b
	}

	for !p.at(token.RBRACE) {
		if p.at(token.EOF) {
			return v, p.errorf(p.peek(), "expected '}', found end of file")
		}
		w, d := p.widget()
		if d != nil {
			p.errs.Add(d)
			p.skipProp()
		} else {
			v.Widgets = append(v.Widgets, w)
		}
		if p.at(token.COMMA) {
			p.next()
			continue
		}
		if !p.at(token.RBRACE) && !p.at(token.EOF) {
			p.errs.Add(p.errorf(p.peek(), "expected ',' or '}' after widget, found %s", describe(p.peek())))
			p.skipProp()
		}
	}
	end := p.next()
	v.Span = diag.Span{From: start.From, To: end.To}
	return v, nil
}

// balanced consumes an opening bracket and everything up to its matching
// closing bracket, returning the text in between.
func (p *parser) balanced(closing token.Token, what string) (Block, *diag.Diagnostic) {
	open := p.next()
	depth := 1
	for {
		t := p.peek()
		switch t.Tok {
		case token.EOF:
			return Block{}, p.errorf(open, "unclosed '%s', expected %s", open.Lit, what)
		case token.LPAREN, token.LBRACK, token.LBRACE:
			depth++
		case token.RPAREN, token.RBRACK, token.RBRACE:
			depth--
		}
		if depth == 0 {
			// A mismatched closer is left for the enclosing list to see.
			if t.Tok != closing {
				return Block{}, p.errorf(t, "expected %s, found %s", what, describe(t))
			}
			end := p.next()
			span := diag.Span{From: open.To, To: end.From}
			return Block{Span: span, Text: p.src[span.From:span.To]}, nil
		}
		p.next()
	}
}

// skipProp skips to the ',' or '}' that ends the current list element.
// Stray closing parentheses and brackets are consumed.
func (p *parser) skipProp() {
	depth := 0
	for {
		t := p.peek()
		switch t.Tok {
		case token.EOF:
			return
		case token.COMMA:
			if depth == 0 {
				return
			}
		case token.LPAREN, token.LBRACK, token.LBRACE:
			depth++
		case token.RBRACE:
			if depth == 0 {
				return
			}
			depth--
		case token.RPAREN, token.RBRACK:
			if depth > 0 {
				depth--
			}
		}
		p.next()
	}
}

func (p *parser) attrs() (Attrs, *diag.Diagnostic) {
	var attrs Attrs
	for p.peek().is("#") {
		p.next()
		if _, d := p.expect(token.LBRACK, "'[' after '#'"); d != nil {
			return nil, d
		}
		for {
			a, d := p.attr()
			if d != nil {
				return nil, d
			}
			attrs = append(attrs, a)
			if !p.at(token.COMMA) {
				break
			}
			p.next()
		}
		if _, d := p.expect(token.RBRACK, "']'"); d != nil {
			return nil, d
		}
	}
	return attrs, nil
}

func (p *parser) attr() (*Attr, *diag.Diagnostic) {
	name, d := p.ident("attribute name")
	if d != nil {
		return nil, d
	}
	if !knownAttrs[name.Name] {
		return nil, p.errorf(name, "unknown attribute %q", name.Name)
	}
	a := &Attr{Name: name}
	switch {
	case p.at(token.ASSIGN):
		p.next()
		t, d := p.expect(token.STRING, "string after '='")
		if d != nil {
			return nil, d
		}
		text, err := strconv.Unquote(t.Lit)
		if err != nil {
			return nil, p.errorf(t, "invalid string %s", t.Lit)
		}
		span := t.Span
		if len(text) == len(t.Lit)-2 {
			span = diag.Span{From: t.From + 1, To: t.To - 1}
		}
		if d := validate(text, span.From, span); d != nil {
			return nil, d
		}
		a.Value = &Expr{Span: span, Text: text}
		if name.Name == "track" {
			// #[track = "guard", update, ...]
			for p.at(token.COMMA) && !p.attrAt(1) {
				p.next()
				e, d := p.expr(func() bool { return p.at(token.COMMA) })
				if d != nil {
					return nil, d
				}
				a.Args = append(a.Args, e)
			}
		}
	case p.at(token.LPAREN):
		p.next()
		for !p.at(token.RPAREN) {
			e, d := p.expr(func() bool { return p.at(token.COMMA) })
			if d != nil {
				return nil, d
			}
			a.Args = append(a.Args, e)
			if !p.at(token.COMMA) {
				break
			}
			p.next()
		}
		if _, d := p.expect(token.RPAREN, "')'"); d != nil {
			return nil, d
		}
	}
	a.Span = diag.Span{From: name.From, To: p.prevEnd()}
	return a, nil
}

// attrAt reports whether the n-th token ahead starts another attribute of
// the list.
func (p *parser) attrAt(n int) bool {
	t := p.peekAt(n)
	if t.Tok != token.IDENT || !knownAttrs[t.Lit] {
		return false
	}
	switch p.peekAt(n + 1).Tok {
	case token.COMMA, token.RBRACK, token.LPAREN, token.ASSIGN:
		return true
	}
	return false
}

func (p *parser) widget() (*Widget, *diag.Diagnostic) {
	start := p.peek()
	attrs, d := p.attrs()
	if d != nil {
		return nil, d
	}
	return p.widgetAfterAttrs(start, attrs)
}

func (p *parser) widgetAfterAttrs(start Token, attrs Attrs) (*Widget, *diag.Diagnostic) {
	w := &Widget{Attrs: attrs}
	if p.at(token.IDENT) && p.peekAt(1).Tok == token.DEFINE {
		id := p.next()
		p.next()
		w.Name = &Ident{Span: id.Span, Name: id.Lit}
	}
	ctor, d := p.ctor()
	if d != nil {
		return nil, d
	}
	w.Ctor = ctor
	if p.atArrow() {
		p.next()
		p.next()
		typ, d := p.expr(func() bool { return p.at(token.LBRACE) || p.at(token.COMMA) })
		if d != nil {
			return nil, d
		}
		w.Type = &typ
	}
	if _, d := p.expect(token.LBRACE, "'{' after widget constructor"); d != nil {
		return nil, d
	}
	props, d := p.props()
	if d != nil {
		return nil, d
	}
	w.Props = props
	w.Span = diag.Span{From: start.From, To: p.prevEnd()}
	return w, nil
}

// ctor parses a constructor: an identifier followed by any number of
// selectors, calls and index expressions.
func (p *parser) ctor() (Expr, *diag.Diagnostic) {
	first := p.peek()
	if first.Tok != token.IDENT {
		return Expr{}, p.errorf(first, "expected widget constructor, found %s", describe(first))
	}
	p.next()
loop:
	for {
		switch {
		case p.at(token.PERIOD) && p.peekAt(1).Tok == token.IDENT:
			p.next()
			p.next()
		case p.at(token.LPAREN):
			if _, d := p.balanced(token.RPAREN, "')'"); d != nil {
				return Expr{}, d
			}
		case p.at(token.LBRACK):
			if _, d := p.balanced(token.RBRACK, "']'"); d != nil {
				return Expr{}, d
			}
		default:
			break loop
		}
	}
	span := diag.Span{From: first.From, To: p.prevEnd()}
	text := p.src[span.From:span.To]
	if d := validate(text, span.From, span); d != nil {
		return Expr{}, d
	}
	return Expr{Span: span, Text: text}, nil
}

// props parses properties up to and including the closing '}'.
func (p *parser) props() ([]Prop, *diag.Diagnostic) {
	var props []Prop
	for !p.at(token.RBRACE) {
		if p.at(token.EOF) {
			return nil, p.errorf(p.peek(), "expected '}', found end of file")
		}
		props = append(props, p.prop())
		if p.at(token.COMMA) {
			p.next()
			continue
		}
		if !p.at(token.RBRACE) && !p.at(token.EOF) {
			junk := p.peek()
			d := p.errorf(junk, "expected ',' or '}' after property, found %s", describe(junk))
			p.skipProp()
			props = append(props, &BadProp{Span: diag.Span{From: junk.From, To: p.prevEnd()}, Err: d})
		}
	}
	p.next()
	return props, nil
}

// prop parses one property, turning a failure into a *BadProp and skipping
// to the end of the property.
func (p *parser) prop() Prop {
	start := p.pos
	prop, d := p.tryProp()
	if d == nil {
		return prop
	}
	p.pos = start
	p.skipProp()
	from := p.toks[start].From
	return &BadProp{Span: diag.Span{From: from, To: max(from, p.prevEnd())}, Err: d}
}

func (p *parser) tryProp() (Prop, *diag.Diagnostic) {
	start := p.peek()
	attrs, d := p.attrs()
	if d != nil {
		return nil, d
	}
	switch {
	case p.at(token.IF) || p.at(token.SWITCH):
		c, d := p.cond(start, attrs)
		if d != nil {
			return nil, d
		}
		return &WidgetProp{Span: c.Span, Cond: c}, nil
	case p.at(token.IDENT) && p.peekAt(1).Tok == token.DEFINE:
		return p.childWidget(start, attrs)
	case p.at(token.IDENT):
		i := 1
		for p.peekAt(i).Tok == token.PERIOD && p.peekAt(i+1).Tok == token.IDENT {
			i += 2
		}
		switch after := p.peekAt(i); {
		case after.Tok == token.COLON, after.Tok == token.LBRACK, after.Tok == token.ASSIGN, after.is("?"):
			return p.namedProp(start, attrs)
		}
		return p.childWidget(start, attrs)
	}
	return nil, p.errorf(p.peek(), "expected property, found %s", describe(p.peek()))
}

// childWidget parses a widget added with the container call. Attributes
// written in front of it are split between the property and the widget.
func (p *parser) childWidget(start Token, attrs Attrs) (Prop, *diag.Diagnostic) {
	var own, widgetAttrs Attrs
	for _, a := range attrs {
		if propAttrs[a.Name.Name] {
			own = append(own, a)
		} else {
			widgetAttrs = append(widgetAttrs, a)
		}
	}
	w, d := p.widgetAfterAttrs(start, widgetAttrs)
	if d != nil {
		return nil, d
	}
	prop := &WidgetProp{Attrs: own, Widget: w}
	if p.atArrow() {
		if prop.Returned, d = p.returned(); d != nil {
			return nil, d
		}
	}
	prop.Span = diag.Span{From: start.From, To: p.prevEnd()}
	return prop, nil
}

func (p *parser) propName() PropName {
	first := p.next()
	n := PropName{Path: []Ident{{Span: first.Span, Name: first.Lit}}}
	for p.at(token.PERIOD) && p.peekAt(1).Tok == token.IDENT {
		p.next()
		t := p.next()
		n.Path = append(n.Path, Ident{Span: t.Span, Name: t.Lit})
	}
	n.Span = diag.Span{From: first.From, To: p.prevEnd()}
	return n
}

// item is a token index range [from, to) inside a bracket list.
type item struct{ from, to int }

func (p *parser) bracketItems() ([]item, *diag.Diagnostic) {
	open := p.next()
	var items []item
	for !p.at(token.RBRACK) {
		if p.at(token.EOF) {
			return nil, p.errorf(open, "unclosed '['")
		}
		from := p.pos
		to := p.scan(func() bool { return p.at(token.COMMA) })
		if from == to {
			return nil, p.errorf(p.peek(), "expected expression, found %s", describe(p.peek()))
		}
		items = append(items, item{from, to})
		if !p.at(token.COMMA) {
			break
		}
		p.next()
	}
	if _, d := p.expect(token.RBRACK, "']'"); d != nil {
		return nil, d
	}
	return items, nil
}

func (p *parser) namedProp(start Token, attrs Attrs) (Prop, *diag.Diagnostic) {
	name := p.propName()
	var items []item
	if p.at(token.LBRACK) {
		var d *diag.Diagnostic
		if items, d = p.bracketItems(); d != nil {
			return nil, d
		}
	}

	switch {
	case p.atFatArrow():
		prop := &SignalProp{Attrs: attrs, Name: name}
		for _, it := range items {
			c, d := p.capture(it)
			if d != nil {
				return nil, d
			}
			prop.Captures = append(prop.Captures, c)
		}
		p.next()
		p.next()
		h, d := p.expr(func() bool { return p.at(token.COMMA) || p.peek().is("@") })
		if d != nil {
			return nil, d
		}
		prop.Handler = h
		if p.peek().is("@") {
			p.next()
			id, d := p.ident("handler name after '@'")
			if d != nil {
				return nil, d
			}
			prop.HandlerID = &id
		}
		prop.Span = diag.Span{From: start.From, To: p.prevEnd()}
		return prop, nil

	case p.at(token.ASSIGN):
		p.next()
		args, d := p.exprItems(items)
		if d != nil {
			return nil, d
		}
		prop := &WidgetProp{Attrs: attrs, Name: &name, Args: args}
		inner := p.peek()
		innerAttrs, d := p.attrs()
		if d != nil {
			return nil, d
		}
		if p.at(token.IF) || p.at(token.SWITCH) {
			prop.Cond, d = p.cond(inner, innerAttrs)
		} else {
			prop.Widget, d = p.widgetAfterAttrs(inner, innerAttrs)
		}
		if d != nil {
			return nil, d
		}
		if p.atArrow() {
			if prop.Returned, d = p.returned(); d != nil {
				return nil, d
			}
		}
		prop.Span = diag.Span{From: start.From, To: p.prevEnd()}
		return prop, nil
	}

	args, d := p.exprItems(items)
	if d != nil {
		return nil, d
	}
	prop := &ValueProp{Attrs: attrs, Name: name, Args: args}
	if p.peek().is("?") {
		p.next()
		prop.Optional = true
	}
	if _, d := p.expect(token.COLON, "':', '=' or '=>' after property name"); d != nil {
		return nil, d
	}
	if prop.Value, d = p.expr(func() bool { return p.at(token.COMMA) || p.atArrow() }); d != nil {
		return nil, d
	}
	if p.atArrow() {
		if prop.Returned, d = p.returned(); d != nil {
			return nil, d
		}
	}
	prop.Span = diag.Span{From: start.From, To: p.prevEnd()}
	return prop, nil
}

func (p *parser) capture(it item) (*Capture, *diag.Diagnostic) {
	first := p.toks[it.from]
	if first.Tok != token.IDENT {
		return nil, p.errorf(first, "capture must be an identifier or name = expression")
	}
	c := &Capture{Name: Ident{Span: first.Span, Name: first.Lit}}
	switch {
	case it.to-it.from == 1:
	case p.toks[it.from+1].Tok == token.ASSIGN:
		e, d := p.exprRange(it.from+2, it.to)
		if d != nil {
			return nil, d
		}
		c.Value = &e
	default:
		return nil, p.errorf(p.toks[it.from+1], "capture must be an identifier or name = expression")
	}
	c.Span = diag.Span{From: first.From, To: p.toks[it.to-1].To}
	return c, nil
}

func (p *parser) exprItems(items []item) ([]Expr, *diag.Diagnostic) {
	var out []Expr
	for _, it := range items {
		e, d := p.exprRange(it.from, it.to)
		if d != nil {
			return nil, d
		}
		out = append(out, e)
	}
	return out, nil
}

func (p *parser) returned() (*Returned, *diag.Diagnostic) {
	arrow := p.next()
	p.next()
	r := &Returned{}
	if p.at(token.IDENT) && p.peekAt(1).Tok != token.PERIOD && p.peekAt(1).Tok != token.LBRACK {
		id := p.next()
		r.Name = &Ident{Span: id.Span, Name: id.Lit}
	}
	typeStop := func() bool {
		return p.at(token.LBRACE) || p.at(token.COMMA) || p.peek().is("?")
	}
	switch {
	case p.at(token.COLON):
		p.next()
		fallthrough
	case r.Name == nil && !typeStop() && !p.at(token.RBRACE):
		typ, d := p.expr(typeStop)
		if d != nil {
			return nil, d
		}
		r.Type = &typ
	}
	if p.peek().is("?") {
		p.next()
		r.Optional = true
	}
	if p.at(token.LBRACE) {
		p.next()
		props, d := p.props()
		if d != nil {
			return nil, d
		}
		r.Props = props
	}
	r.Span = diag.Span{From: arrow.From, To: p.prevEnd()}
	return r, nil
}

func (p *parser) cond(start Token, attrs Attrs) (*Cond, *diag.Diagnostic) {
	c := &Cond{Attrs: attrs}
	var d *diag.Diagnostic
	if p.at(token.IF) {
		c.Kind = CondIf
		d = p.ifChain(c)
	} else {
		c.Kind = CondSwitch
		d = p.switchArms(c)
	}
	if d != nil {
		return nil, d
	}
	c.Span = diag.Span{From: start.From, To: p.prevEnd()}
	return c, nil
}

func (p *parser) ifChain(c *Cond) *diag.Diagnostic {
	kw := p.next()
	for {
		cond, d := p.expr(func() bool { return p.at(token.LBRACE) })
		if d != nil {
			return d
		}
		w, d := p.branchBody()
		if d != nil {
			return d
		}
		c.Branches = append(c.Branches, &Branch{Span: diag.Span{From: kw.From, To: p.prevEnd()}, Cond: &cond, Widget: w})
		if !p.at(token.ELSE) {
			return nil
		}
		kw = p.next()
		if p.at(token.IF) {
			p.next()
			continue
		}
		w, d = p.branchBody()
		if d != nil {
			return d
		}
		c.Branches = append(c.Branches, &Branch{Span: diag.Span{From: kw.From, To: p.prevEnd()}, Default: true, Widget: w})
		return nil
	}
}

func (p *parser) branchBody() (*Widget, *diag.Diagnostic) {
	if _, d := p.expect(token.LBRACE, "'{'"); d != nil {
		return nil, d
	}
	w, d := p.widget()
	if d != nil {
		return nil, d
	}
	if p.at(token.COMMA) {
		p.next()
	}
	if _, d := p.expect(token.RBRACE, "'}' after branch widget"); d != nil {
		return nil, d
	}
	return w, nil
}

func (p *parser) switchArms(c *Cond) *diag.Diagnostic {
	p.next()
	if !p.at(token.LBRACE) {
		tag, d := p.expr(func() bool { return p.at(token.LBRACE) })
		if d != nil {
			return d
		}
		c.Tag = &tag
	}
	if _, d := p.expect(token.LBRACE, "'{'"); d != nil {
		return d
	}
	for !p.at(token.RBRACE) {
		kw := p.peek()
		b := &Branch{}
		switch kw.Tok {
		case token.CASE:
			p.next()
			for {
				e, d := p.expr(func() bool { return p.at(token.COMMA) || p.at(token.COLON) })
				if d != nil {
					return d
				}
				b.Cases = append(b.Cases, e)
				if !p.at(token.COMMA) {
					break
				}
				p.next()
			}
		case token.DEFAULT:
			p.next()
			b.Default = true
		default:
			return p.errorf(kw, "expected 'case' or 'default', found %s", describe(kw))
		}
		if _, d := p.expect(token.COLON, "':'"); d != nil {
			return d
		}
		w, d := p.widget()
		if d != nil {
			return d
		}
		b.Widget = w
		b.Span = diag.Span{From: kw.From, To: p.prevEnd()}
		c.Branches = append(c.Branches, b)
		if p.at(token.COMMA) {
			p.next()
		}
	}
	p.next()
	return nil
}

// scan advances over a Go expression until stop reports true at bracket
// depth zero, an unmatched closing bracket is found, or the input ends. It
// returns the index of the first token not consumed.
func (p *parser) scan(stop func() bool) int {
	depth := 0
	for {
		t := p.peek()
		if t.Tok == token.EOF {
			return p.pos
		}
		if depth == 0 && stop() {
			return p.pos
		}
		switch t.Tok {
		case token.LPAREN, token.LBRACK, token.LBRACE:
			depth++
		case token.RPAREN, token.RBRACK, token.RBRACE:
			if depth == 0 {
				return p.pos
			}
			depth--
		}
		p.next()
	}
}

func (p *parser) expr(stop func() bool) (Expr, *diag.Diagnostic) {
	from := p.pos
	to := p.scan(stop)
	return p.exprRange(from, to)
}

func (p *parser) exprRange(from, to int) (Expr, *diag.Diagnostic) {
	if from >= to {
		t := p.toks[from]
		return Expr{}, p.errorf(t, "expected expression, found %s", describe(t))
	}
	span := diag.Span{From: p.toks[from].From, To: p.toks[to-1].To}
	text := p.src[span.From:span.To]
	if d := validate(text, span.From, span); d != nil {
		return Expr{}, d
	}
	return Expr{Span: span, Text: text}, nil
}

// validate parses text as a Go expression. base is the offset of text in the
// view source.
func validate(text string, base int, span diag.Span) *diag.Diagnostic {
	_, err := goparser.ParseExprFrom(token.NewFileSet(), "", text, 0)
	return goError(err, base, 0, span, "expression")
}

func validateStmts(text string, base int) *diag.Diagnostic {
	const prefix = "package p\nfunc _() {"
	_, err := goparser.ParseFile(token.NewFileSet(), "", prefix+text+"\n}", 0)
	return goError(err, base, len(prefix), diag.Span{From: base, To: base + len(text)}, "statement")
}

func validateParams(text string, base int) *diag.Diagnostic {
	const prefix = "package p\nfunc _("
	_, err := goparser.ParseFile(token.NewFileSet(), "", prefix+text+") {}", 0)
	return goError(err, base, len(prefix), diag.Span{From: base, To: base + len(text)}, "parameter list")
}

// goError converts a go/parser error into a diagnostic. shift is the length
// of any text prepended before parsing.
func goError(err error, base, shift int, span diag.Span, what string) *diag.Diagnostic {
	if err == nil {
		return nil
	}
	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		off := base + list[0].Pos.Offset - shift
		off = min(max(off, span.From), span.To)
		return diag.New(diag.Syntax, diag.Span{From: off, To: off + 1}, "invalid Go %s: %s", what, list[0].Msg)
	}
	return diag.New(diag.Syntax, span, "%s", fmt.Sprintf("invalid Go %s: %v", what, err))
}
