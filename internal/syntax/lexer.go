package syntax

import (
	"go/scanner"
	"go/token"

	"github.com/calumari/viewgen/internal/diag"
)

// Token is a single lexical token with its byte range in the source.
type Token struct {
	Tok token.Token
	Lit string
	diag.Span
}

// punctuation outside of Go's token set that the view grammar uses.
var extraPunct = map[string]bool{"#": true, "@": true, "?": true}

// is reports whether t is the extra punctuation p.
func (t Token) is(p string) bool {
	return t.Tok == token.ILLEGAL && t.Lit == p
}

// Lex splits src into tokens using Go's scanner. Comments and semicolons are
// dropped; '#', '@' and '?' come back as ILLEGAL tokens carrying the
// character as literal. The last token is always EOF. Scanner errors other
// than the accepted extra punctuation are added to errs.
func Lex(name string, src []byte, errs *diag.List) []Token {
	fset := token.NewFileSet()
	file := fset.AddFile(name, -1, len(src))

	type scanErr struct {
		offset int
		msg    string
	}
	var pending []scanErr
	var s scanner.Scanner
	s.Init(file, src, func(pos token.Position, msg string) {
		pending = append(pending, scanErr{pos.Offset, msg})
	}, 0)

	var toks []Token
	accepted := map[int]bool{}
	for {
		pos, tok, lit := s.Scan()
		offset := file.Offset(pos)
		if tok == token.SEMICOLON {
			continue
		}
		if tok == token.EOF {
			toks = append(toks, Token{Tok: tok, Span: diag.PointSpan(len(src))})
			break
		}
		if tok == token.ILLEGAL && extraPunct[lit] {
			accepted[offset] = true
		}
		end := offset + len(lit)
		if lit == "" {
			lit = tok.String()
			end = offset + len(lit)
		}
		toks = append(toks, Token{Tok: tok, Lit: lit, Span: diag.Span{From: offset, To: end}})
	}
	for _, e := range pending {
		if accepted[e.offset] {
			continue
		}
		errs.Addf(diag.Syntax, diag.Span{From: e.offset, To: e.offset + 1}, "%s", e.msg)
	}
	return toks
}
