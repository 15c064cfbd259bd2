package model

import (
	"go/token"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Names is a view-scoped name allocator. Every identifier that appears in
// the generated functions is either reserved up front or handed out here, so
// that synthesized names never collide.
type Names struct {
	used map[string]bool
}

// NewNames returns an allocator with Go keywords already taken.
func NewNames() *Names {
	n := &Names{used: make(map[string]bool)}
	for tok := token.BREAK; tok <= token.VAR; tok++ {
		if tok.IsKeyword() {
			n.used[tok.String()] = true
		}
	}
	for _, pre := range predeclared {
		n.used[pre] = true
	}
	return n
}

// predeclared identifiers synthesized names must not shadow.
var predeclared = []string{
	"any", "bool", "byte", "comparable", "error", "false", "float32", "float64",
	"int", "int8", "int16", "int32", "int64", "iota", "nil", "rune", "string",
	"true", "uint", "uint8", "uint16", "uint32", "uint64", "uintptr",
	"append", "cap", "clear", "close", "copy", "delete", "len", "make", "max",
	"min", "new", "panic", "print", "println", "recover",
}

// Reserve marks name as taken.
func (n *Names) Reserve(name string) {
	n.used[name] = true
}

// Taken reports whether name has been reserved or handed out.
func (n *Names) Taken(name string) bool { return n.used[name] }

// Fresh returns base if it is free, otherwise base followed by the smallest
// positive number that is free.
func (n *Names) Fresh(base string) string {
	if !n.used[base] {
		n.used[base] = true
		return base
	}
	return n.seq(base, 1)
}

// Seq returns base followed by the smallest non-negative number that is
// free.
func (n *Names) Seq(base string) string { return n.seq(base, 0) }

func (n *Names) seq(base string, from int) string {
	for i := from; ; i++ {
		name := base + strconv.Itoa(i)
		if !n.used[name] {
			n.used[name] = true
			return name
		}
	}
}

// LowerCamel converts an exported Go name to its unexported form: "Label"
// becomes "label", "HTTPServer" becomes "httpServer", "URL" becomes "url".
func LowerCamel(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	upper := 0
	for upper < len(runes) && unicode.IsUpper(runes[upper]) {
		upper++
	}
	switch {
	case upper == 0:
		return s
	case upper == 1 || upper == len(runes):
		// single leading capital or all caps
	default:
		// keep the capital that starts the next word
		upper--
	}
	for i := 0; i < upper; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

// nameFromType derives a variable name from a Go type expression such as
// "*toolkit.Label" or "toolkit.List[int]".
func nameFromType(typ string) string {
	typ = strings.TrimLeft(typ, "*[]")
	if i := strings.IndexByte(typ, '['); i >= 0 {
		typ = typ[:i]
	}
	_, last := splitLast(typ)
	return identOrEmpty(LowerCamel(last))
}

// nameFromCallee derives a variable name from a constructor function such as
// "toolkit.NewLabel".
func nameFromCallee(callee string) string {
	_, last := splitLast(callee)
	if rest, ok := strings.CutPrefix(last, "New"); ok && rest != "" {
		if r, _ := utf8.DecodeRuneInString(rest); unicode.IsUpper(r) {
			last = rest
		}
	}
	return identOrEmpty(LowerCamel(last))
}

func identOrEmpty(s string) string {
	if !token.IsIdentifier(s) {
		return ""
	}
	return s
}
