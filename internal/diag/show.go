package diag

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
)

// Variables controlling the style of the culprit.
var (
	culpritBegin       = "\033[1;4m"
	culpritEnd         = "\033[m"
	kindBegin          = "\033[31;1m"
	culpritPlaceHolder = "^"
)

// IsTerminal reports whether f refers to a terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Show writes every entry of e to w, followed by the source line containing
// the culprit. With color set, the kind and the culprit are highlighted;
// otherwise a line of carets marks the culprit.
func Show(w io.Writer, e *Error, color bool) {
	for _, d := range e.Entries {
		fmt.Fprintln(w, showOne(e.Source, d, color))
	}
}

func showOne(src Source, d *Diagnostic, color bool) string {
	pos := d.Position(src.Code)
	kind := string(d.Kind)
	if color {
		kind = kindBegin + kind + culpritEnd
	}
	header := fmt.Sprintf("%s:%d:%d: %s: %s", src.Name, pos.Line, pos.Column, kind, d.Message)

	from, to := clamp(d.From, len(src.Code)), clamp(d.To, len(src.Code))
	if to < from {
		to = from
	}
	head := lastLine(src.Code[:from])
	culprit := firstLine(src.Code[from:to])
	tail := ""
	if !strings.Contains(src.Code[from:to], "\n") {
		tail = firstLine(src.Code[to:])
	}
	if culprit == "" {
		culprit = culpritPlaceHolder
	}
	line := "\n    " + head
	if color {
		return header + line + culpritBegin + culprit + culpritEnd + tail
	}
	return header + line + culprit + tail + "\n    " + marker(head, culprit)
}

// marker returns the line pointing at culprit when it follows head on a
// terminal. Tabs are kept so that the carets line up with the source.
func marker(head, culprit string) string {
	var b strings.Builder
	for _, r := range head {
		if r == '\t' {
			b.WriteRune(r)
		} else {
			b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
		}
	}
	b.WriteString(strings.Repeat(culpritPlaceHolder, max(runewidth.StringWidth(culprit), 1)))
	return b.String()
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

func firstLine(s string) string {
	i := strings.IndexByte(s, '\n')
	if i == -1 {
		return s
	}
	return s[:i]
}

func lastLine(s string) string {
	// When s does not contain '\n', LastIndexByte returns -1, which happens to
	// be what we want.
	return s[strings.LastIndexByte(s, '\n')+1:]
}
