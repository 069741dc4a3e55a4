package colors

import (
	"io"
	"strings"
)

// Print methods (default to stdout)
func (c COLOR) Printf(format string, args ...any) {
	c.color().Printf(format, args...)
}

func (c COLOR) Println(args ...any) {
	c.color().Println(args...)
}

func (c COLOR) Print(args ...any) {
	c.color().Print(args...)
}

// Fprint methods (write to specific writer)
func (c COLOR) Fprintf(w io.Writer, format string, args ...any) {
	c.color().Fprintf(w, format, args...)
}

func (c COLOR) Fprintln(w io.Writer, args ...any) {
	c.color().Fprintln(w, args...)
}

func (c COLOR) Fprint(w io.Writer, args ...any) {
	c.color().Fprint(w, args...)
}

func (c COLOR) Sprintf(format string, args ...any) string {
	return c.color().Sprintf(format, args...)
}

func (c COLOR) Sprintln(args ...any) string {
	return c.color().Sprintln(args...)
}

func (c COLOR) Sprint(args ...any) string {
	return c.color().Sprint(args...)
}

// Helper functions
func FprintWithColor(w io.Writer, color COLOR, args ...any) {
	color.Fprint(w, args...)
}

func SprintWithColor(color COLOR, args ...any) string {
	return color.Sprint(args...)
}

// StripANSI removes ANSI color codes from a string
func StripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for i := 0; i < len(s); i++ {
		if s[i] == '\033' && i+1 < len(s) && s[i+1] == '[' {
			inEscape = true
			i++
			continue
		}
		if inEscape {
			if (s[i] >= 'A' && s[i] <= 'Z') || (s[i] >= 'a' && s[i] <= 'z') {
				inEscape = false
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// Pad right-aligns s in a field of width n, ignoring color codes.
func Pad(s string, n int) string {
	if visible := len(StripANSI(s)); visible < n {
		return strings.Repeat(" ", n-visible) + s
	}
	return s
}

