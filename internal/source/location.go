package source

import (
	"fmt"
)

// Position represents a line/column pair in the source that produced an IR node.
type Position struct {
	Line   int
	Column int
}

// Location is the source span an IR instruction was lowered from.
// The zero value means the node was synthesized by the compiler.
type Location struct {
	Filename string
	Start    Position
	End      Position
}

// NewLocation creates a location covering start..end in filename
func NewLocation(filename string, start, end Position) Location {
	return Location{Filename: filename, Start: start, End: end}
}

// IsSynthetic reports whether the location carries no source information
func (l *Location) IsSynthetic() bool {
	return l == nil || (l.Filename == "" && l.Start.Line == 0)
}

func (l *Location) String() string {
	if l.IsSynthetic() {
		return "location(synthetic)"
	}
	if l.Filename == "" {
		return fmt.Sprintf("location(%d:%d - %d:%d)", l.Start.Line, l.Start.Column, l.End.Line, l.End.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.Filename, l.Start.Line, l.Start.Column)
}
