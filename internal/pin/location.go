package pin

import "fmt"

// Position is a zero-based line/column pair, matching tree-sitter points.
type Position struct {
	Line   int
	Column int
}

// Before reports whether p comes before other in document order.
func (p Position) Before(other Position) bool {
	return p.Line < other.Line || (p.Line == other.Line && p.Column < other.Column)
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Range is a half-open span of source text.
type Range struct {
	Start Position
	End   Position
}

// Contains reports whether pos falls inside the range (start inclusive,
// end inclusive so a cursor at the closing token still matches).
func (r Range) Contains(pos Position) bool {
	if pos.Before(r.Start) {
		return false
	}
	return !r.End.Before(pos)
}

// Location is a range within a named file. The zero value means "no
// provenance" (synthesized pins such as core-library definitions loaded
// without source).
type Location struct {
	Filename string
	Range    Range
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%s", l.Filename, l.Range.Start)
}
