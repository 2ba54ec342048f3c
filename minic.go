package minic

import "fmt"

// --- Source text ------------------------------------------------------------

// MiniC keeps the complete source text of a program in memory for the
// duration of a run. String constants, symbol names and function bodies are
// all represented as sub-slices of the source text and are never copied.
// Go substrings share their backing array, so a slice of source text is a
// borrowed reference in the sense the interpreter needs.

// Span is a small type capturing a run of input text: a start position and
// the position just behind the end.
type Span [2]uint64 // (x…y)

// From returns the start value of a span.
func (s Span) From() uint64 {
	return s[0]
}

// To returns the end value of a span.
func (s Span) To() uint64 {
	return s[1]
}

// Len returns the length of (x…y)
func (s Span) Len() uint64 {
	return s[1] - s[0]
}

func (s Span) IsNull() bool {
	return s == Span{}
}

func (s Span) String() string {
	return fmt.Sprintf("(%d…%d)", s[0], s[1])
}

// --- Positions --------------------------------------------------------------

// Position locates a point of the input text for diagnostics.
type Position struct {
	File string
	Line int
}

func (pos Position) String() string {
	if pos.File == "" {
		return fmt.Sprintf("line %d", pos.Line)
	}
	return fmt.Sprintf("%s:%d", pos.File, pos.Line)
}
