/*
Package scanner tokenizes MiniC source text.

The scanner is built on a lexmachine DFA, compiled once per process.
Lexemes are slices of the source text and are never copied, so
identifiers and string constants stay borrowed references into the
program being interpreted.

A scanner can capture its current input position as a State value and
later be re-positioned from one. This is how function calls work in
MiniC: a function definition is recorded as a position in the source,
the call re-positions the scanner there, and the saved State resumes
the caller after the call expression returns.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023 Norbert Pillmayer <norbert@pillmayer.com>

*/
package scanner

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'minic.scanner'.
func tracer() tracing.Trace {
	return tracing.Select("minic.scanner")
}
