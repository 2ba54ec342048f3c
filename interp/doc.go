/*
Package interp parses and executes MiniC programs.

MiniC is executed in a single pass: the interpreter walks the token
stream and evaluates statements as it parses them, the way classic
tiny-C interpreters do. There is no AST. Function definitions are
recorded as positions in the source text; a call re-positions the
scanner at the function's body and resumes the caller afterwards from
a saved scanner state. Control-flow constructs parse their full token
extent always and toggle evaluation with a run flag, so skipped
branches and function bodies stay syntax-checked.

Program errors (syntax errors, type errors, out-of-bounds access)
terminate the run with a diagnostic carrying the source position, as
do the resource limits of the runtime (arena exhaustion, call-stack
overflow, full symbol tables). A run either completes or fails; there
is nothing to recover within a program.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023 Norbert Pillmayer <norbert@pillmayer.com>

*/
package interp

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'minic.interp'.
func tracer() tracing.Trace {
	return tracing.Select("minic.interp")
}
