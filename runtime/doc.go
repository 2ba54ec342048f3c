/*
Package runtime implements the MiniC interpreter runtime, consisting of
the typed value representation, fixed-capacity symbol tables and the
stack-frame manager.

For a thorough discussion of an interpreter's runtime environment, refer to
"Language Implementation Patterns" by Terence Parr.

Values and Types

Every runtime datum is a Value: a type descriptor paired with a data
reference. Machine data (characters, integers, floating point numbers,
array contents) lives in the arena of package mem; the Value is a
handle over it. Composite types (pointer-to-T, array-of-T) are built
on demand and compare structurally, not by identity.

Symbol Tables

Symbol tables are fixed-capacity open-addressed hash tables. One table
holds the globals of an interpreter instance; each active call frame
carries a fresh local table. Capacity is fixed at binding time; a full
table is a fatal condition of the interpreter.

Stack Frames

The frame manager coordinates the arena's frame push/pop with the
local-table lifecycle on every function call, and carries the caller's
resume position across the call.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023 Norbert Pillmayer <norbert@pillmayer.com>

*/
package runtime

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'minic.runtime'.
func tracer() tracing.Trace {
	return tracing.Select("minic.runtime")
}
