/*
Package mem implements the arena allocator of the MiniC interpreter.

A single fixed-size backing buffer is partitioned into two regions which
grow from opposite ends toward each other: a stack region, serving
call frames and block-scoped locals with LIFO discipline, and a heap
region, serving values whose lifetime exceeds their creating frame.
Both regions share one capacity ceiling; when they meet, the
interpreter is out of memory. Running out of arena space is the single
out-of-memory condition of the interpreter and is always fatal: the
target environment has a fixed budget and no general purpose allocator
to fall back on.

Allocations are handed out as Block handles, which are arena-relative
(offset + size) rather than host pointers. A Block remembers which
region it was carved from, so releasing a stack-resident block
individually is rejected structurally: only heap blocks ever reach the
free list.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023 Norbert Pillmayer <norbert@pillmayer.com>

*/
package mem

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'minic.mem'.
func tracer() tracing.Trace {
	return tracing.Select("minic.mem")
}
