/*
Package minic is a minimal, embeddable interpreter for a C-like language.

MiniC is built to run inside a fixed, small memory budget. All state of
the interpreted program lives in a single pre-allocated arena; the
interpreter never grows its memory footprint while a program runs.
Package structure is as follows:

■ mem: Package mem implements the arena allocator. A single fixed-size
buffer serves both LIFO call-frame allocation and heap-style allocation
for values which outlive their creating frame.

■ runtime: Package runtime implements the typed value representation,
fixed-capacity symbol tables and the stack-frame manager of the
interpreter.

■ scanner: Package scanner tokenizes MiniC source text.

■ interp: Package interp parses and executes MiniC programs, including
the intrinsic function library.

The base package contains source-text data types which are used
throughout all the other packages.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023 Norbert Pillmayer <norbert@pillmayer.com>

*/
package minic
