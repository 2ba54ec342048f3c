/*
Package minic/main provides a command line tool for the MiniC
interpreter. Given file arguments it runs them as MiniC programs;
without arguments it starts an interactive session where declarations
persist between lines and expression results are echoed.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023 Norbert Pillmayer <norbert@pillmayer.com>

*/
package main

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'minic.interp'
func tracer() tracing.Trace {
	return tracing.Select("minic.interp")
}
