package interp

import (
	"fmt"
	"io"
	"os"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/npillmayer/minic"
	"github.com/npillmayer/minic/mem"
	"github.com/npillmayer/minic/runtime"
	"github.com/npillmayer/minic/scanner"
)

// Param is one formal parameter of a function.
type Param struct {
	Name string
	Typ  *runtime.ValueType
}

// FuncDef records a function, macro or intrinsic. User-defined
// functions and macros are positions in their defining source text;
// every call re-enters the body through the scanner of that text.
// Definitions stay callable from later inputs, which carry their own
// scanners. Intrinsics carry a Go function instead.
type FuncDef struct {
	Name      string
	Ret       *runtime.ValueType
	Params    []Param
	Src       *scanner.Scanner // scanner over the defining source text
	Body      scanner.State    // position of the body within Src
	IsMacro   bool
	Intrinsic func(ip *Interp, args []operand) operand
}

// Interp is one interpreter instance. Instances are independent: each
// owns its runtime (arena, global table, call stack) and its function
// store.
type Interp struct {
	rt         *runtime.Runtime
	scan       *scanner.Scanner
	funcs      []FuncDef // the function store, bounded by config
	out        io.Writer
	retTyp     *runtime.ValueType // return type of the active call, nil at top level
	retval     *runtime.Value     // set by 'return' in the active call
	lastResult string             // rendering of the last top-level expression
}

// New creates an interpreter instance with the given memory budgets.
// Output of the print intrinsics goes to out; nil means stdout.
func New(cfg runtime.Config, out io.Writer) *Interp {
	if out == nil {
		out = os.Stdout
	}
	ip := &Interp{
		rt:  runtime.NewRuntime(cfg),
		out: out,
	}
	ip.installIntrinsics()
	return ip
}

// Runtime exposes the interpreter's runtime environment.
func (ip *Interp) Runtime() *runtime.Runtime {
	return ip.rt
}

// Run executes a MiniC program: top-level statements run in order as
// they are parsed, and a function named main, if one was defined, is
// called afterwards. Fatal conditions are returned as a
// *runtime.FatalError carrying the source position.
func (ip *Interp) Run(file string, source string) (err error) {
	defer ip.recoverFatal(&err)
	s, serr := scanner.New(file, source)
	if serr != nil {
		return serr
	}
	ip.scan = s
	for ip.scan.Peek().Kind != scanner.EOF {
		ip.statement(true)
	}
	if v, ok := ip.rt.Globals.Get("main"); ok && v.Typ.Base == runtime.Function {
		fn := &ip.funcs[v.Val.Fn]
		if len(fn.Params) != 0 {
			ip.fail("main must not take parameters")
		}
		ip.callFunction(fn, nil, true)
	}
	return nil
}

// EvalLine parses and executes one line of input, for interactive use.
// Definitions persist across lines; the rendering of the last
// top-level expression is returned for display.
func (ip *Interp) EvalLine(line string) (result string, err error) {
	defer ip.recoverFatal(&err)
	s, serr := scanner.New("<repl>", line)
	if serr != nil {
		return "", serr
	}
	ip.scan = s
	ip.lastResult = ""
	for ip.scan.Peek().Kind != scanner.EOF {
		ip.statement(true)
	}
	return ip.lastResult, nil
}

// recoverFatal turns the panics of the core (arena exhaustion, call
// stack overflow) and the interpreter's own diagnostics into an error
// result. This is the single reporting path for fatal conditions;
// position context is attached where it is not already present.
func (ip *Interp) recoverFatal(err *error) {
	r := recover()
	if r == nil {
		return
	}
	switch e := r.(type) {
	case *runtime.FatalError:
		*err = e
	case *mem.OutOfMemoryError:
		*err = &runtime.FatalError{Pos: ip.pos(), Err: e}
	case *mem.StackOverflowError:
		*err = &runtime.FatalError{Pos: ip.pos(), Err: e}
	default:
		panic(r)
	}
	tracer().Errorf("%v", *err)
}

// fail reports a program error at the current source position and
// terminates the run.
func (ip *Interp) fail(format string, args ...interface{}) {
	panic(&runtime.FatalError{
		Pos: ip.pos(),
		Err: fmt.Errorf(format, args...),
	})
}

func (ip *Interp) pos() minic.Position {
	if ip.scan == nil {
		return minic.Position{}
	}
	return ip.scan.Pos()
}

// define binds a name in the innermost live scope, failing the run on
// redefinition or on a full table.
func (ip *Interp) define(name string, v *runtime.Value) {
	if ip.rt.Define(name, v) {
		return
	}
	if _, exists := ip.rt.Lookup(name); exists {
		ip.fail("'%s' is already defined", name)
	}
	ip.fail("symbol table full, cannot define '%s'", name)
}

// storeFunc appends a definition to the function store, respecting the
// configured bound.
func (ip *Interp) storeFunc(fn FuncDef) int {
	if len(ip.funcs) >= ip.rt.Config.FunctionStoreMax {
		ip.fail("function store full (%d definitions)", ip.rt.Config.FunctionStoreMax)
	}
	ip.funcs = append(ip.funcs, fn)
	return len(ip.funcs) - 1
}

// FunctionNames returns the names of all defined functions and macros,
// sorted, intrinsics included.
func (ip *Interp) FunctionNames() []string {
	set := treeset.NewWithStringComparator()
	for _, fn := range ip.funcs {
		set.Add(fn.Name)
	}
	names := make([]string, 0, set.Size())
	for _, v := range set.Values() {
		names = append(names, v.(string))
	}
	return names
}
