package interp

import (
	"fmt"
	"math"
	"strings"

	"github.com/npillmayer/minic/runtime"
)

// Intrinsics are functions backed by Go code instead of a source span.
// They share the function store with user-defined functions and are
// called through the same path, minus the frame push.

func (ip *Interp) installIntrinsics() {
	reg := func(name string, ret *runtime.ValueType, f func(*Interp, []operand) operand) {
		idx := ip.storeFunc(FuncDef{Name: name, Ret: ret, Intrinsic: f})
		ip.rt.Globals.Set(name, runtime.NewFuncValue(idx))
	}
	reg("printf", runtime.VoidType, printfIntrinsic)
	reg("sin", runtime.FPType, fpIntrinsic("sin", math.Sin))
	reg("cos", runtime.FPType, fpIntrinsic("cos", math.Cos))
	reg("tan", runtime.FPType, fpIntrinsic("tan", math.Tan))
	reg("exp", runtime.FPType, fpIntrinsic("exp", math.Exp))
	reg("log", runtime.FPType, fpIntrinsic("log", math.Log))
	reg("sqrt", runtime.FPType, fpIntrinsic("sqrt", math.Sqrt))
	reg("fabs", runtime.FPType, fpIntrinsic("fabs", math.Abs))
	reg("floor", runtime.FPType, fpIntrinsic("floor", math.Floor))
	reg("ceil", runtime.FPType, fpIntrinsic("ceil", math.Ceil))
	reg("pow", runtime.FPType, powIntrinsic)
}

// fpIntrinsic wraps a unary math function.
func fpIntrinsic(name string, f func(float64) float64) func(*Interp, []operand) operand {
	return func(ip *Interp, args []operand) operand {
		if len(args) != 1 {
			ip.fail("'%s' expects 1 argument, got %d", name, len(args))
		}
		return fpOperand(f(ip.fpOf(args[0])))
	}
}

func powIntrinsic(ip *Interp, args []operand) operand {
	if len(args) != 2 {
		ip.fail("'pow' expects 2 arguments, got %d", len(args))
	}
	return fpOperand(math.Pow(ip.fpOf(args[0]), ip.fpOf(args[1])))
}

// printfIntrinsic implements a subset of C's printf: the verbs %d, %f,
// %g, %c, %s and the literal %%. Output goes to the interpreter's
// configured writer.
func printfIntrinsic(ip *Interp, args []operand) operand {
	if len(args) == 0 || args[0].typ == nil || args[0].typ.Base != runtime.String {
		ip.fail("printf expects a format string")
	}
	format := args[0].s
	next := 1
	arg := func(verb byte) operand {
		if next >= len(args) {
			ip.fail("printf: missing argument for %%%c", verb)
		}
		a := args[next]
		next++
		return a
	}
	var sb strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i >= len(format) {
			sb.WriteByte('%')
			break
		}
		verb := format[i]
		switch verb {
		case '%':
			sb.WriteByte('%')
		case 'd':
			fmt.Fprintf(&sb, "%d", ip.intOf(arg(verb)))
		case 'f':
			fmt.Fprintf(&sb, "%f", ip.fpOf(arg(verb)))
		case 'g':
			fmt.Fprintf(&sb, "%g", ip.fpOf(arg(verb)))
		case 'c':
			sb.WriteByte(byte(ip.intOf(arg(verb))))
		case 's':
			a := arg(verb)
			if a.typ == nil || a.typ.Base != runtime.String {
				ip.fail("printf: %%s needs a string argument")
			}
			sb.WriteString(a.s)
		default:
			ip.fail("printf: unsupported verb %%%c", verb)
		}
	}
	fmt.Fprint(ip.out, sb.String())
	return operand{typ: runtime.VoidType}
}
