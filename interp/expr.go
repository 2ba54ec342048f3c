package interp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/npillmayer/minic/runtime"
	"github.com/npillmayer/minic/scanner"
)

// Expressions are evaluated by a recursive-descent chain, one function
// per precedence level. Temporaries are operands, plain Go values that
// never touch the arena; only durable stores (variables, arrays, return
// values) hold arena memory.

// operand is an expression temporary. typ discriminates which of the
// data fields is meaningful; lv, when set, makes the operand assignable.
type operand struct {
	typ *runtime.ValueType
	lv  *runtime.Value // assignable store behind the operand, if any
	own *runtime.Value // owning array, when the operand is an element
	idx int            // element index within own
	i   int64
	f   float64
	s   string
	ptr runtime.PointerValue
	fn  int
}

func intOperand(n int64) operand {
	return operand{typ: runtime.IntType, i: n}
}

func fpOperand(f float64) operand {
	return operand{typ: runtime.FPType, f: f}
}

func boolOperand(b bool) operand {
	if b {
		return intOperand(1)
	}
	return intOperand(0)
}

// rvalue loads a runtime value into an operand, keeping the value as
// the operand's assignable store.
func (ip *Interp) rvalue(v *runtime.Value) operand {
	a := ip.rt.Arena
	switch v.Typ.Base {
	case runtime.Int:
		return operand{typ: v.Typ, lv: v, i: v.Int(a)}
	case runtime.FP:
		return operand{typ: v.Typ, lv: v, f: v.FP(a)}
	case runtime.Char:
		return operand{typ: v.Typ, lv: v, i: int64(v.Char(a))}
	case runtime.String:
		return operand{typ: v.Typ, lv: v, s: v.Val.Str}
	case runtime.Pointer:
		return operand{typ: v.Typ, lv: v, ptr: v.Val.Ptr}
	case runtime.Array:
		return operand{typ: v.Typ, lv: v}
	case runtime.Function:
		return operand{typ: v.Typ, fn: v.Val.Fn}
	}
	ip.fail("value of type %v cannot appear in an expression", v.Typ)
	return operand{}
}

// writeOperand stores an operand into a runtime value, converting
// between the numeric types the way C does. An array operand assigned
// to a pointer decays to a pointer to its first element.
func (ip *Interp) writeOperand(dst *runtime.Value, o operand) {
	a := ip.rt.Arena
	switch dst.Typ.Base {
	case runtime.Int:
		dst.SetInt(a, ip.intOf(o))
	case runtime.FP:
		dst.SetFP(a, ip.fpOf(o))
	case runtime.Char:
		dst.SetChar(a, byte(ip.intOf(o)))
	case runtime.String:
		if o.typ == nil || o.typ.Base != runtime.String {
			ip.fail("cannot assign %v to %v", ip.typeOf(o), dst.Typ)
		}
		dst.Val.Str = o.s
	case runtime.Pointer:
		if o.typ != nil && o.typ.Base == runtime.Array &&
			dst.Typ.Sub.Equal(o.typ.Sub) && o.lv != nil {
			dst.Val.Ptr = runtime.PointerValue{Target: o.lv}
			return
		}
		if o.typ == nil || o.typ.Base != runtime.Pointer ||
			!dst.Typ.Sub.Equal(o.typ.Sub) {
			ip.fail("cannot assign %v to %v", ip.typeOf(o), dst.Typ)
		}
		dst.Val.Ptr = o.ptr
	default:
		ip.fail("cannot assign to %v", dst.Typ)
	}
}

func (ip *Interp) typeOf(o operand) *runtime.ValueType {
	if o.typ == nil {
		return runtime.VoidType
	}
	return o.typ
}

// truthy is the condition predicate: nonzero numbers are true.
func (ip *Interp) truthy(o operand) bool {
	if o.typ == nil {
		return false
	}
	switch o.typ.Base {
	case runtime.Int, runtime.Char:
		return o.i != 0
	case runtime.FP:
		return o.f != 0
	}
	ip.fail("%v is not a condition", o.typ)
	return false
}

func (ip *Interp) intOf(o operand) int64 {
	if o.typ == nil {
		ip.fail("expected an integer value")
	}
	switch o.typ.Base {
	case runtime.Int, runtime.Char:
		return o.i
	case runtime.FP:
		return int64(o.f)
	}
	ip.fail("%v is not a number", o.typ)
	return 0
}

func (ip *Interp) fpOf(o operand) float64 {
	if o.typ == nil {
		ip.fail("expected a numeric value")
	}
	switch o.typ.Base {
	case runtime.FP:
		return o.f
	case runtime.Int, runtime.Char:
		return float64(o.i)
	}
	ip.fail("%v is not a number", o.typ)
	return 0
}

func isFP(o operand) bool {
	return o.typ != nil && o.typ.Base == runtime.FP
}

// renderOperand formats an expression result for interactive display.
func (ip *Interp) renderOperand(o operand) string {
	if o.typ == nil {
		return ""
	}
	switch o.typ.Base {
	case runtime.Void:
		return ""
	case runtime.Int:
		return fmt.Sprintf("%d", o.i)
	case runtime.FP:
		return fmt.Sprintf("%g", o.f)
	case runtime.Char:
		return fmt.Sprintf("'%c'", byte(o.i))
	case runtime.String:
		return o.s
	}
	if o.lv != nil {
		return o.lv.Render(ip.rt.Arena)
	}
	return "<" + o.typ.String() + ">"
}

// --- Precedence chain --------------------------------------------------------

// expression parses and evaluates one expression. Assignment is the
// lowest precedence level and associates to the right.
func (ip *Interp) expression(run bool) operand {
	lhs := ip.logicalOr(run)
	k := ip.scan.Peek().Kind
	if k != scanner.Assign && k != scanner.AddAssign && k != scanner.SubAssign {
		return lhs
	}
	ip.scan.Next()
	rhs := ip.expression(run)
	if !run {
		return operand{}
	}
	if lhs.lv == nil {
		ip.fail("left side of '%v' is not assignable", k)
	}
	switch k {
	case scanner.Assign:
		ip.writeOperand(lhs.lv, rhs)
	case scanner.AddAssign:
		ip.bump(lhs.lv, rhs)
	case scanner.SubAssign:
		ip.bump(lhs.lv, ip.negate(rhs))
	}
	return ip.rvalue(lhs.lv)
}

// bump adjusts an assignable value in place by the amount of o.
// Pointers move by whole elements.
func (ip *Interp) bump(dst *runtime.Value, o operand) {
	a := ip.rt.Arena
	switch dst.Typ.Base {
	case runtime.Int:
		dst.SetInt(a, dst.Int(a)+ip.intOf(o))
	case runtime.Char:
		dst.SetChar(a, byte(int64(dst.Char(a))+ip.intOf(o)))
	case runtime.FP:
		dst.SetFP(a, dst.FP(a)+ip.fpOf(o))
	case runtime.Pointer:
		dst.Val.Ptr.Index += int(ip.intOf(o))
	default:
		ip.fail("cannot adjust a value of type %v", dst.Typ)
	}
}

func (ip *Interp) negate(o operand) operand {
	if isFP(o) {
		return fpOperand(-o.f)
	}
	return intOperand(-ip.intOf(o))
}

// logicalOr implements '||' with short-circuit evaluation: once the
// result is known, the remaining operands are parsed with evaluation
// off.
func (ip *Interp) logicalOr(run bool) operand {
	a := ip.logicalAnd(run)
	for ip.scan.Peek().Kind == scanner.LogicalOr {
		ip.scan.Next()
		decided := run && ip.truthy(a)
		b := ip.logicalAnd(run && !decided)
		if run {
			if decided {
				a = boolOperand(true)
			} else {
				a = boolOperand(ip.truthy(b))
			}
		}
	}
	return a
}

func (ip *Interp) logicalAnd(run bool) operand {
	a := ip.bitOr(run)
	for ip.scan.Peek().Kind == scanner.LogicalAnd {
		ip.scan.Next()
		decided := run && !ip.truthy(a)
		b := ip.bitOr(run && !decided)
		if run {
			if decided {
				a = boolOperand(false)
			} else {
				a = boolOperand(ip.truthy(b))
			}
		}
	}
	return a
}

// The bitwise operators work on integers only and bind tighter than
// the logical connectives, '&' tightest of the three, as in C.

func (ip *Interp) bitOr(run bool) operand {
	a := ip.bitXor(run)
	for ip.scan.Peek().Kind == scanner.Pipe {
		ip.scan.Next()
		b := ip.bitXor(run)
		if run {
			a = intOperand(ip.intOf(a) | ip.intOf(b))
		}
	}
	return a
}

func (ip *Interp) bitXor(run bool) operand {
	a := ip.bitAnd(run)
	for ip.scan.Peek().Kind == scanner.Caret {
		ip.scan.Next()
		b := ip.bitAnd(run)
		if run {
			a = intOperand(ip.intOf(a) ^ ip.intOf(b))
		}
	}
	return a
}

func (ip *Interp) bitAnd(run bool) operand {
	a := ip.equality(run)
	for ip.scan.Peek().Kind == scanner.Amp {
		ip.scan.Next()
		b := ip.equality(run)
		if run {
			a = intOperand(ip.intOf(a) & ip.intOf(b))
		}
	}
	return a
}

func (ip *Interp) equality(run bool) operand {
	a := ip.relational(run)
	for {
		k := ip.scan.Peek().Kind
		if k != scanner.Equal && k != scanner.NotEqual {
			return a
		}
		ip.scan.Next()
		b := ip.relational(run)
		if !run {
			continue
		}
		eq := ip.operandsEqual(a, b)
		if k == scanner.NotEqual {
			eq = !eq
		}
		a = boolOperand(eq)
	}
}

func (ip *Interp) operandsEqual(a, b operand) bool {
	if a.typ == nil || b.typ == nil {
		ip.fail("cannot compare these operands")
	}
	if a.typ.Base == runtime.String && b.typ.Base == runtime.String {
		return a.s == b.s
	}
	if a.typ.Base == runtime.Pointer && b.typ.Base == runtime.Pointer {
		return a.ptr.Target == b.ptr.Target && a.ptr.Index == b.ptr.Index &&
			a.ptr.Raw == b.ptr.Raw
	}
	if isFP(a) || isFP(b) {
		return ip.fpOf(a) == ip.fpOf(b)
	}
	return ip.intOf(a) == ip.intOf(b)
}

func (ip *Interp) relational(run bool) operand {
	a := ip.additive(run)
	for {
		k := ip.scan.Peek().Kind
		switch k {
		case scanner.Less, scanner.Greater, scanner.LessEq, scanner.GreaterEq:
		default:
			return a
		}
		ip.scan.Next()
		b := ip.additive(run)
		if !run {
			continue
		}
		var res bool
		if isFP(a) || isFP(b) {
			x, y := ip.fpOf(a), ip.fpOf(b)
			res = fpCompare(k, x, y)
		} else {
			x, y := ip.intOf(a), ip.intOf(b)
			res = intCompare(k, x, y)
		}
		a = boolOperand(res)
	}
}

func intCompare(k scanner.Kind, x, y int64) bool {
	switch k {
	case scanner.Less:
		return x < y
	case scanner.Greater:
		return x > y
	case scanner.LessEq:
		return x <= y
	}
	return x >= y
}

func fpCompare(k scanner.Kind, x, y float64) bool {
	switch k {
	case scanner.Less:
		return x < y
	case scanner.Greater:
		return x > y
	case scanner.LessEq:
		return x <= y
	}
	return x >= y
}

func (ip *Interp) additive(run bool) operand {
	a := ip.multiplicative(run)
	for {
		k := ip.scan.Peek().Kind
		if k != scanner.Plus && k != scanner.Minus {
			return a
		}
		ip.scan.Next()
		b := ip.multiplicative(run)
		if !run {
			continue
		}
		if a.typ != nil && a.typ.Base == runtime.Pointer {
			n := ip.intOf(b)
			if k == scanner.Minus {
				n = -n
			}
			pv := a.ptr
			pv.Index += int(n)
			a = operand{typ: a.typ, ptr: pv}
			continue
		}
		if isFP(a) || isFP(b) {
			x, y := ip.fpOf(a), ip.fpOf(b)
			if k == scanner.Plus {
				a = fpOperand(x + y)
			} else {
				a = fpOperand(x - y)
			}
			continue
		}
		x, y := ip.intOf(a), ip.intOf(b)
		if k == scanner.Plus {
			a = intOperand(x + y)
		} else {
			a = intOperand(x - y)
		}
	}
}

func (ip *Interp) multiplicative(run bool) operand {
	a := ip.unary(run)
	for {
		k := ip.scan.Peek().Kind
		if k != scanner.Star && k != scanner.Slash {
			return a
		}
		ip.scan.Next()
		b := ip.unary(run)
		if !run {
			continue
		}
		if isFP(a) || isFP(b) {
			x, y := ip.fpOf(a), ip.fpOf(b)
			if k == scanner.Star {
				a = fpOperand(x * y)
			} else {
				a = fpOperand(x / y)
			}
			continue
		}
		x, y := ip.intOf(a), ip.intOf(b)
		if k == scanner.Star {
			a = intOperand(x * y)
		} else {
			if y == 0 {
				ip.fail("division by zero")
			}
			a = intOperand(x / y)
		}
	}
}

func (ip *Interp) unary(run bool) operand {
	switch ip.scan.Peek().Kind {
	case scanner.Minus:
		ip.scan.Next()
		o := ip.unary(run)
		if !run {
			return operand{}
		}
		return ip.negate(o)
	case scanner.Not:
		ip.scan.Next()
		o := ip.unary(run)
		if !run {
			return operand{}
		}
		return boolOperand(!ip.truthy(o))
	case scanner.Tilde:
		ip.scan.Next()
		o := ip.unary(run)
		if !run {
			return operand{}
		}
		return intOperand(^ip.intOf(o))
	case scanner.Star:
		ip.scan.Next()
		o := ip.unary(run)
		if !run {
			return operand{}
		}
		return ip.deref(o, 0)
	case scanner.Amp:
		ip.scan.Next()
		o := ip.unary(run)
		if !run {
			return operand{}
		}
		return ip.addressOf(o)
	case scanner.Increment, scanner.Decrement:
		k := ip.scan.Next().Kind
		o := ip.unary(run)
		if !run {
			return operand{}
		}
		if o.lv == nil {
			ip.fail("'%v' needs an assignable operand", k)
		}
		delta := int64(1)
		if k == scanner.Decrement {
			delta = -1
		}
		ip.bump(o.lv, intOperand(delta))
		return ip.rvalue(o.lv)
	}
	return ip.postfix(run)
}

// deref resolves a pointer operand at an element offset, yielding an
// assignable operand over the referenced storage.
func (ip *Interp) deref(o operand, offset int) operand {
	if o.typ == nil || o.typ.Base != runtime.Pointer {
		ip.fail("cannot dereference %v", ip.typeOf(o))
	}
	pv := o.ptr
	pv.Index += offset
	tmp := &runtime.Value{Typ: o.typ, Val: &runtime.AnyValue{Ptr: pv}}
	elem, err := tmp.Deref(ip.rt.Arena)
	if err != nil {
		ip.fail("%v", err)
	}
	res := ip.rvalue(elem)
	if pv.Target != nil && pv.Target.Typ.Base == runtime.Array {
		res.own = pv.Target
		res.idx = pv.Index
	}
	return res
}

// addressOf builds a pointer operand. The address of an array element
// keeps a reference to the owning array, so later dereferences stay
// bounds-checked; the address of an array is a pointer to its first
// element.
func (ip *Interp) addressOf(o operand) operand {
	if o.lv == nil {
		ip.fail("cannot take the address of this operand")
	}
	if o.typ.Base == runtime.Array {
		return operand{
			typ: runtime.PointerTo(o.typ.Sub),
			ptr: runtime.PointerValue{Target: o.lv},
		}
	}
	if o.own != nil {
		return operand{
			typ: runtime.PointerTo(o.lv.Typ),
			ptr: runtime.PointerValue{Target: o.own, Index: o.idx},
		}
	}
	return operand{
		typ: runtime.PointerTo(o.lv.Typ),
		ptr: runtime.PointerValue{Target: o.lv},
	}
}

func (ip *Interp) postfix(run bool) operand {
	o := ip.primary(run)
	for {
		switch ip.scan.Peek().Kind {
		case scanner.LBracket:
			ip.scan.Next()
			idx := ip.expression(run)
			ip.expect(scanner.RBracket)
			if !run {
				o = operand{}
				continue
			}
			o = ip.index(o, int(ip.intOf(idx)))
		case scanner.LParen:
			o = ip.call(run, o)
		case scanner.Increment, scanner.Decrement:
			k := ip.scan.Next().Kind
			if !run {
				continue
			}
			if o.lv == nil {
				ip.fail("'%v' needs an assignable operand", k)
			}
			old := ip.rvalue(o.lv)
			old.lv = nil
			delta := int64(1)
			if k == scanner.Decrement {
				delta = -1
			}
			ip.bump(o.lv, intOperand(delta))
			o = old
		default:
			return o
		}
	}
}

// index resolves subscripting for arrays and pointers.
func (ip *Interp) index(o operand, i int) operand {
	if o.typ != nil && o.typ.Base == runtime.Pointer {
		return ip.deref(o, i)
	}
	if o.typ == nil || o.typ.Base != runtime.Array || o.lv == nil {
		ip.fail("%v cannot be indexed", ip.typeOf(o))
	}
	elem, err := o.lv.Elem(ip.rt.Arena, i)
	if err != nil {
		ip.fail("%v", err)
	}
	res := ip.rvalue(elem)
	res.own = o.lv
	res.idx = i
	return res
}

// call parses an argument list and invokes the callee. Arguments are
// collected left to right; the list is bounded by the callee's
// parameter count, checked after parsing.
func (ip *Interp) call(run bool, callee operand) operand {
	ip.expect(scanner.LParen)
	args := arraylist.New()
	if ip.scan.Peek().Kind != scanner.RParen {
		for {
			args.Add(ip.expression(run))
			if ip.scan.Peek().Kind != scanner.Comma {
				break
			}
			ip.scan.Next()
		}
	}
	ip.expect(scanner.RParen)
	if !run {
		return operand{}
	}
	if callee.typ == nil || callee.typ.Base != runtime.Function {
		ip.fail("%v cannot be called", ip.typeOf(callee))
	}
	ops := make([]operand, 0, args.Size())
	it := args.Iterator()
	for it.Next() {
		ops = append(ops, it.Value().(operand))
	}
	return ip.callFunction(&ip.funcs[callee.fn], ops, true)
}

// callFunction performs a function call: push a frame remembering the
// resume position, bind the parameters as frame locals, re-enter the
// body through the scanner of its defining source, and on return pop
// the frame and restore the caller's scanner. The defining source may
// be an earlier input than the caller's, so the whole scanner is
// swapped, not just its position. The return value, if any, was placed
// on the heap region by the return statement; it is read out and
// released here, after the callee's frame is gone.
func (ip *Interp) callFunction(fn *FuncDef, args []operand, run bool) operand {
	if !run {
		return operand{}
	}
	if fn.Intrinsic != nil {
		return fn.Intrinsic(ip, args)
	}
	if len(args) != len(fn.Params) {
		ip.fail("'%s' expects %d arguments, got %d", fn.Name, len(fn.Params),
			len(args))
	}
	caller := ip.scan
	resume := caller.State()
	ip.rt.Frames.PushFrame(fn.Name, resume)
	for i, p := range fn.Params {
		v := runtime.NewValue(ip.rt.Arena, p.Typ, false)
		ip.define(p.Name, v)
		ip.writeOperand(v, args[i])
	}
	savedTyp, savedVal := ip.retTyp, ip.retval
	ip.retTyp, ip.retval = fn.Ret, nil
	ip.scan = fn.Src
	ip.scan.SetState(fn.Body)
	ip.statement(true)
	rv := ip.retval
	ip.retTyp, ip.retval = savedTyp, savedVal
	back, err := ip.rt.Frames.PopFrame()
	if err != nil {
		ip.fail("%v", err)
	}
	ip.scan = caller
	caller.SetState(back.(scanner.State))
	if rv == nil {
		return operand{typ: runtime.VoidType}
	}
	res := ip.rvalue(rv)
	res.lv = nil
	rv.Release(ip.rt.Arena)
	return res
}

// --- Primaries ---------------------------------------------------------------

func (ip *Interp) primary(run bool) operand {
	tok := ip.scan.Next()
	switch tok.Kind {
	case scanner.IntConst:
		n, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			ip.fail("invalid integer constant '%s'", tok.Lexeme)
		}
		return intOperand(n)
	case scanner.FPConst:
		f, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			ip.fail("invalid fp constant '%s'", tok.Lexeme)
		}
		return fpOperand(f)
	case scanner.CharConst:
		return operand{typ: runtime.CharType, i: int64(charConst(tok.Lexeme))}
	case scanner.StringConst:
		return operand{typ: runtime.StringType, s: stringConst(tok.Lexeme)}
	case scanner.LParen:
		o := ip.expression(run)
		ip.expect(scanner.RParen)
		return o
	case scanner.Ident:
		if !run {
			return operand{}
		}
		return ip.resolve(tok.Lexeme)
	}
	ip.fail("unexpected token '%v'", tok.Kind)
	return operand{}
}

// resolve looks a name up and loads it. A macro name expands in place:
// the scanner of the macro's defining source is entered at the
// recorded replacement expression, the expression is evaluated, and
// the using scanner resumes.
func (ip *Interp) resolve(name string) operand {
	v, ok := ip.rt.Lookup(name)
	if !ok {
		ip.fail("'%s' is not defined", name)
	}
	if v.Typ.Base == runtime.Macro {
		fn := &ip.funcs[v.Val.Fn]
		user := ip.scan
		save := user.State()
		ip.scan = fn.Src
		ip.scan.SetState(fn.Body)
		o := ip.expression(true)
		ip.scan = user
		user.SetState(save)
		o.lv = nil
		return o
	}
	return ip.rvalue(v)
}

// charConst decodes a character literal including the usual escapes.
func charConst(lexeme string) byte {
	body := lexeme[1 : len(lexeme)-1]
	if len(body) == 1 {
		return body[0]
	}
	switch body[1] {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	}
	return body[1] // \\ \' and friends decode to themselves
}

// stringConst decodes a string literal. A literal without escapes stays
// a borrowed slice of the source text.
func stringConst(lexeme string) string {
	body := lexeme[1 : len(lexeme)-1]
	if !strings.ContainsRune(body, '\\') {
		return body
	}
	if s, err := strconv.Unquote(lexeme); err == nil {
		return s
	}
	return body
}
