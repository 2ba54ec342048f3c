package interp

import (
	"github.com/npillmayer/minic/runtime"
	"github.com/npillmayer/minic/scanner"
)

// Statements are parsed and executed in a single pass. Every statement
// consumes its full token extent regardless of the run flag: control
// flow toggles evaluation, never parsing, so skipped branches and
// function bodies leave the scanner in a well-defined position.

// flow signals how a statement finished.
type flow int

const (
	flowNormal flow = iota
	flowBreak       // a break statement, absorbed by the nearest loop
	flowReturn      // a return statement, absorbed by the active call
)

// expect consumes the next token, which has to be of kind k.
func (ip *Interp) expect(k scanner.Kind) scanner.Token {
	tok := ip.scan.Next()
	if tok.Kind != k {
		ip.fail("expected '%v', found '%v'", k, tok.Kind)
	}
	return tok
}

// parseType reads a type: a base type keyword, possibly followed by
// stars. 'char *' denotes the string type; all other starred types are
// pointers.
func (ip *Interp) parseType() *runtime.ValueType {
	tok := ip.scan.Next()
	var typ *runtime.ValueType
	switch tok.Kind {
	case scanner.KwInt:
		typ = runtime.IntType
	case scanner.KwChar:
		typ = runtime.CharType
	case scanner.KwFloat, scanner.KwDouble:
		typ = runtime.FPType
	case scanner.KwVoid:
		typ = runtime.VoidType
	default:
		ip.fail("expected a type, found '%v'", tok.Kind)
	}
	for ip.scan.Peek().Kind == scanner.Star {
		ip.scan.Next()
		if typ == runtime.CharType {
			typ = runtime.StringType
		} else {
			typ = runtime.PointerTo(typ)
		}
	}
	return typ
}

// statement parses one statement and, with run set, executes it.
func (ip *Interp) statement(run bool) flow {
	tok := ip.scan.Peek()
	switch tok.Kind {
	case scanner.KwInt, scanner.KwChar, scanner.KwFloat, scanner.KwDouble,
		scanner.KwVoid:
		ip.declaration(run)
	case scanner.KwDefine:
		ip.macroDef(run)
	case scanner.KwIf:
		return ip.ifStatement(run)
	case scanner.KwWhile:
		return ip.whileStatement(run)
	case scanner.KwDo:
		return ip.doStatement(run)
	case scanner.KwFor:
		return ip.forStatement(run)
	case scanner.KwBreak:
		ip.scan.Next()
		ip.expect(scanner.Semicolon)
		if run {
			return flowBreak
		}
	case scanner.KwReturn:
		return ip.returnStatement(run)
	case scanner.LBrace:
		return ip.block(run)
	case scanner.Semicolon: // empty statement
		ip.scan.Next()
	default:
		o := ip.expression(run)
		ip.expect(scanner.Semicolon)
		if run && !ip.rt.OnStack() {
			ip.lastResult = ip.renderOperand(o)
		}
	}
	return flowNormal
}

// block parses a brace-enclosed statement list. After a break or return
// the remaining statements are still parsed, with evaluation off, and
// the interrupting flow is propagated.
func (ip *Interp) block(run bool) flow {
	ip.expect(scanner.LBrace)
	f := flowNormal
	for ip.scan.Peek().Kind != scanner.RBrace {
		if ip.scan.Peek().Kind == scanner.EOF {
			ip.fail("unexpected end of input, '}' missing")
		}
		g := ip.statement(run && f == flowNormal)
		if f == flowNormal {
			f = g
		}
	}
	ip.expect(scanner.RBrace)
	return f
}

// declaration parses a variable declaration or a function definition,
// both introduced by a type.
func (ip *Interp) declaration(run bool) {
	typ := ip.parseType()
	name := ip.expect(scanner.Ident)
	if ip.scan.Peek().Kind == scanner.LParen {
		ip.functionDef(run, typ, name.Lexeme)
		return
	}
	for {
		ip.varDecl(run, typ, name.Lexeme)
		if ip.scan.Peek().Kind != scanner.Comma {
			break
		}
		ip.scan.Next()
		name = ip.expect(scanner.Ident)
	}
	ip.expect(scanner.Semicolon)
}

// varDecl declares one variable, with an optional array size and an
// optional initializer. Variables inside a call live on the arena's
// stack region and vanish with their frame; globals live on the heap
// region.
func (ip *Interp) varDecl(run bool, typ *runtime.ValueType, name string) {
	count := -1
	if ip.scan.Peek().Kind == scanner.LBracket {
		ip.scan.Next()
		sz := ip.expression(run)
		ip.expect(scanner.RBracket)
		if run {
			count = int(ip.intOf(sz))
		} else {
			count = 0
		}
	}
	var init operand
	hasInit := false
	if ip.scan.Peek().Kind == scanner.Assign {
		ip.scan.Next()
		init = ip.expression(run)
		hasInit = true
	}
	if !run {
		return
	}
	if typ.Base == runtime.Void {
		ip.fail("cannot declare '%s' of type void", name)
	}
	onHeap := !ip.rt.OnStack()
	var v *runtime.Value
	if count >= 0 {
		if count <= 0 {
			ip.fail("array '%s' needs a positive size", name)
		}
		v = runtime.NewArrayValue(ip.rt.Arena, typ, count, onHeap)
	} else {
		v = runtime.NewValue(ip.rt.Arena, typ, onHeap)
	}
	ip.define(name, v)
	if hasInit {
		ip.writeOperand(v, init)
	}
}

// functionDef parses a function definition. The body is not executed
// here: its source position is recorded in the function store, and the
// scanner re-enters it on every call.
func (ip *Interp) functionDef(run bool, ret *runtime.ValueType, name string) {
	ip.expect(scanner.LParen)
	var params []Param
	if ip.scan.Peek().Kind != scanner.RParen {
		for {
			ptyp := ip.parseType()
			pname := ip.expect(scanner.Ident)
			if len(params) >= ip.rt.Config.ParameterMax {
				ip.fail("'%s' exceeds the maximum of %d parameters", name,
					ip.rt.Config.ParameterMax)
			}
			params = append(params, Param{Name: pname.Lexeme, Typ: ptyp})
			if ip.scan.Peek().Kind != scanner.Comma {
				break
			}
			ip.scan.Next()
		}
	}
	ip.expect(scanner.RParen)
	body := ip.scan.State()
	ip.statement(false) // skip the body, consuming its extent
	if !run {
		return
	}
	if ip.rt.OnStack() {
		ip.fail("'%s': functions must be defined at the top level", name)
	}
	idx := ip.storeFunc(FuncDef{Name: name, Ret: ret, Params: params,
		Src: ip.scan, Body: body})
	ip.define(name, runtime.NewFuncValue(idx))
}

// macroDef parses '#define name expression'. The replacement expression
// is recorded as a source position and re-evaluated on every use of the
// name.
func (ip *Interp) macroDef(run bool) {
	ip.expect(scanner.KwDefine)
	name := ip.expect(scanner.Ident)
	body := ip.scan.State()
	ip.expression(false) // consume the replacement expression
	if !run {
		return
	}
	idx := ip.storeFunc(FuncDef{Name: name.Lexeme, IsMacro: true,
		Src: ip.scan, Body: body})
	ip.define(name.Lexeme, runtime.NewMacroValue(idx))
}

func (ip *Interp) ifStatement(run bool) flow {
	ip.expect(scanner.KwIf)
	ip.expect(scanner.LParen)
	cond := ip.expression(run)
	ip.expect(scanner.RParen)
	taken := run && ip.truthy(cond)
	f := ip.statement(taken)
	if ip.scan.Peek().Kind == scanner.KwElse {
		ip.scan.Next()
		g := ip.statement(run && !taken)
		if !taken {
			f = g
		}
	}
	if !run {
		return flowNormal
	}
	return f
}

func (ip *Interp) whileStatement(run bool) flow {
	ip.expect(scanner.KwWhile)
	condState := ip.scan.State()
	for {
		ip.scan.SetState(condState)
		ip.expect(scanner.LParen)
		cond := ip.expression(run)
		ip.expect(scanner.RParen)
		taken := run && ip.truthy(cond)
		f := ip.statement(taken)
		if f == flowReturn {
			return flowReturn
		}
		if !taken || f == flowBreak {
			return flowNormal
		}
	}
}

func (ip *Interp) doStatement(run bool) flow {
	ip.expect(scanner.KwDo)
	bodyState := ip.scan.State()
	for {
		ip.scan.SetState(bodyState)
		f := ip.statement(run)
		ip.expect(scanner.KwWhile)
		ip.expect(scanner.LParen)
		cond := ip.expression(run && f == flowNormal)
		ip.expect(scanner.RParen)
		ip.expect(scanner.Semicolon)
		if f == flowReturn {
			return flowReturn
		}
		if !run || f == flowBreak || !ip.truthy(cond) {
			return flowNormal
		}
	}
}

// forStatement executes 'for (init; cond; inc) body'. The condition,
// the increment and the body are separate source positions the scanner
// jumps between; the token position after the body is restored before
// the loop finishes or propagates a return.
func (ip *Interp) forStatement(run bool) flow {
	ip.expect(scanner.KwFor)
	ip.expect(scanner.LParen)
	if ip.scan.Peek().Kind != scanner.Semicolon {
		ip.expression(run)
	}
	ip.expect(scanner.Semicolon)
	condState := ip.scan.State()
	taken := run
	if ip.scan.Peek().Kind != scanner.Semicolon {
		cond := ip.expression(run)
		taken = run && ip.truthy(cond)
	}
	ip.expect(scanner.Semicolon)
	incState := ip.scan.State()
	if ip.scan.Peek().Kind != scanner.RParen {
		ip.expression(false)
	}
	ip.expect(scanner.RParen)
	bodyState := ip.scan.State()
	f := ip.statement(taken)
	endState := ip.scan.State()
	for taken && f == flowNormal {
		ip.scan.SetState(incState)
		if ip.scan.Peek().Kind != scanner.RParen {
			ip.expression(true)
		}
		ip.scan.SetState(condState)
		taken = true
		if ip.scan.Peek().Kind != scanner.Semicolon {
			cond := ip.expression(true)
			taken = ip.truthy(cond)
		}
		if !taken {
			break
		}
		ip.scan.SetState(bodyState)
		f = ip.statement(true)
	}
	ip.scan.SetState(endState)
	if f == flowReturn {
		return flowReturn
	}
	return flowNormal
}

func (ip *Interp) returnStatement(run bool) flow {
	ip.expect(scanner.KwReturn)
	var o operand
	hasValue := false
	if ip.scan.Peek().Kind != scanner.Semicolon {
		o = ip.expression(run)
		hasValue = true
	}
	ip.expect(scanner.Semicolon)
	if !run {
		return flowNormal
	}
	if ip.retTyp == nil {
		ip.fail("return outside of a function")
	}
	if ip.retTyp.Base != runtime.Void {
		if !hasValue {
			ip.fail("return needs a value of type %v", ip.retTyp)
		}
		// The return value outlives the callee's frame, so its storage
		// comes from the heap region; the call site reads and releases
		// it after the frame pops.
		rv := runtime.NewValue(ip.rt.Arena, ip.retTyp, true)
		ip.writeOperand(rv, o)
		ip.retval = rv
	}
	return flowReturn
}
