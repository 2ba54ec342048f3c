package runtime

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/npillmayer/minic/mem"
)

// --- Types ------------------------------------------------------------------

// BaseType discriminates the kinds of MiniC values.
type BaseType int8

// The base types of the MiniC language.
const (
	Void BaseType = iota
	Int
	FP
	Char // acts like an integer, except in machine memory access
	String
	Function
	Macro
	Pointer
	Array
	Type // a type used as a value, e.g. in a declaration
)

func (b BaseType) String() string {
	switch b {
	case Void:
		return "void"
	case Int:
		return "int"
	case FP:
		return "fp"
	case Char:
		return "char"
	case String:
		return "string"
	case Function:
		return "function"
	case Macro:
		return "macro"
	case Pointer:
		return "pointer"
	case Array:
		return "array"
	case Type:
		return "type"
	}
	return "?"
}

// ValueType is a type descriptor. Pointer and array types reference the
// type of their element; all other types stand alone.
type ValueType struct {
	Base BaseType
	Sub  *ValueType // non-nil exactly for Pointer and Array
}

// The base types are singletons, living as long as the process.
// Composite types are built per use with PointerTo and ArrayOf.
var (
	VoidType     = &ValueType{Base: Void}
	IntType      = &ValueType{Base: Int}
	FPType       = &ValueType{Base: FP}
	CharType     = &ValueType{Base: Char}
	StringType   = &ValueType{Base: String}
	FunctionType = &ValueType{Base: Function}
	MacroType    = &ValueType{Base: Macro}
	TypeType     = &ValueType{Base: Type}
)

// PointerTo builds a pointer type with element type t.
func PointerTo(t *ValueType) *ValueType {
	return &ValueType{Base: Pointer, Sub: t}
}

// ArrayOf builds an array type with element type t.
func ArrayOf(t *ValueType) *ValueType {
	return &ValueType{Base: Array, Sub: t}
}

// Equal compares two types structurally. Composite types are not
// interned: two independently built "array of int" descriptors are
// distinct nodes and must still compare as equal.
func (t *ValueType) Equal(other *ValueType) bool {
	if t == other {
		return true
	}
	if t == nil || other == nil || t.Base != other.Base {
		return false
	}
	if t.Sub == nil {
		return other.Sub == nil
	}
	return t.Sub.Equal(other.Sub)
}

// IsPlainValue is a predicate: may values of this type appear directly
// in arithmetic and assignment contexts? This is exactly {int, fp,
// string}. Char is deliberately not a plain value type: it behaves
// numerically in most contexts, but keeps machine-memory semantics when
// accessed through a pointer.
func (t *ValueType) IsPlainValue() bool {
	return t.Base == Int || t.Base == FP || t.Base == String
}

// Size returns the machine storage size of a value of this type, in
// bytes. Types without machine storage (strings, functions, macros,
// void) report zero.
func (t *ValueType) Size() int {
	switch t.Base {
	case Char:
		return 1
	case Int, FP, Pointer:
		return 8
	}
	return 0
}

func (t *ValueType) String() string {
	switch t.Base {
	case Pointer:
		return t.Sub.String() + "*"
	case Array:
		return t.Sub.String() + "[]"
	}
	return t.Base.String()
}

// --- Values -----------------------------------------------------------------

// ArrayValue is an element count plus the owned contiguous data block
// holding count × element-size bytes of arena memory.
type ArrayValue struct {
	Count int
	Data  mem.Block
}

// PointerValue is the payload of a pointer-typed value. It has two
// mutually exclusive modes, distinguished by Target:
//
// With a Target, the pointer weakly references the value it points
// into, plus an element index; dereferencing is bounds-checked against
// the target. Without a Target, Raw addresses arena memory directly and
// dereferencing performs no bounds tracking. Raw pointers are the
// escape hatch for low-level memory access.
type PointerValue struct {
	Target *Value
	Index  int
	Raw    mem.Block
}

// AnyValue holds the data of a value. Which of the fields is meaningful
// is discriminated by the paired ValueType, not by the storage itself.
// Machine scalars (char, short, int, fp) live in arena memory referenced
// by Cell; the remaining variants are interpreter-side headers.
type AnyValue struct {
	Cell  mem.Block // machine storage for scalar types
	Str   string    // a borrowed slice of source text
	Array ArrayValue
	Ptr   PointerValue
	Fn    int // index into the interpreter's function store
}

// Value is a runtime datum: a borrowed type descriptor paired with a
// data reference. Whether the data may be released individually is
// encoded in its arena block: only heap-region blocks are ever freed,
// stack-region data is reclaimed by frame pop.
type Value struct {
	Typ *ValueType
	Val *AnyValue
}

// NewValue builds a value of the given type, allocating machine storage
// from the arena if the type needs any. With onHeap set the storage is
// carved from the heap region and the value outlives its creating
// frame; otherwise it lives on the stack region until the frame pops.
func NewValue(a *mem.Arena, typ *ValueType, onHeap bool) *Value {
	v := &Value{Typ: typ, Val: &AnyValue{}}
	if size := typ.Size(); size > 0 {
		if onHeap {
			v.Val.Cell = a.Alloc(size)
		} else {
			v.Val.Cell = a.AllocStack(size)
		}
		zero(a.Bytes(v.Val.Cell))
	}
	return v
}

// zero clears freshly allocated machine storage; arena memory is
// reused and would otherwise hold stale bytes.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// NewArrayValue builds an array of count elements of type elem, with
// its data block carved from the requested arena region.
func NewArrayValue(a *mem.Arena, elem *ValueType, count int, onHeap bool) *Value {
	size := elem.Size()
	if size == 0 {
		panic(fmt.Sprintf("array of %v: element type has no machine storage", elem))
	}
	var data mem.Block
	if onHeap {
		data = a.Alloc(count * size)
	} else {
		data = a.AllocStack(count * size)
	}
	zero(a.Bytes(data))
	return &Value{
		Typ: ArrayOf(elem),
		Val: &AnyValue{Array: ArrayValue{Count: count, Data: data}},
	}
}

// NewStringValue builds a string value over a slice of source text.
// Strings are borrowed, never copied, and carry no arena storage.
func NewStringValue(s string) *Value {
	return &Value{Typ: StringType, Val: &AnyValue{Str: s}}
}

// NewFuncValue builds a function value referencing a slot of the
// interpreter's function store.
func NewFuncValue(index int) *Value {
	return &Value{Typ: FunctionType, Val: &AnyValue{Fn: index}}
}

// NewMacroValue builds a macro value referencing a slot of the
// interpreter's function store.
func NewMacroValue(index int) *Value {
	return &Value{Typ: MacroType, Val: &AnyValue{Fn: index}}
}

// NewPointerValue builds a pointer of type elem* referencing element
// index of target.
func NewPointerValue(a *mem.Arena, elem *ValueType, target *Value, index int, onHeap bool) *Value {
	v := NewValue(a, PointerTo(elem), onHeap)
	v.Val.Ptr = PointerValue{Target: target, Index: index}
	return v
}

// NewRawPointerValue builds a pointer of type elem* addressing arena
// memory directly, with no owning value and no bounds tracking.
func NewRawPointerValue(a *mem.Arena, elem *ValueType, raw mem.Block, onHeap bool) *Value {
	v := NewValue(a, PointerTo(elem), onHeap)
	v.Val.Ptr = PointerValue{Raw: raw}
	return v
}

// Release returns a value's machine storage to the arena's heap region.
// Stack-resident storage is left alone; it is reclaimed wholesale when
// its frame pops.
func (v *Value) Release(a *mem.Arena) {
	if v.Val == nil {
		return
	}
	if v.Val.Cell.InHeap() {
		a.Free(v.Val.Cell)
		v.Val.Cell = mem.Block{}
	}
	if v.Val.Array.Data.InHeap() {
		a.Free(v.Val.Array.Data)
		v.Val.Array.Data = mem.Block{}
	}
}

// --- Scalar access ----------------------------------------------------------

// Machine scalars are encoded into their arena cell with a fixed-width
// little-endian layout: char occupies a single byte, int and fp eight.
// Keeping chars byte-sized is what preserves machine semantics for
// pointer access into char arrays.

// Int reads an integer value's machine cell.
func (v *Value) Int(a *mem.Arena) int64 {
	return int64(binary.LittleEndian.Uint64(a.Bytes(v.Val.Cell)))
}

// SetInt writes an integer value's machine cell.
func (v *Value) SetInt(a *mem.Arena, n int64) {
	binary.LittleEndian.PutUint64(a.Bytes(v.Val.Cell), uint64(n))
}

// FP reads a floating point value's machine cell.
func (v *Value) FP(a *mem.Arena) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(a.Bytes(v.Val.Cell)))
}

// SetFP writes a floating point value's machine cell.
func (v *Value) SetFP(a *mem.Arena, f float64) {
	binary.LittleEndian.PutUint64(a.Bytes(v.Val.Cell), math.Float64bits(f))
}

// Short reads two bytes of a machine cell as a short integer. MiniC has
// no short base type; shorts exist for raw memory access only.
func (v *Value) Short(a *mem.Arena) int16 {
	return int16(binary.LittleEndian.Uint16(a.Bytes(v.Val.Cell)))
}

// SetShort writes two bytes of a machine cell as a short integer.
func (v *Value) SetShort(a *mem.Arena, n int16) {
	binary.LittleEndian.PutUint16(a.Bytes(v.Val.Cell), uint16(n))
}

// Char reads a character value's machine cell.
func (v *Value) Char(a *mem.Arena) byte {
	return a.Bytes(v.Val.Cell)[0]
}

// SetChar writes a character value's machine cell.
func (v *Value) SetChar(a *mem.Arena, c byte) {
	a.Bytes(v.Val.Cell)[0] = c
}

// --- Arrays and pointers ----------------------------------------------------

// Elem returns element i of an array value. The element is a view into
// the array's data block: writing through it writes the array. An index
// at or beyond the element count is reported as out of bounds, never
// silently satisfied.
func (v *Value) Elem(a *mem.Arena, i int) (*Value, error) {
	if v.Typ.Base != Array {
		return nil, fmt.Errorf("%v is not an array", v.Typ)
	}
	arr := v.Val.Array
	if i < 0 || i >= arr.Count {
		return nil, fmt.Errorf("array index %d out of bounds (size %d)", i, arr.Count)
	}
	size := v.Typ.Sub.Size()
	cell := arr.Data.Slice(i*size, size)
	return &Value{Typ: v.Typ.Sub, Val: &AnyValue{Cell: cell}}, nil
}

// Deref resolves a pointer value to its effective element. A pointer
// carrying an owning target is checked against the target's bounds; a
// raw pointer reads arena memory at its index with no bounds tracking.
func (v *Value) Deref(a *mem.Arena) (*Value, error) {
	if v.Typ.Base != Pointer {
		return nil, fmt.Errorf("%v is not a pointer", v.Typ)
	}
	ptr := v.Val.Ptr
	if ptr.Target != nil {
		if ptr.Target.Typ.Base == Array {
			return ptr.Target.Elem(a, ptr.Index)
		}
		if ptr.Index != 0 {
			return nil, fmt.Errorf("pointer index %d out of bounds (size 1)", ptr.Index)
		}
		return ptr.Target, nil
	}
	if ptr.Raw.IsNull() {
		return nil, fmt.Errorf("dereference of a null pointer")
	}
	size := v.Typ.Sub.Size()
	if ptr.Index < 0 || ptr.Index*size+size > ptr.Raw.Size() {
		return nil, fmt.Errorf("pointer index %d out of bounds for %d bytes",
			ptr.Index, ptr.Raw.Size())
	}
	cell := ptr.Raw.Slice(ptr.Index*size, size)
	return &Value{Typ: v.Typ.Sub, Val: &AnyValue{Cell: cell}}, nil
}

// --- Assignment -------------------------------------------------------------

// Assign stores src into dst's storage, converting between the numeric
// types the way C does. Assignment never changes dst's type.
func (dst *Value) Assign(a *mem.Arena, src *Value) error {
	switch dst.Typ.Base {
	case Int:
		switch src.Typ.Base {
		case Int:
			dst.SetInt(a, src.Int(a))
		case Char:
			dst.SetInt(a, int64(src.Char(a)))
		case FP:
			dst.SetInt(a, int64(src.FP(a)))
		default:
			return assignError(dst, src)
		}
	case FP:
		switch src.Typ.Base {
		case FP:
			dst.SetFP(a, src.FP(a))
		case Int:
			dst.SetFP(a, float64(src.Int(a)))
		case Char:
			dst.SetFP(a, float64(src.Char(a)))
		default:
			return assignError(dst, src)
		}
	case Char:
		switch src.Typ.Base {
		case Char:
			dst.SetChar(a, src.Char(a))
		case Int:
			dst.SetChar(a, byte(src.Int(a)))
		default:
			return assignError(dst, src)
		}
	case String:
		if src.Typ.Base != String {
			return assignError(dst, src)
		}
		dst.Val.Str = src.Val.Str
	case Pointer:
		if src.Typ.Base != Pointer || !dst.Typ.Sub.Equal(src.Typ.Sub) {
			return assignError(dst, src)
		}
		dst.Val.Ptr = src.Val.Ptr
	default:
		return assignError(dst, src)
	}
	return nil
}

func assignError(dst, src *Value) error {
	return fmt.Errorf("cannot assign %v to %v", src.Typ, dst.Typ)
}

// Render formats a value for output.
func (v *Value) Render(a *mem.Arena) string {
	switch v.Typ.Base {
	case Void:
		return "void"
	case Int:
		return fmt.Sprintf("%d", v.Int(a))
	case FP:
		return fmt.Sprintf("%g", v.FP(a))
	case Char:
		return fmt.Sprintf("'%c'", v.Char(a))
	case String:
		return v.Val.Str
	case Function:
		return "<function>"
	case Macro:
		return "<macro>"
	case Pointer:
		return fmt.Sprintf("<%v @%d>", v.Typ, v.Val.Ptr.Index)
	case Array:
		return fmt.Sprintf("<%v size %d>", v.Typ, v.Val.Array.Count)
	case Type:
		return "<type>"
	}
	return "?"
}
