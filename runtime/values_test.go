package runtime

import (
	"testing"

	"github.com/npillmayer/minic/mem"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestTypeEquality(t *testing.T) {
	t1 := ArrayOf(IntType)
	t2 := ArrayOf(IntType)
	if t1 == t2 {
		t.Error("composite types should not be interned")
	}
	if !t1.Equal(t2) {
		t.Error("two array-of-int types should compare as equal")
	}
	if t1.Equal(ArrayOf(FPType)) {
		t.Error("array-of-int should not equal array-of-fp")
	}
	if !PointerTo(CharType).Equal(PointerTo(CharType)) {
		t.Error("two char* types should compare as equal")
	}
	if PointerTo(CharType).Equal(ArrayOf(CharType)) {
		t.Error("char* should not equal char[]")
	}
}

func TestPlainValuePredicate(t *testing.T) {
	for _, typ := range []*ValueType{IntType, FPType, StringType} {
		if !typ.IsPlainValue() {
			t.Errorf("%v should be a plain value type", typ)
		}
	}
	// char behaves numerically in most contexts, but is not a plain
	// value type
	if CharType.IsPlainValue() {
		t.Error("char must not be a plain value type")
	}
	if PointerTo(IntType).IsPlainValue() {
		t.Error("pointer must not be a plain value type")
	}
}

func TestScalarRoundtrip(t *testing.T) {
	a := mem.NewArena(256, 4)
	i := NewValue(a, IntType, false)
	i.SetInt(a, -42)
	if i.Int(a) != -42 {
		t.Errorf("int roundtrip: got %d", i.Int(a))
	}
	f := NewValue(a, FPType, false)
	f.SetFP(a, 3.25)
	if f.FP(a) != 3.25 {
		t.Errorf("fp roundtrip: got %g", f.FP(a))
	}
	c := NewValue(a, CharType, false)
	c.SetChar(a, 'x')
	if c.Char(a) != 'x' {
		t.Errorf("char roundtrip: got %c", c.Char(a))
	}
}

func TestCharCellIsOneByte(t *testing.T) {
	a := mem.NewArena(256, 4)
	arr := NewArrayValue(a, CharType, 4, false)
	if arr.Val.Array.Data.Size() != mem.Align(4) {
		t.Errorf("char[4] data block is %d bytes", arr.Val.Array.Data.Size())
	}
	for i := 0; i < 4; i++ {
		el, err := arr.Elem(a, i)
		if err != nil {
			t.Fatal(err)
		}
		el.SetChar(a, byte('a'+i))
	}
	if string(a.Bytes(arr.Val.Array.Data)[:4]) != "abcd" {
		t.Error("char array elements not adjacent machine bytes")
	}
}

func TestArrayBounds(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "minic.runtime")
	defer teardown()
	//
	a := mem.NewArena(512, 4)
	arr := NewArrayValue(a, IntType, 3, false)
	el, err := arr.Elem(a, 2)
	if err != nil {
		t.Error(err)
	}
	el.SetInt(a, 7)
	if el2, _ := arr.Elem(a, 2); el2.Int(a) != 7 {
		t.Error("array element write not visible through re-read")
	}
	if _, err = arr.Elem(a, 3); err == nil {
		t.Error("index == count must be rejected as out of bounds")
	}
}

func TestPointerDeref(t *testing.T) {
	a := mem.NewArena(512, 4)
	arr := NewArrayValue(a, IntType, 3, false)
	for i := 0; i < 3; i++ {
		el, _ := arr.Elem(a, i)
		el.SetInt(a, int64(10*i))
	}
	p := NewPointerValue(a, IntType, arr, 1, false)
	el, err := p.Deref(a)
	if err != nil {
		t.Fatal(err)
	}
	if el.Int(a) != 10 {
		t.Errorf("deref of element 1 = %d, want 10", el.Int(a))
	}
	p.Val.Ptr.Index = 3
	if _, err = p.Deref(a); err == nil {
		t.Error("deref at index == count must be rejected")
	}
}

func TestRawPointerDeref(t *testing.T) {
	a := mem.NewArena(512, 4)
	arr := NewArrayValue(a, CharType, 8, false)
	for i := 0; i < 8; i++ {
		el, _ := arr.Elem(a, i)
		el.SetChar(a, byte('0'+i))
	}
	// raw access into the array's memory, bypassing bounds tracking
	p := NewRawPointerValue(a, CharType, arr.Val.Array.Data, false)
	p.Val.Ptr.Index = 5
	el, err := p.Deref(a)
	if err != nil {
		t.Fatal(err)
	}
	if el.Char(a) != '5' {
		t.Errorf("raw deref = %c, want 5", el.Char(a))
	}
}

func TestAssignConversions(t *testing.T) {
	a := mem.NewArena(512, 4)
	i := NewValue(a, IntType, false)
	f := NewValue(a, FPType, false)
	c := NewValue(a, CharType, false)
	f.SetFP(a, 2.75)
	if err := i.Assign(a, f); err != nil {
		t.Error(err)
	}
	if i.Int(a) != 2 {
		t.Errorf("int = fp assignment: got %d, want 2", i.Int(a))
	}
	c.SetChar(a, 'A')
	if err := i.Assign(a, c); err != nil {
		t.Error(err)
	}
	if i.Int(a) != 65 {
		t.Errorf("int = char assignment: got %d, want 65", i.Int(a))
	}
	s := NewStringValue("hello")
	if err := i.Assign(a, s); err == nil {
		t.Error("int = string assignment should fail")
	}
}

func TestReleaseHeapValue(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "minic.runtime")
	defer teardown()
	//
	a := mem.NewArena(512, 4)
	v := NewValue(a, IntType, true)
	off := v.Val.Cell.Offset()
	v.Release(a)
	v2 := NewValue(a, IntType, true)
	if v2.Val.Cell.Offset() != off {
		t.Error("released heap cell not reused")
	}
	// stack-resident values are never individually released
	w := NewValue(a, IntType, false)
	top := a.StackTop()
	w.Release(a) // no-op
	if a.StackTop() != top {
		t.Error("releasing a stack value must not disturb the stack region")
	}
}

func TestRawPointerDerefGuards(t *testing.T) {
	a := mem.NewArena(512, 4)
	p := NewValue(a, PointerTo(IntType), false)
	if _, err := p.Deref(a); err == nil {
		t.Error("deref of a null raw pointer must be rejected")
	}
	arr := NewArrayValue(a, IntType, 2, false)
	q := NewRawPointerValue(a, IntType, arr.Val.Array.Data, false)
	q.Val.Ptr.Index = 2
	if _, err := q.Deref(a); err == nil {
		t.Error("raw deref past the end of the block must be rejected")
	}
}
