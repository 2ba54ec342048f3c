package runtime

import (
	"fmt"
	"testing"

	"github.com/npillmayer/minic/mem"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func newTestTable(capacity int) *Table {
	return new(Table).Init(make([]TableEntry, capacity))
}

func TestTableSetGet(t *testing.T) {
	a := mem.NewArena(256, 4)
	tbl := newTestTable(11)
	v := NewValue(a, IntType, false)
	v.SetInt(a, 1)
	if !tbl.Set("x", v) {
		t.Error("first definition of 'x' should succeed")
	}
	got, found := tbl.Get("x")
	if !found {
		t.Error("cannot find stored symbol in table")
	}
	if got != v {
		t.Error("lookup returned a different value")
	}
}

func TestTableDuplicateRejected(t *testing.T) {
	a := mem.NewArena(256, 4)
	tbl := newTestTable(11)
	v1 := NewValue(a, IntType, false)
	v1.SetInt(a, 1)
	v2 := NewValue(a, IntType, false)
	v2.SetInt(a, 2)
	if !tbl.Set("x", v1) {
		t.Error("first definition of 'x' should succeed")
	}
	if tbl.Set("x", v2) {
		t.Error("redefinition of 'x' should fail")
	}
	got, _ := tbl.Get("x")
	if got != v1 {
		t.Error("failed redefinition must leave the existing entry unchanged")
	}
}

func TestTableMiss(t *testing.T) {
	tbl := newTestTable(11)
	if _, found := tbl.Get("nope"); found {
		t.Error("lookup of absent key should miss")
	}
	if tbl.Size() != 0 {
		t.Error("a miss must not mutate the table")
	}
}

func TestTableCapacity(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "minic.runtime")
	defer teardown()
	//
	a := mem.NewArena(1024, 4)
	const capacity = 7
	tbl := newTestTable(capacity)
	v := NewValue(a, IntType, false)
	for i := 0; i < capacity; i++ {
		key := fmt.Sprintf("k%d", i)
		if !tbl.Set(key, v) {
			t.Errorf("insertion %d of %d should succeed", i+1, capacity)
		}
	}
	if tbl.Set("overflow", v) {
		t.Error("insertion beyond capacity should fail")
	}
	if tbl.Size() != capacity {
		t.Errorf("table holds %d entries, want %d", tbl.Size(), capacity)
	}
	// every stored key must still be retrievable after the probe
	// sequence wrapped around
	for i := 0; i < capacity; i++ {
		if _, found := tbl.Get(fmt.Sprintf("k%d", i)); !found {
			t.Errorf("key k%d lost", i)
		}
	}
}

func TestTableEach(t *testing.T) {
	a := mem.NewArena(256, 4)
	tbl := newTestTable(11)
	tbl.Set("a", NewValue(a, IntType, false))
	tbl.Set("b", NewValue(a, IntType, false))
	n := 0
	tbl.Each(func(string, *Value) { n++ })
	if n != 2 {
		t.Errorf("Each visited %d entries, want 2", n)
	}
}

func TestTableWithoutStorage(t *testing.T) {
	tbl := new(Table).Init(nil)
	if tbl.Set("x", nil) {
		t.Error("insert into a table without storage should fail")
	}
	if _, found := tbl.Get("x"); found {
		t.Error("lookup in a table without storage should miss")
	}
}
