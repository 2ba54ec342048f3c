package runtime

import (
	"hash/fnv"
)

// Symbol tables for variables. One fixed-capacity table holds the
// globals of an interpreter instance; every active call frame binds a
// fresh one for its locals. Tables never grow: capacities are set at
// configuration time for the expected program size, which keeps the
// memory bound deterministic.

// TableEntry is one slot of a symbol table. The key is a slice of the
// source text; it refers into the program being interpreted and is
// never copied.
type TableEntry struct {
	Key  string
	Val  *Value
	used bool
}

// Table is a fixed-capacity hash table mapping names to values, with
// open addressing and linear probing. Entries are never removed, so a
// probe run may stop at the first empty slot.
type Table struct {
	entries []TableEntry
}

// Init binds a table to pre-allocated entry storage. The capacity is
// len(storage) and stays fixed for the table's lifetime.
func (t *Table) Init(storage []TableEntry) *Table {
	t.entries = storage
	return t
}

// Capacity returns the fixed capacity of the table.
func (t *Table) Capacity() int {
	return len(t.entries)
}

// Size counts the entries currently stored.
func (t *Table) Size() int {
	n := 0
	for i := range t.entries {
		if t.entries[i].used {
			n++
		}
	}
	return n
}

func hashKey(key string, capacity int) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(capacity))
}

// Set inserts a new entry. It reports false without mutating the table
// if the key is already present (redefinition within one scope is a
// caller-visible condition, not an overwrite) or if the table is full.
func (t *Table) Set(key string, val *Value) bool {
	capacity := len(t.entries)
	if capacity == 0 {
		tracer().Errorf("symbol table without storage, cannot store '%s'", key)
		return false
	}
	slot := hashKey(key, capacity)
	for i := 0; i < capacity; i++ {
		e := &t.entries[slot]
		if !e.used {
			e.Key = key
			e.Val = val
			e.used = true
			return true
		}
		if e.Key == key {
			return false // duplicate definition
		}
		slot = (slot + 1) % capacity
	}
	tracer().Errorf("symbol table full (capacity %d), cannot store '%s'", capacity, key)
	return false
}

// Get probes for a key. A miss is a normal outcome: callers chain a
// local-table lookup into the global table to implement scoping.
func (t *Table) Get(key string) (*Value, bool) {
	capacity := len(t.entries)
	if capacity == 0 {
		return nil, false
	}
	slot := hashKey(key, capacity)
	for i := 0; i < capacity; i++ {
		e := &t.entries[slot]
		if !e.used {
			return nil, false
		}
		if e.Key == key {
			return e.Val, true
		}
		slot = (slot + 1) % capacity
	}
	return nil, false
}

// Each iterates over the stored entries, calling a mapper function.
func (t *Table) Each(mapper func(string, *Value)) {
	for i := range t.entries {
		if t.entries[i].used {
			mapper(t.entries[i].Key, t.entries[i].Val)
		}
	}
}
