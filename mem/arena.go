package mem

import (
	"fmt"

	"github.com/emirpasic/gods/stacks/arraystack"
)

// AlignWordSize is the alignment boundary for arena allocations.
// Every allocation size is rounded up to a multiple of this.
const AlignWordSize = 8

// Align rounds size up to the next alignment boundary.
func Align(size int) int {
	return (size + AlignWordSize - 1) &^ (AlignWordSize - 1)
}

// --- Blocks -----------------------------------------------------------------

// Block is a handle for a region of arena memory. Blocks are
// arena-relative: they carry an offset into the backing buffer, not a
// host pointer. The zero Block is the null block.
type Block struct {
	off  int
	size int
	heap bool // carved from the heap region, i.e. individually releasable
}

// IsNull is a predicate: is this the null block?
func (b Block) IsNull() bool {
	return b == Block{}
}

// Offset returns the arena-relative offset of a block.
func (b Block) Offset() int {
	return b.off
}

// Size returns the usable size of a block in bytes.
func (b Block) Size() int {
	return b.size
}

// InHeap is a predicate: was this block carved from the heap region?
// Only heap blocks may be released individually; stack blocks are
// reclaimed wholesale when their frame is popped.
func (b Block) InHeap() bool {
	return b.heap
}

// Slice returns a view of a part of a block, e.g. a single array
// element within an array's data block. A view is never individually
// releasable, regardless of the region of its parent block.
func (b Block) Slice(off, size int) Block {
	if off < 0 || size < 0 || off+size > b.size {
		panic(fmt.Sprintf("block slice [%d+%d] out of range for %v", off, size, b))
	}
	return Block{off: b.off + off, size: size}
}

func (b Block) String() string {
	region := "stack"
	if b.heap {
		region = "heap"
	}
	return fmt.Sprintf("<block %s %d+%d>", region, b.off, b.size)
}

// --- Arena ------------------------------------------------------------------

// Arena is the fixed-size memory pool of one interpreter instance. The
// stack region grows upward from offset 0, the heap region grows
// downward from the end of the buffer.
type Arena struct {
	buf        []byte
	stackTop   int               // first free byte of the stack region
	heapBottom int               // lowest byte ever owned by the heap region
	marks      *arraystack.Stack // frame restore points, bounded by maxDepth
	maxDepth   int
	freelist   []Block // released heap blocks, sorted by offset
}

// NewArena sets up an arena with the given buffer size and maximum call
// depth. Both region boundaries are reset to the buffer's ends.
func NewArena(size int, maxDepth int) *Arena {
	a := &Arena{
		buf:        make([]byte, size),
		stackTop:   0,
		heapBottom: size,
		marks:      arraystack.New(),
		maxDepth:   maxDepth,
	}
	tracer().Debugf("arena initialized with %d bytes, call depth %d", size, maxDepth)
	return a
}

// Bytes returns the memory of a block for reading and writing.
func (a *Arena) Bytes(b Block) []byte {
	return a.buf[b.off : b.off+b.size : b.off+b.size]
}

// StackTop returns the current top of the stack region.
func (a *Arena) StackTop() int {
	return a.stackTop
}

// Depth returns the number of pending stack frames.
func (a *Arena) Depth() int {
	return a.marks.Size()
}

// Avail returns the number of unallocated bytes between the two regions.
func (a *Arena) Avail() int {
	return a.heapBottom - a.stackTop
}

// AllocStack bump-allocates size bytes from the stack region, rounded up
// to the alignment boundary. Exhaustion is fatal.
func (a *Arena) AllocStack(size int) Block {
	size = Align(size)
	if a.stackTop+size > a.heapBottom {
		tracer().Errorf("arena exhausted: stack allocation of %d bytes, %d avail", size, a.Avail())
		panic(&OutOfMemoryError{Requested: size, Region: "stack", Avail: a.Avail()})
	}
	b := Block{off: a.stackTop, size: size}
	a.stackTop += size
	return b
}

// PushStackFrame records the current stack top as a restore point. The
// restore point stack is bounded by the configured maximum call depth;
// exceeding it is a fatal call-stack overflow.
func (a *Arena) PushStackFrame() {
	if a.marks.Size() >= a.maxDepth {
		tracer().Errorf("call stack overflow at depth %d", a.maxDepth)
		panic(&StackOverflowError{Depth: a.maxDepth})
	}
	a.marks.Push(a.stackTop)
	tracer().P("depth", a.marks.Size()).Debugf("pushing stack frame at %d", a.stackTop)
}

// PopStackFrame restores the stack top to the most recent restore point,
// releasing everything allocated on the stack region since the matching
// push in one step. Nothing is inspected or cleaned up per object.
// Popping without a matching push signals a caller bug and is returned
// as an error, not treated as fatal.
func (a *Arena) PopStackFrame() error {
	mark, ok := a.marks.Pop()
	if !ok {
		return fmt.Errorf("pop of stack frame without matching push")
	}
	a.stackTop = mark.(int)
	tracer().P("depth", a.marks.Size()).Debugf("popping stack frame, top back to %d", a.stackTop)
	return nil
}

// Alloc carves a block from the heap region for a value whose lifetime
// is not framed. Released blocks are kept on a first-fit free list;
// when no free block is large enough, the heap region grows downward.
// Exhaustion is fatal.
func (a *Arena) Alloc(size int) Block {
	size = Align(size)
	for i, f := range a.freelist {
		if f.size < size {
			continue
		}
		if f.size == size {
			a.freelist = append(a.freelist[:i], a.freelist[i+1:]...)
			return f
		}
		// split, keeping the tail on the free list
		b := Block{off: f.off, size: size, heap: true}
		a.freelist[i] = Block{off: f.off + size, size: f.size - size, heap: true}
		return b
	}
	if a.heapBottom-size < a.stackTop {
		tracer().Errorf("arena exhausted: heap allocation of %d bytes, %d avail", size, a.Avail())
		panic(&OutOfMemoryError{Requested: size, Region: "heap", Avail: a.Avail()})
	}
	a.heapBottom -= size
	return Block{off: a.heapBottom, size: size, heap: true}
}

// Free returns a heap block to the free list, coalescing with adjacent
// free blocks. Stack-resident blocks are never individually freed;
// passing one is ignored (with a trace), since the block will be
// reclaimed by its frame's pop.
func (a *Arena) Free(b Block) {
	if !b.heap {
		tracer().Errorf("attempt to free stack-resident block %v, ignored", b)
		return
	}
	i := 0
	for i < len(a.freelist) && a.freelist[i].off < b.off {
		i++
	}
	a.freelist = append(a.freelist, Block{})
	copy(a.freelist[i+1:], a.freelist[i:])
	a.freelist[i] = b
	a.coalesce(i)
	if i > 0 {
		a.coalesce(i - 1)
	}
}

// coalesce merges freelist[i] with its successor if they are adjacent.
func (a *Arena) coalesce(i int) {
	if i+1 >= len(a.freelist) {
		return
	}
	f, g := a.freelist[i], a.freelist[i+1]
	if f.off+f.size == g.off {
		a.freelist[i] = Block{off: f.off, size: f.size + g.size, heap: true}
		a.freelist = append(a.freelist[:i+1], a.freelist[i+2:]...)
	}
}

// --- Fatal conditions -------------------------------------------------------

// OutOfMemoryError signals arena exhaustion. It is thrown as a panic
// value; exhaustion is never recoverable at the allocation site.
type OutOfMemoryError struct {
	Requested int
	Avail     int
	Region    string
}

func (e *OutOfMemoryError) Error() string {
	return fmt.Sprintf("out of memory: %d bytes requested from %s region, %d available",
		e.Requested, e.Region, e.Avail)
}

// StackOverflowError signals that the maximum call depth has been
// exceeded. It is thrown as a panic value.
type StackOverflowError struct {
	Depth int
}

func (e *StackOverflowError) Error() string {
	return fmt.Sprintf("call stack overflow: maximum call depth of %d exceeded", e.Depth)
}
