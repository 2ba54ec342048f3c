package runtime

import (
	"fmt"

	"github.com/npillmayer/minic/mem"
)

// This module coordinates the arena's frame push/pop with a matching
// local symbol table lifecycle on every function call.

// StackFrame is one function-call activation: the caller's resume
// position, a local table for parameters and frame variables, and the
// arena restore point recorded when the frame was pushed (held by the
// arena itself).
type StackFrame struct {
	Name   string      // name of the called function, for diagnostics
	Resume interface{} // caller's resume-position token, restored on return
	Locals *Table
	Parent *StackFrame
}

func (f *StackFrame) String() string {
	return fmt.Sprintf("<frame %s>", f.Name)
}

// FrameStack is the call stack of an interpreter instance. Call depth
// is bounded by the arena's configured maximum; the bound is never
// grown dynamically.
type FrameStack struct {
	arena      *mem.Arena
	tos        *StackFrame
	depth      int
	localSlots int // capacity of each frame's local table
}

// NewFrameStack creates an empty call stack over an arena. Each pushed
// frame binds a local table with localSlots entries.
func NewFrameStack(arena *mem.Arena, localSlots int) *FrameStack {
	return &FrameStack{arena: arena, localSlots: localSlots}
}

// Current gets the active frame (TOS).
func (fs *FrameStack) Current() *StackFrame {
	if fs.tos == nil {
		panic("attempt to access stack frame from empty call stack")
	}
	return fs.tos
}

// InCall is a predicate: is at least one frame active?
func (fs *FrameStack) InCall() bool {
	return fs.tos != nil
}

// Depth returns the number of active frames.
func (fs *FrameStack) Depth() int {
	return fs.depth
}

// PushFrame enters a call: it saves the caller's resume token, records
// an arena restore point and binds a fresh local table. Exceeding the
// maximum call depth is fatal (reported by the arena). The caller
// populates the local table with the call's parameters.
func (fs *FrameStack) PushFrame(name string, resume interface{}) *StackFrame {
	fs.arena.PushStackFrame()
	frame := &StackFrame{
		Name:   name,
		Resume: resume,
		Parent: fs.tos,
	}
	frame.Locals = new(Table).Init(make([]TableEntry, fs.localSlots))
	fs.tos = frame
	fs.depth++
	tracer().P("frame", frame.Name).Debugf("pushing new stack frame")
	return frame
}

// PopFrame leaves the current call. The arena's stack region is rewound
// to the frame's restore point, releasing every frame-local allocation
// in one step, and the local table is dropped with the frame. Returns
// the caller's resume token. Popping with no frame active signals an
// evaluator bug and is an error, not fatal.
func (fs *FrameStack) PopFrame() (interface{}, error) {
	if fs.tos == nil {
		return nil, fmt.Errorf("pop of stack frame without matching push")
	}
	if err := fs.arena.PopStackFrame(); err != nil {
		return nil, err
	}
	frame := fs.tos
	fs.tos = frame.Parent
	fs.depth--
	tracer().Debugf("popping stack frame [%s]", frame.Name)
	return frame.Resume, nil
}
