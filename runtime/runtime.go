package runtime

import (
	"fmt"

	"github.com/npillmayer/minic"
	"github.com/npillmayer/minic/mem"
)

// Config fixes the memory budgets of one interpreter instance. All
// capacities are set before a run and never grow while it executes.
type Config struct {
	ArenaSize        int // bytes for the arena (stack and heap regions together)
	GlobalTableSize  int // capacity of the global symbol table
	LocalTableSize   int // capacity of each frame's local table
	MaxCallDepth     int // maximum function call nesting
	ParameterMax     int // maximum parameters per function
	FunctionStoreMax int // maximum user-defined functions and macros
}

// DefaultConfig returns budgets suitable for small embedded programs.
func DefaultConfig() Config {
	return Config{
		ArenaSize:        4096,
		GlobalTableSize:  397,
		LocalTableSize:   11,
		MaxCallDepth:     10,
		ParameterMax:     10,
		FunctionStoreMax: 200,
	}
}

// withDefaults fills zero fields with the default budgets.
func (cfg Config) withDefaults() Config {
	def := DefaultConfig()
	if cfg.ArenaSize == 0 {
		cfg.ArenaSize = def.ArenaSize
	}
	if cfg.GlobalTableSize == 0 {
		cfg.GlobalTableSize = def.GlobalTableSize
	}
	if cfg.LocalTableSize == 0 {
		cfg.LocalTableSize = def.LocalTableSize
	}
	if cfg.MaxCallDepth == 0 {
		cfg.MaxCallDepth = def.MaxCallDepth
	}
	if cfg.ParameterMax == 0 {
		cfg.ParameterMax = def.ParameterMax
	}
	if cfg.FunctionStoreMax == 0 {
		cfg.FunctionStoreMax = def.FunctionStoreMax
	}
	return cfg
}

// Runtime is the runtime environment of one interpreter instance: the
// arena, the global symbol table and the call stack. It is an explicit,
// constructible context rather than process-wide state, so independent
// instances can coexist, each owning its own memory.
type Runtime struct {
	Config  Config
	Arena   *mem.Arena
	Globals *Table
	Frames  *FrameStack
	UData   interface{} // extension point
}

// NewRuntime constructs a runtime environment, initialized. Zero config
// fields are filled with the defaults.
func NewRuntime(cfg Config) *Runtime {
	cfg = cfg.withDefaults()
	rt := &Runtime{Config: cfg}
	rt.Arena = mem.NewArena(cfg.ArenaSize, cfg.MaxCallDepth)
	rt.Globals = new(Table).Init(make([]TableEntry, cfg.GlobalTableSize))
	rt.Frames = NewFrameStack(rt.Arena, cfg.LocalTableSize)
	return rt
}

// Lookup resolves a name: the active frame's local table first, then
// the global table. A local miss falling back to the globals is how
// MiniC scoping works; there is no lexical nesting beyond these two.
func (rt *Runtime) Lookup(name string) (*Value, bool) {
	if rt.Frames.InCall() {
		if v, ok := rt.Frames.Current().Locals.Get(name); ok {
			return v, true
		}
	}
	return rt.Globals.Get(name)
}

// Define binds a name in the innermost live scope: the active frame's
// local table during a call, the global table otherwise. Reports false
// on redefinition or on a full table.
func (rt *Runtime) Define(name string, v *Value) bool {
	if rt.Frames.InCall() {
		return rt.Frames.Current().Locals.Set(name, v)
	}
	return rt.Globals.Set(name, v)
}

// OnStack reports whether execution is inside a call; used to choose
// the arena region for fresh allocations.
func (rt *Runtime) OnStack() bool {
	return rt.Frames.InCall()
}

// --- Fatal conditions -------------------------------------------------------

// FatalError terminates a run: arena exhaustion, call-stack overflow or
// a full symbol table. The interpreter attaches the source position it
// was executing when the condition surfaced.
type FatalError struct {
	Pos minic.Position
	Err error
}

func (e *FatalError) Error() string {
	if (e.Pos == minic.Position{}) {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Pos, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}
