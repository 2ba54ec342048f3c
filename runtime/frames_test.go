package runtime

import (
	"testing"

	"github.com/npillmayer/minic/mem"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestFramePushPop(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "minic.runtime")
	defer teardown()
	//
	rt := NewRuntime(Config{})
	top := rt.Arena.StackTop()
	frame := rt.Frames.PushFrame("f", "resume-token")
	if frame.Locals == nil {
		t.Fatal("frame has no local table")
	}
	local := NewValue(rt.Arena, IntType, false)
	local.SetInt(rt.Arena, 9)
	if !frame.Locals.Set("n", local) {
		t.Error("cannot define local in fresh frame")
	}
	resume, err := rt.Frames.PopFrame()
	if err != nil {
		t.Error(err)
	}
	if resume != "resume-token" {
		t.Errorf("resume token = %v, want the saved one", resume)
	}
	if rt.Arena.StackTop() != top {
		t.Error("frame pop did not rewind the arena stack region")
	}
}

func TestFrameLocalsShadowGlobals(t *testing.T) {
	rt := NewRuntime(Config{})
	g := NewValue(rt.Arena, IntType, false)
	g.SetInt(rt.Arena, 1)
	if !rt.Define("x", g) {
		t.Fatal("cannot define global")
	}
	rt.Frames.PushFrame("f", nil)
	l := NewValue(rt.Arena, IntType, false)
	l.SetInt(rt.Arena, 2)
	if !rt.Define("x", l) {
		t.Fatal("cannot define frame-local 'x'")
	}
	v, found := rt.Lookup("x")
	if !found || v != l {
		t.Error("local must shadow global during a call")
	}
	if _, err := rt.Frames.PopFrame(); err != nil {
		t.Error(err)
	}
	v, found = rt.Lookup("x")
	if !found || v != g {
		t.Error("global must be visible again after return")
	}
}

func TestFrameLocalMissFallsBackToGlobal(t *testing.T) {
	rt := NewRuntime(Config{})
	g := NewValue(rt.Arena, IntType, false)
	rt.Define("g", g)
	rt.Frames.PushFrame("f", nil)
	defer rt.Frames.PopFrame()
	if v, found := rt.Lookup("g"); !found || v != g {
		t.Error("local miss must fall back to the global table")
	}
}

func TestMaxCallDepth(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "minic.runtime")
	defer teardown()
	//
	rt := NewRuntime(Config{MaxCallDepth: 4})
	for i := 0; i < 4; i++ {
		rt.Frames.PushFrame("f", nil)
	}
	defer func() {
		r := recover()
		if r == nil {
			t.Error("call beyond the maximum depth should be fatal")
		}
		if _, ok := r.(*mem.StackOverflowError); !ok {
			t.Errorf("panic value is %T, want *mem.StackOverflowError", r)
		}
	}()
	rt.Frames.PushFrame("f", nil) // one too many
}

func TestPopWithoutFrame(t *testing.T) {
	rt := NewRuntime(Config{})
	if _, err := rt.Frames.PopFrame(); err == nil {
		t.Error("pop with no active frame should return an error")
	}
}

func TestTwoIndependentRuntimes(t *testing.T) {
	rt1 := NewRuntime(Config{ArenaSize: 512})
	rt2 := NewRuntime(Config{ArenaSize: 512})
	v1 := NewValue(rt1.Arena, IntType, false)
	v1.SetInt(rt1.Arena, 11)
	v2 := NewValue(rt2.Arena, IntType, false)
	v2.SetInt(rt2.Arena, 22)
	rt1.Define("x", v1)
	rt2.Define("x", v2)
	a, _ := rt1.Lookup("x")
	b, _ := rt2.Lookup("x")
	if a.Int(rt1.Arena) != 11 || b.Int(rt2.Arena) != 22 {
		t.Error("runtime instances share state")
	}
}
