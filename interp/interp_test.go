package interp

import (
	"errors"
	"strings"
	"testing"

	"github.com/npillmayer/minic/runtime"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func run(t *testing.T, source string) (*Interp, string) {
	t.Helper()
	var out strings.Builder
	ip := New(runtime.Config{}, &out)
	if err := ip.Run("test.mc", source); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return ip, out.String()
}

func TestDeclarationAndArithmetic(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "minic.interp")
	defer teardown()
	//
	ip, _ := run(t, `
		int a = 6;
		int b = a * 7 - 2;
		int c;
		c = b / 4;
	`)
	v, ok := ip.Runtime().Globals.Get("c")
	if !ok {
		t.Fatal("c is not defined")
	}
	if n := v.Int(ip.Runtime().Arena); n != 10 {
		t.Errorf("c = %d, want 10", n)
	}
}

func TestFloatingPointPromotion(t *testing.T) {
	ip, _ := run(t, `double x = 3 / 2.0;`)
	v, _ := ip.Runtime().Globals.Get("x")
	if f := v.FP(ip.Runtime().Arena); f != 1.5 {
		t.Errorf("x = %g, want 1.5", f)
	}
}

func TestIfElse(t *testing.T) {
	_, out := run(t, `
		int n = 3;
		if (n > 2) printf("big"); else printf("small");
		if (n > 5) printf(" bigger"); else printf(" smaller");
	`)
	if out != "big smaller" {
		t.Errorf("output = %q, want %q", out, "big smaller")
	}
}

func TestWhileLoop(t *testing.T) {
	_, out := run(t, `
		int i = 0;
		while (i < 5) {
			printf("%d", i);
			i = i + 1;
		}
	`)
	if out != "01234" {
		t.Errorf("output = %q, want %q", out, "01234")
	}
}

func TestDoWhileRunsAtLeastOnce(t *testing.T) {
	_, out := run(t, `
		int i = 9;
		do {
			printf("%d", i);
			i++;
		} while (i < 3);
	`)
	if out != "9" {
		t.Errorf("output = %q, want %q", out, "9")
	}
}

func TestForLoopWithBreak(t *testing.T) {
	_, out := run(t, `
		int i;
		for (i = 0; i < 10; i++) {
			if (i == 4) break;
			printf("%d", i);
		}
		printf(":%d", i);
	`)
	if out != "0123:4" {
		t.Errorf("output = %q, want %q", out, "0123:4")
	}
}

func TestFunctionCallAndReturn(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "minic.interp")
	defer teardown()
	//
	_, out := run(t, `
		int add(int a, int b) {
			return a + b;
		}
		printf("%d", add(19, 23));
	`)
	if out != "42" {
		t.Errorf("output = %q, want %q", out, "42")
	}
}

func TestRecursion(t *testing.T) {
	_, out := run(t, `
		int fac(int n) {
			if (n <= 1) return 1;
			return n * fac(n - 1);
		}
		printf("%d", fac(6));
	`)
	if out != "720" {
		t.Errorf("output = %q, want %q", out, "720")
	}
}

func TestLocalsShadowGlobals(t *testing.T) {
	_, out := run(t, `
		int n = 1;
		void show(int n) {
			printf("%d", n);
		}
		show(7);
		printf("%d", n);
	`)
	if out != "71" {
		t.Errorf("output = %q, want %q", out, "71")
	}
}

func TestMainRunsLast(t *testing.T) {
	_, out := run(t, `
		void main() {
			printf("two");
		}
		printf("one ");
	`)
	if out != "one two" {
		t.Errorf("output = %q, want %q", out, "one two")
	}
}

func TestArrays(t *testing.T) {
	_, out := run(t, `
		int a[5];
		int i;
		for (i = 0; i < 5; i++) a[i] = i * i;
		printf("%d %d", a[2], a[4]);
	`)
	if out != "4 16" {
		t.Errorf("output = %q, want %q", out, "4 16")
	}
}

func TestArrayBoundsAreFatal(t *testing.T) {
	var out strings.Builder
	ip := New(runtime.Config{}, &out)
	err := ip.Run("test.mc", `
		int a[3];
		a[3] = 1;
	`)
	if err == nil {
		t.Fatal("out-of-bounds index did not fail the run")
	}
	var fatal *runtime.FatalError
	if !errors.As(err, &fatal) {
		t.Errorf("error is %T, want *runtime.FatalError", err)
	}
}

func TestPointers(t *testing.T) {
	_, out := run(t, `
		int n = 5;
		int *p = &n;
		*p = 11;
		printf("%d", n);
	`)
	if out != "11" {
		t.Errorf("output = %q, want %q", out, "11")
	}
}

func TestPointerIntoArray(t *testing.T) {
	_, out := run(t, `
		int a[4];
		int *p = &a[1];
		int i;
		for (i = 0; i < 4; i++) a[i] = 10 + i;
		printf("%d %d", *p, p[2]);
	`)
	if out != "11 13" {
		t.Errorf("output = %q, want %q", out, "11 13")
	}
}

func TestCharsAndStrings(t *testing.T) {
	_, out := run(t, `
		char c = 'A';
		char *s = "world";
		printf("%c %s %d", c, s, c);
	`)
	if out != "A world 65" {
		t.Errorf("output = %q, want %q", out, "A world 65")
	}
}

func TestMacroExpansion(t *testing.T) {
	_, out := run(t, `
		#define LIMIT 4
		int i;
		for (i = 0; i < LIMIT; i++) printf("*");
	`)
	if out != "****" {
		t.Errorf("output = %q, want %q", out, "****")
	}
}

func TestShortCircuitEvaluation(t *testing.T) {
	_, out := run(t, `
		int traced(int n) {
			printf("%d", n);
			return n;
		}
		int x = traced(0) && traced(1);
		int y = traced(1) || traced(2);
		printf(":%d%d", x, y);
	`)
	if out != "01:01" {
		t.Errorf("output = %q, want %q", out, "01:01")
	}
}

func TestCallDepthOverflowIsFatal(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "minic.interp")
	defer teardown()
	//
	var out strings.Builder
	ip := New(runtime.Config{MaxCallDepth: 5}, &out)
	err := ip.Run("test.mc", `
		int down(int n) {
			return down(n - 1);
		}
		down(100);
	`)
	if err == nil {
		t.Fatal("unbounded recursion did not fail the run")
	}
	var fatal *runtime.FatalError
	if !errors.As(err, &fatal) {
		t.Fatalf("error is %T, want *runtime.FatalError", err)
	}
}

func TestArenaExhaustionIsFatal(t *testing.T) {
	var out strings.Builder
	ip := New(runtime.Config{ArenaSize: 64}, &out)
	err := ip.Run("test.mc", `int a[100];`)
	if err == nil {
		t.Fatal("oversized allocation did not fail the run")
	}
	var fatal *runtime.FatalError
	if !errors.As(err, &fatal) {
		t.Fatalf("error is %T, want *runtime.FatalError", err)
	}
}

func TestMathIntrinsics(t *testing.T) {
	_, out := run(t, `printf("%g %g", sqrt(16.0), pow(2.0, 10.0));`)
	if out != "4 1024" {
		t.Errorf("output = %q, want %q", out, "4 1024")
	}
}

func TestEvalLineKeepsDefinitions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "minic.interp")
	defer teardown()
	//
	ip := New(runtime.Config{}, nil)
	if _, err := ip.EvalLine("int n = 20;"); err != nil {
		t.Fatal(err)
	}
	result, err := ip.EvalLine("n + 22;")
	if err != nil {
		t.Fatal(err)
	}
	if result != "42" {
		t.Errorf("result = %q, want %q", result, "42")
	}
}

func TestUndefinedNameFailsTheRun(t *testing.T) {
	ip := New(runtime.Config{}, nil)
	_, err := ip.EvalLine("nope + 1;")
	if err == nil {
		t.Fatal("use of an undefined name did not fail")
	}
}

func TestFunctionNamesIncludeIntrinsics(t *testing.T) {
	ip := New(runtime.Config{}, nil)
	names := ip.FunctionNames()
	found := false
	for _, n := range names {
		if n == "printf" {
			found = true
		}
	}
	if !found {
		t.Errorf("printf missing from %v", names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("names not sorted at %q, %q", names[i-1], names[i])
		}
	}
}

func TestFunctionDefinedInEarlierInputIsCallable(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "minic.interp")
	defer teardown()
	//
	ip := New(runtime.Config{}, nil)
	err := ip.Run("init.mc", `
		int add(int a, int b) {
			return a + b;
		}
	`)
	if err != nil {
		t.Fatal(err)
	}
	result, err := ip.EvalLine("add(19, 23);")
	if err != nil {
		t.Fatal(err)
	}
	if result != "42" {
		t.Errorf("result = %q, want %q", result, "42")
	}
}

func TestMacroDefinedInEarlierLineExpands(t *testing.T) {
	ip := New(runtime.Config{}, nil)
	if _, err := ip.EvalLine("#define ANSWER 6 * 7"); err != nil {
		t.Fatal(err)
	}
	result, err := ip.EvalLine("ANSWER;")
	if err != nil {
		t.Fatal(err)
	}
	if result != "42" {
		t.Errorf("result = %q, want %q", result, "42")
	}
}

func TestUninitializedPointerDerefIsFatal(t *testing.T) {
	var out strings.Builder
	ip := New(runtime.Config{}, &out)
	err := ip.Run("test.mc", `
		int *p;
		*p = 5;
	`)
	if err == nil {
		t.Fatal("store through an uninitialized pointer did not fail the run")
	}
	var fatal *runtime.FatalError
	if !errors.As(err, &fatal) {
		t.Errorf("error is %T, want *runtime.FatalError", err)
	}
}

func TestBitwiseOperators(t *testing.T) {
	_, out := run(t, `
		printf("%d %d %d %d", 12 & 10, 12 | 10, 12 ^ 10, ~0);
		printf(" %d", 1 | 2 & 3 ^ 4);
	`)
	if out != "8 14 6 -1 7" {
		t.Errorf("output = %q, want %q", out, "8 14 6 -1 7")
	}
}
