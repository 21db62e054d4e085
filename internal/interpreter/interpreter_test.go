package interpreter_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/karupanerura/while-tools/internal/ast"
	"github.com/karupanerura/while-tools/internal/interpreter"
	"github.com/karupanerura/while-tools/internal/parser"
	"github.com/karupanerura/while-tools/internal/types"
)

func run(t *testing.T, source string) (*interpreter.Interpreter, *interpreter.State, error) {
	t.Helper()

	stmt, err := parser.ParseString(source)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", source, err)
	}
	i := interpreter.New(stmt)
	state, err := i.Interpret()
	return i, state, err
}

func TestInterpret(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name     string
		source   string
		expected map[string]int32
	}{
		{
			name:     "while loop",
			source:   "x := 5; while x <= 100 x := x + 1",
			expected: map[string]int32{"x": 101},
		},
		{
			name:     "if",
			source:   "if x <= 5 then x := 1 else x := 0",
			expected: map[string]int32{"x": 1},
		},
		{
			name:     "skip",
			source:   "skip",
			expected: map[string]int32{},
		},
		{
			name:     "arithmetic",
			source:   "a := 7 - 2 * 3; b := (7 - 2) * 3; c := -a",
			expected: map[string]int32{"a": 1, "b": 15, "c": -1},
		},
		{
			name:     "arithmetic wraps",
			source:   "a := 2147483647 + 1; b := 0 - 2147483647 - 2; c := 65536 * 65536",
			expected: map[string]int32{"a": -2147483648, "b": 2147483647, "c": 0},
		},
		{
			name:     "boolean equality",
			source:   "if true = false then r := 1 else r := 2",
			expected: map[string]int32{"r": 2},
		},
		{
			name:     "and",
			source:   "if true & !false then r := 1 else r := 2",
			expected: map[string]int32{"r": 1},
		},
		{
			name: "gcd",
			source: strings.Join([]string{
				"a := 1071",
				"b := 462",
				"while a != b do",
				"  if a > b then a := a - b else b := b - a",
			}, "\n"),
			expected: map[string]int32{"a": 21, "b": 21},
		},
		{
			name: "factorial",
			source: strings.Join([]string{
				"n := 5; r := 1",
				"while 1 <= n do (",
				"  r := r * n",
				"  n := n - 1",
				")",
			}, "\n"),
			expected: map[string]int32{"n": 0, "r": 120},
		},
		{
			name:     "definition runs on demand",
			source:   "x := 0; inc := [[ x := x + 1 ]]; inc; inc; inc",
			expected: map[string]int32{"x": 3},
		},
		{
			name:     "definition is not evaluated when assigned",
			source:   "x := 0; set := [[ x := 10 ]]",
			expected: map[string]int32{"x": 0},
		},
		{
			name:     "while definition",
			source:   "x := 3; loop := [[ while 1 <= x do x := x - 1 ]]; loop",
			expected: map[string]int32{"x": 0},
		},
		{
			name:     "redefinition replaces",
			source:   "f := [[ x := 1 ]]; f := [[ x := 2 ]]; f",
			expected: map[string]int32{"x": 2},
		},
		{
			name:     "recursive definition with a base case",
			source:   "x := 100; down := [[ if 1 <= x then (x := x - 1; down) else skip ]]; down",
			expected: map[string]int32{"x": 0},
		},
		{
			name:     "skip definition",
			source:   "nop := skip; nop; x := 1",
			expected: map[string]int32{"x": 1},
		},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, state, err := run(t, tt.source)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.expected, state.Map()); diff != "" {
				t.Errorf("unexpected state (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnassignedVariablesReadAsZero(t *testing.T) {
	t.Parallel()

	_, state, err := run(t, "y := never + 1")
	if err != nil {
		t.Fatal(err)
	}
	if got := state.Get("y"); got != 1 {
		t.Errorf("expect to 1 but got %d", got)
	}
	if got := state.Get("never"); got != 0 {
		t.Errorf("expect to 0 but got %d", got)
	}
	if _, ok := state.Lookup("never"); ok {
		t.Error("reading a variable must not assign it")
	}
	if diff := cmp.Diff([]string{"y"}, state.Names()); diff != "" {
		t.Errorf("unexpected names (-want +got):\n%s", diff)
	}
}

func TestDesugaredComparisons(t *testing.T) {
	t.Parallel()

	values := []int32{-3, 0, 1, 7}
	for _, op := range []struct {
		sugar   string
		desugar func(a, b int32) string
		holds   func(a, b int32) bool
	}{
		{sugar: "!=", desugar: func(a, b int32) string { return fmt.Sprintf("!(%d = %d)", a, b) }, holds: func(a, b int32) bool { return a != b }},
		{sugar: "<", desugar: func(a, b int32) string { return fmt.Sprintf("!(%d <= %d)", b, a) }, holds: func(a, b int32) bool { return a < b }},
		{sugar: ">=", desugar: func(a, b int32) string { return fmt.Sprintf("%d <= %d", b, a) }, holds: func(a, b int32) bool { return a >= b }},
		{sugar: ">", desugar: func(a, b int32) string { return fmt.Sprintf("!(%d <= %d)", a, b) }, holds: func(a, b int32) bool { return a > b }},
	} {
		for _, a := range values {
			for _, b := range values {
				for _, cond := range []string{fmt.Sprintf("%d %s %d", a, op.sugar, b), op.desugar(a, b)} {
					_, state, err := run(t, fmt.Sprintf("if %s then r := 1 else r := 2", cond))
					if err != nil {
						t.Fatalf("%s: %v", cond, err)
					}

					expected := int32(2)
					if op.holds(a, b) {
						expected = 1
					}
					if got := state.Get("r"); got != expected {
						t.Errorf("%s: expect to %d but got %d", cond, expected, got)
					}
				}
			}
		}
	}
}

func TestInterpretError(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name    string
		source  string
		tag     types.ErrorTag
		message string
	}{
		{name: "arithmetic if", source: "if 1 then skip else skip", tag: types.TypeErrorTag, message: "arithmetic conditional not allowed"},
		{name: "arithmetic while", source: "while 1 do skip", tag: types.TypeErrorTag, message: "arithmetic conditional not allowed"},
		{name: "negate arithmetic", source: "if !1 then skip else skip", tag: types.TypeErrorTag, message: "cannot negate arithmetic"},
		{name: "arith equals bool", source: "if 1 = true then skip else skip", tag: types.TypeErrorTag, message: "cannot evaluate Arith = Bool"},
		{name: "bool equals arith", source: "if true = 1 then skip else skip", tag: types.TypeErrorTag, message: "cannot evaluate Bool = Arith"},
		{name: "boolean assignment", source: "x := true", tag: types.TypeErrorTag, message: "bad RHS of assignment to x: True expression true"},
		{name: "comparison assignment", source: "x := 1 <= 2", tag: types.TypeErrorTag, message: "bad RHS of assignment to x: LessEq expression (<= 1 2)"},
		{name: "boolean LHS of addition", source: "x := true + 1", tag: types.TypeErrorTag, message: "LHS is not arithmetic"},
		{name: "boolean RHS of multiplication", source: "x := 1 * false", tag: types.TypeErrorTag, message: "RHS is not arithmetic"},
		{name: "boolean operand of comparison", source: "if 1 <= true then skip else skip", tag: types.TypeErrorTag, message: "RHS is not arithmetic"},
		{name: "arithmetic LHS of and", source: "if 1 & true then skip else skip", tag: types.TypeErrorTag, message: "LHS is not boolean"},
		{name: "arithmetic RHS of and", source: "if true & 1 then skip else skip", tag: types.TypeErrorTag, message: "RHS is not boolean"},
		{name: "undefined definition", source: "f", tag: types.KeyErrorTag, message: "undefined definition: f"},
		{name: "variable is not a definition", source: "x := 1; x", tag: types.KeyErrorTag, message: "undefined definition: x"},
		{name: "self recursive definition", source: "f := [[ f ]]; f", tag: types.RecursionErrorTag, message: "maximum definition depth"},
		{name: "mutually recursive definitions", source: "f := [[ g ]]; g := [[ f ]]; f", tag: types.RecursionErrorTag, message: "maximum definition depth"},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, state, err := run(t, tt.source)
			if state != nil {
				t.Errorf("expect to no final state but got %s", state)
			}

			var interpretErr *interpreter.InterpretError
			if !errors.As(err, &interpretErr) {
				t.Fatalf("expect to InterpretError but got %v", err)
			}
			if interpretErr.Tag != tt.tag {
				t.Errorf("expect to %s but got %s", tt.tag, interpretErr.Tag)
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("expect to contain %q but got %q", tt.message, err.Error())
			}
			if !strings.HasPrefix(err.Error(), string(tt.tag)+": ") {
				t.Errorf("expect to be prefixed with the tag but got %q", err.Error())
			}
		})
	}
}

func TestDefinitionDepthLimit(t *testing.T) {
	t.Parallel()

	countdown := "x := %d; down := [[ if 1 <= x then (x := x - 1; down) else skip ]]; down"

	_, state, err := run(t, fmt.Sprintf(countdown, interpreter.MaxDefinitionDepth-1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := state.Get("x"); got != 0 {
		t.Errorf("expect to 0 but got %d", got)
	}

	i, _, err := run(t, fmt.Sprintf(countdown, interpreter.MaxDefinitionDepth))
	var interpretErr *interpreter.InterpretError
	if !errors.As(err, &interpretErr) {
		t.Fatalf("expect to InterpretError but got %v", err)
	}
	if interpretErr.Tag != types.RecursionErrorTag {
		t.Errorf("expect to %s but got %s", types.RecursionErrorTag, interpretErr.Tag)
	}
	if got := i.State().Get("x"); got != 0 {
		t.Errorf("effects before the failure must be kept: expect to 0 but got %d", got)
	}
}

func TestPartialStateAfterFailure(t *testing.T) {
	t.Parallel()

	i, _, err := run(t, "x := 1; y := 2; if 1 then skip else skip; z := 3")
	if err == nil {
		t.Fatal("expect to fail")
	}

	expected := map[string]int32{"x": 1, "y": 2}
	if diff := cmp.Diff(expected, i.State().Map()); diff != "" {
		t.Errorf("unexpected state (-want +got):\n%s", diff)
	}
}

func TestHandBuiltTree(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		root    ast.Node
		message string
	}{
		{root: &ast.Ass{Ident: "x", Value: &ast.Not{Expr: &ast.True{}}}, message: "bad RHS of assignment to x"},
		{root: &ast.If{Cond: &ast.Literal{Value: 0}, TruePath: &ast.Skip{}, FalsePath: &ast.Skip{}}, message: "arithmetic conditional not allowed"},
	} {
		_, err := interpreter.New(tt.root).Interpret()
		if err == nil || !strings.Contains(err.Error(), tt.message) {
			t.Errorf("expect to contain %q but got %v", tt.message, err)
		}
	}
}

func TestASTIsNotModified(t *testing.T) {
	t.Parallel()

	stmt, err := parser.ParseString("x := 0; f := [[ x := x + 1 ]]; while x <= 3 do f")
	if err != nil {
		t.Fatal(err)
	}
	before := ast.Render(stmt)

	for n := 0; n < 2; n++ {
		state, err := interpreter.New(stmt).Interpret()
		if err != nil {
			t.Fatal(err)
		}
		if got := state.Get("x"); got != 4 {
			t.Errorf("run %d: expect to 4 but got %d", n, got)
		}
	}
	if after := ast.Render(stmt); after != before {
		t.Errorf("AST changed from %s to %s", before, after)
	}
}

func TestInterpretErrorException(t *testing.T) {
	t.Parallel()

	_, _, err := run(t, "f")
	exception := types.AsException(err)

	expected := map[string]any{
		"tags":    []types.ErrorTag{types.KeyErrorTag},
		"message": "undefined definition: f",
	}
	if diff := cmp.Diff(expected, exception.Exception()); diff != "" {
		t.Errorf("unexpected exception (-want +got):\n%s", diff)
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	state := interpreter.StateOf(map[string]int32{"b": 2, "a": 1, "c": -3})
	if got := state.String(); got != "[a -> 1, b -> 2, c -> -3]" {
		t.Errorf("unexpected string: %s", got)
	}
	if got := interpreter.NewState().String(); got != "[]" {
		t.Errorf("unexpected string: %s", got)
	}
}

func TestStateJSON(t *testing.T) {
	t.Parallel()

	state := interpreter.StateOf(map[string]int32{"a": 1, "b": -2})
	b, err := json.Marshal(state)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]int32
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(state.Map(), decoded); diff != "" {
		t.Errorf("unexpected JSON (-want +got):\n%s", diff)
	}

	restored := interpreter.NewState()
	if err := json.Unmarshal(b, restored); err != nil {
		t.Fatal(err)
	}
	if !restored.Equal(state) {
		t.Errorf("expect to %s but got %s", state, restored)
	}
}

func TestStateIsolation(t *testing.T) {
	t.Parallel()

	input := map[string]int32{"a": 1}
	state := interpreter.StateOf(input)
	state.Set("a", 2)
	if input["a"] != 1 {
		t.Error("StateOf must copy its input")
	}

	clone := state.Clone()
	clone.Set("b", 3)
	if state.Len() != 1 {
		t.Error("Clone must not share mappings")
	}
}
