package source_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/karupanerura/while-tools/internal/lexer"
	"github.com/karupanerura/while-tools/internal/parser"
	"github.com/karupanerura/while-tools/internal/source"
)

const program = "x := 1\ny := 2 |\nz := 3"

func TestPosition(t *testing.T) {
	t.Parallel()

	n := source.NewNavigator(program)
	for _, tt := range []struct {
		offset   int
		expected source.Position
	}{
		{offset: 0, expected: source.Position{Row: 0, Col: 0}},
		{offset: 5, expected: source.Position{Row: 0, Col: 5}},
		{offset: 6, expected: source.Position{Row: 0, Col: 6}},
		{offset: 7, expected: source.Position{Row: 1, Col: 0}},
		{offset: 14, expected: source.Position{Row: 1, Col: 7}},
		{offset: 16, expected: source.Position{Row: 2, Col: 0}},
		{offset: 22, expected: source.Position{Row: 2, Col: 6}},
		{offset: 100, expected: source.Position{Row: 2, Col: 84}},
		{offset: -1, expected: source.Position{Row: 0, Col: 0}},
	} {
		if diff := cmp.Diff(tt.expected, n.Position(tt.offset)); diff != "" {
			t.Errorf("offset %d: unexpected position (-want +got):\n%s", tt.offset, diff)
		}
	}
}

func TestPositionString(t *testing.T) {
	t.Parallel()

	if got := (source.Position{Row: 1, Col: 7}).String(); got != "2:8" {
		t.Errorf("expect to 2:8 but got %s", got)
	}
}

func TestLine(t *testing.T) {
	t.Parallel()

	n := source.NewNavigator("  skip  \r\n\tx := 1\n")
	if got := n.Lines(); got != 3 {
		t.Errorf("expect to 3 lines but got %d", got)
	}
	for row, expected := range []string{"skip", "x := 1", ""} {
		if got := n.Line(row); got != expected {
			t.Errorf("line %d: expect to %q but got %q", row, expected, got)
		}
	}
	if got := n.Line(3); got != "" {
		t.Errorf("expect to empty line but got %q", got)
	}
}

func TestAnnotate(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name     string
		source   string
		span     lexer.Span
		expected string
	}{
		{
			name:     "single character",
			source:   program,
			span:     lexer.Span{Start: 14, End: 15},
			expected: "2 | y := 2 |\n           ^",
		},
		{
			name:     "token",
			source:   program,
			span:     lexer.Span{Start: 18, End: 20},
			expected: "3 | z := 3\n      ^^",
		},
		{
			name:     "tab is kept",
			source:   "\tx : 1",
			span:     lexer.Span{Start: 3, End: 4},
			expected: "1 | \tx : 1\n    \t  ^",
		},
		{
			name:     "end of stream",
			source:   "x :=",
			span:     lexer.Span{Start: 4, End: 5},
			expected: "1 | x :=\n        ^",
		},
		{
			name:     "span crossing lines",
			source:   "abc\ndef",
			span:     lexer.Span{Start: 1, End: 6},
			expected: "1 | abc\n     ^^",
		},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tt.expected, source.NewNavigator(tt.source).Annotate(tt.span)); diff != "" {
				t.Errorf("unexpected annotation (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	_, err := parser.ParseString(program)
	if err == nil {
		t.Fatal("expect to fail")
	}

	expected := "2:8: lexing error: unknown token '|' (at 14-15)\n2 | y := 2 |\n           ^"
	if diff := cmp.Diff(expected, source.NewNavigator(program).Describe(err)); diff != "" {
		t.Errorf("unexpected description (-want +got):\n%s", diff)
	}
}

func TestDescribeWithoutSpan(t *testing.T) {
	t.Parallel()

	err := errors.New("plain failure")
	if got := source.NewNavigator(program).Describe(err); got != "plain failure" {
		t.Errorf("expect to the plain message but got %q", got)
	}
}
