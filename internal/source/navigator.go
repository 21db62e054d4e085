// Package source locates byte offsets inside While source text for
// diagnostics.
package source

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/karupanerura/while-tools/internal/lexer"
)

type Navigator struct {
	source    string
	lineHeads []int
}

// Position is a 0-indexed row and byte column.
type Position struct {
	Row, Col int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Row+1, p.Col+1)
}

func NewNavigator(source string) *Navigator {
	lineHeads := []int{0}
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			lineHeads = append(lineHeads, i+1)
		}
	}
	return &Navigator{source: source, lineHeads: lineHeads}
}

// Position returns the row and column of offset. Offsets past the end of the
// source belong to the last line.
func (n *Navigator) Position(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	row := sort.Search(len(n.lineHeads), func(i int) bool {
		return n.lineHeads[i] > offset
	}) - 1
	return Position{Row: row, Col: offset - n.lineHeads[row]}
}

func (n *Navigator) Lines() int {
	return len(n.lineHeads)
}

// Line returns the trimmed text of the row.
func (n *Navigator) Line(row int) string {
	return strings.TrimSpace(n.rawLine(row))
}

func (n *Navigator) rawLine(row int) string {
	if row < 0 || row >= n.Lines() {
		return ""
	}
	end := len(n.source)
	if row+1 < n.Lines() {
		end = n.lineHeads[row+1]
	}
	return strings.TrimRight(n.source[n.lineHeads[row]:end], "\r\n")
}

// Annotate renders the line holding span with the span underlined. A span
// crossing a line boundary is underlined up to the end of its first line.
func (n *Navigator) Annotate(span lexer.Span) string {
	pos := n.Position(span.Start)
	line := n.rawLine(pos.Row)
	marker := fmt.Sprintf("%d | ", pos.Row+1)

	col := pos.Col
	if col > len(line) {
		col = len(line)
	}
	end := col + span.Len()
	if end > len(line) {
		end = len(line)
	}

	var underline strings.Builder
	underline.WriteString(strings.Repeat(" ", len(marker)))
	for _, c := range line[:col] {
		if c == '\t' {
			underline.WriteByte('\t')
		} else {
			underline.WriteByte(' ')
		}
	}
	width := utf8.RuneCountInString(line[col:end])
	if width == 0 {
		width = 1
	}
	underline.WriteString(strings.Repeat("^", width))

	return marker + line + "\n" + underline.String()
}

type spanError interface {
	error
	ErrorSpan() (start, end int)
}

// Describe renders err with its position and an annotated excerpt when it
// carries a span.
func (n *Navigator) Describe(err error) string {
	var se spanError
	if !errors.As(err, &se) {
		return err.Error()
	}

	start, end := se.ErrorSpan()
	span := lexer.Span{Start: start, End: end}
	return fmt.Sprintf("%s: %s\n%s", n.Position(start), se.Error(), n.Annotate(span))
}
