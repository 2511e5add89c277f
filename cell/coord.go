// Package cell holds the addressing and raw-content model shared by the
// formula engine and the grid editor.
package cell

import (
	"fmt"
	"strconv"
	"strings"
)

// Coord is a 0-based cell position.
type Coord struct {
	Row int
	Col int
}

// At is shorthand for Coord{Row: row, Col: col}.
func At(row, col int) Coord {
	return Coord{Row: row, Col: col}
}

// ParseCoord parses a cell name like "A1", "b12" or "$C$3".
func ParseCoord(s string) (Coord, error) {
	name := strings.ReplaceAll(strings.TrimSpace(s), "$", "")
	if name == "" {
		return Coord{}, fmt.Errorf("empty cell reference")
	}

	i := 0
	for i < len(name) && isAlpha(name[i]) {
		i++
	}
	if i == 0 || i == len(name) {
		return Coord{}, fmt.Errorf("invalid cell reference: %q", s)
	}

	col, err := ColumnIndex(name[:i])
	if err != nil {
		return Coord{}, fmt.Errorf("invalid cell reference %q: %w", s, err)
	}

	rowNum, err := strconv.Atoi(name[i:])
	if err != nil || rowNum < 1 || strings.ContainsAny(name[i:], "+-") {
		return Coord{}, fmt.Errorf("invalid row in cell reference: %q", s)
	}

	return Coord{Row: rowNum - 1, Col: col}, nil
}

func isAlpha(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// String formats the coordinate as "A1".
func (c Coord) String() string {
	return ColumnName(c.Col) + strconv.Itoa(c.Row+1)
}

// ColumnName converts a 0-based column index to its letter name.
// 0→"A", 25→"Z", 26→"AA", 701→"ZZ", 702→"AAA"
func ColumnName(col int) string {
	if col < 0 {
		return ""
	}
	var buf []byte
	col++ // bijective base-26 has no zero digit
	for col > 0 {
		col--
		buf = append(buf, byte('A'+col%26))
		col /= 26
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

// ColumnIndex converts a column name to a 0-based column index.
// "A"→0, "Z"→25, "AA"→26
func ColumnIndex(name string) (int, error) {
	name = strings.ToUpper(name)
	if name == "" {
		return 0, fmt.Errorf("empty column name")
	}
	col := 0
	for _, ch := range name {
		if ch < 'A' || ch > 'Z' {
			return 0, fmt.Errorf("invalid column name: %q", name)
		}
		col = col*26 + int(ch-'A') + 1
	}
	return col - 1, nil
}

// Range is a rectangle of cells with inclusive corners.
type Range struct {
	From Coord
	To   Coord
}

// NewRange builds a Range, normalizing the corners so From is top-left.
func NewRange(a, b Coord) Range {
	return Range{
		From: Coord{Row: min(a.Row, b.Row), Col: min(a.Col, b.Col)},
		To:   Coord{Row: max(a.Row, b.Row), Col: max(a.Col, b.Col)},
	}
}

// ParseRange parses an area reference like "A1:C5".
func ParseRange(s string) (Range, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return Range{}, fmt.Errorf("invalid range (missing ':'): %q", s)
	}
	from, err := ParseCoord(parts[0])
	if err != nil {
		return Range{}, fmt.Errorf("invalid range %q: %w", s, err)
	}
	to, err := ParseCoord(parts[1])
	if err != nil {
		return Range{}, fmt.Errorf("invalid range %q: %w", s, err)
	}
	return NewRange(from, to), nil
}

// String formats the range as "A1:C5".
func (r Range) String() string {
	return r.From.String() + ":" + r.To.String()
}

// Rows returns the number of rows spanned.
func (r Range) Rows() int { return r.To.Row - r.From.Row + 1 }

// Cols returns the number of columns spanned.
func (r Range) Cols() int { return r.To.Col - r.From.Col + 1 }

// Contains reports whether c lies inside the range.
func (r Range) Contains(c Coord) bool {
	return c.Row >= r.From.Row && c.Row <= r.To.Row &&
		c.Col >= r.From.Col && c.Col <= r.To.Col
}

// Clip intersects the range with a rows x cols matrix anchored at A1. ok is
// false when nothing is left.
func (r Range) Clip(rows, cols int) (Range, bool) {
	out := Range{
		From: Coord{Row: max(r.From.Row, 0), Col: max(r.From.Col, 0)},
		To:   Coord{Row: min(r.To.Row, rows-1), Col: min(r.To.Col, cols-1)},
	}
	if out.From.Row > out.To.Row || out.From.Col > out.To.Col {
		return Range{}, false
	}
	return out, true
}

// Coords lists every coordinate in the range, row-major.
func (r Range) Coords() []Coord {
	out := make([]Coord, 0, r.Rows()*r.Cols())
	for row := r.From.Row; row <= r.To.Row; row++ {
		for col := r.From.Col; col <= r.To.Col; col++ {
			out = append(out, Coord{Row: row, Col: col})
		}
	}
	return out
}
