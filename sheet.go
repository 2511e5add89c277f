package xlgrid

import "github.com/javajack/xlgrid/cell"

// sheet is the raw-content matrix, row-major. Rows may be short at the
// tail; missing cells read as empty.
type sheet [][]cell.Content

func newSheet(rows, cols int) sheet {
	s := make(sheet, rows)
	for i := range s {
		s[i] = make([]cell.Content, cols)
	}
	return s
}

// Content implements formula.Source.
func (s sheet) Content(at cell.Coord) (cell.Content, bool) {
	if at.Row < 0 || at.Row >= len(s) || at.Col < 0 {
		return cell.Content{}, false
	}
	row := s[at.Row]
	if at.Col >= len(row) {
		return cell.Content{}, true
	}
	return row[at.Col], true
}

// Size implements formula.Source.
func (s sheet) Size() (rows, cols int) { return len(s), s.width() }

func (s sheet) get(at cell.Coord) cell.Content {
	c, _ := s.Content(at)
	return c
}

// set writes a cell, growing the matrix as needed.
func (s *sheet) set(at cell.Coord, c cell.Content) {
	for len(*s) <= at.Row {
		*s = append(*s, nil)
	}
	row := (*s)[at.Row]
	for len(row) <= at.Col {
		row = append(row, cell.Content{})
	}
	row[at.Col] = c
	(*s)[at.Row] = row
}

func (s sheet) width() int {
	w := 0
	for _, row := range s {
		w = max(w, len(row))
	}
	return w
}

// insertRow inserts a row before index at. An index past the end appends
// empty rows up to it.
func (s *sheet) insertRow(at int, values []cell.Content) {
	for len(*s) < at {
		*s = append(*s, nil)
	}
	row := append([]cell.Content(nil), values...)
	*s = append(*s, nil)
	copy((*s)[at+1:], (*s)[at:])
	(*s)[at] = row
}

func (s *sheet) deleteRows(at, n int) {
	if at >= len(*s) {
		return
	}
	end := min(at+n, len(*s))
	*s = append((*s)[:at], (*s)[end:]...)
}

func (s sheet) insertCol(at int) {
	for i, row := range s {
		if len(row) <= at {
			continue
		}
		row = append(row, cell.Content{})
		copy(row[at+1:], row[at:])
		row[at] = cell.Content{}
		s[i] = row
	}
}

func (s sheet) deleteCols(at, n int) {
	for i, row := range s {
		if len(row) <= at {
			continue
		}
		end := min(at+n, len(row))
		s[i] = append(row[:at], row[end:]...)
	}
}

// raw returns a deep copy of the matrix as typed text.
func (s sheet) raw() [][]string {
	out := make([][]string, len(s))
	for i, row := range s {
		out[i] = make([]string, len(row))
		for j, c := range row {
			out[i][j] = c.Raw()
		}
	}
	return out
}
