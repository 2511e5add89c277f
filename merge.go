package xlgrid

import (
	"fmt"

	"github.com/javajack/xlgrid/cell"
)

// MergeRegion is a rectangle of cells displayed as one, anchored at its
// top-left cell.
type MergeRegion struct {
	Row     int `json:"row"`
	Col     int `json:"col"`
	RowSpan int `json:"rowspan"`
	ColSpan int `json:"colspan"`
}

// Anchor returns the top-left cell.
func (m MergeRegion) Anchor() cell.Coord { return cell.At(m.Row, m.Col) }

// Range returns the cells covered by the region.
func (m MergeRegion) Range() cell.Range {
	return cell.Range{
		From: m.Anchor(),
		To:   cell.At(m.Row+m.RowSpan-1, m.Col+m.ColSpan-1),
	}
}

func (m MergeRegion) String() string { return m.Range().String() }

func (m MergeRegion) validate() error {
	switch {
	case m.Row < 0 || m.Col < 0:
		return fmt.Errorf("merge %d,%d: %w", m.Row, m.Col, ErrOutOfRange)
	case m.RowSpan < 1 || m.ColSpan < 1:
		return fmt.Errorf("merge %s: span %dx%d: %w", m.Anchor(), m.RowSpan, m.ColSpan, ErrInvalidMerge)
	case m.RowSpan == 1 && m.ColSpan == 1:
		return fmt.Errorf("merge %s: single cell: %w", m, ErrInvalidMerge)
	}
	return nil
}

func (m MergeRegion) overlaps(o MergeRegion) bool {
	return m.Row < o.Row+o.RowSpan && o.Row < m.Row+m.RowSpan &&
		m.Col < o.Col+o.ColSpan && o.Col < m.Col+m.ColSpan
}

// regions is the set of merge regions of an editor; members never overlap.
type regions []MergeRegion

func (rs regions) add(m MergeRegion) (regions, error) {
	if err := m.validate(); err != nil {
		return rs, err
	}
	for _, o := range rs {
		if m.overlaps(o) {
			return rs, fmt.Errorf("merge %s overlaps %s: %w", m, o, ErrMergeOverlap)
		}
	}
	return append(rs, m), nil
}

func (rs regions) remove(at cell.Coord) (regions, bool) {
	for i, m := range rs {
		if m.Anchor() == at {
			return append(rs[:i], rs[i+1:]...), true
		}
	}
	return rs, false
}

// covered reports whether at lies inside a region without being its anchor.
func (rs regions) covered(at cell.Coord) bool {
	for _, m := range rs {
		if m.Range().Contains(at) && m.Anchor() != at {
			return true
		}
	}
	return false
}

// insertRows shifts regions at or after index at and grows regions that
// the insertion point falls inside.
func (rs regions) insertRows(at, n int) regions {
	out := rs[:0]
	for _, m := range rs {
		switch {
		case at <= m.Row:
			m.Row += n
		case at < m.Row+m.RowSpan:
			m.RowSpan += n
		}
		out = append(out, m)
	}
	return out
}

// deleteRows destroys regions that intersect the deleted rows and shifts
// regions below them.
func (rs regions) deleteRows(at, n int) regions {
	out := rs[:0]
	for _, m := range rs {
		switch {
		case m.Row+m.RowSpan <= at:
		case m.Row >= at+n:
			m.Row -= n
		default:
			continue
		}
		out = append(out, m)
	}
	return out
}

func (rs regions) insertCols(at, n int) regions {
	out := rs[:0]
	for _, m := range rs {
		switch {
		case at <= m.Col:
			m.Col += n
		case at < m.Col+m.ColSpan:
			m.ColSpan += n
		}
		out = append(out, m)
	}
	return out
}

func (rs regions) deleteCols(at, n int) regions {
	out := rs[:0]
	for _, m := range rs {
		switch {
		case m.Col+m.ColSpan <= at:
		case m.Col >= at+n:
			m.Col -= n
		default:
			continue
		}
		out = append(out, m)
	}
	return out
}

// Merge adds a merge region.
func (e *Editor) Merge(m MergeRegion) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	next, err := e.merges.add(m)
	if err != nil {
		return err
	}
	e.merges = next
	e.touch()
	return nil
}

// Unmerge removes the region anchored at row, col. It reports whether a
// region was removed.
func (e *Editor) Unmerge(row, col int) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false, ErrClosed
	}
	next, ok := e.merges.remove(cell.At(row, col))
	if !ok {
		return false, nil
	}
	e.merges = next
	e.touch()
	return true, nil
}

// MergeCells returns a copy of the merge regions.
func (e *Editor) MergeCells() []MergeRegion {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]MergeRegion(nil), e.merges...)
}
