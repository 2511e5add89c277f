// Package xlgrid is the data model behind a spreadsheet-style editing
// surface: a matrix of raw cell content, per-cell metadata, merge regions
// and deferred change notifications, with formula cells evaluated by the
// formula package.
//
// Basic usage:
//
//	ed, err := xlgrid.New(xlgrid.WithData([][]any{
//		{"1", "2", "=A1+B1"},
//	}))
//	ed.OnChange(func(ev xlgrid.ChangeEvent) error {
//		return save(ev.Data)
//	})
//	ed.Display(0, 2) // {Text: "3", Class: "formula"}
package xlgrid

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/javajack/xlgrid/cell"
	"github.com/javajack/xlgrid/formula"
)

const (
	defaultRows = 3
	defaultCols = 5
)

// Editor owns the cell matrix of one sheet. It is safe for concurrent use;
// evaluation runs under the editor lock and never mutates the matrix.
type Editor struct {
	id     uuid.UUID
	opts   *Options
	log    *slog.Logger
	engine *formula.Engine
	render *objectRenderer
	sched  Scheduler

	mu     sync.Mutex
	rows   sheet
	metas  map[cell.Coord]Meta
	merges regions
	closed bool

	pending    bool
	delivering bool
	outbox     []ChangeEvent
	seq        uint64

	onChange []func(ChangeEvent) error
	onError  []func(error)
	onSelect []func(SelectionEvent) error

	onActivate       []func(ActivateEvent) error
	onObjectActivate []func(ActivateEvent) error
}

// New creates an editor. Without WithData it starts with an empty 3x5
// matrix.
func New(opts ...Option) (*Editor, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	e := &Editor{
		id:    uuid.New(),
		opts:  o,
		sched: o.scheduler,
		metas: make(map[cell.Coord]Meta),
	}
	if e.sched == nil {
		e.sched = timerScheduler{}
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	e.log = logger.With("editor", e.id.String())

	engine, err := newEngine(o)
	if err != nil {
		return nil, err
	}
	e.engine = engine

	if o.objectRender != "" {
		e.render = &objectRenderer{expression: o.objectRender}
		if _, err := e.render.program(); err != nil {
			return nil, err
		}
	}

	if len(o.data) == 0 {
		e.rows = newSheet(defaultRows, defaultCols)
	} else {
		e.rows = make(sheet, len(o.data))
		for r, row := range o.data {
			e.rows[r] = make([]cell.Content, len(row))
			for c, v := range row {
				e.rows[r][c] = cell.Classify(v)
			}
		}
	}

	for _, m := range o.mergeCells {
		if e.merges, err = e.merges.add(m); err != nil {
			return nil, fmt.Errorf("initial merge cells: %w", err)
		}
	}
	for _, cm := range o.metas {
		at, err := coord(cm.Row, cm.Col)
		if err != nil {
			return nil, fmt.Errorf("initial metas: %w", err)
		}
		e.putMeta(at, cm.Meta)
	}

	e.log.Debug("editor created", "rows", len(e.rows), "cols", e.rows.width())
	return e, nil
}

func newEngine(o *Options) (*formula.Engine, error) {
	aliases := make(map[string]formula.Target, len(o.aliases))
	for name, ref := range o.aliases {
		t, err := formula.ParseTarget(ref)
		if err != nil {
			return nil, fmt.Errorf("alias %q: %w", name, err)
		}
		aliases[name] = t
	}
	return formula.NewEngine(
		formula.WithAliases(aliases),
		formula.WithPropertyAliases(o.propAlias),
		formula.WithValueField(o.valueField),
		formula.WithFunctions(o.functions),
	), nil
}

func coord(row, col int) (cell.Coord, error) {
	if row < 0 || col < 0 {
		return cell.Coord{}, fmt.Errorf("cell %d,%d: %w", row, col, ErrOutOfRange)
	}
	return cell.At(row, col), nil
}

// ID returns the editor's identifier, carried by its events.
func (e *Editor) ID() uuid.UUID { return e.id }

// Engine returns the formula engine shared by the editor's cells.
func (e *Editor) Engine() *formula.Engine { return e.engine }

// SetCell writes a cell, growing the matrix as needed. Strings are
// classified by their first character; maps and structs become object
// cells.
func (e *Editor) SetCell(row, col int, value any) error {
	at, err := coord(row, col)
	if err != nil {
		return err
	}
	content := cell.Classify(value)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.rows.set(at, content)
	e.touch()
	return nil
}

// InsertNow writes the current time, formatted with TimestampLayout, into
// a cell.
func (e *Editor) InsertNow(row, col int) error {
	return e.SetCell(row, col, e.opts.now().Format(TimestampLayout))
}

// Cell returns the classified content of a cell; cells outside the matrix
// are empty.
func (e *Editor) Cell(row, col int) cell.Content {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rows.get(cell.At(row, col))
}

// Raw returns the text of a cell as typed.
func (e *Editor) Raw(row, col int) string {
	return e.Cell(row, col).Raw()
}

// Data returns a copy of the matrix as typed text.
func (e *Editor) Data() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rows.raw()
}

// Size returns the number of rows and the width of the widest row.
func (e *Editor) Size() (rows, cols int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rows.Size()
}

// InsertRow inserts a row before index at, filled with values. Metadata and
// merge regions move with their cells; formula text is left unchanged.
func (e *Editor) InsertRow(at int, values []any) error {
	if at < 0 {
		return fmt.Errorf("insert row %d: %w", at, ErrOutOfRange)
	}
	contents := make([]cell.Content, len(values))
	for i, v := range values {
		contents[i] = cell.Classify(v)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.rows.insertRow(at, contents)
	e.merges = e.merges.insertRows(at, 1)
	e.remapMetas(func(c cell.Coord) (cell.Coord, bool) {
		if c.Row >= at {
			c.Row++
		}
		return c, true
	})
	e.touch()
	return nil
}

// DeleteRow removes n rows starting at index at. Merge regions that
// intersect the deleted rows are destroyed.
func (e *Editor) DeleteRow(at, n int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if at < 0 || n < 1 || at >= len(e.rows) {
		return fmt.Errorf("delete %d row(s) at %d: %w", n, at, ErrOutOfRange)
	}
	e.rows.deleteRows(at, n)
	e.merges = e.merges.deleteRows(at, n)
	e.remapMetas(func(c cell.Coord) (cell.Coord, bool) {
		switch {
		case c.Row >= at+n:
			c.Row -= n
		case c.Row >= at:
			return c, false
		}
		return c, true
	})
	e.touch()
	return nil
}

// InsertCol inserts an empty column before index at.
func (e *Editor) InsertCol(at int) error {
	if at < 0 {
		return fmt.Errorf("insert column %d: %w", at, ErrOutOfRange)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.rows.insertCol(at)
	e.merges = e.merges.insertCols(at, 1)
	e.remapMetas(func(c cell.Coord) (cell.Coord, bool) {
		if c.Col >= at {
			c.Col++
		}
		return c, true
	})
	e.touch()
	return nil
}

// DeleteCol removes n columns starting at index at.
func (e *Editor) DeleteCol(at, n int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if at < 0 || n < 1 || at >= e.rows.width() {
		return fmt.Errorf("delete %d column(s) at %d: %w", n, at, ErrOutOfRange)
	}
	e.rows.deleteCols(at, n)
	e.merges = e.merges.deleteCols(at, n)
	e.remapMetas(func(c cell.Coord) (cell.Coord, bool) {
		switch {
		case c.Col >= at+n:
			c.Col -= n
		case c.Col >= at:
			return c, false
		}
		return c, true
	})
	e.touch()
	return nil
}
