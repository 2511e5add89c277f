package xlgrid

import (
	"fmt"
	"sort"
	"strings"

	"github.com/javajack/xlgrid/cell"
)

// Meta is styling and annotation attached to one cell.
type Meta struct {
	ClassName string `json:"className,omitempty"` // space-separated tags
	ReadOnly  bool   `json:"readOnly,omitempty"`
	Comment   string `json:"comment,omitempty"`
}

func (m Meta) isZero() bool { return m == Meta{} }

// CellMeta is a Meta with its position.
type CellMeta struct {
	Row  int  `json:"row"`
	Col  int  `json:"col"`
	Meta Meta `json:"meta"`
}

// ColorKind selects which color tag ApplyColor sets.
type ColorKind int

const (
	ColorBackground ColorKind = iota // "bgcolor-<name>"
	ColorText                        // "color-<name>"
)

func (k ColorKind) prefix() string {
	if k == ColorText {
		return "color-"
	}
	return "bgcolor-"
}

// Palette maps color names to hex RGB values.
type Palette map[string]string

// DefaultPalette is the palette used when none is configured.
var DefaultPalette = Palette{
	"red":    "FF0000",
	"white":  "FFFFFF",
	"black":  "000000",
	"green":  "008000",
	"yellow": "FFFF00",
	"blue":   "0000FF",
	"purple": "800080",
	"gray":   "808080",
	"brown":  "A52A2A",
	"tan":    "D2B48C",
}

// Names returns the color names in sorted order.
func (p Palette) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// withTag replaces any tag with the given prefix by prefix+name, keeping
// the other tags in order.
func withTag(className, prefix, name string) string {
	var tags []string
	for _, tag := range strings.Fields(className) {
		if !strings.HasPrefix(tag, prefix) {
			tags = append(tags, tag)
		}
	}
	return strings.Join(append(tags, prefix+name), " ")
}

// tagValue returns the suffix of the first tag with the given prefix.
func tagValue(className, prefix string) string {
	for _, tag := range strings.Fields(className) {
		if strings.HasPrefix(tag, prefix) {
			return strings.TrimPrefix(tag, prefix)
		}
	}
	return ""
}

// SetMeta replaces the metadata of a cell. A zero Meta clears it.
func (e *Editor) SetMeta(row, col int, m Meta) error {
	at, err := coord(row, col)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.putMeta(at, m)
	e.touch()
	return nil
}

func (e *Editor) putMeta(at cell.Coord, m Meta) {
	m.ClassName = strings.TrimSpace(m.ClassName)
	if m.isZero() {
		delete(e.metas, at)
		return
	}
	e.metas[at] = m
}

// Meta returns the metadata of a cell.
func (e *Editor) Meta(row, col int) Meta {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metas[cell.At(row, col)]
}

// ClearMeta removes the metadata of a cell.
func (e *Editor) ClearMeta(row, col int) error {
	return e.SetMeta(row, col, Meta{})
}

// Metas returns all cell metadata in row-major order.
func (e *Editor) Metas() []CellMeta {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sortedMetas()
}

func (e *Editor) sortedMetas() []CellMeta {
	out := make([]CellMeta, 0, len(e.metas))
	for at, m := range e.metas {
		out = append(out, CellMeta{Row: at.Row, Col: at.Col, Meta: m})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

// ApplyColor sets a background or text color tag on every cell of rng that
// lies inside the sheet, replacing the previous tag of the same kind.
func (e *Editor) ApplyColor(rng cell.Range, kind ColorKind, name string) error {
	if rng.From.Row < 0 || rng.From.Col < 0 {
		return fmt.Errorf("apply color to %s: %w", rng, ErrOutOfRange)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if _, ok := e.opts.palette[name]; !ok {
		return fmt.Errorf("apply color %q: %w", name, ErrUnknownColor)
	}
	clipped, ok := rng.Clip(e.rows.Size())
	if !ok {
		return fmt.Errorf("apply color to %s: %w", rng, ErrOutOfRange)
	}
	for _, at := range clipped.Coords() {
		m := e.metas[at]
		m.ClassName = withTag(m.ClassName, kind.prefix(), name)
		e.putMeta(at, m)
	}
	e.log.Debug("color applied", "range", rng.String(), "tag", kind.prefix()+name)
	e.touch()
	return nil
}

// remapMetas moves metadata through a coordinate mapping; cells mapped
// to ok=false are dropped.
func (e *Editor) remapMetas(move func(cell.Coord) (cell.Coord, bool)) {
	next := make(map[cell.Coord]Meta, len(e.metas))
	for at, m := range e.metas {
		if to, ok := move(at); ok {
			next[to] = m
		}
	}
	e.metas = next
}
