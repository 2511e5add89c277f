package formula

import (
	"fmt"

	"github.com/javajack/xlgrid/cell"
)

// Source gives read access to raw cell content. ok is false when the
// coordinate has no backing row; missing trailing columns of an existing
// row read as empty content with ok true. Size reports the backing rows and
// the widest row; everything outside it reads as empty.
type Source interface {
	Content(at cell.Coord) (c cell.Content, ok bool)
	Size() (rows, cols int)
}

// Target is what an alias name points at: a fixed cell, or a whole column
// resolved against the row being evaluated.
type Target struct {
	Cell   cell.Coord
	Column bool
}

// ParseTarget parses an alias target written as a cell ("B2") or a column
// ("C").
func ParseTarget(s string) (Target, error) {
	if c, err := cell.ParseCoord(s); err == nil {
		return Target{Cell: c}, nil
	}
	col, err := cell.ColumnIndex(s)
	if err != nil {
		return Target{}, fmt.Errorf("invalid alias target %q: expected a cell or a column", s)
	}
	return Target{Cell: cell.Coord{Col: col}, Column: true}, nil
}

// Resolved is the content a reference points at: a scalar, or the body of a
// formula that still has to be evaluated. A formula body may be empty.
type Resolved struct {
	At      cell.Coord
	Value   Value
	Formula string
	formula bool
}

// IsFormula reports whether the target holds an unevaluated formula.
func (r Resolved) IsFormula() bool { return r.formula }

// Resolver maps references to raw cell content. It unwraps one level of
// object content but never evaluates formulas.
type Resolver struct {
	src        Source
	aliases    map[string]Target
	propAlias  map[string]string // alias label → property name
	valueField string
}

// Target resolves a reference to the coordinate it addresses. current is
// the cell being evaluated, used by column aliases.
func (r *Resolver) Target(ref *Ref, current cell.Coord) (cell.Coord, error) {
	if ref.Name == "" {
		return ref.Cell, nil
	}
	t, ok := r.aliases[ref.Name]
	if !ok {
		return cell.Coord{}, newError(UnknownAlias, "%q is not a known name", ref.Name)
	}
	if t.Column {
		return cell.Coord{Row: current.Row, Col: t.Cell.Col}, nil
	}
	return t.Cell, nil
}

// Resolve returns the content behind ref.
func (r *Resolver) Resolve(ref *Ref, current cell.Coord) (Resolved, error) {
	at, err := r.Target(ref, current)
	if err != nil {
		return Resolved{}, err
	}
	content, ok := r.src.Content(at)
	if !ok {
		return Resolved{}, newError(CellOutOfRange, "%s is outside the sheet", at)
	}
	return r.unwrap(at, content, ref.Prop)
}

// Cell returns the content at a coordinate for range expansion. Coordinates
// outside the sheet, and objects without a usable value field, read as empty.
func (r *Resolver) Cell(at cell.Coord) Resolved {
	content, ok := r.src.Content(at)
	if !ok {
		return Resolved{At: at}
	}
	res, err := r.unwrap(at, content, "")
	if err != nil {
		return Resolved{At: at}
	}
	return res
}

func (r *Resolver) unwrap(at cell.Coord, content cell.Content, prop string) (Resolved, error) {
	res := Resolved{At: at}
	if prop != "" && content.Kind != cell.Object {
		return res, newError(UnresolvableReference, "%s holds no object to read %q from", at, prop)
	}

	switch content.Kind {
	case cell.Empty:
	case cell.Number:
		res.Value = Number(content.Num)
	case cell.Text:
		res.Value = Text(content.Text)
	case cell.Formula:
		res.Formula, res.formula = content.FormulaBody(), true
	case cell.Object:
		v, err := r.property(at, content.Obj, prop)
		if err != nil {
			return res, err
		}
		res.Value = v
	}
	return res, nil
}

// property reads a declared property of an object cell, or its designated
// value field when prop is empty.
func (r *Resolver) property(at cell.Coord, obj map[string]any, prop string) (Value, error) {
	key := prop
	if key == "" {
		key = r.valueField
	}
	raw, ok := obj[key]
	if !ok && prop != "" {
		if name, aliased := r.propAlias[prop]; aliased {
			raw, ok = obj[name]
		}
	}
	if !ok {
		if prop == "" {
			return Value{}, newError(UnresolvableReference, "object at %s has no %q field", at, r.valueField)
		}
		return Value{}, newError(UnresolvableReference, "object at %s has no property %q", at, prop)
	}
	v, ok := fromJSON(raw)
	if !ok {
		return Value{}, newError(UnresolvableReference, "property %q of %s is not a scalar", key, at)
	}
	return v, nil
}
