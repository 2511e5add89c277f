package xlgrid

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/javajack/xlgrid/cell"
	"github.com/javajack/xlgrid/formula"
)

// Display classes.
const (
	ClassFormula = "formula"
	ClassError   = "error"
	ClassObject  = "object"
)

// Cell editors reported by Props.
const (
	EditorText   = "text"
	EditorObject = "object"
	EditorNone   = "none"
)

// Display is what a cell shows.
type Display struct {
	Text  string `json:"text"`
	Class string `json:"class,omitempty"`
}

// CellProps describes how a cell may be edited.
type CellProps struct {
	Comment  string `json:"comment,omitempty"`
	ReadOnly bool   `json:"readOnly,omitempty"`
	Editor   string `json:"editor"`
}

// CellResult is the evaluation result of one formula cell.
type CellResult struct {
	At     cell.Coord
	Result formula.Result
}

// CellClass is a non-empty class name of one cell.
type CellClass struct {
	Row       int    `json:"row"`
	Col       int    `json:"col"`
	ClassName string `json:"className"`
}

// FormattedData is the matrix together with its merge regions and classes.
type FormattedData struct {
	Data       [][]string    `json:"data"`
	MergeCells []MergeRegion `json:"mergeCells"`
	Cell       []CellClass   `json:"cell"`
}

// objectRenderer formats object cells through an expr expression evaluated
// with the object's properties as environment.
type objectRenderer struct {
	expression string
	cache      sync.Map // expression → compiled *vm.Program
}

func (r *objectRenderer) program() (*vm.Program, error) {
	if cached, ok := r.cache.Load(r.expression); ok {
		return cached.(*vm.Program), nil
	}
	program, err := expr.Compile(r.expression, expr.Env(map[string]any{}), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compile object render %q: %w", r.expression, err)
	}
	r.cache.Store(r.expression, program)
	return program, nil
}

func (r *objectRenderer) Render(obj map[string]any) (string, error) {
	program, err := r.program()
	if err != nil {
		return "", err
	}
	out, err := expr.Run(program, obj)
	if err != nil {
		return "", fmt.Errorf("render object with %q: %w", r.expression, err)
	}
	if out == nil {
		return "", nil
	}
	return formatAny(out), nil
}

// defaultObjectText joins the name and value properties that are present.
func defaultObjectText(obj map[string]any) string {
	var parts []string
	for _, key := range []string{"name", "value"} {
		if v, ok := obj[key]; ok {
			parts = append(parts, formatAny(v))
		}
	}
	return strings.Join(parts, ":")
}

func formatAny(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case float64:
		return cell.FormatNumber(x)
	case bool, int, int64:
		return fmt.Sprint(x)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// Evaluate computes a cell's value.
func (e *Editor) Evaluate(row, col int) formula.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.engine.Evaluate(e.rows, cell.At(row, col))
}

// EvaluateAll evaluates every formula cell that is not hidden by a merge
// region, in row-major order. A failing cell does not stop the pass.
func (e *Editor) EvaluateAll() []CellResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []CellResult
	for r, row := range e.rows {
		for c, content := range row {
			at := cell.At(r, c)
			if content.Kind != cell.Formula || e.merges.covered(at) {
				continue
			}
			res := e.engine.Evaluate(e.rows, at)
			if !res.OK() {
				e.logFailure(at, content, res.Err)
			}
			out = append(out, CellResult{At: at, Result: res})
		}
	}
	return out
}

func (e *Editor) logFailure(at cell.Coord, content cell.Content, err *formula.Error) {
	e.log.Warn("formula failed",
		"cell", at.String(),
		"formula", content.Raw(),
		"kind", err.Kind.String(),
		"error", err.Error())
}

// CellData returns a cell's value for consumers: the result of a formula
// (its text when evaluation fails), the decoded map of an object, or the
// raw value otherwise.
func (e *Editor) CellData(row, col int) any {
	e.mu.Lock()
	defer e.mu.Unlock()
	at := cell.At(row, col)
	content := e.rows.get(at)
	if content.Kind != cell.Formula {
		return content.Value()
	}
	res := e.engine.Evaluate(e.rows, at)
	if !res.OK() {
		return content.Raw()
	}
	return res.Value.Native()
}

// Display renders a cell. Cells hidden by a merge region render empty.
func (e *Editor) Display(row, col int) Display {
	e.mu.Lock()
	defer e.mu.Unlock()
	at := cell.At(row, col)
	if e.merges.covered(at) {
		return Display{}
	}
	content := e.rows.get(at)

	switch content.Kind {
	case cell.Formula:
		res := e.engine.Evaluate(e.rows, at)
		if !res.OK() {
			e.logFailure(at, content, res.Err)
			return Display{Text: content.Raw(), Class: ClassError}
		}
		return Display{Text: res.Value.String(), Class: ClassFormula}

	case cell.Object:
		class := ClassObject
		if extra, ok := content.Obj["className"].(string); ok && extra != "" {
			class += " " + extra
		}
		return Display{Text: e.objectText(at, content.Obj), Class: class}
	}
	return Display{Text: content.Raw()}
}

func (e *Editor) objectText(at cell.Coord, obj map[string]any) string {
	if e.render == nil {
		return defaultObjectText(obj)
	}
	text, err := e.render.Render(obj)
	if err != nil {
		e.log.Warn("object render failed", "cell", at.String(), "error", err)
		return defaultObjectText(obj)
	}
	return text
}

// Props describes how a cell may be edited.
func (e *Editor) Props(row, col int) CellProps {
	e.mu.Lock()
	defer e.mu.Unlock()
	at := cell.At(row, col)
	content := e.rows.get(at)
	meta := e.metas[at]

	props := CellProps{
		Comment:  meta.Comment,
		ReadOnly: e.opts.disabled || meta.ReadOnly || content.ReadOnly(),
		Editor:   EditorText,
	}
	switch content.Kind {
	case cell.Object:
		props.Comment = at.String() + "\n" + e.objectComment(content.Obj)
		props.Editor = EditorObject
	case cell.Formula:
		props.Comment = content.Raw()
	}
	if e.opts.disabled {
		props.Editor = EditorNone
	}
	return props
}

// objectComment lists an object's properties, aliased ones first as
// "label(prop): value".
func (e *Editor) objectComment(obj map[string]any) string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var aliased, plain []string
	for _, k := range keys {
		if label, ok := e.opts.propAlias[k]; ok {
			aliased = append(aliased, fmt.Sprintf("%s(%s): %s", label, k, formatAny(obj[k])))
		} else if !e.opts.commentNeedAlias {
			plain = append(plain, fmt.Sprintf("%s: %s", k, formatAny(obj[k])))
		}
	}
	return strings.Join(append(aliased, plain...), "\n")
}

// DataWithFormat returns the matrix with its merge regions and the class
// names of cells that have one.
func (e *Editor) DataWithFormat() FormattedData {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := FormattedData{
		Data:       e.rows.raw(),
		MergeCells: append([]MergeRegion{}, e.merges...),
		Cell:       []CellClass{},
	}
	for _, cm := range e.sortedMetas() {
		if cm.Meta.ClassName != "" {
			out.Cell = append(out.Cell, CellClass{Row: cm.Row, Col: cm.Col, ClassName: cm.Meta.ClassName})
		}
	}
	return out
}
