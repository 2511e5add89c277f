package xlgrid

import (
	"fmt"
	"strings"

	"github.com/javajack/xlgrid/cell"
	"github.com/javajack/xlgrid/formula"
)

// Describe returns a human-readable outline of the sheet: its size, merge
// regions, formula cells with the cells they read, object cells and cell
// metadata. Useful for debugging sheets during development.
func (e *Editor) Describe() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "Sheet: %d rows x %d cols\n", len(e.rows), e.rows.width())

	if len(e.merges) > 0 {
		b.WriteString("  Merge regions:\n")
		for _, m := range e.merges {
			fmt.Fprintf(&b, "    %s (%dx%d)\n", m, m.RowSpan, m.ColSpan)
		}
	}

	var formulas, objects []string
	for r, row := range e.rows {
		for c, content := range row {
			at := cell.At(r, c)
			switch content.Kind {
			case cell.Formula:
				line := fmt.Sprintf("    %s: %s", at, content.Raw())
				if refs := e.references(at, content.FormulaBody()); len(refs) > 0 {
					line += " <- " + strings.Join(refs, ", ")
				}
				formulas = append(formulas, line)
			case cell.Object:
				objects = append(objects, fmt.Sprintf("    %s: %s", at, content.Raw()))
			}
		}
	}
	writeSection(&b, "Formulas", formulas)
	writeSection(&b, "Objects", objects)

	var metas []string
	for _, cm := range e.sortedMetas() {
		metas = append(metas, fmt.Sprintf("    %s%s", cell.At(cm.Row, cm.Col), describeMeta(cm.Meta)))
	}
	writeSection(&b, "Metadata", metas)
	return b.String()
}

func writeSection(b *strings.Builder, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(b, "  %s:\n", title)
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
}

// references lists what a formula reads, in order of first appearance.
// Aliases are shown with the cell they resolve to from at.
func (e *Editor) references(at cell.Coord, body string) []string {
	node, err := e.engine.Parse(body)
	if err != nil {
		return []string{"(invalid formula)"}
	}
	var refs []string
	seen := make(map[string]bool)
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			refs = append(refs, s)
		}
	}
	formula.Walk(node, func(n formula.Node) {
		switch x := n.(type) {
		case *formula.Ref:
			if x.Name == "" {
				add(x.String())
				return
			}
			t, ok := e.engine.Alias(x.Name)
			if !ok {
				add(x.String() + "(?)")
				return
			}
			target := t.Cell
			if t.Column {
				target.Row = at.Row
			}
			add(fmt.Sprintf("%s(%s)", x, target))
		case *formula.RangeRef:
			add(x.String())
		}
	})
	return refs
}

// describeMeta returns the set attributes of a Meta for display.
func describeMeta(m Meta) string {
	var parts []string
	if m.ClassName != "" {
		parts = append(parts, fmt.Sprintf("class=%q", m.ClassName))
	}
	if m.Comment != "" {
		parts = append(parts, fmt.Sprintf("comment=%q", m.Comment))
	}
	if m.ReadOnly {
		parts = append(parts, "readOnly")
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, " ")
}
