package xlgrid

import (
	"fmt"

	"github.com/javajack/xlgrid/cell"
	"github.com/javajack/xlgrid/formula"
)

// Severity indicates the severity of a validation issue.
type Severity int

const (
	SeverityError   Severity = iota // the formula fails when evaluated
	SeverityWarning                 // the formula evaluates but may not read what it looks like
)

// Issue is a single problem found by Validate.
type Issue struct {
	Severity Severity   `json:"severity"`
	At       cell.Coord `json:"at"`
	Message  string     `json:"message"`
}

// String formats the issue as "[ERROR] A2: message" or "[WARN] ...".
func (i Issue) String() string {
	sev := "ERROR"
	if i.Severity == SeverityWarning {
		sev = "WARN"
	}
	return fmt.Sprintf("[%s] %s: %s", sev, i.At, i.Message)
}

// Validate checks every formula cell without evaluating it. Syntax errors,
// unknown functions and names, references outside the sheet and direct
// self-references are errors; references into cells hidden by a merge
// region and ranges reaching past the sheet are warnings. Issues are
// returned in row-major order.
func (e *Editor) Validate() []Issue {
	e.mu.Lock()
	defer e.mu.Unlock()

	var issues []Issue
	for r, row := range e.rows {
		for c, content := range row {
			if content.Kind != cell.Formula {
				continue
			}
			issues = append(issues, e.validateFormula(cell.At(r, c), content.FormulaBody())...)
		}
	}
	return issues
}

func (e *Editor) validateFormula(at cell.Coord, body string) []Issue {
	node, err := e.engine.Parse(body)
	if err != nil {
		return []Issue{{Severity: SeverityError, At: at, Message: fmt.Sprintf("invalid formula %q: %v", "="+body, err)}}
	}

	var issues []Issue
	report := func(sev Severity, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, At: at, Message: fmt.Sprintf(format, args...)})
	}

	formula.Walk(node, func(n formula.Node) {
		switch x := n.(type) {
		case *formula.Call:
			if !e.engine.HasFunction(x.Name) {
				report(SeverityError, "unknown function %s", x.Name)
			}

		case *formula.Ref:
			target := x.Cell
			if x.Name != "" {
				t, ok := e.engine.Alias(x.Name)
				if !ok {
					report(SeverityError, "unknown name %q", x.Name)
					return
				}
				target = t.Cell
				if t.Column {
					target.Row = at.Row
				}
			}
			switch {
			case target == at:
				report(SeverityError, "%s refers to its own cell", x)
			case target.Row >= len(e.rows):
				report(SeverityError, "%s is outside the sheet (%d rows)", x, len(e.rows))
			case e.merges.covered(target):
				report(SeverityWarning, "%s is hidden by a merge region", x)
			}

		case *formula.RangeRef:
			if x.Range.To.Row >= len(e.rows) {
				report(SeverityWarning, "range %s extends past the sheet (%d rows); missing cells read as empty", x, len(e.rows))
			}
		}
	})
	return issues
}
