package xlgrid

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/javajack/xlgrid/cell"
)

const commentAuthor = "xlgrid"

// LoadXLSX reads one sheet of a workbook into a new editor: values,
// formulas, comments and merge cells. An empty sheet name selects the first
// sheet. opts are applied after the workbook content.
func LoadXLSX(r io.Reader, sheetName string, opts ...Option) (*Editor, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("open workbook: no sheets")
		}
		sheetName = sheets[0]
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows from sheet %q: %w", sheetName, err)
	}
	data := make([][]any, len(rows))
	for r, row := range rows {
		data[r] = make([]any, len(row))
		for c, value := range row {
			name := cell.At(r, c).String()
			if fml, err := f.GetCellFormula(sheetName, name); err == nil && fml != "" {
				data[r][c] = "=" + fml
				continue
			}
			data[r][c] = value
		}
	}

	var metas []CellMeta
	comments, err := f.GetComments(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read comments from sheet %q: %w", sheetName, err)
	}
	for _, cm := range comments {
		at, err := cell.ParseCoord(cm.Cell)
		if err != nil {
			continue
		}
		metas = append(metas, CellMeta{Row: at.Row, Col: at.Col, Meta: Meta{Comment: commentText(cm)}})
	}

	var merges []MergeRegion
	mergeCells, err := f.GetMergeCells(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read merge cells from sheet %q: %w", sheetName, err)
	}
	for _, mc := range mergeCells {
		rng, err := cell.ParseRange(mc.GetStartAxis() + ":" + mc.GetEndAxis())
		if err != nil {
			return nil, fmt.Errorf("merge cell %s: %w", mc.GetStartAxis(), err)
		}
		merges = append(merges, MergeRegion{
			Row:     rng.From.Row,
			Col:     rng.From.Col,
			RowSpan: rng.Rows(),
			ColSpan: rng.Cols(),
		})
	}

	all := append([]Option{WithData(data), WithMergeCells(merges...), WithMetas(metas...)}, opts...)
	return New(all...)
}

// commentText returns the plain text of a comment without its author prefix.
func commentText(cm excelize.Comment) string {
	text := cm.Text
	if text == "" {
		var b strings.Builder
		for _, run := range cm.Paragraph {
			b.WriteString(run.Text)
		}
		text = b.String()
	}
	if cm.Author != "" {
		text = strings.TrimPrefix(text, cm.Author+":")
	}
	return strings.TrimSpace(text)
}

// WriteXLSX writes the editor's content as a single-sheet workbook: values,
// formulas with their evaluated results, merge regions, comments and color
// tags as cell styles. Values hidden under a merge region are not written.
func (e *Editor) WriteXLSX(w io.Writer, sheetName string) error {
	if sheetName == "" {
		sheetName = "Sheet1"
	}
	f := excelize.NewFile()
	defer f.Close()
	if sheetName != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheetName); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// a workbook keeps no value under a merge region, so covered cells are
	// skipped and regions go in after the values
	for r, row := range e.rows {
		for c, content := range row {
			at := cell.At(r, c)
			if e.merges.covered(at) {
				continue
			}
			if err := e.writeCell(f, sheetName, at, content); err != nil {
				return err
			}
		}
	}

	styles := make(map[[2]string]int)
	for _, cm := range e.sortedMetas() {
		name := cell.At(cm.Row, cm.Col).String()
		if cm.Meta.Comment != "" {
			err := f.AddComment(sheetName, excelize.Comment{Cell: name, Author: commentAuthor, Text: cm.Meta.Comment})
			if err != nil {
				return fmt.Errorf("add comment to %s: %w", name, err)
			}
		}
		key := [2]string{
			e.opts.palette[tagValue(cm.Meta.ClassName, ColorBackground.prefix())],
			e.opts.palette[tagValue(cm.Meta.ClassName, ColorText.prefix())],
		}
		if key == [2]string{} {
			continue
		}
		styleID, ok := styles[key]
		if !ok {
			var err error
			if styleID, err = f.NewStyle(colorStyle(key[0], key[1])); err != nil {
				return fmt.Errorf("create style for %s: %w", name, err)
			}
			styles[key] = styleID
		}
		if err := f.SetCellStyle(sheetName, name, name, styleID); err != nil {
			return fmt.Errorf("set style of %s: %w", name, err)
		}
	}

	for _, m := range e.merges {
		rng := m.Range()
		if err := f.MergeCell(sheetName, rng.From.String(), rng.To.String()); err != nil {
			return fmt.Errorf("merge cells %s: %w", rng, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func (e *Editor) writeCell(f *excelize.File, sheetName string, at cell.Coord, content cell.Content) error {
	name := at.String()
	var err error
	switch content.Kind {
	case cell.Empty:
		return nil
	case cell.Number:
		err = f.SetCellValue(sheetName, name, content.Num)
	case cell.Text:
		if n, ok := exactNumber(content.Text); ok {
			err = f.SetCellValue(sheetName, name, n)
		} else {
			err = f.SetCellValue(sheetName, name, content.Text)
		}
	case cell.Object:
		err = f.SetCellValue(sheetName, name, content.Text)
	case cell.Formula:
		// numeric and boolean results are kept as the cached value
		if res := e.engine.Evaluate(e.rows, at); res.OK() {
			switch v := res.Value.Native().(type) {
			case float64, bool:
				err = f.SetCellValue(sheetName, name, v)
			}
		}
		if err == nil {
			err = f.SetCellFormula(sheetName, name, content.FormulaBody())
		}
	}
	if err != nil {
		return fmt.Errorf("write cell %s: %w", name, err)
	}
	return nil
}

// exactNumber parses text that is the canonical form of a number, so
// values like "007" stay text.
func exactNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || cell.FormatNumber(f) != s {
		return 0, false
	}
	return f, true
}

func colorStyle(fill, font string) *excelize.Style {
	style := &excelize.Style{}
	if fill != "" {
		style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{fill}}
	}
	if font != "" {
		style.Font = &excelize.Font{Color: font}
	}
	return style
}
