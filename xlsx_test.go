package xlgrid

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/javajack/xlgrid/cell"
)

func workbookBytes(t *testing.T, build func(f *excelize.File)) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	build(f)
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestLoadXLSX(t *testing.T) {
	raw := workbookBytes(t, func(f *excelize.File) {
		require.NoError(t, f.SetCellValue("Sheet1", "A1", 4))
		require.NoError(t, f.SetCellFormula("Sheet1", "B1", "A1*3"))
		require.NoError(t, f.SetCellValue("Sheet1", "C1", "tail"))
		require.NoError(t, f.SetCellValue("Sheet1", "A2", "hello"))
		require.NoError(t, f.SetCellValue("Sheet1", "A3", "merged"))
		require.NoError(t, f.MergeCell("Sheet1", "A3", "B3"))
		require.NoError(t, f.AddComment("Sheet1", excelize.Comment{Cell: "A2", Author: "bob", Text: "check this"}))
	})

	ed, err := LoadXLSX(bytes.NewReader(raw), "", WithScheduler(&manualScheduler{}), WithLogger(quietLogger()))
	require.NoError(t, err)

	assert.Equal(t, "4", ed.Raw(0, 0))
	assert.Equal(t, "=A1*3", ed.Raw(0, 1))
	assert.Equal(t, "12", ed.Display(0, 1).Text)
	assert.Equal(t, "hello", ed.Raw(1, 0))
	assert.Equal(t, []MergeRegion{{Row: 2, Col: 0, RowSpan: 1, ColSpan: 2}}, ed.MergeCells())

	comment := ed.Meta(1, 0).Comment
	assert.Contains(t, comment, "check this")
	assert.False(t, strings.HasPrefix(comment, "bob:"))
}

func TestLoadXLSX_Errors(t *testing.T) {
	_, err := LoadXLSX(strings.NewReader("not a workbook"), "")
	assert.ErrorContains(t, err, "open workbook")

	raw := workbookBytes(t, func(*excelize.File) {})
	_, err = LoadXLSX(bytes.NewReader(raw), "Missing", WithLogger(quietLogger()))
	assert.ErrorContains(t, err, `sheet "Missing"`)
}

func TestWriteXLSX_RoundTrip(t *testing.T) {
	data := [][]any{
		{"1", "=A1*2", "label"},
		{"007", `{"value":1}`, 2.5},
	}
	ed, _ := newTestEditor(t,
		WithData(data),
		WithMergeCells(MergeRegion{Row: 1, Col: 1, RowSpan: 1, ColSpan: 2}),
		WithMetas(CellMeta{Row: 0, Col: 0, Meta: Meta{Comment: "note"}}),
	)
	rng := ed.MergeCells()[0].Range()
	require.NoError(t, ed.ApplyColor(rng, ColorBackground, "red"))
	require.NoError(t, ed.ApplyColor(rng, ColorText, "white"))

	var buf bytes.Buffer
	require.NoError(t, ed.WriteXLSX(&buf, "Data"))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Data"}, f.GetSheetList())
	fml, err := f.GetCellFormula("Data", "B1")
	require.NoError(t, err)
	assert.Equal(t, "A1*2", fml)

	v, err := f.GetCellValue("Data", "A2")
	require.NoError(t, err)
	assert.Equal(t, "007", v)

	// the merge anchor keeps its own value, the covered cell is dropped
	v, err = f.GetCellValue("Data", "B2")
	require.NoError(t, err)
	assert.Equal(t, `{"value":1}`, v)
	v, err = f.GetCellValue("Data", "C2")
	require.NoError(t, err)
	assert.Empty(t, v)

	merges, err := f.GetMergeCells("Data")
	require.NoError(t, err)
	require.Len(t, merges, 1)
	assert.Equal(t, "B2", merges[0].GetStartAxis())
	assert.Equal(t, "C2", merges[0].GetEndAxis())

	styleB2, err := f.GetCellStyle("Data", "B2")
	require.NoError(t, err)
	assert.NotZero(t, styleB2)
	styleC2, err := f.GetCellStyle("Data", "C2")
	require.NoError(t, err)
	assert.Equal(t, styleB2, styleC2)

	back, err := LoadXLSX(bytes.NewReader(buf.Bytes()), "Data", WithScheduler(&manualScheduler{}), WithLogger(quietLogger()))
	require.NoError(t, err)
	for _, at := range []cell.Coord{cell.At(0, 0), cell.At(0, 1), cell.At(0, 2), cell.At(1, 0), cell.At(1, 1)} {
		assert.Equal(t, ed.Raw(at.Row, at.Col), back.Raw(at.Row, at.Col), at.String())
	}
	assert.Empty(t, back.Raw(1, 2))
	assert.Equal(t, "1", back.Display(1, 1).Text)
	assert.Contains(t, back.Meta(0, 0).Comment, "note")
	assert.Equal(t, ed.MergeCells(), back.MergeCells())
}

func TestExactNumber(t *testing.T) {
	n, ok := exactNumber("2.5")
	assert.True(t, ok)
	assert.Equal(t, 2.5, n)

	for _, s := range []string{"007", "1e3", "abc", "", " 1"} {
		_, ok := exactNumber(s)
		assert.False(t, ok, s)
	}
}

func TestCommentText(t *testing.T) {
	assert.Equal(t, "hello", commentText(excelize.Comment{Author: "ann", Text: "ann: hello"}))
	assert.Equal(t, "from runs", commentText(excelize.Comment{
		Author:    "ann",
		Paragraph: []excelize.RichTextRun{{Text: "ann:"}, {Text: " from runs"}},
	}))
	assert.Equal(t, "plain", commentText(excelize.Comment{Text: "plain"}))
}
