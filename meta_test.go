package xlgrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajack/xlgrid/cell"
)

func TestSetMeta(t *testing.T) {
	ed, sched := newTestEditor(t)
	require.NoError(t, ed.SetMeta(1, 2, Meta{ClassName: "  bold  ", Comment: "hi"}))
	assert.Equal(t, Meta{ClassName: "bold", Comment: "hi"}, ed.Meta(1, 2))
	assert.Equal(t, 1, sched.Pending())

	require.NoError(t, ed.ClearMeta(1, 2))
	assert.Equal(t, Meta{}, ed.Meta(1, 2))
	assert.Empty(t, ed.Metas())

	assert.ErrorIs(t, ed.SetMeta(0, -1, Meta{}), ErrOutOfRange)
}

func TestMetas_RowMajor(t *testing.T) {
	ed, _ := newTestEditor(t, WithMetas(
		CellMeta{Row: 2, Col: 0, Meta: Meta{Comment: "c"}},
		CellMeta{Row: 0, Col: 3, Meta: Meta{Comment: "b"}},
		CellMeta{Row: 0, Col: 1, Meta: Meta{Comment: "a"}},
		CellMeta{Row: 1, Col: 1},
	))
	metas := ed.Metas()
	require.Len(t, metas, 3)
	assert.Equal(t, "a", metas[0].Meta.Comment)
	assert.Equal(t, "b", metas[1].Meta.Comment)
	assert.Equal(t, "c", metas[2].Meta.Comment)
}

func TestApplyColor(t *testing.T) {
	ed, _ := newTestEditor(t, WithMetas(CellMeta{Row: 0, Col: 0, Meta: Meta{ClassName: "bold bgcolor-blue"}}))
	rng := cell.NewRange(cell.At(1, 1), cell.At(0, 0))

	require.NoError(t, ed.ApplyColor(rng, ColorBackground, "red"))
	assert.Equal(t, "bold bgcolor-red", ed.Meta(0, 0).ClassName)
	assert.Equal(t, "bgcolor-red", ed.Meta(1, 1).ClassName)

	require.NoError(t, ed.ApplyColor(rng, ColorText, "white"))
	assert.Equal(t, "bold bgcolor-red color-white", ed.Meta(0, 0).ClassName)
	assert.Equal(t, "bgcolor-red color-white", ed.Meta(0, 1).ClassName)

	// a text color does not replace the background tag
	require.NoError(t, ed.ApplyColor(rng, ColorText, "black"))
	assert.Equal(t, "bgcolor-red color-black", ed.Meta(1, 0).ClassName)

	assert.ErrorIs(t, ed.ApplyColor(rng, ColorText, "chartreuse"), ErrUnknownColor)
	assert.ErrorIs(t, ed.ApplyColor(cell.Range{From: cell.At(-1, 0)}, ColorText, "red"), ErrOutOfRange)
}

func TestApplyColor_ClippedToSheet(t *testing.T) {
	ed, _ := newTestEditor(t, WithData([][]any{{"a", "b"}, {"c"}}))
	huge, err := cell.ParseRange("B1:ZZZ999999999999")
	require.NoError(t, err)

	require.NoError(t, ed.ApplyColor(huge, ColorBackground, "red"))
	metas := ed.Metas()
	require.Len(t, metas, 2)
	assert.Equal(t, CellMeta{Row: 0, Col: 1, Meta: Meta{ClassName: "bgcolor-red"}}, metas[0])
	assert.Equal(t, CellMeta{Row: 1, Col: 1, Meta: Meta{ClassName: "bgcolor-red"}}, metas[1])

	outside, err := cell.ParseRange("C5:D9")
	require.NoError(t, err)
	assert.ErrorIs(t, ed.ApplyColor(outside, ColorText, "red"), ErrOutOfRange)
}

func TestApplyColor_CustomPalette(t *testing.T) {
	ed, _ := newTestEditor(t, WithPalette(Palette{"brand": "123456"}))
	assert.ErrorIs(t, ed.ApplyColor(cell.NewRange(cell.At(0, 0), cell.At(0, 0)), ColorBackground, "red"), ErrUnknownColor)
	require.NoError(t, ed.ApplyColor(cell.NewRange(cell.At(0, 0), cell.At(0, 0)), ColorBackground, "brand"))
	assert.Equal(t, "bgcolor-brand", ed.Meta(0, 0).ClassName)
}

func TestPaletteNames(t *testing.T) {
	assert.Equal(t, []string{"black", "blue", "brown", "gray", "green", "purple", "red", "tan", "white", "yellow"}, DefaultPalette.Names())
}

func TestTags(t *testing.T) {
	assert.Equal(t, "a color-red", withTag("a color-blue", "color-", "red"))
	assert.Equal(t, "bgcolor-red", withTag("", "bgcolor-", "red"))
	assert.Equal(t, "blue", tagValue("x bgcolor-blue color-red", "bgcolor-"))
	assert.Equal(t, "red", tagValue("x bgcolor-blue color-red", "color-"))
	assert.Equal(t, "", tagValue("x", "color-"))
}
