package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajack/xlgrid/cell"
)

func TestParseTarget(t *testing.T) {
	tgt, err := ParseTarget("B2")
	require.NoError(t, err)
	assert.Equal(t, Target{Cell: cell.At(1, 1)}, tgt)

	tgt, err = ParseTarget("c")
	require.NoError(t, err)
	assert.True(t, tgt.Column)
	assert.Equal(t, 2, tgt.Cell.Col)

	_, err = ParseTarget("1")
	assert.Error(t, err)
	_, err = ParseTarget("")
	assert.Error(t, err)
}

func newTestResolver(g grid) *Resolver {
	return &Resolver{
		src:        g,
		aliases:    map[string]Target{"head": {Cell: cell.At(0, 0)}, "col": {Cell: cell.At(0, 1), Column: true}},
		propAlias:  map[string]string{"Weight": "kg"},
		valueField: DefaultValueField,
	}
}

func TestResolver_Resolve(t *testing.T) {
	g := grid{
		{"7", "=A1*2", `{"value":3,"kg":12}`},
		{"text", "9"},
	}
	r := newTestResolver(g)

	res, err := r.Resolve(&Ref{Cell: cell.At(0, 0)}, cell.At(5, 5))
	require.NoError(t, err)
	assert.Equal(t, Text("7"), res.Value)
	assert.False(t, res.IsFormula())

	res, err = r.Resolve(&Ref{Cell: cell.At(0, 1)}, cell.Coord{})
	require.NoError(t, err)
	assert.True(t, res.IsFormula())
	assert.Equal(t, "A1*2", res.Formula)

	res, err = r.Resolve(&Ref{Cell: cell.At(1, 0)}, cell.Coord{})
	require.NoError(t, err)
	assert.Equal(t, Text("text"), res.Value)

	res, err = r.Resolve(&Ref{Cell: cell.At(0, 2), Prop: "Weight"}, cell.Coord{})
	require.NoError(t, err)
	assert.Equal(t, Number(12), res.Value)

	res, err = r.Resolve(&Ref{Name: "head"}, cell.Coord{})
	require.NoError(t, err)
	assert.Equal(t, cell.At(0, 0), res.At)

	res, err = r.Resolve(&Ref{Name: "col"}, cell.At(1, 4))
	require.NoError(t, err)
	assert.Equal(t, cell.At(1, 1), res.At)
	assert.Equal(t, Text("9"), res.Value)

	_, err = r.Resolve(&Ref{Name: "missing"}, cell.Coord{})
	assert.ErrorIs(t, err, ErrUnknownAlias)

	_, err = r.Resolve(&Ref{Cell: cell.At(4, 0)}, cell.Coord{})
	assert.ErrorIs(t, err, ErrCellOutOfRange)

	_, err = r.Resolve(&Ref{Cell: cell.At(0, 0), Prop: "x"}, cell.Coord{})
	assert.ErrorIs(t, err, ErrUnresolvableReference)
}

func TestResolver_CellIsLenient(t *testing.T) {
	g := grid{{`{"name":"no value"}`, `{"value":[1,2]}`}}
	r := newTestResolver(g)

	assert.Equal(t, Resolved{At: cell.At(0, 0)}, r.Cell(cell.At(0, 0)))
	assert.Equal(t, Resolved{At: cell.At(0, 1)}, r.Cell(cell.At(0, 1)))
	assert.Equal(t, Resolved{At: cell.At(9, 9)}, r.Cell(cell.At(9, 9)))
}

func TestResolver_NonScalarProperty(t *testing.T) {
	g := grid{{`{"value":{"nested":true}}`}}
	_, err := newTestResolver(g).Resolve(&Ref{Cell: cell.At(0, 0)}, cell.Coord{})
	assert.ErrorIs(t, err, ErrUnresolvableReference)
}

func TestResolver_TextKeepsItsForm(t *testing.T) {
	g := grid{{"007", "1e3", " 12 "}}
	r := newTestResolver(g)
	for col, want := range []string{"007", "1e3", " 12 "} {
		res, err := r.Resolve(&Ref{Cell: cell.At(0, col)}, cell.Coord{})
		require.NoError(t, err)
		assert.Equal(t, Text(want), res.Value)
	}
}

func TestResolver_BareEqualsIsFormula(t *testing.T) {
	g := grid{{"="}}
	res, err := newTestResolver(g).Resolve(&Ref{Cell: cell.At(0, 0)}, cell.Coord{})
	require.NoError(t, err)
	assert.True(t, res.IsFormula())
	assert.Empty(t, res.Formula)
}
