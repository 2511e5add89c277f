package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajack/xlgrid/cell"
)

func TestGuard(t *testing.T) {
	g := newGuard()
	a, b := cell.At(0, 0), cell.At(0, 1)

	require.NoError(t, g.Enter(a))
	require.NoError(t, g.Enter(b))
	assert.True(t, g.InFlight(a))
	assert.Equal(t, []cell.Coord{a, b}, g.Chain())

	err := g.Enter(a)
	require.ErrorIs(t, err, ErrCircularReference)
	assert.Equal(t, []cell.Coord{a, b, a}, err.(*Error).Chain)

	g.Leave(b)
	g.Leave(a)
	assert.False(t, g.InFlight(a))
	assert.Empty(t, g.Chain())

	// a finished cell may be entered again
	require.NoError(t, g.Enter(a))
}

func TestGuard_ChainIsCopy(t *testing.T) {
	g := newGuard()
	require.NoError(t, g.Enter(cell.At(2, 2)))
	chain := g.Chain()
	chain[0] = cell.At(9, 9)
	assert.Equal(t, []cell.Coord{cell.At(2, 2)}, g.Chain())
}
