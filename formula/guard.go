package formula

import "github.com/javajack/xlgrid/cell"

// Guard tracks the cells whose formulas are being evaluated within one
// top-level evaluation. Entering a cell that is already in flight is a
// circular reference.
type Guard struct {
	inFlight map[cell.Coord]struct{}
	chain    []cell.Coord
}

func newGuard() *Guard {
	return &Guard{inFlight: make(map[cell.Coord]struct{})}
}

// Enter marks at as in flight, failing if it already is.
func (g *Guard) Enter(at cell.Coord) error {
	if _, busy := g.inFlight[at]; busy {
		err := newError(CircularReference, "%s refers back to itself", at)
		err.Chain = append(g.Chain(), at)
		return err
	}
	g.inFlight[at] = struct{}{}
	g.chain = append(g.chain, at)
	return nil
}

// Leave clears at from the in-flight set.
func (g *Guard) Leave(at cell.Coord) {
	delete(g.inFlight, at)
	for i := len(g.chain) - 1; i >= 0; i-- {
		if g.chain[i] == at {
			g.chain = append(g.chain[:i], g.chain[i+1:]...)
			break
		}
	}
}

// InFlight reports whether at is currently being evaluated.
func (g *Guard) InFlight(at cell.Coord) bool {
	_, ok := g.inFlight[at]
	return ok
}

// Chain returns a copy of the in-flight cells, outermost first.
func (g *Guard) Chain() []cell.Coord {
	return append([]cell.Coord(nil), g.chain...)
}
