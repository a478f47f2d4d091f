package gridworld

import "fmt"

// Grid owns the flat cell slice for one world. Its length never changes
// after construction; only cell contents mutate.
type Grid struct {
	Width  int
	Height int
	Cells  []Cell
}

// NewGrid allocates a width*height grid of fresh Soil cells with no edges
// (all-Passage). Generators (see mapgen) then carve walls into it.
func NewGrid(width, height int) *Grid {
	cells := make([]Cell, width*height)
	for i := range cells {
		cells[i] = newCell(i)
	}
	return &Grid{Width: width, Height: height, Cells: cells}
}

// Index returns the flat slice index for a grid coordinate:
// idx(x,y) = y*width + x.
func (g *Grid) Index(c Coords) int {
	return c.Y*g.Width + c.X
}

// Cell returns a pointer to the cell at c. Callers are expected to have
// validated c is in-bounds (the game loop is the only cell mutator and it
// only ever derives coords from AdjustInDirection or known-good player
// positions).
func (g *Grid) Cell(c Coords) *Cell {
	return &g.Cells[g.Index(c)]
}

// InBounds reports whether c falls inside the grid.
func (g *Grid) InBounds(c Coords) bool {
	return c.X >= 0 && c.X < g.Width && c.Y >= 0 && c.Y < g.Height
}

// Center returns the grid's center coordinate, where players spawn.
func (g *Grid) Center() Coords {
	return Coords{X: g.Width / 2, Y: g.Height / 2}
}

// AdjustInDirection is the single allowed motion test. It returns the
// neighbor coordinate reached by stepping from active in dir, or ok=false if
// the step would leave the grid or cross a Wall edge on the origin cell.
// Door and an absent entry both resolve to Passage (traversable); this is
// also the test used for interact's in-front lookup.
func (g *Grid) AdjustInDirection(active Coords, dir Direction) (Coords, bool) {
	edge := g.Cell(active).Edge(dir)
	switch dir {
	case North:
		if active.Y == 0 || edge == Wall {
			return Coords{}, false
		}
		return Coords{X: active.X, Y: active.Y - 1}, true
	case East:
		if active.X == g.Width-1 || edge == Wall {
			return Coords{}, false
		}
		return Coords{X: active.X + 1, Y: active.Y}, true
	case South:
		if active.Y == g.Height-1 || edge == Wall {
			return Coords{}, false
		}
		return Coords{X: active.X, Y: active.Y + 1}, true
	case West:
		if active.X == 0 || edge == Wall {
			return Coords{}, false
		}
		return Coords{X: active.X - 1, Y: active.Y}, true
	default:
		panic(fmt.Sprintf("gridworld: invalid direction %d", dir))
	}
}

// SetEdge records an edge type on a single cell's side, without touching
// the neighbor. SetWall/SetDoor (below) do bidirectional placement; callers
// of SetEdge set the mirror side themselves, as mapgen's clearWall does when
// reopening a carved edge.
func (g *Grid) SetEdge(index int, d Direction, et EdgeType) {
	g.Cells[index].Edges[d] = et
}

// SetWall places a Wall on both sides of the edge between a cell and its
// neighbor in direction d, keeping the bidirectional-wall invariant. If
// the neighbor is off-grid (a world-boundary wall), only the origin side is
// set.
func (g *Grid) SetWall(index int, d Direction) {
	g.setBidirectional(index, d, Wall)
}

// SetDoor is SetWall's counterpart for doors.
func (g *Grid) SetDoor(index int, d Direction) {
	g.setBidirectional(index, d, Door)
}

func (g *Grid) setBidirectional(index int, d Direction, et EdgeType) {
	g.Cells[index].Edges[d] = et
	c := g.coordsOf(index)
	neighbor, ok := g.neighborCoords(c, d)
	if !ok {
		return
	}
	g.Cells[g.Index(neighbor)].Edges[d.Opposite()] = et
}

func (g *Grid) coordsOf(index int) Coords {
	return Coords{X: index % g.Width, Y: index / g.Width}
}

// neighborCoords returns the coordinate adjacent to c in direction d,
// ignoring edge types (pure geometry, used only for wall-placement
// bookkeeping during generation — AdjustInDirection is the runtime test).
func (g *Grid) neighborCoords(c Coords, d Direction) (Coords, bool) {
	switch d {
	case North:
		if c.Y == 0 {
			return Coords{}, false
		}
		return Coords{X: c.X, Y: c.Y - 1}, true
	case East:
		if c.X == g.Width-1 {
			return Coords{}, false
		}
		return Coords{X: c.X + 1, Y: c.Y}, true
	case South:
		if c.Y == g.Height-1 {
			return Coords{}, false
		}
		return Coords{X: c.X, Y: c.Y + 1}, true
	case West:
		if c.X == 0 {
			return Coords{}, false
		}
		return Coords{X: c.X - 1, Y: c.Y}, true
	default:
		panic(fmt.Sprintf("gridworld: invalid direction %d", d))
	}
}
