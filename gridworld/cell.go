// Package gridworld implements the flat, index-addressed grid the world
// simulation owns: cells, their edges, and the one motion test every mover
// in the system is required to go through.
package gridworld

import "fmt"

// Direction is one of the four cardinal directions a player can face or
// step in, or a cell edge can be crossed in.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// Directions lists all four directions in fixed N,E,S,W evaluation order.
var Directions = [4]Direction{North, East, South, West}

func (d Direction) String() string {
	switch d {
	case North:
		return "North"
	case East:
		return "East"
	case South:
		return "South"
	case West:
		return "West"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Opposite returns the reverse direction, used to keep wall/door placement
// symmetric across a shared edge.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	default:
		panic("gridworld: invalid direction")
	}
}

// EdgeType classifies how a cell's edge in some direction can be crossed.
type EdgeType int

const (
	// Passage is the default for any edge absent from a Cell's Edges map.
	Passage EdgeType = iota
	Wall
	Door
)

func (e EdgeType) String() string {
	switch e {
	case Passage:
		return "Passage"
	case Wall:
		return "Wall"
	case Door:
		return "Door"
	default:
		return fmt.Sprintf("EdgeType(%d)", int(e))
	}
}

// CellType is the terrain/flora state of a cell.
type CellType int

const (
	Soil CellType = iota
	Plant
	Flower
)

func (c CellType) String() string {
	switch c {
	case Soil:
		return "Soil"
	case Plant:
		return "Plant"
	case Flower:
		return "Flower"
	default:
		return fmt.Sprintf("CellType(%d)", int(c))
	}
}

// Coords is a zero-based grid position.
type Coords struct {
	X, Y int
}

func (c Coords) String() string {
	return fmt.Sprintf("(%d, %d)", c.X, c.Y)
}

// Cell is the atomic world tile at a fixed grid coordinate. Edges absent
// from the map are implicitly Passage; see AdjustInDirection.
type Cell struct {
	Index    int
	CellType CellType
	Edges    map[Direction]EdgeType
	Lifetime int
}

// newCell returns a fresh Soil cell with no edges recorded (all-Passage).
func newCell(index int) Cell {
	return Cell{
		Index:    index,
		CellType: Soil,
		Edges:    make(map[Direction]EdgeType, 4),
	}
}

// Edge returns the cell's edge type in the given direction, defaulting to
// Passage when unset.
func (c *Cell) Edge(d Direction) EdgeType {
	if et, ok := c.Edges[d]; ok {
		return et
	}
	return Passage
}

// changeType mutates the cell's type and resets its lifetime, mirroring the
// source's change_type: every type transition starts the clock over.
func (c *Cell) changeType(t CellType) {
	c.CellType = t
	c.Lifetime = 0
}

// advanceLifetime runs one tick of cell-lifetime progression. It
// reports whether the cell's type changed this tick (a Plant maturing into
// Flower); a lifetime increment alone reports false.
func (c *Cell) advanceLifetime(matureTicks int) (changed bool) {
	if c.CellType != Plant {
		return false
	}
	c.Lifetime++
	if c.Lifetime >= matureTicks {
		c.changeType(Flower)
		return true
	}
	return false
}

// interact applies the player-facing toggle: Soil becomes
// Plant, Flower becomes Soil, Plant is untouched (it only ripens on its
// own). Reports whether the cell changed.
func (c *Cell) interact() (changed bool) {
	switch c.CellType {
	case Soil:
		c.changeType(Plant)
		return true
	case Flower:
		c.changeType(Soil)
		return true
	default:
		return false
	}
}

// Interact is the exported form of Cell.interact, used by package player to
// apply an interact input against the cell a player is facing.
func Interact(c *Cell) bool {
	return c.interact()
}

// AdvanceLifetime is the exported form of Cell.advanceLifetime, used by
// package simulation to run cell-lifecycle progression each tick.
func AdvanceLifetime(c *Cell, matureTicks int) bool {
	return c.advanceLifetime(matureTicks)
}
