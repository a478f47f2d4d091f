// Package mapgen builds the initial gridworld.Grid a world starts from.
//
// Two strategies exist: GeneratePlot is the production generator used by
// the default server; GenerateMaze is an older depth-first backtracker,
// kept pluggable but not wired in by default. Generator is the
// func(width, height) seeding signature; neither generator has it directly,
// since GeneratePlot also takes the plot side and GenerateMaze an RNG.
package mapgen

import (
	"math/rand"

	"github.com/prestonhale/battista/gridworld"
)

// Default world dimensions.
const (
	PlotSide = 20
	MapSide  = 3 * PlotSide
	Width    = MapSide
	Height   = MapSide
)

// Generator seeds a fresh grid of the given dimensions.
type Generator func(width, height int) *gridworld.Grid

// GeneratePlot lays out a width*height grid as a plotSide-square partition:
// every plot-boundary edge is a Wall, every interior edge stays Passage, and
// no doors are placed. With the default dimensions this yields a 3x3 grid
// of 9 open rooms.
//
// plotSide must evenly divide both width and height; the default server
// always calls this with PlotSide/MapSide so that holds.
func GeneratePlot(width, height, plotSide int) *gridworld.Grid {
	grid := gridworld.NewGrid(width, height)
	for index := range grid.Cells {
		y := index / width
		x := index - width*y
		if y%plotSide == 0 { // northern edge of a plot
			grid.SetWall(index, gridworld.North)
		}
		if x%plotSide == plotSide-1 { // eastern edge
			grid.SetWall(index, gridworld.East)
		}
		if y%plotSide == plotSide-1 { // southern edge
			grid.SetWall(index, gridworld.South)
		}
		if x%plotSide == 0 { // western edge
			grid.SetWall(index, gridworld.West)
		}
	}
	return grid
}

// GenerateDefault builds the standard 60x60, 20-side-plot world.
func GenerateDefault() *gridworld.Grid {
	return GeneratePlot(Width, Height, PlotSide)
}

// GenerateMaze is the documented alternative: a depth-first
// backtracker that carves a spanning-tree maze of passages through an
// initially all-walled grid, occasionally leaving a Door instead of a
// Passage behind it. It preserves the same edge-symmetry and bounds
// invariants as GeneratePlot; it is not used by the default server but is
// exported so callers can opt into it as an alternate world-seeding
// strategy.
func GenerateMaze(width, height int, rng *rand.Rand) *gridworld.Grid {
	grid := gridworld.NewGrid(width, height)

	// Start fully walled off in every direction; carving below opens a
	// spanning tree of passages/doors between cells.
	for index := range grid.Cells {
		for _, d := range gridworld.Directions {
			grid.SetWall(index, d)
		}
	}

	visited := make([]bool, len(grid.Cells))
	var stack []int
	start := 0
	visited[start] = true
	stack = append(stack, start)

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		next, dir, ok := unvisitedNeighbor(grid, current, visited, rng)
		if !ok {
			stack = stack[:len(stack)-1]
			continue
		}

		edgeType := gridworld.Passage
		if rng.Intn(8) == 0 {
			edgeType = gridworld.Door
		}
		if edgeType == gridworld.Door {
			grid.SetDoor(current, dir)
		} else {
			clearWall(grid, current, dir)
		}

		visited[next] = true
		stack = append(stack, next)
	}

	return grid
}

// clearWall resets a carved edge (and its mirror) back to Passage by
// recording an explicit Passage entry — equivalent to "no wall" but keeps
// the edge map symmetric and explicit for debugging.
func clearWall(grid *gridworld.Grid, index int, d gridworld.Direction) {
	grid.SetEdge(index, d, gridworld.Passage)
	if neighbor, ok := neighborIndex(grid, index, d); ok {
		grid.SetEdge(neighbor, d.Opposite(), gridworld.Passage)
	}
}

// unvisitedNeighbor returns a random not-yet-visited neighbor of index and
// the direction to reach it, shuffling candidate order so the maze isn't
// biased toward any one direction.
func unvisitedNeighbor(grid *gridworld.Grid, index int, visited []bool, rng *rand.Rand) (int, gridworld.Direction, bool) {
	order := rng.Perm(4)
	for _, i := range order {
		d := gridworld.Directions[i]
		neighbor, ok := neighborIndex(grid, index, d)
		if ok && !visited[neighbor] {
			return neighbor, d, true
		}
	}
	return 0, 0, false
}

func neighborIndex(grid *gridworld.Grid, index int, d gridworld.Direction) (int, bool) {
	x := index % grid.Width
	y := index / grid.Width
	switch d {
	case gridworld.North:
		if y == 0 {
			return 0, false
		}
		return index - grid.Width, true
	case gridworld.South:
		if y == grid.Height-1 {
			return 0, false
		}
		return index + grid.Width, true
	case gridworld.East:
		if x == grid.Width-1 {
			return 0, false
		}
		return index + 1, true
	case gridworld.West:
		if x == 0 {
			return 0, false
		}
		return index - 1, true
	default:
		return 0, false
	}
}
