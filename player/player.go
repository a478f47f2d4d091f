// Package player implements the per-player record and the held-key motion
// state machine: turning to face, moving on a fixed cadence, and
// interacting with the cell directly ahead.
package player

import (
	"encoding/json"
	"time"

	"github.com/prestonhale/battista/gridworld"
)

// State is a player's current motion state.
type State int

const (
	Idle State = iota
	Looking
	MovingNorth
	MovingEast
	MovingSouth
	MovingWest
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Looking:
		return "Looking"
	case MovingNorth:
		return "MovingNorth"
	case MovingEast:
		return "MovingEast"
	case MovingSouth:
		return "MovingSouth"
	case MovingWest:
		return "MovingWest"
	default:
		return "Idle"
	}
}

// movingState returns the Moving{Dir} state for a direction.
func movingState(d gridworld.Direction) State {
	switch d {
	case gridworld.North:
		return MovingNorth
	case gridworld.East:
		return MovingEast
	case gridworld.South:
		return MovingSouth
	case gridworld.West:
		return MovingWest
	default:
		return Idle
	}
}

// directionOf returns the direction a Moving{Dir} state corresponds to, and
// ok=false for Idle/Looking.
func directionOf(s State) (gridworld.Direction, bool) {
	switch s {
	case MovingNorth:
		return gridworld.North, true
	case MovingEast:
		return gridworld.East, true
	case MovingSouth:
		return gridworld.South, true
	case MovingWest:
		return gridworld.West, true
	default:
		return 0, false
	}
}

// Inputs is one frame's held-key vector. Every field represents held
// state, not an edge event.
type Inputs struct {
	North    bool `json:"north"`
	East     bool `json:"east"`
	South    bool `json:"south"`
	West     bool `json:"west"`
	Interact bool `json:"interact"`
}

// heldDirection returns the first held direction in N,E,S,W priority order,
// and ok=false if nothing is held.
func (in Inputs) heldDirection() (gridworld.Direction, bool) {
	switch {
	case in.North:
		return gridworld.North, true
	case in.East:
		return gridworld.East, true
	case in.South:
		return gridworld.South, true
	case in.West:
		return gridworld.West, true
	default:
		return 0, false
	}
}

// held reports whether d's key is currently held in in.
func (in Inputs) held(d gridworld.Direction) bool {
	switch d {
	case gridworld.North:
		return in.North
	case gridworld.East:
		return in.East
	case gridworld.South:
		return in.South
	case gridworld.West:
		return in.West
	default:
		return false
	}
}

// Player is a registered player's simulation record. Created once per
// user_id at world center, Idle, facing North; never deleted.
type Player struct {
	UserID     string
	Coords     gridworld.Coords
	Direction  gridworld.Direction
	State      State
	LastMoved  time.Time
	lastInputs Inputs
}

// New creates a freshly-registered player at c, facing North, Idle.
func New(userID string, c gridworld.Coords) *Player {
	return &Player{
		UserID:    userID,
		Coords:    c,
		Direction: gridworld.North,
		State:     Idle,
		LastMoved: time.Now(),
	}
}

// MarshalJSON renders a Player per player_update wire format.
func (p *Player) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		UserID    string           `json:"user_id"`
		Coords    gridworld.Coords `json:"coords"`
		Direction string           `json:"direction"`
	}{
		UserID:    p.UserID,
		Coords:    p.Coords,
		Direction: p.Direction.String(),
	})
}

// ApplyInputs runs one frame of the state machine against a freshly
// received input vector, remembering it so Advance can reapply it on
// subsequent ticks while no new input arrives.
// It reports the index of a cell whose type changed via interact, if any.
func (p *Player) ApplyInputs(grid *gridworld.Grid, in Inputs, now time.Time, moveInterval time.Duration) (changedCell int, ok bool) {
	p.lastInputs = in
	p.step(grid, in, now, moveInterval)
	return p.interact(grid, in)
}

// Advance re-runs the motion half of the state machine using the player's
// last known input vector, with no interact re-triggering — interact only
// fires on the frame it was received, not on carry-forward ticks.
func (p *Player) Advance(grid *gridworld.Grid, now time.Time, moveInterval time.Duration) {
	p.step(grid, p.lastInputs, now, moveInterval)
}

// step implements per-frame transition, evaluated in N,E,S,W order.
//
// Idle and Looking are both "not yet stepping" states here: the source
// only re-evaluates the move attempt from Idle, which leaves a player that
// turned to face (entering Looking) stuck there under continuous held
// input, never reaching Moving{Dir}. A held direction must still step once
// cadence elapses, so this generalizes the guard to "not already
// Moving{Dir}" rather than literally "== Idle".
func (p *Player) step(grid *gridworld.Grid, in Inputs, now time.Time, moveInterval time.Duration) {
	// 1. If the current Moving{Dir} no longer has its key held, drop to Idle.
	if d, moving := directionOf(p.State); moving && !in.held(d) {
		p.State = Idle
	}

	d, held := in.heldDirection()
	if !held {
		p.State = Idle
		return
	}

	notMoving := p.State == Idle || p.State == Looking

	switch {
	case notMoving && p.Direction != d:
		// Turn-to-face beat: no movement this frame.
		p.Direction = d
		p.State = Looking
	case notMoving && p.Direction == d && !now.Before(p.LastMoved.Add(moveInterval)):
		if next, moved := grid.AdjustInDirection(p.Coords, d); moved {
			p.Coords = next
		}
		p.LastMoved = now
		p.State = movingState(d)
	case notMoving:
		// Facing d already but cadence hasn't elapsed: keep looking.
		p.State = Looking
	}
}

// interact applies step 3: act on the cell directly in front, as a
// lookup-only traversal test (walls still block it; doors and absent edges
// do not).
func (p *Player) interact(grid *gridworld.Grid, in Inputs) (changedCell int, ok bool) {
	if !in.Interact {
		return 0, false
	}
	facing, reachable := grid.AdjustInDirection(p.Coords, p.Direction)
	if !reachable {
		return 0, false
	}
	index := grid.Index(facing)
	cell := &grid.Cells[index]
	if changed := cellInteract(cell); changed {
		return index, true
	}
	return 0, false
}

// cellInteract is a thin seam so player doesn't need gridworld's unexported
// Cell.interact; gridworld exposes it via gridworld.Interact for exactly this.
func cellInteract(cell *gridworld.Cell) bool {
	return gridworld.Interact(cell)
}
