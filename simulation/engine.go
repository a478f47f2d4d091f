// Package simulation is the single-owner world simulation loop: the
// sole writer of the gridworld.Grid and the per-player records, reached only
// through the bounded Request channel.
package simulation

import (
	"context"
	"encoding/json"
	"sort"
	"sync/atomic"
	"time"

	channerics "github.com/niceyeti/channerics/channels"
	"github.com/sirupsen/logrus"

	"github.com/prestonhale/battista/gridworld"
	"github.com/prestonhale/battista/player"
	"github.com/prestonhale/battista/registry"
)

// Config holds the simulation's tunable parameters, loadable from
// configuration rather than fixed as constants.
type Config struct {
	TickInterval     time.Duration
	MoveInterval     time.Duration
	PlantMatureTicks int
	RequestQueueSize int
}

// DefaultConfig returns literal constants.
func DefaultConfig() Config {
	return Config{
		TickInterval:     33 * time.Millisecond,
		MoveInterval:     100 * time.Millisecond,
		PlantMatureTicks: 50,
		RequestQueueSize: 32,
	}
}

// Engine owns the grid and every Player record. Nothing outside Run's
// goroutine ever touches grid or players directly; everything else crosses
// through requests.
type Engine struct {
	cfg      Config
	grid     *gridworld.Grid
	registry *registry.Registry
	requests chan Request
	snapshot *snapshotCache
	log      *logrus.Entry

	players map[string]*player.Player

	// lastTickNanos holds the most recently completed tick's wall-clock
	// duration, in nanoseconds, for telemetry's tick-rate gauge. Written
	// only by tick() (the game loop's own goroutine); read from any
	// goroutine via LastTickDuration.
	lastTickNanos atomic.Int64
}

// New builds an Engine over grid, fanning broadcasts out through reg.
func New(grid *gridworld.Grid, reg *registry.Registry, cfg Config, log *logrus.Entry) *Engine {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Engine{
		cfg:      cfg,
		grid:     grid,
		registry: reg,
		requests: make(chan Request, cfg.RequestQueueSize),
		snapshot: newSnapshotCache(),
		log:      log,
		players:  make(map[string]*player.Player),
	}
}

// Requests returns the send side of the bounded request channel;
// network tasks send on it and may block (backpressure) if it's full.
func (e *Engine) Requests() chan<- Request {
	return e.requests
}

// Width and Height expose the grid's fixed dimensions for the /register
// response.
func (e *Engine) Width() int  { return e.grid.Width }
func (e *Engine) Height() int { return e.grid.Height }

// LastTickDuration reports how long the most recently completed tick took,
// the gauge package telemetry logs on its schedule.
func (e *Engine) LastTickDuration() time.Duration {
	return time.Duration(e.lastTickNanos.Load())
}

// Run is the game loop. It paces itself to cfg.TickInterval via
// channerics.NewTicker and returns when ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	ticks := channerics.NewTicker(ctx.Done(), e.cfg.TickInterval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			e.tick()
		}
	}
}

// tick runs exactly one iteration of steps 1-8 (step 8's pacing is
// handled by Run's ticker, not here).
func (e *Engine) tick() {
	now := time.Now()
	defer func() {
		e.lastTickNanos.Store(time.Since(now).Nanoseconds())
	}()

	pendingInputs := e.drainRequests()

	cellDiff := e.advanceCells()

	touchedThisTick := make(map[string]bool, len(pendingInputs))
	for userID, in := range pendingInputs {
		p, ok := e.players[userID]
		if !ok {
			e.log.WithField("user_id", userID).Warn("simulation: input for unregistered player")
			continue
		}
		if idx, changed := p.ApplyInputs(e.grid, in, now, e.cfg.MoveInterval); changed {
			cellDiff = append(cellDiff, idx)
		}
		touchedThisTick[userID] = true
	}

	for userID, p := range e.players {
		if touchedThisTick[userID] {
			continue
		}
		p.Advance(e.grid, now, e.cfg.MoveInterval)
	}

	playerDiff := e.allPlayerIDs()

	if len(cellDiff) > 0 {
		e.snapshot.invalidate()
	}
	cellDiff = dedupInts(cellDiff)

	e.broadcast(playerDiff, cellDiff)
}

// drainRequests does a non-blocking drain of the request channel until
// empty. RegisterPlayer requests are answered immediately, always, even for
// an already-registered user_id; PlayerInput requests are buffered, with
// the last one per user_id winning.
func (e *Engine) drainRequests() map[string]player.Inputs {
	pending := make(map[string]player.Inputs)
	for {
		select {
		case req := <-e.requests:
			switch req.Kind {
			case RegisterPlayerRequest:
				e.handleRegister(req)
			case PlayerInputRequest:
				pending[req.UserID] = req.Inputs
			}
		default:
			return pending
		}
	}
}

func (e *Engine) handleRegister(req Request) {
	p, ok := e.players[req.UserID]
	if !ok {
		p = player.New(req.UserID, e.grid.Center())
		e.players[req.UserID] = p
	}

	payload, err := e.snapshot.marshal(e.grid.Cells)
	if err != nil {
		e.log.WithError(err).Error("simulation: failed to marshal cell snapshot")
		payload = nil
	}

	req.Reply <- RegisterResponse{
		Coords:        p.Coords,
		ExploredCells: payload,
		Width:         e.grid.Width,
		Height:        e.grid.Height,
	}
}

// advanceCells ages every Plant cell one tick, maturing
// into Flower at PlantMatureTicks. Returns the indices whose type changed;
// cells whose lifetime merely advanced are not included.
func (e *Engine) advanceCells() []int {
	var changed []int
	for i := range e.grid.Cells {
		if gridworld.AdvanceLifetime(&e.grid.Cells[i], e.cfg.PlantMatureTicks) {
			changed = append(changed, i)
		}
	}
	return changed
}

// allPlayerIDs returns every registered user_id. Every player's state
// machine is re-evaluated each tick regardless of fresh input, so the
// minimal player_diff is simply all of them.
func (e *Engine) allPlayerIDs() []string {
	ids := make([]string, 0, len(e.players))
	for id := range e.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// broadcast implements step 7: one player_update and/or one cell_update
// text frame, at most, per tick per client.
func (e *Engine) broadcast(playerIDs []string, cellIdx []int) {
	if len(playerIDs) > 0 {
		players := make([]*player.Player, 0, len(playerIDs))
		for _, id := range playerIDs {
			players = append(players, e.players[id])
		}
		payload, err := json.Marshal(struct {
			Type    string           `json:"type"`
			Players []*player.Player `json:"players"`
		}{Type: "player_update", Players: players})
		if err != nil {
			e.log.WithError(err).Error("simulation: failed to marshal player_update")
		} else if failed := e.registry.Broadcast(payload); len(failed) > 0 {
			e.log.WithField("count", len(failed)).Debug("simulation: player_update send failed for some clients")
		}
	}

	if len(cellIdx) > 0 {
		cells := make([]gridworld.Cell, 0, len(cellIdx))
		for _, idx := range cellIdx {
			cells = append(cells, e.grid.Cells[idx])
		}
		payload, err := json.Marshal(struct {
			Type  string           `json:"type"`
			Cells []gridworld.Cell `json:"cells"`
		}{Type: "cell_update", Cells: cells})
		if err != nil {
			e.log.WithError(err).Error("simulation: failed to marshal cell_update")
		} else if failed := e.registry.Broadcast(payload); len(failed) > 0 {
			e.log.WithField("count", len(failed)).Debug("simulation: cell_update send failed for some clients")
		}
	}
}

// dedupInts sorts and dedups a slice of cell indices, matching the source's
// changed_cells.sort_unstable/dedup exactly rather than routing
// through a set.
func dedupInts(xs []int) []int {
	if len(xs) < 2 {
		return xs
	}
	sort.Ints(xs)
	out := xs[:1]
	for _, x := range xs[1:] {
		if x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}
