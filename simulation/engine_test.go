package simulation

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/prestonhale/battista/gridworld"
	"github.com/prestonhale/battista/gridworld/mapgen"
	"github.com/prestonhale/battista/player"
	"github.com/prestonhale/battista/registry"
)

func testEngine() (*Engine, *registry.Registry) {
	grid := mapgen.GeneratePlot(60, 60, 20)
	reg := registry.New()
	cfg := DefaultConfig()
	cfg.TickInterval = time.Millisecond
	return New(grid, reg, cfg, nil), reg
}

// TestRegisterPlayerSpawnsAtCenterWithFullSnapshot checks that a fresh
// server's first registration lands at the world center with a full
// 3600-cell snapshot.
func TestRegisterPlayerSpawnsAtCenterWithFullSnapshot(t *testing.T) {
	e, _ := testEngine()

	req, reply := NewRegisterPlayer("7")
	e.requests <- req
	e.drainRequests()

	select {
	case resp := <-reply:
		if resp.Coords.X != 30 || resp.Coords.Y != 30 {
			t.Errorf("coords = %v, want (30,30)", resp.Coords)
		}
		if resp.Width != 60 || resp.Height != 60 {
			t.Errorf("dims = %dx%d, want 60x60", resp.Width, resp.Height)
		}
		var cells []json.RawMessage
		if err := json.Unmarshal(resp.ExploredCells, &cells); err != nil {
			t.Fatalf("explored_cells did not unmarshal: %v", err)
		}
		if len(cells) != 3600 {
			t.Errorf("len(explored_cells) = %d, want 3600", len(cells))
		}
	default:
		t.Fatal("expected a reply after draining the register request")
	}
}

// TestReregistrationReturnsCurrentCoords checks that a second RegisterPlayer
// for an already-known user_id returns wherever that player currently
// stands, not the world center again.
func TestReregistrationReturnsCurrentCoords(t *testing.T) {
	e, _ := testEngine()
	e.players["7"] = player.New("7", e.grid.Center())
	e.players["7"].Coords.X = 45

	req, reply := NewRegisterPlayer("7")
	e.requests <- req
	e.drainRequests()

	resp := <-reply
	if resp.Coords.X != 45 {
		t.Errorf("coords.X = %d, want 45 (current position, not re-centered)", resp.Coords.X)
	}
}

func TestAdvanceCellsMaturesPlants(t *testing.T) {
	e, _ := testEngine()
	e.cfg.PlantMatureTicks = 2
	e.grid.Cells[0].CellType = gridworld.Plant

	changed := e.advanceCells()
	if len(changed) != 0 {
		t.Fatalf("should not mature on tick 1, got changed=%v", changed)
	}
	changed = e.advanceCells()
	if len(changed) != 1 || changed[0] != 0 {
		t.Fatalf("expected cell 0 to mature on tick 2, got %v", changed)
	}
}

func TestDedupIntsSortsAndDedups(t *testing.T) {
	got := dedupInts([]int{5, 1, 1, 3, 5, 2})
	want := []int{1, 2, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

// TestEngineRequestPipeline exercises the Engine's request-draining
// pipeline end-to-end the way fastview_test.go exercises NewViewBuilder: a
// registration assembled from channels, observed through its reply.
func TestEngineRequestPipeline(t *testing.T) {
	Convey("A running Engine", t, func() {
		e, reg := testEngine()
		c := reg.Insert("conn-1", "7")
		outbound := make(chan []byte, 4)
		reg.Bind("conn-1", outbound)

		ctx, cancel := context.WithCancel(context.Background())
		go e.Run(ctx)
		defer cancel()

		Convey("registering a new player replies with its spawn coords", func() {
			req, reply := NewRegisterPlayer(c.UserID)
			e.Requests() <- req

			select {
			case resp := <-reply:
				So(resp.Coords.X, ShouldEqual, 30)
				So(resp.Coords.Y, ShouldEqual, 30)
			case <-time.After(time.Second):
				t.Fatal("timed out waiting for register reply")
			}
		})

		Convey("a player input eventually produces a player_update broadcast", func() {
			req, reply := NewRegisterPlayer(c.UserID)
			e.Requests() <- req
			<-reply

			e.Requests() <- NewPlayerInput(c.UserID, player.Inputs{North: true})

			select {
			case payload := <-outbound:
				var msg struct {
					Type string `json:"type"`
				}
				So(json.Unmarshal(payload, &msg), ShouldBeNil)
				So(msg.Type, ShouldEqual, "player_update")
			case <-time.After(time.Second):
				t.Fatal("timed out waiting for player_update broadcast")
			}
		})
	})
}
