package wsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prestonhale/battista/gridworld/mapgen"
	"github.com/prestonhale/battista/registry"
	"github.com/prestonhale/battista/simulation"
)

func testServer(t *testing.T) (*Server, func()) {
	t.Helper()
	grid := mapgen.GeneratePlot(60, 60, 20)
	reg := registry.New()
	cfg := simulation.DefaultConfig()
	cfg.TickInterval = time.Millisecond
	engine := simulation.New(grid, reg, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go engine.Run(ctx)

	s := NewServer("127.0.0.1:0", engine, reg, nil, nil)
	return s, cancel
}

func TestHealthReturnsOK(t *testing.T) {
	s, cancel := testServer(t)
	defer cancel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

// TestRegisterLandsAtCenterWithFullSnapshot checks that a fresh
// registration through the HTTP surface lands at the world center with a
// full 3600-cell snapshot.
func TestRegisterLandsAtCenterWithFullSnapshot(t *testing.T) {
	s, cancel := testServer(t)
	defer cancel()

	body, _ := json.Marshal(registerRequest{UserID: 7})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(body))
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		URL           string          `json:"url"`
		PlayerPos     struct{ X, Y int } `json:"player_position"`
		ExploredCells []json.RawMessage `json:"explored_cells"`
		Width         int             `json:"width"`
		Height        int             `json:"height"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response did not decode: %v", err)
	}
	if resp.PlayerPos.X != 30 || resp.PlayerPos.Y != 30 {
		t.Errorf("player_position = %+v, want (30,30)", resp.PlayerPos)
	}
	if resp.Width != 60 || resp.Height != 60 {
		t.Errorf("dims = %dx%d, want 60x60", resp.Width, resp.Height)
	}
	if len(resp.ExploredCells) != 3600 {
		t.Errorf("len(explored_cells) = %d, want 3600", len(resp.ExploredCells))
	}
}

func TestUnregisterRemovesClient(t *testing.T) {
	s, cancel := testServer(t)
	defer cancel()

	body, _ := json.Marshal(registerRequest{UserID: 7})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(body))
	s.Handler().ServeHTTP(rec, req)

	var resp registerResponseBody
	json.Unmarshal(rec.Body.Bytes(), &resp)

	// Extract the connection-id from the returned ws URL's final path segment.
	connID := resp.URL[len(resp.URL)-36:]

	delRec := httptest.NewRecorder()
	delReq := httptest.NewRequest(http.MethodDelete, "/register/"+connID, nil)
	s.Handler().ServeHTTP(delRec, delReq)

	if delRec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", delRec.Code)
	}
	if _, ok := s.registry.Get(connID); ok {
		t.Error("expected client to be removed from the registry")
	}
}

func TestUnknownWebSocketUpgradeReturns404(t *testing.T) {
	s, cancel := testServer(t)
	defer cancel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ws/does-not-exist", nil)
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestPublishReachesSubscribedClient(t *testing.T) {
	s, cancel := testServer(t)
	defer cancel()

	client := s.registry.Insert("conn-1", "7")
	outbound := make(chan []byte, 1)
	s.registry.Bind("conn-1", outbound)
	_ = client

	body, _ := json.Marshal(publishRequest{Topic: "cats", Message: "hi"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/publish", bytes.NewReader(body))
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	select {
	case got := <-outbound:
		if string(got) != "hi" {
			t.Errorf("got %q, want hi", got)
		}
	default:
		t.Error("expected the publish to reach the subscribed client")
	}
}
