package telemetry

import (
	"testing"
	"time"

	"github.com/prestonhale/battista/registry"
)

// fakeTickTimer is a stand-in for *simulation.Engine in tests that don't
// need a running game loop.
type fakeTickTimer struct{ d time.Duration }

func (f fakeTickTimer) LastTickDuration() time.Duration { return f.d }

func TestNewSweeperRejectsBadSchedule(t *testing.T) {
	reg := registry.New()
	if _, err := NewSweeper(reg, fakeTickTimer{}, "not a cron expression", nil); err == nil {
		t.Error("expected an error for a malformed schedule")
	}
}

func TestSweeperLogsOnSchedule(t *testing.T) {
	reg := registry.New()
	reg.Insert("conn-1", "7")

	s, err := NewSweeper(reg, fakeTickTimer{d: 33 * time.Millisecond}, "*/1 * * * * *", nil)
	if err != nil {
		t.Fatalf("NewSweeper: %v", err)
	}
	s.Start()
	defer s.Stop()

	time.Sleep(1200 * time.Millisecond)
	// logStats has no externally observable state beyond the log line
	// itself; this test only confirms the schedule fires without panicking
	// by letting it run past one tick.
}
