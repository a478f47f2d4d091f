// Package telemetry runs a periodic stats-logging job on a cron schedule.
// Players are never evicted, so the sweeper here logs connection/tick
// stats on a schedule instead of reaping anything.
package telemetry

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/prestonhale/battista/registry"
)

// TickTimer reports the wall-clock duration of the simulation engine's most
// recently completed tick. *simulation.Engine satisfies this.
type TickTimer interface {
	LastTickDuration() time.Duration
}

// Sweeper logs connected-client counts and tick duration on its cron schedule.
type Sweeper struct {
	cron        *cron.Cron
	cronEntryID cron.EntryID
	reg         *registry.Registry
	engine      TickTimer
	log         *logrus.Entry
}

// NewSweeper builds a Sweeper over reg and engine. schedule is a standard
// 6-field cron expression (seconds first), e.g. "*/30 * * * * *".
func NewSweeper(reg *registry.Registry, engine TickTimer, schedule string, log *logrus.Entry) (*Sweeper, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Sweeper{
		cron:   cron.New(cron.WithSeconds()),
		reg:    reg,
		engine: engine,
		log:    log,
	}
	entryID, err := s.cron.AddFunc(schedule, s.logStats)
	if err != nil {
		return nil, err
	}
	s.cronEntryID = entryID
	return s, nil
}

// Start begins running the scheduled job in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop waits for any in-flight job to finish before returning.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) logStats() {
	s.log.WithFields(logrus.Fields{
		"connected_clients": s.reg.Len(),
		"last_tick":         s.engine.LastTickDuration(),
	}).Info("telemetry: periodic stats")
}
