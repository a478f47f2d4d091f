package simulation

import (
	"encoding/json"

	"github.com/maypok86/otter"
	"github.com/prestonhale/battista/gridworld"
)

// snapshotKey is the sole key the cache ever holds: a full-grid marshal is
// not addressed by anything finer than "the grid as of the last cell
// mutation", so a single-entry cache is sufficient. Grounded in the pack's
// otter usage (Resinat-Resin's LatencyTable), generalized from an
// LRU-over-many-keys table to a cheap invalidate-on-write cache of one.
const snapshotKey = "explored_cells"

// snapshotCache memoizes the marshaled full-cell snapshot ("explored_cells")
// sent to every new registrant, so a burst of registrations during a
// single tick doesn't re-marshal up to 3600 cells once per registrant.
type snapshotCache struct {
	cache otter.Cache[string, []byte]
}

func newSnapshotCache() *snapshotCache {
	cache, err := otter.MustBuilder[string, []byte](1).
		Cost(func(_ string, v []byte) uint32 { return uint32(len(v)) }).
		Build()
	if err != nil {
		panic("simulation: failed to create snapshot cache: " + err.Error())
	}
	return &snapshotCache{cache: cache}
}

// invalidate drops the memoized marshal; called whenever advanceCells or an
// interact mutates any cell's type this tick.
func (s *snapshotCache) invalidate() {
	s.cache.Delete(snapshotKey)
}

// marshal returns the marshaled cell slice, computing and caching it on a
// miss.
func (s *snapshotCache) marshal(cells []gridworld.Cell) ([]byte, error) {
	if cached, ok := s.cache.Get(snapshotKey); ok {
		return cached, nil
	}
	payload, err := json.Marshal(cells)
	if err != nil {
		return nil, err
	}
	s.cache.Set(snapshotKey, payload)
	return payload, nil
}
