package tracker

import (
	"sync"
	"time"

	"adsbcore/internal/decode"

	"github.com/sirupsen/logrus"
)

// defaultMaxAircraft bounds tracker memory when the caller doesn't specify
// one explicitly (spec §6 ADSBCORE_MAX_AIRCRAFT default).
const defaultMaxAircraft = 256

// Tracker owns the concurrently-accessed map of per-ICAO aircraft state.
type Tracker struct {
	mu                  sync.RWMutex
	aircraft            map[uint32]*State
	maxAircraft         int
	aircraftTimeout     time.Duration
	positionLogInterval time.Duration
	lastCleanup         time.Time
	logger              *logrus.Logger
}

// New constructs a Tracker bounded to maxAircraft concurrent entries; a
// non-positive value falls back to defaultMaxAircraft. aircraftTimeoutS is
// how long an aircraft may go unseen before Snapshot/Summarize/cleanup treat
// it as stale, and positionLogIntervalS is the minimum gap between position
// log lines for the same aircraft (spec §4.13); non-positive values fall
// back to defaultAircraftTimeout and defaultPositionLogInterval.
func New(maxAircraft, aircraftTimeoutS, positionLogIntervalS int, logger *logrus.Logger) *Tracker {
	if maxAircraft <= 0 {
		maxAircraft = defaultMaxAircraft
	}
	timeout := defaultAircraftTimeout
	if aircraftTimeoutS > 0 {
		timeout = time.Duration(aircraftTimeoutS) * time.Second
	}
	logInterval := defaultPositionLogInterval
	if positionLogIntervalS > 0 {
		logInterval = time.Duration(positionLogIntervalS) * time.Second
	}
	return &Tracker{
		aircraft:            make(map[uint32]*State, maxAircraft),
		maxAircraft:         maxAircraft,
		aircraftTimeout:     timeout,
		positionLogInterval: logInterval,
		lastCleanup:         time.Now(),
		logger:              logger,
	}
}

// Update folds a decoded observation into the tracker, creating new
// aircraft state on first contact and evicting stale entries when at
// capacity (spec §4.8). It returns the updated state and whether this
// update produced a position worth logging.
func (t *Tracker) Update(obs decode.Observation, now time.Time) (*State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, exists := t.aircraft[obs.ICAO]
	if !exists {
		if len(t.aircraft) >= t.maxAircraft {
			t.cleanupStaleLocked(now)
		}
		state = newState(obs.ICAO, now, t.aircraftTimeout, t.positionLogInterval)
		t.aircraft[obs.ICAO] = state
		if t.logger != nil {
			t.logger.WithField("icao", obs.ICAO).Debug("new aircraft tracked")
		}
	}

	loggable := state.Update(obs, now)

	if now.Sub(t.lastCleanup) > cleanupInterval {
		t.cleanupStaleLocked(now)
		t.lastCleanup = now
	}

	return state, loggable
}

// Get returns the current state for icao, if tracked.
func (t *Tracker) Get(icao uint32) (*State, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.aircraft[icao]
	return s, ok
}

// Snapshot returns a copy of every non-stale tracked aircraft's state.
func (t *Tracker) Snapshot(now time.Time) []State {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]State, 0, len(t.aircraft))
	for _, s := range t.aircraft {
		if !s.IsStale(now) {
			out = append(out, *s)
		}
	}
	return out
}

// Count returns the number of tracked aircraft, stale or not.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.aircraft)
}

// Summary aggregates tracker-wide counters for status reporting (spec §4.9).
type Summary struct {
	TotalAircraft  int
	WithPosition   int
	WithCallsign   int
	TotalMessages  uint64
}

// Summarize computes a point-in-time Summary over non-stale aircraft.
func (t *Tracker) Summarize(now time.Time) Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var s Summary
	for _, a := range t.aircraft {
		if a.IsStale(now) {
			continue
		}
		s.TotalAircraft++
		if a.HasPosition {
			s.WithPosition++
		}
		if a.HasCallsign {
			s.WithCallsign++
		}
		s.TotalMessages += a.Messages
	}
	return s
}

// cleanupStaleLocked removes every aircraft not seen within aircraftTimeout.
// Caller must hold t.mu.
func (t *Tracker) cleanupStaleLocked(now time.Time) {
	removed := 0
	for icao, s := range t.aircraft {
		if s.IsStale(now) {
			delete(t.aircraft, icao)
			removed++
		}
	}
	if removed > 0 && t.logger != nil {
		t.logger.WithFields(logrus.Fields{
			"removed":   removed,
			"remaining": len(t.aircraft),
		}).Debug("cleaned up stale aircraft")
	}
}
