// Package tracker aggregates partial Mode S observations into per-aircraft
// state, applying sanity filters and message deduplication so weak-signal
// conditions don't corrupt a tracked aircraft's position or velocity.
package tracker

import (
	"time"

	"adsbcore/internal/decode"
)

// defaultAircraftTimeout and defaultPositionLogInterval are the fallbacks
// Tracker.New applies when the resolved config doesn't override them
// (spec §4.13 ADSBCORE_AIRCRAFT_TIMEOUT_S / ADSBCORE_POSITION_LOG_INTERVAL_S).
const (
	defaultAircraftTimeout     = 60 * time.Second
	defaultPositionLogInterval = 5 * time.Second
	maxRecentMessages          = 10
	dedupWindow                = 1 * time.Second
	cleanupInterval            = 30 * time.Second
)

// recentMessage is one deduplication-window entry: a fingerprint plus the
// observation's own timestamp, used to detect repeated reports of the same
// underlying data within dedupWindow.
type recentMessage struct {
	fingerprint uint64
	at          time.Time
}

// State is the aggregated, continuously-updated view of one aircraft.
type State struct {
	ICAO uint32

	Callsign        string
	Latitude        float64
	Longitude       float64
	AltitudeFt      int32
	GroundSpeedKt   float32
	HeadingDeg      float32
	VerticalRateFpm int32
	Squawk          uint16

	HasCallsign bool
	HasPosition bool
	HasAltitude bool
	HasVelocity bool
	HasSquawk   bool

	LastSeen         time.Time
	lastPositionLog  time.Time
	Messages         uint64
	PositionMessages uint64
	Confidence       uint32

	aircraftTimeout     time.Duration
	positionLogInterval time.Duration

	recent [maxRecentMessages]recentMessage
	recentHead  int
	recentCount int
}

func newState(icao uint32, now time.Time, aircraftTimeout, positionLogInterval time.Duration) *State {
	return &State{
		ICAO:                icao,
		LastSeen:            now,
		lastPositionLog:     now.Add(-positionLogInterval),
		aircraftTimeout:     aircraftTimeout,
		positionLogInterval: positionLogInterval,
	}
}

// Update folds one decoded observation into the aircraft's state, applying
// deduplication and the position/altitude/velocity sanity filters (spec
// §4.8). It returns true if the update changed the position and the
// position is eligible to be logged again.
func (s *State) Update(obs decode.Observation, now time.Time) (loggable bool) {
	fp := fingerprint(obs)
	if s.isDuplicate(fp, now) {
		s.Confidence++
		return false
	}
	s.pushRecent(fp, now)

	prevSeen := s.LastSeen
	s.LastSeen = now
	s.Messages++

	if obs.Callsign != nil {
		cs := *obs.Callsign
		if cs != "" && cs != "#######" {
			s.Callsign = cs
			s.HasCallsign = true
		}
	}

	hadPosition := s.HasPosition
	positionsBefore := s.PositionMessages
	if obs.Latitude != nil && obs.Longitude != nil {
		s.applyPosition(*obs.Latitude, *obs.Longitude, prevSeen, now)
	}

	if obs.AltitudeFt != nil {
		alt := *obs.AltitudeFt
		if alt > -2000 && alt < 60000 {
			s.AltitudeFt = alt
			s.HasAltitude = true
		}
	}

	if obs.GroundSpeedKt != nil {
		spd := *obs.GroundSpeedKt
		if spd >= 0 && spd < 1000 {
			s.GroundSpeedKt = spd
			s.HasVelocity = true
		}
	}
	if obs.HeadingDeg != nil {
		hdg := *obs.HeadingDeg
		if hdg >= 0 && hdg < 360 {
			s.HeadingDeg = hdg
		}
	}
	if obs.VerticalRateFpm != nil {
		vr := *obs.VerticalRateFpm
		if vr > -10000 && vr < 10000 {
			s.VerticalRateFpm = vr
		}
	}
	if obs.Squawk != nil {
		s.Squawk = *obs.Squawk
		s.HasSquawk = true
	}

	if s.PositionMessages != positionsBefore && (!hadPosition || s.shouldLogPosition(now)) {
		s.markPositionLogged(now)
		return true
	}
	return false
}

// applyPosition rejects updates that imply an aircraft moved faster than
// 900 knots (15 nm/s) (spec §4.8 sanity filter). dt is measured from
// prevSeen, the aircraft's LastSeen value before this message: the time of
// its previous non-duplicate message of any kind, not of its previous
// position fix. When dt is zero or 60 s or more, the speed check is skipped.
func (s *State) applyPosition(lat, lon float64, prevSeen, now time.Time) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return
	}

	if s.HasPosition {
		dt := now.Sub(prevSeen).Seconds()
		if dt > 0 && dt < 60 {
			dist := haversineNM(s.Latitude, s.Longitude, lat, lon)
			if dist > 15.0*dt {
				return
			}
		}
	}

	s.Latitude = lat
	s.Longitude = lon
	s.PositionMessages++
	s.HasPosition = true
}

func (s *State) shouldLogPosition(now time.Time) bool {
	return now.Sub(s.lastPositionLog) >= s.positionLogInterval
}

func (s *State) markPositionLogged(now time.Time) {
	s.lastPositionLog = now
}

// IsStale reports whether the aircraft hasn't been seen within its
// configured timeout (defaultAircraftTimeout unless the tracker that
// created this state was given an override).
func (s *State) IsStale(now time.Time) bool {
	timeout := s.aircraftTimeout
	if timeout <= 0 {
		timeout = defaultAircraftTimeout
	}
	return now.Sub(s.LastSeen) > timeout
}

func (s *State) isDuplicate(fp uint64, now time.Time) bool {
	for i := 0; i < s.recentCount; i++ {
		m := s.recent[i]
		if m.fingerprint == fp && now.Sub(m.at) < dedupWindow {
			return true
		}
	}
	return false
}

func (s *State) pushRecent(fp uint64, now time.Time) {
	s.recent[s.recentHead] = recentMessage{fingerprint: fp, at: now}
	s.recentHead = (s.recentHead + 1) % maxRecentMessages
	if s.recentCount < maxRecentMessages {
		s.recentCount++
	}
}
