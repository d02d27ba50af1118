// Package cpr implements Compact Position Reporting global position
// decoding for ADS-B airborne position messages.
package cpr

import (
	"sync"
	"time"
)

// maxFreshness is the maximum age gap allowed between the even and odd
// frames used in a single global decode (spec §4.6).
const maxFreshness = 10 * time.Second

// frame is one half of an even/odd CPR pair.
type frame struct {
	latCPR, lonCPR int32
	receivedAt     time.Time
}

// State holds the even/odd CPR history for a single aircraft.
type State struct {
	even, odd    *frame
	LastLatitude float64
	LastLongitude float64
	hasPosition  bool
}

// Context decodes CPR positions across many aircraft, bounding memory to
// maxAircraft entries by evicting an arbitrary entry when a new ICAO
// arrives at capacity (spec §4.6). Unlike the tracker, it does not look for
// stale entries first.
type Context struct {
	mu         sync.Mutex
	states     map[uint32]*State
	maxAircraft int
}

// NewContext constructs a Context bounded to maxAircraft concurrent
// per-ICAO states.
func NewContext(maxAircraft int) *Context {
	return &Context{
		states:      make(map[uint32]*State, maxAircraft),
		maxAircraft: maxAircraft,
	}
}

// Update records one CPR-coded position report and, if the complementary
// even/odd frame is present and fresh enough, returns the globally decoded
// latitude/longitude.
func (c *Context) Update(icao uint32, latCPR, lonCPR int32, odd bool, now time.Time) (lat, lon float64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, exists := c.states[icao]
	if !exists {
		if c.maxAircraft > 0 && len(c.states) >= c.maxAircraft {
			for k := range c.states {
				delete(c.states, k)
				break
			}
		}
		st = &State{}
		c.states[icao] = st
	}

	f := &frame{latCPR: latCPR, lonCPR: lonCPR, receivedAt: now}
	if odd {
		st.odd = f
	} else {
		st.even = f
	}

	lat, lon, ok = decodeGlobal(st, odd)
	if ok {
		st.LastLatitude, st.LastLongitude, st.hasPosition = lat, lon, true
	}
	return lat, lon, ok
}

// decodeGlobal implements the CPR global decoding algorithm: given an
// even/odd pair within the freshness window, it resolves the unambiguous
// global position, preferring the more recently received frame's local
// coordinates (spec §4.6).
func decodeGlobal(st *State, odd bool) (float64, float64, bool) {
	if st.even == nil || st.odd == nil {
		return 0, 0, false
	}

	var age time.Duration
	if odd {
		age = st.odd.receivedAt.Sub(st.even.receivedAt)
	} else {
		age = st.even.receivedAt.Sub(st.odd.receivedAt)
	}
	if age < 0 {
		age = -age
	}
	if age > maxFreshness {
		return 0, 0, false
	}

	const cprScale = 131072.0 // 2^17
	latCPREven := float64(st.even.latCPR) / cprScale
	lonCPREven := float64(st.even.lonCPR) / cprScale
	latCPROdd := float64(st.odd.latCPR) / cprScale
	lonCPROdd := float64(st.odd.lonCPR) / cprScale

	const dLatEven = 360.0 / 60.0
	const dLatOdd = 360.0 / 59.0

	j := floor(59.0*latCPREven - 60.0*latCPROdd + 0.5)

	latEven := dLatEven * (modf(j, 60) + latCPREven)
	latOdd := dLatOdd * (modf(j, 59) + latCPROdd)

	if latEven >= 270.0 {
		latEven -= 360.0
	}
	if latOdd >= 270.0 {
		latOdd -= 360.0
	}

	nlEven := cprNL(latEven)
	nlOdd := cprNL(latOdd)
	if nlEven != nlOdd {
		return 0, 0, false
	}

	var lat, lon float64
	if odd {
		nl := nlOdd
		ni := nl - 1
		if ni < 1 {
			ni = 1
		}
		dLon := 360.0 / float64(ni)
		m := floor(lonCPREven*float64(nl-1) - lonCPROdd*float64(nl) + 0.5)
		lon = dLon * (modf(m, ni) + lonCPROdd)
		lat = latOdd
	} else {
		nl := nlEven
		ni := nl
		if ni < 1 {
			ni = 1
		}
		dLon := 360.0 / float64(ni)
		m := floor(lonCPREven*float64(nl-1) - lonCPROdd*float64(nl) + 0.5)
		lon = dLon * (modf(m, ni) + lonCPREven)
		lat = latEven
	}

	if lon > 180.0 {
		lon -= 360.0
	}

	if lat < -90.0 || lat > 90.0 || lon < -180.0 || lon > 180.0 {
		return 0, 0, false
	}

	return lat, lon, true
}

func floor(v float64) int32 {
	i := int32(v)
	if v < 0 && float64(i) != v {
		i--
	}
	return i
}

func modf(a, m int32) float64 {
	r := a % m
	if r < 0 {
		r += m
	}
	return float64(r)
}
