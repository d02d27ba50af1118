package tracker

import (
	"testing"
	"time"

	"adsbcore/internal/decode"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }
func f32(v float32) *float32 { return &v }
func i32(v int32) *int32     { return &v }
func str(v string) *string   { return &v }

func TestTrackerCreatesNewAircraft(t *testing.T) {
	tr := New(16, 0, 0, logrus.New())
	now := time.Now()

	state, _ := tr.Update(decode.Observation{ICAO: 0xABCDEF, Callsign: str("UAL123")}, now)
	require.NotNil(t, state)
	assert.Equal(t, "UAL123", state.Callsign)
	assert.Equal(t, 1, tr.Count())
}

func TestTrackerRejectsImplausibleJump(t *testing.T) {
	tr := New(16, 0, 0, logrus.New())
	now := time.Now()

	tr.Update(decode.Observation{ICAO: 1, Latitude: f64(40.0), Longitude: f64(-74.0)}, now)
	state, _ := tr.Update(decode.Observation{ICAO: 1, Latitude: f64(51.5), Longitude: f64(-0.1)}, now.Add(2*time.Second))

	assert.Equal(t, 40.0, state.Latitude, "implausible jump (NY->London in 2s) must be rejected")
}

func TestTrackerAcceptsPlausibleMove(t *testing.T) {
	tr := New(16, 0, 0, logrus.New())
	now := time.Now()

	tr.Update(decode.Observation{ICAO: 2, Latitude: f64(40.0000), Longitude: f64(-74.0000)}, now)
	state, loggable := tr.Update(decode.Observation{ICAO: 2, Latitude: f64(40.0100), Longitude: f64(-74.0000)}, now.Add(10*time.Second))

	assert.True(t, loggable)
	assert.InDelta(t, 40.01, state.Latitude, 0.0001)
}

func TestTrackerDeduplicatesRepeatedMessage(t *testing.T) {
	tr := New(16, 0, 0, logrus.New())
	now := time.Now()
	obs := decode.Observation{ICAO: 3, AltitudeFt: i32(35000)}

	state, _ := tr.Update(obs, now)
	assert.Equal(t, uint64(1), state.Messages)
	assert.Equal(t, uint32(0), state.Confidence)

	state, _ = tr.Update(obs, now.Add(200*time.Millisecond))
	assert.Equal(t, uint64(1), state.Messages)
	assert.Equal(t, uint32(1), state.Confidence, "duplicate within 1s raises confidence instead of re-recording")
}

func TestTrackerRejectsAltitudeOutOfRange(t *testing.T) {
	tr := New(16, 0, 0, logrus.New())
	now := time.Now()

	state, _ := tr.Update(decode.Observation{ICAO: 4, AltitudeFt: i32(100000)}, now)
	assert.False(t, state.HasAltitude)
}

func TestTrackerEvictsStaleAircraftAtCapacity(t *testing.T) {
	tr := New(2, 0, 0, logrus.New())
	base := time.Now()

	tr.Update(decode.Observation{ICAO: 0x01}, base.Add(-2*time.Minute))
	tr.Update(decode.Observation{ICAO: 0x02}, base.Add(-2*time.Minute))
	tr.Update(decode.Observation{ICAO: 0x03}, base)

	assert.LessOrEqual(t, tr.Count(), 2)
}

func TestTrackerHonorsConfiguredAircraftTimeout(t *testing.T) {
	tr := New(16, 1, 0, logrus.New())
	now := time.Now()

	tr.Update(decode.Observation{ICAO: 0x10}, now)

	snapshot := tr.Snapshot(now.Add(2 * time.Second))
	assert.Empty(t, snapshot, "aircraft unseen for longer than the 1s configured timeout must be stale")
}

func TestTrackerHonorsConfiguredPositionLogInterval(t *testing.T) {
	tr := New(16, 0, 1, logrus.New())
	now := time.Now()

	_, loggable := tr.Update(decode.Observation{ICAO: 0x11, Latitude: f64(40.0), Longitude: f64(-74.0)}, now)
	assert.True(t, loggable, "first position fix is always loggable")

	_, loggable = tr.Update(decode.Observation{ICAO: 0x11, Latitude: f64(40.0001), Longitude: f64(-74.0)}, now.Add(200*time.Millisecond))
	assert.False(t, loggable, "repeat position within the 1s configured log interval must not be loggable")

	_, loggable = tr.Update(decode.Observation{ICAO: 0x11, Latitude: f64(40.0002), Longitude: f64(-74.0)}, now.Add(1500*time.Millisecond))
	assert.True(t, loggable, "position after the configured log interval elapses must be loggable again")
}

func TestTrackerSummarize(t *testing.T) {
	tr := New(16, 0, 0, logrus.New())
	now := time.Now()

	tr.Update(decode.Observation{ICAO: 1, Callsign: str("ABC123"), Latitude: f64(1), Longitude: f64(1)}, now)
	tr.Update(decode.Observation{ICAO: 2, GroundSpeedKt: f32(250)}, now)

	summary := tr.Summarize(now)
	assert.Equal(t, 2, summary.TotalAircraft)
	assert.Equal(t, 1, summary.WithPosition)
	assert.Equal(t, 1, summary.WithCallsign)
}
