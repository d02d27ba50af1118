package output

import (
	"testing"

	"adsbcore/internal/modes"
	"adsbcore/internal/tracker"

	"github.com/stretchr/testify/assert"
)

func TestMagnitudeToDBFSFloorsAtSilence(t *testing.T) {
	assert.Equal(t, floorDBFS, magnitudeToDBFS(0))
}

func TestMagnitudeToDBFSFullScale(t *testing.T) {
	assert.InDelta(t, 0.0, magnitudeToDBFS(fullScaleMagnitude), 0.001)
}

func TestAircraftEventFromStateRequiresUsefulData(t *testing.T) {
	_, ok := AircraftEventFromState("dev1", tracker.State{ICAO: 1}, 17, 11, 0)
	assert.False(t, ok, "an empty state must not produce an event")
}

func TestAircraftEventFromStateFormatsICAOAndSquawk(t *testing.T) {
	s := tracker.State{
		ICAO:        0x4840D6,
		HasPosition: true,
		Latitude:    51.5,
		Longitude:   -0.1,
		HasSquawk:   true,
		Squawk:      1200,
	}
	ev, ok := AircraftEventFromState("dev1", s, 17, 11, 123)
	assert := assert.New(t)
	assert.True(ok)
	assert.Equal("4840D6", ev.ICAO)
	assert.Equal("1200", ev.Squawk)
}

func TestSignalMetricsFromStats(t *testing.T) {
	snap := modes.Snapshot{PeakSignal: 180, NoiseFloor: 18}
	m := SignalMetricsFromStats("dev1", snap, 5.0, 100)
	assert.InDelta(t, 0.0, m.SignalDBFS, 0.01)
	assert.Greater(t, m.SignalDBFS, m.NoiseDBFS)
}
