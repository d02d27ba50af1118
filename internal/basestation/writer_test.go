package basestation

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"adsbcore/internal/decode"
	"adsbcore/internal/logging"
	"adsbcore/internal/modes"
)

func newTestWriter(t *testing.T) *Writer {
	t.Helper()
	dir := t.TempDir()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	rotator, err := logging.NewLogRotator(dir, false, logger)
	require.NoError(t, err)
	t.Cleanup(func() { rotator.Close() })

	return NewWriter(rotator, logger)
}

func str(v string) *string       { return &v }
func f32(v float32) *float32     { return &v }
func i32(v int32) *int32         { return &v }

func TestWriteObservationIdentification(t *testing.T) {
	w := newTestWriter(t)
	frame := modes.Frame{Kind: modes.LongFrame, Bytes: make([]byte, 14)}
	frame.Bytes[4] = 1 << 3 // tc=1

	obs := decode.Observation{ICAO: 0x4840D6, DF: 17, Callsign: str("TEST123")}
	require.NoError(t, w.WriteObservation(frame, obs))
}

func TestWriteObservationUnsupportedDFIsSkipped(t *testing.T) {
	w := newTestWriter(t)
	frame := modes.Frame{Kind: modes.ShortFrame, Bytes: make([]byte, 7)}
	obs := decode.Observation{ICAO: 1, DF: 0}

	require.NoError(t, w.WriteObservation(frame, obs))
}

func TestWriteObservationVelocity(t *testing.T) {
	w := newTestWriter(t)
	frame := modes.Frame{Kind: modes.LongFrame, Bytes: make([]byte, 14)}
	frame.Bytes[4] = 19 << 3

	obs := decode.Observation{
		ICAO:          2,
		DF:            17,
		GroundSpeedKt: f32(250),
		HeadingDeg:    f32(90),
		VerticalRateFpm: i32(-640),
	}
	require.NoError(t, w.WriteObservation(frame, obs))
}
