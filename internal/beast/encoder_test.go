package beast

import (
	"io"
	"testing"
	"time"

	"adsbcore/internal/modes"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	epoch := time.Now().Add(-time.Hour)
	enc := NewEncoder(epoch)

	frame := modes.Frame{
		Kind:        modes.LongFrame,
		Bytes:       []byte{0x8D, 0x48, 0x40, 0xD6, 0x20, 0x2C, 0xC3, 0x71, 0xC3, 0x2C, 0xE0, 0x57, 0x60, 0x98},
		SignalLevel: 120,
	}

	wire := enc.Encode(frame, time.Now())
	require.NotEmpty(t, wire)
	assert.Equal(t, byte(SyncByte), wire[0])
	assert.Equal(t, byte(ModeSLong), wire[1])

	dec := NewDecoder(discardLogger())
	messages, err := dec.Decode(wire)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, frame.Bytes, messages[0].Data)
}

func TestEncodeEscapesSyncByteInPayload(t *testing.T) {
	enc := NewEncoder(time.Now())
	frame := modes.Frame{
		Kind:  modes.ShortFrame,
		Bytes: []byte{0x1A, 0x00, 0x1A, 0x1A, 0x00, 0x00, 0x00},
	}

	wire := enc.Encode(frame, time.Now())
	// Every literal 0x1A inside the payload (not the leading sync byte)
	// must be doubled.
	count := 0
	for i := 1; i < len(wire); i++ {
		if wire[i] == SyncByte {
			count++
		}
	}
	assert.Equal(t, 0, count%2, "escaped sync bytes must appear in pairs")
}
