package decode

import (
	"encoding/hex"
	"testing"

	"adsbcore/internal/cpr"
	"adsbcore/internal/modes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecodeHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestDecodeDF17Identification(t *testing.T) {
	bytes := mustDecodeHex(t, "8D4840D6202CC371C32CE0576098")
	require.True(t, modes.Verify(bytes), "fixture frame must be CRC-valid")

	df := modes.DF(bytes)
	icao := modes.ICAO(bytes)
	require.Equal(t, uint8(17), df)
	require.Equal(t, uint32(0x4840D6), icao)

	obs := Decode(bytes, df, icao, nil)
	assert.Equal(t, uint32(0x4840D6), obs.ICAO)
	assert.Equal(t, uint8(17), obs.DF)
	require.NotNil(t, obs.Callsign, "DF17 identification message must decode a callsign")
	assert.Equal(t, "KLM1023", *obs.Callsign)
}

func TestDecodeSquawk(t *testing.T) {
	bytes := make([]byte, 7)
	bytes[0] = 5 << 3
	// id13 = 0b0 0010 0001 0010 -> A=2 B=0 C=1 D=1 (arbitrary bit pattern exercise)
	bytes[2] = 0x02
	bytes[3] = 0x12

	sq := decodeSquawk(bytes)
	assert.LessOrEqual(t, sq, uint16(7777))
}

func TestDecodeAC13AltitudeRequiresQBit(t *testing.T) {
	_, ok := decodeAC13Altitude(0x0000)
	assert.False(t, ok, "Q=0 (Gillham 100ft) altitudes are not decoded")

	alt, ok := decodeAC13Altitude(0x1010)
	assert.True(t, ok)
	assert.Greater(t, alt, int32(-1000))
}

func TestDecodeAirbornePositionUpdatesCPR(t *testing.T) {
	ctx := cpr.NewContext(16)
	// DF17, TC 11 airborne position (even CPR frame).
	bytes := mustDecodeHex(t, "8D40621D58C382D690C8AC2863A7")
	icao := modes.ICAO(bytes)

	obs := Decode(bytes, modes.DF(bytes), icao, ctx)
	// A single message can only ever populate one side of the CPR pair.
	assert.Nil(t, obs.Latitude)
}
