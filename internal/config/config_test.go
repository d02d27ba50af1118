package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultDeviceIndex, cfg.DeviceIndex)
	assert.InDelta(t, DefaultGainDB, cfg.GainDB, 0.001)
	assert.Equal(t, DefaultMaxAircraft, cfg.MaxAircraft)
	assert.Equal(t, uint32(DefaultFrequencyHz), cfg.FrequencyHz)
}

func TestLoadEnvOverride(t *testing.T) {
	os.Setenv("ADSBCORE_MAX_AIRCRAFT", "64")
	defer os.Unsetenv("ADSBCORE_MAX_AIRCRAFT")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.MaxAircraft)
}
