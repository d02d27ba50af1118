package app

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstants(t *testing.T) {
	assert.Equal(t, uint32(1_090_000_000), uint32(DefaultFrequency))
	assert.Equal(t, uint32(2_000_000), uint32(DefaultSampleRate))
	assert.Equal(t, 49.6, DefaultGain)
}

func TestShowVersion(t *testing.T) {
	assert.NotPanics(t, func() {
		ShowVersion()
	})
}

func TestNewApplication(t *testing.T) {
	cfg := Config{
		Frequency:  DefaultFrequency,
		SampleRate: DefaultSampleRate,
		Gain:       DefaultGain,
		LogDir:     "./test_logs",
	}

	application := NewApplication(cfg)

	assert.NotNil(t, application)
	assert.NotNil(t, application.logger)
	assert.NotEmpty(t, application.runID)
}

func TestLoggerVerbosity(t *testing.T) {
	quiet := NewApplication(Config{LogDir: "./test_logs"})
	assert.False(t, quiet.logger.IsLevelEnabled(logrus.DebugLevel))

	verbose := NewApplication(Config{LogDir: "./test_logs", Verbose: true})
	assert.True(t, verbose.logger.IsLevelEnabled(logrus.DebugLevel))
}

func TestConfigResolveLayersFlagsOverDefaults(t *testing.T) {
	cfg := Config{
		MaxAircraft: 64,
		LogDir:      "./test_logs",
	}

	resolved, err := cfg.resolve()
	require.NoError(t, err)
	assert.Equal(t, 64, resolved.MaxAircraft)
	// Unset fields fall back to internal/config's own defaults.
	assert.Equal(t, 49.6, resolved.GainDB)
}

func TestConfigResolveDeviceIndexAlwaysApplied(t *testing.T) {
	// DeviceIndex 0 is both the zero value and a legitimate device index,
	// so resolve must copy it unconditionally rather than skipping on zero.
	cfg := Config{DeviceIndex: 0, LogDir: "./test_logs"}
	resolved, err := cfg.resolve()
	require.NoError(t, err)
	assert.Equal(t, 0, resolved.DeviceIndex)
}

func TestMain(m *testing.M) {
	code := m.Run()
	os.RemoveAll("./test_logs")
	os.Exit(code)
}
