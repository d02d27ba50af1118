package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"adsbcore/internal/app"
)

func TestConfigDefaults(t *testing.T) {
	cfg := app.Config{
		Frequency:  app.DefaultFrequency,
		SampleRate: app.DefaultSampleRate,
		Gain:       app.DefaultGain,
		LogDir:     "./logs",
	}

	assert.Equal(t, uint32(1_090_000_000), cfg.Frequency)
	assert.Equal(t, uint32(2_000_000), cfg.SampleRate)
	assert.Equal(t, 49.6, cfg.Gain)
}

func TestNewApplicationFromFlags(t *testing.T) {
	cfg := app.Config{
		Frequency:  1_090_500_000,
		SampleRate: 2_000_000,
		Gain:       30,
		LogDir:     "/tmp/adsbcore-test-logs",
	}

	application := app.NewApplication(cfg)
	assert.NotNil(t, application)
}

func TestShowVersion(t *testing.T) {
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	app.ShowVersion()

	w.Close()
	os.Stdout = oldStdout

	output := make([]byte, 1024)
	n, _ := r.Read(output)
	result := string(output[:n])

	assert.Contains(t, result, "adsbcore")
}

func TestConstants(t *testing.T) {
	assert.Equal(t, uint32(1_090_000_000), uint32(app.DefaultFrequency))
	assert.Equal(t, uint32(2_000_000), uint32(app.DefaultSampleRate))
	assert.Equal(t, 49.6, app.DefaultGain)
}
