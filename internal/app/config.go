package app

import "adsbcore/internal/config"

// Config holds the command-line-facing configuration. Flags populate this
// struct directly (cobra's VarP pattern); Start (via resolve) folds it into
// the fully-resolved internal/config.Config that the rest of the pipeline
// consumes, so a config file or ADSBCORE_ environment variable can still
// override a flag the user didn't set explicitly (see resolve for the
// fields that are always taken from the flags).
type Config struct {
	Frequency   uint32
	SampleRate  uint32
	Gain        float64
	PPMError    int
	DeviceIndex int
	DeviceID    string

	MaxAircraft          int
	PreambleMinSignal    int
	AircraftTimeoutS     int
	PositionLogIntervalS int
	SignalReportMs       int

	LogDir       string
	LogRotateUTC bool
	Verbose      bool
	ShowVersion  bool

	// ConfigFile, if set, is layered under flags and ADSBCORE_ env vars
	// (spec §6 Recognized Configuration).
	ConfigFile string
}

// Default configuration constants, mirrored from internal/config so cobra
// flag definitions don't need to import the config package's full surface.
const (
	DefaultFrequency  = config.DefaultFrequencyHz
	DefaultSampleRate = config.DefaultSampleRateHz
	DefaultGain       = config.DefaultGainDB
)

// resolve layers this Config's flags under a file/env-resolved
// internal/config.Config, with flag values taking precedence only when
// they are non-zero and differ from the built-in defaults cobra seeded them
// with. LogDir (whenever non-empty), DeviceIndex and Verbose are always
// taken from the flags.
func (c Config) resolve() (*config.Config, error) {
	base, err := config.Load(c.ConfigFile)
	if err != nil {
		return nil, err
	}

	if c.Frequency != 0 && c.Frequency != DefaultFrequency {
		base.FrequencyHz = c.Frequency
	}
	if c.SampleRate != 0 && c.SampleRate != DefaultSampleRate {
		base.SampleRateHz = c.SampleRate
	}
	if c.Gain != 0 && c.Gain != DefaultGain {
		base.GainDB = c.Gain
	}
	if c.PPMError != 0 {
		base.PPMError = c.PPMError
	}
	base.DeviceIndex = c.DeviceIndex
	if c.DeviceID != "" {
		base.DeviceID = c.DeviceID
	}
	if c.MaxAircraft != 0 {
		base.MaxAircraft = c.MaxAircraft
	}
	if c.PreambleMinSignal != 0 {
		base.PreambleMinSignal = c.PreambleMinSignal
	}
	if c.AircraftTimeoutS != 0 {
		base.AircraftTimeoutS = c.AircraftTimeoutS
	}
	if c.PositionLogIntervalS != 0 {
		base.PositionLogIntervalS = c.PositionLogIntervalS
	}
	if c.SignalReportMs != 0 {
		base.SignalReportIntervalMs = c.SignalReportMs
	}
	if c.LogDir != "" {
		base.LogDir = c.LogDir
	}
	base.Verbose = c.Verbose

	return base, nil
}
