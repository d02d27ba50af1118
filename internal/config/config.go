// Package config resolves adsbcore's runtime configuration, layering
// defaults, an optional config file and ADSBCORE_-prefixed environment
// variables through viper (spec §6 Recognized Configuration).
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Defaults per spec §6.
const (
	DefaultDeviceIndex            = 0
	DefaultGainDB                 = 49.6
	DefaultPPMError               = 0
	DefaultSignalReportIntervalMs = 500
	DefaultMaxAircraft            = 256
	DefaultPreambleMinSignal      = 10
	DefaultAircraftTimeoutS       = 60
	DefaultPositionLogIntervalS   = 5

	DefaultFrequencyHz  = 1_090_000_000
	DefaultSampleRateHz = 2_000_000
)

// Config is the fully-resolved runtime configuration (spec §6).
type Config struct {
	DeviceIndex            int     `mapstructure:"device_index"`
	GainDB                 float64 `mapstructure:"gain"`
	PPMError               int     `mapstructure:"ppm_error"`
	SignalReportIntervalMs int     `mapstructure:"signal_report_interval_ms"`
	MaxAircraft            int     `mapstructure:"max_aircraft"`
	PreambleMinSignal      int     `mapstructure:"preamble_min_signal"`
	AircraftTimeoutS       int     `mapstructure:"aircraft_timeout_s"`
	PositionLogIntervalS   int     `mapstructure:"position_log_interval_s"`

	FrequencyHz  uint32 `mapstructure:"frequency_hz"`
	SampleRateHz uint32 `mapstructure:"sample_rate_hz"`

	DeviceID string `mapstructure:"device_id"`
	LogDir   string `mapstructure:"log_dir"`
	Verbose  bool   `mapstructure:"verbose"`
}

// Load resolves Config from, in increasing precedence: built-in defaults,
// an optional config file at configPath (skipped if empty or not found),
// and ADSBCORE_-prefixed environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("device_index", DefaultDeviceIndex)
	v.SetDefault("gain", DefaultGainDB)
	v.SetDefault("ppm_error", DefaultPPMError)
	v.SetDefault("signal_report_interval_ms", DefaultSignalReportIntervalMs)
	v.SetDefault("max_aircraft", DefaultMaxAircraft)
	v.SetDefault("preamble_min_signal", DefaultPreambleMinSignal)
	v.SetDefault("aircraft_timeout_s", DefaultAircraftTimeoutS)
	v.SetDefault("position_log_interval_s", DefaultPositionLogIntervalS)
	v.SetDefault("frequency_hz", DefaultFrequencyHz)
	v.SetDefault("sample_rate_hz", DefaultSampleRateHz)
	v.SetDefault("device_id", "")
	v.SetDefault("log_dir", "logs")
	v.SetDefault("verbose", false)

	v.SetEnvPrefix("adsbcore")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}
