package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"adsbcore/internal/app"
)

func main() {
	var config app.Config

	rootCmd := &cobra.Command{
		Use:   "adsbcore",
		Short: "Mode S / ADS-B decoder",
		Long: `adsbcore captures I/Q samples from an RTL-SDR dongle at 1090 MHz,
detects and CRC-validates Mode S frames, decodes DF/TC payloads (including
CPR-coded position), tracks aircraft state and writes BaseStation (SBS-1)
records to a rotating log file. Beast-format frames are encoded only for
verbose debug logging and are not written out.

Example usage:
  adsbcore --frequency 1090000000 --sample-rate 2000000 --gain 49.6 --device 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.ShowVersion {
				app.ShowVersion()
				return nil
			}

			application := app.NewApplication(config)
			return application.Start()
		},
	}

	rootCmd.Flags().Uint32VarP(&config.Frequency, "frequency", "f", app.DefaultFrequency, "Frequency to tune to (Hz)")
	rootCmd.Flags().Uint32VarP(&config.SampleRate, "sample-rate", "s", app.DefaultSampleRate, "Sample rate (Hz)")
	rootCmd.Flags().Float64VarP(&config.Gain, "gain", "g", app.DefaultGain, "Tuner gain (dB, 0 = use resolved config default; a resolved gain of 0 selects auto gain)")
	rootCmd.Flags().IntVar(&config.PPMError, "ppm-error", 0, "Frequency correction (ppm)")
	rootCmd.Flags().IntVarP(&config.DeviceIndex, "device", "d", 0, "RTL-SDR device index")
	rootCmd.Flags().StringVar(&config.DeviceID, "device-id", "", "Device identifier reported in output events")
	rootCmd.Flags().IntVar(&config.MaxAircraft, "max-aircraft", 0, "Maximum tracked aircraft (0 = use resolved config default)")
	rootCmd.Flags().IntVar(&config.PreambleMinSignal, "preamble-min-signal", 0, "Minimum preamble signal level (0 = use resolved config default)")
	rootCmd.Flags().IntVar(&config.AircraftTimeoutS, "aircraft-timeout", 0, "Aircraft staleness timeout, seconds (0 = use resolved config default)")
	rootCmd.Flags().IntVar(&config.PositionLogIntervalS, "position-log-interval", 0, "Minimum seconds between position log lines per aircraft (0 = use resolved config default)")
	rootCmd.Flags().IntVar(&config.SignalReportMs, "signal-report-interval-ms", 0, "Signal metrics reporting interval, milliseconds (0 = use resolved config default)")
	rootCmd.Flags().StringVarP(&config.LogDir, "log-dir", "l", "./logs", "Log directory")
	rootCmd.Flags().BoolVarP(&config.LogRotateUTC, "utc", "u", true, "Use UTC for log rotation")
	rootCmd.Flags().BoolVarP(&config.Verbose, "verbose", "v", false, "Verbose logging")
	rootCmd.Flags().BoolVar(&config.ShowVersion, "version", false, "Show version information")
	rootCmd.Flags().StringVar(&config.ConfigFile, "config", "", "Optional config file path (overridden by flags and ADSBCORE_ env vars)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
