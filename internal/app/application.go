package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"adsbcore/internal/basestation"
	"adsbcore/internal/beast"
	adsbconfig "adsbcore/internal/config"
	"adsbcore/internal/cpr"
	"adsbcore/internal/decode"
	"adsbcore/internal/logging"
	"adsbcore/internal/metrics"
	"adsbcore/internal/modes"
	"adsbcore/internal/output"
	"adsbcore/internal/rtlsdr"
	"adsbcore/internal/tracker"
)

// frameQueueDepth bounds the dispatcher-to-decoder channel (spec §5 bounded
// FIFO, non-blocking enqueue).
const frameQueueDepth = 1024

// iqQueueDepth bounds the RTL-SDR-to-detector channel.
const iqQueueDepth = 64

// deviceStatusInterval is the "at least every 5s" DeviceStatus cadence.
const deviceStatusInterval = 5 * time.Second

// Application wires together one RTL-SDR device, the detect/decode/track
// pipeline and its output sinks (BaseStation log, Prometheus registry).
// Beast encoding only feeds a debug log line when verbose is set.
type Application struct {
	cliConfig Config
	resolved  *adsbconfig.Config
	runID     string

	logger *logrus.Logger

	device     *rtlsdr.Device
	detector   *modes.Detector
	cprCtx     *cpr.Context
	trk        *tracker.Tracker
	beastEnc   *beast.Encoder
	sbsWriter  *basestation.Writer
	logRotator *logging.LogRotator
	metricsReg *metrics.Registry

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	verbose bool
}

// NewApplication constructs an Application from command-line configuration.
// Heavier initialization (device open, log rotator, config resolution)
// happens in Start so construction never fails.
func NewApplication(cliConfig Config) *Application {
	ctx, cancel := context.WithCancel(context.Background())

	logger := logrus.New()
	if cliConfig.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Application{
		cliConfig: cliConfig,
		runID:     uuid.NewString(),
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		verbose:   cliConfig.Verbose,
	}
}

// Start resolves configuration, wires every component and blocks until a
// shutdown signal arrives.
func (app *Application) Start() error {
	app.logger.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
		"run_id":     app.runID,
	}).Info("starting adsbcore")

	if err := app.initializeComponents(); err != nil {
		return fmt.Errorf("failed to initialize components: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	app.run()

	<-sigChan
	app.logger.Info("received shutdown signal")
	app.shutdown()

	return nil
}

// initializeComponents resolves configuration and constructs every
// pipeline stage (spec §4 component design).
func (app *Application) initializeComponents() error {
	resolved, err := app.cliConfig.resolve()
	if err != nil {
		return fmt.Errorf("failed to resolve configuration: %w", err)
	}
	if resolved.DeviceID == "" {
		resolved.DeviceID = "adsbcore-" + app.runID[:8]
	}
	app.resolved = resolved

	app.device, err = rtlsdr.NewDevice(resolved.DeviceIndex, app.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize RTL-SDR: %w", err)
	}
	if err := app.device.Configure(resolved.FrequencyHz, resolved.SampleRateHz, resolved.GainDB, resolved.PPMError); err != nil {
		return fmt.Errorf("failed to configure RTL-SDR: %w", err)
	}

	app.detector = modes.NewDetector(resolved.PreambleMinSignal, app.logger)
	app.cprCtx = cpr.NewContext(resolved.MaxAircraft)
	app.trk = tracker.New(resolved.MaxAircraft, resolved.AircraftTimeoutS, resolved.PositionLogIntervalS, app.logger)
	app.beastEnc = beast.NewEncoder(time.Now())

	app.logRotator, err = logging.NewLogRotator(resolved.LogDir, app.cliConfig.LogRotateUTC, app.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize log rotator: %w", err)
	}
	app.sbsWriter = basestation.NewWriter(app.logRotator, app.logger)

	app.metricsReg = metrics.NewRegistry(prometheus.DefaultRegisterer)

	return nil
}

// run starts every pipeline and heartbeat goroutine. Cancellation is via
// app.ctx; shutdown waits on app.wg (spec §5).
func (app *Application) run() {
	app.logger.Info("starting RTL-SDR capture and decode pipeline")

	iqChan := make(chan []byte, iqQueueDepth)
	frameChan := make(chan modes.Frame, frameQueueDepth)

	app.spawn(func() {
		if err := app.device.StartCapture(app.ctx, iqChan); err != nil {
			app.logger.WithError(err).Error("RTL-SDR capture failed")
			app.emitDeviceStatus(false, time.Now())
		}
	})

	app.spawn(func() { app.logRotator.Start(app.ctx) })
	app.spawn(func() { app.detectLoop(iqChan, frameChan) })
	app.spawn(func() { app.decodeLoop(frameChan) })
	app.spawn(func() { app.signalMetricsLoop() })
	app.spawn(func() { app.deviceStatusLoop() })

	app.logger.Info("all components started")
}

func (app *Application) spawn(fn func()) {
	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		fn()
	}()
}

// detectLoop pulls raw IQ buffers off iqChan, runs the detector pipeline
// and forwards validated frames, dropping them if frameChan is full
// (spec §5 bounded FIFO with non-blocking enqueue).
func (app *Application) detectLoop(iqChan <-chan []byte, frameChan chan<- modes.Frame) {
	for {
		select {
		case <-app.ctx.Done():
			return
		case buf, ok := <-iqChan:
			if !ok {
				return
			}
			for _, frame := range app.detector.ProcessBuffer(buf) {
				select {
				case frameChan <- frame:
				default:
					app.logger.Debug("dropping decoded frame, queue full")
				}
			}
		}
	}
}

// decodeLoop turns validated frames into observations, writes BaseStation
// output for every decoded frame, and folds the observations into the
// tracker (spec §4.7-4.9).
func (app *Application) decodeLoop(frameChan <-chan modes.Frame) {
	for {
		select {
		case <-app.ctx.Done():
			return
		case frame, ok := <-frameChan:
			if !ok {
				return
			}
			app.handleFrame(frame)
		}
	}
}

func (app *Application) handleFrame(frame modes.Frame) {
	now := time.Now()
	df := frame.DF()
	icao := frame.ICAOAddress()

	obs := decode.Decode(frame.Bytes, df, icao, app.cprCtx)

	if err := app.sbsWriter.WriteObservation(frame, obs); err != nil {
		app.logger.WithError(err).Debug("failed to write BaseStation record")
	}

	if app.verbose {
		wire := app.beastEnc.Encode(frame, now)
		app.logger.WithField("beast_bytes", len(wire)).Debug("encoded Beast frame")
	}

	state, loggable := app.trk.Update(obs, now)
	if !loggable {
		return
	}

	var tc uint32
	if (df == 17 || df == 18) && len(frame.Bytes) >= 5 {
		tc = uint32((frame.Bytes[4] >> 3) & 0x1F)
	}

	event, ok := output.AircraftEventFromState(app.resolved.DeviceID, *state, uint32(df), tc, uint64(now.UnixMilli()))
	if !ok {
		return
	}
	app.logger.WithFields(logrus.Fields{
		"icao":     event.ICAO,
		"callsign": event.Callsign,
	}).Debug("aircraft event")
}

// signalMetricsLoop emits a SignalMetrics snapshot every
// signal_report_interval_ms (spec §6 default 500ms) and folds tracker
// gauges into the Prometheus registry at the same cadence.
func (app *Application) signalMetricsLoop() {
	interval := time.Duration(app.resolved.SignalReportIntervalMs) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastFrames uint64
	lastTick := time.Now()

	for {
		select {
		case <-app.ctx.Done():
			return
		case now := <-ticker.C:
			snap := app.detector.Stats()
			app.metricsReg.ObserveDetector(snap)

			elapsed := now.Sub(lastTick).Seconds()
			var msgRate float64
			if elapsed > 0 {
				msgRate = float64(snap.FramesDecoded-lastFrames) / elapsed
			}
			lastFrames = snap.FramesDecoded
			lastTick = now

			sm := output.SignalMetricsFromStats(app.resolved.DeviceID, snap, msgRate, uint64(now.UnixMilli()))
			app.logger.WithFields(logrus.Fields{
				"signal_dbfs": sm.SignalDBFS,
				"noise_dbfs":  sm.NoiseDBFS,
				"snr_db":      sm.SNRDB,
				"msg_rate":    sm.MsgRate,
			}).Debug("signal metrics")

			summary := app.trk.Summarize(now)
			app.metricsReg.ObserveTracker(summary)
		}
	}
}

// deviceStatusLoop emits a DeviceStatus record at least every 5s.
func (app *Application) deviceStatusLoop() {
	ticker := time.NewTicker(deviceStatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-app.ctx.Done():
			return
		case now := <-ticker.C:
			app.emitDeviceStatus(true, now)
		}
	}
}

// emitDeviceStatus logs a DeviceStatus record with the given connected
// state. It is used for the periodic heartbeat as well as the one-shot
// disconnect notices on orderly shutdown and capture failure (spec §6/§7:
// connected=false on shutdown or IQ stream EOF/read error).
func (app *Application) emitDeviceStatus(connected bool, now time.Time) {
	status := output.DeviceStatus{
		DeviceID:    app.resolved.DeviceID,
		Connected:   connected,
		SampleRate:  app.resolved.SampleRateHz,
		CenterFreq:  app.resolved.FrequencyHz,
		GainDB:      app.resolved.GainDB,
		TimestampMs: uint64(now.UnixMilli()),
	}
	app.logger.WithFields(logrus.Fields{
		"device_id":   status.DeviceID,
		"sample_rate": status.SampleRate,
		"center_freq": status.CenterFreq,
		"connected":   status.Connected,
	}).Info("device status")
}

// shutdown cancels every goroutine, waits up to 5s for clean exit, then
// closes the device and log rotator.
func (app *Application) shutdown() {
	app.logger.Info("shutting down")
	app.cancel()

	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		app.logger.Info("all goroutines finished")
	case <-time.After(5 * time.Second):
		app.logger.Warn("shutdown timeout, forcing exit")
	}

	if app.resolved != nil {
		app.emitDeviceStatus(false, time.Now())
	}

	if app.device != nil {
		app.device.Close()
	}
	if app.logRotator != nil {
		app.logRotator.Close()
	}

	app.logger.Info("shutdown complete")
}
