// Package metrics registers the detector and tracker gauges/counters with
// a prometheus registry. Nothing in this package starts an HTTP server;
// exposition is a collaborator's concern (spec §6).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"adsbcore/internal/modes"
	"adsbcore/internal/tracker"
)

// Registry holds the prometheus collectors adsbcore populates on each
// status/signal-metrics tick.
type Registry struct {
	samplesProcessed prometheus.Counter
	preamblesFound   prometheus.Counter
	framesDecoded    prometheus.Counter
	crcErrors        prometheus.Counter
	correctedFrames  prometheus.Counter
	noiseFloor       prometheus.Gauge
	peakSignal       prometheus.Gauge

	trackedAircraft  prometheus.Gauge
	withPosition     prometheus.Gauge
	withCallsign     prometheus.Gauge

	lastSamples   uint64
	lastPreambles uint64
	lastFrames    uint64
	lastCRC       uint64
	lastCorrected uint64
}

// NewRegistry constructs a Registry and registers its collectors with reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		samplesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adsbcore_samples_processed_total",
			Help: "Total IQ samples processed by the detector.",
		}),
		preamblesFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adsbcore_preambles_detected_total",
			Help: "Total preambles detected.",
		}),
		framesDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adsbcore_frames_decoded_total",
			Help: "Total Mode S frames that passed CRC verification.",
		}),
		crcErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adsbcore_crc_errors_total",
			Help: "Total uncorrectable CRC failures.",
		}),
		correctedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adsbcore_corrected_frames_total",
			Help: "Total frames recovered via bit-flip error correction.",
		}),
		noiseFloor: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "adsbcore_noise_floor",
			Help: "Current adaptive noise floor estimate.",
		}),
		peakSignal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "adsbcore_peak_signal",
			Help: "Highest magnitude observed since the detector started.",
		}),
		trackedAircraft: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "adsbcore_tracked_aircraft",
			Help: "Number of non-stale tracked aircraft.",
		}),
		withPosition: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "adsbcore_tracked_aircraft_with_position",
			Help: "Number of tracked aircraft with a known position.",
		}),
		withCallsign: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "adsbcore_tracked_aircraft_with_callsign",
			Help: "Number of tracked aircraft with a known callsign.",
		}),
	}

	reg.MustRegister(
		r.samplesProcessed, r.preamblesFound, r.framesDecoded,
		r.crcErrors, r.correctedFrames, r.noiseFloor, r.peakSignal,
		r.trackedAircraft, r.withPosition, r.withCallsign,
	)
	return r
}

// ObserveDetector folds a detector Snapshot's monotonic counters into the
// registry, adding only the delta since the last observation (prometheus
// counters are increment-only).
func (r *Registry) ObserveDetector(snap modes.Snapshot) {
	if d := snap.SamplesProcessed - r.lastSamples; d > 0 {
		r.samplesProcessed.Add(float64(d))
	}
	if d := snap.PreamblesFound - r.lastPreambles; d > 0 {
		r.preamblesFound.Add(float64(d))
	}
	if d := snap.FramesDecoded - r.lastFrames; d > 0 {
		r.framesDecoded.Add(float64(d))
	}
	if d := snap.CRCErrors - r.lastCRC; d > 0 {
		r.crcErrors.Add(float64(d))
	}
	if d := snap.CorrectedFrames - r.lastCorrected; d > 0 {
		r.correctedFrames.Add(float64(d))
	}

	r.lastSamples = snap.SamplesProcessed
	r.lastPreambles = snap.PreamblesFound
	r.lastFrames = snap.FramesDecoded
	r.lastCRC = snap.CRCErrors
	r.lastCorrected = snap.CorrectedFrames

	r.noiseFloor.Set(snap.NoiseFloor)
	r.peakSignal.Set(float64(snap.PeakSignal))
}

// ObserveTracker reflects a tracker Summary's gauges into the registry.
func (r *Registry) ObserveTracker(summary tracker.Summary) {
	r.trackedAircraft.Set(float64(summary.TotalAircraft))
	r.withPosition.Set(float64(summary.WithPosition))
	r.withCallsign.Set(float64(summary.WithCallsign))
}
