// Package output projects internal tracker and detector state into the
// boundary event types external collaborators (Beast/BaseStation writers,
// gRPC streamers, dashboards) actually consume.
package output

import (
	"fmt"
	"math"

	"adsbcore/internal/modes"
	"adsbcore/internal/tracker"
)

// fullScaleMagnitude is the 8-bit unsigned IQ sample's full-scale magnitude,
// used as the dBFS reference level.
const fullScaleMagnitude = 180.0

// floorDBFS is reported when magnitude is zero (silence).
const floorDBFS = -60.0

// AircraftEvent is the per-ICAO state projection emitted whenever a tracked
// aircraft gains new position, callsign or altitude information.
type AircraftEvent struct {
	DeviceID        string  `json:"device_id"`
	TimestampMs     uint64  `json:"timestamp_ms"`
	ICAO            string  `json:"icao"`
	Callsign        string  `json:"callsign"`
	AltitudeFt      int32   `json:"altitude_ft"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	SpeedKt         float32 `json:"speed_kts"`
	HeadingDeg      float32 `json:"heading_deg"`
	VerticalRateFpm int32   `json:"vertical_rate_fpm"`
	Squawk          string  `json:"squawk"`
	DownlinkFormat  uint32  `json:"downlink_format"`
	TypeCode        uint32  `json:"type_code"`
}

// SignalMetrics is the periodic detector health snapshot (spec §6).
type SignalMetrics struct {
	DeviceID          string  `json:"device_id"`
	TimestampMs       uint64  `json:"timestamp_ms"`
	SignalDBFS        float64 `json:"signal_dbfs"`
	NoiseDBFS         float64 `json:"noise_dbfs"`
	SNRDB             float64 `json:"snr_db"`
	MsgRate           float64 `json:"msg_rate"`
	PreamblesDetected uint64  `json:"preambles_detected"`
	FramesDecoded     uint64  `json:"frames_decoded"`
	CRCErrors         uint64  `json:"crc_errors"`
	CorrectedFrames   uint64  `json:"corrected_frames"`
	SamplesProcessed  uint64  `json:"samples_processed"`
	NoiseFloor        float64 `json:"noise_floor"`
	PeakSignal        uint16  `json:"peak_signal"`
}

// DeviceStatus reports device connectivity and active capture parameters.
type DeviceStatus struct {
	DeviceID    string  `json:"device_id"`
	Connected   bool    `json:"connected"`
	SampleRate  uint32  `json:"sample_rate"`
	CenterFreq  uint32  `json:"center_freq"`
	GainDB      float64 `json:"gain_db"`
	TimestampMs uint64  `json:"timestamp_ms"`
}

// AircraftEventFromState projects a tracked aircraft's state into an
// AircraftEvent, using df/tc from the observation that triggered the
// update. It returns ok=false when the state has none of
// {position, callsign, altitude} yet (spec §4.9).
func AircraftEventFromState(deviceID string, s tracker.State, df, tc uint32, nowMs uint64) (AircraftEvent, bool) {
	if !s.HasPosition && !s.HasCallsign && !s.HasAltitude {
		return AircraftEvent{}, false
	}

	ev := AircraftEvent{
		DeviceID:       deviceID,
		TimestampMs:    nowMs,
		ICAO:           fmt.Sprintf("%06X", s.ICAO),
		Callsign:       s.Callsign,
		DownlinkFormat: df,
		TypeCode:       tc,
	}
	if s.HasAltitude {
		ev.AltitudeFt = s.AltitudeFt
	}
	if s.HasPosition {
		ev.Latitude = s.Latitude
		ev.Longitude = s.Longitude
	}
	if s.HasVelocity {
		ev.SpeedKt = s.GroundSpeedKt
		ev.HeadingDeg = s.HeadingDeg
	}
	ev.VerticalRateFpm = s.VerticalRateFpm
	if s.HasSquawk {
		ev.Squawk = fmt.Sprintf("%04d", s.Squawk)
	}
	return ev, true
}

// SignalMetricsFromStats projects a detector Snapshot plus measured message
// rate into a SignalMetrics record.
func SignalMetricsFromStats(deviceID string, snap modes.Snapshot, msgRate float64, nowMs uint64) SignalMetrics {
	signalDBFS := magnitudeToDBFS(float64(snap.PeakSignal))
	noiseDBFS := magnitudeToDBFS(snap.NoiseFloor)
	snr := signalDBFS - noiseDBFS

	return SignalMetrics{
		DeviceID:          deviceID,
		TimestampMs:       nowMs,
		SignalDBFS:        signalDBFS,
		NoiseDBFS:         noiseDBFS,
		SNRDB:             snr,
		MsgRate:           msgRate,
		PreamblesDetected: snap.PreamblesFound,
		FramesDecoded:     snap.FramesDecoded,
		CRCErrors:         snap.CRCErrors,
		CorrectedFrames:   snap.CorrectedFrames,
		SamplesProcessed:  snap.SamplesProcessed,
		NoiseFloor:        snap.NoiseFloor,
		PeakSignal:        snap.PeakSignal,
	}
}

// magnitudeToDBFS converts a raw magnitude unit into dBFS relative to the
// 8-bit IQ full-scale magnitude, flooring silence at -60 dBFS (spec §6).
func magnitudeToDBFS(magnitude float64) float64 {
	if magnitude <= 0 {
		return floorDBFS
	}
	dbfs := 20 * math.Log10(magnitude/fullScaleMagnitude)
	if dbfs < floorDBFS {
		return floorDBFS
	}
	return dbfs
}
