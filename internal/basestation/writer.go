// Package basestation renders decoded Mode S observations as BaseStation
// (SBS-1) format CSV lines, the format most flight-tracking front ends
// (VRS, dump1090's port 30003 feed) expect.
package basestation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"adsbcore/internal/decode"
	"adsbcore/internal/logging"
	"adsbcore/internal/modes"
)

// BaseStation message types.
const (
	SEL = "SEL" // Selection Change
	ID  = "ID"  // New ID
	AIR = "AIR" // New Aircraft
	STA = "STA" // Status Change
	CLK = "CLK" // Click
	MSG = "MSG" // Transmission
)

// BaseStation transmission types.
const (
	TransmissionESIDCat      = 1 // Extended Squitter Aircraft ID and Category
	TransmissionESSurface    = 2 // Extended Squitter Surface Position
	TransmissionESAirborne   = 3 // Extended Squitter Airborne Position
	TransmissionESVelocity   = 4 // Extended Squitter Airborne Velocity
	TransmissionSurveillance = 5 // Surveillance Alt, Squawk change
	TransmissionSurveilID    = 6 // Surveillance ID change
	TransmissionAirToAir     = 7 // Air-to-Air Message
	TransmissionAllCall      = 8 // All Call Reply
)

// Message is one BaseStation-format record.
type Message struct {
	MessageType      string
	TransmissionType int
	SessionID        int
	AircraftID       int
	HexIdent         string
	FlightID         int
	DateGenerated    time.Time
	TimeGenerated    time.Time
	DateLogged       time.Time
	TimeLogged       time.Time
	Callsign         string
	Altitude         string
	GroundSpeed      string
	Track            string
	Latitude         string
	Longitude        string
	VerticalRate     string
	Squawk           string
	Alert            string
	Emergency        string
	SPI              string
	IsOnGround       string
}

// Writer renders Frame/Observation pairs as BaseStation CSV lines through a
// rotating log file.
type Writer struct {
	logRotator *logging.LogRotator
	logger     *logrus.Logger
	sessionID  int
	aircraftID int
}

// NewWriter constructs a Writer backed by logRotator.
func NewWriter(logRotator *logging.LogRotator, logger *logrus.Logger) *Writer {
	return &Writer{
		logRotator: logRotator,
		logger:     logger,
		sessionID:  1,
		aircraftID: 1,
	}
}

// WriteObservation renders one decoded observation from frame as a
// BaseStation line and appends it to the rotating log.
func (w *Writer) WriteObservation(frame modes.Frame, obs decode.Observation) error {
	msg := w.convert(frame, obs)
	if msg == nil {
		return nil
	}

	line := w.formatCSV(msg)
	writer, err := w.logRotator.GetWriter()
	if err != nil {
		return fmt.Errorf("failed to get log writer: %w", err)
	}
	if _, err := writer.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("failed to write to log: %w", err)
	}
	return nil
}

// convert maps a decoded observation onto the BaseStation transmission
// type taxonomy (spec §4.7 DF/TC dispatch mirrored onto SBS-1 categories).
func (w *Writer) convert(frame modes.Frame, obs decode.Observation) *Message {
	now := time.Now()
	msg := &Message{
		MessageType:   MSG,
		SessionID:     w.sessionID,
		AircraftID:    w.aircraftID,
		FlightID:      w.aircraftID,
		HexIdent:      fmt.Sprintf("%06X", obs.ICAO),
		DateGenerated: now,
		TimeGenerated: now,
		DateLogged:    now,
		TimeLogged:    now,
	}

	switch obs.DF {
	case 4, 5, 20, 21:
		msg.TransmissionType = TransmissionSurveillance
		if obs.AltitudeFt != nil {
			msg.Altitude = strconv.Itoa(int(*obs.AltitudeFt))
		}
		if obs.Squawk != nil {
			msg.Squawk = fmt.Sprintf("%04d", *obs.Squawk)
		}

	case 11:
		msg.TransmissionType = TransmissionAllCall

	case 17, 18:
		if len(frame.Bytes) < 5 {
			return msg
		}
		tc := (frame.Bytes[4] >> 3) & 0x1F
		switch {
		case tc >= 1 && tc <= 4:
			msg.TransmissionType = TransmissionESIDCat
			if obs.Callsign != nil {
				msg.Callsign = *obs.Callsign
			}
		case tc >= 5 && tc <= 8:
			msg.TransmissionType = TransmissionESSurface
			w.fillPosition(msg, obs)
		case tc >= 9 && tc <= 18, tc >= 20 && tc <= 22:
			msg.TransmissionType = TransmissionESAirborne
			w.fillPosition(msg, obs)
			if obs.AltitudeFt != nil {
				msg.Altitude = strconv.Itoa(int(*obs.AltitudeFt))
			}
		case tc == 19:
			msg.TransmissionType = TransmissionESVelocity
			if obs.GroundSpeedKt != nil {
				msg.GroundSpeed = strconv.Itoa(int(*obs.GroundSpeedKt))
			}
			if obs.HeadingDeg != nil {
				msg.Track = fmt.Sprintf("%.1f", *obs.HeadingDeg)
			}
			if obs.VerticalRateFpm != nil {
				msg.VerticalRate = strconv.Itoa(int(*obs.VerticalRateFpm))
			}
		}

	default:
		return nil
	}

	return msg
}

func (w *Writer) fillPosition(msg *Message, obs decode.Observation) {
	if obs.Latitude != nil && obs.Longitude != nil {
		msg.Latitude = fmt.Sprintf("%.6f", *obs.Latitude)
		msg.Longitude = fmt.Sprintf("%.6f", *obs.Longitude)
	}
}

func (w *Writer) formatCSV(msg *Message) string {
	fields := []string{
		msg.MessageType,
		strconv.Itoa(msg.TransmissionType),
		strconv.Itoa(msg.SessionID),
		strconv.Itoa(msg.AircraftID),
		msg.HexIdent,
		strconv.Itoa(msg.FlightID),
		msg.DateGenerated.Format("2006/01/02"),
		msg.TimeGenerated.Format("15:04:05.000"),
		msg.DateLogged.Format("2006/01/02"),
		msg.TimeLogged.Format("15:04:05.000"),
		msg.Callsign,
		msg.Altitude,
		msg.GroundSpeed,
		msg.Track,
		msg.Latitude,
		msg.Longitude,
		msg.VerticalRate,
		msg.Squawk,
		msg.Alert,
		msg.Emergency,
		msg.SPI,
		msg.IsOnGround,
	}
	return strings.Join(fields, ",")
}
