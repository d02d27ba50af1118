package beast

import (
	"time"

	"adsbcore/internal/modes"
)

// Encoder renders validated Mode S frames as Beast-format binary messages,
// the wire format dump1090/Beast-compatible receivers emit on their raw
// TCP feed.
type Encoder struct {
	epoch time.Time
}

// NewEncoder constructs an Encoder whose 48-bit timestamp field counts
// 12MHz ticks (the Beast counter convention) since epoch.
func NewEncoder(epoch time.Time) *Encoder {
	return &Encoder{epoch: epoch}
}

// Encode renders one frame as an escaped Beast message, including the sync
// byte and message-type byte.
func (e *Encoder) Encode(frame modes.Frame, at time.Time) []byte {
	var msgType byte
	switch frame.Kind {
	case modes.ShortFrame:
		msgType = ModeS
	case modes.LongFrame:
		msgType = ModeSLong
	}

	counter := uint64(at.Sub(e.epoch).Nanoseconds() * 12 / 1000)

	header := make([]byte, 0, 9)
	header = append(header, msgType)
	for i := 5; i >= 0; i-- {
		header = append(header, byte(counter>>(uint(i)*8)))
	}
	header = append(header, signalByte(frame.SignalLevel))

	payload := make([]byte, 0, len(header)+len(frame.Bytes)+4)
	payload = append(payload, escape(header)...)
	payload = append(payload, escape(frame.Bytes)...)

	out := make([]byte, 0, len(payload)+1)
	out = append(out, SyncByte)
	out = append(out, payload...)
	return out
}

// signalByte maps a raw magnitude reading onto Beast's 0-255 signal byte.
func signalByte(level uint16) byte {
	if level > 255 {
		return 255
	}
	return byte(level)
}

// escape doubles every 0x1A byte, per the Beast protocol's framing rule.
func escape(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for _, b := range data {
		if b == SyncByte {
			out = append(out, SyncByte, SyncByte)
		} else {
			out = append(out, b)
		}
	}
	return out
}
