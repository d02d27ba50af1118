// Package decode turns validated Mode S frames into aircraft observations:
// downlink-format dispatch, altitude and squawk decoding, callsign decoding
// and airborne velocity/position extraction (spec §4.7).
package decode

import "adsbcore/internal/cpr"

// Observation is one decoded Mode S message's contribution to an
// aircraft's known state. Every field beyond ICAO is optional: a given
// message only ever populates the subset its downlink format carries.
type Observation struct {
	ICAO uint32
	DF   uint8

	Callsign      *string
	AltitudeFt    *int32
	AltitudeGNSS  bool
	Squawk        *uint16
	Latitude      *float64
	Longitude     *float64
	GroundSpeedKt *float32
	HeadingDeg    *float32
	VerticalRateFpm *int32
}

// callsignAlphabet is the Mode S 6-bit character code table (spec §4.7).
const callsignAlphabet = "#ABCDEFGHIJKLMNOPQRSTUVWXYZ##### ###############0123456789######"

// Decode dispatches a validated long or short frame into an Observation
// per its downlink format, consulting cprCtx for airborne position
// messages that carry CPR-coded coordinates.
func Decode(bytes []byte, df uint8, icao uint32, cprCtx *cpr.Context) Observation {
	obs := Observation{ICAO: icao, DF: df}

	switch df {
	case 0, 4, 16, 20:
		if len(bytes) >= 4 {
			ac := (uint16(bytes[2]&0x1F) << 8) | uint16(bytes[3])
			if alt, ok := decodeAC13Altitude(ac); ok {
				obs.AltitudeFt = &alt
			}
		}
	case 5, 21:
		sq := decodeSquawk(bytes)
		obs.Squawk = &sq
	case 11:
		// All-call reply: ICAO only, already captured above.
	case 17, 18:
		if len(bytes) != 14 {
			return obs
		}
		tc := (bytes[4] >> 3) & 0x1F
		switch {
		case tc >= 1 && tc <= 4:
			cs := decodeCallsign(bytes)
			obs.Callsign = &cs
		case tc >= 9 && tc <= 18:
			decodeAirbornePosition(bytes, icao, false, &obs, cprCtx)
		case tc == 19:
			decodeAirborneVelocity(bytes, &obs)
		case tc >= 20 && tc <= 22:
			decodeAirbornePosition(bytes, icao, true, &obs, cprCtx)
		}
	}

	return obs
}

// decodeAC13Altitude decodes a 13-bit AC altitude field (DF 0/4/16/20).
// Only the Q=1 (25ft resolution) encoding is supported; Gillham-coded
// (Q=0, 100ft) altitudes are rejected per the resolved ambiguity in
// spec §9 (Open Question: "Gillham-coded altitudes") — following
// original_source's decoder, which never implemented that branch.
func decodeAC13Altitude(ac13 uint16) (int32, bool) {
	qBit := (ac13 >> 4) & 1
	if qBit != 1 {
		return 0, false
	}
	n := ((ac13 & 0x1F80) >> 1) | (ac13 & 0x000F)
	return int32(n)*25 - 1000, true
}

// decodeAC12Altitude decodes the 12-bit AC altitude field carried in
// airborne position messages (type codes 9-18 and 20-22).
func decodeAC12Altitude(ac12 uint16) (int32, bool) {
	qBit := (ac12 >> 4) & 1
	if qBit != 1 {
		return 0, false
	}
	n := ((ac12 & 0x0FE0) >> 1) | (ac12 & 0x000F)
	return int32(n)*25 - 1000, true
}

func decodeCallsign(bytes []byte) string {
	var chars [8]byte
	chars[0] = (bytes[5] >> 2) & 0x3F
	chars[1] = ((bytes[5] & 0x03) << 4) | ((bytes[6] >> 4) & 0x0F)
	chars[2] = ((bytes[6] & 0x0F) << 2) | ((bytes[7] >> 6) & 0x03)
	chars[3] = bytes[7] & 0x3F
	chars[4] = (bytes[8] >> 2) & 0x3F
	chars[5] = ((bytes[8] & 0x03) << 4) | ((bytes[9] >> 4) & 0x0F)
	chars[6] = ((bytes[9] & 0x0F) << 2) | ((bytes[10] >> 6) & 0x03)
	chars[7] = bytes[10] & 0x3F

	out := make([]byte, 0, 8)
	for _, c := range chars {
		if int(c) < len(callsignAlphabet) {
			out = append(out, callsignAlphabet[c])
		} else {
			out = append(out, ' ')
		}
	}
	end := len(out)
	for end > 0 && out[end-1] == ' ' {
		end--
	}
	return string(out[:end])
}

func decodeAirbornePosition(bytes []byte, icao uint32, gnss bool, obs *Observation, cprCtx *cpr.Context) {
	ac12 := (uint16(bytes[5]) << 4) | (uint16(bytes[6]>>4) & 0x0F)
	if alt, ok := decodeAC12Altitude(ac12); ok {
		obs.AltitudeFt = &alt
	}
	obs.AltitudeGNSS = gnss

	oddFlag := (bytes[6]>>2)&1 == 1

	latCPR := (int32(bytes[6]&0x03) << 15) | (int32(bytes[7]) << 7) | (int32(bytes[8]>>1) & 0x7F)
	lonCPR := (int32(bytes[8]&0x01) << 16) | (int32(bytes[9]) << 8) | int32(bytes[10])

	if cprCtx == nil {
		return
	}
	if lat, lon, ok := cprCtx.Update(icao, latCPR, lonCPR, oddFlag, nowFunc()); ok {
		obs.Latitude = &lat
		obs.Longitude = &lon
	}
}

func decodeAirborneVelocity(bytes []byte, obs *Observation) {
	subtype := (bytes[4] >> 5) & 0x07

	switch subtype {
	case 1, 2:
		dew := (bytes[5]>>2)&1 == 1
		vew := (int32(bytes[5]&0x03) << 8) | int32(bytes[6])
		dns := (bytes[7]>>7)&1 == 1
		vns := (int32(bytes[7]&0x7F) << 3) | (int32(bytes[8]>>5) & 0x07)

		if vew > 0 && vns > 0 {
			multiplier := int32(1)
			if subtype == 2 {
				multiplier = 4
			}
			vEW := (vew - 1) * multiplier
			vNS := (vns - 1) * multiplier
			if dew {
				vEW = -vEW
			}
			if dns {
				vNS = -vNS
			}

			speed := float32(hypot(float64(vEW), float64(vNS)))
			heading := float32(atan2Deg(float64(vEW), float64(vNS)))
			if heading < 0 {
				heading += 360
			}
			obs.GroundSpeedKt = &speed
			obs.HeadingDeg = &heading
		}
		decodeVerticalRate(bytes, obs)

	case 3, 4:
		hdgAvail := (bytes[5]>>2)&1 == 1
		hdg := (uint16(bytes[5]&0x03) << 8) | uint16(bytes[6])
		if hdgAvail {
			h := float32(hdg) * 360.0 / 1024.0
			obs.HeadingDeg = &h
		}

		airspeed := (uint16(bytes[7]&0x7F) << 3) | (uint16(bytes[8]>>5) & 0x07)
		if airspeed > 0 {
			multiplier := uint16(1)
			if subtype == 4 {
				multiplier = 4
			}
			speed := float32((airspeed - 1) * multiplier)
			obs.GroundSpeedKt = &speed
		}
		decodeVerticalRate(bytes, obs)
	}
}

func decodeVerticalRate(bytes []byte, obs *Observation) {
	vrSign := (bytes[8]>>3)&1 == 1
	vr := (int32(bytes[8]&0x07) << 6) | (int32(bytes[9]>>2) & 0x3F)
	if vr > 0 {
		rate := (vr - 1) * 64
		if vrSign {
			rate = -rate
		}
		obs.VerticalRateFpm = &rate
	}
}

// decodeSquawk decodes the 13-bit identity field (DF 5/21) from Gillham
// code into the four-digit octal squawk value.
func decodeSquawk(bytes []byte) uint16 {
	id13 := (uint16(bytes[2]&0x1F) << 8) | uint16(bytes[3])

	bit := func(mask uint16, val uint16) uint16 {
		if id13&mask != 0 {
			return val
		}
		return 0
	}

	a := bit(0x1000, 4) + bit(0x0200, 2) + bit(0x0040, 1)
	b := bit(0x0800, 4) + bit(0x0100, 2) + bit(0x0020, 1)
	c := bit(0x0400, 4) + bit(0x0080, 2) + bit(0x0010, 1)
	d := bit(0x0008, 4) + bit(0x0004, 2) + bit(0x0002, 1)

	return a*1000 + b*100 + c*10 + d
}
