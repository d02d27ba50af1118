package tracker

import (
	"hash/fnv"
	"strconv"

	"adsbcore/internal/decode"
)

// fingerprint computes a dedup key covering the fields an observation can
// carry, quantizing floats to avoid false misses from formatting noise
// (spec §4.8).
func fingerprint(obs decode.Observation) uint64 {
	h := fnv.New64a()
	write := func(s string) { h.Write([]byte(s)) }

	write(strconv.FormatUint(uint64(obs.ICAO), 16))
	if obs.Latitude != nil {
		write(strconv.FormatInt(int64(*obs.Latitude*10000), 10))
	}
	if obs.Longitude != nil {
		write(strconv.FormatInt(int64(*obs.Longitude*10000), 10))
	}
	if obs.AltitudeFt != nil {
		write(strconv.FormatInt(int64(*obs.AltitudeFt), 10))
	}
	if obs.Callsign != nil {
		write(*obs.Callsign)
	}
	if obs.GroundSpeedKt != nil {
		write(strconv.FormatInt(int64(*obs.GroundSpeedKt*10), 10))
	}
	if obs.HeadingDeg != nil {
		write(strconv.FormatInt(int64(*obs.HeadingDeg*10), 10))
	}

	return h.Sum64()
}
