package modes

// Mode S preamble timing at 2 Msps (0.5 µs/sample): pulses at 0, 1, 3.5 and
// 4.5 µs land on samples 0, 2, 7 and 9; the seven intervening samples are
// the "space" positions that must be quiet.
const (
	preambleSamples  = 16
	shortFrameBits   = 56
	longFrameBits    = 112
	samplesPerBit    = 2
	defaultMinSignal = 10
	noiseFloorWeight = 0.1
)

var pulseOffsets = [4]int{0, 2, 7, 9}
var spaceOffsets = [7]int{1, 3, 4, 5, 6, 8, 10}

// NoiseFloorTracker maintains the adaptive noise-floor estimate described in
// spec §4.2: sample the magnitude buffer sparsely, blend the buffer mean
// into a running floor with weight 0.1 (the first buffer replaces it
// outright), and derive a detection threshold from it.
type NoiseFloorTracker struct {
	floor       float64
	initialized bool
	minSignal   uint16 // floor for threshold(); 0 means defaultMinSignal
}

// Update folds one buffer's mean magnitude into the running noise floor and
// returns the resulting detection threshold: max(4·floor, minSignal), where
// minSignal defaults to 10.
func (n *NoiseFloorTracker) Update(mag []uint16) uint16 {
	if len(mag) == 0 {
		return n.threshold()
	}

	step := 1000
	if step > len(mag) {
		step = len(mag)
	}
	if step < 1 {
		step = 1
	}

	var sum uint64
	var count uint64
	for i := 0; i < len(mag); i += step {
		sum += uint64(mag[i])
		count++
	}
	if count == 0 {
		return n.threshold()
	}
	mean := float64(sum) / float64(count)

	if !n.initialized {
		n.floor = mean
		n.initialized = true
	} else {
		n.floor = (1-noiseFloorWeight)*n.floor + noiseFloorWeight*mean
	}

	return n.threshold()
}

// Floor returns the current noise-floor gauge value.
func (n *NoiseFloorTracker) Floor() float64 {
	return n.floor
}

func (n *NoiseFloorTracker) threshold() uint16 {
	minSignal := n.minSignal
	if minSignal == 0 {
		minSignal = defaultMinSignal
	}
	t := 4 * n.floor
	if t < float64(minSignal) {
		t = float64(minSignal)
	}
	return uint16(t)
}

// detectPreamble tests whether position pos in mag satisfies all six
// preamble criteria of spec §4.2. mag must have at least pos+16 elements.
func detectPreamble(mag []uint16, pos int, threshold uint16) bool {
	if pos+preambleSamples > len(mag) {
		return false
	}

	var pulses [4]int32
	for i, off := range pulseOffsets {
		pulses[i] = int32(mag[pos+off])
	}
	var spaces [7]int32
	for i, off := range spaceOffsets {
		spaces[i] = int32(mag[pos+off])
	}

	pulseSum := pulses[0] + pulses[1] + pulses[2] + pulses[3]
	var spaceSum int32
	for _, s := range spaces {
		spaceSum += s
	}

	// 1. Correlation score >= 3*threshold.
	correlation := pulseSum - spaceSum
	if correlation < 3*int32(threshold) {
		return false
	}

	// 2. Pulse sum >= 3x space sum.
	if pulseSum < 3*spaceSum {
		return false
	}

	maxPulse := pulses[0]
	minPulse := pulses[0]
	for _, p := range pulses[1:] {
		if p > maxPulse {
			maxPulse = p
		}
		if p < minPulse {
			minPulse = p
		}
	}

	// 3. max pulse >= threshold.
	if maxPulse < int32(threshold) {
		return false
	}

	// 4. min pulse * 3 >= max pulse.
	if minPulse*3 < maxPulse {
		return false
	}

	maxSpace := spaces[0]
	for _, s := range spaces[1:] {
		if s > maxSpace {
			maxSpace = s
		}
	}

	// 5. max space * 3 <= min pulse * 2.
	if maxSpace*3 > minPulse*2 {
		return false
	}

	// 6. Post-preamble quiet zone: mean of samples P+11..P+15 <= mean of
	// the four pulses.
	var quiet int32
	for i := 11; i <= 15; i++ {
		quiet += int32(mag[pos+i])
	}
	if quiet*4 > pulseSum*5 {
		return false
	}

	return true
}
