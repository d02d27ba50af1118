package modes

import "sync/atomic"

// Stats holds the process-wide monotonic counters and gauges the detector
// maintains (spec §3 DetectorStats). All fields are mutated with relaxed
// atomic operations; there is no coherence contract between fields beyond
// monotonicity of each individual counter.
type Stats struct {
	samplesProcessed uint64
	preamblesFound   uint64
	framesDecoded    uint64
	crcErrors        uint64
	shortFrames      uint64
	longFrames       uint64
	correctedFrames  uint64

	noiseFloor uint64 // floor × 1000, truncated (fixed point, 3 decimals)
	peakSignal uint64 // stored directly, magnitude units fit in uint64
}

func (s *Stats) addSamplesProcessed(n uint64) { atomic.AddUint64(&s.samplesProcessed, n) }
func (s *Stats) incPreambles()                { atomic.AddUint64(&s.preamblesFound, 1) }
func (s *Stats) incFramesDecoded()            { atomic.AddUint64(&s.framesDecoded, 1) }
func (s *Stats) incCRCErrors()                { atomic.AddUint64(&s.crcErrors, 1) }
func (s *Stats) incShortFrames()              { atomic.AddUint64(&s.shortFrames, 1) }
func (s *Stats) incLongFrames()               { atomic.AddUint64(&s.longFrames, 1) }
func (s *Stats) incCorrectedFrames()          { atomic.AddUint64(&s.correctedFrames, 1) }

func (s *Stats) setNoiseFloor(v float64) {
	atomic.StoreUint64(&s.noiseFloor, uint64(v*1000))
}

func (s *Stats) setPeakSignal(v uint16) {
	for {
		cur := atomic.LoadUint64(&s.peakSignal)
		if uint64(v) <= cur {
			return
		}
		if atomic.CompareAndSwapUint64(&s.peakSignal, cur, uint64(v)) {
			return
		}
	}
}

// Snapshot is a point-in-time copy of Stats safe to read without further
// synchronization.
type Snapshot struct {
	SamplesProcessed uint64
	PreamblesFound   uint64
	FramesDecoded    uint64
	CRCErrors        uint64
	ShortFrames      uint64
	LongFrames       uint64
	CorrectedFrames  uint64
	NoiseFloor       float64
	PeakSignal       uint16
}

// Snapshot reads all counters and gauges. Individual fields are each
// internally consistent but there is no cross-field atomicity guarantee.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		SamplesProcessed: atomic.LoadUint64(&s.samplesProcessed),
		PreamblesFound:   atomic.LoadUint64(&s.preamblesFound),
		FramesDecoded:    atomic.LoadUint64(&s.framesDecoded),
		CRCErrors:        atomic.LoadUint64(&s.crcErrors),
		ShortFrames:      atomic.LoadUint64(&s.shortFrames),
		LongFrames:       atomic.LoadUint64(&s.longFrames),
		CorrectedFrames:  atomic.LoadUint64(&s.correctedFrames),
		NoiseFloor:       float64(atomic.LoadUint64(&s.noiseFloor)) / 1000,
		PeakSignal:       uint16(atomic.LoadUint64(&s.peakSignal)),
	}
}
