package modes

import (
	"bufio"
	"context"
	"encoding/hex"
	"io"

	"github.com/sirupsen/logrus"
)

// Detector is the frame dispatcher (C5): it streams IQ buffers through the
// magnitude table, preamble detector, bit extractor and CRC verifier, and
// emits validated frames in detection order.
type Detector struct {
	magTable      *MagnitudeTable
	noise         NoiseFloorTracker
	stats         Stats
	logger        *logrus.Logger
	sampleCounter uint64
	magScratch    []uint16
}

// NewDetector constructs a Detector. logger may be nil, in which case a
// discarding logger is used. preambleMinSignal is the floor applied to the
// adaptive noise-based detection threshold (spec §4.13
// ADSBCORE_PREAMBLE_MIN_SIGNAL); a non-positive value falls back to
// defaultMinSignal.
func NewDetector(preambleMinSignal int, logger *logrus.Logger) *Detector {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	d := &Detector{
		magTable: NewMagnitudeTable(),
		logger:   logger,
	}
	if preambleMinSignal > 0 {
		d.noise.minSignal = uint16(preambleMinSignal)
	}
	return d
}

// Stats returns a snapshot of the detector's process-wide counters.
func (d *Detector) Stats() Snapshot {
	return d.stats.Snapshot()
}

// ProcessBuffer runs the full C1-C4 pipeline over one IQ buffer and returns
// every validated Frame found, in sample-offset order (spec §4.5).
func (d *Detector) ProcessBuffer(iq []byte) []Frame {
	numSamples := len(iq) / 2
	minSamples := preambleSamples + longFrameBits*samplesPerBit
	if numSamples < minSamples {
		d.sampleCounter += uint64(numSamples)
		return nil
	}

	if cap(d.magScratch) < numSamples {
		d.magScratch = make([]uint16, numSamples)
	}
	mag := d.magScratch[:numSamples]
	d.magTable.Compute(iq, mag)

	threshold := d.noise.Update(mag)
	d.stats.setNoiseFloor(d.noise.Floor())
	if peak := maxMagnitude(mag); peak > 0 {
		d.stats.setPeakSignal(peak)
	}

	var frames []Frame
	scanLimit := numSamples - minSamples

	i := 0
	for i < scanLimit {
		if !detectPreamble(mag, i, threshold) {
			i++
			continue
		}
		d.stats.incPreambles()

		frame, consumed := d.decodeAt(mag, i)
		if frame != nil {
			frames = append(frames, *frame)
			d.stats.incFramesDecoded()
			switch frame.Kind {
			case ShortFrame:
				d.stats.incShortFrames()
			case LongFrame:
				d.stats.incLongFrames()
			}
			i += preambleSamples + consumed
			continue
		}
		i++
	}

	d.stats.addSamplesProcessed(uint64(numSamples))
	d.sampleCounter += uint64(numSamples)
	return frames
}

// decodeAt attempts long-frame extraction+verify+correct first, falling
// back to short-frame extraction+verify, starting at preamble position pos.
// Returns the decoded frame (nil on failure) and the number of data samples
// consumed so the caller can advance past it.
func (d *Detector) decodeAt(mag []uint16, pos int) (*Frame, int) {
	dataStart := pos + preambleSamples
	signalLevel := preambleSignalLevel(mag, pos)
	offset := d.sampleCounter + uint64(pos)

	longSamples := longFrameBits * samplesPerBit
	if dataStart+longSamples <= len(mag) {
		bytes, confidence := extractBitsWithConfidence(mag, dataStart, longFrameBits)
		if Verify(bytes) {
			return &Frame{Kind: LongFrame, Bytes: bytes, SignalLevel: signalLevel, SampleOffset: offset}, longSamples
		}
		if corrected, ok := Correct(bytes, confidence); ok {
			d.stats.incCorrectedFrames()
			return &Frame{Kind: LongFrame, Bytes: corrected, SignalLevel: signalLevel, SampleOffset: offset, Corrected: true}, longSamples
		}
	}

	shortSamples := shortFrameBits * samplesPerBit
	if dataStart+shortSamples <= len(mag) {
		bytes := extractBits(mag, dataStart, shortFrameBits)
		if Verify(bytes) {
			return &Frame{Kind: ShortFrame, Bytes: bytes, SignalLevel: signalLevel, SampleOffset: offset}, shortSamples
		}
	}

	d.logCRCError(mag, dataStart, signalLevel)
	return nil, 0
}

func preambleSignalLevel(mag []uint16, pos int) uint16 {
	var sum uint32
	for _, off := range pulseOffsets {
		sum += uint32(mag[pos+off])
	}
	return uint16(sum / 4)
}

func maxMagnitude(mag []uint16) uint16 {
	var max uint16
	for _, v := range mag {
		if v > max {
			max = v
		}
	}
	return max
}

// logCRCError samples CRC-failure diagnostics: the first 10 occurrences,
// then every 50th, carrying DF, signal level and confidence statistics
// (spec §7).
func (d *Detector) logCRCError(mag []uint16, dataStart int, signalLevel uint16) {
	count := d.stats.incCRCErrorsAndGet()
	if count > 10 && count%50 != 0 {
		return
	}
	longSamples := longFrameBits * samplesPerBit
	if dataStart+longSamples > len(mag) {
		return
	}
	bytes, confidence := extractBitsWithConfidence(mag, dataStart, longFrameBits)

	var sum, low int32
	min := confidence[0]
	for _, c := range confidence {
		sum += c
		if c < min {
			min = c
		}
		if c < 5 {
			low++
		}
	}
	avg := sum / int32(len(confidence))

	d.logger.WithFields(logrus.Fields{
		"count":          count,
		"df":             DF(bytes),
		"signal":         signalLevel,
		"avg_confidence": avg,
		"min_confidence": min,
		"low_conf_bits":  low,
		"hex":            hex.EncodeToString(bytes),
	}).Debug("CRC error")
}

func (s *Stats) incCRCErrorsAndGet() uint64 {
	s.incCRCErrors()
	return s.Snapshot().CRCErrors
}

// Run drives the detector loop over a streaming IQ source, sending decoded
// frames to out without blocking: if the consumer cannot keep up, frames
// are dropped rather than stalling demodulation (spec §5). ctx is checked
// at each buffer boundary; cancelling it ends the loop with a nil error.
func (d *Detector) Run(ctx context.Context, iq io.Reader, out chan<- Frame, bufferSamples int) error {
	if bufferSamples <= 0 {
		bufferSamples = 1 << 16
	}
	reader := bufio.NewReaderSize(iq, bufferSamples*2)
	buf := make([]byte, bufferSamples*2)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := io.ReadFull(reader, buf)
		if n > 0 {
			for _, f := range d.ProcessBuffer(buf[:n]) {
				select {
				case out <- f:
				default:
					// Consumer is behind; drop the frame rather than block.
				}
			}
		}
		if err != nil {
			if err == io.ErrUnexpectedEOF && n > 0 {
				continue
			}
			return err
		}
	}
}
