// Copyright (c) 2012-2017 Joseph D Poirier
// Distributable under the terms of The New BSD License
// that can be found in the LICENSE file.

// Package rtlsdr wraps librtlsdr (via gortlsdr), turning a Realtek
// RTL2832-based DVB dongle into the IQ sample source the detector
// consumes.
package rtlsdr

import (
	"context"
	"errors"
	"fmt"

	rtlsdr "github.com/jpoirier/gortlsdr"
	"github.com/sirupsen/logrus"
)

// BufferChunkSize is the RTL-SDR async read chunk size.
const BufferChunkSize = 16384

// Device wraps one RTL-SDR dongle configured for 2 Msps IQ capture at
// 1090 MHz.
type Device struct {
	device   *rtlsdr.Context
	logger   *logrus.Logger
	index    int
	isOpen   bool
	cancelFn context.CancelFunc
}

// NewDevice validates that device index exists and returns an unopened
// Device. logger may be nil, in which case a new default logrus logger
// (writing to stderr) is used.
func NewDevice(index int, logger *logrus.Logger) (*Device, error) {
	if logger == nil {
		logger = logrus.New()
	}

	count := rtlsdr.GetDeviceCount()
	if count == 0 {
		return nil, errors.New("no RTL-SDR devices found")
	}
	if index >= count {
		return nil, fmt.Errorf("device index %d out of range (0-%d)", index, count-1)
	}

	return &Device{logger: logger, index: index}, nil
}

// Configure opens the device and sets frequency, sample rate, gain and
// frequency correction (spec §6 Recognized Configuration).
func (d *Device) Configure(frequency, sampleRate uint32, gainDB float64, ppmError int) error {
	var err error

	d.device, err = rtlsdr.Open(d.index)
	if err != nil {
		return fmt.Errorf("failed to open device: %w", err)
	}
	d.isOpen = true

	if err := d.device.SetCenterFreq(int(frequency)); err != nil {
		return fmt.Errorf("failed to set frequency: %w", err)
	}
	if err := d.device.SetSampleRate(int(sampleRate)); err != nil {
		return fmt.Errorf("failed to set sample rate: %w", err)
	}
	if ppmError != 0 {
		if err := d.device.SetFreqCorrection(ppmError); err != nil {
			return fmt.Errorf("failed to set ppm correction: %w", err)
		}
	}

	if gainDB == 0 {
		if err := d.device.SetTunerGainMode(false); err != nil {
			return fmt.Errorf("failed to set auto gain: %w", err)
		}
	} else {
		if err := d.device.SetTunerGainMode(true); err != nil {
			return fmt.Errorf("failed to set manual gain mode: %w", err)
		}
		gainTenths := int(gainDB * 10)
		if err := d.device.SetTunerGain(gainTenths); err != nil {
			return fmt.Errorf("failed to set gain: %w", err)
		}
	}

	if err := d.device.ResetBuffer(); err != nil {
		return fmt.Errorf("failed to reset buffer: %w", err)
	}

	d.logger.WithFields(logrus.Fields{
		"device_index": d.index,
		"frequency":    frequency,
		"sample_rate":  sampleRate,
		"gain_db":      gainDB,
		"ppm_error":    ppmError,
	}).Info("RTL-SDR device configured")

	return nil
}

// StartCapture streams raw IQ bytes into dataChan until ctx is canceled,
// dropping buffers if the consumer can't keep up (spec §5).
func (d *Device) StartCapture(ctx context.Context, dataChan chan<- []byte) error {
	if !d.isOpen {
		return errors.New("device not open")
	}

	captureCtx, cancel := context.WithCancel(ctx)
	d.cancelFn = cancel

	bufLen := 16 * BufferChunkSize

	callback := func(data []byte) {
		cp := make([]byte, len(data))
		copy(cp, data)
		select {
		case dataChan <- cp:
		case <-captureCtx.Done():
		default:
			d.logger.Debug("dropping IQ buffer, channel full")
		}
	}

	d.logger.Info("starting RTL-SDR capture")

	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.logger.WithField("panic", r).Error("RTL-SDR capture panic")
			}
		}()
		if err := d.device.ReadAsync(callback, nil, 0, bufLen); err != nil {
			d.logger.WithError(err).Error("RTL-SDR read async failed")
		}
	}()

	<-captureCtx.Done()

	if err := d.device.CancelAsync(); err != nil {
		d.logger.WithError(err).Error("failed to cancel async reading")
	}
	return nil
}

// Close cancels any in-flight capture and closes the device.
func (d *Device) Close() error {
	if d.cancelFn != nil {
		d.cancelFn()
	}
	if d.device != nil && d.isOpen {
		if err := d.device.Close(); err != nil {
			return fmt.Errorf("failed to close device: %w", err)
		}
		d.isOpen = false
		d.logger.Info("RTL-SDR device closed")
	}
	return nil
}
