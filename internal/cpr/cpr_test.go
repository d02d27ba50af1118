package cpr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCPRNL(t *testing.T) {
	tests := []struct {
		name string
		lat  float64
		want int32
	}{
		{"equator", 0.0, 59},
		{"mid latitude", 45.0, 42},
		{"near pole", 87.0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cprNL(tt.lat))
		})
	}
}

func TestContextUpdateRequiresBothFrames(t *testing.T) {
	ctx := NewContext(16)
	now := time.Now()

	_, _, ok := ctx.Update(0xABCDEF, 93000, 51372, false, now)
	assert.False(t, ok, "a lone even frame must not decode")
}

func TestContextUpdateStaleFrameRejected(t *testing.T) {
	ctx := NewContext(16)
	base := time.Now()

	_, _, ok := ctx.Update(0xABCDEF, 93000, 51372, false, base)
	assert.False(t, ok)

	_, _, ok = ctx.Update(0xABCDEF, 74158, 50194, true, base.Add(11*time.Second))
	assert.False(t, ok, "frames more than 10s apart must not decode")
}

func TestContextUpdateDecodesWithinWindow(t *testing.T) {
	ctx := NewContext(16)
	base := time.Now()

	_, _, ok := ctx.Update(0x4840D6, 93000, 51372, false, base)
	assert.False(t, ok)

	lat, lon, ok := ctx.Update(0x4840D6, 74158, 50194, true, base.Add(3*time.Second))
	if assert.True(t, ok, "a fresh even/odd pair must decode") {
		assert.InDelta(t, 52.0, lat, 5.0)
		assert.GreaterOrEqual(t, lon, -180.0)
		assert.LessOrEqual(t, lon, 180.0)
	}
}

func TestContextEvictsAtCapacity(t *testing.T) {
	ctx := NewContext(2)

	ctx.Update(0x000001, 1, 1, false, time.Now())
	ctx.Update(0x000002, 1, 1, false, time.Now())
	ctx.Update(0x000003, 1, 1, false, time.Now())

	ctx.mu.Lock()
	n := len(ctx.states)
	ctx.mu.Unlock()
	assert.LessOrEqual(t, n, 2)
}
