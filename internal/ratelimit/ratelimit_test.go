package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		burst    int
		calls    int
		wantPass int
	}{
		{name: "burst allows initial requests", burst: 3, calls: 3, wantPass: 3},
		{name: "exceeding burst blocks", burst: 2, calls: 5, wantPass: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			krl := New(0.001, tt.burst)
			defer krl.Stop()

			passed := 0
			for range tt.calls {
				if krl.Allow("10.0.0.1") {
					passed++
				}
			}
			assert.Equal(t, tt.wantPass, passed)
		})
	}
}

func TestKeyedRateLimiter_KeysIndependent(t *testing.T) {
	krl := New(0.001, 1)
	defer krl.Stop()

	assert.True(t, krl.Allow("a"))
	assert.False(t, krl.Allow("a"))
	assert.True(t, krl.Allow("b"))
	assert.Equal(t, 2, krl.Len())
}

func TestKeyedRateLimiter_Wait(t *testing.T) {
	krl := New(0.001, 1)
	defer krl.Stop()

	require.NoError(t, krl.Wait(context.Background(), "k"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, krl.Wait(ctx, "k"))
}

func TestKeyedRateLimiter_SweepEvictsIdleKeys(t *testing.T) {
	krl := New(1, 1)
	defer krl.Stop()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	krl.now = func() time.Time { return now }

	krl.Allow("old")
	now = now.Add(idleTTL + time.Second)
	krl.Allow("fresh")

	krl.sweep()
	assert.Equal(t, 1, krl.Len())
}

func TestPerMinute(t *testing.T) {
	krl := PerMinute(60, 2)
	defer krl.Stop()

	assert.InDelta(t, 1.0, float64(krl.limit), 1e-9)
	assert.Equal(t, 2, krl.burst)
}

func TestStop_Idempotent(t *testing.T) {
	krl := New(1, 1)
	krl.Stop()
	krl.Stop()
}
