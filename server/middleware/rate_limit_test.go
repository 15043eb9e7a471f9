package middleware

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowEnforcesBurst(t *testing.T) {
	rl := NewRateLimiter(1, 2)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))

	// Other keys have their own bucket.
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestIdleBucketsAreSwept(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	clock := time.Now()
	rl.now = func() time.Time { return clock }

	// Fill the map to the sweep threshold with distinct client IPs.
	for i := 0; i < sweepThreshold; i++ {
		rl.Allow(fmt.Sprintf("10.0.%d.%d", i/256, i%256))
	}
	assert.Len(t, rl.limits, sweepThreshold)

	// One client stays active past the expiry window.
	clock = clock.Add(bucketIdleExpiry)
	rl.Allow("10.0.0.0")

	// The next new key triggers a sweep that drops every idle bucket
	// but keeps the recently seen one.
	clock = clock.Add(time.Second)
	rl.Allow("192.168.0.1")

	assert.Len(t, rl.limits, 2)
	assert.Contains(t, rl.limits, "10.0.0.0")
	assert.Contains(t, rl.limits, "192.168.0.1")
}

func TestSweepKeepsRecentBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	clock := time.Now()
	rl.now = func() time.Time { return clock }

	rl.Allow("10.0.0.1")
	clock = clock.Add(bucketIdleExpiry / 2)

	rl.sweepLocked(rl.now())
	assert.Contains(t, rl.limits, "10.0.0.1")
}
