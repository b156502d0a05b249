package fraud

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKm(t *testing.T) {
	// New York to London is roughly 5570km.
	d := haversineKm(40.7128, -74.0060, 51.5074, -0.1278)
	assert.InDelta(t, 5570, d, 50)

	// Same point.
	assert.InDelta(t, 0, haversineKm(48.8566, 2.3522, 48.8566, 2.3522), 0.001)
}

func TestImplausibleTravel(t *testing.T) {
	// 1000km in 1 hour exceeds 900 km/h.
	assert.True(t, implausibleTravel(1000, time.Hour, 900))

	// 100km in 2 hours is fine.
	assert.False(t, implausibleTravel(100, 2*time.Hour, 900))

	// Any real distance in zero elapsed time is implausible.
	assert.True(t, implausibleTravel(50, 0, 900))

	// Sub-kilometre jitter is never flagged.
	assert.False(t, implausibleTravel(0.5, 0, 900))
}
