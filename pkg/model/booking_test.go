package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTable(t *testing.T) {
	all := []BookingStatus{BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted}

	allowed := map[[2]BookingStatus]bool{
		{BookingPending, BookingConfirmed}:   true,
		{BookingPending, BookingCancelled}:   true,
		{BookingConfirmed, BookingCompleted}: true,
		{BookingConfirmed, BookingCancelled}: true,
	}

	// Every pair not in the table must be rejected, including self
	// transitions and anything leaving a terminal state.
	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]BookingStatus{from, to}]
			assert.Equalf(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTerminal(t *testing.T) {
	assert.False(t, BookingPending.Terminal())
	assert.False(t, BookingConfirmed.Terminal())
	assert.True(t, BookingCancelled.Terminal())
	assert.True(t, BookingCompleted.Terminal())
}

func TestHoldExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	b := Booking{Status: BookingPending, HoldExpiresAt: now.Add(-time.Minute)}
	assert.True(t, b.HoldExpired(now))

	b.HoldExpiresAt = now.Add(time.Minute)
	assert.False(t, b.HoldExpired(now))

	// Only pending bookings carry a hold.
	b.Status = BookingConfirmed
	b.HoldExpiresAt = now.Add(-time.Minute)
	assert.False(t, b.HoldExpired(now))
}

func TestGeoPointRoundTrip(t *testing.T) {
	p := NewGeoPoint(40.7128, -74.0060)
	assert.Equal(t, "Point", p.Type)
	assert.Equal(t, 40.7128, p.Lat())
	assert.Equal(t, -74.0060, p.Lng())
}

func TestValidLatLng(t *testing.T) {
	assert.True(t, ValidLatLng(0, 0))
	assert.True(t, ValidLatLng(-90, 180))
	assert.True(t, ValidLatLng(90, -180))
	assert.False(t, ValidLatLng(90.0001, 0))
	assert.False(t, ValidLatLng(0, -180.0001))
}
