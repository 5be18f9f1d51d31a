package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(t *testing.T, hhmm string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, "2026-03-01T"+hhmm+":00Z")
	require.NoError(t, err)
	return ts
}

func iv(t *testing.T, start, end string) Interval {
	t.Helper()
	return Interval{Start: at(t, start), End: at(t, end)}
}

func TestIntervalOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", iv(t, "10:00", "11:00"), iv(t, "10:00", "11:00"), true},
		{"partial", iv(t, "10:00", "11:00"), iv(t, "10:30", "11:30"), true},
		{"contained", iv(t, "09:00", "12:00"), iv(t, "10:00", "11:00"), true},
		{"touching end to start", iv(t, "09:00", "10:00"), iv(t, "10:00", "11:00"), false},
		{"touching start to end", iv(t, "10:00", "11:00"), iv(t, "09:00", "10:00"), false},
		{"disjoint", iv(t, "09:00", "10:00"), iv(t, "11:00", "12:00"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Overlaps(tc.b))
			assert.Equal(t, tc.want, tc.b.Overlaps(tc.a), "overlap must be symmetric")
		})
	}
}

func TestIntervalContains(t *testing.T) {
	span := iv(t, "09:00", "12:00")

	assert.True(t, span.Contains(iv(t, "09:00", "12:00")))
	assert.True(t, span.Contains(iv(t, "09:00", "10:00")))
	assert.True(t, span.Contains(iv(t, "11:00", "12:00")))
	assert.False(t, span.Contains(iv(t, "08:59", "10:00")))
	assert.False(t, span.Contains(iv(t, "11:00", "12:01")))
}

func TestSubtract(t *testing.T) {
	span := iv(t, "09:00", "12:00")

	t.Run("middle leaves two pieces", func(t *testing.T) {
		got := span.Subtract(iv(t, "10:00", "11:00"))
		require.Len(t, got, 2)
		assert.Equal(t, iv(t, "09:00", "10:00"), got[0])
		assert.Equal(t, iv(t, "11:00", "12:00"), got[1])
	})

	t.Run("head leaves tail", func(t *testing.T) {
		got := span.Subtract(iv(t, "09:00", "10:00"))
		require.Len(t, got, 1)
		assert.Equal(t, iv(t, "10:00", "12:00"), got[0])
	})

	t.Run("full cover leaves nothing", func(t *testing.T) {
		assert.Empty(t, span.Subtract(iv(t, "08:00", "13:00")))
	})

	t.Run("disjoint leaves span", func(t *testing.T) {
		got := span.Subtract(iv(t, "13:00", "14:00"))
		require.Len(t, got, 1)
		assert.Equal(t, span, got[0])
	})
}

func TestSubtractAll(t *testing.T) {
	span := iv(t, "09:00", "18:00")

	t.Run("no busy returns span", func(t *testing.T) {
		got := SubtractAll(span, nil)
		require.Len(t, got, 1)
		assert.Equal(t, span, got[0])
	})

	t.Run("unsorted busy with overlap between themselves", func(t *testing.T) {
		busy := []Interval{
			iv(t, "14:00", "16:00"),
			iv(t, "10:00", "11:00"),
			iv(t, "15:00", "17:00"),
		}
		got := SubtractAll(span, busy)
		require.Len(t, got, 3)
		assert.Equal(t, iv(t, "09:00", "10:00"), got[0])
		assert.Equal(t, iv(t, "11:00", "14:00"), got[1])
		assert.Equal(t, iv(t, "17:00", "18:00"), got[2])
	})

	t.Run("busy extending past both edges", func(t *testing.T) {
		busy := []Interval{iv(t, "08:00", "10:00"), iv(t, "17:00", "19:00")}
		got := SubtractAll(span, busy)
		require.Len(t, got, 1)
		assert.Equal(t, iv(t, "10:00", "17:00"), got[0])
	})

	t.Run("touching bookings leave no sliver", func(t *testing.T) {
		busy := []Interval{iv(t, "09:00", "10:00"), iv(t, "10:00", "11:00")}
		got := SubtractAll(span, busy)
		require.Len(t, got, 1)
		assert.Equal(t, iv(t, "11:00", "18:00"), got[0])
	})

	t.Run("fully booked", func(t *testing.T) {
		assert.Empty(t, SubtractAll(span, []Interval{iv(t, "09:00", "18:00")}))
	})

	t.Run("busy outside span ignored", func(t *testing.T) {
		got := SubtractAll(span, []Interval{iv(t, "19:00", "20:00")})
		require.Len(t, got, 1)
		assert.Equal(t, span, got[0])
	})
}
