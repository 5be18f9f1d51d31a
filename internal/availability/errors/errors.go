package errors

import "errors"

var (
	ErrNotFound = errors.New("availability slot not found")

	ErrInvalidID = errors.New("invalid availability slot ID format")

	// ErrOverlap marks a slot that intersects an existing slot of the same
	// listing.
	ErrOverlap = errors.New("availability slot overlaps an existing slot")

	// ErrSlotInUse marks a delete attempt against a slot with active
	// bookings inside it.
	ErrSlotInUse = errors.New("availability slot has active bookings")
)
