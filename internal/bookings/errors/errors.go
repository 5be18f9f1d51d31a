package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrSlotConflict marks an admission attempt whose interval intersects
	// a pending or confirmed booking of the same listing.
	ErrSlotConflict = errors.New("booking interval conflicts with an existing booking")

	// ErrOutsideAvailability marks a requested interval not fully contained
	// in a single availability slot.
	ErrOutsideAvailability = errors.New("booking interval is outside the listing's availability")

	// ErrInvalidState marks a lifecycle transition the state machine rejects.
	ErrInvalidState = errors.New("invalid booking state transition")

	// ErrExpiredHold marks a confirm attempt on a hold the sweep already
	// cancelled.
	ErrExpiredHold = errors.New("booking hold has expired")
)
