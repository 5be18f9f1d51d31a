package model

import "time"

// AvailabilitySlot is an owner-declared open window on a listing. Slots of
// the same listing never overlap each other; bookings consume sub-intervals
// of a slot without splitting the slot record itself.
type AvailabilitySlot struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ListingID string    `json:"listing_id" bson:"listing_id" validate:"required,mongodb"`
	StartTime time.Time `json:"start_time" bson:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

func (s *AvailabilitySlot) Span() Interval {
	return Interval{Start: s.StartTime, End: s.EndTime}
}

// SlotAvailability is a slot annotated with the sub-intervals not currently
// held by a pending or confirmed booking.
type SlotAvailability struct {
	Slot AvailabilitySlot `json:"slot"`
	Free []Interval       `json:"free"`
}
