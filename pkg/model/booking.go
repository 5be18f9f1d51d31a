package model

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// Terminal reports whether no further transition may leave the status.
func (s BookingStatus) Terminal() bool {
	return s == BookingCancelled || s == BookingCompleted
}

// CanTransition encodes the booking state machine:
//
//	pending   -> confirmed | cancelled
//	confirmed -> completed | cancelled
//
// Everything else is rejected with an invalid-state error.
func CanTransition(from, to BookingStatus) bool {
	switch from {
	case BookingPending:
		return to == BookingConfirmed || to == BookingCancelled
	case BookingConfirmed:
		return to == BookingCompleted || to == BookingCancelled
	default:
		return false
	}
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// CancelReason records which path cancelled a booking. The sweep uses
// ReasonHoldExpired so a later confirm attempt can report the hold as
// expired rather than a generic invalid transition.
type CancelReason string

const (
	ReasonRenterCancelled CancelReason = "renter_cancelled"
	ReasonOwnerCancelled  CancelReason = "owner_cancelled"
	ReasonPaymentFailed   CancelReason = "payment_failed"
	ReasonHoldExpired     CancelReason = "hold_expired"
)

// Actor identifies who is driving a lifecycle operation.
type Actor string

const (
	ActorRenter   Actor = "renter"
	ActorOwner    Actor = "owner"
	ActorPayments Actor = "payments"
	ActorSweeper  Actor = "sweeper"
)

// Booking is a renter's claim on a sub-interval of a listing's availability.
// While pending it holds a soft lock bounded by HoldExpiresAt; once
// confirmed the claim is durable until cancelled or completed.
type Booking struct {
	ID        string `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ListingID string `json:"listing_id" bson:"listing_id" validate:"required,mongodb"`
	RenterID  string `json:"renter_id" bson:"renter_id" validate:"required,min=1,max=64"`

	StartTime time.Time `json:"start_time" bson:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`

	// TotalAmount is integer minor units.
	TotalAmount int64 `json:"total_amount" bson:"total_amount" validate:"min=0"`

	Status        BookingStatus `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled completed"`
	PaymentStatus PaymentStatus `json:"payment_status" bson:"payment_status" validate:"required,oneof=pending paid refunded"`

	HoldToken     string       `json:"hold_token,omitempty" bson:"hold_token,omitempty"`
	HoldExpiresAt time.Time    `json:"hold_expires_at,omitempty" bson:"hold_expires_at,omitempty"`
	CancelReason  CancelReason `json:"cancel_reason,omitempty" bson:"cancel_reason,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

func (b *Booking) Interval() Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}

// Active reports whether the booking currently holds its interval.
func (b *Booking) Active() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}

// HoldExpired reports whether the pending hold's nominal deadline has
// passed. The hold stays claimable until the sweep actually cancels it; see
// the ledger's confirm path.
func (b *Booking) HoldExpired(now time.Time) bool {
	return b.Status == BookingPending && !b.HoldExpiresAt.IsZero() && now.After(b.HoldExpiresAt)
}
