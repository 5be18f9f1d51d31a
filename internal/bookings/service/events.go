package service

import (
	"context"
	"time"

	"courtside/pkg/kafka"
	"courtside/pkg/logger"
	"courtside/pkg/model"
)

const (
	EventBookingRequested = "booking.requested"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventBookingCompleted = "booking.completed"

	eventSchemaVersion = "1"
	eventSource        = "courtside"
)

// BookingEvent is the payload carried on the booking events topic.
type BookingEvent struct {
	BookingID     string              `json:"booking_id"`
	ListingID     string              `json:"listing_id"`
	RenterID      string              `json:"renter_id"`
	StartTime     time.Time           `json:"start_time"`
	EndTime       time.Time           `json:"end_time"`
	TotalAmount   int64               `json:"total_amount"`
	Status        model.BookingStatus `json:"status"`
	CancelReason  model.CancelReason  `json:"cancel_reason,omitempty"`
	OccurredAt    time.Time           `json:"occurred_at"`
	SchemaVersion string              `json:"schema_version"`
}

// EventPublisher is the slice of the Kafka producer the ledger needs.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// publishEvent emits a lifecycle event keyed by listing ID so all events of
// one listing land on the same partition in order. Publish failures are
// logged, not propagated: the state change already committed and the sweep
// or a replay reconciles downstream consumers.
func publishEvent(ctx context.Context, producer EventPublisher, log *logger.Logger, eventType string, b *model.Booking, occurredAt time.Time) {
	if producer == nil {
		return
	}

	event := BookingEvent{
		BookingID:     b.ID,
		ListingID:     b.ListingID,
		RenterID:      b.RenterID,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		TotalAmount:   b.TotalAmount,
		Status:        b.Status,
		CancelReason:  b.CancelReason,
		OccurredAt:    occurredAt,
		SchemaVersion: eventSchemaVersion,
	}

	msg := kafka.NewMessage().
		WithKey(b.ListingID).
		WithValue(event).
		WithEventType(eventType).
		WithSchemaVersion(eventSchemaVersion).
		WithSource(eventSource).
		Build()

	if err := producer.Publish(ctx, msg); err != nil {
		log.Error("Failed to publish booking event",
			"event_type", eventType,
			"booking_id", b.ID,
			"listing_id", b.ListingID,
			"error", err,
		)
		return
	}

	log.Info("Booking event published",
		"event_type", eventType,
		"booking_id", b.ID,
		"listing_id", b.ListingID,
	)
}
