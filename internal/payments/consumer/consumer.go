package consumer

import (
	"context"
	"fmt"

	"courtside/pkg/config"
	apperrors "courtside/pkg/errors"
	"courtside/pkg/kafka"
	"courtside/pkg/logger"
	"courtside/pkg/model"
)

const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
)

// PaymentEvent is the payload the payment collaborator emits on its topic.
type PaymentEvent struct {
	BookingID string `json:"booking_id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// BookingLifecycle is the slice of the booking service payment outcomes
// drive.
type BookingLifecycle interface {
	Confirm(ctx context.Context, bookingID string) error
	Cancel(ctx context.Context, actor model.Actor, actorID, bookingID string) error
}

// PaymentConsumer maps payment outcome events onto booking transitions:
// payment.succeeded confirms the hold, payment.failed cancels it.
type PaymentConsumer struct {
	bookings BookingLifecycle
	cfg      *config.Config
}

func NewPaymentConsumer(bookings BookingLifecycle, cfg *config.Config) *PaymentConsumer {
	return &PaymentConsumer{
		bookings: bookings,
		cfg:      cfg,
	}
}

// Handle is the kafka.MessageHandler for the payment events topic. Unknown
// event types are acknowledged and skipped; malformed payloads are permanent
// failures so they route to the DLQ instead of looping.
func (c *PaymentConsumer) Handle(ctx context.Context, msg kafka.Message) error {
	eventType := msg.GetEventType()

	var event PaymentEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("failed to decode payment event", err)
	}
	if event.BookingID == "" {
		return kafka.NewPermanentError("payment event missing booking_id", nil)
	}

	log := c.cfg.Log.With(
		"event_type", eventType,
		"event_id", msg.GetEventID(),
		"booking_id", event.BookingID,
	)

	switch eventType {
	case EventPaymentSucceeded:
		if err := c.bookings.Confirm(ctx, event.BookingID); err != nil {
			return classifyLifecycleError(log, "confirm", err)
		}
		log.Info("Booking confirmed from payment event")
		return nil

	case EventPaymentFailed:
		if err := c.bookings.Cancel(ctx, model.ActorPayments, "", event.BookingID); err != nil {
			return classifyLifecycleError(log, "cancel", err)
		}
		log.Info("Booking cancelled from payment failure")
		return nil

	default:
		log.Warn("Ignoring unknown payment event type")
		return nil
	}
}

// classifyLifecycleError decides whether a failed transition is worth a
// redelivery. Conflict means the booking already moved on (duplicate
// delivery, or the sweep got there first) and NotFound never heals, so both
// acknowledge. Everything else is transient.
func classifyLifecycleError(log *logger.Logger, op string, err error) error {
	switch apperrors.AsAppError(err).Code {
	case apperrors.CodeConflict:
		log.Warn("Booking transition skipped, state already settled", "operation", op, "error", err)
		return nil
	case apperrors.CodeNotFound, apperrors.CodeInvalidInput:
		log.Warn("Booking transition skipped, booking unknown", "operation", op, "error", err)
		return kafka.NewPermanentError(fmt.Sprintf("booking cannot be resolved for %s", op), err)
	default:
		return kafka.NewTransientError(fmt.Sprintf("failed to %s booking", op), err)
	}
}
