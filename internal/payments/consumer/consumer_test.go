package consumer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtside/pkg/client"
	"courtside/pkg/config"
	apperrors "courtside/pkg/errors"
	"courtside/pkg/kafka"
	"courtside/pkg/logger"
	"courtside/pkg/model"
)

type mockLifecycle struct {
	confirmFunc func(ctx context.Context, bookingID string) error
	cancelFunc  func(ctx context.Context, actor model.Actor, actorID, bookingID string) error

	confirmed []string
	cancelled []string
}

func (m *mockLifecycle) Confirm(ctx context.Context, bookingID string) error {
	m.confirmed = append(m.confirmed, bookingID)
	if m.confirmFunc != nil {
		return m.confirmFunc(ctx, bookingID)
	}
	return nil
}

func (m *mockLifecycle) Cancel(ctx context.Context, actor model.Actor, actorID, bookingID string) error {
	m.cancelled = append(m.cancelled, bookingID)
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, actor, actorID, bookingID)
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.FormatJSON,
			Service: "test",
		}),
		Client:       client.New(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

func paymentMessage(eventType string, event PaymentEvent) kafka.Message {
	return kafka.NewMessage().
		WithKey(event.BookingID).
		WithValue(event).
		WithEventType(eventType).
		Build()
}

func TestHandle_PaymentSucceededConfirms(t *testing.T) {
	lifecycle := &mockLifecycle{}
	c := NewPaymentConsumer(lifecycle, testConfig())

	msg := paymentMessage(EventPaymentSucceeded, PaymentEvent{BookingID: "booking-1", Amount: 5000})
	err := c.Handle(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, []string{"booking-1"}, lifecycle.confirmed)
	assert.Empty(t, lifecycle.cancelled)
}

func TestHandle_PaymentFailedCancelsAsPayments(t *testing.T) {
	var gotActor model.Actor
	lifecycle := &mockLifecycle{
		cancelFunc: func(ctx context.Context, actor model.Actor, actorID, bookingID string) error {
			gotActor = actor
			return nil
		},
	}
	c := NewPaymentConsumer(lifecycle, testConfig())

	msg := paymentMessage(EventPaymentFailed, PaymentEvent{BookingID: "booking-1", Reason: "card_declined"})
	err := c.Handle(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, model.ActorPayments, gotActor)
	assert.Equal(t, []string{"booking-1"}, lifecycle.cancelled)
}

func TestHandle_ConflictAcknowledged(t *testing.T) {
	// A duplicate delivery after the booking already settled must not spin
	// on retries.
	lifecycle := &mockLifecycle{
		confirmFunc: func(ctx context.Context, bookingID string) error {
			return apperrors.Conflict("Booking cannot be confirmed")
		},
	}
	c := NewPaymentConsumer(lifecycle, testConfig())

	msg := paymentMessage(EventPaymentSucceeded, PaymentEvent{BookingID: "booking-1"})
	err := c.Handle(context.Background(), msg)
	assert.NoError(t, err)
}

func TestHandle_UnknownBookingIsPermanent(t *testing.T) {
	lifecycle := &mockLifecycle{
		confirmFunc: func(ctx context.Context, bookingID string) error {
			return apperrors.NotFoundWithID("Booking", bookingID)
		},
	}
	c := NewPaymentConsumer(lifecycle, testConfig())

	msg := paymentMessage(EventPaymentSucceeded, PaymentEvent{BookingID: "booking-1"})
	err := c.Handle(context.Background(), msg)
	require.Error(t, err)
	assert.False(t, kafka.ShouldRetry(err, 0, 3))
}

func TestHandle_InternalErrorIsTransient(t *testing.T) {
	lifecycle := &mockLifecycle{
		confirmFunc: func(ctx context.Context, bookingID string) error {
			return apperrors.Internal("store unavailable", nil)
		},
	}
	c := NewPaymentConsumer(lifecycle, testConfig())

	msg := paymentMessage(EventPaymentSucceeded, PaymentEvent{BookingID: "booking-1"})
	err := c.Handle(context.Background(), msg)
	require.Error(t, err)
	assert.True(t, kafka.ShouldRetry(err, 0, 3))
}

func TestHandle_UnknownEventTypeIgnored(t *testing.T) {
	lifecycle := &mockLifecycle{}
	c := NewPaymentConsumer(lifecycle, testConfig())

	msg := paymentMessage("payment.refund_initiated", PaymentEvent{BookingID: "booking-1"})
	err := c.Handle(context.Background(), msg)
	assert.NoError(t, err)
	assert.Empty(t, lifecycle.confirmed)
	assert.Empty(t, lifecycle.cancelled)
}

func TestHandle_MalformedPayloadIsPermanent(t *testing.T) {
	c := NewPaymentConsumer(&mockLifecycle{}, testConfig())

	msg := kafka.NewMessage().
		WithRawValue([]byte("{not json")).
		WithEventType(EventPaymentSucceeded).
		Build()

	err := c.Handle(context.Background(), msg)
	require.Error(t, err)
	assert.False(t, kafka.ShouldRetry(err, 0, 3))
}

func TestHandle_MissingBookingIDIsPermanent(t *testing.T) {
	c := NewPaymentConsumer(&mockLifecycle{}, testConfig())

	msg := paymentMessage(EventPaymentSucceeded, PaymentEvent{})
	err := c.Handle(context.Background(), msg)
	require.Error(t, err)
	assert.False(t, kafka.ShouldRetry(err, 0, 3))
}
