package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"courtside/pkg/model"
)

func (f *fixture) sweeper() *Sweeper {
	return NewSweeper(f.repo, f.producer, f.cfg)
}

func TestSweepExpiredHolds_CancelsAndPublishes(t *testing.T) {
	f := newFixture(t)
	var gotReason model.CancelReason
	var gotFrom []model.BookingStatus

	f.repo.findExpiredHoldsFunc = func(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error) {
		b := validBooking(t)
		b.ID = "507f1f77bcf86cd799439031"
		b.Status = model.BookingPending
		b.HoldExpiresAt = now.Add(-time.Minute)
		return []*model.Booking{b}, nil
	}
	f.repo.cancelIfFunc = func(ctx context.Context, id string, from []model.BookingStatus, reason model.CancelReason, payment model.PaymentStatus) (*mongo.UpdateResult, error) {
		gotReason = reason
		gotFrom = from
		return &mongo.UpdateResult{MatchedCount: 1}, nil
	}

	swept, err := f.sweeper().SweepExpiredHolds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, swept)
	assert.Equal(t, model.ReasonHoldExpired, gotReason)
	assert.Equal(t, []model.BookingStatus{model.BookingPending}, gotFrom)
	assert.Equal(t, []string{EventBookingCancelled}, f.producer.eventTypes())
}

func TestSweepExpiredHolds_SkipsRacedBookings(t *testing.T) {
	// A confirm landed between the scan and the conditional update: the
	// update matches nothing and the sweep must not count or publish.
	f := newFixture(t)
	f.repo.findExpiredHoldsFunc = func(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error) {
		b := validBooking(t)
		b.ID = "507f1f77bcf86cd799439031"
		b.Status = model.BookingPending
		return []*model.Booking{b}, nil
	}
	f.repo.cancelIfFunc = func(ctx context.Context, id string, from []model.BookingStatus, reason model.CancelReason, payment model.PaymentStatus) (*mongo.UpdateResult, error) {
		return &mongo.UpdateResult{MatchedCount: 0}, nil
	}

	swept, err := f.sweeper().SweepExpiredHolds(context.Background())
	require.NoError(t, err)
	assert.Zero(t, swept)
	assert.Empty(t, f.producer.messages)
}

func TestSweepExpiredHolds_EmptyBatch(t *testing.T) {
	f := newFixture(t)

	swept, err := f.sweeper().SweepExpiredHolds(context.Background())
	require.NoError(t, err)
	assert.Zero(t, swept)
}

func TestCompleteElapsed_CompletesAndPublishes(t *testing.T) {
	f := newFixture(t)
	f.repo.findElapsedConfirmedFunc = func(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error) {
		b := validBooking(t)
		b.ID = "507f1f77bcf86cd799439031"
		b.Status = model.BookingConfirmed
		b.EndTime = now.Add(-time.Hour)
		return []*model.Booking{b}, nil
	}

	completed, err := f.sweeper().CompleteElapsed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, completed)
	assert.Equal(t, []string{EventBookingCompleted}, f.producer.eventTypes())
}

func TestCompleteElapsed_SkipsRacedBookings(t *testing.T) {
	f := newFixture(t)
	f.repo.findElapsedConfirmedFunc = func(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error) {
		b := validBooking(t)
		b.ID = "507f1f77bcf86cd799439031"
		b.Status = model.BookingConfirmed
		return []*model.Booking{b}, nil
	}
	f.repo.completeIfFunc = func(ctx context.Context, id string) (*mongo.UpdateResult, error) {
		return &mongo.UpdateResult{MatchedCount: 0}, nil
	}

	completed, err := f.sweeper().CompleteElapsed(context.Background())
	require.NoError(t, err)
	assert.Zero(t, completed)
	assert.Empty(t, f.producer.messages)
}
