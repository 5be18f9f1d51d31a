package service

import (
	"context"
	"time"

	"courtside/internal/bookings/repository"
	"courtside/pkg/config"
	"courtside/pkg/model"
)

// Sweeper drives the time-based booking transitions: cancelling pending
// holds past their deadline and completing confirmed bookings whose interval
// has elapsed. Every write is a conditional single-document update, so
// concurrent sweepers and in-flight confirm/cancel calls cannot double-apply
// a transition.
type Sweeper struct {
	repo     repository.BookingRepository
	producer EventPublisher
	cfg      *config.Config
}

func NewSweeper(repo repository.BookingRepository, producer EventPublisher, cfg *config.Config) *Sweeper {
	return &Sweeper{
		repo:     repo,
		producer: producer,
		cfg:      cfg,
	}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.cfg.Log.Info("Sweeper started",
		"interval", s.cfg.SweepInterval,
		"batch_size", s.cfg.SweepBatchSize,
	)

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.cfg.Log.Info("Sweeper stopped")
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	if _, err := s.SweepExpiredHolds(ctx); err != nil {
		s.cfg.Log.Error("Expired hold sweep failed", "error", err)
	}
	if _, err := s.CompleteElapsed(ctx); err != nil {
		s.cfg.Log.Error("Elapsed booking sweep failed", "error", err)
	}
}

// SweepExpiredHolds cancels pending bookings whose hold deadline has passed,
// recording hold_expired so a later confirm attempt gets a precise error.
// Returns the number of bookings actually cancelled by this sweep.
func (s *Sweeper) SweepExpiredHolds(ctx context.Context) (int, error) {
	now := s.cfg.Clock.Now()

	expired, err := s.repo.FindExpiredHolds(ctx, now, s.cfg.SweepBatchSize)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, b := range expired {
		result, err := s.repo.CancelIf(ctx, b.ID, []model.BookingStatus{model.BookingPending}, model.ReasonHoldExpired, b.PaymentStatus)
		if err != nil {
			s.cfg.Log.Error("Failed to sweep expired hold",
				"id", b.ID,
				"error", err,
			)
			continue
		}
		if result.MatchedCount == 0 {
			// Confirmed or cancelled between the scan and the update.
			continue
		}

		swept++
		b.Status = model.BookingCancelled
		b.CancelReason = model.ReasonHoldExpired

		s.cfg.Log.Info("Expired hold cancelled",
			"id", b.ID,
			"listing_id", b.ListingID,
			"hold_expired_at", b.HoldExpiresAt,
		)

		publishEvent(ctx, s.producer, s.cfg.Log, EventBookingCancelled, b, now)
	}

	return swept, nil
}

// CompleteElapsed flips confirmed bookings whose end time has passed to
// completed. Returns the number of bookings completed by this sweep.
func (s *Sweeper) CompleteElapsed(ctx context.Context) (int, error) {
	now := s.cfg.Clock.Now()

	elapsed, err := s.repo.FindElapsedConfirmed(ctx, now, s.cfg.SweepBatchSize)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, b := range elapsed {
		result, err := s.repo.CompleteIf(ctx, b.ID)
		if err != nil {
			s.cfg.Log.Error("Failed to complete elapsed booking",
				"id", b.ID,
				"error", err,
			)
			continue
		}
		if result.MatchedCount == 0 {
			continue
		}

		completed++
		b.Status = model.BookingCompleted

		s.cfg.Log.Info("Booking completed",
			"id", b.ID,
			"listing_id", b.ListingID,
			"end_time", b.EndTime,
		)

		publishEvent(ctx, s.producer, s.cfg.Log, EventBookingCompleted, b, now)
	}

	return completed, nil
}
