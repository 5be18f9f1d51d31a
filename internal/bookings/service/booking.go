package service

import (
	"context"
	"errors"
	"time"

	availerrors "courtside/internal/availability/errors"
	bookingerrors "courtside/internal/bookings/errors"
	"courtside/internal/bookings/repository"
	"courtside/internal/bookings/validator"
	lockrepo "courtside/internal/locks/repository"
	"courtside/pkg/config"
	apperrors "courtside/pkg/errors"
	"courtside/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// ListingSource resolves listings for admission and authorization checks.
type ListingSource interface {
	GetByID(ctx context.Context, id string) (*model.Listing, error)
}

// SlotSource answers whether a single availability slot covers an interval.
type SlotSource interface {
	FindCovering(ctx context.Context, listingID string, start, end time.Time) (*model.AvailabilitySlot, error)
}

type BookingService interface {
	// Request admits a new booking: the interval must sit inside one
	// availability slot and not intersect any pending or confirmed booking.
	// On success the booking is pending with a hold token and deadline.
	Request(ctx context.Context, renterID string, b *model.Booking) error

	// Confirm flips a pending booking to confirmed and marks it paid. A
	// hold past its deadline stays confirmable until the sweep cancels it.
	Confirm(ctx context.Context, bookingID string) error

	// Cancel ends a pending or confirmed booking on behalf of actor,
	// freeing its interval immediately.
	Cancel(ctx context.Context, actor model.Actor, actorID, bookingID string) error

	Get(ctx context.Context, bookingID string) (*model.Booking, error)
	ListByRenter(ctx context.Context, renterID string, limit int, offset int64) ([]*model.Booking, error)
	ListByListing(ctx context.Context, actorID, listingID string, limit int, offset int64) ([]*model.Booking, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	listings  ListingSource
	slots     SlotSource
	locks     lockrepo.ListingLockRepository
	producer  EventPublisher
	validator *validator.BookingValidator
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	listings ListingSource,
	slots SlotSource,
	locks lockrepo.ListingLockRepository,
	producer EventPublisher,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		listings:  listings,
		slots:     slots,
		locks:     locks,
		producer:  producer,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *bookingService) Request(ctx context.Context, renterID string, b *model.Booking) error {
	if renterID == "" {
		return apperrors.Unauthorized("Caller identity is required")
	}

	b.RenterID = renterID
	b.Status = model.BookingPending
	b.PaymentStatus = model.PaymentPending

	if err := s.validator.ValidateRequest(b); err != nil {
		s.cfg.Log.Warn("Booking request validation failed",
			"listing_id", b.ListingID,
			"error", err,
		)
		return apperrors.Validation("Booking request validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	listing, err := s.listings.GetByID(ctx, b.ListingID)
	if err != nil {
		return err
	}
	if !listing.IsActive {
		return apperrors.Conflict("Listing is not accepting bookings")
	}
	if listing.OwnerID == renterID {
		return apperrors.Forbidden("Owners cannot book their own listing")
	}

	// Containment check before taking the lock: the requested interval must
	// fit inside a single slot. Slots only change under the same lock, so a
	// stale read here is re-protected by the overlap recheck below.
	if _, err := s.slots.FindCovering(ctx, b.ListingID, b.StartTime, b.EndTime); err != nil {
		if errors.Is(err, availerrors.ErrNotFound) {
			return apperrors.Validation("Requested interval is outside the listing's availability", map[string]any{
				"start_time": b.StartTime,
				"end_time":   b.EndTime,
			})
		}
		s.cfg.Log.Error("Failed to check slot coverage",
			"listing_id", b.ListingID,
			"error", err,
		)
		return apperrors.Internal("Failed to check availability", err)
	}

	b.TotalAmount = computeTotalAmount(listing, b.Interval())
	b.HoldToken = uuid.New().String()
	b.HoldExpiresAt = s.cfg.Clock.Now().Add(s.cfg.HoldDuration)

	if err := lockrepo.AcquireWithRetry(ctx, s.locks, b.ListingID, s.cfg.AdmissionMaxRetries, s.cfg.AdmissionRetryBackoff); err != nil {
		if errors.Is(err, lockrepo.ErrLockHeld) {
			return apperrors.Conflict("Listing is busy with another booking attempt, retry shortly")
		}
		return apperrors.Internal("Failed to acquire listing lock", err)
	}
	defer func() {
		if releaseErr := s.locks.Release(context.WithoutCancel(ctx), b.ListingID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release listing lock",
				"listing_id", b.ListingID,
				"error", releaseErr,
			)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		conflicting, err := s.repo.FindActiveOverlapping(sessCtx, b.ListingID, b.StartTime, b.EndTime)
		if err != nil {
			return err
		}
		if len(conflicting) > 0 {
			return apperrors.Conflict("Requested interval conflicts with an existing booking").WithDetails(map[string]any{
				"conflicting_booking_id": conflicting[0].ID,
			})
		}

		return s.repo.Create(sessCtx, b)
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		s.cfg.Log.Error("Failed to admit booking",
			"listing_id", b.ListingID,
			"error", err,
		)
		return apperrors.Internal("Failed to create booking", err)
	}

	s.cfg.Log.Info("Booking admitted",
		"id", b.ID,
		"listing_id", b.ListingID,
		"renter_id", b.RenterID,
		"start_time", b.StartTime,
		"end_time", b.EndTime,
		"total_amount", b.TotalAmount,
		"hold_expires_at", b.HoldExpiresAt,
	)

	publishEvent(ctx, s.producer, s.cfg.Log, EventBookingRequested, b, s.cfg.Clock.Now())
	return nil
}

func (s *bookingService) Confirm(ctx context.Context, bookingID string) error {
	booking, err := s.Get(ctx, bookingID)
	if err != nil {
		return err
	}

	result, err := s.repo.ConfirmIf(ctx, bookingID)
	if err != nil {
		s.cfg.Log.Error("Failed to confirm booking",
			"id", bookingID,
			"error", err,
		)
		return apperrors.Internal("Failed to confirm booking", err)
	}

	if result.MatchedCount == 0 {
		// Lost the race or the booking was never pending. Re-read to report
		// precisely what happened.
		current, err := s.Get(ctx, bookingID)
		if err != nil {
			return err
		}
		if current.Status == model.BookingCancelled && current.CancelReason == model.ReasonHoldExpired {
			return apperrors.Conflict("Booking hold has expired").WithDetails(map[string]any{
				"hold_expired_at": current.HoldExpiresAt,
			})
		}
		return apperrors.Conflict("Booking cannot be confirmed").WithDetails(map[string]any{
			"status": current.Status,
		})
	}

	booking.Status = model.BookingConfirmed
	booking.PaymentStatus = model.PaymentPaid

	s.cfg.Log.Info("Booking confirmed",
		"id", bookingID,
		"listing_id", booking.ListingID,
	)

	publishEvent(ctx, s.producer, s.cfg.Log, EventBookingConfirmed, booking, s.cfg.Clock.Now())
	return nil
}

func (s *bookingService) Cancel(ctx context.Context, actor model.Actor, actorID, bookingID string) error {
	booking, err := s.Get(ctx, bookingID)
	if err != nil {
		return err
	}

	reason, err := s.authorizeCancel(ctx, actor, actorID, booking)
	if err != nil {
		return err
	}

	if booking.Status.Terminal() {
		return apperrors.Conflict("Booking is already finalized").WithDetails(map[string]any{
			"status": booking.Status,
		})
	}

	// A confirmed booking was paid; cancelling it triggers a refund.
	payment := booking.PaymentStatus
	if booking.Status == model.BookingConfirmed {
		payment = model.PaymentRefunded
	}

	result, err := s.repo.CancelIf(ctx, bookingID, []model.BookingStatus{model.BookingPending, model.BookingConfirmed}, reason, payment)
	if err != nil {
		s.cfg.Log.Error("Failed to cancel booking",
			"id", bookingID,
			"error", err,
		)
		return apperrors.Internal("Failed to cancel booking", err)
	}
	if result.MatchedCount == 0 {
		current, err := s.Get(ctx, bookingID)
		if err != nil {
			return err
		}
		return apperrors.Conflict("Booking cannot be cancelled").WithDetails(map[string]any{
			"status": current.Status,
		})
	}

	booking.Status = model.BookingCancelled
	booking.CancelReason = reason
	booking.PaymentStatus = payment

	s.cfg.Log.Info("Booking cancelled",
		"id", bookingID,
		"listing_id", booking.ListingID,
		"actor", actor,
		"reason", reason,
	)

	publishEvent(ctx, s.producer, s.cfg.Log, EventBookingCancelled, booking, s.cfg.Clock.Now())
	return nil
}

// authorizeCancel maps the acting party to a cancel reason, enforcing
// ownership and the renter notice-period gate on confirmed bookings.
func (s *bookingService) authorizeCancel(ctx context.Context, actor model.Actor, actorID string, b *model.Booking) (model.CancelReason, error) {
	switch actor {
	case model.ActorRenter:
		if actorID == "" {
			return "", apperrors.Unauthorized("Caller identity is required")
		}
		if b.RenterID != actorID {
			return "", apperrors.Forbidden("Only the renter may cancel their booking")
		}
		if b.Status == model.BookingConfirmed && s.cfg.CancelNoticePeriod > 0 {
			if s.cfg.Clock.Now().Add(s.cfg.CancelNoticePeriod).After(b.StartTime) {
				return "", apperrors.Conflict("Cancellation window has closed").WithDetails(map[string]any{
					"notice_period": s.cfg.CancelNoticePeriod.String(),
					"start_time":    b.StartTime,
				})
			}
		}
		return model.ReasonRenterCancelled, nil

	case model.ActorOwner:
		if actorID == "" {
			return "", apperrors.Unauthorized("Caller identity is required")
		}
		listing, err := s.listings.GetByID(ctx, b.ListingID)
		if err != nil {
			return "", err
		}
		if listing.OwnerID != actorID {
			return "", apperrors.Forbidden("Only the listing owner may cancel this booking")
		}
		return model.ReasonOwnerCancelled, nil

	case model.ActorPayments:
		return model.ReasonPaymentFailed, nil

	default:
		return "", apperrors.Forbidden("Unknown cancelling party")
	}
}

func (s *bookingService) Get(ctx context.Context, bookingID string) (*model.Booking, error) {
	if bookingID == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", bookingID)
		}
		if errors.Is(err, bookingerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		s.cfg.Log.Error("Failed to get booking",
			"id", bookingID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

func (s *bookingService) ListByRenter(ctx context.Context, renterID string, limit int, offset int64) ([]*model.Booking, error) {
	if renterID == "" {
		return nil, apperrors.Unauthorized("Caller identity is required")
	}

	bookings, err := s.repo.FindByRenter(ctx, renterID, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings by renter",
			"renter_id", renterID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to list bookings", err)
	}
	return bookings, nil
}

func (s *bookingService) ListByListing(ctx context.Context, actorID, listingID string, limit int, offset int64) ([]*model.Booking, error) {
	if actorID == "" {
		return nil, apperrors.Unauthorized("Caller identity is required")
	}
	if listingID == "" {
		return nil, apperrors.InvalidInput("Listing ID cannot be empty")
	}

	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID != actorID {
		return nil, apperrors.Forbidden("Only the listing owner may view its bookings")
	}

	bookings, err := s.repo.FindByListing(ctx, listingID, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings by listing",
			"listing_id", listingID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to list bookings", err)
	}
	return bookings, nil
}

// computeTotalAmount prices an interval in minor units: partial hours round
// up, and when the listing carries a daily rate, each full 24h block is
// billed at the daily rate with the remainder capped at one more day.
func computeTotalAmount(listing *model.Listing, iv model.Interval) int64 {
	hours := int64(iv.Duration() / time.Hour)
	if iv.Duration()%time.Hour != 0 {
		hours++
	}

	if listing.DailyRate == nil {
		return hours * listing.HourlyRate
	}

	daily := *listing.DailyRate
	days := hours / 24
	remainder := (hours % 24) * listing.HourlyRate
	if remainder > daily {
		remainder = daily
	}
	return days*daily + remainder
}
