package service

import (
	"context"
	"errors"
	"time"

	availerrors "courtside/internal/availability/errors"
	"courtside/internal/availability/repository"
	"courtside/internal/availability/validator"
	lockrepo "courtside/internal/locks/repository"
	"courtside/pkg/config"
	apperrors "courtside/pkg/errors"
	"courtside/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// ListingSource resolves listings for ownership and active checks.
type ListingSource interface {
	GetByID(ctx context.Context, id string) (*model.Listing, error)
}

// BookingIntervalSource reports the intervals currently held by pending or
// confirmed bookings of a listing within a window.
type BookingIntervalSource interface {
	FindActiveIntervals(ctx context.Context, listingID string, start, end time.Time) ([]model.Interval, error)
}

type SlotService interface {
	CreateSlot(ctx context.Context, actorID string, s *model.AvailabilitySlot) error
	DeleteSlot(ctx context.Context, actorID, slotID string) error
	GetSlot(ctx context.Context, slotID string) (*model.AvailabilitySlot, error)

	// ListSlots returns the listing's slots intersecting the window, each
	// annotated with the sub-intervals not consumed by active bookings.
	ListSlots(ctx context.Context, listingID string, from, to *time.Time) ([]model.SlotAvailability, error)
}

type slotService struct {
	repo      repository.SlotRepository
	listings  ListingSource
	bookings  BookingIntervalSource
	locks     lockrepo.ListingLockRepository
	validator *validator.SlotValidator
	cfg       *config.Config
}

func NewSlotService(
	repo repository.SlotRepository,
	listings ListingSource,
	bookings BookingIntervalSource,
	locks lockrepo.ListingLockRepository,
	validator *validator.SlotValidator,
	cfg *config.Config,
) SlotService {
	return &slotService{
		repo:      repo,
		listings:  listings,
		bookings:  bookings,
		locks:     locks,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *slotService) CreateSlot(ctx context.Context, actorID string, slot *model.AvailabilitySlot) error {
	if err := s.validator.Validate(slot); err != nil {
		s.cfg.Log.Warn("Availability slot validation failed",
			"listing_id", slot.ListingID,
			"error", err,
		)
		return apperrors.Validation("Availability slot validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	listing, err := s.listings.GetByID(ctx, slot.ListingID)
	if err != nil {
		return err
	}
	if err := s.assertOwner(actorID, listing); err != nil {
		return err
	}
	if !listing.IsActive {
		return apperrors.Conflict("Cannot add availability to an inactive listing")
	}

	// The per-listing lock serializes slot writes against each other and
	// against booking admission, so the overlap check inside the
	// transaction cannot race a concurrent insert.
	if err := lockrepo.AcquireWithRetry(ctx, s.locks, slot.ListingID, s.cfg.AdmissionMaxRetries, s.cfg.AdmissionRetryBackoff); err != nil {
		if errors.Is(err, lockrepo.ErrLockHeld) {
			return apperrors.Conflict("Listing is being modified concurrently, retry shortly")
		}
		return apperrors.Internal("Failed to acquire listing lock", err)
	}
	defer func() {
		if releaseErr := s.locks.Release(context.WithoutCancel(ctx), slot.ListingID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release listing lock",
				"listing_id", slot.ListingID,
				"error", releaseErr,
			)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		overlapping, err := s.repo.FindOverlapping(sessCtx, slot.ListingID, slot.StartTime, slot.EndTime)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return apperrors.Conflict("Availability slot overlaps an existing slot").WithDetails(map[string]any{
				"conflicting_slot_id": overlapping[0].ID,
			})
		}

		return s.repo.Create(sessCtx, slot)
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		s.cfg.Log.Error("Failed to create availability slot",
			"listing_id", slot.ListingID,
			"error", err,
		)
		return apperrors.Internal("Failed to create availability slot", err)
	}

	s.cfg.Log.Info("Availability slot created",
		"id", slot.ID,
		"listing_id", slot.ListingID,
		"start_time", slot.StartTime,
		"end_time", slot.EndTime,
	)

	return nil
}

func (s *slotService) DeleteSlot(ctx context.Context, actorID, slotID string) error {
	slot, err := s.GetSlot(ctx, slotID)
	if err != nil {
		return err
	}

	listing, err := s.listings.GetByID(ctx, slot.ListingID)
	if err != nil {
		return err
	}
	if err := s.assertOwner(actorID, listing); err != nil {
		return err
	}

	if err := lockrepo.AcquireWithRetry(ctx, s.locks, slot.ListingID, s.cfg.AdmissionMaxRetries, s.cfg.AdmissionRetryBackoff); err != nil {
		if errors.Is(err, lockrepo.ErrLockHeld) {
			return apperrors.Conflict("Listing is being modified concurrently, retry shortly")
		}
		return apperrors.Internal("Failed to acquire listing lock", err)
	}
	defer func() {
		if releaseErr := s.locks.Release(context.WithoutCancel(ctx), slot.ListingID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release listing lock",
				"listing_id", slot.ListingID,
				"error", releaseErr,
			)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		busy, err := s.bookings.FindActiveIntervals(sessCtx, slot.ListingID, slot.StartTime, slot.EndTime)
		if err != nil {
			return err
		}
		if len(busy) > 0 {
			return apperrors.Conflict("Availability slot has active bookings").WithDetails(map[string]any{
				"active_bookings": len(busy),
			})
		}

		return s.repo.Delete(sessCtx, slotID)
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		s.cfg.Log.Error("Failed to delete availability slot",
			"id", slotID,
			"error", err,
		)
		return apperrors.Internal("Failed to delete availability slot", err)
	}

	s.cfg.Log.Info("Availability slot deleted",
		"id", slotID,
		"listing_id", slot.ListingID,
	)

	return nil
}

func (s *slotService) GetSlot(ctx context.Context, slotID string) (*model.AvailabilitySlot, error) {
	if slotID == "" {
		return nil, apperrors.InvalidInput("Slot ID cannot be empty")
	}

	slot, err := s.repo.FindByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, availerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Availability slot", slotID)
		}
		if errors.Is(err, availerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid slot ID format")
		}
		s.cfg.Log.Error("Failed to get availability slot",
			"id", slotID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve availability slot", err)
	}

	return slot, nil
}

func (s *slotService) ListSlots(ctx context.Context, listingID string, from, to *time.Time) ([]model.SlotAvailability, error) {
	if listingID == "" {
		return nil, apperrors.InvalidInput("Listing ID cannot be empty")
	}

	slots, err := s.repo.FindByListing(ctx, listingID, from, to)
	if err != nil {
		s.cfg.Log.Error("Failed to list availability slots",
			"listing_id", listingID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to list availability slots", err)
	}

	result := make([]model.SlotAvailability, 0, len(slots))
	for _, slot := range slots {
		busy, err := s.bookings.FindActiveIntervals(ctx, listingID, slot.StartTime, slot.EndTime)
		if err != nil {
			s.cfg.Log.Error("Failed to load booked intervals",
				"listing_id", listingID,
				"slot_id", slot.ID,
				"error", err,
			)
			return nil, apperrors.Internal("Failed to compute free intervals", err)
		}

		free := model.SubtractAll(slot.Span(), busy)
		if len(free) > s.cfg.MaxFreeIntervalsPerSlot {
			free = free[:s.cfg.MaxFreeIntervalsPerSlot]
		}

		result = append(result, model.SlotAvailability{
			Slot: *slot,
			Free: free,
		})
	}

	return result, nil
}

func (s *slotService) assertOwner(actorID string, listing *model.Listing) error {
	if actorID == "" {
		return apperrors.Unauthorized("Caller identity is required")
	}
	if listing.OwnerID != actorID {
		return apperrors.Forbidden("Only the listing owner may manage availability")
	}
	return nil
}
