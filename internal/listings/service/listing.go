package service

import (
	"context"
	"errors"
	"sync"

	listingserrors "courtside/internal/listings/errors"
	"courtside/internal/listings/repository"
	"courtside/internal/listings/validator"
	"courtside/pkg/config"
	apperrors "courtside/pkg/errors"
	"courtside/pkg/model"
	"courtside/pkg/sanitizer"
)

// SearchQuery is a radius search request. Radius <= 0 with Set means the
// caller sent a nonsensical radius; unset falls back to the configured
// default.
type SearchQuery struct {
	Lat       float64
	Lng       float64
	Radius    float64
	RadiusSet bool
	CourtType string
	Limit     int
	Offset    int64
}

type ListingService interface {
	Create(ctx context.Context, actorID string, l *model.Listing) error
	GetByID(ctx context.Context, id string) (*model.Listing, error)
	GetByOwner(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.Listing, int64, error)
	Update(ctx context.Context, actorID, id string, updates *model.ListingUpdate) error
	Deactivate(ctx context.Context, actorID, id string) error
	Reactivate(ctx context.Context, actorID, id string) error
	SearchNearby(ctx context.Context, q SearchQuery) ([]*model.Listing, error)
}

type listingService struct {
	repo      repository.ListingRepository
	validator *validator.ListingValidator
	cfg       *config.Config
}

func NewListingService(
	repo repository.ListingRepository,
	validator *validator.ListingValidator,
	cfg *config.Config,
) ListingService {
	return &listingService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *listingService) Create(ctx context.Context, actorID string, l *model.Listing) error {
	l.OwnerID = actorID
	l.IsActive = true
	s.sanitize(l)

	if err := s.validator.Validate(l); err != nil {
		s.cfg.Log.Warn("Listing validation failed",
			"name", l.Name,
			"owner_id", l.OwnerID,
			"error", err,
		)
		return apperrors.Validation("Listing validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Create(ctx, l); err != nil {
		s.cfg.Log.Error("Failed to create listing",
			"name", l.Name,
			"owner_id", l.OwnerID,
			"error", err,
		)
		return apperrors.Internal("Failed to create listing", err)
	}

	s.cfg.Log.Info("Listing created successfully",
		"id", l.ID,
		"name", l.Name,
		"owner_id", l.OwnerID,
		"court_type", l.CourtType,
	)

	return nil
}

func (s *listingService) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Listing ID cannot be empty")
	}

	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, listingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Listing", id)
		}
		if errors.Is(err, listingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid listing ID format")
		}
		s.cfg.Log.Error("Failed to get listing by ID",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve listing", err)
	}

	return l, nil
}

func (s *listingService) GetByOwner(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.Listing, int64, error) {
	if ownerID == "" {
		return nil, 0, apperrors.InvalidInput("Owner ID cannot be empty")
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var listings []*model.Listing
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountByOwner(ctx, ownerID)
		if err != nil {
			s.cfg.Log.Error("Failed to count listings", "owner_id", ownerID, "error", err)
			errCount = apperrors.Internal("Failed to count listings", err)
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		listings, err = s.repo.FindByOwner(ctx, ownerID, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to get listings by owner",
				"owner_id", ownerID,
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve listings", err)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return listings, count, nil
}

func (s *listingService) Update(ctx context.Context, actorID, id string, updates *model.ListingUpdate) error {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.assertOwner(ctx, actorID, existing); err != nil {
		return err
	}

	s.sanitizeUpdate(updates)
	merged, err := s.mergeListingUpdates(existing, updates)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(merged); err != nil {
		s.cfg.Log.Warn("Listing validation failed",
			"id", id,
			"name", merged.Name,
			"error", err,
		)
		return apperrors.Validation("Listing validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if _, err := s.repo.Update(ctx, id, merged); err != nil {
		s.cfg.Log.Error("Failed to update listing",
			"id", id,
			"error", err,
		)
		return apperrors.Internal("Failed to update listing", err)
	}

	s.cfg.Log.Info("Listing updated successfully",
		"id", id,
		"name", merged.Name,
	)

	return nil
}

func (s *listingService) Deactivate(ctx context.Context, actorID, id string) error {
	return s.setActive(ctx, actorID, id, false)
}

func (s *listingService) Reactivate(ctx context.Context, actorID, id string) error {
	return s.setActive(ctx, actorID, id, true)
}

func (s *listingService) setActive(ctx context.Context, actorID, id string, active bool) error {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.assertOwner(ctx, actorID, existing); err != nil {
		return err
	}

	if err := s.repo.SetActive(ctx, id, active); err != nil {
		s.cfg.Log.Error("Failed to change listing active state",
			"id", id,
			"active", active,
			"error", err,
		)
		return apperrors.Internal("Failed to change listing state", err)
	}

	s.cfg.Log.Info("Listing active state changed",
		"id", id,
		"active", active,
	)

	return nil
}

func (s *listingService) SearchNearby(ctx context.Context, q SearchQuery) ([]*model.Listing, error) {
	if !model.ValidLatLng(q.Lat, q.Lng) {
		return nil, apperrors.InvalidInput("latitude must be in [-90, 90] and longitude in [-180, 180]")
	}

	radius := q.Radius
	if !q.RadiusSet {
		radius = s.cfg.DefaultSearchRadiusMeters
	}
	if radius <= 0 {
		return nil, apperrors.InvalidInput("radius must be positive")
	}
	if radius > s.cfg.MaxSearchRadiusMeters {
		radius = s.cfg.MaxSearchRadiusMeters
	}

	courtType := sanitizer.NormalizeLabel(q.CourtType)
	limit := config.NormalizePaginationLimit(q.Limit)
	offset := config.NormalizeOffset(q.Offset)

	listings, err := s.repo.SearchNearby(ctx, q.Lat, q.Lng, radius, courtType, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to search listings",
			"lat", q.Lat,
			"lng", q.Lng,
			"radius_m", radius,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to search listings", err)
	}

	s.cfg.Log.Debug("Listing search completed",
		"lat", q.Lat,
		"lng", q.Lng,
		"radius_m", radius,
		"results_count", len(listings),
	)

	return listings, nil
}

// assertOwner allows the listing's owner through directly. When a delegated
// identity is presented and an auth service is configured, ownership is
// checked there; upstream failures surface as retryable errors, never as a
// silent allow.
func (s *listingService) assertOwner(ctx context.Context, actorID string, l *model.Listing) error {
	if actorID == "" {
		return apperrors.Unauthorized("Caller identity is required")
	}
	if l.OwnerID == actorID {
		return nil
	}

	if s.cfg.Client.Auth != nil {
		isOwner, err := s.cfg.Client.Auth.IsListingOwner(ctx, actorID, l.ID)
		if err != nil {
			return err
		}
		if isOwner {
			return nil
		}
	}

	return apperrors.Forbidden("Only the listing owner may perform this operation")
}

func (s *listingService) sanitize(l *model.Listing) {
	l.Name = sanitizer.NormalizeName(l.Name)
	l.Description = sanitizer.TrimAndNormalize(l.Description)
	l.Address = sanitizer.NormalizeAddress(l.Address)
	l.CourtType = sanitizer.NormalizeLabel(l.CourtType)
	l.Amenities = sanitizer.NormalizeLabels(l.Amenities)
}

func (s *listingService) sanitizeUpdate(updates *model.ListingUpdate) {
	if updates.Name != "" {
		updates.Name = sanitizer.NormalizeName(updates.Name)
	}
	if updates.Description != nil {
		normalized := sanitizer.TrimAndNormalize(*updates.Description)
		updates.Description = &normalized
	}
	if updates.Address != "" {
		updates.Address = sanitizer.NormalizeAddress(updates.Address)
	}
	if updates.CourtType != "" {
		updates.CourtType = sanitizer.NormalizeLabel(updates.CourtType)
	}
	if updates.Amenities != nil {
		updates.Amenities = sanitizer.NormalizeLabels(updates.Amenities)
	}
}

func (s *listingService) mergeListingUpdates(existing *model.Listing, updates *model.ListingUpdate) (*model.Listing, error) {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Description != nil {
		merged.Description = *updates.Description
	}
	if updates.Address != "" {
		merged.Address = updates.Address
	}
	if updates.CourtType != "" {
		merged.CourtType = updates.CourtType
	}
	if updates.HourlyRate != nil {
		merged.HourlyRate = *updates.HourlyRate
	}
	if updates.DailyRate != nil {
		merged.DailyRate = updates.DailyRate
	}
	if updates.Amenities != nil {
		merged.Amenities = updates.Amenities
	}

	// Coordinates move together or not at all.
	if (updates.Latitude == nil) != (updates.Longitude == nil) {
		return nil, apperrors.InvalidInput("latitude and longitude must be provided together")
	}
	if updates.Latitude != nil {
		merged.Location = model.NewGeoPoint(*updates.Latitude, *updates.Longitude)
	}

	return &merged, nil
}
