package service

import (
	"context"
	"time"

	listingsvc "courtside/internal/listings/service"
	"courtside/pkg/config"
	apperrors "courtside/pkg/errors"
	"courtside/pkg/model"
)

// ListingSearcher is the slice of the listings service the façade reads.
type ListingSearcher interface {
	GetByID(ctx context.Context, id string) (*model.Listing, error)
	SearchNearby(ctx context.Context, q listingsvc.SearchQuery) ([]*model.Listing, error)
}

// AvailabilityReader annotates listings with bookable windows.
type AvailabilityReader interface {
	ListSlots(ctx context.Context, listingID string, from, to *time.Time) ([]model.SlotAvailability, error)
}

// NearbyQuery extends the geo query with an optional time window the free
// intervals are computed against.
type NearbyQuery struct {
	listingsvc.SearchQuery
	From *time.Time
	To   *time.Time
}

// NearbyResult is a search hit with its bookable windows, already capped.
type NearbyResult struct {
	Listing *model.Listing   `json:"listing"`
	Free    []model.Interval `json:"free"`
}

// ListingDetail is the full read-side view of one listing.
type ListingDetail struct {
	Listing *model.Listing           `json:"listing"`
	Slots   []model.SlotAvailability `json:"slots"`
}

// SearchService is the composed read façade over listings, availability and
// bookings. It owns no state and never writes.
type SearchService interface {
	Nearby(ctx context.Context, q NearbyQuery) ([]NearbyResult, error)
	ListingDetail(ctx context.Context, listingID string, from, to *time.Time) (*ListingDetail, error)
}

type searchService struct {
	listings     ListingSearcher
	availability AvailabilityReader
	cfg          *config.Config
}

func NewSearchService(listings ListingSearcher, availability AvailabilityReader, cfg *config.Config) SearchService {
	return &searchService{
		listings:     listings,
		availability: availability,
		cfg:          cfg,
	}
}

func (s *searchService) Nearby(ctx context.Context, q NearbyQuery) ([]NearbyResult, error) {
	listings, err := s.listings.SearchNearby(ctx, q.SearchQuery)
	if err != nil {
		return nil, err
	}

	results := make([]NearbyResult, 0, len(listings))
	for _, listing := range listings {
		slots, err := s.availability.ListSlots(ctx, listing.ID, q.From, q.To)
		if err != nil {
			s.cfg.Log.Error("Failed to load availability for search hit",
				"listing_id", listing.ID,
				"error", err,
			)
			return nil, err
		}

		results = append(results, NearbyResult{
			Listing: listing,
			Free:    flattenFree(slots, s.cfg.MaxFreeIntervalsPerSlot),
		})
	}

	return results, nil
}

func (s *searchService) ListingDetail(ctx context.Context, listingID string, from, to *time.Time) (*ListingDetail, error) {
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}

	// Inactive listings are invisible on the read side, same as in search.
	if !listing.IsActive {
		return nil, apperrors.NotFoundWithID("Listing", listingID)
	}

	slots, err := s.availability.ListSlots(ctx, listingID, from, to)
	if err != nil {
		return nil, err
	}

	return &ListingDetail{
		Listing: listing,
		Slots:   slots,
	}, nil
}

// flattenFree merges the per-slot free intervals into one capped, ordered
// list. Slots are disjoint and sorted by start, so concatenation preserves
// order.
func flattenFree(slots []model.SlotAvailability, limit int) []model.Interval {
	free := make([]model.Interval, 0)
	for _, slot := range slots {
		free = append(free, slot.Free...)
		if len(free) >= limit {
			return free[:limit]
		}
	}
	return free
}
