package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"courtside/internal/listings/validator"
	"courtside/pkg/client"
	"courtside/pkg/config"
	mongotx "courtside/pkg/db/mongo"
	apperrors "courtside/pkg/errors"
	"courtside/pkg/logger"
	"courtside/pkg/model"
)

// Mock repository for testing
type mockListingRepository struct {
	createFunc       func(ctx context.Context, l *model.Listing) error
	findByIDFunc     func(ctx context.Context, id string) (*model.Listing, error)
	findByOwnerFunc  func(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.Listing, error)
	countByOwnerFunc func(ctx context.Context, ownerID string) (int64, error)
	updateFunc       func(ctx context.Context, id string, l *model.Listing) (*mongo.UpdateResult, error)
	setActiveFunc    func(ctx context.Context, id string, active bool) error
	searchFunc       func(ctx context.Context, lat, lng, radiusMeters float64, courtType string, limit int, offset int64) ([]*model.Listing, error)
}

func (m *mockListingRepository) Create(ctx context.Context, l *model.Listing) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, l)
	}
	l.ID = "507f1f77bcf86cd799439011"
	return nil
}

func (m *mockListingRepository) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.Listing{ID: id}, nil
}

func (m *mockListingRepository) FindByOwner(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.Listing, error) {
	if m.findByOwnerFunc != nil {
		return m.findByOwnerFunc(ctx, ownerID, limit, offset)
	}
	return []*model.Listing{}, nil
}

func (m *mockListingRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	if m.countByOwnerFunc != nil {
		return m.countByOwnerFunc(ctx, ownerID)
	}
	return 0, nil
}

func (m *mockListingRepository) Update(ctx context.Context, id string, l *model.Listing) (*mongo.UpdateResult, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, l)
	}
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockListingRepository) SetActive(ctx context.Context, id string, active bool) error {
	if m.setActiveFunc != nil {
		return m.setActiveFunc(ctx, id, active)
	}
	return nil
}

func (m *mockListingRepository) SearchNearby(ctx context.Context, lat, lng, radiusMeters float64, courtType string, limit int, offset int64) ([]*model.Listing, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, lat, lng, radiusMeters, courtType, limit, offset)
	}
	return []*model.Listing{}, nil
}

func (m *mockListingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.FormatJSON,
			Service: "test",
		}),
		Client:                    client.New(),
		ReadTimeout:               5 * time.Second,
		WriteTimeout:              5 * time.Second,
		DefaultSearchRadiusMeters: 8046.7,
		MaxSearchRadiusMeters:     80467,
	}
}

func newService(repo *mockListingRepository, cfg *config.Config) *listingService {
	return &listingService{
		repo:      repo,
		validator: validator.NewListingValidator(),
		cfg:       cfg,
	}
}

func validListing() *model.Listing {
	return &model.Listing{
		Name:       "Downtown Tennis Court",
		Address:    "123 Main St",
		CourtType:  "Tennis",
		Location:   model.NewGeoPoint(40.7128, -74.0060),
		HourlyRate: 2500,
	}
}

func TestCreate_SetsOwnerAndSanitizes(t *testing.T) {
	var stored *model.Listing
	repo := &mockListingRepository{
		createFunc: func(ctx context.Context, l *model.Listing) error {
			stored = l
			l.ID = "507f1f77bcf86cd799439011"
			return nil
		},
	}
	svc := newService(repo, testConfig())

	l := validListing()
	l.Name = "  Downtown   Tennis Court "
	l.CourtType = " TENNIS "
	l.Amenities = []string{"Lights", "lights", " Showers "}

	err := svc.Create(context.Background(), "owner-1", l)
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Equal(t, "owner-1", stored.OwnerID)
	assert.True(t, stored.IsActive)
	assert.Equal(t, "Downtown Tennis Court", stored.Name)
	assert.Equal(t, "tennis", stored.CourtType)
	assert.Equal(t, []string{"lights", "showers"}, stored.Amenities)
}

func TestCreate_ValidationFailure(t *testing.T) {
	svc := newService(&mockListingRepository{}, testConfig())

	l := validListing()
	l.Name = ""

	err := svc.Create(context.Background(), "owner-1", l)
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)
}

func TestCreate_RejectsOutOfRangeCoordinates(t *testing.T) {
	svc := newService(&mockListingRepository{}, testConfig())

	l := validListing()
	l.Location = model.NewGeoPoint(91, 0)

	err := svc.Create(context.Background(), "owner-1", l)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.AsAppError(err).Code)
}

func TestUpdate_ForbiddenForNonOwner(t *testing.T) {
	repo := &mockListingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Listing, error) {
			l := validListing()
			l.ID = id
			l.OwnerID = "owner-1"
			return l, nil
		},
	}
	svc := newService(repo, testConfig())

	err := svc.Update(context.Background(), "intruder", "507f1f77bcf86cd799439011", &model.ListingUpdate{Name: "New Name"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.AsAppError(err).Code)
}

func TestUpdate_RequiresBothCoordinates(t *testing.T) {
	repo := &mockListingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Listing, error) {
			l := validListing()
			l.ID = id
			l.OwnerID = "owner-1"
			return l, nil
		},
	}
	svc := newService(repo, testConfig())

	lat := 41.0
	err := svc.Update(context.Background(), "owner-1", "507f1f77bcf86cd799439011", &model.ListingUpdate{Latitude: &lat})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.AsAppError(err).Code)
}

func TestSearchNearby_InvalidCoordinates(t *testing.T) {
	svc := newService(&mockListingRepository{}, testConfig())

	_, err := svc.SearchNearby(context.Background(), SearchQuery{Lat: 91, Lng: 0})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.AsAppError(err).Code)

	_, err = svc.SearchNearby(context.Background(), SearchQuery{Lat: 0, Lng: -181})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.AsAppError(err).Code)
}

func TestSearchNearby_RejectsNonPositiveRadius(t *testing.T) {
	svc := newService(&mockListingRepository{}, testConfig())

	_, err := svc.SearchNearby(context.Background(), SearchQuery{Lat: 40, Lng: -74, Radius: 0, RadiusSet: true})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.AsAppError(err).Code)
}

func TestSearchNearby_DefaultAndCappedRadius(t *testing.T) {
	var gotRadius float64
	repo := &mockListingRepository{
		searchFunc: func(ctx context.Context, lat, lng, radiusMeters float64, courtType string, limit int, offset int64) ([]*model.Listing, error) {
			gotRadius = radiusMeters
			return []*model.Listing{}, nil
		},
	}
	cfg := testConfig()
	svc := newService(repo, cfg)

	_, err := svc.SearchNearby(context.Background(), SearchQuery{Lat: 40, Lng: -74})
	require.NoError(t, err)
	assert.Equal(t, cfg.DefaultSearchRadiusMeters, gotRadius)

	_, err = svc.SearchNearby(context.Background(), SearchQuery{Lat: 40, Lng: -74, Radius: 1e9, RadiusSet: true})
	require.NoError(t, err)
	assert.Equal(t, cfg.MaxSearchRadiusMeters, gotRadius)
}

func TestGetByOwner_ParallelCountAndFind(t *testing.T) {
	repo := &mockListingRepository{
		countByOwnerFunc: func(ctx context.Context, ownerID string) (int64, error) {
			time.Sleep(5 * time.Millisecond)
			return 7, nil
		},
		findByOwnerFunc: func(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.Listing, error) {
			time.Sleep(5 * time.Millisecond)
			return []*model.Listing{{ID: "a"}, {ID: "b"}}, nil
		},
	}
	svc := newService(repo, testConfig())

	listings, total, err := svc.GetByOwner(context.Background(), "owner-1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(7), total)
	assert.Len(t, listings, 2)
}
