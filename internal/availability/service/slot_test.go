package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"courtside/internal/availability/validator"
	"courtside/pkg/client"
	"courtside/pkg/config"
	mongotx "courtside/pkg/db/mongo"
	apperrors "courtside/pkg/errors"
	"courtside/pkg/logger"
	"courtside/pkg/model"
)

type mockSlotRepository struct {
	createFunc          func(ctx context.Context, s *model.AvailabilitySlot) error
	findByIDFunc        func(ctx context.Context, id string) (*model.AvailabilitySlot, error)
	deleteFunc          func(ctx context.Context, id string) error
	findByListingFunc   func(ctx context.Context, listingID string, from, to *time.Time) ([]*model.AvailabilitySlot, error)
	findOverlappingFunc func(ctx context.Context, listingID string, start, end time.Time) ([]*model.AvailabilitySlot, error)
	findCoveringFunc    func(ctx context.Context, listingID string, start, end time.Time) (*model.AvailabilitySlot, error)
}

func (m *mockSlotRepository) Create(ctx context.Context, s *model.AvailabilitySlot) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, s)
	}
	s.ID = "507f1f77bcf86cd799439021"
	return nil
}

func (m *mockSlotRepository) FindByID(ctx context.Context, id string) (*model.AvailabilitySlot, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.AvailabilitySlot{ID: id}, nil
}

func (m *mockSlotRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockSlotRepository) FindByListing(ctx context.Context, listingID string, from, to *time.Time) ([]*model.AvailabilitySlot, error) {
	if m.findByListingFunc != nil {
		return m.findByListingFunc(ctx, listingID, from, to)
	}
	return []*model.AvailabilitySlot{}, nil
}

func (m *mockSlotRepository) FindOverlapping(ctx context.Context, listingID string, start, end time.Time) ([]*model.AvailabilitySlot, error) {
	if m.findOverlappingFunc != nil {
		return m.findOverlappingFunc(ctx, listingID, start, end)
	}
	return []*model.AvailabilitySlot{}, nil
}

func (m *mockSlotRepository) FindCovering(ctx context.Context, listingID string, start, end time.Time) (*model.AvailabilitySlot, error) {
	if m.findCoveringFunc != nil {
		return m.findCoveringFunc(ctx, listingID, start, end)
	}
	return &model.AvailabilitySlot{ListingID: listingID, StartTime: start, EndTime: end}, nil
}

func (m *mockSlotRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockListingSource struct {
	getByIDFunc func(ctx context.Context, id string) (*model.Listing, error)
}

func (m *mockListingSource) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &model.Listing{ID: id, OwnerID: "owner-1", IsActive: true}, nil
}

type mockBookingSource struct {
	intervalsFunc func(ctx context.Context, listingID string, start, end time.Time) ([]model.Interval, error)
}

func (m *mockBookingSource) FindActiveIntervals(ctx context.Context, listingID string, start, end time.Time) ([]model.Interval, error) {
	if m.intervalsFunc != nil {
		return m.intervalsFunc(ctx, listingID, start, end)
	}
	return []model.Interval{}, nil
}

type mockLockRepository struct {
	acquired int32
	released int32

	acquireFunc func(ctx context.Context, listingID string) error
}

func (m *mockLockRepository) Acquire(ctx context.Context, listingID string) error {
	if m.acquireFunc != nil {
		return m.acquireFunc(ctx, listingID)
	}
	atomic.AddInt32(&m.acquired, 1)
	return nil
}

func (m *mockLockRepository) Release(ctx context.Context, listingID string) error {
	atomic.AddInt32(&m.released, 1)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.FormatJSON,
			Service: "test",
		}),
		Client:                  client.New(),
		ReadTimeout:             5 * time.Second,
		WriteTimeout:            5 * time.Second,
		AdmissionMaxRetries:     2,
		AdmissionRetryBackoff:   time.Millisecond,
		MaxFreeIntervalsPerSlot: 50,
	}
}

func newSlotService(repo *mockSlotRepository, listings *mockListingSource, bookings *mockBookingSource, locks *mockLockRepository, cfg *config.Config) *slotService {
	return &slotService{
		repo:      repo,
		listings:  listings,
		bookings:  bookings,
		locks:     locks,
		validator: validator.NewSlotValidator(),
		cfg:       cfg,
	}
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

func validSlot(t *testing.T) *model.AvailabilitySlot {
	return &model.AvailabilitySlot{
		ListingID: "507f1f77bcf86cd799439011",
		StartTime: mustTime(t, "2026-09-01T09:00:00Z"),
		EndTime:   mustTime(t, "2026-09-01T18:00:00Z"),
	}
}

func TestCreateSlot_Succeeds(t *testing.T) {
	var stored *model.AvailabilitySlot
	repo := &mockSlotRepository{
		createFunc: func(ctx context.Context, s *model.AvailabilitySlot) error {
			stored = s
			s.ID = "507f1f77bcf86cd799439021"
			return nil
		},
	}
	locks := &mockLockRepository{}
	svc := newSlotService(repo, &mockListingSource{}, &mockBookingSource{}, locks, testConfig())

	slot := validSlot(t)
	err := svc.CreateSlot(context.Background(), "owner-1", slot)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "507f1f77bcf86cd799439021", slot.ID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&locks.acquired))
	assert.Equal(t, int32(1), atomic.LoadInt32(&locks.released))
}

func TestCreateSlot_RejectsInvertedInterval(t *testing.T) {
	svc := newSlotService(&mockSlotRepository{}, &mockListingSource{}, &mockBookingSource{}, &mockLockRepository{}, testConfig())

	slot := validSlot(t)
	slot.StartTime, slot.EndTime = slot.EndTime, slot.StartTime

	err := svc.CreateSlot(context.Background(), "owner-1", slot)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.AsAppError(err).Code)
}

func TestCreateSlot_RejectsZeroLengthInterval(t *testing.T) {
	svc := newSlotService(&mockSlotRepository{}, &mockListingSource{}, &mockBookingSource{}, &mockLockRepository{}, testConfig())

	slot := validSlot(t)
	slot.EndTime = slot.StartTime

	err := svc.CreateSlot(context.Background(), "owner-1", slot)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.AsAppError(err).Code)
}

func TestCreateSlot_ForbiddenForNonOwner(t *testing.T) {
	svc := newSlotService(&mockSlotRepository{}, &mockListingSource{}, &mockBookingSource{}, &mockLockRepository{}, testConfig())

	err := svc.CreateSlot(context.Background(), "intruder", validSlot(t))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.AsAppError(err).Code)
}

func TestCreateSlot_ConflictOnInactiveListing(t *testing.T) {
	listings := &mockListingSource{
		getByIDFunc: func(ctx context.Context, id string) (*model.Listing, error) {
			return &model.Listing{ID: id, OwnerID: "owner-1", IsActive: false}, nil
		},
	}
	svc := newSlotService(&mockSlotRepository{}, listings, &mockBookingSource{}, &mockLockRepository{}, testConfig())

	err := svc.CreateSlot(context.Background(), "owner-1", validSlot(t))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, apperrors.AsAppError(err).Code)
}

func TestCreateSlot_ConflictOnOverlap(t *testing.T) {
	repo := &mockSlotRepository{
		findOverlappingFunc: func(ctx context.Context, listingID string, start, end time.Time) ([]*model.AvailabilitySlot, error) {
			return []*model.AvailabilitySlot{{ID: "existing"}}, nil
		},
	}
	locks := &mockLockRepository{}
	svc := newSlotService(repo, &mockListingSource{}, &mockBookingSource{}, locks, testConfig())

	err := svc.CreateSlot(context.Background(), "owner-1", validSlot(t))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, apperrors.AsAppError(err).Code)

	// Lock must be released even when the transaction fails.
	assert.Equal(t, int32(1), atomic.LoadInt32(&locks.released))
}

func TestCreateSlot_TouchingSlotIsNotOverlap(t *testing.T) {
	// The repository's half-open filter excludes touching slots; the service
	// must pass the slot's bounds through unchanged.
	var gotStart, gotEnd time.Time
	repo := &mockSlotRepository{
		findOverlappingFunc: func(ctx context.Context, listingID string, start, end time.Time) ([]*model.AvailabilitySlot, error) {
			gotStart, gotEnd = start, end
			return nil, nil
		},
	}
	svc := newSlotService(repo, &mockListingSource{}, &mockBookingSource{}, &mockLockRepository{}, testConfig())

	slot := validSlot(t)
	err := svc.CreateSlot(context.Background(), "owner-1", slot)
	require.NoError(t, err)
	assert.Equal(t, slot.StartTime, gotStart)
	assert.Equal(t, slot.EndTime, gotEnd)
}

func TestCreateSlot_ConflictWhenLockHeld(t *testing.T) {
	duplicate := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	locks := &mockLockRepository{
		acquireFunc: func(ctx context.Context, listingID string) error {
			return duplicate
		},
	}
	svc := newSlotService(&mockSlotRepository{}, &mockListingSource{}, &mockBookingSource{}, locks, testConfig())

	err := svc.CreateSlot(context.Background(), "owner-1", validSlot(t))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, apperrors.AsAppError(err).Code)
}

func TestDeleteSlot_ConflictWithActiveBookings(t *testing.T) {
	repo := &mockSlotRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.AvailabilitySlot, error) {
			s := validSlot(t)
			s.ID = id
			return s, nil
		},
	}
	bookings := &mockBookingSource{
		intervalsFunc: func(ctx context.Context, listingID string, start, end time.Time) ([]model.Interval, error) {
			return []model.Interval{{Start: start, End: start.Add(time.Hour)}}, nil
		},
	}
	svc := newSlotService(repo, &mockListingSource{}, bookings, &mockLockRepository{}, testConfig())

	err := svc.DeleteSlot(context.Background(), "owner-1", "507f1f77bcf86cd799439021")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, apperrors.AsAppError(err).Code)
}

func TestDeleteSlot_Succeeds(t *testing.T) {
	deleted := false
	repo := &mockSlotRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.AvailabilitySlot, error) {
			s := validSlot(t)
			s.ID = id
			return s, nil
		},
		deleteFunc: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}
	locks := &mockLockRepository{}
	svc := newSlotService(repo, &mockListingSource{}, &mockBookingSource{}, locks, testConfig())

	err := svc.DeleteSlot(context.Background(), "owner-1", "507f1f77bcf86cd799439021")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, int32(1), atomic.LoadInt32(&locks.released))
}

func TestListSlots_AnnotatesFreeIntervals(t *testing.T) {
	slot := validSlot(t)
	slot.ID = "507f1f77bcf86cd799439021"

	repo := &mockSlotRepository{
		findByListingFunc: func(ctx context.Context, listingID string, from, to *time.Time) ([]*model.AvailabilitySlot, error) {
			return []*model.AvailabilitySlot{slot}, nil
		},
	}
	bookings := &mockBookingSource{
		intervalsFunc: func(ctx context.Context, listingID string, start, end time.Time) ([]model.Interval, error) {
			return []model.Interval{
				{Start: mustTime(t, "2026-09-01T10:00:00Z"), End: mustTime(t, "2026-09-01T11:00:00Z")},
				{Start: mustTime(t, "2026-09-01T14:00:00Z"), End: mustTime(t, "2026-09-01T15:30:00Z")},
			}, nil
		},
	}
	svc := newSlotService(repo, &mockListingSource{}, bookings, &mockLockRepository{}, testConfig())

	result, err := svc.ListSlots(context.Background(), slot.ListingID, nil, nil)
	require.NoError(t, err)
	require.Len(t, result, 1)

	free := result[0].Free
	require.Len(t, free, 3)
	assert.Equal(t, mustTime(t, "2026-09-01T09:00:00Z"), free[0].Start)
	assert.Equal(t, mustTime(t, "2026-09-01T10:00:00Z"), free[0].End)
	assert.Equal(t, mustTime(t, "2026-09-01T11:00:00Z"), free[1].Start)
	assert.Equal(t, mustTime(t, "2026-09-01T14:00:00Z"), free[1].End)
	assert.Equal(t, mustTime(t, "2026-09-01T15:30:00Z"), free[2].Start)
	assert.Equal(t, mustTime(t, "2026-09-01T18:00:00Z"), free[2].End)
}

func TestListSlots_FullyBookedSlotHasNoFreeIntervals(t *testing.T) {
	slot := validSlot(t)
	repo := &mockSlotRepository{
		findByListingFunc: func(ctx context.Context, listingID string, from, to *time.Time) ([]*model.AvailabilitySlot, error) {
			return []*model.AvailabilitySlot{slot}, nil
		},
	}
	bookings := &mockBookingSource{
		intervalsFunc: func(ctx context.Context, listingID string, start, end time.Time) ([]model.Interval, error) {
			return []model.Interval{{Start: start, End: end}}, nil
		},
	}
	svc := newSlotService(repo, &mockListingSource{}, bookings, &mockLockRepository{}, testConfig())

	result, err := svc.ListSlots(context.Background(), slot.ListingID, nil, nil)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Empty(t, result[0].Free)
}

func TestListSlots_EmptyListingID(t *testing.T) {
	svc := newSlotService(&mockSlotRepository{}, &mockListingSource{}, &mockBookingSource{}, &mockLockRepository{}, testConfig())

	_, err := svc.ListSlots(context.Background(), "", nil, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.AsAppError(err).Code)
}
