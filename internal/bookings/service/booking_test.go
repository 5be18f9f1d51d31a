package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	availerrors "courtside/internal/availability/errors"
	bookingerrors "courtside/internal/bookings/errors"
	"courtside/internal/bookings/validator"
	"courtside/pkg/client"
	"courtside/pkg/clock"
	"courtside/pkg/config"
	mongotx "courtside/pkg/db/mongo"
	apperrors "courtside/pkg/errors"
	"courtside/pkg/kafka"
	"courtside/pkg/logger"
	"courtside/pkg/model"
)

type mockBookingRepository struct {
	createFunc               func(ctx context.Context, b *model.Booking) error
	findByIDFunc             func(ctx context.Context, id string) (*model.Booking, error)
	findByRenterFunc         func(ctx context.Context, renterID string, limit int, offset int64) ([]*model.Booking, error)
	findByListingFunc        func(ctx context.Context, listingID string, limit int, offset int64) ([]*model.Booking, error)
	findActiveFunc           func(ctx context.Context, listingID string, start, end time.Time) ([]*model.Booking, error)
	confirmIfFunc            func(ctx context.Context, id string) (*mongo.UpdateResult, error)
	cancelIfFunc             func(ctx context.Context, id string, from []model.BookingStatus, reason model.CancelReason, payment model.PaymentStatus) (*mongo.UpdateResult, error)
	completeIfFunc           func(ctx context.Context, id string) (*mongo.UpdateResult, error)
	findExpiredHoldsFunc     func(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error)
	findElapsedConfirmedFunc func(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error)
}

func (m *mockBookingRepository) Create(ctx context.Context, b *model.Booking) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, b)
	}
	b.ID = "507f1f77bcf86cd799439031"
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.Booking{ID: id, Status: model.BookingPending}, nil
}

func (m *mockBookingRepository) FindByRenter(ctx context.Context, renterID string, limit int, offset int64) ([]*model.Booking, error) {
	if m.findByRenterFunc != nil {
		return m.findByRenterFunc(ctx, renterID, limit, offset)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) FindByListing(ctx context.Context, listingID string, limit int, offset int64) ([]*model.Booking, error) {
	if m.findByListingFunc != nil {
		return m.findByListingFunc(ctx, listingID, limit, offset)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) FindActiveOverlapping(ctx context.Context, listingID string, start, end time.Time) ([]*model.Booking, error) {
	if m.findActiveFunc != nil {
		return m.findActiveFunc(ctx, listingID, start, end)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) FindActiveIntervals(ctx context.Context, listingID string, start, end time.Time) ([]model.Interval, error) {
	bookings, err := m.FindActiveOverlapping(ctx, listingID, start, end)
	if err != nil {
		return nil, err
	}
	intervals := make([]model.Interval, 0, len(bookings))
	for _, b := range bookings {
		intervals = append(intervals, b.Interval())
	}
	return intervals, nil
}

func (m *mockBookingRepository) ConfirmIf(ctx context.Context, id string) (*mongo.UpdateResult, error) {
	if m.confirmIfFunc != nil {
		return m.confirmIfFunc(ctx, id)
	}
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (m *mockBookingRepository) CancelIf(ctx context.Context, id string, from []model.BookingStatus, reason model.CancelReason, payment model.PaymentStatus) (*mongo.UpdateResult, error) {
	if m.cancelIfFunc != nil {
		return m.cancelIfFunc(ctx, id, from, reason, payment)
	}
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (m *mockBookingRepository) CompleteIf(ctx context.Context, id string) (*mongo.UpdateResult, error) {
	if m.completeIfFunc != nil {
		return m.completeIfFunc(ctx, id)
	}
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (m *mockBookingRepository) FindExpiredHolds(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error) {
	if m.findExpiredHoldsFunc != nil {
		return m.findExpiredHoldsFunc(ctx, now, limit)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) FindElapsedConfirmed(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error) {
	if m.findElapsedConfirmedFunc != nil {
		return m.findElapsedConfirmedFunc(ctx, now, limit)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockListingSource struct {
	getByIDFunc func(ctx context.Context, id string) (*model.Listing, error)
}

func (m *mockListingSource) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &model.Listing{ID: id, OwnerID: "owner-1", IsActive: true, HourlyRate: 2500}, nil
}

type mockSlotSource struct {
	findCoveringFunc func(ctx context.Context, listingID string, start, end time.Time) (*model.AvailabilitySlot, error)
}

func (m *mockSlotSource) FindCovering(ctx context.Context, listingID string, start, end time.Time) (*model.AvailabilitySlot, error) {
	if m.findCoveringFunc != nil {
		return m.findCoveringFunc(ctx, listingID, start, end)
	}
	return &model.AvailabilitySlot{ListingID: listingID, StartTime: start, EndTime: end}, nil
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

type mockPublisher struct {
	messages []kafka.Message
}

func (m *mockPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockPublisher) eventTypes() []string {
	types := make([]string, 0, len(m.messages))
	for _, msg := range m.messages {
		types = append(types, msg.GetEventType())
	}
	return types
}

func testConfig(fake *clock.Fake) *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.FormatJSON,
			Service: "test",
		}),
		Client:                client.New(),
		ReadTimeout:           5 * time.Second,
		WriteTimeout:          5 * time.Second,
		HoldDuration:          15 * time.Minute,
		AdmissionMaxRetries:   2,
		AdmissionRetryBackoff: time.Millisecond,
		CancelNoticePeriod:    24 * time.Hour,
		SweepInterval:         time.Minute,
		SweepBatchSize:        100,
		Clock:                 fake,
	}
}

type fixture struct {
	repo     *mockBookingRepository
	listings *mockListingSource
	slots    *mockSlotSource
	locks    *mockLockRepository
	producer *mockPublisher
	clock    *clock.Fake
	cfg      *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fake := clock.NewFake(mustTime(t, "2026-09-01T08:00:00Z"))
	return &fixture{
		repo:     &mockBookingRepository{},
		listings: &mockListingSource{},
		slots:    &mockSlotSource{},
		locks:    &mockLockRepository{},
		producer: &mockPublisher{},
		clock:    fake,
		cfg:      testConfig(fake),
	}
}

func (f *fixture) service() *bookingService {
	return &bookingService{
		repo:      f.repo,
		listings:  f.listings,
		slots:     f.slots,
		locks:     f.locks,
		producer:  f.producer,
		validator: validator.NewBookingValidator(),
		cfg:       f.cfg,
	}
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

func validBooking(t *testing.T) *model.Booking {
	return &model.Booking{
		ListingID: "507f1f77bcf86cd799439011",
		StartTime: mustTime(t, "2026-09-01T10:00:00Z"),
		EndTime:   mustTime(t, "2026-09-01T12:00:00Z"),
	}
}

func TestRequest_AdmitsPendingWithHold(t *testing.T) {
	f := newFixture(t)
	svc := f.service()

	b := validBooking(t)
	err := svc.Request(context.Background(), "renter-1", b)
	require.NoError(t, err)

	assert.Equal(t, model.BookingPending, b.Status)
	assert.Equal(t, model.PaymentPending, b.PaymentStatus)
	assert.Equal(t, "renter-1", b.RenterID)
	assert.NotEmpty(t, b.HoldToken)
	assert.Equal(t, f.clock.Now().Add(f.cfg.HoldDuration), b.HoldExpiresAt)
	assert.Equal(t, int64(2*2500), b.TotalAmount)

	assert.Equal(t, []string{EventBookingRequested}, f.producer.eventTypes())
	assert.Equal(t, b.ListingID, f.producer.messages[0].Key)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.locks.released))
}

func TestRequest_RoundsPartialHoursUp(t *testing.T) {
	f := newFixture(t)
	svc := f.service()

	b := validBooking(t)
	b.EndTime = mustTime(t, "2026-09-01T11:30:00Z")

	err := svc.Request(context.Background(), "renter-1", b)
	require.NoError(t, err)
	assert.Equal(t, int64(2*2500), b.TotalAmount)
}

func TestRequest_AppliesDailyRate(t *testing.T) {
	f := newFixture(t)
	daily := int64(30000)
	f.listings.getByIDFunc = func(ctx context.Context, id string) (*model.Listing, error) {
		return &model.Listing{ID: id, OwnerID: "owner-1", IsActive: true, HourlyRate: 2500, DailyRate: &daily}, nil
	}
	svc := f.service()

	// 26 hours: one daily block plus 2 hourly.
	b := validBooking(t)
	b.EndTime = b.StartTime.Add(26 * time.Hour)

	err := svc.Request(context.Background(), "renter-1", b)
	require.NoError(t, err)
	assert.Equal(t, daily+2*2500, b.TotalAmount)
}

func TestRequest_DailyRateCapsRemainder(t *testing.T) {
	f := newFixture(t)
	daily := int64(10000)
	f.listings.getByIDFunc = func(ctx context.Context, id string) (*model.Listing, error) {
		return &model.Listing{ID: id, OwnerID: "owner-1", IsActive: true, HourlyRate: 2500, DailyRate: &daily}, nil
	}
	svc := f.service()

	// 10 hours at 2500 would be 25000; the daily rate caps it.
	b := validBooking(t)
	b.EndTime = b.StartTime.Add(10 * time.Hour)

	err := svc.Request(context.Background(), "renter-1", b)
	require.NoError(t, err)
	assert.Equal(t, daily, b.TotalAmount)
}

func TestRequest_RejectsInvertedInterval(t *testing.T) {
	f := newFixture(t)
	svc := f.service()

	b := validBooking(t)
	b.StartTime, b.EndTime = b.EndTime, b.StartTime

	err := svc.Request(context.Background(), "renter-1", b)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.AsAppError(err).Code)
}

func TestRequest_OutsideAvailability(t *testing.T) {
	f := newFixture(t)
	f.slots.findCoveringFunc = func(ctx context.Context, listingID string, start, end time.Time) (*model.AvailabilitySlot, error) {
		return nil, fmt.Errorf("%w: no slot covers interval", availerrors.ErrNotFound)
	}
	svc := f.service()

	err := svc.Request(context.Background(), "renter-1", validBooking(t))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.AsAppError(err).Code)
	assert.Empty(t, f.producer.messages)
}

func TestRequest_ConflictWithActiveBooking(t *testing.T) {
	f := newFixture(t)
	f.repo.findActiveFunc = func(ctx context.Context, listingID string, start, end time.Time) ([]*model.Booking, error) {
		return []*model.Booking{{ID: "existing", Status: model.BookingConfirmed}}, nil
	}
	svc := f.service()

	err := svc.Request(context.Background(), "renter-1", validBooking(t))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, apperrors.AsAppError(err).Code)
	assert.Empty(t, f.producer.messages)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.locks.released))
}

func TestRequest_ForbiddenForListingOwner(t *testing.T) {
	f := newFixture(t)
	svc := f.service()

	err := svc.Request(context.Background(), "owner-1", validBooking(t))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.AsAppError(err).Code)
}

func TestRequest_ConflictOnInactiveListing(t *testing.T) {
	f := newFixture(t)
	f.listings.getByIDFunc = func(ctx context.Context, id string) (*model.Listing, error) {
		return &model.Listing{ID: id, OwnerID: "owner-1", IsActive: false, HourlyRate: 2500}, nil
	}
	svc := f.service()

	err := svc.Request(context.Background(), "renter-1", validBooking(t))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, apperrors.AsAppError(err).Code)
}

func TestRequest_ConflictWhenLockHeld(t *testing.T) {
	f := newFixture(t)
	duplicate := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	f.locks.acquireFunc = func(ctx context.Context, listingID string) error {
		return duplicate
	}
	svc := f.service()

	err := svc.Request(context.Background(), "renter-1", validBooking(t))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, apperrors.AsAppError(err).Code)
}

func TestConfirm_FlipsPendingToPaid(t *testing.T) {
	f := newFixture(t)
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		b := validBooking(t)
		b.ID = id
		b.Status = model.BookingPending
		return b, nil
	}
	svc := f.service()

	err := svc.Confirm(context.Background(), "507f1f77bcf86cd799439031")
	require.NoError(t, err)
	assert.Equal(t, []string{EventBookingConfirmed}, f.producer.eventTypes())
}

func TestConfirm_ExpiredHoldStillConfirmableUntilSwept(t *testing.T) {
	// The hold deadline passed but the sweep has not run: the conditional
	// update still matches pending, so the confirm wins.
	f := newFixture(t)
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		b := validBooking(t)
		b.ID = id
		b.Status = model.BookingPending
		b.HoldExpiresAt = f.clock.Now().Add(-time.Hour)
		return b, nil
	}
	svc := f.service()

	err := svc.Confirm(context.Background(), "507f1f77bcf86cd799439031")
	require.NoError(t, err)
}

func TestConfirm_ReportsSweptHoldAsExpired(t *testing.T) {
	f := newFixture(t)
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		b := validBooking(t)
		b.ID = id
		b.Status = model.BookingCancelled
		b.CancelReason = model.ReasonHoldExpired
		return b, nil
	}
	f.repo.confirmIfFunc = func(ctx context.Context, id string) (*mongo.UpdateResult, error) {
		return &mongo.UpdateResult{MatchedCount: 0}, nil
	}
	svc := f.service()

	err := svc.Confirm(context.Background(), "507f1f77bcf86cd799439031")
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeConflict, appErr.Code)
	assert.Contains(t, appErr.Message, "expired")
	assert.Empty(t, f.producer.messages)
}

func TestConfirm_RejectsCompletedBooking(t *testing.T) {
	f := newFixture(t)
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		b := validBooking(t)
		b.ID = id
		b.Status = model.BookingCompleted
		return b, nil
	}
	f.repo.confirmIfFunc = func(ctx context.Context, id string) (*mongo.UpdateResult, error) {
		return &mongo.UpdateResult{MatchedCount: 0}, nil
	}
	svc := f.service()

	err := svc.Confirm(context.Background(), "507f1f77bcf86cd799439031")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, apperrors.AsAppError(err).Code)
}

func TestCancel_RenterCancelsPending(t *testing.T) {
	f := newFixture(t)
	var gotReason model.CancelReason
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		b := validBooking(t)
		b.ID = id
		b.RenterID = "renter-1"
		b.Status = model.BookingPending
		return b, nil
	}
	f.repo.cancelIfFunc = func(ctx context.Context, id string, from []model.BookingStatus, reason model.CancelReason, payment model.PaymentStatus) (*mongo.UpdateResult, error) {
		gotReason = reason
		return &mongo.UpdateResult{MatchedCount: 1}, nil
	}
	svc := f.service()

	err := svc.Cancel(context.Background(), model.ActorRenter, "renter-1", "507f1f77bcf86cd799439031")
	require.NoError(t, err)
	assert.Equal(t, model.ReasonRenterCancelled, gotReason)
	assert.Equal(t, []string{EventBookingCancelled}, f.producer.eventTypes())
}

func TestCancel_RenterBlockedInsideNoticePeriod(t *testing.T) {
	f := newFixture(t)
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		b := validBooking(t)
		b.ID = id
		b.RenterID = "renter-1"
		b.Status = model.BookingConfirmed
		// Starts in 2 hours; the notice period is 24 hours.
		b.StartTime = f.clock.Now().Add(2 * time.Hour)
		b.EndTime = b.StartTime.Add(time.Hour)
		return b, nil
	}
	svc := f.service()

	err := svc.Cancel(context.Background(), model.ActorRenter, "renter-1", "507f1f77bcf86cd799439031")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, apperrors.AsAppError(err).Code)
}

func TestCancel_RenterAllowedOutsideNoticePeriod(t *testing.T) {
	f := newFixture(t)
	var gotPayment model.PaymentStatus
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		b := validBooking(t)
		b.ID = id
		b.RenterID = "renter-1"
		b.Status = model.BookingConfirmed
		b.PaymentStatus = model.PaymentPaid
		b.StartTime = f.clock.Now().Add(48 * time.Hour)
		b.EndTime = b.StartTime.Add(time.Hour)
		return b, nil
	}
	f.repo.cancelIfFunc = func(ctx context.Context, id string, from []model.BookingStatus, reason model.CancelReason, payment model.PaymentStatus) (*mongo.UpdateResult, error) {
		gotPayment = payment
		return &mongo.UpdateResult{MatchedCount: 1}, nil
	}
	svc := f.service()

	err := svc.Cancel(context.Background(), model.ActorRenter, "renter-1", "507f1f77bcf86cd799439031")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentRefunded, gotPayment)
}

func TestCancel_ForbiddenForStranger(t *testing.T) {
	f := newFixture(t)
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		b := validBooking(t)
		b.ID = id
		b.RenterID = "renter-1"
		b.Status = model.BookingPending
		return b, nil
	}
	svc := f.service()

	err := svc.Cancel(context.Background(), model.ActorRenter, "intruder", "507f1f77bcf86cd799439031")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.AsAppError(err).Code)
}

func TestCancel_OwnerCancelsWithOwnReason(t *testing.T) {
	f := newFixture(t)
	var gotReason model.CancelReason
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		b := validBooking(t)
		b.ID = id
		b.RenterID = "renter-1"
		b.Status = model.BookingConfirmed
		b.StartTime = f.clock.Now().Add(time.Hour)
		b.EndTime = b.StartTime.Add(time.Hour)
		return b, nil
	}
	f.repo.cancelIfFunc = func(ctx context.Context, id string, from []model.BookingStatus, reason model.CancelReason, payment model.PaymentStatus) (*mongo.UpdateResult, error) {
		gotReason = reason
		return &mongo.UpdateResult{MatchedCount: 1}, nil
	}
	svc := f.service()

	// Owners are not subject to the notice period.
	err := svc.Cancel(context.Background(), model.ActorOwner, "owner-1", "507f1f77bcf86cd799439031")
	require.NoError(t, err)
	assert.Equal(t, model.ReasonOwnerCancelled, gotReason)
}

func TestCancel_ConflictOnTerminalBooking(t *testing.T) {
	f := newFixture(t)
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		b := validBooking(t)
		b.ID = id
		b.RenterID = "renter-1"
		b.Status = model.BookingCompleted
		return b, nil
	}
	svc := f.service()

	err := svc.Cancel(context.Background(), model.ActorRenter, "renter-1", "507f1f77bcf86cd799439031")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, apperrors.AsAppError(err).Code)
}

func TestListByListing_ForbiddenForNonOwner(t *testing.T) {
	f := newFixture(t)
	svc := f.service()

	_, err := svc.ListByListing(context.Background(), "intruder", "507f1f77bcf86cd799439011", 10, 0)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.AsAppError(err).Code)
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t)
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return nil, fmt.Errorf("%w: %s", bookingerrors.ErrNotFound, id)
	}
	svc := f.service()

	_, err := svc.Get(context.Background(), "507f1f77bcf86cd799439031")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.AsAppError(err).Code)
}
