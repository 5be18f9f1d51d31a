package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingerrors "courtside/internal/bookings/errors"
	"courtside/pkg/config"
	mongotx "courtside/pkg/db/mongo"
	"courtside/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"
)

type mongoBookingRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type BookingRepository interface {
	Create(ctx context.Context, b *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindByRenter(ctx context.Context, renterID string, limit int, offset int64) ([]*model.Booking, error)
	FindByListing(ctx context.Context, listingID string, limit int, offset int64) ([]*model.Booking, error)

	// FindActiveOverlapping returns pending or confirmed bookings of the
	// listing intersecting [start, end) under half-open semantics.
	FindActiveOverlapping(ctx context.Context, listingID string, start, end time.Time) ([]*model.Booking, error)

	// FindActiveIntervals projects FindActiveOverlapping down to the held
	// intervals, for free-window subtraction.
	FindActiveIntervals(ctx context.Context, listingID string, start, end time.Time) ([]model.Interval, error)

	// ConfirmIf flips pending -> confirmed and marks the payment as paid.
	// The status filter makes concurrent confirm/cancel/sweep attempts on
	// one booking mutually exclusive; MatchedCount 0 means the booking was
	// not pending anymore.
	ConfirmIf(ctx context.Context, id string) (*mongo.UpdateResult, error)

	// CancelIf flips the booking to cancelled when its status is one of
	// from, recording reason and the resulting payment status.
	CancelIf(ctx context.Context, id string, from []model.BookingStatus, reason model.CancelReason, payment model.PaymentStatus) (*mongo.UpdateResult, error)

	// CompleteIf flips confirmed -> completed.
	CompleteIf(ctx context.Context, id string) (*mongo.UpdateResult, error)

	// FindExpiredHolds returns pending bookings whose hold deadline passed
	// before now, oldest deadline first.
	FindExpiredHolds(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error)

	// FindElapsedConfirmed returns confirmed bookings whose end time is at
	// or before now.
	FindElapsedConfirmed(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error)

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

var activeStatuses = bson.A{model.BookingPending, model.BookingConfirmed}

func (r *mongoBookingRepository) Create(ctx context.Context, b *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	b.CreatedAt = now
	b.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, b)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		b.ID = oid.Hex()
	}

	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	var b model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&b)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", bookingerrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &b, nil
}

func (r *mongoBookingRepository) FindByRenter(ctx context.Context, renterID string, limit int, offset int64) ([]*model.Booking, error) {
	return r.findPaginated(ctx, bson.M{"renter_id": renterID}, limit, offset)
}

func (r *mongoBookingRepository) FindByListing(ctx context.Context, listingID string, limit int, offset int64) ([]*model.Booking, error) {
	return r.findPaginated(ctx, bson.M{"listing_id": listingID}, limit, offset)
}

func (r *mongoBookingRepository) findPaginated(ctx context.Context, filter bson.M, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) FindActiveOverlapping(ctx context.Context, listingID string, start, end time.Time) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	// Half-open overlap: existing.start < end && start < existing.end.
	filter := bson.M{
		"listing_id": listingID,
		"status":     bson.M{"$in": activeStatuses},
		"start_time": bson.M{"$lt": end},
		"end_time":   bson.M{"$gt": start},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query overlapping bookings for listing [%s]: %w", listingID, err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode overlapping bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) FindActiveIntervals(ctx context.Context, listingID string, start, end time.Time) ([]model.Interval, error) {
	bookings, err := r.FindActiveOverlapping(ctx, listingID, start, end)
	if err != nil {
		return nil, err
	}

	intervals := make([]model.Interval, 0, len(bookings))
	for _, b := range bookings {
		intervals = append(intervals, b.Interval())
	}
	return intervals, nil
}

func (r *mongoBookingRepository) ConfirmIf(ctx context.Context, id string) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "status": model.BookingPending}
	update := bson.M{"$set": bson.M{
		"status":         model.BookingConfirmed,
		"payment_status": model.PaymentPaid,
		"updated_at":     time.Now().UTC().Truncate(time.Millisecond),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm booking [%s]: %w", id, err)
	}
	return result, nil
}

func (r *mongoBookingRepository) CancelIf(ctx context.Context, id string, from []model.BookingStatus, reason model.CancelReason, payment model.PaymentStatus) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "status": bson.M{"$in": from}}
	update := bson.M{"$set": bson.M{
		"status":         model.BookingCancelled,
		"payment_status": payment,
		"cancel_reason":  reason,
		"updated_at":     time.Now().UTC().Truncate(time.Millisecond),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking [%s]: %w", id, err)
	}
	return result, nil
}

func (r *mongoBookingRepository) CompleteIf(ctx context.Context, id string) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "status": model.BookingConfirmed}
	update := bson.M{"$set": bson.M{
		"status":     model.BookingCompleted,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to complete booking [%s]: %w", id, err)
	}
	return result, nil
}

func (r *mongoBookingRepository) FindExpiredHolds(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"status":          model.BookingPending,
		"hold_expires_at": bson.M{"$gt": time.Time{}, "$lt": now},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "hold_expires_at", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired holds: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode expired holds: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) FindElapsedConfirmed(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"status":   model.BookingConfirmed,
		"end_time": bson.M{"$lte": now},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "end_time", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query elapsed confirmed bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode elapsed confirmed bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
