package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	availerrors "courtside/internal/availability/errors"
	"courtside/pkg/config"
	mongotx "courtside/pkg/db/mongo"
	"courtside/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Availability_slots"
)

type mongoSlotRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type SlotRepository interface {
	Create(ctx context.Context, s *model.AvailabilitySlot) error
	FindByID(ctx context.Context, id string) (*model.AvailabilitySlot, error)
	Delete(ctx context.Context, id string) error

	// FindByListing returns the listing's slots ordered by start time.
	// Nil window bounds mean unbounded on that side; a bounded window
	// returns every slot intersecting it.
	FindByListing(ctx context.Context, listingID string, from, to *time.Time) ([]*model.AvailabilitySlot, error)

	// FindOverlapping returns slots of the listing intersecting
	// [start, end) under half-open semantics.
	FindOverlapping(ctx context.Context, listingID string, start, end time.Time) ([]*model.AvailabilitySlot, error)

	// FindCovering returns the slot that fully contains [start, end), or
	// ErrNotFound when no single slot covers the interval.
	FindCovering(ctx context.Context, listingID string, start, end time.Time) (*model.AvailabilitySlot, error)

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoSlotRepository(cfg *config.Config) SlotRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoSlotRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoSlotRepository) Create(ctx context.Context, s *model.AvailabilitySlot) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	s.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, s)
	if err != nil {
		return fmt.Errorf("failed to create availability slot: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		s.ID = oid.Hex()
	}

	return nil
}

func (r *mongoSlotRepository) FindByID(ctx context.Context, id string) (*model.AvailabilitySlot, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", availerrors.ErrInvalidID, id)
	}

	var s model.AvailabilitySlot
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", availerrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find availability slot: %w", err)
	}
	return &s, nil
}

func (r *mongoSlotRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", availerrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete availability slot: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", availerrors.ErrNotFound, id)
	}

	return nil
}

func (r *mongoSlotRepository) FindByListing(ctx context.Context, listingID string, from, to *time.Time) ([]*model.AvailabilitySlot, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"listing_id": listingID}
	if from != nil {
		filter["end_time"] = bson.M{"$gt": *from}
	}
	if to != nil {
		filter["start_time"] = bson.M{"$lt": *to}
	}

	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query availability slots for listing [%s]: %w", listingID, err)
	}
	defer cursor.Close(ctx)

	var slots []*model.AvailabilitySlot
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("failed to decode availability slots: %w", err)
	}

	return slots, nil
}

func (r *mongoSlotRepository) FindOverlapping(ctx context.Context, listingID string, start, end time.Time) ([]*model.AvailabilitySlot, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	// Half-open overlap: existing.start < end && start < existing.end.
	filter := bson.M{
		"listing_id": listingID,
		"start_time": bson.M{"$lt": end},
		"end_time":   bson.M{"$gt": start},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query overlapping slots for listing [%s]: %w", listingID, err)
	}
	defer cursor.Close(ctx)

	var slots []*model.AvailabilitySlot
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("failed to decode overlapping slots: %w", err)
	}

	return slots, nil
}

func (r *mongoSlotRepository) FindCovering(ctx context.Context, listingID string, start, end time.Time) (*model.AvailabilitySlot, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"listing_id": listingID,
		"start_time": bson.M{"$lte": start},
		"end_time":   bson.M{"$gte": end},
	}

	var s model.AvailabilitySlot
	err := r.collection.FindOne(ctx, filter).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: no slot covers [%s, %s)", availerrors.ErrNotFound, start, end)
		}
		return nil, fmt.Errorf("failed to find covering slot: %w", err)
	}
	return &s, nil
}

func (r *mongoSlotRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
