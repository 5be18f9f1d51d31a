package repository

import (
	"context"
	"errors"
	"time"

	"courtside/pkg/config"
	"courtside/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const CollectionName = "Booking_locks"

// ListingLockRepository provides per-listing advisory locks. Acquire inserts
// a document keyed by the listing ID; the unique _id index turns the insert
// into a mutual-exclusion primitive, and the TTL index on expires_at
// reclaims locks abandoned by a crashed holder. Slot writes and booking
// admission for one listing both serialize on this lock.
type ListingLockRepository interface {
	Acquire(ctx context.Context, listingID string) error
	Release(ctx context.Context, listingID string) error
}

type mongoListingLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewListingLockRepository(cfg *config.Config) ListingLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoListingLockRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// Acquire returns a duplicate key error if another writer holds the lock.
func (r *mongoListingLockRepository) Acquire(ctx context.Context, listingID string) error {
	now := time.Now().UTC()
	lock := &model.BookingLock{
		ID:        listingID,
		ExpiresAt: now.Add(r.cfg.AdmissionLockTTL),
		CreatedAt: now,
	}

	_, err := r.collection.InsertOne(ctx, lock)
	return err
}

func (r *mongoListingLockRepository) Release(ctx context.Context, listingID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": listingID})
	return err
}

// IsDuplicateKey reports whether err is the unique-index violation Acquire
// produces when the lock is already held.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// ErrLockHeld is returned by AcquireWithRetry once every attempt found the
// lock taken by another writer.
var ErrLockHeld = errors.New("listing lock held by another writer")

// AcquireWithRetry attempts Acquire up to maxRetries+1 times, sleeping
// backoff between attempts. Context cancellation aborts the wait.
func AcquireWithRetry(ctx context.Context, r ListingLockRepository, listingID string, maxRetries int, backoff time.Duration) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		err = r.Acquire(ctx, listingID)
		if err == nil {
			return nil
		}
		if !IsDuplicateKey(err) {
			return err
		}
	}
	return ErrLockHeld
}
