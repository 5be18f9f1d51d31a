package model

import "time"

// BookingLock is an advisory lock document. Admission for a listing inserts
// a lock keyed by the listing ID; the unique _id index makes the insert a
// mutual-exclusion primitive across stateless service replicas. A TTL index
// on expires_at reclaims locks left behind by a crashed holder.
type BookingLock struct {
	ID        string    `json:"id" bson:"_id"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
