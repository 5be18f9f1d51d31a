package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "courtside"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisDB   = 0

	DefaultPort = "8080"

	DefaultAuthRequestTimeout = 3 * time.Second

	DefaultBookingEventsTopic    = "booking-events"
	DefaultBookingEventsDLQTopic = "booking-events-dlq"
	DefaultPaymentEventsTopic    = "payment-events"
	DefaultPaymentEventsDLQTopic = "payment-events-dlq"
	DefaultPaymentConsumerGroup  = "courtside-payments"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultHoldDuration          = 15 * time.Minute
	DefaultAdmissionMaxRetries   = 3
	DefaultAdmissionRetryBackoff = 50 * time.Millisecond
	DefaultAdmissionLockTTL      = 10 * time.Second
	DefaultCancelNoticePeriod    = 24 * time.Hour

	DefaultSweepInterval  = 1 * time.Minute
	DefaultSweepBatchSize = 100

	// 5 miles, matching the search default the product shipped with.
	DefaultDefaultSearchRadiusMeters = 8046.7
	DefaultMaxSearchRadiusMeters     = 80467.0
	DefaultSearchCacheTTL            = 30 * time.Second
	DefaultMaxFreeIntervalsPerSlot   = 10

	DefaultLogLevel = "info"

	DefaultPaginationLimit = 10
	MaxPaginationLimit     = 200
)
