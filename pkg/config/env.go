package config

import (
	"os"
	"strconv"
	"time"
)

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvAuthServiceURL     = "AUTH_SERVICE_URL"
	EnvAuthRequestTimeout = "AUTH_REQUEST_TIMEOUT"

	EnvPaymentWebhookSecret = "PAYMENT_WEBHOOK_SECRET"

	EnvBookingEventsTopic    = "BOOKING_EVENTS_TOPIC"
	EnvBookingEventsDLQTopic = "BOOKING_EVENTS_DLQ_TOPIC"
	EnvPaymentEventsTopic    = "PAYMENT_EVENTS_TOPIC"
	EnvPaymentEventsDLQTopic = "PAYMENT_EVENTS_DLQ_TOPIC"
	EnvPaymentConsumerGroup  = "PAYMENT_CONSUMER_GROUP"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvHoldDuration          = "HOLD_DURATION"
	EnvAdmissionMaxRetries   = "ADMISSION_MAX_RETRIES"
	EnvAdmissionRetryBackoff = "ADMISSION_RETRY_BACKOFF"
	EnvAdmissionLockTTL      = "ADMISSION_LOCK_TTL"
	EnvCancelNoticePeriod    = "CANCEL_NOTICE_PERIOD"

	EnvSweepInterval  = "SWEEP_INTERVAL"
	EnvSweepBatchSize = "SWEEP_BATCH_SIZE"

	EnvDefaultSearchRadiusMeters = "DEFAULT_SEARCH_RADIUS_METERS"
	EnvMaxSearchRadiusMeters     = "MAX_SEARCH_RADIUS_METERS"
	EnvSearchCacheTTL            = "SEARCH_CACHE_TTL"
	EnvMaxFreeIntervalsPerSlot   = "MAX_FREE_INTERVALS_PER_SLOT"
)

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
