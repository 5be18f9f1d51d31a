package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"courtside/pkg/client"
	"courtside/pkg/clock"
	"courtside/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Port string

	AuthServiceURL     string
	AuthRequestTimeout time.Duration

	PaymentWebhookSecret string

	BookingEventsTopic    string
	BookingEventsDLQTopic string
	PaymentEventsTopic    string
	PaymentEventsDLQTopic string
	PaymentConsumerGroup  string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Booking admission and hold lifecycle.
	HoldDuration          time.Duration
	AdmissionMaxRetries   int
	AdmissionRetryBackoff time.Duration
	AdmissionLockTTL      time.Duration
	CancelNoticePeriod    time.Duration

	SweepInterval  time.Duration
	SweepBatchSize int

	DefaultSearchRadiusMeters float64
	MaxSearchRadiusMeters     float64
	SearchCacheTTL            time.Duration
	MaxFreeIntervalsPerSlot   int

	Log    *logger.Logger
	Client *client.Client
	Clock  clock.Clock
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisAddr:     getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),

		Port: getEnvStr(EnvPort, DefaultPort),

		AuthServiceURL:     getEnvStr(EnvAuthServiceURL, ""),
		AuthRequestTimeout: getEnvDuration(EnvAuthRequestTimeout, DefaultAuthRequestTimeout),

		PaymentWebhookSecret: getEnvStr(EnvPaymentWebhookSecret, ""),

		BookingEventsTopic:    getEnvStr(EnvBookingEventsTopic, DefaultBookingEventsTopic),
		BookingEventsDLQTopic: getEnvStr(EnvBookingEventsDLQTopic, DefaultBookingEventsDLQTopic),
		PaymentEventsTopic:    getEnvStr(EnvPaymentEventsTopic, DefaultPaymentEventsTopic),
		PaymentEventsDLQTopic: getEnvStr(EnvPaymentEventsDLQTopic, DefaultPaymentEventsDLQTopic),
		PaymentConsumerGroup:  getEnvStr(EnvPaymentConsumerGroup, DefaultPaymentConsumerGroup),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		HoldDuration:          getEnvDuration(EnvHoldDuration, DefaultHoldDuration),
		AdmissionMaxRetries:   getEnvNum(EnvAdmissionMaxRetries, DefaultAdmissionMaxRetries),
		AdmissionRetryBackoff: getEnvDuration(EnvAdmissionRetryBackoff, DefaultAdmissionRetryBackoff),
		AdmissionLockTTL:      getEnvDuration(EnvAdmissionLockTTL, DefaultAdmissionLockTTL),
		CancelNoticePeriod:    getEnvDuration(EnvCancelNoticePeriod, DefaultCancelNoticePeriod),

		SweepInterval:  getEnvDuration(EnvSweepInterval, DefaultSweepInterval),
		SweepBatchSize: getEnvNum(EnvSweepBatchSize, DefaultSweepBatchSize),

		DefaultSearchRadiusMeters: getEnvFloat(EnvDefaultSearchRadiusMeters, DefaultDefaultSearchRadiusMeters),
		MaxSearchRadiusMeters:     getEnvFloat(EnvMaxSearchRadiusMeters, DefaultMaxSearchRadiusMeters),
		SearchCacheTTL:            getEnvDuration(EnvSearchCacheTTL, DefaultSearchCacheTTL),
		MaxFreeIntervalsPerSlot:   getEnvNum(EnvMaxFreeIntervalsPerSlot, DefaultMaxFreeIntervalsPerSlot),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.FormatJSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.New(),
		Clock:  clock.System(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
}

func (cfg *Config) SetAuth() {
	cfg.Client.SetAuth(cfg.AuthServiceURL, cfg.AuthRequestTimeout)
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

var mongoURIRegex = regexp.MustCompile(`^mongodb(\+srv)?://`)

func (cfg *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		problems = append(problems, "MongoURI cannot be empty")
	} else if !mongoURIRegex.MatchString(cfg.MongoURI) {
		problems = append(problems, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}
	if cfg.MongoDatabaseName == "" {
		problems = append(problems, "MongoDatabaseName cannot be empty")
	}

	for name, d := range map[string]time.Duration{
		"MongoConnTimeout":      cfg.MongoConnTimeout,
		"RateLimitWindow":       cfg.RateLimitWindow,
		"RequestTimeout":        cfg.RequestTimeout,
		"IdempotencyTTL":        cfg.IdempotencyTTL,
		"ReadTimeout":           cfg.ReadTimeout,
		"WriteTimeout":          cfg.WriteTimeout,
		"IdleTimeout":           cfg.IdleTimeout,
		"ShutdownTimeout":       cfg.ShutdownTimeout,
		"HoldDuration":          cfg.HoldDuration,
		"AdmissionRetryBackoff": cfg.AdmissionRetryBackoff,
		"AdmissionLockTTL":      cfg.AdmissionLockTTL,
		"SweepInterval":         cfg.SweepInterval,
		"AuthRequestTimeout":    cfg.AuthRequestTimeout,
	} {
		if d <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive, got: %s", name, d))
		}
	}

	// Zero disables the renter-side cancellation gate.
	if cfg.CancelNoticePeriod < 0 {
		problems = append(problems, fmt.Sprintf("CancelNoticePeriod cannot be negative, got: %s", cfg.CancelNoticePeriod))
	}

	if cfg.RateLimitRequests <= 0 {
		problems = append(problems, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		problems = append(problems, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.AdmissionMaxRetries < 0 {
		problems = append(problems, fmt.Sprintf("AdmissionMaxRetries cannot be negative, got: %d", cfg.AdmissionMaxRetries))
	}
	if cfg.SweepBatchSize <= 0 {
		problems = append(problems, fmt.Sprintf("SweepBatchSize must be positive, got: %d", cfg.SweepBatchSize))
	}
	if cfg.DefaultSearchRadiusMeters <= 0 {
		problems = append(problems, fmt.Sprintf("DefaultSearchRadiusMeters must be positive, got: %f", cfg.DefaultSearchRadiusMeters))
	}
	if cfg.MaxSearchRadiusMeters < cfg.DefaultSearchRadiusMeters {
		problems = append(problems, fmt.Sprintf("MaxSearchRadiusMeters (%f) must be >= DefaultSearchRadiusMeters (%f)", cfg.MaxSearchRadiusMeters, cfg.DefaultSearchRadiusMeters))
	}
	if cfg.MaxFreeIntervalsPerSlot <= 0 {
		problems = append(problems, fmt.Sprintf("MaxFreeIntervalsPerSlot must be positive, got: %d", cfg.MaxFreeIntervalsPerSlot))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"redis_addr", cfg.RedisAddr,
		"port", cfg.Port,
		"auth_service_url", cfg.AuthServiceURL,
		"auth_request_timeout", cfg.AuthRequestTimeout,
		"payment_webhook_secret_set", cfg.PaymentWebhookSecret != "",
		"booking_events_topic", cfg.BookingEventsTopic,
		"payment_events_topic", cfg.PaymentEventsTopic,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"hold_duration", cfg.HoldDuration,
		"admission_max_retries", cfg.AdmissionMaxRetries,
		"admission_retry_backoff", cfg.AdmissionRetryBackoff,
		"admission_lock_ttl", cfg.AdmissionLockTTL,
		"cancel_notice_period", cfg.CancelNoticePeriod,
		"sweep_interval", cfg.SweepInterval,
		"sweep_batch_size", cfg.SweepBatchSize,
		"default_search_radius_m", cfg.DefaultSearchRadiusMeters,
		"max_search_radius_m", cfg.MaxSearchRadiusMeters,
		"search_cache_ttl", cfg.SearchCacheTTL,
	)
}

var mongoCredentialRegex = regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)

func redactMongoURI(uri string) string {
	return mongoCredentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		return DefaultPaginationLimit
	}
	if limit > MaxPaginationLimit {
		return MaxPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
