package middleware

import (
	"net/http"
	"sync"
	"time"

	"courtside/pkg/logger"
)

type IdentityExtractor func(r *http.Request) string

// IdentityRateLimiter is a sliding-window limiter keyed by caller identity.
// Anonymous requests pass through; the read façade is cached and cheap, the
// mutating routes all require identity anyway.
type IdentityRateLimiter struct {
	mu        sync.RWMutex
	requests  map[string][]time.Time
	limit     int
	window    time.Duration
	extractor IdentityExtractor
	log       *logger.Logger
	stopCh    chan struct{}
}

func NewIdentityRateLimiter(limit int, window time.Duration, extractor IdentityExtractor, log *logger.Logger) *IdentityRateLimiter {
	limiter := &IdentityRateLimiter{
		requests:  make(map[string][]time.Time),
		limit:     limit,
		window:    window,
		extractor: extractor,
		log:       log,
		stopCh:    make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *IdentityRateLimiter) cleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for identity, timestamps := range rl.requests {
				if len(timestamps) == 0 || time.Since(timestamps[len(timestamps)-1]) > rl.window {
					delete(rl.requests, identity)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *IdentityRateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *IdentityRateLimiter) Allow(identity string) bool {
	if identity == "" {
		return true
	}

	now := time.Now()

	rl.mu.RLock()
	timestamps := rl.requests[identity]
	rl.mu.RUnlock()

	validTimestamps := make([]time.Time, 0)
	for _, ts := range timestamps {
		if now.Sub(ts) < rl.window {
			validTimestamps = append(validTimestamps, ts)
		}
	}

	if len(validTimestamps) >= rl.limit {
		return false
	}

	validTimestamps = append(validTimestamps, now)

	rl.mu.Lock()
	rl.requests[identity] = validTimestamps
	rl.mu.Unlock()

	return true
}

func IdentityRateLimit(limiter *IdentityRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := extractIdentity(r, limiter.extractor)

			if identity == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow(identity) {
				rejectRateLimited(w, limiter.log, r, identity)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractIdentity(r *http.Request, extractor IdentityExtractor) string {
	if extractor == nil {
		return DefaultIdentityExtractor(r)
	}
	return extractor(r)
}

func rejectRateLimited(w http.ResponseWriter, log *logger.Logger, r *http.Request, identity string) {
	log.Warn("Rate limit exceeded",
		"request_id", requestIDFromContext(r.Context()),
		"identity", identity,
		"path", r.URL.Path,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"error":"Rate limit exceeded"}`))
}

func DefaultIdentityExtractor(r *http.Request) string {
	if id := IdentityFromContext(r.Context()); id != "" {
		return id
	}
	return r.Header.Get(IdentityHeader)
}
