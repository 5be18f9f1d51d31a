package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"courtside/pkg/logger"
)

// cacheCapture records status, headers and body while forwarding to the
// client, so the stored entry replays byte-identical on a hit.
type cacheCapture struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (cc *cacheCapture) WriteHeader(code int) {
	cc.statusCode = code
	cc.ResponseWriter.WriteHeader(code)
}

func (cc *cacheCapture) Write(b []byte) (int, error) {
	cc.body.Write(b)
	return cc.ResponseWriter.Write(b)
}

func cacheKey(prefix string, r *http.Request) string {
	sum := sha1.Sum([]byte(r.URL.Path + "?" + r.URL.RawQuery))
	return fmt.Sprintf("%s:%x", prefix, sum)
}

// encodeCachePayload packs [4 bytes status][4 bytes headerLen][headerJSON][body].
func encodeCachePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodeCachePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}

	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}

	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}

	return status, header, bs[8+hlen:], true
}

// ResponseCache serves GET responses from Redis for the configured TTL. A
// nil client disables caching, which is how the services degrade when Redis
// is unreachable at startup.
func ResponseCache(rdb *redis.Client, prefix string, ttl time.Duration, log *logger.Logger) func(http.Handler) http.Handler {
	if rdb == nil || ttl <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			key := cacheKey(prefix, r)

			if bs, err := rdb.Get(r.Context(), key).Bytes(); err == nil {
				if status, hdr, body, ok := decodeCachePayload(bs); ok {
					for k, vals := range hdr {
						if strings.EqualFold(k, "Content-Length") {
							continue
						}
						for _, v := range vals {
							w.Header().Add(k, v)
						}
					}
					w.Header().Set("X-Cache", "HIT")
					w.WriteHeader(status)
					_, _ = w.Write(body)
					return
				}
			}

			capture := &cacheCapture{ResponseWriter: w, statusCode: http.StatusOK}
			w.Header().Set("X-Cache", "MISS")
			next.ServeHTTP(capture, r)

			if capture.statusCode != http.StatusOK {
				return
			}

			payload, err := encodeCachePayload(capture.statusCode, w.Header().Clone(), capture.body.Bytes())
			if err != nil {
				return
			}

			if err := rdb.SetEx(context.Background(), key, payload, ttl).Err(); err != nil {
				log.Warn("Response cache write failed",
					"key", key,
					"error", err,
				)
			}
		})
	}
}
