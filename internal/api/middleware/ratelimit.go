package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/livehike/livehike/internal/api/models"
)

// RateLimitConfig is a request budget per key per window.
type RateLimitConfig struct {
	RequestLimit int
	WindowLength time.Duration
}

// Rate limits by endpoint category.
var (
	// ReportRateLimit applies to pin creation (20 req/min).
	ReportRateLimit = RateLimitConfig{RequestLimit: 20, WindowLength: time.Minute}

	// ModerationRateLimit applies to verify, dismiss and delete (60 req/min).
	ModerationRateLimit = RateLimitConfig{RequestLimit: 60, WindowLength: time.Minute}

	// ReadRateLimit applies to trail and pin reads (300 req/min).
	ReadRateLimit = RateLimitConfig{RequestLimit: 300, WindowLength: time.Minute}
)

// RateLimitByIP limits by client address. Run chi's RealIP first so proxied
// addresses are honored.
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(limitExceeded(cfg)),
	)
}

// RateLimitByActor limits by the acting user and client address together,
// so one device cannot exhaust another user's budget by spoofing the header.
func RateLimitByActor(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(httprate.KeyByRealIP, keyByActor),
		httprate.WithLimitHandler(limitExceeded(cfg)),
	)
}

func keyByActor(r *http.Request) (string, error) {
	return "actor:" + GetActor(r.Context()), nil
}

func limitExceeded(cfg RateLimitConfig) http.HandlerFunc {
	retryAfter := strconv.Itoa(int(cfg.WindowLength.Round(time.Second) / time.Second))

	return func(w http.ResponseWriter, r *http.Request) {
		problem := models.NewTooManyRequests(GetRequestID(r.Context()), "Rate limit exceeded. Please try again later.")
		problem.Instance = r.URL.Path
		w.Header().Set("Retry-After", retryAfter)
		problem.Write(w)
	}
}
