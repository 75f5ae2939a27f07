package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/DukeRupert/fetch/internal/domain"
	"github.com/DukeRupert/fetch/internal/handler"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// maxTrackedClients bounds the memory used by one limiter.
const maxTrackedClients = 10_000

// =============================================================================
// Rate Limiter
// =============================================================================

// RateLimiter counts attempts per key in fixed windows. Entries expire with
// their window, and the least recently used are dropped once
// maxTrackedClients keys are tracked.
type RateLimiter struct {
	maxAttempts int
	window      time.Duration
	logger      *slog.Logger

	mu      sync.Mutex
	entries *expirable.LRU[string, *rateLimitEntry]
}

type rateLimitEntry struct {
	count       int
	windowStart time.Time
}

// NewRateLimiter creates a limiter allowing maxAttempts per window.
func NewRateLimiter(maxAttempts int, window time.Duration, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		logger:      logger,
		entries:     expirable.NewLRU[string, *rateLimitEntry](maxTrackedClients, nil, window),
	}
}

// Allow counts an attempt for key and reports whether it is within the limit.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry := rl.current(key)
	if entry.count >= rl.maxAttempts {
		return false
	}
	entry.count++
	return true
}

// RecordFailure counts an attempt without checking the limit, so failed
// logins use up the budget faster.
func (rl *RateLimiter) RecordFailure(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.current(key).count++
}

// Reset forgets key, e.g. after a successful login.
func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.entries.Remove(key)
}

// TimeUntilReset returns how long until key's window ends.
func (rl *RateLimiter) TimeUntilReset(key string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.entries.Peek(key)
	if !ok {
		return 0
	}
	if remaining := rl.window - time.Since(entry.windowStart); remaining > 0 {
		return remaining
	}
	return 0
}

// current returns key's entry, starting a new window if there is none or the
// old one has ended. Callers hold mu.
func (rl *RateLimiter) current(key string) *rateLimitEntry {
	now := time.Now()
	entry, ok := rl.entries.Get(key)
	if !ok || now.Sub(entry.windowStart) >= rl.window {
		entry = &rateLimitEntry{windowStart: now}
		rl.entries.Add(key, entry)
	}
	return entry
}

// =============================================================================
// Rate Limit Middleware
// =============================================================================

// RateLimitMiddleware limits requests per client IP.
type RateLimitMiddleware struct {
	limiter *RateLimiter
	logger  *slog.Logger
}

// NewRateLimitMiddleware creates a new rate limit middleware.
func NewRateLimitMiddleware(limiter *RateLimiter, logger *slog.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter, logger: logger}
}

// Limit responds 429 with Retry-After once a client is over the limit.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := getClientIP(r)

		if !m.limiter.Allow(clientIP) {
			m.logger.Warn("rate limit exceeded",
				"ip", clientIP,
				"path", r.URL.Path,
				"method", r.Method,
			)

			retryAfter := max(int(m.limiter.TimeUntilReset(clientIP).Seconds()), 1)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

			err := domain.Errorf(domain.ERATELIMIT, "", "Too many requests. Please try again later.")
			handler.ErrorResponse(w, r, m.logger, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Auth Rate Limiter
// =============================================================================

// AuthRateLimiter holds the limiters of the sign-in endpoints.
type AuthRateLimiter struct {
	loginLimiter  *RateLimiter
	signupLimiter *RateLimiter
	logger        *slog.Logger
}

// NewAuthRateLimiter creates the sign-in limiters:
// - Login: 5 attempts per 15 minutes
// - Sign-up: 3 attempts per hour
func NewAuthRateLimiter(logger *slog.Logger) *AuthRateLimiter {
	return &AuthRateLimiter{
		loginLimiter:  NewRateLimiter(5, 15*time.Minute, logger),
		signupLimiter: NewRateLimiter(3, time.Hour, logger),
		logger:        logger,
	}
}

// LimitLogin rate limits login attempts.
func (a *AuthRateLimiter) LimitLogin(next http.Handler) http.Handler {
	return NewRateLimitMiddleware(a.loginLimiter, a.logger).Limit(next)
}

// LimitSignup rate limits account creation.
func (a *AuthRateLimiter) LimitSignup(next http.Handler) http.Handler {
	return NewRateLimitMiddleware(a.signupLimiter, a.logger).Limit(next)
}

// RecordFailedLogin counts a failed login for the client of r.
func (a *AuthRateLimiter) RecordFailedLogin(r *http.Request) {
	a.loginLimiter.RecordFailure(getClientIP(r))
}

// ResetLogin clears the login limit for the client of r.
func (a *AuthRateLimiter) ResetLogin(r *http.Request) {
	a.loginLimiter.Reset(getClientIP(r))
}

// =============================================================================
// Helpers
// =============================================================================

// getClientIP returns the first X-Forwarded-For address, then X-Real-IP, then
// the connection's remote address.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
