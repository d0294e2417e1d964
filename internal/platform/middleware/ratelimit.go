package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// LoginRateLimitMessage is returned once a client exhausts its attempts.
const LoginRateLimitMessage = "Too many login attempts, please try again later"

// WindowStore counts hits per key in fixed windows. Hit records one hit and
// returns the count within the current window and the time until it resets.
type WindowStore interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int64, resetIn time.Duration, err error)
}

// RateLimitConfig holds fixed-window rate limiting configuration.
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
	Store  WindowStore
	// Prefix namespaces keys in shared stores.
	Prefix  string
	Message string
	Logger  zerolog.Logger
}

// DefaultRateLimitConfig returns the login defaults: 5 attempts per minute
// per client IP, counted in memory.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:   5,
		Window:  time.Minute,
		Store:   NewMemoryWindowStore(),
		Prefix:  "login",
		Message: LoginRateLimitMessage,
		Logger:  zerolog.Nop(),
	}
}

// RateLimit returns middleware that allows cfg.Limit requests per client IP
// per cfg.Window. Rejected requests get 429 with Retry-After. If the store
// fails the request is let through and the failure logged.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	if cfg.Store == nil {
		cfg.Store = NewMemoryWindowStore()
	}
	if cfg.Message == "" {
		cfg.Message = LoginRateLimitMessage
	}
	limit := strconv.Itoa(cfg.Limit)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := cfg.Prefix + ":" + c.RealIP()

			count, resetIn, err := cfg.Store.Hit(c.Request().Context(), key, cfg.Window)
			if err != nil {
				cfg.Logger.Error().Err(err).Str("key", key).Msg("rate limit store unavailable")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			if count > int64(cfg.Limit) {
				h.Set("Retry-After", strconv.Itoa(retryAfterSeconds(resetIn)))
				h.Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, cfg.Message)
			}
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(int64(cfg.Limit)-count, 10))
			return next(c)
		}
	}
}

func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

type window struct {
	count int64
	start time.Time
}

// MemoryWindowStore is a process-local WindowStore.
type MemoryWindowStore struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

// NewMemoryWindowStore creates an empty in-memory store.
func NewMemoryWindowStore() *MemoryWindowStore {
	return NewMemoryWindowStoreWithClock(time.Now)
}

// NewMemoryWindowStoreWithClock creates a store that reads time from now.
func NewMemoryWindowStoreWithClock(now func() time.Time) *MemoryWindowStore {
	return &MemoryWindowStore{windows: make(map[string]*window), now: now}
}

func (s *MemoryWindowStore) Hit(_ context.Context, key string, d time.Duration) (int64, time.Duration, error) {
	if d <= 0 {
		return 0, 0, fmt.Errorf("window must be positive, got %s", d)
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || now.Sub(w.start) >= d {
		w = &window{start: now}
		s.windows[key] = w
	}
	w.count++
	return w.count, w.start.Add(d).Sub(now), nil
}

// Sweep drops windows that ended before now. Run it periodically to bound
// memory.
func (s *MemoryWindowStore) Sweep(d time.Duration) int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k, w := range s.windows {
		if now.Sub(w.start) >= d {
			delete(s.windows, k)
			removed++
		}
	}
	return removed
}

// StartSweeper calls Sweep every interval until ctx is done.
func (s *MemoryWindowStore) StartSweeper(ctx context.Context, d time.Duration) {
	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep(d)
			}
		}
	}()
}
