package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/runleveling/server/config"
	"github.com/runleveling/server/utils"
)

// RateLimiter implements a simple in-memory rate limiter
type RateLimiter struct {
	requests map[string][]time.Time
	mutex    sync.RWMutex
	window   time.Duration
	limit    int
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[string][]time.Time),
		window:   window,
		limit:    limit,
	}

	// Cleanup old entries every minute
	go rl.cleanup()

	return rl
}

// Allow checks if a request should be allowed
func (rl *RateLimiter) Allow(key string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	var validRequests []time.Time
	for _, req := range rl.requests[key] {
		if req.After(cutoff) {
			validRequests = append(validRequests, req)
		}
	}

	if len(validRequests) >= rl.limit {
		rl.requests[key] = validRequests
		return false
	}

	validRequests = append(validRequests, now)
	rl.requests[key] = validRequests
	return true
}

// cleanup removes old entries from the rate limiter
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mutex.Lock()
		cutoff := time.Now().Add(-rl.window * 2)

		for key, requests := range rl.requests {
			var validRequests []time.Time
			for _, req := range requests {
				if req.After(cutoff) {
					validRequests = append(validRequests, req)
				}
			}

			if len(validRequests) == 0 {
				delete(rl.requests, key)
			} else {
				rl.requests[key] = validRequests
			}
		}
		rl.mutex.Unlock()
	}
}

// RateLimit middleware limits requests per IP address
func RateLimit(limit int, window time.Duration) fiber.Handler {
	limiter := NewRateLimiter(limit, window)

	return func(c *fiber.Ctx) error {
		ip := utils.GetIPAddress(c)

		if !limiter.Allow(ip) {
			slog.Warn("Rate limit exceeded",
				slog.String("type", "http"),
				slog.String("ip", ip),
				slog.String("path", c.Path()),
				slog.Int("limit", limit))

			return utils.SendError(c, 429, "RATE_LIMIT_EXCEEDED",
				"Too many requests. Please try again later.", nil)
		}

		return c.Next()
	}
}

// APIRateLimit middleware limits API requests
func APIRateLimit() fiber.Handler {
	return RateLimit(config.RateLimitRequests, config.RateLimitWindow)
}

// SyncRateLimit middleware keeps Strava sync requests scarce
func SyncRateLimit() fiber.Handler {
	return RateLimit(5, time.Minute)
}
