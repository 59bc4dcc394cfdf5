package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/askwhyharsh/deskfinder/internal/config"
	"github.com/askwhyharsh/deskfinder/internal/storage"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimiter defines the contract for enforcing rate limits.
type RateLimiter interface {
	// AllowIPRequest checks if an IP can make a request.
	AllowIPRequest(ctx context.Context, ip string) (bool, error)

	// AllowSessionCreation checks if an IP can create a new session.
	AllowSessionCreation(ctx context.Context, ip string) (bool, error)

	// AllowSearch checks if a session may hit the backend search endpoint.
	AllowSearch(ctx context.Context, sessionID string) (bool, error)

	// AllowDirections checks if a session may request a route.
	AllowDirections(ctx context.Context, sessionID string) (bool, error)

	// ResetLimits clears the per-session counters once a session ends.
	ResetLimits(ctx context.Context, sessionID string) error
}

type Limiter struct {
	redis  storage.RedisClient
	config config.RateLimitConfig
	now    func() time.Time
}

func NewLimiter(redisClient storage.RedisClient, config config.RateLimitConfig) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: config,
		now:    time.Now,
	}
}

// AllowIPRequest checks if an IP can make a request
func (l *Limiter) AllowIPRequest(ctx context.Context, ip string) (bool, error) {
	key := fmt.Sprintf("ratelimit:ip:%s:requests", ip)
	return l.checkSlidingWindow(ctx, key, l.config.RequestsPerMin, time.Minute)
}

// AllowSessionCreation checks if an IP can create a new session
func (l *Limiter) AllowSessionCreation(ctx context.Context, ip string) (bool, error) {
	key := fmt.Sprintf("ratelimit:ip:%s:sessions", ip)

	count, err := l.redis.Incr(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to check session creation rate limit: %w", err)
	}

	// Set expiration on first increment (1 hour)
	if count == 1 {
		if err := l.redis.Expire(ctx, key, time.Hour); err != nil {
			return false, fmt.Errorf("failed to expire session counter: %w", err)
		}
	}

	return count <= int64(l.config.SessionsPerIPPerHour), nil
}

func (l *Limiter) AllowSearch(ctx context.Context, sessionID string) (bool, error) {
	return l.checkSlidingWindow(ctx, l.searchKey(sessionID), l.config.SearchesPerMin, time.Minute)
}

func (l *Limiter) AllowDirections(ctx context.Context, sessionID string) (bool, error) {
	return l.checkSlidingWindow(ctx, l.directionsKey(sessionID), l.config.DirectionsPerMin, time.Minute)
}

// checkSlidingWindow implements a sliding window rate limiter using sorted sets
func (l *Limiter) checkSlidingWindow(ctx context.Context, key string, maxCount int, window time.Duration) (bool, error) {
	now := l.now()
	windowStart := now.Add(-window)

	// Remove old entries outside the window
	if err := l.redis.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(windowStart.UnixMilli(), 10)); err != nil {
		return false, fmt.Errorf("failed to clean old entries: %w", err)
	}

	// Count entries in current window
	count, err := l.redis.ZCard(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to count entries: %w", err)
	}

	if count >= int64(maxCount) {
		return false, nil
	}

	// Members must be unique or requests in the same millisecond collapse.
	if err := l.redis.ZAdd(ctx, key, &redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: uuid.New().String(),
	}); err != nil {
		return false, fmt.Errorf("failed to add entry: %w", err)
	}

	if err := l.redis.Expire(ctx, key, window); err != nil {
		return false, fmt.Errorf("failed to expire window: %w", err)
	}

	return true, nil
}

// ResetLimits drops the per-session windows. IP counters are kept.
func (l *Limiter) ResetLimits(ctx context.Context, sessionID string) error {
	return l.redis.Del(ctx, l.searchKey(sessionID), l.directionsKey(sessionID))
}

func (l *Limiter) searchKey(sessionID string) string {
	return fmt.Sprintf("ratelimit:search:%s", sessionID)
}

func (l *Limiter) directionsKey(sessionID string) string {
	return fmt.Sprintf("ratelimit:directions:%s", sessionID)
}
