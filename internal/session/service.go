package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/askwhyharsh/deskfinder/internal/listing"
	"github.com/askwhyharsh/deskfinder/internal/location"
	"github.com/askwhyharsh/deskfinder/internal/storage"
	apperrors "github.com/askwhyharsh/deskfinder/pkg/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type SessionService interface {
	Create(ctx context.Context, ipAddress string) (*Session, error)
	Get(ctx context.Context, sessionID string) (*Session, error)
	Exists(ctx context.Context, sessionID string) (bool, error)
	UpdateLastSeen(ctx context.Context, sessionID string) error
	Delete(ctx context.Context, sessionID string) error
	SetUserLocation(ctx context.Context, sessionID string, p location.Point) error
	Listings(ctx context.Context, sessionID string) ([]listing.Listing, error)
	ClearUserLocation(ctx context.Context, sessionID string) error
	BeginFetch(ctx context.Context, sessionID string, stream Stream) (uint64, error)
	IsCurrent(ctx context.Context, sessionID string, stream Stream, generation uint64) (bool, error)
	CommitListings(ctx context.Context, sessionID string, generation uint64, listings []listing.Listing) error
}

// Stream names an independent sequence of requests. A newer request only
// supersedes older ones on the same stream.
type Stream string

const (
	// StreamListings orders fetches that replace the stored listing set.
	StreamListings Stream = "listings"
	// StreamView orders everything that produces a view. Only the most
	// recently started request may be displayed.
	StreamView Stream = "view"
)

var streams = []Stream{StreamListings, StreamView}

// commitScript stores the listing set only if the caller's generation is
// still the latest one handed out.
var commitScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

type Service struct {
	redis storage.RedisClient
	ttl   time.Duration
}

// Session is the stored record plus the user position, which lives under its
// own key so that touching the record never rewrites it.
type Session struct {
	ID           string          `json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	LastSeen     time.Time       `json:"last_seen"`
	IPAddress    string          `json:"ip_address"`
	UserLocation *location.Point `json:"user_location,omitempty"`
	// UserCell is a coarse geohash of UserLocation, safe to log.
	UserCell string `json:"user_cell,omitempty"`
}

type record struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
	IPAddress string    `json:"ip_address"`
}

func NewService(redisClient storage.RedisClient, ttl time.Duration) *Service {
	return &Service{
		redis: redisClient,
		ttl:   ttl,
	}
}

func (s *Service) Create(ctx context.Context, ipAddress string) (*Session, error) {
	now := time.Now()
	session := &Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		LastSeen:  now,
		IPAddress: ipAddress,
	}

	if err := s.save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

func (s *Service) Get(ctx context.Context, sessionID string) (*Session, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, apperrors.ErrInvalidSessionID
	}

	data, err := s.redis.Get(ctx, s.sessionKey(sessionID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var rec record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	session := &Session{
		ID:        rec.ID,
		CreatedAt: rec.CreatedAt,
		LastSeen:  rec.LastSeen,
		IPAddress: rec.IPAddress,
	}

	point, err := s.userLocation(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if point != nil {
		session.UserLocation = point
		session.UserCell = point.Geohash(location.DefaultPrecision)
	}

	return session, nil
}

func (s *Service) Exists(ctx context.Context, sessionID string) (bool, error) {
	count, err := s.redis.Exists(ctx, s.sessionKey(sessionID))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateLastSeen records activity and extends every key of the session.
func (s *Service) UpdateLastSeen(ctx context.Context, sessionID string) error {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	session.LastSeen = time.Now()
	if err := s.save(ctx, session); err != nil {
		return err
	}

	keys := []string{s.listingsKey(sessionID), s.locationKey(sessionID)}
	for _, stream := range streams {
		keys = append(keys, s.generationKey(sessionID, stream))
	}
	for _, key := range keys {
		if err := s.redis.Expire(ctx, key, s.ttl); err != nil {
			return fmt.Errorf("failed to extend %s: %w", key, err)
		}
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, sessionID string) error {
	keys := []string{s.sessionKey(sessionID), s.listingsKey(sessionID), s.locationKey(sessionID)}
	for _, stream := range streams {
		keys = append(keys, s.generationKey(sessionID, stream))
	}
	return s.redis.Del(ctx, keys...)
}

func (s *Service) SetUserLocation(ctx context.Context, sessionID string, p location.Point) error {
	if !p.Valid() {
		return apperrors.ErrInvalidCoordinates
	}

	exists, err := s.Exists(ctx, sessionID)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.ErrSessionNotFound
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal location: %w", err)
	}

	if err := s.redis.Set(ctx, s.locationKey(sessionID), data, s.ttl); err != nil {
		return fmt.Errorf("failed to save location: %w", err)
	}
	return nil
}

// ClearUserLocation forgets the user's position, e.g. after a later denial.
func (s *Service) ClearUserLocation(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, s.locationKey(sessionID)); err != nil {
		return fmt.Errorf("failed to clear location: %w", err)
	}
	return nil
}

func (s *Service) userLocation(ctx context.Context, sessionID string) (*location.Point, error) {
	data, err := s.redis.Get(ctx, s.locationKey(sessionID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get location: %w", err)
	}

	var p location.Point
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal location: %w", err)
	}
	return &p, nil
}

// Listings returns the session's current listing set; empty before the
// first committed fetch.
func (s *Service) Listings(ctx context.Context, sessionID string) ([]listing.Listing, error) {
	data, err := s.redis.Get(ctx, s.listingsKey(sessionID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []listing.Listing{}, nil
		}
		return nil, fmt.Errorf("failed to get listings: %w", err)
	}

	var listings []listing.Listing
	if err := json.Unmarshal([]byte(data), &listings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal listings: %w", err)
	}
	if listings == nil {
		listings = []listing.Listing{}
	}

	return listings, nil
}

// BeginFetch hands out the next generation on stream. Only the holder of the
// latest generation may commit or display its result.
func (s *Service) BeginFetch(ctx context.Context, sessionID string, stream Stream) (uint64, error) {
	key := s.generationKey(sessionID, stream)

	gen, err := s.redis.Incr(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("failed to advance generation: %w", err)
	}

	if err := s.redis.Expire(ctx, key, s.ttl); err != nil {
		return 0, fmt.Errorf("failed to expire generation: %w", err)
	}

	return uint64(gen), nil
}

func (s *Service) IsCurrent(ctx context.Context, sessionID string, stream Stream, generation uint64) (bool, error) {
	data, err := s.redis.Get(ctx, s.generationKey(sessionID, stream))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read generation: %w", err)
	}
	return data == strconv.FormatUint(generation, 10), nil
}

// CommitListings replaces the listing set unless a newer fetch has started on
// StreamListings, in which case ErrSuperseded is returned and nothing is
// written.
func (s *Service) CommitListings(ctx context.Context, sessionID string, generation uint64, listings []listing.Listing) error {
	data, err := json.Marshal(listings)
	if err != nil {
		return fmt.Errorf("failed to marshal listings: %w", err)
	}

	res, err := s.redis.Eval(ctx, commitScript,
		[]string{s.generationKey(sessionID, StreamListings), s.listingsKey(sessionID)},
		strconv.FormatUint(generation, 10), data, s.ttl.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to commit listings: %w", err)
	}

	if n, ok := res.(int64); !ok || n != 1 {
		return apperrors.ErrSuperseded
	}
	return nil
}

func (s *Service) save(ctx context.Context, session *Session) error {
	data, err := json.Marshal(record{
		ID:        session.ID,
		CreatedAt: session.CreatedAt,
		LastSeen:  session.LastSeen,
		IPAddress: session.IPAddress,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	return s.redis.Set(ctx, s.sessionKey(session.ID), data, s.ttl)
}

func (s *Service) sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func (s *Service) listingsKey(sessionID string) string {
	return fmt.Sprintf("session:%s:listings", sessionID)
}

func (s *Service) locationKey(sessionID string) string {
	return fmt.Sprintf("session:%s:location", sessionID)
}

func (s *Service) generationKey(sessionID string, stream Stream) string {
	return fmt.Sprintf("session:%s:gen:%s", sessionID, stream)
}
