package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/patience-portal/internal/models"
)

const (
	// SessionDuration is the default lifetime of a subscriber session.
	SessionDuration = 7 * 24 * time.Hour
	// SessionKeyPrefix is the Redis key prefix for subscriber sessions.
	SessionKeyPrefix = "subscriber_session:"

	sessionTokenBytes = 32
)

// ErrSessionCollision is returned when a freshly generated token already exists.
var ErrSessionCollision = errors.New("session token collision")

// SessionStore persists sessions. Create must never overwrite an existing token.
type SessionStore interface {
	Create(ctx context.Context, s *models.Session) error
	// Get returns nil, nil when the token is unknown.
	Get(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
}

// RedisSessionStore keeps each session as a JSON value under its token with
// a Redis TTL matching the expiry. The TTL only reclaims space; validity is
// always decided from expires_at.
type RedisSessionStore struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

type sessionRecord struct {
	SubscriberID string    `json:"subscriber_id"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s *RedisSessionStore) Create(ctx context.Context, sess *models.Session) error {
	data, err := json.Marshal(sessionRecord{
		SubscriberID: sess.SubscriberID,
		ExpiresAt:    sess.ExpiresAt,
		CreatedAt:    sess.CreatedAt,
	})
	if err != nil {
		return err
	}
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	ok, err := s.rdb.SetNX(ctx, SessionKeyPrefix+sess.Token, data, ttl).Result()
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	if !ok {
		return ErrSessionCollision
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, token string) (*models.Session, error) {
	val, err := s.rdb.Get(ctx, SessionKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var rec sessionRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &models.Session{
		Token:        token,
		SubscriberID: rec.SubscriberID,
		ExpiresAt:    rec.ExpiresAt,
		CreatedAt:    rec.CreatedAt,
	}, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, SessionKeyPrefix+token).Err()
}

// SessionService issues and validates subscriber bearer tokens.
type SessionService struct {
	store  SessionStore
	ttl    time.Duration
	now    func() time.Time
	random func([]byte) (int, error)
}

type SessionOption func(*SessionService)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionService) { s.now = now }
}

// WithRandom replaces the token entropy source, for tests.
func WithRandom(read func([]byte) (int, error)) SessionOption {
	return func(s *SessionService) { s.random = read }
}

func NewSessionService(store SessionStore, ttl time.Duration, opts ...SessionOption) *SessionService {
	if ttl <= 0 {
		ttl = SessionDuration
	}
	s := &SessionService{store: store, ttl: ttl, now: time.Now, random: rand.Read}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Issue creates a session for subscriberID and returns it. A token
// collision is reported as an error, never resolved by overwriting.
func (s *SessionService) Issue(ctx context.Context, subscriberID string) (*models.Session, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := s.random(buf); err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	now := s.now()
	sess := &models.Session{
		Token:        hex.EncodeToString(buf),
		SubscriberID: subscriberID,
		ExpiresAt:    now.Add(s.ttl),
		CreatedAt:    now,
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Validate resolves a token to its subscriber id. Unknown and expired
// tokens yield an Unauthorized Error. Validation never extends a session.
func (s *SessionService) Validate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", newError(KindUnauthorized, MsgUnauthorized)
	}
	sess, err := s.store.Get(ctx, token)
	if err != nil {
		return "", internalError(err)
	}
	if sess == nil || !sess.ValidAt(s.now()) {
		return "", newError(KindUnauthorized, MsgSessionExpired)
	}
	return sess.SubscriberID, nil
}

// Revoke deletes the session. Unknown tokens are not an error.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.Delete(ctx, token)
}
