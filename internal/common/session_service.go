package common

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gatehouse/internal/constants"
	"gatehouse/internal/logging"
	"gatehouse/internal/models/entities"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionData is what a logged-in browser's cookie points at.
type SessionData struct {
	SessionID string                   `json:"session_id"`
	Identity  entities.DiscordIdentity `json:"identity"`
	Roles     []string                 `json:"roles"`
	CreatedAt time.Time                `json:"created_at"`
	ExpiresAt time.Time                `json:"expires_at"`
}

// SessionStore is implemented by the Redis store and the in-process store.
type SessionStore interface {
	CreateSession(ctx context.Context, identity entities.DiscordIdentity, roles []string) (*SessionData, error)
	GetSession(ctx context.Context, sessionID string) (*SessionData, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

func newSession(identity entities.DiscordIdentity, roles []string, ttl time.Duration, now time.Time) *SessionData {
	return &SessionData{
		SessionID: uuid.New().String(),
		Identity:  identity,
		Roles:     roles,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func sessionKey(id string) string { return "session:" + id }

// SessionService manages user sessions in Redis
type SessionService struct {
	redis *redis.Client
	ttl   time.Duration
	now   func() time.Time
}

var _ SessionStore = (*SessionService)(nil)

func NewSessionService(client *redis.Client, ttl time.Duration) *SessionService {
	return &SessionService{redis: client, ttl: ttl, now: time.Now}
}

func (s *SessionService) CreateSession(ctx context.Context, identity entities.DiscordIdentity, roles []string) (*SessionData, error) {
	session := newSession(identity, roles, s.ttl, s.now())

	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(session.SessionID), data, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	logging.Debug("Session created", "session_id", session.SessionID, "user_id", identity.ID)
	return session, nil
}

func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*SessionData, error) {
	val, err := s.redis.Get(ctx, sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, constants.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session SessionData
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if s.now().After(session.ExpiresAt) {
		_ = s.DeleteSession(ctx, sessionID)
		return nil, constants.ErrSessionExpired
	}
	return &session, nil
}

func (s *SessionService) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// MemorySessionStore keeps sessions in process memory. Expired entries are
// evicted by the cache janitor.
type MemorySessionStore struct {
	cache *CacheService
	ttl   time.Duration
	now   func() time.Time
}

var _ SessionStore = (*MemorySessionStore)(nil)

func NewMemorySessionStore(cache *CacheService, ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{cache: cache, ttl: ttl, now: time.Now}
}

func (m *MemorySessionStore) CreateSession(_ context.Context, identity entities.DiscordIdentity, roles []string) (*SessionData, error) {
	session := newSession(identity, roles, m.ttl, m.now())
	m.cache.Set(sessionKey(session.SessionID), session, m.ttl)
	return session, nil
}

func (m *MemorySessionStore) GetSession(_ context.Context, sessionID string) (*SessionData, error) {
	v, ok := m.cache.Get(sessionKey(sessionID))
	if !ok {
		return nil, constants.ErrSessionNotFound
	}
	session, ok := v.(*SessionData)
	if !ok {
		return nil, constants.ErrSessionNotFound
	}
	if m.now().After(session.ExpiresAt) {
		m.cache.Delete(sessionKey(sessionID))
		return nil, constants.ErrSessionExpired
	}
	copied := *session
	return &copied, nil
}

func (m *MemorySessionStore) DeleteSession(_ context.Context, sessionID string) error {
	m.cache.Delete(sessionKey(sessionID))
	return nil
}
