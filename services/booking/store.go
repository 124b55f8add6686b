package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nambautroi00/ClinicBooking-sub002/models"
	"github.com/nambautroi00/ClinicBooking-sub002/utils"

	"github.com/go-redis/redis/v8"
)

// SessionStore persists booking sessions across requests. Sessions are
// ephemeral: a short TTL bounds abandoned attempts.
type SessionStore interface {
	Save(ctx context.Context, session *models.BookingSession) error
	Get(ctx context.Context, sessionID string) (*models.BookingSession, error)
	// GetBySlot resolves the session currently attached to a slot, used by
	// the redirect-callback path which only knows the slot id.
	GetBySlot(ctx context.Context, slotID string) (*models.BookingSession, error)
	Delete(ctx context.Context, session *models.BookingSession) error
}

// RedisSessionStore stores sessions as JSON in Redis, with a secondary
// slot-to-session index so redirect callbacks can find the live session.
type RedisSessionStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{Client: client, TTL: ttl}
}

func (s *RedisSessionStore) Save(ctx context.Context, session *models.BookingSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal booking session: %w", err)
	}
	if err := s.Client.Set(ctx, utils.SessionKeyPrefix+session.SessionID, data, s.TTL).Err(); err != nil {
		return fmt.Errorf("failed to store booking session: %w", err)
	}
	if session.Slot != nil {
		if err := s.Client.Set(ctx, utils.SessionSlotIndexPrefix+session.Slot.ID, session.SessionID, s.TTL).Err(); err != nil {
			return fmt.Errorf("failed to index booking session by slot: %w", err)
		}
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (*models.BookingSession, error) {
	data, err := s.Client.Get(ctx, utils.SessionKeyPrefix+sessionID).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking session: %w", err)
	}
	var session models.BookingSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to parse booking session: %w", err)
	}
	return &session, nil
}

func (s *RedisSessionStore) GetBySlot(ctx context.Context, slotID string) (*models.BookingSession, error) {
	sessionID, err := s.Client.Get(ctx, utils.SessionSlotIndexPrefix+slotID).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session for slot %s: %w", slotID, err)
	}
	return s.Get(ctx, sessionID)
}

func (s *RedisSessionStore) Delete(ctx context.Context, session *models.BookingSession) error {
	keys := []string{utils.SessionKeyPrefix + session.SessionID}
	if session.Slot != nil {
		keys = append(keys, utils.SessionSlotIndexPrefix+session.Slot.ID)
	}
	if err := s.Client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete booking session: %w", err)
	}
	return nil
}
