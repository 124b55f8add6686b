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

// StashService is the narrow durable stash used only to survive an
// identity-resolution detour (forced login). Keyed by doctor id, short TTL.
type StashService interface {
	Put(ctx context.Context, stash models.BookingStash) error
	Get(ctx context.Context, doctorID string) (*models.BookingStash, error)
	Clear(ctx context.Context, doctorID string) error
}

// RedisStashService implements StashService over Redis.
type RedisStashService struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisStashService(client *redis.Client, ttl time.Duration) *RedisStashService {
	return &RedisStashService{Client: client, TTL: ttl}
}

func (s *RedisStashService) Put(ctx context.Context, stash models.BookingStash) error {
	data, err := json.Marshal(stash)
	if err != nil {
		return fmt.Errorf("failed to marshal booking stash: %w", err)
	}
	if err := s.Client.Set(ctx, utils.StashKeyPrefix+stash.DoctorID, data, s.TTL).Err(); err != nil {
		return fmt.Errorf("failed to store booking stash: %w", err)
	}
	return nil
}

func (s *RedisStashService) Get(ctx context.Context, doctorID string) (*models.BookingStash, error) {
	data, err := s.Client.Get(ctx, utils.StashKeyPrefix+doctorID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking stash: %w", err)
	}
	var stash models.BookingStash
	if err := json.Unmarshal([]byte(data), &stash); err != nil {
		return nil, fmt.Errorf("failed to parse booking stash: %w", err)
	}
	return &stash, nil
}

func (s *RedisStashService) Clear(ctx context.Context, doctorID string) error {
	if err := s.Client.Del(ctx, utils.StashKeyPrefix+doctorID).Err(); err != nil {
		return fmt.Errorf("failed to clear booking stash: %w", err)
	}
	return nil
}
