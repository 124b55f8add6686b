package utils

import (
	"context"
	"log"
	"time"

	"github.com/nambautroi00/ClinicBooking-sub002/config"

	"github.com/go-redis/redis/v8"
)

var (
	// SessionCacheClient backs booking sessions.
	SessionCacheClient *redis.Client
	// StashCacheClient backs the short-lived booking stash (login detour).
	StashCacheClient *redis.Client
)

// InitRedis initializes all Redis clients used by the service.
func InitRedis() {
	InitSessionCache()
	InitStashCache()
}

// InitSessionCache initializes the Redis client for booking sessions.
func InitSessionCache() {
	SessionCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSessionDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := SessionCacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Session Cache): %v", err)
	}
}

// GetSessionCacheClient returns the Redis client for booking sessions.
func GetSessionCacheClient() *redis.Client {
	if SessionCacheClient == nil {
		InitSessionCache()
	}
	return SessionCacheClient
}

// InitStashCache initializes the Redis client for the booking stash.
func InitStashCache() {
	StashCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisStashDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := StashCacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Stash Cache): %v", err)
	}
}

// GetStashCacheClient returns the Redis client for the booking stash.
func GetStashCacheClient() *redis.Client {
	if StashCacheClient == nil {
		InitStashCache()
	}
	return StashCacheClient
}
