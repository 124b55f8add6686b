package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthStatus is the latest snapshot of the service's backing stores: the
// Mongo slot/intent store and the two booking caches.
type HealthStatus struct {
	SlotStore    bool      `json:"slotStore"`
	SessionCache bool      `json:"sessionCache"`
	StashCache   bool      `json:"stashCache"`
	CheckedAt    time.Time `json:"checkedAt"`
}

var (
	currentHealth HealthStatus
	healthMu      sync.RWMutex
)

// GetHealthStatus returns the latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	healthMu.RLock()
	defer healthMu.RUnlock()
	return currentHealth
}

// StartHealthMonitor pings the backing stores once a minute and keeps the
// snapshot in memory, so /healthz never touches the stores itself.
func StartHealthMonitor(sessionCache, stashCache *redis.Client, mongoClient *mongo.Client) {
	go func() {
		ticker := time.NewTicker(60 * time.Second)
		defer ticker.Stop()

		ctx := context.Background()
		for range ticker.C {
			snapshot := HealthStatus{
				SlotStore:    mongoClient.Ping(ctx, nil) == nil,
				SessionCache: sessionCache.Ping(ctx).Err() == nil,
				StashCache:   stashCache.Ping(ctx).Err() == nil,
				CheckedAt:    time.Now(),
			}
			healthMu.Lock()
			currentHealth = snapshot
			healthMu.Unlock()
		}
	}()
}
