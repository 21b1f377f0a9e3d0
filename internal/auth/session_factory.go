package auth

import (
	"context"
	"fmt"

	"amparo/internal/config"
)

// Session backends accepted by session.store.
const (
	SessionStoreMemory = "memory"
	SessionStoreBadger = "badger"
	SessionStoreRedis  = "redis"
)

// OpenSessionStore creates the session backend selected by cfg.Store. The memory
// store starts its cleanup routine, which stops when ctx is done.
func OpenSessionStore(ctx context.Context, cfg config.SessionConfig) (SessionStore, error) {
	switch cfg.Store {
	case SessionStoreMemory, "":
		store := NewMemorySessionStore()
		if cfg.CleanupInterval > 0 {
			store.StartCleanupRoutine(ctx, cfg.CleanupInterval)
		}
		return store, nil
	case SessionStoreBadger:
		return OpenBadgerSessionStore(cfg.BadgerPath)
	case SessionStoreRedis:
		return OpenRedisSessionStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}
