package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
)

// RedisSessionStore keeps sessions in redis so several server processes can share them.
// Each session is a JSON value with a TTL; a set per account indexes its session ids.
type RedisSessionStore struct {
	rdb *redis.Client
}

// OpenRedisSessionStore connects to redis and checks the connection.
func OpenRedisSessionStore(ctx context.Context, addr, password string, db int) (*RedisSessionStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisSessionStore(rdb), nil
}

// NewRedisSessionStore wraps an existing client.
func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func redisSessionKey(id string) string { return sessionKeyPrefix + id }

func redisAccountKey(accountKey string) string { return sessionAccountKeyPrefix + accountKey }

func (s *RedisSessionStore) save(ctx context.Context, session *Session, onlyIfExists bool) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return ErrSessionExpired
	}

	key := redisSessionKey(session.ID)
	if onlyIfExists {
		ok, err := s.rdb.SetXX(ctx, key, data, ttl).Result()
		if err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		if !ok {
			return ErrSessionNotFound
		}
	} else if err := s.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}

	idx := redisAccountKey(session.Principal.Key())
	pipe := s.rdb.TxPipeline()
	pipe.SAdd(ctx, idx, session.ID)
	// Sessions share one TTL, so the newest session outlives the others.
	pipe.Expire(ctx, idx, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("index session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Create(ctx context.Context, session *Session) error {
	return s.save(ctx, session, false)
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.rdb.Get(ctx, redisSessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}
	return &session, nil
}

func (s *RedisSessionStore) Update(ctx context.Context, session *Session) error {
	return s.save(ctx, session, true)
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	session, err := s.Get(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil && !errors.Is(err, ErrSessionExpired) {
		return err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, redisSessionKey(id))
	if session != nil {
		pipe.SRem(ctx, redisAccountKey(session.Principal.Key()), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) DeleteByAccount(ctx context.Context, accountKey string) (int, error) {
	idx := redisAccountKey(accountKey)
	ids, err := s.rdb.SMembers(ctx, idx).Result()
	if err != nil {
		return 0, fmt.Errorf("list account sessions: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, redisSessionKey(id))
	}
	removed, err := s.rdb.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("delete account sessions: %w", err)
	}
	if err := s.rdb.Del(ctx, idx).Err(); err != nil {
		return int(removed), fmt.Errorf("delete account index: %w", err)
	}
	return int(removed), nil
}

func (s *RedisSessionStore) Close() error {
	return s.rdb.Close()
}
