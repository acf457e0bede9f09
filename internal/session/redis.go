package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects and pings within five seconds.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}
	return client, nil
}

type redisStore struct {
	client redis.Cmdable
	sid    string
}

// RedisRegistry mirrors tokens under "<name>:<sid>" so every instance behind a load
// balancer sees the same session state.
func RedisRegistry(client redis.Cmdable) Registry {
	return RegistryFunc(func(sid string) Store {
		return &redisStore{client: client, sid: sid}
	})
}

func (s *redisStore) key(name string) string {
	return fmt.Sprintf("%s:%s", name, s.sid)
}

func (s *redisStore) Get(ctx context.Context) (string, bool) {
	value, err := s.client.Get(ctx, s.key(DefaultName)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "session mirror read failed", slog.Any("error", err))
		}
		return "", false
	}
	return value, value != ""
}

// Set writes without TTL.
func (s *redisStore) Set(ctx context.Context, token string) error {
	return s.client.Set(ctx, s.key(DefaultName), token, 0).Err()
}

// SetFor writes with a TTL so abandoned sessions do not outlive their token in redis.
// Logical expiry stays with the watchdog.
func (s *redisStore) SetFor(ctx context.Context, token string, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(DefaultName), token, ttl).Err()
}

func (s *redisStore) Clear(ctx context.Context, name string, _ ClearOptions) error {
	if name == "" {
		name = DefaultName
	}
	return s.client.Del(ctx, s.key(name)).Err()
}
