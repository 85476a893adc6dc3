package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"roomShare/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	roomsKey         = `rooms:all`
	sessionKeyPrefix = `session:`
	inflightPrefix   = `inflight:`
)

var ErrSessionNotFound = errors.New("session not found")

type RedisCache struct {
	Client   *redis.Client
	RoomsTTL time.Duration
	logger   *zap.Logger
}

func New(ctx context.Context, options *redis.Options, roomsTTL time.Duration, logger *zap.Logger) (*RedisCache, error) {
	client := redis.NewClient(options)

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, err
	}

	return NewWithClient(client, roomsTTL, logger), nil
}

func NewWithClient(client *redis.Client, roomsTTL time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{Client: client, RoomsTTL: roomsTTL, logger: logger}
}

func (r *RedisCache) PutRooms(ctx context.Context, rooms []models.Room) error {
	jsonRooms, err := json.Marshal(rooms)
	if err != nil {
		r.logger.Error("Failed to marshal rooms", zap.Error(err))
		return err
	}

	if err := r.Client.Set(ctx, roomsKey, jsonRooms, r.RoomsTTL).Err(); err != nil {
		r.logger.Error("Failed to set rooms in cache", zap.Error(err))
		return err
	}

	r.logger.Debug("Successfully cached rooms", zap.Int("count", len(rooms)))

	return nil
}

// GetRooms returns redis.Nil on a miss.
func (r *RedisCache) GetRooms(ctx context.Context) ([]byte, error) {
	data, err := r.Client.Get(ctx, roomsKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Error("Failed to get rooms from the cache", zap.Error(err))
		}
		return nil, err
	}

	return data, nil
}

func (r *RedisCache) DeleteRooms(ctx context.Context) {
	if err := r.Client.Del(ctx, roomsKey).Err(); err != nil {
		r.logger.Warn("Error deleting rooms key", zap.Error(err))
	}
}

func (r *RedisCache) PutSession(ctx context.Context, session models.Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	return r.Client.Set(ctx, sessionKeyPrefix+session.Id, data, ttl).Err()
}

func (r *RedisCache) GetSession(ctx context.Context, id string) (models.Session, error) {
	var session models.Session

	data, err := r.Client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return session, ErrSessionNotFound
	}
	if err != nil {
		return session, err
	}

	if err := json.Unmarshal(data, &session); err != nil {
		return session, fmt.Errorf("decode session %s: %w", id, err)
	}

	return session, nil
}

func (r *RedisCache) DeleteSession(ctx context.Context, id string) error {
	return r.Client.Del(ctx, sessionKeyPrefix+id).Err()
}

// AcquireSubmission takes the caller's write lock; false means a write is
// already in flight. The TTL frees the lock if the process dies.
func (r *RedisCache) AcquireSubmission(ctx context.Context, caller string, ttl time.Duration) (bool, error) {
	return r.Client.SetNX(ctx, inflightPrefix+caller, time.Now().Unix(), ttl).Result()
}

func (r *RedisCache) ReleaseSubmission(ctx context.Context, caller string) {
	if err := r.Client.Del(ctx, inflightPrefix+caller).Err(); err != nil {
		r.logger.Warn("Error releasing submission lock", zap.String("caller", caller), zap.Error(err))
	}
}
