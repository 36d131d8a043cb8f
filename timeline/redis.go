package timeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey 是时间线列表的键名。
const DefaultRedisKey = "notegen:timeline"

// RedisOptions configures the Redis-backed store.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
	Capacity int
}

// Redis keeps the timeline in a Redis list, newest first.
type Redis struct {
	client   *redis.Client
	key      string
	capacity int
}

// DialRedis connects and pings the server before returning the store.
func DialRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("timeline: ping redis %s failed: %w", opts.Addr, err)
	}
	return NewRedis(client, opts.Key, opts.Capacity), nil
}

func NewRedis(client *redis.Client, key string, capacity int) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Redis{client: client, key: key, capacity: capacity}
}

func (r *Redis) Append(ctx context.Context, notes ...string) error {
	if len(notes) == 0 {
		return nil
	}
	values := make([]any, len(notes))
	for i, n := range notes {
		values[i] = n
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, r.key, values...)
		pipe.LTrim(ctx, r.key, 0, int64(r.capacity-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("timeline: append: %w", err)
	}
	return nil
}

func (r *Redis) Recent(ctx context.Context, n int) ([]string, error) {
	stop := int64(n - 1)
	if n <= 0 {
		stop = -1
	}
	notes, err := r.client.LRange(ctx, r.key, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("timeline: recent: %w", err)
	}
	slices.Reverse(notes)
	return notes, nil
}

// Close releases the connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
