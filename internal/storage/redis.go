package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sony/gobreaker"
)

// RedisOptions Redis 后端配置
type RedisOptions struct {
	Host     string
	Port     int
	Password string
	DB       int
	// TTL 会话数据的过期时间，模拟标签页关闭后 sessionStorage 被清空
	TTL time.Duration
}

// Redis 多个 agent 副本共享同一份会话存储。
// 连续失败后熔断，避免每个事件都等待超时。
type Redis struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
	ttl     time.Duration
}

func NewRedis(opts RedisOptions) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewRedisWithClient(client, opts.TTL)
}

// NewRedisWithClient 使用已有的客户端 (测试时传入 redismock)
func NewRedisWithClient(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{
		client: client,
		ttl:    ttl,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "session-storage",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

type redisValue struct {
	value string
	ok    bool
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	res, err := r.breaker.Execute(func() (interface{}, error) {
		v, err := r.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return redisValue{}, nil
		}
		if err != nil {
			return nil, err
		}
		return redisValue{value: v, ok: true}, nil
	})
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	rv := res.(redisValue)
	return rv.value, rv.ok, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.client.Set(ctx, key, value, r.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.client.Del(ctx, key).Err()
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
