package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisConnectTimeout = 30 * time.Second
	redisRetryAttempts  = 3
	redisRetryInterval  = 5 * time.Second
)

var ErrRedisNotReady = errors.New("redis is not ready")

// ConnectRedis pings the server until it answers or the attempts run out.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
	defer cancel()

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	for attempt := 0; attempt < redisRetryAttempts; attempt++ {
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(redisRetryInterval):
		}
	}
	return nil, ErrRedisNotReady
}
