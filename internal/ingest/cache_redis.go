package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const redisKeyPrefix = "leadfinder:detail:"

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// RedisDetailCache shares agency details between processes. Redis expiry
// bounds its size. Cache errors are logged and treated as misses.
type RedisDetailCache struct {
	client redis.Cmdable
	ttl    time.Duration
	log    *logrus.Entry
}

func NewRedisDetailCache(client redis.Cmdable, ttl time.Duration) *RedisDetailCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisDetailCache{
		client: client,
		ttl:    ttl,
		log:    logrus.WithField("component", "detail-cache"),
	}
}

func (c *RedisDetailCache) Get(ctx context.Context, url string) (*AgencyDetail, bool) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+url).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warnf("get %s: %v", url, err)
		}
		return nil, false
	}
	var detail AgencyDetail
	if err := json.Unmarshal(raw, &detail); err != nil {
		c.log.Warnf("decode %s: %v", url, err)
		return nil, false
	}
	return &detail, true
}

func (c *RedisDetailCache) Set(ctx context.Context, url string, detail *AgencyDetail) {
	if detail == nil {
		return
	}
	raw, err := json.Marshal(detail)
	if err != nil {
		c.log.Warnf("encode %s: %v", url, err)
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+url, raw, c.ttl).Err(); err != nil {
		c.log.Warnf("set %s: %v", url, err)
	}
}
