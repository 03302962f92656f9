package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type Redis struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, cfg RedisConfig, logger *slog.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache: redis ping %s: %w", cfg.Addr, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Redis{client: client, ttl: ttl, log: logger}, nil
}

func key(examID int64) string { return fmt.Sprintf("voxiscribe:exam:%d:bundle", examID) }

func (c *Redis) Get(ctx context.Context, examID int64) (Bundle, bool) {
	raw, err := c.client.Get(ctx, key(examID)).Bytes()
	if errors.Is(err, redis.Nil) {
		observe(false, nil)
		return Bundle{}, false
	}
	var b Bundle
	if err == nil {
		err = json.Unmarshal(raw, &b)
	}
	if err != nil {
		observe(false, err)
		c.log.Warn("exam cache read failed", "exam_id", examID, "error", err)
		return Bundle{}, false
	}
	observe(true, nil)
	return b, true
}

func (c *Redis) Put(ctx context.Context, b Bundle) {
	raw, err := json.Marshal(b)
	if err == nil {
		err = c.client.Set(ctx, key(b.Exam.ID), raw, c.ttl).Err()
	}
	if err != nil {
		c.log.Warn("exam cache write failed", "exam_id", b.Exam.ID, "error", err)
	}
}

func (c *Redis) Invalidate(ctx context.Context, examID int64) {
	if err := c.client.Del(ctx, key(examID)).Err(); err != nil {
		c.log.Warn("exam cache invalidate failed", "exam_id", examID, "error", err)
	}
}

func (c *Redis) Close() error { return c.client.Close() }
