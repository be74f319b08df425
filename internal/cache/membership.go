package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"flowproject-backend-go/internal/core"
)

const membershipKeyPrefix = "membership:"

// RedisMembershipCache caches uid → companyId. Redis errors degrade to cache misses.
type RedisMembershipCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

var _ core.MembershipCache = (*RedisMembershipCache)(nil)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisMembershipCache connects to Redis and verifies the connection with PING.
func NewRedisMembershipCache(ctx context.Context, opts Options, logger *zap.Logger) (*RedisMembershipCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}

	logger.Info("Connected to Redis", zap.String("addr", opts.Addr), zap.Duration("ttl", opts.TTL))
	return NewMembershipCacheFromClient(client, opts.TTL, logger), nil
}

// NewMembershipCacheFromClient wraps an existing client.
func NewMembershipCacheFromClient(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisMembershipCache {
	return &RedisMembershipCache{client: client, ttl: ttl, logger: logger}
}

func membershipKey(uid string) string {
	return membershipKeyPrefix + uid
}

func (c *RedisMembershipCache) GetCompanyID(ctx context.Context, uid string) (string, bool) {
	val, err := c.client.Get(ctx, membershipKey(uid)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Membership cache read failed", zap.String("uid", uid), zap.Error(err))
		}
		return "", false
	}
	return val, val != ""
}

func (c *RedisMembershipCache) SetCompanyID(ctx context.Context, uid, companyID string) {
	if err := c.client.Set(ctx, membershipKey(uid), companyID, c.ttl).Err(); err != nil {
		c.logger.Warn("Membership cache write failed", zap.String("uid", uid), zap.Error(err))
	}
}

func (c *RedisMembershipCache) Delete(ctx context.Context, uid string) {
	if err := c.client.Del(ctx, membershipKey(uid)).Err(); err != nil {
		c.logger.Warn("Membership cache delete failed", zap.String("uid", uid), zap.Error(err))
	}
}

// Close closes the Redis client.
func (c *RedisMembershipCache) Close() error {
	return c.client.Close()
}

// Noop is used when Redis is not configured.
type Noop struct{}

var _ core.MembershipCache = Noop{}

func (Noop) GetCompanyID(context.Context, string) (string, bool) { return "", false }
func (Noop) SetCompanyID(context.Context, string, string)        {}
func (Noop) Delete(context.Context, string)                      {}
