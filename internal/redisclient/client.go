package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/claim_key.lua
var claimKeyScript string

//go:embed scripts/release_key.lua
var releaseKeyScript string

// PendingMarker is stored under a claimed key until the request completes
const PendingMarker = "__pending__"

type Client struct {
	rdb           *redis.Client
	claimScript   *redis.Script
	releaseScript *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return newClient(rdb), nil
}

func newClient(rdb *redis.Client) *Client {
	return &Client{
		rdb:           rdb,
		claimScript:   redis.NewScript(claimKeyScript),
		releaseScript: redis.NewScript(releaseKeyScript),
	}
}

// Ping checks the connection, for readiness checks
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func idempotencyKey(key string) string {
	return fmt.Sprintf("idempotency:%s", key)
}

// ClaimIdempotencyKey atomically claims key for ttl. When the key is already
// held it returns claimed=false and the stored value, which is PendingMarker
// while the first request is still in flight.
func (c *Client) ClaimIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (claimed bool, existing string, err error) {
	result, err := c.claimScript.Run(ctx, c.rdb,
		[]string{idempotencyKey(key)}, PendingMarker, ttl.Milliseconds()).Result()
	if err != nil {
		return false, "", fmt.Errorf("claim idempotency key script failed: %w", err)
	}

	return parseClaimResult(result)
}

func parseClaimResult(result interface{}) (bool, string, error) {
	pair, ok := result.([]interface{})
	if !ok || len(pair) != 2 {
		return false, "", fmt.Errorf("unexpected script result type %T", result)
	}
	flag, ok := pair[0].(int64)
	if !ok {
		return false, "", fmt.Errorf("unexpected claim flag type %T", pair[0])
	}
	value, _ := pair[1].(string)
	return flag == 1, value, nil
}

// CompleteIdempotencyKey stores the outcome of a claimed request for ttl
func (c *Client) CompleteIdempotencyKey(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, idempotencyKey(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotency result: %w", err)
	}
	return nil
}

// ReleaseIdempotencyKey drops a claim that never completed so the client may retry
func (c *Client) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	_, err := c.releaseScript.Run(ctx, c.rdb, []string{idempotencyKey(key)}, PendingMarker).Result()
	if err != nil {
		return fmt.Errorf("release idempotency key script failed: %w", err)
	}
	return nil
}
