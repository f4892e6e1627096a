package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps redis.Client but fails safe by swallowing connectivity errors.
// A nil *Client is valid and behaves like an always-empty cache.
type Client struct {
	client *redis.Client
}

// New creates a new Redis client.
func New(addr, password string, db int) *Client {
	opts := &redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}
	return &Client{client: redis.NewClient(opts)}
}

// Ping reports whether redis is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Get returns value or nil if missing or redis unavailable.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	res, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		// redis.Nil and connectivity errors both read as a miss
		return nil, nil
	}
	return res, nil
}

// Set stores value with TTL, ignoring redis errors.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}
	_ = c.client.Set(ctx, key, value, ttl).Err()
	return nil
}

// GetJSON decodes a cached value into dst and reports whether it was a hit.
func (c *Client) GetJSON(ctx context.Context, key string, dst interface{}) bool {
	data, _ := c.Get(ctx, key)
	if data == nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

// versionTTL outlives any read that could still be racing an invalidation.
const versionTTL = time.Hour

func versionKey(key string) string {
	return key + ":version"
}

// setIfVersion stores ARGV[2] under KEYS[1] only while the counter in KEYS[2]
// still equals ARGV[1].
var setIfVersion = redis.NewScript(`
local current = redis.call("GET", KEYS[2]) or ""
if current ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

// Version returns the invalidation counter of key. Read it before loading a
// value from the database and hand it to SetJSONAt.
func (c *Client) Version(ctx context.Context, key string) string {
	if c == nil || c.client == nil {
		return ""
	}
	v, err := c.client.Get(ctx, versionKey(key)).Result()
	if err != nil {
		return ""
	}
	return v
}

// SetJSONAt stores v under key unless key was invalidated after version was
// read. A load that raced a write therefore never repopulates the cache.
func (c *Client) SetJSONAt(ctx context.Context, key, version string, v interface{}, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = setIfVersion.Run(ctx, c.client, []string{key, versionKey(key)}, version, payload, ttl.Milliseconds()).Err()
	return nil
}

// Invalidate drops keys and bumps their counters so that loads started before
// the call cannot store stale values.
func (c *Client) Invalidate(ctx context.Context, keys ...string) error {
	if c == nil || c.client == nil || len(keys) == 0 {
		return nil
	}
	_, _ = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Incr(ctx, versionKey(key))
			pipe.Expire(ctx, versionKey(key), versionTTL)
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	return nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
