package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/saviobatista/adsb-relay/internal/tracker"
)

// RedisClientInterface defines the Redis operations used by our client
type RedisClientInterface interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// Client manages Redis connections and operations
type Client struct {
	client RedisClientInterface
}

// New creates a new Redis client
func New(addr string) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // no password set
		DB:       0,  // use default DB
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{client: client}, nil
}

// NewWithClient creates a new Redis client with a custom RedisClientInterface (useful for testing)
func NewWithClient(client RedisClientInterface) *Client {
	return &Client{client: client}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}

// getData retrieves data from Redis and unmarshals it into the target.
// A cache miss leaves the target untouched and returns false.
func (c *Client) getData(ctx context.Context, key string, target interface{}, dataType string) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s data: %w", dataType, err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s data: %w", dataType, err)
	}

	return true, nil
}

// StoreSnapshot stores the latest position snapshot for an aircraft.
// The TTL implements the max-age policy for the current view: entries
// for aircraft no longer heard simply expire.
func (c *Client) StoreSnapshot(ctx context.Context, snap *tracker.Snapshot, ttl time.Duration) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	key := fmt.Sprintf("aircraft:%s", snap.HexIdent)
	return c.client.Set(ctx, key, data, ttl).Err()
}

// GetSnapshot retrieves the latest snapshot for an aircraft, or nil if
// none is cached.
func (c *Client) GetSnapshot(ctx context.Context, hexIdent string) (*tracker.Snapshot, error) {
	key := fmt.Sprintf("aircraft:%s", hexIdent)
	var snap tracker.Snapshot
	found, err := c.getData(ctx, key, &snap, "snapshot")
	if err != nil || !found {
		return nil, err
	}
	return &snap, nil
}

// DeleteSnapshot removes an aircraft's cached snapshot
func (c *Client) DeleteSnapshot(ctx context.Context, hexIdent string) error {
	key := fmt.Sprintf("aircraft:%s", hexIdent)
	return c.client.Del(ctx, key).Err()
}

// StoreAircraftInfo caches enrichment data for an aircraft
func (c *Client) StoreAircraftInfo(ctx context.Context, hexIdent string, info *tracker.AircraftInfo, ttl time.Duration) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal aircraft info: %w", err)
	}

	key := fmt.Sprintf("acinfo:%s", hexIdent)
	return c.client.Set(ctx, key, data, ttl).Err()
}

// GetAircraftInfo retrieves cached enrichment data. The boolean
// reports whether the cache held an entry.
func (c *Client) GetAircraftInfo(ctx context.Context, hexIdent string) (*tracker.AircraftInfo, bool, error) {
	key := fmt.Sprintf("acinfo:%s", hexIdent)
	var info tracker.AircraftInfo
	found, err := c.getData(ctx, key, &info, "aircraft info")
	if err != nil || !found {
		return nil, false, err
	}
	return &info, true, nil
}
