// Package tickerstore persists CIK → ticker mappings in Redis so that
// several secfilter processes share resolutions across restarts.
package tickerstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "secfilter:ticker:"

// Store is a Redis-backed TickerStore.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New wraps an existing client. A zero ttl keeps mappings forever.
func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Open connects to the Redis server at rawURL (redis://host:port/db) and
// checks the connection.
func Open(ctx context.Context, rawURL string, ttl time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return New(client, ttl), nil
}

// Key returns the Redis key holding the ticker for cik.
func Key(cik string) string { return keyPrefix + cik }

// Get returns the stored ticker for cik.
func (s *Store) Get(ctx context.Context, cik string) (string, bool, error) {
	ticker, err := s.client.Get(ctx, Key(cik)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return ticker, true, nil
}

// Set stores the ticker for cik.
func (s *Store) Set(ctx context.Context, cik, ticker string) error {
	return s.client.Set(ctx, Key(cik), ticker, s.ttl).Err()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
