// Package redis provides Redis-backed snapshot persistence. The whole form
// collection is stored as one JSON value under a single fixed key.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/eclane/open-typeform/pkg/persistence"
)

// SnapshotKey is the fixed Redis key the snapshot is stored under.
const SnapshotKey = "open_typeform:forms"

// Snapshotter implements persistence.Snapshotter on a Redis server.
type Snapshotter struct {
	client *goredis.Client
}

// NewSnapshotter creates a Redis snapshotter from a redis:// connection URL.
func NewSnapshotter(url string) (*Snapshotter, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	return &Snapshotter{client: goredis.NewClient(opts)}, nil
}

// LoadSnapshot fetches and decodes the snapshot value. A missing key is not
// an error; it returns (nil, nil) so the caller can seed defaults.
func (s *Snapshotter) LoadSnapshot(ctx context.Context) (*persistence.Snapshot, error) {
	body, err := s.client.Get(ctx, SnapshotKey).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
	}

	var snapshot persistence.Snapshot

	err = json.Unmarshal(body, &snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w: %w", persistence.ErrSnapshotCorrupt, err)
	}

	return &snapshot, nil
}

// SaveSnapshot replaces the snapshot value. The key never expires; the
// snapshot is the durable source of truth, not a cache.
func (s *Snapshotter) SaveSnapshot(ctx context.Context, snapshot *persistence.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return s.client.Set(ctx, SnapshotKey, data, 0).Err()
}

// HealthCheck pings the Redis server.
func (s *Snapshotter) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client connection pool.
func (s *Snapshotter) Close(_ context.Context) error {
	return s.client.Close()
}
