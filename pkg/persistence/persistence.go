// Package persistence provides the snapshot storage abstraction the form
// store mirrors itself through.
package persistence

import (
	"context"

	"github.com/eclane/open-typeform/pkg/models"
)

// SnapshotVersion is the schema version written into new snapshots. The
// original storage format carried no version tag; this field exists so
// future migrations have something to key on.
const SnapshotVersion = 1

// Snapshot is the full persisted state: every form, questions and responses
// included. The store serializes one of these after every mutation.
type Snapshot struct {
	Version int            `json:"version"`
	Forms   []*models.Form `json:"forms"`
}

// NewSnapshot wraps a form collection in a current-version snapshot.
func NewSnapshot(forms []*models.Form) *Snapshot {
	return &Snapshot{
		Version: SnapshotVersion,
		Forms:   forms,
	}
}

// Snapshotter persists and restores the whole form collection under a single
// fixed key. Implementations overwrite the previous snapshot on every save;
// there is no history and no partial write.
type Snapshotter interface {
	// LoadSnapshot returns the persisted snapshot, or (nil, nil) when none
	// has been written yet. A snapshot that exists but cannot be decoded
	// returns an error matching ErrSnapshotCorrupt.
	LoadSnapshot(ctx context.Context) (*Snapshot, error)

	// SaveSnapshot replaces the persisted snapshot.
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error

	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
