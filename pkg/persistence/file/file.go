// Package file provides file-based snapshot persistence. The whole form
// collection lives in a single JSON document, the file-system analogue of
// the original's one local-storage entry.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eclane/open-typeform/pkg/persistence"
)

// SnapshotFile is the fixed name the snapshot is stored under inside the
// root directory.
const SnapshotFile = "forms.json"

// Snapshotter implements persistence.Snapshotter on the local file system.
type Snapshotter struct {
	root string
}

// NewSnapshotter creates a file snapshotter rooted at the given directory.
// A "file://" prefix on root is accepted and stripped.
func NewSnapshotter(root string) *Snapshotter {
	return &Snapshotter{
		root: strings.Replace(root, "file://", "", 1),
	}
}

func (s *Snapshotter) path() string {
	return filepath.Clean(filepath.Join(s.root, SnapshotFile))
}

// LoadSnapshot reads and decodes the snapshot file. A missing file is not an
// error; it returns (nil, nil) so the caller can seed defaults.
func (s *Snapshotter) LoadSnapshot(_ context.Context) (*persistence.Snapshot, error) {
	body, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snapshot persistence.Snapshot

	err = json.Unmarshal(body, &snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w: %w", persistence.ErrSnapshotCorrupt, err)
	}

	return &snapshot, nil
}

// SaveSnapshot writes the snapshot, replacing any previous one.
func (s *Snapshotter) SaveSnapshot(_ context.Context, snapshot *persistence.Snapshot) error {
	err := os.MkdirAll(s.root, 0750)
	if err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return os.WriteFile(s.path(), data, 0600)
}

// HealthCheck verifies the root directory exists.
func (s *Snapshotter) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(s.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. For file snapshots there is nothing
// to clean up.
func (s *Snapshotter) Close(_ context.Context) error {
	return nil
}
