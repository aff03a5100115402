package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roomsync/roomsync-client/types"
)

// SnapshotVersion is baked into StateKey. A snapshot written under another
// version is never read back.
const SnapshotVersion = 1

// StateKey is the versioned key of the persisted state blob.
var StateKey = fmt.Sprintf("state:v%d", SnapshotVersion)

// Snapshot is the persisted subset of the store: the session slice only.
type Snapshot struct {
	Version int           `json:"version" yaml:"version"`
	Session types.Session `json:"session" yaml:"session"`
	SavedAt time.Time     `json:"savedAt" yaml:"savedAt"`
}

// SaveSnapshot serializes the session under StateKey.
func SaveSnapshot(ctx context.Context, s Storage, session types.Session) error {
	data, err := json.Marshal(Snapshot{
		Version: SnapshotVersion,
		Session: session,
		SavedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return s.Set(ctx, StateKey, data)
}

// LoadSnapshot reads the snapshot written by SaveSnapshot. Returns ErrNotFound
// when nothing was persisted yet.
func LoadSnapshot(ctx context.Context, s Storage) (*Snapshot, error) {
	data, err := s.Get(ctx, StateKey)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return nil, ErrNotFound
	}
	return &snap, nil
}
