// Package session persists the single most recent Resonance session so a
// restarted app can pick up where the user left off.
package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/avenn/resonance/internal/echo"
)

const snapshotVersion = 1

// View names the screen a snapshot was captured on.
type View string

const (
	ViewInput    View = "input"
	ViewResult   View = "result"
	ViewArtifact View = "artifact"
)

// Snapshot is the persisted shape of a session. One slot: each save
// replaces the previous snapshot.
type Snapshot struct {
	Version     int          `json:"version"`
	Input       string       `json:"input"`
	View        View         `json:"view"`
	Result      *echo.Result `json:"result,omitempty"`
	ArtifactURL string       `json:"artifactUrl,omitempty"`
	SavedAt     time.Time    `json:"savedAt"`
}

// Store reads and writes the session snapshot at a fixed path.
type Store struct {
	path string
}

// NewStore returns a store rooted at path, or the default location under
// the user config directory when path is empty.
func NewStore(path string) (*Store, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "resonance", "session.json")
	}
	return &Store{path: path}, nil
}

// Path returns the file the store persists to.
func (s *Store) Path() string {
	return s.path
}

// Save writes the snapshot, replacing any previous one. A snapshot without
// a result is not worth restoring, so it clears the slot instead.
func (s *Store) Save(snapshot Snapshot) error {
	if snapshot.Result == nil {
		return s.Clear()
	}
	snapshot.Version = snapshotVersion
	if snapshot.SavedAt.IsZero() {
		snapshot.SavedAt = time.Now().UTC()
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// Load returns the stored snapshot. A missing, corrupt, or incompatible
// snapshot yields (nil, nil): persistence is best-effort and never blocks
// startup.
func (s *Store) Load() (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, nil
	}
	if snapshot.Version != snapshotVersion {
		return nil, nil
	}
	if snapshot.Result == nil {
		return nil, nil
	}
	return &snapshot, nil
}

// Clear removes the stored snapshot, tolerating its absence.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
