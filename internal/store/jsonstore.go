package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// JSONStore keeps the snapshot in a single flat file. Saves go through
// a temp file and rename so a crash mid-write cannot corrupt the
// previous snapshot.
type JSONStore struct {
	path string
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Load(_ context.Context) (Snapshot, error) {
	snap := Empty()

	f, err := os.Open(s.path)
	if err != nil {
		return snap, fmt.Errorf("opening state file: %w", err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return Empty(), fmt.Errorf("decoding state file: %w", err)
	}

	if snap.Accounts == nil {
		snap.Accounts = Empty().Accounts
	}
	if snap.Profiles == nil {
		snap.Profiles = Empty().Profiles
	}
	return snap, nil
}

func (s *JSONStore) Save(_ context.Context, snap Snapshot) error {
	snap.Meta.Storage = "json_snapshot"
	snap.Meta.Version = SchemaVersion
	snap.Meta.Timestamp = timeNow()

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encoding state: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing temp state file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}
