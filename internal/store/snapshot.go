// Package store persists the ledger and voice-profile state as a
// whole snapshot. Two backends implement the same Repository contract:
// a flat JSON file and Postgres. Load returns explicit errors; callers
// are expected to degrade to an empty snapshot when loading fails,
// save errors are reported and never fatal.
package store

import (
	"context"
	"time"

	"voicebank/internal/domain"
)

// Meta records how and when a snapshot was produced.
type Meta struct {
	Storage   string    `json:"storage"`
	Version   int       `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// SchemaVersion is bumped when the snapshot layout changes.
const SchemaVersion = 1

// Snapshot is the full persisted state: one account and at most one
// voice profile per user id.
type Snapshot struct {
	Meta     Meta                           `json:"_meta"`
	Accounts map[string]domain.Account      `json:"accounts"`
	Profiles map[string]domain.VoiceProfile `json:"voice_profiles"`
}

// Empty returns a snapshot with initialized, empty mappings.
func Empty() Snapshot {
	return Snapshot{
		Accounts: make(map[string]domain.Account),
		Profiles: make(map[string]domain.VoiceProfile),
	}
}

// Repository loads and saves snapshots.
type Repository interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}

// timeNow is swapped out in tests.
var timeNow = time.Now
