// Package auth implements voice "authentication" for the demo. The
// only implementation is a presence check: it never computes or
// compares a voice embedding, so the guarantee it provides is exactly
// "this user id enrolled some audio once", nothing more. A real
// embedding matcher would be a second implementation of
// application.VoiceVerifier; the stub's semantics must not be silently
// upgraded.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"voicebank/internal/domain"
)

// PresenceVerifier enrolls voice profiles and "verifies" by key
// existence, unconditionally scoring 1.0 for enrolled users and 0.0
// otherwise.
type PresenceVerifier struct {
	mu       sync.RWMutex
	profiles map[string]domain.VoiceProfile
	now      func() time.Time
}

func NewPresenceVerifier() *PresenceVerifier {
	return &PresenceVerifier{
		profiles: make(map[string]domain.VoiceProfile),
		now:      time.Now,
	}
}

// Enroll stores a profile for the user. Re-enrolling overwrites the
// same key; nothing else is updated or deleted.
func (v *PresenceVerifier) Enroll(_ context.Context, userID, audioPath string) error {
	if userID == "" {
		return fmt.Errorf("enrolling: empty user id")
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.profiles[userID] = domain.VoiceProfile{
		UserID:     userID,
		EnrolledAt: v.now(),
		AudioPath:  audioPath,
	}
	return nil
}

// Verify reports whether the user is enrolled. The audio path is
// ignored by this implementation; the similarity score is 1.0 for any
// enrolled user and 0.0 otherwise.
func (v *PresenceVerifier) Verify(_ context.Context, userID, _ string) (bool, float64, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if _, ok := v.profiles[userID]; ok {
		return true, 1.0, nil
	}
	return false, 0.0, nil
}

// Enrolled reports whether a profile exists for the user.
func (v *PresenceVerifier) Enrolled(userID string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.profiles[userID]
	return ok
}

// Snapshot copies all profiles for persistence.
func (v *PresenceVerifier) Snapshot() map[string]domain.VoiceProfile {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make(map[string]domain.VoiceProfile, len(v.profiles))
	for id, p := range v.profiles {
		out[id] = p
	}
	return out
}

// Restore replaces the profile set with a loaded snapshot.
func (v *PresenceVerifier) Restore(profiles map[string]domain.VoiceProfile) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.profiles = make(map[string]domain.VoiceProfile, len(profiles))
	for id, p := range profiles {
		v.profiles[id] = p
	}
}
