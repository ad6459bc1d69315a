package auth_test

import (
	"context"
	"testing"

	"voicebank/internal/auth"
)

func TestPresenceVerifier(t *testing.T) {
	v := auth.NewPresenceVerifier()
	ctx := context.Background()

	verified, similarity, err := v.Verify(ctx, "user123", "auth.wav")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verified || similarity != 0.0 {
		t.Errorf("unenrolled user: verified=%t similarity=%v, want false/0.0", verified, similarity)
	}

	if err := v.Enroll(ctx, "user123", "enrollment.wav"); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	verified, similarity, err = v.Verify(ctx, "user123", "anything-at-all.wav")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !verified || similarity != 1.0 {
		t.Errorf("enrolled user: verified=%t similarity=%v, want true/1.0", verified, similarity)
	}
}

func TestPresenceVerifierEmptyUserID(t *testing.T) {
	v := auth.NewPresenceVerifier()
	if err := v.Enroll(context.Background(), "", "x.wav"); err == nil {
		t.Error("enrolling an empty user id should fail")
	}
}

func TestPresenceVerifierReEnrollOverwrites(t *testing.T) {
	v := auth.NewPresenceVerifier()
	ctx := context.Background()

	v.Enroll(ctx, "user123", "first.wav")
	v.Enroll(ctx, "user123", "second.wav")

	profiles := v.Snapshot()
	if len(profiles) != 1 {
		t.Fatalf("profiles = %d, want 1", len(profiles))
	}
	if profiles["user123"].AudioPath != "second.wav" {
		t.Errorf("audio path = %q, want the re-enrolled sample", profiles["user123"].AudioPath)
	}
}

func TestPresenceVerifierSnapshotRestore(t *testing.T) {
	v := auth.NewPresenceVerifier()
	ctx := context.Background()
	v.Enroll(ctx, "alice", "a.wav")
	v.Enroll(ctx, "bob", "b.wav")

	restored := auth.NewPresenceVerifier()
	restored.Restore(v.Snapshot())

	for _, user := range []string{"alice", "bob"} {
		if !restored.Enrolled(user) {
			t.Errorf("%s should be enrolled after restore", user)
		}
	}
	if restored.Enrolled("carol") {
		t.Error("carol should not be enrolled")
	}
}
