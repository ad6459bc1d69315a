package application

import "context"

// VoiceVerifier is the authentication boundary. Implementations state
// what they actually guarantee: the shipped presence check only proves
// a user id once submitted an audio file, it performs no biometric
// comparison. A real embedding matcher would implement this same
// interface.
type VoiceVerifier interface {
	Enroll(ctx context.Context, userID, audioPath string) error
	Verify(ctx context.Context, userID, audioPath string) (verified bool, similarity float64, err error)
}
