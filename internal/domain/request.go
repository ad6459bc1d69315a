package domain

// RequestKind distinguishes what an audio source is delivering.
type RequestKind string

const (
	KindCommand RequestKind = "command"
	KindEnroll  RequestKind = "enroll"
	KindVerify  RequestKind = "verify"
)

// Request is the envelope an audio source hands to the assistant.
// Exactly one of Audio or Text is set: Text carries commands that
// arrived as text and skip speech recognition.
type Request struct {
	Kind   RequestKind
	UserID string
	Audio  []byte
	Text   string
}

// IsText reports whether the request carries recognized text directly.
func (r *Request) IsText() bool {
	return r.Text != ""
}
