package bank

import (
	"fmt"

	"github.com/google/uuid"

	"voicebank/internal/nlu"
)

// PINChangeState is one step of the voice PIN change flow.
type PINChangeState string

const (
	StateAwaitingCurrent PINChangeState = "awaiting_current"
	StateAwaitingNew     PINChangeState = "awaiting_new"
	StateAwaitingConfirm PINChangeState = "awaiting_confirm"
	StateApplied         PINChangeState = "applied"
	StateRejected        PINChangeState = "rejected"
)

// PINChange drives the three-step voice PIN change:
//
//	AwaitingCurrent -> AwaitingNew -> AwaitingConfirm -> {Applied | Rejected}
//
// Each Submit consumes one recognized utterance. A recognition failure
// at any step rejects the whole flow with a could-not-understand
// reason; it never falls through to the next step. Validation order on
// the final step: the new PIN must be exactly 4 characters, then it
// must match its confirmation, and only then is the current PIN
// checked against the store.
type PINChange struct {
	ID     string
	userID string
	exec   *Executor

	state      PINChangeState
	currentPIN string
	newPIN     string
}

func NewPINChange(userID string, exec *Executor) *PINChange {
	return &PINChange{
		ID:     uuid.NewString(),
		userID: userID,
		exec:   exec,
		state:  StateAwaitingCurrent,
	}
}

func (p *PINChange) State() PINChangeState { return p.state }

// Done reports whether the flow reached a terminal state.
func (p *PINChange) Done() bool {
	return p.state == StateApplied || p.state == StateRejected
}

// Prompt returns what the user should be asked for in the current state.
func (p *PINChange) Prompt() string {
	switch p.state {
	case StateAwaitingCurrent:
		return "Please speak your current 4-digit PIN"
	case StateAwaitingNew:
		return "Please speak your new 4-digit PIN"
	case StateAwaitingConfirm:
		return "Please confirm your new 4-digit PIN"
	default:
		return ""
	}
}

// Fail rejects the flow, recording why speech could not be used.
func (p *PINChange) Fail(reason string) string {
	p.state = StateRejected
	return fmt.Sprintf("PIN change cancelled: %s", reason)
}

// Submit feeds one recognized utterance into the flow and returns the
// next prompt or the terminal outcome message.
func (p *PINChange) Submit(text string) string {
	if p.Done() {
		return "PIN change already finished"
	}
	if text == "" {
		return p.Fail("could not understand the spoken PIN")
	}

	digits := nlu.ExtractPIN(text)

	switch p.state {
	case StateAwaitingCurrent:
		p.currentPIN = digits
		p.state = StateAwaitingNew
		return p.Prompt()

	case StateAwaitingNew:
		p.newPIN = digits
		p.state = StateAwaitingConfirm
		return p.Prompt()

	case StateAwaitingConfirm:
		return p.validate(digits)

	default:
		return p.Fail("unexpected state")
	}
}

func (p *PINChange) validate(confirm string) string {
	if len(p.newPIN) != 4 {
		p.state = StateRejected
		return fmt.Sprintf("PIN must be 4 digits. Got: %s", p.newPIN)
	}
	if p.newPIN != confirm {
		p.state = StateRejected
		return "PINs don't match. Please start over"
	}
	if !p.exec.ChangePIN(p.userID, p.currentPIN, p.newPIN) {
		p.state = StateRejected
		return "Current PIN is incorrect"
	}
	p.state = StateApplied
	return "PIN successfully changed"
}
