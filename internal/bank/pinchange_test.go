package bank_test

import (
	"strings"
	"testing"

	"voicebank/internal/bank"
)

func TestPINChangeHappyPath(t *testing.T) {
	exec, ledger := newTestExecutor(t)

	flow := bank.NewPINChange(testUser, exec)
	if flow.State() != bank.StateAwaitingCurrent {
		t.Fatalf("initial state = %q", flow.State())
	}
	if flow.ID == "" {
		t.Error("flow should have a session id")
	}

	reply := flow.Submit("one two three four")
	if flow.State() != bank.StateAwaitingNew {
		t.Fatalf("after current PIN state = %q", flow.State())
	}
	if !strings.Contains(reply, "new") {
		t.Errorf("reply = %q, want prompt for new PIN", reply)
	}

	reply = flow.Submit("five six seven eight")
	if flow.State() != bank.StateAwaitingConfirm {
		t.Fatalf("after new PIN state = %q", flow.State())
	}
	if !strings.Contains(reply, "confirm") {
		t.Errorf("reply = %q, want confirmation prompt", reply)
	}

	reply = flow.Submit("five six seven eight")
	if flow.State() != bank.StateApplied {
		t.Fatalf("final state = %q, want applied (%q)", flow.State(), reply)
	}
	if !strings.Contains(reply, "successfully changed") {
		t.Errorf("reply = %q", reply)
	}

	acc := mustAccount(t, ledger, testUser)
	if acc.PINHash != bank.HashPIN("5678") {
		t.Error("stored hash should be the new PIN's digest")
	}
}

func TestPINChangeWrongLength(t *testing.T) {
	exec, _ := newTestExecutor(t)

	flow := bank.NewPINChange(testUser, exec)
	flow.Submit("one two three four")
	flow.Submit("one two") // only 2 digits
	reply := flow.Submit("one two")

	if flow.State() != bank.StateRejected {
		t.Fatalf("state = %q, want rejected", flow.State())
	}
	if !strings.Contains(reply, "PIN must be 4 digits") {
		t.Errorf("reply = %q, want length failure", reply)
	}
}

func TestPINChangeSpokenTwentyOverflows(t *testing.T) {
	exec, _ := newTestExecutor(t)

	// "twenty" extracts to "20" (two characters), so it cannot be a
	// valid 4-digit PIN on its own.
	flow := bank.NewPINChange(testUser, exec)
	flow.Submit("one two three four")
	flow.Submit("twenty")
	reply := flow.Submit("twenty")

	if flow.State() != bank.StateRejected {
		t.Fatalf("state = %q, want rejected", flow.State())
	}
	if !strings.Contains(reply, "Got: 20") {
		t.Errorf("reply = %q, want extracted digits echoed", reply)
	}
}

func TestPINChangeConfirmMismatch(t *testing.T) {
	exec, ledger := newTestExecutor(t)

	flow := bank.NewPINChange(testUser, exec)
	flow.Submit("one two three four")
	flow.Submit("five six seven eight")
	reply := flow.Submit("five six seven nine")

	if flow.State() != bank.StateRejected {
		t.Fatalf("state = %q, want rejected", flow.State())
	}
	if !strings.Contains(reply, "don't match") {
		t.Errorf("reply = %q, want mismatch failure", reply)
	}

	if mustAccount(t, ledger, testUser).PINHash != bank.HashPIN("1234") {
		t.Error("rejected flow must not change the stored hash")
	}
}

func TestPINChangeWrongCurrentPIN(t *testing.T) {
	exec, ledger := newTestExecutor(t)

	flow := bank.NewPINChange(testUser, exec)
	flow.Submit("nine nine nine nine")
	flow.Submit("five six seven eight")
	reply := flow.Submit("five six seven eight")

	if flow.State() != bank.StateRejected {
		t.Fatalf("state = %q, want rejected", flow.State())
	}
	if !strings.Contains(reply, "Current PIN is incorrect") {
		t.Errorf("reply = %q", reply)
	}
	if mustAccount(t, ledger, testUser).PINHash != bank.HashPIN("1234") {
		t.Error("stored hash must be unchanged")
	}
}

func TestPINChangeRecognitionFailureRejects(t *testing.T) {
	exec, _ := newTestExecutor(t)

	// An unrecognized utterance at any step rejects the whole flow
	// instead of advancing to the next step.
	flow := bank.NewPINChange(testUser, exec)
	flow.Submit("one two three four")
	reply := flow.Submit("")

	if flow.State() != bank.StateRejected {
		t.Fatalf("state = %q, want rejected", flow.State())
	}
	if !strings.Contains(reply, "could not understand") {
		t.Errorf("reply = %q, want could-not-understand reason", reply)
	}

	flow2 := bank.NewPINChange(testUser, exec)
	reply = flow2.Fail("could not understand the spoken PIN")
	if flow2.State() != bank.StateRejected || !strings.Contains(reply, "cancelled") {
		t.Errorf("Fail: state = %q, reply = %q", flow2.State(), reply)
	}
}

func TestPINChangeTerminalFlowStaysDone(t *testing.T) {
	exec, _ := newTestExecutor(t)

	flow := bank.NewPINChange(testUser, exec)
	flow.Submit("one two three four")
	flow.Submit("five six seven eight")
	flow.Submit("five six seven eight")

	if !flow.Done() {
		t.Fatal("flow should be done")
	}
	if reply := flow.Submit("one"); !strings.Contains(reply, "already finished") {
		t.Errorf("reply = %q", reply)
	}
	if flow.State() != bank.StateApplied {
		t.Error("terminal state must not change")
	}
}
