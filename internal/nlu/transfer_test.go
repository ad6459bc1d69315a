package nlu_test

import (
	"testing"

	"voicebank/internal/nlu"
)

func TestExtractTransfer(t *testing.T) {
	tests := []struct {
		text          string
		wantAmount    string // "" means absent
		wantRecipient string
	}{
		{"transfer 500 to John", "500", "john"},
		{"send 50 dollars to Alice Smith", "50", "alice smith"},
		{"pay 1200 rupees for rent", "1200", "rent"},
		{"transfer 500", "500", ""},
		{"send money to John", "", "john"},
		{"hello there", "", ""},
	}

	for _, tt := range tests {
		got := nlu.ExtractTransfer(tt.text)

		if tt.wantAmount == "" {
			if got.Amount != nil {
				t.Errorf("ExtractTransfer(%q) amount = %s, want absent", tt.text, got.Amount)
			}
		} else {
			if got.Amount == nil {
				t.Errorf("ExtractTransfer(%q) amount absent, want %s", tt.text, tt.wantAmount)
			} else if got.Amount.String() != tt.wantAmount {
				t.Errorf("ExtractTransfer(%q) amount = %s, want %s", tt.text, got.Amount, tt.wantAmount)
			}
		}

		if got.Recipient != tt.wantRecipient {
			t.Errorf("ExtractTransfer(%q) recipient = %q, want %q", tt.text, got.Recipient, tt.wantRecipient)
		}
	}
}

func TestExtractTransferFirstMatchWins(t *testing.T) {
	got := nlu.ExtractTransfer("transfer 100 to John and 200 to Mary")

	if got.Amount == nil || got.Amount.String() != "100" {
		t.Errorf("amount = %v, want first digit run 100", got.Amount)
	}
	// The recipient span is greedy over letters and spaces, so it runs
	// until the next digit.
	if got.Recipient != "john and" {
		t.Errorf("recipient = %q, want %q", got.Recipient, "john and")
	}
}
