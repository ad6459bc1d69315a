package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"voicebank/internal/domain"
	"voicebank/internal/store"
)

func TestJSONStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := store.NewJSONStore(path)
	ctx := context.Background()

	snap := store.Empty()
	snap.Accounts["user123"] = domain.Account{
		PINHash: "abc123",
		Balance: decimal.NewFromInt(9500),
		Transactions: []domain.Transaction{{
			ID:           "txn-1",
			Timestamp:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			Type:         domain.TransactionDebit,
			Amount:       decimal.NewFromInt(500),
			Description:  "Transfer to john",
			BalanceAfter: decimal.NewFromInt(9500),
		}},
	}
	snap.Profiles["user123"] = domain.VoiceProfile{
		UserID:     "user123",
		EnrolledAt: time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC),
		AudioPath:  "enrollment.wav",
	}

	if err := s.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	acc, ok := loaded.Accounts["user123"]
	if !ok {
		t.Fatal("account missing after round trip")
	}
	if acc.PINHash != "abc123" {
		t.Errorf("pin hash = %q", acc.PINHash)
	}
	if !acc.Balance.Equal(decimal.NewFromInt(9500)) {
		t.Errorf("balance = %s", acc.Balance)
	}
	if len(acc.Transactions) != 1 || acc.Transactions[0].Description != "Transfer to john" {
		t.Errorf("transactions = %+v", acc.Transactions)
	}
	if loaded.Profiles["user123"].AudioPath != "enrollment.wav" {
		t.Errorf("profile = %+v", loaded.Profiles["user123"])
	}
	if loaded.Meta.Storage != "json_snapshot" || loaded.Meta.Version != store.SchemaVersion {
		t.Errorf("meta = %+v", loaded.Meta)
	}
}

func TestJSONStoreMissingFile(t *testing.T) {
	s := store.NewJSONStore(filepath.Join(t.TempDir(), "missing.json"))

	snap, err := s.Load(context.Background())
	if err == nil {
		t.Fatal("loading a missing file should return an error for the caller to degrade on")
	}
	// The returned snapshot is still usable empty state.
	if snap.Accounts == nil || snap.Profiles == nil {
		t.Error("snapshot mappings should be initialized even on error")
	}
}

func TestJSONStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := store.NewJSONStore(path)
	snap, err := s.Load(context.Background())
	if err == nil {
		t.Fatal("corrupt file should return an error")
	}
	if len(snap.Accounts) != 0 || len(snap.Profiles) != 0 {
		t.Error("corrupt load should yield empty state")
	}
}

func TestJSONStoreSaveReplacesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := store.NewJSONStore(path)
	ctx := context.Background()

	first := store.Empty()
	first.Accounts["a"] = domain.Account{Balance: decimal.NewFromInt(1)}
	if err := s.Save(ctx, first); err != nil {
		t.Fatal(err)
	}

	second := store.Empty()
	second.Accounts["b"] = domain.Account{Balance: decimal.NewFromInt(2)}
	if err := s.Save(ctx, second); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := loaded.Accounts["a"]; ok {
		t.Error("old snapshot contents should be fully replaced")
	}
	if _, ok := loaded.Accounts["b"]; !ok {
		t.Error("new snapshot contents missing")
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not remain after save")
	}
}
