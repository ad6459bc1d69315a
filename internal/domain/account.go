package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionDebit  TransactionType = "debit"
	TransactionCredit TransactionType = "credit"
)

// Transaction is an immutable ledger entry. Records are append-only and
// ordered chronologically by append order.
type Transaction struct {
	ID           string          `json:"id"`
	Timestamp    time.Time       `json:"timestamp"`
	Type         TransactionType `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
}

// Account holds one user's balance, PIN digest and transaction log.
// The balance is mutated only by the transaction executor.
type Account struct {
	PINHash      string          `json:"pin_hash"`
	Balance      decimal.Decimal `json:"balance"`
	Transactions []Transaction   `json:"transactions"`
}

// VoiceProfile records that a user enrolled a reference voice sample.
// It carries no biometric features; see the auth package for what the
// presence verifier actually guarantees.
type VoiceProfile struct {
	UserID     string    `json:"user_id"`
	EnrolledAt time.Time `json:"enrolled_at"`
	AudioPath  string    `json:"audio_path"`
}
