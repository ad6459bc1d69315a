// Package bank holds the ledger store and the transaction executor:
// account balances, PIN digests, the append-only transaction log, and
// the operations voice commands are dispatched to.
package bank

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/shopspring/decimal"

	"voicebank/internal/domain"
)

// Ledger is the typed account mapping. All account access goes through
// it, and each account is guarded by its own mutex so a concurrent
// read-then-write balance update cannot lose an update.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[string]*ledgerAccount
}

type ledgerAccount struct {
	mu   sync.Mutex
	data domain.Account
}

func NewLedger() *Ledger {
	return &Ledger{accounts: make(map[string]*ledgerAccount)}
}

// HashPIN returns the one-way digest stored and compared for PINs.
// It is deliberately deterministic: PIN verification is an exact
// digest equality check.
func HashPIN(pin string) string {
	sum := sha256.Sum256([]byte(pin))
	return hex.EncodeToString(sum[:])
}

// CreateAccount registers a new account with the given PIN and opening
// balance. It fails if the user already has one.
func (l *Ledger) CreateAccount(userID, pin string, balance decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.accounts[userID]; ok {
		return ErrAccountExists
	}

	l.accounts[userID] = &ledgerAccount{
		data: domain.Account{
			PINHash: HashPIN(pin),
			Balance: balance,
		},
	}
	return nil
}

// Exists reports whether the user has an account.
func (l *Ledger) Exists(userID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.accounts[userID]
	return ok
}

// Account returns a copy of the user's account.
func (l *Ledger) Account(userID string) (domain.Account, error) {
	l.mu.RLock()
	acc, ok := l.accounts[userID]
	l.mu.RUnlock()
	if !ok {
		return domain.Account{}, ErrAccountNotFound
	}

	acc.mu.Lock()
	defer acc.mu.Unlock()

	cp := acc.data
	cp.Transactions = append([]domain.Transaction(nil), acc.data.Transactions...)
	return cp, nil
}

// update runs fn with the account locked. Mutations made by fn are
// visible to subsequent calls.
func (l *Ledger) update(userID string, fn func(*domain.Account)) error {
	l.mu.RLock()
	acc, ok := l.accounts[userID]
	l.mu.RUnlock()
	if !ok {
		return ErrAccountNotFound
	}

	acc.mu.Lock()
	defer acc.mu.Unlock()
	fn(&acc.data)
	return nil
}

// Snapshot copies all accounts for persistence.
func (l *Ledger) Snapshot() map[string]domain.Account {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]domain.Account, len(l.accounts))
	for id, acc := range l.accounts {
		acc.mu.Lock()
		cp := acc.data
		cp.Transactions = append([]domain.Transaction(nil), acc.data.Transactions...)
		acc.mu.Unlock()
		out[id] = cp
	}
	return out
}

// Restore replaces the ledger contents with a loaded snapshot.
func (l *Ledger) Restore(accounts map[string]domain.Account) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.accounts = make(map[string]*ledgerAccount, len(accounts))
	for id, data := range accounts {
		cp := data
		cp.Transactions = append([]domain.Transaction(nil), data.Transactions...)
		l.accounts[id] = &ledgerAccount{data: cp}
	}
}
