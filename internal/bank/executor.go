package bank

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"voicebank/internal/domain"
	"voicebank/internal/nlu"
)

// DefaultHistoryCount is how many records ListTransactions returns
// when the caller does not ask for a specific count.
const DefaultHistoryCount = 5

// Executor validates and applies parsed voice commands against the
// ledger, producing the user-facing response for each one. Responses
// are plain strings: parse and business-rule failures are surfaced as
// messages, never as errors, and leave the ledger untouched.
type Executor struct {
	ledger   *Ledger
	currency string
	now      func() time.Time
}

func NewExecutor(ledger *Ledger, currency string) *Executor {
	if currency == "" {
		currency = "₹"
	}
	return &Executor{
		ledger:   ledger,
		currency: currency,
		now:      time.Now,
	}
}

// Transfer parses a transfer command and, when the amount fits the
// balance, debits the account and appends a debit record carrying the
// new balance. Missing fields produce a clarification prompt. Amounts
// are not floor-checked: a zero or negative spoken amount is applied
// as-is (known gap, kept deliberately).
func (e *Executor) Transfer(userID, text string) string {
	details := nlu.ExtractTransfer(text)

	if details.Amount == nil || details.Recipient == "" {
		return "Could not understand transfer details. Please specify amount and recipient like 'transfer 500 to John'"
	}

	amount := *details.Amount
	var response string

	err := e.ledger.update(userID, func(acc *domain.Account) {
		if amount.GreaterThan(acc.Balance) {
			response = fmt.Sprintf("Insufficient funds. Available balance: %s%s", e.currency, acc.Balance)
			return
		}

		acc.Balance = acc.Balance.Sub(amount)
		acc.Transactions = append(acc.Transactions, domain.Transaction{
			ID:           uuid.NewString(),
			Timestamp:    e.now(),
			Type:         domain.TransactionDebit,
			Amount:       amount,
			Description:  fmt.Sprintf("Transfer to %s", details.Recipient),
			BalanceAfter: acc.Balance,
		})

		response = fmt.Sprintf("Successfully transferred %s%s to %s. New balance: %s%s",
			e.currency, amount, details.Recipient, e.currency, acc.Balance)
	})
	if err != nil {
		return fmt.Sprintf("No account found for user %s", userID)
	}

	return response
}

// CheckBalance is a pure read.
func (e *Executor) CheckBalance(userID string) string {
	acc, err := e.ledger.Account(userID)
	if err != nil {
		return fmt.Sprintf("No account found for user %s", userID)
	}
	return fmt.Sprintf("Your current account balance is: %s%s", e.currency, acc.Balance)
}

// ListTransactions returns the last count records in chronological
// order, newest last. It never mutates state.
func (e *Executor) ListTransactions(userID string, count int) string {
	if count <= 0 {
		count = DefaultHistoryCount
	}

	acc, err := e.ledger.Account(userID)
	if err != nil {
		return fmt.Sprintf("No account found for user %s", userID)
	}

	txns := acc.Transactions
	if len(txns) == 0 {
		return "No recent transactions found."
	}
	if len(txns) > count {
		txns = txns[len(txns)-count:]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Last %d transactions:\n", len(txns))
	for _, txn := range txns {
		fmt.Fprintf(&sb, "%s - %s%s - %s\n",
			txn.Timestamp.Format("2006-01-02 15:04:05"), e.currency, txn.Amount, txn.Description)
	}
	return sb.String()
}

// ChangePIN replaces the stored PIN digest when oldPIN's digest
// matches it exactly. On mismatch it returns false and changes
// nothing.
func (e *Executor) ChangePIN(userID, oldPIN, newPIN string) bool {
	changed := false
	err := e.ledger.update(userID, func(acc *domain.Account) {
		if HashPIN(oldPIN) != acc.PINHash {
			return
		}
		acc.PINHash = HashPIN(newPIN)
		changed = true
	})
	if err != nil {
		return false
	}
	return changed
}
