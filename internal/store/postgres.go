package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"voicebank/internal/domain"
)

// PostgresStore persists snapshots in Postgres. It keeps the same
// whole-snapshot contract as the JSON store: Save replaces the stored
// state inside one transaction, Load reads all of it back.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects, pings, and creates the schema if missing.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	user_id  TEXT PRIMARY KEY,
	pin_hash TEXT NOT NULL,
	balance  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS transactions (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL REFERENCES accounts(user_id) ON DELETE CASCADE,
	seq           BIGSERIAL,
	ts            TIMESTAMPTZ NOT NULL,
	type          TEXT NOT NULL,
	amount        TEXT NOT NULL,
	description   TEXT NOT NULL,
	balance_after TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS voice_profiles (
	user_id     TEXT PRIMARY KEY,
	enrolled_at TIMESTAMPTZ NOT NULL,
	audio_path  TEXT NOT NULL
);`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (Snapshot, error) {
	snap := Empty()

	rows, err := s.db.QueryContext(ctx, `SELECT user_id, pin_hash, balance FROM accounts`)
	if err != nil {
		return Empty(), fmt.Errorf("loading accounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID, pinHash, balance string
		if err := rows.Scan(&userID, &pinHash, &balance); err != nil {
			return Empty(), fmt.Errorf("scanning account: %w", err)
		}
		bal, err := decimal.NewFromString(balance)
		if err != nil {
			return Empty(), fmt.Errorf("parsing balance for %s: %w", userID, err)
		}
		snap.Accounts[userID] = domain.Account{PINHash: pinHash, Balance: bal}
	}
	if err := rows.Err(); err != nil {
		return Empty(), fmt.Errorf("iterating accounts: %w", err)
	}

	if err := s.loadTransactions(ctx, &snap); err != nil {
		return Empty(), err
	}
	if err := s.loadProfiles(ctx, &snap); err != nil {
		return Empty(), err
	}
	return snap, nil
}

func (s *PostgresStore) loadTransactions(ctx context.Context, snap *Snapshot) error {
	const query = `
SELECT user_id, id, ts, type, amount, description, balance_after
FROM transactions
ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("loading transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		var txn domain.Transaction
		var txnType, amount, balanceAfter string
		var ts time.Time
		if err := rows.Scan(&userID, &txn.ID, &ts, &txnType, &amount, &txn.Description, &balanceAfter); err != nil {
			return fmt.Errorf("scanning transaction: %w", err)
		}

		txn.Timestamp = ts
		txn.Type = domain.TransactionType(txnType)
		if txn.Amount, err = decimal.NewFromString(amount); err != nil {
			return fmt.Errorf("parsing transaction amount: %w", err)
		}
		if txn.BalanceAfter, err = decimal.NewFromString(balanceAfter); err != nil {
			return fmt.Errorf("parsing transaction balance: %w", err)
		}

		acc, ok := snap.Accounts[userID]
		if !ok {
			continue
		}
		acc.Transactions = append(acc.Transactions, txn)
		snap.Accounts[userID] = acc
	}
	return rows.Err()
}

func (s *PostgresStore) loadProfiles(ctx context.Context, snap *Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id, enrolled_at, audio_path FROM voice_profiles`)
	if err != nil {
		return fmt.Errorf("loading voice profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.VoiceProfile
		if err := rows.Scan(&p.UserID, &p.EnrolledAt, &p.AudioPath); err != nil {
			return fmt.Errorf("scanning voice profile: %w", err)
		}
		snap.Profiles[p.UserID] = p
	}
	return rows.Err()
}

func (s *PostgresStore) Save(ctx context.Context, snap Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning save: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"transactions", "accounts", "voice_profiles"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for userID, acc := range snap.Accounts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO accounts (user_id, pin_hash, balance) VALUES ($1, $2, $3)`,
			userID, acc.PINHash, acc.Balance.String(),
		); err != nil {
			return fmt.Errorf("saving account %s: %w", userID, err)
		}

		for _, txn := range acc.Transactions {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO transactions (id, user_id, ts, type, amount, description, balance_after)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				txn.ID, userID, txn.Timestamp, string(txn.Type),
				txn.Amount.String(), txn.Description, txn.BalanceAfter.String(),
			); err != nil {
				return fmt.Errorf("saving transaction %s: %w", txn.ID, err)
			}
		}
	}

	for userID, p := range snap.Profiles {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO voice_profiles (user_id, enrolled_at, audio_path) VALUES ($1, $2, $3)`,
			userID, p.EnrolledAt, p.AudioPath,
		); err != nil {
			return fmt.Errorf("saving voice profile %s: %w", userID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing save: %w", err)
	}
	return nil
}
