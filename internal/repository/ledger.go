// The ledger is the single entry point for moving money.
// Every balance change happens inside one database transaction that
// holds a row lock on the wallet for the duration of the operation:
// the balance update, the wallet_transactions ledger row, and whatever
// dependent domain writes the caller needs (investment rows, purchase
// rows, commissions, notifications) all commit or roll back together.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrIneligibleState   = errors.New("record is not in an eligible state for this operation")
)

// LedgerEntry describes one balance movement.
type LedgerEntry struct {
	WalletID        string
	Type            string
	Direction       string
	Amount          float64
	ReferenceNumber string
	Description     string
	Status          string
	CryptoType      sql.NullString
	TxHash          sql.NullString
}

// DomainWrites runs the caller's dependent writes on the same transaction.
// Returning an error rolls back the balance change and the ledger row.
type DomainWrites func(tx *sqlx.Tx) error

type LedgerRepository interface {
	Move(ctx context.Context, entry *LedgerEntry, domain DomainWrites) (*WalletTransaction, error)
	Settle(ctx context.Context, transactionID string, approve bool, domain DomainWrites) (*WalletTransaction, error)
}

type LedgerRepositoryImpl struct {
	db *sqlx.DB
}

func NewLedgerRepository(db *sqlx.DB) LedgerRepository {
	return &LedgerRepositoryImpl{db: db}
}

func (repo *LedgerRepositoryImpl) Move(ctx context.Context, entry *LedgerEntry, domain DomainWrites) (*WalletTransaction, error) {
	// we'll use pessimistic lock to hold the wallet row for the duration of the operation,
	// so two concurrent debits can't both pass the balance check

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if entry.Direction != TransactionDirectionDebit && entry.Direction != TransactionDirectionCredit {
		return nil, errors.New("ledger entry direction must be debit or credit")
	}
	if entry.Amount <= 0 {
		return nil, errors.New("ledger entry amount must be positive")
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}

	defer tx.Rollback()

	var balance float64

	query := `
		SELECT balance FROM wallets WHERE id=$1 AND deleted_at IS NULL FOR UPDATE`

	err = tx.GetContext(ctx, &balance, query, entry.WalletID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}

	if entry.Direction == TransactionDirectionDebit {
		if balance < entry.Amount {
			return nil, ErrInsufficientFunds
		}

		query = `
			UPDATE wallets SET balance=balance-$1, updated_at=now() WHERE id=$2 AND deleted_at IS NULL`
	} else {
		query = `
			UPDATE wallets SET balance=balance+$1, updated_at=now() WHERE id=$2 AND deleted_at IS NULL`
	}

	_, err = tx.ExecContext(ctx, query, entry.Amount, entry.WalletID)
	if err != nil {
		return nil, err
	}

	if entry.ReferenceNumber == "" {
		entry.ReferenceNumber = uuid.NewString()
	}
	if entry.Status == "" {
		entry.Status = TransactionStatusCompleted
	}

	var trans WalletTransaction

	query = `
		INSERT INTO wallet_transactions (wallet_id, type, direction, amount, status, reference_number, crypto_type, tx_hash, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING *`

	err = tx.GetContext(ctx, &trans, query,
		entry.WalletID,
		entry.Type,
		entry.Direction,
		entry.Amount,
		entry.Status,
		entry.ReferenceNumber,
		entry.CryptoType,
		entry.TxHash,
		sql.NullString{String: entry.Description, Valid: entry.Description != ""},
	)
	if err != nil {
		return nil, err
	}

	if domain != nil {
		if err := domain(tx); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &trans, nil
}

// Settle resolves a pending ledger row. Deposits only touch the balance on
// approval; withdrawals were debited when requested, so declining one refunds
// the held amount. The row moves to completed or failed inside the same
// transaction as the balance effect, and the status guard on the update makes
// settling the same row twice impossible.
func (repo *LedgerRepositoryImpl) Settle(ctx context.Context, transactionID string, approve bool, domain DomainWrites) (*WalletTransaction, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}

	defer tx.Rollback()

	var trans WalletTransaction

	query := `
		SELECT * FROM wallet_transactions WHERE id=$1 FOR UPDATE`

	err = tx.GetContext(ctx, &trans, query, transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIneligibleState
		}
		return nil, err
	}

	if trans.Status != TransactionStatusPending {
		return nil, ErrIneligibleState
	}

	var balance float64

	query = `
		SELECT balance FROM wallets WHERE id=$1 AND deleted_at IS NULL FOR UPDATE`

	err = tx.GetContext(ctx, &balance, query, trans.WalletID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}

	credit := (trans.Type == TransactionTypeDeposit && approve) ||
		(trans.Type == TransactionTypeWithdrawal && !approve)

	if credit {
		query = `
			UPDATE wallets SET balance=balance+$1, updated_at=now() WHERE id=$2 AND deleted_at IS NULL`

		_, err = tx.ExecContext(ctx, query, trans.Amount, trans.WalletID)
		if err != nil {
			return nil, err
		}
	}

	status := TransactionStatusCompleted
	if !approve {
		status = TransactionStatusFailed
	}

	query = `
		UPDATE wallet_transactions SET status=$1, updated_at=now() WHERE id=$2 AND status=$3`

	result, err := tx.ExecContext(ctx, query, status, trans.ID, TransactionStatusPending)
	if err != nil {
		return nil, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrIneligibleState
	}

	if domain != nil {
		if err := domain(tx); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	trans.Status = status

	return &trans, nil
}
