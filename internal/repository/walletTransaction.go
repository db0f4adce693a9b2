package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// WalletTransaction is an immutable ledger row documenting one balance
// movement. Only the status column ever changes after insert.
type WalletTransaction struct {
	ID              string         `db:"id"`
	WalletID        string         `db:"wallet_id"`
	Type            string         `db:"type"`
	Direction       string         `db:"direction"`
	Amount          float64        `db:"amount"`
	Status          string         `db:"status"`
	ReferenceNumber string         `db:"reference_number"`
	CryptoType      sql.NullString `db:"crypto_type"`
	TxHash          sql.NullString `db:"tx_hash"`
	Description     sql.NullString `db:"description"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       sql.NullTime   `db:"updated_at"`
}

const (
	TransactionTypeDeposit    = "deposit"
	TransactionTypeWithdrawal = "withdrawal"
	TransactionTypeInvestment = "investment"
	TransactionTypeReturn     = "return"
	TransactionTypePurchase   = "purchase"
	TransactionTypeCommission = "commission"

	TransactionDirectionDebit  = "debit"
	TransactionDirectionCredit = "credit"

	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

type TransactionFilters struct {
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

type WalletTransactionRepository interface {
	Insert(transaction *WalletTransaction) (*WalletTransaction, error)
	GetOne(id string) (*WalletTransaction, bool, error)
	GetAllByWalletId(walletID string, filters *TransactionFilters) ([]WalletTransaction, error)
	FindByReference(referenceNumber string) (*WalletTransaction, bool, error)
	UpdateStatus(id, status string, tx *sqlx.Tx) (bool, error)
}

type WalletTransactionRepositoryImpl struct {
	db *sqlx.DB
}

func NewWalletTransactionRepository(db *sqlx.DB) WalletTransactionRepository {
	return &WalletTransactionRepositoryImpl{db: db}
}

// Insert records a ledger row without touching the wallet balance.
// It's used for pending crypto deposits that only credit the wallet
// after admin approval; balance-moving rows go through LedgerRepository.Move.
func (repo *WalletTransactionRepositoryImpl) Insert(transaction *WalletTransaction) (*WalletTransaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var trans WalletTransaction

	query := `
		INSERT INTO wallet_transactions (wallet_id, type, direction, amount, status, reference_number, crypto_type, tx_hash, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING *`

	err := repo.db.GetContext(ctx, &trans, query,
		transaction.WalletID,
		transaction.Type,
		transaction.Direction,
		transaction.Amount,
		transaction.Status,
		transaction.ReferenceNumber,
		transaction.CryptoType,
		transaction.TxHash,
		transaction.Description,
	)
	if err != nil {
		return nil, err
	}

	return &trans, nil
}

func (repo *WalletTransactionRepositoryImpl) GetOne(id string) (*WalletTransaction, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var trans WalletTransaction

	query := `
        SELECT * FROM wallet_transactions WHERE id=$1`

	err := repo.db.GetContext(ctx, &trans, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &trans, true, nil
}

func (repo *WalletTransactionRepositoryImpl) GetAllByWalletId(walletID string, filters *TransactionFilters) ([]WalletTransaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if filters == nil {
		filters = &TransactionFilters{Limit: 10}
	}
	if filters.Limit <= 0 {
		filters.Limit = 10
	}

	query := `
		SELECT * FROM wallet_transactions
		WHERE wallet_id = $1
		AND ($2::timestamp IS NULL OR created_at >= $2)
		AND ($3::timestamp IS NULL OR created_at <= $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`

	var transactions []WalletTransaction

	err := repo.db.SelectContext(ctx, &transactions, query,
		walletID,
		filters.StartDate,
		filters.EndDate,
		filters.Limit,
		filters.Offset,
	)
	if err != nil {
		return nil, err
	}

	return transactions, nil
}

func (repo *WalletTransactionRepositoryImpl) FindByReference(referenceNumber string) (*WalletTransaction, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var trans WalletTransaction

	query := `
        SELECT * FROM wallet_transactions WHERE reference_number=$1`

	err := repo.db.GetContext(ctx, &trans, query, referenceNumber)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &trans, true, nil
}

// UpdateStatus moves a pending row to completed or failed. The WHERE guard
// keeps terminal rows terminal, so approving the same deposit twice is a no-op.
func (repo *WalletTransactionRepositoryImpl) UpdateStatus(id, status string, tx *sqlx.Tx) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
        UPDATE wallet_transactions SET status=$1, updated_at=now() WHERE id=$2 AND status=$3`

	var result sql.Result
	var err error

	if tx != nil {
		result, err = tx.ExecContext(ctx, query, status, id, TransactionStatusPending)
	} else {
		result, err = repo.db.ExecContext(ctx, query, status, id, TransactionStatusPending)
	}
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}
