package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type PropertyTransaction struct {
	ID                string       `db:"id"`
	PropertyID        string       `db:"property_id"`
	UserID            string       `db:"user_id"`
	Amount            float64      `db:"amount"`
	Type              string       `db:"type"`
	Installments      int          `db:"installments"`
	InstallmentAmount float64      `db:"installment_amount"`
	PaidInstallments  int          `db:"paid_installments"`
	Status            string       `db:"status"`
	CreatedAt         time.Time    `db:"created_at"`
	UpdatedAt         sql.NullTime `db:"updated_at"`
}

const (
	PurchaseTypeFull        = "full"
	PurchaseTypeInstallment = "installment"

	OrderStatusPending        = "pending"
	OrderStatusAccepted       = "accepted"
	OrderStatusProcessing     = "processing"
	OrderStatusOutForDelivery = "out_for_delivery"
	OrderStatusCompleted      = "completed"
	OrderStatusCancelled      = "cancelled"
)

// orderTransitions captures the delivery state machine. Cancellation is only
// reachable from the early states, and triggers a refund of amounts paid.
var orderTransitions = map[string][]string{
	OrderStatusPending:        {OrderStatusAccepted, OrderStatusCancelled},
	OrderStatusAccepted:       {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing:     {OrderStatusOutForDelivery},
	OrderStatusOutForDelivery: {OrderStatusCompleted},
}

// CanTransitionOrder reports whether an order may move from one status to another.
func CanTransitionOrder(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type PropertyTransactionRepository interface {
	Insert(transaction *PropertyTransaction, tx *sqlx.Tx) (string, error)
	GetOne(id string) (*PropertyTransaction, bool, error)
	GetAllByUserId(userID string) ([]PropertyTransaction, error)
	PayInstallment(id string, tx *sqlx.Tx) (bool, error)
	UpdateStatus(id, from, to string, tx *sqlx.Tx) (bool, error)
}

type PropertyTransactionRepositoryImpl struct {
	db *sqlx.DB
}

func NewPropertyTransactionRepository(db *sqlx.DB) PropertyTransactionRepository {
	return &PropertyTransactionRepositoryImpl{db: db}
}

func (repo *PropertyTransactionRepositoryImpl) Insert(transaction *PropertyTransaction, tx *sqlx.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO property_transactions (property_id, user_id, amount, type, installments, installment_amount, paid_installments)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	if tx != nil {
		err := tx.QueryRowContext(ctx, query,
			transaction.PropertyID,
			transaction.UserID,
			transaction.Amount,
			transaction.Type,
			transaction.Installments,
			transaction.InstallmentAmount,
			transaction.PaidInstallments,
		).Scan(&id)
		if err != nil {
			return "", err
		}
	} else {
		err := repo.db.GetContext(ctx, &id, query,
			transaction.PropertyID,
			transaction.UserID,
			transaction.Amount,
			transaction.Type,
			transaction.Installments,
			transaction.InstallmentAmount,
			transaction.PaidInstallments,
		)
		if err != nil {
			return "", err
		}
	}

	return id, nil
}

func (repo *PropertyTransactionRepositoryImpl) GetOne(id string) (*PropertyTransaction, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var transaction PropertyTransaction

	query := `
        SELECT * FROM property_transactions WHERE id=$1`

	err := repo.db.GetContext(ctx, &transaction, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &transaction, true, nil
}

func (repo *PropertyTransactionRepositoryImpl) GetAllByUserId(userID string) ([]PropertyTransaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var transactions []PropertyTransaction

	query := `
        SELECT * FROM property_transactions WHERE user_id=$1 ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &transactions, query, userID)
	if err != nil {
		return nil, err
	}

	return transactions, nil
}

// PayInstallment increments the paid counter. The guards stop payments on
// cancelled orders and over-payment past the agreed number of installments.
func (repo *PropertyTransactionRepositoryImpl) PayInstallment(id string, tx *sqlx.Tx) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE property_transactions
		SET paid_installments=paid_installments+1, updated_at=now()
		WHERE id=$1 AND status != $2 AND paid_installments < installments`

	var result sql.Result
	var err error

	if tx != nil {
		result, err = tx.ExecContext(ctx, query, id, OrderStatusCancelled)
	} else {
		result, err = repo.db.ExecContext(ctx, query, id, OrderStatusCancelled)
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

// UpdateStatus applies one state-machine step. The WHERE clause re-checks the
// current status so concurrent admin actions can't apply the same step twice.
func (repo *PropertyTransactionRepositoryImpl) UpdateStatus(id, from, to string, tx *sqlx.Tx) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE property_transactions
		SET status=$1, updated_at=now()
		WHERE id=$2 AND status=$3`

	var result sql.Result
	var err error

	if tx != nil {
		result, err = tx.ExecContext(ctx, query, to, id, from)
	} else {
		result, err = repo.db.ExecContext(ctx, query, to, id, from)
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
