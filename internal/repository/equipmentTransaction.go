package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// EquipmentTransaction mirrors PropertyTransaction; green-energy equipment
// orders follow the same installment and delivery lifecycle.
type EquipmentTransaction struct {
	ID                string       `db:"id"`
	EquipmentID       string       `db:"equipment_id"`
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

type EquipmentTransactionRepository interface {
	Insert(transaction *EquipmentTransaction, tx *sqlx.Tx) (string, error)
	GetOne(id string) (*EquipmentTransaction, bool, error)
	GetAllByUserId(userID string) ([]EquipmentTransaction, error)
	PayInstallment(id string, tx *sqlx.Tx) (bool, error)
	UpdateStatus(id, from, to string, tx *sqlx.Tx) (bool, error)
}

type EquipmentTransactionRepositoryImpl struct {
	db *sqlx.DB
}

func NewEquipmentTransactionRepository(db *sqlx.DB) EquipmentTransactionRepository {
	return &EquipmentTransactionRepositoryImpl{db: db}
}

func (repo *EquipmentTransactionRepositoryImpl) Insert(transaction *EquipmentTransaction, tx *sqlx.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO equipment_transactions (equipment_id, user_id, amount, type, installments, installment_amount, paid_installments)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	if tx != nil {
		err := tx.QueryRowContext(ctx, query,
			transaction.EquipmentID,
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
			transaction.EquipmentID,
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

func (repo *EquipmentTransactionRepositoryImpl) GetOne(id string) (*EquipmentTransaction, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var transaction EquipmentTransaction

	query := `
        SELECT * FROM equipment_transactions WHERE id=$1`

	err := repo.db.GetContext(ctx, &transaction, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &transaction, true, nil
}

func (repo *EquipmentTransactionRepositoryImpl) GetAllByUserId(userID string) ([]EquipmentTransaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var transactions []EquipmentTransaction

	query := `
        SELECT * FROM equipment_transactions WHERE user_id=$1 ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &transactions, query, userID)
	if err != nil {
		return nil, err
	}

	return transactions, nil
}

func (repo *EquipmentTransactionRepositoryImpl) PayInstallment(id string, tx *sqlx.Tx) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE equipment_transactions
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

func (repo *EquipmentTransactionRepositoryImpl) UpdateStatus(id, from, to string, tx *sqlx.Tx) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE equipment_transactions
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
