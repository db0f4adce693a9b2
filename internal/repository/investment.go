package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type Investment struct {
	ID             string          `db:"id"`
	UserID         string          `db:"user_id"`
	Category       string          `db:"category"`
	PlanType       string          `db:"plan_type"`
	Amount         float64         `db:"amount"`
	ExpectedReturn float64         `db:"expected_return"`
	ActualReturn   sql.NullFloat64 `db:"actual_return"`
	Status         string          `db:"status"`
	StartDate      time.Time       `db:"start_date"`
	EndDate        time.Time       `db:"end_date"`
	CommissionPaid bool            `db:"commission_paid"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      sql.NullTime    `db:"updated_at"`
}

// Investments have two terminal states. Matured credits principal plus
// return back to the wallet, cancelled refunds the principal only.
const (
	InvestmentStatusActive    = "active"
	InvestmentStatusMatured   = "matured"
	InvestmentStatusCancelled = "cancelled"
)

type InvestmentRepository interface {
	Insert(investment *Investment, tx *sqlx.Tx) (string, error)
	GetOne(id string) (*Investment, bool, error)
	GetAllByUserId(userID string) ([]Investment, error)
	Mature(id string, actualReturn float64, tx *sqlx.Tx) (bool, error)
	Cancel(id string, tx *sqlx.Tx) (bool, error)
	FlagCommissionPaid(id string, tx *sqlx.Tx) error
}

type InvestmentRepositoryImpl struct {
	db *sqlx.DB
}

func NewInvestmentRepository(db *sqlx.DB) InvestmentRepository {
	return &InvestmentRepositoryImpl{db: db}
}

func (repo *InvestmentRepositoryImpl) Insert(investment *Investment, tx *sqlx.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO investments (user_id, category, plan_type, amount, expected_return, end_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	if tx != nil {
		err := tx.QueryRowContext(ctx, query,
			investment.UserID,
			investment.Category,
			investment.PlanType,
			investment.Amount,
			investment.ExpectedReturn,
			investment.EndDate,
		).Scan(&id)
		if err != nil {
			return "", err
		}
	} else {
		err := repo.db.GetContext(ctx, &id, query,
			investment.UserID,
			investment.Category,
			investment.PlanType,
			investment.Amount,
			investment.ExpectedReturn,
			investment.EndDate,
		)
		if err != nil {
			return "", err
		}
	}

	return id, nil
}

func (repo *InvestmentRepositoryImpl) GetOne(id string) (*Investment, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var investment Investment

	query := `
        SELECT * FROM investments WHERE id=$1`

	err := repo.db.GetContext(ctx, &investment, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &investment, true, nil
}

func (repo *InvestmentRepositoryImpl) GetAllByUserId(userID string) ([]Investment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var investments []Investment

	query := `
        SELECT * FROM investments WHERE user_id=$1 ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &investments, query, userID)
	if err != nil {
		return nil, err
	}

	return investments, nil
}

// Mature transitions active -> matured. The status guard in the WHERE clause
// makes the transition happen exactly once: a second call affects zero rows,
// which the caller must treat as ineligible and abort its transaction before
// any wallet credit is written.
func (repo *InvestmentRepositoryImpl) Mature(id string, actualReturn float64, tx *sqlx.Tx) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE investments
		SET status=$1, actual_return=$2, updated_at=now()
		WHERE id=$3 AND status=$4`

	var result sql.Result
	var err error

	if tx != nil {
		result, err = tx.ExecContext(ctx, query, InvestmentStatusMatured, actualReturn, id, InvestmentStatusActive)
	} else {
		result, err = repo.db.ExecContext(ctx, query, InvestmentStatusMatured, actualReturn, id, InvestmentStatusActive)
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

// FlagCommissionPaid records that the referral commission tied to this
// investment has been paid out to the referrer.
func (repo *InvestmentRepositoryImpl) FlagCommissionPaid(id string, tx *sqlx.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE investments SET commission_paid=true, updated_at=now() WHERE id=$1`

	var err error

	if tx != nil {
		_, err = tx.ExecContext(ctx, query, id)
	} else {
		_, err = repo.db.ExecContext(ctx, query, id)
	}

	return err
}

func (repo *InvestmentRepositoryImpl) Cancel(id string, tx *sqlx.Tx) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE investments
		SET status=$1, updated_at=now()
		WHERE id=$2 AND status=$3`

	var result sql.Result
	var err error

	if tx != nil {
		result, err = tx.ExecContext(ctx, query, InvestmentStatusCancelled, id, InvestmentStatusActive)
	} else {
		result, err = repo.db.ExecContext(ctx, query, InvestmentStatusCancelled, id, InvestmentStatusActive)
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
