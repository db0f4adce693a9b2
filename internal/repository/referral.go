package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// ReferralCommission snapshots the commission rate at the moment the referred
// user's investment is created, so later rate changes don't affect it.
type ReferralCommission struct {
	ID           string         `db:"id"`
	ReferrerID   string         `db:"referrer_id"`
	ReferredID   string         `db:"referred_id"`
	InvestmentID sql.NullString `db:"investment_id"`
	Amount       float64        `db:"amount"`
	Rate         float64        `db:"rate"`
	Status       string         `db:"status"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    sql.NullTime   `db:"updated_at"`
}

const (
	CommissionStatusPending = "pending"
	CommissionStatusPaid    = "paid"
)

type ReferralRepository interface {
	InsertCommission(commission *ReferralCommission, tx *sqlx.Tx) (string, error)
	GetCommission(id string) (*ReferralCommission, bool, error)
	GetCommissionsByReferrerId(userID string) ([]ReferralCommission, error)
	GetReferredUsers(userID string) ([]User, error)
	MarkCommissionPaid(id string, tx *sqlx.Tx) (bool, error)
}

type ReferralRepositoryImpl struct {
	db *sqlx.DB
}

func NewReferralRepository(db *sqlx.DB) ReferralRepository {
	return &ReferralRepositoryImpl{db: db}
}

func (repo *ReferralRepositoryImpl) InsertCommission(commission *ReferralCommission, tx *sqlx.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO referral_commissions (referrer_id, referred_id, investment_id, amount, rate)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	if tx != nil {
		err := tx.QueryRowContext(ctx, query,
			commission.ReferrerID,
			commission.ReferredID,
			commission.InvestmentID,
			commission.Amount,
			commission.Rate,
		).Scan(&id)
		if err != nil {
			return "", err
		}
	} else {
		err := repo.db.GetContext(ctx, &id, query,
			commission.ReferrerID,
			commission.ReferredID,
			commission.InvestmentID,
			commission.Amount,
			commission.Rate,
		)
		if err != nil {
			return "", err
		}
	}

	return id, nil
}

func (repo *ReferralRepositoryImpl) GetCommission(id string) (*ReferralCommission, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var commission ReferralCommission

	query := `
        SELECT * FROM referral_commissions WHERE id=$1`

	err := repo.db.GetContext(ctx, &commission, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &commission, true, nil
}

func (repo *ReferralRepositoryImpl) GetCommissionsByReferrerId(userID string) ([]ReferralCommission, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var commissions []ReferralCommission

	query := `
        SELECT * FROM referral_commissions WHERE referrer_id=$1 ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &commissions, query, userID)
	if err != nil {
		return nil, err
	}

	return commissions, nil
}

func (repo *ReferralRepositoryImpl) GetReferredUsers(userID string) ([]User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var users []User

	query := `
        SELECT * FROM users WHERE referred_by=$1 AND deleted_at IS NULL ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &users, query, userID)
	if err != nil {
		return nil, err
	}

	return users, nil
}

// MarkCommissionPaid moves pending -> paid; the status guard stops a double payout.
func (repo *ReferralRepositoryImpl) MarkCommissionPaid(id string, tx *sqlx.Tx) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE referral_commissions
		SET status=$1, updated_at=now()
		WHERE id=$2 AND status=$3`

	var result sql.Result
	var err error

	if tx != nil {
		result, err = tx.ExecContext(ctx, query, CommissionStatusPaid, id, CommissionStatusPending)
	} else {
		result, err = repo.db.ExecContext(ctx, query, CommissionStatusPaid, id, CommissionStatusPending)
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
