package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// Notification rows are written inside the same ledger transaction as the
// balance movement they describe, so a committed operation always has its
// notification and a rolled-back one never does.
type Notification struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Title     string    `db:"title"`
	Message   string    `db:"message"`
	Type      string    `db:"type"`
	Read      bool      `db:"read"`
	CreatedAt time.Time `db:"created_at"`
}

const (
	NotificationTypeTransaction = "transaction"
	NotificationTypeInvestment  = "investment"
	NotificationTypeOrder       = "order"
	NotificationTypeCommission  = "commission"
	NotificationTypeKyc         = "kyc"
)

type NotificationRepository interface {
	Insert(notification *Notification, tx *sqlx.Tx) (string, error)
	GetAllByUserId(userID string, limit, offset int) ([]Notification, error)
	MarkRead(id, userID string) (bool, error)
}

type NotificationRepositoryImpl struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &NotificationRepositoryImpl{db: db}
}

func (repo *NotificationRepositoryImpl) Insert(notification *Notification, tx *sqlx.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO notifications (user_id, title, message, type)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	if tx != nil {
		err := tx.QueryRowContext(ctx, query,
			notification.UserID,
			notification.Title,
			notification.Message,
			notification.Type,
		).Scan(&id)
		if err != nil {
			return "", err
		}
	} else {
		err := repo.db.GetContext(ctx, &id, query,
			notification.UserID,
			notification.Title,
			notification.Message,
			notification.Type,
		)
		if err != nil {
			return "", err
		}
	}

	return id, nil
}

func (repo *NotificationRepositoryImpl) GetAllByUserId(userID string, limit, offset int) ([]Notification, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 10
	}

	var notifications []Notification

	query := `
        SELECT * FROM notifications WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	err := repo.db.SelectContext(ctx, &notifications, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return notifications, nil
}

func (repo *NotificationRepositoryImpl) MarkRead(id, userID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE notifications SET read=true WHERE id=$1 AND user_id=$2`

	result, err := repo.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return false, err
	}

	var rows int64
	rows, err = result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}
