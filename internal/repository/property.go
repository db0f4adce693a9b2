package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type Property struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	Description string         `db:"description"`
	Price       float64        `db:"price"`
	Location    string         `db:"location"`
	Features    sql.NullString `db:"features"`
	Status      string         `db:"status"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   sql.NullTime   `db:"updated_at"`
}

const (
	PropertyAvailableStatus = "available"
	PropertySoldOutStatus   = "sold_out"
)

type PropertyRepository interface {
	GetAll() ([]Property, error)
	GetOne(id string) (*Property, bool, error)
	MarkSoldOut(id string, tx *sqlx.Tx) (bool, error)
	Relist(id string, tx *sqlx.Tx) error
}

type PropertyRepositoryImpl struct {
	db *sqlx.DB
}

func NewPropertyRepository(db *sqlx.DB) PropertyRepository {
	return &PropertyRepositoryImpl{db: db}
}

func (repo *PropertyRepositoryImpl) GetAll() ([]Property, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var properties []Property

	query := `
        SELECT * FROM properties ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &properties, query)
	if err != nil {
		return nil, err
	}

	return properties, nil
}

func (repo *PropertyRepositoryImpl) GetOne(id string) (*Property, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var property Property

	query := `
        SELECT * FROM properties WHERE id=$1`

	err := repo.db.GetContext(ctx, &property, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &property, true, nil
}

// MarkSoldOut reserves a property at purchase time. The status guard stops two
// buyers from committing a purchase of the same property.
func (repo *PropertyRepositoryImpl) MarkSoldOut(id string, tx *sqlx.Tx) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE properties
		SET status=$1, updated_at=now()
		WHERE id=$2 AND status=$3`

	var result sql.Result
	var err error

	if tx != nil {
		result, err = tx.ExecContext(ctx, query, PropertySoldOutStatus, id, PropertyAvailableStatus)
	} else {
		result, err = repo.db.ExecContext(ctx, query, PropertySoldOutStatus, id, PropertyAvailableStatus)
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

// Relist puts a property back on the market after its order was cancelled.
func (repo *PropertyRepositoryImpl) Relist(id string, tx *sqlx.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE properties
		SET status=$1, updated_at=now()
		WHERE id=$2`

	var err error

	if tx != nil {
		_, err = tx.ExecContext(ctx, query, PropertyAvailableStatus, id)
	} else {
		_, err = repo.db.ExecContext(ctx, query, PropertyAvailableStatus, id)
	}

	return err
}
