package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type Equipment struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	Description string         `db:"description"`
	Price       float64        `db:"price"`
	Features    sql.NullString `db:"features"`
	Status      string         `db:"status"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   sql.NullTime   `db:"updated_at"`
}

const EquipmentAvailableStatus = "available"

type EquipmentRepository interface {
	GetAll() ([]Equipment, error)
	GetOne(id string) (*Equipment, bool, error)
}

type EquipmentRepositoryImpl struct {
	db *sqlx.DB
}

func NewEquipmentRepository(db *sqlx.DB) EquipmentRepository {
	return &EquipmentRepositoryImpl{db: db}
}

func (repo *EquipmentRepositoryImpl) GetAll() ([]Equipment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var equipments []Equipment

	query := `
        SELECT * FROM equipments ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &equipments, query)
	if err != nil {
		return nil, err
	}

	return equipments, nil
}

func (repo *EquipmentRepositoryImpl) GetOne(id string) (*Equipment, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var equipment Equipment

	query := `
        SELECT * FROM equipments WHERE id=$1`

	err := repo.db.GetContext(ctx, &equipment, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &equipment, true, nil
}
