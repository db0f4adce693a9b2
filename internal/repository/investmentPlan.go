package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type InvestmentPlan struct {
	ID             string    `db:"id"`
	Category       string    `db:"category"`
	Type           string    `db:"type"`
	MinAmount      float64   `db:"min_amount"`
	MaxAmount      float64   `db:"max_amount"`
	ReturnRate     float64   `db:"return_rate"`
	DurationMonths int       `db:"duration_months"`
	CreatedAt      time.Time `db:"created_at"`
}

const (
	InvestmentCategoryRealEstate  = "real_estate"
	InvestmentCategoryGreenEnergy = "green_energy"
	InvestmentCategoryMarkets     = "markets"

	InvestmentPlanSemiAnnual = "semi_annual"
	InvestmentPlanAnnual     = "annual"
)

type InvestmentPlanRepository interface {
	GetAll() ([]InvestmentPlan, error)
	GetAllByCategory(category string) ([]InvestmentPlan, error)
	GetOneByCategoryAndType(category, planType string) (*InvestmentPlan, bool, error)
}

type InvestmentPlanRepositoryImpl struct {
	db *sqlx.DB
}

func NewInvestmentPlanRepository(db *sqlx.DB) InvestmentPlanRepository {
	return &InvestmentPlanRepositoryImpl{db: db}
}

func (repo *InvestmentPlanRepositoryImpl) GetAll() ([]InvestmentPlan, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var plans []InvestmentPlan

	query := `
        SELECT * FROM investment_plans ORDER BY category, duration_months`

	err := repo.db.SelectContext(ctx, &plans, query)
	if err != nil {
		return nil, err
	}

	return plans, nil
}

func (repo *InvestmentPlanRepositoryImpl) GetAllByCategory(category string) ([]InvestmentPlan, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var plans []InvestmentPlan

	query := `
        SELECT * FROM investment_plans WHERE category=$1 ORDER BY duration_months`

	err := repo.db.SelectContext(ctx, &plans, query, category)
	if err != nil {
		return nil, err
	}

	return plans, nil
}

func (repo *InvestmentPlanRepositoryImpl) GetOneByCategoryAndType(category, planType string) (*InvestmentPlan, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var plan InvestmentPlan

	query := `
        SELECT * FROM investment_plans WHERE category=$1 AND type=$2`

	err := repo.db.GetContext(ctx, &plan, query, category, planType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &plan, true, nil
}
