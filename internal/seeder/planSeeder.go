package seeder

import (
	"context"
	"database/sql"
	"log"

	"github.com/Creativestefan/startwealth-capital-sub003/internal/repository"
)

// seedInvestmentPlans seeds the semi-annual and annual plans for each
// investment category. Plans carry the amount bounds and return rates that
// investment creation validates against.
func (seeder *Seeder) seedInvestmentPlans() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	tx, err := seeder.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		log.Fatalf("Failed to start transaction: %v", err)
	}

	plans := []struct {
		Category       string
		Type           string
		MinAmount      float64
		MaxAmount      float64
		ReturnRate     float64
		DurationMonths int
	}{
		{repository.InvestmentCategoryRealEstate, repository.InvestmentPlanSemiAnnual, 300_000, 700_000, 7.5, 6},
		{repository.InvestmentCategoryRealEstate, repository.InvestmentPlanAnnual, 1_500_000, 2_000_000, 18, 12},
		{repository.InvestmentCategoryGreenEnergy, repository.InvestmentPlanSemiAnnual, 300_000, 700_000, 7.5, 6},
		{repository.InvestmentCategoryGreenEnergy, repository.InvestmentPlanAnnual, 1_500_000, 2_000_000, 18, 12},
		{repository.InvestmentCategoryMarkets, repository.InvestmentPlanSemiAnnual, 50_000, 500_000, 9, 6},
		{repository.InvestmentCategoryMarkets, repository.InvestmentPlanAnnual, 500_000, 2_000_000, 20, 12},
	}

	for _, plan := range plans {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO investment_plans (category, type, min_amount, max_amount, return_rate, duration_months)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (category, type) DO NOTHING;`,
			plan.Category, plan.Type, plan.MinAmount, plan.MaxAmount, plan.ReturnRate, plan.DurationMonths,
		)
		if err != nil {
			tx.Rollback()
			log.Fatalf("Failed to insert investment plan '%s/%s': %v", plan.Category, plan.Type, err)
		}
	}

	if err = tx.Commit(); err != nil {
		log.Fatalf("Failed to commit transaction: %v", err)
	}
}
