package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Creativestefan/startwealth-capital-sub003/internal/config"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/context"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/repository"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newInvestmentTestConfig() *config.Config {
	cfg := &config.Config{
		BaseURL: "http://localhost",
	}
	cfg.Referral.CommissionRate = 5
	return cfg
}

func newCreateInvestmentRequest(t *testing.T, user *repository.User, amount float64) *http.Request {
	t.Helper()

	requestBody, _ := json.Marshal(map[string]any{
		"category": repository.InvestmentCategoryMarkets,
		"type":     repository.InvestmentPlanSemiAnnual,
		"amount":   amount,
	})

	req, err := http.NewRequest("POST", "/investments", bytes.NewBuffer(requestBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	return context.ContextSetAuthenticatedUser(req, user)
}

var marketsSemiAnnualPlan = &repository.InvestmentPlan{
	ID:             "plan-1",
	Category:       repository.InvestmentCategoryMarkets,
	Type:           repository.InvestmentPlanSemiAnnual,
	MinAmount:      50_000,
	MaxAmount:      500_000,
	ReturnRate:     9,
	DurationMonths: 6,
}

func TestHandleCreateInvestment_InsufficientFunds(t *testing.T) {
	mockDB := NewMockDatabase()

	testUser := &repository.User{
		ID:        "user-1",
		KycStatus: repository.KycStatusApproved,
		Status:    repository.UserAccountActiveStatus,
	}

	mockDB.InvestmentPlanRepo.On("GetOneByCategoryAndType",
		repository.InvestmentCategoryMarkets, repository.InvestmentPlanSemiAnnual,
	).Return(marketsSemiAnnualPlan, true, nil)

	mockDB.WalletRepo.On("GetByUserId", "user-1").Return(&repository.Wallet{
		ID:       "wallet-1",
		UserID:   "user-1",
		Balance:  10,
		Currency: "USD",
		Status:   repository.WalletActiveStatus,
	}, true, nil)

	mockDB.LedgerRepo.On("Move", mock.Anything).Return(nil, repository.ErrInsufficientFunds)

	investmentHandler := &InvestmentHandler{
		DB:         mockDB,
		ErrHandler: newTestErrHandler(),
		Helper:     newTestHelper(t),
		Config:     newInvestmentTestConfig(),
		Kafka:      newTestKafka(),
	}

	rr := httptest.NewRecorder()

	investmentHandler.HandleCreateInvestment(rr, newCreateInvestmentRequest(t, testUser, 100_000))

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), ErrInsufficientBalance.Error())

	mockDB.LedgerRepo.AssertExpectations(t)
	mockDB.InvestmentRepo.AssertNotCalled(t, "Insert", mock.Anything)
}

func TestHandleCreateInvestment_RecordsCommissionForReferredUser(t *testing.T) {
	mockDB := NewMockDatabase()

	testUser := &repository.User{
		ID:         "user-1",
		KycStatus:  repository.KycStatusApproved,
		Status:     repository.UserAccountActiveStatus,
		ReferredBy: sql.NullString{String: "referrer-1", Valid: true},
	}

	mockDB.InvestmentPlanRepo.On("GetOneByCategoryAndType",
		repository.InvestmentCategoryMarkets, repository.InvestmentPlanSemiAnnual,
	).Return(marketsSemiAnnualPlan, true, nil)

	mockDB.WalletRepo.On("GetByUserId", "user-1").Return(&repository.Wallet{
		ID:       "wallet-1",
		UserID:   "user-1",
		Balance:  500_000,
		Currency: "USD",
		Status:   repository.WalletActiveStatus,
	}, true, nil)

	mockDB.LedgerRepo.On("Move", mock.MatchedBy(func(entry *repository.LedgerEntry) bool {
		return entry.Direction == repository.TransactionDirectionDebit &&
			entry.Type == repository.TransactionTypeInvestment &&
			entry.Amount == 100_000
	})).Return(&repository.WalletTransaction{ID: "trans-1", ReferenceNumber: "ref-1"}, nil)

	mockDB.InvestmentRepo.On("Insert", mock.MatchedBy(func(investment *repository.Investment) bool {
		return investment.UserID == "user-1" && investment.ExpectedReturn == 9_000
	})).Return("inv-1", nil)

	// 5% of 100,000
	mockDB.ReferralRepo.On("InsertCommission", mock.MatchedBy(func(commission *repository.ReferralCommission) bool {
		return commission.ReferrerID == "referrer-1" &&
			commission.ReferredID == "user-1" &&
			commission.Amount == 5_000 &&
			commission.Rate == 5
	})).Return("comm-1", nil)

	investmentHandler := &InvestmentHandler{
		DB:         mockDB,
		ErrHandler: newTestErrHandler(),
		Helper:     newTestHelper(t),
		Config:     newInvestmentTestConfig(),
		Kafka:      newTestKafka(),
	}

	rr := httptest.NewRecorder()

	investmentHandler.HandleCreateInvestment(rr, newCreateInvestmentRequest(t, testUser, 100_000))

	require.Equal(t, http.StatusCreated, rr.Code)

	var responseBody map[string]any
	err := json.Unmarshal(rr.Body.Bytes(), &responseBody)
	require.NoError(t, err)

	data, ok := responseBody["data"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "inv-1", data["investment_id"])
	require.Equal(t, "ref-1", data["reference"])

	mockDB.LedgerRepo.AssertExpectations(t)
	mockDB.InvestmentRepo.AssertExpectations(t)
	mockDB.ReferralRepo.AssertExpectations(t)
}

func TestHandleCreateInvestment_AmountOutsidePlanBounds(t *testing.T) {
	mockDB := NewMockDatabase()

	testUser := &repository.User{
		ID:        "user-1",
		KycStatus: repository.KycStatusApproved,
		Status:    repository.UserAccountActiveStatus,
	}

	mockDB.InvestmentPlanRepo.On("GetOneByCategoryAndType",
		repository.InvestmentCategoryMarkets, repository.InvestmentPlanSemiAnnual,
	).Return(marketsSemiAnnualPlan, true, nil)

	investmentHandler := &InvestmentHandler{
		DB:         mockDB,
		ErrHandler: newTestErrHandler(),
		Helper:     newTestHelper(t),
		Config:     newInvestmentTestConfig(),
		Kafka:      newTestKafka(),
	}

	rr := httptest.NewRecorder()

	investmentHandler.HandleCreateInvestment(rr, newCreateInvestmentRequest(t, testUser, 1_000))

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	mockDB.LedgerRepo.AssertNotCalled(t, "Move", mock.Anything)
}
