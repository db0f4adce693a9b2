package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Creativestefan/startwealth-capital-sub003/internal/context"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/repository"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var adminUser = &repository.User{
	ID:     "admin-1",
	Role:   repository.UserRoleAdmin,
	Status: repository.UserAccountActiveStatus,
}

func newMatureInvestmentRequest(t *testing.T, investmentID string) *http.Request {
	t.Helper()

	requestBody, _ := json.Marshal(map[string]any{})

	req, err := http.NewRequest("POST", "/admin/investments/"+investmentID+"/mature", bytes.NewBuffer(requestBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("id", investmentID)

	return context.ContextSetAuthenticatedUser(req, adminUser)
}

func activeInvestment() *repository.Investment {
	return &repository.Investment{
		ID:             "inv-1",
		UserID:         "user-1",
		Category:       repository.InvestmentCategoryMarkets,
		PlanType:       repository.InvestmentPlanSemiAnnual,
		Amount:         100_000,
		ExpectedReturn: 9_000,
		Status:         repository.InvestmentStatusActive,
		StartDate:      time.Now().AddDate(0, -6, 0),
		EndDate:        time.Now().AddDate(0, 0, -1),
	}
}

func TestHandleAdminMatureInvestment_CreditsPrincipalPlusReturn(t *testing.T) {
	mockDB := NewMockDatabase()

	mockDB.InvestmentRepo.On("GetOne", "inv-1").Return(activeInvestment(), true, nil)
	mockDB.InvestmentRepo.On("Mature", "inv-1", 9_000.0).Return(true, nil)

	mockDB.WalletRepo.On("GetByUserId", "user-1").Return(&repository.Wallet{
		ID:       "wallet-1",
		UserID:   "user-1",
		Currency: "USD",
		Status:   repository.WalletActiveStatus,
	}, true, nil)

	mockDB.LedgerRepo.On("Move", mock.MatchedBy(func(entry *repository.LedgerEntry) bool {
		return entry.Direction == repository.TransactionDirectionCredit &&
			entry.Type == repository.TransactionTypeReturn &&
			entry.Amount == 109_000
	})).Return(&repository.WalletTransaction{ID: "trans-1", ReferenceNumber: "ref-1"}, nil)

	adminHandler := &AdminHandler{
		DB:         mockDB,
		ErrHandler: newTestErrHandler(),
		Helper:     newTestHelper(t),
		Kafka:      newTestKafka(),
	}

	rr := httptest.NewRecorder()

	adminHandler.HandleAdminMatureInvestment(rr, newMatureInvestmentRequest(t, "inv-1"))

	require.Equal(t, http.StatusOK, rr.Code)

	var responseBody map[string]any
	err := json.Unmarshal(rr.Body.Bytes(), &responseBody)
	require.NoError(t, err)

	data, ok := responseBody["data"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, 109_000.0, data["payout"])

	mockDB.LedgerRepo.AssertExpectations(t)
	mockDB.InvestmentRepo.AssertExpectations(t)
}

func TestHandleAdminMatureInvestment_AlreadyMaturedRejected(t *testing.T) {
	mockDB := NewMockDatabase()

	matured := activeInvestment()
	matured.Status = repository.InvestmentStatusMatured

	mockDB.InvestmentRepo.On("GetOne", "inv-1").Return(matured, true, nil)

	adminHandler := &AdminHandler{
		DB:         mockDB,
		ErrHandler: newTestErrHandler(),
		Helper:     newTestHelper(t),
		Kafka:      newTestKafka(),
	}

	rr := httptest.NewRecorder()

	adminHandler.HandleAdminMatureInvestment(rr, newMatureInvestmentRequest(t, "inv-1"))

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), ErrInvestmentNotActive.Error())

	mockDB.LedgerRepo.AssertNotCalled(t, "Move", mock.Anything)
}

func TestHandleAdminCancelInvestment_RefundsPrincipalOnly(t *testing.T) {
	mockDB := NewMockDatabase()

	mockDB.InvestmentRepo.On("GetOne", "inv-1").Return(activeInvestment(), true, nil)

	mockDB.WalletRepo.On("GetByUserId", "user-1").Return(&repository.Wallet{
		ID:       "wallet-1",
		UserID:   "user-1",
		Currency: "USD",
		Status:   repository.WalletActiveStatus,
	}, true, nil)

	// the expected return never materialized; only the stake comes back
	mockDB.LedgerRepo.On("Move", mock.MatchedBy(func(entry *repository.LedgerEntry) bool {
		return entry.Direction == repository.TransactionDirectionCredit &&
			entry.Amount == 100_000
	})).Return(&repository.WalletTransaction{ID: "trans-1", ReferenceNumber: "ref-1"}, nil)

	adminHandler := &AdminHandler{
		DB:         mockDB,
		ErrHandler: newTestErrHandler(),
		Helper:     newTestHelper(t),
		Kafka:      newTestKafka(),
	}

	requestBody, _ := json.Marshal(map[string]any{})
	req, err := http.NewRequest("POST", "/admin/investments/inv-1/cancel", bytes.NewBuffer(requestBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("id", "inv-1")
	req = context.ContextSetAuthenticatedUser(req, adminUser)

	rr := httptest.NewRecorder()

	adminHandler.HandleAdminCancelInvestment(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var responseBody map[string]any
	err = json.Unmarshal(rr.Body.Bytes(), &responseBody)
	require.NoError(t, err)

	data, ok := responseBody["data"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, 100_000.0, data["refund"])

	mockDB.LedgerRepo.AssertExpectations(t)
}

// A concurrent maturation can slip between the status read and the ledger
// move; the conditional update inside the transaction has to catch it.
func TestHandleAdminMatureInvestment_GuardStopsDoubleCredit(t *testing.T) {
	mockDB := NewMockDatabase()

	mockDB.InvestmentRepo.On("GetOne", "inv-1").Return(activeInvestment(), true, nil)
	mockDB.InvestmentRepo.On("Mature", "inv-1", 9_000.0).Return(false, nil)

	mockDB.WalletRepo.On("GetByUserId", "user-1").Return(&repository.Wallet{
		ID:       "wallet-1",
		UserID:   "user-1",
		Currency: "USD",
		Status:   repository.WalletActiveStatus,
	}, true, nil)

	mockDB.LedgerRepo.On("Move", mock.Anything).Return(&repository.WalletTransaction{ID: "trans-1"}, nil)

	adminHandler := &AdminHandler{
		DB:         mockDB,
		ErrHandler: newTestErrHandler(),
		Helper:     newTestHelper(t),
		Kafka:      newTestKafka(),
	}

	rr := httptest.NewRecorder()

	adminHandler.HandleAdminMatureInvestment(rr, newMatureInvestmentRequest(t, "inv-1"))

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), ErrInvestmentNotActive.Error())
}
