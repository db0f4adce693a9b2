package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Creativestefan/startwealth-capital-sub003/internal/context"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/repository"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newPurchaseRequest(t *testing.T, propertyID string, body map[string]any) *http.Request {
	t.Helper()

	requestBody, _ := json.Marshal(body)

	req, err := http.NewRequest("POST", "/real-estate/properties/"+propertyID+"/purchase", bytes.NewBuffer(requestBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("id", propertyID)

	buyer := &repository.User{
		ID:        "user-1",
		KycStatus: repository.KycStatusApproved,
		Status:    repository.UserAccountActiveStatus,
	}

	return context.ContextSetAuthenticatedUser(req, buyer)
}

var availableProperty = &repository.Property{
	ID:     "prop-1",
	Name:   "Palm Grove Duplex",
	Price:  450_000,
	Status: repository.PropertyAvailableStatus,
}

func TestHandlePropertyPurchase_ConcurrentSaleRollsBack(t *testing.T) {
	mockDB := NewMockDatabase()

	mockDB.PropertyRepo.On("GetOne", "prop-1").Return(availableProperty, true, nil)

	mockDB.WalletRepo.On("GetByUserId", "user-1").Return(&repository.Wallet{
		ID:       "wallet-1",
		UserID:   "user-1",
		Balance:  1_000_000,
		Currency: "USD",
		Status:   repository.WalletActiveStatus,
	}, true, nil)

	mockDB.LedgerRepo.On("Move", mock.Anything).Return(&repository.WalletTransaction{ID: "trans-1"}, nil)
	mockDB.PropertyTransactionRepo.On("Insert", mock.Anything).Return("order-1", nil)

	// another buyer won the row between the status read and the reservation
	mockDB.PropertyRepo.On("MarkSoldOut", "prop-1").Return(false, nil)

	propertyHandler := &PropertyHandler{
		DB:         mockDB,
		ErrHandler: newTestErrHandler(),
		Helper:     newTestHelper(t),
		Kafka:      newTestKafka(),
	}

	rr := httptest.NewRecorder()

	propertyHandler.HandlePropertyPurchase(rr, newPurchaseRequest(t, "prop-1", map[string]any{
		"type": repository.PurchaseTypeFull,
	}))

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), ErrPropertyNotAvailable.Error())

	mockDB.PropertyRepo.AssertExpectations(t)
}

func TestHandlePropertyPurchase_InstallmentDebitsFirstInstallmentOnly(t *testing.T) {
	mockDB := NewMockDatabase()

	mockDB.PropertyRepo.On("GetOne", "prop-1").Return(availableProperty, true, nil)

	mockDB.WalletRepo.On("GetByUserId", "user-1").Return(&repository.Wallet{
		ID:       "wallet-1",
		UserID:   "user-1",
		Balance:  200_000,
		Currency: "USD",
		Status:   repository.WalletActiveStatus,
	}, true, nil)

	// 450,000 over 10 installments
	mockDB.LedgerRepo.On("Move", mock.MatchedBy(func(entry *repository.LedgerEntry) bool {
		return entry.Direction == repository.TransactionDirectionDebit &&
			entry.Type == repository.TransactionTypePurchase &&
			entry.Amount == 45_000
	})).Return(&repository.WalletTransaction{ID: "trans-1", ReferenceNumber: "ref-1"}, nil)

	mockDB.PropertyTransactionRepo.On("Insert", mock.MatchedBy(func(order *repository.PropertyTransaction) bool {
		return order.Installments == 10 &&
			order.InstallmentAmount == 45_000 &&
			order.PaidInstallments == 1 &&
			order.Type == repository.PurchaseTypeInstallment
	})).Return("order-1", nil)

	mockDB.PropertyRepo.On("MarkSoldOut", "prop-1").Return(true, nil)

	propertyHandler := &PropertyHandler{
		DB:         mockDB,
		ErrHandler: newTestErrHandler(),
		Helper:     newTestHelper(t),
		Cache:      newTestCache(),
		Kafka:      newTestKafka(),
	}

	rr := httptest.NewRecorder()

	propertyHandler.HandlePropertyPurchase(rr, newPurchaseRequest(t, "prop-1", map[string]any{
		"type":         repository.PurchaseTypeInstallment,
		"installments": 10,
	}))

	require.Equal(t, http.StatusCreated, rr.Code)

	var responseBody map[string]any
	err := json.Unmarshal(rr.Body.Bytes(), &responseBody)
	require.NoError(t, err)

	data, ok := responseBody["data"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "order-1", data["order_id"])
	require.Equal(t, 45_000.0, data["amount"])

	mockDB.LedgerRepo.AssertExpectations(t)
	mockDB.PropertyTransactionRepo.AssertExpectations(t)
}
