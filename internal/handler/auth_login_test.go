package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Creativestefan/startwealth-capital-sub003/internal/config"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/repository"

	"github.com/stretchr/testify/require"
)

func newLoginTestConfig() *config.Config {
	cfg := &config.Config{
		BaseURL:  "http://localhost",
		HttpPort: 8080,
	}
	cfg.Jwt.SecretKey = "test_secret"
	return cfg
}

func TestHandleAuthLogin_ValidCredentials(t *testing.T) {
	mockDB := NewMockDatabase()

	testUser := &repository.User{
		ID:             "123",
		Email:          "test@example.com",
		HashedPassword: "$2a$10$oiIYEECpY/GRNs9Fi7Yh1.o4Dw2fTD26eu5z48KYgXkMuOiWlSvqG",
		Status:         repository.UserAccountActiveStatus,
	}

	mockDB.UserRepo.On("GetByEmail", "test@example.com").Return(testUser, true, nil)

	authHandler := &AuthHandler{
		DB:         mockDB,
		ErrHandler: newTestErrHandler(),
		Helper:     newTestHelper(t),
		Config:     newLoginTestConfig(),
	}

	requestBody, _ := json.Marshal(map[string]string{
		"email":    "test@example.com",
		"password": "correctpassword",
	})

	req, err := http.NewRequest("POST", "/auth/login", bytes.NewBuffer(requestBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()

	authHandler.HandleAuthLogin(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var responseBody map[string]any
	err = json.Unmarshal(rr.Body.Bytes(), &responseBody)
	require.NoError(t, err)

	require.Contains(t, responseBody, "data")

	data, ok := responseBody["data"].(map[string]any)
	require.True(t, ok, "Expected response['data'] to be a map")

	require.Contains(t, data, "auth_token")
	require.Contains(t, data, "token_expiry")
	require.NotEmpty(t, data["auth_token"])

	mockDB.UserRepo.AssertExpectations(t)
}

func TestHandleAuthLogin_LocksAccountAfterConsecutiveFailures(t *testing.T) {
	mockDB := NewMockDatabase()

	testUser := &repository.User{
		ID:             "123",
		Email:          "test@example.com",
		HashedPassword: "$2a$10$oiIYEECpY/GRNs9Fi7Yh1.o4Dw2fTD26eu5z48KYgXkMuOiWlSvqG",
		Status:         repository.UserAccountActiveStatus,
	}

	mockDB.UserRepo.On("GetByEmail", "test@example.com").Return(testUser, true, nil)

	// two prior failed attempts already logged; this one is the third
	mockDB.ActivityRepo.FailedAttempts = 2

	authHandler := &AuthHandler{
		DB:         mockDB,
		ErrHandler: newTestErrHandler(),
		Helper:     newTestHelper(t),
		Config:     newLoginTestConfig(),
	}

	requestBody, _ := json.Marshal(map[string]string{
		"email":    "test@example.com",
		"password": "wrongpassword",
	})

	req, err := http.NewRequest("POST", "/auth/login", bytes.NewBuffer(requestBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()

	authHandler.HandleAuthLogin(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), "Account has been locked")
}

func TestHandleAuthLogin_LockedAccountRejected(t *testing.T) {
	mockDB := NewMockDatabase()

	testUser := &repository.User{
		ID:             "123",
		Email:          "test@example.com",
		HashedPassword: "$2a$10$oiIYEECpY/GRNs9Fi7Yh1.o4Dw2fTD26eu5z48KYgXkMuOiWlSvqG",
		Status:         repository.UserAccountLockedStatus,
	}

	mockDB.UserRepo.On("GetByEmail", "test@example.com").Return(testUser, true, nil)

	authHandler := &AuthHandler{
		DB:         mockDB,
		ErrHandler: newTestErrHandler(),
		Helper:     newTestHelper(t),
		Config:     newLoginTestConfig(),
	}

	requestBody, _ := json.Marshal(map[string]string{
		"email":    "test@example.com",
		"password": "correctpassword",
	})

	req, err := http.NewRequest("POST", "/auth/login", bytes.NewBuffer(requestBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()

	authHandler.HandleAuthLogin(rr, req)

	require.Equal(t, http.StatusForbidden, rr.Code)
}
