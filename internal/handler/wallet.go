package handler

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/Creativestefan/startwealth-capital-sub003/internal/context"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/errHandler"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/helper"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/repository"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/request"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/response"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/validator"

	"github.com/jmoiron/sqlx"
)

const (
	TransactionActivityLogDepositDescription    = "Recorded deposit"
	TransactionActivityLogWithdrawalDescription = "Requested withdrawal"
)

type WalletResponseData struct {
	ID          string    `json:"id"`
	Balance     float64   `json:"balance"`
	Currency    string    `json:"currency"`
	BtcAddress  string    `json:"btc_address,omitempty"`
	UsdtAddress string    `json:"usdt_address,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type TransactionResponseData struct {
	ID              string  `json:"id"`
	Type            string  `json:"type"`
	Direction       string  `json:"direction"`
	Amount          float64 `json:"amount"`
	Status          string  `json:"status"`
	ReferenceNumber string  `json:"reference_number"`
	Description     string  `json:"description,omitempty"`
	CryptoType      string  `json:"crypto_type,omitempty"`
	TxHash          string  `json:"tx_hash,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

func newTransactionResponseData(trans *repository.WalletTransaction) *TransactionResponseData {
	return &TransactionResponseData{
		ID:              trans.ID,
		Type:            trans.Type,
		Direction:       trans.Direction,
		Amount:          trans.Amount,
		Status:          trans.Status,
		ReferenceNumber: trans.ReferenceNumber,
		Description:     trans.Description.String,
		CryptoType:      trans.CryptoType.String,
		TxHash:          trans.TxHash.String,
		CreatedAt:       trans.CreatedAt.Format(time.RFC3339),
	}
}

type WalletHandler struct {
	DB         repository.Database
	ErrHandler *errHandler.ErrorHandler
	Helper     *helper.HelperRepository
}

func NewWalletHandler(handler *WalletHandler) *WalletHandler {
	return &WalletHandler{
		DB:         handler.DB,
		ErrHandler: handler.ErrHandler,
		Helper:     handler.Helper,
	}
}

func (h *WalletHandler) HandleWalletDetails(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	wallet, found, err := h.DB.Wallet().GetByUserId(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrWalletNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	message := "Wallet details fetched successfully"

	data := &WalletResponseData{
		ID:          wallet.ID,
		Balance:     wallet.Balance,
		Currency:    wallet.Currency,
		BtcAddress:  wallet.BtcAddress.String,
		UsdtAddress: wallet.UsdtAddress.String,
		Status:      wallet.Status,
		CreatedAt:   wallet.CreatedAt,
	}
	err = response.JSONOkResponse(w, data, message, nil)

	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *WalletHandler) HandleWalletTransactions(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	wallet, found, err := h.DB.Wallet().GetByUserId(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrWalletNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	queryValues := retrieveUrlQueryValues(r)

	filters := &repository.TransactionFilters{
		StartDate: queryValues.StartDate,
		EndDate:   queryValues.EndDate,
		Limit:     queryValues.Limit,
		Offset:    queryValues.Offset,
	}

	transactions, err := h.DB.WalletTransaction().GetAllByWalletId(wallet.ID, filters)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*TransactionResponseData, len(transactions))
	for i := range transactions {
		data[i] = newTransactionResponseData(&transactions[i])
	}

	message := "Transactions fetched successfully"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleWalletDeposit records a crypto deposit claim as a pending ledger row.
// The wallet balance is untouched until an admin approves the transaction,
// which settles the row and credits the wallet atomically.
func (h *WalletHandler) HandleWalletDeposit(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Amount          float64             `json:"amount"`
		CryptoType      string              `json:"crypto_type"`
		TxHash          string              `json:"tx_hash"`
		ReferenceNumber string              `json:"reference_number"`
		Validator       validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(input.Amount > 0, "Amount is required")
	input.Validator.Check(validator.In(input.CryptoType, "BTC", "USDT"), "Crypto type must be BTC or USDT")
	input.Validator.Check(validator.NotBlank(input.TxHash), "Transaction hash is required")
	input.Validator.Check(validator.NotBlank(input.ReferenceNumber), "Reference number is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	_, found, err := h.DB.WalletTransaction().FindByReference(input.ReferenceNumber)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if found {
		input.Validator.AddError(ErrDuplicateTransaction.Error())
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	wallet, found, err := h.DB.Wallet().GetByUserId(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		response.JSONErrorResponse(w, nil, ErrWalletNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	if wallet.Status != repository.WalletActiveStatus {
		response.JSONErrorResponse(w, nil, ErrInActiveWallet.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	trans, err := h.DB.WalletTransaction().Insert(&repository.WalletTransaction{
		WalletID:        wallet.ID,
		Type:            repository.TransactionTypeDeposit,
		Direction:       repository.TransactionDirectionCredit,
		Amount:          input.Amount,
		Status:          repository.TransactionStatusPending,
		ReferenceNumber: input.ReferenceNumber,
		CryptoType:      sql.NullString{String: input.CryptoType, Valid: true},
		TxHash:          sql.NullString{String: input.TxHash, Valid: true},
	})
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.DB.Activity().Insert(&repository.ActivityLog{
			UserID:      user.ID,
			Entity:      repository.ActivityLogTransactionEntity,
			EntityId:    trans.ID,
			Description: TransactionActivityLogDepositDescription,
		})

		if err != nil {
			log.Printf("Error logging deposit action: %v", err)
			return err
		}

		return nil
	})

	message := "Deposit recorded and awaiting confirmation"
	err = response.JSONCreatedResponse(w, newTransactionResponseData(trans), message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleWalletWithdraw debits the wallet immediately and holds the funds in a
// pending withdrawal row, so the balance can't be spent twice while an admin
// reviews the payout. Declining the withdrawal refunds the hold.
func (h *WalletHandler) HandleWalletWithdraw(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Amount     float64             `json:"amount"`
		CryptoType string              `json:"crypto_type"`
		Address    string              `json:"address"`
		Validator  validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(input.Amount > 0, "Amount is required")
	input.Validator.Check(validator.In(input.CryptoType, "BTC", "USDT"), "Crypto type must be BTC or USDT")
	input.Validator.Check(validator.NotBlank(input.Address), "Destination address is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	wallet, found, err := h.DB.Wallet().GetByUserId(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		response.JSONErrorResponse(w, nil, ErrWalletNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	if wallet.Status != repository.WalletActiveStatus {
		response.JSONErrorResponse(w, nil, ErrInActiveWallet.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	entry := &repository.LedgerEntry{
		WalletID:    wallet.ID,
		Type:        repository.TransactionTypeWithdrawal,
		Direction:   repository.TransactionDirectionDebit,
		Amount:      input.Amount,
		Status:      repository.TransactionStatusPending,
		Description: "Withdrawal to " + input.CryptoType + " address " + input.Address,
		CryptoType:  sql.NullString{String: input.CryptoType, Valid: true},
	}

	trans, err := h.DB.Ledger().Move(r.Context(), entry, func(tx *sqlx.Tx) error {
		_, err := h.DB.Notification().Insert(&repository.Notification{
			UserID:  user.ID,
			Title:   "Withdrawal requested",
			Message: "Your withdrawal of " + h.Helper.FormatMoney(input.Amount, wallet.Currency) + " is being processed",
			Type:    repository.NotificationTypeTransaction,
		}, tx)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			response.JSONErrorResponse(w, nil, ErrInsufficientBalance.Error(), http.StatusUnprocessableEntity, nil)
			return
		}
		if errors.Is(err, repository.ErrWalletNotFound) {
			response.JSONErrorResponse(w, nil, ErrWalletNotFound.Error(), http.StatusUnprocessableEntity, nil)
			return
		}
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.DB.Activity().Insert(&repository.ActivityLog{
			UserID:      user.ID,
			Entity:      repository.ActivityLogTransactionEntity,
			EntityId:    trans.ID,
			Description: TransactionActivityLogWithdrawalDescription,
		})

		if err != nil {
			log.Printf("Error logging withdrawal action: %v", err)
			return err
		}

		return nil
	})

	message := "Withdrawal requested successfully"
	err = response.JSONCreatedResponse(w, newTransactionResponseData(trans), message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
