package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/Creativestefan/startwealth-capital-sub003/internal/cache"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/context"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/errHandler"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/helper"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/repository"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/request"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/response"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/stream"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/validator"

	"github.com/jmoiron/sqlx"
)

const (
	AdminActivityLogKycDecisionDescription       = "Resolved KYC review"
	AdminActivityLogInvestmentMaturedDescription = "Matured investment"
	AdminActivityLogInvestmentCancelDescription  = "Cancelled investment"
	AdminActivityLogOrderStatusDescription       = "Updated order status"
	AdminActivityLogTransactionDescription       = "Settled wallet transaction"
	AdminActivityLogCommissionPaidDescription    = "Paid referral commission"
)

type AdminHandler struct {
	DB         repository.Database
	ErrHandler *errHandler.ErrorHandler
	Helper     *helper.HelperRepository
	Cache      *cache.Cache
	Kafka      *stream.KafkaStream
}

func NewAdminHandler(handler *AdminHandler) *AdminHandler {
	return &AdminHandler{
		DB:         handler.DB,
		ErrHandler: handler.ErrHandler,
		Helper:     handler.Helper,
		Cache:      handler.Cache,
		Kafka:      handler.Kafka,
	}
}

func (h *AdminHandler) HandleAdminKycDecision(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Status    string              `json:"status"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.In(input.Status, repository.KycStatusApproved, repository.KycStatusRejected), "Status must be approved or rejected")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	userID := r.PathValue("id")

	user, found, err := h.DB.User().GetOne(userID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	if user.KycStatus != repository.KycStatusPending {
		response.JSONErrorResponse(w, nil, "KYC is not awaiting review", http.StatusUnprocessableEntity, nil)
		return
	}

	err = h.DB.User().UpdateKycStatus(user.ID, input.Status)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	_, err = h.DB.Notification().Insert(&repository.Notification{
		UserID:  user.ID,
		Title:   "KYC review " + input.Status,
		Message: "Your identity verification has been " + input.Status,
		Type:    repository.NotificationTypeKyc,
	}, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	admin := context.ContextGetAuthenticatedUser(r)

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.DB.Activity().Insert(&repository.ActivityLog{
			UserID:      admin.ID,
			Entity:      repository.ActivityLogUserEntity,
			EntityId:    user.ID,
			Description: AdminActivityLogKycDecisionDescription,
		})

		if err != nil {
			log.Printf("Error logging KYC decision: %v", err)
			return err
		}

		return nil
	})

	message := "KYC status updated"
	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleAdminMatureInvestment credits principal plus return to the investor's
// wallet and flips the investment to matured in one ledger transaction. An
// actual_return in the body overrides the expected return, which covers the
// market category where the realized figure differs from the projection.
func (h *AdminHandler) HandleAdminMatureInvestment(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ActualReturn *float64            `json:"actual_return"`
		Validator    validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	if input.ActualReturn != nil {
		input.Validator.Check(*input.ActualReturn >= 0, "Actual return cannot be negative")
		if input.Validator.HasErrors() {
			h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
			return
		}
	}

	investmentID := r.PathValue("id")

	investment, found, err := h.DB.Investment().GetOne(investmentID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	if investment.Status != repository.InvestmentStatusActive {
		response.JSONErrorResponse(w, nil, ErrInvestmentNotActive.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	actualReturn := investment.ExpectedReturn
	if input.ActualReturn != nil {
		actualReturn = *input.ActualReturn
	}

	wallet, found, err := h.DB.Wallet().GetByUserId(investment.UserID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		response.JSONErrorResponse(w, nil, ErrWalletNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	payout := investment.Amount + actualReturn

	entry := &repository.LedgerEntry{
		WalletID:    wallet.ID,
		Type:        repository.TransactionTypeReturn,
		Direction:   repository.TransactionDirectionCredit,
		Amount:      payout,
		Description: "Matured " + investment.Category + " investment payout",
	}

	trans, err := h.DB.Ledger().Move(r.Context(), entry, func(tx *sqlx.Tx) error {
		matured, err := h.DB.Investment().Mature(investment.ID, actualReturn, tx)
		if err != nil {
			return err
		}
		if !matured {
			return repository.ErrIneligibleState
		}

		_, err = h.DB.Notification().Insert(&repository.Notification{
			UserID:  investment.UserID,
			Title:   "Investment matured",
			Message: h.Helper.FormatMoney(payout, wallet.Currency) + " has been credited to your wallet",
			Type:    repository.NotificationTypeInvestment,
		}, tx)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrIneligibleState) {
			response.JSONErrorResponse(w, nil, ErrInvestmentNotActive.Error(), http.StatusUnprocessableEntity, nil)
			return
		}
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	event := &InvestmentEvent{
		Kind:         InvestmentEventMatured,
		InvestmentID: investment.ID,
		UserID:       investment.UserID,
		Category:     investment.Category,
		Amount:       investment.Amount,
		Payout:       payout,
	}
	if jsonMessage, err := json.Marshal(event); err == nil {
		go h.Kafka.ProduceMessage(InvestmentLifecycleTopic, string(jsonMessage))
	}

	h.logAdminAction(r, repository.ActivityLogInvestmentEntity, investment.ID, AdminActivityLogInvestmentMaturedDescription)

	message := "Investment matured successfully"
	data := map[string]any{
		"investment_id": investment.ID,
		"reference":     trans.ReferenceNumber,
		"payout":        payout,
	}
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleAdminCancelInvestment refunds the principal only. The return never
// materialized, so nothing beyond the original stake moves.
func (h *AdminHandler) HandleAdminCancelInvestment(w http.ResponseWriter, r *http.Request) {
	investmentID := r.PathValue("id")

	investment, found, err := h.DB.Investment().GetOne(investmentID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	if investment.Status != repository.InvestmentStatusActive {
		response.JSONErrorResponse(w, nil, ErrInvestmentNotActive.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	wallet, found, err := h.DB.Wallet().GetByUserId(investment.UserID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		response.JSONErrorResponse(w, nil, ErrWalletNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	entry := &repository.LedgerEntry{
		WalletID:    wallet.ID,
		Type:        repository.TransactionTypeReturn,
		Direction:   repository.TransactionDirectionCredit,
		Amount:      investment.Amount,
		Description: "Refund of cancelled " + investment.Category + " investment",
	}

	trans, err := h.DB.Ledger().Move(r.Context(), entry, func(tx *sqlx.Tx) error {
		cancelled, err := h.DB.Investment().Cancel(investment.ID, tx)
		if err != nil {
			return err
		}
		if !cancelled {
			return repository.ErrIneligibleState
		}

		_, err = h.DB.Notification().Insert(&repository.Notification{
			UserID:  investment.UserID,
			Title:   "Investment cancelled",
			Message: "Your " + investment.Category + " investment was cancelled and " + h.Helper.FormatMoney(investment.Amount, wallet.Currency) + " refunded",
			Type:    repository.NotificationTypeInvestment,
		}, tx)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrIneligibleState) {
			response.JSONErrorResponse(w, nil, ErrInvestmentNotActive.Error(), http.StatusUnprocessableEntity, nil)
			return
		}
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	event := &InvestmentEvent{
		Kind:         InvestmentEventCancelled,
		InvestmentID: investment.ID,
		UserID:       investment.UserID,
		Category:     investment.Category,
		Amount:       investment.Amount,
	}
	if jsonMessage, err := json.Marshal(event); err == nil {
		go h.Kafka.ProduceMessage(InvestmentLifecycleTopic, string(jsonMessage))
	}

	h.logAdminAction(r, repository.ActivityLogInvestmentEntity, investment.ID, AdminActivityLogInvestmentCancelDescription)

	message := "Investment cancelled and principal refunded"
	data := map[string]any{
		"investment_id": investment.ID,
		"reference":     trans.ReferenceNumber,
		"refund":        investment.Amount,
	}
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleAdminPropertyOrderStatus applies one step of the delivery state
// machine. Cancelling refunds everything the buyer has paid so far and puts
// the property back on the market, all in the refund's ledger transaction.
func (h *AdminHandler) HandleAdminPropertyOrderStatus(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeOrderStatusInput(w, r)
	if !ok {
		return
	}

	orderID := r.PathValue("id")

	order, found, err := h.DB.PropertyTransaction().GetOne(orderID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	if !repository.CanTransitionOrder(order.Status, input) {
		response.JSONErrorResponse(w, nil, ErrInvalidOrderTransition.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	if input == repository.OrderStatusCancelled {
		refund := order.InstallmentAmount * float64(order.PaidInstallments)

		wallet, found, err := h.DB.Wallet().GetByUserId(order.UserID)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}
		if !found {
			response.JSONErrorResponse(w, nil, ErrWalletNotFound.Error(), http.StatusUnprocessableEntity, nil)
			return
		}

		entry := &repository.LedgerEntry{
			WalletID:    wallet.ID,
			Type:        repository.TransactionTypePurchase,
			Direction:   repository.TransactionDirectionCredit,
			Amount:      refund,
			Description: "Refund of cancelled order " + order.ID,
		}

		_, err = h.DB.Ledger().Move(r.Context(), entry, func(tx *sqlx.Tx) error {
			moved, err := h.DB.PropertyTransaction().UpdateStatus(order.ID, order.Status, input, tx)
			if err != nil {
				return err
			}
			if !moved {
				return repository.ErrIneligibleState
			}

			if err := h.DB.Property().Relist(order.PropertyID, tx); err != nil {
				return err
			}

			_, err = h.DB.Notification().Insert(&repository.Notification{
				UserID:  order.UserID,
				Title:   "Order cancelled",
				Message: "Your order was cancelled and " + h.Helper.FormatMoney(refund, wallet.Currency) + " refunded",
				Type:    repository.NotificationTypeOrder,
			}, tx)
			return err
		})
		if err != nil {
			if errors.Is(err, repository.ErrIneligibleState) {
				response.JSONErrorResponse(w, nil, ErrInvalidOrderTransition.Error(), http.StatusUnprocessableEntity, nil)
				return
			}
			h.ErrHandler.ServerError(w, r, err)
			return
		}

		if err := h.Cache.Delete(propertiesCacheKey); err != nil {
			log.Printf("Error invalidating property listing cache: %v", err)
		}
	} else {
		moved, err := h.DB.PropertyTransaction().UpdateStatus(order.ID, order.Status, input, nil)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}
		if !moved {
			response.JSONErrorResponse(w, nil, ErrInvalidOrderTransition.Error(), http.StatusUnprocessableEntity, nil)
			return
		}

		_, err = h.DB.Notification().Insert(&repository.Notification{
			UserID:  order.UserID,
			Title:   "Order update",
			Message: "Your order is now " + input,
			Type:    repository.NotificationTypeOrder,
		}, nil)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}
	}

	var itemName string
	if property, found, err := h.DB.Property().GetOne(order.PropertyID); err == nil && found {
		itemName = property.Name
	}

	h.publishOrderStatusEvent(order.ID, order.UserID, itemName, input)
	h.logAdminAction(r, repository.ActivityLogOrderEntity, order.ID, AdminActivityLogOrderStatusDescription)

	message := "Order status updated"
	err = response.JSONOkResponse(w, map[string]any{"status": input}, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AdminHandler) HandleAdminEquipmentOrderStatus(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeOrderStatusInput(w, r)
	if !ok {
		return
	}

	orderID := r.PathValue("id")

	order, found, err := h.DB.EquipmentTransaction().GetOne(orderID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	if !repository.CanTransitionOrder(order.Status, input) {
		response.JSONErrorResponse(w, nil, ErrInvalidOrderTransition.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	if input == repository.OrderStatusCancelled {
		refund := order.InstallmentAmount * float64(order.PaidInstallments)

		wallet, found, err := h.DB.Wallet().GetByUserId(order.UserID)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}
		if !found {
			response.JSONErrorResponse(w, nil, ErrWalletNotFound.Error(), http.StatusUnprocessableEntity, nil)
			return
		}

		entry := &repository.LedgerEntry{
			WalletID:    wallet.ID,
			Type:        repository.TransactionTypePurchase,
			Direction:   repository.TransactionDirectionCredit,
			Amount:      refund,
			Description: "Refund of cancelled order " + order.ID,
		}

		_, err = h.DB.Ledger().Move(r.Context(), entry, func(tx *sqlx.Tx) error {
			moved, err := h.DB.EquipmentTransaction().UpdateStatus(order.ID, order.Status, input, tx)
			if err != nil {
				return err
			}
			if !moved {
				return repository.ErrIneligibleState
			}

			_, err = h.DB.Notification().Insert(&repository.Notification{
				UserID:  order.UserID,
				Title:   "Order cancelled",
				Message: "Your order was cancelled and " + h.Helper.FormatMoney(refund, wallet.Currency) + " refunded",
				Type:    repository.NotificationTypeOrder,
			}, tx)
			return err
		})
		if err != nil {
			if errors.Is(err, repository.ErrIneligibleState) {
				response.JSONErrorResponse(w, nil, ErrInvalidOrderTransition.Error(), http.StatusUnprocessableEntity, nil)
				return
			}
			h.ErrHandler.ServerError(w, r, err)
			return
		}
	} else {
		moved, err := h.DB.EquipmentTransaction().UpdateStatus(order.ID, order.Status, input, nil)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}
		if !moved {
			response.JSONErrorResponse(w, nil, ErrInvalidOrderTransition.Error(), http.StatusUnprocessableEntity, nil)
			return
		}

		_, err = h.DB.Notification().Insert(&repository.Notification{
			UserID:  order.UserID,
			Title:   "Order update",
			Message: "Your order is now " + input,
			Type:    repository.NotificationTypeOrder,
		}, nil)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}
	}

	var itemName string
	if equipment, found, err := h.DB.Equipment().GetOne(order.EquipmentID); err == nil && found {
		itemName = equipment.Name
	}

	h.publishOrderStatusEvent(order.ID, order.UserID, itemName, input)
	h.logAdminAction(r, repository.ActivityLogOrderEntity, order.ID, AdminActivityLogOrderStatusDescription)

	message := "Order status updated"
	err = response.JSONOkResponse(w, map[string]any{"status": input}, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AdminHandler) HandleAdminApproveTransaction(w http.ResponseWriter, r *http.Request) {
	h.settleTransaction(w, r, true)
}

func (h *AdminHandler) HandleAdminDeclineTransaction(w http.ResponseWriter, r *http.Request) {
	h.settleTransaction(w, r, false)
}

// settleTransaction resolves a pending deposit or withdrawal. The ledger's
// Settle applies the balance effect and the terminal status in one
// transaction; this handler only decides the approve flag and the
// notification copy.
func (h *AdminHandler) settleTransaction(w http.ResponseWriter, r *http.Request, approve bool) {
	transactionID := r.PathValue("id")

	trans, found, err := h.DB.WalletTransaction().GetOne(transactionID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	if trans.Status != repository.TransactionStatusPending {
		response.JSONErrorResponse(w, nil, "Transaction has already been settled", http.StatusUnprocessableEntity, nil)
		return
	}

	wallet, found, err := h.DB.Wallet().GetOne(trans.WalletID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		response.JSONErrorResponse(w, nil, ErrWalletNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	var title, text string
	amount := h.Helper.FormatMoney(trans.Amount, wallet.Currency)

	switch {
	case trans.Type == repository.TransactionTypeDeposit && approve:
		title = "Deposit confirmed"
		text = "Your deposit of " + amount + " has been credited"
	case trans.Type == repository.TransactionTypeDeposit && !approve:
		title = "Deposit declined"
		text = "Your deposit of " + amount + " could not be confirmed"
	case trans.Type == repository.TransactionTypeWithdrawal && approve:
		title = "Withdrawal processed"
		text = "Your withdrawal of " + amount + " has been paid out"
	default:
		title = "Withdrawal declined"
		text = "Your withdrawal of " + amount + " was declined and the amount refunded"
	}

	settled, err := h.DB.Ledger().Settle(r.Context(), trans.ID, approve, func(tx *sqlx.Tx) error {
		_, err := h.DB.Notification().Insert(&repository.Notification{
			UserID:  wallet.UserID,
			Title:   title,
			Message: text,
			Type:    repository.NotificationTypeTransaction,
		}, tx)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrIneligibleState) {
			response.JSONErrorResponse(w, nil, "Transaction has already been settled", http.StatusUnprocessableEntity, nil)
			return
		}
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	event := &TransactionEvent{
		TransactionID: settled.ID,
		UserID:        wallet.UserID,
		Title:         title,
		Message:       text,
		Amount:        settled.Amount,
		Reference:     settled.ReferenceNumber,
	}
	if jsonMessage, err := json.Marshal(event); err == nil {
		go h.Kafka.ProduceMessage(TransactionProcessedTopic, string(jsonMessage))
	}

	h.logAdminAction(r, repository.ActivityLogTransactionEntity, settled.ID, AdminActivityLogTransactionDescription)

	message := "Transaction settled"
	err = response.JSONOkResponse(w, newTransactionResponseData(settled), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleAdminPayCommission pays a pending referral commission out to the
// referrer's wallet. The credit, the pending->paid flip and the commission
// flag on the originating investment all commit together.
func (h *AdminHandler) HandleAdminPayCommission(w http.ResponseWriter, r *http.Request) {
	commissionID := r.PathValue("id")

	commission, found, err := h.DB.Referral().GetCommission(commissionID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	if commission.Status != repository.CommissionStatusPending {
		response.JSONErrorResponse(w, nil, "Commission has already been paid", http.StatusUnprocessableEntity, nil)
		return
	}

	wallet, found, err := h.DB.Wallet().GetByUserId(commission.ReferrerID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		response.JSONErrorResponse(w, nil, ErrWalletNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	entry := &repository.LedgerEntry{
		WalletID:    wallet.ID,
		Type:        repository.TransactionTypeCommission,
		Direction:   repository.TransactionDirectionCredit,
		Amount:      commission.Amount,
		Description: "Referral commission payout",
	}

	trans, err := h.DB.Ledger().Move(r.Context(), entry, func(tx *sqlx.Tx) error {
		paid, err := h.DB.Referral().MarkCommissionPaid(commission.ID, tx)
		if err != nil {
			return err
		}
		if !paid {
			return repository.ErrIneligibleState
		}

		if commission.InvestmentID.Valid {
			if err := h.DB.Investment().FlagCommissionPaid(commission.InvestmentID.String, tx); err != nil {
				return err
			}
		}

		_, err = h.DB.Notification().Insert(&repository.Notification{
			UserID:  commission.ReferrerID,
			Title:   "Commission earned",
			Message: h.Helper.FormatMoney(commission.Amount, wallet.Currency) + " referral commission has been credited",
			Type:    repository.NotificationTypeCommission,
		}, tx)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrIneligibleState) {
			response.JSONErrorResponse(w, nil, "Commission has already been paid", http.StatusUnprocessableEntity, nil)
			return
		}
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	event := &TransactionEvent{
		TransactionID: trans.ID,
		UserID:        commission.ReferrerID,
		Title:         "Commission earned",
		Message:       "A referral commission has been credited to your wallet",
		Amount:        commission.Amount,
		Reference:     trans.ReferenceNumber,
	}
	if jsonMessage, err := json.Marshal(event); err == nil {
		go h.Kafka.ProduceMessage(TransactionProcessedTopic, string(jsonMessage))
	}

	h.logAdminAction(r, repository.ActivityLogTransactionEntity, trans.ID, AdminActivityLogCommissionPaidDescription)

	message := "Commission paid successfully"
	data := map[string]any{
		"commission_id": commission.ID,
		"reference":     trans.ReferenceNumber,
		"amount":        commission.Amount,
	}
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AdminHandler) decodeOrderStatusInput(w http.ResponseWriter, r *http.Request) (string, bool) {
	var input struct {
		Status    string              `json:"status"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return "", false
	}

	input.Validator.Check(validator.In(input.Status,
		repository.OrderStatusAccepted,
		repository.OrderStatusProcessing,
		repository.OrderStatusOutForDelivery,
		repository.OrderStatusCompleted,
		repository.OrderStatusCancelled,
	), "Status is not a valid order status")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return "", false
	}

	return input.Status, true
}

func (h *AdminHandler) publishOrderStatusEvent(orderID, userID, itemName, status string) {
	event := &OrderEvent{
		Kind:     OrderEventStatusChanged,
		OrderID:  orderID,
		UserID:   userID,
		ItemName: itemName,
		Status:   status,
	}
	if jsonMessage, err := json.Marshal(event); err == nil {
		go h.Kafka.ProduceMessage(OrderLifecycleTopic, string(jsonMessage))
	}
}

func (h *AdminHandler) logAdminAction(r *http.Request, entity, entityID, description string) {
	admin := context.ContextGetAuthenticatedUser(r)

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.DB.Activity().Insert(&repository.ActivityLog{
			UserID:      admin.ID,
			Entity:      entity,
			EntityId:    entityID,
			Description: description,
		})

		if err != nil {
			log.Printf("Error logging admin action: %v", err)
			return err
		}

		return nil
	})
}
