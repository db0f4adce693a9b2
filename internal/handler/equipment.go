package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

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

const equipmentsCacheKey = "equipments:all"

type EquipmentHandler struct {
	DB         repository.Database
	ErrHandler *errHandler.ErrorHandler
	Helper     *helper.HelperRepository
	Cache      *cache.Cache
	Kafka      *stream.KafkaStream
}

func NewEquipmentHandler(handler *EquipmentHandler) *EquipmentHandler {
	return &EquipmentHandler{
		DB:         handler.DB,
		ErrHandler: handler.ErrHandler,
		Helper:     handler.Helper,
		Cache:      handler.Cache,
		Kafka:      handler.Kafka,
	}
}

func (h *EquipmentHandler) HandleEquipmentList(w http.ResponseWriter, r *http.Request) {
	message := "Equipments fetched successfully"

	if cached, err := h.Cache.Get(equipmentsCacheKey); err == nil && cached != "" {
		var equipments []repository.Equipment
		if err := json.Unmarshal([]byte(cached), &equipments); err == nil {
			err = response.JSONOkResponse(w, equipments, message, nil)
			if err != nil {
				h.ErrHandler.ServerError(w, r, err)
			}
			return
		}
	}

	equipments, err := h.DB.Equipment().GetAll()
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if encoded, err := json.Marshal(equipments); err == nil {
		if err := h.Cache.Set(equipmentsCacheKey, string(encoded), listingCacheTTL); err != nil {
			log.Printf("Error caching equipment listing: %v", err)
		}
	}

	err = response.JSONOkResponse(w, equipments, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *EquipmentHandler) HandleEquipmentDetails(w http.ResponseWriter, r *http.Request) {
	equipmentID := r.PathValue("id")

	equipment, found, err := h.DB.Equipment().GetOne(equipmentID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	message := "Equipment fetched successfully"
	err = response.JSONOkResponse(w, equipment, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleEquipmentPurchase mirrors the property purchase flow. Equipment is
// stocked in units, so the listing stays available after a purchase.
func (h *EquipmentHandler) HandleEquipmentPurchase(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Type         string              `json:"type"`
		Installments int                 `json:"installments"`
		Validator    validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.In(input.Type, repository.PurchaseTypeFull, repository.PurchaseTypeInstallment), "Type must be full or installment")
	if input.Type == repository.PurchaseTypeInstallment {
		input.Validator.Check(validator.Between(input.Installments, minInstallments, maxInstallments), "Installments must be between 2 and 12")
	}

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	equipmentID := r.PathValue("id")

	equipment, found, err := h.DB.Equipment().GetOne(equipmentID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	if equipment.Status != repository.EquipmentAvailableStatus {
		response.JSONErrorResponse(w, nil, ErrEquipmentNotAvailable.Error(), http.StatusUnprocessableEntity, nil)
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

	order := &repository.EquipmentTransaction{
		EquipmentID:      equipment.ID,
		UserID:           user.ID,
		Amount:           equipment.Price,
		Type:             input.Type,
		PaidInstallments: 1,
	}

	var debit float64
	if input.Type == repository.PurchaseTypeFull {
		debit = equipment.Price
		order.Installments = 1
		order.InstallmentAmount = equipment.Price
	} else {
		order.Installments = input.Installments
		order.InstallmentAmount = equipment.Price / float64(input.Installments)
		debit = order.InstallmentAmount
	}

	entry := &repository.LedgerEntry{
		WalletID:    wallet.ID,
		Type:        repository.TransactionTypePurchase,
		Direction:   repository.TransactionDirectionDebit,
		Amount:      debit,
		Description: "Purchase of " + equipment.Name,
	}

	trans, err := h.DB.Ledger().Move(r.Context(), entry, func(tx *sqlx.Tx) error {
		orderID, err := h.DB.EquipmentTransaction().Insert(order, tx)
		if err != nil {
			return err
		}
		order.ID = orderID

		_, err = h.DB.Notification().Insert(&repository.Notification{
			UserID:  user.ID,
			Title:   "Order placed",
			Message: "Your order for " + equipment.Name + " has been placed",
			Type:    repository.NotificationTypeOrder,
		}, tx)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			response.JSONErrorResponse(w, nil, ErrInsufficientBalance.Error(), http.StatusUnprocessableEntity, nil)
			return
		}
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	event := &OrderEvent{
		Kind:        OrderEventPlaced,
		OrderID:     order.ID,
		UserID:      user.ID,
		ItemName:    equipment.Name,
		Amount:      debit,
		PaymentType: input.Type,
		Reference:   trans.ReferenceNumber,
		Status:      repository.OrderStatusPending,
	}
	if jsonMessage, err := json.Marshal(event); err == nil {
		go h.Kafka.ProduceMessage(OrderLifecycleTopic, string(jsonMessage))
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.DB.Activity().Insert(&repository.ActivityLog{
			UserID:      user.ID,
			Entity:      repository.ActivityLogOrderEntity,
			EntityId:    order.ID,
			Description: OrderActivityLogPurchaseDescription,
		})

		if err != nil {
			log.Printf("Error logging equipment purchase action: %v", err)
			return err
		}

		return nil
	})

	message := "Purchase order placed successfully"
	data := map[string]any{
		"order_id":  order.ID,
		"reference": trans.ReferenceNumber,
		"amount":    debit,
	}
	err = response.JSONCreatedResponse(w, data, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *EquipmentHandler) HandleEquipmentInstallmentPayment(w http.ResponseWriter, r *http.Request) {
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

	user := context.ContextGetAuthenticatedUser(r)

	if order.UserID != user.ID {
		h.ErrHandler.Forbidden(w, r, "")
		return
	}

	if order.Status == repository.OrderStatusCancelled {
		response.JSONErrorResponse(w, nil, ErrInvalidOrderTransition.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	if order.PaidInstallments >= order.Installments {
		response.JSONErrorResponse(w, nil, ErrOrderFullyPaid.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	wallet, found, err := h.DB.Wallet().GetByUserId(user.ID)
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
		Direction:   repository.TransactionDirectionDebit,
		Amount:      order.InstallmentAmount,
		Description: "Installment payment on order " + order.ID,
	}

	trans, err := h.DB.Ledger().Move(r.Context(), entry, func(tx *sqlx.Tx) error {
		paid, err := h.DB.EquipmentTransaction().PayInstallment(order.ID, tx)
		if err != nil {
			return err
		}
		if !paid {
			return repository.ErrIneligibleState
		}

		_, err = h.DB.Notification().Insert(&repository.Notification{
			UserID:  user.ID,
			Title:   "Installment paid",
			Message: "Installment of " + h.Helper.FormatMoney(order.InstallmentAmount, wallet.Currency) + " received on your order",
			Type:    repository.NotificationTypeOrder,
		}, tx)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			response.JSONErrorResponse(w, nil, ErrInsufficientBalance.Error(), http.StatusUnprocessableEntity, nil)
			return
		}
		if errors.Is(err, repository.ErrIneligibleState) {
			response.JSONErrorResponse(w, nil, ErrOrderFullyPaid.Error(), http.StatusUnprocessableEntity, nil)
			return
		}
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.DB.Activity().Insert(&repository.ActivityLog{
			UserID:      user.ID,
			Entity:      repository.ActivityLogOrderEntity,
			EntityId:    order.ID,
			Description: OrderActivityLogInstallmentDescription,
		})

		if err != nil {
			log.Printf("Error logging installment payment action: %v", err)
			return err
		}

		return nil
	})

	message := "Installment paid successfully"
	data := map[string]any{
		"order_id":          order.ID,
		"reference":         trans.ReferenceNumber,
		"paid_installments": order.PaidInstallments + 1,
		"installments":      order.Installments,
	}
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *EquipmentHandler) HandleEquipmentOrders(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	orders, err := h.DB.EquipmentTransaction().GetAllByUserId(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*OrderResponseData, len(orders))
	for i, order := range orders {
		data[i] = &OrderResponseData{
			ID:                order.ID,
			ItemID:            order.EquipmentID,
			Amount:            order.Amount,
			Type:              order.Type,
			Installments:      order.Installments,
			InstallmentAmount: order.InstallmentAmount,
			PaidInstallments:  order.PaidInstallments,
			Status:            order.Status,
			CreatedAt:         order.CreatedAt.Format(time.RFC3339),
		}
	}

	message := "Orders fetched successfully"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
