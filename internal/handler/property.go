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

const (
	propertiesCacheKey = "properties:all"
	listingCacheTTL    = 10 * time.Minute

	OrderActivityLogPurchaseDescription    = "Placed purchase order"
	OrderActivityLogInstallmentDescription = "Paid purchase installment"

	minInstallments = 2
	maxInstallments = 12
)

type OrderResponseData struct {
	ID                string  `json:"id"`
	ItemID            string  `json:"item_id"`
	Amount            float64 `json:"amount"`
	Type              string  `json:"type"`
	Installments      int     `json:"installments"`
	InstallmentAmount float64 `json:"installment_amount"`
	PaidInstallments  int     `json:"paid_installments"`
	Status            string  `json:"status"`
	CreatedAt         string  `json:"created_at"`
}

type PropertyHandler struct {
	DB         repository.Database
	ErrHandler *errHandler.ErrorHandler
	Helper     *helper.HelperRepository
	Cache      *cache.Cache
	Kafka      *stream.KafkaStream
}

func NewPropertyHandler(handler *PropertyHandler) *PropertyHandler {
	return &PropertyHandler{
		DB:         handler.DB,
		ErrHandler: handler.ErrHandler,
		Helper:     handler.Helper,
		Cache:      handler.Cache,
		Kafka:      handler.Kafka,
	}
}

// HandlePropertyList serves the catalog cache-aside: listings change rarely
// (seeding and sold-out flips), so a short TTL keeps reads off the database.
func (h *PropertyHandler) HandlePropertyList(w http.ResponseWriter, r *http.Request) {
	message := "Properties fetched successfully"

	if cached, err := h.Cache.Get(propertiesCacheKey); err == nil && cached != "" {
		var properties []repository.Property
		if err := json.Unmarshal([]byte(cached), &properties); err == nil {
			err = response.JSONOkResponse(w, properties, message, nil)
			if err != nil {
				h.ErrHandler.ServerError(w, r, err)
			}
			return
		}
	}

	properties, err := h.DB.Property().GetAll()
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if encoded, err := json.Marshal(properties); err == nil {
		if err := h.Cache.Set(propertiesCacheKey, string(encoded), listingCacheTTL); err != nil {
			log.Printf("Error caching property listing: %v", err)
		}
	}

	err = response.JSONOkResponse(w, properties, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *PropertyHandler) HandlePropertyDetails(w http.ResponseWriter, r *http.Request) {
	propertyID := r.PathValue("id")

	property, found, err := h.DB.Property().GetOne(propertyID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	message := "Property fetched successfully"
	err = response.JSONOkResponse(w, property, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandlePropertyPurchase debits the buyer's wallet and opens a purchase order
// in one ledger transaction. A full purchase debits the property price; an
// installment purchase debits the first installment and records the plan.
// The property is reserved (sold_out) inside the same transaction, so two
// buyers can't both commit an order for it.
func (h *PropertyHandler) HandlePropertyPurchase(w http.ResponseWriter, r *http.Request) {
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

	propertyID := r.PathValue("id")

	property, found, err := h.DB.Property().GetOne(propertyID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	if property.Status != repository.PropertyAvailableStatus {
		response.JSONErrorResponse(w, nil, ErrPropertyNotAvailable.Error(), http.StatusUnprocessableEntity, nil)
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

	order := &repository.PropertyTransaction{
		PropertyID:       property.ID,
		UserID:           user.ID,
		Amount:           property.Price,
		Type:             input.Type,
		PaidInstallments: 1,
	}

	var debit float64
	if input.Type == repository.PurchaseTypeFull {
		debit = property.Price
		order.Installments = 1
		order.InstallmentAmount = property.Price
	} else {
		order.Installments = input.Installments
		order.InstallmentAmount = property.Price / float64(input.Installments)
		debit = order.InstallmentAmount
	}

	entry := &repository.LedgerEntry{
		WalletID:    wallet.ID,
		Type:        repository.TransactionTypePurchase,
		Direction:   repository.TransactionDirectionDebit,
		Amount:      debit,
		Description: "Purchase of " + property.Name,
	}

	trans, err := h.DB.Ledger().Move(r.Context(), entry, func(tx *sqlx.Tx) error {
		orderID, err := h.DB.PropertyTransaction().Insert(order, tx)
		if err != nil {
			return err
		}
		order.ID = orderID

		reserved, err := h.DB.Property().MarkSoldOut(property.ID, tx)
		if err != nil {
			return err
		}
		if !reserved {
			return repository.ErrIneligibleState
		}

		_, err = h.DB.Notification().Insert(&repository.Notification{
			UserID:  user.ID,
			Title:   "Order placed",
			Message: "Your order for " + property.Name + " has been placed",
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
			response.JSONErrorResponse(w, nil, ErrPropertyNotAvailable.Error(), http.StatusUnprocessableEntity, nil)
			return
		}
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if err := h.Cache.Delete(propertiesCacheKey); err != nil {
		log.Printf("Error invalidating property listing cache: %v", err)
	}

	event := &OrderEvent{
		Kind:        OrderEventPlaced,
		OrderID:     order.ID,
		UserID:      user.ID,
		ItemName:    property.Name,
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
			log.Printf("Error logging property purchase action: %v", err)
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

// HandlePropertyInstallmentPayment pays the next installment on an open order.
// The counter increment carries its own guards, so an overpayment attempt
// rolls the debit back.
func (h *PropertyHandler) HandlePropertyInstallmentPayment(w http.ResponseWriter, r *http.Request) {
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
		paid, err := h.DB.PropertyTransaction().PayInstallment(order.ID, tx)
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

func (h *PropertyHandler) HandlePropertyOrders(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	orders, err := h.DB.PropertyTransaction().GetAllByUserId(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*OrderResponseData, len(orders))
	for i, order := range orders {
		data[i] = &OrderResponseData{
			ID:                order.ID,
			ItemID:            order.PropertyID,
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
