package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/Creativestefan/startwealth-capital-sub003/internal/config"
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
	InvestmentActivityLogCreatedDescription   = "Created investment"
	InvestmentActivityLogWithdrawnDescription = "Withdrew matured investment"
)

type InvestmentResponseData struct {
	ID             string  `json:"id"`
	Category       string  `json:"category"`
	PlanType       string  `json:"plan_type"`
	Amount         float64 `json:"amount"`
	ExpectedReturn float64 `json:"expected_return"`
	ActualReturn   float64 `json:"actual_return,omitempty"`
	Status         string  `json:"status"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	CreatedAt      string  `json:"created_at"`
}

func newInvestmentResponseData(investment *repository.Investment) *InvestmentResponseData {
	return &InvestmentResponseData{
		ID:             investment.ID,
		Category:       investment.Category,
		PlanType:       investment.PlanType,
		Amount:         investment.Amount,
		ExpectedReturn: investment.ExpectedReturn,
		ActualReturn:   investment.ActualReturn.Float64,
		Status:         investment.Status,
		StartDate:      investment.StartDate.Format(time.RFC3339),
		EndDate:        investment.EndDate.Format(time.RFC3339),
		CreatedAt:      investment.CreatedAt.Format(time.RFC3339),
	}
}

type InvestmentHandler struct {
	DB         repository.Database
	ErrHandler *errHandler.ErrorHandler
	Helper     *helper.HelperRepository
	Config     *config.Config
	Kafka      *stream.KafkaStream
}

func NewInvestmentHandler(handler *InvestmentHandler) *InvestmentHandler {
	return &InvestmentHandler{
		DB:         handler.DB,
		ErrHandler: handler.ErrHandler,
		Helper:     handler.Helper,
		Config:     handler.Config,
		Kafka:      handler.Kafka,
	}
}

func (h *InvestmentHandler) HandleInvestmentPlans(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	var plans []repository.InvestmentPlan
	var err error

	if category != "" {
		plans, err = h.DB.InvestmentPlan().GetAllByCategory(category)
	} else {
		plans, err = h.DB.InvestmentPlan().GetAll()
	}
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Investment plans fetched successfully"
	err = response.JSONOkResponse(w, plans, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleCreateInvestment opens an investment inside one ledger transaction:
// the wallet is debited, the investment row is written, and when the investor
// was referred a pending commission is recorded for the referrer with the
// current rate snapshotted. Either everything commits or nothing does.
func (h *InvestmentHandler) HandleCreateInvestment(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Category  string              `json:"category"`
		Type      string              `json:"type"`
		Amount    float64             `json:"amount"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.In(input.Category,
		repository.InvestmentCategoryRealEstate,
		repository.InvestmentCategoryGreenEnergy,
		repository.InvestmentCategoryMarkets,
	), "Category must be real_estate, green_energy or markets")
	input.Validator.Check(validator.In(input.Type,
		repository.InvestmentPlanSemiAnnual,
		repository.InvestmentPlanAnnual,
	), "Type must be semi_annual or annual")
	input.Validator.Check(input.Amount > 0, "Amount is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	plan, found, err := h.DB.InvestmentPlan().GetOneByCategoryAndType(input.Category, input.Type)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	input.Validator.Check(validator.Between(input.Amount, plan.MinAmount, plan.MaxAmount),
		"Amount must be between "+h.Helper.FormatMoney(plan.MinAmount, "USD")+" and "+h.Helper.FormatMoney(plan.MaxAmount, "USD"))

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

	investment := &repository.Investment{
		UserID:         user.ID,
		Category:       input.Category,
		PlanType:       input.Type,
		Amount:         input.Amount,
		ExpectedReturn: input.Amount * plan.ReturnRate / 100,
		EndDate:        time.Now().AddDate(0, plan.DurationMonths, 0),
	}

	var commissionAmount float64

	entry := &repository.LedgerEntry{
		WalletID:    wallet.ID,
		Type:        repository.TransactionTypeInvestment,
		Direction:   repository.TransactionDirectionDebit,
		Amount:      input.Amount,
		Description: input.Category + " " + input.Type + " investment",
	}

	trans, err := h.DB.Ledger().Move(r.Context(), entry, func(tx *sqlx.Tx) error {
		investmentID, err := h.DB.Investment().Insert(investment, tx)
		if err != nil {
			return err
		}
		investment.ID = investmentID

		if user.ReferredBy.Valid {
			commissionAmount = input.Amount * h.Config.Referral.CommissionRate / 100
			_, err = h.DB.Referral().InsertCommission(&repository.ReferralCommission{
				ReferrerID:   user.ReferredBy.String,
				ReferredID:   user.ID,
				InvestmentID: sql.NullString{String: investmentID, Valid: true},
				Amount:       commissionAmount,
				Rate:         h.Config.Referral.CommissionRate,
			}, tx)
			if err != nil {
				return err
			}
		}

		_, err = h.DB.Notification().Insert(&repository.Notification{
			UserID:  user.ID,
			Title:   "Investment created",
			Message: "Your " + input.Category + " investment of " + h.Helper.FormatMoney(input.Amount, wallet.Currency) + " is now active",
			Type:    repository.NotificationTypeInvestment,
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

	event := &InvestmentEvent{
		Kind:           InvestmentEventCreated,
		InvestmentID:   investment.ID,
		UserID:         user.ID,
		Category:       investment.Category,
		Amount:         investment.Amount,
		ReferrerID:     user.ReferredBy.String,
		CommissionPaid: commissionAmount,
	}
	if jsonMessage, err := json.Marshal(event); err == nil {
		go h.Kafka.ProduceMessage(InvestmentLifecycleTopic, string(jsonMessage))
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.DB.Activity().Insert(&repository.ActivityLog{
			UserID:      user.ID,
			Entity:      repository.ActivityLogInvestmentEntity,
			EntityId:    investment.ID,
			Description: InvestmentActivityLogCreatedDescription,
		})

		if err != nil {
			log.Printf("Error logging investment creation action: %v", err)
			return err
		}

		return nil
	})

	message := "Investment created successfully"
	data := map[string]any{
		"investment_id":   investment.ID,
		"reference":       trans.ReferenceNumber,
		"expected_return": investment.ExpectedReturn,
	}
	err = response.JSONCreatedResponse(w, data, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *InvestmentHandler) HandleUserInvestments(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	investments, err := h.DB.Investment().GetAllByUserId(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*InvestmentResponseData, len(investments))
	for i := range investments {
		data[i] = newInvestmentResponseData(&investments[i])
	}

	message := "Investments fetched successfully"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *InvestmentHandler) HandleInvestmentDetails(w http.ResponseWriter, r *http.Request) {
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

	user := context.ContextGetAuthenticatedUser(r)
	if investment.UserID != user.ID && user.Role != repository.UserRoleAdmin {
		h.ErrHandler.Forbidden(w, r, "")
		return
	}

	message := "Investment fetched successfully"
	err = response.JSONOkResponse(w, newInvestmentResponseData(investment), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleInvestmentWithdraw lets the owner collect a matured investment:
// principal plus expected return is credited back in one ledger transaction.
// The conditional status update inside the transaction makes the credit happen
// exactly once no matter how many times the withdrawal is attempted.
func (h *InvestmentHandler) HandleInvestmentWithdraw(w http.ResponseWriter, r *http.Request) {
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

	user := context.ContextGetAuthenticatedUser(r)
	if investment.UserID != user.ID {
		h.ErrHandler.Forbidden(w, r, "")
		return
	}

	if investment.Status != repository.InvestmentStatusActive {
		response.JSONErrorResponse(w, nil, ErrInvestmentNotActive.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	if time.Now().Before(investment.EndDate) {
		response.JSONErrorResponse(w, nil, ErrInvestmentNotDue.Error(), http.StatusUnprocessableEntity, nil)
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

	payout := investment.Amount + investment.ExpectedReturn

	entry := &repository.LedgerEntry{
		WalletID:    wallet.ID,
		Type:        repository.TransactionTypeReturn,
		Direction:   repository.TransactionDirectionCredit,
		Amount:      payout,
		Description: "Matured " + investment.Category + " investment payout",
	}

	trans, err := h.DB.Ledger().Move(r.Context(), entry, func(tx *sqlx.Tx) error {
		matured, err := h.DB.Investment().Mature(investment.ID, investment.ExpectedReturn, tx)
		if err != nil {
			return err
		}
		if !matured {
			return repository.ErrIneligibleState
		}

		_, err = h.DB.Notification().Insert(&repository.Notification{
			UserID:  user.ID,
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
		UserID:       user.ID,
		Category:     investment.Category,
		Amount:       investment.Amount,
		Payout:       payout,
	}
	if jsonMessage, err := json.Marshal(event); err == nil {
		go h.Kafka.ProduceMessage(InvestmentLifecycleTopic, string(jsonMessage))
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.DB.Activity().Insert(&repository.ActivityLog{
			UserID:      user.ID,
			Entity:      repository.ActivityLogInvestmentEntity,
			EntityId:    investment.ID,
			Description: InvestmentActivityLogWithdrawnDescription,
		})

		if err != nil {
			log.Printf("Error logging investment withdrawal action: %v", err)
			return err
		}

		return nil
	})

	message := "Investment withdrawn successfully"
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
