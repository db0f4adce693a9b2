package handler

import (
	"net/http"
	"time"

	"github.com/Creativestefan/startwealth-capital-sub003/internal/context"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/errHandler"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/repository"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/response"
)

type ReferredUserData struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	JoinedAt  string `json:"joined_at"`
}

type CommissionResponseData struct {
	ID           string  `json:"id"`
	ReferredID   string  `json:"referred_id"`
	InvestmentID string  `json:"investment_id,omitempty"`
	Amount       float64 `json:"amount"`
	Rate         float64 `json:"rate"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"created_at"`
}

type ReferralHandler struct {
	DB         repository.Database
	ErrHandler *errHandler.ErrorHandler
}

func NewReferralHandler(handler *ReferralHandler) *ReferralHandler {
	return &ReferralHandler{
		DB:         handler.DB,
		ErrHandler: handler.ErrHandler,
	}
}

// HandleReferralOverview returns the caller's referral code, the users they
// brought in, and the commissions earned from those users' investments.
func (h *ReferralHandler) HandleReferralOverview(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	referredUsers, err := h.DB.Referral().GetReferredUsers(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	commissions, err := h.DB.Referral().GetCommissionsByReferrerId(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	referred := make([]*ReferredUserData, len(referredUsers))
	for i, ru := range referredUsers {
		referred[i] = &ReferredUserData{
			ID:        ru.ID,
			FirstName: ru.FirstName,
			LastName:  ru.LastName,
			JoinedAt:  ru.CreatedAt.Format(time.RFC3339),
		}
	}

	var totalEarned float64
	commissionData := make([]*CommissionResponseData, len(commissions))
	for i, c := range commissions {
		commissionData[i] = &CommissionResponseData{
			ID:           c.ID,
			ReferredID:   c.ReferredID,
			InvestmentID: c.InvestmentID.String,
			Amount:       c.Amount,
			Rate:         c.Rate,
			Status:       c.Status,
			CreatedAt:    c.CreatedAt.Format(time.RFC3339),
		}
		if c.Status == repository.CommissionStatusPaid {
			totalEarned += c.Amount
		}
	}

	data := map[string]any{
		"referral_code":  user.ReferralCode,
		"referred_users": referred,
		"commissions":    commissionData,
		"total_earned":   totalEarned,
	}

	message := "Referral overview fetched successfully"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
