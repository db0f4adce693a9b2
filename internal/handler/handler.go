package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"
)

var (
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrWalletNotFound         = errors.New("wallet not found")
	ErrInActiveWallet         = errors.New("your wallet cannot process transactions at this time")
	ErrPropertyNotAvailable   = errors.New("this property is no longer available")
	ErrEquipmentNotAvailable  = errors.New("this equipment is no longer available")
	ErrInvestmentNotActive    = errors.New("this investment is not active")
	ErrInvestmentNotDue       = errors.New("this investment has not reached its maturity date")
	ErrOrderFullyPaid         = errors.New("all installments for this order have been paid")
	ErrInvalidOrderTransition = errors.New("this order cannot move to the requested status")
	ErrDuplicateTransaction   = errors.New("this appears to be a duplicate transaction")
)

// Kafka topics for post-commit alerts. Financial writes never ride these;
// they carry best-effort email notifications only.
const (
	InvestmentLifecycleTopic  = "investment.lifecycle"
	OrderLifecycleTopic       = "order.lifecycle"
	TransactionProcessedTopic = "transaction.processed"
)

// InvestmentEvent is produced after an investment transaction commits.
type InvestmentEvent struct {
	Kind           string  `json:"kind"`
	InvestmentID   string  `json:"investment_id"`
	UserID         string  `json:"user_id"`
	Category       string  `json:"category"`
	Amount         float64 `json:"amount"`
	Payout         float64 `json:"payout,omitempty"`
	NewBalance     float64 `json:"new_balance,omitempty"`
	ReferrerID     string  `json:"referrer_id,omitempty"`
	CommissionPaid float64 `json:"commission_paid,omitempty"`
}

const (
	InvestmentEventCreated   = "created"
	InvestmentEventMatured   = "matured"
	InvestmentEventCancelled = "cancelled"
)

// OrderEvent is produced when a property/equipment order is placed or
// transitions to a new delivery status.
type OrderEvent struct {
	Kind        string  `json:"kind"`
	OrderID     string  `json:"order_id"`
	UserID      string  `json:"user_id"`
	ItemName    string  `json:"item_name"`
	Amount      float64 `json:"amount"`
	PaymentType string  `json:"payment_type,omitempty"`
	Reference   string  `json:"reference,omitempty"`
	Status      string  `json:"status,omitempty"`
}

const (
	OrderEventPlaced        = "placed"
	OrderEventStatusChanged = "status_changed"
)

// TransactionEvent is produced when a pending wallet transaction settles or a
// commission is paid out.
type TransactionEvent struct {
	TransactionID string  `json:"transaction_id"`
	UserID        string  `json:"user_id"`
	Title         string  `json:"title"`
	Message       string  `json:"message"`
	Amount        float64 `json:"amount"`
	Reference     string  `json:"reference"`
}

type queryStringValues struct {
	StartDate *time.Time
	EndDate   *time.Time
	Search    string
	Limit     int
	Offset    int
}

func retrieveUrlQueryValues(r *http.Request) *queryStringValues {
	var queryValues = &queryStringValues{}

	// Parse start_date if provided
	startDateStr := r.URL.Query().Get("start_date")
	if startDateStr != "" {
		parsedStart, err := time.Parse("2006-01-02", startDateStr)
		if err == nil {
			queryValues.StartDate = &parsedStart
		}
	}

	// Parse end_date if provided
	endDateStr := r.URL.Query().Get("end_date")
	if endDateStr != "" {
		parsedEnd, err := time.Parse("2006-01-02", endDateStr)
		if err == nil {
			queryValues.EndDate = &parsedEnd
		}
	}

	// Parse pagination params
	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("page")

	// Default pagination values
	offset := 0
	limit := 10

	if limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}
	queryValues.Limit = limit

	if offsetStr != "" {
		if parsedOffset, err := strconv.Atoi(offsetStr); err == nil && parsedOffset >= 1 {
			offset = (parsedOffset - 1) * limit
		}
	}
	queryValues.Offset = offset

	// search params
	searchQuery := r.URL.Query().Get("search")
	queryValues.Search = searchQuery

	return queryValues
}
