package helper

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const PlatformName = "StartWealth Capital"

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

type HelperRepository struct {
	baseUrl *string
	WG      *sync.WaitGroup
	logger  *slog.Logger
	printer *message.Printer
}

func New(baseUrl *string, wg *sync.WaitGroup, logger *slog.Logger) *HelperRepository {
	return &HelperRepository{
		baseUrl: baseUrl,
		WG:      wg,
		logger:  logger,
		printer: message.NewPrinter(language.English),
	}
}

func (h *HelperRepository) NewEmailData() map[string]any {
	data := map[string]any{
		"BaseURL":      h.baseUrl,
		"PlatformName": PlatformName,
	}

	return data
}

// FormatMoney renders an amount with thousands separators for emails and
// notification messages, e.g. $12,500.00.
func (h *HelperRepository) FormatMoney(amount float64, currency string) string {
	symbol, ok := currencySymbols[currency]
	if !ok {
		symbol = currency + " "
	}
	return h.printer.Sprintf("%s%.2f", symbol, amount)
}

// BackgroundTask runs fn in a goroutine, recovering panics so a failing
// side effect can never take down the request that spawned it.
func (h *HelperRepository) BackgroundTask(r *http.Request, fn func() error) {
	h.WG.Add(1)

	go func() {
		defer h.WG.Done()

		defer func() {
			err := recover()
			if err != nil {
				h.logger.Error(fmt.Sprintf("%s", err))
			}
		}()

		err := fn()
		if err != nil {
			h.logger.Error(err.Error())
		}
	}()
}
