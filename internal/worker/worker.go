package worker

import (
	"context"

	"github.com/Creativestefan/startwealth-capital-sub003/internal/helper"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/repository"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/smtp"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/stream"
)

type Worker struct {
	KafkaStream *stream.KafkaStream
	DB          repository.Database
	Ctx         context.Context
	Helper      *helper.HelperRepository
	Mailer      smtp.MailerInterface
}

const (
	// investmentAlertGroupID is used for workers that send email alerts on investment lifecycle events
	investmentAlertGroupID = "investment-alert-group"

	// orderAlertGroupID is used for workers that send email alerts when orders are placed or progress through delivery
	orderAlertGroupID = "order-alert-group"

	// transactionAlertGroupID is used for workers that send email alerts when pending transactions settle
	transactionAlertGroupID = "transaction-alert-group"
)

// Our workers typically need access to the database, the mailer and the kafka
// event stream. Workers only carry best-effort side effects; every financial
// write has already committed by the time an event reaches them.
func New(wk *Worker) *Worker {
	return &Worker{
		KafkaStream: wk.KafkaStream,
		DB:          wk.DB,
		Ctx:         wk.Ctx,
		Helper:      wk.Helper,
		Mailer:      wk.Mailer,
	}
}
