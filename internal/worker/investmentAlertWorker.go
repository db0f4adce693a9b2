// Investment lifecycle events arrive here after the ledger transaction has
// committed. The money has already moved; this worker only turns the event
// into email alerts for the investor and, on creation, the referrer.
package worker

import (
	"encoding/json"
	"log"

	"github.com/Creativestefan/startwealth-capital-sub003/internal/handler"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/stream"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

func (wk *Worker) InvestmentAlertWorker() {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: investmentAlertGroupID,
		Topic:   handler.InvestmentLifecycleTopic,
	})

	if err != nil {
		log.Fatalf("Error creating consumer: %v", err)
	}
	defer consumer.Close()

	for {
		select {
		case <-wk.Ctx.Done():
			log.Println("InvestmentAlertWorker received cancellation signal, shutting down...")
			return
		default:
			event := consumer.Poll(100)
			switch e := event.(type) {
			case *kafka.Message:
				var investmentEvent *handler.InvestmentEvent
				if err := json.Unmarshal(e.Value, &investmentEvent); err != nil {
					log.Printf("Error decoding investment event: %v", err)
					continue
				}

				wk.sendInvestmentAlerts(investmentEvent)
			case kafka.Error:
				log.Printf("Error: %v\n", e)
			case *kafka.AssignedPartitions:
				consumer.Assign(e.Partitions)
			case *kafka.RevokedPartitions:
				consumer.Unassign()
			}
		}
	}
}

func (wk *Worker) sendInvestmentAlerts(event *handler.InvestmentEvent) {
	user, found, err := wk.DB.User().GetOne(event.UserID)
	if err != nil || !found {
		log.Printf("Error finding investor account for alert: %v", err)
		return
	}

	wallet, _, err := wk.DB.Wallet().GetByUserId(user.ID)
	if err != nil {
		log.Printf("Error finding investor wallet for alert: %v", err)
		return
	}

	switch event.Kind {
	case handler.InvestmentEventCreated:
		// the investor already has an in-app notification; only the referrer
		// gets an email, telling them a commission is on its way
		if event.ReferrerID == "" {
			return
		}

		referrer, found, err := wk.DB.User().GetOne(event.ReferrerID)
		if err != nil || !found {
			log.Printf("Error finding referrer account for commission alert: %v", err)
			return
		}

		wk.Helper.BackgroundTask(nil, func() error {
			emailData := wk.Helper.NewEmailData()
			emailData["Name"] = referrer.FirstName + " " + referrer.LastName
			emailData["ReferredName"] = user.FirstName + " " + user.LastName
			emailData["Amount"] = wk.Helper.FormatMoney(event.CommissionPaid, wallet.Currency)

			err := wk.Mailer.Send(referrer.Email, emailData, "commission-earned.tmpl")
			if err != nil {
				log.Printf("Error sending commission email alert: %v", err)
				return err
			}

			return nil
		})
	case handler.InvestmentEventMatured:
		wk.Helper.BackgroundTask(nil, func() error {
			emailData := wk.Helper.NewEmailData()
			emailData["Name"] = user.FirstName + " " + user.LastName
			emailData["Category"] = event.Category
			emailData["Amount"] = wk.Helper.FormatMoney(event.Amount, wallet.Currency)
			emailData["Payout"] = wk.Helper.FormatMoney(event.Payout, wallet.Currency)
			emailData["NewBalance"] = wk.Helper.FormatMoney(wallet.Balance, wallet.Currency)

			err := wk.Mailer.Send(user.Email, emailData, "investment-matured.tmpl")
			if err != nil {
				log.Printf("Error sending maturation email alert: %v", err)
				return err
			}

			return nil
		})
	case handler.InvestmentEventCancelled:
		wk.Helper.BackgroundTask(nil, func() error {
			emailData := wk.Helper.NewEmailData()
			emailData["Name"] = user.FirstName + " " + user.LastName
			emailData["Category"] = event.Category
			emailData["Amount"] = wk.Helper.FormatMoney(event.Amount, wallet.Currency)

			err := wk.Mailer.Send(user.Email, emailData, "investment-cancelled.tmpl")
			if err != nil {
				log.Printf("Error sending cancellation email alert: %v", err)
				return err
			}

			return nil
		})
	}
}
