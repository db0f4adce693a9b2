// Settled deposits, withdrawals and commission payouts land here for the
// email leg of the notification. The in-app notification row was written
// inside the settling transaction itself.
package worker

import (
	"encoding/json"
	"log"

	"github.com/Creativestefan/startwealth-capital-sub003/internal/handler"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/stream"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

func (wk *Worker) TransactionAlertWorker() {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: transactionAlertGroupID,
		Topic:   handler.TransactionProcessedTopic,
	})

	if err != nil {
		log.Fatalf("Error creating consumer: %v", err)
	}
	defer consumer.Close()

	for {
		select {
		case <-wk.Ctx.Done():
			log.Println("TransactionAlertWorker received cancellation signal, shutting down...")
			return
		default:
			event := consumer.Poll(100)
			switch e := event.(type) {
			case *kafka.Message:
				var transactionEvent *handler.TransactionEvent
				if err := json.Unmarshal(e.Value, &transactionEvent); err != nil {
					log.Printf("Error decoding transaction event: %v", err)
					continue
				}

				wk.sendTransactionAlert(transactionEvent)
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

func (wk *Worker) sendTransactionAlert(event *handler.TransactionEvent) {
	user, found, err := wk.DB.User().GetOne(event.UserID)
	if err != nil || !found {
		log.Printf("Error finding account for transaction alert: %v", err)
		return
	}

	wallet, _, err := wk.DB.Wallet().GetByUserId(user.ID)
	if err != nil {
		log.Printf("Error finding wallet for transaction alert: %v", err)
		return
	}

	wk.Helper.BackgroundTask(nil, func() error {
		emailData := wk.Helper.NewEmailData()
		emailData["Name"] = user.FirstName + " " + user.LastName
		emailData["Title"] = event.Title
		emailData["Message"] = event.Message
		emailData["Amount"] = wk.Helper.FormatMoney(event.Amount, wallet.Currency)
		emailData["Reference"] = event.Reference

		err := wk.Mailer.Send(user.Email, emailData, "transaction-processed.tmpl")
		if err != nil {
			log.Printf("Error sending transaction email alert: %v", err)
			return err
		}

		return nil
	})
}
