// Order events carry both fresh purchases and delivery progress. Purchases
// get a receipt email; status changes get a short update email.
package worker

import (
	"encoding/json"
	"log"

	"github.com/Creativestefan/startwealth-capital-sub003/internal/handler"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/stream"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

func (wk *Worker) OrderAlertWorker() {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: orderAlertGroupID,
		Topic:   handler.OrderLifecycleTopic,
	})

	if err != nil {
		log.Fatalf("Error creating consumer: %v", err)
	}
	defer consumer.Close()

	for {
		select {
		case <-wk.Ctx.Done():
			log.Println("OrderAlertWorker received cancellation signal, shutting down...")
			return
		default:
			event := consumer.Poll(100)
			switch e := event.(type) {
			case *kafka.Message:
				var orderEvent *handler.OrderEvent
				if err := json.Unmarshal(e.Value, &orderEvent); err != nil {
					log.Printf("Error decoding order event: %v", err)
					continue
				}

				wk.sendOrderAlert(orderEvent)
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

func (wk *Worker) sendOrderAlert(event *handler.OrderEvent) {
	user, found, err := wk.DB.User().GetOne(event.UserID)
	if err != nil || !found {
		log.Printf("Error finding buyer account for order alert: %v", err)
		return
	}

	wallet, _, err := wk.DB.Wallet().GetByUserId(user.ID)
	if err != nil {
		log.Printf("Error finding buyer wallet for order alert: %v", err)
		return
	}

	switch event.Kind {
	case handler.OrderEventPlaced:
		wk.Helper.BackgroundTask(nil, func() error {
			emailData := wk.Helper.NewEmailData()
			emailData["Name"] = user.FirstName + " " + user.LastName
			emailData["ItemName"] = event.ItemName
			emailData["Amount"] = wk.Helper.FormatMoney(event.Amount, wallet.Currency)
			emailData["PaymentType"] = event.PaymentType
			emailData["Reference"] = event.Reference

			err := wk.Mailer.Send(user.Email, emailData, "purchase-receipt.tmpl")
			if err != nil {
				log.Printf("Error sending purchase receipt email: %v", err)
				return err
			}

			return nil
		})
	case handler.OrderEventStatusChanged:
		wk.Helper.BackgroundTask(nil, func() error {
			emailData := wk.Helper.NewEmailData()
			emailData["Name"] = user.FirstName + " " + user.LastName
			emailData["ItemName"] = event.ItemName
			emailData["Status"] = event.Status

			err := wk.Mailer.Send(user.Email, emailData, "order-status.tmpl")
			if err != nil {
				log.Printf("Error sending order status email: %v", err)
				return err
			}

			return nil
		})
	}
}
