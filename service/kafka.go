package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/apsdehal/go-logger"
	"github.com/segmentio/kafka-go"
	"github.com/trakkie-id/paymentrails/model"
)

// PublishMessage writes one payload to a kafka topic, creating the topic on
// first use.
func PublishMessage(ctx context.Context, log *logger.Logger, broker string, topic string, payload []byte) error {
	//Try create topic first
	_, err := kafka.DialLeader(ctx, "tcp", broker, topic, 0)
	if err != nil {
		log.Errorf("failed to create topic: %s", err)
		return err
	}

	w := &kafka.Writer{
		Addr:     kafka.TCP(broker),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	defer w.Close()

	err = w.WriteMessages(
		ctx,
		kafka.Message{
			Value: payload,
		},
	)
	if err != nil {
		log.Errorf("failed to write messages: %s", err)
		return err
	}

	log.Infof("[KAFKA] Message Sent! Topic : %s Payload: %s", topic, string(payload))
	return nil
}

// SMSNotifier hands alert payloads to the SMS delivery pipeline over kafka.
// Delivery itself is another system's problem.
type SMSNotifier struct {
	broker string
	topic  string
	logger *logger.Logger
}

func NewSMSNotifier(broker, topic string, log *logger.Logger) *SMSNotifier {
	return &SMSNotifier{broker: broker, topic: topic, logger: log}
}

type smsPayload struct {
	Event       string `json:"event"`
	Scheme      string `json:"scheme"`
	Reference   string `json:"reference"`
	CustomerID  string `json:"customer_id,omitempty"`
	UTRNumber   string `json:"utr_number,omitempty"`
	BatchNumber string `json:"batch_number,omitempty"`
	Message     string `json:"message"`
}

func (n *SMSNotifier) publish(ctx context.Context, payload smsPayload) {
	raw, err := json.Marshal(payload)
	if err != nil {
		n.logger.Errorf("failed to encode sms payload: %s", err)
		return
	}
	if err := PublishMessage(ctx, n.logger, n.broker, n.topic, raw); err != nil {
		n.logger.Errorf("sms notification dropped, event: %s, reference: %s, err: %+v", payload.Event, payload.Reference, err)
	}
}

func (n *SMSNotifier) NotifyTransactionCompleted(ctx context.Context, txn *model.Transaction) {
	n.publish(ctx, smsPayload{
		Event:      "TRANSACTION_COMPLETED",
		Scheme:     string(txn.Scheme),
		Reference:  txn.TransactionReference,
		CustomerID: txn.CustomerID,
		UTRNumber:  txn.UTRNumber,
		Message:    fmt.Sprintf("Your %s transfer of %s is complete. UTR %s", txn.Scheme, txn.Amount, txn.UTRNumber),
	})
}

func (n *SMSNotifier) NotifyTransactionFailed(ctx context.Context, txn *model.Transaction, reason string) {
	n.publish(ctx, smsPayload{
		Event:      "TRANSACTION_FAILED",
		Scheme:     string(txn.Scheme),
		Reference:  txn.TransactionReference,
		CustomerID: txn.CustomerID,
		Message:    fmt.Sprintf("Your %s transfer of %s failed: %s", txn.Scheme, txn.Amount, reason),
	})
}

func (n *SMSNotifier) NotifyBatchCompleted(ctx context.Context, batch *model.Batch, successCount, failCount int) {
	n.publish(ctx, smsPayload{
		Event:       "BATCH_COMPLETED",
		Scheme:      string(batch.Scheme),
		BatchNumber: batch.BatchNumber,
		Message:     fmt.Sprintf("Batch %s settled: %d completed, %d failed", batch.BatchNumber, successCount, failCount),
	})
}
