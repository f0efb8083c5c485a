package converter

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/swaggyasy/tff-socket-server/internal/model"
)

type kafkaConverter struct{}

func NewKafkaConverter() *kafkaConverter { return &kafkaConverter{} }

// OrderStatusToModel decodes an order-status record. Records carry the
// same JSON object the socket clients publish, so backend producers and
// connected clients feed the relay identically.
func (c *kafkaConverter) OrderStatusToModel(data []byte) (model.StatusUpdateEvent, error) {
	event, err := StatusUpdateToModel(data)
	if err != nil {
		return model.StatusUpdateEvent{}, fmt.Errorf("kafka order status: %w", err)
	}

	return event, nil
}

type paymentUpdateRecord struct {
	BillCode            string `json:"billCode"`
	ExternalReferenceNo string `json:"externalReferenceNo"`
	Status              string `json:"status"`
	AmountCents         int64  `json:"amountCents"`
	OccurredAt          string `json:"occurredAt"`
}

func (c *kafkaConverter) PaymentUpdateToPayload(update model.PaymentUpdate) ([]byte, error) {
	payload, err := json.Marshal(paymentUpdateRecord{
		BillCode:            update.BillCode,
		ExternalReferenceNo: update.ExternalReferenceNo,
		Status:              string(update.Status),
		AmountCents:         update.AmountCents,
		OccurredAt:          update.OccurredAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("encode payment update: %w", err)
	}

	return payload, nil
}
