package pmtproducer

import (
	"context"
	"fmt"

	"github.com/swaggyasy/tff-socket-server/internal/model"
	"github.com/swaggyasy/tff-socket-server/platform/kafka"
)

type Converter interface {
	PaymentUpdateToPayload(update model.PaymentUpdate) ([]byte, error)
}

type service struct {
	producer kafka.Producer
	conv     Converter
}

func NewPaymentProducer(producer kafka.Producer, conv Converter) *service {
	return &service{producer: producer, conv: conv}
}

// SendPaymentUpdate announces a terminal bill transition downstream.
// Keyed by bill code so one bill's updates stay in one partition.
func (s *service) SendPaymentUpdate(ctx context.Context, update model.PaymentUpdate) error {
	payload, err := s.conv.PaymentUpdateToPayload(update)
	if err != nil {
		return fmt.Errorf("converter payment_update_to_payload error: %w", err)
	}

	if err := s.producer.Send(ctx, []byte(update.BillCode), payload); err != nil {
		return fmt.Errorf("producer to payment updates topic error: %w", err)
	}

	return nil
}
