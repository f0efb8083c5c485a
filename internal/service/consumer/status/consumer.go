package statusconsumer

import (
	"context"
	"fmt"

	"github.com/swaggyasy/tff-socket-server/internal/model"
	"github.com/swaggyasy/tff-socket-server/platform/kafka"
	"github.com/swaggyasy/tff-socket-server/platform/logger"
)

type Converter interface {
	OrderStatusToModel(data []byte) (model.StatusUpdateEvent, error)
}

// Relay is the fan-out entry point. Publishing never fails: events
// without a resolvable target are dropped by contract.
type Relay interface {
	PublishStatusUpdate(ctx context.Context, event model.StatusUpdateEvent)
}

type service struct {
	consumer kafka.Consumer
	conv     Converter
	relay    Relay
}

// NewStatusConsumer bridges the order-status topic into the relay so
// backend services can push updates without holding a socket.
func NewStatusConsumer(
	consumer kafka.Consumer,
	conv Converter,
	relay Relay,
) *service {
	return &service{consumer: consumer, conv: conv, relay: relay}
}

func (s *service) RunOrderStatusConsume(ctx context.Context) error {
	logger.Info(ctx, "Starting order status consumer")

	if err := s.consumer.Consume(ctx, s.orderStatusHandler); err != nil {
		logger.Error(ctx, "Consume from order status topic error", logger.ErrorF(err))
		return err
	}

	return nil
}

func (s *service) orderStatusHandler(ctx context.Context, msg kafka.Message) error {
	event, err := s.conv.OrderStatusToModel(msg.Value)
	if err != nil {
		logger.Error(ctx, "Failed to decode order status record", logger.ErrorF(err))
		return fmt.Errorf("converter order_status_to_model error: %w", err)
	}

	s.relay.PublishStatusUpdate(ctx, event)

	return nil
}
