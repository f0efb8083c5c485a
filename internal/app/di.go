package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/IBM/sarama"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/swaggyasy/tff-socket-server/internal/client/http/toyyibpay"
	"github.com/swaggyasy/tff-socket-server/internal/config"
	"github.com/swaggyasy/tff-socket-server/internal/converter"
	"github.com/swaggyasy/tff-socket-server/internal/migrator"
	"github.com/swaggyasy/tff-socket-server/internal/model"
	repository "github.com/swaggyasy/tff-socket-server/internal/repository/bill"
	"github.com/swaggyasy/tff-socket-server/internal/service/billing"
	statusconsumer "github.com/swaggyasy/tff-socket-server/internal/service/consumer/status"
	pmtproducer "github.com/swaggyasy/tff-socket-server/internal/service/producer/payment"
	"github.com/swaggyasy/tff-socket-server/internal/service/relay"
	thttp "github.com/swaggyasy/tff-socket-server/internal/transport/http/billing/v1"
	"github.com/swaggyasy/tff-socket-server/internal/transport/ws"
	"github.com/swaggyasy/tff-socket-server/platform/closer"
	"github.com/swaggyasy/tff-socket-server/platform/kafka"
	"github.com/swaggyasy/tff-socket-server/platform/kafka/consumer"
	"github.com/swaggyasy/tff-socket-server/platform/kafka/middleware"
	"github.com/swaggyasy/tff-socket-server/platform/kafka/producer"
	"github.com/swaggyasy/tff-socket-server/platform/logger"
)

type Converter interface {
	OrderStatusToModel(data []byte) (model.StatusUpdateEvent, error)
	PaymentUpdateToPayload(update model.PaymentUpdate) ([]byte, error)
}

type StatusConsumer interface {
	RunOrderStatusConsume(ctx context.Context) error
}

type BillingHandler interface {
	CreateBill(w http.ResponseWriter, r *http.Request)
	Callback(w http.ResponseWriter, r *http.Request)
}

type di struct {
	dbPool     *pgxpool.Pool
	migrator   *migrator.Migrator
	repository billing.BillRepository

	gatewayClient billing.GatewayClient

	consumerGroup       sarama.ConsumerGroup
	orderStatusConsumer kafka.Consumer
	statusConsumer      StatusConsumer

	syncProducer           sarama.SyncProducer
	paymentUpdatesProducer kafka.Producer
	paymentProducer        billing.PaymentUpdateSender

	conv Converter

	relayService   ws.RelayService
	billingService thttp.BillingService

	wsHandler      http.Handler
	billingHandler BillingHandler

	router *chi.Mux
}

func NewDI() *di { return &di{} }

func (d *di) DBPool(ctx context.Context) *pgxpool.Pool {
	if d.dbPool == nil {

		pool, err := pgxpool.New(ctx, config.C().Database.DSN())
		if err != nil {
			panic(fmt.Sprintf("failed to create pg pool: %v\n", err))
		}

		closer.AddNamed("PGX Pool",
			func(ctx context.Context) error {
				pool.Close()
				return nil
			})

		if err := pool.Ping(ctx); err != nil {
			panic(fmt.Sprintf("failed to ping db: %v\n", err))
		}

		d.dbPool = pool
	}

	return d.dbPool
}

func (d *di) Migrator(ctx context.Context) *migrator.Migrator {
	if d.migrator == nil {
		d.migrator = migrator.NewMigrator(
			stdlib.OpenDBFromPool(d.DBPool(ctx)),
			config.C().Database.MigrationDirectory(),
		)

		closer.AddNamed("Migrator",
			func(ctx context.Context) error {
				return d.migrator.Close()
			})
	}

	return d.migrator
}

func (d *di) BillRepository(ctx context.Context) billing.BillRepository {
	if d.repository == nil {
		d.repository = repository.NewBillRepository(d.DBPool(ctx))
	}

	return d.repository
}

func (d *di) GatewayClient(_ context.Context) billing.GatewayClient {
	if d.gatewayClient == nil {
		cfg := config.C().Toyyibpay

		d.gatewayClient = toyyibpay.NewClient(
			&http.Client{Timeout: cfg.HTTPTimeout()},
			toyyibpay.Config{
				BaseURL:      cfg.BaseURL(),
				SecretKey:    cfg.SecretKey(),
				CategoryCode: cfg.CategoryCode(),
				CallbackURL:  cfg.CallbackURL(),
				ReturnURL:    cfg.ReturnURL(),
			},
		)
	}

	return d.gatewayClient
}

func (d *di) KafkaConverter(_ context.Context) Converter {
	if d.conv == nil {
		d.conv = converter.NewKafkaConverter()
	}

	return d.conv
}

func (d *di) ConsumerGroup(_ context.Context) sarama.ConsumerGroup {
	if d.consumerGroup == nil {
		cfg := config.C()

		consumerGroup, err := sarama.NewConsumerGroup(
			cfg.Kafka.Brokers(),
			cfg.Kafka.OrderStatusConsumerGroupID(),
			cfg.Kafka.OrderStatusConsumerConfig(),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create consumer group: %s\n", err.Error()))
		}
		closer.AddNamed("Kafka consumer group", func(ctx context.Context) error {
			return d.consumerGroup.Close()
		})

		d.consumerGroup = consumerGroup
	}

	return d.consumerGroup
}

func (d *di) OrderStatusConsumer(ctx context.Context) kafka.Consumer {
	if d.orderStatusConsumer == nil {
		d.orderStatusConsumer = consumer.NewConsumer(
			d.ConsumerGroup(ctx),
			[]string{
				config.C().Kafka.OrderStatusTopic(),
			},
			logger.L(),
			middleware.Recovery(logger.L()),
			middleware.Logging(logger.L()),
		)
	}

	return d.orderStatusConsumer
}

func (d *di) StatusConsumer(ctx context.Context) StatusConsumer {
	if d.statusConsumer == nil {
		d.statusConsumer = statusconsumer.NewStatusConsumer(
			d.OrderStatusConsumer(ctx),
			d.KafkaConverter(ctx),
			d.RelayService(ctx),
		)
	}

	return d.statusConsumer
}

func (d *di) SyncProducer(_ context.Context) sarama.SyncProducer {
	if d.syncProducer == nil {
		cfg := config.C()

		p, err := sarama.NewSyncProducer(
			cfg.Kafka.Brokers(),
			cfg.Kafka.PaymentUpdatesProducerConfig(),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create sync producer: %s\n", err.Error()))
		}
		closer.AddNamed("Kafka sync producer", func(ctx context.Context) error {
			return p.Close()
		})

		d.syncProducer = p
	}

	return d.syncProducer
}

func (d *di) PaymentUpdatesProducer(ctx context.Context) kafka.Producer {
	if d.paymentUpdatesProducer == nil {
		d.paymentUpdatesProducer = producer.NewProducer(
			d.SyncProducer(ctx),
			config.C().Kafka.PaymentUpdatesTopic(),
			logger.L(),
		)
	}

	return d.paymentUpdatesProducer
}

func (d *di) PaymentProducer(ctx context.Context) billing.PaymentUpdateSender {
	if d.paymentProducer == nil {
		d.paymentProducer = pmtproducer.NewPaymentProducer(
			d.PaymentUpdatesProducer(ctx),
			d.KafkaConverter(ctx),
		)
	}

	return d.paymentProducer
}

func (d *di) BillingService(ctx context.Context) thttp.BillingService {
	if d.billingService == nil {
		d.billingService = billing.NewBillingService(
			d.GatewayClient(ctx),
			d.BillRepository(ctx),
			d.PaymentProducer(ctx),
			config.C().Server.DBReadTimeout(),
			config.C().Server.DBWriteTimeout(),
		)
	}

	return d.billingService
}

func (d *di) BillingHandler(ctx context.Context) BillingHandler {
	if d.billingHandler == nil {
		d.billingHandler = thttp.NewBillingHandler(
			d.BillingService(ctx),
			config.C().Toyyibpay.CallbackSecret(),
		)
	}

	return d.billingHandler
}

func (d *di) RelayService(_ context.Context) ws.RelayService {
	if d.relayService == nil {
		d.relayService = relay.NewRelayService()
	}

	return d.relayService
}

func (d *di) WSHandler(ctx context.Context) http.Handler {
	if d.wsHandler == nil {
		cfg := config.C().Websocket

		d.wsHandler = ws.NewHandler(
			d.RelayService(ctx),
			ws.Config{
				AllowedOrigins: config.C().CORS.AllowedOrigins(),
				SendBufferSize: cfg.SendBufferSize(),
				ReadLimit:      cfg.ReadLimit(),
				WriteTimeout:   cfg.WriteTimeout(),
				PingInterval:   cfg.PingInterval(),
			},
		)
	}

	return d.wsHandler
}

func (d *di) Router(_ context.Context) *chi.Mux {
	if d.router == nil {
		d.router = chi.NewRouter()
	}

	return d.router
}
