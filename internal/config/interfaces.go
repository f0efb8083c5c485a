package config

import (
	"time"

	"github.com/IBM/sarama"
)

type Server interface {
	Host() string
	Port() int
	Address() string
	ReadTimeout() time.Duration
	ShutdownTimeout() time.Duration
	DBReadTimeout() time.Duration
	DBWriteTimeout() time.Duration
}

type Logger interface {
	Level() string
	AsJSON() bool
}

type CORS interface {
	AllowedOrigins() []string
}

type Websocket interface {
	SendBufferSize() int
	ReadLimit() int64
	WriteTimeout() time.Duration
	PingInterval() time.Duration
}

type Database interface {
	DSN() string
	MigrationDirectory() string
}

type Kafka interface {
	Brokers() []string
	OrderStatusTopic() string
	OrderStatusConsumerGroupID() string
	PaymentUpdatesTopic() string
	OrderStatusConsumerConfig() *sarama.Config
	PaymentUpdatesProducerConfig() *sarama.Config
}

type Toyyibpay interface {
	BaseURL() string
	SecretKey() string
	CategoryCode() string
	CallbackURL() string
	ReturnURL() string
	HTTPTimeout() time.Duration
	CallbackSecret() []byte
}
