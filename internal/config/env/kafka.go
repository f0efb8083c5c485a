package envconfig

import (
	"github.com/IBM/sarama"
	"github.com/caarlos0/env/v11"
)

type kafkaEnv struct {
	Brokers                    []string `env:"KAFKA_BROKERS,required"`
	OrderStatusTopicName       string   `env:"ORDER_STATUS_TOPIC_NAME,required"`
	OrderStatusConsumerGroupID string   `env:"ORDER_STATUS_CONSUMER_GROUP_ID,required"`
	PaymentUpdatesTopicName    string   `env:"PAYMENT_UPDATES_TOPIC_NAME,required"`
}

type kafka struct {
	raw kafkaEnv
}

func NewKafkaConfig() (*kafka, error) {
	var raw kafkaEnv
	if err := env.Parse(&raw); err != nil {
		return nil, err
	}
	return &kafka{raw: raw}, nil
}

func (cfg *kafka) Brokers() []string                  { return cfg.raw.Brokers }
func (cfg *kafka) OrderStatusTopic() string           { return cfg.raw.OrderStatusTopicName }
func (cfg *kafka) OrderStatusConsumerGroupID() string { return cfg.raw.OrderStatusConsumerGroupID }
func (cfg *kafka) PaymentUpdatesTopic() string        { return cfg.raw.PaymentUpdatesTopicName }

func (cfg *kafka) OrderStatusConsumerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Version = sarama.V4_0_0_0
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	return config
}

func (cfg *kafka) PaymentUpdatesProducerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Version = sarama.V4_0_0_0
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Return.Successes = true

	return config
}
