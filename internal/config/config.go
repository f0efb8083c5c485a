package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	envconfig "github.com/swaggyasy/tff-socket-server/internal/config/env"
)

var cfg *config

type config struct {
	Server    Server
	Logger    Logger
	CORS      CORS
	Websocket Websocket
	Database  Database
	Kafka     Kafka
	Toyyibpay Toyyibpay
}

func Load(path ...string) error {
	const op = "config.Load"

	if shouldLoadDotenv() {
		if err := godotenv.Load(path...); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: load .env: %w", op, err)
		}
	}

	serverCfg, err := envconfig.NewHTTPServerConfig()
	if err != nil {
		return fmt.Errorf("%s Server: %w", op, err)
	}

	loggerCfg, err := envconfig.NewLoggerConfig()
	if err != nil {
		return fmt.Errorf("%s Logger: %w", op, err)
	}

	corsCfg, err := envconfig.NewCORSConfig()
	if err != nil {
		return fmt.Errorf("%s CORS: %w", op, err)
	}

	websocketCfg, err := envconfig.NewWebsocketConfig()
	if err != nil {
		return fmt.Errorf("%s Websocket: %w", op, err)
	}

	postgresCfg, err := envconfig.NewPostgresConfig()
	if err != nil {
		return fmt.Errorf("%s Database: %w", op, err)
	}

	kafkaCfg, err := envconfig.NewKafkaConfig()
	if err != nil {
		return fmt.Errorf("%s Kafka: %w", op, err)
	}

	toyyibpayCfg, err := envconfig.NewToyyibpayConfig()
	if err != nil {
		return fmt.Errorf("%s Toyyibpay: %w", op, err)
	}

	cfg = &config{
		Server:    serverCfg,
		Logger:    loggerCfg,
		CORS:      corsCfg,
		Websocket: websocketCfg,
		Database:  postgresCfg,
		Kafka:     kafkaCfg,
		Toyyibpay: toyyibpayCfg,
	}

	return nil
}

func C() *config { return cfg }

func shouldLoadDotenv() bool {
	return os.Getenv("APP_ENV") == "local"
}
