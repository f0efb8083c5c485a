package envconfig

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type websocketEnv struct {
	SendBufferSize int           `env:"WS_SEND_BUFFER_SIZE" envDefault:"256"`
	ReadLimit      int64         `env:"WS_READ_LIMIT" envDefault:"65536"`
	WriteTimeout   time.Duration `env:"WS_WRITE_TIMEOUT" envDefault:"10s"`
	PingInterval   time.Duration `env:"WS_PING_INTERVAL" envDefault:"30s"`
}

type websocket struct {
	raw websocketEnv
}

func NewWebsocketConfig() (*websocket, error) {
	var raw websocketEnv
	if err := env.Parse(&raw); err != nil {
		return nil, err
	}
	return &websocket{raw: raw}, nil
}

func (cfg *websocket) SendBufferSize() int         { return cfg.raw.SendBufferSize }
func (cfg *websocket) ReadLimit() int64            { return cfg.raw.ReadLimit }
func (cfg *websocket) WriteTimeout() time.Duration { return cfg.raw.WriteTimeout }
func (cfg *websocket) PingInterval() time.Duration { return cfg.raw.PingInterval }
