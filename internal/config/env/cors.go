package envconfig

import "github.com/caarlos0/env/v11"

type corsEnv struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS,required"`
}

type cors struct {
	raw corsEnv
}

func NewCORSConfig() (*cors, error) {
	var raw corsEnv
	if err := env.Parse(&raw); err != nil {
		return nil, err
	}
	return &cors{raw: raw}, nil
}

func (cfg *cors) AllowedOrigins() []string { return cfg.raw.AllowedOrigins }
