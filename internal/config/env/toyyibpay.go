package envconfig

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type toyyibpayEnv struct {
	BaseURL      string `env:"TOYYIBPAY_BASE_URL,required"`
	SecretKey    string `env:"TOYYIBPAY_SECRET_KEY,required"`
	CategoryCode string `env:"TOYYIBPAY_CATEGORY_CODE,required"`
	CallbackURL  string `env:"TOYYIBPAY_CALLBACK_URL,required"`
	ReturnURL    string `env:"TOYYIBPAY_RETURN_URL,required"`

	HTTPTimeout time.Duration `env:"TOYYIBPAY_HTTP_TIMEOUT" envDefault:"15s"`

	// Empty disables callback signature verification.
	CallbackSecret string `env:"TOYYIBPAY_CALLBACK_SECRET"`
}

type toyyibpay struct {
	raw toyyibpayEnv
}

func NewToyyibpayConfig() (*toyyibpay, error) {
	var raw toyyibpayEnv
	if err := env.Parse(&raw); err != nil {
		return nil, err
	}
	return &toyyibpay{raw: raw}, nil
}

func (cfg *toyyibpay) BaseURL() string            { return cfg.raw.BaseURL }
func (cfg *toyyibpay) SecretKey() string          { return cfg.raw.SecretKey }
func (cfg *toyyibpay) CategoryCode() string       { return cfg.raw.CategoryCode }
func (cfg *toyyibpay) CallbackURL() string        { return cfg.raw.CallbackURL }
func (cfg *toyyibpay) ReturnURL() string          { return cfg.raw.ReturnURL }
func (cfg *toyyibpay) HTTPTimeout() time.Duration { return cfg.raw.HTTPTimeout }
func (cfg *toyyibpay) CallbackSecret() []byte     { return []byte(cfg.raw.CallbackSecret) }
