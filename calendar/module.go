package calendar

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	ProviderGoogle = "google"
	ProviderICal   = "ical"
)

var Module = fx.Provide(
	NewConfig,
	NewProvider,
)

type ModuleConfig struct {
	Provider          string        `envconfig:"THERAPYHUB_CALENDAR_PROVIDER" default:"google"`
	RequestsPerSecond int           `envconfig:"THERAPYHUB_CALENDAR_REQUESTS_PER_SECOND" default:"5"`
	Timeout           time.Duration `envconfig:"THERAPYHUB_CALENDAR_TIMEOUT" default:"30s"`
}

func NewConfig() (ModuleConfig, error) {
	config := ModuleConfig{}
	err := envconfig.Process("", &config)
	return config, err
}

type Params struct {
	fx.In

	Config   ModuleConfig
	Location *time.Location
	Logger   *zap.SugaredLogger
}

func NewProvider(p Params) (Provider, error) {
	switch p.Config.Provider {
	case ProviderGoogle:
		config := GoogleConfig{}
		if err := envconfig.Process("", &config); err != nil {
			return nil, err
		}
		return NewGoogleProvider(config, p.Config, p.Location, p.Logger)
	case ProviderICal:
		config := ICalConfig{}
		if err := envconfig.Process("", &config); err != nil {
			return nil, err
		}
		return NewICalProvider(config, p.Config, p.Location, p.Logger), nil
	default:
		return nil, fmt.Errorf("unsupported calendar provider %q", p.Config.Provider)
	}
}
