package worker

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	LogLevel string `envconfig:"THERAPYHUB_LOG_LEVEL" default:"debug"`
	// IANA name of the practice's time zone, used for day and month windows
	// and for all day events
	Timezone string `envconfig:"THERAPYHUB_TIMEZONE" default:"Local"`
}

func configProvider() (Config, error) {
	cfg := Config{}
	err := envconfig.Process("", &cfg)
	return cfg, err
}

func locationProvider(config Config) (*time.Location, error) {
	return time.LoadLocation(config.Timezone)
}
