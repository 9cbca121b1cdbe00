package runevents

import (
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(
		NewConfig,
		NewPublisher,
	),
	fx.Decorate(DecorateSyncer),
)

type Config struct {
	Enabled      bool     `envconfig:"THERAPYHUB_RUN_EVENTS_ENABLED" default:"false"`
	KafkaBrokers []string `envconfig:"THERAPYHUB_KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"THERAPYHUB_KAFKA_TOPIC" default:"therapyhub.calendar-sync-runs"`
	KafkaVersion string   `envconfig:"THERAPYHUB_KAFKA_VERSION" default:"2.6.0"`
}

func NewConfig() (Config, error) {
	config := Config{}
	err := envconfig.Process("", &config)
	return config, err
}
