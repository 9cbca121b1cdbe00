package calendarsync

import (
	"sort"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/fx"
)

var Module = fx.Provide(
	NewConfig,
	NewSyncer,
)

// Calendars maps calendar ids to the id of the therapist who owns them
type Calendars map[string]string

// Ids returns the calendar ids in a stable order
func (c Calendars) Ids() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type Config struct {
	Calendars   Calendars     `envconfig:"THERAPYHUB_CALENDAR_THERAPISTS" required:"true"`
	Concurrency int           `envconfig:"THERAPYHUB_SYNC_CALENDAR_CONCURRENCY" default:"1"`
	RunTimeout  time.Duration `envconfig:"THERAPYHUB_SYNC_RUN_TIMEOUT" default:"5m"`
}

func NewConfig() (Config, error) {
	config := Config{}
	err := envconfig.Process("", &config)
	return config, err
}
