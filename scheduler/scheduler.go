package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Pablotechedu/proyecto-final-sub000/calendar"
	"github.com/Pablotechedu/proyecto-final-sub000/calendarsync"
)

var Module = fx.Provide(
	NewConfig,
	NewScheduler,
)

type Config struct {
	Enabled  bool   `envconfig:"THERAPYHUB_SCHEDULER_ENABLED" default:"true"`
	Schedule string `envconfig:"THERAPYHUB_SCHEDULER_SCHEDULE" default:"0 6,12,18 * * *"`
}

func NewConfig() (Config, error) {
	config := Config{}
	err := envconfig.Process("", &config)
	return config, err
}

// Scheduler synchronizes the current local day on a cron schedule
type Scheduler struct {
	config   Config
	cron     *cron.Cron
	syncer   calendarsync.Syncer
	location *time.Location
	logger   *zap.SugaredLogger
	now      func() time.Time
}

type Params struct {
	fx.In

	Config   Config
	Syncer   calendarsync.Syncer
	Location *time.Location
	Logger   *zap.SugaredLogger
	Now      func() time.Time `optional:"true"`
}

func NewScheduler(p Params) (*Scheduler, error) {
	now := p.Now
	if now == nil {
		now = time.Now
	}

	cronLogger := &CronLoggerAdapter{SugaredLogger: p.Logger}
	s := &Scheduler{
		config:   p.Config,
		syncer:   p.Syncer,
		location: p.Location,
		logger:   p.Logger,
		now:      now,
		cron: cron.New(
			cron.WithLocation(p.Location),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger)),
		),
	}

	if p.Config.Enabled {
		if _, err := s.cron.AddFunc(p.Config.Schedule, s.run); err != nil {
			return nil, fmt.Errorf("invalid sync schedule %q: %w", p.Config.Schedule, err)
		}
	}
	return s, nil
}

// RunNow synchronizes the current local day
func (s *Scheduler) RunNow(ctx context.Context) (calendarsync.Summary, error) {
	window := calendar.DayWindow(s.now(), s.location)
	return s.syncer.Sync(ctx, window)
}

// Next returns the time of the next scheduled run, zero when disabled
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Schedule.Next(s.now().In(s.location))
}

func (s *Scheduler) Start() {
	if !s.config.Enabled {
		s.logger.Infow("scheduler is disabled")
		return
	}
	s.cron.Start()
	s.logger.Infow("scheduler started", "schedule", s.config.Schedule, "next", s.Next())
}

func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run() {
	summary, err := s.RunNow(context.Background())
	if err != nil {
		s.logger.Errorw("scheduled calendar sync failed", zap.Error(err))
		return
	}
	s.logger.Infow("scheduled calendar sync finished",
		"totalSynced", summary.TotalSynced,
		"totalSkipped", summary.TotalSkipped,
	)
}
