package worker

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Pablotechedu/proyecto-final-sub000/api"
	"github.com/Pablotechedu/proyecto-final-sub000/calendar"
	"github.com/Pablotechedu/proyecto-final-sub000/calendarsync"
	"github.com/Pablotechedu/proyecto-final-sub000/patients"
	"github.com/Pablotechedu/proyecto-final-sub000/runevents"
	"github.com/Pablotechedu/proyecto-final-sub000/scheduler"
	"github.com/Pablotechedu/proyecto-final-sub000/sessions"
	"github.com/Pablotechedu/proyecto-final-sub000/store"
	"github.com/Pablotechedu/proyecto-final-sub000/therapists"
)

var dependencies = fx.Provide(
	configProvider,
	loggerProvider,
	locationProvider,
)

var Modules = []fx.Option{
	dependencies,
	calendar.Module,
	store.Module,
	patients.Module,
	therapists.Module,
	sessions.Module,
	calendarsync.Module,
	runevents.Module,
	scheduler.Module,
	api.Module,
}

// New returns the long running worker serving the http trigger and the scheduler
func New() *fx.App {
	invokes := fx.Invoke(
		startHTTPServer,
		startScheduler,
	)
	return fx.New(append(Modules, invokes)...)
}

type Components struct {
	fx.In

	ApiConfig  api.Config
	Server     *echo.Echo
	Scheduler  *scheduler.Scheduler
	Syncer     calendarsync.Syncer
	Logger     *zap.SugaredLogger
	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
}

func startScheduler(components Components) {
	components.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			components.Scheduler.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return components.Scheduler.Stop(ctx)
		},
	})
}

// RunOnce synchronizes a single window without starting the servers. Empty
// dates default to the current month.
func RunOnce(ctx context.Context, startDate, endDate string) (calendarsync.Summary, error) {
	var syncer calendarsync.Syncer
	var location *time.Location
	var logger *zap.SugaredLogger

	opts := append([]fx.Option{}, Modules...)
	opts = append(opts, fx.Populate(&syncer, &location, &logger), fx.NopLogger)
	app := fx.New(opts...)
	if err := app.Err(); err != nil {
		return calendarsync.Summary{}, err
	}

	window, err := calendar.ParseWindow(startDate, endDate, time.Now(), location)
	if err != nil {
		return calendarsync.Summary{}, err
	}

	if err := app.Start(ctx); err != nil {
		return calendarsync.Summary{}, err
	}
	defer func() {
		if err := app.Stop(context.Background()); err != nil {
			logger.Warnw("unable to stop worker", zap.Error(err))
		}
	}()

	return syncer.Sync(ctx, window)
}
