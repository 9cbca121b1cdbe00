package worker

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func startHTTPServer(components Components) {
	components.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				components.Logger.Infow("starting http server", "address", components.ApiConfig.Address)
				if err := components.Server.Start(components.ApiConfig.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
					components.Logger.Errorw("http listen and serve error", zap.Error(err))
					_ = components.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return components.Server.Shutdown(ctx)
		},
	})
}
