package api

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
)

var Module = fx.Provide(
	NewConfig,
	NewHandler,
	NewServer,
)

type Config struct {
	Address string `envconfig:"THERAPYHUB_HTTP_ADDRESS" default:":8080"`
}

func NewConfig() (Config, error) {
	config := Config{}
	err := envconfig.Process("", &config)
	return config, err
}

func NewServer(handler *Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	handler.RegisterRoutes(e)
	return e
}
