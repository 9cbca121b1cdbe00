package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Pablotechedu/proyecto-final-sub000/calendar"
	"github.com/Pablotechedu/proyecto-final-sub000/calendarsync"
)

type SyncResponse struct {
	Success      bool                          `json:"success"`
	TotalSynced  int                           `json:"totalSynced"`
	TotalSkipped int                           `json:"totalSkipped"`
	Timestamp    time.Time                     `json:"timestamp"`
	Calendars    []calendarsync.CalendarResult `json:"calendars,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type Handler struct {
	syncer   calendarsync.Syncer
	location *time.Location
	logger   *zap.SugaredLogger
	now      func() time.Time
}

type Params struct {
	fx.In

	Syncer   calendarsync.Syncer
	Location *time.Location
	Logger   *zap.SugaredLogger
	Now      func() time.Time `optional:"true"`
}

func NewHandler(p Params) *Handler {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{
		syncer:   p.Syncer,
		location: p.Location,
		logger:   p.Logger,
		now:      now,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/status", h.Status)
	e.GET("/sync", h.Sync)
	e.POST("/sync", h.Sync)
}

func (h *Handler) Status(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// Sync runs a synchronization for the optional startDate and endDate query
// parameters, defaulting to the current month. Partial failures are reported
// through the skip counts with a 200 status.
func (h *Handler) Sync(c echo.Context) error {
	window, err := calendar.ParseWindow(c.QueryParam("startDate"), c.QueryParam("endDate"), h.now(), h.location)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	// The run completes even if the client goes away, the syncer applies its own run timeout
	summary, err := h.syncer.Sync(context.WithoutCancel(c.Request().Context()), window)
	if err != nil {
		h.logger.Errorw("calendar sync failed", "window", window.String(), zap.Error(err))

		var authErr *calendarsync.AuthenticationError
		message := "calendar sync failed"
		if errors.As(err, &authErr) {
			message = authErr.Error()
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: message})
	}

	return c.JSON(http.StatusOK, SyncResponse{
		Success:      true,
		TotalSynced:  summary.TotalSynced,
		TotalSkipped: summary.TotalSkipped,
		Timestamp:    summary.Timestamp,
		Calendars:    summary.Calendars,
	})
}
