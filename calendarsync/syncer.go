package calendarsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/Pablotechedu/proyecto-final-sub000/calendar"
	"github.com/Pablotechedu/proyecto-final-sub000/patients"
	"github.com/Pablotechedu/proyecto-final-sub000/sessions"
	"github.com/Pablotechedu/proyecto-final-sub000/therapists"
)

type SkipReason string

const (
	SkipNoPatientCode       SkipReason = "no_patient_code"
	SkipPatientNotFound     SkipReason = "patient_not_found"
	SkipPatientLookupFailed SkipReason = "patient_lookup_failed"
	SkipInvalidEventTime    SkipReason = "invalid_event_time"
	SkipPersistenceError    SkipReason = "persistence_error"

	synced SkipReason = ""
)

type CalendarResult struct {
	CalendarId  string             `json:"calendarId"`
	TherapistId string             `json:"therapistId"`
	Fetched     int                `json:"fetched"`
	Synced      int                `json:"synced"`
	Skipped     int                `json:"skipped"`
	SkipReasons map[SkipReason]int `json:"skipReasons,omitempty"`
	Error       string             `json:"error,omitempty"`
}

type Summary struct {
	TotalSynced  int              `json:"totalSynced"`
	TotalSkipped int              `json:"totalSkipped"`
	Timestamp    time.Time        `json:"timestamp"`
	Window       calendar.Window  `json:"-"`
	Calendars    []CalendarResult `json:"calendars"`
}

// AuthenticationError is returned when the calendar provider rejects the
// credentials. It is the only error that aborts a run.
type AuthenticationError struct {
	Err error
}

func (a *AuthenticationError) Error() string {
	return fmt.Sprintf("unable to authenticate with calendar provider: %v", a.Err)
}

func (a *AuthenticationError) Unwrap() error {
	return a.Err
}

// Syncer reconciles calendar events of every configured calendar into sessions
type Syncer interface {
	Sync(ctx context.Context, window calendar.Window) (Summary, error)
}

type syncer struct {
	calendars   Calendars
	concurrency int
	runTimeout  time.Duration

	provider   calendar.Provider
	patients   patients.Resolver
	therapists therapists.Directory
	sessions   sessions.Upserter
	logger     *zap.SugaredLogger
	now        func() time.Time
}

type Params struct {
	fx.In

	Config     Config
	Provider   calendar.Provider
	Patients   patients.Resolver
	Therapists therapists.Directory
	Sessions   sessions.Upserter
	Logger     *zap.SugaredLogger
	Now        func() time.Time `optional:"true"`
}

func NewSyncer(p Params) Syncer {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &syncer{
		calendars:   p.Config.Calendars,
		concurrency: p.Config.Concurrency,
		runTimeout:  p.Config.RunTimeout,
		provider:    p.Provider,
		patients:    p.Patients,
		therapists:  p.Therapists,
		sessions:    p.Sessions,
		logger:      p.Logger,
		now:         now,
	}
}

func (s *syncer) Sync(ctx context.Context, window calendar.Window) (Summary, error) {
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	s.logger.Infow("starting calendar sync", "window", window.String(), "calendars", len(s.calendars))
	if err := s.provider.Authenticate(ctx); err != nil {
		s.logger.Errorw("unable to authenticate with calendar provider", zap.Error(err))
		return Summary{}, &AuthenticationError{Err: err}
	}

	results := s.syncCalendars(ctx, window)

	summary := Summary{
		Timestamp: s.now(),
		Window:    window,
		Calendars: results,
	}
	for _, result := range results {
		summary.TotalSynced += result.Synced
		summary.TotalSkipped += result.Skipped
	}

	s.logger.Infow("calendar sync completed",
		"window", window.String(),
		"totalSynced", summary.TotalSynced,
		"totalSkipped", summary.TotalSkipped,
	)
	return summary, nil
}

// syncCalendars returns one result per calendar in id order. Calendars are
// independent, a failure in one never cancels the others.
func (s *syncer) syncCalendars(ctx context.Context, window calendar.Window) []CalendarResult {
	ids := s.calendars.Ids()
	results := make([]CalendarResult, len(ids))

	if s.concurrency <= 1 {
		for i, id := range ids {
			results[i] = s.syncCalendar(ctx, id, window)
		}
		return results
	}

	sem := semaphore.NewWeighted(int64(s.concurrency))
	group := errgroup.Group{}
	for i, id := range ids {
		i, id := i, id
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = s.abortedResult(id, err)
			continue
		}
		group.Go(func() error {
			defer sem.Release(1)
			results[i] = s.syncCalendar(ctx, id, window)
			return nil
		})
	}
	_ = group.Wait()

	return results
}

func (s *syncer) syncCalendar(ctx context.Context, calendarId string, window calendar.Window) CalendarResult {
	if err := ctx.Err(); err != nil {
		return s.abortedResult(calendarId, err)
	}

	therapistId := s.calendars[calendarId]
	result := CalendarResult{
		CalendarId:  calendarId,
		TherapistId: therapistId,
		SkipReasons: make(map[SkipReason]int),
	}

	events, err := s.provider.ListEvents(ctx, calendarId, window)
	if err != nil {
		s.logger.Errorw("unable to fetch calendar events", "calendarId", calendarId, zap.Error(err))
		result.Error = err.Error()
		return result
	}
	result.Fetched = len(events)
	if len(events) == 0 {
		return result
	}

	therapist := s.therapists.Lookup(ctx, therapistId)
	for _, event := range events {
		reason := s.syncEvent(ctx, event, therapist)
		if reason == synced {
			result.Synced++
			continue
		}
		result.Skipped++
		result.SkipReasons[reason]++
	}

	s.logger.Infow("calendar synced",
		"calendarId", calendarId,
		"therapistId", therapistId,
		"fetched", result.Fetched,
		"synced", result.Synced,
		"skipped", result.Skipped,
	)
	return result
}

func (s *syncer) syncEvent(ctx context.Context, event calendar.Event, therapist therapists.Therapist) SkipReason {
	code, ok := patients.ExtractCode(event.Description)
	if !ok {
		s.logger.Infow("skipping event without patient code", "calendarId", event.CalendarId, "eventId", event.ExternalId)
		return SkipNoPatientCode
	}

	patient, err := s.patients.Resolve(ctx, code)
	if errors.Is(err, patients.ErrPatientNotFound) {
		s.logger.Warnw("skipping event, no patient matches the code",
			"calendarId", event.CalendarId,
			"eventId", event.ExternalId,
			"patientCode", code,
		)
		return SkipPatientNotFound
	}
	if err != nil {
		s.logger.Errorw("skipping event, unable to resolve patient",
			"calendarId", event.CalendarId,
			"eventId", event.ExternalId,
			"patientCode", code,
			zap.Error(err),
		)
		return SkipPatientLookupFailed
	}

	session, err := sessions.FromEvent(event, *patient, therapist)
	if err != nil {
		s.logger.Warnw("skipping event with invalid time", "calendarId", event.CalendarId, "eventId", event.ExternalId, zap.Error(err))
		return SkipInvalidEventTime
	}

	if err := s.sessions.Upsert(ctx, session); err != nil {
		s.logger.Errorw("skipping event, unable to persist session",
			"calendarId", event.CalendarId,
			"eventId", event.ExternalId,
			"sessionId", session.Id,
			zap.Error(err),
		)
		return SkipPersistenceError
	}
	return synced
}

func (s *syncer) abortedResult(calendarId string, err error) CalendarResult {
	s.logger.Warnw("run deadline reached, skipping calendar", "calendarId", calendarId, zap.Error(err))
	return CalendarResult{
		CalendarId:  calendarId,
		TherapistId: s.calendars[calendarId],
		Error:       err.Error(),
	}
}
