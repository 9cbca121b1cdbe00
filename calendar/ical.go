package calendar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/go-resty/resty/v2"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

const (
	icalStatusCancelled = "CANCELLED"
	recurrenceIdLayout  = "20060102T150405Z"
	feedSeparator       = ";"
	feedKeyValSeparator = "="
)

// Feeds maps calendar ids to published iCalendar feed urls. It is decoded
// from "calendarId=url;calendarId=url" because urls contain colons.
type Feeds map[string]string

func (f *Feeds) Decode(value string) error {
	feeds := Feeds{}
	for _, pair := range strings.Split(value, feedSeparator) {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, feedKeyValSeparator, 2)
		if len(kv) != 2 || kv[0] == "" || kv[1] == "" {
			return fmt.Errorf("invalid ical feed %q", pair)
		}
		feeds[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	*f = feeds
	return nil
}

type ICalConfig struct {
	Feeds Feeds `envconfig:"THERAPYHUB_ICAL_FEEDS"`
}

// ICalProvider reads events from published iCalendar feeds. Recurring events
// are expanded into one instance per occurrence inside the window.
type ICalProvider struct {
	feeds       Feeds
	restyClient *resty.Client
	limiter     ratelimit.Limiter
	location    *time.Location
	logger      *zap.SugaredLogger
}

var _ Provider = &ICalProvider{}

func NewICalProvider(config ICalConfig, moduleConfig ModuleConfig, location *time.Location, logger *zap.SugaredLogger) *ICalProvider {
	limiter := ratelimit.NewUnlimited()
	if moduleConfig.RequestsPerSecond > 0 {
		limiter = ratelimit.New(moduleConfig.RequestsPerSecond)
	}
	return &ICalProvider{
		feeds:       config.Feeds,
		restyClient: resty.New().SetTimeout(moduleConfig.Timeout),
		limiter:     limiter,
		location:    location,
		logger:      logger,
	}
}

// Authenticate only validates the configuration, feeds are public or carry
// their secret in the url.
func (i *ICalProvider) Authenticate(ctx context.Context) error {
	if len(i.feeds) == 0 {
		return errors.New("no ical feeds are configured")
	}
	return nil
}

func (i *ICalProvider) ListEvents(ctx context.Context, calendarId string, window Window) ([]Event, error) {
	url, ok := i.feeds[calendarId]
	if !ok {
		return nil, fmt.Errorf("no ical feed is configured for calendar %v", calendarId)
	}

	i.limiter.Take()

	resp, err := i.restyClient.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("error fetching ical feed of calendar %v: %w", calendarId, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("error fetching ical feed of calendar %v: unexpected status %v", calendarId, resp.StatusCode())
	}

	return i.ParseFeed(calendarId, resp.Body(), window)
}

// ParseFeed decodes an iCalendar document and returns the events overlapping
// the window ordered by start time. Overrides of recurring events (VEVENTs
// with a RECURRENCE-ID) replace the occurrence they were cut from, or remove
// it when they are cancelled.
func (i *ICalProvider) ParseFeed(calendarId string, body []byte, window Window) ([]Event, error) {
	decoder := ical.NewDecoder(bytes.NewReader(body))

	var events []Event
	for {
		cal, err := decoder.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("unable to decode ical feed of calendar %v: %w", calendarId, err)
		}

		vevents := cal.Events()
		overrides := make(map[string]ical.Event)
		for _, ev := range vevents {
			normalizeTimezones(ev.Component)
			if !isOverride(ev) {
				continue
			}
			id, err := i.overrideId(ev)
			if err != nil {
				i.logger.Warnw("unable to parse ical event override", "calendarId", calendarId, zap.Error(err))
				continue
			}
			overrides[id] = ev
		}

		for _, ev := range vevents {
			if isOverride(ev) || isCancelled(ev) {
				continue
			}
			instances, err := i.expand(calendarId, ev, window, overrides)
			if err != nil {
				i.logger.Warnw("unable to parse ical event", "calendarId", calendarId, zap.Error(err))
				continue
			}
			events = append(events, instances...)
		}

		for id, ev := range overrides {
			if isCancelled(ev) {
				continue
			}
			event, err := i.newEvent(calendarId, ev)
			if err != nil {
				i.logger.Warnw("unable to parse ical event override", "calendarId", calendarId, zap.Error(err))
				continue
			}
			event.ExternalId = id
			if window.Overlaps(event.StartAt, event.EndAt) {
				events = append(events, event)
			}
		}
	}

	sort.SliceStable(events, func(a, b int) bool {
		if events[a].StartAt.Equal(events[b].StartAt) {
			return events[a].ExternalId < events[b].ExternalId
		}
		return events[a].StartAt.Before(events[b].StartAt)
	})
	return events, nil
}

func (i *ICalProvider) newEvent(calendarId string, ev ical.Event) (Event, error) {
	event := Event{
		ExternalId:  propText(ev.Component, ical.PropUID),
		CalendarId:  calendarId,
		Title:       propText(ev.Component, ical.PropSummary),
		Description: propText(ev.Component, ical.PropDescription),
		Location:    propText(ev.Component, ical.PropLocation),
	}
	if event.ExternalId == "" {
		return event, errors.New("event has no uid")
	}

	start, err := ev.DateTimeStart(i.location)
	if err != nil {
		return event, fmt.Errorf("invalid start of event %v: %w", event.ExternalId, err)
	}
	end, err := ev.DateTimeEnd(i.location)
	if err != nil {
		return event, fmt.Errorf("invalid end of event %v: %w", event.ExternalId, err)
	}

	if dtStart := ev.Props.Get(ical.PropDateTimeStart); dtStart != nil && dtStart.ValueType() == ical.ValueDate {
		event.AllDay = true
	}
	if end.IsZero() {
		end = start
		if event.AllDay {
			end = start.AddDate(0, 0, 1)
		}
	}
	event.StartAt = start
	event.EndAt = end
	return event, nil
}

func (i *ICalProvider) expand(calendarId string, ev ical.Event, window Window, overrides map[string]ical.Event) ([]Event, error) {
	base, err := i.newEvent(calendarId, ev)
	if err != nil {
		return nil, err
	}

	recurrence, err := ev.RecurrenceSet(i.location)
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence of event %v: %w", base.ExternalId, err)
	}
	if recurrence == nil {
		if !window.Overlaps(base.StartAt, base.EndAt) {
			return nil, nil
		}
		return []Event{base}, nil
	}

	duration := base.EndAt.Sub(base.StartAt)
	// Occurrences starting before the window may still overlap it
	occurrences := recurrence.Between(window.Start.Add(-duration), window.End, true)

	instances := make([]Event, 0, len(occurrences))
	for _, occurrence := range occurrences {
		instance := base
		instance.ExternalId = instanceId(base.ExternalId, occurrence)
		if _, ok := overrides[instance.ExternalId]; ok {
			continue
		}
		instance.StartAt = occurrence
		instance.EndAt = occurrence.Add(duration)
		if window.Overlaps(instance.StartAt, instance.EndAt) {
			instances = append(instances, instance)
		}
	}
	return instances, nil
}

// overrideId is the id of the occurrence an override replaces
func (i *ICalProvider) overrideId(ev ical.Event) (string, error) {
	uid := propText(ev.Component, ical.PropUID)
	if uid == "" {
		return "", errors.New("event override has no uid")
	}
	recurrenceId, err := ev.Props.DateTime(ical.PropRecurrenceID, i.location)
	if err != nil {
		return "", fmt.Errorf("invalid recurrence id of event %v: %w", uid, err)
	}
	return instanceId(uid, recurrenceId), nil
}

func instanceId(uid string, occurrence time.Time) string {
	return fmt.Sprintf("%s_%s", uid, occurrence.UTC().Format(recurrenceIdLayout))
}

func isOverride(ev ical.Event) bool {
	return ev.Props.Get(ical.PropRecurrenceID) != nil
}

func isCancelled(ev ical.Event) bool {
	status := ev.Props.Get(ical.PropStatus)
	return status != nil && strings.EqualFold(status.Value, icalStatusCancelled)
}

func propText(comp *ical.Component, name string) string {
	prop := comp.Props.Get(name)
	if prop == nil {
		return ""
	}
	if text, err := prop.Text(); err == nil {
		return text
	}
	return prop.Value
}
