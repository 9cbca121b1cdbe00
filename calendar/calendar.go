package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"
)

//go:generate mockgen --build_flags=--mod=mod -source=./calendar.go -destination=./calendar_mock.go -package calendar Provider

const (
	dateLayout = "2006-01-02"
)

var ErrInvalidDate = errors.New("invalid date")

// Event is a read-only view of a calendar entry as returned by a provider.
type Event struct {
	ExternalId  string
	CalendarId  string
	Title       string
	Description string
	Location    string
	StartAt     time.Time
	EndAt       time.Time
	AllDay      bool
}

// Provider lists events from external calendars. Authenticate must succeed
// before any calendar can be listed.
type Provider interface {
	Authenticate(ctx context.Context) error
	ListEvents(ctx context.Context, calendarId string, window Window) ([]Event, error)
}

// Window is a query range. Both ends are inclusive of events overlapping it.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Overlaps(start, end time.Time) bool {
	return !end.Before(w.Start) && !start.After(w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("%s/%s", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

func DayWindow(now time.Time, loc *time.Location) Window {
	now = now.In(loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	return Window{
		Start: start,
		End:   endOfDay(start),
	}
}

func MonthWindow(now time.Time, loc *time.Location) Window {
	now = now.In(loc)
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	last := start.AddDate(0, 1, -1)
	return Window{
		Start: start,
		End:   endOfDay(last),
	}
}

// ParseWindow builds a window from optional start and end values. Missing values
// fall back to the bounds of the current month. Date-only end values cover the
// whole day.
func ParseWindow(startValue, endValue string, now time.Time, loc *time.Location) (Window, error) {
	window := MonthWindow(now, loc)
	if startValue != "" {
		start, _, err := parseTime(startValue, loc)
		if err != nil {
			return Window{}, fmt.Errorf("startDate: %w", err)
		}
		window.Start = start
	}
	if endValue != "" {
		end, dateOnly, err := parseTime(endValue, loc)
		if err != nil {
			return Window{}, fmt.Errorf("endDate: %w", err)
		}
		if dateOnly {
			end = endOfDay(end)
		}
		window.End = end
	}
	if window.End.Before(window.Start) {
		return Window{}, fmt.Errorf("%w: endDate %q is before startDate %q", ErrInvalidDate, endValue, startValue)
	}
	return window, nil
}

func parseTime(value string, loc *time.Location) (time.Time, bool, error) {
	if t, err := time.ParseInLocation(dateLayout, value, loc); err == nil {
		return t, true, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, false, nil
	}
	return time.Time{}, false, fmt.Errorf("%w: %q", ErrInvalidDate, value)
}

func endOfDay(day time.Time) time.Time {
	return day.AddDate(0, 0, 1).Add(-time.Millisecond)
}
