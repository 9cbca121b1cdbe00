package test

import (
	"context"
	"sync"

	"github.com/Pablotechedu/proyecto-final-sub000/calendar"
	"github.com/Pablotechedu/proyecto-final-sub000/calendarsync"
)

// Syncer records requested windows and returns a canned result
type Syncer struct {
	Summary calendarsync.Summary
	Err     error
	Windows []calendar.Window
	// ContextErrors holds ctx.Err() as seen by each call
	ContextErrors []error

	mu sync.Mutex
}

var _ calendarsync.Syncer = &Syncer{}

func (s *Syncer) Sync(ctx context.Context, window calendar.Window) (calendarsync.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Windows = append(s.Windows, window)
	s.ContextErrors = append(s.ContextErrors, ctx.Err())
	if s.Err != nil {
		return calendarsync.Summary{}, s.Err
	}
	summary := s.Summary
	summary.Window = window
	return summary, nil
}

func (s *Syncer) Calls() []calendar.Window {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]calendar.Window(nil), s.Windows...)
}
