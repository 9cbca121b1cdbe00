package runevents

import (
	"context"

	"go.uber.org/zap"

	"github.com/Pablotechedu/proyecto-final-sub000/calendar"
	"github.com/Pablotechedu/proyecto-final-sub000/calendarsync"
)

type publishingSyncer struct {
	delegate  calendarsync.Syncer
	publisher Publisher
	logger    *zap.SugaredLogger
}

// DecorateSyncer publishes an event after every completed run. Publishing
// failures are logged and never change the result of the run.
func DecorateSyncer(syncer calendarsync.Syncer, publisher Publisher, logger *zap.SugaredLogger) calendarsync.Syncer {
	return &publishingSyncer{
		delegate:  syncer,
		publisher: publisher,
		logger:    logger,
	}
}

func (p *publishingSyncer) Sync(ctx context.Context, window calendar.Window) (calendarsync.Summary, error) {
	summary, err := p.delegate.Sync(ctx, window)
	if err != nil {
		return summary, err
	}

	if err := p.publisher.Publish(ctx, summary); err != nil {
		p.logger.Errorw("unable to publish run completed event", zap.Error(err))
	}
	return summary, nil
}
