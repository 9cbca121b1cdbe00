package sessions

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Provide(NewUpserter)

type Upserter interface {
	Upsert(ctx context.Context, session Session) error
}

type upserter struct {
	store  Store
	logger *zap.SugaredLogger
	now    func() time.Time
}

type Params struct {
	fx.In

	Store  Store
	Logger *zap.SugaredLogger
	Now    func() time.Time `optional:"true"`
}

func NewUpserter(p Params) Upserter {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &upserter{
		store:  p.Store,
		logger: p.Logger,
		now:    now,
	}
}

func (u *upserter) Upsert(ctx context.Context, session Session) error {
	write := NewWrite(session, u.now())
	if err := u.store.Apply(ctx, write); err != nil {
		return &PersistenceError{SessionId: session.Id, Err: err}
	}

	u.logger.Debugw("session upserted", "sessionId", session.Id, "patientId", session.PatientId)
	return nil
}
