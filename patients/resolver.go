package patients

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// Codes are unique, a second candidate is only fetched to detect data errors
	candidatesLimit = 2
)

var Module = fx.Provide(NewResolver)

type Resolver interface {
	Resolve(ctx context.Context, code string) (*Patient, error)
}

type resolver struct {
	store  Store
	logger *zap.SugaredLogger
}

type Params struct {
	fx.In

	Store  Store
	Logger *zap.SugaredLogger
}

func NewResolver(p Params) Resolver {
	return &resolver{
		store:  p.Store,
		logger: p.Logger,
	}
}

func (r *resolver) Resolve(ctx context.Context, code string) (*Patient, error) {
	candidates, err := r.store.FindByCode(ctx, code, candidatesLimit)
	if err != nil {
		return nil, fmt.Errorf("unable to find patient by code %v: %w", code, err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrPatientNotFound, code)
	}
	if len(candidates) > 1 {
		r.logger.Warnw("multiple patients share the same code, using the first one",
			"patientCode", code,
			"patientId", candidates[0].Id,
			"duplicateId", candidates[1].Id,
		)
	}

	patient := candidates[0]
	return &patient, nil
}
