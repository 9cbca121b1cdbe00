package therapists

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

//go:generate mockgen --build_flags=--mod=mod -source=./therapists.go -destination=./therapists_mock.go -package therapists Store

const (
	defaultTherapistName = "Unknown Therapist"
)

var Module = fx.Provide(NewDirectory)

type Therapist struct {
	Id   string `json:"id" bson:"_id" firestore:"-"`
	Name string `json:"name" bson:"name" firestore:"name"`
}

// Store reads therapists from the users collection
type Store interface {
	// FindById returns nil when the therapist does not exist
	FindById(ctx context.Context, id string) (*Therapist, error)
}

// Directory resolves display names for therapists. It never fails, missing
// records are reported with a placeholder name.
type Directory interface {
	Lookup(ctx context.Context, id string) Therapist
}

type directory struct {
	store  Store
	logger *zap.SugaredLogger
}

type Params struct {
	fx.In

	Store  Store
	Logger *zap.SugaredLogger
}

func NewDirectory(p Params) Directory {
	return &directory{
		store:  p.Store,
		logger: p.Logger,
	}
}

func (d *directory) Lookup(ctx context.Context, id string) Therapist {
	therapist := Therapist{
		Id:   id,
		Name: defaultTherapistName,
	}

	record, err := d.store.FindById(ctx, id)
	if err != nil {
		d.logger.Warnw("unable to fetch therapist", "therapistId", id, zap.Error(err))
		return therapist
	}
	if record == nil {
		d.logger.Infow("therapist not found, using placeholder name", "therapistId", id)
		return therapist
	}
	if record.Name != "" {
		therapist.Name = record.Name
	}
	return therapist
}
