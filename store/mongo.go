package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/avast/retry-go"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Pablotechedu/proyecto-final-sub000/patients"
	"github.com/Pablotechedu/proyecto-final-sub000/sessions"
	"github.com/Pablotechedu/proyecto-final-sub000/therapists"
)

type MongoBackend struct {
	database *mongo.Database
	logger   *zap.SugaredLogger
}

var _ Backend = &MongoBackend{}

func NewMongoBackend(p Params) (*MongoBackend, error) {
	client, err := mongo.NewClient(options.Client().ApplyURI(p.Config.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("unable to create mongo client: %w", err)
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Connect(ctx); err != nil {
				return fmt.Errorf("unable to connect to mongo: %w", err)
			}
			return retry.Do(
				func() error { return client.Ping(ctx, readpref.Primary()) },
				retry.Attempts(p.Config.ConnectAttempts),
				retry.Delay(p.Config.ConnectDelay),
				retry.DelayType(retry.FixedDelay),
				retry.Context(ctx),
				retry.OnRetry(func(n uint, err error) {
					p.Logger.Warnw("unable to ping mongo", "attempt", n+1, zap.Error(err))
				}),
			)
		},
		OnStop: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	})

	return NewMongoBackendWithDatabase(client.Database(p.Config.MongoDatabase), p.Logger), nil
}

func NewMongoBackendWithDatabase(database *mongo.Database, logger *zap.SugaredLogger) *MongoBackend {
	return &MongoBackend{
		database: database,
		logger:   logger,
	}
}

func (m *MongoBackend) FindByCode(ctx context.Context, code string, limit int) ([]patients.Patient, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := m.database.Collection(PatientsCollection).Find(ctx, bson.M{"patientCode": code}, opts)
	if err != nil {
		return nil, err
	}

	result := make([]patients.Patient, 0, limit)
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("unable to decode patients: %w", err)
	}
	return result, nil
}

func (m *MongoBackend) FindById(ctx context.Context, id string) (*therapists.Therapist, error) {
	therapist := &therapists.Therapist{}
	err := m.database.Collection(UsersCollection).FindOne(ctx, bson.M{"_id": id}).Decode(therapist)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return therapist, nil
}

func (m *MongoBackend) Apply(ctx context.Context, write sessions.Write) error {
	if write.Id == "" {
		return errors.New("session id is required")
	}

	update := bson.M{
		"$set":         write.Set,
		"$setOnInsert": write.SetOnInsert,
	}
	_, err := m.database.Collection(SessionsCollection).
		UpdateOne(ctx, bson.M{"_id": write.Id}, update, options.Update().SetUpsert(true))
	return err
}
