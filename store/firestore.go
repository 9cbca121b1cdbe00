package store

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Pablotechedu/proyecto-final-sub000/patients"
	"github.com/Pablotechedu/proyecto-final-sub000/sessions"
	"github.com/Pablotechedu/proyecto-final-sub000/therapists"
)

type FirestoreBackend struct {
	client *firestore.Client
	logger *zap.SugaredLogger
}

var _ Backend = &FirestoreBackend{}

// NewFirestoreBackend connects to the project's default database. The
// FIRESTORE_EMULATOR_HOST variable is honored by the client library.
func NewFirestoreBackend(p Params) (*FirestoreBackend, error) {
	projectId := p.Config.FirestoreProjectId
	if projectId == "" {
		projectId = firestore.DetectProjectID
	}

	var opts []option.ClientOption
	if p.Config.FirestoreCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(p.Config.FirestoreCredentialsFile))
	}

	client, err := firestore.NewClient(context.Background(), projectId, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create firestore client: %w", err)
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return NewFirestoreBackendWithClient(client, p.Logger), nil
}

func NewFirestoreBackendWithClient(client *firestore.Client, logger *zap.SugaredLogger) *FirestoreBackend {
	return &FirestoreBackend{
		client: client,
		logger: logger,
	}
}

func (f *FirestoreBackend) FindByCode(ctx context.Context, code string, limit int) ([]patients.Patient, error) {
	docs, err := f.client.Collection(PatientsCollection).
		Where("patientCode", "==", code).
		OrderBy(firestore.DocumentID, firestore.Asc).
		Limit(limit).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, err
	}

	result := make([]patients.Patient, 0, len(docs))
	for _, doc := range docs {
		patient := patients.Patient{}
		if err := doc.DataTo(&patient); err != nil {
			return nil, fmt.Errorf("unable to decode patient %v: %w", doc.Ref.ID, err)
		}
		patient.Id = doc.Ref.ID
		result = append(result, patient)
	}
	return result, nil
}

func (f *FirestoreBackend) FindById(ctx context.Context, id string) (*therapists.Therapist, error) {
	doc, err := f.client.Collection(UsersCollection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	therapist := &therapists.Therapist{}
	if err := doc.DataTo(therapist); err != nil {
		return nil, fmt.Errorf("unable to decode therapist %v: %w", id, err)
	}
	therapist.Id = doc.Ref.ID
	return therapist, nil
}

// Apply creates the document with all fields, or merges the fields owned by
// the write into the existing document.
func (f *FirestoreBackend) Apply(ctx context.Context, write sessions.Write) error {
	if write.Id == "" {
		return errors.New("session id is required")
	}
	ref := f.client.Collection(SessionsCollection).Doc(write.Id)

	document := make(map[string]interface{}, len(write.Set)+len(write.SetOnInsert))
	for field, value := range write.SetOnInsert {
		document[field] = value
	}
	for field, value := range write.Set {
		document[field] = value
	}

	_, err := ref.Create(ctx, document)
	if err == nil {
		return nil
	}
	if status.Code(err) != codes.AlreadyExists {
		return err
	}

	_, err = ref.Set(ctx, write.Set, firestore.MergeAll)
	return err
}
