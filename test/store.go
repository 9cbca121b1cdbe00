package test

import (
	"context"
	"sort"
	"sync"

	"github.com/Pablotechedu/proyecto-final-sub000/patients"
	"github.com/Pablotechedu/proyecto-final-sub000/sessions"
	"github.com/Pablotechedu/proyecto-final-sub000/therapists"
)

// Store is an in-memory replacement of the shared document store
type Store struct {
	Patients   []patients.Patient
	Therapists map[string]therapists.Therapist
	Sessions   map[string]map[string]interface{}

	// ApplyErrors fails writes of the given session ids
	ApplyErrors map[string]error
	Writes      []sessions.Write

	mu sync.Mutex
}

var _ patients.Store = &Store{}
var _ therapists.Store = &Store{}
var _ sessions.Store = &Store{}

func NewStore() *Store {
	return &Store{
		Therapists:  make(map[string]therapists.Therapist),
		Sessions:    make(map[string]map[string]interface{}),
		ApplyErrors: make(map[string]error),
	}
}

func (s *Store) FindByCode(ctx context.Context, code string, limit int) ([]patients.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []patients.Patient
	for _, patient := range s.Patients {
		if patient.PatientCode == code {
			result = append(result, patient)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Id < result[j].Id
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) FindById(ctx context.Context, id string) (*therapists.Therapist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	therapist, ok := s.Therapists[id]
	if !ok {
		return nil, nil
	}
	return &therapist, nil
}

func (s *Store) Apply(ctx context.Context, write sessions.Write) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.ApplyErrors[write.Id]; ok {
		return err
	}

	s.Writes = append(s.Writes, write)
	document, exists := s.Sessions[write.Id]
	if !exists {
		document = make(map[string]interface{})
		for field, value := range write.SetOnInsert {
			document[field] = value
		}
	}
	for field, value := range write.Set {
		document[field] = value
	}
	s.Sessions[write.Id] = document
	return nil
}

func (s *Store) Session(id string) map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.Sessions[id]
}
