package patients

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

//go:generate mockgen --build_flags=--mod=mod -source=./patients.go -destination=./patients_mock.go -package patients Store

var ErrPatientNotFound = errors.New("patient not found")

// ASCII letters, an underscore, ASCII letters and at least two digits,
// e.g. Alexia_Urcuyo01. Codes are assigned without accents.
var codePattern = regexp.MustCompile(`[A-Za-z]+_[A-Za-z]+[0-9]{2,}`)

type Patient struct {
	Id          string `json:"id" bson:"_id" firestore:"-"`
	PatientCode string `json:"patientCode" bson:"patientCode" firestore:"patientCode"`
	FirstName   string `json:"firstName" bson:"firstName" firestore:"firstName"`
	LastName    string `json:"lastName" bson:"lastName" firestore:"lastName"`
}

func (p Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Store is the read-only patient collection shared with the rest of the application
type Store interface {
	// FindByCode returns at most limit patients with the exact code, ordered by id
	FindByCode(ctx context.Context, code string, limit int) ([]Patient, error)
}

// ExtractCode returns the leftmost patient code found in the description
func ExtractCode(description string) (string, bool) {
	if description == "" {
		return "", false
	}
	code := codePattern.FindString(description)
	return code, code != ""
}
