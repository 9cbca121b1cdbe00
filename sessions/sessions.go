package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Pablotechedu/proyecto-final-sub000/calendar"
	"github.com/Pablotechedu/proyecto-final-sub000/patients"
	"github.com/Pablotechedu/proyecto-final-sub000/therapists"
)

const (
	IdPrefix             = "gcal_"
	SourceGoogleCalendar = "google_calendar"
	DefaultSessionType   = "Terapia"
)

type Status string

const (
	StatusScheduled Status = "Scheduled"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

// Document field names, shared by every store backend
const (
	FieldPatientId     = "patientId"
	FieldPatientCode   = "patientCode"
	FieldPatientName   = "patientName"
	FieldTherapistId   = "therapistId"
	FieldTherapistName = "therapistName"
	FieldStartTime     = "startTime"
	FieldEndTime       = "endTime"
	FieldDuration      = "duration"
	FieldSessionType   = "sessionType"
	FieldLocation      = "location"
	FieldStatus        = "status"
	FieldFormCompleted = "formCompleted"
	FieldSource        = "source"
	FieldGoogleEventId = "googleEventId"
	FieldCalendarId    = "calendarId"
	FieldNotes         = "notes"
	FieldCreatedAt     = "createdAt"
	FieldUpdatedAt     = "updatedAt"
)

var ErrInvalidEventTime = errors.New("event start and end cannot be resolved")

type Session struct {
	Id            string    `json:"id" bson:"_id" firestore:"-"`
	PatientId     string    `json:"patientId" bson:"patientId" firestore:"patientId"`
	PatientCode   string    `json:"patientCode" bson:"patientCode" firestore:"patientCode"`
	PatientName   string    `json:"patientName" bson:"patientName" firestore:"patientName"`
	TherapistId   string    `json:"therapistId" bson:"therapistId" firestore:"therapistId"`
	TherapistName string    `json:"therapistName" bson:"therapistName" firestore:"therapistName"`
	StartTime     time.Time `json:"startTime" bson:"startTime" firestore:"startTime"`
	EndTime       time.Time `json:"endTime" bson:"endTime" firestore:"endTime"`
	Duration      float64   `json:"duration" bson:"duration" firestore:"duration"`
	SessionType   string    `json:"sessionType" bson:"sessionType" firestore:"sessionType"`
	Location      string    `json:"location,omitempty" bson:"location,omitempty" firestore:"location,omitempty"`
	Status        Status    `json:"status" bson:"status" firestore:"status"`
	FormCompleted bool      `json:"formCompleted" bson:"formCompleted" firestore:"formCompleted"`
	Source        string    `json:"source" bson:"source" firestore:"source"`
	GoogleEventId string    `json:"googleEventId" bson:"googleEventId" firestore:"googleEventId"`
	CalendarId    string    `json:"calendarId" bson:"calendarId" firestore:"calendarId"`
	Notes         string    `json:"notes,omitempty" bson:"notes,omitempty" firestore:"notes,omitempty"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt" firestore:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt" firestore:"updatedAt"`
}

func SessionId(externalId string) string {
	return IdPrefix + externalId
}

// FromEvent computes the session a matched event maps to
func FromEvent(event calendar.Event, patient patients.Patient, therapist therapists.Therapist) (Session, error) {
	if event.StartAt.IsZero() || event.EndAt.IsZero() || event.EndAt.Before(event.StartAt) {
		return Session{}, fmt.Errorf("%w: event %v", ErrInvalidEventTime, event.ExternalId)
	}

	sessionType := event.Title
	if sessionType == "" {
		sessionType = DefaultSessionType
	}

	return Session{
		Id:            SessionId(event.ExternalId),
		PatientId:     patient.Id,
		PatientCode:   patient.PatientCode,
		PatientName:   patient.FullName(),
		TherapistId:   therapist.Id,
		TherapistName: therapist.Name,
		StartTime:     event.StartAt,
		EndTime:       event.EndAt,
		Duration:      event.EndAt.Sub(event.StartAt).Hours(),
		SessionType:   sessionType,
		Location:      event.Location,
		Status:        StatusScheduled,
		FormCompleted: false,
		Source:        SourceGoogleCalendar,
		GoogleEventId: event.ExternalId,
		CalendarId:    event.CalendarId,
	}, nil
}

// Write is a merge of a session document. Set is applied on every write,
// SetOnInsert only when the document is created. Fields in neither map are
// left untouched.
type Write struct {
	Id          string
	Set         map[string]interface{}
	SetOnInsert map[string]interface{}
}

// NewWrite returns the merge applied by the calendar sync. The sync never
// owns status, formCompleted or notes once the session exists.
func NewWrite(session Session, now time.Time) Write {
	return Write{
		Id: session.Id,
		Set: map[string]interface{}{
			FieldPatientId:     session.PatientId,
			FieldPatientCode:   session.PatientCode,
			FieldPatientName:   session.PatientName,
			FieldTherapistId:   session.TherapistId,
			FieldTherapistName: session.TherapistName,
			FieldStartTime:     session.StartTime,
			FieldEndTime:       session.EndTime,
			FieldDuration:      session.Duration,
			FieldSessionType:   session.SessionType,
			FieldLocation:      session.Location,
			FieldSource:        session.Source,
			FieldGoogleEventId: session.GoogleEventId,
			FieldCalendarId:    session.CalendarId,
			FieldUpdatedAt:     now,
		},
		SetOnInsert: map[string]interface{}{
			FieldStatus:        session.Status,
			FieldFormCompleted: session.FormCompleted,
			FieldCreatedAt:     now,
		},
	}
}

// Store is the sessions collection shared with the rest of the application
type Store interface {
	// Apply creates the document or merges the write into the existing one
	Apply(ctx context.Context, write Write) error
}

type PersistenceError struct {
	SessionId string
	Err       error
}

func (p *PersistenceError) Error() string {
	return fmt.Sprintf("unable to persist session %v: %v", p.SessionId, p.Err)
}

func (p *PersistenceError) Unwrap() error {
	return p.Err
}
