package sessions_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/Pablotechedu/proyecto-final-sub000/sessions"
	"github.com/Pablotechedu/proyecto-final-sub000/test"
)

var _ = Describe("Upserter", func() {
	var store *test.Store
	var upserter sessions.Upserter
	var now time.Time
	var session sessions.Session

	BeforeEach(func() {
		store = test.NewStore()
		now = time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)
		upserter = sessions.NewUpserter(sessions.Params{
			Store:  store,
			Logger: zap.NewNop().Sugar(),
			Now:    func() time.Time { return now },
		})
		session = sessions.Session{
			Id:            "gcal_evt001",
			PatientId:     "p1",
			PatientCode:   "Juan_Perez01",
			PatientName:   "Juan Perez",
			TherapistId:   "t1",
			TherapistName: "Gabriela Morales",
			StartTime:     time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC),
			EndTime:       time.Date(2025, time.January, 1, 10, 0, 0, 0, time.UTC),
			Duration:      1,
			SessionType:   "Terapia de lenguaje",
			Status:        sessions.StatusScheduled,
			Source:        sessions.SourceGoogleCalendar,
			GoogleEventId: "evt001",
			CalendarId:    "terapeuta1@therapyhub.com",
		}
	})

	It("creates a scheduled session", func() {
		Expect(upserter.Upsert(context.Background(), session)).To(Succeed())

		document := store.Session("gcal_evt001")
		Expect(document).To(HaveKeyWithValue(sessions.FieldStatus, sessions.StatusScheduled))
		Expect(document).To(HaveKeyWithValue(sessions.FieldFormCompleted, false))
		Expect(document).To(HaveKeyWithValue(sessions.FieldCreatedAt, now))
		Expect(document).To(HaveKeyWithValue(sessions.FieldDuration, 1.0))
	})

	It("is idempotent except for the update timestamp", func() {
		Expect(upserter.Upsert(context.Background(), session)).To(Succeed())
		first := map[string]interface{}{}
		for k, v := range store.Session("gcal_evt001") {
			first[k] = v
		}

		now = now.Add(time.Hour)
		Expect(upserter.Upsert(context.Background(), session)).To(Succeed())
		second := store.Session("gcal_evt001")

		Expect(store.Sessions).To(HaveLen(1))
		Expect(second[sessions.FieldUpdatedAt]).To(Equal(now))
		delete(first, sessions.FieldUpdatedAt)
		for k, v := range first {
			Expect(second).To(HaveKeyWithValue(k, v))
		}
		Expect(second).To(HaveLen(len(first) + 1))
	})

	It("preserves clinician edits", func() {
		store.Sessions["gcal_evt001"] = map[string]interface{}{
			sessions.FieldStatus:        sessions.StatusCompleted,
			sessions.FieldFormCompleted: true,
			sessions.FieldNotes:         "x",
			sessions.FieldCreatedAt:     now.Add(-24 * time.Hour),
		}

		Expect(upserter.Upsert(context.Background(), session)).To(Succeed())

		document := store.Session("gcal_evt001")
		Expect(document).To(HaveKeyWithValue(sessions.FieldStatus, sessions.StatusCompleted))
		Expect(document).To(HaveKeyWithValue(sessions.FieldFormCompleted, true))
		Expect(document).To(HaveKeyWithValue(sessions.FieldNotes, "x"))
		Expect(document).To(HaveKeyWithValue(sessions.FieldCreatedAt, now.Add(-24*time.Hour)))
		Expect(document).To(HaveKeyWithValue(sessions.FieldPatientId, "p1"))
	})

	It("returns a persistence error when the store fails", func() {
		storeErr := errors.New("deadline exceeded")
		store.ApplyErrors["gcal_evt001"] = storeErr

		err := upserter.Upsert(context.Background(), session)
		var persistenceErr *sessions.PersistenceError
		Expect(errors.As(err, &persistenceErr)).To(BeTrue())
		Expect(persistenceErr.SessionId).To(Equal("gcal_evt001"))
		Expect(errors.Is(err, storeErr)).To(BeTrue())
	})
})
