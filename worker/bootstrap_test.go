package worker_test

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/fx"

	"github.com/Pablotechedu/proyecto-final-sub000/worker"
)

var requiredEnvVariables = map[string]string{
	"THERAPYHUB_TIMEZONE":            "UTC",
	"THERAPYHUB_LOG_LEVEL":           "info",
	"THERAPYHUB_CALENDAR_PROVIDER":   "ical",
	"THERAPYHUB_ICAL_FEEDS":          "a@therapyhub.com=http://localhost:9999/a.ics",
	"THERAPYHUB_CALENDAR_THERAPISTS": "a@therapyhub.com:t1",
	"THERAPYHUB_STORE_BACKEND":       "mongo",
	"THERAPYHUB_MONGO_URI":           "mongodb://localhost:27017",
}

var _ = Describe("Boostrap", func() {
	Describe("Fx App", func() {
		var app *fx.App
		var components worker.Components

		BeforeEach(func() {
			SetRequiredEnvVariables()

			init := func(c worker.Components) {
				components = c
			}
			opts := append([]fx.Option{}, worker.Modules...)
			opts = append(opts, fx.Invoke(init), fx.NopLogger)

			app = fx.New(opts...)
			Expect(app).ToNot(BeNil())
		})

		AfterEach(func() {
			components = worker.Components{}
			ClearRequiredEnvVariables()
		})

		It("build the DI graph successfully", func() {
			Expect(app.Err()).ToNot(HaveOccurred())
		})

		It("instantiates the http server", func() {
			Expect(components.Server).ToNot(BeNil())
			Expect(components.ApiConfig.Address).To(Equal(":8080"))
		})

		It("instantiates the scheduler", func() {
			Expect(components.Scheduler).ToNot(BeNil())
			Expect(components.Scheduler.Next().IsZero()).To(BeFalse())
		})

		It("instantiates the syncer", func() {
			Expect(components.Syncer).ToNot(BeNil())
		})
	})

	Describe("Configuration errors", func() {
		AfterEach(func() {
			ClearRequiredEnvVariables()
		})

		It("requires the calendar mapping", func() {
			SetRequiredEnvVariables()
			Expect(os.Unsetenv("THERAPYHUB_CALENDAR_THERAPISTS")).To(Succeed())

			app := fx.New(append(worker.Modules, fx.Invoke(func(c worker.Components) {}), fx.NopLogger)...)
			Expect(app.Err()).To(HaveOccurred())
		})

		It("rejects unknown time zones", func() {
			SetRequiredEnvVariables()
			Expect(os.Setenv("THERAPYHUB_TIMEZONE", "Mars/Olympus_Mons")).To(Succeed())

			app := fx.New(append(worker.Modules, fx.Invoke(func(c worker.Components) {}), fx.NopLogger)...)
			Expect(app.Err()).To(HaveOccurred())
		})
	})
})

func SetRequiredEnvVariables() {
	for key, value := range requiredEnvVariables {
		Expect(os.Setenv(key, value)).ToNot(HaveOccurred())
	}
}

func ClearRequiredEnvVariables() {
	for key := range requiredEnvVariables {
		Expect(os.Unsetenv(key)).ToNot(HaveOccurred())
	}
}
