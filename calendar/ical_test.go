package calendar_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/Pablotechedu/proyecto-final-sub000/calendar"
	"github.com/Pablotechedu/proyecto-final-sub000/test"
)

var _ = Describe("ICalProvider", func() {
	var window calendar.Window
	var feed []byte

	BeforeEach(func() {
		var err error
		feed, err = test.LoadFixture("test/fixtures/feed.ics")
		Expect(err).ToNot(HaveOccurred())

		window = calendar.Window{
			Start: time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2025, time.January, 20, 23, 59, 59, 0, time.UTC),
		}
	})

	Describe("Feeds", func() {
		It("decodes calendar ids and urls", func() {
			feeds := calendar.Feeds{}
			err := feeds.Decode("cal-1=https://example.com/a.ics; cal-2=https://example.com/b.ics?key=x")
			Expect(err).ToNot(HaveOccurred())
			Expect(feeds).To(Equal(calendar.Feeds{
				"cal-1": "https://example.com/a.ics",
				"cal-2": "https://example.com/b.ics?key=x",
			}))
		})

		It("rejects malformed entries", func() {
			feeds := calendar.Feeds{}
			Expect(feeds.Decode("cal-1")).ToNot(Succeed())
		})
	})

	Describe("ParseFeed", func() {
		var provider *calendar.ICalProvider

		BeforeEach(func() {
			provider = calendar.NewICalProvider(calendar.ICalConfig{}, calendar.ModuleConfig{}, time.UTC, zap.NewNop().Sugar())
		})

		It("returns single and recurring events in the window ordered by start", func() {
			events, err := provider.ParseFeed("cal-1", feed, window)
			Expect(err).ToNot(HaveOccurred())

			var ids []string
			for _, event := range events {
				ids = append(ids, event.ExternalId)
			}
			Expect(ids).To(Equal([]string{
				"single-001",
				"weekly-001_20250107T140000Z",
				"weekly-001_20250114T140000Z",
			}))
		})

		It("maps event fields", func() {
			events, err := provider.ParseFeed("cal-1", feed, window)
			Expect(err).ToNot(HaveOccurred())
			Expect(events).ToNot(BeEmpty())

			event := events[0]
			Expect(event.CalendarId).To(Equal("cal-1"))
			Expect(event.Title).To(Equal("Terapia de lenguaje"))
			Expect(event.Description).To(Equal("Sesión con Juan_Perez01"))
			Expect(event.Location).To(Equal("Clínica Zona 10"))
			Expect(event.StartAt).To(BeTemporally("==", time.Date(2025, time.January, 6, 15, 0, 0, 0, time.UTC)))
			Expect(event.EndAt).To(BeTemporally("==", time.Date(2025, time.January, 6, 16, 0, 0, 0, time.UTC)))
		})

		It("keeps the duration of recurring instances", func() {
			events, err := provider.ParseFeed("cal-1", feed, window)
			Expect(err).ToNot(HaveOccurred())
			Expect(events).To(HaveLen(3))
			Expect(events[2].EndAt.Sub(events[2].StartAt)).To(Equal(time.Hour))
		})

		Context("with overridden occurrences", func() {
			var overrides []byte

			BeforeEach(func() {
				var err error
				overrides, err = test.LoadFixture("test/fixtures/feed_overrides.ics")
				Expect(err).ToNot(HaveOccurred())

				window.End = time.Date(2025, time.January, 31, 23, 59, 59, 0, time.UTC)
			})

			It("replaces moved occurrences and drops cancelled ones", func() {
				events, err := provider.ParseFeed("cal-1", overrides, window)
				Expect(err).ToNot(HaveOccurred())

				var ids []string
				for _, event := range events {
					ids = append(ids, event.ExternalId)
				}
				Expect(ids).To(Equal([]string{
					"weekly-001_20250107T140000Z",
					"outlook-001",
					"weekly-001_20250114T140000Z",
				}))

				moved := events[2]
				Expect(moved.Title).To(Equal("Terapia ocupacional (reprogramada)"))
				Expect(moved.StartAt).To(BeTemporally("==", time.Date(2025, time.January, 14, 17, 0, 0, 0, time.UTC)))
				Expect(moved.EndAt).To(BeTemporally("==", time.Date(2025, time.January, 14, 18, 0, 0, 0, time.UTC)))
			})

			It("drops moved occurrences that leave the window", func() {
				window.End = time.Date(2025, time.January, 14, 16, 0, 0, 0, time.UTC)

				events, err := provider.ParseFeed("cal-1", overrides, window)
				Expect(err).ToNot(HaveOccurred())
				Expect(events).To(HaveLen(2))
				Expect(events[1].ExternalId).To(Equal("outlook-001"))
			})

			It("resolves windows timezone names", func() {
				events, err := provider.ParseFeed("cal-1", overrides, window)
				Expect(err).ToNot(HaveOccurred())
				Expect(events).To(HaveLen(3))

				outlook := events[1]
				Expect(outlook.Description).To(Equal("Maria_Lopez02"))
				Expect(outlook.StartAt).To(BeTemporally("==", time.Date(2025, time.January, 8, 15, 0, 0, 0, time.UTC)))
				Expect(outlook.EndAt).To(BeTemporally("==", time.Date(2025, time.January, 8, 16, 0, 0, 0, time.UTC)))
			})
		})
	})

	Describe("ListEvents", func() {
		var server *httptest.Server
		var provider *calendar.ICalProvider

		BeforeEach(func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/calendar")
				_, _ = w.Write(feed)
			}))
			config := calendar.ICalConfig{Feeds: calendar.Feeds{"cal-1": server.URL + "/cal-1.ics"}}
			provider = calendar.NewICalProvider(config, calendar.ModuleConfig{Timeout: 5 * time.Second}, time.UTC, zap.NewNop().Sugar())
		})

		AfterEach(func() {
			server.Close()
		})

		It("authenticates when feeds are configured", func() {
			Expect(provider.Authenticate(context.Background())).To(Succeed())
		})

		It("downloads and parses the feed", func() {
			events, err := provider.ListEvents(context.Background(), "cal-1", window)
			Expect(err).ToNot(HaveOccurred())
			Expect(events).To(HaveLen(3))
		})

		It("fails for calendars without a feed", func() {
			_, err := provider.ListEvents(context.Background(), "cal-2", window)
			Expect(err).To(HaveOccurred())
		})
	})

	It("fails authentication without feeds", func() {
		provider := calendar.NewICalProvider(calendar.ICalConfig{}, calendar.ModuleConfig{}, time.UTC, zap.NewNop().Sugar())
		Expect(provider.Authenticate(context.Background())).ToNot(Succeed())
	})
})
