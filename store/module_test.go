package store_test

import (
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Pablotechedu/proyecto-final-sub000/store"
)

var _ = Describe("Module", func() {
	AfterEach(func() {
		Expect(os.Unsetenv("THERAPYHUB_STORE_BACKEND")).To(Succeed())
	})

	It("loads defaults", func() {
		config, err := store.NewConfig()
		Expect(err).ToNot(HaveOccurred())
		Expect(config.Backend).To(Equal(store.BackendFirestore))
		Expect(config.MongoDatabase).To(Equal("therapyhub"))
		Expect(config.ConnectAttempts).To(Equal(uint(5)))
		Expect(config.ConnectDelay).To(Equal(2 * time.Second))
	})

	It("creates a mongo backend without connecting", func() {
		Expect(os.Setenv("THERAPYHUB_STORE_BACKEND", "mongo")).To(Succeed())
		config, err := store.NewConfig()
		Expect(err).ToNot(HaveOccurred())

		backend, err := store.NewBackend(store.Params{
			Config:    config,
			Lifecycle: fxtest.NewLifecycle(GinkgoT()),
			Logger:    zap.NewNop().Sugar(),
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(backend).To(BeAssignableToTypeOf(&store.MongoBackend{}))
	})

	It("rejects unknown backends", func() {
		_, err := store.NewBackend(store.Params{
			Config:    store.Config{Backend: "postgres"},
			Lifecycle: fxtest.NewLifecycle(GinkgoT()),
			Logger:    zap.NewNop().Sugar(),
		})
		Expect(err).To(HaveOccurred())
	})
})
