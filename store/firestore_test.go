package store_test

import (
	"context"
	"os"

	"cloud.google.com/go/firestore"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/Pablotechedu/proyecto-final-sub000/store"
)

var _ = Describe("FirestoreBackend", func() {
	var client *firestore.Client

	BeforeEach(func() {
		if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
			Skip("FIRESTORE_EMULATOR_HOST is not set")
		}

		var err error
		client, err = firestore.NewClient(context.Background(), "therapyhub-test")
		Expect(err).ToNot(HaveOccurred())

		for _, collection := range []string{store.PatientsCollection, store.UsersCollection, store.SessionsCollection} {
			refs, err := client.Collection(collection).DocumentRefs(context.Background()).GetAll()
			Expect(err).ToNot(HaveOccurred())
			for _, ref := range refs {
				_, err := ref.Delete(context.Background())
				Expect(err).ToNot(HaveOccurred())
			}
		}
	})

	AfterEach(func() {
		if client != nil {
			Expect(client.Close()).To(Succeed())
			client = nil
		}
	})

	backendBehavior(func() backendFixture {
		return backendFixture{
			backend: store.NewFirestoreBackendWithClient(client, zap.NewNop().Sugar()),
			seed: func(collection, id string, document map[string]interface{}) {
				_, err := client.Collection(collection).Doc(id).Set(context.Background(), document)
				Expect(err).ToNot(HaveOccurred())
			},
			read: func(id string) map[string]interface{} {
				doc, err := client.Collection(store.SessionsCollection).Doc(id).Get(context.Background())
				Expect(err).ToNot(HaveOccurred())
				return doc.Data()
			},
		}
	})
})
