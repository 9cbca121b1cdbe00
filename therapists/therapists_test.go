package therapists_test

import (
	"context"
	"errors"

	"github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/Pablotechedu/proyecto-final-sub000/therapists"
)

var _ = Describe("Directory", func() {
	var ctrl *gomock.Controller
	var store *therapists.MockStore
	var directory therapists.Directory

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		store = therapists.NewMockStore(ctrl)
		directory = therapists.NewDirectory(therapists.Params{
			Store:  store,
			Logger: zap.NewNop().Sugar(),
		})
	})

	AfterEach(func() {
		ctrl.Finish()
	})

	It("returns the stored name", func() {
		store.EXPECT().
			FindById(gomock.Any(), gomock.Eq("t1")).
			Return(&therapists.Therapist{Id: "t1", Name: "Lcda. Gabriela Morales"}, nil)

		therapist := directory.Lookup(context.Background(), "t1")
		Expect(therapist).To(Equal(therapists.Therapist{Id: "t1", Name: "Lcda. Gabriela Morales"}))
	})

	It("returns a placeholder when the therapist does not exist", func() {
		store.EXPECT().FindById(gomock.Any(), gomock.Eq("t2")).Return(nil, nil)

		therapist := directory.Lookup(context.Background(), "t2")
		Expect(therapist).To(Equal(therapists.Therapist{Id: "t2", Name: "Unknown Therapist"}))
	})

	It("returns a placeholder when the store fails", func() {
		store.EXPECT().FindById(gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))

		therapist := directory.Lookup(context.Background(), "t3")
		Expect(therapist.Name).To(Equal("Unknown Therapist"))
	})

	It("returns a placeholder when the stored name is empty", func() {
		store.EXPECT().FindById(gomock.Any(), gomock.Any()).Return(&therapists.Therapist{Id: "t4"}, nil)

		therapist := directory.Lookup(context.Background(), "t4")
		Expect(therapist.Name).To(Equal("Unknown Therapist"))
	})
})
