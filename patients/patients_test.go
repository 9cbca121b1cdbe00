package patients_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Pablotechedu/proyecto-final-sub000/patients"
)

var _ = Describe("ExtractCode", func() {
	DescribeTable("finds the leftmost patient code",
		func(description string, expected string) {
			code, ok := patients.ExtractCode(description)
			Expect(ok).To(BeTrue())
			Expect(code).To(Equal(expected))
		},
		Entry("embedded in a sentence", "Sesión con Alexia_Urcuyo01 en casa", "Alexia_Urcuyo01"),
		Entry("the whole description", "Juan_Perez01", "Juan_Perez01"),
		Entry("more than two digits", "Paciente: Maria_Lopez123.", "Maria_Lopez123"),
		Entry("ascii letters only", "María_Lopez01", "a_Lopez01"),
		Entry("two codes", "Ana_Diaz01 y Luis_Diaz02", "Ana_Diaz01"),
		Entry("across lines", "Notas\nCódigo: Pedro_Gomez05\nTraer informe", "Pedro_Gomez05"),
	)

	DescribeTable("returns no match",
		func(description string) {
			code, ok := patients.ExtractCode(description)
			Expect(ok).To(BeFalse())
			Expect(code).To(BeEmpty())
		},
		Entry("empty description", ""),
		Entry("no code", "Evaluación inicial"),
		Entry("a single digit suffix", "Juan_Perez1"),
		Entry("no underscore", "JuanPerez01"),
		Entry("accented letters", "José_Núñez07 terapia"),
		Entry("digits before the underscore", "Juan01_Perez"),
	)
})

var _ = Describe("Patient", func() {
	It("joins first and last name", func() {
		patient := patients.Patient{FirstName: "Juan", LastName: "Pérez"}
		Expect(patient.FullName()).To(Equal("Juan Pérez"))
	})

	It("trims missing names", func() {
		patient := patients.Patient{FirstName: "Juan"}
		Expect(patient.FullName()).To(Equal("Juan"))
	})
})
