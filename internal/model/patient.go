package model

import (
	"time"

	"github.com/google/uuid"
)

// Patient is a registered lab patient. The patient code is a monotonic
// human-readable identifier of the form P0001, drawn from a database
// sequence.
type Patient struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	PatientCode       string     `json:"patientCode" db:"patient_code"`
	FirstName         string     `json:"firstName" db:"first_name"`
	LastName          string     `json:"lastName" db:"last_name"`
	DateOfBirth       time.Time  `json:"dateOfBirth" db:"date_of_birth"`
	Phone             string     `json:"phone" db:"phone"`
	Email             *string    `json:"email" db:"email"`
	Address           *string    `json:"address" db:"address"`
	ReferringDoctorID *uuid.UUID `json:"referringDoctorId" db:"referring_doctor_id"`
	CreatedAt         time.Time  `json:"createdAt" db:"created_at"`

	ReferringDoctor *DoctorSummary `json:"referringDoctor,omitempty" db:"-"`
	Orders          []*Order       `json:"orders,omitempty" db:"-"`
}

// PatientSummary is the abbreviated patient shape embedded in order
// responses.
type PatientSummary struct {
	ID          uuid.UUID `json:"id" db:"id"`
	PatientCode string    `json:"patientCode" db:"patient_code"`
	FirstName   string    `json:"firstName" db:"first_name"`
	LastName    string    `json:"lastName" db:"last_name"`
	Phone       string    `json:"phone" db:"phone"`
}

type CreatePatientRequest struct {
	FirstName         string  `json:"firstName" binding:"required"`
	LastName          string  `json:"lastName" binding:"required"`
	DateOfBirth       string  `json:"dateOfBirth" binding:"required"`
	Phone             string  `json:"phone" binding:"required"`
	Email             string  `json:"email" binding:"omitempty,email"`
	Address           string  `json:"address"`
	ReferringDoctorID *string `json:"referringDoctorId"`
}

type UpdatePatientRequest struct {
	FirstName         *string `json:"firstName" binding:"omitempty,min=1"`
	LastName          *string `json:"lastName" binding:"omitempty,min=1"`
	DateOfBirth       *string `json:"dateOfBirth"`
	Phone             *string `json:"phone" binding:"omitempty,min=1"`
	Email             *string `json:"email" binding:"omitempty,email"`
	Address           *string `json:"address"`
	ReferringDoctorID *string `json:"referringDoctorId"`
}

// PatientListResponse is the payload of GET /patients.
type PatientListResponse struct {
	Patients   []*Patient `json:"patients"`
	Pagination Pagination `json:"pagination"`
}
