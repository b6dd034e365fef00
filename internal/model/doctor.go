package model

import (
	"time"

	"github.com/google/uuid"
)

// Doctor is a referring physician. Patients and orders reference doctors
// by id, never by free-text name.
type Doctor struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Specialization string    `json:"specialization" db:"specialization"`
	Phone          string    `json:"phone" db:"phone"`
	Email          *string   `json:"email" db:"email"`
	IsActive       bool      `json:"isActive" db:"is_active"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// DoctorSummary is the abbreviated doctor shape embedded in patient and
// order responses.
type DoctorSummary struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Specialization string    `json:"specialization" db:"specialization"`
}

type CreateDoctorRequest struct {
	Name           string `json:"name" binding:"required"`
	Specialization string `json:"specialization" binding:"required"`
	Phone          string `json:"phone" binding:"required"`
	Email          string `json:"email" binding:"omitempty,email"`
}

type UpdateDoctorRequest struct {
	Name           *string `json:"name" binding:"omitempty,min=1"`
	Specialization *string `json:"specialization" binding:"omitempty,min=1"`
	Phone          *string `json:"phone" binding:"omitempty,min=1"`
	Email          *string `json:"email" binding:"omitempty,email"`
}

// DoctorListParams are query parameters for the doctor list endpoint.
type DoctorListParams struct {
	ListParams
	Active string `form:"active,default=true"`
}

// DoctorListResponse is the payload of GET /doctors.
type DoctorListResponse struct {
	Doctors    []*Doctor  `json:"doctors"`
	Pagination Pagination `json:"pagination"`
}
