package model

import (
	"time"

	"github.com/google/uuid"
)

// SampleStatus is the lifecycle state of a physical specimen.
type SampleStatus string

const (
	SamplePending   SampleStatus = "PENDING"
	SampleCollected SampleStatus = "COLLECTED"
	SampleReceived  SampleStatus = "RECEIVED"
	SampleRejected  SampleStatus = "REJECTED"
)

// ValidSampleStatus reports whether s is one of the known sample states.
func ValidSampleStatus(s SampleStatus) bool {
	switch s {
	case SamplePending, SampleCollected, SampleReceived, SampleRejected:
		return true
	}
	return false
}

// Sample is a physical specimen drawn for an order. One sample exists per
// distinct (sampleType, containerType) pair among the order's tests,
// created together with the order.
type Sample struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	Barcode       string       `json:"barcode" db:"barcode"`
	OrderID       uuid.UUID    `json:"orderId" db:"order_id"`
	SampleType    string       `json:"sampleType" db:"sample_type"`
	ContainerType string       `json:"containerType" db:"container_type"`
	Status        SampleStatus `json:"status" db:"status"`
	CollectedAt   *time.Time   `json:"collectedAt" db:"collected_at"`
	CollectedBy   *uuid.UUID   `json:"collectedBy" db:"collected_by"`
	Notes         *string      `json:"notes" db:"notes"`
	CreatedAt     time.Time    `json:"createdAt" db:"created_at"`

	OrderNumber string          `json:"orderNumber,omitempty" db:"order_number"`
	Patient     *PatientSummary `json:"patient,omitempty" db:"-"`
}

type UpdateSampleStatusRequest struct {
	Status SampleStatus `json:"status" binding:"required,oneof=PENDING COLLECTED RECEIVED REJECTED"`
	Notes  *string      `json:"notes"`
}

// SampleListParams are query parameters for the sample list endpoint.
type SampleListParams struct {
	ListParams
	Status string `form:"status"`
}

// SampleListResponse is the payload of GET /samples.
type SampleListResponse struct {
	Samples    []*Sample  `json:"samples"`
	Pagination Pagination `json:"pagination"`
}
