package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of a lab order. Transitions are a
// strict linear progression; the successor of each state is the only
// legal target.
type OrderStatus string

const (
	StatusSamplePending    OrderStatus = "SAMPLE_PENDING"
	StatusSampleProcessing OrderStatus = "SAMPLE_PROCESSING"
	StatusReportProcessing OrderStatus = "REPORT_PROCESSING"
	StatusVerified         OrderStatus = "VERIFIED"
)

// OrderStatuses lists the lifecycle states in progression order.
var OrderStatuses = []OrderStatus{
	StatusSamplePending,
	StatusSampleProcessing,
	StatusReportProcessing,
	StatusVerified,
}

// ValidOrderStatus reports whether s is one of the four lifecycle states.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case StatusSamplePending, StatusSampleProcessing, StatusReportProcessing, StatusVerified:
		return true
	}
	return false
}

// Next returns the successor state and whether one exists. VERIFIED is
// terminal.
func (s OrderStatus) Next() (OrderStatus, bool) {
	switch s {
	case StatusSamplePending:
		return StatusSampleProcessing, true
	case StatusSampleProcessing:
		return StatusReportProcessing, true
	case StatusReportProcessing:
		return StatusVerified, true
	}
	return "", false
}

// CanTransitionTo reports whether target is the immediate successor of s.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	next, ok := s.Next()
	return ok && next == target
}

// Order is a lab order: a fixed set of tests for one patient, moving
// through the four-state lifecycle.
type Order struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	OrderNumber       string          `json:"orderNumber" db:"order_number"`
	PatientID         uuid.UUID       `json:"patientId" db:"patient_id"`
	ReferringDoctorID *uuid.UUID      `json:"referringDoctorId" db:"referring_doctor_id"`
	Status            OrderStatus     `json:"status" db:"status"`
	CreatedBy         uuid.UUID       `json:"createdBy" db:"created_by"`
	SampleCollectedAt *time.Time      `json:"sampleCollectedAt" db:"sample_collected_at"`
	SampleCollectedBy *uuid.UUID      `json:"sampleCollectedBy" db:"sample_collected_by"`
	ReportReadyAt     *time.Time      `json:"reportReadyAt" db:"report_ready_at"`
	VerifiedBy        *uuid.UUID      `json:"verifiedBy" db:"verified_by"`
	TotalAmount       decimal.Decimal `json:"totalAmount" db:"total_amount"`
	CreatedAt         time.Time       `json:"createdAt" db:"created_at"`

	Patient         *PatientSummary `json:"patient,omitempty" db:"-"`
	ReferringDoctor *DoctorSummary  `json:"referringDoctor,omitempty" db:"-"`
	OrderTests      []*OrderTest    `json:"orderTests,omitempty" db:"-"`
	Creator         *UserName       `json:"creator,omitempty" db:"-"`
	SampleCollector *UserName       `json:"sampleCollector,omitempty" db:"-"`
	Verifier        *UserName       `json:"verifier,omitempty" db:"-"`
}

// OrderTest is a single line item of an order. The set of line items is
// fixed at creation; only result and notes are mutable.
type OrderTest struct {
	ID      uuid.UUID `json:"id" db:"id"`
	OrderID uuid.UUID `json:"orderId" db:"order_id"`
	TestID  uuid.UUID `json:"testId" db:"test_id"`
	Result  *string   `json:"result" db:"result"`
	Notes   *string   `json:"notes" db:"notes"`

	Test *Test `json:"test,omitempty" db:"-"`
}

type CreateOrderRequest struct {
	PatientID         string   `json:"patientId" binding:"required"`
	TestIDs           []string `json:"testIds" binding:"required,min=1"`
	ReferringDoctorID *string  `json:"referringDoctorId"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required,oneof=SAMPLE_PENDING SAMPLE_PROCESSING REPORT_PROCESSING VERIFIED"`
}

// TestResultEntry is one element of a results update.
type TestResultEntry struct {
	TestID string  `json:"testId" binding:"required"`
	Result *string `json:"result"`
	Notes  *string `json:"notes"`
}

type UpdateResultsRequest struct {
	Results []TestResultEntry `json:"results" binding:"required"`
}

// OrderListParams are query parameters for the order list endpoint.
type OrderListParams struct {
	ListParams
	Status string `form:"status"`
}

// OrderListResponse is the payload of GET /orders.
type OrderListResponse struct {
	Orders     []*Order   `json:"orders"`
	Pagination Pagination `json:"pagination"`
}
