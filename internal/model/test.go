package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Test is a catalog entry for a lab test. A test cannot be deleted while
// any order line item references it.
type Test struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Code          string          `json:"code" db:"code"`
	Category      string          `json:"category" db:"category"`
	Price         decimal.Decimal `json:"price" db:"price"`
	SampleType    string          `json:"sampleType" db:"sample_type"`
	ContainerType string          `json:"containerType" db:"container_type"`
	NormalRange   *string         `json:"normalRange" db:"normal_range"`
	Unit          *string         `json:"unit" db:"unit"`
	IsActive      bool            `json:"isActive" db:"is_active"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
}

type CreateTestRequest struct {
	Name          string          `json:"name" binding:"required"`
	Code          string          `json:"code" binding:"required"`
	Category      string          `json:"category" binding:"required"`
	Price         decimal.Decimal `json:"price" binding:"required"`
	SampleType    string          `json:"sampleType" binding:"required"`
	ContainerType string          `json:"containerType" binding:"required"`
	NormalRange   string          `json:"normalRange"`
	Unit          string          `json:"unit"`
}

type UpdateTestRequest struct {
	Name          *string          `json:"name" binding:"omitempty,min=1"`
	Code          *string          `json:"code" binding:"omitempty,min=1"`
	Category      *string          `json:"category" binding:"omitempty,min=1"`
	Price         *decimal.Decimal `json:"price"`
	SampleType    *string          `json:"sampleType" binding:"omitempty,min=1"`
	ContainerType *string          `json:"containerType" binding:"omitempty,min=1"`
	NormalRange   *string          `json:"normalRange"`
	Unit          *string          `json:"unit"`
}

// TestListParams are query parameters for the test catalog list endpoint.
type TestListParams struct {
	ListParams
	Category string `form:"category"`
	Active   string `form:"active,default=true"`
}

// TestListResponse is the payload of GET /tests.
type TestListResponse struct {
	Tests      []*Test    `json:"tests"`
	Pagination Pagination `json:"pagination"`
}
