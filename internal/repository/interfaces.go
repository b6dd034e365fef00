package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plms/lab-api/internal/model"
)

// ErrNotFound is returned by all repositories when the referenced row
// does not exist.
var ErrNotFound = errors.New("not found")

// All repository interfaces in one file
type (
	// UserRepository handles staff account persistence
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByUsername(ctx context.Context, username string) (*model.User, error)
		// FindConflicting returns a user with the same username or email,
		// excluding excludeID when non-nil.
		FindConflicting(ctx context.Context, username, email string, excludeID *uuid.UUID) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
		UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, params *model.UserListParams) ([]*model.User, int, error)
	}

	// PatientRepository handles patient persistence; Create assigns the
	// patient code from the database sequence.
	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, params *model.ListParams) ([]*model.Patient, int, error)
	}

	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, params *model.DoctorListParams) ([]*model.Doctor, int, error)
	}

	TestRepository interface {
		Create(ctx context.Context, test *model.Test) error
		Get(ctx context.Context, id uuid.UUID) (*model.Test, error)
		// GetByCode returns a test with the given code, excluding excludeID
		// when non-nil.
		GetByCode(ctx context.Context, code string, excludeID *uuid.UUID) (*model.Test, error)
		GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Test, error)
		Update(ctx context.Context, test *model.Test) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, params *model.TestListParams) ([]*model.Test, int, error)
		Categories(ctx context.Context) ([]string, error)
		// InUse reports whether any order line item references the test.
		InUse(ctx context.Context, id uuid.UUID) (bool, error)
	}

	// OrderRepository handles order persistence. Create inserts the order,
	// its line items and its samples in a single transaction, assigning
	// the order number and sample barcodes from database sequences.
	OrderRepository interface {
		Create(ctx context.Context, order *model.Order, lineItems []*model.OrderTest, samples []*model.Sample) error
		Get(ctx context.Context, id uuid.UUID) (*model.Order, error)
		List(ctx context.Context, params *model.OrderListParams) ([]*model.Order, int, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Order, error)
		// UpdateStatus writes the status and its side-effect columns; for a
		// transition to SAMPLE_PROCESSING it also marks the order's pending
		// samples collected, in the same transaction.
		UpdateStatus(ctx context.Context, order *model.Order) error
		UpdateResults(ctx context.Context, orderID uuid.UUID, entries []model.TestResultEntry) error
		Delete(ctx context.Context, id uuid.UUID) error
	}

	SampleRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Sample, error)
		List(ctx context.Context, params *model.SampleListParams) ([]*model.Sample, int, error)
		UpdateStatus(ctx context.Context, sample *model.Sample) error
	}

	// AnalyticsRepository runs the aggregate queries behind the dashboard
	// and revenue endpoints.
	AnalyticsRepository interface {
		CountPatients(ctx context.Context) (int, error)
		CountOrders(ctx context.Context, since *time.Time) (int, error)
		CountOrdersByStatus(ctx context.Context, status model.OrderStatus) (int, error)
		Revenue(ctx context.Context, since *time.Time) (decimal.Decimal, error)
		DailyOrderCounts(ctx context.Context, days int) ([]model.DailyOrderCount, error)
		TopTests(ctx context.Context, limit int) ([]model.TopTest, error)
		RevenueByDay(ctx context.Context, since time.Time) ([]model.RevenuePoint, error)
	}
)
