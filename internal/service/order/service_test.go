package order

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plms/lab-api/internal/model"
	"github.com/plms/lab-api/internal/repository"
	apperrors "github.com/plms/lab-api/pkg/errors"
)

type fakeOrderRepo struct {
	orders    map[uuid.UUID]*model.Order
	lineItems map[uuid.UUID][]*model.OrderTest
	samples   map[uuid.UUID][]*model.Sample
	seq       int64
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:    make(map[uuid.UUID]*model.Order),
		lineItems: make(map[uuid.UUID][]*model.OrderTest),
		samples:   make(map[uuid.UUID][]*model.Sample),
	}
}

func (r *fakeOrderRepo) Create(_ context.Context, order *model.Order, lineItems []*model.OrderTest, samples []*model.Sample) error {
	r.seq++
	order.OrderNumber = model.FormatOrderNumber(r.seq)
	for i, s := range samples {
		s.Barcode = model.FormatSampleBarcode(r.seq*10 + int64(i))
	}
	r.orders[order.ID] = order
	r.lineItems[order.ID] = lineItems
	r.samples[order.ID] = samples
	return nil
}

func (r *fakeOrderRepo) Get(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	o.OrderTests = r.lineItems[id]
	return o, nil
}

func (r *fakeOrderRepo) List(_ context.Context, _ *model.OrderListParams) ([]*model.Order, int, error) {
	out := make([]*model.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o)
	}
	return out, len(out), nil
}

func (r *fakeOrderRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*model.Order, error) {
	var out []*model.Order
	for _, o := range r.orders {
		if o.PatientID == patientID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, order *model.Order) error {
	stored, ok := r.orders[order.ID]
	if !ok {
		return repository.ErrNotFound
	}
	*stored = *order
	if order.Status == model.StatusSampleProcessing {
		for _, s := range r.samples[order.ID] {
			if s.Status == model.SamplePending {
				s.Status = model.SampleCollected
			}
		}
	}
	return nil
}

func (r *fakeOrderRepo) UpdateResults(_ context.Context, orderID uuid.UUID, entries []model.TestResultEntry) error {
	items := r.lineItems[orderID]
	for _, e := range entries {
		for _, item := range items {
			if item.TestID.String() == e.TestID {
				item.Result = e.Result
				item.Notes = e.Notes
			}
		}
	}
	return nil
}

func (r *fakeOrderRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.orders[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

type fakePatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func (r *fakePatientRepo) Create(_ context.Context, p *model.Patient) error {
	r.patients[p.ID] = p
	return nil
}

func (r *fakePatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := r.patients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (r *fakePatientRepo) Update(_ context.Context, p *model.Patient) error { return nil }
func (r *fakePatientRepo) Delete(_ context.Context, id uuid.UUID) error     { return nil }
func (r *fakePatientRepo) List(_ context.Context, _ *model.ListParams) ([]*model.Patient, int, error) {
	return nil, 0, nil
}

type fakeTestRepo struct {
	tests map[uuid.UUID]*model.Test
}

func (r *fakeTestRepo) Create(_ context.Context, t *model.Test) error { return nil }
func (r *fakeTestRepo) Get(_ context.Context, id uuid.UUID) (*model.Test, error) {
	t, ok := r.tests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t, nil
}
func (r *fakeTestRepo) GetByCode(_ context.Context, _ string, _ *uuid.UUID) (*model.Test, error) {
	return nil, repository.ErrNotFound
}
func (r *fakeTestRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]*model.Test, error) {
	var out []*model.Test
	for _, id := range ids {
		if t, ok := r.tests[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}
func (r *fakeTestRepo) Update(_ context.Context, _ *model.Test) error { return nil }
func (r *fakeTestRepo) Delete(_ context.Context, _ uuid.UUID) error   { return nil }
func (r *fakeTestRepo) List(_ context.Context, _ *model.TestListParams) ([]*model.Test, int, error) {
	return nil, 0, nil
}
func (r *fakeTestRepo) Categories(_ context.Context) ([]string, error) { return nil, nil }
func (r *fakeTestRepo) InUse(_ context.Context, _ uuid.UUID) (bool, error) {
	return false, nil
}

type fakeDoctorRepo struct {
	doctors map[uuid.UUID]*model.Doctor
}

func (r *fakeDoctorRepo) Create(_ context.Context, d *model.Doctor) error { return nil }
func (r *fakeDoctorRepo) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	d, ok := r.doctors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return d, nil
}
func (r *fakeDoctorRepo) Update(_ context.Context, _ *model.Doctor) error { return nil }
func (r *fakeDoctorRepo) Delete(_ context.Context, _ uuid.UUID) error     { return nil }
func (r *fakeDoctorRepo) List(_ context.Context, _ *model.DoctorListParams) ([]*model.Doctor, int, error) {
	return nil, 0, nil
}

func fixture(t *testing.T) (*Service, *fakeOrderRepo, *model.Patient, []*model.Test) {
	t.Helper()

	patient := &model.Patient{ID: uuid.New(), PatientCode: "P0001", FirstName: "Jane", LastName: "Doe"}
	patients := &fakePatientRepo{patients: map[uuid.UUID]*model.Patient{patient.ID: patient}}

	cbc := &model.Test{
		ID: uuid.New(), Name: "Complete Blood Count", Code: "CBC",
		Price: decimal.RequireFromString("25.00"), SampleType: "Blood", ContainerType: "EDTA Tube",
	}
	glucose := &model.Test{
		ID: uuid.New(), Name: "Glucose Fasting", Code: "GLU",
		Price: decimal.RequireFromString("15.00"), SampleType: "Blood", ContainerType: "Fluoride Tube",
	}
	urine := &model.Test{
		ID: uuid.New(), Name: "Urine Routine", Code: "URN",
		Price: decimal.RequireFromString("10.00"), SampleType: "Urine", ContainerType: "Sterile Cup",
	}
	tests := &fakeTestRepo{tests: map[uuid.UUID]*model.Test{cbc.ID: cbc, glucose.ID: glucose, urine.ID: urine}}

	doctors := &fakeDoctorRepo{doctors: map[uuid.UUID]*model.Doctor{}}
	orders := newFakeOrderRepo()

	return NewService(orders, patients, tests, doctors), orders, patient, []*model.Test{cbc, glucose, urine}
}

func TestCreateOrderTotalsAndSamples(t *testing.T) {
	svc, repo, patient, tests := fixture(t)
	actor := uuid.New()

	order, err := svc.CreateOrder(context.Background(), actor, &model.CreateOrderRequest{
		PatientID: patient.ID.String(),
		TestIDs:   []string{tests[0].ID.String(), tests[1].ID.String(), tests[2].ID.String()},
	})
	require.NoError(t, err)

	assert.Equal(t, "ORD000001", order.OrderNumber)
	assert.Equal(t, model.StatusSamplePending, order.Status)
	assert.Equal(t, actor, order.CreatedBy)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("50.00")),
		"total should be the sum of catalog prices, got %s", order.TotalAmount)

	// Three tests over three distinct specimen kinds: three samples.
	samples := repo.samples[order.ID]
	require.Len(t, samples, 3)
	for _, s := range samples {
		assert.Equal(t, model.SamplePending, s.Status)
		assert.NotEmpty(t, s.Barcode)
	}
}

func TestCreateOrderSharedSpecimen(t *testing.T) {
	svc, repo, patient, tests := fixture(t)

	// Two blood tests in different tubes plus a duplicate test ID.
	order, err := svc.CreateOrder(context.Background(), uuid.New(), &model.CreateOrderRequest{
		PatientID: patient.ID.String(),
		TestIDs:   []string{tests[0].ID.String(), tests[0].ID.String(), tests[1].ID.String()},
	})
	require.NoError(t, err)

	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("40.00")),
		"duplicate test IDs must not be double counted")
	assert.Len(t, repo.lineItems[order.ID], 2)
	assert.Len(t, repo.samples[order.ID], 2, "EDTA and Fluoride tubes are distinct specimens")
}

func TestCreateOrderUnknownPatient(t *testing.T) {
	svc, _, _, tests := fixture(t)

	_, err := svc.CreateOrder(context.Background(), uuid.New(), &model.CreateOrderRequest{
		PatientID: uuid.New().String(),
		TestIDs:   []string{tests[0].ID.String()},
	})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}

func TestCreateOrderUnknownTest(t *testing.T) {
	svc, _, patient, tests := fixture(t)

	_, err := svc.CreateOrder(context.Background(), uuid.New(), &model.CreateOrderRequest{
		PatientID: patient.ID.String(),
		TestIDs:   []string{tests[0].ID.String(), uuid.New().String()},
	})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
}

func TestUpdateStatusProgression(t *testing.T) {
	svc, repo, patient, tests := fixture(t)
	actor := uuid.New()

	order, err := svc.CreateOrder(context.Background(), actor, &model.CreateOrderRequest{
		PatientID: patient.ID.String(),
		TestIDs:   []string{tests[0].ID.String()},
	})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(context.Background(), actor, model.RoleLabTech, order.ID, model.StatusSampleProcessing)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSampleProcessing, updated.Status)
	assert.NotNil(t, updated.SampleCollectedAt)
	assert.Equal(t, actor, *updated.SampleCollectedBy)

	// Samples flip to COLLECTED alongside the order.
	for _, s := range repo.samples[order.ID] {
		assert.Equal(t, model.SampleCollected, s.Status)
	}

	updated, err = svc.UpdateStatus(context.Background(), actor, model.RoleLabTech, order.ID, model.StatusReportProcessing)
	require.NoError(t, err)
	assert.Equal(t, model.StatusReportProcessing, updated.Status)
	assert.Nil(t, updated.ReportReadyAt)

	verifier := uuid.New()
	updated, err = svc.UpdateStatus(context.Background(), verifier, model.RolePathologist, order.ID, model.StatusVerified)
	require.NoError(t, err)
	assert.Equal(t, model.StatusVerified, updated.Status)
	assert.NotNil(t, updated.ReportReadyAt)
	assert.Equal(t, verifier, *updated.VerifiedBy)
}

func TestUpdateStatusRejectsSkips(t *testing.T) {
	svc, _, patient, tests := fixture(t)
	actor := uuid.New()

	order, err := svc.CreateOrder(context.Background(), actor, &model.CreateOrderRequest{
		PatientID: patient.ID.String(),
		TestIDs:   []string{tests[0].ID.String()},
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), actor, model.RoleAdmin, order.ID, model.StatusVerified)
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)

	// Backwards is just as illegal.
	_, err = svc.UpdateStatus(context.Background(), actor, model.RoleAdmin, order.ID, model.StatusSamplePending)
	require.Error(t, err)
}

func TestVerifyRequiresPathologistOrAdmin(t *testing.T) {
	svc, _, patient, tests := fixture(t)
	actor := uuid.New()

	order, err := svc.CreateOrder(context.Background(), actor, &model.CreateOrderRequest{
		PatientID: patient.ID.String(),
		TestIDs:   []string{tests[0].ID.String()},
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), actor, model.RoleLabTech, order.ID, model.StatusSampleProcessing)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), actor, model.RoleLabTech, order.ID, model.StatusReportProcessing)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), actor, model.RoleLabTech, order.ID, model.StatusVerified)
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrForbidden, appErr.Code)

	_, err = svc.UpdateStatus(context.Background(), actor, model.RoleAdmin, order.ID, model.StatusVerified)
	assert.NoError(t, err)
}

func TestUpdateResults(t *testing.T) {
	svc, repo, patient, tests := fixture(t)
	actor := uuid.New()

	order, err := svc.CreateOrder(context.Background(), actor, &model.CreateOrderRequest{
		PatientID: patient.ID.String(),
		TestIDs:   []string{tests[0].ID.String(), tests[1].ID.String()},
	})
	require.NoError(t, err)

	notes := "fasting sample"
	hb := "13.5"
	glu := "92"
	_, err = svc.UpdateResults(context.Background(), order.ID, &model.UpdateResultsRequest{
		Results: []model.TestResultEntry{
			{TestID: tests[0].ID.String(), Result: &hb},
			{TestID: tests[1].ID.String(), Result: &glu, Notes: &notes},
		},
	})
	require.NoError(t, err)

	items := repo.lineItems[order.ID]
	require.Len(t, items, 2)
	for _, item := range items {
		require.NotNil(t, item.Result)
	}
}

func TestDeleteOrderNotFound(t *testing.T) {
	svc, _, _, _ := fixture(t)

	err := svc.DeleteOrder(context.Background(), uuid.New())
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}
