package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plms/lab-api/internal/model"
	"github.com/plms/lab-api/internal/repository"
	apperrors "github.com/plms/lab-api/pkg/errors"
)

type Service struct {
	repo        repository.OrderRepository
	patientRepo repository.PatientRepository
	testRepo    repository.TestRepository
	doctorRepo  repository.DoctorRepository
}

func NewService(repo repository.OrderRepository, patientRepo repository.PatientRepository,
	testRepo repository.TestRepository, doctorRepo repository.DoctorRepository) *Service {
	return &Service{
		repo:        repo,
		patientRepo: patientRepo,
		testRepo:    testRepo,
		doctorRepo:  doctorRepo,
	}
}

// CreateOrder validates the patient and test set, prices the order from
// the current catalog, and persists the order, its line items, and one
// sample per distinct specimen kind.
func (s *Service) CreateOrder(ctx context.Context, actorID uuid.UUID, req *model.CreateOrderRequest) (*model.Order, error) {
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperrors.Validation("Invalid patient ID")
	}
	if _, err := s.patientRepo.Get(ctx, patientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Patient")
		}
		return nil, apperrors.Internal(err)
	}

	testIDs := make([]uuid.UUID, 0, len(req.TestIDs))
	seen := make(map[uuid.UUID]bool, len(req.TestIDs))
	for _, raw := range req.TestIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperrors.Validation("Invalid test ID")
		}
		if !seen[id] {
			seen[id] = true
			testIDs = append(testIDs, id)
		}
	}

	tests, err := s.testRepo.GetByIDs(ctx, testIDs)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if len(tests) != len(testIDs) {
		return nil, apperrors.Validation("One or more tests not found")
	}

	var doctorID *uuid.UUID
	if req.ReferringDoctorID != nil && *req.ReferringDoctorID != "" {
		id, err := uuid.Parse(*req.ReferringDoctorID)
		if err != nil {
			return nil, apperrors.Validation("Invalid referring doctor ID")
		}
		if _, err := s.doctorRepo.Get(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NotFound("Doctor")
			}
			return nil, apperrors.Internal(err)
		}
		doctorID = &id
	}

	// Total is fixed at creation time; later catalog price changes do
	// not reprice existing orders.
	total := decimal.Zero
	for _, t := range tests {
		total = total.Add(t.Price)
	}

	order := &model.Order{
		ID:                uuid.New(),
		PatientID:         patientID,
		ReferringDoctorID: doctorID,
		Status:            model.StatusSamplePending,
		CreatedBy:         actorID,
		TotalAmount:       total,
	}

	lineItems := make([]*model.OrderTest, 0, len(tests))
	for _, t := range tests {
		lineItems = append(lineItems, &model.OrderTest{
			ID:      uuid.New(),
			OrderID: order.ID,
			TestID:  t.ID,
		})
	}

	if err := s.repo.Create(ctx, order, lineItems, deriveSamples(order.ID, tests)); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to create order: %w", err))
	}

	return s.GetOrder(ctx, order.ID)
}

func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Order")
		}
		return nil, apperrors.Internal(err)
	}
	return order, nil
}

func (s *Service) ListOrders(ctx context.Context, params *model.OrderListParams) (*model.OrderListResponse, error) {
	params.Normalize(10)
	orders, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if orders == nil {
		orders = []*model.Order{}
	}
	return &model.OrderListResponse{
		Orders:     orders,
		Pagination: model.NewPagination(total, params.Page, params.Limit),
	}, nil
}

// UpdateStatus advances the order through its lifecycle. Only the
// immediate successor of the current status is a legal target, and only
// an admin or pathologist may verify.
func (s *Service) UpdateStatus(ctx context.Context, actorID uuid.UUID, actorRole model.Role, orderID uuid.UUID, target model.OrderStatus) (*model.Order, error) {
	if !model.ValidOrderStatus(target) {
		return nil, apperrors.Validation("Invalid order status")
	}

	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(target) {
		return nil, apperrors.Conflict(fmt.Sprintf("Cannot transition from %s to %s", order.Status, target))
	}

	if target == model.StatusVerified && actorRole != model.RoleAdmin && actorRole != model.RolePathologist {
		return nil, apperrors.Forbidden("Only an admin or pathologist can verify an order")
	}

	now := time.Now()
	order.Status = target
	switch target {
	case model.StatusSampleProcessing:
		order.SampleCollectedAt = &now
		order.SampleCollectedBy = &actorID
	case model.StatusVerified:
		order.ReportReadyAt = &now
		order.VerifiedBy = &actorID
	}

	if err := s.repo.UpdateStatus(ctx, order); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Order")
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to update order status: %w", err))
	}

	return s.GetOrder(ctx, orderID)
}

// UpdateResults writes result/notes onto the order's line items. Entries
// whose testId does not belong to the order are ignored.
func (s *Service) UpdateResults(ctx context.Context, orderID uuid.UUID, req *model.UpdateResultsRequest) (*model.Order, error) {
	if _, err := s.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}

	for _, entry := range req.Results {
		if _, err := uuid.Parse(entry.TestID); err != nil {
			return nil, apperrors.Validation("Invalid test ID in results")
		}
	}

	if err := s.repo.UpdateResults(ctx, orderID, req.Results); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to update results: %w", err))
	}

	return s.GetOrder(ctx, orderID)
}

func (s *Service) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Order")
		}
		return apperrors.Internal(fmt.Errorf("failed to delete order: %w", err))
	}
	return nil
}

// deriveSamples yields one pending sample per distinct
// (sampleType, containerType) pair among the ordered tests; tests that
// share a specimen share a tube.
func deriveSamples(orderID uuid.UUID, tests []*model.Test) []*model.Sample {
	type kind struct{ sampleType, containerType string }
	seen := make(map[kind]bool, len(tests))
	samples := make([]*model.Sample, 0, len(tests))
	for _, t := range tests {
		k := kind{t.SampleType, t.ContainerType}
		if seen[k] {
			continue
		}
		seen[k] = true
		samples = append(samples, &model.Sample{
			ID:            uuid.New(),
			OrderID:       orderID,
			SampleType:    t.SampleType,
			ContainerType: t.ContainerType,
			Status:        model.SamplePending,
		})
	}
	return samples
}
