package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/plms/lab-api/internal/model"
	"github.com/plms/lab-api/internal/repository"
	apperrors "github.com/plms/lab-api/pkg/errors"
)

type Service struct {
	repo       repository.PatientRepository
	doctorRepo repository.DoctorRepository
	orderRepo  repository.OrderRepository
}

func NewService(repo repository.PatientRepository, doctorRepo repository.DoctorRepository, orderRepo repository.OrderRepository) *Service {
	return &Service{repo: repo, doctorRepo: doctorRepo, orderRepo: orderRepo}
}

func (s *Service) CreatePatient(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		return nil, apperrors.Validation("Invalid date of birth")
	}

	doctorID, err := s.resolveDoctor(ctx, req.ReferringDoctorID)
	if err != nil {
		return nil, err
	}

	patient := &model.Patient{
		ID:                uuid.New(),
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		DateOfBirth:       dob,
		Phone:             req.Phone,
		Email:             optional(req.Email),
		Address:           optional(req.Address),
		ReferringDoctorID: doctorID,
	}

	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to create patient: %w", err))
	}
	return patient, nil
}

// GetPatient returns the patient with their full order history.
func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Patient")
		}
		return nil, apperrors.Internal(err)
	}

	orders, err := s.orderRepo.ListByPatient(ctx, id)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if orders == nil {
		orders = []*model.Order{}
	}
	patient.Orders = orders
	return patient, nil
}

func (s *Service) ListPatients(ctx context.Context, params *model.ListParams) (*model.PatientListResponse, error) {
	params.Normalize(10)
	patients, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if patients == nil {
		patients = []*model.Patient{}
	}
	return &model.PatientListResponse{
		Patients:   patients,
		Pagination: model.NewPagination(total, params.Page, params.Limit),
	}, nil
}

func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Patient")
		}
		return nil, apperrors.Internal(err)
	}

	if req.FirstName != nil {
		patient.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		patient.LastName = *req.LastName
	}
	if req.DateOfBirth != nil {
		dob, err := parseDate(*req.DateOfBirth)
		if err != nil {
			return nil, apperrors.Validation("Invalid date of birth")
		}
		patient.DateOfBirth = dob
	}
	if req.Phone != nil {
		patient.Phone = *req.Phone
	}
	if req.Email != nil {
		patient.Email = optional(*req.Email)
	}
	if req.Address != nil {
		patient.Address = optional(*req.Address)
	}
	if req.ReferringDoctorID != nil {
		doctorID, err := s.resolveDoctor(ctx, req.ReferringDoctorID)
		if err != nil {
			return nil, err
		}
		patient.ReferringDoctorID = doctorID
	}

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to update patient: %w", err))
	}
	return patient, nil
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Patient")
		}
		return apperrors.Internal(fmt.Errorf("failed to delete patient: %w", err))
	}
	return nil
}

// resolveDoctor validates a referring doctor id, tolerating nil/empty.
func (s *Service) resolveDoctor(ctx context.Context, raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, apperrors.Validation("Invalid referring doctor ID")
	}
	if _, err := s.doctorRepo.Get(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Doctor")
		}
		return nil, apperrors.Internal(err)
	}
	return &id, nil
}

// parseDate accepts both plain dates and RFC3339 timestamps, the two
// shapes the SPA sends.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
