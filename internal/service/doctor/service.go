package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/plms/lab-api/internal/model"
	"github.com/plms/lab-api/internal/repository"
	apperrors "github.com/plms/lab-api/pkg/errors"
)

type Service struct {
	repo repository.DoctorRepository
}

func NewService(repo repository.DoctorRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateDoctor(ctx context.Context, req *model.CreateDoctorRequest) (*model.Doctor, error) {
	doctor := &model.Doctor{
		ID:             uuid.New(),
		Name:           req.Name,
		Specialization: req.Specialization,
		Phone:          req.Phone,
		Email:          optional(req.Email),
		IsActive:       true,
	}

	if err := s.repo.Create(ctx, doctor); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to create doctor: %w", err))
	}
	return doctor, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	doctor, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Doctor")
		}
		return nil, apperrors.Internal(err)
	}
	return doctor, nil
}

func (s *Service) ListDoctors(ctx context.Context, params *model.DoctorListParams) (*model.DoctorListResponse, error) {
	params.Normalize(20)
	doctors, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if doctors == nil {
		doctors = []*model.Doctor{}
	}
	return &model.DoctorListResponse{
		Doctors:    doctors,
		Pagination: model.NewPagination(total, params.Page, params.Limit),
	}, nil
}

func (s *Service) UpdateDoctor(ctx context.Context, id uuid.UUID, req *model.UpdateDoctorRequest) (*model.Doctor, error) {
	doctor, err := s.GetDoctor(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		doctor.Name = *req.Name
	}
	if req.Specialization != nil {
		doctor.Specialization = *req.Specialization
	}
	if req.Phone != nil {
		doctor.Phone = *req.Phone
	}
	if req.Email != nil {
		doctor.Email = optional(*req.Email)
	}

	if err := s.repo.Update(ctx, doctor); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to update doctor: %w", err))
	}
	return doctor, nil
}

func (s *Service) ToggleDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	doctor, err := s.GetDoctor(ctx, id)
	if err != nil {
		return nil, err
	}

	doctor.IsActive = !doctor.IsActive
	if err := s.repo.Update(ctx, doctor); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to toggle doctor: %w", err))
	}
	return doctor, nil
}

func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Doctor")
		}
		return apperrors.Internal(fmt.Errorf("failed to delete doctor: %w", err))
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
