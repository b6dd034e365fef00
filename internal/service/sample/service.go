package sample

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
	repo repository.SampleRepository
}

func NewService(repo repository.SampleRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetSample(ctx context.Context, id uuid.UUID) (*model.Sample, error) {
	sample, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Sample")
		}
		return nil, apperrors.Internal(err)
	}
	return sample, nil
}

func (s *Service) ListSamples(ctx context.Context, params *model.SampleListParams) (*model.SampleListResponse, error) {
	params.Normalize(10)
	samples, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if samples == nil {
		samples = []*model.Sample{}
	}
	return &model.SampleListResponse{
		Samples:    samples,
		Pagination: model.NewPagination(total, params.Page, params.Limit),
	}, nil
}

// UpdateStatus marks a sample's handling state. Moving to COLLECTED
// stamps who took the specimen and when.
func (s *Service) UpdateStatus(ctx context.Context, actorID uuid.UUID, sampleID uuid.UUID, req *model.UpdateSampleStatusRequest) (*model.Sample, error) {
	if !model.ValidSampleStatus(req.Status) {
		return nil, apperrors.Validation("Invalid sample status")
	}

	sample, err := s.GetSample(ctx, sampleID)
	if err != nil {
		return nil, err
	}

	sample.Status = req.Status
	if req.Notes != nil {
		sample.Notes = req.Notes
	}
	if req.Status == model.SampleCollected && sample.CollectedAt == nil {
		now := time.Now()
		sample.CollectedAt = &now
		sample.CollectedBy = &actorID
	}

	if err := s.repo.UpdateStatus(ctx, sample); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Sample")
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to update sample status: %w", err))
	}

	return s.GetSample(ctx, sampleID)
}
