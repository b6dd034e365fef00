package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/plms/lab-api/internal/model"
	"github.com/plms/lab-api/internal/repository"
	apperrors "github.com/plms/lab-api/pkg/errors"
)

const categoriesCacheKey = "test_categories"

// Service manages the lab test catalog. Category listings are cached
// briefly since the catalog changes rarely and every order form loads
// them.
type Service struct {
	repo  repository.TestRepository
	cache *cache.Cache
}

func NewService(repo repository.TestRepository) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(time.Minute, 5*time.Minute),
	}
}

func (s *Service) CreateTest(ctx context.Context, req *model.CreateTestRequest) (*model.Test, error) {
	if !req.Price.IsPositive() {
		return nil, apperrors.Validation("Price must be positive")
	}

	existing, err := s.repo.GetByCode(ctx, req.Code, nil)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}
	if existing != nil {
		return nil, apperrors.Conflict("Test code already exists")
	}

	test := &model.Test{
		ID:            uuid.New(),
		Name:          req.Name,
		Code:          req.Code,
		Category:      req.Category,
		Price:         req.Price,
		SampleType:    req.SampleType,
		ContainerType: req.ContainerType,
		NormalRange:   optional(req.NormalRange),
		Unit:          optional(req.Unit),
		IsActive:      true,
	}

	if err := s.repo.Create(ctx, test); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to create test: %w", err))
	}
	s.cache.Delete(categoriesCacheKey)
	return test, nil
}

func (s *Service) GetTest(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	test, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Test")
		}
		return nil, apperrors.Internal(err)
	}
	return test, nil
}

func (s *Service) ListTests(ctx context.Context, params *model.TestListParams) (*model.TestListResponse, error) {
	params.Normalize(50)
	tests, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if tests == nil {
		tests = []*model.Test{}
	}
	return &model.TestListResponse{
		Tests:      tests,
		Pagination: model.NewPagination(total, params.Page, params.Limit),
	}, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]string, error) {
	if cached, found := s.cache.Get(categoriesCacheKey); found {
		return cached.([]string), nil
	}

	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if categories == nil {
		categories = []string{}
	}

	s.cache.Set(categoriesCacheKey, categories, cache.DefaultExpiration)
	return categories, nil
}

func (s *Service) UpdateTest(ctx context.Context, id uuid.UUID, req *model.UpdateTestRequest) (*model.Test, error) {
	test, err := s.GetTest(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Code != nil {
		existing, err := s.repo.GetByCode(ctx, *req.Code, &id)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Internal(err)
		}
		if existing != nil {
			return nil, apperrors.Conflict("Test code already exists")
		}
		test.Code = *req.Code
	}
	if req.Name != nil {
		test.Name = *req.Name
	}
	if req.Category != nil {
		test.Category = *req.Category
	}
	if req.Price != nil {
		if !req.Price.IsPositive() {
			return nil, apperrors.Validation("Price must be positive")
		}
		test.Price = *req.Price
	}
	if req.SampleType != nil {
		test.SampleType = *req.SampleType
	}
	if req.ContainerType != nil {
		test.ContainerType = *req.ContainerType
	}
	if req.NormalRange != nil {
		test.NormalRange = optional(*req.NormalRange)
	}
	if req.Unit != nil {
		test.Unit = optional(*req.Unit)
	}

	if err := s.repo.Update(ctx, test); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to update test: %w", err))
	}
	s.cache.Delete(categoriesCacheKey)
	return test, nil
}

func (s *Service) ToggleTest(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	test, err := s.GetTest(ctx, id)
	if err != nil {
		return nil, err
	}

	test.IsActive = !test.IsActive
	if err := s.repo.Update(ctx, test); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to toggle test: %w", err))
	}
	s.cache.Delete(categoriesCacheKey)
	return test, nil
}

// DeleteTest refuses to remove a test any order references; the order
// history must stay priceable.
func (s *Service) DeleteTest(ctx context.Context, id uuid.UUID) error {
	inUse, err := s.repo.InUse(ctx, id)
	if err != nil {
		return apperrors.Internal(err)
	}
	if inUse {
		return apperrors.Conflict("Cannot delete test that is used in orders")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Test")
		}
		return apperrors.Internal(fmt.Errorf("failed to delete test: %w", err))
	}
	s.cache.Delete(categoriesCacheKey)
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
