package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/plms/lab-api/internal/model"
	"github.com/plms/lab-api/internal/repository"
	apperrors "github.com/plms/lab-api/pkg/errors"
	"github.com/plms/lab-api/pkg/security"
)

type Service struct {
	repo   repository.UserRepository
	hasher security.PasswordHasher
}

func NewService(repo repository.UserRepository, hasher security.PasswordHasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

func (s *Service) CreateUser(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	existing, err := s.repo.FindConflicting(ctx, req.Username, req.Email, nil)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}
	if existing != nil {
		if existing.Username == req.Username {
			return nil, apperrors.Conflict("Username already exists")
		}
		return nil, apperrors.Conflict("Email already exists")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	user := &model.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to create user: %w", err))
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("User")
		}
		return nil, apperrors.Internal(err)
	}
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context, params *model.UserListParams) (*model.UserListResponse, error) {
	params.Normalize(20)
	users, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if users == nil {
		users = []*model.User{}
	}
	return &model.UserListResponse{
		Users:      users,
		Pagination: model.NewPagination(total, params.Page, params.Limit),
	}, nil
}

func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Username != nil || req.Email != nil {
		existing, err := s.repo.FindConflicting(ctx, user.Username, user.Email, &id)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Internal(err)
		}
		if existing != nil {
			if existing.Username == user.Username {
				return nil, apperrors.Conflict("Username already exists")
			}
			return nil, apperrors.Conflict("Email already exists")
		}
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to update user: %w", err))
	}
	return user, nil
}

// ChangePassword lets a user change their own password with the current
// one verified; an admin may reset anyone's without it.
func (s *Service) ChangePassword(ctx context.Context, actorID uuid.UUID, actorRole model.Role, targetID uuid.UUID, req *model.ChangePasswordRequest) error {
	if actorID != targetID && actorRole != model.RoleAdmin {
		return apperrors.Forbidden("Insufficient permissions")
	}

	user, err := s.GetUser(ctx, targetID)
	if err != nil {
		return err
	}

	if actorID == targetID {
		if req.CurrentPassword == "" {
			return apperrors.Validation("Current password is required")
		}
		if err := s.hasher.Compare(user.PasswordHash, req.CurrentPassword); err != nil {
			return apperrors.Validation("Current password is incorrect")
		}
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return apperrors.Validation(err.Error())
	}

	if err := s.repo.UpdatePassword(ctx, targetID, hash); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to change password: %w", err))
	}
	return nil
}

// ToggleUser flips the active flag. An admin cannot deactivate their own
// account.
func (s *Service) ToggleUser(ctx context.Context, actorID, id uuid.UUID) (*model.User, error) {
	if actorID == id {
		return nil, apperrors.Validation("Cannot deactivate your own account")
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	user.IsActive = !user.IsActive
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to toggle user: %w", err))
	}
	return user, nil
}

// DeleteUser removes an account. An admin cannot delete their own.
func (s *Service) DeleteUser(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return apperrors.Validation("Cannot delete your own account")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("User")
		}
		return apperrors.Internal(fmt.Errorf("failed to delete user: %w", err))
	}
	return nil
}
