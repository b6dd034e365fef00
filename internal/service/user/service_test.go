package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plms/lab-api/internal/model"
	"github.com/plms/lab-api/internal/repository"
	apperrors "github.com/plms/lab-api/pkg/errors"
	"github.com/plms/lab-api/pkg/security"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) FindConflicting(_ context.Context, username, email string, excludeID *uuid.UUID) (*model.User, error) {
	for _, u := range r.users {
		if excludeID != nil && u.ID == *excludeID {
			continue
		}
		if u.Username == username || u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, u *model.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.LastLogin = &at
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, _ *model.UserListParams) ([]*model.User, int, error) {
	out := make([]*model.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func newTestService() (*Service, *fakeUserRepo) {
	repo := newFakeUserRepo()
	return NewService(repo, security.NewBcryptHasher(4)), repo
}

func seedUser(t *testing.T, svc *Service, username, email string, role model.Role) *model.User {
	t.Helper()
	u, err := svc.CreateUser(context.Background(), &model.CreateUserRequest{
		Username:  username,
		Email:     email,
		Password:  "secret123",
		Role:      role,
		FirstName: "Test",
		LastName:  "User",
	})
	require.NoError(t, err)
	return u
}

func TestCreateUserConflicts(t *testing.T) {
	svc, _ := newTestService()
	seedUser(t, svc, "jsmith", "jsmith@lab.local", model.RoleLabTech)

	_, err := svc.CreateUser(context.Background(), &model.CreateUserRequest{
		Username: "jsmith", Email: "other@lab.local", Password: "secret123",
		Role: model.RoleLabTech, FirstName: "J", LastName: "S",
	})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
	assert.Equal(t, "Username already exists", appErr.Message)

	_, err = svc.CreateUser(context.Background(), &model.CreateUserRequest{
		Username: "other", Email: "jsmith@lab.local", Password: "secret123",
		Role: model.RoleLabTech, FirstName: "J", LastName: "S",
	})
	require.Error(t, err)
	appErr, ok = apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Email already exists", appErr.Message)
}

func TestCreateUserHashesPassword(t *testing.T) {
	svc, repo := newTestService()
	u := seedUser(t, svc, "jsmith", "jsmith@lab.local", model.RoleLabTech)

	stored := repo.users[u.ID]
	assert.NotEqual(t, "secret123", stored.PasswordHash)
	assert.True(t, stored.IsActive)
}

func TestToggleUserSelfProtection(t *testing.T) {
	svc, _ := newTestService()
	admin := seedUser(t, svc, "admin", "admin@lab.local", model.RoleAdmin)
	tech := seedUser(t, svc, "tech", "tech@lab.local", model.RoleLabTech)

	_, err := svc.ToggleUser(context.Background(), admin.ID, admin.ID)
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)

	toggled, err := svc.ToggleUser(context.Background(), admin.ID, tech.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)
}

func TestDeleteUserSelfProtection(t *testing.T) {
	svc, repo := newTestService()
	admin := seedUser(t, svc, "admin", "admin@lab.local", model.RoleAdmin)
	tech := seedUser(t, svc, "tech", "tech@lab.local", model.RoleLabTech)

	err := svc.DeleteUser(context.Background(), admin.ID, admin.ID)
	require.Error(t, err)

	err = svc.DeleteUser(context.Background(), admin.ID, tech.ID)
	require.NoError(t, err)
	_, ok := repo.users[tech.ID]
	assert.False(t, ok)
}

func TestChangePasswordSelfRequiresCurrent(t *testing.T) {
	svc, _ := newTestService()
	tech := seedUser(t, svc, "tech", "tech@lab.local", model.RoleLabTech)

	err := svc.ChangePassword(context.Background(), tech.ID, model.RoleLabTech, tech.ID, &model.ChangePasswordRequest{
		NewPassword: "newsecret",
	})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)

	err = svc.ChangePassword(context.Background(), tech.ID, model.RoleLabTech, tech.ID, &model.ChangePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "newsecret",
	})
	require.Error(t, err)

	err = svc.ChangePassword(context.Background(), tech.ID, model.RoleLabTech, tech.ID, &model.ChangePasswordRequest{
		CurrentPassword: "secret123",
		NewPassword:     "newsecret",
	})
	require.NoError(t, err)
}

func TestChangePasswordAdminReset(t *testing.T) {
	svc, _ := newTestService()
	admin := seedUser(t, svc, "admin", "admin@lab.local", model.RoleAdmin)
	tech := seedUser(t, svc, "tech", "tech@lab.local", model.RoleLabTech)

	// Admin resets without the current password.
	err := svc.ChangePassword(context.Background(), admin.ID, model.RoleAdmin, tech.ID, &model.ChangePasswordRequest{
		NewPassword: "resetsecret",
	})
	require.NoError(t, err)

	// A non-admin cannot touch someone else's password.
	err = svc.ChangePassword(context.Background(), tech.ID, model.RoleLabTech, admin.ID, &model.ChangePasswordRequest{
		NewPassword: "sneaky123",
	})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrForbidden, appErr.Code)
}

func TestUpdateUserConflictExcludesSelf(t *testing.T) {
	svc, _ := newTestService()
	tech := seedUser(t, svc, "tech", "tech@lab.local", model.RoleLabTech)
	seedUser(t, svc, "other", "other@lab.local", model.RoleLabTech)

	// Re-submitting your own username is not a conflict.
	same := "tech"
	_, err := svc.UpdateUser(context.Background(), tech.ID, &model.UpdateUserRequest{Username: &same})
	require.NoError(t, err)

	// Taking another account's username is.
	taken := "other"
	_, err = svc.UpdateUser(context.Background(), tech.ID, &model.UpdateUserRequest{Username: &taken})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
}
