package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plms/lab-api/internal/model"
	"github.com/plms/lab-api/internal/repository"
	"github.com/plms/lab-api/pkg/auth"
	apperrors "github.com/plms/lab-api/pkg/errors"
	"github.com/plms/lab-api/pkg/security"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
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

func (r *fakeUserRepo) FindConflicting(_ context.Context, _, _ string, _ *uuid.UUID) (*model.User, error) {
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, _ *model.User) error { return nil }

func (r *fakeUserRepo) UpdatePassword(_ context.Context, _ uuid.UUID, _ string) error { return nil }

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.LastLogin = &at
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, _ uuid.UUID) error { return nil }

func (r *fakeUserRepo) List(_ context.Context, _ *model.UserListParams) ([]*model.User, int, error) {
	return nil, 0, nil
}

func newFixture(t *testing.T) (*Service, *model.User) {
	t.Helper()

	hasher := security.NewBcryptHasher(4)
	hash, err := hasher.Hash("secret123")
	require.NoError(t, err)

	user := &model.User{
		ID:           uuid.New(),
		Username:     "jsmith",
		Email:        "jsmith@lab.local",
		PasswordHash: hash,
		Role:         model.RoleLabTech,
		FirstName:    "John",
		LastName:     "Smith",
		IsActive:     true,
	}
	repo := &fakeUserRepo{users: map[uuid.UUID]*model.User{user.ID: user}}

	jwtSvc := auth.NewJWTService("test-secret", time.Hour)
	return NewService(repo, jwtSvc, hasher), user
}

func TestLoginSuccess(t *testing.T) {
	svc, user := newFixture(t)

	resp, err := svc.Login(context.Background(), "jsmith", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.NotNil(t, resp.User.LastLogin, "successful login records the timestamp")

	claims, err := svc.ValidateToken(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, string(model.RoleLabTech), claims.Role)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, user := newFixture(t)

	cases := map[string]func() error{
		"unknown username": func() error {
			_, err := svc.Login(context.Background(), "nobody", "secret123")
			return err
		},
		"wrong password": func() error {
			_, err := svc.Login(context.Background(), "jsmith", "wrong")
			return err
		},
		"inactive account": func() error {
			user.IsActive = false
			_, err := svc.Login(context.Background(), "jsmith", "secret123")
			return err
		},
	}

	for name, login := range cases {
		t.Run(name, func(t *testing.T) {
			err := login()
			require.Error(t, err)
			appErr, ok := apperrors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrUnauthorized, appErr.Code)
			assert.Equal(t, "Invalid credentials", appErr.Message)
		})
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := newFixture(t)

	_, err := svc.ValidateToken(context.Background(), "not-a-token")
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrUnauthorized, appErr.Code)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc, user := newFixture(t)

	other := auth.NewJWTService("different-secret", time.Hour)
	token, err := other.GenerateToken(user.ID, user.Username, string(user.Role))
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), token)
	assert.Error(t, err)
}
