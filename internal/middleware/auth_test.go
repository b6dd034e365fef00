package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plms/lab-api/internal/model"
	"github.com/plms/lab-api/pkg/auth"
)

type stubValidator struct {
	claims *auth.Claims
}

func (s *stubValidator) ValidateToken(_ context.Context, token string) (*auth.Claims, error) {
	if token != "good-token" {
		return nil, errors.New("invalid token")
	}
	return s.claims, nil
}

func newTestRouter(role model.Role, allowed ...model.Role) (*gin.Engine, uuid.UUID) {
	gin.SetMode(gin.TestMode)

	userID := uuid.New()
	mw := NewAuthMiddleware(&stubValidator{claims: &auth.Claims{
		UserID:   userID,
		Username: "jsmith",
		Role:     string(role),
	}})

	r := gin.New()
	group := r.Group("/", mw.Authenticate())
	if len(allowed) > 0 {
		group.Use(mw.RequireRoles(allowed...))
	}
	group.GET("/resource", func(c *gin.Context) {
		id, _ := UserIDFromContext(c)
		c.JSON(http.StatusOK, gin.H{"userId": id.String()})
	})
	return r, userID
}

func doRequest(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticateMissingHeader(t *testing.T) {
	r, _ := newTestRouter(model.RoleLabTech)

	w := doRequest(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Authentication required"}`, w.Body.String())
}

func TestAuthenticateMalformedHeader(t *testing.T) {
	r, _ := newTestRouter(model.RoleLabTech)

	w := doRequest(r, "Basic abc123")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(r, "Bearer")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateBadToken(t *testing.T) {
	r, _ := newTestRouter(model.RoleLabTech)

	w := doRequest(r, "Bearer expired-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid or expired token"}`, w.Body.String())
}

func TestAuthenticateSetsIdentity(t *testing.T) {
	r, userID := newTestRouter(model.RoleLabTech)

	w := doRequest(r, "Bearer good-token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
}

func TestRequireRolesAllows(t *testing.T) {
	r, _ := newTestRouter(model.RoleAdmin, model.RoleAdmin, model.RolePathologist)

	w := doRequest(r, "Bearer good-token")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRolesRejects(t *testing.T) {
	r, _ := newTestRouter(model.RoleReceptionist, model.RoleAdmin, model.RolePathologist)

	w := doRequest(r, "Bearer good-token")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Insufficient permissions"}`, w.Body.String())
}
