package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/plms/lab-api/pkg/errors"
)

func serve(err error) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		Error(c, err)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	return w
}

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		body   string
	}{
		{apperrors.Validation("Invalid date of birth"), http.StatusBadRequest, `{"error":"Invalid date of birth"}`},
		{apperrors.Unauthorized("Invalid credentials"), http.StatusUnauthorized, `{"error":"Invalid credentials"}`},
		{apperrors.Forbidden("Insufficient permissions"), http.StatusForbidden, `{"error":"Insufficient permissions"}`},
		{apperrors.NotFound("Patient"), http.StatusNotFound, `{"error":"Patient not found"}`},
		{apperrors.Conflict("Test code already exists"), http.StatusConflict, `{"error":"Test code already exists"}`},
	}

	for _, tc := range cases {
		w := serve(tc.err)
		assert.Equal(t, tc.status, w.Code)
		assert.JSONEq(t, tc.body, w.Body.String())
	}
}

func TestErrorHidesInternalCause(t *testing.T) {
	w := serve(errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "pq:")
}
