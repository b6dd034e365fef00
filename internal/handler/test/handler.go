package test

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/plms/lab-api/internal/handler"
	"github.com/plms/lab-api/internal/middleware"
	"github.com/plms/lab-api/internal/model"
	"github.com/plms/lab-api/internal/service/catalog"
)

type Handler struct {
	service *catalog.Service
}

func NewHandler(service *catalog.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the catalog. Reads are open to any authenticated
// staff; mutations are admin-only.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	adminOnly := auth.RequireRoles(model.RoleAdmin)

	tests := r.Group("/tests")
	{
		tests.GET("", h.ListTests)
		tests.GET("/categories", h.ListCategories)
		tests.GET("/:id", h.GetTest)

		tests.POST("", adminOnly, h.CreateTest)
		tests.PUT("/:id", adminOnly, h.UpdateTest)
		tests.PATCH("/:id/toggle", adminOnly, h.ToggleTest)
		tests.DELETE("/:id", adminOnly, h.DeleteTest)
	}
}

func (h *Handler) CreateTest(c *gin.Context) {
	var req model.CreateTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	t, err := h.service.CreateTest(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, t)
}

func (h *Handler) GetTest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid test ID"})
		return
	}

	t, err := h.service.GetTest(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, t)
}

func (h *Handler) ListTests(c *gin.Context) {
	var params model.TestListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		handler.BindError(c, err)
		return
	}

	resp, err := h.service.ListTests(c.Request.Context(), &params)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.service.ListCategories(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *Handler) UpdateTest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid test ID"})
		return
	}

	var req model.UpdateTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	t, err := h.service.UpdateTest(c.Request.Context(), id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, t)
}

func (h *Handler) ToggleTest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid test ID"})
		return
	}

	t, err := h.service.ToggleTest(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, t)
}

func (h *Handler) DeleteTest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid test ID"})
		return
	}

	if err := h.service.DeleteTest(c.Request.Context(), id); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Test deleted successfully"})
}
