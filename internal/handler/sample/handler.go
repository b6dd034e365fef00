package sample

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/plms/lab-api/internal/handler"
	"github.com/plms/lab-api/internal/middleware"
	"github.com/plms/lab-api/internal/model"
	"github.com/plms/lab-api/internal/service/sample"
)

type Handler struct {
	service *sample.Service
}

func NewHandler(service *sample.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	samples := r.Group("/samples", auth.RequireRoles(model.RoleAdmin, model.RoleLabTech, model.RolePathologist))
	{
		samples.GET("", h.ListSamples)
		samples.GET("/:id", h.GetSample)
		samples.PATCH("/:id/status", h.UpdateStatus)
	}
}

func (h *Handler) GetSample(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sample ID"})
		return
	}

	s, err := h.service.GetSample(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, s)
}

func (h *Handler) ListSamples(c *gin.Context) {
	var params model.SampleListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		handler.BindError(c, err)
		return
	}

	resp, err := h.service.ListSamples(c.Request.Context(), &params)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	actorID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sample ID"})
		return
	}

	var req model.UpdateSampleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	s, err := h.service.UpdateStatus(c.Request.Context(), actorID, id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, s)
}
