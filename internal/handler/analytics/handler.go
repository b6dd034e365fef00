package analytics

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/plms/lab-api/internal/handler"
	"github.com/plms/lab-api/internal/middleware"
	"github.com/plms/lab-api/internal/model"
	"github.com/plms/lab-api/internal/service/analytics"
)

type Handler struct {
	service *analytics.Service
}

func NewHandler(service *analytics.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	group := r.Group("/analytics", auth.RequireRoles(model.RoleAdmin, model.RolePathologist))
	{
		group.GET("/dashboard", h.Dashboard)
		group.GET("/revenue", h.Revenue)
	}
}

func (h *Handler) Dashboard(c *gin.Context) {
	dashboard, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

func (h *Handler) Revenue(c *gin.Context) {
	points, err := h.service.Revenue(c.Request.Context(), c.Query("period"))
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"revenue": points})
}
