package order

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/plms/lab-api/internal/handler"
	"github.com/plms/lab-api/internal/middleware"
	"github.com/plms/lab-api/internal/model"
	"github.com/plms/lab-api/internal/service/order"
)

type Handler struct {
	service *order.Service
}

func NewHandler(service *order.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	orders := r.Group("/orders", auth.RequireRoles(model.RoleAdmin, model.RoleLabTech, model.RolePathologist, model.RoleReceptionist))
	{
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
		orders.POST("", auth.RequireRoles(model.RoleAdmin, model.RoleLabTech, model.RoleReceptionist), h.CreateOrder)
		orders.PATCH("/:id/status", auth.RequireRoles(model.RoleAdmin, model.RoleLabTech, model.RolePathologist), h.UpdateStatus)
		orders.PATCH("/:id/results", auth.RequireRoles(model.RoleAdmin, model.RoleLabTech, model.RolePathologist), h.UpdateResults)
		orders.DELETE("/:id", auth.RequireRoles(model.RoleAdmin), h.DeleteOrder)
	}
}

func (h *Handler) CreateOrder(c *gin.Context) {
	actorID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req model.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	o, err := h.service.CreateOrder(c.Request.Context(), actorID, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, o)
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	o, err := h.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, o)
}

func (h *Handler) ListOrders(c *gin.Context) {
	var params model.OrderListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		handler.BindError(c, err)
		return
	}

	resp, err := h.service.ListOrders(c.Request.Context(), &params)
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
	actorRole, _ := middleware.RoleFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var req model.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	o, err := h.service.UpdateStatus(c.Request.Context(), actorID, actorRole, id, req.Status)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, o)
}

func (h *Handler) UpdateResults(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var req model.UpdateResultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	o, err := h.service.UpdateResults(c.Request.Context(), id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, o)
}

func (h *Handler) DeleteOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	if err := h.service.DeleteOrder(c.Request.Context(), id); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order deleted successfully"})
}
