package handler

import (
	"net/http"

	"kioskpos/internal/dto"
	"kioskpos/internal/middleware"
	"kioskpos/internal/model"
	"kioskpos/internal/service"

	"github.com/gin-gonic/gin"
)

type OrdersHandler struct{ svc service.OrderService }

func NewOrdersHandler(svc service.OrderService) *OrdersHandler { return &OrdersHandler{svc: svc} }

// Create numbers, totals and stores a new pending order, then queues its
// kitchen ticket.
func (h *OrdersHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// UpdateStatus moves an order one step forward on behalf of the caller's role.
func (h *OrdersHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}

	var actor model.Role
	if identity := middleware.GetIdentity(c); identity != nil {
		actor = identity.Role
	}
	resp, err := h.svc.Transition(c.Request.Context(), id, req.Status, actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Commande supprimée"})
}

func (h *OrdersHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) ListByStatus(c *gin.Context) {
	resp, err := h.svc.ListByStatus(c.Request.Context(), c.Param("status"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetByNumber returns the most recent order carrying the number, since
// numbers restart every day.
func (h *OrdersHandler) GetByNumber(c *gin.Context) {
	resp, err := h.svc.GetByNumber(c.Request.Context(), c.Param("orderNumber"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
