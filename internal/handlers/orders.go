package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"decant-boutique-backend/internal/models"
	"decant-boutique-backend/internal/services"
)

type OrdersHandler struct {
	reconciler *services.Reconciler
	orders     *services.OrderService
}

func NewOrdersHandler(reconciler *services.Reconciler, orders *services.OrderService) *OrdersHandler {
	return &OrdersHandler{
		reconciler: reconciler,
		orders:     orders,
	}
}

// EnsureOrder godoc
// @Summary     Ensure an order exists for a checkout session
// @Description Called from the checkout success page. Returns the order, creating it when the webhook has not arrived yet. Responds 202 while the session cannot be retrieved.
// @Tags        orders
// @Accept      json
// @Produce     json
// @Param       request body models.EnsureOrderRequest true "Checkout session ID"
// @Success     200 {object} models.Order
// @Success     202 {object} models.PendingResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /orders/ensure [post]
func (h *OrdersHandler) EnsureOrder(c *gin.Context) {
	var req models.EnsureOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "session_id is required", err)
		return
	}

	order, err := h.reconciler.Ensure(c.Request.Context(), req.SessionID)
	if errors.Is(err, services.ErrSessionUnavailable) {
		c.JSON(http.StatusAccepted, models.PendingResponse{
			Status:  "pending",
			Message: "payment is still being confirmed, retry shortly",
		})
		return
	}
	if err != nil {
		respondError(c, err, "failed to ensure order")
		return
	}

	c.JSON(http.StatusOK, order)
}

// ListOrders godoc
// @Summary     List orders
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Param       limit query int false "Page size (default 50)"
// @Param       offset query int false "Offset"
// @Success     200 {object} models.OrderListResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Router      /admin/orders [get]
func (h *OrdersHandler) ListOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	orders, limit, offset, err := h.orders.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err, "failed to list orders")
		return
	}
	c.JSON(http.StatusOK, models.OrderListResponse{Orders: orders, Limit: limit, Offset: offset})
}

// GetOrder godoc
// @Summary     Get an order
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Order ID"
// @Success     200 {object} models.Order
// @Failure     404 {object} models.ErrorResponse
// @Router      /admin/orders/{id} [get]
func (h *OrdersHandler) GetOrder(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to get order")
		return
	}
	c.JSON(http.StatusOK, order)
}

// SetFulfilled godoc
// @Summary     Mark an order fulfilled or unfulfilled
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Order ID"
// @Param       request body models.FulfilledRequest true "Fulfilled flag"
// @Success     200 {object} models.Order
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /admin/orders/{id}/fulfilled [patch]
func (h *OrdersHandler) SetFulfilled(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.FulfilledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "fulfilled is required", err)
		return
	}

	order, err := h.orders.SetFulfilled(c.Request.Context(), id, *req.Fulfilled)
	if err != nil {
		respondError(c, err, "failed to update order")
		return
	}
	c.JSON(http.StatusOK, order)
}

// SetComment godoc
// @Summary     Set the admin comment on an order
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Order ID"
// @Param       request body models.CommentRequest true "Comment"
// @Success     200 {object} models.Order
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /admin/orders/{id}/comment [patch]
func (h *OrdersHandler) SetComment(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	order, err := h.orders.SetComment(c.Request.Context(), id, req.Comment)
	if err != nil {
		respondError(c, err, "failed to update order")
		return
	}
	c.JSON(http.StatusOK, order)
}

// PurchaseLabel godoc
// @Summary     Buy a shipping label
// @Description Rates the order's parcel with Shippo and buys the cheapest label.
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Order ID"
// @Success     200 {object} models.Order
// @Failure     400 {object} models.ErrorResponse
// @Failure     503 {object} models.ErrorResponse
// @Router      /admin/orders/{id}/label [post]
func (h *OrdersHandler) PurchaseLabel(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.PurchaseLabel(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to purchase label")
		return
	}
	c.JSON(http.StatusOK, order)
}
