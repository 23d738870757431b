package handlers

import (
	"crypto/subtle"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"decant-boutique-backend/internal/models"
	"decant-boutique-backend/internal/services"
	"decant-boutique-backend/internal/shippo"
)

// MaxWebhookBody caps webhook payloads.
const MaxWebhookBody = 1 << 20

type WebhookHandler struct {
	webhooks    *services.WebhookService
	orders      *services.OrderService
	shippoToken string
}

func NewWebhookHandler(webhooks *services.WebhookService, orders *services.OrderService, shippoToken string) *WebhookHandler {
	return &WebhookHandler{
		webhooks:    webhooks,
		orders:      orders,
		shippoToken: shippoToken,
	}
}

// HandleStripe godoc
// @Summary     Stripe webhook endpoint
// @Description Receives Stripe events. Checkout session events are reconciled into orders; the Stripe-Signature header is verified before anything else happens.
// @Tags        webhooks
// @Accept      json
// @Produce     json
// @Param       Stripe-Signature header string true "Stripe signature"
// @Success     200 {object} models.WebhookResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /webhooks/stripe [post]
func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxWebhookBody))
	if err != nil {
		badRequest(c, "failed to read request body", err)
		return
	}

	outcome, err := h.webhooks.Handle(c.Request.Context(), body, c.GetHeader("Stripe-Signature"))
	if err != nil {
		respondError(c, err, "failed to process webhook")
		return
	}

	c.JSON(http.StatusOK, models.WebhookResponse{Status: string(outcome)})
}

// HandleShippo godoc
// @Summary     Shippo tracking webhook
// @Description Updates the tracking status of the order carrying the tracking number.
// @Tags        webhooks
// @Accept      json
// @Produce     json
// @Param       token query string true "Webhook token"
// @Success     200 {object} models.WebhookResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /webhooks/shippo [post]
func (h *WebhookHandler) HandleShippo(c *gin.Context) {
	token := c.Query("token")
	if h.shippoToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.shippoToken)) != 1 {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid webhook token"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxWebhookBody))
	if err != nil {
		badRequest(c, "failed to read request body", err)
		return
	}

	event, err := shippo.ParseTrackingEvent(body)
	if err != nil {
		badRequest(c, "failed to parse event", err)
		return
	}

	updated, err := h.orders.HandleTracking(c.Request.Context(), event)
	if err != nil {
		respondError(c, err, "failed to update tracking")
		return
	}

	status := "ignored"
	if updated {
		status = "updated"
	}
	c.JSON(http.StatusOK, models.WebhookResponse{Status: status})
}
