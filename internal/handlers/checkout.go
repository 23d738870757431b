package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"decant-boutique-backend/internal/models"
	"decant-boutique-backend/internal/services"
)

type CheckoutHandler struct {
	checkout  *services.CheckoutService
	discounts *services.DiscountService
}

func NewCheckoutHandler(checkout *services.CheckoutService, discounts *services.DiscountService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, discounts: discounts}
}

// ValidateCart godoc
// @Summary     Validate a cart against live stock
// @Description Clamps every line to the remaining stock of its decant and lists the lines that changed.
// @Tags        cart
// @Accept      json
// @Produce     json
// @Param       request body models.CartValidateRequest true "Cart items"
// @Success     200 {object} models.CartValidateResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /cart/validate [post]
func (h *CheckoutHandler) ValidateCart(c *gin.Context) {
	var req models.CartValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	clamped, problems, err := h.checkout.ValidateCart(c.Request.Context(), req.Items)
	if err != nil {
		respondError(c, err, "failed to validate cart")
		return
	}

	c.JSON(http.StatusOK, models.CartValidateResponse{
		Valid:    len(problems) == 0,
		Items:    clamped.Lines,
		Problems: problems,
	})
}

// CreateCheckout godoc
// @Summary     Start checkout
// @Description Prices the cart from the catalog and opens a hosted Stripe checkout session.
// @Tags        checkout
// @Accept      json
// @Produce     json
// @Param       request body models.CheckoutRequest true "Cart, buyer and optional discount code"
// @Success     200 {object} models.CheckoutResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /checkout [post]
func (h *CheckoutHandler) CreateCheckout(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	session, err := h.checkout.CreateSession(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "failed to create checkout session")
		return
	}

	c.JSON(http.StatusOK, models.CheckoutResponse{URL: session.URL, SessionID: session.ID})
}

// ValidateDiscount godoc
// @Summary     Validate a discount code
// @Tags        checkout
// @Accept      json
// @Produce     json
// @Param       request body models.DiscountValidateRequest true "Code and cart subtotal"
// @Success     200 {object} models.DiscountValidateResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /discounts/validate [post]
func (h *CheckoutHandler) ValidateDiscount(c *gin.Context) {
	var req models.DiscountValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	discount, err := h.discounts.Validate(c.Request.Context(), req.Code, req.SubtotalCents)
	if err != nil {
		var rejection *services.Rejection
		if errors.As(err, &rejection) {
			c.JSON(http.StatusOK, models.DiscountValidateResponse{Valid: false, Reason: rejection.Reason})
			return
		}
		respondError(c, err, "failed to validate discount")
		return
	}

	c.JSON(http.StatusOK, models.DiscountValidateResponse{Valid: true, Discount: discount})
}
