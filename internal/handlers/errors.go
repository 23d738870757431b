package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"decant-boutique-backend/internal/models"
	"decant-boutique-backend/internal/payments"
	"decant-boutique-backend/internal/services"
)

// respondError maps service errors onto HTTP statuses. summary is used as
// the error field for failures the caller cannot fix.
func respondError(c *gin.Context, err error, summary string) {
	status := http.StatusInternalServerError
	errText := summary

	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrOutOfStock):
		status = http.StatusBadRequest
		errText = "invalid request"
	case errors.Is(err, payments.ErrInvalidSignature):
		status = http.StatusBadRequest
		errText = "invalid signature"
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
		errText = "forbidden"
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
		errText = "not found"
	case errors.Is(err, services.ErrConflict):
		status = http.StatusConflict
		errText = "already exists"
	case errors.Is(err, services.ErrNotConfigured):
		status = http.StatusServiceUnavailable
		errText = "not configured"
	}

	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, models.ErrorResponse{Error: errText, Message: err.Error()})
}

func badRequest(c *gin.Context, errText string, err error) {
	resp := models.ErrorResponse{Error: errText}
	if err != nil {
		resp.Message = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}
