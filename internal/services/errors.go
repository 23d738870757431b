package services

import (
	"errors"

	"decant-boutique-backend/internal/cart"
	"decant-boutique-backend/internal/models"
)

var (
	ErrNotFound  = models.ErrNotFound
	ErrForbidden = models.ErrForbidden
	ErrConflict  = models.ErrConflict

	ErrValidation = errors.New("validation failed")
	ErrOutOfStock = cart.ErrOutOfStock

	// ErrSessionUnavailable means the payment session could not be retrieved
	// yet. Callers should retry later.
	ErrSessionUnavailable = errors.New("checkout session unavailable")

	// ErrNotConfigured is returned when an optional integration has no credentials.
	ErrNotConfigured = errors.New("integration not configured")
)
