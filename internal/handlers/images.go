package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"decant-boutique-backend/internal/models"
	"decant-boutique-backend/internal/services"
)

type ImagesHandler struct {
	storageService *services.StorageService
}

func NewImagesHandler(storageService *services.StorageService) *ImagesHandler {
	return &ImagesHandler{storageService: storageService}
}

// RemoveBackground godoc
// @Summary     Remove a bottle image's background
// @Description Runs background removal on the given image (or the fragrance's catalog image) and stores the transparent PNG.
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Fragrance ID"
// @Param       request body models.RemoveBackgroundRequest false "Optional source image URL"
// @Success     200 {object} models.Fragrance
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     503 {object} models.ErrorResponse
// @Router      /admin/fragrances/{id}/remove-background [post]
func (h *ImagesHandler) RemoveBackground(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req models.RemoveBackgroundRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	f, err := h.storageService.RemoveBackground(c.Request.Context(), id, req.ImageURL)
	if err != nil {
		respondError(c, err, "failed to remove background")
		return
	}
	c.JSON(http.StatusOK, f)
}

// FixImages godoc
// @Summary     Create missing cutouts
// @Description Runs background removal over fragrances without a transparent image. Failures are reported per fragrance.
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.FixImagesRequest false "Batch size (default 10, max 50)"
// @Success     200 {object} models.ImageFixResponse
// @Failure     503 {object} models.ErrorResponse
// @Router      /admin/images/fix [post]
func (h *ImagesHandler) FixImages(c *gin.Context) {
	var req models.FixImagesRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	result, err := h.storageService.FixMissing(c.Request.Context(), req.Limit)
	if err != nil {
		respondError(c, err, "failed to fix images")
		return
	}
	c.JSON(http.StatusOK, result)
}

// bindOptionalJSON accepts an empty body and rejects a malformed one.
func bindOptionalJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid request body", err)
		return false
	}
	return true
}
