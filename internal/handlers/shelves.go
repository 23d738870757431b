package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"decant-boutique-backend/internal/models"
	"decant-boutique-backend/internal/services"
)

type ShelvesHandler struct {
	shelves *services.ShelfService
}

func NewShelvesHandler(shelves *services.ShelfService) *ShelvesHandler {
	return &ShelvesHandler{shelves: shelves}
}

// UpdateLinks godoc
// @Summary     Rearrange a shelf
// @Description Updates the placement of fragrances already on the user's shelf. Allowed for the shelf owner or an admin.
// @Tags        shelves
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       user_id path string true "Shelf owner ID"
// @Param       request body models.ShelfLinksRequest true "Placements"
// @Success     200 {array} models.ShelfLink
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /shelves/{user_id}/links [put]
func (h *ShelvesHandler) UpdateLinks(c *gin.Context) {
	userID, ok := uuidParam(c, "user_id")
	if !ok {
		return
	}
	var req models.ShelfLinksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "links is required", err)
		return
	}

	links, err := h.shelves.UpdateLinks(c.Request.Context(), userID, req.Links)
	if err != nil {
		respondError(c, err, "failed to update shelf")
		return
	}
	c.JSON(http.StatusOK, links)
}

// SetBrandPosition godoc
// @Summary     Place a brand on the canvas
// @Tags        shelves
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       user_id path string true "Shelf owner ID"
// @Param       brand_slug path string true "Brand slug"
// @Param       request body models.BrandPositionRequest true "Position in percent"
// @Success     200 {object} models.BrandPosition
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Router      /shelves/{user_id}/brands/{brand_slug} [put]
func (h *ShelvesHandler) SetBrandPosition(c *gin.Context) {
	userID, ok := uuidParam(c, "user_id")
	if !ok {
		return
	}
	var req models.BrandPositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "x_pct and y_pct are required", err)
		return
	}

	position, err := h.shelves.SetBrandPosition(c.Request.Context(), userID, c.Param("brand_slug"), req)
	if err != nil {
		respondError(c, err, "failed to set brand position")
		return
	}
	c.JSON(http.StatusOK, position)
}
