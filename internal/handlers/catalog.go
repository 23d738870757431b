package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"decant-boutique-backend/internal/models"
	"decant-boutique-backend/internal/services"
)

type CatalogHandler struct {
	catalog *services.CatalogService
}

func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListFragrances godoc
// @Summary     List fragrances
// @Description Lists every fragrance with its decant options, optionally filtered by brand.
// @Tags        catalog
// @Produce     json
// @Param       brand query string false "Brand name or slug"
// @Success     200 {object} models.FragranceListResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /fragrances [get]
func (h *CatalogHandler) ListFragrances(c *gin.Context) {
	fragrances, err := h.catalog.ListFragrances(c.Request.Context(), c.Query("brand"))
	if err != nil {
		respondError(c, err, "failed to list fragrances")
		return
	}
	c.JSON(http.StatusOK, models.FragranceListResponse{Fragrances: fragrances})
}

// GetFragrance godoc
// @Summary     Get a fragrance
// @Tags        catalog
// @Produce     json
// @Param       id path string true "Fragrance ID"
// @Success     200 {object} models.Fragrance
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /fragrances/{id} [get]
func (h *CatalogHandler) GetFragrance(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	f, err := h.catalog.GetFragrance(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to get fragrance")
		return
	}
	c.JSON(http.StatusOK, f)
}

// ListBrands godoc
// @Summary     List brands
// @Description Groups fragrances by brand in storefront order.
// @Tags        catalog
// @Produce     json
// @Success     200 {object} models.BrandListResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /brands [get]
func (h *CatalogHandler) ListBrands(c *gin.Context) {
	brands, err := h.catalog.Brands(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to list brands")
		return
	}
	c.JSON(http.StatusOK, models.BrandListResponse{Brands: brands})
}

// GetShelf godoc
// @Summary     Get a boutique shelf
// @Description Returns a user's shelf placements and brand canvas positions.
// @Tags        catalog
// @Produce     json
// @Param       user_id path string true "User ID"
// @Success     200 {object} models.ShelfResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /shelves/{user_id} [get]
func (h *CatalogHandler) GetShelf(c *gin.Context) {
	userID, ok := uuidParam(c, "user_id")
	if !ok {
		return
	}
	shelf, err := h.catalog.Shelf(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to load shelf")
		return
	}
	c.JSON(http.StatusOK, shelf)
}
