package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"decant-boutique-backend/internal/models"
	"decant-boutique-backend/internal/services"
)

type AdminHandler struct {
	catalog  *services.AdminCatalogService
	importer *services.ImportService
}

func NewAdminHandler(catalog *services.AdminCatalogService, importer *services.ImportService) *AdminHandler {
	return &AdminHandler{catalog: catalog, importer: importer}
}

// CreateFragrance godoc
// @Summary     Create a fragrance
// @Description Creates a fragrance with its decant options, optionally placing it on the store shelf.
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CreateFragranceRequest true "Fragrance"
// @Success     201 {object} models.Fragrance
// @Failure     400 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /admin/fragrances [post]
func (h *AdminHandler) CreateFragrance(c *gin.Context) {
	var req models.CreateFragranceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	f, err := h.catalog.CreateFragrance(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "failed to create fragrance")
		return
	}
	c.JSON(http.StatusCreated, f)
}

// UpdateFragrance godoc
// @Summary     Update a fragrance
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Fragrance ID"
// @Param       request body models.UpdateFragranceRequest true "Fields to change"
// @Success     200 {object} models.Fragrance
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /admin/fragrances/{id} [patch]
func (h *AdminHandler) UpdateFragrance(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateFragranceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	f, err := h.catalog.UpdateFragrance(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err, "failed to update fragrance")
		return
	}
	c.JSON(http.StatusOK, f)
}

// DeleteFragrance godoc
// @Summary     Delete a fragrance
// @Description Deletes the fragrance, its decants, every shelf placement and its stored cutout.
// @Tags        admin
// @Security    Bearer
// @Param       id path string true "Fragrance ID"
// @Success     204
// @Failure     404 {object} models.ErrorResponse
// @Router      /admin/fragrances/{id} [delete]
func (h *AdminHandler) DeleteFragrance(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteFragrance(c.Request.Context(), id); err != nil {
		respondError(c, err, "failed to delete fragrance")
		return
	}
	c.Status(http.StatusNoContent)
}

// ReplaceDecants godoc
// @Summary     Replace a fragrance's decant options
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Fragrance ID"
// @Param       request body models.ReplaceDecantsRequest true "Decants"
// @Success     200 {array} models.Decant
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /admin/fragrances/{id}/decants [put]
func (h *AdminHandler) ReplaceDecants(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.ReplaceDecantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	decants, err := h.catalog.ReplaceDecants(c.Request.Context(), id, req.Decants)
	if err != nil {
		respondError(c, err, "failed to replace decants")
		return
	}
	c.JSON(http.StatusOK, decants)
}

// Import godoc
// @Summary     Bulk import fragrances
// @Description Imports a pasted collection (JSON array or "Brand | Name | Fragrantica URL | Image URL" lines). Existing fragrances are skipped.
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.ImportRequest true "Import data"
// @Success     200 {object} models.ImportResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /admin/import [post]
func (h *AdminHandler) Import(c *gin.Context) {
	var req models.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "data is required", err)
		return
	}

	result, err := h.importer.Import(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "failed to import")
		return
	}
	c.JSON(http.StatusOK, result)
}

// SetBrandOrder godoc
// @Summary     Set the storefront brand order
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.BrandOrderRequest true "Brand slugs in order"
// @Success     200 {array} models.BrandOrderEntry
// @Failure     400 {object} models.ErrorResponse
// @Router      /admin/brands/order [put]
func (h *AdminHandler) SetBrandOrder(c *gin.Context) {
	var req models.BrandOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "brands is required", err)
		return
	}

	entries, err := h.catalog.SetBrandOrder(c.Request.Context(), req.Brands)
	if err != nil {
		respondError(c, err, "failed to set brand order")
		return
	}
	c.JSON(http.StatusOK, entries)
}
