package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"decant-boutique-backend/internal/middleware"
	"decant-boutique-backend/internal/models"
)

type ProfilesHandler struct {
	profiles middleware.ProfileStore
}

func NewProfilesHandler(profiles middleware.ProfileStore) *ProfilesHandler {
	return &ProfilesHandler{profiles: profiles}
}

// GetMe godoc
// @Summary     Get the caller's profile
// @Description Returns the authenticated user's profile. The storefront uses is_admin to decide whether to show the back-office; the server re-checks it on every admin call.
// @Tags        profiles
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.Profile
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /me [get]
func (h *ProfilesHandler) GetMe(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return
	}

	profile, err := h.profiles.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to load profile")
		return
	}

	c.JSON(http.StatusOK, profile)
}
