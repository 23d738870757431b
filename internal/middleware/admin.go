package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"decant-boutique-backend/internal/models"
)

const ProfileKey = "profile"

type ProfileStore interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

// RequireAdmin loads the caller's profile and rejects anyone who is not an
// admin. It must run after AuthMiddleware. The client's own view of its
// admin flag is never consulted.
func RequireAdmin(profiles ProfileStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, ok := loadProfile(c, profiles)
		if !ok {
			return
		}
		if !profile.IsAdmin {
			abort(c, http.StatusForbidden, "admin access required", "")
			return
		}
		c.Next()
	}
}

// RequireOwnerOrAdmin allows the user named by the :param path parameter or
// an admin.
func RequireOwnerOrAdmin(profiles ProfileStore, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "user id not found", "")
			return
		}

		target, err := uuid.Parse(c.Param(param))
		if err != nil {
			abort(c, http.StatusBadRequest, "invalid user id", "")
			return
		}
		if target == userID {
			c.Next()
			return
		}

		profile, ok := loadProfile(c, profiles)
		if !ok {
			return
		}
		if !profile.IsAdmin {
			abort(c, http.StatusForbidden, "not allowed to edit this shelf", "")
			return
		}
		c.Next()
	}
}

// CurrentUserID returns the authenticated user's id.
func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	s, ok := raw.(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func loadProfile(c *gin.Context, profiles ProfileStore) (*models.Profile, bool) {
	userID, ok := CurrentUserID(c)
	if !ok {
		abort(c, http.StatusUnauthorized, "user id not found", "")
		return nil, false
	}

	profile, err := profiles.GetProfile(c.Request.Context(), userID)
	if errors.Is(err, models.ErrNotFound) {
		abort(c, http.StatusForbidden, "admin access required", "")
		return nil, false
	}
	if err != nil {
		abort(c, http.StatusInternalServerError, "failed to load profile", err.Error())
		return nil, false
	}

	c.Set(ProfileKey, profile)
	return profile, true
}
