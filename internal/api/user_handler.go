package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"jyotai-backend/internal/core"
	"jyotai-backend/internal/middleware"
)

// UserHandler handles user-profile related API endpoints.
type UserHandler struct {
	userService core.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(us core.UserService) *UserHandler {
	return &UserHandler{userService: us}
}

func mapUserErrorToStatus(err error) (int, string) {
	if errors.Is(err, core.ErrUserNotFound) {
		return http.StatusNotFound, CodeNotFound
	}
	return http.StatusInternalServerError, CodeInternal
}

// GetCurrentUserProfile handles GET /api/users/me.
// Responds with the stored profile of the session user and the allowance left on their plan.
// A verified session without a profile document yet is a 404.
func (h *UserHandler) GetCurrentUserProfile(c *gin.Context) {
	uid := c.GetString(middleware.ContextUserID)
	if uid == "" {
		respondError(c, http.StatusUnauthorized, CodeUnauthorized, "Authentication required", nil)
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), uid)
	if err != nil {
		status, code := mapUserErrorToStatus(err)
		respondError(c, status, code, "Failed to retrieve user profile", err)
		return
	}
	c.JSON(http.StatusOK, ProfileResponse{User: user, Remaining: user.Remaining(time.Now())})
}
