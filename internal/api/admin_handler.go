package api

import (
	"crypto/subtle"
	"errors"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"go.uber.org/zap"

	"jyotai-backend/internal/core"
	"jyotai-backend/internal/middleware"
	"jyotai-backend/internal/models"
)

//go:embed templates/admin.html
var templateFS embed.FS

var adminPage = template.Must(template.New("admin.html").Funcs(template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.UTC().Format("2006-01-02")
	},
}).ParseFS(templateFS, "templates/admin.html"))

// dashboardPath is where form posts from the dashboard land after success.
const dashboardPath = "/admin"

// AdminHandler handles the admin dashboard and user management endpoints.
type AdminHandler struct {
	adminService core.AdminService
	authService  core.AuthService
	setupSecret  string
	logger       *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(ads core.AdminService, as core.AuthService, setupSecret string, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{adminService: ads, authService: as, setupSecret: setupSecret, logger: logger}
}

// mapAdminErrorToStatus maps user-management and bootstrap failures.
func mapAdminErrorToStatus(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrUnknownOperation), errors.Is(err, core.ErrInvalidPayload):
		return http.StatusBadRequest, CodeInvalidPayload
	case errors.Is(err, core.ErrInvalidEmail):
		return http.StatusBadRequest, CodeInvalidEmail
	case errors.Is(err, core.ErrUserNotFound):
		return http.StatusNotFound, CodeNotFound
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

type dashboardRow struct {
	*models.User
	Allowance int
}

// Dashboard handles GET /admin.
// Renders the user table with each user's remaining allowance and the forms that post to
// add-credits and set-plan.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	users, err := h.adminService.ListUsers(c.Request.Context())
	if err != nil {
		status, code := mapAdminErrorToStatus(err)
		respondError(c, status, code, "Failed to list users", err)
		return
	}
	now := time.Now()
	rows := make([]dashboardRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, dashboardRow{User: u, Allowance: u.Remaining(now)})
	}
	ident, _ := middleware.IdentityFrom(c)
	c.Render(http.StatusOK, render.HTML{
		Template: adminPage,
		Name:     "admin.html",
		Data:     gin.H{"Users": rows, "Admin": ident},
	})
}

// ListUsers handles GET /api/admin/users.
// Responds {"users": [...]} ordered by creation time, newest first.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.adminService.ListUsers(c.Request.Context())
	if err != nil {
		status, code := mapAdminErrorToStatus(err)
		respondError(c, status, code, "Failed to list users", err)
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// ApplyUserOp handles POST /api/admin/users.
// Request body: {"uid": "...", "op": "makePremium" | "makeStandard" | "addCredit"}.
// Responds with the user as stored afterwards.
func (h *AdminHandler) ApplyUserOp(c *gin.Context) {
	var req models.AdminUserOpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidPayload, "uid and op are required", err)
		return
	}
	user, err := h.adminService.ApplyOp(c.Request.Context(), req.UID, req.Op)
	if err != nil {
		status, code := mapAdminErrorToStatus(err)
		respondError(c, status, code, "Operation failed", err)
		return
	}
	h.logger.Info("Admin user operation",
		zap.String("admin", c.GetString(middleware.ContextUserID)),
		zap.String("uid", req.UID),
		zap.String("op", req.Op),
	)
	c.JSON(http.StatusOK, AdminUserOpResponse{OK: true, User: user})
}

// AddCredits handles POST /api/admin/add-credits from the dashboard form or JSON.
// delta defaults to 1 and may be negative. Redirects back to the dashboard.
func (h *AdminHandler) AddCredits(c *gin.Context) {
	var req models.AdminAddCreditsRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidPayload, "uid is required", err)
		return
	}
	delta := 1
	if req.Delta != nil {
		delta = *req.Delta
	}
	if err := h.adminService.AddCredits(c.Request.Context(), req.UID, delta); err != nil {
		status, code := mapAdminErrorToStatus(err)
		respondError(c, status, code, "Failed to add credits", err)
		return
	}
	c.Redirect(http.StatusSeeOther, dashboardPath)
}

// SetPlan handles POST /api/admin/set-plan.
// Switching to premium starts a fresh period; switching to standard keeps the credit balance.
// Redirects back to the dashboard.
func (h *AdminHandler) SetPlan(c *gin.Context) {
	var req models.AdminSetPlanRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidPayload, "uid is required", err)
		return
	}
	if err := h.adminService.SetPlan(c.Request.Context(), req.UID, req.Plan); err != nil {
		status, code := mapAdminErrorToStatus(err)
		respondError(c, status, code, "Failed to set plan", err)
		return
	}
	c.Redirect(http.StatusSeeOther, dashboardPath)
}

// WhoAmI handles GET /api/admin/whoami and reports the session behind the request.
func (h *AdminHandler) WhoAmI(c *gin.Context) {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, CodeUnauthorized, "No session", nil)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(ident))
}

// MakeAdmin handles POST /api/admin/make-admin. It is a bootstrap endpoint guarded by the
// X-Setup-Secret header instead of a session.
func (h *AdminHandler) MakeAdmin(c *gin.Context) {
	if h.setupSecret == "" {
		respondError(c, http.StatusInternalServerError, CodeInternal, "ADMIN_SETUP_SECRET not set on server", nil)
		return
	}
	provided := c.GetHeader("X-Setup-Secret")
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.setupSecret)) != 1 {
		respondError(c, http.StatusUnauthorized, CodeUnauthorized, "Unauthorized", nil)
		return
	}

	var req models.MakeAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidPayload, "email required", err)
		return
	}
	ident, err := h.authService.GrantAdmin(c.Request.Context(), req.Email)
	if err != nil {
		status, code := mapAdminErrorToStatus(err)
		respondError(c, status, code, "Failed to grant admin", err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(ident))
}
