package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jyotai-backend/internal/core"
	"jyotai-backend/internal/middleware"
	"jyotai-backend/internal/models"
)

// PredictionHandler handles reading persistence and retrieval.
type PredictionHandler struct {
	predictionService core.PredictionService
	logger            *zap.Logger
}

// NewPredictionHandler creates a new PredictionHandler.
func NewPredictionHandler(ps core.PredictionService, logger *zap.Logger) *PredictionHandler {
	return &PredictionHandler{predictionService: ps, logger: logger}
}

// mapPredictionErrorToStatus maps save and read failures. Allowance refusals are 403 with a code
// the client uses to choose between the upgrade and renewal prompts.
func mapPredictionErrorToStatus(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidPayload):
		return http.StatusBadRequest, CodeInvalidPayload
	case errors.Is(err, core.ErrLimitExceeded):
		return http.StatusForbidden, CodeLimitExceeded
	case errors.Is(err, core.ErrPlanExpired):
		return http.StatusForbidden, CodePlanExpired
	case errors.Is(err, core.ErrNoPlan), errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden, CodeForbidden
	case errors.Is(err, core.ErrUserNotFound), errors.Is(err, core.ErrPredictionNotFound):
		return http.StatusNotFound, CodeNotFound
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// OnPrediction handles POST /api/on-prediction.
// Called after the AI backend produced a reading. The body names the user, query and reading;
// the reading is stored only when the user's plan still has allowance, and one unit is spent.
// A session, when present, must belong to that user.
func (h *PredictionHandler) OnPrediction(c *gin.Context) {
	var req models.SavePredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidPayload, "Missing required fields", err)
		return
	}

	res, err := h.predictionService.Save(c.Request.Context(), c.GetString(middleware.ContextUserID), req)
	if err != nil {
		status, code := mapPredictionErrorToStatus(err)
		respondError(c, status, code, "Prediction not saved", err)
		return
	}
	c.JSON(http.StatusOK, SavePredictionResponse{Success: true, PredictionID: res.PredictionID, Remaining: res.Remaining})
}

// List handles GET /api/predictions.
// Responds {"predictions": [...]} with the caller's readings, newest first.
func (h *PredictionHandler) List(c *gin.Context) {
	predictions, err := h.predictionService.List(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		status, code := mapPredictionErrorToStatus(err)
		respondError(c, status, code, "Failed to load predictions", err)
		return
	}
	if predictions == nil {
		predictions = []*models.Prediction{}
	}
	c.JSON(http.StatusOK, gin.H{"predictions": predictions})
}

// Get handles GET /api/predictions/:id for the caller's own reading.
func (h *PredictionHandler) Get(c *gin.Context) {
	id := c.Param("id")
	view, err := h.predictionService.Get(c.Request.Context(), c.GetString(middleware.ContextUserID), id)
	if err != nil {
		status, code := mapPredictionErrorToStatus(err)
		respondError(c, status, code, "Failed to load prediction", err)
		return
	}
	c.JSON(http.StatusOK, PredictionDetailResponse{
		ID:   view.Prediction.ID,
		User: PredictionOwner{Name: view.User.Name, Email: view.User.Email},
		Prediction: PredictionDetailBody{
			Query:     view.Prediction.Query,
			Body:      view.Prediction.Reading,
			DOB:       view.Prediction.DOB,
			CreatedAt: view.Prediction.CreatedAt,
		},
	})
}
