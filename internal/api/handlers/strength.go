package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"
	"gorm.io/gorm"

	"github.com/stitts-dev/tournament-sim/internal/odds"
	"github.com/stitts-dev/tournament-sim/internal/services"
	"github.com/stitts-dev/tournament-sim/pkg/utils"
)

type StrengthHandler struct {
	strengths *services.StrengthService
}

func NewStrengthHandler(strengths *services.StrengthService) *StrengthHandler {
	return &StrengthHandler{strengths: strengths}
}

type computeStrengthsRequest struct {
	Outcomes []odds.Outcome `json:"outcomes" binding:"required,min=1"`
}

// ComputeStrengths derives strengths from submitted outright prices and stores them
func (h *StrengthHandler) ComputeStrengths(c *gin.Context) {
	var req computeStrengthsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	snapshot, err := h.strengths.FromOutcomes(c.Request.Context(), services.SourceManual, req.Outcomes)
	if err != nil {
		if errors.Is(err, odds.ErrInvalidOdds) || errors.Is(err, odds.ErrNoOutcomes) {
			utils.SendValidationError(c, "Invalid odds", err.Error())
			return
		}
		utils.SendInternalError(c, "Failed to compute strengths")
		return
	}

	utils.SendSuccess(c, snapshot)
}

// GetLatestStrengths returns the newest stored snapshot
func (h *StrengthHandler) GetLatestStrengths(c *gin.Context) {
	snapshot, err := h.strengths.Latest(c.Request.Context())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.SendNotFound(c, "No strength snapshot available")
			return
		}
		utils.SendInternalError(c, "Failed to load strengths")
		return
	}

	utils.SendSuccess(c, snapshot)
}

// RefreshStrengths fetches outright odds now
func (h *StrengthHandler) RefreshStrengths(c *gin.Context) {
	snapshot, err := h.strengths.Refresh(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		switch {
		case errors.Is(err, odds.ErrMissingAPIKey):
			utils.SendUnavailable(c, "Odds provider not configured")
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			utils.SendUnavailable(c, "Odds provider temporarily disabled")
		case errors.Is(err, odds.ErrInvalidOdds), errors.Is(err, odds.ErrNoOutcomes):
			utils.SendError(c, http.StatusBadGateway, utils.NewAppError(utils.ErrCodeUpstream, "Odds provider returned unusable prices", err.Error()))
		default:
			utils.SendBadGateway(c, "Failed to fetch odds", err.Error())
		}
		return
	}

	utils.SendSuccess(c, snapshot)
}
