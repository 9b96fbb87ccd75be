package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stitts-dev/tournament-sim/internal/simulator"
	"github.com/stitts-dev/tournament-sim/pkg/utils"
)

// sendSimulationError maps simulator failures onto API errors.
func sendSimulationError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, simulator.ErrInvalidArgument):
		utils.SendError(c, http.StatusBadRequest, utils.NewAppError(utils.ErrCodeInvalidArgument, "Invalid simulation input", err.Error()))
	case errors.Is(err, simulator.ErrNumericDegenerate):
		utils.SendError(c, http.StatusBadRequest, utils.NewAppError(utils.ErrCodeNumericDegenerate, "Strengths must be finite", err.Error()))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		utils.SendError(c, http.StatusServiceUnavailable, utils.NewAppError(utils.ErrCodeSimulation, "Simulation interrupted", err.Error()))
	default:
		utils.SendInternalError(c, "Simulation failed")
	}
}
