package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stitts-dev/tournament-sim/internal/models"
	"github.com/stitts-dev/tournament-sim/internal/services"
	"github.com/stitts-dev/tournament-sim/pkg/utils"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type SimulationHandler struct {
	simulations *services.SimulationService
}

func NewSimulationHandler(simulations *services.SimulationService) *SimulationHandler {
	return &SimulationHandler{simulations: simulations}
}

type runSimulationRequest struct {
	Teams    []models.Team `json:"teams" binding:"required"`
	Runs     int           `json:"runs"`
	Seed     *uint64       `json:"seed"`
	Workers  int           `json:"workers"`
	DrawMode string        `json:"draw_mode"`
}

// RunSimulation runs a Monte-Carlo batch over a 48-team field
func (h *SimulationHandler) RunSimulation(c *gin.Context) {
	var req runSimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	outcome, err := h.simulations.Run(c.Request.Context(), services.SimulationRequest{
		Teams:    req.Teams,
		Runs:     req.Runs,
		Seed:     req.Seed,
		Workers:  req.Workers,
		DrawMode: req.DrawMode,
	})
	if err != nil {
		sendSimulationError(c, err)
		return
	}

	utils.SendSuccessWithMeta(c, outcome, utils.SimulationMeta(outcome.Run.ID.String(), outcome.Run.RequestHash, outcome.Cached))
}

// GetSimulation returns a stored run
func (h *SimulationHandler) GetSimulation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "Invalid simulation ID", err.Error())
		return
	}

	outcome, err := h.simulations.Get(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.SendNotFound(c, "Simulation not found")
			return
		}
		utils.SendInternalError(c, "Failed to load simulation")
		return
	}

	utils.SendSuccessWithMeta(c, outcome, utils.SimulationMeta(outcome.Run.ID.String(), outcome.Run.RequestHash, false))
}

// ListSimulations returns the most recent runs
func (h *SimulationHandler) ListSimulations(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			utils.SendValidationError(c, "Invalid limit", "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	runs, err := h.simulations.List(limit)
	if err != nil {
		utils.SendInternalError(c, "Failed to list simulations")
		return
	}

	utils.SendSuccessWithMeta(c, runs, utils.ListMeta(len(runs), limit))
}
