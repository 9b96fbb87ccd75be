package api

import (
	"github.com/gin-gonic/gin"

	"github.com/stitts-dev/tournament-sim/internal/api/handlers"
	"github.com/stitts-dev/tournament-sim/internal/services"
)

// SetupRoutes configures all API routes on the given router group
func SetupRoutes(group *gin.RouterGroup, simulations *services.SimulationService, strengths *services.StrengthService) {
	simulationHandler := handlers.NewSimulationHandler(simulations)
	probabilityHandler := handlers.NewProbabilityHandler()
	strengthHandler := handlers.NewStrengthHandler(strengths)

	// Simulation endpoints
	group.POST("/simulations", simulationHandler.RunSimulation)
	group.GET("/simulations", simulationHandler.ListSimulations)
	group.GET("/simulations/:id", simulationHandler.GetSimulation)

	// Match model
	group.GET("/win-probability", probabilityHandler.GetWinProbability)

	// Strength endpoints
	group.POST("/strengths", strengthHandler.ComputeStrengths)
	group.GET("/strengths/latest", strengthHandler.GetLatestStrengths)
	group.POST("/strengths/refresh", strengthHandler.RefreshStrengths)
}

// SetupProbes registers liveness, readiness and the event stream at the root
func SetupProbes(router *gin.Engine, health *handlers.HealthHandler, hub *services.WebSocketHub) {
	router.GET("/health", health.GetHealth)
	router.GET("/ready", health.GetReady)
	router.GET("/ws", hub.HandleWebSocket)
}
