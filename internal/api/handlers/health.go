package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stitts-dev/tournament-sim/internal/services"
	"github.com/stitts-dev/tournament-sim/pkg/database"
)

type HealthHandler struct {
	db        *database.DB
	cache     *services.CacheService
	hub       *services.WebSocketHub
	refresher *services.OddsRefresher
}

// NewHealthHandler creates the probe handler. cache, hub and refresher may be nil.
func NewHealthHandler(db *database.DB, cache *services.CacheService, hub *services.WebSocketHub, refresher *services.OddsRefresher) *HealthHandler {
	return &HealthHandler{
		db:        db,
		cache:     cache,
		hub:       hub,
		refresher: refresher,
	}
}

// GetHealth returns basic health status - always returns 200 if server is running
func (h *HealthHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"time":    time.Now().UTC(),
		"service": "tournament-sim",
	})
}

// GetReady returns 200 only when the database and cache answer
func (h *HealthHandler) GetReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	ready := true

	if err := h.db.HealthCheck(); err != nil {
		checks["database"] = err.Error()
		ready = false
	} else {
		checks["database"] = "ok"
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			checks["redis"] = err.Error()
			ready = false
		} else {
			checks["redis"] = "ok"
		}
	}

	body := gin.H{"checks": checks}
	if h.hub != nil {
		body["websocket_clients"] = h.hub.GetConnectionCount()
	}
	if h.refresher != nil {
		body["odds_refresher"] = h.refresher.GetStatus()
	}

	if ready {
		body["status"] = "ready"
		c.JSON(http.StatusOK, body)
		return
	}
	body["status"] = "not_ready"
	c.JSON(http.StatusServiceUnavailable, body)
}
