package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mergewarden/mergewarden/consts"
	"github.com/mergewarden/mergewarden/internal/database"
)

// HealthHandler serves liveness and status endpoints
type HealthHandler struct{}

// NewHealthHandler creates a health handler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Health is the liveness probe
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Status reports version, uptime, and database health
func (h *HealthHandler) Status(c *gin.Context) {
	dbStatus := "ok"
	if err := database.HealthCheck(); err != nil {
		dbStatus = "unavailable"
	}

	c.JSON(http.StatusOK, gin.H{
		"service":    consts.ServiceName,
		"version":    consts.Version,
		"git_commit": consts.GitCommit,
		"uptime":     consts.GetUptime().String(),
		"database":   dbStatus,
	})
}
