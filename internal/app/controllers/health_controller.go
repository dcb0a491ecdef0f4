package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ssis-app/ssis/internal/app/models/dto"
)

// PingFunc reports whether the backing database is reachable.
type PingFunc func(ctx context.Context) error

// HealthController reports service liveness
type HealthController struct {
	driver string
	ping   PingFunc
}

// NewHealthController creates a new HealthController. ping may be nil for
// drivers without a remote connection.
func NewHealthController(driver string, ping PingFunc) *HealthController {
	return &HealthController{driver: driver, ping: ping}
}

// Health reports the service and database status
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /health [get]
func (c *HealthController) Health(ctx *gin.Context) {
	resp := dto.HealthResponse{Status: "ok", Database: c.driver}
	if c.ping == nil {
		ctx.JSON(http.StatusOK, resp)
		return
	}

	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()
	if err := c.ping(pingCtx); err != nil {
		resp.Status = "degraded"
		resp.Database = "unreachable"
		ctx.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
