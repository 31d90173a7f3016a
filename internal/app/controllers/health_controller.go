package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yigit/rosterhub/internal/app/models/dto"
)

// Pinger is anything whose connection can be checked.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController reports whether the backing services answer
type HealthController struct {
	checks  map[string]Pinger
	timeout time.Duration
}

// NewHealthController creates a new HealthController. checks maps a name
// ("store", "sessions") to its connection.
func NewHealthController(checks map[string]Pinger, timeout time.Duration) *HealthController {
	return &HealthController{checks: checks, timeout: timeout}
}

// Ping is a liveness probe
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /ping [get]
func (c *HealthController) Ping(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
}

// Health pings every dependency
// @Summary Readiness probe
// @Description Pings the document store and the session store
// @Tags health
// @Produce json
// @Success 200 {object} dto.APIResponse "All dependencies are up"
// @Failure 503 {object} dto.ErrorResponse "A dependency is down"
// @Router /health [get]
func (c *HealthController) Health(ctx *gin.Context) {
	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), c.timeout)
	defer cancel()

	status := make(map[string]string, len(c.checks))
	healthy := true
	for name, check := range c.checks {
		if err := check.Ping(reqCtx); err != nil {
			status[name] = "down"
			healthy = false
			continue
		}
		status[name] = "up"
	}

	if !healthy {
		detail := dto.NewErrorDetail(dto.ErrorCodeExternalServiceError, "Dependency unavailable").
			WithSeverity(dto.ErrorSeverityCritical).
			WithDetails(status)
		ctx.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(detail))
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(status, "healthy"))
}
