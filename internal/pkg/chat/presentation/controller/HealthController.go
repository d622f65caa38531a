package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is a dependency the health check probes.
type Pinger func(ctx context.Context) error

// HealthController reports the state of each named dependency.
type HealthController struct {
	checks  map[string]Pinger
	timeout time.Duration
}

func NewHealthController(checks map[string]Pinger, timeout time.Duration) *HealthController {
	return &HealthController{checks: checks, timeout: timeout}
}

func (h *HealthController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()

		status := http.StatusOK
		deps := gin.H{}
		for name, ping := range h.checks {
			if err := ping(ctx); err != nil {
				deps[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}

		state := "OK"
		if status != http.StatusOK {
			state = "DEGRADED"
		}
		c.JSON(status, gin.H{"status": state, "dependencies": deps})
	}
}
