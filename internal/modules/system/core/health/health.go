package health

import (
	"context"
	"net/http"
	"time"

	"github.com/daylog/core/internal/config"
	"github.com/gin-gonic/gin"
)

const checkTimeout = 2 * time.Second

// Pinger is a dependency whose reachability is reported.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RegisterRoutes mounts GET /health. Each named pinger is probed; any
// failure turns the answer into 503 "degraded".
func RegisterRoutes(rg *gin.RouterGroup, cfg *config.AppConfig, deps map[string]Pinger) {
	rg.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
		defer cancel()

		status := "ok"
		code := http.StatusOK
		checks := make(gin.H, len(deps))
		for name, dep := range deps {
			ok := dep.Ping(ctx) == nil
			checks[name] = ok
			if !ok {
				status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}

		configured := cfg.DataServiceReady() == nil && cfg.GenerationReady() == nil
		c.JSON(code, gin.H{
			"status":     status,
			"configured": configured,
			"data":       cfg.Data.Driver,
			"storage":    cfg.Storage.Driver,
			"generation": cfg.Generation.Provider,
			"checks":     checks,
		})
	})
}
