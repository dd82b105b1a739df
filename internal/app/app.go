package app

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/daylog/core/internal/config"
	"github.com/daylog/core/internal/middleware"
	"github.com/daylog/core/internal/modules/processing/ai"
	"github.com/daylog/core/internal/modules/system/core/health"
	"github.com/daylog/core/internal/platform"
	"github.com/daylog/core/internal/platform/supabase"
	pkgredis "github.com/daylog/core/internal/pkg/redis"
	"github.com/daylog/core/internal/pkg/response"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// App holds all application dependencies.
type App struct {
	cfg     *config.AppConfig
	router  *gin.Engine
	logger  *zap.Logger
	sb      *supabase.Client
	redis   *pkgredis.Client
	metrics *middleware.Metrics
	pingers map[string]health.Pinger
	closers []func() error
}

// New initializes the application: config → data service → storage →
// generation → Redis → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	a := &App{cfg: cfg, logger: logger, pingers: map[string]health.Pinger{}}

	backend, err := a.wireBackend()
	if err != nil {
		a.Shutdown()
		return nil, err
	}
	blobs, err := a.wireBlobStore()
	if err != nil {
		a.Shutdown()
		return nil, err
	}
	gen, err := ai.NewGenerator(cfg)
	if err != nil {
		a.Shutdown()
		return nil, fmt.Errorf("generation: %w", err)
	}
	if err := cfg.GenerationReady(); err != nil {
		logger.Warn("generation not configured, story compilation will answer 500", zap.Error(err))
	}

	if cfg.RedisURL != "" {
		rc, err := pkgredis.Connect(cfg.RedisURL)
		if err != nil {
			a.Shutdown()
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.redis = rc
		a.pingers["redis"] = rc
		a.closers = append(a.closers, rc.Close)
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.CustomRecovery(recoverJSON(logger)))
	router.Use(middleware.Logger(logger))
	if cfg.Metrics.Enable {
		a.metrics = middleware.NewMetrics()
		router.Use(a.metrics.Middleware())
	}
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	a.router = router

	a.registerRoutes(backend, blobs, gen)
	return a, nil
}

// recoverJSON reports a recovered panic as a 500 with the usual error body.
func recoverJSON(logger *zap.Logger) gin.RecoveryFunc {
	return func(c *gin.Context, rec any) {
		logger.Error("panic recovered",
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", rec),
		)
		response.Error(c, http.StatusInternalServerError, fmt.Sprint(rec))
	}
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown releases connections in reverse order of acquisition.
func (a *App) Shutdown() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("shutdown", zap.Error(err))
		}
	}
	a.closers = nil
}

var (
	_ platform.Backend   = (*supabase.Client)(nil)
	_ platform.BlobStore = (*supabase.Client)(nil)
)
