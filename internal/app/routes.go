package app

import (
	"github.com/daylog/core/internal/middleware"
	"github.com/daylog/core/internal/modules/journal/entry"
	"github.com/daylog/core/internal/modules/journal/story"
	"github.com/daylog/core/internal/modules/processing/ai"
	"github.com/daylog/core/internal/modules/system/core/health"
	"github.com/daylog/core/internal/platform"
	"github.com/daylog/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// functionPrefixes mounts every journal endpoint both at the root and
// under the hosted-functions path clients already call.
var functionPrefixes = []string{"", "/functions/v1"}

func (a *App) registerRoutes(backend platform.Backend, blobs platform.BlobStore, gen ai.Generator) {
	r := a.router

	r.NoRoute(response.NotFound)
	r.NoMethod(response.MethodNotAllowed)

	root := r.Group("")
	health.RegisterRoutes(root, a.cfg, a.pingers)
	if a.metrics != nil {
		root.GET("/metrics", gin.WrapH(a.metrics.Handler()))
	}

	var mws []gin.HandlerFunc
	if a.redis != nil {
		mws = append(mws, middleware.Idempotence(a.redis, a.logger.Named("idempotence")))
	}

	entryHandler := entry.NewHandler(
		entry.NewService(a.cfg, backend),
		a.logger.Named("entry"),
	)
	storyHandler := story.NewHandler(
		story.NewService(a.cfg, backend, blobs, gen, a.logger.Named("story")),
		a.logger.Named("story"),
	)

	for _, prefix := range functionPrefixes {
		g := r.Group(prefix)
		g.OPTIONS(entry.Path, preflight)
		g.OPTIONS(story.Path, preflight)
		entryHandler.RegisterRoutes(g, mws...)
		storyHandler.RegisterRoutes(g, mws...)
	}
}
