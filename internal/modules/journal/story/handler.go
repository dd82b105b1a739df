package story

import (
	"io"

	"github.com/daylog/core/internal/middleware"
	"github.com/daylog/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Path is the route the handler is mounted at, relative to its group.
const Path = "/compile_story"

type Handler struct {
	svc    *Service
	logger *zap.Logger
}

func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, mws ...gin.HandlerFunc) {
	chain := append(append([]gin.HandlerFunc{}, mws...), h.compile)
	rg.POST(Path, chain...)
}

// POST /compile_story
func (h *Handler) compile(c *gin.Context) {
	if err := h.svc.Ready(); err != nil {
		h.logger.Error("story compile unavailable", zap.Error(err))
		response.InternalError(c, err)
		return
	}

	ctx := c.Request.Context()
	caller, err := h.svc.Authenticate(ctx, middleware.Credential(c))
	if err != nil {
		h.logger.Debug("story compile unauthenticated", zap.Error(err))
		response.Unauthorized(c)
		return
	}
	middleware.SetCaller(c, caller)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Debug("story compile body unreadable", zap.Error(err))
		body = nil
	}
	in, err := decodeCompileRequest(body)
	if err != nil {
		response.Fail(c, err)
		return
	}

	result, err := h.svc.Compile(ctx, caller, in)
	if err != nil {
		h.logger.Warn("story compile failed",
			zap.String("user_id", caller.UserID),
			zap.String("from", in.From.String()),
			zap.String("to", in.To.String()),
			zap.Error(err),
		)
		response.Fail(c, err)
		return
	}

	h.logger.Info("story compiled",
		zap.String("user_id", caller.UserID),
		zap.String("story_id", result.ID),
		zap.String("md_path", result.MDPath),
	)
	response.OK(c, gin.H{
		"ok":      true,
		"id":      result.ID,
		"title":   result.Title,
		"md_path": result.MDPath,
	})
}
