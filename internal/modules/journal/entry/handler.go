package entry

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/daylog/core/internal/middleware"
	"github.com/daylog/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	svc    *Service
	logger *zap.Logger
}

func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Path is the route the handler is mounted at, relative to its group.
const Path = "/upsert_entry"

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, mws ...gin.HandlerFunc) {
	chain := append(append([]gin.HandlerFunc{}, mws...), h.upsert)
	rg.POST(Path, chain...)
}

// POST /upsert_entry
func (h *Handler) upsert(c *gin.Context) {
	if !strings.Contains(strings.ToLower(c.GetHeader("Content-Type")), "application/json") {
		response.UnsupportedMediaType(c, "Content-Type must be application/json")
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	var dto UpsertEntryDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			response.UnprocessableEntity(c, missingFieldsMessage)
			return
		}
		response.BadRequest(c, "Invalid JSON body")
		return
	}
	in, ok := dto.validate()
	if !ok {
		response.UnprocessableEntity(c, missingFieldsMessage)
		return
	}

	if err := h.svc.Ready(); err != nil {
		h.logger.Error("entry upsert unavailable", zap.Error(err))
		response.InternalError(c, err)
		return
	}

	stored, err := h.svc.Upsert(c.Request.Context(), middleware.Credential(c), in)
	if err != nil {
		h.logger.Warn("entry upsert failed",
			zap.String("user_id", in.UserID),
			zap.String("day", in.Day),
			zap.Error(err),
		)
		response.Fail(c, err)
		return
	}

	response.OK(c, gin.H{"ok": true, "data": stored})
}
