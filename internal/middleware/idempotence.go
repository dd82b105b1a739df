package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/daylog/core/internal/pkg/redis"
	"github.com/daylog/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	IdempotenceHeader = "x-idempotence"
	idempotenceTTL    = 60 * time.Second
	idempotencePrefix = "daylog:idempotence:"

	idempotencePending = "0"
	idempotenceDone    = "1"
)

// IdempotenceStore is the subset of the Redis client the middleware needs.
type IdempotenceStore interface {
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

var _ IdempotenceStore = (*redis.Client)(nil)

// Idempotence rejects a request whose x-idempotence key is in flight or
// succeeded within the last minute. Requests without the header pass
// through, and so does everything when the store is unreachable.
func Idempotence(store IdempotenceStore, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(IdempotenceHeader))
		if key == "" || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		storeKey := idempotencePrefix + c.FullPath() + ":" + key
		ctx := c.Request.Context()

		acquired, err := store.SetNX(ctx, storeKey, idempotencePending, idempotenceTTL)
		if err != nil {
			log.Warn("idempotence store unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !acquired {
			msg := "Duplicate request already succeeded within the last 60 seconds"
			if val, _ := store.Get(ctx, storeKey); val == idempotencePending {
				msg = "Duplicate request is still being processed"
			}
			response.Conflict(c, msg)
			return
		}

		c.Next()

		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			_ = store.Set(ctx, storeKey, idempotenceDone, redis.KeepTTL)
		} else {
			_ = store.Del(ctx, storeKey)
		}
	}
}
