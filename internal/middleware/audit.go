package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/edustream-api/internal/models"
)

const maxAuditBody = 4 << 10

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Audit records an admin action once the handler succeeds. The :id route parameter becomes
// the resource id and a JSON request body, when present, becomes the new values.
// Recording failures are logged and never change the response.
func Audit(recorder AuditRecorder, logger *zap.Logger, action, resource string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		payload := peekJSONBody(c)
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		entry := &models.AuditLog{
			Action:    action,
			Resource:  resource,
			NewValues: payload,
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		}
		if claims, ok := CurrentClaims(c); ok {
			actor := claims.UserID
			entry.UserID = &actor
		}
		if id := c.Param("id"); id != "" {
			entry.ResourceID = &id
		}

		if err := recorder.CreateAuditLog(c.Request.Context(), entry); err != nil {
			logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
		}
	}
}

// peekJSONBody reads a small JSON body and puts it back for the handler.
func peekJSONBody(c *gin.Context) []byte {
	if c.Request.Body == nil || c.ContentType() != gin.MIMEJSON {
		return nil
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxAuditBody+1))
	c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), c.Request.Body))
	if err != nil || len(raw) > maxAuditBody || !json.Valid(raw) {
		return nil
	}
	return raw
}
