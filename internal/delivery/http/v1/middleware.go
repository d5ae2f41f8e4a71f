package v1

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/adanyl0v/go-todo-client/internal/models"
	"github.com/adanyl0v/go-todo-client/internal/services"
)

const (
	userIDCtxKey    = "user_id"
	roleCtxKey      = "role"
	requestIDCtxKey = "request_id"

	requestIDHeader = "X-Request-ID"
)

func (h *handlerImpl) HandleRequestID(c *gin.Context) {
	requestID := c.GetHeader(requestIDHeader)
	if _, err := uuid.Parse(requestID); err != nil {
		requestID = uuid.NewString()
	}
	c.Set(requestIDCtxKey, requestID)
	c.Header(requestIDHeader, requestID)
	c.Next()
}

func (h *handlerImpl) HandleRequestLog(c *gin.Context) {
	start := time.Now()
	c.Next()

	requestID, _ := getStringFromContext(c, requestIDCtxKey)
	event := h.logger.Info()
	if c.Writer.Status() >= 500 {
		event = h.logger.Error()
	}
	event.
		Str("request_id", requestID).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Int("status", c.Writer.Status()).
		Dur("latency", time.Since(start)).
		Msg("handled request")
}

func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	const authHeader = "Authorization"
	header := c.GetHeader(authHeader)
	if header == "" {
		h.logger.Error().Msg("authorization header required")
		abort(c, newUnauthorizedError(errMissingAuthorization.Error()))
		return
	}

	const bearerPrefix = "Bearer"
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != bearerPrefix || parts[1] == "" {
		h.logger.Error().Msg("invalid authorization header")
		abort(c, newUnauthorizedError(errMissingAuthorization.Error()))
		return
	}

	claims, err := h.auth.ParseAccessToken(parts[1])
	if err != nil {
		event := h.logger.Error()
		if errors.Is(err, jwt.ErrTokenExpired) {
			event = h.logger.Warn()
		}
		event.
			Err(err).
			Msg("failed to parse token")
		abort(c, newUnauthorizedError(errInvalidToken.Error()))
		return
	}

	c.Set(userIDCtxKey, claims.Subject)
	c.Set(roleCtxKey, string(claims.Role))
	c.Next()
}

func viewerFromContext(c *gin.Context) (services.Viewer, bool) {
	userID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok || userID == "" {
		return services.Viewer{}, false
	}
	role, _ := getStringFromContext(c, roleCtxKey)
	return services.Viewer{
		UserID: userID,
		Role:   models.Role(role),
	}, true
}

func getStringFromContext(c *gin.Context, key string) (string, bool) {
	value, exists := c.Get(key)
	if !exists {
		return "", false
	}
	str, ok := value.(string)
	return str, ok
}
