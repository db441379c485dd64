package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/kitewire/treasury_backend/internal/core/domain"
)

// contextKey is a private key type to prevent collisions in contexts.
type contextKey string

const (
	loggerKey        = contextKey("logger")
	requestScopeKey  = contextKey("requestScope")
	correlationIDKey = contextKey("correlationID")
)

// GetRequestScope retrieves the tenant scope placed by the auth middleware.
func GetRequestScope(c *gin.Context) (domain.RequestScope, bool) {
	value, exists := c.Get(string(requestScopeKey))
	if !exists {
		return domain.RequestScope{}, false
	}
	scope, ok := value.(domain.RequestScope)
	return scope, ok
}

// GetCorrelationID retrieves the correlation id of the current request,
// falling back to empty when the middleware did not run.
func GetCorrelationID(ctx context.Context) string {
	if value, ok := ctx.Value(correlationIDKey).(string); ok {
		return value
	}
	return ""
}
