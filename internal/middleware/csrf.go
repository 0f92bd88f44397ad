package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prefeitura-rio/app-callback/internal/models"
	"github.com/prefeitura-rio/app-callback/internal/observability"
	"github.com/prefeitura-rio/app-callback/internal/services"
	"go.uber.org/zap"
)

// CSRFTokenHeader carries the one-time token from GET /session/token
const CSRFTokenHeader = "X-CSRF-Token"

// CSRF rejects requests that do not present an unused session token
func CSRF(tokens services.SessionTokenStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(CSRFTokenHeader)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, models.CallbackResponse{
				Status:  models.StatusError,
				Message: "X-CSRF-Token request header is missing",
			})
			return
		}

		ok, err := tokens.Consume(c.Request.Context(), token)
		if err != nil {
			observability.Logger().Error("failed to verify session token",
				zap.String("request_id", c.GetString("RequestID")),
				zap.Error(err))
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, models.CallbackResponse{
				Status:  models.StatusError,
				Message: "X-CSRF-Token request header is invalid",
			})
			return
		}

		c.Next()
	}
}
