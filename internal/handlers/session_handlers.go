package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prefeitura-rio/app-callback/internal/logging"
	"github.com/prefeitura-rio/app-callback/internal/observability"
	"github.com/prefeitura-rio/app-callback/internal/services"
	"go.uber.org/zap"
)

// SessionHandlers issues anti-forgery tokens
type SessionHandlers struct {
	tokens services.SessionTokenStore
	logger *logging.SafeLogger
}

// NewSessionHandlers creates a new SessionHandlers instance
func NewSessionHandlers(tokens services.SessionTokenStore) *SessionHandlers {
	return &SessionHandlers{
		tokens: tokens,
		logger: observability.Logger(),
	}
}

// GetSessionToken godoc
// @Summary Get a session token
// @Description Issues a one-time token to send as X-CSRF-Token on state-changing requests
// @Tags session
// @Produce plain
// @Success 200 {string} string "token"
// @Failure 500 {object} ErrorResponse
// @Router /session/token [get]
func (h *SessionHandlers) GetSessionToken(c *gin.Context) {
	token, err := h.tokens.Issue(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to issue session token",
			zap.String("request_id", c.GetString("RequestID")),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to issue session token"})
		return
	}

	c.Header("Cache-Control", "no-store")
	c.String(http.StatusOK, token)
}
