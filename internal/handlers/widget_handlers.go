package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prefeitura-rio/app-callback/internal/config"
	"github.com/prefeitura-rio/app-callback/internal/logging"
	"github.com/prefeitura-rio/app-callback/internal/models"
	"github.com/prefeitura-rio/app-callback/internal/observability"
	"github.com/prefeitura-rio/app-callback/internal/services"
	"go.uber.org/zap"
)

// CallbackPath is where widgets submit phone numbers
const CallbackPath = "/api/kp_zadarma/callback"

// WidgetHandlers serves widget mount data and provider status
type WidgetHandlers struct {
	widgets *config.WidgetConfig
	monitor *services.ConnectionMonitor
	logger  *logging.SafeLogger
}

// NewWidgetHandlers creates a new WidgetHandlers instance
func NewWidgetHandlers(widgets *config.WidgetConfig, monitor *services.ConnectionMonitor) *WidgetHandlers {
	return &WidgetHandlers{
		widgets: widgets,
		monitor: monitor,
		logger:  observability.Logger(),
	}
}

// GetWidget godoc
// @Summary Get widget mount data
// @Description Returns the submission URL, body field name and visibility windows of a widget block. No content while the provider connection is down.
// @Tags widget
// @Produce json
// @Param block_id path string true "Block id"
// @Success 200 {object} models.WidgetMount
// @Success 204 "Provider not connected"
// @Failure 404 {object} ErrorResponse
// @Router /api/kp_zadarma/widget/{block_id} [get]
func (h *WidgetHandlers) GetWidget(c *gin.Context) {
	blockID := c.Param("block_id")

	block, ok := h.widgets.Block(blockID)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Widget block not found"})
		return
	}

	if !h.monitor.Connected() {
		h.logger.Debug("widget hidden while provider is disconnected", zap.String("block_id", blockID))
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, models.WidgetMount{
		URL:      CallbackPath,
		AttrID:   "kp_zadarma_wrapper_" + blockID + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:13],
		Settings: block.Settings(),
		PhoneKey: models.PhoneKey,
	})
}

// GetStatus godoc
// @Summary Get provider status
// @Description Returns whether Zadarma credentials are configured and the result of the last connection check
// @Tags widget
// @Produce json
// @Success 200 {object} models.ProviderStatusResponse
// @Router /api/kp_zadarma/status [get]
func (h *WidgetHandlers) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.monitor.Status())
}

// CheckStatus godoc
// @Summary Check provider connection
// @Description Runs the Zadarma connection check now and returns the result
// @Tags widget
// @Produce json
// @Param X-CSRF-Token header string true "One-time token from GET /session/token"
// @Success 200 {object} models.ProviderStatusResponse
// @Failure 403 {object} models.CallbackResponse
// @Router /api/kp_zadarma/status/check [post]
func (h *WidgetHandlers) CheckStatus(c *gin.Context) {
	h.monitor.Check(c.Request.Context())
	c.JSON(http.StatusOK, h.monitor.Status())
}
