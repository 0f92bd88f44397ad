package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prefeitura-rio/app-callback/internal/logging"
	"github.com/prefeitura-rio/app-callback/internal/models"
	"github.com/prefeitura-rio/app-callback/internal/observability"
	"github.com/prefeitura-rio/app-callback/internal/services"
	"go.uber.org/zap"
)

const maxCallbackBodyBytes = 4 << 10

// CallbackHandlers serves the callback request endpoint
type CallbackHandlers struct {
	service *services.CallbackService
	logger  *logging.SafeLogger
}

// NewCallbackHandlers creates a new CallbackHandlers instance
func NewCallbackHandlers(service *services.CallbackService) *CallbackHandlers {
	return &CallbackHandlers{
		service: service,
		logger:  observability.Logger(),
	}
}

// CallbackRequestBody is the JSON body of the callback endpoint
type CallbackRequestBody struct {
	PhoneNumber string `json:"zadarma_phone_number" example:"+380971234567"`
}

// RequestCallback godoc
// @Summary Request a callback
// @Description Validates the phone number and asks Zadarma to call it back. Limited to 10 requests per hour per client IP.
// @Tags callback
// @Accept json
// @Produce json
// @Param X-CSRF-Token header string true "One-time token from GET /session/token"
// @Param data body CallbackRequestBody true "Phone number"
// @Success 200 {object} models.CallbackResponse
// @Failure 400 {object} models.CallbackResponse
// @Failure 403 {object} models.CallbackResponse
// @Failure 429 {object} models.CallbackResponse
// @Failure 500 {object} models.CallbackResponse
// @Router /api/kp_zadarma/callback [post]
func (h *CallbackHandlers) RequestCallback(c *gin.Context) {
	req := models.CallbackRequest{
		PhoneNumber: readPhoneNumber(c, h.logger),
		ClientIP:    c.ClientIP(),
	}

	outcome := h.service.Handle(c.Request.Context(), req)

	h.logger.Debug("callback request handled",
		zap.String("request_id", c.GetString("RequestID")),
		zap.String("phone", observability.MaskPhone(req.PhoneNumber)),
		zap.String("outcome", string(outcome.Kind)))

	c.JSON(outcome.HTTPStatus(), outcome.Body())
}

// readPhoneNumber extracts the phone field. A body that is not a JSON object
// or has no string phone field yields an empty phone.
func readPhoneNumber(c *gin.Context, logger *logging.SafeLogger) string {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxCallbackBodyBytes))
	if err != nil {
		logger.Debug("failed to read callback body", zap.Error(err))
		return ""
	}

	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}

	phone, _ := body[models.PhoneKey].(string)
	return phone
}
