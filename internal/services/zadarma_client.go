package services

import (
	"context"
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prefeitura-rio/app-callback/internal/config"
	"github.com/prefeitura-rio/app-callback/internal/logging"
	"github.com/prefeitura-rio/app-callback/internal/models"
	"github.com/prefeitura-rio/app-callback/internal/observability"
	"github.com/prefeitura-rio/app-callback/internal/utils"
	"github.com/prefeitura-rio/app-callback/internal/utils/httpclient"
	"go.uber.org/zap"
)

// Zadarma API methods
const (
	zadarmaCallbackPath = "/v1/request/callback/"
	zadarmaBalancePath  = "/v1/info/balance/"
)

// Texts shown to callers for failures that never reached the API
const (
	ProviderMessageTimeout     = "request timed out"
	ProviderMessageUnreachable = "provider unreachable"
)

// CallbackProvider places callback calls through the telephony provider
type CallbackProvider interface {
	RequestCallback(ctx context.Context, req models.ProviderCallbackRequest) ([]byte, error)
}

// BalanceProvider reports the provider account balance, used as a
// connection check
type BalanceProvider interface {
	Balance(ctx context.Context) (*models.ProviderBalance, error)
}

// ZadarmaAPIError is returned when the API answers with a non-2xx status or
// an application level error
type ZadarmaAPIError struct {
	StatusCode int
	Message    string
}

func (e *ZadarmaAPIError) Error() string {
	return e.Message
}

// Unwrap lets callers match every provider failure with ErrProviderFailure
func (e *ZadarmaAPIError) Unwrap() error {
	return models.ErrProviderFailure
}

type zadarmaStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ZadarmaClient is a signed HTTP client for the Zadarma REST API
type ZadarmaClient struct {
	baseURL string
	key     string
	secret  string
	client  *http.Client
	logger  *logging.SafeLogger
}

// NewZadarmaClient creates a client from configuration. It returns nil when
// the API key or secret is missing.
func NewZadarmaClient(cfg *config.Config, logger *logging.SafeLogger) *ZadarmaClient {
	if cfg == nil || !cfg.ProviderConfigured() {
		return nil
	}

	return &ZadarmaClient{
		baseURL: cfg.ZadarmaBaseURL,
		key:     cfg.ZadarmaAPIKey,
		secret:  cfg.ZadarmaAPISecret,
		client:  httpclient.New(cfg.ZadarmaTimeout),
		logger:  logger,
	}
}

// RequestCallback asks Zadarma to call req.From and connect it to req.To.
// The raw response body is returned on success.
func (c *ZadarmaClient) RequestCallback(ctx context.Context, req models.ProviderCallbackRequest) ([]byte, error) {
	params := url.Values{}
	params.Set("from", req.From)
	params.Set("to", req.To)
	params.Set("predicted", req.PredictedFlag())

	return c.call(ctx, "request_callback", zadarmaCallbackPath, params)
}

// Balance returns the account balance
func (c *ZadarmaClient) Balance(ctx context.Context) (*models.ProviderBalance, error) {
	body, err := c.call(ctx, "balance", zadarmaBalancePath, url.Values{})
	if err != nil {
		return nil, err
	}

	var balance models.ProviderBalance
	if err := json.Unmarshal(body, &balance); err != nil {
		return nil, fmt.Errorf("failed to decode balance response: %w", err)
	}
	return &balance, nil
}

// call performs a signed GET and classifies the response
func (c *ZadarmaClient) call(ctx context.Context, operation, path string, params url.Values) ([]byte, error) {
	ctx, span := utils.TraceExternalService(ctx, "zadarma", operation)
	defer span.End()

	start := time.Now()
	status := "error"
	defer func() {
		observability.ProviderDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
	}()

	params.Set("format", "json")
	query := params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", c.key+":"+c.sign(path, query))
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug("sending Zadarma request",
		zap.String("operation", operation),
		zap.String("path", path))

	resp, err := c.client.Do(httpReq)
	if err != nil {
		utils.RecordErrorInSpan(span, err, map[string]interface{}{"zadarma.operation": operation})
		return nil, fmt.Errorf("%w: %s: %w", models.ErrProviderFailure, operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		utils.RecordErrorInSpan(span, err, map[string]interface{}{"zadarma.operation": operation})
		return nil, fmt.Errorf("%w: failed to read response: %w", models.ErrProviderFailure, err)
	}

	utils.AddSpanAttribute(span, "http.status_code", resp.StatusCode)

	var parsed zadarmaStatus
	isJSON := json.Unmarshal(body, &parsed) == nil

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := parsed.Message
		if message == "" {
			message = "unexpected status " + strconv.Itoa(resp.StatusCode)
		}
		apiErr := &ZadarmaAPIError{StatusCode: resp.StatusCode, Message: message}
		utils.RecordErrorInSpan(span, apiErr, map[string]interface{}{"zadarma.operation": operation})
		return nil, apiErr
	}

	if isJSON && parsed.Status == models.StatusError {
		message := parsed.Message
		if message == "" {
			message = "unknown error"
		}
		apiErr := &ZadarmaAPIError{StatusCode: resp.StatusCode, Message: message}
		utils.RecordErrorInSpan(span, apiErr, map[string]interface{}{"zadarma.operation": operation})
		return nil, apiErr
	}

	status = "success"
	return body, nil
}

// sign computes the Zadarma request signature:
// base64(hex(hmac_sha1(path + query + md5hex(query), secret)))
func (c *ZadarmaClient) sign(path, query string) string {
	digest := md5.Sum([]byte(query))

	mac := hmac.New(sha1.New, []byte(c.secret))
	mac.Write([]byte(path + query + hex.EncodeToString(digest[:])))

	return base64.StdEncoding.EncodeToString([]byte(hex.EncodeToString(mac.Sum(nil))))
}

// ProviderErrorMessage extracts the text shown to the caller for a provider
// failure. Only API answers are passed through; transport errors carry the
// signed request URL and are reduced to a short text.
func ProviderErrorMessage(err error) string {
	var apiErr *ZadarmaAPIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return ProviderMessageTimeout
	}
	return ProviderMessageUnreachable
}
