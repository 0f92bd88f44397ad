package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prefeitura-rio/app-callback/internal/config"
	"github.com/prefeitura-rio/app-callback/internal/logging"
	"github.com/prefeitura-rio/app-callback/internal/models"
	"github.com/prefeitura-rio/app-callback/internal/services"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testApp is a fully wired router backed by a stub Zadarma server
type testApp struct {
	router  *gin.Engine
	monitor *services.ConnectionMonitor
	tokens  services.SessionTokenStore
}

type testAppOptions struct {
	// zadarma handles provider requests; nil leaves the API unconfigured
	zadarma     http.HandlerFunc
	widgets     *config.WidgetConfig
	csrfEnabled bool
	// zadarmaTimeout overrides the provider client timeout
	zadarmaTimeout time.Duration
	trustedProxies []string
}

func newTestApp(t *testing.T, opts testAppOptions) *testApp {
	t.Helper()
	logger := logging.Logger

	cfg := &config.Config{ZadarmaTimeout: time.Second}
	if opts.zadarmaTimeout > 0 {
		cfg.ZadarmaTimeout = opts.zadarmaTimeout
	}
	if opts.zadarma != nil {
		server := httptest.NewServer(opts.zadarma)
		t.Cleanup(server.Close)
		cfg.ZadarmaAPIKey = "test-key"
		cfg.ZadarmaAPISecret = "test-secret"
		cfg.ZadarmaBaseURL = server.URL
	}

	client := services.NewZadarmaClient(cfg, logger)
	var balance services.BalanceProvider
	if client != nil {
		balance = client
	}

	flood := services.NewMemoryFlood(nil, logger)
	tokens := services.NewMemorySessionTokens(time.Minute, nil, logger)
	monitor := services.NewConnectionMonitor(balance, nil, time.Minute, logger)
	callback := services.NewCallbackService(flood, client, services.NewPhoneValidator(false, logger), services.CallbackSettings{
		From: "+380441234567",
	}, logger)

	widgets := opts.widgets
	if widgets == nil {
		var err error
		widgets, err = config.LoadWidgetConfig("")
		require.NoError(t, err)
	}

	router := NewRouter(RouterConfig{
		Callback:       NewCallbackHandlers(callback),
		Session:        NewSessionHandlers(tokens),
		Widget:         NewWidgetHandlers(widgets, monitor),
		Health:         NewHealthHandlers(nil, monitor),
		Tokens:         tokens,
		CSRFEnabled:    opts.csrfEnabled,
		TrustedProxies: opts.trustedProxies,
	})

	return &testApp{router: router, monitor: monitor, tokens: tokens}
}

// zadarmaStub answers balance checks and replies to callback requests with
// the given body
func zadarmaStub(callbackBody string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/v1/info/balance/" {
			_, _ = w.Write([]byte(`{"status":"success","balance":10,"currency":"USD"}`))
			return
		}
		_, _ = w.Write([]byte(callbackBody))
	}
}

func (a *testApp) do(method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:41234"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) postPhone(phone string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]string{models.PhoneKey: phone})
	return a.do("POST", "/api/kp_zadarma/callback", body, nil)
}

// postPhoneForwarded posts from the fixed remote address with a forwarding
// header naming another client
func (a *testApp) postPhoneForwarded(phone, forwardedFor string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]string{models.PhoneKey: phone})
	return a.do("POST", "/api/kp_zadarma/callback", body, map[string]string{"X-Forwarded-For": forwardedFor})
}

func (a *testApp) sessionToken(t *testing.T) string {
	t.Helper()
	w := a.do("GET", "/session/token", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func (a *testApp) connect(t *testing.T) {
	t.Helper()
	require.True(t, a.monitor.Check(context.Background()))
}

func decodeCallbackResponse(t *testing.T, w *httptest.ResponseRecorder) models.CallbackResponse {
	t.Helper()
	var body models.CallbackResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "body: %s", w.Body.String())
	return body
}
