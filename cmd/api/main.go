package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prefeitura-rio/app-callback/internal/config"
	"github.com/prefeitura-rio/app-callback/internal/handlers"
	"github.com/prefeitura-rio/app-callback/internal/logging"
	"github.com/prefeitura-rio/app-callback/internal/observability"
	"github.com/prefeitura-rio/app-callback/internal/services"
	"go.uber.org/zap"

	_ "github.com/prefeitura-rio/app-callback/docs"
)

// @title           Callback API
// @version         1.0
// @description     Call-me-back service. Visitors submit a phone number from the website widget and the telephony provider calls them back. Requests are rate limited per client address and protected by a session token.

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey CSRFToken
// @in header
// @name X-CSRF-Token

// @tag.name callback
// @tag.description Callback requests

// @tag.name widget
// @tag.description Widget mount data and provider status

// @tag.name session
// @tag.description Anti-forgery session tokens

// @tag.name health
// @tag.description Health check operations

const (
	floodCleanupInterval = 5 * time.Minute
	tokenCleanupInterval = time.Minute
)

func main() {
	// Initialize logger first
	if err := logging.InitLogger(); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() { _ = logging.Logger.Sync() }()

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logging.Logger.Fatal("failed to load config", zap.Error(err))
	}
	cfg := config.AppConfig
	logger := observability.Logger()

	validator := services.NewPhoneValidator(cfg.VerboseErrors(), logger)
	if cfg.ZadarmaAPIFrom != "" && !validator.IsValid(cfg.ZadarmaAPIFrom, "") {
		logger.Fatal("Invalid From number/SIP format.", zap.String("from", observability.MaskPhone(cfg.ZadarmaAPIFrom)))
	}

	widgets, err := config.LoadWidgetConfig(cfg.WidgetConfigPath)
	if err != nil {
		logger.Fatal("failed to load widget config", zap.Error(err))
	}
	config.WidgetSettings = widgets

	// Initialize observability
	observability.InitTracer(cfg)
	defer observability.ShutdownTracer()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Stores
	var (
		flood  services.FloodControl
		tokens services.SessionTokenStore
	)
	if cfg.UsesRedis() {
		redis := config.InitRedis(cfg)
		defer config.CloseRedis()
		flood = services.NewRedisFlood(redis, nil, logger)
		tokens = services.NewRedisSessionTokens(redis, cfg.SessionTokenTTL, logger)
	} else {
		memoryFlood := services.NewMemoryFlood(nil, logger)
		memoryFlood.StartCleanup(ctx, floodCleanupInterval)
		flood = memoryFlood
		memoryTokens := services.NewMemorySessionTokens(cfg.SessionTokenTTL, nil, logger)
		memoryTokens.StartCleanup(ctx, tokenCleanupInterval)
		tokens = memoryTokens
	}

	// Provider
	client := services.NewZadarmaClient(cfg, logger)
	var balance services.BalanceProvider
	if client != nil {
		balance = client
	} else {
		logger.Warn("Zadarma credentials are not configured, callbacks are disabled")
	}

	monitor := services.NewConnectionMonitor(balance, config.Redis, cfg.ZadarmaStatusInterval, logger)
	monitor.Start(ctx)
	defer monitor.Stop()

	callback := services.NewCallbackService(flood, client, validator, services.CallbackSettings{
		From:           cfg.ZadarmaAPIFrom,
		Predicted:      cfg.ZadarmaAPIPredicted,
		FloodThreshold: cfg.FloodLimit,
		FloodWindow:    cfg.FloodWindow,
	}, logger)

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Callback:       handlers.NewCallbackHandlers(callback),
		Session:        handlers.NewSessionHandlers(tokens),
		Widget:         handlers.NewWidgetHandlers(widgets, monitor),
		Health:         handlers.NewHealthHandlers(config.Redis, monitor),
		Tokens:         tokens,
		CSRFEnabled:    cfg.CSRFEnabled,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		TrustedProxies: cfg.TrustedProxies,
	})

	// Create server with timeouts
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("starting server",
			zap.Int("port", cfg.Port),
			zap.String("environment", cfg.Environment),
			zap.String("rate_limit_store", cfg.RateLimitStore),
			zap.Bool("csrf_enabled", cfg.CSRFEnabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logger.Info("shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("server exited gracefully")
}
