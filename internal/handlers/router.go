package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prefeitura-rio/app-callback/internal/middleware"
	"github.com/prefeitura-rio/app-callback/internal/observability"
	"github.com/prefeitura-rio/app-callback/internal/services"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// RouterConfig holds the handlers and options the router is built from
type RouterConfig struct {
	Callback *CallbackHandlers
	Session  *SessionHandlers
	Widget   *WidgetHandlers
	Health   *HealthHandlers

	// Tokens verifies X-CSRF-Token on state-changing routes when CSRFEnabled
	Tokens      services.SessionTokenStore
	CSRFEnabled bool

	// AllowedOrigins restricts CORS; empty allows every origin
	AllowedOrigins []string

	// TrustedProxies may set the client IP through X-Forwarded-For. With
	// none, the client IP is the connection's remote address.
	TrustedProxies []string
}

// NewRouter creates the gin engine with middleware and every route
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		observability.Logger().Error("invalid trusted proxies, trusting none", zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RequestTracker(),
		middleware.RequestTiming(),
		corsMiddleware(cfg.AllowedOrigins),
	)

	protect := func(c *gin.Context) { c.Next() }
	if cfg.CSRFEnabled {
		protect = middleware.CSRF(cfg.Tokens)
	}

	router.GET("/health", cfg.Health.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/session/token", cfg.Session.GetSessionToken)

	api := router.Group("/api/kp_zadarma")
	{
		api.POST("/callback", protect, cfg.Callback.RequestCallback)
		api.GET("/widget/:block_id", cfg.Widget.GetWidget)
		api.GET("/status", cfg.Widget.GetStatus)
		api.POST("/status/check", protect, cfg.Widget.CheckStatus)
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return router
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	if len(origins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AddAllowHeaders(middleware.CSRFTokenHeader, middleware.RequestIDHeader)
	corsConfig.AddExposeHeaders(middleware.RequestIDHeader)
	return cors.New(corsConfig)
}
