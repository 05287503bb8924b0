package http

import (
	"github.com/gin-gonic/gin"
	"github.com/layer-3/ethauth/internal/apperr"
	"github.com/layer-3/ethauth/service"
	"go.uber.org/zap"
)

// RouterConfig holds the transport settings of the router
type RouterConfig struct {
	Cookie       CookieConfig
	PublicKeyPEM []byte
}

// SetupRouter sets up the Gin router
func SetupRouter(authService *service.AuthService, health *HealthHandler, cfg RouterConfig, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(Logger(logger))

	router.NoRoute(func(c *gin.Context) {
		RespondError(c, apperr.NotFound("Route"))
	})
	router.NoMethod(func(c *gin.Context) {
		RespondError(c, apperr.MethodNotAllowed())
	})

	router.GET("/health", health.Health)
	router.GET("/ready", health.Ready)

	// Create handlers
	handlers := NewAuthHandlers(authService, cfg.Cookie, cfg.PublicKeyPEM)

	router.GET("/api/public-key", handlers.PublicKey)
	router.GET("/api/apps/:appId", handlers.App)

	// Session routes
	api := router.Group("/api")
	api.Use(Session(authService, cfg.Cookie))
	{
		api.GET("/nonce", handlers.Nonce)
		api.POST("/verify", handlers.Verify)
		api.GET("/me", handlers.Me)
		api.GET("/jwt", handlers.Token)
		api.GET("/redirect", handlers.Redirect)
		api.POST("/logout", handlers.Logout)
	}

	return router
}
