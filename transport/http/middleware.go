package http

import (
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/layer-3/ethauth/service"
	"go.uber.org/zap"
)

const (
	// RequestIDHeader is the header name for request ID
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey is the context key for request ID
	RequestIDKey = "request_id"
	// SessionHandleKey is the context key for the session handle
	SessionHandleKey = "session_handle"
)

// RequestID middleware reuses the client's X-Request-ID or generates one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}

// GetRequestID extracts request ID from gin context
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// Logger middleware logs each HTTP request with structured fields. Query
// strings are left out since they can carry tokens.
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		fields := []zap.Field{
			zap.String("request_id", GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", statusCode),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		}

		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case statusCode >= 500:
			logger.Error("server error", fields...)
		case statusCode >= 400:
			logger.Warn("client error", fields...)
		default:
			logger.Info("request completed", fields...)
		}
	}
}

// CookieConfig controls the session cookie
type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// Session middleware binds the request to a session handle carried in an
// HttpOnly cookie. A missing or malformed handle, or one the store holds no
// state for, is replaced with a fresh one.
func Session(authService *service.AuthService, cfg CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		handle, err := c.Cookie(cfg.Name)
		known := err == nil && validHandle(handle)
		if known {
			known, err = authService.HasSession(c.Request.Context(), handle)
			if err != nil {
				RespondError(c, err)
				return
			}
		}
		if !known {
			handle, err = service.GenerateHandle()
			if err != nil {
				RespondError(c, err)
				return
			}
		}

		SetSessionCookie(c, cfg, handle)
		c.Next()
	}
}

// SetSessionCookie points the client and the rest of the request at handle,
// replacing any session cookie already written to the response.
func SetSessionCookie(c *gin.Context, cfg CookieConfig, handle string) {
	header := c.Writer.Header()
	prefix := cfg.Name + "="
	kept := make([]string, 0, len(header.Values("Set-Cookie")))
	for _, value := range header.Values("Set-Cookie") {
		if !strings.HasPrefix(value, prefix) {
			kept = append(kept, value)
		}
	}
	header.Del("Set-Cookie")
	for _, value := range kept {
		header.Add("Set-Cookie", value)
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.Name, handle, int(cfg.TTL.Seconds()), "/", "", cfg.Secure, true)
	c.Set(SessionHandleKey, handle)
}

// GetSessionHandle extracts the session handle from gin context
func GetSessionHandle(c *gin.Context) string {
	return c.GetString(SessionHandleKey)
}

func validHandle(handle string) bool {
	if len(handle) != 2*service.NonceBytes {
		return false
	}
	_, err := hex.DecodeString(handle)
	return err == nil
}
