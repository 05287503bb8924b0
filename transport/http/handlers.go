package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/ethauth/core"
	"github.com/layer-3/ethauth/internal/apperr"
	"github.com/layer-3/ethauth/service"
)

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService  *service.AuthService
	cookie       CookieConfig
	publicKeyPEM []byte
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService, cookie CookieConfig, publicKeyPEM []byte) *AuthHandlers {
	return &AuthHandlers{
		authService:  authService,
		cookie:       cookie,
		publicKeyPEM: publicKeyPEM,
	}
}

// Nonce binds a fresh sign-in nonce to the session
func (h *AuthHandlers) Nonce(c *gin.Context) {
	nonce, err := h.authService.IssueNonce(c.Request.Context(), GetSessionHandle(c))
	if err != nil {
		RespondError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"nonce": nonce})
}

type verifyRequest struct {
	Message   *core.ChallengeMessage `json:"message" binding:"required"`
	Signature string                 `json:"signature" binding:"required"`
}

// Verify checks a signed challenge and signs the session in
func (h *AuthHandlers) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if !errors.Is(err, core.ErrInvalidInput) {
			err = apperr.InvalidInput("Invalid request").WithError(err)
		}
		respondVerifyError(c, err)
		return
	}

	address, handle, err := h.authService.SignIn(c.Request.Context(), GetSessionHandle(c), *req.Message, req.Signature)
	if err != nil {
		respondVerifyError(c, err)
		return
	}

	SetSessionCookie(c, h.cookie, handle)

	c.JSON(http.StatusOK, VerifyResponse{OK: true, Address: address})
}

// Me returns the address the session is signed in with
func (h *AuthHandlers) Me(c *gin.Context) {
	address, err := h.authService.CurrentAddress(c.Request.Context(), GetSessionHandle(c))
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"address": address})
}

// Token mints an identity token for the requested app
func (h *AuthHandlers) Token(c *gin.Context) {
	appID := c.Query("appId")
	if appID == "" {
		RespondError(c, apperr.InvalidInput("appId is required"))
		return
	}

	token, _, err := h.authService.IssueToken(c.Request.Context(), GetSessionHandle(c), appID, c.Query("redirect_uri"))
	if err != nil {
		RespondError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"jwt": token})
}

// Redirect mints a token and returns the app's redirect URL carrying it
func (h *AuthHandlers) Redirect(c *gin.Context) {
	appID := c.Query("appId")
	if appID == "" {
		RespondError(c, apperr.InvalidInput("appId is required"))
		return
	}

	redirectURL, err := h.authService.RedirectURL(c.Request.Context(), GetSessionHandle(c), appID, c.Query("state"))
	if err != nil {
		RespondError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"redirect_url": redirectURL})
}

// App describes a registered application
func (h *AuthHandlers) App(c *gin.Context) {
	app, err := h.authService.App(c.Param("appId"))
	if err != nil {
		appErr := apperr.From(err)
		if appErr.Code == apperr.CodeUnknownApp {
			appErr = appErr.WithStatus(http.StatusNotFound)
		}
		respondAppError(c, appErr)
		return
	}

	c.JSON(http.StatusOK, app)
}

// Logout signs the session out
func (h *AuthHandlers) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), GetSessionHandle(c)); err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// PublicKey serves the token verification key in PEM form
func (h *AuthHandlers) PublicKey(c *gin.Context) {
	c.Data(http.StatusOK, "application/x-pem-file", h.publicKeyPEM)
}
