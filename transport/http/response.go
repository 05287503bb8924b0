package http

import (
	"github.com/gin-gonic/gin"
	"github.com/layer-3/ethauth/internal/apperr"
)

// ErrorResponse represents the standard error response format
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody contains error details
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// VerifyResponse is the body of POST /api/verify, for success and failure
type VerifyResponse struct {
	OK      bool   `json:"ok"`
	Address string `json:"address,omitempty"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// RespondError sends an error JSON response and aborts the chain
func RespondError(c *gin.Context, err error) {
	appErr := apperr.From(err)
	respondAppError(c, appErr)
}

func respondAppError(c *gin.Context, appErr *apperr.AppError) {
	if appErr.Err != nil {
		_ = c.Error(appErr)
	}

	c.AbortWithStatusJSON(appErr.StatusCode, ErrorResponse{
		Error: ErrorBody{
			Code:      appErr.Code,
			Message:   appErr.Message,
			RequestID: GetRequestID(c),
		},
	})
}

// respondVerifyError sends a failed sign-in in the verify envelope
func respondVerifyError(c *gin.Context, err error) {
	appErr := apperr.From(err)
	if appErr.Err != nil {
		_ = c.Error(appErr)
	}

	c.AbortWithStatusJSON(appErr.StatusCode, VerifyResponse{
		OK:      false,
		Message: appErr.Message,
		Code:    appErr.Code,
	})
}
