package util

import (
	"net/http"

	"github.com/chronically/chronically/internal/errors"
	"github.com/chronically/chronically/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StatusError is the value of the "status" key on every failed response.
const StatusError = "Error"

// ErrorResponse is the JSON body of a failed request. Clients branch on
// Status, so it is always present.
type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}

// RespondWithAPIError sends a structured API error response
func RespondWithAPIError(c *gin.Context, apiErr *errors.APIError) {
	fields := []zap.Field{
		zap.String("code", string(apiErr.Code)),
		zap.String("message", apiErr.Message),
		zap.String("path", c.FullPath()),
		zap.Int("status", apiErr.Status),
	}
	if apiErr.Field != "" {
		fields = append(fields, zap.String("field", apiErr.Field))
	}
	if apiErr.Status >= http.StatusInternalServerError {
		logger.Log.Error("API error", fields...)
	} else if apiErr.Status >= http.StatusBadRequest {
		logger.Log.Warn("API error", fields...)
	}

	c.AbortWithStatusJSON(apiErr.Status, ErrorResponse{
		Status:  StatusError,
		Code:    string(apiErr.Code),
		Message: apiErr.Message,
		Field:   apiErr.Field,
		Details: apiErr.Details,
	})
}

// RespondData sends {"status": status, "data": data}.
func RespondData(c *gin.Context, code int, status string, data interface{}) {
	c.JSON(code, gin.H{"status": status, "data": data})
}

// RespondStatus sends {"status": status} merged with extra keys.
func RespondStatus(c *gin.Context, code int, status string, extra gin.H) {
	body := gin.H{"status": status}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(code, body)
}

// RespondUnauthorized sends a 401 Unauthorized response
func RespondUnauthorized(c *gin.Context, message ...string) {
	msg := "user not authenticated"
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	RespondWithAPIError(c, errors.Unauthorized(msg))
}

// RespondNotFound sends a 404 with a custom message, e.g. "No articles found".
func RespondNotFound(c *gin.Context, message string) {
	RespondWithAPIError(c, errors.New(errors.ErrNotFound, message))
}

func RespondBadRequest(c *gin.Context, message string) {
	RespondWithAPIError(c, errors.BadRequest(message))
}

func RespondForbidden(c *gin.Context, message string) {
	RespondWithAPIError(c, errors.Forbidden(message))
}

// RespondInternalError logs err and sends a 500 carrying only message.
func RespondInternalError(c *gin.Context, message string, err error) {
	if err != nil {
		logger.Log.Error(message, zap.Error(err), zap.String("path", c.FullPath()))
	}
	RespondWithAPIError(c, errors.InternalError(message))
}

// RespondConflict sends a 409 with a custom message.
func RespondConflict(c *gin.Context, message string) {
	RespondWithAPIError(c, errors.New(errors.ErrConflict, message))
}

// RespondValidationError sends a 422 Unprocessable Entity response
func RespondValidationError(c *gin.Context, field, message string) {
	RespondWithAPIError(c, errors.ValidationError(field, message))
}
