package util

import (
	"github.com/chronically/chronically/internal/models"
	"github.com/gin-gonic/gin"
)

// Context keys set by the token middleware.
const (
	ContextUsername  = "username"
	ContextSessionID = "session_id"
	ContextToken     = "token"
	ContextUser      = "user"
)

// GetUsernameFromContext returns the authenticated username. When the
// request is unauthenticated it responds 401 and returns false.
func GetUsernameFromContext(c *gin.Context) (string, bool) {
	username := c.GetString(ContextUsername)
	if username == "" {
		RespondUnauthorized(c, "invalid or missing token")
		return "", false
	}
	return username, true
}

// GetSessionIDFromContext returns the session bound to the request token.
func GetSessionIDFromContext(c *gin.Context) (string, bool) {
	sid := c.GetString(ContextSessionID)
	if sid == "" {
		RespondUnauthorized(c, "invalid or missing token")
		return "", false
	}
	return sid, true
}

// GetUserFromContext returns the account loaded by the token middleware.
func GetUserFromContext(c *gin.Context) (*models.User, bool) {
	if v, ok := c.Get(ContextUser); ok {
		if u, ok := v.(*models.User); ok {
			return u, true
		}
	}
	RespondUnauthorized(c, "invalid or missing token")
	return nil, false
}
