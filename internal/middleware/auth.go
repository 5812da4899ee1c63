package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/chronically/chronically/internal/auth"
	"github.com/chronically/chronically/internal/logger"
	"github.com/chronically/chronically/internal/util"
	"github.com/gin-gonic/gin"
)

// maxTokenPeek bounds how much of a JSON body is read looking for "token".
const maxTokenPeek = 64 << 10

// TokenValidator resolves an app token to its caller.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*auth.Identity, error)
}

// ExtractToken finds the app token in, in order, the Authorization bearer
// header, a "token" field of a JSON body, and the token query parameter.
// The body is left readable for the handler.
func ExtractToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if parts := strings.SplitN(h, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if tok := strings.TrimSpace(parts[1]); tok != "" {
				return tok
			}
		}
	}
	if tok := tokenFromBody(c); tok != "" {
		return tok
	}
	return c.Query("token")
}

func tokenFromBody(c *gin.Context) string {
	if c.Request.Body == nil || c.Request.Method == http.MethodGet {
		return ""
	}
	if !strings.HasPrefix(c.ContentType(), "application/json") {
		return ""
	}
	peek, err := io.ReadAll(io.LimitReader(c.Request.Body, maxTokenPeek))
	c.Request.Body = readCloser{io.MultiReader(bytes.NewReader(peek), c.Request.Body), c.Request.Body}
	if err != nil || len(peek) == 0 {
		return ""
	}
	var body struct {
		Token string `json:"token"`
	}
	if json.Unmarshal(peek, &body) != nil {
		return ""
	}
	return body.Token
}

type readCloser struct {
	io.Reader
	io.Closer
}

// RequireAuth rejects requests without a valid token. The caller's
// username, session id and account are stored on the context.
func RequireAuth(v TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c)
		if token == "" {
			util.RespondUnauthorized(c, "Token is required")
			return
		}
		id, err := v.ValidateToken(c.Request.Context(), token)
		switch {
		case errors.Is(err, auth.ErrDeactivated):
			util.RespondForbidden(c, "Account is deactivated")
			return
		case errors.Is(err, auth.ErrInvalidToken):
			util.RespondUnauthorized(c, "Invalid or expired token")
			return
		case err != nil:
			util.RespondInternalError(c, "Failed to validate token", err)
			return
		}
		setIdentity(c, token, id)
		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(v TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := ExtractToken(c); token != "" {
			id, err := v.ValidateToken(c.Request.Context(), token)
			if err == nil {
				setIdentity(c, token, id)
			} else if !errors.Is(err, auth.ErrInvalidToken) && !errors.Is(err, auth.ErrDeactivated) {
				logger.WarnWithFields("Optional token validation failed", err)
			}
		}
		c.Next()
	}
}

func setIdentity(c *gin.Context, token string, id *auth.Identity) {
	c.Set(util.ContextToken, token)
	c.Set(util.ContextUsername, id.User.Username)
	c.Set(util.ContextSessionID, id.Session.ID)
	c.Set(util.ContextUser, id.User)
}
