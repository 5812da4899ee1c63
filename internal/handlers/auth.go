package handlers

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/chronically/chronically/internal/auth"
	apierrors "github.com/chronically/chronically/internal/errors"
	"github.com/chronically/chronically/internal/logger"
	"github.com/chronically/chronically/internal/util"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const oauthStateCookie = "chronically_oauth_state"

type signUpRequest struct {
	AuthToken      string `json:"auth_token"`
	Nickname       string `json:"nickname"`
	Email          string `json:"email"`
	FullName       string `json:"full_name"`
	ProfilePicture string `json:"profile_picture"`
}

type credentialsRequest struct {
	Username  string `json:"username"`
	AuthToken string `json:"auth_token"`
}

// SignUp registers an Auth0 identity and returns an app token.
// POST /sign-up
func (h *Handlers) SignUp(c *gin.Context) {
	var req signUpRequest
	if !bindRequest(c, &req) {
		return
	}
	req.Nickname = strings.TrimSpace(req.Nickname)
	req.Email = strings.TrimSpace(req.Email)
	if req.AuthToken == "" || req.Nickname == "" || req.Email == "" {
		util.RespondBadRequest(c, "auth_token, nickname and email are required")
		return
	}

	ctx := c.Request.Context()
	user, err := h.auth.SignUp(ctx, auth.SignUpRequest{
		AuthToken:      req.AuthToken,
		Nickname:       req.Nickname,
		Email:          req.Email,
		FullName:       req.FullName,
		ProfilePicture: req.ProfilePicture,
	})
	if errors.Is(err, auth.ErrUserExists) {
		util.RespondConflict(c, "Username or email is already registered")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "Failed to register user", err)
		return
	}

	resp, err := h.auth.IssueToken(ctx, user)
	if err != nil {
		util.RespondInternalError(c, "Failed to issue token", err)
		return
	}
	util.RespondStatus(c, http.StatusCreated, statusSuccess, gin.H{
		"message":    "User registered successfully",
		"token":      resp.Token,
		"expires_at": resp.ExpiresAt,
	})
}

// CheckLogin verifies a username and Auth0 subject and returns a token.
// POST /check-login
func (h *Handlers) CheckLogin(c *gin.Context) {
	var req credentialsRequest
	if !bindRequest(c, &req) {
		return
	}
	if req.Username == "" || req.AuthToken == "" {
		util.RespondUnauthorized(c, "Invalid username or password")
		return
	}

	resp, err := h.auth.Authenticate(c.Request.Context(), req.AuthToken, req.Username)
	if !h.respondAuthError(c, err, "Invalid username or password") {
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{
		"message":    "Login successful",
		"token":      resp.Token,
		"expires_at": resp.ExpiresAt,
	})
}

// SetUsername exchanges an Auth0 subject for an app token. The username is
// optional and must match the account when given.
// POST /set-username
func (h *Handlers) SetUsername(c *gin.Context) {
	var req credentialsRequest
	if !bindRequest(c, &req) {
		return
	}
	if req.AuthToken == "" {
		util.RespondBadRequest(c, "Auth token is required")
		return
	}

	resp, err := h.auth.Authenticate(c.Request.Context(), req.AuthToken, req.Username)
	if errors.Is(err, auth.ErrUserNotFound) || errors.Is(err, auth.ErrInvalidCredentials) {
		util.RespondNotFound(c, "Invalid auth token")
		return
	}
	if !h.respondAuthError(c, err, "Invalid auth token") {
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{
		"token":    resp.Token,
		"username": resp.User.Username,
		"message":  "User data initialized in token",
	})
}

// respondAuthError reports a failed login and returns false, or returns
// true when err is nil.
func (h *Handlers) respondAuthError(c *gin.Context, err error, invalidMessage string) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, auth.ErrDeactivated):
		util.RespondForbidden(c, "Account is deactivated")
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrUserNotFound):
		util.RespondUnauthorized(c, invalidMessage)
	default:
		util.RespondInternalError(c, "Internal server error", err)
	}
	return false
}

// GetUsername returns the username bound to the token.
// POST /get-username
func (h *Handlers) GetUsername(c *gin.Context) {
	username, ok := util.GetUsernameFromContext(c)
	if !ok {
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"username": username})
}

// DeactivateUser marks an account inactive. Its tokens stop working.
// POST /deactivate-user
func (h *Handlers) DeactivateUser(c *gin.Context) {
	var req credentialsRequest
	if !bindRequest(c, &req) {
		return
	}
	if req.Username == "" || req.AuthToken == "" {
		util.RespondBadRequest(c, "username and auth_token are required")
		return
	}

	err := h.auth.Deactivate(c.Request.Context(), req.Username, req.AuthToken)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		util.RespondNotFound(c, "User not found")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "Internal server error", err)
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{
		"message": fmt.Sprintf("User %s has been deactivated", req.Username),
	})
}

// ReactivateUser restores a deactivated account.
// POST /reactivate-user
func (h *Handlers) ReactivateUser(c *gin.Context) {
	var req credentialsRequest
	if !bindRequest(c, &req) {
		return
	}
	if req.Username == "" || req.AuthToken == "" {
		util.RespondBadRequest(c, "username and auth_token are required")
		return
	}

	err := h.auth.Reactivate(c.Request.Context(), req.Username, req.AuthToken)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		util.RespondNotFound(c, "User not found")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "Internal server error", err)
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{
		"message": fmt.Sprintf("User %s has been reactivated", req.Username),
	})
}

// DeleteUser removes the caller's account and everything it owns.
// POST /delete-user
func (h *Handlers) DeleteUser(c *gin.Context) {
	username, ok := util.GetUsernameFromContext(c)
	if !ok {
		return
	}

	err := h.auth.DeleteAccount(c.Request.Context(), username)
	if errors.Is(err, auth.ErrUserNotFound) {
		util.RespondNotFound(c, fmt.Sprintf("User %s not found.", username))
		return
	}
	if err != nil {
		util.RespondInternalError(c, "Internal server error", err)
		return
	}
	logger.Log.Info("User deleted", logger.WithUsername(username))
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{
		"message": fmt.Sprintf("User %s has been deleted.", username),
	})
}

// Auth0Login redirects the browser to the Auth0 authorize page.
// GET /auth/login
func (h *Handlers) Auth0Login(c *gin.Context) {
	a := h.auth.Auth0()
	if a == nil {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("Auth0 login"))
		return
	}
	state := uuid.New().String()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, 600, "/auth", "", c.Request.TLS != nil, true)
	c.Redirect(http.StatusTemporaryRedirect, a.AuthCodeURL(state))
}

// Auth0Callback finishes the authorization-code flow and returns a token.
// GET /auth/callback
func (h *Handlers) Auth0Callback(c *gin.Context) {
	if h.auth.Auth0() == nil {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("Auth0 login"))
		return
	}
	if msg := c.Query("error"); msg != "" {
		util.RespondUnauthorized(c, "Auth0 login failed: "+c.DefaultQuery("error_description", msg))
		return
	}

	state := c.Query("state")
	expected, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(state), []byte(expected)) != 1 {
		util.RespondBadRequest(c, "Invalid OAuth state")
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/auth", "", c.Request.TLS != nil, true)

	code := c.Query("code")
	if code == "" {
		util.RespondBadRequest(c, "Authorization code is required")
		return
	}

	resp, err := h.auth.LoginWithAuth0(c.Request.Context(), code)
	if errors.Is(err, auth.ErrDeactivated) {
		util.RespondForbidden(c, "Account is deactivated")
		return
	}
	if err != nil {
		logger.Log.Warn("Auth0 callback failed", zap.Error(err))
		util.RespondUnauthorized(c, "Auth0 login failed")
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{
		"token":      resp.Token,
		"username":   resp.User.Username,
		"expires_at": resp.ExpiresAt,
	})
}
