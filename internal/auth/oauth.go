package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chronically/chronically/internal/config"
	"github.com/chronically/chronically/internal/logger"
	"github.com/chronically/chronically/internal/models"
	"github.com/chronically/chronically/internal/telemetry"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Auth0UserInfo is the subset of the OIDC userinfo response we keep.
type Auth0UserInfo struct {
	Sub      string `json:"sub"`
	Nickname string `json:"nickname"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Picture  string `json:"picture"`
}

// Auth0 performs the authorization-code exchange against an Auth0 tenant.
type Auth0 struct {
	oauth       *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// NewAuth0 builds a tenant client. Outbound calls are traced.
func NewAuth0(cfg config.Auth0Config) (*Auth0, error) {
	oc, err := cfg.OAuth2()
	if err != nil {
		return nil, err
	}
	return &Auth0{
		oauth:       oc,
		userInfoURL: cfg.UserInfoURL(),
		httpClient:  telemetry.NewInstrumentedHTTPClient("auth0", 10*time.Second),
	}, nil
}

// AuthCodeURL is where the login redirect sends the browser.
func (a *Auth0) AuthCodeURL(state string) string {
	return a.oauth.AuthCodeURL(state)
}

// Exchange trades an authorization code for the user's profile.
func (a *Auth0) Exchange(ctx context.Context, code string) (*Auth0UserInfo, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	token, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	resp, err := a.oauth.Client(ctx, token).Get(a.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read user info: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var info Auth0UserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	if info.Sub == "" {
		return nil, errors.New("user info has no subject")
	}
	return &info, nil
}

// LoginWithAuth0 completes the code flow: it finds or creates the account
// for the Auth0 identity and issues an app token.
func (s *Service) LoginWithAuth0(ctx context.Context, code string) (*AuthResponse, error) {
	if s.auth0 == nil {
		return nil, errors.New("auth0 login is not configured")
	}
	info, err := s.auth0.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	user, err := s.FindBySubject(ctx, info.Sub)
	switch {
	case errors.Is(err, ErrUserNotFound):
		user, err = s.createFromAuth0(ctx, info)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case user.Deactivated:
		return nil, ErrDeactivated
	}
	return s.IssueToken(ctx, user)
}

func (s *Service) createFromAuth0(ctx context.Context, info *Auth0UserInfo) (*models.User, error) {
	base := info.Nickname
	if base == "" {
		base = strings.SplitN(info.Email, "@", 2)[0]
	}
	username, err := s.ensureUniqueUsername(ctx, sanitizeUsername(base))
	if err != nil {
		return nil, err
	}
	user, err := s.SignUp(ctx, SignUpRequest{
		AuthToken:      info.Sub,
		Nickname:       username,
		Email:          info.Email,
		FullName:       info.Name,
		ProfilePicture: info.Picture,
	})
	if err != nil {
		return nil, err
	}
	logger.Log.Info("Created account from Auth0 login",
		logger.WithUsername(username),
		zap.String("email", info.Email),
	)
	return user, nil
}

func (s *Service) ensureUniqueUsername(ctx context.Context, base string) (string, error) {
	username := base
	for counter := 1; counter < 1000; counter++ {
		taken, err := s.users.UsernameExists(ctx, username)
		if err != nil {
			return "", fmt.Errorf("database error: %w", err)
		}
		if !taken {
			return username, nil
		}
		username = fmt.Sprintf("%s%d", base, counter)
	}
	return "", errors.New("unable to generate unique username")
}

func sanitizeUsername(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if len(cleaned) < 3 {
		cleaned = "reader" + cleaned
	}
	if len(cleaned) > 24 {
		cleaned = cleaned[:24]
	}
	return cleaned
}
