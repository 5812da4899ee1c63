package config

import (
	"fmt"
	"strings"

	"golang.org/x/oauth2"
)

// Auth0Config is the Auth0 tenant used for the authorization-code login.
type Auth0Config struct {
	Domain       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Enabled reports whether every Auth0 setting is present.
func (a Auth0Config) Enabled() bool {
	return a.Domain != "" && a.ClientID != "" && a.ClientSecret != "" && a.RedirectURL != ""
}

// BaseURL is the tenant origin, e.g. https://example.us.auth0.com.
func (a Auth0Config) BaseURL() string {
	d := strings.TrimSuffix(a.Domain, "/")
	if strings.HasPrefix(d, "http://") || strings.HasPrefix(d, "https://") {
		return d
	}
	return "https://" + d
}

// UserInfoURL is the OIDC userinfo endpoint of the tenant.
func (a Auth0Config) UserInfoURL() string {
	return a.BaseURL() + "/userinfo"
}

// OAuth2 builds the oauth2 client configuration for the tenant.
func (a Auth0Config) OAuth2() (*oauth2.Config, error) {
	if !a.Enabled() {
		return nil, fmt.Errorf("auth0 is not configured: AUTH0_DOMAIN, AUTH0_CLIENT_ID, AUTH0_CLIENT_SECRET and AUTH0_REDIRECT_URL are required")
	}
	base := a.BaseURL()
	return &oauth2.Config{
		ClientID:     a.ClientID,
		ClientSecret: a.ClientSecret,
		RedirectURL:  a.RedirectURL,
		Scopes:       []string{"openid", "profile", "email"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  base + "/authorize",
			TokenURL: base + "/oauth/token",
		},
	}, nil
}
