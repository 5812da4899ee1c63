package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chronically/chronically/internal/config"
	"github.com/chronically/chronically/internal/repository"
	"github.com/chronically/chronically/internal/session"
	"github.com/chronically/chronically/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTenant serves the token and userinfo endpoints of an Auth0 tenant.
func fakeTenant(t *testing.T, info Auth0UserInfo) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "at-123",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(info)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newAuth0Service(t *testing.T, tenantURL string) *Service {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "newsreader")
	svc := NewService([]byte("secret"), time.Hour, repository.NewUserRepository(db), session.NewMemoryStore(time.Hour))
	a, err := NewAuth0(config.Auth0Config{
		Domain:       tenantURL,
		ClientID:     "client",
		ClientSecret: "shh",
		RedirectURL:  "http://localhost:8787/auth/callback",
	})
	require.NoError(t, err)
	svc.SetAuth0(a)
	return svc
}

func TestAuthCodeURL(t *testing.T) {
	svc := newAuth0Service(t, "https://tenant.example.com")
	u := svc.Auth0().AuthCodeURL("state-1")
	assert.Contains(t, u, "https://tenant.example.com/authorize?")
	assert.Contains(t, u, "state=state-1")
	assert.Contains(t, u, "client_id=client")
}

func TestLoginWithAuth0CreatesUniqueAccount(t *testing.T) {
	srv := fakeTenant(t, Auth0UserInfo{
		Sub:      "auth0|42",
		Nickname: "NewsReader",
		Email:    "reader@example.org",
		Name:     "News Reader",
	})
	svc := newAuth0Service(t, srv.URL)
	ctx := context.Background()

	resp, err := svc.LoginWithAuth0(ctx, "good-code")
	require.NoError(t, err)
	assert.Equal(t, "newsreader1", resp.User.Username)
	assert.Equal(t, "News Reader", resp.User.FullName)

	again, err := svc.LoginWithAuth0(ctx, "good-code")
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, again.User.ID, "second login reuses the account")

	_, err = svc.LoginWithAuth0(ctx, "bad-code")
	assert.Error(t, err)
}

func TestSanitizeUsername(t *testing.T) {
	assert.Equal(t, "jane.doe", sanitizeUsername("Jane.Doe"))
	assert.Equal(t, "readerx", sanitizeUsername("X!"))
	assert.Len(t, sanitizeUsername("abcdefghijklmnopqrstuvwxyz0123"), 24)
}
