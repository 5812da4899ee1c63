package client

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/chronically/chronically/pkg/config"
)

func initConfig(t *testing.T, baseURL string) {
	t.Helper()
	if err := config.Init(filepath.Join(t.TempDir(), "config.toml")); err != nil {
		t.Fatal(err)
	}
	config.Set("api.base_url", baseURL)
	httpClient = nil
}

// TestGetClientSingleton validates that GetClient returns same instance
func TestGetClientSingleton(t *testing.T) {
	initConfig(t, "http://localhost:8787")

	client1 := GetClient()
	client2 := GetClient()
	if client1 == nil || client1 != client2 {
		t.Error("GetClient should return one non-nil instance")
	}
	if client1.BaseURL != "http://localhost:8787" {
		t.Errorf("unexpected base URL %s", client1.BaseURL)
	}
}

// TestAuthTokenIsSent validates the bearer header and its removal
func TestAuthTokenIsSent(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("Authorization"))
		if r.Header.Get("User-Agent") != UserAgent {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	initConfig(t, srv.URL)

	SetAuthToken("test_token_12345")
	if _, err := GetClient().R().Get("/health"); err != nil {
		t.Fatal(err)
	}
	ClearAuthToken()
	if _, err := GetClient().R().Get("/health"); err != nil {
		t.Fatal(err)
	}

	if len(got) != 2 || got[0] != "Bearer test_token_12345" || got[1] != "" {
		t.Errorf("unexpected Authorization headers %q", got)
	}
}

// TestRetriesUnavailable validates one retry on 503
func TestRetriesUnavailable(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	initConfig(t, srv.URL)

	resp, err := GetClient().R().Get("/health")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode() != http.StatusOK || calls != 2 {
		t.Errorf("expected success after one retry, got %d after %d calls", resp.StatusCode(), calls)
	}
}
