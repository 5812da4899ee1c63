package credentials

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chronically/chronically/pkg/config"
)

func initConfig(t *testing.T) {
	t.Helper()
	if err := config.Init(filepath.Join(t.TempDir(), "config.toml")); err != nil {
		t.Fatalf("Failed to initialize config: %v", err)
	}
}

// TestCredentialsIsExpired validates token expiration check
func TestCredentialsIsExpired(t *testing.T) {
	testCases := []struct {
		expiresAt time.Time
		expect    bool
		name      string
	}{
		{time.Now().Add(-1 * time.Hour), true, "past expiration"},
		{time.Now().Add(1 * time.Hour), false, "future expiration"},
		{time.Now().Add(-1 * time.Minute), true, "recently expired"},
		{time.Time{}, false, "no expiry"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			creds := &Credentials{Token: "test_token", ExpiresAt: tc.expiresAt}
			if got := creds.IsExpired(); got != tc.expect {
				t.Errorf("Expected IsExpired=%v, got %v", tc.expect, got)
			}
		})
	}
}

// TestCredentialsIsValid validates credential validity check
func TestCredentialsIsValid(t *testing.T) {
	var nilCreds *Credentials
	if nilCreds.IsValid() {
		t.Error("nil credentials should be invalid")
	}
	if (&Credentials{ExpiresAt: time.Now().Add(time.Hour)}).IsValid() {
		t.Error("credentials without a token should be invalid")
	}
	if !(&Credentials{Token: "t", ExpiresAt: time.Now().Add(time.Hour)}).IsValid() {
		t.Error("unexpired credentials should be valid")
	}
}

// TestSaveLoadDelete validates the on-disk round trip and file mode
func TestSaveLoadDelete(t *testing.T) {
	initConfig(t)

	creds, err := Load()
	if err != nil || creds != nil {
		t.Fatalf("Expected no credentials yet, got %v, %v", creds, err)
	}

	want := &Credentials{Token: "abc", Username: "alice", ExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second)}
	if err := Save(want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(config.GetCredentialsPath())
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected mode 0600, got %v", info.Mode().Perm())
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Token != want.Token || got.Username != want.Username || !got.ExpiresAt.Equal(want.ExpiresAt) {
		t.Errorf("Loaded %+v, want %+v", got, want)
	}

	if err := Delete(); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := Delete(); err != nil {
		t.Errorf("Deleting twice should not fail: %v", err)
	}
}
