package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestInitWithCustomPath validates custom config path
func TestInitWithCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	customConfigPath := filepath.Join(tempDir, "custom", "path", "config.toml")

	if err := Init(customConfigPath); err != nil {
		t.Fatalf("Failed to initialize with custom path: %v", err)
	}

	expectedDir := filepath.Join(tempDir, "custom", "path")
	if GetConfigDir() != expectedDir {
		t.Errorf("Expected config dir %s, got %s", expectedDir, GetConfigDir())
	}
	if _, err := os.Stat(expectedDir); err != nil {
		t.Errorf("Config directory should exist: %v", err)
	}
	if GetConfigFilePath() != customConfigPath {
		t.Errorf("Expected config file %s, got %s", customConfigPath, GetConfigFilePath())
	}
}

// TestCredentialsPathStructure validates credentials path structure
func TestCredentialsPathStructure(t *testing.T) {
	tempDir := t.TempDir()
	if err := Init(filepath.Join(tempDir, "config.toml")); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	want := filepath.Join(tempDir, "credentials.json")
	if GetCredentialsPath() != want {
		t.Errorf("Expected credentials path %s, got %s", want, GetCredentialsPath())
	}
}

// TestDefaults validates the built-in defaults
func TestDefaults(t *testing.T) {
	if err := Init(filepath.Join(t.TempDir(), "config.toml")); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	if got := GetString("api.base_url"); got != "http://localhost:8787" {
		t.Errorf("Expected default base URL 'http://localhost:8787', got '%s'", got)
	}
	if got := GetInt("api.timeout"); got != 30 {
		t.Errorf("Expected default timeout 30, got %d", got)
	}
	if got := GetString("output.format"); got != "table" {
		t.Errorf("Expected default format 'table', got '%s'", got)
	}
	if got := GetFloat("feed.tweet_ratio"); got != 0.7 {
		t.Errorf("Expected default tweet ratio 0.7, got %v", got)
	}
	if got := GetString("log.level"); got != "info" {
		t.Errorf("Expected default log level 'info', got '%s'", got)
	}
	if got := GetBool("some.bool.key"); got {
		t.Error("Unset bool should be false")
	}
}

// TestUserConfigOverridesDefaults validates reading the TOML file
func TestUserConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := "[api]\nbase_url = \"https://api.chronically.test\"\n\n[feed]\ntweet_ratio = 0.5\n"
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	if err := Init(path); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	if got := GetString("api.base_url"); got != "https://api.chronically.test" {
		t.Errorf("Expected base URL from file, got '%s'", got)
	}
	if got := GetFloat("feed.tweet_ratio"); got != 0.5 {
		t.Errorf("Expected tweet ratio 0.5, got %v", got)
	}
	if got := GetInt("api.timeout"); got != 30 {
		t.Errorf("Defaults should survive a partial file, got timeout %d", got)
	}
}

// TestEnvironmentOverrides validates CHRONICALLY_* variables
func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("CHRONICALLY_OUTPUT_FORMAT", "json")
	if err := Init(filepath.Join(t.TempDir(), "config.toml")); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	if got := GetString("output.format"); got != "json" {
		t.Errorf("Expected env override 'json', got '%s'", got)
	}
}

// TestSetStringPersists validates writing the config file
func TestSetStringPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := Init(path); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	if err := SetString("api.base_url", "http://example.test"); err != nil {
		t.Fatalf("SetString failed: %v", err)
	}

	if err := Init(path); err != nil {
		t.Fatalf("Failed to re-initialize: %v", err)
	}
	if got := GetString("api.base_url"); got != "http://example.test" {
		t.Errorf("Expected persisted base URL, got '%s'", got)
	}
}

// TestExpandPath validates tilde expansion
func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandPath("~/logs/cli.log"); got != filepath.Join(home, "logs", "cli.log") {
		t.Errorf("Unexpected expansion: %s", got)
	}
	if got := expandPath("/var/log/cli.log"); got != "/var/log/cli.log" {
		t.Errorf("Absolute paths should be unchanged, got %s", got)
	}
}
