package service

import (
	"fmt"
	"time"

	"github.com/chronically/chronically/pkg/api"
	"github.com/chronically/chronically/pkg/client"
	"github.com/chronically/chronically/pkg/credentials"
	clierrors "github.com/chronically/chronically/pkg/errors"
	"github.com/chronically/chronically/pkg/logger"
	"github.com/chronically/chronically/pkg/output"
	"github.com/chronically/chronically/pkg/prompter"
)

// AuthService stores and checks the app token
type AuthService struct{}

// NewAuthService creates a new auth service
func NewAuthService() *AuthService {
	return &AuthService{}
}

// LoginOptions selects how a token is obtained. Token wins over
// Username/Subject; with neither, the token is prompted for.
type LoginOptions struct {
	Token    string
	Username string
	Subject  string
}

// Login verifies a token with the server and saves it
func (s *AuthService) Login(opts LoginOptions) error {
	creds, err := credentials.Load()
	if err != nil {
		logger.Error("Failed to load credentials", "error", err)
		return err
	}
	if creds.IsValid() && opts.Token == "" && opts.Subject == "" {
		output.PrintWarning("Already logged in as %s", creds.Username)
		confirm, err := prompter.PromptConfirm("Continue with new login?")
		if err != nil {
			return err
		}
		if !confirm {
			return nil
		}
	}

	token := opts.Token
	var expiresAt time.Time
	switch {
	case token != "":
	case opts.Username != "" && opts.Subject != "":
		output.PrintInfo("Authenticating...")
		resp, err := api.CheckLogin(opts.Username, opts.Subject)
		if err != nil {
			return err
		}
		token, expiresAt = resp.Token, resp.ExpiresAt
	default:
		token, err = prompter.PromptSecret("App token: ")
		if err != nil {
			return err
		}
	}
	if token == "" {
		return clierrors.ValidationError("token", "cannot be empty")
	}

	client.SetAuthToken(token)
	username, err := api.GetUsername()
	if err != nil {
		client.ClearAuthToken()
		return err
	}

	creds = &credentials.Credentials{Token: token, ExpiresAt: expiresAt, Username: username}
	if err := credentials.Save(creds); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	output.PrintSuccess("✓ Logged in as %s", username)
	return nil
}

// Logout deletes the stored token
func (s *AuthService) Logout() error {
	creds, err := credentials.Load()
	if err != nil {
		return err
	}
	if creds == nil {
		output.PrintInfo("Not logged in.")
		return nil
	}
	if err := credentials.Delete(); err != nil {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	client.ClearAuthToken()
	output.PrintSuccess("✓ Logged out %s", creds.Username)
	return nil
}

// WhoAmI prints the account the stored token belongs to
func (s *AuthService) WhoAmI() error {
	creds, err := RequireLogin()
	if err != nil {
		return err
	}
	username, err := api.GetUsername()
	if err != nil {
		return err
	}
	record := map[string]interface{}{"Username": username}
	if !creds.ExpiresAt.IsZero() {
		record["Expires"] = formatTime(creds.ExpiresAt)
	}
	return output.PrintRecord("Account", record)
}

// Region prints the caller's region, or sets it when region is not empty
func (s *AuthService) Region(region string) error {
	if _, err := RequireLogin(); err != nil {
		return err
	}
	if region != "" {
		return printMessage(api.SetRegion(region))
	}
	current, err := api.GetRegion("")
	if err != nil {
		return fmt.Errorf("failed to fetch region: %w", err)
	}
	if current == "" {
		output.PrintInfo("No region set. Run 'chronically region <name>' to pick one.")
		return nil
	}
	return output.PrintRecord("Region", map[string]interface{}{"Region": current})
}

// RequireLogin returns the stored credentials or a not-logged-in error
func RequireLogin() (*credentials.Credentials, error) {
	creds, err := credentials.Load()
	if err != nil {
		return nil, err
	}
	if creds == nil {
		return nil, clierrors.NotLoggedInError()
	}
	if creds.IsExpired() {
		return nil, clierrors.SessionExpiredError()
	}
	return creds, nil
}
