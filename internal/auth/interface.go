package auth

import (
	"context"

	"github.com/chronically/chronically/internal/models"
	"github.com/chronically/chronically/internal/session"
)

// AuthServiceInterface is what handlers and middleware need from Service.
type AuthServiceInterface interface {
	SignUp(ctx context.Context, req SignUpRequest) (*models.User, error)
	Login(ctx context.Context, username, subject string) (*models.User, error)
	Authenticate(ctx context.Context, subject, username string) (*AuthResponse, error)
	IssueToken(ctx context.Context, user *models.User) (*AuthResponse, error)
	ValidateToken(ctx context.Context, tokenString string) (*Identity, error)

	Deactivate(ctx context.Context, username, subject string) error
	Reactivate(ctx context.Context, username, subject string) error
	DeleteAccount(ctx context.Context, username string) error
	Rename(ctx context.Context, oldUsername, newUsername string) (*AuthResponse, error)

	LoginWithAuth0(ctx context.Context, code string) (*AuthResponse, error)
	Auth0() *Auth0
	Sessions() session.Store
}

var _ AuthServiceInterface = (*Service)(nil)
