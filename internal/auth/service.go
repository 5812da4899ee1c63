package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chronically/chronically/internal/logger"
	"github.com/chronically/chronically/internal/metrics"
	"github.com/chronically/chronically/internal/models"
	"github.com/chronically/chronically/internal/repository"
	"github.com/chronically/chronically/internal/session"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("username or email is already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDeactivated        = errors.New("account is deactivated")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// subjectPrefix marks auth_token values stored as digests. Rows without it
// hold the raw Auth0 subject and are upgraded on first use.
const subjectPrefix = "sha256:"

// Claims are carried by every app token. SessionID selects the per-token
// session state.
type Claims struct {
	Username  string `json:"username"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// AuthResponse is returned when a token is issued.
type AuthResponse struct {
	Token     string       `json:"token"`
	User      *models.User `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Identity is the caller behind a validated token.
type Identity struct {
	User    *models.User
	Session *session.State
}

// SignUpRequest mirrors the sign-up body. AuthToken is the Auth0 subject.
type SignUpRequest struct {
	AuthToken      string `json:"auth_token" binding:"required"`
	Nickname       string `json:"nickname" binding:"required"`
	Email          string `json:"email" binding:"required"`
	FullName       string `json:"full_name"`
	ProfilePicture string `json:"profile_picture"`
}

// Service handles all authentication operations
type Service struct {
	jwtSecret []byte
	tokenTTL  time.Duration
	users     repository.UserRepository
	sessions  session.Store
	auth0     *Auth0
}

// NewService creates a new authentication service
func NewService(jwtSecret []byte, tokenTTL time.Duration, users repository.UserRepository, sessions session.Store) *Service {
	return &Service{
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		users:     users,
		sessions:  sessions,
	}
}

// SetAuth0 enables the server-side authorization-code login.
func (s *Service) SetAuth0(a *Auth0) {
	s.auth0 = a
}

// Auth0 returns the configured tenant client, or nil.
func (s *Service) Auth0() *Auth0 {
	return s.auth0
}

// Sessions exposes the per-token session store.
func (s *Service) Sessions() session.Store {
	return s.sessions
}

// HashSubject returns the stored form of an Auth0 subject.
func HashSubject(subject string) string {
	sum := sha256.Sum256([]byte(subject))
	return subjectPrefix + hex.EncodeToString(sum[:])
}

// subjectMatches compares a presented subject with the stored value,
// accepting raw subjects from rows written before hashing.
func subjectMatches(stored, subject string) bool {
	want := stored
	got := subject
	if strings.HasPrefix(stored, subjectPrefix) {
		got = HashSubject(subject)
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

// SignUp registers an account for an Auth0 identity.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*models.User, error) {
	user := &models.User{
		Username:       req.Nickname,
		Email:          req.Email,
		AuthToken:      HashSubject(req.AuthToken),
		FullName:       req.FullName,
		ProfilePicture: req.ProfilePicture,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	logger.Log.Info("User signed up", logger.WithUsername(user.Username))
	return user, nil
}

// Login checks a username and Auth0 subject pair. Deactivated accounts
// fail with ErrDeactivated only after the credentials match.
func (s *Service) Login(ctx context.Context, username, subject string) (*models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !subjectMatches(user.AuthToken, subject) {
		return nil, ErrInvalidCredentials
	}
	s.upgradeSubject(ctx, user, subject)
	if user.Deactivated {
		return user, ErrDeactivated
	}
	return user, nil
}

// FindBySubject returns the account registered with an Auth0 subject.
func (s *Service) FindBySubject(ctx context.Context, subject string) (*models.User, error) {
	user, err := s.users.GetUserByAuthToken(ctx, HashSubject(subject))
	if errors.Is(err, repository.ErrUserNotFound) {
		user, err = s.users.GetUserByAuthToken(ctx, subject)
		if err == nil {
			s.upgradeSubject(ctx, user, subject)
		}
	}
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *Service) upgradeSubject(ctx context.Context, user *models.User, subject string) {
	if strings.HasPrefix(user.AuthToken, subjectPrefix) {
		return
	}
	hashed := HashSubject(subject)
	if err := s.users.UpdateFields(ctx, user.Username, map[string]interface{}{"auth_token": hashed}); err != nil {
		logger.WarnWithFields("Failed to upgrade stored subject", err, logger.WithUsername(user.Username))
		return
	}
	user.AuthToken = hashed
}

// Authenticate exchanges an Auth0 subject for an app token. When username is
// given it must belong to the same account.
func (s *Service) Authenticate(ctx context.Context, subject, username string) (*AuthResponse, error) {
	var (
		user *models.User
		err  error
	)
	if username != "" {
		user, err = s.Login(ctx, username, subject)
	} else {
		user, err = s.FindBySubject(ctx, subject)
		if err == nil && user.Deactivated {
			err = ErrDeactivated
		}
	}
	if err != nil {
		return nil, err
	}
	return s.IssueToken(ctx, user)
}

// IssueToken opens a fresh session for user and signs a token bound to it.
func (s *Service) IssueToken(ctx context.Context, user *models.User) (*AuthResponse, error) {
	st, err := s.sessions.Create(ctx, user.Username)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	metrics.RecordSessionCreated()

	now := time.Now()
	expiresAt := now.Add(s.tokenTTL)
	claims := Claims{
		Username:  user.Username,
		SessionID: st.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &AuthResponse{Token: signed, User: user, ExpiresAt: expiresAt}, nil
}

// ParseToken verifies signature, algorithm and expiry.
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Username == "" || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateToken resolves a token to its user and session. The session must
// still exist and the account must be active.
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*Identity, error) {
	claims, err := s.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	st, err := s.sessions.Get(ctx, claims.SessionID)
	if errors.Is(err, session.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if st.Username != claims.Username {
		logger.Log.Warn("Token and session disagree on user",
			zap.String("token_user", claims.Username),
			zap.String("session_user", st.Username),
		)
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetUserByUsername(ctx, claims.Username)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if user.Deactivated {
		return nil, ErrDeactivated
	}
	return &Identity{User: user, Session: st}, nil
}

// Deactivate marks the account inactive and ends its sessions.
func (s *Service) Deactivate(ctx context.Context, username, subject string) error {
	if _, err := s.Login(ctx, username, subject); err != nil && !errors.Is(err, ErrDeactivated) {
		return err
	}
	if err := s.users.SetDeactivated(ctx, username, true); err != nil {
		return err
	}
	return s.sessions.DeleteUser(ctx, username)
}

// Reactivate restores a deactivated account.
func (s *Service) Reactivate(ctx context.Context, username, subject string) error {
	if _, err := s.Login(ctx, username, subject); err != nil && !errors.Is(err, ErrDeactivated) {
		return err
	}
	return s.users.SetDeactivated(ctx, username, false)
}

// DeleteAccount removes the account, its rows and its sessions.
func (s *Service) DeleteAccount(ctx context.Context, username string) error {
	if err := s.users.DeleteUser(ctx, username); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return s.sessions.DeleteUser(ctx, username)
}

// Rename moves the account to newUsername and returns a token for it. Old
// tokens stop working because their sessions are dropped.
func (s *Service) Rename(ctx context.Context, oldUsername, newUsername string) (*AuthResponse, error) {
	if err := s.users.RenameUser(ctx, oldUsername, newUsername); err != nil {
		switch {
		case errors.Is(err, repository.ErrUserExists):
			return nil, ErrUserExists
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if err := s.sessions.DeleteUser(ctx, oldUsername); err != nil {
		logger.WarnWithFields("Failed to drop sessions after rename", err, logger.WithUsername(oldUsername))
	}
	user, err := s.users.GetUserByUsername(ctx, newUsername)
	if err != nil {
		return nil, err
	}
	return s.IssueToken(ctx, user)
}
