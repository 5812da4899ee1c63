package auth

import (
	"context"
	"testing"
	"time"

	"github.com/chronically/chronically/internal/models"
	"github.com/chronically/chronically/internal/repository"
	"github.com/chronically/chronically/internal/session"
	"github.com/chronically/chronically/internal/testutil"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// AuthServiceTestSuite contains auth service tests
type AuthServiceTestSuite struct {
	suite.Suite
	db          *gorm.DB
	sessions    *session.MemoryStore
	authService *Service
	ctx         context.Context
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.db = testutil.NewDB(suite.T())
	suite.sessions = session.NewMemoryStore(time.Hour)
	suite.authService = NewService([]byte("test-secret"), time.Hour, repository.NewUserRepository(suite.db), suite.sessions)
	suite.ctx = context.Background()
}

func (suite *AuthServiceTestSuite) signUp(nickname, subject string) *models.User {
	user, err := suite.authService.SignUp(suite.ctx, SignUpRequest{
		AuthToken: subject,
		Nickname:  nickname,
		Email:     nickname + "@example.com",
		FullName:  "Test " + nickname,
	})
	suite.Require().NoError(err)
	return user
}

func (suite *AuthServiceTestSuite) TestSignUpStoresDigest() {
	user := suite.signUp("alice", "auth0|alice")
	suite.Equal(HashSubject("auth0|alice"), user.AuthToken)
	suite.NotContains(user.AuthToken, "auth0|alice")

	_, err := suite.authService.SignUp(suite.ctx, SignUpRequest{AuthToken: "auth0|x", Nickname: "alice", Email: "new@example.com"})
	suite.ErrorIs(err, ErrUserExists)
}

func (suite *AuthServiceTestSuite) TestLogin() {
	suite.signUp("alice", "auth0|alice")

	user, err := suite.authService.Login(suite.ctx, "alice", "auth0|alice")
	suite.Require().NoError(err)
	suite.Equal("alice", user.Username)

	_, err = suite.authService.Login(suite.ctx, "alice", "auth0|mallory")
	suite.ErrorIs(err, ErrInvalidCredentials)

	_, err = suite.authService.Login(suite.ctx, "nobody", "auth0|alice")
	suite.ErrorIs(err, ErrInvalidCredentials)
}

func (suite *AuthServiceTestSuite) TestLegacyPlainSubjectIsUpgraded() {
	testutil.CreateUser(suite.T(), suite.db, "legacy")
	suite.Require().NoError(suite.db.Model(&models.User{}).Where("username = ?", "legacy").
		Update("auth_token", "google-oauth2|123").Error)

	resp, err := suite.authService.Authenticate(suite.ctx, "google-oauth2|123", "")
	suite.Require().NoError(err)
	suite.Equal("legacy", resp.User.Username)

	var stored models.User
	suite.Require().NoError(suite.db.Where("username = ?", "legacy").First(&stored).Error)
	suite.Equal(HashSubject("google-oauth2|123"), stored.AuthToken)
}

func (suite *AuthServiceTestSuite) TestIssueAndValidateToken() {
	suite.signUp("alice", "auth0|alice")

	resp, err := suite.authService.Authenticate(suite.ctx, "auth0|alice", "")
	suite.Require().NoError(err)
	suite.NotEmpty(resp.Token)

	id, err := suite.authService.ValidateToken(suite.ctx, resp.Token)
	suite.Require().NoError(err)
	suite.Equal("alice", id.User.Username)
	suite.Equal("alice", id.Session.Username)

	other, err := suite.authService.Authenticate(suite.ctx, "auth0|alice", "alice")
	suite.Require().NoError(err)
	otherID, err := suite.authService.ValidateToken(suite.ctx, other.Token)
	suite.Require().NoError(err)
	suite.NotEqual(id.Session.ID, otherID.Session.ID, "each login gets its own session")
}

func (suite *AuthServiceTestSuite) TestValidateTokenRejects() {
	suite.signUp("alice", "auth0|alice")
	resp, err := suite.authService.Authenticate(suite.ctx, "auth0|alice", "")
	suite.Require().NoError(err)

	_, err = suite.authService.ValidateToken(suite.ctx, "not-a-token")
	suite.ErrorIs(err, ErrInvalidToken)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Username: "alice", SessionID: "x"})
	signed, _ := forged.SignedString([]byte("wrong-secret"))
	_, err = suite.authService.ValidateToken(suite.ctx, signed)
	suite.ErrorIs(err, ErrInvalidToken)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Username:  "alice",
		SessionID: "x",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, _ = expired.SignedString([]byte("test-secret"))
	_, err = suite.authService.ValidateToken(suite.ctx, signed)
	suite.ErrorIs(err, ErrInvalidToken)

	suite.Require().NoError(suite.authService.Deactivate(suite.ctx, "alice", "auth0|alice"))
	_, err = suite.authService.ValidateToken(suite.ctx, resp.Token)
	suite.ErrorIs(err, ErrInvalidToken, "deactivation ends sessions")
}

func (suite *AuthServiceTestSuite) TestDeactivateAndReactivate() {
	suite.signUp("alice", "auth0|alice")

	suite.Require().NoError(suite.authService.Deactivate(suite.ctx, "alice", "auth0|alice"))
	_, err := suite.authService.Login(suite.ctx, "alice", "auth0|alice")
	suite.ErrorIs(err, ErrDeactivated)
	_, err = suite.authService.Authenticate(suite.ctx, "auth0|alice", "")
	suite.ErrorIs(err, ErrDeactivated)

	suite.ErrorIs(suite.authService.Reactivate(suite.ctx, "alice", "auth0|bad"), ErrInvalidCredentials)
	suite.Require().NoError(suite.authService.Reactivate(suite.ctx, "alice", "auth0|alice"))
	_, err = suite.authService.Login(suite.ctx, "alice", "auth0|alice")
	suite.NoError(err)
}

func (suite *AuthServiceTestSuite) TestRenameInvalidatesOldTokens() {
	suite.signUp("alice", "auth0|alice")
	suite.signUp("bob", "auth0|bob")
	old, err := suite.authService.Authenticate(suite.ctx, "auth0|alice", "")
	suite.Require().NoError(err)

	_, err = suite.authService.Rename(suite.ctx, "alice", "bob")
	suite.ErrorIs(err, ErrUserExists)

	resp, err := suite.authService.Rename(suite.ctx, "alice", "alicia")
	suite.Require().NoError(err)
	suite.Equal("alicia", resp.User.Username)

	_, err = suite.authService.ValidateToken(suite.ctx, old.Token)
	suite.ErrorIs(err, ErrInvalidToken)
	id, err := suite.authService.ValidateToken(suite.ctx, resp.Token)
	suite.Require().NoError(err)
	suite.Equal("alicia", id.User.Username)
}

func (suite *AuthServiceTestSuite) TestDeleteAccount() {
	suite.signUp("alice", "auth0|alice")
	suite.Require().NoError(suite.authService.DeleteAccount(suite.ctx, "alice"))
	suite.ErrorIs(suite.authService.DeleteAccount(suite.ctx, "alice"), ErrUserNotFound)
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
