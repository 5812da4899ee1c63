package repository

import (
	"context"
	"errors"

	"github.com/chronically/chronically/internal/models"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("username or email already exists")
	ErrInvalidInput = errors.New("invalid input")
)

// usernameColumns lists every table column holding a username, so renames
// and deletions reach all of a user's rows.
var usernameColumns = []struct {
	table  string
	column string
}{
	{"Preferences", "username"},
	{"follows", "follower_username"},
	{"follows", "followed_username"},
	{"follow_requests", "requester_username"},
	{"follow_requests", "target_username"},
	{"Saved_Articles", "username"},
	{"Saved_Tweets", "username"},
	{"shared_articles", "username"},
	{"shared_tweets", "username"},
	{"comments", "username"},
	{"comments_tweets", "username"},
	{"UserInteractions", "username"},
}

// UserRepository handles all database operations for accounts
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByAuthToken(ctx context.Context, authToken string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	SearchUsernames(ctx context.Context, query string, limit int) ([]string, error)

	SetDeactivated(ctx context.Context, username string, deactivated bool) error
	UpdateFields(ctx context.Context, username string, fields map[string]interface{}) error
	RenameUser(ctx context.Context, oldUsername, newUsername string) error
	// DeleteUser removes the account and every row that references it.
	// It returns ErrUserNotFound when no account matched.
	DeleteUser(ctx context.Context, username string) error

	GetTotalUserCount(ctx context.Context) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil || user.Username == "" || user.Email == "" {
		return ErrInvalidInput
	}
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrUserExists
	}
	return err
}

func (r *userRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return &user, err
}

// GetUserByEmail gets a user by email (case-insensitive)
func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return &user, err
}

// GetUserByAuthToken looks an account up by its stored auth_token value.
func (r *userRepository) GetUserByAuthToken(ctx context.Context, authToken string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("auth_token = ?", authToken).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return &user, err
}

func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

// SearchUsernames returns usernames containing query, active accounts only.
func (r *userRepository) SearchUsernames(ctx context.Context, query string, limit int) ([]string, error) {
	var usernames []string
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username LIKE ? AND deactivated = ?", "%"+query+"%", false).
		Order("username").
		Limit(limit).
		Pluck("username", &usernames).Error
	return usernames, err
}

func (r *userRepository) SetDeactivated(ctx context.Context, username string, deactivated bool) error {
	return r.UpdateFields(ctx, username, map[string]interface{}{"deactivated": deactivated})
}

// UpdateFields updates the named columns and returns ErrUserNotFound when no
// account matched.
func (r *userRepository) UpdateFields(ctx context.Context, username string, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// RenameUser moves the account and all of its rows to newUsername in one
// transaction.
func (r *userRepository) RenameUser(ctx context.Context, oldUsername, newUsername string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("username = ?", oldUsername).Update("username", newUsername)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return ErrUserExists
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		for _, uc := range usernameColumns {
			if err := tx.Table(uc.table).Where(uc.column+" = ?", oldUsername).Update(uc.column, newUsername).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *userRepository) DeleteUser(ctx context.Context, username string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("username = ?", username).Delete(&models.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		for _, uc := range usernameColumns {
			if err := tx.Exec("DELETE FROM "+tx.Statement.Quote(uc.table)+" WHERE "+tx.Statement.Quote(uc.column)+" = ?", username).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *userRepository) GetTotalUserCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}
