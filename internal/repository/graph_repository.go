package repository

import (
	"context"
	"errors"

	"github.com/chronically/chronically/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrSelfFollow       = errors.New("cannot follow yourself")
	ErrAlreadyFollowing = errors.New("already following this user")
	ErrNotFollowing     = errors.New("not following this user")
	ErrRequestExists    = errors.New("follow request already pending")
	ErrRequestNotFound  = errors.New("follow request not found")
	ErrAlreadyFriends   = errors.New("already friends")
	ErrNotFriends       = errors.New("not friends")
)

// Friend status values reported by FriendStatus.
const (
	StatusFriends         = "friends"
	StatusRequestSent     = "request_sent"
	StatusRequestReceived = "request_received"
	StatusNotFriends      = "not_friends"
)

// GraphRepository stores follows and friend requests. Two users are friends
// when each follows the other.
type GraphRepository interface {
	Follow(ctx context.Context, follower, followed string) error
	Unfollow(ctx context.Context, follower, followed string) error
	IsFollowing(ctx context.Context, follower, followed string) (bool, error)
	Following(ctx context.Context, username string) ([]string, error)
	Followers(ctx context.Context, username string) ([]string, error)

	// SendRequest records a pending request. If target already asked
	// requester, both requests resolve as accepted instead.
	SendRequest(ctx context.Context, requester, target string) (*models.FollowRequest, error)
	AcceptRequest(ctx context.Context, target, requester string) error
	RejectRequest(ctx context.Context, target, requester string) error
	CancelRequest(ctx context.Context, requester, target string) error
	RemoveFriend(ctx context.Context, username, friend string) error
	FriendStatus(ctx context.Context, username, other string) (string, error)
	IncomingRequests(ctx context.Context, username string) ([]string, error)
	OutgoingRequests(ctx context.Context, username string) ([]string, error)
}

type graphRepository struct {
	db *gorm.DB
}

func NewGraphRepository(db *gorm.DB) GraphRepository {
	return &graphRepository{db: db}
}

func (r *graphRepository) userExists(tx *gorm.DB, username string) error {
	var count int64
	if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *graphRepository) Follow(ctx context.Context, follower, followed string) error {
	if follower == followed {
		return ErrSelfFollow
	}
	db := r.db.WithContext(ctx)
	if err := r.userExists(db, followed); err != nil {
		return err
	}
	err := db.Create(&models.Follow{FollowerUsername: follower, FollowedUsername: followed}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyFollowing
	}
	return err
}

func (r *graphRepository) Unfollow(ctx context.Context, follower, followed string) error {
	res := r.db.WithContext(ctx).
		Where("follower_username = ? AND followed_username = ?", follower, followed).
		Delete(&models.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFollowing
	}
	return nil
}

func (r *graphRepository) IsFollowing(ctx context.Context, follower, followed string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_username = ? AND followed_username = ?", follower, followed).
		Count(&count).Error
	return count > 0, err
}

func (r *graphRepository) Following(ctx context.Context, username string) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_username = ?", username).
		Order("created_at DESC").
		Pluck("followed_username", &out).Error
	return out, err
}

func (r *graphRepository) Followers(ctx context.Context, username string) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("followed_username = ?", username).
		Order("created_at DESC").
		Pluck("follower_username", &out).Error
	return out, err
}

func pendingBetween(tx *gorm.DB, requester, target string) (*models.FollowRequest, error) {
	var req models.FollowRequest
	err := tx.Where("requester_username = ? AND target_username = ? AND status = ?",
		requester, target, models.FollowRequestPending).First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// befriend accepts req and creates follows in both directions.
func befriend(tx *gorm.DB, req *models.FollowRequest) error {
	if err := tx.Model(req).Update("status", models.FollowRequestAccepted).Error; err != nil {
		return err
	}
	follows := []models.Follow{
		{FollowerUsername: req.RequesterUsername, FollowedUsername: req.TargetUsername},
		{FollowerUsername: req.TargetUsername, FollowedUsername: req.RequesterUsername},
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&follows).Error
}

func (r *graphRepository) SendRequest(ctx context.Context, requester, target string) (*models.FollowRequest, error) {
	if requester == target {
		return nil, ErrSelfFollow
	}
	var out *models.FollowRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.userExists(tx, target); err != nil {
			return err
		}
		status, err := friendStatus(tx, requester, target)
		if err != nil {
			return err
		}
		switch status {
		case StatusFriends:
			return ErrAlreadyFriends
		case StatusRequestSent:
			return ErrRequestExists
		case StatusRequestReceived:
			reverse, err := pendingBetween(tx, target, requester)
			if err != nil {
				return err
			}
			if err := befriend(tx, reverse); err != nil {
				return err
			}
			reverse.Status = models.FollowRequestAccepted
			out = reverse
			return nil
		}
		req := &models.FollowRequest{
			RequesterUsername: requester,
			TargetUsername:    target,
			Status:            models.FollowRequestPending,
		}
		if err := tx.Create(req).Error; err != nil {
			return err
		}
		out = req
		return nil
	})
	return out, err
}

func (r *graphRepository) AcceptRequest(ctx context.Context, target, requester string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := pendingBetween(tx, requester, target)
		if err != nil {
			return err
		}
		return befriend(tx, req)
	})
}

func (r *graphRepository) RejectRequest(ctx context.Context, target, requester string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := pendingBetween(tx, requester, target)
		if err != nil {
			return err
		}
		return tx.Model(req).Update("status", models.FollowRequestRejected).Error
	})
}

func (r *graphRepository) CancelRequest(ctx context.Context, requester, target string) error {
	res := r.db.WithContext(ctx).
		Where("requester_username = ? AND target_username = ? AND status = ?",
			requester, target, models.FollowRequestPending).
		Delete(&models.FollowRequest{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func (r *graphRepository) RemoveFriend(ctx context.Context, username, friend string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("(follower_username = ? AND followed_username = ?) OR (follower_username = ? AND followed_username = ?)",
			username, friend, friend, username).Delete(&models.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFriends
		}
		return tx.Where("(requester_username = ? AND target_username = ?) OR (requester_username = ? AND target_username = ?)",
			username, friend, friend, username).Delete(&models.FollowRequest{}).Error
	})
}

func (r *graphRepository) FriendStatus(ctx context.Context, username, other string) (string, error) {
	return friendStatus(r.db.WithContext(ctx), username, other)
}

func friendStatus(tx *gorm.DB, username, other string) (string, error) {
	var follows int64
	if err := tx.Model(&models.Follow{}).
		Where("(follower_username = ? AND followed_username = ?) OR (follower_username = ? AND followed_username = ?)",
			username, other, other, username).
		Count(&follows).Error; err != nil {
		return "", err
	}
	if follows == 2 {
		return StatusFriends, nil
	}

	var reqs []models.FollowRequest
	if err := tx.Where("status = ? AND ((requester_username = ? AND target_username = ?) OR (requester_username = ? AND target_username = ?))",
		models.FollowRequestPending, username, other, other, username).
		Find(&reqs).Error; err != nil {
		return "", err
	}
	for _, req := range reqs {
		if req.RequesterUsername == username {
			return StatusRequestSent, nil
		}
	}
	if len(reqs) > 0 {
		return StatusRequestReceived, nil
	}
	return StatusNotFriends, nil
}

func (r *graphRepository) IncomingRequests(ctx context.Context, username string) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).Model(&models.FollowRequest{}).
		Where("target_username = ? AND status = ?", username, models.FollowRequestPending).
		Order("created_at DESC").
		Pluck("requester_username", &out).Error
	return out, err
}

func (r *graphRepository) OutgoingRequests(ctx context.Context, username string) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).Model(&models.FollowRequest{}).
		Where("requester_username = ? AND status = ?", username, models.FollowRequestPending).
		Order("created_at DESC").
		Pluck("target_username", &out).Error
	return out, err
}
