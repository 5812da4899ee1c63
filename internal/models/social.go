package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Follow means FollowerUsername sees FollowedUsername's shares.
type Follow struct {
	FollowerUsername string    `gorm:"column:follower_username;type:varchar(255);primaryKey" json:"follower_username"`
	FollowedUsername string    `gorm:"column:followed_username;type:varchar(255);primaryKey;index" json:"followed_username"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Follow) TableName() string {
	return "follows"
}

// Follow request states.
const (
	FollowRequestPending  = "pending"
	FollowRequestAccepted = "accepted"
	FollowRequestRejected = "rejected"
)

// FollowRequest is a friend request. Accepting it creates follows in both
// directions.
type FollowRequest struct {
	ID                string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	RequesterUsername string    `gorm:"column:requester_username;type:varchar(255);not null;index" json:"requester_username"`
	TargetUsername    string    `gorm:"column:target_username;type:varchar(255);not null;index" json:"target_username"`
	Status            string    `gorm:"column:status;type:varchar(16);not null;default:pending" json:"status"`
	CreatedAt         time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (FollowRequest) TableName() string {
	return "follow_requests"
}

func (r *FollowRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

type SavedArticle struct {
	Username  string    `gorm:"column:username;type:varchar(255);primaryKey" json:"username"`
	ArticleID int64     `gorm:"column:article_id;primaryKey;autoIncrement:false" json:"article_id"`
	SavedTime time.Time `gorm:"column:saved_time;autoCreateTime" json:"saved_time"`
}

func (SavedArticle) TableName() string {
	return "Saved_Articles"
}

type SavedTweet struct {
	Username  string    `gorm:"column:username;type:varchar(255);primaryKey" json:"username"`
	TweetLink string    `gorm:"column:tweet_link;type:varchar(512);primaryKey" json:"tweet_link"`
	SavedTime time.Time `gorm:"column:saved_time;autoCreateTime" json:"saved_time"`
}

func (SavedTweet) TableName() string {
	return "Saved_Tweets"
}

// SharedArticle is a repost of an article to the sharer's followers.
type SharedArticle struct {
	Username  string    `gorm:"column:username;type:varchar(255);primaryKey" json:"username"`
	ArticleID int64     `gorm:"column:article_id;primaryKey;autoIncrement:false" json:"article_id"`
	SharedAt  time.Time `gorm:"column:shared_at;autoCreateTime;index" json:"shared_at"`
}

func (SharedArticle) TableName() string {
	return "shared_articles"
}

// SharedTweet is a repost of a tweet to the sharer's followers.
type SharedTweet struct {
	Username  string    `gorm:"column:username;type:varchar(255);primaryKey" json:"username"`
	TweetLink string    `gorm:"column:tweet_link;type:varchar(512);primaryKey" json:"tweet_link"`
	SharedAt  time.Time `gorm:"column:shared_at;autoCreateTime;index" json:"shared_at"`
}

func (SharedTweet) TableName() string {
	return "shared_tweets"
}
