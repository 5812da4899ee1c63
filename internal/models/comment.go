package models

import (
	"time"
)

// ArticleComment is a comment on an article. ParentCommentID makes it a reply.
type ArticleComment struct {
	CommentID       int64     `gorm:"column:comment_id;primaryKey;autoIncrement" json:"comment_id"`
	ArticleID       int64     `gorm:"column:article_id;not null;index" json:"article_id"`
	Username        string    `gorm:"column:username;type:varchar(255);not null" json:"username"`
	Content         string    `gorm:"column:content;type:text;not null" json:"content"`
	ParentCommentID *int64    `gorm:"column:parent_comment_id" json:"parent_comment_id"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"created_at"`
}

func (ArticleComment) TableName() string {
	return "comments"
}

// TweetComment is a comment on a tweet. ParentCommentID makes it a reply.
type TweetComment struct {
	CommentID       int64     `gorm:"column:comment_id;primaryKey;autoIncrement" json:"comment_id"`
	TweetLink       string    `gorm:"column:tweet_link;type:varchar(512);not null;index" json:"tweet_link"`
	Username        string    `gorm:"column:username;type:varchar(255);not null" json:"username"`
	Content         string    `gorm:"column:content;type:text;not null" json:"content"`
	ParentCommentID *int64    `gorm:"column:parent_comment_id" json:"parent_comment_id"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"created_at"`
}

func (TweetComment) TableName() string {
	return "comments_tweets"
}
