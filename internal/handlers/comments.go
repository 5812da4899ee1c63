package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/chronically/chronically/internal/models"
	"github.com/chronically/chronically/internal/repository"
	"github.com/chronically/chronically/internal/util"
	"github.com/gin-gonic/gin"
)

// MaxCommentLength bounds a comment, in bytes.
const MaxCommentLength = 5000

type commentRequest struct {
	Username        string `json:"username"`
	ArticleID       flexID `json:"article_id"`
	TweetLink       string `json:"tweet_link"`
	Content         string `json:"content"`
	ParentCommentID flexID `json:"parent_comment_id"`
}

func (r commentRequest) parent() *int64 {
	if !r.ParentCommentID.Valid {
		return nil
	}
	id := r.ParentCommentID.Value
	return &id
}

// CommentArticle adds a comment or reply to an article.
// POST /comment_article
func (h *Handlers) CommentArticle(c *gin.Context) {
	var req commentRequest
	if !bindRequest(c, &req) {
		return
	}
	username, ok := actingUser(c, req.Username)
	if !ok {
		return
	}
	content := strings.TrimSpace(req.Content)
	if !req.ArticleID.Valid || content == "" {
		util.RespondBadRequest(c, "article_id, username, and content are required.")
		return
	}
	if len(content) > MaxCommentLength {
		util.RespondValidationError(c, "content", "comment is too long")
		return
	}

	comment := &models.ArticleComment{
		ArticleID:       req.ArticleID.Value,
		Username:        username,
		Content:         content,
		ParentCommentID: req.parent(),
	}
	err := h.activity.AddArticleComment(c.Request.Context(), comment)
	switch {
	case errors.Is(err, repository.ErrArticleNotFound):
		util.RespondNotFound(c, "Article not found.")
		return
	case errors.Is(err, repository.ErrParentMismatch):
		util.RespondBadRequest(c, "Parent comment does not belong to this article.")
		return
	case err != nil:
		util.RespondInternalError(c, "Failed to add comment", err)
		return
	}
	util.RespondStatus(c, http.StatusCreated, statusSuccess, gin.H{
		"message": "Comment successfully added.",
		"data": gin.H{
			"comment_id":        comment.CommentID,
			"article_id":        comment.ArticleID,
			"username":          comment.Username,
			"content":           comment.Content,
			"parent_comment_id": comment.ParentCommentID,
		},
	})
}

// CommentTweet adds a comment or reply to a tweet.
// POST /comment_tweet
func (h *Handlers) CommentTweet(c *gin.Context) {
	var req commentRequest
	if !bindRequest(c, &req) {
		return
	}
	username, ok := actingUser(c, req.Username)
	if !ok {
		return
	}
	content := strings.TrimSpace(req.Content)
	if req.TweetLink == "" || content == "" {
		util.RespondBadRequest(c, "tweet_link, username, and content are required.")
		return
	}
	if len(content) > MaxCommentLength {
		util.RespondValidationError(c, "content", "comment is too long")
		return
	}

	comment := &models.TweetComment{
		TweetLink:       req.TweetLink,
		Username:        username,
		Content:         content,
		ParentCommentID: req.parent(),
	}
	err := h.activity.AddTweetComment(c.Request.Context(), comment)
	switch {
	case errors.Is(err, repository.ErrTweetNotFound):
		util.RespondNotFound(c, "Tweet not found.")
		return
	case errors.Is(err, repository.ErrParentMismatch):
		util.RespondBadRequest(c, "Parent comment does not belong to this tweet.")
		return
	case err != nil:
		util.RespondInternalError(c, "Failed to add comment", err)
		return
	}
	util.RespondStatus(c, http.StatusCreated, statusSuccess, gin.H{
		"message": "Comment successfully added.",
		"data": gin.H{
			"comment_id":        comment.CommentID,
			"tweet_link":        comment.TweetLink,
			"username":          comment.Username,
			"content":           comment.Content,
			"parent_comment_id": comment.ParentCommentID,
		},
	})
}

// GetArticleComments lists an article's comments, oldest first.
// POST /get_comments_article
func (h *Handlers) GetArticleComments(c *gin.Context) {
	var req struct {
		ArticleID flexID `json:"article_id" form:"article_id"`
	}
	if !bindRequest(c, &req) {
		return
	}
	if !req.ArticleID.Valid {
		util.RespondBadRequest(c, "article_id is required.")
		return
	}
	comments, err := h.activity.ArticleComments(c.Request.Context(), req.ArticleID.Value)
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch comments", err)
		return
	}
	if comments == nil {
		comments = []models.ArticleComment{}
	}
	util.RespondData(c, http.StatusOK, statusSuccess, comments)
}

// GetTweetComments lists a tweet's comments, oldest first.
// POST /get_comments_tweet
func (h *Handlers) GetTweetComments(c *gin.Context) {
	var req struct {
		TweetLink string `json:"tweet_link" form:"tweet_link"`
	}
	if !bindRequest(c, &req) {
		return
	}
	if req.TweetLink == "" {
		util.RespondBadRequest(c, "tweet_link is required.")
		return
	}
	comments, err := h.activity.TweetComments(c.Request.Context(), req.TweetLink)
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch comments", err)
		return
	}
	if comments == nil {
		comments = []models.TweetComment{}
	}
	util.RespondData(c, http.StatusOK, statusSuccess, comments)
}
