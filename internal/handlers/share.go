package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/chronically/chronically/internal/feed"
	"github.com/chronically/chronically/internal/logger"
	"github.com/chronically/chronically/internal/repository"
	"github.com/chronically/chronically/internal/util"
	"github.com/chronically/chronically/internal/websocket"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultRepostLimit = 10
	maxRepostLimit     = 50
)

type articleRefRequest struct {
	Username  string `json:"username"`
	ArticleID flexID `json:"article_id"`
}

type tweetRefRequest struct {
	Username  string `json:"username"`
	TweetLink string `json:"tweet_link"`
}

type pageRequest struct {
	Username string `json:"username" form:"username"`
	Page     flexID `json:"page" form:"page"`
	Limit    flexID `json:"limit" form:"limit"`
}

// bounds validates the page against defaultLimit and maxLimit, returning
// limit and offset.
func (p pageRequest) bounds(defaultLimit, maxLimit int) (int, int, bool) {
	page, limit := int64(1), int64(defaultLimit)
	if p.Page.Valid {
		page = p.Page.Value
	}
	if p.Limit.Valid {
		limit = p.Limit.Value
	}
	if page < 1 || limit < 1 || limit > int64(maxLimit) || page > math.MaxInt/limit {
		return 0, 0, false
	}
	l, offset, err := util.Page(int(page), int(limit), defaultLimit, maxLimit)
	if err != nil {
		return 0, 0, false
	}
	return l, offset, true
}

// Repost is a shared item with the content it points at.
type Repost struct {
	RepostedBy      string    `json:"reposted_by_username,omitempty"`
	RepostedAt      time.Time `json:"reposted_at"`
	ContentType     string    `json:"content_type"`
	OriginalContent feed.Item `json:"original_content"`
}

// ShareArticle reposts an article to the caller's followers.
// POST /share_articles
func (h *Handlers) ShareArticle(c *gin.Context) {
	var req articleRefRequest
	if !bindRequest(c, &req) {
		return
	}
	username, ok := actingUser(c, req.Username)
	if !ok {
		return
	}
	if !req.ArticleID.Valid {
		util.RespondBadRequest(c, "Token and article_id are required.")
		return
	}

	err := h.activity.ShareArticle(c.Request.Context(), username, req.ArticleID.Value)
	switch {
	case errors.Is(err, repository.ErrArticleNotFound):
		util.RespondNotFound(c, "Article not found.")
		return
	case errors.Is(err, repository.ErrAlreadyShared):
		util.RespondConflict(c, "You have already shared this article.")
		return
	case err != nil:
		util.RespondInternalError(c, "Failed to share article", err)
		return
	}
	h.announceShare(c.Request.Context(), username, repository.TypeArticle, strconv.FormatInt(req.ArticleID.Value, 10))
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"message": "Article successfully shared."})
}

// ShareTweet reposts a tweet to the caller's followers.
// POST /share_tweets
func (h *Handlers) ShareTweet(c *gin.Context) {
	var req tweetRefRequest
	if !bindRequest(c, &req) {
		return
	}
	username, ok := actingUser(c, req.Username)
	if !ok {
		return
	}
	if req.TweetLink == "" {
		util.RespondBadRequest(c, "Token and tweet_link are required.")
		return
	}

	err := h.activity.ShareTweet(c.Request.Context(), username, req.TweetLink)
	switch {
	case errors.Is(err, repository.ErrTweetNotFound):
		util.RespondNotFound(c, "Tweet not found.")
		return
	case errors.Is(err, repository.ErrAlreadyShared):
		util.RespondConflict(c, "You have already shared this tweet.")
		return
	case err != nil:
		util.RespondInternalError(c, "Failed to share tweet", err)
		return
	}
	h.announceShare(c.Request.Context(), username, repository.TypeTweet, req.TweetLink)
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"message": "Tweet successfully shared."})
}

// announceShare pushes a shared_content event to the sharer's followers.
func (h *Handlers) announceShare(ctx context.Context, username, contentType, contentID string) {
	if h.notifier == nil {
		return
	}
	followers, err := h.graph.Followers(ctx, username)
	if err != nil {
		logger.Log.Warn("Failed to load followers for share notification", logger.WithUsername(username), zap.Error(err))
		return
	}
	h.notifyAll(followers, websocket.NewMessage(websocket.MessageTypeSharedContent, websocket.SharedContentPayload{
		Username:    username,
		ContentType: contentType,
		ContentID:   contentID,
		SharedAt:    time.Now().UTC(),
	}))
}

// GetSharedContent lists shares by the users the caller follows and by the
// caller, newest first.
// POST /get_shared_content
func (h *Handlers) GetSharedContent(c *gin.Context) {
	var req followRequest
	if !bindRequest(c, &req) {
		return
	}
	username, ok := actingUser(c, req.Follower)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	followed, err := h.graph.Following(ctx, username)
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch followed users", err)
		return
	}
	if len(followed) == 0 {
		util.RespondNotFound(c, "You are not following any users.")
		return
	}

	shares, err := h.activity.Shares(ctx, append(followed, username), 0, 0)
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch shared content", err)
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"shared_content": shares})
}

// GetRepostsByUser pages through one user's shares with their content.
// POST /get_reposts_by_user
func (h *Handlers) GetRepostsByUser(c *gin.Context) {
	var req pageRequest
	if !bindRequest(c, &req) {
		return
	}
	username := subjectUser(c, req.Username)
	if username == "" {
		util.RespondBadRequest(c, "Username is required.")
		return
	}
	limit, offset, ok := req.bounds(defaultRepostLimit, maxRepostLimit)
	if !ok {
		util.RespondBadRequest(c, "Invalid page or limit parameter (max 50).")
		return
	}

	reposts, err := h.reposts(c.Request.Context(), []string{username}, limit, offset, false)
	if errors.Is(err, repository.ErrInvalidPage) {
		util.RespondBadRequest(c, "Invalid page or limit parameter (max 50).")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "Database error while fetching reposts.", err)
		return
	}
	util.RespondData(c, http.StatusOK, statusSuccess, reposts)
}

// GetFriendsRepostsFeed pages through shares by the users the caller
// follows.
// POST /get_friends_reposts_feed
func (h *Handlers) GetFriendsRepostsFeed(c *gin.Context) {
	username, ok := util.GetUsernameFromContext(c)
	if !ok {
		return
	}
	var req pageRequest
	if !bindRequest(c, &req) {
		return
	}
	limit, offset, ok := req.bounds(defaultRepostLimit, maxRepostLimit)
	if !ok {
		util.RespondBadRequest(c, "Invalid page or limit parameter (max 50).")
		return
	}

	ctx := c.Request.Context()
	followed, err := h.graph.Following(ctx, username)
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch followed users", err)
		return
	}
	reposts, err := h.reposts(ctx, followed, limit, offset, true)
	if errors.Is(err, repository.ErrInvalidPage) {
		util.RespondBadRequest(c, "Invalid page or limit parameter (max 50).")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "Database error while fetching reposts.", err)
		return
	}
	util.RespondData(c, http.StatusOK, statusSuccess, reposts)
}

// reposts loads a page of shares by usernames and attaches the shared
// content. Shares of content that no longer exists are skipped.
func (h *Handlers) reposts(ctx context.Context, usernames []string, limit, offset int, withSharer bool) ([]Repost, error) {
	shares, err := h.activity.Shares(ctx, usernames, limit, offset)
	if err != nil {
		return nil, err
	}

	var articleIDs []int64
	var links []string
	for _, s := range shares {
		if s.ContentType == repository.TypeArticle {
			if id, err := strconv.ParseInt(s.ContentID, 10, 64); err == nil {
				articleIDs = append(articleIDs, id)
			}
		} else {
			links = append(links, s.ContentID)
		}
	}
	articles, err := h.content.ArticlesByIDs(ctx, articleIDs)
	if err != nil {
		return nil, err
	}
	tweets, err := h.content.TweetsByLinks(ctx, links)
	if err != nil {
		return nil, err
	}

	out := make([]Repost, 0, len(shares))
	for _, s := range shares {
		r := Repost{RepostedAt: s.SharedAt, ContentType: s.ContentType}
		if withSharer {
			r.RepostedBy = s.Username
		}
		switch s.ContentType {
		case repository.TypeArticle:
			id, _ := strconv.ParseInt(s.ContentID, 10, 64)
			a, ok := articles[id]
			if !ok {
				continue
			}
			r.OriginalContent = feed.Item{Type: feed.TypeArticle, Article: &a}
		default:
			t, ok := tweets[s.ContentID]
			if !ok {
				continue
			}
			r.OriginalContent = feed.Item{Type: feed.TypeTweet, Tweet: &t}
		}
		out = append(out, r)
	}
	return out, nil
}

// SaveArticle bookmarks an article for the caller.
// POST /save-articles
func (h *Handlers) SaveArticle(c *gin.Context) {
	var req articleRefRequest
	if !bindRequest(c, &req) {
		return
	}
	username, ok := actingUser(c, req.Username)
	if !ok {
		return
	}
	if !req.ArticleID.Valid {
		util.RespondBadRequest(c, "Both username and article_id are required.")
		return
	}

	err := h.activity.SaveArticle(c.Request.Context(), username, req.ArticleID.Value)
	switch {
	case errors.Is(err, repository.ErrArticleNotFound):
		util.RespondNotFound(c, "Article not found.")
		return
	case errors.Is(err, repository.ErrAlreadySaved):
		util.RespondConflict(c, "Article already saved.")
		return
	case err != nil:
		util.RespondInternalError(c, "Failed to save article", err)
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"message": "Article successfully saved."})
}

// SaveTweet bookmarks a tweet for the caller.
// POST /save-tweets
func (h *Handlers) SaveTweet(c *gin.Context) {
	var req tweetRefRequest
	if !bindRequest(c, &req) {
		return
	}
	username, ok := actingUser(c, req.Username)
	if !ok {
		return
	}
	if req.TweetLink == "" {
		util.RespondBadRequest(c, "Both username and tweet_link are required.")
		return
	}

	err := h.activity.SaveTweet(c.Request.Context(), username, req.TweetLink)
	switch {
	case errors.Is(err, repository.ErrTweetNotFound):
		util.RespondNotFound(c, "Tweet not found.")
		return
	case errors.Is(err, repository.ErrAlreadySaved):
		util.RespondConflict(c, "Tweet already saved.")
		return
	case err != nil:
		util.RespondInternalError(c, "Failed to save tweet", err)
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"message": "Tweet successfully saved."})
}

// IsTweetSaved reports whether the caller saved a tweet.
// POST /is-tweet-saved
func (h *Handlers) IsTweetSaved(c *gin.Context) {
	var req tweetRefRequest
	if !bindRequest(c, &req) {
		return
	}
	username, ok := actingUser(c, req.Username)
	if !ok {
		return
	}
	if req.TweetLink == "" {
		util.RespondBadRequest(c, "Token and tweet_link are required.")
		return
	}

	saved, err := h.activity.IsTweetSaved(c.Request.Context(), username, req.TweetLink)
	if err != nil {
		util.RespondInternalError(c, "Failed to check saved tweet", err)
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"isSaved": saved})
}

// ShowSaved lists the caller's saved articles and tweets, newest first.
// POST /show-saved
func (h *Handlers) ShowSaved(c *gin.Context) {
	var req usernameQuery
	if !bindRequest(c, &req) {
		return
	}
	username, ok := actingUser(c, req.Username)
	if !ok {
		return
	}
	saved, err := h.activity.Saved(c.Request.Context(), username)
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch saved content", err)
		return
	}
	util.RespondData(c, http.StatusOK, statusSuccess, saved)
}

// UnsaveArticle removes a saved article.
// POST /unsave-article
func (h *Handlers) UnsaveArticle(c *gin.Context) {
	var req articleRefRequest
	if !bindRequest(c, &req) {
		return
	}
	username, ok := actingUser(c, req.Username)
	if !ok {
		return
	}
	if !req.ArticleID.Valid {
		util.RespondBadRequest(c, "article_id is required.")
		return
	}

	err := h.activity.UnsaveArticle(c.Request.Context(), username, req.ArticleID.Value)
	if errors.Is(err, repository.ErrNotSaved) {
		util.RespondNotFound(c, "Article is not saved.")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "Failed to unsave article", err)
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"message": "Article removed from saved."})
}

// UnsaveTweet removes a saved tweet.
// POST /unsave-tweet
func (h *Handlers) UnsaveTweet(c *gin.Context) {
	var req tweetRefRequest
	if !bindRequest(c, &req) {
		return
	}
	username, ok := actingUser(c, req.Username)
	if !ok {
		return
	}
	if req.TweetLink == "" {
		util.RespondBadRequest(c, "tweet_link is required.")
		return
	}

	err := h.activity.UnsaveTweet(c.Request.Context(), username, req.TweetLink)
	if errors.Is(err, repository.ErrNotSaved) {
		util.RespondNotFound(c, "Tweet is not saved.")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "Failed to unsave tweet", err)
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"message": "Tweet removed from saved."})
}
