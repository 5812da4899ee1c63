package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/chronically/chronically/internal/explain"
	"github.com/chronically/chronically/internal/feed"
	"github.com/chronically/chronically/internal/logger"
	"github.com/chronically/chronically/internal/repository"
	"github.com/chronically/chronically/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Listing caps for the content routes.
const (
	relatedLimit  = 10
	trendingLimit = 100
)

type categoryRequest struct {
	Category string `json:"category" form:"category"`
}

type articleIDRequest struct {
	ID flexID `json:"id" form:"id"`
}

type tweetLinkRequest struct {
	Link string `json:"link" form:"link"`
}

// GetArticles lists articles whose category contains the requested one.
// POST /get-articles
func (h *Handlers) GetArticles(c *gin.Context) {
	var req categoryRequest
	if !bindRequest(c, &req) {
		return
	}
	h.respondArticles(c, req.Category)
}

// GetAllArticles lists articles of every category.
// POST /get-allarticles
func (h *Handlers) GetAllArticles(c *gin.Context) {
	h.respondArticles(c, "")
}

func (h *Handlers) respondArticles(c *gin.Context, category string) {
	articles, err := h.content.Articles(c.Request.Context(), category, feed.ArticleLimit)
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch articles", err)
		return
	}
	if len(articles) == 0 {
		util.RespondStatus(c, http.StatusOK, "No articles found", nil)
		return
	}
	util.RespondData(c, http.StatusOK, "Articles found", articles)
}

// GetTweets lists tweets whose categories contain the requested one.
// POST /get-tweets
func (h *Handlers) GetTweets(c *gin.Context) {
	var req categoryRequest
	if !bindRequest(c, &req) {
		return
	}
	h.respondTweets(c, req.Category)
}

// GetAllTweets lists the newest tweets of every category.
// POST /get-alltweets
func (h *Handlers) GetAllTweets(c *gin.Context) {
	h.respondTweets(c, "")
}

func (h *Handlers) respondTweets(c *gin.Context, category string) {
	tweets, err := h.content.Tweets(c.Request.Context(), category, feed.TweetLimit)
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch tweets", err)
		return
	}
	if len(tweets) == 0 {
		util.RespondStatus(c, http.StatusOK, "No tweets found", nil)
		return
	}
	util.RespondData(c, http.StatusOK, "Tweets found", tweets)
}

// GetArticleByID returns one article.
// POST /get-article-by-id
func (h *Handlers) GetArticleByID(c *gin.Context) {
	var req articleIDRequest
	if !bindRequest(c, &req) {
		return
	}
	if !req.ID.Valid {
		util.RespondBadRequest(c, "Article ID is required")
		return
	}

	article, err := h.content.ArticleByID(c.Request.Context(), req.ID.Value)
	if errors.Is(err, repository.ErrArticleNotFound) {
		util.RespondStatus(c, http.StatusOK, "No article found with the given ID", nil)
		return
	}
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch article", err)
		return
	}
	util.RespondData(c, http.StatusOK, "Article found", article)
}

// GetRelated returns other articles from the same story cluster.
// POST /get-related
func (h *Handlers) GetRelated(c *gin.Context) {
	var req articleIDRequest
	if !bindRequest(c, &req) {
		return
	}
	if !req.ID.Valid {
		util.RespondBadRequest(c, "Article ID is required")
		return
	}

	ctx := c.Request.Context()
	article, err := h.content.ArticleByID(ctx, req.ID.Value)
	if errors.Is(err, repository.ErrArticleNotFound) {
		util.RespondNotFound(c, "No article found with the given ID")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch article", err)
		return
	}
	if article.Unclustered() {
		util.RespondData(c, http.StatusOK, statusSuccess, []interface{}{})
		return
	}

	related, err := h.content.Related(ctx, article.ID, relatedLimit)
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch related articles", err)
		return
	}
	if len(related) == 0 {
		util.RespondNotFound(c, "No related articles found")
		return
	}
	util.RespondData(c, http.StatusOK, statusSuccess, related)
}

// GetTweetByLink returns one tweet.
// POST /get-tweet-by-link
func (h *Handlers) GetTweetByLink(c *gin.Context) {
	var req tweetLinkRequest
	if !bindRequest(c, &req) {
		return
	}
	if req.Link == "" {
		util.RespondBadRequest(c, "Tweet link is required")
		return
	}

	tweet, err := h.content.TweetByLink(c.Request.Context(), req.Link)
	if errors.Is(err, repository.ErrTweetNotFound) {
		util.RespondStatus(c, http.StatusOK, "No tweet found with the given link", nil)
		return
	}
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch tweet", err)
		return
	}
	util.RespondData(c, http.StatusOK, "Tweet found", tweet)
}

// GetTrendingTweets returns the most favorited tweets of the latest two days,
// optionally from one region.
// GET /get_trending_tweets
func (h *Handlers) GetTrendingTweets(c *gin.Context) {
	var req struct {
		Region string `json:"region" form:"region"`
	}
	if !bindRequest(c, &req) {
		return
	}
	req.Region = strings.TrimSpace(req.Region)
	tweets, err := h.content.Trending(c.Request.Context(), req.Region, trendingLimit)
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch trending tweets", err)
		return
	}
	if len(tweets) == 0 {
		util.RespondStatus(c, http.StatusOK, "No tweets found", nil)
		return
	}
	util.RespondData(c, http.StatusOK, statusSuccess, tweets)
}

// ExplainTweet returns a tweet's explanation, generating and storing one
// when none is stored and an explainer is configured.
// POST /explain_tweet
func (h *Handlers) ExplainTweet(c *gin.Context) {
	var req struct {
		TweetLink string `json:"tweetlink" form:"tweetlink"`
	}
	if !bindRequest(c, &req) {
		return
	}
	if req.TweetLink == "" {
		util.RespondBadRequest(c, "tweetlink is required")
		return
	}

	ctx := c.Request.Context()
	tweet, err := h.content.TweetByLink(ctx, req.TweetLink)
	if errors.Is(err, repository.ErrTweetNotFound) {
		util.RespondNotFound(c, "Tweet not found")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch tweet", err)
		return
	}

	text := tweet.Explanation
	if text == "" {
		if h.explainer == nil {
			util.RespondNotFound(c, "No explanation available for this tweet")
			return
		}
		if text, err = h.explainer.ExplainTweet(ctx, tweet); err != nil {
			respondExplainError(c, err)
			return
		}
		if err := h.content.SetTweetExplanation(ctx, tweet.TweetLink, text); err != nil {
			logger.WarnWithFields("Failed to store tweet explanation", err, logger.WithTweetLink(tweet.TweetLink))
		}
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{
		"tweetlink":   tweet.TweetLink,
		"explanation": text,
	})
}

// ExplainArticle is ExplainTweet for articles.
// POST /explain_article
func (h *Handlers) ExplainArticle(c *gin.Context) {
	var req struct {
		ArticleID flexID `json:"article_id" form:"article_id"`
	}
	if !bindRequest(c, &req) {
		return
	}
	if !req.ArticleID.Valid {
		util.RespondBadRequest(c, "Missing 'article_id' in request body.")
		return
	}

	ctx := c.Request.Context()
	article, err := h.content.ArticleByID(ctx, req.ArticleID.Value)
	if errors.Is(err, repository.ErrArticleNotFound) {
		util.RespondNotFound(c, "Article not found.")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch article", err)
		return
	}

	text := article.Explanation
	if text == "" {
		if h.explainer == nil {
			util.RespondNotFound(c, "No explanation available for this article")
			return
		}
		if text, err = h.explainer.ExplainArticle(ctx, article); err != nil {
			respondExplainError(c, err)
			return
		}
		if err := h.content.SetArticleExplanation(ctx, article.ID, text); err != nil {
			logger.WarnWithFields("Failed to store article explanation", err, logger.WithArticleID(article.ID))
		}
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{
		"article_id":  article.ID,
		"explanation": text,
	})
}

func respondExplainError(c *gin.Context, err error) {
	if errors.Is(err, explain.ErrEmptyExplanation) {
		util.RespondInternalError(c, "No valid explanation generated.", err)
		return
	}
	util.RespondInternalError(c, "Failed to get explanation.", err)
}

// MyNews returns the caller's composed feed.
// POST /my-news
func (h *Handlers) MyNews(c *gin.Context) {
	username, ok := util.GetUsernameFromContext(c)
	if !ok {
		return
	}
	var req categoryRequest
	if !bindRequest(c, &req) {
		return
	}

	res, err := h.feed.MyNews(c.Request.Context(), username, req.Category)
	if err != nil {
		util.RespondInternalError(c, "Failed to build feed", err)
		return
	}
	if len(res.Items) == 0 {
		logger.Log.Debug("Empty feed", logger.WithUsername(username), zap.String("category", res.Category))
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{
		"category": res.Category,
		"data":     res.Items,
		"meta":     res.Meta,
	})
}
