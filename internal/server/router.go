// Package server assembles the gin engine shared by the HTTP server and the
// Lambda entrypoint.
package server

import (
	"time"

	"github.com/chronically/chronically/internal/container"
	"github.com/chronically/chronically/internal/middleware"
	"github.com/chronically/chronically/internal/util"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServiceName identifies the API in traces and logs.
const ServiceName = "chronically-api"

const trendingCacheTTL = 5 * time.Minute

// NewRouter builds the engine with every route and its middleware chain.
func NewRouter(c *container.Container) (*gin.Engine, error) {
	h, err := c.Handlers()
	if err != nil {
		return nil, err
	}
	cfg := c.Config()
	store := c.Cache()
	requireAuth := middleware.RequireAuth(c.Auth())
	optionalAuth := middleware.OptionalAuth(c.Auth())
	authLimit := middleware.RateLimit(store, middleware.AuthRateLimitConfig())
	uploadLimit := middleware.RateLimit(store, middleware.UploadRateLimitConfig())

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	if cfg.TracingEnabled {
		r.Use(middleware.TracingMiddleware(ServiceName))
		r.Use(middleware.SpanEnrichmentMiddleware())
	}
	r.Use(middleware.MetricsMiddleware())

	// CORS middleware
	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) == 0 || contains(cfg.CORSOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	r.Use(cors.New(corsConfig))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws", "/metrics"})))

	// Operational routes, outside the rate limit
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	ws := c.WebSocketHandler()
	r.GET("/ws", requireAuth, ws.HandleWebSocket)
	r.POST("/ws/online", requireAuth, ws.HandleOnlineStatus)

	api := r.Group("/")
	api.Use(middleware.RateLimit(store, middleware.DefaultRateLimitConfig(cfg.RateLimitRPM)))

	// Content
	{
		both(api, "/get-articles", h.GetArticles)
		both(api, "/get-allarticles", h.GetAllArticles)
		both(api, "/get-tweets", h.GetTweets)
		both(api, "/get-alltweets", h.GetAllTweets)
		api.POST("/get-article-by-id", h.GetArticleByID)
		api.POST("/get-related", h.GetRelated)
		api.POST("/get-tweet-by-link", h.GetTweetByLink)
		api.GET("/get_trending_tweets", middleware.ResponseCacheMiddleware(store, "trending", trendingCacheTTL), h.GetTrendingTweets)
		api.POST("/explain_tweet", h.ExplainTweet)
		api.POST("/explain_article", h.ExplainArticle)
		api.POST("/my-news", requireAuth, h.MyNews)
		api.POST("/get-for-you-feed", requireAuth, h.ForYouFeed)
		api.POST("/get-chronological-feed", h.ChronologicalFeed)
		api.POST("/track-interaction", requireAuth, h.TrackInteraction)
		api.POST("/search_content", h.SearchContent)
	}

	// Accounts
	{
		api.POST("/sign-up", authLimit, h.SignUp)
		api.POST("/check-login", authLimit, h.CheckLogin)
		api.POST("/set-username", authLimit, h.SetUsername)
		both(api, "/get-username", requireAuth, h.GetUsername)
		api.POST("/deactivate-user", authLimit, h.DeactivateUser)
		api.POST("/reactivate-user", authLimit, h.ReactivateUser)
		api.POST("/delete-user", requireAuth, h.DeleteUser)
		api.GET("/auth/login", authLimit, h.Auth0Login)
		api.GET("/auth/callback", authLimit, h.Auth0Callback)

		api.POST("/update_username", requireAuth, h.UpdateUsername)
		api.POST("/update_full_name", requireAuth, h.UpdateFullName)
		api.POST("/update_profile_picture", requireAuth, h.UpdateProfilePicture)
		api.POST("/upload_profile_picture", uploadLimit, requireAuth, h.UploadProfilePicture)
		both(api, "/get-profile-picture", optionalAuth, h.GetProfilePicture)
		both(api, "/get-full-name", optionalAuth, h.GetFullName)
		both(api, "/get-user-bio", optionalAuth, h.GetUserBio)
		api.POST("/set-user-bio", requireAuth, h.SetUserBio)
		both(api, "/get-region", optionalAuth, h.GetRegion)
		api.POST("/set-region", requireAuth, h.SetRegion)
	}

	// Per-token session state
	{
		api.POST("/set-article-id", requireAuth, h.SetArticleID)
		both(api, "/get-article-id", requireAuth, h.GetArticleID)
		api.POST("/set-tweet-link", requireAuth, h.SetTweetLink)
		both(api, "/get-tweet-link", requireAuth, h.GetTweetLink)
		api.POST("/set-tweettodisp", requireAuth, h.SetTweetToDisplay)
		both(api, "/get-tweettodisp", requireAuth, h.GetTweetToDisplay)
	}

	// Preferences
	{
		api.POST("/add-preference", requireAuth, h.AddPreference)
		api.POST("/check-preferences", optionalAuth, h.CheckPreferences)
		api.POST("/delete-preferences", requireAuth, h.DeletePreferences)
	}

	// Social graph
	{
		api.POST("/follow_Users", requireAuth, h.FollowUser)
		api.POST("/remove_follow_Users", requireAuth, h.UnfollowUser)
		api.POST("/get_followed_users", optionalAuth, h.GetFollowedUsers)
		api.POST("/get_followers", optionalAuth, h.GetFollowers)
		api.POST("/get-similar_users_searched", h.SearchUsers)

		api.POST("/send_follow_request", requireAuth, h.SendFollowRequest)
		api.POST("/accept_follow_request", requireAuth, h.AcceptFollowRequest)
		api.POST("/reject_follow_request", requireAuth, h.RejectFollowRequest)
		api.POST("/cancel_follow_request", requireAuth, h.CancelFollowRequest)
		api.POST("/remove_friend", requireAuth, h.RemoveFriend)
		api.POST("/check_friend_status", requireAuth, h.CheckFriendStatus)
		api.POST("/get_pending_users", requireAuth, h.GetPendingUsers)
		api.POST("/get_outgoing_pending_requests", requireAuth, h.GetOutgoingPendingRequests)
	}

	// Share and save
	{
		api.POST("/share_articles", requireAuth, h.ShareArticle)
		api.POST("/share_tweets", requireAuth, h.ShareTweet)
		api.POST("/get_shared_content", requireAuth, h.GetSharedContent)
		api.POST("/get_reposts_by_user", optionalAuth, h.GetRepostsByUser)
		api.POST("/get_friends_reposts_feed", requireAuth, h.GetFriendsRepostsFeed)

		api.POST("/save-articles", requireAuth, h.SaveArticle)
		api.POST("/save-tweets", requireAuth, h.SaveTweet)
		api.POST("/show-saved", requireAuth, h.ShowSaved)
		api.POST("/is-tweet-saved", requireAuth, h.IsTweetSaved)
		api.POST("/unsave-article", requireAuth, h.UnsaveArticle)
		api.POST("/unsave-tweet", requireAuth, h.UnsaveTweet)
	}

	// Comments
	{
		api.POST("/comment_article", requireAuth, h.CommentArticle)
		api.POST("/comment_tweet", requireAuth, h.CommentTweet)
		both(api, "/get_comments_article", h.GetArticleComments)
		both(api, "/get_comments_tweet", h.GetTweetComments)
	}

	r.NoRoute(func(c *gin.Context) {
		util.RespondNotFound(c, "Route not found")
	})

	return r, nil
}

// both registers a read route for GET (query string) and POST (JSON body).
func both(g *gin.RouterGroup, path string, handlers ...gin.HandlerFunc) {
	g.GET(path, handlers...)
	g.POST(path, handlers...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
