package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chronically/chronically/internal/session"
	"github.com/chronically/chronically/internal/util"
	"github.com/gin-gonic/gin"
)

// The selection routes read and write the session bound to the request
// token, so two clients of the same user keep separate selections.

// SetArticleID remembers the article the client opened.
// POST /set-article-id
func (h *Handlers) SetArticleID(c *gin.Context) {
	var req articleIDRequest
	if !bindRequest(c, &req) {
		return
	}
	if !req.ID.Valid {
		util.RespondBadRequest(c, "Token and article ID are required")
		return
	}
	id := req.ID.Value
	if !h.updateSession(c, func(st *session.State) { st.ArticleID = &id }) {
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"message": "Article ID set successfully"})
}

// GetArticleID returns the article the client last opened.
// POST /get-article-id
func (h *Handlers) GetArticleID(c *gin.Context) {
	st, ok := h.currentSession(c)
	if !ok {
		return
	}
	if st.ArticleID == nil {
		util.RespondStatus(c, http.StatusOK, util.StatusError, gin.H{"message": "No article ID set for this user"})
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"articleId": *st.ArticleID})
}

// SetTweetLink remembers the tweet the client opened.
// POST /set-tweet-link
func (h *Handlers) SetTweetLink(c *gin.Context) {
	var req tweetLinkRequest
	if !bindRequest(c, &req) {
		return
	}
	if req.Link == "" {
		util.RespondBadRequest(c, "Token and link are required")
		return
	}
	if !h.updateSession(c, func(st *session.State) { st.TweetLink = req.Link }) {
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"message": "Tweet link set successfully"})
}

// GetTweetLink returns the tweet the client last opened.
// POST /get-tweet-link
func (h *Handlers) GetTweetLink(c *gin.Context) {
	st, ok := h.currentSession(c)
	if !ok {
		return
	}
	if st.TweetLink == "" {
		util.RespondStatus(c, http.StatusOK, util.StatusError, gin.H{"message": "No tweet link set for this user"})
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"tweetLink": st.TweetLink})
}

// SetTweetToDisplay stores the tweet object the client is rendering.
// POST /set-tweettodisp
func (h *Handlers) SetTweetToDisplay(c *gin.Context) {
	var req struct {
		Tweet json.RawMessage `json:"tweet"`
	}
	if !bindRequest(c, &req) {
		return
	}
	if len(req.Tweet) == 0 || string(req.Tweet) == "null" {
		util.RespondBadRequest(c, "Token and Tweet data are required")
		return
	}
	if !h.updateSession(c, func(st *session.State) { st.TweetToDisplay = req.Tweet }) {
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"message": "Tweet Data stored successfully"})
}

// GetTweetToDisplay returns the stored tweet object.
// POST /get-tweettodisp
func (h *Handlers) GetTweetToDisplay(c *gin.Context) {
	st, ok := h.currentSession(c)
	if !ok {
		return
	}
	if len(st.TweetToDisplay) == 0 {
		util.RespondNotFound(c, "No tweet data found for this user")
		return
	}
	util.RespondData(c, http.StatusOK, statusSuccess, st.TweetToDisplay)
}

func (h *Handlers) currentSession(c *gin.Context) (*session.State, bool) {
	sid, ok := util.GetSessionIDFromContext(c)
	if !ok {
		return nil, false
	}
	st, err := h.auth.Sessions().Get(c.Request.Context(), sid)
	if err != nil {
		respondSessionError(c, err)
		return nil, false
	}
	return st, true
}

func (h *Handlers) updateSession(c *gin.Context, fn func(*session.State)) bool {
	sid, ok := util.GetSessionIDFromContext(c)
	if !ok {
		return false
	}
	if _, err := h.auth.Sessions().Update(c.Request.Context(), sid, fn); err != nil {
		respondSessionError(c, err)
		return false
	}
	return true
}

func respondSessionError(c *gin.Context, err error) {
	if errors.Is(err, session.ErrNotFound) {
		util.RespondUnauthorized(c, "Invalid or expired token")
		return
	}
	util.RespondInternalError(c, "Failed to access session", err)
}
