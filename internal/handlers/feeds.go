package handlers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/chronically/chronically/internal/feed"
	"github.com/chronically/chronically/internal/logger"
	"github.com/chronically/chronically/internal/models"
	"github.com/chronically/chronically/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Page sizes of the For You and chronological feeds.
const (
	defaultFeedLimit = 15
	maxFeedLimit     = 50

	maxInteractionTypeLength = 32
)

const invalidFeedPage = "Invalid page or limit parameter."

// ForYouFeed ranks tweets for the caller.
// POST /get-for-you-feed
func (h *Handlers) ForYouFeed(c *gin.Context) {
	username, ok := util.GetUsernameFromContext(c)
	if !ok {
		return
	}
	var req pageRequest
	if !bindRequest(c, &req) {
		return
	}
	limit, offset, ok := req.bounds(defaultFeedLimit, maxFeedLimit)
	if !ok {
		util.RespondBadRequest(c, invalidFeedPage)
		return
	}

	items, err := h.feed.ForYou(c.Request.Context(), username, limit, offset)
	if err != nil {
		util.RespondInternalError(c, "Database error while fetching personalized feed.", err)
		return
	}
	status := "Content found"
	if len(items) == 0 {
		status = "No content found for your personalized feed"
	}
	util.RespondData(c, http.StatusOK, status, items)
}

// ChronologicalFeed lists tweets, Bluesky posts and articles newest first.
// POST /get-chronological-feed
func (h *Handlers) ChronologicalFeed(c *gin.Context) {
	var req struct {
		pageRequest
		Categories     []string `json:"categories" form:"categories"`
		Region         string   `json:"region" form:"region"`
		ItemTypeFilter string   `json:"itemTypeFilter" form:"itemTypeFilter"`
	}
	if !bindRequest(c, &req) {
		return
	}
	limit, offset, ok := req.bounds(defaultFeedLimit, maxFeedLimit)
	if !ok {
		util.RespondBadRequest(c, invalidFeedPage)
		return
	}

	q := feed.Query{
		Region:   strings.TrimSpace(req.Region),
		ItemType: strings.ToLower(strings.TrimSpace(req.ItemTypeFilter)),
	}
	for _, cat := range req.Categories {
		if cat = strings.TrimSpace(cat); cat != "" {
			q.Categories = append(q.Categories, cat)
		}
	}

	items, err := h.feed.Chronological(c.Request.Context(), q, limit, offset)
	if err != nil {
		util.RespondInternalError(c, "Database error fetching combined chronological feed.", err)
		return
	}
	status := "Content found"
	if len(items) == 0 {
		status = "No content found for the given criteria"
	}
	util.RespondData(c, http.StatusOK, status, items)
}

// TrackInteraction records that the caller viewed, saved or shared an item.
// POST /track-interaction
func (h *Handlers) TrackInteraction(c *gin.Context) {
	var req struct {
		Username        string     `json:"username"`
		ItemID          flexString `json:"itemId"`
		ItemType        string     `json:"itemType"`
		InteractionType string     `json:"interactionType"`
		Region          string     `json:"region"`
	}
	if !bindRequest(c, &req) {
		return
	}
	username, ok := actingUser(c, req.Username)
	if !ok {
		return
	}
	itemType := strings.ToLower(strings.TrimSpace(req.ItemType))
	interaction := strings.ToLower(strings.TrimSpace(req.InteractionType))
	if req.ItemID == "" || itemType == "" || interaction == "" {
		util.RespondBadRequest(c, "Missing required interaction data (username, itemId, itemType, interactionType).")
		return
	}
	switch itemType {
	case feed.TypeArticle, models.SourceTweet, models.SourceBluesky:
	default:
		util.RespondValidationError(c, "itemType", "itemType must be article, tweet or bluesky")
		return
	}
	if utf8.RuneCountInString(interaction) > maxInteractionTypeLength {
		util.RespondValidationError(c, "interactionType", "interactionType must be at most 32 characters")
		return
	}

	in := &models.UserInteraction{
		Username:        username,
		ItemID:          string(req.ItemID),
		ItemType:        itemType,
		InteractionType: interaction,
	}
	if region := strings.TrimSpace(req.Region); region != "" {
		if err := util.ValidateRegion(region); err != nil {
			util.RespondValidationError(c, "region", err.Error())
			return
		}
		in.Region = &region
	}
	if err := h.activity.TrackInteraction(c.Request.Context(), in); err != nil {
		util.RespondInternalError(c, "Failed to log interaction", err)
		return
	}
	logger.Log.Debug("Interaction logged",
		logger.WithUsername(username),
		zap.String("item_type", itemType),
		zap.String("interaction", interaction),
	)
	util.RespondStatus(c, http.StatusCreated, statusSuccess, gin.H{"message": "Interaction logged."})
}
