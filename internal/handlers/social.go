package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/chronically/chronically/internal/logger"
	"github.com/chronically/chronically/internal/models"
	"github.com/chronically/chronically/internal/repository"
	"github.com/chronically/chronically/internal/util"
	"github.com/chronically/chronically/internal/websocket"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	similarUsersLimit = 50
	emailTimeout      = 15 * time.Second
)

// followRequest is the body shared by the follow routes. Follower is the
// side that follows or asks, Followed the side that is followed or asked.
type followRequest struct {
	Follower string `json:"follower_username" form:"follower_username"`
	Followed string `json:"followed_username" form:"followed_username"`
}

// FollowUser follows another user.
// POST /follow_Users
func (h *Handlers) FollowUser(c *gin.Context) {
	var req followRequest
	if !bindRequest(c, &req) {
		return
	}
	follower, ok := actingUser(c, req.Follower)
	if !ok {
		return
	}
	if req.Followed == "" {
		util.RespondBadRequest(c, "Both follower_username and followed_username are required.")
		return
	}

	err := h.graph.Follow(c.Request.Context(), follower, req.Followed)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		util.RespondNotFound(c, "The username you are trying to follow does not exist.")
		return
	case errors.Is(err, repository.ErrAlreadyFollowing):
		util.RespondBadRequest(c, "You are already following this user.")
		return
	case errors.Is(err, repository.ErrSelfFollow):
		util.RespondBadRequest(c, "You cannot follow yourself.")
		return
	case err != nil:
		util.RespondInternalError(c, "Failed to follow user", err)
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"message": "Successfully followed the user."})
}

// UnfollowUser stops following another user.
// POST /remove_follow_Users
func (h *Handlers) UnfollowUser(c *gin.Context) {
	var req followRequest
	if !bindRequest(c, &req) {
		return
	}
	follower, ok := actingUser(c, req.Follower)
	if !ok {
		return
	}
	if req.Followed == "" {
		util.RespondBadRequest(c, "Both follower_username and followed_username are required.")
		return
	}

	ctx := c.Request.Context()
	exists, err := h.users.UsernameExists(ctx, req.Followed)
	if err != nil {
		util.RespondInternalError(c, "Failed to unfollow user", err)
		return
	}
	if !exists {
		util.RespondNotFound(c, "The username you are trying to unfollow does not exist.")
		return
	}

	err = h.graph.Unfollow(ctx, follower, req.Followed)
	if errors.Is(err, repository.ErrNotFollowing) {
		util.RespondBadRequest(c, "You are not following this user.")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "Failed to unfollow user", err)
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"message": "Successfully unfollowed the user."})
}

// GetFollowedUsers lists who a user follows.
// POST /get_followed_users
func (h *Handlers) GetFollowedUsers(c *gin.Context) {
	var req followRequest
	if !bindRequest(c, &req) {
		return
	}
	username := subjectUser(c, req.Follower)
	if username == "" {
		util.RespondBadRequest(c, "follower_username is required.")
		return
	}

	followed, err := h.graph.Following(c.Request.Context(), username)
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch followed users", err)
		return
	}
	if len(followed) == 0 {
		util.RespondNotFound(c, "You are not following any users.")
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"followedUsernames": followed})
}

// GetFollowers lists who follows a user.
// POST /get_followers
func (h *Handlers) GetFollowers(c *gin.Context) {
	var req followRequest
	if !bindRequest(c, &req) {
		return
	}
	username := subjectUser(c, req.Followed)
	if username == "" {
		util.RespondBadRequest(c, "followed_username is required.")
		return
	}

	followers, err := h.graph.Followers(c.Request.Context(), username)
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch followers", err)
		return
	}
	if len(followers) == 0 {
		util.RespondNotFound(c, "No users are following you.")
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"followerUsernames": followers})
}

// SearchUsers finds active users whose name contains the query.
// POST /get-similar_users_searched
func (h *Handlers) SearchUsers(c *gin.Context) {
	var req usernameQuery
	if !bindRequest(c, &req) {
		return
	}
	if req.Username == "" {
		util.RespondBadRequest(c, "Username is required.")
		return
	}

	users, err := h.users.SearchUsernames(c.Request.Context(), req.Username, similarUsersLimit)
	if err != nil {
		util.RespondInternalError(c, "Failed to search users", err)
		return
	}
	if len(users) == 0 {
		util.RespondNotFound(c, "No similar users found.")
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"similar_users": users})
}

// SendFollowRequest asks another user to become friends. When that user
// already asked the caller, both become friends at once.
// POST /send_follow_request
func (h *Handlers) SendFollowRequest(c *gin.Context) {
	var req followRequest
	if !bindRequest(c, &req) {
		return
	}
	requester, ok := actingUser(c, req.Follower)
	if !ok {
		return
	}
	if req.Followed == "" {
		util.RespondBadRequest(c, "followed_username is required.")
		return
	}

	ctx := c.Request.Context()
	fr, err := h.graph.SendRequest(ctx, requester, req.Followed)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		util.RespondNotFound(c, "The username you are trying to follow does not exist.")
		return
	case errors.Is(err, repository.ErrSelfFollow):
		util.RespondBadRequest(c, "You cannot follow yourself.")
		return
	case errors.Is(err, repository.ErrRequestExists):
		util.RespondConflict(c, "A follow request to this user is already pending.")
		return
	case errors.Is(err, repository.ErrAlreadyFriends):
		util.RespondConflict(c, "You are already friends with this user.")
		return
	case err != nil:
		util.RespondInternalError(c, "Failed to send follow request", err)
		return
	}

	if fr.Status == models.FollowRequestAccepted {
		// The target had already asked; fr is their request, now accepted.
		h.notify(fr.RequesterUsername, websocket.NewMessage(websocket.MessageTypeFollowAccepted,
			websocket.FollowAcceptedPayload{RequestID: fr.ID, By: requester}))
		util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{
			"message":    fmt.Sprintf("You and %s are now friends.", req.Followed),
			"request_id": fr.ID,
			"state":      fr.Status,
		})
		return
	}

	h.notify(req.Followed, websocket.NewMessage(websocket.MessageTypeFollowRequest,
		websocket.FollowRequestPayload{RequestID: fr.ID, From: requester}))
	h.emailFollowRequest(ctx, req.Followed, requester)

	util.RespondStatus(c, http.StatusCreated, statusSuccess, gin.H{
		"message":    fmt.Sprintf("Follow request sent to %s.", req.Followed),
		"request_id": fr.ID,
		"state":      fr.Status,
	})
}

// emailFollowRequest mails the target in the background. Failures are
// logged and never fail the request.
func (h *Handlers) emailFollowRequest(ctx context.Context, target, requester string) {
	user, err := h.users.GetUserByUsername(ctx, target)
	if err != nil || user.Email == "" {
		return
	}
	mailer := h.mailer
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emailTimeout)
		defer cancel()
		if err := mailer.SendFollowRequestEmail(ctx, user.Email, requester); err != nil {
			logger.Log.Warn("Failed to send follow request email",
				logger.WithUsername(target),
				zap.String("requester", requester),
				zap.Error(err),
			)
		}
	}()
}

// AcceptFollowRequest accepts a pending request sent to the caller. Both
// users then follow each other.
// POST /accept_follow_request
func (h *Handlers) AcceptFollowRequest(c *gin.Context) {
	var req followRequest
	if !bindRequest(c, &req) {
		return
	}
	target, ok := actingUser(c, req.Followed)
	if !ok {
		return
	}
	if req.Follower == "" {
		util.RespondBadRequest(c, "Both follower_username and followed_username are required.")
		return
	}

	err := h.graph.AcceptRequest(c.Request.Context(), target, req.Follower)
	if errors.Is(err, repository.ErrRequestNotFound) {
		util.RespondNotFound(c, "Follow request not found or already accepted.")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "Failed to accept follow request", err)
		return
	}
	h.notify(req.Follower, websocket.NewMessage(websocket.MessageTypeFollowAccepted,
		websocket.FollowAcceptedPayload{By: target}))
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"message": "Follow request accepted."})
}

// RejectFollowRequest declines a pending request sent to the caller.
// POST /reject_follow_request
func (h *Handlers) RejectFollowRequest(c *gin.Context) {
	var req followRequest
	if !bindRequest(c, &req) {
		return
	}
	target, ok := actingUser(c, req.Followed)
	if !ok {
		return
	}
	if req.Follower == "" {
		util.RespondBadRequest(c, "Both follower_username and followed_username are required.")
		return
	}

	err := h.graph.RejectRequest(c.Request.Context(), target, req.Follower)
	if errors.Is(err, repository.ErrRequestNotFound) {
		util.RespondNotFound(c, "No pending follow request found to reject.")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "Failed to reject follow request", err)
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"message": "Follow request rejected."})
}

// CancelFollowRequest withdraws a request the caller sent.
// POST /cancel_follow_request
func (h *Handlers) CancelFollowRequest(c *gin.Context) {
	var req followRequest
	if !bindRequest(c, &req) {
		return
	}
	requester, ok := actingUser(c, req.Follower)
	if !ok {
		return
	}
	if req.Followed == "" {
		util.RespondBadRequest(c, "Both follower_username and followed_username are required.")
		return
	}

	err := h.graph.CancelRequest(c.Request.Context(), requester, req.Followed)
	if errors.Is(err, repository.ErrRequestNotFound) {
		util.RespondNotFound(c, "No pending follow request found to cancel.")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "Failed to cancel follow request", err)
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{
		"message": fmt.Sprintf("Your follow request to %s has been cancelled.", req.Followed),
	})
}

// RemoveFriend drops the follows in both directions.
// POST /remove_friend
func (h *Handlers) RemoveFriend(c *gin.Context) {
	var req struct {
		followRequest
		Friend string `json:"friend_username"`
	}
	if !bindRequest(c, &req) {
		return
	}
	username, ok := actingUser(c, req.Follower)
	if !ok {
		return
	}
	friend := firstNonEmpty(req.Friend, req.Followed)
	if friend == "" {
		util.RespondBadRequest(c, "friend_username is required.")
		return
	}

	err := h.graph.RemoveFriend(c.Request.Context(), username, friend)
	if errors.Is(err, repository.ErrNotFriends) {
		util.RespondBadRequest(c, "You are not friends with this user.")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "Failed to remove friend", err)
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{
		"message": fmt.Sprintf("%s has been removed from your friends.", friend),
	})
}

// CheckFriendStatus reports how the caller relates to another user.
// POST /check_friend_status
func (h *Handlers) CheckFriendStatus(c *gin.Context) {
	var req struct {
		followRequest
		Username string `json:"username"`
	}
	if !bindRequest(c, &req) {
		return
	}
	username, ok := actingUser(c, req.Follower)
	if !ok {
		return
	}
	other := firstNonEmpty(req.Username, req.Followed)
	if other == "" {
		util.RespondBadRequest(c, "username is required.")
		return
	}

	status, err := h.graph.FriendStatus(c.Request.Context(), username, other)
	if err != nil {
		util.RespondInternalError(c, "Failed to check friend status", err)
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"friend_status": status})
}

// GetPendingUsers lists who asked the caller to be friends.
// POST /get_pending_users
func (h *Handlers) GetPendingUsers(c *gin.Context) {
	var req followRequest
	if !bindRequest(c, &req) {
		return
	}
	username, ok := actingUser(c, req.Followed)
	if !ok {
		return
	}
	pending, err := h.graph.IncomingRequests(c.Request.Context(), username)
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch pending requests", err)
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"pendingUsernames": nonNil(pending)})
}

// GetOutgoingPendingRequests lists who the caller asked and is waiting on.
// POST /get_outgoing_pending_requests
func (h *Handlers) GetOutgoingPendingRequests(c *gin.Context) {
	var req followRequest
	if !bindRequest(c, &req) {
		return
	}
	username, ok := actingUser(c, req.Follower)
	if !ok {
		return
	}
	pending, err := h.graph.OutgoingRequests(c.Request.Context(), username)
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch outgoing requests", err)
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"pendingFollowRequests": nonNil(pending)})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
