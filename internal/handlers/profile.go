package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/chronically/chronically/internal/auth"
	apierrors "github.com/chronically/chronically/internal/errors"
	"github.com/chronically/chronically/internal/logger"
	"github.com/chronically/chronically/internal/repository"
	"github.com/chronically/chronically/internal/storage"
	"github.com/chronically/chronically/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type usernameQuery struct {
	Username string `json:"username" form:"username"`
}

// UpdateUsername renames the caller. Every row keyed by the old name moves
// with it and a token for the new name is returned.
// POST /update_username
func (h *Handlers) UpdateUsername(c *gin.Context) {
	username, ok := util.GetUsernameFromContext(c)
	if !ok {
		return
	}
	var req struct {
		NewUsername string `json:"newUsername"`
	}
	if !bindRequest(c, &req) {
		return
	}
	newUsername := strings.TrimSpace(req.NewUsername)
	if newUsername == "" {
		util.RespondBadRequest(c, "Token and new username are required.")
		return
	}
	if err := util.ValidateUsername(newUsername); err != nil {
		util.RespondValidationError(c, "newUsername", err.Error())
		return
	}
	if newUsername == username {
		util.RespondBadRequest(c, "New username is the same as the current one.")
		return
	}

	resp, err := h.auth.Rename(c.Request.Context(), username, newUsername)
	switch {
	case errors.Is(err, auth.ErrUserExists):
		util.RespondConflict(c, "Username is already taken.")
		return
	case errors.Is(err, auth.ErrUserNotFound):
		util.RespondNotFound(c, "User not found.")
		return
	case err != nil:
		util.RespondInternalError(c, "Failed to update username", err)
		return
	}
	logger.Log.Info("User renamed", zap.String("old_username", username), zap.String("new_username", newUsername))
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{
		"token":   resp.Token,
		"message": "Username updated successfully.",
	})
}

// UpdateFullName sets the caller's display name.
// POST /update_full_name
func (h *Handlers) UpdateFullName(c *gin.Context) {
	username, ok := util.GetUsernameFromContext(c)
	if !ok {
		return
	}
	var req struct {
		NewFullName string `json:"newFullName"`
		FullName    string `json:"full_name"`
	}
	if !bindRequest(c, &req) {
		return
	}
	fullName := strings.TrimSpace(firstNonEmpty(req.NewFullName, req.FullName))
	if fullName == "" {
		util.RespondBadRequest(c, "Token and new full name are required.")
		return
	}

	if !h.updateUser(c, username, map[string]interface{}{"full_name": fullName}) {
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"message": "Full name updated successfully."})
}

// UpdateProfilePicture points the caller's picture at an external URL.
// POST /update_profile_picture
func (h *Handlers) UpdateProfilePicture(c *gin.Context) {
	username, ok := util.GetUsernameFromContext(c)
	if !ok {
		return
	}
	var req struct {
		NewProfilePicture string `json:"newProfilePicture"`
		ProfilePicture    string `json:"profile_picture"`
	}
	if !bindRequest(c, &req) {
		return
	}
	picture := strings.TrimSpace(firstNonEmpty(req.NewProfilePicture, req.ProfilePicture))
	if picture == "" {
		util.RespondBadRequest(c, "Token and new profile picture URL are required.")
		return
	}
	if u, err := url.ParseRequestURI(picture); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		util.RespondValidationError(c, "profile_picture", "profile picture must be an http or https URL")
		return
	}

	if !h.updateUser(c, username, map[string]interface{}{"profile_picture": picture}) {
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{
		"profile_picture": picture,
		"message":         "Profile picture updated successfully.",
	})
}

// UploadProfilePicture stores a multipart "file" upload and makes it the
// caller's picture.
// POST /upload_profile_picture
func (h *Handlers) UploadProfilePicture(c *gin.Context) {
	username, ok := util.GetUsernameFromContext(c)
	if !ok {
		return
	}
	if h.uploader == nil {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("Profile picture upload"))
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		util.RespondBadRequest(c, "A picture must be uploaded in the \"file\" field")
		return
	}
	if !util.IsValidImageFile(header.Filename) {
		util.RespondValidationError(c, "file", "picture must be a jpg, png, gif or webp file")
		return
	}
	if header.Size > storage.MaxProfilePictureSize {
		util.RespondValidationError(c, "file", storage.ErrTooLarge.Error())
		return
	}

	file, err := header.Open()
	if err != nil {
		util.RespondInternalError(c, "Failed to read upload", err)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	result, err := h.uploader.UploadProfilePicture(c.Request.Context(), username, file, contentType)
	switch {
	case errors.Is(err, storage.ErrUnsupportedType), errors.Is(err, storage.ErrTooLarge), errors.Is(err, storage.ErrEmpty):
		util.RespondValidationError(c, "file", err.Error())
		return
	case err != nil:
		util.RespondInternalError(c, "Failed to upload profile picture", err)
		return
	}

	if !h.updateUser(c, username, map[string]interface{}{"profile_picture": result.URL}) {
		return
	}
	logger.Log.Info("Profile picture uploaded",
		logger.WithUsername(username),
		zap.String("key", result.Key),
		zap.Int64("size", result.Size),
	)
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{
		"profile_picture": result.URL,
		"message":         "Profile picture updated successfully.",
	})
}

func (h *Handlers) updateUser(c *gin.Context, username string, fields map[string]interface{}) bool {
	err := h.users.UpdateFields(c.Request.Context(), username, fields)
	if errors.Is(err, repository.ErrUserNotFound) {
		util.RespondNotFound(c, "User not found.")
		return false
	}
	if err != nil {
		util.RespondInternalError(c, "Failed to update user", err)
		return false
	}
	return true
}

// lookupUser loads the user named by the username field, or the caller.
func (h *Handlers) lookupUser(c *gin.Context) (string, bool) {
	var req usernameQuery
	if !bindRequest(c, &req) {
		return "", false
	}
	username := subjectUser(c, req.Username)
	if username == "" {
		util.RespondBadRequest(c, "Username is required.")
		return "", false
	}
	return username, true
}

// GetProfilePicture returns a user's picture URL.
// GET /get-profile-picture
func (h *Handlers) GetProfilePicture(c *gin.Context) {
	username, ok := h.lookupUser(c)
	if !ok {
		return
	}
	user, err := h.users.GetUserByUsername(c.Request.Context(), username)
	if !respondUserLookup(c, err) {
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"profile_picture": user.ProfilePicture})
}

// GetFullName returns a user's display name.
// POST /get-full-name
func (h *Handlers) GetFullName(c *gin.Context) {
	username, ok := h.lookupUser(c)
	if !ok {
		return
	}
	user, err := h.users.GetUserByUsername(c.Request.Context(), username)
	if !respondUserLookup(c, err) {
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"full_name": user.FullName})
}

// GetUserBio returns a user's bio.
// GET /get-user-bio
func (h *Handlers) GetUserBio(c *gin.Context) {
	username, ok := h.lookupUser(c)
	if !ok {
		return
	}
	user, err := h.users.GetUserByUsername(c.Request.Context(), username)
	if !respondUserLookup(c, err) {
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"bio": user.Bio})
}

// SetUserBio sets the caller's bio.
// POST /set-user-bio
func (h *Handlers) SetUserBio(c *gin.Context) {
	username, ok := util.GetUsernameFromContext(c)
	if !ok {
		return
	}
	var req struct {
		Bio *string `json:"bio"`
	}
	if !bindRequest(c, &req) {
		return
	}
	bio := ""
	if req.Bio != nil {
		bio = strings.TrimSpace(*req.Bio)
	}
	if err := util.ValidateBio(bio); err != nil {
		util.RespondBadRequest(c, fmt.Sprintf("Bio cannot exceed %d characters.", util.MaxBioLength))
		return
	}

	if !h.updateUser(c, username, map[string]interface{}{"bio": bio}) {
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"message": "Bio updated successfully."})
}

// GetRegion returns a user's region, null when unset.
// GET /get-region
func (h *Handlers) GetRegion(c *gin.Context) {
	username, ok := h.lookupUser(c)
	if !ok {
		return
	}
	user, err := h.users.GetUserByUsername(c.Request.Context(), username)
	if !respondUserLookup(c, err) {
		return
	}
	var region interface{}
	if user.Region != "" {
		region = user.Region
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{
		"username": user.Username,
		"region":   region,
	})
}

// SetRegion sets the caller's region. It boosts same-region tweets in the
// For You feed.
// POST /set-region
func (h *Handlers) SetRegion(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Region   string `json:"region"`
	}
	if !bindRequest(c, &req) {
		return
	}
	username, ok := actingUser(c, req.Username)
	if !ok {
		return
	}
	region := strings.TrimSpace(req.Region)
	if region == "" {
		util.RespondBadRequest(c, "Username and region are required in the request body")
		return
	}
	if err := util.ValidateRegion(region); err != nil {
		util.RespondValidationError(c, "region", err.Error())
		return
	}

	if !h.updateUser(c, username, map[string]interface{}{"Region": region}) {
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{
		"region":  region,
		"message": fmt.Sprintf("Region updated successfully for user %s", username),
	})
}

func respondUserLookup(c *gin.Context, err error) bool {
	if errors.Is(err, repository.ErrUserNotFound) {
		util.RespondNotFound(c, "User not found")
		return false
	}
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch user", err)
		return false
	}
	return true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
