package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/chronically/chronically/internal/repository"
	"github.com/chronically/chronically/internal/util"
	"github.com/gin-gonic/gin"
)

// AddPreference follows a news category.
// POST /add-preference
func (h *Handlers) AddPreference(c *gin.Context) {
	var req struct {
		Username   string `json:"username"`
		Preference string `json:"preference"`
	}
	if !bindRequest(c, &req) {
		return
	}
	username, ok := actingUser(c, req.Username)
	if !ok {
		return
	}
	preference := strings.TrimSpace(req.Preference)
	if preference == "" {
		util.RespondBadRequest(c, "Preference is required")
		return
	}

	err := h.activity.AddPreference(c.Request.Context(), username, preference)
	if errors.Is(err, repository.ErrPreferenceExists) {
		util.RespondConflict(c, "Preference already exists for this username")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "Failed to add preference", err)
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"message": "Preference added successfully"})
}

// CheckPreferences lists a user's categories in the order they were added.
// The caller's own are returned when no username is given.
// POST /check-preferences
func (h *Handlers) CheckPreferences(c *gin.Context) {
	username, ok := h.lookupUser(c)
	if !ok {
		return
	}
	prefs, err := h.activity.Preferences(c.Request.Context(), username)
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch preferences", err)
		return
	}
	if len(prefs) == 0 {
		util.RespondNotFound(c, "No preferences found for this username")
		return
	}
	data := make([]gin.H, len(prefs))
	for i, p := range prefs {
		data[i] = gin.H{"preference": p}
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{
		"message": "Preferences found",
		"data":    data,
	})
}

// DeletePreferences clears every category the caller follows.
// POST /delete-preferences
func (h *Handlers) DeletePreferences(c *gin.Context) {
	var req usernameQuery
	if !bindRequest(c, &req) {
		return
	}
	username, ok := actingUser(c, req.Username)
	if !ok {
		return
	}
	n, err := h.activity.DeletePreferences(c.Request.Context(), username)
	if err != nil {
		util.RespondInternalError(c, "Failed to delete preferences", err)
		return
	}
	if n == 0 {
		util.RespondNotFound(c, "No preferences found for this username")
		return
	}
	util.RespondStatus(c, http.StatusOK, statusSuccess, gin.H{"message": "Preferences deleted successfully"})
}
