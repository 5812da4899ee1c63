// Package session keeps the per-token state a client selects while browsing:
// the article it opened, the tweet link it opened, and the tweet it is
// displaying. State is reachable only through the session id embedded in the
// client's token, so concurrent clients never see each other's selections.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// State is everything a session remembers.
type State struct {
	ID             string          `json:"id"`
	Username       string          `json:"username"`
	ArticleID      *int64          `json:"article_id,omitempty"`
	TweetLink      string          `json:"tweet_link,omitempty"`
	TweetToDisplay json.RawMessage `json:"tweet_to_display,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Clone returns a copy that shares no memory with s.
func (s State) Clone() State {
	out := s
	if s.ArticleID != nil {
		id := *s.ArticleID
		out.ArticleID = &id
	}
	if s.TweetToDisplay != nil {
		out.TweetToDisplay = append(json.RawMessage(nil), s.TweetToDisplay...)
	}
	return out
}

// Store persists session state. Every read or write extends the TTL.
type Store interface {
	Create(ctx context.Context, username string) (*State, error)
	Get(ctx context.Context, id string) (*State, error)
	// Update applies fn to the current state and saves the result.
	Update(ctx context.Context, id string, fn func(*State)) (*State, error)
	Delete(ctx context.Context, id string) error
	// DeleteUser drops every session belonging to username.
	DeleteUser(ctx context.Context, username string) error
}
