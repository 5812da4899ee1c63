package handlers

import (
	"context"

	"github.com/chronically/chronically/internal/auth"
	"github.com/chronically/chronically/internal/email"
	"github.com/chronically/chronically/internal/explain"
	"github.com/chronically/chronically/internal/feed"
	"github.com/chronically/chronically/internal/repository"
	"github.com/chronically/chronically/internal/search"
	"github.com/chronically/chronically/internal/storage"
	"github.com/chronically/chronically/internal/websocket"
)

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

type namedCheck struct {
	name  string
	check HealthCheck
}

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	auth     auth.AuthServiceInterface
	users    repository.UserRepository
	content  repository.ContentRepository
	activity repository.ActivityRepository
	graph    repository.GraphRepository
	feed     *feed.Service

	search    *search.Service
	uploader  storage.ProfilePictureUploader
	notifier  websocket.Notifier
	mailer    email.Sender
	explainer explain.Explainer
	checks    []namedCheck
}

// NewHandlers creates a new handlers instance. Search falls back to SQL
// matching and email is disabled until the setters say otherwise.
func NewHandlers(
	authService auth.AuthServiceInterface,
	users repository.UserRepository,
	content repository.ContentRepository,
	activity repository.ActivityRepository,
	graph repository.GraphRepository,
	feedService *feed.Service,
) *Handlers {
	return &Handlers{
		auth:     authService,
		users:    users,
		content:  content,
		activity: activity,
		graph:    graph,
		feed:     feedService,
		search:   search.NewService(content, nil),
		mailer:   email.Noop{},
	}
}

// SetSearchService replaces the SQL-only search with one backed by an index.
func (h *Handlers) SetSearchService(s *search.Service) {
	h.search = s
}

// SetUploader enables multipart profile picture uploads.
func (h *Handlers) SetUploader(u storage.ProfilePictureUploader) {
	h.uploader = u
}

// SetNotifier sets the hub used for real-time notifications
func (h *Handlers) SetNotifier(n websocket.Notifier) {
	h.notifier = n
}

// SetMailer sets the follow request email sender.
func (h *Handlers) SetMailer(m email.Sender) {
	h.mailer = m
}

// SetExplainer lets explain_tweet and explain_article generate missing
// explanations.
func (h *Handlers) SetExplainer(e explain.Explainer) {
	h.explainer = e
}

// AddHealthCheck registers a dependency reported by /health.
func (h *Handlers) AddHealthCheck(name string, check HealthCheck) {
	h.checks = append(h.checks, namedCheck{name: name, check: check})
}

func (h *Handlers) notify(username string, msg *websocket.Message) {
	if h.notifier != nil {
		h.notifier.SendToUser(username, msg)
	}
}

func (h *Handlers) notifyAll(usernames []string, msg *websocket.Message) {
	if h.notifier != nil {
		h.notifier.SendToUsers(usernames, msg)
	}
}
