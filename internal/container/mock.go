package container

import (
	"context"
	"time"

	"github.com/chronically/chronically/internal/cache"
	"github.com/chronically/chronically/internal/config"
	"github.com/chronically/chronically/internal/email"
	"github.com/chronically/chronically/internal/explain"
	"github.com/chronically/chronically/internal/logger"
	"github.com/chronically/chronically/internal/search"
	"github.com/chronically/chronically/internal/session"
	"github.com/chronically/chronically/internal/storage"
	"gorm.io/gorm"
)

// MockSecret signs tokens issued by mock containers.
const MockSecret = "test-secret"

// MockContainer is a container designed for testing.
// It runs on the given database with in-memory stores and no external services.
type MockContainer struct {
	*Container
}

// NewMock creates a container wired like Bootstrap with Redis, Elasticsearch
// and AWS left out. Call Clean when done to stop the hub.
func NewMock(db *gorm.DB) *MockContainer {
	cfg := &config.Config{
		Environment:    "test",
		JWTSecret:      MockSecret,
		TokenTTL:       time.Hour,
		FeedTweetRatio: 0.7,
		RateLimitRPM:   1000,
		CORSOrigins:    []string{"*"},
	}
	c := New().SetConfig(cfg).SetLogger(logger.Log)
	c.SetCache(cache.NewMemoryStore()).SetSessions(session.NewMemoryStore(cfg.TokenTTL))
	c.wireCore(db, cfg.JWTSecret, cfg.TokenTTL, cfg.FeedTweetRatio)
	c.SetMailer(email.Noop{})
	c.startHub(cfg.CORSOrigins)
	return &MockContainer{Container: c}
}

// WithMockUploader sets a test double for profile picture uploads
func (m *MockContainer) WithMockUploader(u storage.ProfilePictureUploader) *MockContainer {
	m.SetUploader(u)
	return m
}

// WithMockMailer sets a test double for follow request email
func (m *MockContainer) WithMockMailer(s email.Sender) *MockContainer {
	m.SetMailer(s)
	return m
}

// WithMockExplainer sets a test double for generated explanations
func (m *MockContainer) WithMockExplainer(e explain.Explainer) *MockContainer {
	m.SetExplainer(e)
	return m
}

// WithMockSearchBackend routes search_content through backend before SQL
func (m *MockContainer) WithMockSearchBackend(backend search.Backend) *MockContainer {
	m.SetSearchService(search.NewService(m.Content(), backend))
	return m
}

// Clean cleans up test containers after tests complete
func (m *MockContainer) Clean(ctx context.Context) error {
	return m.Cleanup(ctx)
}
