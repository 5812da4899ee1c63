// Package container provides dependency injection management for the Chronically backend.
// It consolidates all services and provides type-safe access to dependencies.
package container

import (
	"context"
	"sync"

	"github.com/chronically/chronically/internal/auth"
	"github.com/chronically/chronically/internal/cache"
	"github.com/chronically/chronically/internal/config"
	"github.com/chronically/chronically/internal/email"
	"github.com/chronically/chronically/internal/explain"
	"github.com/chronically/chronically/internal/feed"
	"github.com/chronically/chronically/internal/logger"
	"github.com/chronically/chronically/internal/repository"
	"github.com/chronically/chronically/internal/search"
	"github.com/chronically/chronically/internal/session"
	"github.com/chronically/chronically/internal/storage"
	"github.com/chronically/chronically/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Container holds all application dependencies and provides type-safe access.
type Container struct {
	// Core infrastructure
	config   *config.Config
	db       *gorm.DB
	logger   *zap.Logger
	cache    cache.Store
	redis    *cache.RedisClient
	sessions session.Store

	// Repositories
	users    repository.UserRepository
	content  repository.ContentRepository
	activity repository.ActivityRepository
	graph    repository.GraphRepository

	// Services
	auth          *auth.Service
	feed          *feed.Service
	searchClient  *search.Client
	searchService *search.Service
	syncer        *search.Syncer
	uploader      storage.ProfilePictureUploader
	mailer        email.Sender
	explainer     explain.Explainer

	// Realtime
	hub       *websocket.Hub
	wsHandler *websocket.Handler

	// Lifecycle hooks
	cleanupFuncs []func(context.Context) error
	mu           sync.RWMutex
}

// New creates a new empty container.
// Services should be registered using Set* methods.
func New() *Container {
	return &Container{
		cleanupFuncs: make([]func(context.Context) error, 0),
	}
}

// ============================================================================
// CORE INFRASTRUCTURE SETTERS/GETTERS
// ============================================================================

// SetConfig registers the loaded configuration
func (c *Container) SetConfig(cfg *config.Config) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config = cfg
	return c
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// SetDB registers the database connection
func (c *Container) SetDB(db *gorm.DB) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.db = db
	return c
}

// DB returns the database connection
func (c *Container) DB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// SetLogger registers the logger
func (c *Container) SetLogger(l *zap.Logger) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = l
	return c
}

// Logger returns the logger instance
func (c *Container) Logger() *zap.Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loggerLocked()
}

func (c *Container) loggerLocked() *zap.Logger {
	if c.logger == nil {
		return logger.Log
	}
	return c.logger
}

// SetCache registers the key/value store behind rate limits and response caching
func (c *Container) SetCache(store cache.Store) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = store
	return c
}

// Cache returns the key/value store
func (c *Container) Cache() cache.Store {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache
}

// SetRedis registers the Redis client. It stays nil when Redis is not configured.
func (c *Container) SetRedis(client *cache.RedisClient) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.redis = client
	return c
}

// Redis returns the Redis client, or nil
func (c *Container) Redis() *cache.RedisClient {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.redis
}

// SetSessions registers the per-token session store
func (c *Container) SetSessions(store session.Store) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions = store
	return c
}

// Sessions returns the per-token session store
func (c *Container) Sessions() session.Store {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessions
}

// ============================================================================
// REPOSITORY SETTERS/GETTERS
// ============================================================================

// SetRepositories registers the four gorm repositories at once
func (c *Container) SetRepositories(
	users repository.UserRepository,
	content repository.ContentRepository,
	activity repository.ActivityRepository,
	graph repository.GraphRepository,
) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users = users
	c.content = content
	c.activity = activity
	c.graph = graph
	return c
}

// Users returns the user repository
func (c *Container) Users() repository.UserRepository {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.users
}

// Content returns the article and tweet repository
func (c *Container) Content() repository.ContentRepository {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.content
}

// Activity returns the preferences, saves, shares and comments repository
func (c *Container) Activity() repository.ActivityRepository {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.activity
}

// Graph returns the follow graph repository
func (c *Container) Graph() repository.GraphRepository {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.graph
}

// ============================================================================
// SERVICE SETTERS/GETTERS
// ============================================================================

// SetAuthService registers the auth service
func (c *Container) SetAuthService(service *auth.Service) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auth = service
	return c
}

// Auth returns the auth service
func (c *Container) Auth() *auth.Service {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth
}

// SetFeedService registers the My News composer
func (c *Container) SetFeedService(service *feed.Service) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.feed = service
	return c
}

// Feed returns the My News composer
func (c *Container) Feed() *feed.Service {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.feed
}

// SetSearchClient registers the Elasticsearch client
func (c *Container) SetSearchClient(client *search.Client) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searchClient = client
	return c
}

// SearchClient returns the Elasticsearch client, or nil
func (c *Container) SearchClient() *search.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.searchClient
}

// SetSearchService registers the search_content service
func (c *Container) SetSearchService(service *search.Service) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searchService = service
	return c
}

// SearchService returns the search_content service
func (c *Container) SearchService() *search.Service {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.searchService
}

// SetSyncer registers the background index sync
func (c *Container) SetSyncer(s *search.Syncer) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncer = s
	return c
}

// Syncer returns the background index sync, or nil
func (c *Container) Syncer() *search.Syncer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.syncer
}

// SetUploader registers the profile picture uploader
func (c *Container) SetUploader(u storage.ProfilePictureUploader) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploader = u
	return c
}

// Uploader returns the profile picture uploader, or nil
func (c *Container) Uploader() storage.ProfilePictureUploader {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.uploader
}

// SetMailer registers the follow request email sender
func (c *Container) SetMailer(m email.Sender) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mailer = m
	return c
}

// Mailer returns the email sender. It is never nil.
func (c *Container) Mailer() email.Sender {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.mailer == nil {
		return email.Noop{}
	}
	return c.mailer
}

// SetExplainer registers the completion client behind explain_tweet and
// explain_article
func (c *Container) SetExplainer(e explain.Explainer) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.explainer = e
	return c
}

// Explainer returns the completion client, or nil
func (c *Container) Explainer() explain.Explainer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.explainer
}

// ============================================================================
// REALTIME SETTERS/GETTERS
// ============================================================================

// SetHub registers the notification hub and builds its HTTP handler
func (c *Container) SetHub(hub *websocket.Hub, originPatterns []string) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hub = hub
	c.wsHandler = websocket.NewHandler(hub, originPatterns)
	return c
}

// Hub returns the notification hub
func (c *Container) Hub() *websocket.Hub {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hub
}

// WebSocketHandler returns the /ws handler
func (c *Container) WebSocketHandler() *websocket.Handler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.wsHandler
}

// ============================================================================
// LIFECYCLE MANAGEMENT
// ============================================================================

// OnCleanup registers a cleanup function to be called during shutdown.
// Cleanup functions are called in LIFO order (last registered, first cleaned up).
func (c *Container) OnCleanup(fn func(context.Context) error) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
	return c
}

// Cleanup performs graceful shutdown of all registered services.
// It calls cleanup functions in reverse order of registration and runs
// each at most once.
func (c *Container) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	funcs := c.cleanupFuncs
	c.cleanupFuncs = nil
	log := c.loggerLocked()
	c.mu.Unlock()

	for i := len(funcs) - 1; i >= 0; i-- {
		if err := funcs[i](ctx); err != nil {
			// Log error but continue cleanup
			log.Error("Cleanup function failed", zap.Int("index", i), zap.Error(err))
		}
	}

	return nil
}

// ============================================================================
// VALIDATION
// ============================================================================

// Validate checks that all required dependencies are registered.
// This should be called after initialization and before starting the server.
func (c *Container) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	missingDeps := []string{}

	if c.db == nil {
		missingDeps = append(missingDeps, "database (DB)")
	}
	if c.cache == nil {
		missingDeps = append(missingDeps, "cache store")
	}
	if c.sessions == nil {
		missingDeps = append(missingDeps, "session store")
	}
	if c.users == nil || c.content == nil || c.activity == nil || c.graph == nil {
		missingDeps = append(missingDeps, "repositories")
	}
	if c.auth == nil {
		missingDeps = append(missingDeps, "auth service")
	}
	if c.feed == nil {
		missingDeps = append(missingDeps, "feed service")
	}
	if c.hub == nil {
		missingDeps = append(missingDeps, "websocket hub")
	}

	if len(missingDeps) > 0 {
		return NewInitializationError("Missing required dependencies", missingDeps)
	}

	// Optional but worth a note when missing
	optional := []struct {
		name    string
		present bool
	}{
		{"Redis", c.redis != nil},
		{"Elasticsearch search", c.searchClient != nil},
		{"S3 uploader", c.uploader != nil},
		{"Explanation API", c.explainer != nil},
	}
	for _, dep := range optional {
		if !dep.present {
			c.loggerLocked().Info("Optional dependency not configured", zap.String("dependency", dep.name))
		}
	}

	return nil
}
