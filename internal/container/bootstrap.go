package container

import (
	"context"
	"fmt"
	"time"

	"github.com/chronically/chronically/internal/auth"
	"github.com/chronically/chronically/internal/cache"
	"github.com/chronically/chronically/internal/config"
	"github.com/chronically/chronically/internal/database"
	"github.com/chronically/chronically/internal/email"
	"github.com/chronically/chronically/internal/explain"
	"github.com/chronically/chronically/internal/feed"
	"github.com/chronically/chronically/internal/handlers"
	"github.com/chronically/chronically/internal/logger"
	"github.com/chronically/chronically/internal/repository"
	"github.com/chronically/chronically/internal/search"
	"github.com/chronically/chronically/internal/session"
	"github.com/chronically/chronically/internal/storage"
	"github.com/chronically/chronically/internal/telemetry"
	"github.com/chronically/chronically/internal/validation"
	"github.com/chronically/chronically/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	sessionSweepInterval = 5 * time.Minute
	emailFromName        = "Chronically"
)

// Bootstrap connects every configured service and returns a validated
// container. On error, whatever was already started has been cleaned up.
func Bootstrap(ctx context.Context, cfg *config.Config) (c *Container, err error) {
	c = New().SetConfig(cfg).SetLogger(logger.Log)
	defer func() {
		if err != nil {
			_ = c.Cleanup(context.Background())
			c = nil
		}
	}()

	if err = database.Initialize(cfg.Database, cfg.IsDevelopment()); err != nil {
		return c, fmt.Errorf("database: %w", err)
	}
	db := database.DB
	c.OnCleanup(func(context.Context) error { return database.Close() })
	if cfg.TracingEnabled {
		if err = db.Use(telemetry.GORMTracingPlugin(dbSystem(cfg.Database.Driver))); err != nil {
			return c, fmt.Errorf("gorm tracing: %w", err)
		}
	}
	if err = database.Migrate(); err != nil {
		return c, err
	}

	if err = validation.NewServiceValidator(cfg).ValidateServices(ctx); err != nil {
		return c, err
	}

	if err = c.wireStores(cfg); err != nil {
		return c, err
	}
	c.wireCore(db, cfg.JWTSecret, cfg.TokenTTL, cfg.FeedTweetRatio)
	if err = c.wireAuth0(cfg.Auth0); err != nil {
		return c, err
	}
	c.wireSearch(ctx, cfg, db)
	c.wireAWS(ctx, cfg)
	c.wireExplainer(cfg.Explain)
	c.startHub(cfg.CORSOrigins)

	return c, c.Validate()
}

// wireStores picks Redis when configured and in-memory stores otherwise.
func (c *Container) wireStores(cfg *config.Config) error {
	if cfg.Redis.Enabled() {
		rc, err := cache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		c.OnCleanup(func(context.Context) error { return rc.Close() })
		c.SetRedis(rc).SetCache(rc).SetSessions(session.NewRedisStore(rc.Client(), cfg.TokenTTL))
		return nil
	}

	logger.Log.Info("Redis not configured, using in-memory cache and sessions")
	sessions := session.NewMemoryStore(cfg.TokenTTL)
	c.SetCache(cache.NewMemoryStore()).SetSessions(sessions)
	c.every(sessionSweepInterval, func() {
		if n := sessions.Sweep(); n > 0 {
			logger.Log.Debug("Swept expired sessions", zap.Int("count", n))
		}
	})
	return nil
}

// wireCore builds the repositories and the services that only need the
// database and the session store.
func (c *Container) wireCore(db *gorm.DB, jwtSecret string, tokenTTL time.Duration, tweetRatio float64) {
	users := repository.NewUserRepository(db)
	content := repository.NewContentRepository(db)
	activity := repository.NewActivityRepository(db)
	graph := repository.NewGraphRepository(db)

	c.SetDB(db).SetRepositories(users, content, activity, graph)
	c.SetAuthService(auth.NewService([]byte(jwtSecret), tokenTTL, users, c.Sessions()))
	c.SetFeedService(feed.NewService(content, activity, graph, users, tweetRatio))
	c.SetSearchService(search.NewService(content, nil))
}

func (c *Container) wireAuth0(cfg config.Auth0Config) error {
	if !cfg.Enabled() {
		logger.Log.Info("Auth0 not configured, /auth/login is disabled")
		return nil
	}
	a, err := auth.NewAuth0(cfg)
	if err != nil {
		return fmt.Errorf("auth0: %w", err)
	}
	c.Auth().SetAuth0(a)
	return nil
}

// wireSearch enables the Elasticsearch backend. Failures fall back to SQL
// search; REQUIRED_SERVICES has already rejected an unreachable cluster
// that is mandatory.
func (c *Container) wireSearch(ctx context.Context, cfg *config.Config, db *gorm.DB) {
	if !cfg.Elasticsearch.Enabled() {
		return
	}
	client, err := search.NewClient(cfg.Elasticsearch)
	if err != nil {
		logger.WarnWithFields("Elasticsearch unavailable, using SQL search", err)
		return
	}
	if err := client.InitializeIndices(ctx); err != nil {
		logger.WarnWithFields("Failed to initialize search indices, using SQL search", err)
		return
	}
	c.SetSearchClient(client).SetSearchService(search.NewService(c.Content(), client))

	if cfg.SearchSyncInterval > 0 {
		syncer := search.NewSyncer(client, db, cfg.SearchSyncInterval)
		syncer.Start()
		c.SetSyncer(syncer)
		c.OnCleanup(func(context.Context) error {
			syncer.Stop()
			return nil
		})
	}
}

// wireAWS enables S3 uploads and SES email when configured.
func (c *Container) wireAWS(ctx context.Context, cfg *config.Config) {
	if cfg.S3.Enabled() {
		uploader, err := storage.NewS3Uploader(ctx, cfg.AWSRegion, cfg.S3.Bucket, cfg.S3.BaseURL)
		if err != nil {
			logger.WarnWithFields("S3 unavailable, profile picture uploads disabled", err)
		} else {
			c.SetUploader(uploader)
		}
	}

	c.SetMailer(email.Noop{})
	if cfg.SESFromEmail != "" {
		mailer, err := email.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, emailFromName)
		if err != nil {
			logger.WarnWithFields("SES unavailable, follow request emails disabled", err)
		} else {
			c.SetMailer(mailer)
		}
	}
}

// wireExplainer enables generated explanations when an API key is set.
func (c *Container) wireExplainer(cfg config.ExplainConfig) {
	if !cfg.Enabled() {
		logger.Log.Info("Explanation API not configured, only stored explanations are served")
		return
	}
	c.SetExplainer(explain.New(explain.Options{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}))
}

// startHub runs the notification hub until Cleanup.
func (c *Container) startHub(originPatterns []string) {
	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(ctx)
	}()
	c.SetHub(hub, originPatterns)
	c.OnCleanup(func(context.Context) error {
		cancel()
		<-done
		return nil
	})
}

// every runs fn on a ticker until Cleanup.
func (c *Container) every(interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ticker.C:
				fn()
			case <-stop:
				return
			}
		}
	}()
	c.OnCleanup(func(context.Context) error {
		ticker.Stop()
		close(stop)
		<-done
		return nil
	})
}

// Handlers builds the HTTP handlers from the registered services.
func (c *Container) Handlers() (*handlers.Handlers, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	authService := c.Auth()
	if authService == nil {
		return nil, NewDependencyNotFoundError("auth service")
	}

	h := handlers.NewHandlers(authService, c.Users(), c.Content(), c.Activity(), c.Graph(), c.Feed())
	if s := c.SearchService(); s != nil {
		h.SetSearchService(s)
	}
	if u := c.Uploader(); u != nil {
		h.SetUploader(u)
	}
	h.SetNotifier(c.Hub())
	h.SetMailer(c.Mailer())
	if e := c.Explainer(); e != nil {
		h.SetExplainer(e)
	}

	h.AddHealthCheck("database", func(ctx context.Context) error {
		sqlDB, err := c.DB().DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	h.AddHealthCheck("cache", c.Cache().Ping)
	if client := c.SearchClient(); client != nil {
		h.AddHealthCheck("elasticsearch", client.Ping)
	}
	return h, nil
}

func dbSystem(driver string) string {
	if driver == "postgres" {
		return "postgresql"
	}
	return driver
}
