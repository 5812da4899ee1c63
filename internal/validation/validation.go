package validation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chronically/chronically/internal/cache"
	"github.com/chronically/chronically/internal/config"
	"github.com/chronically/chronically/internal/database"
	"github.com/chronically/chronically/internal/logger"
	"github.com/chronically/chronically/internal/search"
	"github.com/chronically/chronically/internal/storage"
	"go.uber.org/zap"
)

const checkTimeout = 10 * time.Second

// Check probes one external service.
type Check func(ctx context.Context) error

// ServiceValidator fails startup when a service named in REQUIRED_SERVICES
// is unreachable.
type ServiceValidator struct {
	requiredServices []string
	checks           map[string]Check
}

// NewServiceValidator creates a validator for the services cfg requires.
func NewServiceValidator(cfg *config.Config) *ServiceValidator {
	return &ServiceValidator{
		requiredServices: normalize(cfg.RequiredServices),
		checks:           serviceChecks(cfg),
	}
}

// WithCheck replaces the probe used for name.
func (sv *ServiceValidator) WithCheck(name string, check Check) *ServiceValidator {
	sv.checks[name] = check
	return sv
}

// ValidateServices validates all configured services
func (sv *ServiceValidator) ValidateServices(ctx context.Context) error {
	if len(sv.requiredServices) == 0 {
		logger.Log.Info("No required services configured for validation")
		return nil
	}

	logger.Log.Info("🔍 Validating required services",
		zap.Strings("services", sv.requiredServices),
	)

	for _, serviceName := range sv.requiredServices {
		serviceChecker, ok := sv.checks[serviceName]
		if !ok {
			logger.Log.Warn("Unknown service type in validation",
				zap.String("service", serviceName),
			)
			continue
		}

		timeoutCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := serviceChecker(timeoutCtx)
		cancel()
		if err != nil {
			logger.Log.Error("❌ Required service validation failed",
				zap.String("service", serviceName),
				zap.Error(err),
			)
			return fmt.Errorf("required service %q validation failed: %w", serviceName, err)
		}

		logger.Log.Info("✅ Service validated successfully",
			zap.String("service", serviceName),
		)
	}

	logger.Log.Info("✅ All required services validated successfully")
	return nil
}

func serviceChecks(cfg *config.Config) map[string]Check {
	return map[string]Check{
		"database":      database.Health,
		"elasticsearch": func(ctx context.Context) error { return validateElasticsearch(ctx, cfg.Elasticsearch) },
		"s3":            func(ctx context.Context) error { return validateS3(ctx, cfg) },
		"redis":         func(ctx context.Context) error { return validateRedis(ctx, cfg.Redis) },
	}
}

// validateElasticsearch checks if Elasticsearch is reachable
func validateElasticsearch(ctx context.Context, cfg config.ElasticsearchConfig) error {
	if !cfg.Enabled() {
		return fmt.Errorf("ELASTICSEARCH_URL is not set")
	}
	client, err := search.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}
	return client.Ping(ctx)
}

// validateS3 checks if the S3 bucket is accessible
func validateS3(ctx context.Context, cfg *config.Config) error {
	if !cfg.S3.Enabled() {
		return fmt.Errorf("AWS_S3_BUCKET is not set")
	}
	uploader, err := storage.NewS3Uploader(ctx, cfg.AWSRegion, cfg.S3.Bucket, cfg.S3.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}
	if err := uploader.CheckBucketAccess(ctx); err != nil {
		return fmt.Errorf("S3 bucket access check failed: %w", err)
	}
	return nil
}

// validateRedis checks if Redis is reachable
func validateRedis(ctx context.Context, cfg config.RedisConfig) error {
	if !cfg.Enabled() {
		return fmt.Errorf("REDIS_HOST is not set")
	}
	client, err := cache.NewRedisClient(cfg.Host, cfg.Port, cfg.Password)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer client.Close()
	return client.Ping(ctx)
}

func normalize(services []string) []string {
	out := make([]string, 0, len(services))
	for _, s := range services {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
