package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chronically/chronically/internal/config"
	"github.com/chronically/chronically/internal/container"
	"github.com/chronically/chronically/internal/logger"
	"github.com/chronically/chronically/internal/server"
	"github.com/chronically/chronically/internal/telemetry"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "chronically: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.InitTracer(ctx, telemetry.Config{
		ServiceName:  server.ServiceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Enabled:      cfg.TracingEnabled,
		SamplingRate: cfg.TraceSampleRate,
	})
	if err != nil {
		logger.WarnWithFields("Tracing disabled", err)
	}
	if tp != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(shutdownCtx)
		}()
	}

	c, err := container.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to bootstrap: %w", err)
	}

	r, err := server.NewRouter(c)
	if err != nil {
		_ = c.Cleanup(context.Background())
		return fmt.Errorf("failed to build router: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var certManager *autocert.Manager
	if len(cfg.AutocertDomains) > 0 {
		certManager = &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(cfg.AutocertDomains...),
			Cache:      autocert.DirCache(cfg.AutocertCacheDir),
		}
		srv.Addr = ":443"
		srv.TLSConfig = &tls.Config{GetCertificate: certManager.GetCertificate}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Log.Info("📰 Chronically backend starting on port",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.Environment),
			zap.String("db_driver", cfg.Database.Driver),
		)
		var err error
		if certManager != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	if certManager != nil {
		// ACME http-01 challenges, redirecting everything else to https
		challenge := &http.Server{
			Addr:              ":80",
			Handler:           certManager.HTTPHandler(nil),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			if err := challenge.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("acme listener failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			return challenge.Shutdown(context.Background())
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Log.Info("Shutting down server...")

		// Give outstanding requests 30 seconds to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.ErrorWithFields("Server forced to shutdown", err)
		}
		if err := c.Cleanup(shutdownCtx); err != nil {
			logger.ErrorWithFields("Cleanup failed", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Log.Info("Server exited")
	return nil
}
