// Command lambda runs the API behind API Gateway.
package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/chronically/chronically/internal/config"
	"github.com/chronically/chronically/internal/container"
	"github.com/chronically/chronically/internal/logger"
	"github.com/chronically/chronically/internal/server"
	"github.com/gin-gonic/gin"
)

func main() {
	// Only /tmp is writable inside Lambda
	if os.Getenv("LOG_FILE") == "" {
		os.Setenv("LOG_FILE", "/tmp/server.log")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	gin.SetMode(gin.ReleaseMode)

	c, err := container.Bootstrap(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to bootstrap: %v", err)
	}
	r, err := server.NewRouter(c)
	if err != nil {
		log.Fatalf("Failed to build router: %v", err)
	}

	lambda.Start(server.LambdaHandler(r))
}
