// Package cmd holds the commands of the chronically terminal client.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chronically/chronically/pkg/client"
	"github.com/chronically/chronically/pkg/config"
	"github.com/chronically/chronically/pkg/credentials"
	clierrors "github.com/chronically/chronically/pkg/errors"
	"github.com/chronically/chronically/pkg/logger"
	"github.com/chronically/chronically/pkg/output"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	outputFmt  string
)

var rootCmd = &cobra.Command{
	Use:   "chronically",
	Short: "Chronically - news and tweets from the terminal",
	Long: `Chronically is a command-line client for the Chronically news
platform. Read articles and tweets by category, build your mixed
feed, follow friends and share what you find.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(configPath); err != nil {
			return fmt.Errorf("error initializing config: %w", err)
		}
		logger.Init(verbose)

		if outputFmt != "" {
			if !output.ValidateOutputFormat(outputFmt) {
				return clierrors.ValidationError("--output", "must be one of table, json, text")
			}
			config.Set("output.format", outputFmt)
		}

		client.Init()
		creds, err := credentials.Load()
		if err != nil {
			logger.Warn("Ignoring unreadable credentials", "error", err)
			return nil
		}
		if creds.IsValid() {
			client.SetAuthToken(creds.Token)
		}
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.Error("Command failed", "error", err)
		fmt.Fprintln(os.Stderr, clierrors.FormatError(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ~/.config/chronically/cli/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "", "Output format: table, json, text")
}
