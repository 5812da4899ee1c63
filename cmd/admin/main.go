// Command admin runs maintenance tasks against the Chronically database.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/chronically/chronically/internal/config"
	"github.com/chronically/chronically/internal/database"
	"github.com/chronically/chronically/internal/logger"
	"github.com/chronically/chronically/internal/repository"
	"github.com/chronically/chronically/internal/search"
	"github.com/chronically/chronically/internal/seed"
	"github.com/spf13/cobra"
)

var (
	cfg       *config.Config
	seedUsers int
	cleanSeed bool
)

var rootCmd = &cobra.Command{
	Use:           "chronically-admin",
	Short:         "Chronically admin - migrations, seeding and account maintenance",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
			return err
		}
		if err := database.Initialize(cfg.Database, cfg.IsDevelopment()); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return database.Close()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update every table",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Migrate(); err != nil {
			return err
		}
		fmt.Println("✅ Migrations complete")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the database with fake users, news and activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.IsDevelopment() {
			return fmt.Errorf("refusing to seed a %s database", cfg.Environment)
		}
		if err := database.Migrate(); err != nil {
			return err
		}
		s := seed.NewSeeder(database.DB)
		if cleanSeed {
			if err := s.Clean(cmd.Context()); err != nil {
				return err
			}
		}
		stats, err := s.SeedDev(cmd.Context(), seedUsers)
		if err != nil {
			return err
		}
		fmt.Printf("🌱 Seeded %d users, %d articles, %d tweets, %d follows, %d shares, %d comments\n",
			stats.Users, stats.Articles, stats.Tweets, stats.Follows, stats.Shares, stats.Comments)
		return nil
	},
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the Elasticsearch indices from the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Elasticsearch.Enabled() {
			return fmt.Errorf("ELASTICSEARCH_URL is not set")
		}
		client, err := search.NewClient(cfg.Elasticsearch)
		if err != nil {
			return err
		}
		if err := client.InitializeIndices(cmd.Context()); err != nil {
			return err
		}
		stats, err := client.Reindex(cmd.Context(), database.DB)
		if err != nil {
			return err
		}
		fmt.Printf("🔎 Indexed %d articles and %d tweets (%d failed)\n", stats.Articles, stats.Tweets, stats.Failed)
		return nil
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var deactivateCmd = &cobra.Command{
	Use:   "deactivate <username>",
	Short: "Deactivate an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setDeactivated(cmd.Context(), args[0], true)
	},
}

var reactivateCmd = &cobra.Command{
	Use:   "reactivate <username>",
	Short: "Reactivate an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setDeactivated(cmd.Context(), args[0], false)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete an account and everything it owns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := repository.NewUserRepository(database.DB).DeleteUser(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to delete %s: %w", args[0], err)
		}
		fmt.Printf("🗑️  Deleted %s\n", args[0])
		return nil
	},
}

func setDeactivated(ctx context.Context, username string, deactivated bool) error {
	users := repository.NewUserRepository(database.DB)
	user, err := users.GetUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("user not found: %s", username)
	}
	if user.Deactivated == deactivated {
		fmt.Printf("⚠️  %s is already in that state\n", username)
		return nil
	}
	if err := users.SetDeactivated(ctx, username, deactivated); err != nil {
		return err
	}
	fmt.Printf("✅ %s deactivated=%t\n", username, deactivated)
	return nil
}

func init() {
	seedCmd.Flags().IntVar(&seedUsers, "users", 20, "Number of users to create")
	seedCmd.Flags().BoolVar(&cleanSeed, "clean", false, "Delete existing rows first")

	userCmd.AddCommand(deactivateCmd, reactivateCmd, deleteCmd)
	rootCmd.AddCommand(migrateCmd, seedCmd, reindexCmd, userCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
