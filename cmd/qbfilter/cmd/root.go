package cmd

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/solatis/qbfilter/internal/core/config"
	"github.com/solatis/qbfilter/internal/core/db"
	"github.com/solatis/qbfilter/internal/core/logging"
	"github.com/spf13/cobra"
)

const Version = "0.1.0"

var (
	configFile string
	dbURL      string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:          "qbfilter",
	Short:        "Query-builder filter translator",
	Long:         `qbfilter turns jQuery QueryBuilder JSON filters into parameterised SQL, locally or over gRPC.`,
	Version:      Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "database connection URL (sqlite://path or postgres://...), defaults to QB_DATABASE_URL")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, console)")
}

func Execute() error {
	return rootCmd.Execute()
}

// setup loads configuration and builds the logger, applying flag overrides.
func setup(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = logFormat
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	return cfg, logger, nil
}

// databaseURL returns --db-url, falling back to QB_DATABASE_URL.
func databaseURL() string {
	if dbURL != "" {
		return dbURL
	}
	return config.DatabaseURL()
}

// openDatabase opens the configured database. When migrated is set the
// schema must be up to date.
func openDatabase(ctx context.Context, migrated bool) (*sqlx.DB, error) {
	url := databaseURL()
	if url == "" {
		return nil, fmt.Errorf("--db-url or %s required", config.DatabaseURLEnv)
	}

	database, err := db.Open(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if migrated {
		if err := db.RequireMigrated(ctx, database); err != nil {
			database.Close()
			return nil, err
		}
	}
	return database, nil
}
