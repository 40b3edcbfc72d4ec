package cli

import (
	"context"
	"fmt"

	"github.com/existflow/taskhub/internal/config"
	"github.com/existflow/taskhub/internal/db"
	"github.com/existflow/taskhub/internal/logger"
	"github.com/existflow/taskhub/internal/store"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	logFile    string
	logFormat  string
	logConsole bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "taskhub",
	Short: "TaskHub - personal task management API",
	Long: `TaskHub serves a REST API for managing projects, tags and tasks
with filtering, sorting and pagination.

Run 'taskhub serve' to start the API server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		// Override with CLI flags if provided
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = logLevel
		}
		if cmd.Flags().Changed("log-file") {
			cfg.Log.File = logFile
		}
		if cmd.Flags().Changed("log-format") {
			cfg.Log.Format = logFormat
		}
		if cmd.Flags().Changed("log-console") {
			cfg.Log.Console = logConsole
		}

		logConfig := logger.DefaultConfig()
		logConfig.Level = logger.ParseLevel(cfg.Log.Level)
		logConfig.Format = logger.ParseFormat(cfg.Log.Format)
		logConfig.FilePath = cfg.Log.File
		logConfig.Console = cfg.Log.Console

		if err := logger.Init(logConfig); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		logger.Debug("TaskHub started", logger.F("command", cmd.Name()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Debug("TaskHub exiting", logger.F("command", cmd.Name()))
		logger.Close()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// openStore connects to the configured database. Migrations run first when
// migrate is true.
func openStore(ctx context.Context, migrate bool) (*db.DB, *store.Store, error) {
	database, err := db.Open(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		logger.Error("Failed to open database", logger.Err(err), logger.F("driver", cfg.Database.Driver))
		return nil, nil, err
	}

	if migrate {
		if err := database.Migrate(ctx); err != nil {
			_ = database.Close()
			return nil, nil, err
		}
	}

	return database, store.New(database), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default $TASKHUB_CONFIG or ~/.taskhub/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "log-console", true, "Enable console logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(dashboardCmd)
}
