package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AndreasQService/QToolKlone-sub000/pkg/api"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/config"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/database"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/logging"
)

type contextKey string

const appKey contextKey = "app"

// app carries what every command needs
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

var (
	configPath string
	serverURL  string
)

var rootCmd = &cobra.Command{
	Use:   "qtool",
	Short: "Q-Tool - moisture measurement sketches and history",
	Long: `Q-Tool records moisture measurements of damaged rooms together with a
hand-drawn sketch, keeps every measurement pass per room and compares them
over time.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadApp,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if a, ok := cmd.Context().Value(appKey).(*app); ok {
			_ = a.logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "base URL of a running qtool server; commands use the database directly when empty")
}

func loadApp(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}

	ctx := context.WithValue(cmd.Context(), appKey, &app{cfg: cfg, logger: logger})
	cmd.SetContext(ctx)
	return nil
}

func appFrom(cmd *cobra.Command) *app {
	return cmd.Context().Value(appKey).(*app)
}

// openStore connects to the configured database and runs migrations. The
// returned function closes the connection.
func (a *app) openStore() (*database.DatabaseManager, func(), error) {
	dbManager, err := database.NewDatabaseManager(a.cfg.Database, a.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := dbManager.Init(); err != nil {
		dbManager.Close()
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return dbManager, func() { dbManager.Close() }, nil
}

// apiClient returns a client for --server, or nil when commands should use
// the database
func apiClient() *api.Client {
	if serverURL == "" {
		return nil
	}
	return api.NewClient(serverURL)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
