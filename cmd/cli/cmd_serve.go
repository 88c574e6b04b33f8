package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AndreasQService/QToolKlone-sub000/pkg/artifacts"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/database"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/logging"
)

var serveMemory bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Q-Tool server",
	Long:  `Start the Q-Tool HTTP server for rooms, measurement history and sketch editors.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMemory, "memory", false, "keep rooms and sessions in memory instead of PostgreSQL")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a := appFrom(cmd)
	logger := a.logger

	var store database.Store
	if serveMemory {
		logger.Warn("Using in-memory store, history is lost on shutdown")
		store = database.NewMemoryStore()
	} else {
		dbManager, closeDB, err := a.openStore()
		if err != nil {
			return err
		}
		defer closeDB()
		store = dbManager
	}

	artifactStore, err := artifacts.NewStore(a.cfg.Artifacts.Dir, logger)
	if err != nil {
		return fmt.Errorf("failed to open artifact store: %w", err)
	}

	var signer *artifacts.Signer
	if a.cfg.Artifacts.SharingEnabled() {
		signer = artifacts.NewSigner(a.cfg.Artifacts.ShareSecret, nil)
	} else {
		logger.Warn("SHARE_SECRET is not set, artifact download links are disabled")
	}

	editors := NewEditorRegistry(store, artifactStore, a.cfg.Editor, logger)
	defer editors.CloseAll()

	if idle := a.cfg.Editor.IdleTimeout; idle > 0 {
		sweeper := NewEditorSweeper(editors, idle, sweepInterval(idle), logger)
		sweeper.Start()
		defer sweeper.Stop()
	}

	// Setup Router
	routeManager := NewRouteManager(a.cfg, store, artifactStore, signer, editors, logger)
	routeManager.Setup()

	handler := handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(logger)),
		handlers.PrintRecoveryStack(true),
	)(routeManager.Router)
	handler = handlers.CombinedLoggingHandler(logging.Writer(logger.Named("http"), "request"), handler)

	addr := ":" + a.cfg.Server.Port
	server := &http.Server{
		Handler:      handler,
		Addr:         addr,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting Q-Tool server", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("❌ Server shutdown error", zap.Error(err))
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("✓ Server stopped")
	return nil
}
