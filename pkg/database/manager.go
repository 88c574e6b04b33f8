// Package database stores rooms and their append-only measurement history
// in PostgreSQL.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/AndreasQService/QToolKlone-sub000/pkg/config"
)

// DatabaseManager handles all database operations
type DatabaseManager struct {
	healthChecker *HealthChecker
	logger        *zap.Logger
}

// NewDatabaseManager connects to the configured database and starts the
// health checker
func NewDatabaseManager(cfg config.DatabaseConfig, logger *zap.Logger) (*DatabaseManager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	connect := func() (*sql.DB, error) {
		return connectDatabase(cfg)
	}

	db, err := connect()
	if err != nil {
		return nil, err
	}

	interval := cfg.HealthInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	dm := &DatabaseManager{
		healthChecker: NewHealthChecker(db, interval, connect, logger),
		logger:        logger,
	}

	dm.healthChecker.Start()

	return dm, nil
}

// GetDB returns the underlying database connection
func (dm *DatabaseManager) GetDB() *sql.DB {
	return dm.healthChecker.DB()
}

// Close closes the database connection and stops health checking
func (dm *DatabaseManager) Close() error {
	dm.healthChecker.Stop()
	if db := dm.healthChecker.DB(); db != nil {
		return db.Close()
	}
	return nil
}

// QueryWithHealthCheck executes a query with connection health verification
func (dm *DatabaseManager) QueryWithHealthCheck(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	if err := dm.healthChecker.EnsureConnection(ctx); err != nil {
		return nil, err
	}

	return dm.GetDB().QueryContext(ctx, query, args...)
}

// QueryRowWithHealthCheck executes a query that returns a single row with health check
func (dm *DatabaseManager) QueryRowWithHealthCheck(ctx context.Context, query string, args ...interface{}) *sql.Row {
	if err := dm.healthChecker.EnsureConnection(ctx); err != nil {
		// Return a row that will fail on scan
		return dm.GetDB().QueryRowContext(context.Background(), "SELECT NULL WHERE FALSE")
	}

	return dm.GetDB().QueryRowContext(ctx, query, args...)
}

// ExecWithHealthCheck executes a statement with connection health verification
func (dm *DatabaseManager) ExecWithHealthCheck(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if err := dm.healthChecker.EnsureConnection(ctx); err != nil {
		return nil, err
	}

	return dm.GetDB().ExecContext(ctx, query, args...)
}

// IsConnectionHealthy returns the current health status
func (dm *DatabaseManager) IsConnectionHealthy() bool {
	return dm.healthChecker.IsHealthy()
}

// Init initializes the database with migrations
func (dm *DatabaseManager) Init() error {
	dm.logger.Info("Running database migrations...")

	runner, err := NewMigrationsRunner(dm.GetDB(), dm.logger)
	if err != nil {
		return fmt.Errorf("failed to create migration runner: %w", err)
	}

	if err := runner.Run(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	dm.logger.Info("✓ Database initialization completed successfully")
	return nil
}

// connectDatabase establishes a connection to PostgreSQL
func connectDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	maxOpen, maxIdle := cfg.MaxOpen, cfg.MaxIdle
	if maxOpen <= 0 {
		maxOpen = 25
	}
	if maxIdle <= 0 {
		maxIdle = 5
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)

	return db, nil
}
