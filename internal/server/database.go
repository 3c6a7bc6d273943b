package server

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/jobs-tracker/internal/common"
	repo "github.com/joseph-ayodele/jobs-tracker/internal/repository"
)

// ConnectDB opens the configured store and pings it. The connection is
// closed again when the ping fails.
func ConnectDB(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*repo.DB, error) {
	db, err := repo.Open(ctx, repo.Config{
		Driver:           cfg.Driver,
		DSN:              cfg.DSN,
		MaxConns:         cfg.MaxConns,
		DialTimeout:      cfg.DialTimeout,
		StatementTimeout: cfg.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := repo.HealthCheck(ctx, db, cfg.DialTimeout, logger); err != nil {
		repo.Close(db, logger)
		return nil, err
	}
	return db, nil
}

// CloseDB closes the database connections gracefully
func CloseDB(db *repo.DB, logger *slog.Logger) {
	repo.Close(db, logger)
}
