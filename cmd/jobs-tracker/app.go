package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/joseph-ayodele/jobs-tracker/internal/common"
	"github.com/joseph-ayodele/jobs-tracker/internal/export"
	"github.com/joseph-ayodele/jobs-tracker/internal/jobnumber"
	"github.com/joseph-ayodele/jobs-tracker/internal/merge"
	"github.com/joseph-ayodele/jobs-tracker/internal/parcel"
	repo "github.com/joseph-ayodele/jobs-tracker/internal/repository"
	"github.com/joseph-ayodele/jobs-tracker/internal/schema"
	"github.com/joseph-ayodele/jobs-tracker/internal/server"
	"github.com/joseph-ayodele/jobs-tracker/internal/services/jobs"
	"github.com/joseph-ayodele/jobs-tracker/internal/upsert"
)

// app holds what every command shares once configuration is loaded.
type app struct {
	cfg    *common.Config
	logger *slog.Logger
	schema schema.Schema
	db     *repo.DB
	repo   repo.JobRepository
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Drop the timestamp, keep level, message and attributes
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// open loads configuration and connects to the store.
func open(ctx context.Context, logger *slog.Logger) (*app, error) {
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s, err := schema.FromConfig(cfg.Schema)
	if err != nil {
		return nil, err
	}
	db, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:    cfg,
		logger: logger,
		schema: s,
		db:     db,
		repo:   repo.NewJobRepository(db, s, logger),
	}, nil
}

func (a *app) Close() {
	server.CloseDB(a.db, a.logger)
}

// lookup returns the county parcel client configured by PARCEL_API_URL.
func (a *app) lookup() (parcel.Lookup, error) {
	if a.cfg.Parcel.BaseURL == "" {
		return nil, common.NewAppError("CONFIG_ERROR", "PARCEL_API_URL is required", common.ErrInvalidInput)
	}
	return parcel.NewHTTPClient(parcel.Config{
		BaseURL: a.cfg.Parcel.BaseURL,
		APIKey:  a.cfg.Parcel.APIKey,
		Timeout: a.cfg.Parcel.Timeout,
	}, nil, a.logger)
}

// service builds the session service and loads its registry. Commands that
// never submit pass needLookup false and get an empty static lookup.
func (a *app) service(ctx context.Context, needLookup bool) (*jobs.Service, error) {
	var lookup parcel.Lookup = parcel.StaticLookup{}
	if needLookup {
		l, err := a.lookup()
		if err != nil {
			return nil, err
		}
		lookup = l
	}

	registry := jobnumber.NewRegistry(a.logger)
	engine := upsert.NewEngine(a.repo, merge.NewMerger(lookup, a.schema, a.logger), registry, a.schema, a.logger)
	svc := jobs.NewService(a.repo, engine, registry, a.logger)
	if err := svc.Load(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

func (a *app) exporter() *export.Service {
	return export.NewService(a.repo, a.schema, a.logger)
}
