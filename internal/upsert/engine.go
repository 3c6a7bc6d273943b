// Package upsert persists merged job records into the archival and
// operational tables as one unit of work.
package upsert

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/jobs-tracker/constants"
	"github.com/joseph-ayodele/jobs-tracker/internal/common"
	"github.com/joseph-ayodele/jobs-tracker/internal/entity"
	"github.com/joseph-ayodele/jobs-tracker/internal/jobnumber"
	"github.com/joseph-ayodele/jobs-tracker/internal/merge"
	"github.com/joseph-ayodele/jobs-tracker/internal/repository"
	"github.com/joseph-ayodele/jobs-tracker/internal/schema"
)

// Result reports what one submission did to each table.
type Result struct {
	JobNumber   string
	Archival    constants.ArchivalOutcome
	Operational constants.OperationalOutcome
}

// Engine inserts a record into the archival table, falling back to an update
// of the mutable columns when the job number already exists, then inserts it
// into the operational table, accepting an existing row as is. Both writes
// share one transaction: any fatal error rolls back everything.
type Engine struct {
	repo     repository.JobRepository
	merger   *merge.Merger
	registry *jobnumber.Registry
	schema   schema.Schema
	logger   *slog.Logger
}

// NewEngine wires the engine. registry may be nil when no session cache is kept.
func NewEngine(repo repository.JobRepository, merger *merge.Merger, registry *jobnumber.Registry, s schema.Schema, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{repo: repo, merger: merger, registry: registry, schema: s, logger: logger}
}

// Submit merges operator input with the parcel record and persists the result.
func (e *Engine) Submit(ctx context.Context, inputs map[string]string, parcelID string) (*Result, error) {
	rec, err := e.merger.Merge(ctx, inputs, parcelID)
	if err != nil {
		return nil, err
	}
	return e.Upsert(ctx, rec)
}

// Upsert persists a complete record.
func (e *Engine) Upsert(ctx context.Context, rec entity.JobRecord) (*Result, error) {
	if err := e.validate(rec); err != nil {
		e.logger.Warn("upsert.rejected", "request_id", common.RequestIDFromContext(ctx), "error", err)
		return nil, err
	}

	start := time.Now()
	res := &Result{JobNumber: rec.Get(e.schema.KeyColumn)}
	log := e.logger.With("job_number", res.JobNumber, "request_id", common.RequestIDFromContext(ctx))

	err := e.repo.InTx(ctx, func(ctx context.Context, w repository.JobWriter) error {
		err := w.InsertArchival(ctx, rec)
		switch {
		case err == nil:
			res.Archival = constants.ArchivalInserted
			log.Debug("upsert.archival.inserted")
		case common.IsConstraintConflict(err):
			log.Info("upsert.archival.conflict", "error", err)
			if err := w.UpdateArchival(ctx, rec); err != nil {
				log.Error("upsert.archival.update_failed", "error", err)
				return err
			}
			res.Archival = constants.ArchivalUpdated
			log.Debug("upsert.archival.updated")
		default:
			log.Error("upsert.archival.insert_failed", "error", err)
			return err
		}

		err = w.InsertOperational(ctx, rec)
		switch {
		case err == nil:
			res.Operational = constants.OperationalInserted
			log.Debug("upsert.operational.inserted")
		case common.IsConstraintConflict(err):
			res.Operational = constants.OperationalSkipped
			log.Info("upsert.operational.skipped", "error", err)
		default:
			log.Error("upsert.operational.insert_failed", "error", err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if e.registry != nil {
		e.registry.AddJobNumber(res.JobNumber)
	}
	log.Info("upsert.committed",
		"archival", res.Archival,
		"operational", res.Operational,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// validate fails before any store call when the record could not be bound
// positionally against both layouts.
func (e *Engine) validate(rec entity.JobRecord) error {
	v := common.NewValidator()
	for _, c := range rec.Missing(e.schema.Union()) {
		v.Add(common.ValidationError{Field: c, Value: nil, Message: "missing from record"})
	}
	key := rec.Get(e.schema.KeyColumn)
	if !jobnumber.Valid(key) {
		v.Add(common.ValidationError{Field: e.schema.KeyColumn, Value: key, Message: "must be a YYMMSSSS job number"})
	}
	return v.Error()
}
