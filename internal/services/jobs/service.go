// Package jobs is the session service: it owns the job number registry and
// serializes allocation and submission for one operator session.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/joseph-ayodele/jobs-tracker/constants"
	"github.com/joseph-ayodele/jobs-tracker/internal/common"
	"github.com/joseph-ayodele/jobs-tracker/internal/form"
	"github.com/joseph-ayodele/jobs-tracker/internal/jobnumber"
	"github.com/joseph-ayodele/jobs-tracker/internal/repository"
	"github.com/joseph-ayodele/jobs-tracker/internal/upsert"
)

// Service handles job entry business logic.
type Service struct {
	mu       sync.Mutex
	repo     repository.JobRepository
	engine   *upsert.Engine
	registry *jobnumber.Registry
	now      func() time.Time
	logger   *slog.Logger
}

// NewService creates a new job service. The registry must be the one the
// engine records committed job numbers in.
func NewService(repo repository.JobRepository, engine *upsert.Engine, registry *jobnumber.Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		engine:   engine,
		registry: registry,
		now:      time.Now,
		logger:   logger,
	}
}

// Registry exposes the session cache for read-only reporting.
func (s *Service) Registry() *jobnumber.Registry { return s.registry }

// Load rebuilds the registry's archival and operational sets from the store.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.repo.ListOperationalJobNumbers(ctx)
	if err != nil {
		return common.WrapError(err, "load active job numbers")
	}
	existing, err := s.repo.ListArchivalJobNumbers(ctx)
	if err != nil {
		return common.WrapError(err, "load existing job numbers")
	}

	s.registry.Clear()
	nActive := s.registry.AddActive(active)
	nExisting := s.registry.AddExisting(existing)
	s.logger.Info("jobs.registry.loaded", "existing", nExisting, "active", nActive)
	return nil
}

// NextJobNumber refreshes the current period from the store and issues the
// next unused job number. The number is reserved for the rest of the
// session, so two calls never return the same value even if neither is
// submitted.
func (s *Service) NextJobNumber(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alloc := jobnumber.NewAllocator(s.registry, s.now())
	rows, err := s.repo.ListArchivalJobNumbersWithPrefix(ctx, alloc.YearPrefix())
	if err != nil {
		return "", common.WrapError(err, "refresh current period")
	}
	s.registry.AddCurrentPeriod(rows)

	id, err := alloc.NextUnused()
	if err != nil {
		s.logger.Error("jobs.allocate_failed", "prefix", alloc.PrefixFor(0), "error", err)
		return "", err
	}
	s.registry.Reserve(id)
	s.registry.SetLastAllocated(id)

	s.logger.Info("jobs.allocated", "job_number", id, "request_id", common.RequestIDFromContext(ctx))
	return id, nil
}

// Submit persists one submission. values are keyed by column name and must
// carry parcel_id.
func (s *Service) Submit(ctx context.Context, values map[string]string) (*upsert.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parcelID := strings.TrimSpace(values[form.ParcelID])
	return s.engine.Submit(ctx, values, parcelID)
}

// SubmitForm validates the entry form and submits its values.
func (s *Service) SubmitForm(ctx context.Context, f *form.Form) (*upsert.Result, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return s.Submit(ctx, f.Values())
}

// ExistingJobDetails returns the non-empty gather fields of a known archival
// job. The boolean is false when the job number is not in the registry or
// the row has since disappeared.
func (s *Service) ExistingJobDetails(ctx context.Context, jobNumber string) (map[string]string, bool, error) {
	jobNumber = strings.TrimSpace(jobNumber)
	if !s.registry.HasExisting(jobNumber) {
		return nil, false, nil
	}

	rec, err := s.repo.GetArchival(ctx, jobNumber)
	if errors.Is(err, common.ErrNotFound) {
		s.logger.Warn("jobs.details.stale_registry", "job_number", jobNumber)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, common.WrapError(err, "get existing job")
	}

	out := make(map[string]string, len(constants.GatherColumns))
	for _, c := range constants.GatherColumns {
		if v := rec.Get(c); v != "" {
			out[c] = v
		}
	}
	return out, true, nil
}

// GatherInto clears the form except for its dates and job number, then
// fills it from the archival row of the job number it holds. The form stays
// cleared when that job number is not on file.
func (s *Service) GatherInto(ctx context.Context, f *form.Form) (bool, error) {
	f.ClearExcept(form.JobDate, form.FieldworkDate, form.JobNumber)
	details, ok, err := s.ExistingJobDetails(ctx, f.Field(form.JobNumber).Read())
	if err != nil || !ok {
		return ok, err
	}
	f.Populate(details)
	return true, nil
}

// RemoveJobNumber drops a number from the session's archival set. The store
// and the active set are untouched.
func (s *Service) RemoveJobNumber(jobNumber string) error {
	if err := s.registry.Remove(strings.TrimSpace(jobNumber)); err != nil {
		return err
	}
	s.logger.Info("jobs.registry.removed", "job_number", jobNumber)
	return nil
}
