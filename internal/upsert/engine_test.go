package upsert

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/jobs-tracker/constants"
	"github.com/joseph-ayodele/jobs-tracker/internal/common"
	"github.com/joseph-ayodele/jobs-tracker/internal/entity"
	"github.com/joseph-ayodele/jobs-tracker/internal/jobnumber"
	"github.com/joseph-ayodele/jobs-tracker/internal/merge"
	"github.com/joseph-ayodele/jobs-tracker/internal/parcel"
	"github.com/joseph-ayodele/jobs-tracker/internal/repository"
	"github.com/joseph-ayodele/jobs-tracker/internal/schema"
)

const parcelID = "05-29-16-12345"

func parcels() parcel.StaticLookup {
	return parcel.StaticLookup{
		parcelID: {
			ParcelID: parcelID,
			County:   "Pinellas",
			Fields: map[string]*string{
				"parcel_id":         entity.Str(parcelID),
				"subdivision":       entity.Str("Palm Acres"),
				"lot":               entity.Str("7"),
				"block":             entity.Str("B"),
				"legal_description": entity.Str("LOT 7 BLK B PALM ACRES"),
			},
		},
	}
}

type fixture struct {
	engine   *Engine
	repo     repository.JobRepository
	db       *repository.DB
	registry *jobnumber.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := slog.Default()
	db, err := repository.Open(ctx, repository.Config{Driver: "sqlite", DSN: ":memory:", MaxConns: 1}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { repository.Close(db, logger) })

	s := schema.Default()
	require.NoError(t, repository.CreateTables(ctx, db, s, logger))
	repo := repository.NewJobRepository(db, s, logger)
	reg := jobnumber.NewRegistry(logger)
	return &fixture{
		engine:   NewEngine(repo, merge.NewMerger(parcels(), s, logger), reg, s, logger),
		repo:     repo,
		db:       db,
		registry: reg,
	}
}

func inputs(jobNumber string, kv ...string) map[string]string {
	in := map[string]string{
		"job_number":         jobNumber,
		"job_date":           "2023-03-14",
		"entry_by":           "JD",
		"requested_services": "Boundary survey",
		"contact_info":       "555-0100",
	}
	for i := 0; i+1 < len(kv); i += 2 {
		in[kv[i]] = kv[i+1]
	}
	return in
}

func TestSubmitNewJob(t *testing.T) {
	f := newFixture(t)

	res, err := f.engine.Submit(context.Background(), inputs("23030100", "street", "Main St"), parcelID)
	require.NoError(t, err)
	assert.Equal(t, constants.ArchivalInserted, res.Archival)
	assert.Equal(t, constants.OperationalInserted, res.Operational)

	arch, err := f.repo.GetArchival(context.Background(), "23030100")
	require.NoError(t, err)
	assert.Equal(t, "Palm Acres", arch.Get("subdivision"))
	assert.Equal(t, "Main St", arch.Get("street"))

	op, err := f.repo.GetOperational(context.Background(), "23030100")
	require.NoError(t, err)
	assert.Equal(t, "Pinellas", op.Get("county"))

	assert.True(t, f.registry.HasExisting("23030100"))
	assert.True(t, f.registry.HasActive("23030100"))
}

func TestSubmitExistingJobUpdatesMutableSubset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Submit(ctx, inputs("23030100", "street", "Main St", "benchmark", "BM-1"), parcelID)
	require.NoError(t, err)

	res, err := f.engine.Submit(ctx, inputs("23030100",
		"street", "Elm St",
		"benchmark", "BM-2",
		"requested_services", "Topographic survey",
		"entry_by", "AB",
		"additional_info", "gate code 1234",
	), parcelID)
	require.NoError(t, err)
	assert.Equal(t, constants.ArchivalUpdated, res.Archival)
	assert.Equal(t, constants.OperationalSkipped, res.Operational)

	arch, err := f.repo.GetArchival(ctx, "23030100")
	require.NoError(t, err)
	// rewritten
	assert.Equal(t, "AB", arch.Get("entry_by"))
	assert.Equal(t, "gate code 1234", arch.Get("additional_info"))
	// not in the mutable subset
	assert.Equal(t, "Main St", arch.Get("street"))
	assert.Equal(t, "BM-1", arch.Get("benchmark"))
	assert.Equal(t, "Boundary survey", arch.Get("requested_services"))

	// operational row keeps its first contents
	op, err := f.repo.GetOperational(ctx, "23030100")
	require.NoError(t, err)
	assert.Equal(t, "Boundary survey", op.Get("requested_services"))
	assert.Equal(t, "", op.Get("additional_info"))

	rows, err := f.repo.ListOperationalJobNumbers(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSubmitOperationalDuplicateOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// operational row present without an archival row
	rec, err := merge.NewMerger(parcels(), schema.Default(), nil).Merge(ctx, inputs("23030100"), parcelID)
	require.NoError(t, err)
	require.NoError(t, f.repo.InTx(ctx, func(ctx context.Context, w repository.JobWriter) error {
		return w.InsertOperational(ctx, rec)
	}))

	res, err := f.engine.Submit(ctx, inputs("23030100"), parcelID)
	require.NoError(t, err)
	assert.Equal(t, constants.ArchivalInserted, res.Archival)
	assert.Equal(t, constants.OperationalSkipped, res.Operational)
}

func TestSubmitLookupFailureWritesNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Submit(context.Background(), inputs("23030100"), "unknown-parcel")
	require.ErrorIs(t, err, common.ErrLookup)

	rows, err := f.repo.ListArchivalJobNumbers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestUpsertRejectsIncompleteRecord(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Upsert(context.Background(), entity.JobRecord{"job_number": entity.Str("23030100")})
	require.ErrorIs(t, err, common.ErrValidation)

	var ve common.ValidationError
	require.True(t, errors.As(err, &ve))
}

func TestUpsertRejectsMalformedJobNumber(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Submit(context.Background(), inputs("2303-100"), parcelID)
	require.ErrorIs(t, err, common.ErrValidation)
	assert.False(t, f.registry.HasExisting("2303-100"))
}

func TestFatalOperationalErrorRollsBackArchivalUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Submit(ctx, inputs("23030100", "entry_by", "JD"), parcelID)
	require.NoError(t, err)

	// an operational layout the table does not have makes that insert fatal
	broken := schema.Default()
	broken.Operational = append(broken.Operational, "no_such_column")
	repo := repository.NewJobRepository(f.db, broken, slog.Default())
	engine := NewEngine(repo, merge.NewMerger(parcels(), broken, nil), f.registry, broken, nil)

	_, err = engine.Submit(ctx, inputs("23030100", "entry_by", "XX"), parcelID)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDatabase)

	arch, err := f.repo.GetArchival(ctx, "23030100")
	require.NoError(t, err)
	assert.Equal(t, "JD", arch.Get("entry_by"))
}

// scriptedRepo replays fixed writer errors to exercise the control flow.
type scriptedRepo struct {
	repository.JobRepository
	archivalErr    error
	updateErr      error
	operationalErr error
	calls          []string
	committed      bool
}

func (r *scriptedRepo) InTx(ctx context.Context, fn func(ctx context.Context, w repository.JobWriter) error) error {
	if err := fn(ctx, r); err != nil {
		return err
	}
	r.committed = true
	return nil
}

func (r *scriptedRepo) InsertArchival(context.Context, entity.JobRecord) error {
	r.calls = append(r.calls, "insert_archival")
	return r.archivalErr
}

func (r *scriptedRepo) UpdateArchival(context.Context, entity.JobRecord) error {
	r.calls = append(r.calls, "update_archival")
	return r.updateErr
}

func (r *scriptedRepo) InsertOperational(context.Context, entity.JobRecord) error {
	r.calls = append(r.calls, "insert_operational")
	return r.operationalErr
}

func scriptedEngine(repo *scriptedRepo) *Engine {
	s := schema.Default()
	return NewEngine(repo, merge.NewMerger(parcels(), s, nil), nil, s, nil)
}

func TestNonConflictArchivalErrorSkipsFallback(t *testing.T) {
	repo := &scriptedRepo{archivalErr: &common.StoreError{Op: "insert", Cause: errors.New("disk I/O error")}}

	_, err := scriptedEngine(repo).Submit(context.Background(), inputs("23030100"), parcelID)
	require.ErrorIs(t, err, common.ErrDatabase)
	assert.Equal(t, []string{"insert_archival"}, repo.calls)
	assert.False(t, repo.committed)
}

func TestConflictThenFailedUpdateIsFatal(t *testing.T) {
	repo := &scriptedRepo{
		archivalErr: &common.ConstraintConflictError{Table: "existing_jobs", Key: "23030100"},
		updateErr:   &common.StoreError{Op: "update", Cause: errors.New("locked")},
	}

	_, err := scriptedEngine(repo).Submit(context.Background(), inputs("23030100"), parcelID)
	require.ErrorIs(t, err, common.ErrDatabase)
	assert.Equal(t, []string{"insert_archival", "update_archival"}, repo.calls)
	assert.False(t, repo.committed)
}

func TestConflictsOnBothTablesCommit(t *testing.T) {
	repo := &scriptedRepo{
		archivalErr:    &common.ConstraintConflictError{Table: "existing_jobs", Key: "23030100"},
		operationalErr: &common.ConstraintConflictError{Table: "active_jobs", Key: "23030100"},
	}

	res, err := scriptedEngine(repo).Submit(context.Background(), inputs("23030100"), parcelID)
	require.NoError(t, err)
	assert.Equal(t, constants.ArchivalUpdated, res.Archival)
	assert.Equal(t, constants.OperationalSkipped, res.Operational)
	assert.Equal(t, []string{"insert_archival", "update_archival", "insert_operational"}, repo.calls)
	assert.True(t, repo.committed)
}
