package repository

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"entgo.io/ent/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/jobs-tracker/internal/common"
	"github.com/joseph-ayodele/jobs-tracker/internal/entity"
	"github.com/joseph-ayodele/jobs-tracker/internal/schema"
)

func newTestRepo(t *testing.T) (JobRepository, *DB) {
	t.Helper()
	ctx := context.Background()
	logger := slog.Default()
	db, err := Open(ctx, Config{Driver: "sqlite", DSN: ":memory:", MaxConns: 1}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { Close(db, logger) })

	s := schema.Default()
	require.NoError(t, CreateTables(ctx, db, s, logger))
	// idempotent
	require.NoError(t, CreateTables(ctx, db, s, logger))
	return NewJobRepository(db, s, logger), db
}

func record(jobNumber string, kv ...string) entity.JobRecord {
	rec := entity.JobRecord{}
	for _, c := range schema.Default().Union() {
		rec[c] = nil
	}
	rec["job_number"] = entity.Str(jobNumber)
	for i := 0; i+1 < len(kv); i += 2 {
		rec[kv[i]] = entity.Str(kv[i+1])
	}
	return rec
}

func insertBoth(t *testing.T, repo JobRepository, rec entity.JobRecord) {
	t.Helper()
	require.NoError(t, repo.InTx(context.Background(), func(ctx context.Context, w JobWriter) error {
		if err := w.InsertArchival(ctx, rec); err != nil {
			return err
		}
		return w.InsertOperational(ctx, rec)
	}))
}

func TestHealthCheck(t *testing.T) {
	_, db := newTestRepo(t)
	require.NoError(t, HealthCheck(context.Background(), db, 0, slog.Default()))
}

func TestInsertAndGet(t *testing.T) {
	repo, _ := newTestRepo(t)
	insertBoth(t, repo, record("23030100", "street", "Main St", "county", "Pinellas"))

	got, err := repo.GetArchival(context.Background(), "23030100")
	require.NoError(t, err)
	assert.Equal(t, "Main St", got.Get("street"))
	assert.True(t, got.Has("benchmark"))
	assert.Nil(t, got["benchmark"])
	assert.Len(t, got, 16)

	op, err := repo.GetOperational(context.Background(), "23030100")
	require.NoError(t, err)
	assert.Equal(t, "Pinellas", op.Get("county"))
	assert.Len(t, op, 18)

	_, err = repo.GetArchival(context.Background(), "23030999")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListJobNumbers(t *testing.T) {
	repo, _ := newTestRepo(t)
	insertBoth(t, repo, record("23030100"))
	insertBoth(t, repo, record("22120530"))
	require.NoError(t, repo.InTx(context.Background(), func(ctx context.Context, w JobWriter) error {
		return w.InsertArchival(ctx, record("23010111"))
	}))

	archival, err := repo.ListArchivalJobNumbers(context.Background())
	require.NoError(t, err)
	assert.Len(t, archival, 3)

	operational, err := repo.ListOperationalJobNumbers(context.Background())
	require.NoError(t, err)
	assert.Len(t, operational, 2)

	current, err := repo.ListArchivalJobNumbersWithPrefix(context.Background(), "23")
	require.NoError(t, err)
	require.Len(t, current, 2)
	for _, row := range current {
		require.Len(t, row, 1)
		assert.Contains(t, []any{"23030100", "23010111"}, row[0])
	}

	all, err := repo.ListArchival(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "22120530", all[0].Get("job_number"))
}

func TestInsertConflictIsTyped(t *testing.T) {
	repo, _ := newTestRepo(t)
	insertBoth(t, repo, record("23030100"))

	var conflict error
	err := repo.InTx(context.Background(), func(ctx context.Context, w JobWriter) error {
		conflict = w.InsertArchival(ctx, record("23030100"))
		// the transaction is still usable after the conflict
		return w.InsertArchival(ctx, record("23030101"))
	})
	require.NoError(t, err)

	var cc *common.ConstraintConflictError
	require.True(t, errors.As(conflict, &cc))
	assert.Equal(t, "existing_jobs", cc.Table)
	assert.Equal(t, "23030100", cc.Key)
	assert.ErrorIs(t, conflict, common.ErrConstraintConflict)

	_, err = repo.GetArchival(context.Background(), "23030101")
	require.NoError(t, err)
}

func TestUpdateArchivalRewritesOnlyMutableColumns(t *testing.T) {
	repo, _ := newTestRepo(t)
	insertBoth(t, repo, record("23030100", "street", "Main St", "lot", "1", "benchmark", "BM-1"))

	require.NoError(t, repo.InTx(context.Background(), func(ctx context.Context, w JobWriter) error {
		return w.UpdateArchival(ctx, record("23030100", "street", "Elm St", "lot", "2", "benchmark", "BM-2"))
	}))

	got, err := repo.GetArchival(context.Background(), "23030100")
	require.NoError(t, err)
	assert.Equal(t, "2", got.Get("lot"))
	assert.Equal(t, "Main St", got.Get("street"))
	assert.Equal(t, "BM-1", got.Get("benchmark"))
}

func TestUpdateArchivalMissingRow(t *testing.T) {
	repo, _ := newTestRepo(t)

	err := repo.InTx(context.Background(), func(ctx context.Context, w JobWriter) error {
		return w.UpdateArchival(ctx, record("23030100"))
	})
	assert.ErrorIs(t, err, common.ErrDatabase)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestInTxRollsBackOnError(t *testing.T) {
	repo, _ := newTestRepo(t)
	boom := errors.New("boom")

	err := repo.InTx(context.Background(), func(ctx context.Context, w JobWriter) error {
		require.NoError(t, w.InsertArchival(ctx, record("23030100")))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = repo.GetArchival(context.Background(), "23030100")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestStoreErrorIsNotAConflict(t *testing.T) {
	_, db := newTestRepo(t)
	s := schema.Default()
	s.Archival = append(s.Archival, "no_such_column")
	repo := NewJobRepository(db, s, slog.Default())

	err := repo.InTx(context.Background(), func(ctx context.Context, w JobWriter) error {
		return w.InsertArchival(ctx, record("23030100"))
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDatabase)
	assert.False(t, common.IsConstraintConflict(err))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "access"}, slog.Default())
	assert.Error(t, err)
}

func TestCreateTableStmtQuotesIdentifiers(t *testing.T) {
	assert.Equal(t,
		"CREATE TABLE IF NOT EXISTS `order` (`job_number` TEXT, `lot` TEXT, PRIMARY KEY (`job_number`))",
		createTableStmt(dialect.SQLite, "order", []string{"job_number", "lot"}, "job_number"))
	assert.Equal(t,
		`CREATE TABLE IF NOT EXISTS "order" ("job_number" TEXT, "lot" TEXT, PRIMARY KEY ("job_number"))`,
		createTableStmt(dialect.Postgres, "order", []string{"job_number", "lot"}, "job_number"))
}

func TestCreateTablesReservedNames(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	db, err := Open(ctx, Config{Driver: "sqlite", DSN: ":memory:", MaxConns: 1}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { Close(db, logger) })

	s := schema.Default()
	s.ArchivalTable, s.OperationalTable = "order", "group"
	require.NoError(t, CreateTables(ctx, db, s, logger))
	require.NoError(t, CreateTables(ctx, db, s, logger))

	repo := NewJobRepository(db, s, logger)
	insertBoth(t, repo, record("23030100"))

	// the key column is the primary key
	err = repo.InTx(ctx, func(ctx context.Context, w JobWriter) error {
		return w.InsertOperational(ctx, record("23030100"))
	})
	assert.True(t, common.IsConstraintConflict(err))
}
