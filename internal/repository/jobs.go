package repository

import (
	"context"
	"fmt"
	"log/slog"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/jobs-tracker/internal/common"
	"github.com/joseph-ayodele/jobs-tracker/internal/entity"
	"github.com/joseph-ayodele/jobs-tracker/internal/schema"
)

// JobWriter performs the writes of one upsert inside a transaction. Each
// method returns *common.ConstraintConflictError when the key is already
// taken and *common.StoreError for anything else.
type JobWriter interface {
	InsertArchival(ctx context.Context, rec entity.JobRecord) error
	UpdateArchival(ctx context.Context, rec entity.JobRecord) error
	InsertOperational(ctx context.Context, rec entity.JobRecord) error
}

type JobRepository interface {
	// The List*JobNumbers methods return raw rows whose first field is the job number.
	ListArchivalJobNumbers(ctx context.Context) ([][]any, error)
	ListOperationalJobNumbers(ctx context.Context) ([][]any, error)
	ListArchivalJobNumbersWithPrefix(ctx context.Context, prefix string) ([][]any, error)

	GetArchival(ctx context.Context, jobNumber string) (entity.JobRecord, error)
	GetOperational(ctx context.Context, jobNumber string) (entity.JobRecord, error)
	ListArchival(ctx context.Context) ([]entity.JobRecord, error)
	ListOperational(ctx context.Context) ([]entity.JobRecord, error)

	// InTx runs fn in one transaction, committing only if fn returns nil.
	InTx(ctx context.Context, fn func(ctx context.Context, w JobWriter) error) error
}

type jobRepository struct {
	drv    *entsql.Driver
	schema schema.Schema
	logger *slog.Logger
}

func NewJobRepository(db *DB, s schema.Schema, logger *slog.Logger) JobRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &jobRepository{
		drv:    db.Driver(),
		schema: s,
		logger: logger,
	}
}

func (r *jobRepository) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.drv.Dialect())
}

func (r *jobRepository) ListArchivalJobNumbers(ctx context.Context) ([][]any, error) {
	b := r.builder()
	query, args := b.Select(r.schema.KeyColumn).
		From(b.Table(r.schema.ArchivalTable)).
		Query()
	return r.rows(ctx, "list", r.schema.ArchivalTable, query, args)
}

func (r *jobRepository) ListOperationalJobNumbers(ctx context.Context) ([][]any, error) {
	b := r.builder()
	query, args := b.Select(r.schema.KeyColumn).
		From(b.Table(r.schema.OperationalTable)).
		Query()
	return r.rows(ctx, "list", r.schema.OperationalTable, query, args)
}

func (r *jobRepository) ListArchivalJobNumbersWithPrefix(ctx context.Context, prefix string) ([][]any, error) {
	b := r.builder()
	query, args := b.Select(r.schema.KeyColumn).
		From(b.Table(r.schema.ArchivalTable)).
		Where(entsql.HasPrefix(r.schema.KeyColumn, prefix)).
		Query()
	return r.rows(ctx, "list", r.schema.ArchivalTable, query, args)
}

func (r *jobRepository) GetArchival(ctx context.Context, jobNumber string) (entity.JobRecord, error) {
	return r.get(ctx, r.schema.ArchivalTable, r.schema.Archival, jobNumber)
}

func (r *jobRepository) GetOperational(ctx context.Context, jobNumber string) (entity.JobRecord, error) {
	return r.get(ctx, r.schema.OperationalTable, r.schema.Operational, jobNumber)
}

func (r *jobRepository) ListArchival(ctx context.Context) ([]entity.JobRecord, error) {
	return r.list(ctx, r.schema.ArchivalTable, r.schema.Archival)
}

func (r *jobRepository) ListOperational(ctx context.Context) ([]entity.JobRecord, error) {
	return r.list(ctx, r.schema.OperationalTable, r.schema.Operational)
}

func (r *jobRepository) get(ctx context.Context, table string, columns []string, jobNumber string) (entity.JobRecord, error) {
	b := r.builder()
	query, args := b.Select(columns...).
		From(b.Table(table)).
		Where(entsql.EQ(r.schema.KeyColumn, jobNumber)).
		Query()
	recs, err := r.records(ctx, table, columns, query, args)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%s job %s: %w", table, jobNumber, common.ErrNotFound)
	}
	return recs[0], nil
}

func (r *jobRepository) list(ctx context.Context, table string, columns []string) ([]entity.JobRecord, error) {
	b := r.builder()
	query, args := b.Select(columns...).
		From(b.Table(table)).
		OrderBy(r.schema.KeyColumn).
		Query()
	return r.records(ctx, table, columns, query, args)
}

func (r *jobRepository) rows(ctx context.Context, op, table, query string, args []any) ([][]any, error) {
	out, err := scanRows(ctx, r.drv, query, args)
	if err != nil {
		r.logger.Error("failed to query job numbers", "table", table, "error", err)
		return nil, classify(op, table, "", err)
	}
	return out, nil
}

func (r *jobRepository) records(ctx context.Context, table string, columns []string, query string, args []any) ([]entity.JobRecord, error) {
	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		r.logger.Error("failed to query jobs", "table", table, "error", err)
		return nil, classify("select", table, "", err)
	}
	defer rows.Close()

	var out []entity.JobRecord
	for rows.Next() {
		vals := make([]entsql.NullString, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, classify("scan", table, "", err)
		}
		rec := make(entity.JobRecord, len(columns))
		for i, c := range columns {
			if vals[i].Valid {
				rec[c] = entity.Str(vals[i].String)
			} else {
				rec[c] = nil
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("scan", table, "", err)
	}
	return out, nil
}

// scanRows returns every row as positional values.
func scanRows(ctx context.Context, q dialect.ExecQuerier, query string, args []any) ([][]any, error) {
	var rows entsql.Rows
	if err := q.Query(ctx, query, args, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		out = append(out, vals)
	}
	return out, rows.Err()
}

func (r *jobRepository) InTx(ctx context.Context, fn func(ctx context.Context, w JobWriter) error) error {
	tx, err := r.drv.Tx(ctx)
	if err != nil {
		r.logger.Error("failed to begin transaction", "error", err)
		return &common.StoreError{Op: "begin", Cause: err}
	}
	w := &jobWriter{tx: tx, builder: r.builder(), schema: r.schema, logger: r.logger}
	if err := fn(ctx, w); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			r.logger.Error("failed to roll back transaction", "error", rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		r.logger.Error("failed to commit transaction", "error", err)
		return &common.StoreError{Op: "commit", Cause: err}
	}
	return nil
}

type jobWriter struct {
	tx      dialect.Tx
	builder *entsql.DialectBuilder
	schema  schema.Schema
	logger  *slog.Logger
}

func (w *jobWriter) InsertArchival(ctx context.Context, rec entity.JobRecord) error {
	return w.insert(ctx, "archival_insert", w.schema.ArchivalTable, w.schema.Archival, rec)
}

func (w *jobWriter) InsertOperational(ctx context.Context, rec entity.JobRecord) error {
	return w.insert(ctx, "operational_insert", w.schema.OperationalTable, w.schema.Operational, rec)
}

// insert binds rec positionally in the declared column order. The statement
// runs inside a savepoint so a conflict leaves the transaction usable.
func (w *jobWriter) insert(ctx context.Context, savepoint, table string, columns []string, rec entity.JobRecord) error {
	key := rec.Get(w.schema.KeyColumn)
	query, args := w.builder.Insert(table).
		Columns(columns...).
		Values(rec.Values(columns)...).
		Query()

	if err := w.exec(ctx, "SAVEPOINT "+savepoint); err != nil {
		return &common.StoreError{Op: "savepoint", Table: table, Cause: err}
	}
	if err := w.tx.Exec(ctx, query, args, nil); err != nil {
		if rerr := w.exec(ctx, "ROLLBACK TO SAVEPOINT "+savepoint); rerr != nil {
			w.logger.Error("failed to roll back savepoint", "savepoint", savepoint, "error", rerr)
			return &common.StoreError{Op: "rollback savepoint", Table: table, Cause: rerr}
		}
		if rerr := w.exec(ctx, "RELEASE SAVEPOINT "+savepoint); rerr != nil {
			w.logger.Warn("failed to release savepoint", "savepoint", savepoint, "error", rerr)
		}
		return classify("insert", table, key, err)
	}
	if err := w.exec(ctx, "RELEASE SAVEPOINT "+savepoint); err != nil {
		return &common.StoreError{Op: "release savepoint", Table: table, Cause: err}
	}
	return nil
}

// UpdateArchival rewrites only the mutable subset of the archival row.
func (w *jobWriter) UpdateArchival(ctx context.Context, rec entity.JobRecord) error {
	table := w.schema.ArchivalTable
	key := rec.Get(w.schema.KeyColumn)
	u := w.builder.Update(table)
	for _, c := range w.schema.UpdateColumns {
		if v := rec[c]; v != nil {
			u.Set(c, *v)
		} else {
			u.SetNull(c)
		}
	}
	query, args := u.Where(entsql.EQ(w.schema.KeyColumn, key)).Query()

	var res entsql.Result
	if err := w.tx.Exec(ctx, query, args, &res); err != nil {
		return classify("update", table, key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &common.StoreError{Op: "update", Table: table, Cause: err}
	}
	if n == 0 {
		return &common.StoreError{Op: "update", Table: table, Cause: fmt.Errorf("job %s: %w", key, common.ErrNotFound)}
	}
	return nil
}

func (w *jobWriter) exec(ctx context.Context, stmt string) error {
	return w.tx.Exec(ctx, stmt, []any{}, nil)
}
