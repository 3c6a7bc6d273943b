package repository

import (
	"errors"

	"entgo.io/ent/dialect/sql/sqlgraph"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/joseph-ayodele/jobs-tracker/internal/common"
)

// isUniqueViolation reports whether err is a uniqueness or primary key
// violation, for either backend.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
		if liteErr.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
			return false
		}
	}
	return sqlgraph.IsUniqueConstraintError(err)
}

// classify turns a driver error into the store error taxonomy.
func classify(op, table, key string, err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return &common.ConstraintConflictError{Table: table, Key: key, Cause: err}
	}
	return &common.StoreError{Op: op, Table: table, Cause: err}
}
