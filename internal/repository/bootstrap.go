package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/jobs-tracker/internal/common"
	"github.com/joseph-ayodele/jobs-tracker/internal/schema"
)

// CreateTables creates both job tables when they do not exist yet, every
// column as nullable text and the key column as primary key. It never alters
// an existing table.
func CreateTables(ctx context.Context, db *DB, s schema.Schema, logger *slog.Logger) error {
	drv := db.Driver()
	for _, t := range []struct {
		name    string
		columns []string
	}{
		{s.ArchivalTable, s.Archival},
		{s.OperationalTable, s.Operational},
	} {
		stmt := createTableStmt(drv.Dialect(), t.name, t.columns, s.KeyColumn)
		if err := drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			logger.Error("failed to create table", "table", t.name, "error", err)
			return &common.StoreError{Op: "create", Table: t.name, Cause: err}
		}
		logger.Info("table ready", "table", t.name, "columns", len(t.columns))
	}
	return nil
}

// createTableStmt renders the DDL for one table with identifiers quoted for
// the given dialect.
func createTableStmt(dialect, table string, columns []string, key string) string {
	b := entsql.Dialect(dialect)
	quote := b.Select().Builder.Quote
	defs := make([]string, 0, len(columns))
	for _, c := range columns {
		def, _ := b.Column(c).Type("TEXT").Query()
		defs = append(defs, def)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s, PRIMARY KEY (%s))",
		quote(table), strings.Join(defs, ", "), quote(key))
}
