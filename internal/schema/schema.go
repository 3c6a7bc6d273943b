// Package schema describes the physical layout of the two job tables. The
// column orders encode an external table layout and are injected, never
// assumed.
package schema

import (
	"fmt"

	"github.com/joseph-ayodele/jobs-tracker/constants"
	"github.com/joseph-ayodele/jobs-tracker/internal/common"
)

// Schema holds the table names and ordered column lists of both job tables.
type Schema struct {
	ArchivalTable    string
	OperationalTable string
	// Archival and Operational are in positional binding order.
	Archival    []string
	Operational []string
	// UpdateColumns is the archival subset rewritten by the update fallback.
	UpdateColumns []string
	KeyColumn     string
}

// Default returns the stock layout.
func Default() Schema {
	return Schema{
		ArchivalTable:    constants.ArchivalTable,
		OperationalTable: constants.OperationalTable,
		Archival:         append([]string(nil), constants.ArchivalColumns...),
		Operational:      append([]string(nil), constants.OperationalColumns...),
		UpdateColumns:    append([]string(nil), constants.UpdateColumns...),
		KeyColumn:        constants.KeyColumn,
	}
}

// FromConfig builds a Schema from the loaded configuration.
func FromConfig(cfg common.SchemaConfig) (Schema, error) {
	s := Schema{
		ArchivalTable:    cfg.ArchivalTable,
		OperationalTable: cfg.OperationalTable,
		Archival:         cfg.ArchivalColumns,
		Operational:      cfg.OperationalColumns,
		UpdateColumns:    cfg.UpdateColumns,
		KeyColumn:        constants.KeyColumn,
	}
	if err := s.Validate(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// Union returns every column of both tables, archival order first, without
// duplicates.
func (s Schema) Union() []string {
	seen := make(map[string]struct{}, len(s.Archival)+len(s.Operational))
	out := make([]string, 0, len(s.Archival)+len(s.Operational))
	for _, cols := range [][]string{s.Archival, s.Operational} {
		for _, c := range cols {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// Validate rejects layouts the store could not bind against.
func (s Schema) Validate() error {
	v := common.NewValidator()
	v.Field("archival_table", s.ArchivalTable, common.Required)
	v.Field("operational_table", s.OperationalTable, common.Required)
	v.Field("key_column", s.KeyColumn, common.Required)

	checkList := func(name string, cols []string) map[string]struct{} {
		set := make(map[string]struct{}, len(cols))
		if len(cols) == 0 {
			v.Add(common.ValidationError{Field: name, Value: cols, Message: "must list at least one column"})
		}
		for _, c := range cols {
			if c == "" {
				v.Add(common.ValidationError{Field: name, Value: cols, Message: "contains an empty column name"})
				continue
			}
			if _, dup := set[c]; dup {
				v.Add(common.ValidationError{Field: name, Value: c, Message: "duplicate column"})
			}
			set[c] = struct{}{}
		}
		return set
	}
	archival := checkList("archival_columns", s.Archival)
	operational := checkList("operational_columns", s.Operational)
	checkList("update_columns", s.UpdateColumns)

	if _, ok := archival[s.KeyColumn]; !ok {
		v.Add(common.ValidationError{Field: "archival_columns", Value: s.KeyColumn, Message: "must contain the key column"})
	}
	if _, ok := operational[s.KeyColumn]; !ok {
		v.Add(common.ValidationError{Field: "operational_columns", Value: s.KeyColumn, Message: "must contain the key column"})
	}
	for _, c := range s.UpdateColumns {
		if c == s.KeyColumn {
			v.Add(common.ValidationError{Field: "update_columns", Value: c, Message: "must not rewrite the key column"})
		}
		if _, ok := archival[c]; !ok {
			v.Add(common.ValidationError{Field: "update_columns", Value: c, Message: "is not an archival column"})
		}
	}
	if err := v.Error(); err != nil {
		return fmt.Errorf("invalid job table schema: %w", err)
	}
	return nil
}
