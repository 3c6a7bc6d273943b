package entity

// JobRecord is one job submission keyed by column name. A nil value is an
// explicit NULL. A record is complete when every column of both job tables
// has a key.
type JobRecord map[string]*string

// Str returns a pointer to s, for building records by hand.
func Str(s string) *string { return &s }

// Get returns the value of column, or "" when it is absent or NULL.
func (r JobRecord) Get(column string) string {
	if v := r[column]; v != nil {
		return *v
	}
	return ""
}

// Has reports whether column has an entry (NULL included).
func (r JobRecord) Has(column string) bool {
	_, ok := r[column]
	return ok
}

// Missing returns the columns without an entry, in the given order.
func (r JobRecord) Missing(columns []string) []string {
	var out []string
	for _, c := range columns {
		if !r.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Values returns the values of columns in order, as positional query args.
func (r JobRecord) Values(columns []string) []any {
	args := make([]any, len(columns))
	for i, c := range columns {
		if v := r[c]; v != nil {
			args[i] = *v
		}
	}
	return args
}
