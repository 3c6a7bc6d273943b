package jobnumber

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/joseph-ayodele/jobs-tracker/internal/common"
)

// Registry is the session's catalogue of known job numbers: every archival
// number, every operational number and the archival numbers of the current
// two-digit year. It is a cache rebuilt from the store on each start.
type Registry struct {
	mu            sync.RWMutex
	existing      map[string]struct{}
	active        map[string]struct{}
	currentPeriod map[string]struct{}
	lastAllocated string
	logger        *slog.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		existing:      map[string]struct{}{},
		active:        map[string]struct{}{},
		currentPeriod: map[string]struct{}{},
		logger:        logger,
	}
}

// AddExisting unions the first field of each row into the archival set and
// returns how many values were accepted.
func (r *Registry) AddExisting(rows [][]any) int {
	return r.add("existing", r.existing, rows)
}

// AddActive unions the first field of each row into the operational set.
func (r *Registry) AddActive(rows [][]any) int {
	return r.add("active", r.active, rows)
}

// AddCurrentPeriod unions the first field of each row into the current-period set.
func (r *Registry) AddCurrentPeriod(rows [][]any) int {
	return r.add("current_period", r.currentPeriod, rows)
}

// AddJobNumber records a freshly persisted number as both archival and operational.
func (r *Registry) AddJobNumber(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.existing[id] = struct{}{}
	r.active[id] = struct{}{}
}

// Reserve marks id as taken in the current period so the next allocation
// moves past it even before it is committed.
func (r *Registry) Reserve(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentPeriod[id] = struct{}{}
}

// Remove retires id from the archival set only. The operational set is left
// alone: retiring a record does not retract a completed operational entry.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.existing[id]; !ok {
		return fmt.Errorf("job number %s: %w", id, common.ErrNotFound)
	}
	delete(r.existing, id)
	return nil
}

// Clear empties the archival and operational sets. The current-period set is
// refreshed per allocation and is kept.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.existing)
	clear(r.active)
}

// HasExisting reports archival membership.
func (r *Registry) HasExisting(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.existing[id]
	return ok
}

// HasActive reports operational membership.
func (r *Registry) HasActive(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.active[id]
	return ok
}

// Existing returns a sorted snapshot of the archival set.
func (r *Registry) Existing() []string { return r.snapshot(r.existing) }

// Active returns a sorted snapshot of the operational set.
func (r *Registry) Active() []string { return r.snapshot(r.active) }

// CurrentPeriod returns a sorted snapshot of the current-period set.
func (r *Registry) CurrentPeriod() []string { return r.snapshot(r.currentPeriod) }

// WithPrefix returns the current-period numbers starting with prefix, sorted.
func (r *Registry) WithPrefix(prefix string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for id := range r.currentPeriod {
		if strings.HasPrefix(id, prefix) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// LastAllocated returns the most recently issued number, or "".
func (r *Registry) LastAllocated() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastAllocated
}

// SetLastAllocated records the most recently issued number.
func (r *Registry) SetLastAllocated(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastAllocated = id
}

func (r *Registry) snapshot(set map[string]struct{}) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) add(name string, set map[string]struct{}, rows [][]any) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	accepted := 0
	for _, row := range rows {
		id, ok := firstField(row)
		if !ok || !Valid(id) {
			r.logger.Warn("jobnumber.registry.rejected", "set", name, "row", row)
			continue
		}
		set[id] = struct{}{}
		accepted++
	}
	return accepted
}

// firstField extracts the identifier from a positional query row.
func firstField(row []any) (string, bool) {
	if len(row) == 0 || row[0] == nil {
		return "", false
	}
	var s string
	switch v := row[0].(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case *string:
		if v == nil {
			return "", false
		}
		s = *v
	case fmt.Stringer:
		s = v.String()
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}
