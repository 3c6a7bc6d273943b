package jobnumber

import (
	"fmt"
	"time"
)

// lookbackMonths is how far back NextUnused searches for a previous number.
const lookbackMonths = 12

// Allocator computes the next unused job number from the registry's
// current-period set and the date captured at construction.
type Allocator struct {
	registry *Registry
	year     int
	month    int
}

// NewAllocator captures now's two-digit year and month.
func NewAllocator(registry *Registry, now time.Time) *Allocator {
	return &Allocator{
		registry: registry,
		year:     now.Year() % 100,
		month:    int(now.Month()),
	}
}

// Year returns the captured two-digit year.
func (a *Allocator) Year() int { return a.year }

// Month returns the captured month, 1 through 12.
func (a *Allocator) Month() int { return a.month }

// YearPrefix returns the two-digit year used to refresh the current period.
func (a *Allocator) YearPrefix() string { return fmt.Sprintf("%02d", a.year) }

// PrefixFor returns YYMM for the captured month minus monthsBack. Going back
// past January wraps to December of the same captured year; the year digits
// are never decremented. A negative monthsBack is treated as zero.
func (a *Allocator) PrefixFor(monthsBack int) string {
	monthsBack = max(monthsBack, 0)
	month := a.month - monthsBack%lookbackMonths
	if month < 1 {
		month += lookbackMonths
	}
	return fmt.Sprintf("%02d%02d", a.year, month)
}

// NextUnused returns the successor of the highest current-period number in
// the most recent month that has one, searching up to eleven months back.
// The result always carries the current month's prefix, even when the match
// was found in an earlier month. With no match at all the sequence starts at
// FirstSequence.
func (a *Allocator) NextUnused() (string, error) {
	current := a.PrefixFor(0)
	for monthsBack := 0; monthsBack < lookbackMonths; monthsBack++ {
		matches := a.registry.WithPrefix(a.PrefixFor(monthsBack))
		if len(matches) == 0 {
			continue
		}
		// Sorted and fixed width, so the last entry is the numeric maximum.
		seq, err := Sequence(matches[len(matches)-1])
		if err != nil {
			return "", err
		}
		return Format(current, seq+1)
	}
	return Format(current, FirstSequence)
}
