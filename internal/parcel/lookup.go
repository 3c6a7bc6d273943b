// Package parcel fetches county property data for a parcel identifier.
package parcel

import (
	"context"
	"errors"
	"strings"

	"github.com/joseph-ayodele/jobs-tracker/internal/entity"
)

var (
	// ErrNotFound means the county has no record for the parcel.
	ErrNotFound = errors.New("parcel not found")
	// ErrUnavailable means the lookup service could not be reached or answered badly.
	ErrUnavailable = errors.New("parcel lookup service unavailable")
)

// Lookup is the parcel collaborator the record merger depends on.
type Lookup interface {
	Lookup(ctx context.Context, parcelID string) (*entity.ParcelSnapshot, error)
}

// StaticLookup serves snapshots from memory. Useful offline and in tests.
type StaticLookup map[string]*entity.ParcelSnapshot

// Lookup implements Lookup.
func (s StaticLookup) Lookup(ctx context.Context, parcelID string) (*entity.ParcelSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}
	snap, ok := s[strings.TrimSpace(parcelID)]
	if !ok {
		return nil, ErrNotFound
	}
	return snap, nil
}
