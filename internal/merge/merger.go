// Package merge combines operator input with county parcel data into one
// complete job record.
package merge

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/jobs-tracker/internal/common"
	"github.com/joseph-ayodele/jobs-tracker/internal/entity"
	"github.com/joseph-ayodele/jobs-tracker/internal/parcel"
	"github.com/joseph-ayodele/jobs-tracker/internal/schema"
)

// countyColumn is filled from the snapshot's derived county.
const countyColumn = "county"

// Merger builds records spanning the union of both table layouts.
type Merger struct {
	lookup parcel.Lookup
	schema schema.Schema
	logger *slog.Logger
}

// NewMerger creates a merger over the given parcel collaborator.
func NewMerger(lookup parcel.Lookup, s schema.Schema, logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{lookup: lookup, schema: s, logger: logger}
}

// Merge looks parcelID up and returns a record with a key for every column
// of both tables. Parcel values win over operator input for any column the
// snapshot carries; operator input fills the rest; anything else is NULL.
// A lookup failure aborts the merge.
func (m *Merger) Merge(ctx context.Context, inputs map[string]string, parcelID string) (entity.JobRecord, error) {
	parcelID = strings.TrimSpace(parcelID)
	if parcelID == "" {
		return nil, common.ValidationError{Field: "parcel_id", Value: parcelID, Message: "is required"}
	}

	snap, err := m.lookup.Lookup(ctx, parcelID)
	if err != nil {
		m.logger.Error("merge.lookup_failed", "parcel_id", parcelID, "request_id", common.RequestIDFromContext(ctx), "error", err)
		return nil, &common.LookupError{ParcelID: parcelID, Cause: err}
	}
	if snap == nil {
		m.logger.Error("merge.lookup_empty", "parcel_id", parcelID, "request_id", common.RequestIDFromContext(ctx))
		return nil, &common.LookupError{ParcelID: parcelID, Cause: parcel.ErrNotFound}
	}

	authoritative := make(map[string]*string, len(snap.Fields)+1)
	for k, v := range snap.Fields {
		authoritative[k] = v
	}
	if snap.County != "" {
		authoritative[countyColumn] = entity.Str(snap.County)
	}

	columns := m.schema.Union()
	rec := make(entity.JobRecord, len(columns))
	fromParcel, fromInput := 0, 0
	for _, col := range columns {
		if v, ok := authoritative[col]; ok {
			rec[col] = v
			fromParcel++
			continue
		}
		if v, ok := inputs[col]; ok {
			rec[col] = entity.Str(v)
			fromInput++
			continue
		}
		rec[col] = nil
	}

	m.logger.Debug("merge.ok",
		"parcel_id", parcelID,
		"request_id", common.RequestIDFromContext(ctx),
		"columns", len(columns),
		"from_parcel", fromParcel,
		"from_input", fromInput,
	)
	return rec, nil
}
