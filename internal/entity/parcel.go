package entity

// ParcelSnapshot is county property data for one parcel identifier. Its
// fields are authoritative: once present they are never overridden by
// operator input.
type ParcelSnapshot struct {
	ParcelID string             `json:"parcel_id"`
	County   string             `json:"county"`
	Fields   map[string]*string `json:"fields"`
}
