package constants

// ArchivalOutcome is what happened to the archival row of a submission.
type ArchivalOutcome string

// Stable values (these exact strings are logged and returned over gRPC).
const (
	ArchivalInserted ArchivalOutcome = "INSERTED"
	ArchivalUpdated  ArchivalOutcome = "UPDATED" // conflict on insert, fallback update applied
)

// OperationalOutcome is what happened to the operational row of a submission.
type OperationalOutcome string

const (
	OperationalInserted OperationalOutcome = "INSERTED"
	OperationalSkipped  OperationalOutcome = "SKIPPED" // row already present, left untouched
)
