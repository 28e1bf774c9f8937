package domain

// ── Record ─────────────────────────────────────────────────
// Common output format for published rows.
// Inspired by the Airbyte record protocol / Singer record message.

// Record is a single published row. Data holds the row's values as a
// serialized JSON array in schema column order; values that failed
// coercion appear as null. Invalid rows are emitted, never dropped.
type Record struct {
	Invalid bool   `json:"invalid"`
	Error   string `json:"error,omitempty"`
	Data    string `json:"data"`
}
