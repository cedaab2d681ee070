// api/models/data_models.go
package models

// --- Generic Data Plane Request Structs ---
// Filter and Data are schema-agnostic maps; the data executor validates
// their keys against the table's catalog schema.

// GetRequest selects rows by equality filter (AND-joined).
type GetRequest struct {
	Filter map[string]any `json:"filter"`
}

// InsertRequest adds one row.
type InsertRequest struct {
	Data map[string]any `json:"data"`
}

// UpdateRequest mutates every row matching Filter with the values in Data.
type UpdateRequest struct {
	Filter map[string]any `json:"filter"`
	Data   map[string]any `json:"data"`
}

// DeleteRequest removes every row matching Filter.
type DeleteRequest struct {
	Filter map[string]any `json:"filter"`
}
