// internal/domain/models.go
package domain

import "time"

// Database is a logical database: one catalog row backed by one physical
// Postgres database. APIKey grants full CRUD over every table in it.
type Database struct {
	ID        int64     `json:"database_id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	APIKey    string    `json:"api_key,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Table is the catalog record for one physical table. Schema is a
// denormalized cache of information_schema.columns and must be rewritten
// whenever the physical columns change.
type Table struct {
	ID         int64              `json:"table_id"`
	DatabaseID int64              `json:"database_id"`
	Name       string             `json:"name"`
	Schema     []ColumnDescriptor `json:"schema"`
	CreatedAt  time.Time          `json:"created_at"`
}

// ColumnDescriptor describes one column, both when provisioning a table and
// when diffing desired columns against the live schema.
type ColumnDescriptor struct {
	Name             string  `json:"name"`
	Type             string  `json:"type"`
	IsPrimaryKey     bool    `json:"is_primary_key,omitempty"`
	IsNotNull        bool    `json:"is_not_null,omitempty"`
	IsUnique         bool    `json:"is_unique,omitempty"`
	DefaultValue     *string `json:"default_value,omitempty"`
	IsForeignKey     bool    `json:"is_foreign_key,omitempty"`
	ForeignKeyTable  string  `json:"foreign_key_table,omitempty"`
	ForeignKeyColumn string  `json:"foreign_key_column,omitempty"`
}

// ConsistencyFault records a cross-store failure (physical DDL succeeded but
// the catalog write failed, or vice versa) for manual reconciliation.
type ConsistencyFault struct {
	ID           string    `json:"id"`
	DatabaseName string    `json:"database_name"`
	TableName    string    `json:"table_name,omitempty"`
	Detail       string    `json:"detail"`
	CreatedAt    time.Time `json:"created_at"`
}
