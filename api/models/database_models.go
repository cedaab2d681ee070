// api/models/database_models.go
package models

import "github.com/quasarbase/quasar-backend/internal/domain"

// --- Database/Table Request Structs ---

// CreateDatabaseRequest defines the body for provisioning a logical database.
type CreateDatabaseRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateDatabaseResponse returns the generated credentials. The api_key is
// shown exactly once, at creation.
type CreateDatabaseResponse struct {
	DatabaseID int64  `json:"database_id"`
	Name       string `json:"name"`
	APIKey     string `json:"api_key"`
}

// ColumnDefinition is the wire form of one column in a create/alter request.
type ColumnDefinition struct {
	Name             string  `json:"name" binding:"required"`
	Type             string  `json:"type" binding:"required"`
	IsPrimaryKey     bool    `json:"is_primary_key"`
	IsNotNull        bool    `json:"is_not_null"`
	IsUnique         bool    `json:"is_unique"`
	DefaultValue     *string `json:"default_value"`
	IsForeignKey     bool    `json:"is_foreign_key"`
	ForeignKeyTable  string  `json:"foreign_key_table"`
	ForeignKeyColumn string  `json:"foreign_key_column"`
}

// CreateTableRequest defines the body for creating a table from explicit
// column descriptors. CSV-driven creation uses a multipart upload instead.
type CreateTableRequest struct {
	TableName string             `json:"table_name" binding:"required"`
	Columns   []ColumnDefinition `json:"columns" binding:"required,min=1,dive"`
}

// AlterTableRequest carries the full desired column set; the server diffs it
// against the live schema. Renaming a column arrives as drop+add and is
// destructive.
type AlterTableRequest struct {
	Columns []ColumnDefinition `json:"columns" binding:"required,min=1,dive"`
}

// TableResponse is the common reply for table create/alter/list operations.
type TableResponse struct {
	TableID int64                     `json:"table_id"`
	Name    string                    `json:"name"`
	Schema  []domain.ColumnDescriptor `json:"schema"`
}

// ToDescriptors converts wire columns to domain descriptors.
func ToDescriptors(cols []ColumnDefinition) []domain.ColumnDescriptor {
	out := make([]domain.ColumnDescriptor, 0, len(cols))
	for _, c := range cols {
		out = append(out, domain.ColumnDescriptor{
			Name:             c.Name,
			Type:             c.Type,
			IsPrimaryKey:     c.IsPrimaryKey,
			IsNotNull:        c.IsNotNull,
			IsUnique:         c.IsUnique,
			DefaultValue:     c.DefaultValue,
			IsForeignKey:     c.IsForeignKey,
			ForeignKeyTable:  c.ForeignKeyTable,
			ForeignKeyColumn: c.ForeignKeyColumn,
		})
	}
	return out
}
