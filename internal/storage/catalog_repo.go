// internal/storage/catalog_repo.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/quasarbase/quasar-backend/internal/domain"
)

// Specific errors for catalog operations
var (
	ErrDatabaseExists   = errors.New("database name already exists")
	ErrDatabaseNotFound = errors.New("database not found")
	ErrTableExists      = errors.New("table already exists in this database")
	ErrTableNotFound    = errors.New("table not found")
	ErrAPIKeyNotFound   = errors.New("api key not recognized")
)

// --- Database record operations ---

// CreateDatabaseRecord inserts a logical-database row inside a transaction
// and returns the populated record. A UNIQUE violation on the name maps to
// ErrDatabaseExists so provisioning can report a conflict, not a new key.
func CreateDatabaseRecord(ctx context.Context, db *sql.DB, name, ownerID, apiKey string) (*domain.Database, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin catalog transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO databases (name, owner_id, api_key) VALUES (?, ?, ?)`,
		name, ownerID, apiKey)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return nil, ErrDatabaseExists
		}
		customLog.Warnf("Storage: Failed to insert database record '%s': %v", name, err)
		return nil, fmt.Errorf("catalog error registering database: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve database ID after creation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit catalog transaction: %w", err)
	}

	return &domain.Database{ID: id, Name: name, OwnerID: ownerID, APIKey: apiKey}, nil
}

// FindDatabaseByName retrieves a logical database record by its unique name.
func FindDatabaseByName(ctx context.Context, db *sql.DB, name string) (*domain.Database, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, name, owner_id, api_key, created_at FROM databases WHERE name = ? LIMIT 1`, name)
	return scanDatabase(row)
}

// FindDatabaseByAPIKey resolves an API key to its logical database.
// Returns ErrAPIKeyNotFound when the key matches no record.
func FindDatabaseByAPIKey(ctx context.Context, db *sql.DB, apiKey string) (*domain.Database, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, name, owner_id, api_key, created_at FROM databases WHERE api_key = ? LIMIT 1`, apiKey)
	rec, err := scanDatabase(row)
	if errors.Is(err, ErrDatabaseNotFound) {
		return nil, ErrAPIKeyNotFound
	}
	return rec, err
}

// ListDatabases returns every logical database owned by the given principal.
func ListDatabases(ctx context.Context, db *sql.DB, ownerID string) ([]domain.Database, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, owner_id, api_key, created_at FROM databases WHERE owner_id = ? ORDER BY name`, ownerID)
	if err != nil {
		customLog.Warnf("Storage: Error listing databases for owner %s: %v", ownerID, err)
		return nil, fmt.Errorf("catalog error listing databases: %w", err)
	}
	defer rows.Close()

	databases := make([]domain.Database, 0)
	for rows.Next() {
		var d domain.Database
		if err := rows.Scan(&d.ID, &d.Name, &d.OwnerID, &d.APIKey, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed reading database list: %w", err)
		}
		databases = append(databases, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed processing database list: %w", err)
	}
	return databases, nil
}

// DeleteDatabaseRecord removes a logical database row. Table rows cascade.
func DeleteDatabaseRecord(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM databases WHERE id = ?`, id)
	if err != nil {
		customLog.Warnf("Storage: Failed to delete database record %d: %v", id, err)
		return fmt.Errorf("catalog error deleting database: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed confirming database delete: %w", err)
	}
	if affected == 0 {
		return ErrDatabaseNotFound
	}
	return nil
}

func scanDatabase(row *sql.Row) (*domain.Database, error) {
	var d domain.Database
	err := row.Scan(&d.ID, &d.Name, &d.OwnerID, &d.APIKey, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDatabaseNotFound
		}
		return nil, fmt.Errorf("catalog error finding database: %w", err)
	}
	return &d, nil
}

// --- Table record operations ---

// CreateTableRecord inserts a table row with its serialized column schema.
func CreateTableRecord(ctx context.Context, db *sql.DB, databaseID int64, name string, schema []domain.ColumnDescriptor) (*domain.Table, error) {
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize table schema: %w", err)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO tables (database_id, name, schema) VALUES (?, ?, ?)`,
		databaseID, name, string(schemaJSON))
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return nil, ErrTableExists
		}
		customLog.Warnf("Storage: Failed to insert table record '%s' (db %d): %v", name, databaseID, err)
		return nil, fmt.Errorf("catalog error registering table: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve table ID after creation: %w", err)
	}
	return &domain.Table{ID: id, DatabaseID: databaseID, Name: name, Schema: schema}, nil
}

// FindTableRecord retrieves one table row of a database by name.
func FindTableRecord(ctx context.Context, db *sql.DB, databaseID int64, name string) (*domain.Table, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, database_id, name, schema, created_at FROM tables WHERE database_id = ? AND name = ? LIMIT 1`,
		databaseID, name)

	var t domain.Table
	var schemaJSON string
	err := row.Scan(&t.ID, &t.DatabaseID, &t.Name, &schemaJSON, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("catalog error finding table: %w", err)
	}
	if err := json.Unmarshal([]byte(schemaJSON), &t.Schema); err != nil {
		return nil, fmt.Errorf("failed to parse stored table schema: %w", err)
	}
	return &t, nil
}

// ListTableRecords returns every table registered under a database.
func ListTableRecords(ctx context.Context, db *sql.DB, databaseID int64) ([]domain.Table, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, database_id, name, schema, created_at FROM tables WHERE database_id = ? ORDER BY name`, databaseID)
	if err != nil {
		customLog.Warnf("Storage: Error listing tables for database %d: %v", databaseID, err)
		return nil, fmt.Errorf("catalog error listing tables: %w", err)
	}
	defer rows.Close()

	tables := make([]domain.Table, 0)
	for rows.Next() {
		var t domain.Table
		var schemaJSON string
		if err := rows.Scan(&t.ID, &t.DatabaseID, &t.Name, &schemaJSON, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed reading table list: %w", err)
		}
		if err := json.Unmarshal([]byte(schemaJSON), &t.Schema); err != nil {
			return nil, fmt.Errorf("failed to parse stored table schema: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed processing table list: %w", err)
	}
	return tables, nil
}

// UpdateTableSchema rewrites the cached schema for a table record. Called in
// the same logical operation as every physical ALTER so the catalog never
// diverges silently from information_schema.
func UpdateTableSchema(ctx context.Context, db *sql.DB, tableID int64, schema []domain.ColumnDescriptor) error {
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("failed to serialize table schema: %w", err)
	}

	result, err := db.ExecContext(ctx, `UPDATE tables SET schema = ? WHERE id = ?`, string(schemaJSON), tableID)
	if err != nil {
		customLog.Warnf("Storage: Failed to update schema for table %d: %v", tableID, err)
		return fmt.Errorf("catalog error updating table schema: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed confirming schema update: %w", err)
	}
	if affected == 0 {
		return ErrTableNotFound
	}
	return nil
}

// DeleteTableRecord removes a table row.
func DeleteTableRecord(ctx context.Context, db *sql.DB, tableID int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM tables WHERE id = ?`, tableID)
	if err != nil {
		customLog.Warnf("Storage: Failed to delete table record %d: %v", tableID, err)
		return fmt.Errorf("catalog error deleting table: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed confirming table delete: %w", err)
	}
	if affected == 0 {
		return ErrTableNotFound
	}
	return nil
}
