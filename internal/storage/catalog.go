// internal/storage/catalog.go
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // Driver registration

	"github.com/quasarbase/quasar-backend/config"
	"github.com/quasarbase/quasar-backend/internal/logger"
)

var customLog = logger.NewLogger()

// ConnectCatalogDB initializes the connection pool for the control-plane
// catalog (SQLite) and ensures the required tables exist. The catalog is the
// only durable state the core owns directly; physical tenant databases are
// mirrored by it.
func ConnectCatalogDB(cfg *config.Config) (*sql.DB, error) {
	dbPath := filepath.Join(cfg.CatalogDbDir, cfg.CatalogDbFile)
	customLog.Printf("Storage: Initializing catalog database: %s", dbPath)

	if err := os.MkdirAll(cfg.CatalogDbDir, 0750); err != nil {
		customLog.Warnf("Storage: Error creating data directory '%s': %v", cfg.CatalogDbDir, err)
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		customLog.Warnf("Storage: Failed to open catalog db '%s': %v", dbPath, err)
		return nil, fmt.Errorf("failed to open catalog db: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		customLog.Warnf("Storage: Failed to ping catalog db '%s': %v", dbPath, err)
		return nil, fmt.Errorf("failed to connect to catalog db: %w", err)
	}

	if err := ensureCatalogSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	customLog.Println("Storage: Catalog database ready.")
	return db, nil
}

func ensureCatalogSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS databases (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			owner_id TEXT NOT NULL,
			api_key TEXT NOT NULL UNIQUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS tables (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			database_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			schema TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (database_id, name),
			FOREIGN KEY (database_id) REFERENCES databases(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS consistency_faults (
			id TEXT PRIMARY KEY,
			database_name TEXT NOT NULL,
			table_name TEXT,
			detail TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			customLog.Warnf("Storage: Failed to ensure catalog schema: %v", err)
			return fmt.Errorf("failed to ensure catalog schema: %w", err)
		}
	}
	return nil
}
