// internal/storage/fault_repo.go
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/quasarbase/quasar-backend/internal/domain"
)

// RecordConsistencyFault durably logs a cross-store failure (physical DDL and
// catalog write disagree) so an operator can reconcile by hand. Its own
// failure is logged, never propagated: the original error must reach the caller.
func RecordConsistencyFault(ctx context.Context, db *sql.DB, databaseName, tableName, detail string) string {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO consistency_faults (id, database_name, table_name, detail) VALUES (?, ?, ?, ?)`,
		id, databaseName, tableName, detail)
	if err != nil {
		customLog.Warnf("Storage: FAILED to record consistency fault (db=%s table=%s detail=%s): %v",
			databaseName, tableName, detail, err)
		return ""
	}
	customLog.Warnf("Storage: Consistency fault %s recorded (db=%s table=%s): %s", id, databaseName, tableName, detail)
	return id
}

// ListConsistencyFaults returns all recorded faults, newest first.
func ListConsistencyFaults(ctx context.Context, db *sql.DB) ([]domain.ConsistencyFault, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, database_name, COALESCE(table_name, ''), detail, created_at
		 FROM consistency_faults ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("catalog error listing consistency faults: %w", err)
	}
	defer rows.Close()

	faults := make([]domain.ConsistencyFault, 0)
	for rows.Next() {
		var f domain.ConsistencyFault
		if err := rows.Scan(&f.ID, &f.DatabaseName, &f.TableName, &f.Detail, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed reading consistency fault: %w", err)
		}
		faults = append(faults, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed processing consistency faults: %w", err)
	}
	return faults, nil
}
