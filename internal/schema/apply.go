// internal/schema/apply.go
package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/quasarbase/quasar-backend/internal/core"
	"github.com/quasarbase/quasar-backend/internal/domain"
	"github.com/quasarbase/quasar-backend/internal/logger"
	"github.com/quasarbase/quasar-backend/internal/storage"
)

var customLog = logger.NewLogger()

// ErrSerialAlterTarget is returned when an alter asks to change an existing
// column's type to a serial pseudo-type. SERIAL is create-time sugar only;
// Postgres rejects it as an ALTER COLUMN TYPE target. Clients wanting that
// shape alter to the base integer type with an explicit nextval default.
var ErrSerialAlterTarget = errors.New("serial types cannot be the target of a column type change")

// Beginner is the slice of a connection pool the alter path needs.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Apply moves a physical table to the desired column set and rewrites the
// catalog schema cache in the same logical operation.
//
// The physical half runs in one transaction on a single checked-out
// connection, under an advisory lock keyed by database and table, so two
// concurrent alters of the same table serialize instead of interleaving
// their ALTER statements. The catalog half commits independently; when it
// fails after the physical commit, the divergence is recorded as a durable
// consistency fault and surfaced as a ProvisioningFault, never swallowed.
//
// Dropped columns lose their data. A rename arrives here as drop-plus-add
// and is therefore destructive as well.
func Apply(ctx context.Context, tenant Beginner, catalog *sql.DB,
	dbName string, tableRec *domain.Table, desired []domain.ColumnDescriptor) ([]domain.ColumnDescriptor, error) {

	desired, err := core.NormalizeColumns(desired)
	if err != nil {
		return nil, err
	}

	tx, err := tenant.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin alter transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lockKey := dbName + "." + tableRec.Name
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
		return nil, fmt.Errorf("failed to acquire schema lock for '%s': %w", lockKey, err)
	}

	current, err := Inspect(ctx, tx, tableRec.Name)
	if err != nil {
		return nil, err
	}

	changeset := Diff(current, desired)
	if changeset.Empty() {
		// No physical work, but the catalog cache still has to absorb the
		// request: constraint-flag-only edits never show up in the diff, and
		// a catalog left stale by an earlier fault heals on the next alter.
		customLog.Printf("Schema: No physical changes for %s.%s", dbName, tableRec.Name)
		if err := storage.UpdateTableSchema(ctx, catalog, tableRec.ID, desired); err != nil {
			return nil, fmt.Errorf("failed to update catalog schema for '%s': %w", tableRec.Name, err)
		}
		return desired, nil
	}

	for _, change := range changeset.ToModify {
		if change.TypeChanged {
			if _, isSerial := serialBase[strings.ToUpper(change.Desired.Type)]; isSerial {
				return nil, fmt.Errorf("%w: '%s'", ErrSerialAlterTarget, change.Name)
			}
		}
	}

	statements := changeset.Statements(tableRec.Name)
	for _, stmt := range statements {
		customLog.Printf("Schema: %s", stmt)
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("alter failed (%s): %w", stmt, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit alter transaction: %w", err)
	}

	// Physical change is committed; the catalog must now follow.
	if err := storage.UpdateTableSchema(ctx, catalog, tableRec.ID, desired); err != nil {
		detail := fmt.Sprintf("physical ALTER committed (%d statement(s)) but catalog schema update failed", len(statements))
		storage.RecordConsistencyFault(ctx, catalog, dbName, tableRec.Name, detail)
		return nil, &core.ProvisioningFault{
			DatabaseName: dbName,
			TableName:    tableRec.Name,
			Detail:       detail,
			Err:          err,
		}
	}

	customLog.Printf("Schema: Altered %s.%s (+%d -%d ~%d columns)",
		dbName, tableRec.Name, len(changeset.ToAdd), len(changeset.ToDrop), len(changeset.ToModify))
	return desired, nil
}
