// internal/provision/provisioner.go
package provision

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
	"github.com/quasarbase/quasar-backend/internal/pool"
	"github.com/quasarbase/quasar-backend/internal/storage"
)

var customLog = logger.NewLogger()

// Provisioner creates and destroys physical databases and tables, keeping
// the control-plane catalog in step. Physical DDL and catalog writes commit
// independently; every partial failure is compensated best-effort and, when
// compensation itself fails, recorded as a durable consistency fault.
type Provisioner struct {
	Registry *pool.Registry
	Catalog  *sql.DB
}

// NewProvisioner wires the provisioner's dependencies.
func NewProvisioner(registry *pool.Registry, catalog *sql.DB) *Provisioner {
	return &Provisioner{Registry: registry, Catalog: catalog}
}

// CreateDatabase provisions one physical database and registers it in the
// catalog with a freshly generated API key.
//
// The name is validated, catalog duplicates are rejected, CREATE DATABASE
// runs only when the physical database is absent, and the catalog row is
// inserted last. If the catalog insert fails after this call physically
// created the database, the database is dropped again; a failed compensation
// is fault-logged and the original error still reaches the caller.
func (p *Provisioner) CreateDatabase(ctx context.Context, name, ownerID string) (*domain.Database, error) {
	if !core.IsValidIdentifier(name) {
		return nil, core.ErrInvalidIdentifier
	}

	if _, err := storage.FindDatabaseByName(ctx, p.Catalog, name); err == nil {
		return nil, storage.ErrDatabaseExists
	} else if !errors.Is(err, storage.ErrDatabaseNotFound) {
		return nil, err
	}

	physicallyCreated := false
	exists, err := p.physicalDatabaseExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		if _, err := p.Registry.Admin().Exec(ctx, "CREATE DATABASE "+core.QuoteIdentifier(name)); err != nil {
			return nil, fmt.Errorf("failed to create physical database '%s': %w", name, err)
		}
		physicallyCreated = true
		customLog.Printf("Provision: Created physical database '%s'", name)
	} else {
		customLog.Warnf("Provision: Physical database '%s' already exists without a catalog record, adopting it", name)
	}

	apiKey, err := GenerateAPIKey()
	if err != nil {
		p.compensateDatabase(ctx, name, physicallyCreated)
		return nil, err
	}

	record, err := storage.CreateDatabaseRecord(ctx, p.Catalog, name, ownerID, apiKey)
	if err != nil {
		p.compensateDatabase(ctx, name, physicallyCreated)
		return nil, err
	}

	customLog.Printf("Provision: Registered database '%s' (id %d) for owner %s", name, record.ID, ownerID)
	return record, nil
}

// DropDatabase tears down a logical database: evict the pool (terminating
// backend sessions so the DROP cannot fail on "database is in use"), drop the
// physical database, then remove the catalog row. A catalog failure after the
// physical drop leaves a phantom record and is fault-logged.
func (p *Provisioner) DropDatabase(ctx context.Context, db *domain.Database) error {
	if err := p.Registry.Evict(ctx, db.Name); err != nil {
		// Session termination failures are not fatal for the drop attempt.
		customLog.Warnf("Provision: Pool eviction for '%s' reported: %v", db.Name, err)
	}

	if _, err := p.Registry.Admin().Exec(ctx, "DROP DATABASE IF EXISTS "+core.QuoteIdentifier(db.Name)); err != nil {
		return fmt.Errorf("failed to drop physical database '%s': %w", db.Name, err)
	}
	customLog.Printf("Provision: Dropped physical database '%s'", db.Name)

	if err := storage.DeleteDatabaseRecord(ctx, p.Catalog, db.ID); err != nil && !errors.Is(err, storage.ErrDatabaseNotFound) {
		detail := "physical DROP DATABASE succeeded but catalog delete failed"
		storage.RecordConsistencyFault(ctx, p.Catalog, db.Name, "", detail)
		return &core.ProvisioningFault{DatabaseName: db.Name, Detail: detail, Err: err}
	}
	return nil
}

// CreateTable creates a physical table from validated column descriptors and
// records it in the catalog. If the catalog insert fails the fresh table is
// dropped again; a failed compensation is fault-logged.
func (p *Provisioner) CreateTable(ctx context.Context, db *domain.Database, tableName string, cols []domain.ColumnDescriptor) (*domain.Table, error) {
	if !core.IsValidIdentifier(tableName) {
		return nil, core.ErrInvalidIdentifier
	}
	cols, err := core.NormalizeColumns(cols)
	if err != nil {
		return nil, err
	}

	tenant, err := p.Registry.Get(ctx, db.Name)
	if err != nil {
		return nil, err
	}

	createSQL := BuildCreateTableSQL(tableName, cols)
	customLog.Printf("Provision: %s", createSQL)
	if _, err := tenant.Exec(ctx, createSQL); err != nil {
		return nil, fmt.Errorf("failed to create table '%s': %w", tableName, err)
	}

	record, err := storage.CreateTableRecord(ctx, p.Catalog, db.ID, tableName, cols)
	if err != nil {
		if _, dropErr := tenant.Exec(ctx, "DROP TABLE IF EXISTS "+core.QuoteIdentifier(tableName)); dropErr != nil {
			detail := "physical CREATE TABLE succeeded, catalog insert failed, compensating DROP TABLE failed"
			storage.RecordConsistencyFault(ctx, p.Catalog, db.Name, tableName, detail)
			return nil, &core.ProvisioningFault{DatabaseName: db.Name, TableName: tableName, Detail: detail, Err: err}
		}
		return nil, err
	}

	customLog.Printf("Provision: Created table '%s' in database '%s'", tableName, db.Name)
	return record, nil
}

// DropTable drops the physical table, then its catalog row. The physical
// side uses IF EXISTS so a half-provisioned table can still be cleaned up.
func (p *Provisioner) DropTable(ctx context.Context, db *domain.Database, table *domain.Table) error {
	tenant, err := p.Registry.Get(ctx, db.Name)
	if err != nil {
		return err
	}

	if _, err := tenant.Exec(ctx, "DROP TABLE IF EXISTS "+core.QuoteIdentifier(table.Name)); err != nil {
		return fmt.Errorf("failed to drop table '%s': %w", table.Name, err)
	}

	if err := storage.DeleteTableRecord(ctx, p.Catalog, table.ID); err != nil && !errors.Is(err, storage.ErrTableNotFound) {
		detail := "physical DROP TABLE succeeded but catalog delete failed"
		storage.RecordConsistencyFault(ctx, p.Catalog, db.Name, table.Name, detail)
		return &core.ProvisioningFault{DatabaseName: db.Name, TableName: table.Name, Detail: detail, Err: err}
	}

	customLog.Printf("Provision: Dropped table '%s' from database '%s'", table.Name, db.Name)
	return nil
}

func (p *Provisioner) physicalDatabaseExists(ctx context.Context, name string) (bool, error) {
	var one int
	err := p.Registry.Admin().QueryRow(ctx,
		`SELECT 1 FROM pg_database WHERE datname = $1`, name).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check pg_database for '%s': %w", name, err)
	}
	return true, nil
}

// compensateDatabase undoes a physical CREATE DATABASE after a later
// provisioning step failed. Only databases created by this call are dropped;
// an adopted pre-existing database is left alone. Compensation failures are
// fault-logged, never propagated, so the original error reaches the caller.
func (p *Provisioner) compensateDatabase(ctx context.Context, name string, created bool) {
	if !created {
		return
	}
	if err := p.Registry.Evict(ctx, name); err != nil {
		customLog.Warnf("Provision: Compensation eviction for '%s' reported: %v", name, err)
	}
	if _, err := p.Registry.Admin().Exec(ctx, "DROP DATABASE IF EXISTS "+core.QuoteIdentifier(name)); err != nil {
		detail := "catalog insert failed and compensating DROP DATABASE failed"
		storage.RecordConsistencyFault(ctx, p.Catalog, name, "", detail)
		customLog.Warnf("Provision: Compensation drop for '%s' failed: %v", name, err)
	}
}

// BuildCreateTableSQL renders the CREATE TABLE statement for validated,
// normalized column descriptors. All identifiers are quoted.
func BuildCreateTableSQL(tableName string, cols []domain.ColumnDescriptor) string {
	defs := make([]string, 0, len(cols))
	for _, col := range cols {
		defs = append(defs, core.ColumnDDL(col))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", core.QuoteIdentifier(tableName), strings.Join(defs, ", "))
}
