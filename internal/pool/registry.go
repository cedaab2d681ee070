// internal/pool/registry.go
package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quasarbase/quasar-backend/config"
	"github.com/quasarbase/quasar-backend/internal/core"
	"github.com/quasarbase/quasar-backend/internal/logger"
)

var customLog = logger.NewLogger()

// connector creates a pool for one physical database. Swappable in tests.
type connector func(ctx context.Context, dbName string) (*pgxpool.Pool, error)

// Registry caches one pgxpool per logical database for the lifetime of the
// process. It is shared mutable state: only Get and Evict may touch the map,
// and both are safe to call concurrently. Logical databases created and then
// abandoned without a drop leave their pool cached until shutdown; that
// growth is an operational concern, not a correctness one.
type Registry struct {
	mu    sync.Mutex
	pools map[string]*pgxpool.Pool
	admin *pgxpool.Pool

	cfg     *config.Config
	connect connector
}

// NewRegistry builds the registry plus its maintenance-database pool. The
// maintenance pool is the one allowed to run CREATE/DROP DATABASE and to
// terminate backend sessions; tenant pools never are.
func NewRegistry(ctx context.Context, cfg *config.Config) (*Registry, error) {
	r := &Registry{
		pools: make(map[string]*pgxpool.Pool),
		cfg:   cfg,
	}
	r.connect = r.dial

	admin, err := r.dial(ctx, cfg.PgMaintenanceDB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect maintenance database: %w", err)
	}
	r.admin = admin
	return r, nil
}

func (r *Registry) dial(ctx context.Context, dbName string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(r.cfg.ConnString(dbName))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 0
	poolCfg.MaxConnLifetime = 15 * time.Minute
	poolCfg.MaxConnIdleTime = 3 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second

	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to reach database '%s': %w", dbName, err)
	}
	return p, nil
}

// Admin returns the maintenance-database pool.
func (r *Registry) Admin() *pgxpool.Pool {
	return r.admin
}

// Get returns the cached pool for a logical database, creating it on first
// access. The create happens under the registry lock so two concurrent first
// requests cannot race a duplicate pool into existence.
func (r *Registry) Get(ctx context.Context, dbName string) (*pgxpool.Pool, error) {
	if !core.IsValidIdentifier(dbName) {
		return nil, core.ErrInvalidIdentifier
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.pools[dbName]; ok {
		return p, nil
	}

	customLog.Printf("Pool: Opening pool for database '%s'", dbName)
	p, err := r.connect(ctx, dbName)
	if err != nil {
		return nil, err
	}
	r.pools[dbName] = p
	return p, nil
}

// Evict prepares a physical database for DROP and forgets its pool.
// Three steps, each attempted even when an earlier one fails, because the
// registry must never retain a pool to a database that no longer exists:
//  1. terminate every backend session against the database (otherwise the
//     subsequent DROP DATABASE fails with "database is in use"),
//  2. close the cached pool (Close waits for checked-out conns to release),
//  3. remove the cache entry.
func (r *Registry) Evict(ctx context.Context, dbName string) error {
	if !core.IsValidIdentifier(dbName) {
		return core.ErrInvalidIdentifier
	}

	_, termErr := r.admin.Exec(ctx,
		`SELECT pg_terminate_backend(pid) FROM pg_stat_activity
		 WHERE datname = $1 AND pid <> pg_backend_pid()`, dbName)
	if termErr != nil {
		customLog.Warnf("Pool: Failed terminating sessions for '%s': %v", dbName, termErr)
	}

	r.mu.Lock()
	p, ok := r.pools[dbName]
	delete(r.pools, dbName)
	r.mu.Unlock()

	if ok {
		p.Close()
		customLog.Printf("Pool: Evicted pool for database '%s'", dbName)
	}

	if termErr != nil {
		return fmt.Errorf("failed to terminate sessions for '%s': %w", dbName, termErr)
	}
	return nil
}

// Has reports whether a pool is currently cached for the database.
func (r *Registry) Has(dbName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pools[dbName]
	return ok
}

// CloseAll drains every cached pool plus the maintenance pool. Shutdown only.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	pools := r.pools
	r.pools = make(map[string]*pgxpool.Pool)
	r.mu.Unlock()

	for name, p := range pools {
		customLog.Printf("Pool: Closing pool for database '%s'", name)
		p.Close()
	}
	if r.admin != nil {
		r.admin.Close()
	}
}
