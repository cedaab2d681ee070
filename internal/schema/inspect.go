// internal/schema/inspect.go
package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/quasarbase/quasar-backend/internal/domain"
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx, so inspection can run
// standalone or inside the alter transaction that holds the advisory lock.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ErrTableMissing is returned when information_schema has no columns for the
// table, meaning it does not exist in the physical database.
var ErrTableMissing = errors.New("table does not exist in physical database")

// udt_name spellings mapped back to the whitelist's DDL forms.
var udtTypeMap = map[string]string{
	"text": "TEXT", "varchar": "VARCHAR", "bpchar": "CHAR",
	"int4": "INTEGER", "int8": "BIGINT", "int2": "SMALLINT",
	"float4": "REAL", "float8": "DOUBLE PRECISION",
	"numeric": "NUMERIC", "bool": "BOOLEAN",
	"timestamp": "TIMESTAMP", "timestamptz": "TIMESTAMPTZ",
	"date": "DATE", "time": "TIME",
	"uuid": "UUID", "json": "JSON", "jsonb": "JSONB", "bytea": "BYTEA",
}

// Inspect reads the live column set of a table from information_schema.
// The returned descriptors carry name, normalized type, nullability and
// default; constraint flags (PK/UNIQUE/FK) are catalog concerns and are not
// reconstructed here.
func Inspect(ctx context.Context, q Querier, tableName string) ([]domain.ColumnDescriptor, error) {
	rows, err := q.Query(ctx, `
		SELECT column_name, udt_name, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_name = $1 AND table_schema = 'public'
		ORDER BY ordinal_position`, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to read information_schema for '%s': %w", tableName, err)
	}
	defer rows.Close()

	var cols []domain.ColumnDescriptor
	for rows.Next() {
		var name, udtName, isNullable string
		var columnDefault *string
		if err := rows.Scan(&name, &udtName, &isNullable, &columnDefault); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}

		col := domain.ColumnDescriptor{
			Name:      name,
			Type:      normalizeUdtType(udtName),
			IsNotNull: isNullable == "NO",
		}
		if columnDefault != nil {
			col.DefaultValue = cleanDefault(*columnDefault)
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating column metadata: %w", err)
	}

	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: '%s'", ErrTableMissing, tableName)
	}
	return cols, nil
}

func normalizeUdtType(udtName string) string {
	if t, ok := udtTypeMap[strings.ToLower(udtName)]; ok {
		return t
	}
	return strings.ToUpper(udtName)
}

// cleanDefault strips Postgres cast decoration from information_schema
// defaults ('abc'::text -> abc). Serial sequence defaults (nextval) are kept
// verbatim so the diff engine can recognize them.
func cleanDefault(d string) *string {
	if strings.Contains(strings.ToLower(d), "nextval(") {
		return &d
	}
	if idx := strings.Index(d, "::"); idx > 0 {
		d = d[:idx]
	}
	d = strings.TrimSpace(d)
	if strings.HasPrefix(d, "'") && strings.HasSuffix(d, "'") && len(d) >= 2 {
		d = strings.ReplaceAll(d[1:len(d)-1], "''", "'")
	}
	return &d
}
