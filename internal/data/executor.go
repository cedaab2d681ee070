// internal/data/executor.go
package data

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cast"

	"github.com/quasarbase/quasar-backend/internal/core"
	"github.com/quasarbase/quasar-backend/internal/domain"
	"github.com/quasarbase/quasar-backend/internal/logger"
)

// Specific errors for generic data operations
var (
	ErrEmptyFilter   = errors.New("filter object must not be empty")
	ErrEmptyData     = errors.New("data object must not be empty")
	ErrNoRowsMatched = errors.New("no records matched the filter")
	ErrUnknownColumn = errors.New("column not present in table schema")
	ErrInvalidValue  = errors.New("invalid value for column")
)

var customLog = logger.NewLogger()

// Postgres-style $n placeholders throughout.
var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Get returns all rows matching the equality filter. An empty filter is
// rejected before any pool work; zero matches yield an empty slice, not an
// error, since absence of rows is part of the contract.
func Get(ctx context.Context, pool *pgxpool.Pool, table string, schema []domain.ColumnDescriptor, filter map[string]any) ([]map[string]any, error) {
	sqlText, args, err := buildGet(table, schema, filter)
	if err != nil {
		return nil, err
	}
	return queryRows(ctx, pool, sqlText, args)
}

// Insert adds one row and returns it, server-generated columns included.
func Insert(ctx context.Context, pool *pgxpool.Pool, table string, schema []domain.ColumnDescriptor, record map[string]any) (map[string]any, error) {
	sqlText, args, err := buildInsert(table, schema, record)
	if err != nil {
		return nil, err
	}
	rows, err := queryRows(ctx, pool, sqlText, args)
	if err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("expected one inserted row, got %d", len(rows))
	}
	return rows[0], nil
}

// Update applies data to every row matching the filter and returns the
// updated rows. Zero matches is ErrNoRowsMatched, distinct from a server fault.
func Update(ctx context.Context, pool *pgxpool.Pool, table string, schema []domain.ColumnDescriptor, filter, record map[string]any) ([]map[string]any, error) {
	sqlText, args, err := buildUpdate(table, schema, filter, record)
	if err != nil {
		return nil, err
	}
	rows, err := queryRows(ctx, pool, sqlText, args)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoRowsMatched
	}
	return rows, nil
}

// Delete removes every row matching the filter and returns the deleted rows.
func Delete(ctx context.Context, pool *pgxpool.Pool, table string, schema []domain.ColumnDescriptor, filter map[string]any) ([]map[string]any, error) {
	sqlText, args, err := buildDelete(table, schema, filter)
	if err != nil {
		return nil, err
	}
	rows, err := queryRows(ctx, pool, sqlText, args)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoRowsMatched
	}
	return rows, nil
}

// --- SQL building ---
// Filter and data keys are applied in sorted order: deterministic SQL for
// identical payloads regardless of Go's map iteration. Conditions are
// AND-joined equality only; richer predicates are a deliberate non-feature
// of the generic engine.

func buildGet(table string, schema []domain.ColumnDescriptor, filter map[string]any) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, ErrEmptyFilter
	}
	where, err := eqClause(schema, filter)
	if err != nil {
		return "", nil, err
	}
	return qb.Select("*").From(core.QuoteIdentifier(table)).Where(where).ToSql()
}

func buildInsert(table string, schema []domain.ColumnDescriptor, record map[string]any) (string, []any, error) {
	if len(record) == 0 {
		return "", nil, ErrEmptyData
	}

	keys, vals, err := canonicalColumns(schema, record)
	if err != nil {
		return "", nil, err
	}

	columns := make([]string, 0, len(keys))
	values := make([]any, 0, len(keys))
	for _, k := range keys {
		v, err := coerceValue(schema, k, vals[k])
		if err != nil {
			return "", nil, err
		}
		columns = append(columns, core.QuoteIdentifier(k))
		values = append(values, v)
	}

	return qb.Insert(core.QuoteIdentifier(table)).
		Columns(columns...).
		Values(values...).
		Suffix("RETURNING *").
		ToSql()
}

func buildUpdate(table string, schema []domain.ColumnDescriptor, filter, record map[string]any) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, ErrEmptyFilter
	}
	if len(record) == 0 {
		return "", nil, ErrEmptyData
	}

	keys, vals, err := canonicalColumns(schema, record)
	if err != nil {
		return "", nil, err
	}
	where, err := eqClause(schema, filter)
	if err != nil {
		return "", nil, err
	}

	// SET binds come first; squirrel numbers the WHERE binds after them.
	update := qb.Update(core.QuoteIdentifier(table))
	for _, k := range keys {
		v, err := coerceValue(schema, k, vals[k])
		if err != nil {
			return "", nil, err
		}
		update = update.Set(core.QuoteIdentifier(k), v)
	}

	return update.Where(where).Suffix("RETURNING *").ToSql()
}

func buildDelete(table string, schema []domain.ColumnDescriptor, filter map[string]any) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, ErrEmptyFilter
	}
	where, err := eqClause(schema, filter)
	if err != nil {
		return "", nil, err
	}
	return qb.Delete(core.QuoteIdentifier(table)).Where(where).Suffix("RETURNING *").ToSql()
}

// eqClause turns a filter map into a squirrel Eq over quoted, schema-checked
// column names. squirrel renders Eq keys in sorted order.
func eqClause(schema []domain.ColumnDescriptor, filter map[string]any) (sq.Eq, error) {
	keys, vals, err := canonicalColumns(schema, filter)
	if err != nil {
		return nil, err
	}
	eq := make(sq.Eq, len(keys))
	for _, k := range keys {
		v, err := coerceValue(schema, k, vals[k])
		if err != nil {
			return nil, err
		}
		eq[core.QuoteIdentifier(k)] = v
	}
	return eq, nil
}

// canonicalColumns validates every key against the schema and rewrites the
// map onto the schema's column spellings. Tables are created with quoted
// (case-preserved) identifiers, so the caller's spelling must never reach
// the generated SQL: quoting "ID" against a physical "id" column would fail
// at execution instead of matching. Returns the canonical keys sorted plus
// the values re-keyed by them.
func canonicalColumns(schema []domain.ColumnDescriptor, m map[string]any) ([]string, map[string]any, error) {
	keys := make([]string, 0, len(m))
	vals := make(map[string]any, len(m))
	for k, v := range m {
		if !core.IsValidColumnName(k) {
			return nil, nil, fmt.Errorf("%w: '%s'", core.ErrInvalidIdentifier, k)
		}
		col := findColumn(schema, k)
		if col == nil {
			return nil, nil, fmt.Errorf("%w: '%s'", ErrUnknownColumn, k)
		}
		if _, dup := vals[col.Name]; dup {
			return nil, nil, fmt.Errorf("%w: '%s' given more than once", core.ErrInvalidIdentifier, col.Name)
		}
		keys = append(keys, col.Name)
		vals[col.Name] = v
	}
	sort.Strings(keys)
	return keys, vals, nil
}

func findColumn(schema []domain.ColumnDescriptor, name string) *domain.ColumnDescriptor {
	for i := range schema {
		if strings.EqualFold(schema[i].Name, name) {
			return &schema[i]
		}
	}
	return nil
}

// coerceValue converts a JSON-decoded value to the shape the declared column
// type expects, so "42", 42 and 42.0 all bind an INTEGER column correctly.
func coerceValue(schema []domain.ColumnDescriptor, key string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	col := findColumn(schema, key)

	baseType := strings.ToUpper(col.Type)
	if idx := strings.Index(baseType, "("); idx > 0 {
		baseType = baseType[:idx]
	}

	switch baseType {
	case "INTEGER", "BIGINT", "SMALLINT", "SERIAL", "BIGSERIAL":
		n, err := cast.ToInt64E(v)
		if err != nil {
			return nil, fmt.Errorf("%w '%s': expected an integer", ErrInvalidValue, key)
		}
		return n, nil
	case "REAL", "DOUBLE PRECISION", "NUMERIC":
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, fmt.Errorf("%w '%s': expected a number", ErrInvalidValue, key)
		}
		return f, nil
	case "BOOLEAN":
		b, err := cast.ToBoolE(v)
		if err != nil {
			return nil, fmt.Errorf("%w '%s': expected a boolean", ErrInvalidValue, key)
		}
		return b, nil
	default:
		return v, nil
	}
}

func queryRows(ctx context.Context, pool *pgxpool.Pool, sqlText string, args []any) ([]map[string]any, error) {
	customLog.Debugf("Data: %s | args: %v", sqlText, args)

	rows, err := pool.Query(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("database error executing query: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (map[string]any, error) {
		return pgx.RowToMap(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed reading result rows: %w", err)
	}
	if results == nil {
		results = make([]map[string]any, 0)
	}
	return results, nil
}
