// internal/core/columns.go
package core

import (
	"fmt"
	"strings"

	"github.com/quasarbase/quasar-backend/internal/domain"
)

// NormalizeColumns validates a caller-supplied column list and returns a copy
// with normalized type spellings. It is the single gate every provisioning and
// alter path goes through before column names or types reach DDL text.
//
// Enforced rules:
//   - every name passes IsValidColumnName and is unique (case-insensitive),
//   - every type is on the whitelist,
//   - a column cannot be both primary key and foreign key,
//   - a foreign key column must name its referenced table and column, and
//     both must be valid identifiers.
func NormalizeColumns(cols []domain.ColumnDescriptor) ([]domain.ColumnDescriptor, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: at least one column is required", ErrInvalidIdentifier)
	}

	seen := make(map[string]bool, len(cols))
	out := make([]domain.ColumnDescriptor, 0, len(cols))

	for _, col := range cols {
		if !IsValidColumnName(col.Name) {
			return nil, fmt.Errorf("%w: column '%s'", ErrInvalidIdentifier, col.Name)
		}
		lower := strings.ToLower(col.Name)
		if seen[lower] {
			return nil, fmt.Errorf("%w: duplicate column '%s'", ErrInvalidIdentifier, col.Name)
		}
		seen[lower] = true

		normalizedType, ok := NormalizeAndValidateType(col.Type)
		if !ok {
			return nil, fmt.Errorf("invalid type '%s' for column '%s'", col.Type, col.Name)
		}
		col.Type = normalizedType

		if col.IsPrimaryKey && col.IsForeignKey {
			return nil, fmt.Errorf("column '%s' cannot be both primary key and foreign key", col.Name)
		}
		if col.IsForeignKey {
			if !IsValidIdentifier(col.ForeignKeyTable) || !IsValidColumnName(col.ForeignKeyColumn) {
				return nil, fmt.Errorf("%w: foreign key reference on column '%s'", ErrInvalidIdentifier, col.Name)
			}
		}

		out = append(out, col)
	}
	return out, nil
}

// ColumnDDL renders one column definition for CREATE TABLE / ADD COLUMN.
// The name is quoted; the type and constraint keywords come from the
// whitelist, and the default value travels as a quoted literal because
// DDL cannot take bind parameters.
func ColumnDDL(col domain.ColumnDescriptor) string {
	var b strings.Builder
	b.WriteString(QuoteIdentifier(col.Name))
	b.WriteString(" ")
	b.WriteString(col.Type)

	if col.IsPrimaryKey {
		b.WriteString(" PRIMARY KEY")
	}
	if col.IsNotNull && !col.IsPrimaryKey {
		b.WriteString(" NOT NULL")
	}
	if col.IsUnique && !col.IsPrimaryKey {
		b.WriteString(" UNIQUE")
	}
	if col.DefaultValue != nil {
		b.WriteString(" DEFAULT ")
		b.WriteString(QuoteLiteral(*col.DefaultValue))
	}
	if col.IsForeignKey {
		b.WriteString(fmt.Sprintf(" REFERENCES %s (%s)",
			QuoteIdentifier(col.ForeignKeyTable), QuoteIdentifier(col.ForeignKeyColumn)))
	}
	return b.String()
}

// QuoteLiteral single-quotes a default value for embedding in DDL.
// Numeric and boolean literals pass through unquoted.
func QuoteLiteral(v string) string {
	if isUnquotedLiteral(v) {
		return v
	}
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

func isUnquotedLiteral(v string) bool {
	switch strings.ToLower(v) {
	case "true", "false", "null", "current_timestamp", "now()":
		return true
	}
	if v == "" {
		return false
	}
	for i, r := range v {
		if r >= '0' && r <= '9' || r == '.' || (i == 0 && r == '-') {
			continue
		}
		return false
	}
	return true
}
