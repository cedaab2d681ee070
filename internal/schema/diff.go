// internal/schema/diff.go
package schema

import (
	"fmt"
	"strings"

	"github.com/quasarbase/quasar-backend/internal/core"
	"github.com/quasarbase/quasar-backend/internal/domain"
)

// ColumnChange describes one column present on both sides of a diff whose
// definition differs.
type ColumnChange struct {
	Name               string
	Current            domain.ColumnDescriptor
	Desired            domain.ColumnDescriptor
	TypeChanged        bool
	NullabilityChanged bool
	DefaultChanged     bool
}

// Changeset is the ordered work needed to move a physical table from its
// current column set to the desired one. Renames are not detected: a renamed
// column diffs as drop-old plus add-new, and the old column's data is lost.
type Changeset struct {
	ToAdd    []domain.ColumnDescriptor
	ToDrop   []string
	ToModify []ColumnChange
}

// Empty reports whether the changeset contains no work.
func (c Changeset) Empty() bool {
	return len(c.ToAdd) == 0 && len(c.ToDrop) == 0 && len(c.ToModify) == 0
}

// Diff computes the changeset between the live columns and the desired ones.
// Matching is by name, case-insensitive. Order within each bucket follows the
// order of the slice the entry came from.
func Diff(current, desired []domain.ColumnDescriptor) Changeset {
	currentByName := make(map[string]domain.ColumnDescriptor, len(current))
	for _, col := range current {
		currentByName[strings.ToLower(col.Name)] = col
	}
	desiredByName := make(map[string]domain.ColumnDescriptor, len(desired))
	for _, col := range desired {
		desiredByName[strings.ToLower(col.Name)] = col
	}

	var cs Changeset

	for _, col := range current {
		if _, keep := desiredByName[strings.ToLower(col.Name)]; !keep {
			cs.ToDrop = append(cs.ToDrop, col.Name)
		}
	}

	for _, col := range desired {
		cur, exists := currentByName[strings.ToLower(col.Name)]
		if !exists {
			cs.ToAdd = append(cs.ToAdd, col)
			continue
		}

		change := ColumnChange{
			Name:               col.Name,
			Current:            cur,
			Desired:            col,
			TypeChanged:        !typesEquivalent(cur, col),
			NullabilityChanged: cur.IsNotNull != col.IsNotNull,
			DefaultChanged:     !defaultsEqual(cur, col),
		}
		if change.TypeChanged || change.NullabilityChanged || change.DefaultChanged {
			cs.ToModify = append(cs.ToModify, change)
		}
	}

	return cs
}

// Statements renders the changeset as ordered ALTER TABLE statements:
// drops first, then adds, then per-column modifications. Each modification
// is split into separate TYPE / NOT NULL / DEFAULT statements because
// Postgres does not combine them in one clause.
func (c Changeset) Statements(tableName string) []string {
	table := core.QuoteIdentifier(tableName)
	var stmts []string

	for _, name := range c.ToDrop {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", table, core.QuoteIdentifier(name)))
	}
	for _, col := range c.ToAdd {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", table, core.ColumnDDL(col)))
	}
	for _, change := range c.ToModify {
		column := core.QuoteIdentifier(change.Name)
		if change.TypeChanged {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s", table, column, change.Desired.Type))
		}
		if change.NullabilityChanged {
			if change.Desired.IsNotNull {
				stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL", table, column))
			} else {
				stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL", table, column))
			}
		}
		if change.DefaultChanged {
			if change.Desired.DefaultValue != nil {
				stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s",
					table, column, core.QuoteLiteral(*change.Desired.DefaultValue)))
			} else {
				stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", table, column))
			}
		}
	}

	return stmts
}

// Serial pseudo-types are stored by Postgres as their integer base type plus
// a sequence default, so SERIAL vs live INTEGER is not a type change.
var serialBase = map[string]string{
	"SERIAL":      "INTEGER",
	"BIGSERIAL":   "BIGINT",
	"SMALLSERIAL": "SMALLINT",
}

func typesEquivalent(current, desired domain.ColumnDescriptor) bool {
	curType := strings.ToUpper(current.Type)
	desType := strings.ToUpper(desired.Type)
	if curType == desType {
		return true
	}
	if base, ok := serialBase[desType]; ok {
		return base == curType && current.DefaultValue != nil &&
			strings.Contains(strings.ToLower(*current.DefaultValue), "nextval(")
	}
	// Parameterized spellings count as the bare type: live metadata reports
	// VARCHAR for a VARCHAR(255) column.
	if idx := strings.Index(desType, "("); idx > 0 {
		return desType[:idx] == curType
	}
	return false
}

func defaultsEqual(current, desired domain.ColumnDescriptor) bool {
	// A serial column keeps its sequence default; desired SERIAL never
	// carries one explicitly.
	if _, isSerial := serialBase[strings.ToUpper(desired.Type)]; isSerial {
		return true
	}
	if current.DefaultValue == nil && desired.DefaultValue == nil {
		return true
	}
	if current.DefaultValue == nil || desired.DefaultValue == nil {
		return false
	}
	return *current.DefaultValue == *desired.DefaultValue
}
