// internal/schema/diff_test.go
package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quasarbase/quasar-backend/internal/domain"
)

func strPtr(s string) *string { return &s }

func col(name, typ string) domain.ColumnDescriptor {
	return domain.ColumnDescriptor{Name: name, Type: typ}
}

func TestDiffAddAndDrop(t *testing.T) {
	current := []domain.ColumnDescriptor{col("id", "INTEGER"), col("name", "TEXT")}
	desired := []domain.ColumnDescriptor{col("id", "INTEGER"), col("email", "TEXT")}

	cs := Diff(current, desired)

	assert.Equal(t, []string{"name"}, cs.ToDrop)
	require.Len(t, cs.ToAdd, 1)
	assert.Equal(t, "email", cs.ToAdd[0].Name)
	assert.Empty(t, cs.ToModify, "id is untouched")
}

func TestDiffNoChanges(t *testing.T) {
	cols := []domain.ColumnDescriptor{col("id", "INTEGER"), col("name", "TEXT")}
	cs := Diff(cols, cols)
	assert.True(t, cs.Empty())
	assert.Empty(t, cs.Statements("t"))
}

func TestDiffCaseInsensitiveMatch(t *testing.T) {
	cs := Diff(
		[]domain.ColumnDescriptor{col("Email", "TEXT")},
		[]domain.ColumnDescriptor{col("email", "TEXT")},
	)
	assert.True(t, cs.Empty())
}

func TestDiffTypeChange(t *testing.T) {
	cs := Diff(
		[]domain.ColumnDescriptor{col("age", "TEXT")},
		[]domain.ColumnDescriptor{col("age", "INTEGER")},
	)
	require.Len(t, cs.ToModify, 1)
	assert.True(t, cs.ToModify[0].TypeChanged)
	assert.False(t, cs.ToModify[0].NullabilityChanged)
}

func TestDiffNullabilityAndDefault(t *testing.T) {
	current := []domain.ColumnDescriptor{
		{Name: "status", Type: "TEXT", IsNotNull: false, DefaultValue: nil},
	}
	desired := []domain.ColumnDescriptor{
		{Name: "status", Type: "TEXT", IsNotNull: true, DefaultValue: strPtr("new")},
	}

	cs := Diff(current, desired)
	require.Len(t, cs.ToModify, 1)
	change := cs.ToModify[0]
	assert.False(t, change.TypeChanged)
	assert.True(t, change.NullabilityChanged)
	assert.True(t, change.DefaultChanged)
}

func TestDiffSerialAgainstLiveInteger(t *testing.T) {
	// Postgres reports a SERIAL column as INTEGER with a nextval default.
	current := []domain.ColumnDescriptor{
		{Name: "id", Type: "INTEGER", IsNotNull: true, DefaultValue: strPtr("nextval('orders_id_seq'::regclass)")},
	}
	desired := []domain.ColumnDescriptor{
		{Name: "id", Type: "SERIAL", IsPrimaryKey: true, IsNotNull: true},
	}

	cs := Diff(current, desired)
	assert.True(t, cs.Empty(), "SERIAL vs live INTEGER+nextval must not produce a change")
}

func TestDiffParameterizedType(t *testing.T) {
	cs := Diff(
		[]domain.ColumnDescriptor{col("name", "VARCHAR")},
		[]domain.ColumnDescriptor{col("name", "VARCHAR(255)")},
	)
	assert.True(t, cs.Empty(), "live metadata reports bare VARCHAR for VARCHAR(255)")
}

func TestStatementsOrderingAndSplitting(t *testing.T) {
	current := []domain.ColumnDescriptor{
		col("obsolete", "TEXT"),
		{Name: "status", Type: "TEXT", IsNotNull: false, DefaultValue: strPtr("old")},
	}
	desired := []domain.ColumnDescriptor{
		{Name: "status", Type: "VARCHAR(20)", IsNotNull: true, DefaultValue: strPtr("new")},
		{Name: "email", Type: "TEXT", IsNotNull: true},
	}

	stmts := Diff(current, desired).Statements("users")

	want := []string{
		`ALTER TABLE "users" DROP COLUMN "obsolete"`,
		`ALTER TABLE "users" ADD COLUMN "email" TEXT NOT NULL`,
		`ALTER TABLE "users" ALTER COLUMN "status" TYPE VARCHAR(20)`,
		`ALTER TABLE "users" ALTER COLUMN "status" SET NOT NULL`,
		`ALTER TABLE "users" ALTER COLUMN "status" SET DEFAULT 'new'`,
	}
	assert.Equal(t, want, stmts)
}

func TestStatementsDropNotNullAndDefault(t *testing.T) {
	current := []domain.ColumnDescriptor{
		{Name: "note", Type: "TEXT", IsNotNull: true, DefaultValue: strPtr("n/a")},
	}
	desired := []domain.ColumnDescriptor{
		{Name: "note", Type: "TEXT"},
	}

	stmts := Diff(current, desired).Statements("docs")
	want := []string{
		`ALTER TABLE "docs" ALTER COLUMN "note" DROP NOT NULL`,
		`ALTER TABLE "docs" ALTER COLUMN "note" DROP DEFAULT`,
	}
	assert.Equal(t, want, stmts)
}

func TestStatementsAddColumnFullDefinition(t *testing.T) {
	desired := []domain.ColumnDescriptor{
		col("id", "INTEGER"),
		{Name: "owner_id", Type: "INTEGER", IsForeignKey: true, ForeignKeyTable: "users", ForeignKeyColumn: "id"},
		{Name: "count", Type: "INTEGER", DefaultValue: strPtr("0")},
	}
	stmts := Diff([]domain.ColumnDescriptor{col("id", "INTEGER")}, desired).Statements("items")

	want := []string{
		`ALTER TABLE "items" ADD COLUMN "owner_id" INTEGER REFERENCES "users" ("id")`,
		`ALTER TABLE "items" ADD COLUMN "count" INTEGER DEFAULT 0`,
	}
	assert.Equal(t, want, stmts)
}

func TestCleanDefault(t *testing.T) {
	testCases := []struct {
		input string
		want  string
	}{
		{"'pending'::character varying", "pending"},
		{"0", "0"},
		{"''::text", ""},
		{"'it''s'::text", "it's"},
		{"nextval('t_id_seq'::regclass)", "nextval('t_id_seq'::regclass)"},
	}
	for _, tc := range testCases {
		got := cleanDefault(tc.input)
		require.NotNil(t, got)
		assert.Equal(t, tc.want, *got, "input %q", tc.input)
	}
}
