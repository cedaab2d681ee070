// internal/provision/provisioner_test.go
package provision

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quasarbase/quasar-backend/internal/core"
	"github.com/quasarbase/quasar-backend/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestGenerateAPIKey(t *testing.T) {
	key, err := GenerateAPIKey()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, APIKeyPrefix))
	// prefix + 32 random bytes hex encoded
	assert.Len(t, key, len(APIKeyPrefix)+64)

	other, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.NotEqual(t, key, other)
}

func TestBuildCreateTableSQL(t *testing.T) {
	cols := []domain.ColumnDescriptor{
		{Name: "id", Type: "SERIAL", IsPrimaryKey: true},
		{Name: "email", Type: "TEXT", IsNotNull: true, IsUnique: true},
		{Name: "status", Type: "TEXT", DefaultValue: strPtr("pending")},
		{Name: "owner_id", Type: "INTEGER", IsForeignKey: true, ForeignKeyTable: "users", ForeignKeyColumn: "id"},
	}

	got := BuildCreateTableSQL("accounts", cols)
	want := `CREATE TABLE "accounts" (` +
		`"id" SERIAL PRIMARY KEY, ` +
		`"email" TEXT NOT NULL UNIQUE, ` +
		`"status" TEXT DEFAULT 'pending', ` +
		`"owner_id" INTEGER REFERENCES "users" ("id"))`
	assert.Equal(t, want, got)
}

func TestNormalizeColumnsRules(t *testing.T) {
	t.Run("normalizes type aliases", func(t *testing.T) {
		cols, err := core.NormalizeColumns([]domain.ColumnDescriptor{{Name: "n", Type: "int"}})
		require.NoError(t, err)
		assert.Equal(t, "INTEGER", cols[0].Type)
	})

	t.Run("rejects empty column list", func(t *testing.T) {
		_, err := core.NormalizeColumns(nil)
		assert.Error(t, err)
	})

	t.Run("rejects duplicate names case-insensitively", func(t *testing.T) {
		_, err := core.NormalizeColumns([]domain.ColumnDescriptor{
			{Name: "Email", Type: "TEXT"},
			{Name: "email", Type: "TEXT"},
		})
		assert.ErrorIs(t, err, core.ErrInvalidIdentifier)
	})

	t.Run("rejects pk+fk on one column", func(t *testing.T) {
		_, err := core.NormalizeColumns([]domain.ColumnDescriptor{
			{Name: "id", Type: "INTEGER", IsPrimaryKey: true, IsForeignKey: true, ForeignKeyTable: "t", ForeignKeyColumn: "id"},
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "primary key and foreign key")
	})

	t.Run("rejects fk without reference", func(t *testing.T) {
		_, err := core.NormalizeColumns([]domain.ColumnDescriptor{
			{Name: "owner", Type: "INTEGER", IsForeignKey: true},
		})
		assert.ErrorIs(t, err, core.ErrInvalidIdentifier)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := core.NormalizeColumns([]domain.ColumnDescriptor{{Name: "g", Type: "GEOMETRY"}})
		assert.Error(t, err)
	})
}

func TestInferColumnsFromCSV(t *testing.T) {
	t.Run("header becomes text columns", func(t *testing.T) {
		cols, err := InferColumnsFromCSV(strings.NewReader("name,age,city\nada,36,london\n"))
		require.NoError(t, err)
		require.Len(t, cols, 3)
		assert.Equal(t, "name", cols[0].Name)
		assert.Equal(t, "TEXT", cols[0].Type)
		assert.Equal(t, "TEXT", cols[1].Type)
		assert.Equal(t, "TEXT", cols[2].Type)
	})

	t.Run("spaces become underscores", func(t *testing.T) {
		cols, err := InferColumnsFromCSV(strings.NewReader("first name,last name\n"))
		require.NoError(t, err)
		assert.Equal(t, "first_name", cols[0].Name)
		assert.Equal(t, "last_name", cols[1].Name)
	})

	t.Run("empty stream", func(t *testing.T) {
		_, err := InferColumnsFromCSV(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrEmptyCSV)
	})

	t.Run("bad header cell", func(t *testing.T) {
		_, err := InferColumnsFromCSV(strings.NewReader("good,ba;d\n"))
		assert.ErrorIs(t, err, core.ErrInvalidIdentifier)
	})
}
