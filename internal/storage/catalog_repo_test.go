// internal/storage/catalog_repo_test.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quasarbase/quasar-backend/internal/domain"
)

func testCatalog(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	// Every pooled connection would otherwise get its own empty in-memory DB.
	db.SetMaxOpenConns(1)
	require.NoError(t, ensureCatalogSchema(db))

	t.Cleanup(func() { db.Close() })
	return db
}

func strPtr(s string) *string { return &s }

func TestCreateDatabaseRecord(t *testing.T) {
	db := testCatalog(t)
	ctx := context.Background()

	rec, err := CreateDatabaseRecord(ctx, db, "acme", "user-1", "qsr_abc")
	require.NoError(t, err)
	assert.Equal(t, "acme", rec.Name)
	assert.NotZero(t, rec.ID)

	// Same name again must be a conflict, not a silent success with a new key.
	_, err = CreateDatabaseRecord(ctx, db, "acme", "user-1", "qsr_other")
	assert.ErrorIs(t, err, ErrDatabaseExists)

	found, err := FindDatabaseByName(ctx, db, "acme")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, found.ID)
	assert.Equal(t, "qsr_abc", found.APIKey)
}

func TestFindDatabaseByAPIKey(t *testing.T) {
	db := testCatalog(t)
	ctx := context.Background()

	created, err := CreateDatabaseRecord(ctx, db, "shop", "user-2", "qsr_key")
	require.NoError(t, err)

	found, err := FindDatabaseByAPIKey(ctx, db, "qsr_key")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "shop", found.Name)

	_, err = FindDatabaseByAPIKey(ctx, db, "qsr_bogus")
	assert.ErrorIs(t, err, ErrAPIKeyNotFound)
}

func TestListAndDeleteDatabases(t *testing.T) {
	db := testCatalog(t)
	ctx := context.Background()

	a, err := CreateDatabaseRecord(ctx, db, "alpha", "owner", "k1")
	require.NoError(t, err)
	_, err = CreateDatabaseRecord(ctx, db, "beta", "owner", "k2")
	require.NoError(t, err)
	_, err = CreateDatabaseRecord(ctx, db, "gamma", "someone_else", "k3")
	require.NoError(t, err)

	list, err := ListDatabases(ctx, db, "owner")
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Name)

	require.NoError(t, DeleteDatabaseRecord(ctx, db, a.ID))
	err = DeleteDatabaseRecord(ctx, db, a.ID)
	assert.ErrorIs(t, err, ErrDatabaseNotFound)
}

func TestTableRecordRoundTrip(t *testing.T) {
	db := testCatalog(t)
	ctx := context.Background()

	dbRec, err := CreateDatabaseRecord(ctx, db, "shop", "owner", "key")
	require.NoError(t, err)

	schema := []domain.ColumnDescriptor{
		{Name: "id", Type: "SERIAL", IsPrimaryKey: true},
		{Name: "total", Type: "NUMERIC", IsNotNull: true, DefaultValue: strPtr("0")},
	}
	tbl, err := CreateTableRecord(ctx, db, dbRec.ID, "orders", schema)
	require.NoError(t, err)

	_, err = CreateTableRecord(ctx, db, dbRec.ID, "orders", schema)
	assert.ErrorIs(t, err, ErrTableExists)

	found, err := FindTableRecord(ctx, db, dbRec.ID, "orders")
	require.NoError(t, err)
	assert.Equal(t, tbl.ID, found.ID)
	require.Len(t, found.Schema, 2)
	assert.True(t, found.Schema[0].IsPrimaryKey)
	require.NotNil(t, found.Schema[1].DefaultValue)
	assert.Equal(t, "0", *found.Schema[1].DefaultValue)

	newSchema := []domain.ColumnDescriptor{
		{Name: "id", Type: "SERIAL", IsPrimaryKey: true},
		{Name: "email", Type: "TEXT"},
	}
	require.NoError(t, UpdateTableSchema(ctx, db, tbl.ID, newSchema))

	found, err = FindTableRecord(ctx, db, dbRec.ID, "orders")
	require.NoError(t, err)
	require.Len(t, found.Schema, 2)
	assert.Equal(t, "email", found.Schema[1].Name)
}

func TestDeleteDatabaseCascadesTables(t *testing.T) {
	db := testCatalog(t)
	ctx := context.Background()

	dbRec, err := CreateDatabaseRecord(ctx, db, "shop", "owner", "key")
	require.NoError(t, err)
	_, err = CreateTableRecord(ctx, db, dbRec.ID, "orders", []domain.ColumnDescriptor{{Name: "id", Type: "SERIAL"}})
	require.NoError(t, err)

	require.NoError(t, DeleteDatabaseRecord(ctx, db, dbRec.ID))

	_, err = FindTableRecord(ctx, db, dbRec.ID, "orders")
	assert.True(t, errors.Is(err, ErrTableNotFound))
}

func TestRecordConsistencyFault(t *testing.T) {
	db := testCatalog(t)
	ctx := context.Background()

	id := RecordConsistencyFault(ctx, db, "shop", "orders", "physical CREATE TABLE succeeded, catalog insert failed")
	assert.NotEmpty(t, id)

	faults, err := ListConsistencyFaults(ctx, db)
	require.NoError(t, err)
	require.Len(t, faults, 1)
	assert.Equal(t, "shop", faults[0].DatabaseName)
	assert.Equal(t, "orders", faults[0].TableName)
}
