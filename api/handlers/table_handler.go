// api/handlers/table_handler.go
package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quasarbase/quasar-backend/api/models"
	"github.com/quasarbase/quasar-backend/internal/core"
	"github.com/quasarbase/quasar-backend/internal/domain"
	"github.com/quasarbase/quasar-backend/internal/pool"
	"github.com/quasarbase/quasar-backend/internal/provision"
	"github.com/quasarbase/quasar-backend/internal/schema"
	"github.com/quasarbase/quasar-backend/internal/storage"
)

// TableHandler holds dependencies for table management: create (explicit
// columns or CSV header inference), list, alter and drop.
type TableHandler struct {
	Catalog     *sql.DB
	Provisioner *provision.Provisioner
	Registry    *pool.Registry
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(catalog *sql.DB, provisioner *provision.Provisioner, registry *pool.Registry) *TableHandler {
	return &TableHandler{Catalog: catalog, Provisioner: provisioner, Registry: registry}
}

// resolveOwnedDatabase validates the :db_name path segment and confirms the
// authenticated principal owns that database.
func (h *TableHandler) resolveOwnedDatabase(c *gin.Context) (*domain.Database, error) {
	userID := c.MustGet("userId").(string)
	dbName := c.Param("db_name")

	if !core.IsValidIdentifier(dbName) {
		return nil, core.ErrInvalidIdentifier
	}
	record, err := storage.FindDatabaseByName(c.Request.Context(), h.Catalog, dbName)
	if err != nil {
		return nil, err
	}
	if record.OwnerID != userID {
		return nil, storage.ErrDatabaseNotFound
	}
	return record, nil
}

// CreateTable provisions a table either from explicit column descriptors
// (JSON body) or from the header row of an uploaded CSV (multipart body,
// fields "table_name" and "file"; every inferred column is TEXT).
func (h *TableHandler) CreateTable(c *gin.Context) {
	db, err := h.resolveOwnedDatabase(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var tableName string
	var cols []domain.ColumnDescriptor

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		tableName = c.PostForm("table_name")
		fileHeader, err := c.FormFile("file")
		if err != nil {
			_ = c.Error(fmt.Errorf("binding error: %w", err))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Multipart upload requires a 'file' field."})
			return
		}
		f, err := fileHeader.Open()
		if err != nil {
			_ = c.Error(err)
			return
		}
		defer f.Close()

		record, err := h.Provisioner.CreateTableFromCSV(c.Request.Context(), db, tableName, f)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, models.TableResponse{
			TableID: record.ID,
			Name:    record.Name,
			Schema:  record.Schema,
		})
		return
	} else {
		var req models.CreateTableRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(fmt.Errorf("binding error: %w", err))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
		tableName = req.TableName
		cols = models.ToDescriptors(req.Columns)
	}

	record, err := h.Provisioner.CreateTable(c.Request.Context(), db, tableName, cols)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, models.TableResponse{
		TableID: record.ID,
		Name:    record.Name,
		Schema:  record.Schema,
	})
}

// ListTables returns the catalog's view of the database's tables.
func (h *TableHandler) ListTables(c *gin.Context) {
	db, err := h.resolveOwnedDatabase(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	tables, err := storage.ListTableRecords(c.Request.Context(), h.Catalog, db.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	out := make([]models.TableResponse, 0, len(tables))
	for _, t := range tables {
		out = append(out, models.TableResponse{TableID: t.ID, Name: t.Name, Schema: t.Schema})
	}
	c.JSON(http.StatusOK, gin.H{"tables": out})
}

// AlterTable diffs the caller's full desired column set against the live
// physical schema and applies the resulting ALTER statements. Columns absent
// from the request are dropped, data included; a rename is a drop plus an add.
func (h *TableHandler) AlterTable(c *gin.Context) {
	db, err := h.resolveOwnedDatabase(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	tableName := c.Param("table_name")
	if !core.IsValidIdentifier(tableName) {
		_ = c.Error(core.ErrInvalidIdentifier)
		return
	}

	tableRec, err := storage.FindTableRecord(c.Request.Context(), h.Catalog, db.ID, tableName)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req models.AlterTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(fmt.Errorf("binding error: %w", err))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	tenant, err := h.Registry.Get(c.Request.Context(), db.Name)
	if err != nil {
		_ = c.Error(err)
		return
	}

	newSchema, err := schema.Apply(c.Request.Context(), tenant, h.Catalog, db.Name, tableRec, models.ToDescriptors(req.Columns))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.TableResponse{
		TableID: tableRec.ID,
		Name:    tableRec.Name,
		Schema:  newSchema,
	})
}

// DeleteTable drops the physical table and its catalog record.
func (h *TableHandler) DeleteTable(c *gin.Context) {
	db, err := h.resolveOwnedDatabase(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	tableName := c.Param("table_name")
	if !core.IsValidIdentifier(tableName) {
		_ = c.Error(core.ErrInvalidIdentifier)
		return
	}

	tableRec, err := storage.FindTableRecord(c.Request.Context(), h.Catalog, db.ID, tableName)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.Provisioner.DropTable(c.Request.Context(), db, tableRec); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Table '%s' dropped.", tableName)})
}
