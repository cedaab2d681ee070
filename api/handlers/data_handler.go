// api/handlers/data_handler.go
package handlers

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quasarbase/quasar-backend/api/middleware"
	"github.com/quasarbase/quasar-backend/api/models"
	"github.com/quasarbase/quasar-backend/internal/core"
	"github.com/quasarbase/quasar-backend/internal/data"
	"github.com/quasarbase/quasar-backend/internal/domain"
	"github.com/quasarbase/quasar-backend/internal/pool"
	"github.com/quasarbase/quasar-backend/internal/storage"
)

// DataHandler serves the generic, schema-agnostic data plane. The API key
// middleware has already resolved the target database; these handlers only
// resolve the table, fetch its pool and run the generic executor.
type DataHandler struct {
	Catalog  *sql.DB
	Registry *pool.Registry
}

// NewDataHandler creates a new DataHandler.
func NewDataHandler(catalog *sql.DB, registry *pool.Registry) *DataHandler {
	return &DataHandler{Catalog: catalog, Registry: registry}
}

// tenantTable resolves the :table_name path segment against the catalog for
// the key-scoped database and returns the table record plus the live pool.
func (h *DataHandler) tenantTable(c *gin.Context) (*domain.Table, *pgxpool.Pool, error) {
	dbName := c.MustGet(middleware.CtxDatabaseName).(string)
	dbID := c.MustGet(middleware.CtxDatabaseID).(int64)

	tableName := c.Param("table_name")
	if !core.IsValidIdentifier(tableName) {
		return nil, nil, core.ErrInvalidIdentifier
	}

	tableRec, err := storage.FindTableRecord(c.Request.Context(), h.Catalog, dbID, tableName)
	if err != nil {
		return nil, nil, err
	}

	tenant, err := h.Registry.Get(c.Request.Context(), dbName)
	if err != nil {
		return nil, nil, err
	}
	return tableRec, tenant, nil
}

// Get returns all rows matching the equality filter. An empty filter is
// rejected before the pool is touched; zero matches is 200 with an empty
// array, not 404.
func (h *DataHandler) Get(c *gin.Context) {
	var req models.GetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(fmt.Errorf("binding error: %w", err))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON request body: " + err.Error()})
		return
	}
	if len(req.Filter) == 0 {
		_ = c.Error(data.ErrEmptyFilter)
		return
	}

	tableRec, tenant, err := h.tenantTable(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	rows, err := data.Get(c.Request.Context(), tenant, tableRec.Name, tableRec.Schema, req.Filter)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

// Insert adds one row and returns it with server-generated columns.
func (h *DataHandler) Insert(c *gin.Context) {
	var req models.InsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(fmt.Errorf("binding error: %w", err))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON request body: " + err.Error()})
		return
	}
	if len(req.Data) == 0 {
		_ = c.Error(data.ErrEmptyData)
		return
	}

	tableRec, tenant, err := h.tenantTable(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	row, err := data.Insert(c.Request.Context(), tenant, tableRec.Name, tableRec.Schema, req.Data)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"row": row})
}

// Update mutates every row matching the filter; zero matches is 404 and no
// mutation happened.
func (h *DataHandler) Update(c *gin.Context) {
	var req models.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(fmt.Errorf("binding error: %w", err))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON request body: " + err.Error()})
		return
	}
	if len(req.Filter) == 0 {
		_ = c.Error(data.ErrEmptyFilter)
		return
	}
	if len(req.Data) == 0 {
		_ = c.Error(data.ErrEmptyData)
		return
	}

	tableRec, tenant, err := h.tenantTable(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	rows, err := data.Update(c.Request.Context(), tenant, tableRec.Name, tableRec.Schema, req.Filter, req.Data)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

// Delete removes every row matching the filter and returns the deleted rows;
// zero matches is 404.
func (h *DataHandler) Delete(c *gin.Context) {
	var req models.DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(fmt.Errorf("binding error: %w", err))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON request body: " + err.Error()})
		return
	}
	if len(req.Filter) == 0 {
		_ = c.Error(data.ErrEmptyFilter)
		return
	}

	tableRec, tenant, err := h.tenantTable(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	rows, err := data.Delete(c.Request.Context(), tenant, tableRec.Name, tableRec.Schema, req.Filter)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}
