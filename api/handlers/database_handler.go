// api/handlers/database_handler.go
package handlers

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quasarbase/quasar-backend/api/models"
	"github.com/quasarbase/quasar-backend/internal/core"
	"github.com/quasarbase/quasar-backend/internal/logger"
	"github.com/quasarbase/quasar-backend/internal/provision"
	"github.com/quasarbase/quasar-backend/internal/storage"
)

var customLog = logger.NewLogger()

// DatabaseHandler holds dependencies for logical-database management.
type DatabaseHandler struct {
	Catalog     *sql.DB
	Provisioner *provision.Provisioner
}

// NewDatabaseHandler creates a new DatabaseHandler.
func NewDatabaseHandler(catalog *sql.DB, provisioner *provision.Provisioner) *DatabaseHandler {
	return &DatabaseHandler{Catalog: catalog, Provisioner: provisioner}
}

// CreateDatabase provisions a physical database plus its catalog record and
// returns the one-time API key.
func (h *DatabaseHandler) CreateDatabase(c *gin.Context) {
	userID := c.MustGet("userId").(string)

	var req models.CreateDatabaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(fmt.Errorf("binding error: %w", err))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	record, err := h.Provisioner.CreateDatabase(c.Request.Context(), req.Name, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	customLog.Printf("Handler: Provisioned database '%s' (id %d) for user %s", record.Name, record.ID, userID)
	c.JSON(http.StatusCreated, models.CreateDatabaseResponse{
		DatabaseID: record.ID,
		Name:       record.Name,
		APIKey:     record.APIKey,
	})
}

// ListDatabases returns the caller's logical databases. API keys are not
// repeated here; they are shown once at creation.
func (h *DatabaseHandler) ListDatabases(c *gin.Context) {
	userID := c.MustGet("userId").(string)

	databases, err := storage.ListDatabases(c.Request.Context(), h.Catalog, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	for i := range databases {
		databases[i].APIKey = ""
	}
	c.JSON(http.StatusOK, gin.H{"databases": databases})
}

// DeleteDatabase drops the physical database, evicts its pool and removes
// the catalog record.
func (h *DatabaseHandler) DeleteDatabase(c *gin.Context) {
	userID := c.MustGet("userId").(string)
	dbName := c.Param("db_name")

	if !core.IsValidIdentifier(dbName) {
		_ = c.Error(core.ErrInvalidIdentifier)
		return
	}

	record, err := storage.FindDatabaseByName(c.Request.Context(), h.Catalog, dbName)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if record.OwnerID != userID {
		// Not the owner: indistinguishable from absent.
		_ = c.Error(storage.ErrDatabaseNotFound)
		return
	}

	if err := h.Provisioner.DropDatabase(c.Request.Context(), record); err != nil {
		_ = c.Error(err)
		return
	}

	customLog.Printf("Handler: Dropped database '%s' for user %s", dbName, userID)
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Database '%s' dropped.", dbName)})
}
