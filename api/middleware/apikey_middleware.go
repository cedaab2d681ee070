// api/middleware/apikey_middleware.go
package middleware

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quasarbase/quasar-backend/internal/storage"
)

// Context keys set by APIKeyMiddleware for downstream handlers.
const (
	CtxDatabaseID   = "databaseId"
	CtxDatabaseName = "databaseName"
)

// APIKeyMiddleware resolves the data-plane bearer credential to exactly one
// logical database and attaches that identity to the request. A missing key
// is 401; an unknown key, or a key pointed at a different database than the
// URL names, is 403. A valid key grants full CRUD on every table of its one
// database; there is no finer-grained authorization.
func APIKeyMiddleware(catalog *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := extractAPIKey(c)
		if key == "" {
			_ = c.Error(errors.New("api key required"))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API key required. Send it in the X-API-Key header."})
			return
		}

		record, err := storage.FindDatabaseByAPIKey(c.Request.Context(), catalog, key)
		if err != nil {
			if errors.Is(err, storage.ErrAPIKeyNotFound) {
				_ = c.Error(err)
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid API key."})
				return
			}
			customLog.Warnf("APIKeyMiddleware: Catalog error resolving key: %v", err)
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve API key."})
			return
		}

		// The key is scoped to one database; the URL must agree.
		if dbName := c.Param("db_name"); dbName != "" && dbName != record.Name {
			customLog.Warnf("APIKeyMiddleware: Key for '%s' used against '%s'", record.Name, dbName)
			_ = c.Error(errors.New("api key does not match requested database"))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "API key is not valid for this database."})
			return
		}

		c.Set(CtxDatabaseID, record.ID)
		c.Set(CtxDatabaseName, record.Name)
		c.Next()
	}
}

// extractAPIKey reads the X-API-Key header, falling back to
// "Authorization: ApiKey {key}".
func extractAPIKey(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "apikey") {
		return parts[1]
	}
	return ""
}
