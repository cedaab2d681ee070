// api/router.go
package api

import (
	"database/sql"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/quasarbase/quasar-backend/api/handlers"
	"github.com/quasarbase/quasar-backend/api/middleware"
	"github.com/quasarbase/quasar-backend/config"
	"github.com/quasarbase/quasar-backend/internal/pool"
	"github.com/quasarbase/quasar-backend/internal/provision"
)

// SetupRouter initializes the Gin router and sets up all routes.
func SetupRouter(catalog *sql.DB, registry *pool.Registry, cfg *config.Config) *gin.Engine {
	router := gin.Default() // Includes Logger and Recovery

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-API-Key", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.RequestID())

	ratelimiter := middleware.NewRateLimiter()
	router.Use(middleware.RateLimitMiddleware(ratelimiter))
	// Runs after Logger/Recovery but before routing so it wraps the handlers.
	router.Use(middleware.ErrorHandler())

	// Initialize Handlers
	provisioner := provision.NewProvisioner(registry, catalog)
	dbHandler := handlers.NewDatabaseHandler(catalog, provisioner)
	tableHandler := handlers.NewTableHandler(catalog, provisioner, registry)
	dataHandler := handlers.NewDataHandler(catalog, registry)

	// --- Public Routes ---
	router.GET("/ping", func(c *gin.Context) { c.String(200, "pong") })

	// --- Control Plane (JWT-scoped) ---
	apiRoutes := router.Group("/api/v1")
	apiRoutes.Use(middleware.AuthMiddleware(cfg))
	{
		apiRoutes.GET("/databases", dbHandler.ListDatabases)
		apiRoutes.POST("/databases", dbHandler.CreateDatabase)
		apiRoutes.DELETE("/databases/:db_name", dbHandler.DeleteDatabase)

		apiRoutes.POST("/databases/:db_name/tables", tableHandler.CreateTable)
		apiRoutes.GET("/databases/:db_name/tables", tableHandler.ListTables)
		apiRoutes.PUT("/databases/:db_name/tables/:table_name", tableHandler.AlterTable)
		apiRoutes.DELETE("/databases/:db_name/tables/:table_name", tableHandler.DeleteTable)
	}

	// --- Data Plane (API-key-scoped) ---
	dataRoutes := router.Group("/data/:db_name/:table_name")
	dataRoutes.Use(middleware.APIKeyMiddleware(catalog))
	{
		dataRoutes.POST("/get", dataHandler.Get)
		dataRoutes.POST("/insert", dataHandler.Insert)
		dataRoutes.POST("/update", dataHandler.Update)
		dataRoutes.POST("/delete", dataHandler.Delete)
	}

	return router
}
