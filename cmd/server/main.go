// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/quasarbase/quasar-backend/api"
	"github.com/quasarbase/quasar-backend/config"
	"github.com/quasarbase/quasar-backend/internal/logger"
	"github.com/quasarbase/quasar-backend/internal/pool"
	"github.com/quasarbase/quasar-backend/internal/storage"
)

var (
	customLog = logger.NewLogger()
)

func main() {
	customLog.Println("Starting QuasarBase server...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		customLog.Fatalf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	// 2. Initialize Catalog Database Connection
	catalogDB, err := storage.ConnectCatalogDB(cfg)
	if err != nil {
		customLog.Fatalf("Failed to initialize catalog database: %v", err)
		os.Exit(1)
	}
	defer func() {
		customLog.Println("Closing catalog database connection...")
		if err := catalogDB.Close(); err != nil {
			customLog.Printf("Error closing catalog database: %v", err)
		}
	}()

	// 3. Initialize Tenant Pool Registry (dials the maintenance database)
	registry, err := pool.NewRegistry(context.Background(), cfg)
	if err != nil {
		customLog.Fatalf("Failed to connect to the cluster: %v", err)
		os.Exit(1)
	}
	defer func() {
		customLog.Println("Closing tenant connection pools...")
		registry.CloseAll()
	}()

	// 4. Setup Router (passing dependencies)
	router := api.SetupRouter(catalogDB, registry, cfg)

	// 5. Start Server
	customLog.Printf("Server listening on port %s", cfg.ServerPort)
	if err := router.Run(fmt.Sprintf(":%s", cfg.ServerPort)); err != nil {
		customLog.Fatalf("Failed to start server: %v", err)
	}
}
