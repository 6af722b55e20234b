// Command check_db verifies the configured database is reachable and
// optionally applies the schema.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	migrate := flag.Bool("migrate", false, "apply the schema after connecting")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	var dbName string
	if err := pool.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
		fmt.Fprintf(os.Stderr, "QueryRow failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully connected to database: %s\n", dbName)

	if *migrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Schema migration failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Schema applied")
	}
}
