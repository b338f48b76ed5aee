package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"postboard/internal/config"
	"postboard/internal/db"
)

func main() {
	command := flag.String("command", "up", "Migration command: up, down, status")
	flag.Parse()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DBDriver != "postgres" {
		log.Fatalf("migrations only run against PostgreSQL, DB_DRIVER is %q", cfg.DBDriver)
	}

	sqlDB, err := db.OpenSQL(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer sqlDB.Close()

	ctx := context.Background()
	if err := sqlDB.PingContext(ctx); err != nil {
		log.Fatalf("database ping failed: %v", err)
	}

	switch *command {
	case "up":
		if err := db.MigrateUp(ctx, sqlDB); err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Println("migrations applied")
	case "down":
		if err := db.MigrateDown(ctx, sqlDB); err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Println("last migration rolled back")
	case "status":
		if err := db.MigrateStatus(ctx, sqlDB); err != nil {
			log.Fatalf("migrate status: %v", err)
		}
	default:
		log.Fatalf("unknown command: %s (supported: up, down, status)", *command)
	}
}
