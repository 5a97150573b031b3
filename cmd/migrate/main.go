package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/cmlabs-hris/payroll-engine/internal/config"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
)

const usage = "usage: migrate [up|down [steps]|status]"

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("migration failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf(usage)
	}

	dbConfig, err := config.LoadDatabase()
	if err != nil {
		return err
	}
	dsn := dbConfig.URL()

	switch args[0] {
	case "up":
		return database.MigrateUp(dsn)
	case "down":
		steps := 1
		if len(args) > 1 {
			steps, err = strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid steps value %q: %w", args[1], err)
			}
		}
		return database.MigrateDown(dsn, steps)
	case "status":
		version, dirty, ok, err := database.MigrationStatus(dsn)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("No migrations applied")
			return nil
		}
		fmt.Printf("Current version: %d (dirty: %t)\n", version, dirty)
		return nil
	default:
		return fmt.Errorf("unknown migration command: %s\n%s", args[0], usage)
	}
}
