// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command migrate applies or reverts the users schema outside the server.
//
// Usage:
//
//	migrate up
//	migrate down [steps]
//
// DATABASE_URL and MIGRATION_PATH are read from the environment.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/caarlos0/env/v11"

	"github.com/taibuivan/yomira-auth/internal/platform/migration"
)

type migrateConfig struct {
	DatabaseURL   string `env:"DATABASE_URL,required"`
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`
}

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	if err := runCommand(os.Args[1:], log); err != nil {
		log.Error("migrate_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func runCommand(args []string, log *slog.Logger) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: migrate up | migrate down [steps]")
	}

	var cfg migrateConfig
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	switch args[0] {
	case "up":
		return migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log)
	case "down":
		steps := 1
		if len(args) > 1 {
			parsed, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid steps %q: %w", args[1], err)
			}
			steps = parsed
		}
		return migration.RunDown(cfg.DatabaseURL, cfg.MigrationPath, steps, log)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}
