package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lysyi3m/catfacts-collector/app/cfg"
	"github.com/lysyi3m/catfacts-collector/app/database"
	"github.com/lysyi3m/catfacts-collector/app/facts"
	"github.com/lysyi3m/catfacts-collector/app/logger"
	"github.com/lysyi3m/catfacts-collector/app/metrics"
	"github.com/lysyi3m/catfacts-collector/app/tasks"
)

func main() {
	os.Exit(run())
}

func run() int {
	config, err := cfg.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	if config == nil {
		return 0
	}

	log, err := logger.New(config.LogLevel, os.Stdout, config.LogFilePath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		return 1
	}
	defer log.Close()
	slog.SetDefault(log.Logger)

	slog.Info("Cat facts collector starting", "version", config.Version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		factStore database.FactStore
		runStore  database.RunStore
	)
	if config.SQLitePath != "" {
		db, err := database.NewConnection(config.SQLitePath)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			return 1
		}
		defer db.Close()

		version, dirty, err := database.RunMigrations(db)
		if err != nil {
			slog.Error("Failed to run database migrations", "error", err)
			return 1
		}
		slog.Info("Database migrations completed", "version", version, "dirty", dirty)

		factStore = database.NewFactRepository(db)
		runStore = database.NewRunRepository(db)
	}

	task := tasks.NewExtractFactsTask(config, facts.NewValidator(), facts.NewCSVWriter(), factStore, runStore, metrics.New())
	scheduler := tasks.NewScheduler(task, config.Interval)

	err = scheduler.Run(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		slog.Warn("Extraction interrupted by user")
		return 1
	default:
		slog.Error("Extraction failed", "error", err)
		return 1
	}
}
