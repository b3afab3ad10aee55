package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jessevdk/go-flags"

	"github.com/lysyi3m/catfacts-collector/app/api"
	"github.com/lysyi3m/catfacts-collector/app/logger"
)

type options struct {
	Port      string `long:"port" env:"PORT" default:"8080" description:"HTTP port to listen on"`
	Fixture   string `long:"fixture" env:"FIXTURE" description:"JSON file with facts to serve (built-in set when empty)"`
	Seed      uint64 `long:"seed" env:"SEED" default:"0" description:"Random seed for /facts/random (0 = clock)"`
	FailFirst int    `long:"fail-first" env:"FAIL_FIRST" default:"0" description:"Answer the first N fact requests with 503"`
	LogLevel  string `long:"log-level" env:"LOG_LEVEL" default:"INFO" description:"Log level"`
}

func main() {
	var opts options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	log, err := logger.New(opts.LogLevel, os.Stdout, "")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	slog.SetDefault(log.Logger)

	facts, err := api.LoadFixture(opts.Fixture)
	if err != nil {
		slog.Error("Failed to load fixture", "error", err)
		os.Exit(1)
	}

	gin.SetMode(gin.ReleaseMode)
	apiOpts := api.Options{Seed: opts.Seed, FailFirst: opts.FailFirst}
	router := api.NewServer(api.NewHandler(facts, apiOpts), apiOpts)

	httpServer := &http.Server{
		Addr:         ":" + opts.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Mock API started", "port", opts.Port, "facts", len(facts), "fail_first", opts.FailFirst)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Mock API stopped")
}
