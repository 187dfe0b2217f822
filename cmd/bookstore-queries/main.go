// Command bookstore-queries runs the fixed batch of bookstore queries against MongoDB, PostgreSQL, or an
// in-memory store and prints one line per query.
//
// Usage:
//
//	bookstore-queries -engine mongo -mongo-uri mongodb://localhost:27017 -database plp_bookstore
//	bookstore-queries -engine postgres -postgres-adapter sqlx.db -log-level info
//	bookstore-queries -engine memory
//
// Exit codes: 0 on success, 1 if the run failed, 2 for invalid flags.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AntonStoeckl/bookstore-queries-go/runner"
)

const (
	exitOK          = 0
	exitRunFailed   = 1
	exitInvalidArgs = 2

	shutdownTimeout = 5 * time.Second
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}

		_, _ = fmt.Fprintln(stderr, err)

		return exitInvalidArgs
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obs, err := newObservability(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to create observability providers", "error", err)
		return exitRunFailed
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if shutdownErr := obs.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("failed to shut down observability providers", "error", shutdownErr)
		}
	}()

	queryRunner, err := runner.New(
		storeOpener(cfg, obs),
		cfg.Runner,
		append(obs.runnerOptions(), runner.WithOutput(stdout))...,
	)
	if err != nil {
		logger.Error("failed to create runner", "error", err)
		return exitRunFailed
	}

	logger.Info("running bookstore queries",
		"engine", cfg.Engine,
		"run_id", queryRunner.RunID().String(),
		"observability_enabled", cfg.ObservabilityEnabled)

	if _, err = queryRunner.Run(ctx); err != nil {
		return exitRunFailed
	}

	return exitOK
}
