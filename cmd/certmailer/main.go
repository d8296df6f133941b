// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Data School certificate mailer, one-shot run.
//
// Reads the roster, builds each student's feedback PDF, attaches their
// certificates and sends one email per row, then exits.
//
// Usage:
//
//	go run ./cmd/certmailer/ [--dry-run] [--limit 10]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/dataschool/certmailer/internal/app"
	"github.com/dataschool/certmailer/internal/config"
	"github.com/dataschool/certmailer/internal/runner"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes one notification run and returns the process exit code.
// Every return goes through the deferred cleanup, so traces are flushed.
func run(args []string) int {
	// .env is optional
	_ = godotenv.Load()

	// --- CLI Flags ---
	fs := flag.NewFlagSet("certmailer", flag.ContinueOnError)
	dryRun := fs.Bool("dry-run", false, "Build and resolve attachments without sending email")
	limit := fs.Int("limit", 0, "Stop after this many rows with an email address (0 = all)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *limit < 0 {
		fmt.Fprintf(os.Stderr, "Error: --limit must not be negative\n\n")
		fs.Usage()
		return 2
	}

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	tracer.Start(
		tracer.WithService("certmailer"),
		tracer.WithEnv(os.Getenv("DD_ENV")),
	)
	defer tracer.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	slog.Info("starting certificate run", "dry_run", *dryRun, "limit", *limit)

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialise notifier", "error", err)
		return 1
	}
	defer a.Close()

	result, err := a.Run(ctx, runner.Options{DryRun: *dryRun, Limit: *limit})
	if err != nil {
		slog.Error("run failed", "error", err)
		return 1
	}

	// --- Summary ---
	slog.Info("run complete",
		"rows", len(result.Rows),
		"sent", result.Sent,
		"dry_run", result.DryRun,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"elapsed", result.Elapsed,
	)

	for _, r := range result.Rows {
		if r.Status == runner.StatusFailed {
			slog.Warn("row failed", "row", r.Row, "email", r.Email, "error", r.Error)
		}
	}
	return 0
}
