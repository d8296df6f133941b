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

// Data School certificate mailer, trigger service.
//
// Entry point for the long-running service. It:
//  1. Loads configuration from config.yaml and the environment
//  2. Wires the roster, certificate store, documents and mail transport
//  3. Chooses a run lock (Redis when redis_url is set, in-process otherwise)
//  4. Serves POST /runs, GET /runs/last and GET /health
//  5. Handles graceful shutdown on SIGTERM/SIGINT
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/dataschool/certmailer/internal/app"
	"github.com/dataschool/certmailer/internal/config"
	"github.com/dataschool/certmailer/internal/runlock"
	"github.com/dataschool/certmailer/internal/trigger"
)

func main() {
	_ = godotenv.Load()

	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("starting certmailer trigger service")

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	slog.Info("configuration loaded",
		"roster", cfg.Roster.Source,
		"transport", cfg.Mail.Transport,
		"send_interval", cfg.Run.SendInterval,
	)

	tracer.Start(
		tracer.WithService("certmailer"),
		tracer.WithEnv(os.Getenv("DD_ENV")),
	)
	defer tracer.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialise notifier", "error", err)
		tracer.Stop()
		os.Exit(1)
	}
	defer a.Close()

	// --- Run Lock ---
	var lock runlock.Locker = &runlock.LocalLock{}
	if a.Redis != nil {
		lock = runlock.NewRedisLock(a.Redis, cfg.Lock.Key, cfg.Lock.TTL)
		slog.Info("using Redis run lock")
	}

	handler := trigger.NewHandler(ctx, a.Run, lock)
	ready, err := trigger.Serve(ctx, cfg.Port, handler)
	if err != nil {
		slog.Error("failed to start trigger server", "error", err)
		a.Close()
		tracer.Stop()
		os.Exit(1)
	}
	<-ready

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigCh

	slog.Info("received shutdown signal", "signal", sig)
	cancel() // stops the server and any active run

	handler.Wait()
	slog.Info("certmailer trigger service stopped")
}
