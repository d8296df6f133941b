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

// Package trigger exposes notification runs over HTTP so a scheduler or an
// operator can start one. Only one run executes at a time; the run itself
// continues after the request returns.
package trigger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dataschool/certmailer/internal/runlock"
	"github.com/dataschool/certmailer/internal/runner"
)

// RunFunc executes one notification run.
type RunFunc func(ctx context.Context, opts runner.Options) (*runner.Result, error)

// RunRequest is the optional JSON body of POST /runs.
type RunRequest struct {
	DryRun bool `json:"dry_run"`
	Limit  int  `json:"limit"`
}

// RunRecord describes the most recent run.
type RunRecord struct {
	ID         string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	DryRun     bool           `json:"dry_run"`
	Error      string         `json:"error,omitempty"`
	Result     *runner.Result `json:"result,omitempty"`
}

// Handler serves the trigger endpoints.
type Handler struct {
	run  RunFunc
	lock runlock.Locker

	// baseCtx parents every run so shutdown cancels it.
	baseCtx context.Context

	mu   sync.Mutex
	last *RunRecord
	wg   sync.WaitGroup
}

// NewHandler creates a trigger handler. Runs are cancelled when ctx is done.
func NewHandler(ctx context.Context, run RunFunc, lock runlock.Locker) *Handler {
	return &Handler{run: run, lock: lock, baseCtx: ctx}
}

// Routes returns the HTTP routes of the handler.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /runs", h.ServeStart)
	mux.HandleFunc("GET /runs/last", h.ServeLast)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	return mux
}

// ServeStart starts a run in the background.
//
//   - 202 Accepted with the run ID when the run started
//   - 409 Conflict when another run holds the lock
//   - 400 Bad Request for a malformed body
func (h *Handler) ServeStart(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
	}
	if req.Limit < 0 {
		http.Error(w, "limit must not be negative", http.StatusBadRequest)
		return
	}

	release, err := h.lock.Acquire(r.Context())
	if errors.Is(err, runlock.ErrHeld) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		slog.Error("failed to acquire run lock", "error", err)
		http.Error(w, "run lock unavailable", http.StatusServiceUnavailable)
		return
	}

	rec := &RunRecord{ID: uuid.New().String(), StartedAt: time.Now().UTC(), DryRun: req.DryRun}
	h.mu.Lock()
	h.last = rec
	h.mu.Unlock()

	slog.Info("run triggered", "run_id", rec.ID, "dry_run", req.DryRun, "limit", req.Limit)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer release()
		h.execute(rec, runner.Options{DryRun: req.DryRun, Limit: req.Limit})
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": rec.ID, "status": "started"})
}

func (h *Handler) execute(rec *RunRecord, opts runner.Options) {
	result, err := h.run(h.baseCtx, opts)

	finished := time.Now().UTC()
	h.mu.Lock()
	rec.FinishedAt = &finished
	rec.Result = result
	if err != nil {
		rec.Error = err.Error()
	}
	h.mu.Unlock()

	if err != nil {
		slog.Error("run failed", "run_id", rec.ID, "error", err)
		return
	}
	slog.Info("run finished", "run_id", rec.ID, "sent", result.Sent, "dry_run", result.DryRun, "failed", result.Failed)
}

// ServeLast reports the most recent run, or 404 if none was started.
func (h *Handler) ServeLast(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	var rec *RunRecord
	if h.last != nil {
		cp := *h.last
		rec = &cp
	}
	h.mu.Unlock()

	if rec == nil {
		http.Error(w, "no runs yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Wait blocks until background runs have returned.
func (h *Handler) Wait() {
	h.wg.Wait()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

// Serve starts the trigger HTTP server on the given port.
// It binds the port immediately and signals readiness via the returned channel
// before starting to accept connections.
func Serve(ctx context.Context, port int, handler *Handler) (<-chan struct{}, error) {
	server := &http.Server{
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("bind trigger port %d: %w", port, err)
	}

	ready := make(chan struct{})

	go func() {
		<-ctx.Done()
		slog.Info("trigger server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	go func() {
		slog.Info("trigger server listening", "port", port)
		close(ready)
		if err := server.Serve(ln); err != http.ErrServerClosed {
			slog.Error("trigger server error", "error", err)
		}
	}()

	return ready, nil
}
