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

// Package runner drives a notification run: for each roster row it builds
// the feedback PDF, resolves certificates, picks the email variant, and
// sends it, pacing sends to stay under mail provider limits.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/dataschool/certmailer/internal/models"
	"github.com/dataschool/certmailer/internal/notify"
	"github.com/dataschool/certmailer/internal/roster"
)

// DefaultSendInterval is the gap between consecutive sends.
const DefaultSendInterval = time.Second

// FeedbackBuilder produces the feedback attachment for a row.
type FeedbackBuilder interface {
	Build(ctx context.Context, row models.RosterRow) (models.Attachment, error)
}

// CertificateResolver appends a row's certificate attachments.
type CertificateResolver interface {
	Resolve(ctx context.Context, row models.RosterRow, attachments []models.Attachment) []models.Attachment
}

// Notifier sends one email of a variant.
type Notifier interface {
	Notify(ctx context.Context, v models.Variant, to, name string, attachments []models.Attachment) error
}

// Status is the outcome of a single row.
type Status string

const (
	StatusSent    Status = "sent"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
	StatusDryRun  Status = "dry_run"
)

// RowResult records what happened to one row.
type RowResult struct {
	Row         int            `json:"row"`
	Email       string         `json:"email,omitempty"`
	Variant     models.Variant `json:"variant,omitempty"`
	Attachments int            `json:"attachments"`
	Status      Status         `json:"status"`
	Error       string         `json:"error,omitempty"`
}

// Result summarises a completed run.
type Result struct {
	Rows    []RowResult   `json:"rows"`
	Sent    int           `json:"sent"`
	DryRun  int           `json:"dry_run"`
	Skipped int           `json:"skipped"`
	Failed  int           `json:"failed"`
	Elapsed time.Duration `json:"elapsed"`
}

// Options adjust a single run.
type Options struct {
	Limit  int  // stop after this many rows were attempted; 0 means all
	DryRun bool // build and resolve attachments without sending
}

// Config holds dependencies for the runner.
type Config struct {
	Feedback     FeedbackBuilder
	Certificates CertificateResolver
	Notifier     Notifier

	// SendInterval is the minimum gap between consecutive sends. Zero
	// disables pacing; use DefaultSendInterval in production.
	SendInterval time.Duration

	// HaltOnDocumentError aborts the run when a feedback document cannot
	// be built. By default the row is recorded as failed and skipped.
	HaltOnDocumentError bool
}

// Runner processes roster rows strictly in order.
type Runner struct {
	feedback     FeedbackBuilder
	certificates CertificateResolver
	notifier     Notifier
	interval     time.Duration
	haltOnDocErr bool
}

// NewRunner creates a runner.
func NewRunner(cfg Config) *Runner {
	return &Runner{
		feedback:     cfg.Feedback,
		certificates: cfg.Certificates,
		notifier:     cfg.Notifier,
		interval:     cfg.SendInterval,
		haltOnDocErr: cfg.HaltOnDocumentError,
	}
}

// RunSource loads the roster from src and runs it.
func (r *Runner) RunSource(ctx context.Context, src roster.Source, opts Options) (*Result, error) {
	rows, err := roster.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, rows, opts)
}

func (r *Runner) limiter() *rate.Limiter {
	if r.interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(r.interval), 1)
}

// Run processes rows in input order. It returns an error only when the run
// is cancelled or a document failure halts it; per-row failures are
// recorded in the result.
func (r *Runner) Run(ctx context.Context, rows []models.RosterRow, opts Options) (*Result, error) {
	start := time.Now()
	limiter := r.limiter()
	result := &Result{}

	slog.Info("starting notification run",
		"rows", len(rows),
		"send_interval", r.interval,
		"dry_run", opts.DryRun,
	)

	attempted := 0
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			result.Elapsed = time.Since(start)
			return result, err
		}

		if !row.HasEmail() {
			result.Rows = append(result.Rows, RowResult{Row: row.Row, Status: StatusSkipped})
			result.Skipped++
			continue
		}

		if opts.Limit > 0 && attempted >= opts.Limit {
			break
		}
		attempted++

		rr, err := r.processRow(ctx, row, opts.DryRun, limiter)
		result.Rows = append(result.Rows, rr)
		switch rr.Status {
		case StatusSent:
			result.Sent++
		case StatusDryRun:
			result.DryRun++
		case StatusFailed:
			result.Failed++
		}

		if err != nil {
			result.Elapsed = time.Since(start)
			return result, err
		}
	}

	result.Elapsed = time.Since(start)

	slog.Info("notification run complete",
		"sent", result.Sent,
		"dry_run", result.DryRun,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"elapsed", result.Elapsed,
	)

	return result, nil
}

// processRow handles one row that has an email address. The limiter is
// waited on right before the send so that document and certificate latency
// never shortens the gap between two emails. The returned error is non-nil
// only when the run must stop.
func (r *Runner) processRow(ctx context.Context, row models.RosterRow, dryRun bool, limiter *rate.Limiter) (rr RowResult, haltErr error) {
	rr = RowResult{Row: row.Row, Email: row.Email}

	span, ctx := tracer.StartSpanFromContext(ctx, "certmailer.row",
		tracer.ResourceName("notify"),
		tracer.Tag("row", row.Row),
	)
	var spanErr error
	defer func() { span.Finish(tracer.WithError(spanErr)) }()

	fb, err := r.feedback.Build(ctx, row)
	if err != nil {
		spanErr = err
		rr.Status = StatusFailed
		rr.Error = err.Error()
		slog.Error("feedback document failed",
			"row", row.Row,
			"email", row.Email,
			"error", err,
		)
		if r.haltOnDocErr {
			return rr, fmt.Errorf("row %d: %w", row.Row, err)
		}
		return rr, nil
	}

	attachments := r.certificates.Resolve(ctx, row, []models.Attachment{fb})

	// Variant follows the references on the sheet, not fetch success.
	v := notify.Classify(row.HasAttendanceCert(), row.HasProficiencyCert())
	rr.Variant = v
	rr.Attachments = len(attachments)
	span.SetTag("variant", string(v))
	span.SetTag("attachments", len(attachments))

	if dryRun {
		rr.Status = StatusDryRun
		slog.Info("dry run: email not sent",
			"row", row.Row,
			"email", row.Email,
			"variant", v,
			"attachments", len(attachments),
		)
		return rr, nil
	}

	if err := limiter.Wait(ctx); err != nil {
		spanErr = err
		rr.Status = StatusFailed
		rr.Error = err.Error()
		return rr, fmt.Errorf("wait to send row %d: %w", row.Row, err)
	}

	if err := r.notifier.Notify(ctx, v, row.Email, row.Name, attachments); err != nil {
		spanErr = err
		rr.Status = StatusFailed
		rr.Error = err.Error()
		return rr, nil
	}

	rr.Status = StatusSent
	return rr, nil
}
