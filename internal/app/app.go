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

// Package app wires configured collaborators into a runner. Both commands
// share it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/dataschool/certmailer/internal/certificate"
	"github.com/dataschool/certmailer/internal/config"
	"github.com/dataschool/certmailer/internal/feedback"
	"github.com/dataschool/certmailer/internal/graph"
	"github.com/dataschool/certmailer/internal/notify"
	"github.com/dataschool/certmailer/internal/queue"
	"github.com/dataschool/certmailer/internal/roster"
	"github.com/dataschool/certmailer/internal/runner"
	"github.com/dataschool/certmailer/internal/storage"
)

// App holds a wired runner and the connections it owns.
type App struct {
	Runner *runner.Runner
	Source roster.Source
	Redis  *redis.Client // nil unless redis_url is set

	closers []func()
}

// GraphHTTPClient returns an http.Client that authenticates to Graph with
// the tenant's client credentials.
func GraphHTTPClient(ctx context.Context, t config.TenantConfig) *http.Client {
	creds := &clientcredentials.Config{
		ClientID:     t.ClientID,
		ClientSecret: t.ClientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", t.TenantID),
		Scopes:       []string{"https://graph.microsoft.com/.default"},
	}
	return creds.Client(ctx)
}

// New connects every configured backend and builds the runner. Call Close
// when done.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	gc := graph.NewClient(GraphHTTPClient(ctx, cfg.Tenant), graph.DefaultBaseURL)

	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		a.Redis = redis.NewClient(opt)
		a.closers = append(a.closers, func() { a.Redis.Close() })
	}

	src, err := a.rosterSource(ctx, cfg, gc)
	if err != nil {
		return nil, err
	}
	a.Source = src

	store, err := certificateStore(cfg, gc)
	if err != nil {
		return nil, err
	}

	mailer, err := a.mailer(ctx, cfg, gc)
	if err != nil {
		return nil, err
	}

	docs := graph.NewDocuments(gc, graph.DrivePath(cfg.Sender, cfg.Documents.DriveID), cfg.Documents.ScratchFolder)

	a.Runner = runner.NewRunner(runner.Config{
		Feedback:            feedback.NewBuilder(docs, cfg.Documents.Date),
		Certificates:        certificate.NewResolver(store),
		Notifier:            notify.NewNotifier(mailer),
		SendInterval:        cfg.Run.SendInterval,
		HaltOnDocumentError: cfg.Run.HaltOnDocumentError,
	})

	slog.Info("notifier wired",
		"roster", cfg.Roster.Source,
		"certificates", cfg.Certificates.Store,
		"transport", cfg.Mail.Transport,
		"sender", cfg.Sender,
	)

	ok = true
	return a, nil
}

// Run executes one notification run over the configured roster.
func (a *App) Run(ctx context.Context, opts runner.Options) (*runner.Result, error) {
	return a.Runner.RunSource(ctx, a.Source, opts)
}

// Close releases connections in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) rosterSource(ctx context.Context, cfg *config.Config, gc *graph.Client) (roster.Source, error) {
	switch cfg.Roster.Source {
	case config.RosterWorkbook:
		return graph.NewWorkbook(gc, graph.DrivePath(cfg.Sender, cfg.Roster.DriveID), cfg.Roster.ItemID, cfg.Roster.Sheet), nil
	case config.RosterPostgres:
		pool, err := pgxpool.New(ctx, cfg.Roster.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("create Postgres pool: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("connect to PostgreSQL: %w", err)
		}
		slog.Info("connected to PostgreSQL")
		return roster.NewPostgresSource(pool, cfg.Roster.Table, cfg.Roster.OrderBy), nil
	default:
		return roster.NewExcelFile(cfg.Roster.Path, cfg.Roster.Sheet), nil
	}
}

func certificateStore(cfg *config.Config, gc *graph.Client) (certificate.FileStore, error) {
	if cfg.Certificates.Store == config.StoreS3 {
		s3 := cfg.Certificates.S3
		return storage.NewS3Store(storage.S3Config{
			Bucket:    s3.Bucket,
			Prefix:    s3.Prefix,
			Region:    s3.Region,
			Endpoint:  s3.Endpoint,
			AccessKey: s3.AccessKey,
			SecretKey: s3.SecretKey,
			UseSSL:    s3.UseSSL,
		})
	}
	return graph.NewDriveStore(gc, graph.DrivePath(cfg.Sender, cfg.Certificates.DriveID)), nil
}

func (a *App) mailer(ctx context.Context, cfg *config.Config, gc *graph.Client) (notify.Mailer, error) {
	switch cfg.Mail.Transport {
	case config.TransportNATS:
		nc, js, err := queue.ConnectJetStream(cfg.Mail.NATSURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, nc.Close)
		slog.Info("connected to NATS", "url", cfg.Mail.NATSURL)
		return queue.NewNATSPublisher(js, cfg.Mail.AppTag), nil
	case config.TransportRedis:
		p := queue.NewRedisPublisher(a.Redis, cfg.Mail.Queue, cfg.Mail.AppTag)
		if err := p.Ping(ctx); err != nil {
			return nil, fmt.Errorf("connect to Redis: %w", err)
		}
		slog.Info("connected to Redis")
		return p, nil
	default:
		return graph.NewMailer(gc, cfg.Sender), nil
	}
}
