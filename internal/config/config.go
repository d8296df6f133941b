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

// Package config loads configuration from config.yaml and environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Roster sources.
const (
	RosterExcel    = "excel"
	RosterWorkbook = "workbook"
	RosterPostgres = "postgres"
)

// Certificate stores.
const (
	StoreGraph = "graph"
	StoreS3    = "s3"
)

// Mail transports.
const (
	TransportGraph = "graph"
	TransportNATS  = "nats"
	TransportRedis = "redis"
)

// TenantConfig holds the app registration used for Graph.
type TenantConfig struct {
	TenantID     string `yaml:"tenant_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// RosterConfig selects where the roster is read from. Path and Sheet apply
// to excel; DriveID, ItemID and Sheet to workbook; DatabaseURL, Table and
// OrderBy to postgres.
type RosterConfig struct {
	Source      string `yaml:"source"`
	Path        string `yaml:"path"`
	Sheet       string `yaml:"sheet"`
	DriveID     string `yaml:"drive_id"`
	ItemID      string `yaml:"item_id"`
	DatabaseURL string `yaml:"database_url"`
	Table       string `yaml:"table"`
	OrderBy     string `yaml:"order_by"`
}

// S3Config holds S3-compatible bucket settings.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// CertificatesConfig selects where certificate files are fetched from.
type CertificatesConfig struct {
	Store   string   `yaml:"store"`
	DriveID string   `yaml:"drive_id"` // graph; empty uses the sender's OneDrive
	S3      S3Config `yaml:"s3"`
}

// DocumentsConfig controls feedback document rendering.
type DocumentsConfig struct {
	DriveID       string `yaml:"drive_id"`
	ScratchFolder string `yaml:"scratch_folder"`
	Date          string `yaml:"date"`
}

// MailConfig selects how emails leave the process.
type MailConfig struct {
	Transport string `yaml:"transport"`
	NATSURL   string `yaml:"nats_url"`
	Queue     string `yaml:"queue"` // redis list
	AppTag    string `yaml:"app_tag"`
}

// RunConfig controls the send loop.
type RunConfig struct {
	SendInterval        time.Duration `yaml:"send_interval"`
	HaltOnDocumentError bool          `yaml:"halt_on_document_error"`
}

// LockConfig controls the run lock used by the trigger server.
type LockConfig struct {
	Key string        `yaml:"key"`
	TTL time.Duration `yaml:"ttl"`
}

// Config holds all configuration for the notifier.
type Config struct {
	Tenant       TenantConfig       `yaml:"tenant"`
	Sender       string             `yaml:"sender"`
	Roster       RosterConfig       `yaml:"roster"`
	Certificates CertificatesConfig `yaml:"certificates"`
	Documents    DocumentsConfig    `yaml:"documents"`
	Mail         MailConfig         `yaml:"mail"`
	Run          RunConfig          `yaml:"run"`
	Lock         LockConfig         `yaml:"lock"`
	RedisURL     string             `yaml:"redis_url"`

	// Server
	Port int `yaml:"port"`

	// Logging
	LogLevel string `yaml:"log_level"`
}

// Load reads configuration from the file at CONFIG_PATH (with env var
// expansion) and applies environment overrides.
func Load() (*Config, error) {
	configPath := envOrDefault("CONFIG_PATH", "config.yaml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse builds a Config from YAML, expanding ${VAR} references first.
func Parse(data []byte) (*Config, error) {
	// Expand ${VAR} references in the YAML
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{
		Roster:       RosterConfig{Source: RosterExcel},
		Certificates: CertificatesConfig{Store: StoreGraph},
		Documents:    DocumentsConfig{ScratchFolder: "certmailer-scratch"},
		Mail:         MailConfig{Transport: TransportGraph, Queue: "emails", AppTag: "certmailer"},
		Run:          RunConfig{SendInterval: time.Second},
	}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}

	cfg.Run.SendInterval = envOrDefaultDuration("SEND_INTERVAL", cfg.Run.SendInterval)
	cfg.RedisURL = firstNonEmpty(os.Getenv("REDIS_URL"), cfg.RedisURL)
	cfg.Port = envOrDefaultInt("PORT", cfg.Port)
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	cfg.LogLevel = firstNonEmpty(os.Getenv("LOG_LEVEL"), cfg.LogLevel, "info")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error
	require := func(v, name string) {
		if strings.TrimSpace(v) == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}

	require(c.Tenant.TenantID, "tenant.tenant_id")
	require(c.Tenant.ClientID, "tenant.client_id")
	require(c.Tenant.ClientSecret, "tenant.client_secret")
	require(c.Sender, "sender")

	switch c.Roster.Source {
	case RosterExcel:
		require(c.Roster.Path, "roster.path")
	case RosterWorkbook:
		require(c.Roster.ItemID, "roster.item_id")
	case RosterPostgres:
		require(c.Roster.DatabaseURL, "roster.database_url")
		require(c.Roster.Table, "roster.table")
	default:
		errs = append(errs, fmt.Errorf("roster.source %q is not one of excel, workbook, postgres", c.Roster.Source))
	}

	switch c.Certificates.Store {
	case StoreGraph:
	case StoreS3:
		require(c.Certificates.S3.Bucket, "certificates.s3.bucket")
		require(c.Certificates.S3.Region, "certificates.s3.region")
	default:
		errs = append(errs, fmt.Errorf("certificates.store %q is not one of graph, s3", c.Certificates.Store))
	}

	switch c.Mail.Transport {
	case TransportGraph:
	case TransportNATS:
		require(c.Mail.NATSURL, "mail.nats_url")
	case TransportRedis:
		require(c.RedisURL, "redis_url")
	default:
		errs = append(errs, fmt.Errorf("mail.transport %q is not one of graph, nats, redis", c.Mail.Transport))
	}

	if c.Run.SendInterval < 0 {
		errs = append(errs, fmt.Errorf("run.send_interval must not be negative"))
	}

	return errors.Join(errs...)
}

// SlogLevel maps LogLevel onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
