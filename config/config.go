// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

// Package config builds the process-wide configuration record once at start.
// Values come from built-in defaults, then an optional YAML file, then
// environment variables; later sources win. The resulting Config is passed
// by reference to every component that needs it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for the paperscraper MCP server.
type Config struct {
	// DumpDir holds preprint dump files (<server>_<date>.jsonl).
	DumpDir string `yaml:"dump_dir" env:"PAPERSCRAPER_DUMP_DIR"`
	// PDFDir receives downloaded PDFs.
	PDFDir string `yaml:"pdf_dir" env:"PAPERSCRAPER_PDF_DIR"`
	// ImpactDB is the SQLite file holding the journal impact-factor table.
	ImpactDB string `yaml:"impact_db" env:"PAPERSCRAPER_IMPACT_DB"`

	// Email identifies the caller to NCBI, Crossref and Unpaywall.
	Email string `yaml:"email" env:"PAPERSCRAPER_EMAIL"`

	Credentials Credentials `yaml:"credentials"`

	HTTPTimeout   time.Duration `yaml:"http_timeout" env:"PAPERSCRAPER_HTTP_TIMEOUT"`
	UpdateTimeout time.Duration `yaml:"update_timeout" env:"PAPERSCRAPER_UPDATE_TIMEOUT"`
	// MaxParallel bounds per-server fan-out in preprint search and dump updates.
	MaxParallel int `yaml:"max_parallel" env:"PAPERSCRAPER_MAX_PARALLEL"`

	LogLevel string `yaml:"log_level" env:"PAPERSCRAPER_LOG_LEVEL"`

	Server ServerConfig `yaml:"server"`
}

// Credentials are passed through to the scraping backend untouched.
type Credentials struct {
	NCBIAPIKey            string `yaml:"ncbi_api_key" env:"NCBI_API_KEY"`
	SemanticScholarAPIKey string `yaml:"semantic_scholar_api_key" env:"SEMANTIC_SCHOLAR_API_KEY"`
	WileyTDMToken         string `yaml:"wiley_tdm_token" env:"WILEY_TDM_API_TOKEN"`
	ElsevierAPIKey        string `yaml:"elsevier_api_key" env:"ELSEVIER_TDM_API_KEY"`
}

// ServerConfig selects the MCP transport.
type ServerConfig struct {
	Transport string `yaml:"transport" env:"PAPERSCRAPER_TRANSPORT"` // "stdio" | "http"
	Addr      string `yaml:"addr" env:"PAPERSCRAPER_ADDR"`
	Stateless bool   `yaml:"stateless" env:"PAPERSCRAPER_STATELESS"`
}

// DefaultDir returns the data directory used when nothing is configured.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".paperscraper"
	}
	return filepath.Join(home, ".paperscraper")
}

// DefaultPath returns the config file consulted when no path is given.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// Defaults returns a Config that runs locally without any setup.
func Defaults() Config {
	dir := DefaultDir()
	return Config{
		DumpDir:       filepath.Join(dir, "server_dumps"),
		PDFDir:        filepath.Join(dir, "pdfs"),
		ImpactDB:      filepath.Join(dir, "impact.db"),
		HTTPTimeout:   60 * time.Second,
		UpdateTimeout: 2 * time.Hour,
		MaxParallel:   3,
		LogLevel:      "info",
		Server: ServerConfig{
			Transport: "stdio",
			Addr:      "127.0.0.1:8080",
		},
	}
}

// Load builds the configuration. path names a YAML file; an empty path
// falls back to DefaultPath, and a missing default file is not an error.
func Load(path string) (Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	if c.DumpDir == "" {
		return errors.New("config: dump_dir must not be empty")
	}
	if c.PDFDir == "" {
		return errors.New("config: pdf_dir must not be empty")
	}
	if c.MaxParallel < 1 {
		return fmt.Errorf("config: max_parallel must be at least 1, got %d", c.MaxParallel)
	}
	if c.UpdateTimeout <= 0 {
		return fmt.Errorf("config: update_timeout must be positive, got %s", c.UpdateTimeout)
	}
	switch c.Server.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("config: unknown transport %q (want stdio or http)", c.Server.Transport)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: log_level: %w", err)
	}
	return l, nil
}

// NewLogger returns the process logger. Logs go to stderr because stdout
// carries JSON-RPC when serving over stdio.
func (c Config) NewLogger() *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
