// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

// Command paperscraper-mcp serves the paperscraper tools over MCP and
// maintains the local preprint dumps and impact-factor table they read.
//
// Serve over stdio (the default):
//
//	paperscraper-mcp serve
//
// Serve over streamable HTTP:
//
//	paperscraper-mcp serve --transport http --addr :8080
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/paperscraper/paperscraper-mcp/config"
	"github.com/paperscraper/paperscraper-mcp/dumps"
	"github.com/paperscraper/paperscraper-mcp/impact"
	"github.com/paperscraper/paperscraper-mcp/internal/fetch"
	"github.com/paperscraper/paperscraper-mcp/scraper"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "paperscraper-mcp",
		Short:         "MCP server for searching and retrieving scientific papers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to config.yaml (default: "+config.DefaultPath()+")")

	root.AddCommand(serveCmd())
	root.AddCommand(updateDumpsCmd())
	root.AddCommand(importImpactCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "paperscraper-mcp:", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "paperscraper-mcp", version)
		},
	}
}

// app is the wired backend shared by every command.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	table  *impact.Store
	store  *dumps.Store
	lib    *scraper.Scraper
}

// newApp loads the configuration and opens the backend. apply, when not
// nil, adjusts the configuration before it is validated again.
func newApp(ctx context.Context, apply func(*config.Config)) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if apply != nil {
		apply(&cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	logger := cfg.NewLogger()

	table, err := impact.Open(ctx, cfg.ImpactDB)
	if err != nil {
		return nil, fmt.Errorf("open impact table: %w", err)
	}

	store := dumps.NewStore(cfg.DumpDir)
	updater := dumps.NewUpdater(store, fetch.New(cfg.HTTPTimeout), dumps.UpdaterOptions{Logger: logger})
	lib := scraper.New(scraperOptions(cfg, logger), store, updater, table)

	return &app{cfg: cfg, logger: logger, table: table, store: store, lib: lib}, nil
}

// scraperOptions passes every configured credential to the scraper.
func scraperOptions(cfg config.Config, logger *slog.Logger) scraper.Options {
	c := cfg.Credentials
	return scraper.Options{
		Email:                 cfg.Email,
		NCBIAPIKey:            c.NCBIAPIKey,
		SemanticScholarAPIKey: c.SemanticScholarAPIKey,
		WileyTDMToken:         c.WileyTDMToken,
		ElsevierAPIKey:        c.ElsevierAPIKey,
		Timeout:               cfg.HTTPTimeout,
		Logger:                logger,
	}
}

func (a *app) Close() error {
	return a.table.Close()
}
