// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/paperscraper/paperscraper-mcp/paperscraper"
)

func updateDumpsCmd() *cobra.Command {
	var (
		servers    []string
		start, end string
	)
	cmd := &cobra.Command{
		Use:   "update-dumps",
		Short: "Download fresh bioRxiv, medRxiv and chemRxiv metadata dumps",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var targets []paperscraper.Server
			for _, name := range servers {
				s, err := paperscraper.ParseServer(name)
				if err != nil {
					return err
				}
				targets = append(targets, s)
			}
			if len(targets) == 0 {
				targets = paperscraper.AllServers()
			}
			var r paperscraper.DateRange
			var err error
			if r.Start, err = parseFlagDate("start", start); err != nil {
				return err
			}
			if r.End, err = parseFlagDate("end", end); err != nil {
				return err
			}

			a, err := newApp(ctx, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(ctx, a.cfg.UpdateTimeout)
			defer cancel()

			a.logger.Info("updating dumps", "dir", a.store.Dir(), "servers", targets, "range", r.String())
			var g errgroup.Group
			g.SetLimit(a.cfg.MaxParallel)
			for _, srv := range targets {
				g.Go(func() error {
					logged := time.Now()
					info, err := a.lib.UpdateDump(ctx, srv, r, func(done, total int) {
						if time.Since(logged) < 10*time.Second {
							return
						}
						logged = time.Now()
						a.logger.Info("update progress", "server", srv, "records", done, "total", total)
					})
					if err != nil {
						a.logger.Error("update failed", "server", srv, "error", err)
						return fmt.Errorf("%s: %w", srv.DisplayName(), err)
					}
					a.logger.Info("update complete", "server", srv, "records", info.Records, "path", info.Path)
					return nil
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().StringSliceVar(&servers, "servers", nil, "servers to update (default: all)")
	cmd.Flags().StringVar(&start, "start", "", "first day to include, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "last day to include, YYYY-MM-DD")
	return cmd
}

func parseFlagDate(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(paperscraper.DateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: want YYYY-MM-DD, got %q", name, v)
	}
	return t, nil
}

func importImpactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-impact <file.csv>",
		Short: "Replace the journal impact-factor table with a CSV file",
		Long: "Replace the journal impact-factor table with a CSV file. The header must name\n" +
			"a journal column (journal, name or title) and a factor column (factor,\n" +
			"impact_factor or jif); abbreviation and issn columns are optional.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			a, err := newApp(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.table.Import(cmd.Context(), filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			a.logger.Info("impact table imported", "journals", n, "db", a.cfg.ImpactDB)
			return nil
		},
	}
}
