// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/paperscraper/paperscraper-mcp/config"
	"github.com/paperscraper/paperscraper-mcp/dispatch"
)

func serveCmd() *cobra.Command {
	var (
		transport string
		addr      string
		stateless bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the paperscraper tools over MCP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, func(c *config.Config) {
				if cmd.Flags().Changed("transport") {
					c.Server.Transport = transport
				}
				if cmd.Flags().Changed("addr") {
					c.Server.Addr = addr
				}
				if cmd.Flags().Changed("stateless") {
					c.Server.Stateless = stateless
				}
			})
			if err != nil {
				return err
			}
			defer a.Close()

			srv := dispatch.NewServer(
				&mcp.Implementation{Name: "paperscraper", Version: version},
				a.lib,
				&dispatch.Options{
					PDFDir:        a.cfg.PDFDir,
					UpdateTimeout: a.cfg.UpdateTimeout,
					MaxParallel:   a.cfg.MaxParallel,
					Logger:        a.logger,
				},
			)

			switch a.cfg.Server.Transport {
			case "http":
				return serveHTTP(ctx, a, srv)
			default:
				a.logger.Info("serving over stdio", "dump_dir", a.cfg.DumpDir, "pdf_dir", a.cfg.PDFDir)
				err := srv.Run(ctx, &mcp.StdioTransport{})
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
		},
	}
	cmd.Flags().StringVar(&transport, "transport", "stdio", "MCP transport: stdio or http")
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address for the http transport")
	cmd.Flags().BoolVar(&stateless, "stateless", false, "serve http without session state")
	return cmd
}

func serveHTTP(ctx context.Context, a *app, srv *dispatch.Server) error {
	httpSrv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           dispatch.NewStreamableHTTPHandler(srv, &mcp.StreamableHTTPOptions{Stateless: a.cfg.Server.Stateless}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("serving over http", "addr", httpSrv.Addr, "stateless", a.cfg.Server.Stateless)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.logger.Info("shutting down")
	return httpSrv.Shutdown(shutdownCtx)
}
