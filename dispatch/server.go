// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

// Package dispatch exposes a paperscraper.Library as an MCP server with a
// fixed set of tools.
//
// Every tool call is validated and normalized before the library is
// invoked: a call with missing or malformed arguments fails with
// InvalidArgument and never reaches the library. Library failures are
// translated into tool-error results carrying the error kind, so no failure
// surfaces as a protocol fault.
package dispatch

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/paperscraper/paperscraper-mcp/paperscraper"
)

// Options configures a Server.
type Options struct {
	// PDFDir receives downloaded PDFs.
	PDFDir string
	// UpdateTimeout bounds a single update_preprint_dumps call.
	UpdateTimeout time.Duration
	// MaxParallel bounds how many preprint servers are queried at once.
	MaxParallel int
	Logger      *slog.Logger
}

const instructions = `Tools for searching the scientific literature.

Keyword queries are lists of groups: the groups are combined with AND and
the terms inside one group are alternatives combined with OR. For example
[["covid-19", "sars-cov-2"], ["vaccine"]] finds papers about
(covid-19 OR sars-cov-2) AND vaccine.

search_preprint_servers reads local dumps; run update_preprint_dumps first.`

// Server is the paperscraper MCP server. It holds only configuration and
// is safe for concurrent use.
type Server struct {
	impl   *mcp.Implementation
	lib    paperscraper.Library
	opts   Options
	logger *slog.Logger
	tools  []toolDef
}

// NewServer returns a Server dispatching to lib. A nil opts selects the
// defaults.
//
// The first two arguments must not be nil.
func NewServer(impl *mcp.Implementation, lib paperscraper.Library, opts *Options) *Server {
	if impl == nil {
		panic("dispatch: nil Implementation")
	}
	if lib == nil {
		panic("dispatch: nil Library")
	}
	var o Options
	if opts != nil {
		o = *opts
	}
	if o.PDFDir == "" {
		o.PDFDir = "."
	}
	if o.UpdateTimeout <= 0 {
		o.UpdateTimeout = 2 * time.Hour
	}
	if o.MaxParallel < 1 {
		o.MaxParallel = 3
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	s := &Server{impl: impl, lib: lib, opts: o, logger: o.Logger}
	s.tools = toolTable()
	return s
}

// Tools returns the tool definitions in registration order.
func (s *Server) Tools() []*mcp.Tool {
	out := make([]*mcp.Tool, len(s.tools))
	for i, t := range s.tools {
		out[i] = t.tool
	}
	return out
}

// Run serves a single client on t (e.g., stdio) until the client
// disconnects or ctx is done. For multi-client HTTP support, use
// [NewStreamableHTTPHandler] instead.
func (s *Server) Run(ctx context.Context, t mcp.Transport) error {
	return s.mcpServer().Run(ctx, t)
}

// NewStreamableHTTPHandler returns an [mcp.StreamableHTTPHandler] serving s
// to multiple concurrent clients.
//
//	handler := dispatch.NewStreamableHTTPHandler(srv, nil)
//	http.ListenAndServe(":8080", handler)
func NewStreamableHTTPHandler(s *Server, opts *mcp.StreamableHTTPOptions) *mcp.StreamableHTTPHandler {
	if s == nil {
		panic("dispatch: nil Server")
	}
	srv := s.mcpServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return srv },
		opts,
	)
}

// mcpServer builds the SDK server: one raw tool handler per table entry,
// wrapped by call logging.
func (s *Server) mcpServer() *mcp.Server {
	srv := mcp.NewServer(s.impl, &mcp.ServerOptions{
		Instructions: instructions,
		Logger:       s.logger,
	})
	for _, t := range s.tools {
		srv.AddTool(t.tool, s.handler(t))
	}
	srv.AddReceivingMiddleware(loggingMiddleware(s.logger))
	return srv
}
