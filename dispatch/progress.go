// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/paperscraper/paperscraper-mcp/paperscraper"
)

// progressReporter folds the progress of concurrent per-server updates into
// a single stream of MCP progress notifications for one request. It is a
// no-op when the client sent no progress token.
type progressReporter struct {
	ctx     context.Context
	session *mcp.ServerSession
	token   any
	logger  *slog.Logger

	mu    sync.Mutex
	done  map[paperscraper.Server]int
	total map[paperscraper.Server]int
}

func newProgressReporter(ctx context.Context, req *mcp.CallToolRequest, logger *slog.Logger) *progressReporter {
	p := &progressReporter{
		ctx:    ctx,
		logger: logger,
		done:   make(map[paperscraper.Server]int),
		total:  make(map[paperscraper.Server]int),
	}
	if req != nil && req.Params != nil {
		p.token = req.Params.GetProgressToken()
		p.session = req.Session
	}
	return p
}

// forServer returns the library callback for one server.
func (p *progressReporter) forServer(srv paperscraper.Server) paperscraper.ProgressFunc {
	return func(done, total int) { p.report(srv, done, total) }
}

func (p *progressReporter) report(srv paperscraper.Server, done, total int) {
	if p.token == nil || p.session == nil {
		return
	}
	p.mu.Lock()
	p.done[srv] = done
	p.total[srv] = total
	var sumDone, sumTotal int
	known := true
	for s, d := range p.done {
		sumDone += d
		if p.total[s] <= 0 {
			known = false
		}
		sumTotal += p.total[s]
	}
	if !known {
		sumTotal = 0
	}
	params := &mcp.ProgressNotificationParams{
		ProgressToken: p.token,
		Message:       fmt.Sprintf("%s: %d records", srv.DisplayName(), done),
		Progress:      float64(sumDone),
		Total:         float64(sumTotal),
	}
	// Notifications are sent under the lock so they leave in order.
	err := p.session.NotifyProgress(p.ctx, params)
	p.mu.Unlock()
	if err != nil {
		p.logger.DebugContext(p.ctx, "progress notification failed", "error", err)
	}
}
