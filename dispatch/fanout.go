// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package dispatch

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/paperscraper/paperscraper-mcp/paperscraper"
)

// serverOutcome is the result of one per-server operation.
type serverOutcome[T any] struct {
	server paperscraper.Server
	value  T
	err    error
}

// forEachServer runs fn once per server, at most limit at a time, and
// returns the outcomes in the order of servers. A failing server does not
// cancel its siblings.
func forEachServer[T any](ctx context.Context, limit int, servers []paperscraper.Server,
	fn func(context.Context, paperscraper.Server) (T, error)) []serverOutcome[T] {

	out := make([]serverOutcome[T], len(servers))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, srv := range servers {
		out[i].server = srv
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					out[i].err = paperscraper.Errorf(paperscraper.Internal, "internal error for %s: %v", srv.DisplayName(), r)
				}
			}()
			out[i].value, out[i].err = fn(ctx, srv)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// allFailed returns the first failure when every outcome failed, and nil
// otherwise.
func allFailed[T any](outcomes []serverOutcome[T]) error {
	var first error
	for _, o := range outcomes {
		if o.err == nil {
			return nil
		}
		if first == nil {
			first = o.err
		}
	}
	return first
}
