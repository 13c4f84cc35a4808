// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// loggingMiddleware logs every tools/call with its duration and, for tool
// errors, the error kind. Other methods pass through untouched.
func loggingMiddleware(logger *slog.Logger) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method != "tools/call" {
				return next(ctx, method, req)
			}
			name := "?"
			if r, ok := req.(*mcp.CallToolRequest); ok && r.Params != nil {
				name = r.Params.Name
			}
			start := time.Now()
			res, err := next(ctx, method, req)
			attrs := []any{"tool", name, "duration", time.Since(start)}
			switch {
			case err != nil:
				logger.WarnContext(ctx, "tool call failed", append(attrs, "error", err)...)
			case toolErrorKind(res) != "":
				logger.InfoContext(ctx, "tool call returned error", append(attrs, "kind", toolErrorKind(res))...)
			default:
				logger.InfoContext(ctx, "tool call", attrs...)
			}
			return res, err
		}
	}
}

func toolErrorKind(res mcp.Result) string {
	r, ok := res.(*mcp.CallToolResult)
	if !ok || r == nil || !r.IsError {
		return ""
	}
	if m, ok := r.StructuredContent.(map[string]any); ok {
		if p, ok := m["error"].(errorPayload); ok {
			return string(p.Kind)
		}
	}
	return "unknown"
}
