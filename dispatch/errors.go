// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package dispatch

import (
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/paperscraper/paperscraper-mcp/paperscraper"
)

// errorPayload is the structured form of a failure.
type errorPayload struct {
	Kind    paperscraper.Kind `json:"kind"`
	Message string            `json:"message"`
}

func payloadOf(err error) *errorPayload {
	if err == nil {
		return nil
	}
	return &errorPayload{Kind: paperscraper.KindOf(err), Message: err.Error()}
}

// detailedError is a failed call that still reports per-item outcomes, for
// example a preprint search in which every server failed.
type detailedError struct {
	err     error
	details any
}

func (e *detailedError) Error() string { return e.err.Error() }
func (e *detailedError) Unwrap() error { return e.err }

// errorResult renders err as a tool-error result:
//
//	{"isError": true,
//	 "content": [{"type": "text", "text": "<Kind>: <message>"}],
//	 "structuredContent": {"error": {"kind": ..., "message": ...}, "details": ...}}
func errorResult(err error) *mcp.CallToolResult {
	p := payloadOf(err)
	structured := map[string]any{"error": *p}
	var d *detailedError
	if errors.As(err, &d) && d.details != nil {
		structured["details"] = d.details
	}
	return &mcp.CallToolResult{
		IsError:           true,
		Content:           []mcp.Content{&mcp.TextContent{Text: string(p.Kind) + ": " + p.Message}},
		StructuredContent: structured,
	}
}

// invalid is shorthand for an InvalidArgument error.
func invalid(format string, args ...any) error {
	return paperscraper.Errorf(paperscraper.InvalidArgument, format, args...)
}
