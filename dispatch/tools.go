// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/paperscraper/paperscraper-mcp/paperscraper"
)

// outcome is the successful result of one tool call: text for the model and
// an object for structuredContent.
type outcome struct {
	text       string
	structured any
}

// toolDef binds a tool definition to the method that implements it.
type toolDef struct {
	tool *mcp.Tool
	run  func(*Server, context.Context, *mcp.CallToolRequest) (*outcome, error)
}

// handler adapts t to the SDK. Errors and panics become tool-error results.
func (s *Server) handler(t toolDef) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (res *mcp.CallToolResult, _ error) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.ErrorContext(ctx, "tool panicked",
					"tool", t.tool.Name, "panic", r, "stack", string(debug.Stack()))
				res = errorResult(paperscraper.Errorf(paperscraper.Internal, "internal error in %s: %v", t.tool.Name, r))
			}
		}()
		out, err := t.run(s, ctx, req)
		if err != nil {
			return errorResult(err), nil
		}
		return &mcp.CallToolResult{
			Content:           []mcp.Content{&mcp.TextContent{Text: out.text}},
			StructuredContent: out.structured,
		}, nil
	}
}

func defaultValue(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("dispatch: default %v: %v", v, err))
	}
	return b
}

func object(required []string, props map[string]*jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", Properties: props, Required: required}
}

func keywordGroupsSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "array",
		Description: "Keyword groups combined with AND. Each group is a list of " +
			"alternative terms combined with OR, e.g. [[\"covid-19\", \"sars-cov-2\"], [\"vaccine\"]].",
		MinItems: jsonschema.Ptr(1),
		Items: &jsonschema.Schema{
			AnyOf: []*jsonschema.Schema{
				{Type: "array", MinItems: jsonschema.Ptr(1), Items: &jsonschema.Schema{Type: "string", MinLength: jsonschema.Ptr(1)}},
				{Type: "string", MinLength: jsonschema.Ptr(1)},
			},
		},
	}
}

func maxResultsSchema(def int) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "integer",
		Description: "Maximum number of papers to return.",
		Minimum:     jsonschema.Ptr(1.0),
		Default:     defaultValue(def),
	}
}

func serverListSchema(desc string) *jsonschema.Schema {
	var names []string
	for _, s := range paperscraper.AllServers() {
		names = append(names, string(s))
	}
	return &jsonschema.Schema{
		Type: "array",
		Description: desc + " One or more of " + strings.Join(names, ", ") +
			" (case-insensitive). Defaults to all servers.",
		MinItems: jsonschema.Ptr(1),
		Items:    &jsonschema.Schema{Type: "string"},
	}
}

func dateSchema(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Format: "date", Description: desc + " (YYYY-MM-DD)."}
}

// toolTable returns the fixed set of tools in registration order.
func toolTable() []toolDef {
	readOnly := &mcp.ToolAnnotations{ReadOnlyHint: true, IdempotentHint: true, OpenWorldHint: jsonschema.Ptr(true)}
	return []toolDef{
		{
			tool: &mcp.Tool{
				Name:        "search_pubmed",
				Description: "Search PubMed for papers matching keyword groups.",
				Annotations: readOnly,
				InputSchema: object([]string{"query"}, map[string]*jsonschema.Schema{
					"query":       keywordGroupsSchema(),
					"max_results": maxResultsSchema(defaultMaxResults),
				}),
			},
			run: (*Server).searchPubMed,
		},
		{
			tool: &mcp.Tool{
				Name:        "search_arxiv",
				Description: "Search arXiv for papers matching keyword groups.",
				Annotations: readOnly,
				InputSchema: object([]string{"query"}, map[string]*jsonschema.Schema{
					"query":       keywordGroupsSchema(),
					"max_results": maxResultsSchema(defaultMaxResults),
				}),
			},
			run: (*Server).searchArxiv,
		},
		{
			tool: &mcp.Tool{
				Name:        "search_scholar",
				Description: "Search scholarly literature for a free-text topic.",
				Annotations: readOnly,
				InputSchema: object([]string{"topic"}, map[string]*jsonschema.Schema{
					"topic":       {Type: "string", MinLength: jsonschema.Ptr(1), Description: "Topic to search for."},
					"max_results": maxResultsSchema(defaultScholarMaxResults),
				}),
			},
			run: (*Server).searchScholar,
		},
		{
			tool: &mcp.Tool{
				Name: "search_preprint_servers",
				Description: "Search the local bioRxiv, medRxiv and chemRxiv dumps for papers " +
					"matching keyword groups. Each server reports its own results or error.",
				Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, IdempotentHint: true, OpenWorldHint: jsonschema.Ptr(false)},
				InputSchema: object([]string{"query"}, map[string]*jsonschema.Schema{
					"query":   keywordGroupsSchema(),
					"servers": serverListSchema("Preprint servers to search."),
				}),
			},
			run: (*Server).searchPreprints,
		},
		{
			tool: &mcp.Tool{
				Name:        "get_citations",
				Description: "Get the citation count of a paper by DOI or title. The DOI is used when both are given.",
				Annotations: readOnly,
				InputSchema: object(nil, map[string]*jsonschema.Schema{
					"title": {Type: "string", Description: "Paper title."},
					"doi":   {Type: "string", Description: "Paper DOI, e.g. 10.1038/s41586-020-2649-2."},
				}),
			},
			run: (*Server).getCitations,
		},
		{
			tool: &mcp.Tool{
				Name:        "search_journal_impact",
				Description: "Fuzzy-match a journal name against the impact factor table.",
				Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, IdempotentHint: true, OpenWorldHint: jsonschema.Ptr(false)},
				InputSchema: object([]string{"journal_name"}, map[string]*jsonschema.Schema{
					"journal_name": {Type: "string", MinLength: jsonschema.Ptr(1), Description: "Journal name or abbreviation."},
					"threshold": {
						Type:        "integer",
						Description: "Minimum similarity score from 0 to 100.",
						Minimum:     jsonschema.Ptr(0.0),
						Maximum:     jsonschema.Ptr(100.0),
						Default:     defaultValue(defaultThreshold),
					},
					"min_impact": {Type: "number", Minimum: jsonschema.Ptr(0.0), Default: defaultValue(0), Description: "Minimum impact factor."},
					"max_impact": {Type: "number", Minimum: jsonschema.Ptr(0.0), Description: "Maximum impact factor."},
				}),
			},
			run: (*Server).searchJournalImpact,
		},
		{
			tool: &mcp.Tool{
				Name:        "download_paper_pdf",
				Description: "Download the PDF of a paper by DOI into the configured PDF directory.",
				Annotations: &mcp.ToolAnnotations{IdempotentHint: true, DestructiveHint: jsonschema.Ptr(false), OpenWorldHint: jsonschema.Ptr(true)},
				InputSchema: object([]string{"doi"}, map[string]*jsonschema.Schema{
					"doi": {Type: "string", MinLength: jsonschema.Ptr(1), Description: "Paper DOI."},
					"filename": {
						Type:        "string",
						Description: "Output file name without directories. Defaults to the DOI with slashes replaced by underscores plus .pdf.",
					},
				}),
			},
			run: (*Server).downloadPaperPDF,
		},
		{
			tool: &mcp.Tool{
				Name: "update_preprint_dumps",
				Description: "Download fresh metadata dumps from preprint servers. This can take a long time; " +
					"progress is reported when the client asks for it. Each server reports its own outcome.",
				Annotations: &mcp.ToolAnnotations{IdempotentHint: true, DestructiveHint: jsonschema.Ptr(false), OpenWorldHint: jsonschema.Ptr(true)},
				InputSchema: object(nil, map[string]*jsonschema.Schema{
					"servers":    serverListSchema("Preprint servers to update."),
					"start_date": dateSchema("First day to include. Defaults to the server's first available date"),
					"end_date":   dateSchema("Last day to include. Defaults to today"),
				}),
			},
			run: (*Server).updatePreprintDumps,
		},
	}
}
