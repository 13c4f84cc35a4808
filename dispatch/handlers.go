// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/paperscraper/paperscraper-mcp/paperscraper"
)

type papersResult struct {
	Count  int                  `json:"count"`
	Papers []paperscraper.Paper `json:"papers"`
}

func papersOutcome(source string, papers []paperscraper.Paper) *outcome {
	if papers == nil {
		papers = []paperscraper.Paper{}
	}
	return &outcome{
		text:       renderPapers(source, papers),
		structured: papersResult{Count: len(papers), Papers: papers},
	}
}

func (s *Server) searchPubMed(ctx context.Context, req *mcp.CallToolRequest) (*outcome, error) {
	var args searchArgs
	if err := decodeArgs(req.Params.Arguments, &args); err != nil {
		return nil, err
	}
	q, err := requireQuery(args.Query)
	if err != nil {
		return nil, err
	}
	n, err := maxResults(args.MaxResults, defaultMaxResults)
	if err != nil {
		return nil, err
	}
	papers, err := s.lib.SearchPubMed(ctx, q, n)
	if err != nil {
		return nil, err
	}
	return papersOutcome("PubMed", papers), nil
}

func (s *Server) searchArxiv(ctx context.Context, req *mcp.CallToolRequest) (*outcome, error) {
	var args searchArgs
	if err := decodeArgs(req.Params.Arguments, &args); err != nil {
		return nil, err
	}
	q, err := requireQuery(args.Query)
	if err != nil {
		return nil, err
	}
	n, err := maxResults(args.MaxResults, defaultMaxResults)
	if err != nil {
		return nil, err
	}
	papers, err := s.lib.SearchArxiv(ctx, q, n)
	if err != nil {
		return nil, err
	}
	return papersOutcome("arXiv", papers), nil
}

func (s *Server) searchScholar(ctx context.Context, req *mcp.CallToolRequest) (*outcome, error) {
	var args scholarArgs
	if err := decodeArgs(req.Params.Arguments, &args); err != nil {
		return nil, err
	}
	topic, err := requireString("topic", args.Topic)
	if err != nil {
		return nil, err
	}
	n, err := maxResults(args.MaxResults, defaultScholarMaxResults)
	if err != nil {
		return nil, err
	}
	papers, err := s.lib.SearchScholar(ctx, topic, n)
	if err != nil {
		return nil, err
	}
	return papersOutcome("Scholar", papers), nil
}

// preprintResult is the outcome of searching one server's dump.
type preprintResult struct {
	Server paperscraper.Server  `json:"server"`
	Count  int                  `json:"count"`
	Papers []paperscraper.Paper `json:"papers"`
	Error  *errorPayload        `json:"error,omitempty"`
}

func (s *Server) searchPreprints(ctx context.Context, req *mcp.CallToolRequest) (*outcome, error) {
	var args preprintArgs
	if err := decodeArgs(req.Params.Arguments, &args); err != nil {
		return nil, err
	}
	q, err := requireQuery(args.Query)
	if err != nil {
		return nil, err
	}
	servers, err := serverList(args.Servers)
	if err != nil {
		return nil, err
	}

	outcomes := forEachServer(ctx, s.opts.MaxParallel, servers,
		func(ctx context.Context, srv paperscraper.Server) ([]paperscraper.Paper, error) {
			return s.lib.SearchPreprints(ctx, srv, q)
		})

	results := make([]preprintResult, len(outcomes))
	total := 0
	for i, o := range outcomes {
		r := preprintResult{Server: o.server, Papers: []paperscraper.Paper{}}
		if o.err != nil {
			r.Error = payloadOf(o.err)
			s.logger.DebugContext(ctx, "preprint search failed", "server", o.server, "error", o.err)
		} else if o.value != nil {
			r.Papers = o.value
		}
		r.Count = len(r.Papers)
		total += r.Count
		results[i] = r
	}
	structured := map[string]any{"total": total, "servers": results}
	if err := allFailed(outcomes); err != nil {
		return nil, &detailedError{err: err, details: structured}
	}
	return &outcome{text: renderPreprints(results), structured: structured}, nil
}

type citationResult struct {
	DOI       string `json:"doi,omitempty"`
	Title     string `json:"title,omitempty"`
	Citations int    `json:"citations"`
}

// getCitations looks up by DOI when one is given and by title otherwise.
func (s *Server) getCitations(ctx context.Context, req *mcp.CallToolRequest) (*outcome, error) {
	var args citationArgs
	if err := decodeArgs(req.Params.Arguments, &args); err != nil {
		return nil, err
	}
	doi, title := optionalString(args.DOI), optionalString(args.Title)
	switch {
	case doi != "":
		n, err := s.lib.CitationsByDOI(ctx, doi)
		if err != nil {
			return nil, err
		}
		return &outcome{
			text:       fmt.Sprintf("Citations for DOI %s: %d", doi, n),
			structured: citationResult{DOI: doi, Citations: n},
		}, nil
	case title != "":
		n, err := s.lib.CitationsByTitle(ctx, title)
		if err != nil {
			return nil, err
		}
		return &outcome{
			text:       fmt.Sprintf("Citations for %q: %d", title, n),
			structured: citationResult{Title: title, Citations: n},
		}, nil
	}
	return nil, invalid("either title or doi must be provided")
}

func (s *Server) searchJournalImpact(ctx context.Context, req *mcp.CallToolRequest) (*outcome, error) {
	var args impactArgs
	if err := decodeArgs(req.Params.Arguments, &args); err != nil {
		return nil, err
	}
	journal, q, err := args.resolve()
	if err != nil {
		return nil, err
	}
	found, err := s.lib.SearchImpact(ctx, journal, q)
	if err != nil {
		return nil, err
	}
	matches := make([]paperscraper.ImpactMatch, 0, len(found))
	for _, m := range found {
		if q.Accepts(m) {
			matches = append(matches, m)
		}
	}
	if len(matches) == 0 {
		return nil, paperscraper.Errorf(paperscraper.NotFound,
			"no journal matching %q with score >= %d", journal, q.Threshold)
	}
	return &outcome{
		text:       renderImpact(journal, matches),
		structured: map[string]any{"journal_name": journal, "matches": matches},
	}, nil
}

type pdfResult struct {
	DOI   string `json:"doi"`
	Path  string `json:"path"`
	Bytes int64  `json:"bytes"`
}

// downloadPaperPDF writes into a temporary file next to the target and
// renames it into place, so a failed download leaves nothing behind.
func (s *Server) downloadPaperPDF(ctx context.Context, req *mcp.CallToolRequest) (*outcome, error) {
	var args pdfArgs
	if err := decodeArgs(req.Params.Arguments, &args); err != nil {
		return nil, err
	}
	doi, err := requireString("doi", args.DOI)
	if err != nil {
		return nil, err
	}
	name, err := pdfFileName(doi, args.Filename)
	if err != nil {
		return nil, err
	}
	path, n, err := s.savePDF(ctx, doi, name)
	if err != nil {
		return nil, err
	}
	return &outcome{
		text:       fmt.Sprintf("Successfully downloaded PDF for DOI: %s\nFile size: %d bytes\nSaved to: %s", doi, n, path),
		structured: pdfResult{DOI: doi, Path: path, Bytes: n},
	}, nil
}

func (s *Server) savePDF(ctx context.Context, doi, name string) (string, int64, error) {
	fail := func(err error) (string, int64, error) {
		if paperscraper.KindOf(err) != paperscraper.DownloadFailed {
			err = paperscraper.Wrap(paperscraper.DownloadFailed, err, "download PDF for DOI %s", doi)
		}
		return "", 0, err
	}
	if err := os.MkdirAll(s.opts.PDFDir, 0o755); err != nil {
		return fail(err)
	}
	target, err := filepath.Abs(filepath.Join(s.opts.PDFDir, name))
	if err != nil {
		return fail(err)
	}
	tmp, err := os.CreateTemp(s.opts.PDFDir, ".download-*.part")
	if err != nil {
		return fail(err)
	}
	n, err := s.lib.DownloadPDF(ctx, doi, tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil && n == 0 {
		err = errors.New("empty response")
	}
	if err == nil {
		err = os.Rename(tmp.Name(), target)
	}
	if err != nil {
		os.Remove(tmp.Name())
		return fail(err)
	}
	return target, n, nil
}

// updateResult is the outcome of refreshing one server's dump.
type updateResult struct {
	Server  paperscraper.Server `json:"server"`
	Status  string              `json:"status"`
	Path    string              `json:"path,omitempty"`
	Records int                 `json:"records"`
	Error   *errorPayload       `json:"error,omitempty"`
}

// updatePreprintDumps refreshes every requested server concurrently under
// the configured timeout. Per-server failures are reported in the summary;
// the call only fails when no server could be updated.
func (s *Server) updatePreprintDumps(ctx context.Context, req *mcp.CallToolRequest) (*outcome, error) {
	var args updateArgs
	if err := decodeArgs(req.Params.Arguments, &args); err != nil {
		return nil, err
	}
	servers, r, err := args.resolve()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.UpdateTimeout)
	defer cancel()
	progress := newProgressReporter(ctx, req, s.logger)

	outcomes := forEachServer(ctx, s.opts.MaxParallel, servers,
		func(ctx context.Context, srv paperscraper.Server) (paperscraper.DumpInfo, error) {
			s.logger.InfoContext(ctx, "updating dump", "server", srv, "range", r.String())
			info, err := s.lib.UpdateDump(ctx, srv, r, progress.forServer(srv))
			if err != nil {
				if k := paperscraper.KindOf(err); k != paperscraper.DumpUpdateFailed && k != paperscraper.InvalidArgument {
					err = paperscraper.Wrap(paperscraper.DumpUpdateFailed, err, "update %s", srv.DisplayName())
				}
				return info, err
			}
			return info, nil
		})

	results := make([]updateResult, len(outcomes))
	for i, o := range outcomes {
		res := updateResult{Server: o.server, Status: "ok", Path: o.value.Path, Records: o.value.Records}
		if o.err != nil {
			res = updateResult{Server: o.server, Status: "failed", Error: payloadOf(o.err)}
			s.logger.WarnContext(ctx, "dump update failed", "server", o.server, "error", o.err)
		}
		results[i] = res
	}
	structured := map[string]any{"servers": results}
	if err := allFailed(outcomes); err != nil {
		return nil, &detailedError{err: err, details: structured}
	}
	return &outcome{text: renderUpdate(results), structured: structured}, nil
}
