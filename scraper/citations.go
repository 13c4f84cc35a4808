// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package scraper

import (
	"context"
	"net/url"
	"strings"

	"github.com/paperscraper/paperscraper-mcp/paperscraper"
)

// CitationsByDOI looks the paper up by DOI on Semantic Scholar.
func (s *Scraper) CitationsByDOI(ctx context.Context, doi string) (int, error) {
	u := s.opts.Endpoints.SemanticScholar + "/paper/DOI:" + escapeDOI(doi) + "?fields=citationCount"
	var p scholarPaper
	if err := s.client.JSON(ctx, u, s.scholarHeader(), &p); err != nil {
		return 0, classify(err, paperscraper.NotFound, "no paper with DOI %s", doi)
	}
	if p.CitationCount == nil {
		return 0, paperscraper.Errorf(paperscraper.NotFound, "no citation count for DOI %s", doi)
	}
	return *p.CitationCount, nil
}

// CitationsByTitle uses Semantic Scholar's title match endpoint, which
// returns the single closest paper or 404.
func (s *Scraper) CitationsByTitle(ctx context.Context, title string) (int, error) {
	v := url.Values{}
	v.Set("query", title)
	v.Set("fields", "title,citationCount")
	u := s.opts.Endpoints.SemanticScholar + "/paper/search/match?" + v.Encode()

	var res struct {
		Data []scholarPaper `json:"data"`
	}
	if err := s.client.JSON(ctx, u, s.scholarHeader(), &res); err != nil {
		return 0, classify(err, paperscraper.NotFound, "no paper titled %q", title)
	}
	if len(res.Data) == 0 || res.Data[0].CitationCount == nil {
		return 0, paperscraper.Errorf(paperscraper.NotFound, "no paper titled %q", title)
	}
	return *res.Data[0].CitationCount, nil
}

// escapeDOI escapes a DOI for use in a URL path, keeping its slashes.
func escapeDOI(doi string) string {
	return strings.ReplaceAll(url.PathEscape(doi), "%2F", "/")
}
