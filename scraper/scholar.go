// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package scraper

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/paperscraper/paperscraper-mcp/paperscraper"
)

// Semantic Scholar caps search pages at 100 records and rejects requests
// whose offset+limit exceeds 1000.
const (
	scholarPageLimit = 100
	scholarWindow    = 1000
)

const scholarFields = "title,authors,abstract,year,venue,url,externalIds,citationCount,publicationDate"

type scholarPaper struct {
	PaperID         string `json:"paperId"`
	Title           string `json:"title"`
	Abstract        string `json:"abstract"`
	Year            int    `json:"year"`
	Venue           string `json:"venue"`
	URL             string `json:"url"`
	PublicationDate string `json:"publicationDate"`
	CitationCount   *int   `json:"citationCount"`
	ExternalIDs     struct {
		DOI string `json:"DOI"`
	} `json:"externalIds"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
}

func (p scholarPaper) paper() paperscraper.Paper {
	out := paperscraper.Paper{
		Title:     strings.TrimSpace(p.Title),
		Abstract:  strings.TrimSpace(p.Abstract),
		Journal:   p.Venue,
		DOI:       p.ExternalIDs.DOI,
		URL:       p.URL,
		Citations: p.CitationCount,
		Source:    "scholar",
		Date:      p.PublicationDate,
	}
	if out.Date == "" && p.Year > 0 {
		out.Date = strconv.Itoa(p.Year)
	}
	for _, a := range p.Authors {
		out.Authors = append(out.Authors, a.Name)
	}
	return out
}

func (s *Scraper) scholarHeader() http.Header {
	h := http.Header{}
	if s.opts.SemanticScholarAPIKey != "" {
		h.Set("x-api-key", s.opts.SemanticScholarAPIKey)
	}
	return h
}

// SearchScholar runs a relevance-ranked topic search on Semantic Scholar,
// which also carries citation counts.
func (s *Scraper) SearchScholar(ctx context.Context, topic string, maxResults int) ([]paperscraper.Paper, error) {
	maxResults = min(maxResults, scholarWindow)
	var out []paperscraper.Paper
	for offset := 0; len(out) < maxResults && offset < scholarWindow; {
		limit := min(scholarPageLimit, maxResults-len(out), scholarWindow-offset)
		v := url.Values{}
		v.Set("query", topic)
		v.Set("offset", strconv.Itoa(offset))
		v.Set("limit", strconv.Itoa(limit))
		v.Set("fields", scholarFields)

		var page struct {
			Total int            `json:"total"`
			Next  *int           `json:"next"`
			Data  []scholarPaper `json:"data"`
		}
		u := s.opts.Endpoints.SemanticScholar + "/paper/search?" + v.Encode()
		if err := s.client.JSON(ctx, u, s.scholarHeader(), &page); err != nil {
			return nil, classify(err, paperscraper.Upstream, "scholar search")
		}
		for _, p := range page.Data {
			out = append(out, p.paper())
		}
		if page.Next == nil || len(page.Data) == 0 {
			break
		}
		offset = *page.Next
	}
	return out, nil
}
