// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package scraper

import (
	"context"
	"encoding/xml"
	"net/url"
	"strconv"
	"strings"

	"github.com/paperscraper/paperscraper-mcp/paperscraper"
)

type arxivFeed struct {
	Entries []struct {
		ID        string  `xml:"id"`
		Title     xmlText `xml:"title"`
		Summary   xmlText `xml:"summary"`
		Published string  `xml:"published"`
		Authors   []struct {
			Name string `xml:"name"`
		} `xml:"author"`
		Links []struct {
			Href  string `xml:"href,attr"`
			Title string `xml:"title,attr"`
			Type  string `xml:"type,attr"`
		} `xml:"link"`
		DOI        string `xml:"http://arxiv.org/schemas/atom doi"`
		JournalRef string `xml:"http://arxiv.org/schemas/atom journal_ref"`
	} `xml:"entry"`
}

// SearchArxiv queries the arXiv export API and decodes its Atom feed.
func (s *Scraper) SearchArxiv(ctx context.Context, q paperscraper.Query, maxResults int) ([]paperscraper.Paper, error) {
	v := url.Values{}
	v.Set("search_query", q.ArxivTerm())
	v.Set("start", "0")
	v.Set("max_results", strconv.Itoa(maxResults))
	v.Set("sortBy", "relevance")

	resp, err := s.client.Get(ctx, s.opts.Endpoints.Arxiv+"/query?"+v.Encode(), nil)
	if err != nil {
		return nil, classify(err, paperscraper.Upstream, "arxiv search")
	}
	defer resp.Body.Close()

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, paperscraper.Wrap(paperscraper.Upstream, err, "arxiv search: decode feed")
	}

	out := make([]paperscraper.Paper, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		p := paperscraper.Paper{
			Title:    string(e.Title),
			Abstract: string(e.Summary),
			DOI:      strings.TrimSpace(e.DOI),
			Journal:  strings.TrimSpace(e.JournalRef),
			URL:      strings.TrimSpace(e.ID),
			Source:   "arxiv",
		}
		if len(e.Published) >= len(paperscraper.DateLayout) {
			p.Date = e.Published[:len(paperscraper.DateLayout)]
		}
		for _, a := range e.Authors {
			if name := strings.TrimSpace(a.Name); name != "" {
				p.Authors = append(p.Authors, name)
			}
		}
		for _, l := range e.Links {
			if l.Title == "pdf" && p.URL == "" {
				p.URL = l.Href
			}
		}
		out = append(out, p)
	}
	return out, nil
}
