// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package scraper

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/paperscraper/paperscraper-mcp/paperscraper"
)

// E-utilities accept at most this many ids per efetch call.
const pubmedFetchBatch = 200

type esearchResponse struct {
	Result struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// xmlText collects the character data of an element and all of its
// descendants, so inline markup such as <i> in titles is flattened.
type xmlText string

func (t *xmlText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch tok := tok.(type) {
		case xml.CharData:
			b.Write(tok)
		case xml.EndElement:
			if tok.Name == start.Name {
				*t = xmlText(strings.Join(strings.Fields(b.String()), " "))
				return nil
			}
		}
	}
}

type pubmedArticleSet struct {
	Articles []struct {
		Citation struct {
			PMID    string `xml:"PMID"`
			Article struct {
				Journal struct {
					Title   string `xml:"Title"`
					PubDate struct {
						Year        string `xml:"Year"`
						Month       string `xml:"Month"`
						Day         string `xml:"Day"`
						MedlineDate string `xml:"MedlineDate"`
					} `xml:"JournalIssue>PubDate"`
				} `xml:"Journal"`
				Title    xmlText   `xml:"ArticleTitle"`
				Abstract []xmlText `xml:"Abstract>AbstractText"`
				Authors  []struct {
					LastName       string `xml:"LastName"`
					ForeName       string `xml:"ForeName"`
					CollectiveName string `xml:"CollectiveName"`
				} `xml:"AuthorList>Author"`
			} `xml:"Article"`
		} `xml:"MedlineCitation"`
		ArticleIDs []struct {
			Type  string `xml:"IdType,attr"`
			Value string `xml:",chardata"`
		} `xml:"PubmedData>ArticleIdList>ArticleId"`
	} `xml:"PubmedArticle"`
}

// SearchPubMed runs esearch for the rendered query, then efetch for the
// records in batches.
func (s *Scraper) SearchPubMed(ctx context.Context, q paperscraper.Query, maxResults int) ([]paperscraper.Paper, error) {
	v := s.eutilsParams()
	v.Set("db", "pubmed")
	v.Set("term", q.PubMedTerm())
	v.Set("retmax", strconv.Itoa(maxResults))
	v.Set("retmode", "json")

	var sr esearchResponse
	if err := s.client.JSON(ctx, s.opts.Endpoints.PubMed+"/esearch.fcgi?"+v.Encode(), nil, &sr); err != nil {
		return nil, classify(err, paperscraper.Upstream, "pubmed search")
	}

	ids := sr.Result.IDList
	out := make([]paperscraper.Paper, 0, len(ids))
	for len(ids) > 0 {
		batch := ids[:min(len(ids), pubmedFetchBatch)]
		ids = ids[len(batch):]
		papers, err := s.pubmedFetch(ctx, batch)
		if err != nil {
			return nil, err
		}
		out = append(out, papers...)
	}
	s.logger.DebugContext(ctx, "pubmed search", "query", q.String(), "total", sr.Result.Count, "returned", len(out))
	return out, nil
}

func (s *Scraper) eutilsParams() url.Values {
	v := url.Values{}
	v.Set("tool", "paperscraper")
	if s.opts.Email != "" {
		v.Set("email", s.opts.Email)
	}
	if s.opts.NCBIAPIKey != "" {
		v.Set("api_key", s.opts.NCBIAPIKey)
	}
	return v
}

func (s *Scraper) pubmedFetch(ctx context.Context, ids []string) ([]paperscraper.Paper, error) {
	v := s.eutilsParams()
	v.Set("db", "pubmed")
	v.Set("id", strings.Join(ids, ","))
	v.Set("retmode", "xml")

	resp, err := s.client.Get(ctx, s.opts.Endpoints.PubMed+"/efetch.fcgi?"+v.Encode(), nil)
	if err != nil {
		return nil, classify(err, paperscraper.Upstream, "pubmed fetch")
	}
	defer resp.Body.Close()

	var set pubmedArticleSet
	if err := xml.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, paperscraper.Wrap(paperscraper.Upstream, err, "pubmed fetch: decode")
	}

	out := make([]paperscraper.Paper, 0, len(set.Articles))
	for _, a := range set.Articles {
		art := a.Citation.Article
		p := paperscraper.Paper{
			Title:   string(art.Title),
			Journal: art.Journal.Title,
			Date:    pubmedDate(art.Journal.PubDate.Year, art.Journal.PubDate.Month, art.Journal.PubDate.Day, art.Journal.PubDate.MedlineDate),
			Source:  "pubmed",
		}
		var abstract []string
		for _, part := range art.Abstract {
			if part != "" {
				abstract = append(abstract, string(part))
			}
		}
		p.Abstract = strings.Join(abstract, "\n")
		for _, au := range art.Authors {
			name := strings.TrimSpace(au.ForeName + " " + au.LastName)
			if name == "" {
				name = au.CollectiveName
			}
			if name != "" {
				p.Authors = append(p.Authors, name)
			}
		}
		for _, id := range a.ArticleIDs {
			if id.Type == "doi" {
				p.DOI = strings.TrimSpace(id.Value)
			}
		}
		if a.Citation.PMID != "" {
			p.URL = "https://pubmed.ncbi.nlm.nih.gov/" + a.Citation.PMID + "/"
		}
		out = append(out, p)
	}
	return out, nil
}

var months = map[string]string{
	"jan": "01", "feb": "02", "mar": "03", "apr": "04", "may": "05", "jun": "06",
	"jul": "07", "aug": "08", "sep": "09", "oct": "10", "nov": "11", "dec": "12",
}

// pubmedDate renders the most precise ISO date the record carries.
func pubmedDate(year, month, day, medline string) string {
	if year == "" {
		if len(medline) >= 4 {
			return medline[:4]
		}
		return ""
	}
	m, ok := months[strings.ToLower(month)]
	if !ok {
		if n, err := strconv.Atoi(month); err == nil && n >= 1 && n <= 12 {
			m = fmt.Sprintf("%02d", n)
		} else {
			return year
		}
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return year + "-" + m
	}
	return fmt.Sprintf("%s-%s-%02d", year, m, d)
}
