// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperscraper/paperscraper-mcp/paperscraper"
)

const fakePDF = "%PDF-1.7\nfake body\n%%EOF"

func newTestScraper(t *testing.T, mux *http.ServeMux, opts Options) *Scraper {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	opts.Timeout = 5 * time.Second
	opts.Endpoints = Endpoints{
		PubMed:          srv.URL + "/eutils",
		Arxiv:           srv.URL + "/arxiv",
		SemanticScholar: srv.URL + "/s2",
		Unpaywall:       srv.URL + "/unpaywall",
		DOIResolver:     srv.URL + "/doi",
		Wiley:           srv.URL + "/wiley",
		Elsevier:        srv.URL + "/elsevier",
	}
	return New(opts, nil, nil, nil)
}

func TestSearchPubMed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/eutils/esearch.fcgi", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `("crispr" OR "cas9") AND ("plants")`, r.URL.Query().Get("term"))
		assert.Equal(t, "5", r.URL.Query().Get("retmax"))
		assert.Equal(t, "key", r.URL.Query().Get("api_key"))
		fmt.Fprint(w, `{"esearchresult":{"count":"1","idlist":["111"]}}`)
	})
	mux.HandleFunc("/eutils/efetch.fcgi", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "111", r.URL.Query().Get("id"))
		fmt.Fprint(w, `<?xml version="1.0"?>
<PubmedArticleSet><PubmedArticle>
  <MedlineCitation><PMID>111</PMID><Article>
    <Journal><Title>Plant Cell</Title><JournalIssue><PubDate><Year>2021</Year><Month>Mar</Month><Day>4</Day></PubDate></JournalIssue></Journal>
    <ArticleTitle>CRISPR in <i>Arabidopsis</i></ArticleTitle>
    <Abstract><AbstractText Label="BACKGROUND">Gene editing.</AbstractText><AbstractText>In plants.</AbstractText></Abstract>
    <AuthorList><Author><LastName>Doe</LastName><ForeName>Jane</ForeName></Author><Author><CollectiveName>Plant Consortium</CollectiveName></Author></AuthorList>
  </Article></MedlineCitation>
  <PubmedData><ArticleIdList><ArticleId IdType="pubmed">111</ArticleId><ArticleId IdType="doi">10.1/plant</ArticleId></ArticleIdList></PubmedData>
</PubmedArticle></PubmedArticleSet>`)
	})
	s := newTestScraper(t, mux, Options{NCBIAPIKey: "key"})

	got, err := s.SearchPubMed(context.Background(), paperscraper.Query{{"crispr", "cas9"}, {"plants"}}, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	p := got[0]
	assert.Equal(t, "CRISPR in Arabidopsis", p.Title)
	assert.Equal(t, "Gene editing.\nIn plants.", p.Abstract)
	assert.Equal(t, []string{"Jane Doe", "Plant Consortium"}, p.Authors)
	assert.Equal(t, "2021-03-04", p.Date)
	assert.Equal(t, "Plant Cell", p.Journal)
	assert.Equal(t, "10.1/plant", p.DOI)
	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/111/", p.URL)
}

func TestSearchArxiv(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/arxiv/query", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `(all:"llm") AND (all:"agents" OR all:"tools")`, r.URL.Query().Get("search_query"))
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <title>arXiv Query</title>
  <entry>
    <id>http://arxiv.org/abs/2401.00001v1</id>
    <published>2024-01-02T00:00:00Z</published>
    <title>Tool-using
      agents</title>
    <summary>We study agents.</summary>
    <author><name>Ada Lovelace</name></author>
    <author><name>Alan Turing</name></author>
    <arxiv:doi>10.48550/arXiv.2401.00001</arxiv:doi>
    <link title="pdf" href="http://arxiv.org/pdf/2401.00001v1" type="application/pdf"/>
  </entry>
</feed>`)
	})
	s := newTestScraper(t, mux, Options{})

	got, err := s.SearchArxiv(context.Background(), paperscraper.Query{{"llm"}, {"agents", "tools"}}, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Tool-using agents", got[0].Title)
	assert.Equal(t, "2024-01-02", got[0].Date)
	assert.Equal(t, []string{"Ada Lovelace", "Alan Turing"}, got[0].Authors)
	assert.Equal(t, "10.48550/arXiv.2401.00001", got[0].DOI)
	assert.Equal(t, "http://arxiv.org/abs/2401.00001v1", got[0].URL)
}

func TestSearchScholar_Pages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/s2/paper/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		switch r.URL.Query().Get("offset") {
		case "0":
			fmt.Fprint(w, `{"total":3,"next":2,"data":[
				{"title":"A","year":2020,"citationCount":5,"authors":[{"name":"X"}]},
				{"title":"B","publicationDate":"2021-05-06","externalIds":{"DOI":"10.1/b"}}]}`)
		default:
			fmt.Fprint(w, `{"total":3,"data":[{"title":"C"}]}`)
		}
	})
	s := newTestScraper(t, mux, Options{SemanticScholarAPIKey: "secret"})

	got, err := s.SearchScholar(context.Background(), "protein folding", 50)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2020", got[0].Date)
	require.NotNil(t, got[0].Citations)
	assert.Equal(t, 5, *got[0].Citations)
	assert.Equal(t, "10.1/b", got[1].DOI)
	assert.Equal(t, "2021-05-06", got[1].Date)
}

func TestSearchScholar_CapsAtSearchWindow(t *testing.T) {
	var requests atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/s2/paper/search", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
		assert.NoError(t, err)
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		assert.NoError(t, err)
		if offset+limit > 1000 {
			http.Error(w, `{"error":"offset + limit must be < 1000"}`, http.StatusBadRequest)
			return
		}
		data := make([]string, limit)
		for i := range data {
			data[i] = fmt.Sprintf(`{"title":"P%d"}`, offset+i)
		}
		fmt.Fprintf(w, `{"total":5000,"next":%d,"data":[%s]}`, offset+limit, strings.Join(data, ","))
	})
	s := newTestScraper(t, mux, Options{})

	got, err := s.SearchScholar(context.Background(), "protein folding", 1500)
	require.NoError(t, err)
	require.Len(t, got, 1000)
	assert.Equal(t, "P999", got[999].Title)
	assert.Equal(t, int32(10), requests.Load())
}

func TestCitations(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/s2/paper/DOI:10.1/known", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"citationCount":42}`)
	})
	mux.HandleFunc("/s2/paper/search/match", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") == "Attention is all you need" {
			fmt.Fprint(w, `{"data":[{"title":"Attention Is All You Need","citationCount":100000}]}`)
			return
		}
		http.Error(w, `{"error":"Title match not found"}`, http.StatusNotFound)
	})
	s := newTestScraper(t, mux, Options{})
	ctx := context.Background()

	n, err := s.CitationsByDOI(ctx, "10.1/known")
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = s.CitationsByDOI(ctx, "10.1/unknown")
	assert.Equal(t, paperscraper.NotFound, paperscraper.KindOf(err))

	n, err = s.CitationsByTitle(ctx, "Attention is all you need")
	require.NoError(t, err)
	assert.Equal(t, 100000, n)

	_, err = s.CitationsByTitle(ctx, "No such paper")
	assert.Equal(t, paperscraper.NotFound, paperscraper.KindOf(err))
}

func TestDownloadPDF_ViaUnpaywall(t *testing.T) {
	mux := http.NewServeMux()
	var base string
	mux.HandleFunc("/unpaywall/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "me@example.org", r.URL.Query().Get("email"))
		fmt.Fprintf(w, `{"is_oa":true,"best_oa_location":{"url_for_pdf":"%s/files/paper.pdf"}}`, base)
	})
	mux.HandleFunc("/files/paper.pdf", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, fakePDF)
	})
	s := newTestScraper(t, mux, Options{Email: "me@example.org"})
	base = strings.TrimSuffix(s.opts.Endpoints.Unpaywall, "/unpaywall")

	var buf bytes.Buffer
	n, err := s.DownloadPDF(context.Background(), "10.1/oa", &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(fakePDF)), n)
	assert.Equal(t, fakePDF, buf.String())
}

func TestDownloadPDF_ViaLandingPageMeta(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/doi/10.1/html", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/publisher/article/1", http.StatusFound)
	})
	mux.HandleFunc("/publisher/article/1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><meta name="citation_pdf_url" content="../pdf/1.pdf"></head><body>abstract</body></html>`)
	})
	mux.HandleFunc("/publisher/pdf/1.pdf", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, fakePDF)
	})
	s := newTestScraper(t, mux, Options{})

	var buf bytes.Buffer
	_, err := s.DownloadPDF(context.Background(), "10.1/html", &buf)
	require.NoError(t, err)
	assert.Equal(t, fakePDF, buf.String())
}

func TestDownloadPDF_AccessDenied(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/doi/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})
	mux.HandleFunc("/wiley/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.Header.Get("Wiley-TDM-Client-Token"))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
	s := newTestScraper(t, mux, Options{WileyTDMToken: "tok"})

	var buf bytes.Buffer
	_, err := s.DownloadPDF(context.Background(), "10.1002/closed", &buf)
	require.Error(t, err)
	assert.Equal(t, paperscraper.DownloadFailed, paperscraper.KindOf(err))
	assert.Contains(t, err.Error(), "access denied")
	assert.Zero(t, buf.Len())
}

func TestDownloadPDF_RejectsNonPDF(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/doi/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>no links here</body></html>`)
	})
	mux.HandleFunc("/elsevier/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/pdf", r.Header.Get("Accept"))
		fmt.Fprint(w, `{"error":"not entitled"}`)
	})
	s := newTestScraper(t, mux, Options{ElsevierAPIKey: "k"})

	var buf bytes.Buffer
	_, err := s.DownloadPDF(context.Background(), "10.1016/x", &buf)
	require.Error(t, err)
	assert.Equal(t, paperscraper.DownloadFailed, paperscraper.KindOf(err))
	assert.Zero(t, buf.Len(), "nothing is written for a non-PDF payload")
}

func TestSearchImpact_NoTable(t *testing.T) {
	s := New(Options{}, nil, nil, nil)
	_, err := s.SearchImpact(context.Background(), "Nature", paperscraper.ImpactQuery{Threshold: 85})
	assert.Equal(t, paperscraper.NotFound, paperscraper.KindOf(err))
}

func TestPubmedDate(t *testing.T) {
	assert.Equal(t, "2020-01-05", pubmedDate("2020", "Jan", "5", ""))
	assert.Equal(t, "2020-11", pubmedDate("2020", "11", "", ""))
	assert.Equal(t, "2020", pubmedDate("2020", "Spring", "", ""))
	assert.Equal(t, "1998", pubmedDate("", "", "", "1998 Dec-1999 Jan"))
}
