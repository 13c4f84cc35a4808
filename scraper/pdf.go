// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package scraper

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/paperscraper/paperscraper-mcp/internal/fetch"
	"github.com/paperscraper/paperscraper-mcp/paperscraper"
)

var pdfMagic = []byte("%PDF-")

// maxLandingPage bounds how much of an HTML landing page is parsed.
const maxLandingPage = 4 << 20

// errNotPDF marks a response that was reachable but did not carry a PDF.
var errNotPDF = errors.New("response is not a PDF")

// pdfCandidate is one way of retrieving a paper's PDF.
type pdfCandidate struct {
	name   string
	url    func(ctx context.Context) (string, error)
	header http.Header
}

// DownloadPDF tries, in order: the Unpaywall open-access location, the DOI
// landing page (direct PDF or its citation_pdf_url), the Wiley TDM API and
// the Elsevier article API. The first response whose body starts with the
// PDF magic bytes is streamed into w.
func (s *Scraper) DownloadPDF(ctx context.Context, doi string, w io.Writer) (int64, error) {
	var attempts []string
	denied := false

	for _, c := range s.pdfCandidates(doi) {
		u, err := c.url(ctx)
		if err == nil && u == "" {
			continue
		}
		var n int64
		if err == nil {
			n, err = s.streamPDF(ctx, u, c.header, w)
		}
		if err == nil {
			s.logger.DebugContext(ctx, "pdf downloaded", "doi", doi, "via", c.name, "bytes", n)
			return n, nil
		}
		if n > 0 {
			// w already holds part of a payload.
			return n, paperscraper.Wrap(paperscraper.DownloadFailed, err, "download %s via %s interrupted", doi, c.name)
		}
		if err := ctx.Err(); err != nil {
			return 0, paperscraper.Wrap(paperscraper.DownloadFailed, err, "download %s", doi)
		}
		switch fetch.StatusOf(err) {
		case http.StatusUnauthorized, http.StatusForbidden:
			denied = true
		}
		attempts = append(attempts, fmt.Sprintf("%s: %v", c.name, err))
		s.logger.DebugContext(ctx, "pdf source failed", "doi", doi, "via", c.name, "error", err)
	}

	if denied {
		return 0, paperscraper.Errorf(paperscraper.DownloadFailed,
			"access denied for DOI %s (tried %s)", doi, strings.Join(attempts, "; "))
	}
	if len(attempts) == 0 {
		return 0, paperscraper.Errorf(paperscraper.DownloadFailed, "no PDF source available for DOI %s", doi)
	}
	return 0, paperscraper.Errorf(paperscraper.DownloadFailed,
		"no PDF found for DOI %s (tried %s)", doi, strings.Join(attempts, "; "))
}

func (s *Scraper) pdfCandidates(doi string) []pdfCandidate {
	e := s.opts.Endpoints
	fixed := func(u string) func(context.Context) (string, error) {
		return func(context.Context) (string, error) { return u, nil }
	}

	var out []pdfCandidate
	if s.opts.Email != "" {
		out = append(out, pdfCandidate{name: "unpaywall", url: func(ctx context.Context) (string, error) {
			return s.unpaywallPDF(ctx, doi)
		}})
	}
	out = append(out, pdfCandidate{name: "doi", url: func(ctx context.Context) (string, error) {
		return s.landingPDF(ctx, e.DOIResolver+"/"+escapeDOI(doi))
	}})
	if s.opts.WileyTDMToken != "" {
		h := http.Header{}
		h.Set("Wiley-TDM-Client-Token", s.opts.WileyTDMToken)
		out = append(out, pdfCandidate{name: "wiley", url: fixed(e.Wiley + "/" + url.PathEscape(doi)), header: h})
	}
	if s.opts.ElsevierAPIKey != "" {
		h := http.Header{}
		h.Set("X-ELS-APIKey", s.opts.ElsevierAPIKey)
		h.Set("Accept", "application/pdf")
		out = append(out, pdfCandidate{name: "elsevier", url: fixed(e.Elsevier + "/" + escapeDOI(doi) + "?httpAccept=application/pdf"), header: h})
	}
	return out
}

// streamPDF fetches u and copies the body into w once its first bytes prove
// it is a PDF. Nothing is written otherwise.
func (s *Scraper) streamPDF(ctx context.Context, u string, header http.Header, w io.Writer) (int64, error) {
	resp, err := s.client.Get(ctx, u, header)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	br := bufio.NewReader(resp.Body)
	head, err := br.Peek(len(pdfMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}
	if !bytes.Equal(head, pdfMagic) {
		return 0, fmt.Errorf("%s: %w (content type %q)", u, errNotPDF, resp.Header.Get("Content-Type"))
	}
	return io.Copy(w, br)
}

func (s *Scraper) unpaywallPDF(ctx context.Context, doi string) (string, error) {
	u := s.opts.Endpoints.Unpaywall + "/" + escapeDOI(doi) + "?email=" + url.QueryEscape(s.opts.Email)
	var data struct {
		IsOA           bool `json:"is_oa"`
		BestOALocation *struct {
			URLForPDF string `json:"url_for_pdf"`
		} `json:"best_oa_location"`
	}
	if err := s.client.JSON(ctx, u, nil, &data); err != nil {
		if fetch.StatusOf(err) == http.StatusNotFound {
			return "", nil
		}
		return "", err
	}
	if !data.IsOA || data.BestOALocation == nil {
		return "", nil
	}
	return data.BestOALocation.URLForPDF, nil
}

// landingPDF resolves a DOI landing page. A PDF response is used as is; an
// HTML page is searched for its citation_pdf_url meta tag.
func (s *Scraper) landingPDF(ctx context.Context, u string) (string, error) {
	resp, err := s.client.Get(ctx, u, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	final := resp.Request.URL.String()
	br := bufio.NewReader(io.LimitReader(resp.Body, maxLandingPage))
	if head, _ := br.Peek(len(pdfMagic)); bytes.Equal(head, pdfMagic) {
		return final, nil
	}
	link, err := citationPDFURL(br, final)
	if err != nil {
		return "", err
	}
	if link == "" {
		return "", fmt.Errorf("%s: landing page has no PDF link", final)
	}
	return link, nil
}

// citationPDFURL scans an HTML document for
// <meta name="citation_pdf_url" content="..."> and resolves the link
// against base.
func citationPDFURL(r io.Reader, base string) (string, error) {
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return "", nil
			}
			return "", z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "meta" {
				continue
			}
			var name, content string
			for _, a := range tok.Attr {
				switch strings.ToLower(a.Key) {
				case "name":
					name = strings.ToLower(a.Val)
				case "content":
					content = strings.TrimSpace(a.Val)
				}
			}
			if name != "citation_pdf_url" || content == "" {
				continue
			}
			ref, err := url.Parse(content)
			if err != nil {
				return "", err
			}
			b, err := url.Parse(base)
			if err != nil {
				return ref.String(), nil
			}
			return b.ResolveReference(ref).String(), nil
		}
	}
}
