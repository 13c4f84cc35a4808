// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package dumps

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paperscraper/paperscraper-mcp/internal/fetch"
	"github.com/paperscraper/paperscraper-mcp/paperscraper"
)

// Default API roots. Tests point these at local servers.
const (
	DefaultBioRxivAPI  = "https://api.biorxiv.org"
	DefaultChemRxivAPI = "https://chemrxiv.org/engage/chemrxiv/public-api/v1"
)

// emitFunc receives one fetched record.
type emitFunc func(paperscraper.Paper) error

// source pages through one server's metadata API for a date range.
type source interface {
	fetch(ctx context.Context, start, end time.Time, emit emitFunc, progress paperscraper.ProgressFunc) error
}

// ---------------------------------------------------------------------------
// bioRxiv / medRxiv
// ---------------------------------------------------------------------------

// xrxivSource reads the shared bioRxiv/medRxiv "details" endpoint, which
// pages with a cursor in steps of up to 100 records.
type xrxivSource struct {
	client *fetch.Client
	base   string
	server paperscraper.Server
}

// flexInt accepts both 123 and "123"; the details API uses either.
type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(string(b))
	if err != nil {
		return fmt.Errorf("not an integer: %s", b)
	}
	*n = flexInt(v)
	return nil
}

type xrxivPage struct {
	Messages []struct {
		Status string  `json:"status"`
		Cursor flexInt `json:"cursor"`
		Count  flexInt `json:"count"`
		Total  flexInt `json:"total"`
	} `json:"messages"`
	Collection []struct {
		DOI       string `json:"doi"`
		Title     string `json:"title"`
		Authors   string `json:"authors"`
		Date      string `json:"date"`
		Category  string `json:"category"`
		Abstract  string `json:"abstract"`
		Published string `json:"published"`
		Server    string `json:"server"`
	} `json:"collection"`
}

func (s *xrxivSource) fetch(ctx context.Context, start, end time.Time, emit emitFunc, progress paperscraper.ProgressFunc) error {
	done := 0
	for cursor := 0; ; {
		u := fmt.Sprintf("%s/details/%s/%s/%s/%d", strings.TrimRight(s.base, "/"), s.server,
			start.Format(paperscraper.DateLayout), end.Format(paperscraper.DateLayout), cursor)

		var page xrxivPage
		if err := getWithRetry(ctx, s.client, u, &page); err != nil {
			return err
		}
		if len(page.Messages) == 0 {
			return fmt.Errorf("%s: response without status message", s.server.DisplayName())
		}
		msg := page.Messages[0]
		if msg.Status != "ok" {
			if strings.Contains(strings.ToLower(msg.Status), "no posts found") {
				return nil
			}
			return fmt.Errorf("%s: %s", s.server.DisplayName(), msg.Status)
		}

		for _, r := range page.Collection {
			p := paperscraper.Paper{
				Title:    strings.TrimSpace(r.Title),
				Authors:  splitAuthors(r.Authors),
				Abstract: strings.TrimSpace(r.Abstract),
				Date:     r.Date,
				Journal:  s.server.DisplayName(),
				DOI:      r.DOI,
				Source:   string(s.server),
			}
			if r.DOI != "" {
				p.URL = "https://doi.org/" + r.DOI
			}
			if err := emit(p); err != nil {
				return err
			}
		}
		done += len(page.Collection)
		if progress != nil {
			progress(done, int(msg.Total))
		}

		if len(page.Collection) == 0 || done >= int(msg.Total) {
			return nil
		}
		cursor += len(page.Collection)
	}
}

func splitAuthors(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ";") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// chemRxiv
// ---------------------------------------------------------------------------

const chemRxivPageSize = 50

// chemRxivSource reads the Cambridge Engage public API, which pages with
// limit/skip and filters by publication date.
type chemRxivSource struct {
	client *fetch.Client
	base   string
}

type chemRxivPage struct {
	TotalCount int `json:"totalCount"`
	ItemHits   []struct {
		Item struct {
			ID       string `json:"id"`
			DOI      string `json:"doi"`
			Title    string `json:"title"`
			Abstract string `json:"abstract"`
			Authors  []struct {
				FirstName string `json:"firstName"`
				LastName  string `json:"lastName"`
			} `json:"authors"`
			PublishedDate string `json:"publishedDate"`
		} `json:"item"`
	} `json:"itemHits"`
}

func (s *chemRxivSource) fetch(ctx context.Context, start, end time.Time, emit emitFunc, progress paperscraper.ProgressFunc) error {
	done := 0
	for skip := 0; ; skip += chemRxivPageSize {
		v := url.Values{}
		v.Set("limit", strconv.Itoa(chemRxivPageSize))
		v.Set("skip", strconv.Itoa(skip))
		v.Set("searchDateFrom", start.Format(paperscraper.DateLayout)+"T00:00:00.000Z")
		v.Set("searchDateTo", end.Format(paperscraper.DateLayout)+"T23:59:59.999Z")
		u := strings.TrimRight(s.base, "/") + "/items?" + v.Encode()

		var page chemRxivPage
		if err := getWithRetry(ctx, s.client, u, &page); err != nil {
			return err
		}
		for _, hit := range page.ItemHits {
			it := hit.Item
			p := paperscraper.Paper{
				Title:    strings.TrimSpace(it.Title),
				Abstract: strings.TrimSpace(it.Abstract),
				Journal:  paperscraper.ChemRxiv.DisplayName(),
				DOI:      it.DOI,
				Source:   string(paperscraper.ChemRxiv),
			}
			for _, a := range it.Authors {
				if name := strings.TrimSpace(a.FirstName + " " + a.LastName); name != "" {
					p.Authors = append(p.Authors, name)
				}
			}
			if len(it.PublishedDate) >= len(paperscraper.DateLayout) {
				p.Date = it.PublishedDate[:len(paperscraper.DateLayout)]
			}
			if it.DOI != "" {
				p.URL = "https://doi.org/" + it.DOI
			}
			if err := emit(p); err != nil {
				return err
			}
		}
		done += len(page.ItemHits)
		if progress != nil {
			progress(done, page.TotalCount)
		}
		if len(page.ItemHits) < chemRxivPageSize || done >= page.TotalCount {
			return nil
		}
	}
}

// ---------------------------------------------------------------------------
// retries
// ---------------------------------------------------------------------------

const maxAttempts = 3

var retryBackoff = time.Second

// getWithRetry retries transport errors and 5xx/429 responses with linear
// backoff. Other failures return at once.
func getWithRetry(ctx context.Context, c *fetch.Client, u string, v any) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = c.JSON(ctx, u, nil, v)
		if err == nil || !retryable(err) || attempt == maxAttempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
	return err
}

func retryable(err error) bool {
	var syntax *json.SyntaxError
	var typ *json.UnmarshalTypeError
	if errors.As(err, &syntax) || errors.As(err, &typ) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	status := fetch.StatusOf(err)
	return status == 0 || status == 429 || status >= 500
}
