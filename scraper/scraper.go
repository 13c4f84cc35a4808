// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

// Package scraper is the network-backed implementation of
// paperscraper.Library. Remote literature databases are queried over HTTP;
// preprint searches and journal impact lookups are answered from the local
// dump store and impact table.
package scraper

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/paperscraper/paperscraper-mcp/dumps"
	"github.com/paperscraper/paperscraper-mcp/impact"
	"github.com/paperscraper/paperscraper-mcp/internal/fetch"
	"github.com/paperscraper/paperscraper-mcp/paperscraper"
)

// Endpoints are the API roots the scraper talks to.
type Endpoints struct {
	PubMed          string
	Arxiv           string
	SemanticScholar string
	Unpaywall       string
	DOIResolver     string
	Wiley           string
	Elsevier        string
}

// DefaultEndpoints returns the public API roots.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		PubMed:          "https://eutils.ncbi.nlm.nih.gov/entrez/eutils",
		Arxiv:           "https://export.arxiv.org/api",
		SemanticScholar: "https://api.semanticscholar.org/graph/v1",
		Unpaywall:       "https://api.unpaywall.org/v2",
		DOIResolver:     "https://doi.org",
		Wiley:           "https://api.wiley.com/onlinelibrary/tdm/v1/articles",
		Elsevier:        "https://api.elsevier.com/content/article/doi",
	}
}

// Options configures a Scraper.
type Options struct {
	// Email is sent to NCBI and Unpaywall; Unpaywall is skipped without it.
	Email                 string
	NCBIAPIKey            string
	SemanticScholarAPIKey string
	WileyTDMToken         string
	ElsevierAPIKey        string

	Timeout   time.Duration
	Endpoints Endpoints
	Logger    *slog.Logger
}

// Scraper implements paperscraper.Library.
type Scraper struct {
	opts    Options
	client  *fetch.Client
	dumps   *dumps.Store
	updater *dumps.Updater
	impact  *impact.Store
	logger  *slog.Logger
}

var _ paperscraper.Library = (*Scraper)(nil)

// New returns a Scraper. store and updater serve the preprint tools; table
// serves journal impact lookups and may be nil when no table is configured.
func New(opts Options, store *dumps.Store, updater *dumps.Updater, table *impact.Store) *Scraper {
	def := DefaultEndpoints()
	e := &opts.Endpoints
	setDefault(&e.PubMed, def.PubMed)
	setDefault(&e.Arxiv, def.Arxiv)
	setDefault(&e.SemanticScholar, def.SemanticScholar)
	setDefault(&e.Unpaywall, def.Unpaywall)
	setDefault(&e.DOIResolver, def.DOIResolver)
	setDefault(&e.Wiley, def.Wiley)
	setDefault(&e.Elsevier, def.Elsevier)
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Scraper{
		opts:    opts,
		client:  fetch.New(opts.Timeout),
		dumps:   store,
		updater: updater,
		impact:  table,
		logger:  opts.Logger,
	}
}

func setDefault(dst *string, val string) {
	if *dst == "" {
		*dst = val
	}
}

// ---------------------------------------------------------------------------
// Local delegations
// ---------------------------------------------------------------------------

func (s *Scraper) SearchPreprints(ctx context.Context, server paperscraper.Server, q paperscraper.Query) ([]paperscraper.Paper, error) {
	return s.dumps.Search(ctx, server, q)
}

func (s *Scraper) UpdateDump(ctx context.Context, server paperscraper.Server, r paperscraper.DateRange, progress paperscraper.ProgressFunc) (paperscraper.DumpInfo, error) {
	return s.updater.Update(ctx, server, r, progress)
}

func (s *Scraper) SearchImpact(ctx context.Context, journal string, q paperscraper.ImpactQuery) ([]paperscraper.ImpactMatch, error) {
	if s.impact == nil {
		return nil, paperscraper.Errorf(paperscraper.NotFound, "no impact-factor table is configured")
	}
	return s.impact.Search(ctx, journal, q)
}

// classify maps transport failures onto the error taxonomy. 404 becomes
// notFoundKind; everything else is Upstream.
func classify(err error, notFoundKind paperscraper.Kind, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if fetch.StatusOf(err) == http.StatusNotFound {
		return paperscraper.Wrap(notFoundKind, err, format, args...)
	}
	if paperscraper.KindOf(err) != paperscraper.Upstream {
		return err
	}
	return paperscraper.Wrap(paperscraper.Upstream, err, format, args...)
}
