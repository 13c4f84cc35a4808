// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

// Package paperscraper defines the contract between the MCP tool dispatcher
// and the paper-scraping backend: the record types that flow across it, the
// keyword-group query model, and the error taxonomy every backend reports
// through.
//
// The dispatcher only ever talks to a [Library]. The HTTP implementation
// lives in package scraper; tests substitute their own.
package paperscraper

import (
	"fmt"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Paper records
// ---------------------------------------------------------------------------

// Paper is a single bibliographic record. The same shape is used for search
// results and for the lines of a preprint dump file.
type Paper struct {
	Title     string   `json:"title"`
	Authors   []string `json:"authors,omitempty"`
	Abstract  string   `json:"abstract,omitempty"`
	Date      string   `json:"date,omitempty"`
	Journal   string   `json:"journal,omitempty"`
	DOI       string   `json:"doi,omitempty"`
	URL       string   `json:"url,omitempty"`
	Citations *int     `json:"citations,omitempty"`
	Source    string   `json:"source,omitempty"`
}

// ---------------------------------------------------------------------------
// Preprint servers
// ---------------------------------------------------------------------------

// Server identifies a preprint server whose metadata is kept as a local dump.
type Server string

const (
	BioRxiv  Server = "biorxiv"
	MedRxiv  Server = "medrxiv"
	ChemRxiv Server = "chemrxiv"
)

// AllServers returns every known preprint server in canonical order.
func AllServers() []Server {
	return []Server{BioRxiv, MedRxiv, ChemRxiv}
}

// ParseServer resolves a server name case-insensitively, so "bioRxiv" and
// "biorxiv" name the same server.
func ParseServer(name string) (Server, error) {
	s := Server(strings.ToLower(strings.TrimSpace(name)))
	switch s {
	case BioRxiv, MedRxiv, ChemRxiv:
		return s, nil
	}
	return "", Errorf(InvalidArgument, "unknown preprint server %q (want one of biorxiv, medrxiv, chemrxiv)", name)
}

// DisplayName returns the server's conventional spelling.
func (s Server) DisplayName() string {
	switch s {
	case BioRxiv:
		return "bioRxiv"
	case MedRxiv:
		return "medRxiv"
	case ChemRxiv:
		return "chemRxiv"
	}
	return string(s)
}

// ---------------------------------------------------------------------------
// Impact factors
// ---------------------------------------------------------------------------

// ImpactQuery holds the matching parameters for a journal impact lookup.
// Threshold is a similarity score in [0, 100]; 100 means an exact match.
type ImpactQuery struct {
	Threshold int
	MinImpact float64
	MaxImpact *float64
}

// Accepts reports whether m satisfies the threshold and impact range.
func (q ImpactQuery) Accepts(m ImpactMatch) bool {
	if m.Score < q.Threshold || m.Factor < q.MinImpact {
		return false
	}
	return q.MaxImpact == nil || m.Factor <= *q.MaxImpact
}

// ImpactMatch is one journal that fuzzily matched a query.
type ImpactMatch struct {
	Journal string  `json:"journal"`
	Factor  float64 `json:"factor"`
	Score   int     `json:"score"`
}

// ---------------------------------------------------------------------------
// Dump updates
// ---------------------------------------------------------------------------

// DateLayout is the ISO date format accepted for dump update ranges.
const DateLayout = time.DateOnly

// DateRange bounds a dump update. A zero Start or End means the server's
// default (its first available date, or today).
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) String() string {
	f := func(t time.Time) string {
		if t.IsZero() {
			return "default"
		}
		return t.Format(DateLayout)
	}
	return fmt.Sprintf("%s..%s", f(r.Start), f(r.End))
}

// DumpInfo describes a dump file written by an update.
type DumpInfo struct {
	Server  Server `json:"server"`
	Path    string `json:"path"`
	Records int    `json:"records"`
}

// ProgressFunc receives incremental progress of a long-running operation.
// total is zero while unknown.
type ProgressFunc func(done, total int)
