// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package paperscraper

import (
	"context"
	"io"
)

// Library is the function surface of the scraping backend. Implementations
// report failures as *Error values so callers can classify them with KindOf;
// unclassified errors are treated as Upstream.
type Library interface {
	// SearchPubMed returns up to maxResults PubMed records matching q.
	SearchPubMed(ctx context.Context, q Query, maxResults int) ([]Paper, error)

	// SearchArxiv returns up to maxResults arXiv records matching q.
	SearchArxiv(ctx context.Context, q Query, maxResults int) ([]Paper, error)

	// SearchScholar runs a free-text topic search.
	SearchScholar(ctx context.Context, topic string, maxResults int) ([]Paper, error)

	// SearchPreprints searches the local dump of one preprint server. It
	// fails with DumpNotFound when no usable dump exists.
	SearchPreprints(ctx context.Context, server Server, q Query) ([]Paper, error)

	// CitationsByTitle returns the citation count of the best title match.
	CitationsByTitle(ctx context.Context, title string) (int, error)

	// CitationsByDOI returns the citation count of the paper with the DOI.
	CitationsByDOI(ctx context.Context, doi string) (int, error)

	// SearchImpact fuzzily matches a journal name against the impact table.
	SearchImpact(ctx context.Context, journal string, q ImpactQuery) ([]ImpactMatch, error)

	// DownloadPDF streams the PDF of the paper with the DOI into w and
	// returns the number of bytes written. w may hold a partial payload
	// when an error is returned.
	DownloadPDF(ctx context.Context, doi string, w io.Writer) (int64, error)

	// UpdateDump refreshes the local dump of one preprint server. progress
	// may be nil.
	UpdateDump(ctx context.Context, server Server, r DateRange, progress ProgressFunc) (DumpInfo, error)
}
