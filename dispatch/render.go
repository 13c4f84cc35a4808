// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package dispatch

import (
	"fmt"
	"strings"

	"github.com/paperscraper/paperscraper-mcp/paperscraper"
)

// Papers listed in text output; structured output always has all of them.
const (
	textPapers        = 10
	textPapersPerDump = 5
)

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// writePaper appends one numbered paper entry to b.
func writePaper(b *strings.Builder, indent string, n int, p paperscraper.Paper) {
	title := p.Title
	if title == "" {
		title = "No title"
	}
	fmt.Fprintf(b, "%s%d. %s\n", indent, n, title)
	pad := indent + "   "
	authors := ""
	if len(p.Authors) > 0 {
		authors = strings.Join(p.Authors, ", ")
	}
	fmt.Fprintf(b, "%sAuthors: %s\n", pad, orUnknown(authors))
	if p.Journal != "" {
		fmt.Fprintf(b, "%sJournal: %s\n", pad, p.Journal)
	}
	fmt.Fprintf(b, "%sDate: %s\n", pad, orUnknown(p.Date))
	if p.Citations != nil {
		fmt.Fprintf(b, "%sCitations: %d\n", pad, *p.Citations)
	}
	if p.DOI != "" {
		fmt.Fprintf(b, "%sDOI: %s\n", pad, p.DOI)
	}
	if p.URL != "" && p.DOI == "" {
		fmt.Fprintf(b, "%sURL: %s\n", pad, p.URL)
	}
	b.WriteString("\n")
}

// renderPapers formats a search result as "Found N papers in <source>"
// followed by the first few entries.
func renderPapers(source string, papers []paperscraper.Paper) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d papers in %s\n\n", len(papers), source)
	for i, p := range papers {
		if i == textPapers {
			break
		}
		writePaper(&b, "", i+1, p)
	}
	if len(papers) > textPapers {
		fmt.Fprintf(&b, "... and %d more results\n", len(papers)-textPapers)
	}
	return b.String()
}

func renderPreprints(results []preprintResult) string {
	var b strings.Builder
	total := 0
	for _, r := range results {
		total += r.Count
	}
	fmt.Fprintf(&b, "Total papers found across %d servers: %d\n", len(results), total)
	for _, r := range results {
		name := strings.ToUpper(string(r.Server))
		if r.Error != nil {
			fmt.Fprintf(&b, "\n%s: %s: %s\n", name, r.Error.Kind, r.Error.Message)
			continue
		}
		fmt.Fprintf(&b, "\n%s: Found %d papers\n", name, r.Count)
		for i, p := range r.Papers {
			if i == textPapersPerDump {
				break
			}
			writePaper(&b, "  ", i+1, p)
		}
	}
	return b.String()
}

func renderImpact(journal string, matches []paperscraper.ImpactMatch) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d journal(s) matching %q:\n\n", len(matches), journal)
	for _, m := range matches {
		fmt.Fprintf(&b, "• %s\n  Impact Factor: %g\n  Match Score: %d%%\n\n", m.Journal, m.Factor, m.Score)
	}
	return b.String()
}

func renderUpdate(results []updateResult) string {
	var b strings.Builder
	b.WriteString("Updating preprint server dumps...\n\n")
	for _, r := range results {
		if r.Error != nil {
			fmt.Fprintf(&b, "%s: failed: %s\n", r.Server.DisplayName(), r.Error.Message)
			continue
		}
		fmt.Fprintf(&b, "%s: complete, %d records written to %s\n", r.Server.DisplayName(), r.Records, r.Path)
	}
	return b.String()
}
