// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/paperscraper/paperscraper-mcp/paperscraper"
)

// Defaults substituted for absent optional arguments.
const (
	defaultMaxResults        = 100
	defaultScholarMaxResults = 50
	defaultThreshold         = 85
)

// decodeArgs unmarshals raw tool arguments into v. Absent arguments decode
// as an empty object, so required-field checks report them by name.
func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		var te *json.UnmarshalTypeError
		if errors.As(err, &te) && te.Field != "" {
			return invalid("argument %q must be of type %s", te.Field, jsonType(te.Type.Kind().String()))
		}
		return paperscraper.Wrap(paperscraper.InvalidArgument, err, "malformed arguments")
	}
	return nil
}

func jsonType(kind string) string {
	switch kind {
	case "int", "int64", "float64":
		return "number"
	case "slice":
		return "array"
	case "struct", "map":
		return "object"
	}
	return kind
}

// keywordGroups decodes a keyword-group query. Each element is a list of
// alternative terms; a bare string is accepted as a group of one.
type keywordGroups paperscraper.Query

func (k *keywordGroups) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return errors.New("query must be a list of keyword groups")
	}
	out := make(keywordGroups, 0, len(raw))
	for i, r := range raw {
		var term string
		if err := json.Unmarshal(r, &term); err == nil {
			out = append(out, []string{term})
			continue
		}
		var group []string
		if err := json.Unmarshal(r, &group); err != nil {
			return fmt.Errorf("query group %d must be a list of strings", i+1)
		}
		out = append(out, group)
	}
	*k = out
	return nil
}

// requireQuery returns the validated, trimmed query.
func requireQuery(k *keywordGroups) (paperscraper.Query, error) {
	if k == nil {
		return nil, invalid("missing required argument %q", "query")
	}
	q := paperscraper.Query(*k)
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q.Normalize(), nil
}

func requireString(name string, v *string) (string, error) {
	if v == nil {
		return "", invalid("missing required argument %q", name)
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return "", invalid("argument %q must not be empty", name)
	}
	return s, nil
}

// optionalString returns the trimmed value, or "" when absent or blank.
func optionalString(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}

// wholeNumber converts a JSON number to an int. Clients may send integers
// as 85.0, so any integral value is accepted.
func wholeNumber(name string, v float64) (int, error) {
	if math.Trunc(v) != v || math.Abs(v) > math.MaxInt32 {
		return 0, invalid("%s must be a whole number, got %g", name, v)
	}
	return int(v), nil
}

func maxResults(v *float64, def int) (int, error) {
	if v == nil {
		return def, nil
	}
	n, err := wholeNumber("max_results", *v)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, invalid("max_results must be at least 1, got %d", n)
	}
	return n, nil
}

// serverList resolves the servers argument. Absent means all servers;
// names are case-insensitive and duplicates are dropped.
func serverList(names []string) ([]paperscraper.Server, error) {
	if names == nil {
		return paperscraper.AllServers(), nil
	}
	if len(names) == 0 {
		return nil, invalid("servers must not be empty when given")
	}
	seen := make(map[paperscraper.Server]bool, len(names))
	var out []paperscraper.Server
	for _, n := range names {
		s, err := paperscraper.ParseServer(n)
		if err != nil {
			return nil, err
		}
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out, nil
}

func parseDate(name string, v *string) (time.Time, error) {
	s := optionalString(v)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(paperscraper.DateLayout, s)
	if err != nil {
		return time.Time{}, invalid("%s must be a date in YYYY-MM-DD form, got %q", name, s)
	}
	return t, nil
}

// pdfFileName returns the output file name for doi: the given name, or the
// DOI with slashes replaced by underscores plus ".pdf".
func pdfFileName(doi string, given *string) (string, error) {
	name := optionalString(given)
	if name == "" {
		return strings.ReplaceAll(doi, "/", "_") + ".pdf", nil
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." || filepath.Base(name) != name {
		return "", invalid("filename %q must be a plain file name without directories", name)
	}
	return name, nil
}

// ---------------------------------------------------------------------------
// Per-tool argument records
// ---------------------------------------------------------------------------

type searchArgs struct {
	Query      *keywordGroups `json:"query"`
	MaxResults *float64       `json:"max_results"`
}

type scholarArgs struct {
	Topic      *string  `json:"topic"`
	MaxResults *float64 `json:"max_results"`
}

type preprintArgs struct {
	Query   *keywordGroups `json:"query"`
	Servers []string       `json:"servers"`
}

type citationArgs struct {
	Title *string `json:"title"`
	DOI   *string `json:"doi"`
}

type impactArgs struct {
	JournalName *string  `json:"journal_name"`
	Threshold   *float64 `json:"threshold"`
	MinImpact   *float64 `json:"min_impact"`
	MaxImpact   *float64 `json:"max_impact"`
}

func (a impactArgs) resolve() (string, paperscraper.ImpactQuery, error) {
	journal, err := requireString("journal_name", a.JournalName)
	if err != nil {
		return "", paperscraper.ImpactQuery{}, err
	}
	q := paperscraper.ImpactQuery{Threshold: defaultThreshold, MaxImpact: a.MaxImpact}
	if a.Threshold != nil {
		if q.Threshold, err = wholeNumber("threshold", *a.Threshold); err != nil {
			return "", q, err
		}
	}
	if q.Threshold < 0 || q.Threshold > 100 {
		return "", q, invalid("threshold must be between 0 and 100, got %d", q.Threshold)
	}
	if a.MinImpact != nil {
		q.MinImpact = *a.MinImpact
	}
	if q.MinImpact < 0 {
		return "", q, invalid("min_impact must not be negative, got %g", q.MinImpact)
	}
	if q.MaxImpact != nil && *q.MaxImpact < q.MinImpact {
		return "", q, invalid("max_impact %g is below min_impact %g", *q.MaxImpact, q.MinImpact)
	}
	return journal, q, nil
}

type pdfArgs struct {
	DOI      *string `json:"doi"`
	Filename *string `json:"filename"`
}

type updateArgs struct {
	Servers   []string `json:"servers"`
	StartDate *string  `json:"start_date"`
	EndDate   *string  `json:"end_date"`
}

func (a updateArgs) resolve() ([]paperscraper.Server, paperscraper.DateRange, error) {
	var r paperscraper.DateRange
	servers, err := serverList(a.Servers)
	if err != nil {
		return nil, r, err
	}
	if r.Start, err = parseDate("start_date", a.StartDate); err != nil {
		return nil, r, err
	}
	if r.End, err = parseDate("end_date", a.EndDate); err != nil {
		return nil, r, err
	}
	if !r.Start.IsZero() && !r.End.IsZero() && r.Start.After(r.End) {
		return nil, r, invalid("start_date %s is after end_date %s",
			r.Start.Format(paperscraper.DateLayout), r.End.Format(paperscraper.DateLayout))
	}
	return servers, r, nil
}
