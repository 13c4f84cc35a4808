// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package impact

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/paperscraper/paperscraper-mcp/paperscraper"
)

// Store is the journal impact-factor table.
type Store struct {
	db *sql.DB
}

// Open opens the database at path and brings its schema up to date.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Journal is one row of the impact table.
type Journal struct {
	Name         string
	Abbreviation string
	ISSN         string
	Factor       float64
}

// Count returns the number of journals in the table.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM journals").Scan(&n); err != nil {
		return 0, fmt.Errorf("impact: count: %w", err)
	}
	return n, nil
}

// Replace swaps the table contents for journals in a single transaction.
// source is recorded in the import log.
func (s *Store) Replace(ctx context.Context, source string, journals []Journal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("impact: begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM journals"); err != nil {
		return fmt.Errorf("impact: clear table: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO journals (name, abbreviation, issn, factor) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("impact: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, j := range journals {
		if _, err := stmt.ExecContext(ctx, j.Name, j.Abbreviation, j.ISSN, j.Factor); err != nil {
			return fmt.Errorf("impact: insert %q: %w", j.Name, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO imports (source, row_count) VALUES (?, ?)", source, len(journals)); err != nil {
		return fmt.Errorf("impact: record import: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("impact: commit import: %w", err)
	}
	return nil
}

// Import reads a CSV table and replaces the stored journals with it. The
// header row names the columns: journal (or name, title) and factor (or
// impact_factor, jif) are required; abbreviation and issn are optional.
func (s *Store) Import(ctx context.Context, source string, r io.Reader) (int, error) {
	journals, err := ParseCSV(r)
	if err != nil {
		return 0, err
	}
	if err := s.Replace(ctx, source, journals); err != nil {
		return 0, err
	}
	return len(journals), nil
}

var columnAliases = map[string]string{
	"journal":       "name",
	"name":          "name",
	"title":         "name",
	"full_name":     "name",
	"factor":        "factor",
	"impact_factor": "factor",
	"jif":           "factor",
	"abbreviation":  "abbreviation",
	"abbr":          "abbreviation",
	"issn":          "issn",
}

// ParseCSV decodes an impact table. Rows with a blank name are skipped.
func ParseCSV(r io.Reader) ([]Journal, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("impact: csv is empty")
		}
		return nil, fmt.Errorf("impact: csv header: %w", err)
	}
	cols := map[string]int{}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		key = strings.ReplaceAll(key, " ", "_")
		if field, ok := columnAliases[key]; ok {
			if _, dup := cols[field]; !dup {
				cols[field] = i
			}
		}
	}
	if _, ok := cols["name"]; !ok {
		return nil, errors.New("impact: csv has no journal column")
	}
	if _, ok := cols["factor"]; !ok {
		return nil, errors.New("impact: csv has no factor column")
	}

	get := func(rec []string, field string) string {
		i, ok := cols[field]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []Journal
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("impact: csv line %d: %w", line, err)
		}
		name := get(rec, "name")
		if name == "" {
			continue
		}
		factor, err := strconv.ParseFloat(get(rec, "factor"), 64)
		if err != nil || factor < 0 || math.IsNaN(factor) {
			return nil, fmt.Errorf("impact: csv line %d: invalid factor %q", line, get(rec, "factor"))
		}
		out = append(out, Journal{
			Name:         name,
			Abbreviation: get(rec, "abbreviation"),
			ISSN:         get(rec, "issn"),
			Factor:       factor,
		})
	}
	return out, nil
}

// Search returns journals whose name or abbreviation is similar to name,
// filtered by q and ordered by score, then factor, both descending.
func (s *Store) Search(ctx context.Context, name string, q paperscraper.ImpactQuery) ([]paperscraper.ImpactMatch, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, paperscraper.Errorf(paperscraper.InvalidArgument, "journal name must not be empty")
	}

	n, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, paperscraper.Errorf(paperscraper.NotFound, "impact table is empty; import one with import-impact")
	}

	var maxImpact any
	if q.MaxImpact != nil {
		maxImpact = *q.MaxImpact
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, abbreviation, factor FROM journals
		WHERE factor >= ? AND (? IS NULL OR factor <= ?)`,
		q.MinImpact, maxImpact, maxImpact)
	if err != nil {
		return nil, fmt.Errorf("impact: search: %w", err)
	}
	defer rows.Close()

	var out []paperscraper.ImpactMatch
	for rows.Next() {
		var j Journal
		if err := rows.Scan(&j.Name, &j.Abbreviation, &j.Factor); err != nil {
			return nil, fmt.Errorf("impact: scan: %w", err)
		}
		score := Similarity(needle, strings.ToLower(j.Name))
		if j.Abbreviation != "" {
			score = max(score, Similarity(needle, strings.ToLower(j.Abbreviation)))
		}
		m := paperscraper.ImpactMatch{Journal: j.Name, Factor: j.Factor, Score: score}
		if q.Accepts(m) {
			out = append(out, m)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("impact: search: %w", err)
	}

	slices.SortFunc(out, func(a, b paperscraper.ImpactMatch) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Factor, a.Factor); c != 0 {
			return c
		}
		return strings.Compare(a.Journal, b.Journal)
	})
	return out, nil
}

// Similarity scores two strings from 0 to 100 by normalized edit distance.
// Identical strings score 100.
func Similarity(a, b string) int {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 100
	}
	d := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * (1 - float64(d)/float64(longest))))
}
