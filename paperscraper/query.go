// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package paperscraper

import (
	"strconv"
	"strings"
)

// Query is a two-level Boolean keyword query. The outer groups are combined
// with AND; the terms inside one group are alternatives combined with OR.
//
//	Query{{"covid", "sars-cov-2"}, {"vaccine"}}
//
// matches records mentioning (covid OR sars-cov-2) AND vaccine. The nesting
// is significant and must survive every rendering unchanged.
type Query [][]string

// Normalize returns a copy of q with surrounding whitespace trimmed from
// every term. Group and term order are preserved.
func (q Query) Normalize() Query {
	out := make(Query, len(q))
	for i, group := range q {
		g := make([]string, len(group))
		for j, term := range group {
			g[j] = strings.TrimSpace(term)
		}
		out[i] = g
	}
	return out
}

// Validate rejects queries that no backend can evaluate: no groups, an empty
// group, or a blank term.
func (q Query) Validate() error {
	if len(q) == 0 {
		return Errorf(InvalidArgument, "query must contain at least one keyword group")
	}
	for i, group := range q {
		if len(group) == 0 {
			return Errorf(InvalidArgument, "query group %d is empty", i+1)
		}
		for j, term := range group {
			if strings.TrimSpace(term) == "" {
				return Errorf(InvalidArgument, "query group %d term %d is blank", i+1, j+1)
			}
		}
	}
	return nil
}

// PubMedTerm renders q in Entrez syntax: ("a" OR "b") AND ("c").
func (q Query) PubMedTerm() string {
	return q.render(strconv.Quote)
}

// ArxivTerm renders q in arXiv API syntax: (all:"a" OR all:"b") AND (all:"c").
func (q Query) ArxivTerm() string {
	return q.render(func(term string) string {
		return "all:" + strconv.Quote(term)
	})
}

func (q Query) render(term func(string) string) string {
	groups := make([]string, len(q))
	for i, group := range q {
		terms := make([]string, len(group))
		for j, t := range group {
			terms[j] = term(strings.TrimSpace(t))
		}
		groups[i] = "(" + strings.Join(terms, " OR ") + ")"
	}
	return strings.Join(groups, " AND ")
}

// Match evaluates q locally against the given text fields. Every group must
// have at least one term that occurs, case-insensitively, in some field.
func (q Query) Match(fields ...string) bool {
	if len(q) == 0 {
		return false
	}
	lowered := make([]string, len(fields))
	for i, f := range fields {
		lowered[i] = strings.ToLower(f)
	}
	for _, group := range q {
		if !anyTermIn(group, lowered) {
			return false
		}
	}
	return true
}

func anyTermIn(group []string, fields []string) bool {
	for _, term := range group {
		t := strings.ToLower(strings.TrimSpace(term))
		if t == "" {
			continue
		}
		for _, f := range fields {
			if strings.Contains(f, t) {
				return true
			}
		}
	}
	return false
}

// String renders q without quoting, for logs and result messages.
func (q Query) String() string {
	return q.render(func(term string) string { return term })
}
