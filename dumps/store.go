// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

// Package dumps manages local metadata dumps of the preprint servers.
//
// A dump is a JSON Lines file named <server>_<YYYY-MM-DD>.jsonl whose lines
// are paperscraper.Paper records. When several dumps exist for a server the
// one with the newest date wins. Searches never touch the network: a missing
// or empty dump is reported as DumpNotFound and must be fetched with an
// explicit update.
package dumps

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/paperscraper/paperscraper-mcp/paperscraper"
)

const ext = ".jsonl"

// Store is a directory of dump files.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir. The directory is created lazily
// by the first update.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store's directory.
func (s *Store) Dir() string { return s.dir }

// FileName returns the dump file name for server as of date.
func FileName(server paperscraper.Server, date time.Time) string {
	return string(server) + "_" + date.Format(paperscraper.DateLayout) + ext
}

// Latest returns the path of the newest dump for server.
func (s *Store) Latest(server paperscraper.Server) (string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, string(server)+"_*"+ext))
	if err != nil {
		return "", err
	}
	var dated []string
	for _, m := range matches {
		stamp := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), string(server)+"_"), ext)
		if _, err := time.Parse(paperscraper.DateLayout, stamp); err == nil {
			dated = append(dated, m)
		}
	}
	if len(dated) == 0 {
		return "", paperscraper.Errorf(paperscraper.DumpNotFound,
			"no %s dump found in %s; run update_preprint_dumps first", server.DisplayName(), s.dir)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dated)))
	return dated[0], nil
}

// Search scans the newest dump of server and returns the records whose
// title or abstract satisfy q.
func (s *Store) Search(ctx context.Context, server paperscraper.Server, q paperscraper.Query) ([]paperscraper.Paper, error) {
	path, err := s.Latest(server)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, paperscraper.Wrap(paperscraper.DumpNotFound, err, "open %s dump", server.DisplayName())
	}
	defer f.Close()

	if fi, err := f.Stat(); err == nil && fi.Size() == 0 {
		return nil, paperscraper.Errorf(paperscraper.DumpNotFound,
			"%s dump %s is empty; run update_preprint_dumps", server.DisplayName(), filepath.Base(path))
	}

	var out []paperscraper.Paper
	err = scan(f, func(p paperscraper.Paper) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if q.Match(p.Title, p.Abstract) {
			if p.Source == "" {
				p.Source = string(server)
			}
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", filepath.Base(path), err)
	}
	return out, nil
}

// Count returns the number of records in the newest dump of server.
func (s *Store) Count(server paperscraper.Server) (int, error) {
	path, err := s.Latest(server)
	if err != nil {
		return 0, err
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	n := 0
	err = scan(f, func(paperscraper.Paper) error { n++; return nil })
	return n, err
}

func scan(r io.Reader, fn func(paperscraper.Paper) error) error {
	dec := json.NewDecoder(bufio.NewReaderSize(r, 1<<16))
	for line := 1; ; line++ {
		var p paperscraper.Paper
		err := dec.Decode(&p)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("record %d: %w", line, err)
		}
		if err := fn(p); err != nil {
			return err
		}
	}
}

// writer streams records into a temporary file in the store directory and
// publishes it under its final name on Commit. Abort removes it.
type writer struct {
	f     *os.File
	buf   *bufio.Writer
	enc   *json.Encoder
	count int
}

func (s *Store) create(server paperscraper.Server) (*writer, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp(s.dir, "."+string(server)+"-*.tmp")
	if err != nil {
		return nil, err
	}
	buf := bufio.NewWriter(f)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &writer{f: f, buf: buf, enc: enc}, nil
}

func (w *writer) Write(p paperscraper.Paper) error {
	if err := w.enc.Encode(p); err != nil {
		return err
	}
	w.count++
	return nil
}

func (w *writer) Commit(path string) error {
	if err := w.buf.Flush(); err != nil {
		w.Abort()
		return err
	}
	if err := w.f.Close(); err != nil {
		os.Remove(w.f.Name())
		return err
	}
	if err := os.Rename(w.f.Name(), path); err != nil {
		os.Remove(w.f.Name())
		return err
	}
	return nil
}

func (w *writer) Abort() {
	w.f.Close()
	os.Remove(w.f.Name())
}
