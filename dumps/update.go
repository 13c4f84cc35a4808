// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package dumps

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/paperscraper/paperscraper-mcp/internal/fetch"
	"github.com/paperscraper/paperscraper-mcp/paperscraper"
)

// FirstDate returns the earliest date each server's API serves.
func FirstDate(server paperscraper.Server) time.Time {
	switch server {
	case paperscraper.BioRxiv:
		return time.Date(2013, time.January, 1, 0, 0, 0, 0, time.UTC)
	case paperscraper.MedRxiv:
		return time.Date(2019, time.June, 1, 0, 0, 0, 0, time.UTC)
	case paperscraper.ChemRxiv:
		return time.Date(2017, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Time{}
}

// UpdaterOptions configures an Updater. Zero values select the public APIs.
type UpdaterOptions struct {
	BioRxivAPI  string
	ChemRxivAPI string
	Logger      *slog.Logger
	// Now overrides the clock used for default end dates.
	Now func() time.Time
}

// Updater refreshes dumps from the preprint servers' metadata APIs.
type Updater struct {
	store   *Store
	sources map[paperscraper.Server]source
	logger  *slog.Logger
	now     func() time.Time
}

// NewUpdater returns an Updater writing into store.
func NewUpdater(store *Store, client *fetch.Client, opts UpdaterOptions) *Updater {
	if opts.BioRxivAPI == "" {
		opts.BioRxivAPI = DefaultBioRxivAPI
	}
	if opts.ChemRxivAPI == "" {
		opts.ChemRxivAPI = DefaultChemRxivAPI
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Updater{
		store: store,
		sources: map[paperscraper.Server]source{
			paperscraper.BioRxiv:  &xrxivSource{client: client, base: opts.BioRxivAPI, server: paperscraper.BioRxiv},
			paperscraper.MedRxiv:  &xrxivSource{client: client, base: opts.BioRxivAPI, server: paperscraper.MedRxiv},
			paperscraper.ChemRxiv: &chemRxivSource{client: client, base: opts.ChemRxivAPI},
		},
		logger: opts.Logger,
		now:    opts.Now,
	}
}

// Resolve fills the zero ends of r with the server's defaults: its first
// available date and today.
func (u *Updater) Resolve(server paperscraper.Server, r paperscraper.DateRange) (paperscraper.DateRange, error) {
	if r.Start.IsZero() {
		r.Start = FirstDate(server)
	}
	if r.End.IsZero() {
		now := u.now().UTC()
		r.End = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	if r.Start.After(r.End) {
		return r, paperscraper.Errorf(paperscraper.InvalidArgument,
			"start date %s is after end date %s", r.Start.Format(paperscraper.DateLayout), r.End.Format(paperscraper.DateLayout))
	}
	return r, nil
}

// Update downloads the metadata of server for r and publishes it as
// <server>_<end>.jsonl. Records stream into a temporary file, so a failed
// or cancelled update leaves any existing dump untouched and no partial
// file behind.
func (u *Updater) Update(ctx context.Context, server paperscraper.Server, r paperscraper.DateRange, progress paperscraper.ProgressFunc) (paperscraper.DumpInfo, error) {
	src, ok := u.sources[server]
	if !ok {
		return paperscraper.DumpInfo{}, paperscraper.Errorf(paperscraper.InvalidArgument, "unknown preprint server %q", server)
	}
	r, err := u.Resolve(server, r)
	if err != nil {
		return paperscraper.DumpInfo{}, err
	}

	w, err := u.store.create(server)
	if err != nil {
		return paperscraper.DumpInfo{}, paperscraper.Wrap(paperscraper.DumpUpdateFailed, err, "prepare %s dump", server.DisplayName())
	}

	started := time.Now()
	u.logger.InfoContext(ctx, "updating dump", "server", server, "range", r.String())

	if err := src.fetch(ctx, r.Start, r.End, w.Write, progress); err != nil {
		w.Abort()
		u.logger.WarnContext(ctx, "dump update failed", "server", server, "records", w.count, "error", err)
		return paperscraper.DumpInfo{}, paperscraper.Wrap(paperscraper.DumpUpdateFailed, err, "update %s", server.DisplayName())
	}

	path := filepath.Join(u.store.Dir(), FileName(server, r.End))
	if err := w.Commit(path); err != nil {
		return paperscraper.DumpInfo{}, paperscraper.Wrap(paperscraper.DumpUpdateFailed, err, "write %s dump", server.DisplayName())
	}
	u.logger.InfoContext(ctx, "dump updated", "server", server, "path", path, "records", w.count, "elapsed", time.Since(started))
	return paperscraper.DumpInfo{Server: server, Path: path, Records: w.count}, nil
}
