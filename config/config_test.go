// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
dump_dir: /data/dumps
pdf_dir: /data/pdfs
email: lab@example.org
update_timeout: 30m
credentials:
  ncbi_api_key: from-file
server:
  transport: http
  addr: ":9090"
`)
	t.Setenv("NCBI_API_KEY", "from-env")
	t.Setenv("PAPERSCRAPER_MAX_PARALLEL", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/dumps", cfg.DumpDir)
	assert.Equal(t, "/data/pdfs", cfg.PDFDir)
	assert.Equal(t, "lab@example.org", cfg.Email)
	assert.Equal(t, 30*time.Minute, cfg.UpdateTimeout)
	assert.Equal(t, "from-env", cfg.Credentials.NCBIAPIKey, "env must override file")
	assert.Equal(t, 5, cfg.MaxParallel)
	assert.Equal(t, "http", cfg.Server.Transport)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 60*time.Second, cfg.HTTPTimeout, "unset values keep defaults")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := map[string]string{
		"transport":   "server:\n  transport: carrier-pigeon\n",
		"parallel":    "max_parallel: 0\n",
		"log level":   "log_level: chatty\n",
		"bad yaml":    "dump_dir: [\n",
		"empty dumps": "dump_dir: \"\"\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, content))
			assert.Error(t, err)
		})
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "stdio", cfg.Server.Transport)
	assert.Equal(t, 2*time.Hour, cfg.UpdateTimeout)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}
