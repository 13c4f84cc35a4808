// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		fmt.Fprint(w, `{"count": 3}`)
	}))
	t.Cleanup(srv.Close)

	h := http.Header{}
	h.Set("x-api-key", "secret")
	var v struct {
		Count int `json:"count"`
	}
	require.NoError(t, New(time.Second).JSON(context.Background(), srv.URL, h, &v))
	assert.Equal(t, 3, v.Count)
}

func TestGet_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	_, err := New(time.Second).Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusTooManyRequests, StatusOf(err))
	assert.Contains(t, err.Error(), "rate limited")

	wrapped := fmt.Errorf("search: %w", err)
	assert.Equal(t, http.StatusTooManyRequests, StatusOf(wrapped))
	assert.Zero(t, StatusOf(errors.New("plain")))
}

func TestJSON_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>`)
	}))
	t.Cleanup(srv.Close)

	var v map[string]any
	err := New(time.Second).JSON(context.Background(), srv.URL, nil, &v)
	require.Error(t, err)
	assert.Zero(t, StatusOf(err))
	assert.Contains(t, err.Error(), "decode")
}
