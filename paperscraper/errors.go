// Copyright 2026 The Paperscraper MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package paperscraper

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the calling client.
type Kind string

const (
	// InvalidArgument: malformed or missing required parameters.
	InvalidArgument Kind = "InvalidArgument"
	// DumpNotFound: a preprint search needs a dump that does not exist.
	DumpNotFound Kind = "DumpNotFound"
	// NotFound: nothing matched, or nothing cleared the matching threshold.
	NotFound Kind = "NotFound"
	// DownloadFailed: PDF retrieval failed (network, access, or payload).
	DownloadFailed Kind = "DownloadFailed"
	// DumpUpdateFailed: one or more preprint servers failed to update.
	DumpUpdateFailed Kind = "DumpUpdateFailed"
	// Upstream: any other failure reported by a remote service.
	Upstream Kind = "UpstreamError"
	// Internal: a bug in this process, e.g. a recovered panic.
	Internal Kind = "InternalError"
)

// Error is a classified failure. Msg is safe to show to the end user.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by Kind, so errors.Is(err, &Error{Kind: NotFound})
// tests the classification.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Errorf builds an *Error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind with a leading message. A nil err yields nil.
func Wrap(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the Kind of the outermost *Error in err's chain, or
// Upstream for unclassified errors. It returns "" for a nil error.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Upstream
}
