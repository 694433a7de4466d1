// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides bounded HTTP response readers.
//
// Every response body statusdesk reads comes through here, capped at
// MaxResponseSize, so a misbehaving server cannot drive unbounded
// allocation. The helpers target JSON API responses (the Matrix
// client-server API, the GitHub REST API); streaming transfers would
// want io.Copy instead, and statusdesk has none.
package netutil

import (
	"encoding/json"
	"fmt"
	"io"
)

// MaxResponseSize caps response body reads at 64 MB. Real responses
// from the APIs statusdesk talks to run orders of magnitude smaller;
// the cap only matters against a pathological server.
const MaxResponseSize int64 = 64 << 20

// ReadResponse reads body, bounded. The bounded replacement for
// io.ReadAll on HTTP responses.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// DecodeResponse reads body, bounded, and JSON-decodes it into v.
func DecodeResponse(body io.Reader, v any) error {
	data, err := ReadResponse(body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return json.Unmarshal(data, v)
}

// ErrorBody reads an error response's body for inclusion in an error
// message. Read failures yield whatever arrived; a truncated body
// still beats no diagnostics.
func ErrorBody(body io.Reader) string {
	data, _ := ReadResponse(body)
	return string(data)
}
