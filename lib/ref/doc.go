// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides strongly typed, immutable Matrix identifier
// values: user IDs, room IDs, room aliases, and event IDs.
//
// Raw identifier strings arrive from configuration files and from
// Matrix API responses. They are parsed into these types at the
// boundary; everything past the boundary works with validated values
// and never re-checks format. All types are immutable value types
// whose zero value is "unset" (use IsZero to check), and marshal to
// their canonical string form via encoding.TextMarshaler.
package ref
