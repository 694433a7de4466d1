// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

// Package github provides a typed client for the slice of the GitHub
// REST API that statusdesk uses: the repository contents endpoints
// (read and write a single file with optimistic concurrency on the
// blob SHA) and the commit listing for that file's history.
//
// A Client is scoped to one repository. It authenticates via GitHub
// App installation tokens or personal access tokens, tracks rate
// limits (X-RateLimit-* headers with automatic backoff), follows
// RFC 5988 Link headers for pagination, caches ETags for conditional
// requests, and maps non-2xx responses to structured errors.
//
// All requests are made over HTTPS. The client refuses non-HTTPS base URLs.
package github
