// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging wraps the subset of the Matrix client-server API
// that statusdesk needs to run a chat-operated service.
//
// The package provides two core types. [Client] is an unauthenticated
// Matrix client that handles password login, returning authenticated
// [Session] values. Client holds the homeserver URL and HTTP transport,
// shared across all Sessions derived from it.
//
// [Session] wraps a Client with an access token for authenticated
// operations: joining the status room, sending messages and notices
// (plain or HTML-formatted), incremental sync with long-polling, room
// alias resolution, profile display-name lookup, and identity
// verification (WhoAmI). The access token is stored in mmap-backed
// secret.Buffer memory, locked against swap and excluded from core
// dumps; callers must call Session.Close to release it. Rate-limited
// sends are retried once after the server's requested delay, reusing
// the Matrix transaction ID so the retry cannot double-post.
//
// [RoomWatcher] turns the stateless /sync endpoint into an ordered
// event source for a single room. The statusdesk service creates one
// watcher over the status room and drains operator commands from it;
// events delivered in the same sync batch are buffered so none are
// dropped between WaitForEvent calls.
//
// All API errors are returned as [*MatrixError] with the standard
// Matrix error code (M_FORBIDDEN, M_NOT_FOUND, etc.) and HTTP status
// code. [IsMatrixError] tests for a specific error code. Request URLs
// are built by string concatenation rather than url.URL to avoid
// double-encoding of path segments that contain URL-encoded characters
// (such as room aliases with slashes).
package messaging
