// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

// Package service implements the control socket shared by the
// statusdesk daemon and the operator CLI.
//
// The protocol is CBOR request-response over a Unix domain socket:
// each connection carries exactly one request and one response. The
// request is a CBOR map with an "action" field naming the operation;
// the response is a Response envelope ({ok, error?, data?}). CBOR is
// self-delimiting, so there is no length-prefix framing.
//
// There is no authentication on the socket. The socket file lives
// inside the daemon's state directory and is created with owner-only
// permissions; anyone who can open it already owns the daemon's
// files, including the Matrix session token.
//
// The package also owns persistence of the Matrix session
// (session.json in the state directory), shared between the daemon
// and the CLI's login command.
package service
