// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

// Statusdesk is the operator CLI for the statusdesk daemon. It speaks
// the control socket protocol from lib/service: every editing command
// maps to one daemon action, so the CLI and the Matrix chat surface
// always act on the same working state.
//
// Two commands work without a running daemon: login, which creates
// the Matrix session the daemon starts from, and journal, which reads
// the local publish journal from disk.
package main
