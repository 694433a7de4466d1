// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

// Statusdesk-service is the daemon that lets operators edit a
// published service-status page from Matrix chat. It watches one
// Matrix room for !status commands, holds the working state of the
// status document in memory, and publishes the result as a commit to
// a JSON file in a GitHub repository.
//
// # Startup
//
// The daemon reads its Matrix session from <state_dir>/session.json
// (written by `statusdesk login`), validates it with /whoami, joins
// the configured status room, and fetches the current status file
// from GitHub as the editing baseline. Then it brings up the control
// socket and starts the /sync long-poll loop.
//
// # Dispatch
//
// All editing state is owned by a single dispatch goroutine. Chat
// commands arrive through the sync watcher; control socket requests
// are submitted to the same loop and wait for their reply. Each
// action runs to completion before the next, so the editing session
// needs no locks and operators never see a half-applied change.
//
// # Surfaces
//
// Chat commands are documented under `!status help`. The control
// socket speaks the CBOR request-response protocol from lib/service
// and serves the status.* actions used by the statusdesk CLI.
package main
