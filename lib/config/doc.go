// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for statusdesk.
//
// Configuration is loaded from a single file: the path in the
// STATUSDESK_CONFIG environment variable when set, otherwise
// /etc/statusdesk/config.yaml, or an explicit path handed to
// [LoadFile] by a --config flag. There is no home-directory discovery
// and no automatic file search. The file is the single source of
// truth; environment variables never override loaded values.
//
// Variable expansion runs on credential and path fields after
// loading: ${VAR} and ${VAR:-default} patterns resolve against
// STATUSDESK_STATE (the loaded state_dir), HOME, and the process
// environment. This is how the GitHub token stays out of the file
// (token: ${STATUSDESK_GITHUB_TOKEN}).
//
// Key exports:
//
//   - [Config] -- homeserver, status room, operators, GitHub target
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [Config.Validate] -- collects every problem into one error
//
// This package depends only on lib/ref, for identifier validation.
package config
