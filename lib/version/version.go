// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

// Package version carries the build identification stamped into
// statusdesk binaries at link time:
//
//	go build -ldflags "-X github.com/statusdesk/statusdesk/lib/version.GitCommit=$(git rev-parse --short HEAD)"
package version

import "fmt"

// Set via -ldflags; the defaults describe an unstamped dev build.
var (
	// Version is the release number, bumped by hand for releases.
	Version = "0.1.0-dev"

	// GitCommit is the short SHA the binary was built from.
	GitCommit = "unknown"

	// GitDirty is "true" when the work tree had uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// Info renders the one-line form used by --version output.
func Info() string {
	commit := GitCommit
	if GitDirty == "true" {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s (%s, %s)", Version, commit, BuildTime)
}
