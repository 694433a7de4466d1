// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the one piece of raw stderr output statusdesk
// binaries are allowed: the final error report from main, which has
// to work whether or not the structured logger ever came up.
package process

import (
	"fmt"
	"os"
)

// Fatal prints err to stderr as "error: ..." and exits 1. Both
// binaries funnel their run() error through here so failures read
// the same from the daemon and the CLI.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
