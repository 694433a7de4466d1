// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package editor

import (
	"context"

	"github.com/statusdesk/statusdesk/lib/schema/status"
)

// Transport moves the status document between the session and its
// remote home. The production implementation speaks the GitHub
// contents API; tests use an in-memory fake.
//
// The version tag is opaque to the editor: whatever Fetch returns is
// held and passed back to Publish unchanged. When the remote document
// does not exist yet, Fetch returns an empty document and an empty
// tag, and Publish with an empty tag creates the document.
//
// Error contract: implementations report failures as *TransportError
// (network or HTTP level) or *VersionMismatchError (the remote
// changed and the conditioned tag is stale). Publish must not retry a
// version mismatch; recovery is an operator decision.
type Transport interface {
	// Fetch returns the current remote document and its version tag.
	Fetch(ctx context.Context) (status.Document, string, error)

	// Publish writes the document, conditioned on tag, with a commit
	// message for the remote's history. Returns the new version tag.
	Publish(ctx context.Context, document status.Document, tag string, message string) (string, error)
}
