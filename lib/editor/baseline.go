// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package editor

import (
	"context"
	"log/slog"

	"github.com/statusdesk/statusdesk/lib/schema/status"
)

// baselineStore holds the canonical record list, the frozen baseline
// it is diffed against, and the version tag the baseline was read
// under. The canonical list is mutated only by Session operations;
// the baseline is replaced wholesale on load and rebase, never edited
// in place.
type baselineStore struct {
	transport Transport
	logger    *slog.Logger

	// canonical is the live list the session edits. Its indices are
	// the record identities for the session.
	canonical status.Document

	// baseline is the deep snapshot taken at the last successful
	// load or publish. Used only for dirty comparison.
	baseline status.Document

	// tag is the version tag the baseline content was read under,
	// passed back on publish for optimistic concurrency.
	tag string

	// loadErr is the error from the most recent Load, nil after a
	// success. Kept so rendering can tell the operator the session
	// is running against an empty list because the fetch failed.
	loadErr error
}

func newBaselineStore(transport Transport, logger *slog.Logger) *baselineStore {
	return &baselineStore{
		transport: transport,
		logger:    logger,
		canonical: status.Document{},
		baseline:  status.Document{},
	}
}

// Load fetches the remote document. On success the canonical list and
// baseline are replaced with the fetched content and the session is
// clean. On failure the canonical list degrades to empty, the
// previous baseline and tag are kept, and the error is both returned
// and retained for later inspection; the session stays usable.
func (s *baselineStore) Load(ctx context.Context) error {
	document, tag, err := s.transport.Fetch(ctx)
	if err != nil {
		s.canonical = status.Document{}
		s.loadErr = err
		s.logger.Error("baseline load failed, continuing with empty list", "error", err)
		return err
	}

	s.canonical = document
	s.baseline = document.Clone()
	s.tag = tag
	s.loadErr = nil
	s.logger.Info("baseline loaded", "records", len(document), "version_tag", tag)
	return nil
}

// Dirty reports whether the canonical list differs structurally from
// the baseline. Derived by full comparison on every call rather than
// tracked by a mutation counter, so edits that are later reverted to
// the original values report clean.
func (s *baselineStore) Dirty() bool {
	return !s.canonical.Equal(s.baseline)
}

// Rebase records a successful publish: the baseline becomes a deep
// copy of the current canonical list and the tag advances to the
// published revision. The session is clean afterwards.
func (s *baselineStore) Rebase(newTag string) {
	s.baseline = s.canonical.Clone()
	s.tag = newTag
}

// LastLoadError returns the error from the most recent Load, or nil
// if it succeeded.
func (s *baselineStore) LastLoadError() error { return s.loadErr }
