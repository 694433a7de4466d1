// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package editor

import (
	"errors"
	"fmt"

	"github.com/statusdesk/statusdesk/lib/schema/status"
)

// NoSuchDraftError reports an operation on a draft key with no open
// draft. Recoverable: the caller begins an edit first.
type NoSuchDraftError struct {
	// Key is the draft key the operation named.
	Key Key
}

func (e *NoSuchDraftError) Error() string {
	return fmt.Sprintf("editor: no open draft for %s", e.Key)
}

// IsNoSuchDraft reports whether err is a *NoSuchDraftError.
func IsNoSuchDraft(err error) bool {
	var target *NoSuchDraftError
	return errors.As(err, &target)
}

// IndexOutOfRangeError reports a record or update-entry index outside
// the valid range at the time of the call.
type IndexOutOfRangeError struct {
	// Index is the index the caller supplied.
	Index int
	// Length is the length of the sequence the index was checked
	// against.
	Length int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("editor: index %d out of range (length %d)", e.Index, e.Length)
}

// IsIndexOutOfRange reports whether err is an *IndexOutOfRangeError.
func IsIndexOutOfRange(err error) bool {
	var target *IndexOutOfRangeError
	return errors.As(err, &target)
}

// ValidationError carries every field violation found during a commit.
// The draft and the canonical list are untouched when this is
// returned; the caller fixes the named fields and commits again.
type ValidationError struct {
	// Violations maps field paths to operator-facing messages. See
	// status.Violations for the path scheme.
	Violations status.Violations
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("editor: record failed validation on %d field(s): %v", len(e.Violations), e.Violations.Fields())
}

// IsValidationFailed reports whether err is a *ValidationError.
func IsValidationFailed(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// TransportError reports that a remote fetch or publish failed at the
// network or HTTP layer. The editor state is unchanged by a failed
// publish; a failed fetch degrades the session to an empty canonical
// list. Transport implementations construct this around their
// underlying cause.
type TransportError struct {
	// Op is the transport operation that failed: "fetch" or
	// "publish".
	Op string
	// Err is the underlying cause.
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransportError reports whether err is a *TransportError.
func IsTransportError(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// VersionMismatchError reports that the remote document changed after
// the baseline was read: the publish was conditioned on a version tag
// the remote no longer carries. The editor does not auto-merge or
// retry; the operator reloads and re-applies.
type VersionMismatchError struct {
	// Tag is the stale version tag the publish was conditioned on.
	Tag string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("editor: remote content changed since it was loaded (version tag %q is stale); reload and re-apply", e.Tag)
}

// IsVersionMismatch reports whether err is a *VersionMismatchError.
func IsVersionMismatch(err error) bool {
	var target *VersionMismatchError
	return errors.As(err, &target)
}
