// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

// Package editor implements the session-scoped editable state for the
// service-status document: the canonical record list loaded from the
// remote, isolated per-record drafts, dirty tracking against the
// loaded baseline, and the transactional commit of drafts back into
// the list.
//
// A Session is owned by a single goroutine (the service's dispatch
// loop); nothing here locks. Every operation returns a result or a
// typed error from this package; no operation panics on bad input.
// Only Load, DiscardAllChanges, and Publish touch the network.
package editor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/statusdesk/statusdesk/lib/schema/status"
)

// Config carries the session dependencies.
type Config struct {
	// Transport fetches and publishes the remote document. Required.
	Transport Transport

	// Logger receives structured session events. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Session is the editable-state manager. It composes the canonical
// list and baseline with the draft registry and exposes the
// operations the chat and socket surfaces consume.
type Session struct {
	store  *baselineStore
	drafts *registry
	logger *slog.Logger
}

// New creates a session with an empty canonical list. Call Load to
// fetch the baseline before serving operations.
func New(config Config) (*Session, error) {
	if config.Transport == nil {
		return nil, fmt.Errorf("editor: Config.Transport is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		store:  newBaselineStore(config.Transport, logger),
		drafts: newRegistry(),
		logger: logger,
	}, nil
}

// Form carries the scalar fields submitted for a commit. The values
// are validated together with the draft's update entries; on success
// they become the committed record's scalar fields.
type Form struct {
	Status           string
	AffectedServices string
	Summary          string
	Date             string
}

// Snapshot is a read-only projection of the session for rendering:
// cloned records (position = index), the overall dirty flag, the open
// draft keys, and the version tag the baseline was read under. It
// reflects the canonical list, not draft contents.
type Snapshot struct {
	Records    []status.Record
	Dirty      bool
	DraftKeys  []Key
	VersionTag string
}

// CommitResult reports where a committed draft landed.
type CommitResult struct {
	// Index is the record's position in the canonical list: the
	// draft's key for an edit, the appended position for a create.
	Index int
	// Record is the committed content.
	Record status.Record
}

// DeleteResult reports what a DeleteRecord removed.
type DeleteResult struct {
	// Removed is the record that was deleted.
	Removed status.Record
	// DiscardedDrafts lists draft keys that were discarded because
	// the deletion made them stale: the deleted index itself and
	// every higher-keyed draft, whose records all shifted down one
	// position. Surfaces tell the operator so the work is not lost
	// silently.
	DiscardedDrafts []Key
}

// PublishResult reports the outcome of a Publish.
type PublishResult struct {
	// Published is false when there was nothing to publish (the
	// session was clean); no remote call was made.
	Published bool
	// VersionTag is the tag after the operation: the new remote
	// revision if published, the held tag otherwise.
	VersionTag string
	// RecordCount is the number of records in the published
	// document. Zero when Published is false.
	RecordCount int
}

// Load fetches the remote baseline. See baselineStore.Load for the
// fail-soft contract.
func (s *Session) Load(ctx context.Context) error {
	return s.store.Load(ctx)
}

// Snapshot returns the rendering projection of the current state.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Records:    s.store.canonical.Clone(),
		Dirty:      s.store.Dirty(),
		DraftKeys:  s.drafts.Keys(),
		VersionTag: s.store.tag,
	}
}

// Record returns a copy of the canonical record at index.
func (s *Session) Record(index int) (status.Record, error) {
	if index < 0 || index >= len(s.store.canonical) {
		return status.Record{}, &IndexOutOfRangeError{Index: index, Length: len(s.store.canonical)}
	}
	return s.store.canonical[index].Clone(), nil
}

// Dirty reports whether the canonical list differs from the baseline.
func (s *Session) Dirty() bool { return s.store.Dirty() }

// VersionTag returns the tag the baseline was read under.
func (s *Session) VersionTag() string { return s.store.tag }

// LastLoadError returns the most recent Load failure, nil after a
// successful load.
func (s *Session) LastLoadError() error { return s.store.LastLoadError() }

// BeginEdit opens a draft for the record at index, replacing any
// draft already open at that key.
func (s *Session) BeginEdit(index int) (Draft, error) {
	if index < 0 || index >= len(s.store.canonical) {
		return Draft{}, &IndexOutOfRangeError{Index: index, Length: len(s.store.canonical)}
	}
	key := Key(index)
	s.drafts.Begin(key, s.store.canonical[index])
	return s.draftView(key), nil
}

// BeginCreate opens the creation draft from the empty record
// template, replacing any creation draft already open.
func (s *Session) BeginCreate() Draft {
	s.drafts.Begin(KeyNew, status.EmptyRecord())
	return s.draftView(KeyNew)
}

// Draft returns a snapshot of the open draft at key.
func (s *Session) Draft(key Key) (Draft, error) {
	if _, ok := s.drafts.Get(key); !ok {
		return Draft{}, &NoSuchDraftError{Key: key}
	}
	return s.draftView(key), nil
}

// Drafts returns snapshots of every open draft, ordered by key with
// the creation draft first.
func (s *Session) Drafts() []Draft {
	keys := s.drafts.Keys()
	drafts := make([]Draft, 0, len(keys))
	for _, key := range keys {
		drafts = append(drafts, s.draftView(key))
	}
	return drafts
}

// SetField sets a scalar field on the draft at key and returns the
// refreshed draft.
func (s *Session) SetField(key Key, field Field, value string) (Draft, error) {
	if err := s.drafts.MutateField(key, field, value); err != nil {
		return Draft{}, err
	}
	return s.draftView(key), nil
}

// SetEntryField sets one field of an update entry on the draft at key
// and returns the refreshed draft.
func (s *Session) SetEntryField(key Key, entryIndex int, field EntryField, value string) (Draft, error) {
	if err := s.drafts.MutateEntryField(key, entryIndex, field, value); err != nil {
		return Draft{}, err
	}
	return s.draftView(key), nil
}

// AddUpdateEntry appends an empty update entry to the draft at key
// and returns the refreshed draft.
func (s *Session) AddUpdateEntry(key Key) (Draft, error) {
	if err := s.drafts.AddEntry(key); err != nil {
		return Draft{}, err
	}
	return s.draftView(key), nil
}

// RemoveUpdateEntry removes the update entry at entryIndex from the
// draft at key and returns the refreshed draft. Remaining entries
// keep their relative order; entries after the removed one now sit
// one index lower.
func (s *Session) RemoveUpdateEntry(key Key, entryIndex int) (Draft, error) {
	if err := s.drafts.RemoveEntry(key, entryIndex); err != nil {
		return Draft{}, err
	}
	return s.draftView(key), nil
}

// Commit validates the submitted form together with the draft's
// update entries and, when everything passes, writes the result into
// the canonical list: an edit overwrites the record at the draft's
// key, a creation appends. The draft is discarded on success.
//
// Any violation aborts the whole commit: the canonical list and the
// draft are both left exactly as they were, and the returned
// *ValidationError carries every violated field, not just the first.
func (s *Session) Commit(key Key, form Form) (CommitResult, error) {
	draftRecord, ok := s.drafts.Get(key)
	if !ok {
		return CommitResult{}, &NoSuchDraftError{Key: key}
	}
	if !key.IsNew() && int(key) >= len(s.store.canonical) {
		// The draft outlived its record. DeleteRecord discards
		// stale drafts, so this only happens if a caller holds a
		// key across operations it should not.
		return CommitResult{}, &IndexOutOfRangeError{Index: int(key), Length: len(s.store.canonical)}
	}

	candidate := draftRecord.Clone()
	applyForm(&candidate, form)

	if violations := status.ValidateRecord(candidate); len(violations) > 0 {
		return CommitResult{}, &ValidationError{Violations: violations}
	}

	var index int
	if key.IsNew() {
		s.store.canonical = append(s.store.canonical, candidate)
		index = len(s.store.canonical) - 1
	} else {
		index = int(key)
		s.store.canonical[index] = candidate
	}
	s.drafts.Discard(key)

	s.logger.Info("draft committed", "key", key.String(), "index", index, "dirty", s.store.Dirty())
	return CommitResult{Index: index, Record: candidate.Clone()}, nil
}

// DeleteRecord removes the record at index from the canonical list.
// Records after it shift down one position. The draft at the deleted
// key and every higher-keyed draft are discarded: their keys no
// longer name the records they were opened against, and silently
// re-pointing them would hand the operator an edit of the wrong
// record. The discarded keys are reported in the result.
func (s *Session) DeleteRecord(index int) (DeleteResult, error) {
	if index < 0 || index >= len(s.store.canonical) {
		return DeleteResult{}, &IndexOutOfRangeError{Index: index, Length: len(s.store.canonical)}
	}

	removed := s.store.canonical[index]
	s.store.canonical = append(s.store.canonical[:index], s.store.canonical[index+1:]...)

	var discarded []Key
	for _, key := range s.drafts.Keys() {
		if key.IsNew() || int(key) < index {
			continue
		}
		s.drafts.Discard(key)
		discarded = append(discarded, key)
	}

	s.logger.Info("record deleted", "index", index, "discarded_drafts", len(discarded))
	return DeleteResult{Removed: removed, DiscardedDrafts: discarded}, nil
}

// DiscardDraft closes the draft at key without committing.
// Idempotent: discarding an absent draft is not an error.
func (s *Session) DiscardDraft(key Key) {
	s.drafts.Discard(key)
}

// DiscardAllChanges resets the session: every draft is closed and the
// baseline is reloaded from the remote. Returns the reload error, if
// any; the drafts are cleared either way.
func (s *Session) DiscardAllChanges(ctx context.Context) error {
	s.drafts.DiscardAll()
	return s.store.Load(ctx)
}

// Publish writes the canonical list to the remote, conditioned on the
// version tag the baseline was read under. When the session is clean
// it returns Published == false without any remote call. On success
// the baseline is rebased to the published content and the new tag is
// held. On *VersionMismatchError or *TransportError the session state
// is untouched and the error is returned as-is; this layer never
// retries.
func (s *Session) Publish(ctx context.Context, message string) (PublishResult, error) {
	if !s.store.Dirty() {
		return PublishResult{Published: false, VersionTag: s.store.tag}, nil
	}

	newTag, err := s.store.transport.Publish(ctx, s.store.canonical, s.store.tag, message)
	if err != nil {
		return PublishResult{}, err
	}

	s.store.Rebase(newTag)
	s.logger.Info("document published", "records", len(s.store.canonical), "version_tag", newTag)
	return PublishResult{
		Published:   true,
		VersionTag:  newTag,
		RecordCount: len(s.store.canonical),
	}, nil
}

// draftView clones the draft at key into a rendering snapshot. The
// key must be open; callers check first.
func (s *Session) draftView(key Key) Draft {
	record, _ := s.drafts.Get(key)
	return Draft{Key: key, Record: record.Clone()}
}

// applyForm writes the form's scalar values onto the candidate
// record. The status value is normalised through ParseSeverity when
// it is a known spelling; anything else is stored raw so validation
// reports it with the other field problems.
func applyForm(record *status.Record, form Form) {
	if severity, err := status.ParseSeverity(form.Status); err == nil {
		record.Status = severity
	} else {
		record.Status = status.Severity(form.Status)
	}
	record.AffectedServices = form.AffectedServices
	record.Summary = form.Summary
	record.Date = form.Date
}
