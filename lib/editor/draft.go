// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package editor

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/statusdesk/statusdesk/lib/schema/status"
)

// Key identifies a draft: a non-negative record index for an edit of
// an existing record, or KeyNew for a record being created.
type Key int

// KeyNew is the reserved draft key for a record that does not exist
// in the canonical list yet.
const KeyNew Key = -1

// IsNew reports whether the key is the creation sentinel.
func (k Key) IsNew() bool { return k == KeyNew }

// String renders the key the way commands accept it: "new" for the
// creation sentinel, the decimal index otherwise.
func (k Key) String() string {
	if k == KeyNew {
		return "new"
	}
	return strconv.Itoa(int(k))
}

// ParseKey converts command input to a Key. Accepts "new" or a
// non-negative decimal index.
func ParseKey(raw string) (Key, error) {
	if raw == "new" {
		return KeyNew, nil
	}
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		return 0, fmt.Errorf("editor: invalid draft key %q (expected a record index or \"new\")", raw)
	}
	return Key(index), nil
}

// Field names a scalar record field a draft mutation can set.
type Field string

const (
	FieldStatus           Field = "status"
	FieldAffectedServices Field = "affectedServices"
	FieldSummary          Field = "summary"
	FieldDate             Field = "date"
)

// ParseField converts command input to a Field. Accepts the JSON
// field names plus the shorthand "services".
func ParseField(raw string) (Field, error) {
	switch raw {
	case "status":
		return FieldStatus, nil
	case "affectedServices", "services":
		return FieldAffectedServices, nil
	case "summary":
		return FieldSummary, nil
	case "date":
		return FieldDate, nil
	}
	return "", fmt.Errorf("editor: unknown record field %q (expected status, services, summary, or date)", raw)
}

// EntryField names a field of one update entry.
type EntryField string

const (
	EntryFieldDate    EntryField = "date"
	EntryFieldDetails EntryField = "details"
	EntryFieldURL     EntryField = "url"
)

// ParseEntryField converts command input to an EntryField.
func ParseEntryField(raw string) (EntryField, error) {
	switch raw {
	case "date":
		return EntryFieldDate, nil
	case "details":
		return EntryFieldDetails, nil
	case "url":
		return EntryFieldURL, nil
	}
	return "", fmt.Errorf("editor: unknown update field %q (expected date, details, or url)", raw)
}

// Draft is a read-only snapshot of one open draft, safe to hand to
// rendering code: the record is a deep copy.
type Draft struct {
	// Key is the draft's key: the record index being edited, or
	// KeyNew for a creation.
	Key Key

	// Record is the draft's current content.
	Record status.Record
}

// Form extracts the draft's scalar fields as a commit form. Surfaces
// that edit incrementally (chat commands) commit whatever the draft
// holds; surfaces with their own form (the CLI's record files) build
// a Form directly.
func (d Draft) Form() Form {
	return Form{
		Status:           string(d.Record.Status),
		AffectedServices: d.Record.AffectedServices,
		Summary:          d.Record.Summary,
		Date:             d.Record.Date,
	}
}

// registry holds the open drafts. At most one draft per key; Begin on
// an occupied key replaces the draft, so there is no draft history or
// undo. All access is from the owning session's goroutine.
type registry struct {
	drafts map[Key]*status.Record
}

func newRegistry() *registry {
	return &registry{drafts: make(map[Key]*status.Record)}
}

// Begin opens a draft at key as a deep copy of source, discarding any
// draft already open there. Subsequent mutations touch only the copy
// until an explicit commit.
func (r *registry) Begin(key Key, source status.Record) {
	record := source.Clone()
	r.drafts[key] = &record
}

// Get returns the live draft record, or false if no draft is open at
// key. Callers outside this package see only cloned Draft snapshots.
func (r *registry) Get(key Key) (*status.Record, bool) {
	record, ok := r.drafts[key]
	return record, ok
}

// MutateField sets a scalar field on the draft at key. The status
// field is normalised through ParseSeverity when the value is a known
// spelling; unknown values are stored raw and flagged at commit.
func (r *registry) MutateField(key Key, field Field, value string) error {
	record, ok := r.drafts[key]
	if !ok {
		return &NoSuchDraftError{Key: key}
	}
	switch field {
	case FieldStatus:
		if severity, err := status.ParseSeverity(value); err == nil {
			record.Status = severity
		} else {
			record.Status = status.Severity(value)
		}
	case FieldAffectedServices:
		record.AffectedServices = value
	case FieldSummary:
		record.Summary = value
	case FieldDate:
		record.Date = value
	default:
		return fmt.Errorf("editor: unknown record field %q", field)
	}
	return nil
}

// MutateEntryField sets one field of the update entry at entryIndex
// on the draft at key.
func (r *registry) MutateEntryField(key Key, entryIndex int, field EntryField, value string) error {
	record, ok := r.drafts[key]
	if !ok {
		return &NoSuchDraftError{Key: key}
	}
	if entryIndex < 0 || entryIndex >= len(record.Updates) {
		return &IndexOutOfRangeError{Index: entryIndex, Length: len(record.Updates)}
	}
	switch field {
	case EntryFieldDate:
		record.Updates[entryIndex].Date = value
	case EntryFieldDetails:
		record.Updates[entryIndex].Details = value
	case EntryFieldURL:
		record.Updates[entryIndex].URL = value
	default:
		return fmt.Errorf("editor: unknown update field %q", field)
	}
	return nil
}

// AddEntry appends one empty update entry to the draft at key.
func (r *registry) AddEntry(key Key) error {
	record, ok := r.drafts[key]
	if !ok {
		return &NoSuchDraftError{Key: key}
	}
	record.Updates = append(record.Updates, status.Update{})
	return nil
}

// RemoveEntry removes the update entry at entryIndex from the draft
// at key. Entries after it shift down one position; callers must not
// cache entry indices across a removal.
func (r *registry) RemoveEntry(key Key, entryIndex int) error {
	record, ok := r.drafts[key]
	if !ok {
		return &NoSuchDraftError{Key: key}
	}
	if entryIndex < 0 || entryIndex >= len(record.Updates) {
		return &IndexOutOfRangeError{Index: entryIndex, Length: len(record.Updates)}
	}
	record.Updates = append(record.Updates[:entryIndex], record.Updates[entryIndex+1:]...)
	return nil
}

// Discard deletes the draft at key if one is open. Idempotent.
func (r *registry) Discard(key Key) {
	delete(r.drafts, key)
}

// DiscardAll clears every open draft.
func (r *registry) DiscardAll() {
	clear(r.drafts)
}

// Keys returns the open draft keys in ascending order (KeyNew first).
func (r *registry) Keys() []Key {
	keys := make([]Key, 0, len(r.drafts))
	for key := range r.drafts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
