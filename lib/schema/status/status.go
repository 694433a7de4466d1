// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

// Package status defines the service-status document schema: the
// record and update-entry types, the JSON wire format of the
// published document, and field-level validation.
//
// The document is an ordered JSON array of records. Position in the
// array is a record's identity for an editing session; records carry
// no IDs of their own. Decoding is the trust boundary: everything
// past it works with typed records, and validation reports problems
// per field so a UI can show them all at once.
package status

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Severity is the reported condition of the affected services.
// Serialised as a lowercase string; the "at risk" value contains a
// space in the wire format.
type Severity string

const (
	// SeverityResolved marks an incident that has been fixed. The
	// record stays in the document as recent history.
	SeverityResolved Severity = "resolved"

	// SeverityDegraded marks services running with reduced
	// performance or partial functionality.
	SeverityDegraded Severity = "degraded"

	// SeverityDown marks a full outage of the affected services.
	SeverityDown Severity = "down"

	// SeverityAtRisk marks services that are up but expected to be
	// disrupted (planned maintenance, upstream incidents).
	SeverityAtRisk Severity = "at risk"
)

// Severities lists every valid severity in display order.
var Severities = []Severity{SeverityResolved, SeverityDegraded, SeverityDown, SeverityAtRisk}

// ParseSeverity converts operator input to a Severity. Accepts the
// wire strings plus the spaceless "atrisk" and "at-risk" spellings
// that are easier to type in a chat command.
func ParseSeverity(raw string) (Severity, error) {
	switch raw {
	case "resolved":
		return SeverityResolved, nil
	case "degraded":
		return SeverityDegraded, nil
	case "down":
		return SeverityDown, nil
	case "at risk", "atrisk", "at-risk":
		return SeverityAtRisk, nil
	}
	return "", fmt.Errorf("status: unknown severity %q (expected resolved, degraded, down, or at risk)", raw)
}

// Valid reports whether the severity is one of the four known values.
// Documents fetched from the remote may carry anything; unknown
// severities survive load and render but fail commit validation.
func (s Severity) Valid() bool {
	switch s {
	case SeverityResolved, SeverityDegraded, SeverityDown, SeverityAtRisk:
		return true
	}
	return false
}

// String returns the wire string.
func (s Severity) String() string { return string(s) }

// Glyph returns the emoji shown next to the severity in rendered
// output. Unknown severities render without a glyph.
func (s Severity) Glyph() string {
	switch s {
	case SeverityResolved:
		return "✅"
	case SeverityDegraded:
		return "☢️"
	case SeverityDown:
		return "⛔️"
	case SeverityAtRisk:
		return "⚠️"
	}
	return ""
}

// DateFormat is the timestamp layout used throughout the document:
// ISO 8601 truncated to minute precision, no zone.
const DateFormat = "2006-01-02T15:04"

// Update is one progress note on a record. Updates are kept in the
// order they were added (chronological entry order); they are never
// re-sorted.
type Update struct {
	// Date is when the update was posted, in DateFormat.
	Date string `json:"date"`

	// Details is the update text. Markdown is allowed; renderers
	// decide how much of it to honour.
	Details string `json:"details"`

	// URL optionally links to a fuller writeup. When present it
	// must be an absolute HTTP or HTTPS URL.
	URL string `json:"url,omitempty"`
}

// Record is one service-status entry.
type Record struct {
	// Status is the current severity for the affected services.
	Status Severity `json:"status"`

	// AffectedServices names the impacted services, free-form
	// (e.g. "JASMIN transfer servers" or "API, dashboard").
	AffectedServices string `json:"affectedServices"`

	// Summary is a one-line description of the incident.
	Summary string `json:"summary"`

	// Date is when the incident was opened, in DateFormat.
	Date string `json:"date"`

	// Updates is the progress history, oldest first. A record must
	// have at least one update before it can be committed to the
	// document.
	Updates []Update `json:"updates"`
}

// EmptyRecord returns the template for a record being created: status
// Resolved, all text fields blank, no updates. Matches the shape the
// editing surfaces present for a brand-new entry.
func EmptyRecord() Record {
	return Record{Status: SeverityResolved, Updates: []Update{}}
}

// Clone returns a deep copy. The copy shares no mutable state with
// the receiver; mutating one never shows through the other.
func (r Record) Clone() Record {
	duplicate := r
	duplicate.Updates = make([]Update, len(r.Updates))
	copy(duplicate.Updates, r.Updates)
	return duplicate
}

// Equal reports order-sensitive structural equality: every field of
// both records, including each update entry in sequence, must match.
func (r Record) Equal(other Record) bool {
	if r.Status != other.Status ||
		r.AffectedServices != other.AffectedServices ||
		r.Summary != other.Summary ||
		r.Date != other.Date ||
		len(r.Updates) != len(other.Updates) {
		return false
	}
	for i := range r.Updates {
		if r.Updates[i] != other.Updates[i] {
			return false
		}
	}
	return true
}

// Document is the full ordered record list as published.
type Document []Record

// DecodeDocument parses the published JSON array. An empty or
// whitespace-only payload decodes to an empty document, matching a
// status file that has been cleared rather than deleted.
func DecodeDocument(data []byte) (Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Document{}, nil
	}
	var document Document
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("status: decoding document: %w", err)
	}
	// null decodes to a nil slice; normalise so callers can append.
	if document == nil {
		document = Document{}
	}
	for i := range document {
		if document[i].Updates == nil {
			document[i].Updates = []Update{}
		}
	}
	return document, nil
}

// Encode serialises the document in the published wire form:
// two-space indentation and a trailing newline, so the file diffs
// cleanly under version control.
func (d Document) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("status: encoding document: %w", err)
	}
	return append(data, '\n'), nil
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	duplicate := make(Document, len(d))
	for i, record := range d {
		duplicate[i] = record.Clone()
	}
	return duplicate
}

// Equal reports order-sensitive structural equality across the whole
// document: same length, and every record equal to its counterpart
// at the same position. A reorder counts as a change.
func (d Document) Equal(other Document) bool {
	if len(d) != len(other) {
		return false
	}
	for i := range d {
		if !d[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// ValidDate reports whether value matches DateFormat and names a real
// calendar timestamp. time.Parse does both: it enforces the layout
// shape and rejects impossible dates like February 30th.
func ValidDate(value string) bool {
	_, err := time.Parse(DateFormat, value)
	return err == nil
}
