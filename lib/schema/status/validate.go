// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package status

import (
	"fmt"
	"regexp"
	"sort"
)

// Validation messages are operator-facing and rendered verbatim by
// both the chat and CLI surfaces.
const (
	msgUpdatesRequired = "At least one update is required"
	msgServicesEmpty   = "Service name cannot be empty"
	msgSummaryEmpty    = "Summary cannot be empty"
	msgDetailsEmpty    = "Details cannot be empty"
	msgBadDate         = "Date must be in format YYYY-MM-DDThh:mm (e.g. 2024-05-20T14:30)"
	msgBadURL          = "Please enter a valid URL starting with http:// or https://"
	msgBadSeverity     = "Status must be one of: resolved, degraded, down, at risk"
)

// urlPattern accepts absolute HTTP(S) URLs: scheme, then one or more
// host/path characters or percent escapes.
var urlPattern = regexp.MustCompile(`^https?://(?:[-\w.]|%[0-9a-fA-F]{2})+`)

// ValidURL reports whether value looks like an absolute HTTP or HTTPS
// URL. Only the shape is checked; no network resolution.
func ValidURL(value string) bool {
	return urlPattern.MatchString(value)
}

// Violations maps a field path to its validation message. Paths are
// "status", "affectedServices", "summary", "date", "updates" (for the
// at-least-one rule), and "updates[i].date" / "updates[i].details" /
// "updates[i].url" for entry fields.
//
// An empty map means the record is valid.
type Violations map[string]string

// Add records a violation for a field. Later additions for the same
// field overwrite earlier ones; each field carries one message.
func (v Violations) Add(field, message string) {
	v[field] = message
}

// Fields returns the violated field paths in sorted order, for
// deterministic rendering.
func (v Violations) Fields() []string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// ValidateRecord checks every field of a record bound for the
// document and returns all violations at once, never just the first.
// The rules:
//
//   - status must be a known severity
//   - affectedServices and summary must be non-empty
//   - date must be a real timestamp in DateFormat
//   - at least one update entry must exist
//   - each update needs a valid date and non-empty details
//   - an update's url, when present, must be an HTTP(S) URL
func ValidateRecord(record Record) Violations {
	violations := Violations{}

	if !record.Status.Valid() {
		violations.Add("status", msgBadSeverity)
	}
	if record.AffectedServices == "" {
		violations.Add("affectedServices", msgServicesEmpty)
	}
	if record.Summary == "" {
		violations.Add("summary", msgSummaryEmpty)
	}
	if !ValidDate(record.Date) {
		violations.Add("date", msgBadDate)
	}

	if len(record.Updates) == 0 {
		violations.Add("updates", msgUpdatesRequired)
	}
	for i, update := range record.Updates {
		if !ValidDate(update.Date) {
			violations.Add(fmt.Sprintf("updates[%d].date", i), msgBadDate)
		}
		if update.Details == "" {
			violations.Add(fmt.Sprintf("updates[%d].details", i), msgDetailsEmpty)
		}
		if update.URL != "" && !ValidURL(update.URL) {
			violations.Add(fmt.Sprintf("updates[%d].url", i), msgBadURL)
		}
	}

	return violations
}
