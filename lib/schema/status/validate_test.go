// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package status

import "testing"

func TestValidateRecordCleanRecord(t *testing.T) {
	violations := ValidateRecord(validRecord())
	if len(violations) != 0 {
		t.Errorf("valid record produced violations: %v", violations)
	}
}

func TestValidateRecordSingleFieldRules(t *testing.T) {
	cases := []struct {
		name      string
		mutate    func(*Record)
		wantField string
	}{
		{"unknown severity", func(r *Record) { r.Status = "exploded" }, "status"},
		{"empty services", func(r *Record) { r.AffectedServices = "" }, "affectedServices"},
		{"empty summary", func(r *Record) { r.Summary = "" }, "summary"},
		{"bad record date", func(r *Record) { r.Date = "yesterday" }, "date"},
		{"impossible record date", func(r *Record) { r.Date = "2024-02-30T10:00" }, "date"},
		{"no updates", func(r *Record) { r.Updates = nil }, "updates"},
		{"bad update date", func(r *Record) { r.Updates[0].Date = "2024" }, "updates[0].date"},
		{"empty details", func(r *Record) { r.Updates[1].Details = "" }, "updates[1].details"},
		{"bad url", func(r *Record) { r.Updates[1].URL = "ftp://files.example" }, "updates[1].url"},
		{"relative url", func(r *Record) { r.Updates[1].URL = "status/page" }, "updates[1].url"},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			record := validRecord()
			testCase.mutate(&record)

			violations := ValidateRecord(record)
			if len(violations) != 1 {
				t.Fatalf("got %d violations %v, want exactly 1", len(violations), violations)
			}
			if _, ok := violations[testCase.wantField]; !ok {
				t.Errorf("violation keyed %v, want field %q", violations.Fields(), testCase.wantField)
			}
		})
	}
}

func TestValidateRecordCollectsAllViolations(t *testing.T) {
	record := Record{
		Status:           "bogus",
		AffectedServices: "",
		Summary:          "",
		Date:             "not a date",
		Updates: []Update{
			{Date: "also bad", Details: "", URL: "nope"},
		},
	}

	violations := ValidateRecord(record)
	wantFields := []string{
		"affectedServices",
		"date",
		"status",
		"summary",
		"updates[0].date",
		"updates[0].details",
		"updates[0].url",
	}
	gotFields := violations.Fields()
	if len(gotFields) != len(wantFields) {
		t.Fatalf("got fields %v, want %v", gotFields, wantFields)
	}
	for i, field := range wantFields {
		if gotFields[i] != field {
			t.Errorf("field[%d] = %q, want %q", i, gotFields[i], field)
		}
	}
}

func TestValidateRecordEmptyURLAllowed(t *testing.T) {
	record := validRecord()
	record.Updates[0].URL = ""
	if violations := ValidateRecord(record); len(violations) != 0 {
		t.Errorf("empty url flagged: %v", violations)
	}
}

func TestValidURL(t *testing.T) {
	valid := []string{
		"https://status.example.org",
		"http://ceda.ac.uk/status",
		"https://example.org/path%20with%20escape",
	}
	for _, value := range valid {
		if !ValidURL(value) {
			t.Errorf("ValidURL(%q) = false", value)
		}
	}
	invalid := []string{"", "ftp://example.org", "example.org", "https://", "mailto:ops@example.org"}
	for _, value := range invalid {
		if ValidURL(value) {
			t.Errorf("ValidURL(%q) = true", value)
		}
	}
}
