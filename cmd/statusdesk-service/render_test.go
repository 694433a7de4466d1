// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/statusdesk/statusdesk/lib/editor"
	"github.com/statusdesk/statusdesk/lib/schema/status"
)

func TestNoticeFromMarkdown(t *testing.T) {
	source := "**Published** — 2 record(s)."
	content := noticeFromMarkdown(source)

	if content.MsgType != "m.notice" {
		t.Errorf("msgtype = %q, want m.notice", content.MsgType)
	}
	if content.Body != source {
		t.Errorf("body = %q, want the markdown verbatim", content.Body)
	}
	if content.Format != "org.matrix.custom.html" {
		t.Errorf("format = %q", content.Format)
	}
	if !strings.Contains(content.FormattedBody, "<strong>Published</strong>") {
		t.Errorf("formatted body %q lacks the bold span", content.FormattedBody)
	}
}

func TestNoticeEscapesRawHTML(t *testing.T) {
	content := noticeFromMarkdown(`summary: <script>alert(1)</script>`)
	if strings.Contains(content.FormattedBody, "<script>") {
		t.Errorf("formatted body %q carries raw HTML through", content.FormattedBody)
	}
}

func TestSeverityLabel(t *testing.T) {
	cases := []struct {
		severity status.Severity
		want     string
	}{
		{status.SeverityResolved, "✅ resolved"},
		{status.SeverityDegraded, "☢️ degraded"},
		{status.SeverityDown, "⛔️ down"},
		{status.SeverityAtRisk, "⚠️ at risk"},
		{status.Severity("weird"), "weird"},
	}
	for _, c := range cases {
		if got := severityLabel(c.severity); got != c.want {
			t.Errorf("severityLabel(%q) = %q, want %q", c.severity, got, c.want)
		}
	}
}

// TestHelpCoversEveryCommand guards the order list against drift: a
// command registered in the map but missing from the order would
// silently vanish from help.
func TestHelpCoversEveryCommand(t *testing.T) {
	if len(chatCommandOrder) != len(chatCommands) {
		t.Errorf("order lists %d commands, map has %d", len(chatCommandOrder), len(chatCommands))
	}
	help := renderHelp()
	for name, command := range chatCommands {
		if !strings.Contains(help, "`!status "+command.usage+"`") {
			t.Errorf("help does not mention %q", name)
		}
	}
}

func TestRenderListLoadFailure(t *testing.T) {
	reply := renderList(editor.Snapshot{}, errors.New("connection refused"))
	if !strings.Contains(reply, "The working list is empty.") {
		t.Errorf("reply %q lacks the empty-list line", reply)
	}
	if !strings.Contains(reply, "last load of the published file failed") {
		t.Errorf("reply %q does not surface the load failure", reply)
	}
	if !strings.Contains(reply, "connection refused") {
		t.Errorf("reply %q drops the cause", reply)
	}
	if !strings.Contains(reply, "`!status reset` retries") {
		t.Errorf("reply %q lacks the recovery hint", reply)
	}
}

func TestRenderListTrailers(t *testing.T) {
	snapshot := editor.Snapshot{
		Records:   sampleDocument(),
		Dirty:     true,
		DraftKeys: []editor.Key{0, editor.KeyNew},
	}
	reply := renderList(snapshot, nil)
	if !strings.Contains(reply, "Open drafts: `0`, `new`.") {
		t.Errorf("reply %q lacks the draft trailer", reply)
	}
	if !strings.Contains(reply, "Unpublished changes") {
		t.Errorf("reply %q lacks the dirty trailer", reply)
	}
}

func TestRenderViolationsSortsFields(t *testing.T) {
	violations := status.Violations{
		"updates[1].date":  "Date must be in format YYYY-MM-DDThh:mm (e.g. 2024-05-20T14:30)",
		"summary":          "Summary cannot be empty",
		"affectedServices": "Service name cannot be empty",
	}
	reply := renderViolations(violations)
	if !strings.Contains(reply, "3 field(s) need attention") {
		t.Errorf("reply %q miscounts", reply)
	}
	services := strings.Index(reply, "`affectedServices`")
	summary := strings.Index(reply, "`summary`")
	date := strings.Index(reply, "`updates[1].date`")
	if services < 0 || summary < 0 || date < 0 {
		t.Fatalf("reply %q misses a field", reply)
	}
	if !(services < summary && summary < date) {
		t.Errorf("fields out of order in %q", reply)
	}
}

func TestRenderErrorVariants(t *testing.T) {
	mismatch := renderError(&editor.VersionMismatchError{Tag: "blob-1"})
	if !strings.Contains(mismatch, "`!status reset` reloads it") {
		t.Errorf("mismatch reply %q lacks the recovery hint", mismatch)
	}

	transport := renderError(&editor.TransportError{Op: "publish", Err: errors.New("502 bad gateway")})
	if !strings.Contains(transport, "Talking to the published file failed (publish)") {
		t.Errorf("transport reply %q", transport)
	}
	if !strings.Contains(transport, "502 bad gateway") {
		t.Errorf("transport reply %q drops the cause", transport)
	}

	generic := renderError(fmt.Errorf("editor: index 7 out of range (length 2)"))
	if !strings.HasPrefix(generic, "That didn't work:") {
		t.Errorf("generic reply %q", generic)
	}
}

func TestShortSHA(t *testing.T) {
	if got := shortSHA("0123456789abcdef"); got != "0123456" {
		t.Errorf("shortSHA = %q", got)
	}
	if got := shortSHA("abc"); got != "abc" {
		t.Errorf("shortSHA of a short value = %q", got)
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("Update service status\n\nDetails below"); got != "Update service status" {
		t.Errorf("firstLine = %q", got)
	}
	if got := firstLine("single"); got != "single" {
		t.Errorf("firstLine = %q", got)
	}
}
