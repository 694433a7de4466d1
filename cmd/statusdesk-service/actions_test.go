// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/statusdesk/statusdesk/lib/journal"
	"github.com/statusdesk/statusdesk/lib/schema/status"
	"github.com/statusdesk/statusdesk/lib/service"
)

// callError invokes an action expecting a daemon-side failure and
// returns its message.
func callError(t *testing.T, env *testEnv, action string, fields map[string]any) string {
	t.Helper()
	err := env.client.Call(context.Background(), action, fields, nil)
	if err == nil {
		t.Fatalf("Call %s: expected an error", action)
	}
	var serviceErr *service.Error
	if !errors.As(err, &serviceErr) {
		t.Fatalf("Call %s: error %v is not a service error", action, err)
	}
	return serviceErr.Message
}

// --- Liveness ---

func TestPingAction(t *testing.T) {
	env := newTestService(t, serviceOpts{})

	var response pingResponse
	env.call(t, "ping", nil, &response)
	if response.UptimeSeconds != 90 {
		t.Errorf("uptime = %v, want 90", response.UptimeSeconds)
	}
}

func TestUnknownActionRejected(t *testing.T) {
	env := newTestService(t, serviceOpts{})

	message := callError(t, env, "status.nonsense", nil)
	if !strings.Contains(message, "unknown action") {
		t.Errorf("message = %q, want unknown action", message)
	}
}

// --- Read-only views ---

func TestStatusListAction(t *testing.T) {
	env := newTestService(t, serviceOpts{seed: sampleDocument()})

	var response listResponse
	env.call(t, "status.list", nil, &response)

	if len(response.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(response.Records))
	}
	if response.Records[0].AffectedServices != "API" {
		t.Errorf("first record services = %q, want API", response.Records[0].AffectedServices)
	}
	if response.Records[0].Status != status.SeverityDown {
		t.Errorf("first record status = %q, want down", response.Records[0].Status)
	}
	if response.Dirty {
		t.Error("fresh session reported dirty")
	}
	if response.VersionTag != "blob-1" {
		t.Errorf("version tag = %q, want blob-1", response.VersionTag)
	}
	if response.LoadError != "" {
		t.Errorf("load error = %q, want empty", response.LoadError)
	}
	if len(response.DraftKeys) != 0 {
		t.Errorf("draft keys = %v, want none", response.DraftKeys)
	}
}

func TestStatusListReportsSessionState(t *testing.T) {
	env := newTestService(t, serviceOpts{seed: sampleDocument()})

	env.call(t, "status.draft.begin", map[string]any{"key": "new"}, nil)
	env.call(t, "status.delete", map[string]any{"index": 1}, nil)

	var response listResponse
	env.call(t, "status.list", nil, &response)
	if !response.Dirty {
		t.Error("session with a deletion reported clean")
	}
	if len(response.DraftKeys) != 1 || response.DraftKeys[0] != "new" {
		t.Errorf("draft keys = %v, want [new]", response.DraftKeys)
	}
}

func TestStatusShowAction(t *testing.T) {
	env := newTestService(t, serviceOpts{seed: sampleDocument()})

	var response recordResponse
	env.call(t, "status.show", map[string]any{"index": 1}, &response)
	if response.Index != 1 {
		t.Errorf("index = %d, want 1", response.Index)
	}
	if response.Record.Summary != "Delayed delivery" {
		t.Errorf("summary = %q", response.Record.Summary)
	}
	if len(response.Record.Updates) != 1 {
		t.Errorf("updates = %d, want 1", len(response.Record.Updates))
	}

	message := callError(t, env, "status.show", map[string]any{"index": 9})
	if !strings.Contains(message, "out of range") {
		t.Errorf("message = %q, want out of range", message)
	}
}

// --- Draft lifecycle ---

func TestDraftLifecycleOverSocket(t *testing.T) {
	env := newTestService(t, serviceOpts{})

	var draft draftResponse
	env.call(t, "status.draft.begin", map[string]any{"key": "new"}, &draft)
	if draft.Key != "new" {
		t.Errorf("draft key = %q, want new", draft.Key)
	}

	for field, value := range map[string]string{
		"status":   "degraded",
		"services": "API, Webhooks",
		"summary":  "Elevated error rates",
		"date":     "2026-03-01T12:00",
	} {
		env.call(t, "status.draft.set", map[string]any{
			"key": "new", "field": field, "value": value,
		}, &draft)
	}
	if draft.Record.AffectedServices != "API, Webhooks" {
		t.Errorf("services = %q after sets", draft.Record.AffectedServices)
	}

	env.call(t, "status.draft.add-update", map[string]any{"key": "new"}, &draft)
	if len(draft.Record.Updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(draft.Record.Updates))
	}
	env.call(t, "status.draft.set-update", map[string]any{
		"key": "new", "entry": 0, "field": "date", "value": "2026-03-01T12:05",
	}, &draft)
	env.call(t, "status.draft.set-update", map[string]any{
		"key": "new", "entry": 0, "field": "details", "value": "Investigating",
	}, &draft)

	var commit commitResponse
	env.call(t, "status.draft.commit", map[string]any{"key": "new"}, &commit)
	if !commit.Committed {
		t.Fatalf("commit rejected: %v", commit.Violations)
	}
	if commit.Index != 0 {
		t.Errorf("index = %d, want 0", commit.Index)
	}
	if commit.Record.Status != status.SeverityDegraded {
		t.Errorf("status = %q, want degraded", commit.Record.Status)
	}
	if !commit.Dirty {
		t.Error("session clean after committing a new record")
	}

	// The draft is closed by a successful commit.
	var drafts draftListResponse
	env.call(t, "status.draft.list", nil, &drafts)
	if len(drafts.Drafts) != 0 {
		t.Errorf("drafts = %d after commit, want 0", len(drafts.Drafts))
	}
}

func TestDraftCommitReturnsViolations(t *testing.T) {
	env := newTestService(t, serviceOpts{})

	env.call(t, "status.draft.begin", map[string]any{"key": "new"}, nil)

	var commit commitResponse
	env.call(t, "status.draft.commit", map[string]any{"key": "new"}, &commit)
	if commit.Committed {
		t.Fatal("empty draft committed")
	}
	if len(commit.Violations) != 5 {
		t.Fatalf("violations = %d, want 5: %v", len(commit.Violations), commit.Violations)
	}
	if commit.Violations["updates"] != "At least one update is required" {
		t.Errorf("updates violation = %q", commit.Violations["updates"])
	}

	// The rejected draft stays open.
	var drafts draftListResponse
	env.call(t, "status.draft.list", nil, &drafts)
	if len(drafts.Drafts) != 1 {
		t.Errorf("drafts = %d after rejected commit, want 1", len(drafts.Drafts))
	}
}

func TestDraftActionsRequireOpenDraft(t *testing.T) {
	env := newTestService(t, serviceOpts{seed: sampleDocument()})

	message := callError(t, env, "status.draft.commit", map[string]any{"key": "0"})
	if !strings.Contains(message, "no open draft") {
		t.Errorf("message = %q, want no open draft", message)
	}
	message = callError(t, env, "status.draft.set", map[string]any{
		"key": "0", "field": "summary", "value": "x",
	})
	if !strings.Contains(message, "no open draft") {
		t.Errorf("message = %q, want no open draft", message)
	}
}

func TestDraftBeginRejectsBadKey(t *testing.T) {
	env := newTestService(t, serviceOpts{})

	message := callError(t, env, "status.draft.begin", map[string]any{"key": "banana"})
	if !strings.Contains(message, "invalid draft key") {
		t.Errorf("message = %q, want invalid draft key", message)
	}
}

func TestDraftSetRejectsUnknownField(t *testing.T) {
	env := newTestService(t, serviceOpts{seed: sampleDocument()})

	env.call(t, "status.draft.begin", map[string]any{"key": "0"}, nil)
	message := callError(t, env, "status.draft.set", map[string]any{
		"key": "0", "field": "severity", "value": "down",
	})
	if !strings.Contains(message, "unknown record field") {
		t.Errorf("message = %q, want unknown record field", message)
	}
}

func TestDraftDiscardAction(t *testing.T) {
	env := newTestService(t, serviceOpts{seed: sampleDocument()})

	env.call(t, "status.draft.begin", map[string]any{"key": "0"}, nil)
	env.call(t, "status.draft.discard", map[string]any{"key": "0"}, nil)

	var drafts draftListResponse
	env.call(t, "status.draft.list", nil, &drafts)
	if len(drafts.Drafts) != 0 {
		t.Errorf("drafts = %d after discard, want 0", len(drafts.Drafts))
	}
}

// --- Mutations and remote operations ---

func TestDeleteAction(t *testing.T) {
	env := newTestService(t, serviceOpts{seed: sampleDocument()})

	env.call(t, "status.draft.begin", map[string]any{"key": "1"}, nil)

	var response deleteResponse
	env.call(t, "status.delete", map[string]any{"index": 0}, &response)
	if response.Removed.Summary != "Full outage" {
		t.Errorf("removed summary = %q", response.Removed.Summary)
	}
	if len(response.DiscardedDrafts) != 1 || response.DiscardedDrafts[0] != "1" {
		t.Errorf("discarded drafts = %v, want [1]", response.DiscardedDrafts)
	}
	if response.Records != 1 {
		t.Errorf("records = %d, want 1", response.Records)
	}
}

func TestResetAction(t *testing.T) {
	env := newTestService(t, serviceOpts{seed: sampleDocument()})

	env.call(t, "status.delete", map[string]any{"index": 0}, nil)
	env.github.drift(t, sampleDocument()[:1])

	var response resetResponse
	env.call(t, "status.reset", nil, &response)
	if response.Records != 1 {
		t.Errorf("records = %d, want 1", response.Records)
	}
	if response.VersionTag != "blob-2" {
		t.Errorf("version tag = %q, want blob-2", response.VersionTag)
	}
}

func TestPublishAction(t *testing.T) {
	env := newTestService(t, serviceOpts{seed: sampleDocument()})

	env.call(t, "status.delete", map[string]any{"index": 1}, nil)

	var response publishResponse
	env.call(t, "status.publish", nil, &response)
	if !response.Published {
		t.Fatal("expected a publish")
	}
	if response.Records != 1 {
		t.Errorf("records = %d, want 1", response.Records)
	}
	if response.VersionTag != "blob-2" {
		t.Errorf("version tag = %q, want blob-2", response.VersionTag)
	}
	if response.CommitSHA != commitSHA(2) {
		t.Errorf("commit sha = %q, want %q", response.CommitSHA, commitSHA(2))
	}
	if response.CommitURL == "" {
		t.Error("commit URL missing")
	}
	if response.PageURL != "https://status.example.com" {
		t.Errorf("page URL = %q", response.PageURL)
	}

	// Socket publishes are attributed to the service account, both in
	// the commit message and the journal.
	wantMessage := "Update service status (via statusdesk by @statusdesk:local)"
	if env.github.lastMessage() != wantMessage {
		t.Errorf("commit message = %q, want %q", env.github.lastMessage(), wantMessage)
	}
	frames, err := journal.Read(env.journalPath)
	if err != nil {
		t.Fatalf("journal.Read: %v", err)
	}
	if len(frames) != 1 || frames[0].Entry.Operator != serviceUserID {
		t.Errorf("journal = %+v, want one frame by %s", frames, serviceUserID)
	}
}

func TestPublishActionClean(t *testing.T) {
	env := newTestService(t, serviceOpts{seed: sampleDocument()})

	var response publishResponse
	env.call(t, "status.publish", nil, &response)
	if response.Published {
		t.Error("clean session published")
	}
	if response.CommitSHA != "" {
		t.Errorf("commit sha = %q, want empty", response.CommitSHA)
	}
	if response.VersionTag != "blob-1" {
		t.Errorf("version tag = %q, want the held tag", response.VersionTag)
	}
}

func TestPublishActionConflict(t *testing.T) {
	env := newTestService(t, serviceOpts{seed: sampleDocument()})

	env.call(t, "status.delete", map[string]any{"index": 0}, nil)
	env.github.drift(t, sampleDocument())

	message := callError(t, env, "status.publish", nil)
	if !strings.Contains(message, "remote content changed since it was loaded") {
		t.Errorf("message = %q, want the version mismatch", message)
	}
}

func TestHistoryAction(t *testing.T) {
	env := newTestService(t, serviceOpts{seed: sampleDocument()})
	env.github.drift(t, sampleDocument())
	env.github.drift(t, sampleDocument())

	var response historyResponse
	env.call(t, "status.history", nil, &response)
	if response.Path != testStatusPath {
		t.Errorf("path = %q, want %q", response.Path, testStatusPath)
	}
	if len(response.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(response.Entries))
	}
	if response.Entries[0].SHA != commitSHA(3) {
		t.Errorf("newest SHA = %q, want %q", response.Entries[0].SHA, commitSHA(3))
	}

	env.call(t, "status.history", map[string]any{"limit": 1}, &response)
	if len(response.Entries) != 1 {
		t.Errorf("entries = %d with limit 1, want 1", len(response.Entries))
	}
}
