// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package main

// Reply rendering. Replies are composed as markdown, which becomes
// the m.notice plain-text body as-is; goldmark converts the same text
// to HTML for formatted_body, so replies read cleanly in rich clients
// and degrade to legible plain text everywhere else.

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/statusdesk/statusdesk/lib/editor"
	"github.com/statusdesk/statusdesk/lib/github"
	"github.com/statusdesk/statusdesk/lib/schema/status"
	"github.com/statusdesk/statusdesk/messaging"
)

// markdownInstance is initialized once and reused. The configuration
// never changes and a goldmark.Markdown is safe to share; each
// Convert call carries its own parse state. Raw HTML in the source is
// escaped by the default renderer, so operator-typed text cannot
// smuggle markup into other clients.
var (
	markdownInstance goldmark.Markdown
	markdownOnce     sync.Once
)

func getMarkdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownInstance = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		)
	})
	return markdownInstance
}

// noticeFromMarkdown builds the reply notice: markdown as the plain
// body, its HTML rendering as the formatted body.
func noticeFromMarkdown(markdown string) messaging.MessageContent {
	var buffer bytes.Buffer
	if err := getMarkdown().Convert([]byte(markdown), &buffer); err != nil {
		return messaging.NewNotice(markdown)
	}
	return messaging.NewHTMLNotice(markdown, strings.TrimSpace(buffer.String()))
}

// severityLabel renders a severity with its glyph: "⛔️ down".
// Unknown severities loaded from the remote render bare.
func severityLabel(severity status.Severity) string {
	if glyph := severity.Glyph(); glyph != "" {
		return glyph + " " + severity.String()
	}
	return severity.String()
}

func renderHelp() string {
	var b strings.Builder
	b.WriteString("**statusdesk commands**\n\n")
	for _, name := range chatCommandOrder {
		command := chatCommands[name]
		fmt.Fprintf(&b, "- `!status %s` — %s\n", command.usage, command.summary)
	}
	b.WriteString("\nRecord fields: `status` (resolved, degraded, down, at risk), `services`, `summary`, `date` (YYYY-MM-DDThh:mm). ")
	b.WriteString("`<key>` is a record index, or `new` for the creation draft.")
	return b.String()
}

func renderList(snapshot editor.Snapshot, loadErr error) string {
	var b strings.Builder

	if len(snapshot.Records) == 0 {
		b.WriteString("The working list is empty.")
	} else {
		fmt.Fprintf(&b, "**Service status — %d record(s)**\n\n", len(snapshot.Records))
		for i, record := range snapshot.Records {
			fmt.Fprintf(&b, "- `%d` %s — %s\n", i, severityLabel(record.Status), recordLine(record))
		}
	}

	if loadErr != nil {
		fmt.Fprintf(&b, "\n\n⚠️ The last load of the published file failed (%v), so this list may be empty or stale. `!status reset` retries.", loadErr)
	}
	if len(snapshot.DraftKeys) > 0 {
		fmt.Fprintf(&b, "\n\nOpen drafts: %s.", keyList(snapshot.DraftKeys))
	}
	if snapshot.Dirty {
		b.WriteString("\n\nUnpublished changes — `!status publish` when ready.")
	}
	return b.String()
}

// recordLine is the one-line form used in lists: services, summary,
// opened date, update count.
func recordLine(record status.Record) string {
	return fmt.Sprintf("**%s** — %s (%s, %d update(s))",
		valueOrUnset(record.AffectedServices),
		valueOrUnset(record.Summary),
		valueOrUnset(record.Date),
		len(record.Updates),
	)
}

func renderRecord(index int, record status.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Record %d** — %s\n\n", index, severityLabel(record.Status))
	writeRecordBody(&b, record)
	return b.String()
}

func renderDraft(lead string, draft editor.Draft) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n**Draft `%s`** — %s\n\n", lead, draft.Key, severityLabel(draft.Record.Status))
	writeRecordBody(&b, draft.Record)
	fmt.Fprintf(&b, "\n`!status commit %s` validates and applies it.", draft.Key)
	return b.String()
}

func renderDrafts(drafts []editor.Draft) string {
	if len(drafts) == 0 {
		return "No drafts open."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**%d draft(s) open**\n\n", len(drafts))
	for _, draft := range drafts {
		fmt.Fprintf(&b, "- `%s` %s — %s\n", draft.Key, severityLabel(draft.Record.Status), recordLine(draft.Record))
	}
	return b.String()
}

func renderCommit(result editor.CommitResult, dirty bool) string {
	reply := fmt.Sprintf("Committed to record %d — %s.", result.Index, severityLabel(result.Record.Status))
	if dirty {
		reply += " The working list now differs from the published file; `!status publish` when ready."
	} else {
		reply += " The working list matches the published file again."
	}
	return reply
}

func renderDelete(index int, result editor.DeleteResult) string {
	reply := fmt.Sprintf("Deleted record %d (%s). Records after it shifted down one position.",
		index, valueOrUnset(result.Removed.Summary))
	if len(result.DiscardedDrafts) > 0 {
		reply += fmt.Sprintf(" Discarded drafts made stale by the shift: %s.", keyList(result.DiscardedDrafts))
	}
	return reply
}

func renderPublish(result editor.PublishResult, commit github.ContentCommit, pageURL string) string {
	if !result.Published {
		return "Nothing to publish — the working list matches the published file."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**Published** — %d record(s) in commit `%s`.",
		result.RecordCount, shortSHA(commit.SHA))
	if commit.HTMLURL != "" {
		fmt.Fprintf(&b, "\n\nCommit: %s", commit.HTMLURL)
	}
	if pageURL != "" {
		fmt.Fprintf(&b, "\n\nPage: %s", pageURL)
	}
	return b.String()
}

func renderHistory(path string, entries []historyEntry) string {
	if len(entries) == 0 {
		return fmt.Sprintf("No publishes of `%s` found.", path)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**Last %d publish(es) of `%s`**\n\n", len(entries), path)
	for _, entry := range entries {
		fmt.Fprintf(&b, "- `%s` %s — %s (%s)\n",
			shortSHA(entry.SHA),
			entry.Date.Format("2006-01-02 15:04"),
			firstLine(entry.Message),
			entry.Author,
		)
	}
	return b.String()
}

// renderError turns an operation failure into an operator-facing
// reply. Validation failures list every violated field; everything
// else is the error text with a recovery hint where one exists.
func renderError(err error) string {
	var validation *editor.ValidationError
	if errors.As(err, &validation) {
		return renderViolations(validation.Violations)
	}
	if editor.IsVersionMismatch(err) {
		return "⚠️ The published file changed since it was loaded — someone committed around this session. " +
			"`!status reset` reloads it; unpublished changes here will be lost, so note them down first."
	}
	var transport *editor.TransportError
	if errors.As(err, &transport) {
		return fmt.Sprintf("⚠️ Talking to the published file failed (%s): %v", transport.Op, transport.Err)
	}
	return fmt.Sprintf("That didn't work: %v", err)
}

func renderViolations(violations status.Violations) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Not committed — %d field(s) need attention:**\n\n", len(violations))
	for _, field := range violations.Fields() {
		fmt.Fprintf(&b, "- `%s`: %s\n", field, violations[field])
	}
	b.WriteString("\nThe draft is untouched; fix the fields and commit again.")
	return b.String()
}

func writeRecordBody(b *strings.Builder, record status.Record) {
	fmt.Fprintf(b, "- services: %s\n", valueOrUnset(record.AffectedServices))
	fmt.Fprintf(b, "- summary: %s\n", valueOrUnset(record.Summary))
	fmt.Fprintf(b, "- date: %s\n", valueOrUnset(record.Date))
	if len(record.Updates) == 0 {
		b.WriteString("- updates: none\n")
		return
	}
	b.WriteString("- updates:\n")
	for j, update := range record.Updates {
		fmt.Fprintf(b, "  - `%d` %s — %s", j, valueOrUnset(update.Date), valueOrUnset(update.Details))
		if update.URL != "" {
			fmt.Fprintf(b, " (%s)", update.URL)
		}
		b.WriteString("\n")
	}
}

func keyList(keys []editor.Key) string {
	parts := make([]string, len(keys))
	for i, key := range keys {
		parts[i] = "`" + key.String() + "`"
	}
	return strings.Join(parts, ", ")
}

func valueOrUnset(value string) string {
	if value == "" {
		return "_unset_"
	}
	return value
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func firstLine(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		return message[:i]
	}
	return message
}
