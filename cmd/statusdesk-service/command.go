// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package main

// Chat command handling. Commands arrive as m.room.message events
// whose body starts with "!status", are checked against the operator
// allow-list, and map one-to-one onto editing session operations. The
// reply to every command is an m.notice back into the status room.

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/statusdesk/statusdesk/lib/editor"
	"github.com/statusdesk/statusdesk/lib/ref"
	"github.com/statusdesk/statusdesk/messaging"
)

// commandPrefix marks chat messages addressed to the service.
const commandPrefix = "!status"

// chatCommand describes one !status subcommand: the usage line shown
// by help and on malformed input, the minimum argument count, and the
// handler function.
type chatCommand struct {
	usage   string
	summary string
	minArgs int
	handler func(ctx context.Context, s *statusService, sender ref.UserID, args []string) (string, error)
}

// chatCommands maps subcommand names to their definitions. Commands
// not in this map are rejected with a pointer at help. Assigned in
// init rather than a package-level initializer expression because
// handleHelp renders this map, which the compiler rejects as an
// initialization cycle.
var chatCommands map[string]chatCommand

func init() {
	chatCommands = map[string]chatCommand{
		"help":          {"help", "show this command list", 0, handleHelp},
		"list":          {"list", "show the working record list", 0, handleList},
		"show":          {"show <i>", "show record <i> in full", 1, handleShow},
		"edit":          {"edit <i>", "open a draft of record <i>", 1, handleEdit},
		"new":           {"new", "open a draft for a new record", 0, handleNew},
		"set":           {"set <key> <field> <value...>", "set a draft field: status, services, summary, or date", 3, handleSet},
		"add-update":    {"add-update <key>", "append an empty update entry to a draft", 1, handleAddUpdate},
		"set-update":    {"set-update <key> <j> <field> <value...>", "set update entry field: date, details, or url", 4, handleSetUpdate},
		"remove-update": {"remove-update <key> <j>", "remove update entry <j> from a draft", 2, handleRemoveUpdate},
		"commit":        {"commit <key>", "validate a draft and write it into the list", 1, handleCommit},
		"discard":       {"discard <key>", "close a draft without committing", 1, handleDiscard},
		"drafts":        {"drafts", "list the open drafts", 0, handleDrafts},
		"delete":        {"delete <i>", "remove record <i> from the list", 1, handleDelete},
		"reset":         {"reset", "discard everything and reload from the published file", 0, handleReset},
		"publish":       {"publish", "commit the working list to the published file", 0, handlePublish},
		"history":       {"history [n]", "show the last n publishes (default 5)", 0, handleHistory},
	}
}

// chatCommandOrder fixes the help listing: reading commands first,
// then the draft lifecycle, then document-level operations.
var chatCommandOrder = []string{
	"help", "list", "show", "history",
	"edit", "new", "set", "add-update", "set-update", "remove-update",
	"commit", "discard", "drafts",
	"delete", "reset", "publish",
}

// handleMessage is the chat half of the dispatch loop: filter, check
// the operator allow-list, run the command, post the reply.
func (s *statusService) handleMessage(ctx context.Context, event messaging.Event) {
	// The service's own replies echo back through /sync.
	if event.Sender == s.userID {
		return
	}

	body, _ := event.Content["body"].(string)
	fields := strings.Fields(body)
	if len(fields) == 0 || fields[0] != commandPrefix {
		return
	}

	// Only human-typed m.text carries commands; notices are bot
	// output and ignoring them prevents reply loops.
	msgtype, _ := event.Content["msgtype"].(string)
	if msgtype != "m.text" {
		return
	}

	if !s.operators[event.Sender] {
		s.logger.Warn("command from outside the operator allow-list",
			"sender", event.Sender,
			"event_id", event.EventID,
		)
		s.reply(ctx, fmt.Sprintf("Sorry %s, you are not on this service's operator list.", event.Sender))
		return
	}

	name := "help"
	var args []string
	if len(fields) > 1 {
		name = fields[1]
		args = fields[2:]
	}

	command, ok := chatCommands[name]
	if !ok {
		s.reply(ctx, fmt.Sprintf("Unknown command `%s` — `!status help` lists what I understand.", name))
		return
	}
	if len(args) < command.minArgs {
		s.reply(ctx, fmt.Sprintf("Usage: `!status %s`", command.usage))
		return
	}

	start := s.clock.Now()
	s.logger.Info("processing command",
		"command", name,
		"sender", event.Sender,
		"event_id", event.EventID,
	)

	reply, err := command.handler(ctx, s, event.Sender, args)
	if err != nil {
		s.logger.Warn("command failed",
			"command", name,
			"sender", event.Sender,
			"error", err,
		)
		reply = renderError(err)
	}

	s.logger.Info("command handled",
		"command", name,
		"duration_ms", s.clock.Now().Sub(start).Milliseconds(),
	)
	s.reply(ctx, reply)
}

// reply posts a notice to the status room: markdown as the plain
// body, its HTML rendering as the formatted body.
func (s *statusService) reply(ctx context.Context, markdown string) {
	if _, err := s.session.SendMessage(ctx, s.roomID, noticeFromMarkdown(markdown)); err != nil {
		s.logger.Error("failed to post reply", "room_id", s.roomID, "error", err)
	}
}

// parseIndex converts a record or update-entry index argument.
func parseIndex(raw string) (int, error) {
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		return 0, fmt.Errorf("%q is not a record index (expected a non-negative number)", raw)
	}
	return index, nil
}

func handleHelp(_ context.Context, _ *statusService, _ ref.UserID, _ []string) (string, error) {
	return renderHelp(), nil
}

func handleList(_ context.Context, s *statusService, _ ref.UserID, _ []string) (string, error) {
	return renderList(s.editor.Snapshot(), s.editor.LastLoadError()), nil
}

func handleShow(_ context.Context, s *statusService, _ ref.UserID, args []string) (string, error) {
	index, err := parseIndex(args[0])
	if err != nil {
		return "", err
	}
	record, err := s.editor.Record(index)
	if err != nil {
		return "", err
	}
	return renderRecord(index, record), nil
}

func handleEdit(_ context.Context, s *statusService, _ ref.UserID, args []string) (string, error) {
	index, err := parseIndex(args[0])
	if err != nil {
		return "", err
	}
	draft, err := s.editor.BeginEdit(index)
	if err != nil {
		return "", err
	}
	return renderDraft(fmt.Sprintf("Editing record %d.", index), draft), nil
}

func handleNew(_ context.Context, s *statusService, _ ref.UserID, _ []string) (string, error) {
	draft := s.editor.BeginCreate()
	return renderDraft("Drafting a new record.", draft), nil
}

func handleSet(_ context.Context, s *statusService, _ ref.UserID, args []string) (string, error) {
	key, err := editor.ParseKey(args[0])
	if err != nil {
		return "", err
	}
	field, err := editor.ParseField(args[1])
	if err != nil {
		return "", err
	}
	draft, err := s.editor.SetField(key, field, strings.Join(args[2:], " "))
	if err != nil {
		return "", err
	}
	return renderDraft(fmt.Sprintf("Set %s on draft %s.", field, key), draft), nil
}

func handleAddUpdate(_ context.Context, s *statusService, _ ref.UserID, args []string) (string, error) {
	key, err := editor.ParseKey(args[0])
	if err != nil {
		return "", err
	}
	draft, err := s.editor.AddUpdateEntry(key)
	if err != nil {
		return "", err
	}
	return renderDraft(fmt.Sprintf("Added update entry %d to draft %s.", len(draft.Record.Updates)-1, key), draft), nil
}

func handleSetUpdate(_ context.Context, s *statusService, _ ref.UserID, args []string) (string, error) {
	key, err := editor.ParseKey(args[0])
	if err != nil {
		return "", err
	}
	entryIndex, err := parseIndex(args[1])
	if err != nil {
		return "", err
	}
	field, err := editor.ParseEntryField(args[2])
	if err != nil {
		return "", err
	}
	draft, err := s.editor.SetEntryField(key, entryIndex, field, strings.Join(args[3:], " "))
	if err != nil {
		return "", err
	}
	return renderDraft(fmt.Sprintf("Set update %d %s on draft %s.", entryIndex, field, key), draft), nil
}

func handleRemoveUpdate(_ context.Context, s *statusService, _ ref.UserID, args []string) (string, error) {
	key, err := editor.ParseKey(args[0])
	if err != nil {
		return "", err
	}
	entryIndex, err := parseIndex(args[1])
	if err != nil {
		return "", err
	}
	draft, err := s.editor.RemoveUpdateEntry(key, entryIndex)
	if err != nil {
		return "", err
	}
	return renderDraft(fmt.Sprintf("Removed update entry %d from draft %s.", entryIndex, key), draft), nil
}

func handleCommit(_ context.Context, s *statusService, _ ref.UserID, args []string) (string, error) {
	key, err := editor.ParseKey(args[0])
	if err != nil {
		return "", err
	}
	draft, err := s.editor.Draft(key)
	if err != nil {
		return "", err
	}
	result, err := s.editor.Commit(key, draft.Form())
	if err != nil {
		return "", err
	}
	return renderCommit(result, s.editor.Dirty()), nil
}

func handleDiscard(_ context.Context, s *statusService, _ ref.UserID, args []string) (string, error) {
	key, err := editor.ParseKey(args[0])
	if err != nil {
		return "", err
	}
	s.editor.DiscardDraft(key)
	return fmt.Sprintf("Draft %s discarded.", key), nil
}

func handleDrafts(_ context.Context, s *statusService, _ ref.UserID, _ []string) (string, error) {
	return renderDrafts(s.editor.Drafts()), nil
}

func handleDelete(_ context.Context, s *statusService, _ ref.UserID, args []string) (string, error) {
	index, err := parseIndex(args[0])
	if err != nil {
		return "", err
	}
	result, err := s.editor.DeleteRecord(index)
	if err != nil {
		return "", err
	}
	return renderDelete(index, result), nil
}

func handleReset(ctx context.Context, s *statusService, _ ref.UserID, _ []string) (string, error) {
	if err := s.editor.DiscardAllChanges(ctx); err != nil {
		return "", err
	}
	snapshot := s.editor.Snapshot()
	return fmt.Sprintf("Reloaded from the published file: %d record(s), all drafts discarded.", len(snapshot.Records)), nil
}

func handlePublish(ctx context.Context, s *statusService, sender ref.UserID, _ []string) (string, error) {
	result, err := s.publish(ctx, sender)
	if err != nil {
		return "", err
	}
	return renderPublish(result, s.statusFile.LastCommit(), s.config.GitHub.PageURL), nil
}

func handleHistory(ctx context.Context, s *statusService, _ ref.UserID, args []string) (string, error) {
	limit := defaultHistoryLimit
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil || parsed < 1 {
			return "", fmt.Errorf("%q is not a publish count", args[0])
		}
		limit = parsed
	}
	entries, err := s.history(ctx, limit)
	if err != nil {
		return "", err
	}
	return renderHistory(s.config.GitHub.Path, entries), nil
}
