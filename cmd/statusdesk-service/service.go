// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/statusdesk/statusdesk/lib/clock"
	"github.com/statusdesk/statusdesk/lib/config"
	"github.com/statusdesk/statusdesk/lib/editor"
	"github.com/statusdesk/statusdesk/lib/github"
	"github.com/statusdesk/statusdesk/lib/journal"
	"github.com/statusdesk/statusdesk/lib/ref"
	"github.com/statusdesk/statusdesk/lib/schema/status"
	"github.com/statusdesk/statusdesk/messaging"
)

// messageEventType is the Matrix event type carrying chat messages.
const messageEventType = ref.EventType("m.room.message")

// maxSyncBackoff caps the wait between sync attempts after repeated
// failures. The first retry waits one second; each further failure
// doubles the wait up to this.
const maxSyncBackoff = 30 * time.Second

// statusService is the daemon core: one Matrix session, one editing
// session, one GitHub client, and the dispatch loop that owns them.
type statusService struct {
	session    *messaging.Session
	editor     *editor.Session
	github     *github.Client
	statusFile *github.StatusFile
	clock      clock.Clock
	config     *config.Config

	userID ref.UserID
	roomID ref.RoomID

	// operators is the allow-list of Matrix users whose commands the
	// service executes. Messages from anyone else are ignored.
	operators map[ref.UserID]bool

	// requests carries control socket work into the dispatch loop.
	requests chan dispatchRequest

	startedAt time.Time
	logger    *slog.Logger
}

// dispatchRequest is one socket action waiting for its turn on the
// dispatch loop.
type dispatchRequest struct {
	run   func(ctx context.Context) (any, error)
	reply chan dispatchResult
}

type dispatchResult struct {
	value any
	err   error
}

// runDispatch is the single goroutine that touches the editing
// session. Chat commands and socket requests are interleaved at
// action granularity: each runs to completion before the next is
// taken, so no operation ever observes another mid-flight.
func (s *statusService) runDispatch(ctx context.Context, events <-chan messaging.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-events:
			s.handleMessage(ctx, event)
		case request := <-s.requests:
			value, err := request.run(ctx)
			request.reply <- dispatchResult{value: value, err: err}
		}
	}
}

// dispatch submits work to the dispatch loop and waits for the
// result. Socket handlers run on per-connection goroutines; every
// editing operation funnels through here. The submitted function runs
// under the loop's context, not the connection's, so a client that
// disconnects mid-publish does not abort the GitHub commit.
func (s *statusService) dispatch(ctx context.Context, run func(ctx context.Context) (any, error)) (any, error) {
	request := dispatchRequest{run: run, reply: make(chan dispatchResult, 1)}
	select {
	case s.requests <- request:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case result := <-request.reply:
		return result.value, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// publish runs a publish attributed to operator and journals the
// result. The chat surface attributes the sending operator; the
// control socket attributes the service account itself.
func (s *statusService) publish(ctx context.Context, operator ref.UserID) (editor.PublishResult, error) {
	oldTag := s.editor.VersionTag()
	message := fmt.Sprintf("Update service status (via statusdesk by %s)", s.operatorLabel(ctx, operator))
	result, err := s.editor.Publish(ctx, message)
	if err != nil || !result.Published {
		return result, err
	}
	s.journalPublish(operator, oldTag, result.VersionTag)
	return result, nil
}

// operatorLabel names an operator for commit messages: the Matrix
// display name with the user ID in parentheses when a profile lookup
// succeeds, the bare user ID otherwise.
func (s *statusService) operatorLabel(ctx context.Context, operator ref.UserID) string {
	displayName, err := s.session.GetDisplayName(ctx, operator)
	if err != nil || displayName == "" {
		return operator.String()
	}
	return fmt.Sprintf("%s (%s)", displayName, operator)
}

// journalPublish appends the published document to the local audit
// journal. Failures are logged and swallowed: the publish itself
// succeeded, and the journal is a record of it, not a gate on it.
func (s *statusService) journalPublish(operator ref.UserID, oldTag, newTag string) {
	if s.config.JournalPath == "" {
		return
	}
	document, err := status.Document(s.editor.Snapshot().Records).Encode()
	if err != nil {
		s.logger.Error("journal skipped, document did not encode", "error", err)
		return
	}
	entry := journal.Entry{
		Time:     s.clock.Now(),
		Operator: operator,
		OldTag:   oldTag,
		NewTag:   newTag,
	}
	if err := journal.Append(s.config.JournalPath, entry, document); err != nil {
		s.logger.Error("journal append failed",
			"path", s.config.JournalPath,
			"error", err,
		)
		return
	}
	s.logger.Info("publish journaled",
		"path", s.config.JournalPath,
		"operator", operator,
		"new_tag", newTag,
	)
}

// defaultHistoryLimit is how many publishes history shows when the
// operator does not ask for a count.
const defaultHistoryLimit = 5

// maxHistoryLimit caps a requested history count at the GitHub
// commits API page size.
const maxHistoryLimit = 100

// historyEntry is one publish in the status file's commit log, in the
// shape both surfaces render from.
type historyEntry struct {
	SHA     string    `cbor:"sha"`
	Message string    `cbor:"message"`
	Author  string    `cbor:"author"`
	Date    time.Time `cbor:"date"`
	URL     string    `cbor:"url,omitempty"`
}

// history lists the most recent commits touching the status file,
// newest first. Reads the remote commit log directly; the editing
// session is not involved.
func (s *statusService) history(ctx context.Context, limit int) ([]historyEntry, error) {
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	iterator := s.github.ListCommits(github.ListCommitsOptions{
		Path:    s.config.GitHub.Path,
		SHA:     s.config.GitHub.Branch,
		PerPage: limit,
	})
	items, err := iterator.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing status file commits: %w", err)
	}
	if len(items) > limit {
		items = items[:limit]
	}

	entries := make([]historyEntry, 0, len(items))
	for _, item := range items {
		author := item.Commit.Author.Name
		if item.Author != nil && item.Author.Login != "" {
			author = item.Author.Login
		}
		entries = append(entries, historyEntry{
			SHA:     item.SHA,
			Message: item.Commit.Message,
			Author:  author,
			Date:    item.Commit.Author.Date,
			URL:     item.HTMLURL,
		})
	}
	return entries, nil
}

// watchMessages pumps room messages from the sync watcher into the
// dispatch loop. WaitForEvent long-polls /sync and retries transient
// errors itself; when it gives up, the pump backs off (one second,
// doubling to maxSyncBackoff) and resumes from the same sync
// position, so no events are lost across an outage.
func (s *statusService) watchMessages(ctx context.Context, watcher *messaging.RoomWatcher, events chan<- messaging.Event) {
	backoff := time.Second
	for {
		event, err := watcher.WaitForEvent(ctx, func(event messaging.Event) bool {
			return event.Type == messageEventType
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("sync failed, backing off",
				"backoff", backoff.String(),
				"sync_position", watcher.SyncPosition(),
				"error", err,
			)
			select {
			case <-ctx.Done():
				return
			case <-s.clock.After(backoff):
			}
			backoff = min(backoff*2, maxSyncBackoff)
			continue
		}
		backoff = time.Second

		select {
		case events <- event:
		case <-ctx.Done():
			return
		}
	}
}
