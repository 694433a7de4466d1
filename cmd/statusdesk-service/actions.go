// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

// Control socket actions. Handlers decode the CBOR request, parse
// keys and field names, and funnel the actual work through dispatch
// so the socket mutates the editor session from the same goroutine as
// chat commands. Responses reuse the schema types directly: the CBOR
// library falls back to json struct tags when cbor tags are absent,
// so status.Record goes over the wire with its published field names.

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/statusdesk/statusdesk/lib/codec"
	"github.com/statusdesk/statusdesk/lib/editor"
	"github.com/statusdesk/statusdesk/lib/schema/status"
	"github.com/statusdesk/statusdesk/lib/service"
)

// registerActions registers the socket API. The socket is reachable
// only through its filesystem permissions, so there is no per-action
// authentication: whoever can connect is an operator.
func (s *statusService) registerActions(server *service.SocketServer) {
	// Liveness check. Does not touch the dispatch loop, so it
	// answers even while a slow publish is in flight.
	server.Handle("ping", s.handlePing)

	// Read-only views of the working list.
	server.Handle("status.list", s.handleStatusList)
	server.Handle("status.show", s.handleStatusShow)
	server.Handle("status.history", s.handleStatusHistory)

	// Draft lifecycle.
	server.Handle("status.draft.begin", s.handleDraftBegin)
	server.Handle("status.draft.set", s.handleDraftSet)
	server.Handle("status.draft.add-update", s.handleDraftAddUpdate)
	server.Handle("status.draft.set-update", s.handleDraftSetUpdate)
	server.Handle("status.draft.remove-update", s.handleDraftRemoveUpdate)
	server.Handle("status.draft.commit", s.handleDraftCommit)
	server.Handle("status.draft.discard", s.handleDraftDiscard)
	server.Handle("status.draft.list", s.handleDraftList)

	// Working-list mutations and remote operations.
	server.Handle("status.delete", s.handleStatusDelete)
	server.Handle("status.reset", s.handleStatusReset)
	server.Handle("status.publish", s.handleStatusPublish)
}

// --- Request types ---

// indexRequest names a record by its position in the working list.
type indexRequest struct {
	Index int `cbor:"index"`
}

// keyRequest names a draft: a decimal record index, or "new" for the
// creation draft.
type keyRequest struct {
	Key string `cbor:"key"`
}

// setFieldRequest sets one scalar field on an open draft. Field is
// one of status, services, summary, date.
type setFieldRequest struct {
	Key   string `cbor:"key"`
	Field string `cbor:"field"`
	Value string `cbor:"value"`
}

// entryRequest names one update entry of an open draft.
type entryRequest struct {
	Key   string `cbor:"key"`
	Entry int    `cbor:"entry"`
}

// setEntryFieldRequest sets one field of one update entry. Field is
// one of date, details, url.
type setEntryFieldRequest struct {
	Key   string `cbor:"key"`
	Entry int    `cbor:"entry"`
	Field string `cbor:"field"`
	Value string `cbor:"value"`
}

// historyRequest asks for the most recent publishes. Limit zero means
// the default.
type historyRequest struct {
	Limit int `cbor:"limit,omitempty"`
}

// --- Handlers ---

// pingResponse is the response to the "ping" action.
type pingResponse struct {
	// UptimeSeconds is how long the service has been running.
	UptimeSeconds float64 `cbor:"uptime_seconds"`
}

func (s *statusService) handlePing(ctx context.Context, raw []byte) (any, error) {
	uptime := s.clock.Now().Sub(s.startedAt)
	return pingResponse{
		UptimeSeconds: uptime.Seconds(),
	}, nil
}

// listResponse is the response to "status.list": the full working
// list plus the session state an operator needs before editing.
type listResponse struct {
	// Records is the working list; a record's position is its index.
	Records []status.Record `cbor:"records"`

	// Dirty reports whether the working list differs from the
	// published file.
	Dirty bool `cbor:"dirty"`

	// DraftKeys lists the open drafts ("new" or decimal indexes).
	DraftKeys []string `cbor:"draft_keys,omitempty"`

	// VersionTag is the published revision the working list is based
	// on, empty when the file does not exist yet.
	VersionTag string `cbor:"version_tag,omitempty"`

	// LoadError carries the last baseline load failure, empty when
	// the load succeeded. A non-empty value means Records may be
	// empty or stale; status.reset retries the load.
	LoadError string `cbor:"load_error,omitempty"`
}

func (s *statusService) handleStatusList(ctx context.Context, raw []byte) (any, error) {
	return s.dispatch(ctx, func(ctx context.Context) (any, error) {
		snapshot := s.editor.Snapshot()
		response := listResponse{
			Records:    snapshot.Records,
			Dirty:      snapshot.Dirty,
			DraftKeys:  keyStrings(snapshot.DraftKeys),
			VersionTag: snapshot.VersionTag,
		}
		if err := s.editor.LastLoadError(); err != nil {
			response.LoadError = err.Error()
		}
		return response, nil
	})
}

// recordResponse is the response to "status.show".
type recordResponse struct {
	Index  int           `cbor:"index"`
	Record status.Record `cbor:"record"`
}

func (s *statusService) handleStatusShow(ctx context.Context, raw []byte) (any, error) {
	var request indexRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	return s.dispatch(ctx, func(ctx context.Context) (any, error) {
		record, err := s.editor.Record(request.Index)
		if err != nil {
			return nil, err
		}
		return recordResponse{Index: request.Index, Record: record}, nil
	})
}

// draftResponse reports an open draft's current content. Returned by
// every draft mutation so the client always sees the state it just
// produced.
type draftResponse struct {
	Key    string        `cbor:"key"`
	Record status.Record `cbor:"record"`
}

func draftResponseFrom(draft editor.Draft) draftResponse {
	return draftResponse{Key: draft.Key.String(), Record: draft.Record}
}

func (s *statusService) handleDraftBegin(ctx context.Context, raw []byte) (any, error) {
	var request keyRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	key, err := editor.ParseKey(request.Key)
	if err != nil {
		return nil, err
	}
	return s.dispatch(ctx, func(ctx context.Context) (any, error) {
		if key.IsNew() {
			return draftResponseFrom(s.editor.BeginCreate()), nil
		}
		draft, err := s.editor.BeginEdit(int(key))
		if err != nil {
			return nil, err
		}
		return draftResponseFrom(draft), nil
	})
}

func (s *statusService) handleDraftSet(ctx context.Context, raw []byte) (any, error) {
	var request setFieldRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	key, err := editor.ParseKey(request.Key)
	if err != nil {
		return nil, err
	}
	field, err := editor.ParseField(request.Field)
	if err != nil {
		return nil, err
	}
	return s.dispatch(ctx, func(ctx context.Context) (any, error) {
		draft, err := s.editor.SetField(key, field, request.Value)
		if err != nil {
			return nil, err
		}
		return draftResponseFrom(draft), nil
	})
}

func (s *statusService) handleDraftAddUpdate(ctx context.Context, raw []byte) (any, error) {
	var request keyRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	key, err := editor.ParseKey(request.Key)
	if err != nil {
		return nil, err
	}
	return s.dispatch(ctx, func(ctx context.Context) (any, error) {
		draft, err := s.editor.AddUpdateEntry(key)
		if err != nil {
			return nil, err
		}
		return draftResponseFrom(draft), nil
	})
}

func (s *statusService) handleDraftSetUpdate(ctx context.Context, raw []byte) (any, error) {
	var request setEntryFieldRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	key, err := editor.ParseKey(request.Key)
	if err != nil {
		return nil, err
	}
	field, err := editor.ParseEntryField(request.Field)
	if err != nil {
		return nil, err
	}
	return s.dispatch(ctx, func(ctx context.Context) (any, error) {
		draft, err := s.editor.SetEntryField(key, request.Entry, field, request.Value)
		if err != nil {
			return nil, err
		}
		return draftResponseFrom(draft), nil
	})
}

func (s *statusService) handleDraftRemoveUpdate(ctx context.Context, raw []byte) (any, error) {
	var request entryRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	key, err := editor.ParseKey(request.Key)
	if err != nil {
		return nil, err
	}
	return s.dispatch(ctx, func(ctx context.Context) (any, error) {
		draft, err := s.editor.RemoveUpdateEntry(key, request.Entry)
		if err != nil {
			return nil, err
		}
		return draftResponseFrom(draft), nil
	})
}

// commitResponse is the response to "status.draft.commit". Validation
// failure is an expected outcome, not a transport error, so it comes
// back as data: Committed false with the full field-to-message map,
// which the client renders the same way chat replies do.
type commitResponse struct {
	// Committed reports whether the draft was applied.
	Committed bool `cbor:"committed"`

	// Index is the committed record's position in the working list.
	// Meaningless when Committed is false.
	Index int `cbor:"index"`

	// Record is the committed content. Zero when Committed is false.
	Record status.Record `cbor:"record"`

	// Dirty reports whether the working list now differs from the
	// published file.
	Dirty bool `cbor:"dirty"`

	// Violations maps field paths to messages when validation
	// rejected the draft. The draft is untouched.
	Violations status.Violations `cbor:"violations,omitempty"`
}

func (s *statusService) handleDraftCommit(ctx context.Context, raw []byte) (any, error) {
	var request keyRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	key, err := editor.ParseKey(request.Key)
	if err != nil {
		return nil, err
	}
	return s.dispatch(ctx, func(ctx context.Context) (any, error) {
		draft, err := s.editor.Draft(key)
		if err != nil {
			return nil, err
		}
		result, err := s.editor.Commit(key, draft.Form())
		if err != nil {
			var validation *editor.ValidationError
			if errors.As(err, &validation) {
				return commitResponse{Violations: validation.Violations}, nil
			}
			return nil, err
		}
		return commitResponse{
			Committed: true,
			Index:     result.Index,
			Record:    result.Record,
			Dirty:     s.editor.Dirty(),
		}, nil
	})
}

func (s *statusService) handleDraftDiscard(ctx context.Context, raw []byte) (any, error) {
	var request keyRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	key, err := editor.ParseKey(request.Key)
	if err != nil {
		return nil, err
	}
	return s.dispatch(ctx, func(ctx context.Context) (any, error) {
		s.editor.DiscardDraft(key)
		return nil, nil
	})
}

// draftListResponse is the response to "status.draft.list".
type draftListResponse struct {
	Drafts []draftResponse `cbor:"drafts"`
}

func (s *statusService) handleDraftList(ctx context.Context, raw []byte) (any, error) {
	return s.dispatch(ctx, func(ctx context.Context) (any, error) {
		drafts := s.editor.Drafts()
		response := draftListResponse{Drafts: make([]draftResponse, 0, len(drafts))}
		for _, draft := range drafts {
			response.Drafts = append(response.Drafts, draftResponseFrom(draft))
		}
		return response, nil
	})
}

// deleteResponse is the response to "status.delete".
type deleteResponse struct {
	// Removed is the record that was deleted.
	Removed status.Record `cbor:"removed"`

	// DiscardedDrafts lists draft keys discarded because the
	// deletion shifted their records.
	DiscardedDrafts []string `cbor:"discarded_drafts,omitempty"`

	// Records is the number of records remaining.
	Records int `cbor:"records"`
}

func (s *statusService) handleStatusDelete(ctx context.Context, raw []byte) (any, error) {
	var request indexRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	return s.dispatch(ctx, func(ctx context.Context) (any, error) {
		result, err := s.editor.DeleteRecord(request.Index)
		if err != nil {
			return nil, err
		}
		return deleteResponse{
			Removed:         result.Removed,
			DiscardedDrafts: keyStrings(result.DiscardedDrafts),
			Records:         len(s.editor.Snapshot().Records),
		}, nil
	})
}

// resetResponse is the response to "status.reset".
type resetResponse struct {
	// Records is the number of records after the reload.
	Records int `cbor:"records"`

	// VersionTag is the published revision the reload produced.
	VersionTag string `cbor:"version_tag,omitempty"`
}

func (s *statusService) handleStatusReset(ctx context.Context, raw []byte) (any, error) {
	return s.dispatch(ctx, func(ctx context.Context) (any, error) {
		if err := s.editor.DiscardAllChanges(ctx); err != nil {
			return nil, err
		}
		snapshot := s.editor.Snapshot()
		return resetResponse{
			Records:    len(snapshot.Records),
			VersionTag: snapshot.VersionTag,
		}, nil
	})
}

// publishResponse is the response to "status.publish".
type publishResponse struct {
	// Published is false when the working list already matched the
	// published file; nothing was committed.
	Published bool `cbor:"published"`

	// Records is the number of records in the published document.
	Records int `cbor:"records,omitempty"`

	// VersionTag is the revision after the operation.
	VersionTag string `cbor:"version_tag,omitempty"`

	// CommitSHA and CommitURL identify the commit that was created.
	// Empty when Published is false.
	CommitSHA string `cbor:"commit_sha,omitempty"`
	CommitURL string `cbor:"commit_url,omitempty"`

	// PageURL is the rendered status page, when configured.
	PageURL string `cbor:"page_url,omitempty"`
}

func (s *statusService) handleStatusPublish(ctx context.Context, raw []byte) (any, error) {
	return s.dispatch(ctx, func(ctx context.Context) (any, error) {
		// Socket publishes are attributed to the service account:
		// the socket's peer is anonymous beyond its file permissions.
		result, err := s.publish(ctx, s.userID)
		if err != nil {
			return nil, err
		}
		response := publishResponse{
			Published:  result.Published,
			Records:    result.RecordCount,
			VersionTag: result.VersionTag,
			PageURL:    s.config.GitHub.PageURL,
		}
		if result.Published {
			commit := s.statusFile.LastCommit()
			response.CommitSHA = commit.SHA
			response.CommitURL = commit.HTMLURL
		}
		return response, nil
	})
}

// historyResponse is the response to "status.history".
type historyResponse struct {
	// Path is the file the history was read for.
	Path string `cbor:"path"`

	// Entries lists the most recent commits touching the file,
	// newest first.
	Entries []historyEntry `cbor:"entries"`
}

func (s *statusService) handleStatusHistory(ctx context.Context, raw []byte) (any, error) {
	var request historyRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	limit := request.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	// History reads the GitHub commit log, not the editor session,
	// so it does not need the dispatch loop.
	entries, err := s.history(ctx, limit)
	if err != nil {
		return nil, err
	}
	return historyResponse{
		Path:    s.config.GitHub.Path,
		Entries: entries,
	}, nil
}

// keyStrings renders draft keys the way ParseKey accepts them.
func keyStrings(keys []editor.Key) []string {
	if len(keys) == 0 {
		return nil
	}
	rendered := make([]string, len(keys))
	for i, key := range keys {
		rendered[i] = key.String()
	}
	return rendered
}
