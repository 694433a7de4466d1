// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/statusdesk/statusdesk/lib/editor"
	"github.com/statusdesk/statusdesk/lib/schema/status"
)

// StatusFile reads and writes the status document stored as a single
// JSON file in a GitHub repository. It implements the editing
// session's transport contract: the file's blob SHA is the opaque
// version tag, so a publish conditioned on a stale tag is rejected by
// GitHub and surfaces as a version mismatch instead of silently
// overwriting a concurrent commit.
//
// A StatusFile is not safe for concurrent use.
type StatusFile struct {
	client *Client
	path   string
	branch string
	logger *slog.Logger

	lastCommit ContentCommit
}

var _ editor.Transport = (*StatusFile)(nil)

// StatusFileConfig configures a StatusFile.
type StatusFileConfig struct {
	// Client is the repository-scoped API client.
	Client *Client

	// Path is the file path within the repository, e.g.
	// "data/status.json".
	Path string

	// Branch is the branch to read from and commit to. Empty uses the
	// repository's default branch.
	Branch string

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewStatusFile validates the configuration and returns a StatusFile.
func NewStatusFile(config StatusFileConfig) (*StatusFile, error) {
	if config.Client == nil {
		return nil, fmt.Errorf("github: status file requires a client")
	}
	path := strings.Trim(config.Path, "/")
	if path == "" {
		return nil, fmt.Errorf("github: status file requires a file path")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusFile{
		client: config.Client,
		path:   path,
		branch: config.Branch,
		logger: logger,
	}, nil
}

// Path returns the repository file path being managed.
func (file *StatusFile) Path() string { return file.path }

// Fetch retrieves the current document and its version tag. A file
// that does not exist yet is not an error: the document starts empty,
// and the empty tag tells the next Publish to create the file.
func (file *StatusFile) Fetch(ctx context.Context) (status.Document, string, error) {
	remote, err := file.client.GetFile(ctx, file.path, file.branch)
	if err != nil {
		if IsNotFound(err) {
			file.logger.Info("status file absent on remote, starting from empty document",
				"repository", file.client.Repository(),
				"path", file.path)
			return status.Document{}, "", nil
		}
		return nil, "", &editor.TransportError{Op: "fetch", Err: err}
	}

	raw, err := remote.Decode()
	if err != nil {
		return nil, "", &editor.TransportError{Op: "fetch", Err: err}
	}
	document, err := status.DecodeDocument(raw)
	if err != nil {
		return nil, "", &editor.TransportError{Op: "fetch", Err: fmt.Errorf("decoding %s: %w", file.path, err)}
	}

	file.logger.Info("fetched status file",
		"repository", file.client.Repository(),
		"path", file.path,
		"tag", remote.SHA,
		"records", len(document),
		"digest", contentDigest(raw))
	return document, remote.SHA, nil
}

// Publish commits the document with the given message. tag is the
// blob SHA the document was based on, empty to create the file.
// Returns the blob SHA of the committed content as the new tag.
func (file *StatusFile) Publish(ctx context.Context, document status.Document, tag, message string) (string, error) {
	encoded, err := document.Encode()
	if err != nil {
		return "", &editor.TransportError{Op: "publish", Err: err}
	}

	update, err := file.client.PutFile(ctx, file.path, PutFileRequest{
		Message: message,
		Content: encoded,
		SHA:     tag,
		Branch:  file.branch,
	})
	if err != nil {
		switch {
		case IsConflict(err):
			return "", &editor.VersionMismatchError{Tag: tag}
		case tag == "" && IsUnprocessable(err):
			// GitHub answers 422 when the file exists but no SHA was
			// supplied: the file appeared after our empty-tag fetch,
			// which is the same stale-baseline condition as a 409.
			return "", &editor.VersionMismatchError{Tag: tag}
		}
		return "", &editor.TransportError{Op: "publish", Err: err}
	}

	file.lastCommit = update.Commit
	newTag := ""
	if update.Content != nil {
		newTag = update.Content.SHA
	}
	file.logger.Info("published status file",
		"repository", file.client.Repository(),
		"path", file.path,
		"commit", update.Commit.SHA,
		"tag", newTag,
		"records", len(document),
		"digest", contentDigest(encoded))
	return newTag, nil
}

// LastCommit returns the commit created by the most recent successful
// Publish, zero before the first one. Lets the caller report the
// commit SHA and URL without a second API round trip.
func (file *StatusFile) LastCommit() ContentCommit {
	return file.lastCommit
}

// contentDigest returns a short BLAKE3 digest of the raw file bytes,
// matching the digests recorded in the publish journal.
func contentDigest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
