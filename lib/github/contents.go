// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// PutFileRequest contains the fields for writing a file through the
// contents API. Content is the raw file body; the client handles the
// base64 encoding GitHub requires.
type PutFileRequest struct {
	// Message is the commit message.
	Message string

	// Content is the raw file content.
	Content []byte

	// SHA is the blob SHA of the file being replaced. Leave empty when
	// creating a file that does not exist yet. A stale SHA makes
	// GitHub reject the write with 409 Conflict, which is how
	// concurrent edits to the same file are detected.
	SHA string

	// Branch is the branch to commit to. Defaults to the repository's
	// default branch.
	Branch string
}

// GetFile retrieves a single file from the repository. ref selects a
// branch, tag, or commit; empty means the default branch. Returns an
// error satisfying IsNotFound if the file does not exist.
func (client *Client) GetFile(ctx context.Context, path, ref string) (*ContentFile, error) {
	apiPath := client.repoPath("/contents/" + escapePath(path))
	if ref != "" {
		apiPath += "?ref=" + url.QueryEscape(ref)
	}

	var file ContentFile
	if err := client.getJSON(ctx, apiPath, &file); err != nil {
		return nil, fmt.Errorf("getting %s from %s: %w", path, client.Repository(), err)
	}
	if file.Type != "" && file.Type != "file" {
		return nil, fmt.Errorf("github: %s in %s is a %s, not a file", path, client.Repository(), file.Type)
	}
	return &file, nil
}

// PutFile creates or updates a single file in the repository,
// producing one commit. Returns an error satisfying IsConflict if the
// request's SHA no longer matches the file (someone else committed in
// between), and an error satisfying IsUnprocessable if a SHA is
// required but missing.
func (client *Client) PutFile(ctx context.Context, path string, request PutFileRequest) (*ContentUpdate, error) {
	wire := struct {
		Message string `json:"message"`
		Content string `json:"content"`
		SHA     string `json:"sha,omitempty"`
		Branch  string `json:"branch,omitempty"`
	}{
		Message: request.Message,
		Content: base64.StdEncoding.EncodeToString(request.Content),
		SHA:     request.SHA,
		Branch:  request.Branch,
	}

	var update ContentUpdate
	apiPath := client.repoPath("/contents/" + escapePath(path))
	if err := client.putJSON(ctx, apiPath, wire, &update); err != nil {
		return nil, fmt.Errorf("writing %s in %s: %w", path, client.Repository(), err)
	}
	return &update, nil
}

// Decode returns the raw file bytes. GitHub line-wraps the base64
// payload, so whitespace is stripped before decoding.
func (file *ContentFile) Decode() ([]byte, error) {
	if file.Encoding != "base64" {
		return nil, fmt.Errorf("github: unsupported content encoding %q for %s", file.Encoding, file.Path)
	}
	compact := strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, file.Content)
	decoded, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, fmt.Errorf("github: decoding content of %s: %w", file.Path, err)
	}
	return decoded, nil
}

// escapePath escapes each segment of a repository file path while
// keeping the separators, so nested paths stay nested in the URL.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
