// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package github

import "time"

// User is a GitHub user reference. Appears as the linked account on
// commits.
type User struct {
	Login   string `json:"login"`
	ID      int64  `json:"id"`
	HTMLURL string `json:"html_url"`
}

// CommitAuthor is the git-level author/committer metadata on a commit.
type CommitAuthor struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Date  time.Time `json:"date"`
}

// ContentFile is a file returned by the repository contents API. The
// SHA identifies the blob and doubles as the precondition for writes:
// a PutFile carrying this SHA succeeds only while the file still has
// this exact content.
type ContentFile struct {
	Type     string `json:"type"`     // "file", "dir", "symlink", "submodule"
	Encoding string `json:"encoding"` // "base64" for file reads
	Size     int64  `json:"size"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	HTMLURL  string `json:"html_url"`

	// Content is the base64-encoded file body. GitHub wraps the
	// encoding in newlines; use Decode to get the raw bytes.
	Content string `json:"content"`
}

// ContentCommit is the commit created by a contents API write.
type ContentCommit struct {
	SHA     string       `json:"sha"`
	HTMLURL string       `json:"html_url"`
	Message string       `json:"message"`
	Author  CommitAuthor `json:"author"`
}

// ContentUpdate is the response from creating or updating a file via
// the contents API.
type ContentUpdate struct {
	Content *ContentFile  `json:"content"`
	Commit  ContentCommit `json:"commit"`
}

// CommitListItem is one commit in a repository commit listing.
type CommitListItem struct {
	SHA     string       `json:"sha"`
	HTMLURL string       `json:"html_url"`
	Commit  CommitDetail `json:"commit"`

	// Author is the GitHub account linked to the commit's author
	// email. Nil when the email does not match any account.
	Author *User `json:"author"`
}

// CommitDetail is the git-level metadata inside a commit listing entry.
type CommitDetail struct {
	Message   string       `json:"message"`
	Author    CommitAuthor `json:"author"`
	Committer CommitAuthor `json:"committer"`
}
