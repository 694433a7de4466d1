// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"fmt"
	"net/url"
)

// ListCommitsOptions controls filtering and pagination for ListCommits.
type ListCommitsOptions struct {
	// Path restricts the listing to commits that touch this file.
	Path string

	// SHA is the branch or commit to start listing from. Defaults to
	// the repository's default branch.
	SHA string

	// PerPage is the number of results per page (max 100, default 30).
	PerPage int
}

func (options ListCommitsOptions) queryParams() string {
	query := ""
	if options.Path != "" {
		query += "path=" + url.QueryEscape(options.Path) + "&"
	}
	if options.SHA != "" {
		query += "sha=" + url.QueryEscape(options.SHA) + "&"
	}
	if options.PerPage > 0 {
		query += fmt.Sprintf("per_page=%d&", options.PerPage)
	}
	if query != "" {
		return query[:len(query)-1] // trim trailing &
	}
	return ""
}

// ListCommits returns a paginated iterator over commits in the
// repository, newest first. With Path set it walks the edit history of
// a single file.
func (client *Client) ListCommits(options ListCommitsOptions) *PageIterator[CommitListItem] {
	return paginate[CommitListItem](client, client.repoPath("/commits"), options)
}
